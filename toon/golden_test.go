package toon

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// Golden representations pin the wire format byte for byte. EXTREME is
// covered by round-trip tests instead; its DEFLATE stream is not a stable
// fixture across library versions.
func TestGoldenRepresentations(t *testing.T) {
	tests := []struct {
		name  string
		tree  *Value
		level Level
	}{
		{"scalar_minimal", Str("hello"), LevelMinimal},
		{"user_standard", Map(
			Field("id", Int(1)),
			Field("name", Str("Alice")),
			Field("email", Str("alice@test.com")),
		), LevelStandard},
		{"records_standard", Seq(
			Map(Field("id", Int(1)), Field("name", Str("A"))),
			Map(Field("id", Int(2)), Field("name", Str("B"))),
			Map(Field("id", Int(3)), Field("name", Str("C"))),
		), LevelStandard},
		{"dedup_aggressive", Map(
			Field("first", Map(Field("a", Int(1)), Field("b", Int(2)))),
			Field("second", Map(Field("a", Int(1)), Field("b", Int(2)))),
		), LevelAggressive},
		{"dict_aggressive", Seq(
			Str("status-active"), Str("status-active"), Str("status-active"),
		), LevelAggressive},
	}

	g := goldie.New(t)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repr, _, err := Encode(tc.tree, tc.level)
			require.NoError(t, err)
			g.Assert(t, tc.name, []byte(repr))

			got, err := Decode(repr)
			require.NoError(t, err)
			require.True(t, Equal(tc.tree, got))
		})
	}
}
