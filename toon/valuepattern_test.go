package toon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchValuePattern(t *testing.T) {
	tests := []struct {
		in   string
		tag  string
		want bool
	}{
		{"2025-01-15T10:30:00Z", tagTimestamp, true},
		{"2025-01-15T10:30:00.123Z", tagTimestamp, true},
		{"2025-01-15T10:30:00+02:00", tagTimestamp, true},
		{"2025-01-15T10:30:00", tagTimestamp, true},
		{"2025-01-15", "", false}, // date only, not a timestamp
		{"550e8400-e29b-41d4-a716-446655440000", tagUUID, true},
		{"550e8400-e29b-41d4-a716-44665544000g", "", false},
		{"https://example.com/path?q=1", tagURL, true},
		{"http://example.com", tagURL, true},
		{"ftp://example.com", "", false},
		{"user.name+tag@sub.example.co", tagEmail, true},
		{"not-an-email@", "", false},
		{"10.0.0.1", tagIPv4, true},
		{"10.0.0", "", false},
		{"2001:0db8:0000:0000:0000:8a2e:0370:7334", tagIPv6, true},
		{"hello world", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			tag, ok := matchValuePattern(tc.in)
			require.Equal(t, tc.want, ok)
			assert.Equal(t, tc.tag, tag)
		})
	}
}

func TestDecodePatternToken(t *testing.T) {
	original, ok := decodePatternToken("$ts:2025-01-15T10:30:00Z")
	require.True(t, ok)
	assert.Equal(t, "2025-01-15T10:30:00Z", original)

	_, ok = decodePatternToken("$nope:x")
	assert.False(t, ok)
	_, ok = decodePatternToken("plain")
	assert.False(t, ok)
}

// The token round trip must hold even when the tagged text is not actually
// of the claimed shape; decode only strips the tag.
func TestPatternTokenCarriesTextVerbatim(t *testing.T) {
	original, ok := decodePatternToken("$url:not really a url")
	require.True(t, ok)
	assert.Equal(t, "not really a url", original)
}

func TestStringNeedsEscape(t *testing.T) {
	for _, s := range []string{"~", "T", "F", "^", "$anything", "@d0", "@r1", "!x", "!"} {
		assert.True(t, stringNeedsEscape(s), "%q", s)
	}
	for _, s := range []string{"", "t", "f", "plain", "a~b", "x@y", "中"} {
		assert.False(t, stringNeedsEscape(s), "%q", s)
	}
}
