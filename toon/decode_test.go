package toon

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireDecodeKind(t *testing.T, err error, kind DecodeErrorKind) {
	t.Helper()
	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	require.Equal(t, kind, decErr.Kind, "got: %v", err)
}

func TestDecode_EnvelopeValidation(t *testing.T) {
	tests := []struct {
		name string
		repr string
		kind DecodeErrorKind
	}{
		{"not_json", `{{{`, MalformedEnvelope},
		{"top_level_array", `[1,2,3]`, MalformedEnvelope},
		{"missing_version", `{"_lvl":2,"d":null}`, MalformedEnvelope},
		{"version_not_string", `{"_toon":2,"_lvl":2,"d":null}`, MalformedEnvelope},
		{"unsupported_version", `{"_toon":"1.0","_lvl":2,"d":null}`, UnsupportedVersion},
		{"future_version", `{"_toon":"3.1","_lvl":2,"d":null}`, UnsupportedVersion},
		{"missing_level", `{"_toon":"2.0","d":null}`, MalformedEnvelope},
		{"level_not_number", `{"_toon":"2.0","_lvl":"two","d":null}`, MalformedEnvelope},
		{"level_out_of_range", `{"_toon":"2.0","_lvl":9,"d":null}`, MalformedEnvelope},
		{"level_zero", `{"_toon":"2.0","_lvl":0,"d":null}`, MalformedEnvelope},
		{"missing_payload", `{"_toon":"2.0","_lvl":2}`, MalformedEnvelope},
		{"dict_not_array", `{"_toon":"2.0","_lvl":3,"d":null,"_dict":"x"}`, MalformedEnvelope},
		{"dict_entry_not_string", `{"_toon":"2.0","_lvl":3,"d":null,"_dict":[1]}`, MalformedEnvelope},
		{"refs_not_array", `{"_toon":"2.0","_lvl":3,"d":null,"_refs":{}}`, MalformedEnvelope},
		{"zlib_not_bool", `{"_toon":"2.0","_lvl":4,"_zlib":1,"d":""}`, MalformedEnvelope},
		{"zlib_payload_not_string", `{"_toon":"2.0","_lvl":4,"_zlib":true,"d":[]}`, MalformedEnvelope},
		{"zlib_bad_base64", `{"_toon":"2.0","_lvl":4,"_zlib":true,"d":"!!!"}`, MalformedEnvelope},
		{"bare_absent_marker", `{"_toon":"2.0","_lvl":2,"d":"^"}`, MalformedEnvelope},
		{"unknown_pattern_token", `{"_toon":"2.0","_lvl":2,"d":"$zz:what"}`, MalformedEnvelope},
		{"unknown_reference_prefix", `{"_toon":"2.0","_lvl":3,"d":"@x0"}`, MalformedEnvelope},
		{"non_numeric_dict_token", `{"_toon":"2.0","_lvl":3,"d":"@dx"}`, MalformedEnvelope},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.repr)
			requireDecodeKind(t, err, tc.kind)
		})
	}
}

func TestDecode_DictionaryIndexOutOfRange(t *testing.T) {
	got, err := Decode(`{"_toon":"2.0","_lvl":3,"d":"@d1","_dict":["only","two"]}`)
	require.NoError(t, err)
	s, err := got.AsStr()
	require.NoError(t, err)
	assert.Equal(t, "two", s)

	_, err = Decode(`{"_toon":"2.0","_lvl":3,"d":"@d2","_dict":["only","two"]}`)
	requireDecodeKind(t, err, DictionaryIndexOutOfRange)

	_, err = Decode(`{"_toon":"2.0","_lvl":3,"d":"@d0"}`)
	requireDecodeKind(t, err, DictionaryIndexOutOfRange)
}

func TestDecode_DanglingReference(t *testing.T) {
	_, err := Decode(`{"_toon":"2.0","_lvl":3,"d":"@r0"}`)
	requireDecodeKind(t, err, DanglingReference)

	_, err = Decode(`{"_toon":"2.0","_lvl":3,"d":"@r3","_refs":[{"a":1}]}`)
	requireDecodeKind(t, err, DanglingReference)
}

func TestDecode_SchemaRowMismatch(t *testing.T) {
	tests := []struct {
		name string
		repr string
	}{
		{"short_row", `{"_toon":"2.0","_lvl":2,"d":{"_sch":["i","n"],"_dat":[[1]]}}`},
		{"long_row_without_overflow", `{"_toon":"2.0","_lvl":2,"d":{"_sch":["i"],"_dat":[[1,2]]}}`},
		{"row_not_array", `{"_toon":"2.0","_lvl":2,"d":{"_sch":["i"],"_dat":[{"i":1}]}}`},
		{"overflow_missing_marker", `{"_toon":"2.0","_lvl":2,"d":{"_sch":["i"],"_dat":[[1,{"x":2}]]}}`},
		{"overflow_not_mapping", `{"_toon":"2.0","_lvl":2,"d":{"_sch":["i"],"_dat":[[1,{"_opt":[]}]]}}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.repr)
			requireDecodeKind(t, err, SchemaRowMismatch)
		})
	}
}

func TestDecode_SelfReferenceIsBounded(t *testing.T) {
	// A reference whose expansion contains itself can only come from a
	// crafted envelope. Every hop through the reference table is charged
	// against the depth and node budgets before expanding, so the cycle
	// terminates with a typed error instead of exhausting the stack.
	_, err := Decode(`{"_toon":"2.0","_lvl":3,"d":"@r0","_refs":["@r0"]}`)
	requireDecodeKind(t, err, DepthOrSizeLimitExceeded)

	// Mutual cycle across two entries.
	_, err = Decode(`{"_toon":"2.0","_lvl":3,"d":"@r0","_refs":["@r1","@r0"]}`)
	requireDecodeKind(t, err, DepthOrSizeLimitExceeded)
}

func TestDecode_ReferenceBombHitsNodeBudget(t *testing.T) {
	// Classic ten-of-ten-of-ten expansion: three levels of references that
	// would materialize ~10^3 leaves from a tiny envelope.
	leaf := `["xxxx","xxxx","xxxx","xxxx","xxxx","xxxx","xxxx","xxxx","xxxx","xxxx"]`
	mid := `["@r0","@r0","@r0","@r0","@r0","@r0","@r0","@r0","@r0","@r0"]`
	top := `["@r1","@r1","@r1","@r1","@r1","@r1","@r1","@r1","@r1","@r1"]`
	repr := fmt.Sprintf(`{"_toon":"2.0","_lvl":3,"d":"@r2","_refs":[%s,%s,%s]}`, leaf, mid, top)

	cfg := DefaultConfig()
	cfg.MaxDecodeNodes = 200
	_, err := DecodeWithConfig(repr, cfg)
	requireDecodeKind(t, err, DepthOrSizeLimitExceeded)

	// With a roomy budget the same envelope is fine.
	got, err := Decode(repr)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Len())
}

func TestDecode_DictionaryBombHitsByteBudget(t *testing.T) {
	entry := strings.Repeat("y", 1000)
	tokens := strings.TrimSuffix(strings.Repeat(`"@d0",`, 50), ",")
	repr := fmt.Sprintf(`{"_toon":"2.0","_lvl":3,"d":[%s],"_dict":["%s"]}`, tokens, entry)

	cfg := DefaultConfig()
	cfg.MaxDecodeBytes = 10_000
	_, err := DecodeWithConfig(repr, cfg)
	requireDecodeKind(t, err, DepthOrSizeLimitExceeded)
}

func TestDecode_DepthLimit(t *testing.T) {
	deep := strings.Repeat("[", 50) + "1" + strings.Repeat("]", 50)
	repr := `{"_toon":"2.0","_lvl":2,"d":` + deep + `}`

	cfg := DefaultConfig()
	cfg.MaxDecodeDepth = 10
	_, err := DecodeWithConfig(repr, cfg)
	requireDecodeKind(t, err, DepthOrSizeLimitExceeded)
}

func TestDecode_NestedByteCompactionRejected(t *testing.T) {
	inner, _, err := Encode(Str("payload"), LevelExtreme)
	require.NoError(t, err)

	// Re-wrap the already compacted envelope in a second byte pass.
	double, err := deflateEnvelope(inner)
	require.NoError(t, err)

	_, err = Decode(double)
	requireDecodeKind(t, err, MalformedEnvelope)
}

func TestDecode_UnknownKeyCodesAreTolerated(t *testing.T) {
	got, err := Decode(`{"_toon":"2.0","_lvl":2,"d":{"xyz":1,"i":2}}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"xyz", "id"}, got.Keys())
}

func TestDecode_BackReferencesYieldIndependentInstances(t *testing.T) {
	// A mapping container, not a sequence: a sequence of identical
	// mappings would be absorbed by a schema block before dedup ever sees
	// the elements.
	tree := Map(
		Field("x", Map(Field("a", Int(1)), Field("b", Int(2)))),
		Field("y", Map(Field("a", Int(1)), Field("b", Int(2)))),
	)
	repr, _, err := Encode(tree, LevelAggressive)
	require.NoError(t, err)
	require.Contains(t, repr, `"@r0"`)

	got, err := Decode(repr)
	require.NoError(t, err)
	require.True(t, Equal(tree, got))

	got.Get("x").Set("a", Int(99))
	v, err := got.Get("y").Get("a").AsInt()
	require.NoError(t, err)
	assert.Equal(t, int64(1), v, "decoded occurrences must not share structure")
}

func TestDecode_MinimalTreatsSigilsAsLiterals(t *testing.T) {
	got, err := Decode(`{"_toon":"2.0","_lvl":1,"d":["~","T","F","$ts:x","@d0"]}`)
	require.NoError(t, err)

	want := Seq(Str("~"), Str("T"), Str("F"), Str("$ts:x"), Str("@d0"))
	require.True(t, Equal(want, got))
}

func TestDecode_EscapedLiterals(t *testing.T) {
	got, err := Decode(`{"_toon":"2.0","_lvl":2,"d":["!~","!T","!@d0","!!raw"]}`)
	require.NoError(t, err)

	want := Seq(Str("~"), Str("T"), Str("@d0"), Str("!raw"))
	require.True(t, Equal(want, got))
}
