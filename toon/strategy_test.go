package toon

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetStrategy_MinimalForFlatData(t *testing.T) {
	tree := Map(Field("id", Int(1)), Field("name", Str("x")))
	s := GetStrategy(tree)

	assert.Equal(t, LevelMinimal, s.RecommendedLevel)
	assert.LessOrEqual(t, s.ExpectedSavings, 0.2)
	require.NotEmpty(t, s.Reasoning)
	assert.Contains(t, s.Reasoning[len(s.Reasoning)-1], "MINIMAL")
}

func makeRecords(n int, extra ...Entry) *Value {
	elems := make([]*Value, n)
	for i := range elems {
		entries := []Entry{
			Field("id", Int(int64(i))),
			Field("name", Str("item")),
			Field("value", Float(float64(i))),
		}
		elems[i] = Map(append(entries, extra...)...)
	}
	return Seq(elems...)
}

func TestGetStrategy_AggressiveForSchemaHeavyData(t *testing.T) {
	s := GetStrategy(makeRecords(10))

	// Schema (0.25) plus repeated structure (10 * 0.02 capped at 0.20).
	assert.InDelta(t, 0.45, s.ExpectedSavings, 1e-9)
	assert.Equal(t, LevelAggressive, s.RecommendedLevel)

	joined := strings.Join(s.Reasoning, "\n")
	assert.Contains(t, joined, "schema compression")
	assert.Contains(t, joined, "repeated 10 times")
	assert.Contains(t, joined, "AGGRESSIVE")
}

func TestGetStrategy_ExtremeForHighlyCompressibleData(t *testing.T) {
	tree := Map(
		Field("rows", makeRecords(12, Field("created_at", Str("2025-01-01T00:00:00Z")))),
		Field("colors", Seq(
			Str("red"), Str("red"), Str("blue"), Str("red"), Str("blue"),
			Str("red"), Str("red"), Str("blue"), Str("red"), Str("red"),
		)),
	)
	s := GetStrategy(tree)

	assert.Equal(t, LevelExtreme, s.RecommendedLevel)
	assert.Greater(t, s.ExpectedSavings, 0.6)
	assert.LessOrEqual(t, s.ExpectedSavings, 0.85)
}

func TestGetStrategy_SavingsAreCapped(t *testing.T) {
	// Pile every contributing pattern plus a stack of suggestable keys into
	// one tree; the estimate must stop at the cap.
	tree := Map(
		Field("data", makeRecords(30,
			Field("created_at", Str("2025-01-01T00:00:00Z")),
			Field("warehouse_zone", Str("z")),
			Field("shipping_method", Str("m")),
			Field("customer_segment", Str("s")),
			Field("inventory_bucket", Str("b")),
			Field("fulfillment_stage", Str("f")),
		)),
		Field("states", Seq(
			Str("on"), Str("off"), Str("on"), Str("on"), Str("off"),
			Str("on"), Str("off"), Str("on"), Str("on"), Str("on"),
		)),
		Field("points", Seq(
			Map(Field("timestamp", Str("2025-01-01T00:00:00Z")), Field("reading_total", Float(1))),
			Map(Field("timestamp", Str("2025-01-02T00:00:00Z")), Field("reading_total", Float(2))),
			Map(Field("timestamp", Str("2025-01-03T00:00:00Z")), Field("reading_total", Float(3))),
			Map(Field("timestamp", Str("2025-01-04T00:00:00Z")), Field("reading_total", Float(4))),
			Map(Field("timestamp", Str("2025-01-05T00:00:00Z")), Field("reading_total", Float(5))),
		)),
	)
	s := GetStrategy(tree)
	assert.InDelta(t, 0.85, s.ExpectedSavings, 1e-9)
	assert.Equal(t, LevelExtreme, s.RecommendedLevel)
}

func TestGetStrategy_CustomAbbreviations(t *testing.T) {
	elems := make([]*Value, 5)
	for i := range elems {
		elems[i] = Map(
			Field("internal_reference", Str("ref")),
			Field("warehouseLocation", Str("A1")),
			Field("id", Int(int64(i))), // covered by the static table
			Field("sku", Str("x")),     // too short to abbreviate
		)
	}
	s := GetStrategy(Seq(elems...))

	byKey := make(map[string]string)
	for _, a := range s.CustomAbbrevs {
		byKey[a.Key] = a.Code
	}
	assert.Equal(t, "ir", byKey["internal_reference"])
	assert.Contains(t, byKey, "warehouseLocation")
	assert.NotContains(t, byKey, "id")
	assert.NotContains(t, byKey, "sku")

	for _, a := range s.CustomAbbrevs {
		assert.False(t, IsReservedCode(a.Code), "code %q collides with the static table", a.Code)
		assert.Less(t, len(a.Code), len(a.Key))
	}
}

func TestGetStrategy_CustomAbbrevCodesNeverCollide(t *testing.T) {
	// All three keys synthesize to "ba"; only the first-ranked one keeps it.
	elems := make([]*Value, 4)
	for i := range elems {
		elems[i] = Map(
			Field("billing_amount", Int(1)),
			Field("billing_account", Int(2)),
			Field("billing_address", Int(3)),
		)
	}
	s := GetStrategy(Seq(elems...))

	require.Len(t, s.CustomAbbrevs, 1)
	assert.Equal(t, "billing_amount", s.CustomAbbrevs[0].Key)
	assert.Equal(t, "ba", s.CustomAbbrevs[0].Code)
}

func TestGetStrategy_CustomAbbrevSkipsReservedCodes(t *testing.T) {
	// shipment_total synthesizes to "st", which the static table reserves
	// for "state"; the suggestion must be dropped, not remapped.
	elems := make([]*Value, 4)
	for i := range elems {
		elems[i] = Map(Field("shipment_total", Int(1)))
	}
	s := GetStrategy(Seq(elems...))

	for _, a := range s.CustomAbbrevs {
		assert.NotEqual(t, "shipment_total", a.Key)
	}
}

func TestGetStrategy_Deterministic(t *testing.T) {
	tree := Map(
		Field("status", Str("ok")),
		Field("data", makeRecords(8, Field("custom_field_name", Str("v")))),
	)
	first := GetStrategy(tree)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, GetStrategy(tree))
	}
}

func TestGetStrategyWithConfig_Bands(t *testing.T) {
	tree := makeRecords(10) // savings 0.45 with defaults

	cfg := DefaultConfig()
	cfg.ExtremeBand = 0.44
	cfg.AggressiveBand = 0.30
	cfg.StandardBand = 0.10
	s := GetStrategyWithConfig(tree, cfg)
	assert.Equal(t, LevelExtreme, s.RecommendedLevel)

	cfg.ExtremeBand = 0.9
	cfg.AggressiveBand = 0.8
	cfg.StandardBand = 0.44
	s = GetStrategyWithConfig(tree, cfg)
	assert.Equal(t, LevelStandard, s.RecommendedLevel)
}

func TestSynthesizeCode(t *testing.T) {
	tests := []struct {
		key  string
		code string
	}{
		{"internal_reference", "ir"},
		{"shipment_total", "st"},
		{"background_color", "bc"},
		{"transaction", "trns"},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			assert.Equal(t, tc.code, synthesizeCode(tc.key))
		})
	}
}
