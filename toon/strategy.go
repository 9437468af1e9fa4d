package toon

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ============================================================
// Compression Strategy
// ============================================================

// SuggestedAbbrev is one proposed custom abbreviation for a frequent key
// the static table does not cover.
type SuggestedAbbrev struct {
	Key  string
	Code string
}

// CompressionStrategy is the analyzer's recommendation for a tree, derived
// deterministically from its Pattern list.
type CompressionStrategy struct {
	RecommendedLevel Level
	ExpectedSavings  float64 // estimated fraction of the original size saved
	Reasoning        []string
	Patterns         []Pattern
	CustomAbbrevs    []SuggestedAbbrev
}

// GetStrategy analyzes a tree and folds the detected patterns into a
// recommended level with reasoning, using default thresholds.
func GetStrategy(tree *Value) CompressionStrategy {
	return GetStrategyWithConfig(tree, DefaultConfig())
}

// GetStrategyWithConfig recommends with explicit thresholds.
func GetStrategyWithConfig(tree *Value, cfg Config) CompressionStrategy {
	patterns := AnalyzeWithConfig(tree, cfg)
	st := collectStats(tree, cfg.MaxEncodeDepth)

	strategy := CompressionStrategy{Patterns: patterns}
	savings := 0.0

	for _, p := range patterns {
		switch p.Type {
		case PatternConsistentSchemaArray:
			switch {
			case p.Confidence > 0.8:
				savings += 0.25
				strategy.Reasoning = append(strategy.Reasoning, fmt.Sprintf(
					"schema compression for %d items with %.0f%% consistency",
					p.Count, p.Confidence*100))
			case p.Confidence > 0.5:
				savings += 0.15
				strategy.Reasoning = append(strategy.Reasoning, fmt.Sprintf(
					"partial schema compression for %.0f%% consistent array",
					p.Confidence*100))
			}

		case PatternRepeatedStructure:
			if p.Count >= 3 {
				contribution := float64(p.Count) * 0.02
				if contribution > 0.20 {
					contribution = 0.20
				}
				savings += contribution
				strategy.Reasoning = append(strategy.Reasoning, fmt.Sprintf(
					"reference compression for structure repeated %d times", p.Count))
			}

		case PatternEnumValues:
			savings += 0.15
			strategy.Reasoning = append(strategy.Reasoning,
				"string dictionary for repeated enum values")

		case PatternTimeSeries, PatternDatabaseRecord:
			savings += 0.10
			strategy.Reasoning = append(strategy.Reasoning, fmt.Sprintf(
				"value-pattern compression for %s data", p.Type))
		}
	}

	strategy.CustomAbbrevs = suggestAbbreviations(st)
	savings += float64(len(strategy.CustomAbbrevs)) * 0.01

	if savings > 0.85 {
		savings = 0.85
	}
	strategy.ExpectedSavings = savings

	switch {
	case savings > cfg.ExtremeBand:
		strategy.RecommendedLevel = LevelExtreme
		strategy.Reasoning = append(strategy.Reasoning,
			"EXTREME level recommended for maximum compression")
	case savings > cfg.AggressiveBand:
		strategy.RecommendedLevel = LevelAggressive
		strategy.Reasoning = append(strategy.Reasoning,
			"AGGRESSIVE level recommended for high compression")
	case savings > cfg.StandardBand:
		strategy.RecommendedLevel = LevelStandard
		strategy.Reasoning = append(strategy.Reasoning,
			"STANDARD level provides a good balance")
	default:
		strategy.RecommendedLevel = LevelMinimal
		strategy.Reasoning = append(strategy.Reasoning,
			"MINIMAL level sufficient for this data")
	}

	return strategy
}

// ============================================================
// Custom Abbreviation Synthesis
// ============================================================

// suggestAbbreviations proposes short codes for the most frequent mapping
// keys the static table does not already cover. Ranking and synthesis are
// deterministic, and proposed codes never collide with reserved codes or
// with each other.
func suggestAbbreviations(st *treeStats) []SuggestedAbbrev {
	firstSeen := make(map[string]int, len(st.keyOrder))
	for i, k := range st.keyOrder {
		firstSeen[k] = i
	}

	ranked := append([]string(nil), st.keyOrder...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if st.keyFreq[ranked[i]] != st.keyFreq[ranked[j]] {
			return st.keyFreq[ranked[i]] > st.keyFreq[ranked[j]]
		}
		return firstSeen[ranked[i]] < firstSeen[ranked[j]]
	})
	if len(ranked) > 20 {
		ranked = ranked[:20]
	}

	var out []SuggestedAbbrev
	taken := make(map[string]bool)
	for _, key := range ranked {
		if st.keyFreq[key] < 3 || len(key) <= 3 {
			continue
		}
		if _, covered := keyToCode[key]; covered {
			continue
		}
		code := synthesizeCode(key)
		if code == "" || code == key {
			continue
		}
		if IsReservedCode(code) || taken[code] {
			continue
		}
		taken[code] = true
		out = append(out, SuggestedAbbrev{Key: key, Code: code})
	}
	return out
}

var (
	reCommonSuffix = regexp.MustCompile(`_(id|name|code|type|status|at)$`)
	reCamelStart   = regexp.MustCompile(`^[a-z]+[A-Z]`)
	reCamelPart    = regexp.MustCompile(`[A-Z][a-z]*`)
)

// synthesizeCode derives a short code from a key: camelCase initials,
// snake_case initials, or vowel stripping, capped at 4 characters.
func synthesizeCode(key string) string {
	clean := reCommonSuffix.ReplaceAllString(key, "")
	if clean == "" {
		clean = key
	}

	if reCamelStart.MatchString(key) {
		parts := reCamelPart.FindAllString(key, -1)
		if len(parts) > 0 {
			var b strings.Builder
			b.WriteByte(key[0])
			for _, p := range parts {
				b.WriteByte(p[0] | 0x20)
			}
			return b.String()
		}
	}

	if strings.Contains(clean, "_") {
		parts := strings.Split(clean, "_")
		if len(parts) <= 3 {
			var b strings.Builder
			for _, p := range parts {
				if p != "" {
					b.WriteByte(p[0])
				}
			}
			if b.Len() > 0 {
				return strings.ToLower(b.String())
			}
		}
	}

	var b strings.Builder
	b.WriteByte(clean[0])
	for i := 1; i < len(clean); i++ {
		switch clean[i] {
		case 'a', 'e', 'i', 'o', 'u', 'A', 'E', 'I', 'O', 'U':
			continue
		default:
			b.WriteByte(clean[i])
		}
	}
	code := strings.ToLower(b.String())
	if len(code) > 4 {
		code = code[:4]
	}
	return code
}
