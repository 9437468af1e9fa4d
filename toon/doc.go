// Package toon implements TOON, a compact reversible representation for
// JSON-shaped data, plus a heuristic pattern analyzer that recommends a
// compression strategy for a given tree.
//
// TOON is designed to be:
//   - Fully reversible (decode restores the encoded tree exactly, order included)
//   - Deterministic (identical input and level produce identical output)
//   - Tunable (four compression levels trading CPU for size)
//   - Safe to decode (depth and expansion budgets guard against crafted input)
//
// # Compression Levels
//
// Each level enables a strictly growing set of transforms:
//
//	MINIMAL     key abbreviation only
//	STANDARD    + schema/partial-schema arrays, value-pattern tokens
//	AGGRESSIVE  + string dictionary, structural back-references
//	EXTREME     + DEFLATE byte compaction of the whole envelope
//
// # Envelope
//
// The encoded artifact is compact JSON:
//
//	{"_toon":"2.0","_lvl":3,"d":...,"_dict":[...],"_refs":[...]}
//
// Payload sigils: ~ (null), T/F (bool), ^ (absent schema cell),
// $ts: $uid: $url: $eml: $ip4: $ip6: (value-pattern tags), @dN (dictionary
// reference), @rN (structural back-reference), ! (literal escape).
//
// # Analyzer
//
// Analyze classifies a tree against a fixed catalog of shapes (API response,
// paginated listing, consistent-schema array, time series, ...) and Strategy
// folds the detected patterns into a recommended level with reasoning.
package toon
