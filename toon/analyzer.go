package toon

import (
	"sort"
	"strconv"
)

// ============================================================
// Pattern Analyzer
// ============================================================
//
// Analyze classifies a tree against the fixed detector catalog. Detectors
// are independent: each evaluates one catalog entry against the tree and
// either returns a single Pattern or abstains. The analyzer never fails;
// shapes a detector cannot evaluate are simply absent from the result.
// It reads only the tree and the configured thresholds, never the codec.

// Analyze returns detected patterns sorted by descending confidence, with
// catalog priority as the stable tie-break.
func Analyze(tree *Value) []Pattern {
	return AnalyzeWithConfig(tree, DefaultConfig())
}

// AnalyzeWithConfig analyzes with explicit thresholds.
func AnalyzeWithConfig(tree *Value, cfg Config) []Pattern {
	a := &analysis{
		root: tree,
		cfg:  cfg,
		st:   collectStats(tree, cfg.MaxEncodeDepth),
	}

	var patterns []Pattern
	for _, det := range detectors {
		if p, ok := det(a); ok {
			patterns = append(patterns, p)
		}
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Confidence > patterns[j].Confidence
	})
	return patterns
}

// analysis is the working state of one Analyze call.
type analysis struct {
	root *Value
	cfg  Config
	st   *treeStats
}

// treeStats is the shared one-pass statistics the detectors consume.
type treeStats struct {
	keyFreq    map[string]int
	keyOrder   []string // first-occurrence order, for deterministic ranking
	maxDepth   int
	arraySizes []int
	nodeCount  int
	nullCount  int
	truncated  bool // traversal hit the depth cap
}

// collectStats walks the tree once. The depth cap guarantees termination
// even for pathological (nominally impossible) cyclic input, since the
// analyzer must never fail or hang.
func collectStats(v *Value, maxDepth int) *treeStats {
	st := &treeStats{keyFreq: make(map[string]int)}
	statsWalk(v, 1, maxDepth, st)
	return st
}

func statsWalk(v *Value, depth, maxDepth int, st *treeStats) {
	if depth > maxDepth {
		st.truncated = true
		return
	}
	st.nodeCount++
	if depth > st.maxDepth {
		st.maxDepth = depth
	}
	if v.IsNull() {
		st.nullCount++
		return
	}
	switch v.kind {
	case KindSeq:
		st.arraySizes = append(st.arraySizes, len(v.seqVal))
		for _, elem := range v.seqVal {
			statsWalk(elem, depth+1, maxDepth, st)
		}
	case KindMap:
		for _, e := range v.mapVal {
			if _, seen := st.keyFreq[e.Key]; !seen {
				st.keyOrder = append(st.keyOrder, e.Key)
			}
			st.keyFreq[e.Key]++
			statsWalk(e.Value, depth+1, maxDepth, st)
		}
	}
}

// walk visits every node in DFS order, depth-capped like collectStats.
func (a *analysis) walk(fn func(path string, v *Value)) {
	var rec func(v *Value, path string, depth int)
	rec = func(v *Value, path string, depth int) {
		if depth > a.cfg.MaxEncodeDepth {
			return
		}
		fn(path, v)
		switch v.Kind() {
		case KindSeq:
			for i, elem := range v.seqVal {
				rec(elem, path+"["+strconv.Itoa(i)+"]", depth+1)
			}
		case KindMap:
			for _, e := range v.mapVal {
				rec(e.Value, path+"."+e.Key, depth+1)
			}
		}
	}
	rec(a.root, "$", 1)
}

// keySetConsistency is the analyzer's own key-set consistency measure for
// a sequence of mappings: 1.0 when all key sets are identical, otherwise
// |intersection| / |union|. The codec computes its equivalent
// independently; the analyzer is advisory and must not feed it.
func keySetConsistency(elems []*Value) float64 {
	if len(elems) == 0 {
		return 0
	}
	union := make(map[string]int)
	for _, elem := range elems {
		for _, e := range elem.mapVal {
			union[e.Key]++
		}
	}
	if len(union) == 0 {
		return 0
	}
	intersection := 0
	identical := true
	for _, n := range union {
		if n == len(elems) {
			intersection++
		} else {
			identical = false
		}
	}
	for _, elem := range elems {
		if len(elem.mapVal) != len(union) {
			identical = false
		}
	}
	if identical {
		return 1.0
	}
	return float64(intersection) / float64(len(union))
}
