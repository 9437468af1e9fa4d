package toon

import (
	"fmt"
	"sort"
	"strings"
)

// ============================================================
// Detector Catalog
// ============================================================
//
// One detector per catalog entry, registered in priority order. Each
// detector evaluates the whole tree, returns at most one Pattern (its
// strongest match), and abstains by returning false. New shapes are added
// by appending here, never by special-casing elsewhere.

type detector func(a *analysis) (Pattern, bool)

var detectors = []detector{
	detectAPIResponse,
	detectDatabaseRecord,
	detectUserData,
	detectPagination,
	detectNestedAddress,
	detectNestedCoordinates,
	detectNestedDimensions,
	detectNestedMetadata,
	detectHomogeneousArray,
	detectConsistentSchemaArray,
	detectRepeatedStructure,
	detectTimeSeries,
	detectGraphNode,
	detectTreeStructure,
	detectEnumValues,
	detectSparseArray,
	detectDeepNesting,
}

// ============================================================
// Key-Cluster Detectors
// ============================================================

// keyCluster is a named set of field names whose co-occurrence signals a
// known shape. Confidence is the matched fraction of the cluster.
type keyCluster struct {
	name string
	keys []string
}

var apiClusters = []keyCluster{
	{"rest_response", []string{"status", "data", "message", "meta"}},
	{"rest_listing", []string{"status", "data", "results", "errors"}},
	{"graphql_response", []string{"data", "errors", "extensions"}},
	{"json_rpc", []string{"jsonrpc", "result", "error", "id"}},
	{"oauth", []string{"access_token", "token_type", "expires_in", "refresh_token"}},
	{"error_response", []string{"error", "error_code", "error_message", "details"}},
}

var databaseClusters = []keyCluster{
	{"crud_record", []string{"id", "created_at", "updated_at", "deleted_at"}},
	{"audit_log", []string{"user_id", "action", "timestamp", "changes"}},
	{"versioned", []string{"id", "version", "created_at", "updated_at"}},
	{"soft_delete", []string{"deleted_at", "deleted_by", "is_deleted"}},
}

var userClusters = []keyCluster{
	{"basic_user", []string{"username", "email", "password"}},
	{"profile", []string{"first_name", "last_name", "avatar", "bio"}},
	{"authentication", []string{"token", "session_id", "expires_at"}},
	{"preferences", []string{"theme", "language", "timezone", "notifications"}},
}

var paginationKeys = []string{
	"page", "per_page", "total_pages", "total_count",
	"limit", "offset", "next", "previous", "has_more",
}

// clusterMatch returns the matched keys of the best-scoring cluster.
func clusterMatch(m *Value, clusters []keyCluster) (string, []string, float64) {
	bestScore := 0.0
	bestName := ""
	var bestKeys []string
	for _, c := range clusters {
		var matched []string
		for _, k := range c.keys {
			if m.Has(k) {
				matched = append(matched, k)
			}
		}
		score := float64(len(matched)) / float64(len(c.keys))
		if score > bestScore {
			bestScore = score
			bestName = c.name
			bestKeys = matched
		}
	}
	return bestName, bestKeys, bestScore
}

// bestClusterMatch scans every mapping in the tree (and, for sequences of
// mappings, the first element standing in for the whole) and keeps the
// strongest cluster match. DFS order makes ties deterministic.
func (a *analysis) bestClusterMatch(clusters []keyCluster, minScore float64) (Pattern, bool) {
	var best Pattern
	found := false
	a.walk(func(path string, v *Value) {
		m := v
		count := 0
		if v.Kind() == KindSeq && len(v.seqVal) > 0 && v.seqVal[0].Kind() == KindMap {
			m = v.seqVal[0]
			count = len(v.seqVal)
		}
		if m.Kind() != KindMap {
			return
		}
		name, keys, score := clusterMatch(m, clusters)
		if score <= minScore {
			return
		}
		if !found || score > best.Confidence {
			found = true
			best = Pattern{
				Confidence: score,
				Location:   path,
				Keys:       keys,
				Count:      count,
				Note:       name,
			}
		}
	})
	return best, found
}

func detectAPIResponse(a *analysis) (Pattern, bool) {
	if a.root.Kind() != KindMap {
		return Pattern{}, false
	}
	name, keys, score := clusterMatch(a.root, apiClusters)
	if score <= 0.4 {
		return Pattern{}, false
	}
	return Pattern{
		Type:       PatternAPIResponse,
		Confidence: score,
		Potential:  0.5 + score*0.3,
		Location:   "$",
		Keys:       keys,
		Note:       name,
	}, true
}

func detectDatabaseRecord(a *analysis) (Pattern, bool) {
	p, ok := a.bestClusterMatch(databaseClusters, 0.4)
	if !ok {
		return Pattern{}, false
	}
	p.Type = PatternDatabaseRecord
	p.Potential = 0.6 + p.Confidence*0.2
	if p.Count > 0 {
		// Arrays of records compress better than single ones.
		p.Potential = 0.7 + p.Confidence*0.2
	}
	if p.Potential > 1 {
		p.Potential = 1
	}
	return p, true
}

func detectUserData(a *analysis) (Pattern, bool) {
	p, ok := a.bestClusterMatch(userClusters, 0.35)
	if !ok {
		return Pattern{}, false
	}
	p.Type = PatternUserData
	p.Potential = 0.5
	return p, true
}

func detectPagination(a *analysis) (Pattern, bool) {
	var best Pattern
	found := false
	a.walk(func(path string, v *Value) {
		if v.Kind() != KindMap {
			return
		}
		var matched []string
		for _, k := range paginationKeys {
			if v.Has(k) {
				matched = append(matched, k)
			}
		}
		score := float64(len(matched)) / float64(len(paginationKeys))
		if score <= 0.3 {
			return
		}
		if !found || score > best.Confidence {
			found = true
			best = Pattern{
				Type:       PatternPagination,
				Confidence: score,
				Potential:  0.3,
				Location:   path,
				Keys:       matched,
			}
		}
	})
	return best, found
}

// ============================================================
// Nested-Cluster Detectors
// ============================================================

func detectNestedCluster(a *analysis, typ PatternType, keys []string) (Pattern, bool) {
	var best Pattern
	found := false
	a.walk(func(path string, v *Value) {
		if v.Kind() != KindMap || path == "$" {
			return
		}
		var matched []string
		for _, k := range keys {
			if v.Has(k) {
				matched = append(matched, k)
			}
		}
		score := float64(len(matched)) / float64(len(keys))
		if score <= 0.6 {
			return
		}
		if !found || score > best.Confidence {
			found = true
			best = Pattern{
				Type:       typ,
				Confidence: score,
				Potential:  0.4,
				Location:   path,
				Keys:       matched,
			}
		}
	})
	return best, found
}

func detectNestedAddress(a *analysis) (Pattern, bool) {
	return detectNestedCluster(a, PatternNestedAddress,
		[]string{"street", "city", "state", "postal_code", "country"})
}

func detectNestedCoordinates(a *analysis) (Pattern, bool) {
	return detectNestedCluster(a, PatternNestedCoordinates,
		[]string{"latitude", "longitude", "altitude"})
}

func detectNestedDimensions(a *analysis) (Pattern, bool) {
	return detectNestedCluster(a, PatternNestedDimensions,
		[]string{"width", "height", "depth", "unit"})
}

func detectNestedMetadata(a *analysis) (Pattern, bool) {
	return detectNestedCluster(a, PatternNestedMetadata,
		[]string{"created_by", "updated_by", "tags", "category"})
}

// ============================================================
// Array Shape Detectors
// ============================================================

func detectHomogeneousArray(a *analysis) (Pattern, bool) {
	var best Pattern
	found := false
	a.walk(func(path string, v *Value) {
		if v.Kind() != KindSeq || len(v.seqVal) == 0 {
			return
		}
		first := v.seqVal[0]
		if !first.IsScalar() {
			return
		}
		for _, elem := range v.seqVal {
			if elem.Kind() != first.Kind() {
				return
			}
		}
		if !found || len(v.seqVal) > best.Count {
			found = true
			best = Pattern{
				Type:       PatternHomogeneousArray,
				Confidence: 1.0,
				Potential:  0.5,
				Location:   path,
				Count:      len(v.seqVal),
				Note:       first.Kind().String(),
			}
		}
	})
	return best, found
}

func detectConsistentSchemaArray(a *analysis) (Pattern, bool) {
	var best Pattern
	bestScore := 0.0
	found := false
	a.walk(func(path string, v *Value) {
		if v.Kind() != KindSeq || len(v.seqVal) < 2 {
			return
		}
		for _, elem := range v.seqVal {
			if elem.Kind() != KindMap {
				return
			}
		}
		consistency := keySetConsistency(v.seqVal)
		if consistency < a.cfg.SchemaConsistency {
			return
		}
		sizeFactor := float64(len(v.seqVal)) / 100
		if sizeFactor > 1 {
			sizeFactor = 1
		}
		potential := 0.5 + consistency*0.3 + sizeFactor*0.2
		if potential > 0.9 {
			potential = 0.9
		}
		score := consistency*0.9 + sizeFactor*0.1
		if !found || score > bestScore {
			found = true
			bestScore = score
			best = Pattern{
				Type:       PatternConsistentSchemaArray,
				Confidence: consistency,
				Potential:  potential,
				Location:   path,
				Keys:       v.seqVal[0].Keys(),
				Count:      len(v.seqVal),
			}
		}
	})
	return best, found
}

func detectRepeatedStructure(a *analysis) (Pattern, bool) {
	counts := make(map[string]int)
	locations := make(map[string]string)
	a.walk(func(path string, v *Value) {
		if v.Kind() != KindMap || v.Len() == 0 {
			return
		}
		keys := v.Keys()
		sort.Strings(keys)
		sig := strings.Join(keys, "|")
		if _, seen := counts[sig]; !seen {
			locations[sig] = path
		}
		counts[sig]++
	})

	bestSig := ""
	bestCount := 0
	for sig, n := range counts {
		if n > bestCount || (n == bestCount && locations[sig] < locations[bestSig]) {
			bestSig = sig
			bestCount = n
		}
	}
	if bestCount < 3 {
		return Pattern{}, false
	}

	confidence := float64(bestCount) / 10
	if confidence > 1 {
		confidence = 1
	}
	potential := 0.5 + float64(bestCount)/20
	if potential > 0.85 {
		potential = 0.85
	}
	keys := strings.Split(bestSig, "|")
	if len(keys) > 5 {
		keys = keys[:5]
	}
	return Pattern{
		Type:       PatternRepeatedStructure,
		Confidence: confidence,
		Potential:  potential,
		Location:   locations[bestSig],
		Keys:       keys,
		Count:      bestCount,
	}, true
}

var timestampKeys = []string{"timestamp", "time", "created_at", "date", "datetime"}

func detectTimeSeries(a *analysis) (Pattern, bool) {
	var best Pattern
	found := false
	a.walk(func(path string, v *Value) {
		if v.Kind() != KindSeq || len(v.seqVal) < 5 {
			return
		}
		for _, elem := range v.seqVal {
			if elem.Kind() != KindMap {
				return
			}
		}
		probe := v.seqVal
		if len(probe) > 5 {
			probe = probe[:5]
		}
		hasTimestamp := false
		hasNumeric := false
		for _, elem := range probe {
			for _, k := range timestampKeys {
				if elem.Has(k) {
					hasTimestamp = true
					break
				}
			}
			for _, e := range elem.mapVal {
				if e.Value.IsNumeric() {
					hasNumeric = true
					break
				}
			}
		}
		if !hasTimestamp || !hasNumeric {
			return
		}
		if !found || len(v.seqVal) > best.Count {
			found = true
			best = Pattern{
				Type:       PatternTimeSeries,
				Confidence: 0.8,
				Potential:  0.7,
				Location:   path,
				Count:      len(v.seqVal),
			}
		}
	})
	return best, found
}

// ============================================================
// Structure Detectors
// ============================================================

var (
	graphKeys = []string{"nodes", "edges", "vertices", "connections", "links"}
	nodeKeys  = []string{"id", "neighbors", "adjacent", "children", "parents"}
	treeKeys  = []string{"children", "parent", "left", "right", "subtree"}
)

func detectGraphNode(a *analysis) (Pattern, bool) {
	var best Pattern
	found := false
	a.walk(func(path string, v *Value) {
		if v.Kind() != KindMap {
			return
		}
		var matched []string
		for _, k := range graphKeys {
			if v.Has(k) {
				matched = append(matched, k)
			}
		}
		confidence := 0.0
		if len(matched) > 0 {
			confidence = 0.7
		} else {
			nodeMatches := 0
			for _, k := range nodeKeys {
				if v.Has(k) {
					matched = append(matched, k)
					nodeMatches++
				}
			}
			if nodeMatches >= 2 {
				confidence = 0.5
			}
		}
		if confidence == 0 {
			return
		}
		if !found || confidence > best.Confidence {
			found = true
			best = Pattern{
				Type:       PatternGraphNode,
				Confidence: confidence,
				Potential:  0.6,
				Location:   path,
				Keys:       matched,
			}
		}
	})
	return best, found
}

func detectTreeStructure(a *analysis) (Pattern, bool) {
	var best Pattern
	found := false
	a.walk(func(path string, v *Value) {
		if v.Kind() != KindMap {
			return
		}
		var matched []string
		for _, k := range treeKeys {
			if v.Has(k) {
				matched = append(matched, k)
			}
		}
		if len(matched) == 0 {
			return
		}
		confidence := 0.5
		if children := v.Get("children"); children.Kind() == KindSeq {
			confidence = 0.8
		}
		if !found || confidence > best.Confidence {
			found = true
			best = Pattern{
				Type:       PatternTreeStructure,
				Confidence: confidence,
				Potential:  0.55,
				Location:   path,
				Keys:       matched,
			}
		}
	})
	return best, found
}

// ============================================================
// Value Distribution Detectors
// ============================================================

func detectEnumValues(a *analysis) (Pattern, bool) {
	var best Pattern
	found := false
	a.walk(func(path string, v *Value) {
		if v.Kind() != KindSeq || len(v.seqVal) <= 5 {
			return
		}
		unique := make(map[string]bool)
		scalars := 0
		for _, elem := range v.seqVal {
			if !elem.IsScalar() {
				continue
			}
			scalars++
			unique[fmt.Sprintf("%v:%s", elem.Kind(), scalarKey(elem))] = true
		}
		if scalars == 0 || float64(len(unique)) >= float64(len(v.seqVal))*0.3 {
			return
		}
		confidence := 1.0 - float64(len(unique))/float64(len(v.seqVal))
		if !found || confidence > best.Confidence {
			found = true
			best = Pattern{
				Type:       PatternEnumValues,
				Confidence: confidence,
				Potential:  0.6,
				Location:   path,
				Count:      len(v.seqVal),
				Note:       fmt.Sprintf("%d unique of %d", len(unique), len(v.seqVal)),
			}
		}
	})
	return best, found
}

// scalarKey returns a comparable form of a scalar value.
func scalarKey(v *Value) string {
	switch v.Kind() {
	case KindNull:
		return ""
	case KindBool:
		return fmt.Sprintf("%t", v.boolVal)
	case KindInt:
		return fmt.Sprintf("%d", v.intVal)
	case KindFloat:
		return fmt.Sprintf("%g", v.floatVal)
	case KindStr:
		return v.strVal
	default:
		return ""
	}
}

func detectSparseArray(a *analysis) (Pattern, bool) {
	var best Pattern
	found := false
	consider := func(path string, nulls, total, count int, potential float64) {
		sparsity := float64(nulls) / float64(total)
		if sparsity <= 0.5 {
			return
		}
		if !found || sparsity > best.Confidence {
			found = true
			best = Pattern{
				Type:       PatternSparseArray,
				Confidence: sparsity,
				Potential:  potential,
				Location:   path,
				Count:      count,
			}
		}
	}
	a.walk(func(path string, v *Value) {
		switch v.Kind() {
		case KindMap:
			if v.Len() <= 5 {
				return
			}
			nulls := 0
			for _, e := range v.mapVal {
				if e.Value.IsNull() {
					nulls++
				}
			}
			sparsity := float64(nulls) / float64(v.Len())
			consider(path, nulls, v.Len(), 0, 0.4+sparsity*0.3)
		case KindSeq:
			if v.Len() <= 10 {
				return
			}
			nulls := 0
			for _, elem := range v.seqVal {
				if elem.IsNull() {
					nulls++
				}
			}
			consider(path, nulls, v.Len(), v.Len(), 0.5)
		}
	})
	return best, found
}

func detectDeepNesting(a *analysis) (Pattern, bool) {
	if a.st.maxDepth <= 5 {
		return Pattern{}, false
	}
	confidence := float64(a.st.maxDepth) / 10
	if confidence > 1 {
		confidence = 1
	}
	return Pattern{
		Type:       PatternDeepNesting,
		Confidence: confidence,
		Potential:  0.4,
		Location:   "$",
		Count:      a.st.maxDepth,
	}, true
}
