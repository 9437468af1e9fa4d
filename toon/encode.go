package toon

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
)

// ============================================================
// Encoder
// ============================================================
//
// Encoding runs in two passes over the tree. The survey pass rejects cycles
// and over-deep input and gathers the counters the aggressive transforms
// need (string occurrence counts, composite fingerprints). The emit pass
// then applies the level's transforms in a fixed order: key abbreviation,
// schema compression, value-pattern tokens, string dictionary, structural
// back-references, and for EXTREME a final DEFLATE pass over the envelope.
// All state lives in the encoder and is discarded when the call returns.

// Encode encodes a tree at the given level using default thresholds.
func Encode(tree *Value, level Level) (string, *Metrics, error) {
	return EncodeWithConfig(tree, level, DefaultConfig())
}

// EncodeWithConfig encodes a tree with explicit thresholds.
func EncodeWithConfig(tree *Value, level Level, cfg Config) (string, *Metrics, error) {
	start := time.Now()

	if !level.Valid() {
		return "", nil, fmt.Errorf("toon: invalid level %d", int(level))
	}
	if err := cfg.Validate(); err != nil {
		return "", nil, err
	}

	e := &encoder{
		cfg:   cfg,
		level: level,
		m:     &Metrics{Level: level},
	}
	if level >= LevelAggressive {
		e.canon = make(map[*Value]string)
		e.fingerprints = make(map[uint64][]*canonStat)
		e.dictCount = make(map[string]int)
		e.dictIndex = make(map[string]int)
	}

	if _, err := e.survey(tree, 1, make(map[*Value]bool), "$"); err != nil {
		return "", nil, err
	}

	payload, err := e.encodeValue(tree, 1, "$")
	if err != nil {
		return "", nil, err
	}

	env := &envelope{
		version: FormatVersion,
		level:   level,
		payload: payload,
		dict:    e.dict,
		refs:    e.refs,
	}
	representation, err := env.marshal()
	if err != nil {
		return "", nil, fmt.Errorf("toon: envelope: %w", err)
	}

	if level == LevelExtreme {
		representation, err = deflateEnvelope(representation)
		if err != nil {
			return "", nil, err
		}
	}

	original, err := ToJSON(tree)
	if err != nil {
		// Unreachable after a successful encode; survey rejected the
		// same inputs ToJSON would.
		return "", nil, err
	}

	m := e.m
	m.OriginalSize = len(original)
	m.CompressedSize = len(representation)
	if m.OriginalSize > 0 {
		m.SavingsPercent = float64(m.OriginalSize-m.CompressedSize) / float64(m.OriginalSize) * 100
	}
	m.Elapsed = time.Since(start)

	return representation, m, nil
}

type encoder struct {
	cfg   Config
	level Level
	m     *Metrics

	// String dictionary (AGGRESSIVE+). Counts come from the survey pass;
	// indices are assigned in first-occurrence order during emit.
	dictCount map[string]int
	dictIndex map[string]int
	dict      []string

	// Structural dedup (AGGRESSIVE+). Composite subtrees are fingerprinted
	// over their canonical form; equal subtrees share a canonStat.
	canon        map[*Value]string
	fingerprints map[uint64][]*canonStat
	refs         []jsonValue
}

// canonStat tracks one distinct composite subtree within a single encode.
type canonStat struct {
	canon    string
	count    int
	refIndex int // index into refs once promoted, -1 before
}

// ============================================================
// Survey Pass
// ============================================================

// survey validates the tree (cycles, depth, representable numbers) and
// collects dictionary and dedup counters. Returns the canonical form of v
// when the level needs fingerprints.
func (e *encoder) survey(v *Value, depth int, visiting map[*Value]bool, path string) (string, error) {
	if depth > e.cfg.MaxEncodeDepth {
		return "", encodeErr(DepthLimitExceeded, path, "depth %d exceeds limit %d", depth, e.cfg.MaxEncodeDepth)
	}

	wantCanon := e.level >= LevelAggressive

	if v.IsNull() {
		return "~", nil
	}

	switch v.kind {
	case KindBool:
		if v.boolVal {
			return "t", nil
		}
		return "f", nil

	case KindInt:
		if !wantCanon {
			return "", nil
		}
		return "i" + strconv.FormatInt(v.intVal, 10) + ";", nil

	case KindFloat:
		if math.IsNaN(v.floatVal) || math.IsInf(v.floatVal, 0) {
			return "", encodeErr(NonRepresentableValue, path, "non-finite float")
		}
		if !wantCanon {
			return "", nil
		}
		return "d" + strconv.FormatFloat(v.floatVal, 'g', -1, 64) + ";", nil

	case KindStr:
		if e.level >= LevelAggressive && len(v.strVal) >= e.cfg.DictMinLen {
			if _, patterned := matchValuePattern(v.strVal); !patterned {
				e.dictCount[v.strVal]++
			}
		}
		if !wantCanon {
			return "", nil
		}
		return "s" + strconv.Itoa(len(v.strVal)) + ":" + v.strVal, nil

	case KindSeq:
		if visiting[v] {
			return "", encodeErr(CyclicInput, path, "sequence participates in a cycle")
		}
		visiting[v] = true
		var b strings.Builder
		b.WriteByte('[')
		for i, elem := range v.seqVal {
			c, err := e.survey(elem, depth+1, visiting, path+"["+strconv.Itoa(i)+"]")
			if err != nil {
				return "", err
			}
			b.WriteString(c)
		}
		b.WriteByte(']')
		delete(visiting, v)
		return e.recordComposite(v, b.String(), wantCanon), nil

	case KindMap:
		if visiting[v] {
			return "", encodeErr(CyclicInput, path, "mapping participates in a cycle")
		}
		visiting[v] = true
		var b strings.Builder
		b.WriteByte('{')
		for _, entry := range v.mapVal {
			b.WriteString(strconv.Itoa(len(entry.Key)))
			b.WriteByte(':')
			b.WriteString(entry.Key)
			c, err := e.survey(entry.Value, depth+1, visiting, path+"."+entry.Key)
			if err != nil {
				return "", err
			}
			b.WriteString(c)
		}
		b.WriteByte('}')
		delete(visiting, v)
		return e.recordComposite(v, b.String(), wantCanon), nil

	default:
		return "", encodeErr(NonRepresentableValue, path, "unknown kind %d", v.kind)
	}
}

// recordComposite files a composite subtree's canonical form in the
// fingerprint table. Hash collisions fall back to full equality on the
// canonical string.
func (e *encoder) recordComposite(v *Value, canon string, wantCanon bool) string {
	if !wantCanon {
		return ""
	}
	e.canon[v] = canon
	if len(canon) < e.cfg.RefMinSize {
		return canon
	}
	fp := fingerprint(canon)
	for _, st := range e.fingerprints[fp] {
		if st.canon == canon {
			st.count++
			return canon
		}
	}
	e.fingerprints[fp] = append(e.fingerprints[fp], &canonStat{canon: canon, count: 1, refIndex: -1})
	return canon
}

// fingerprint hashes a canonical form with FNV-1a.
func fingerprint(canon string) uint64 {
	h := uint64(14695981039346656037)
	for i := 0; i < len(canon); i++ {
		h ^= uint64(canon[i])
		h *= 1099511628211
	}
	return h
}

func (e *encoder) lookupStat(v *Value) *canonStat {
	canon, ok := e.canon[v]
	if !ok || len(canon) < e.cfg.RefMinSize {
		return nil
	}
	for _, st := range e.fingerprints[fingerprint(canon)] {
		if st.canon == canon {
			return st
		}
	}
	return nil
}

// ============================================================
// Emit Pass
// ============================================================

func (e *encoder) encodeValue(v *Value, depth int, path string) (jsonValue, error) {
	if v.IsNull() {
		if e.level >= LevelStandard {
			return sigilNull, nil
		}
		return nil, nil
	}

	switch v.kind {
	case KindBool:
		if e.level >= LevelStandard {
			if v.boolVal {
				return sigilTrue, nil
			}
			return sigilFalse, nil
		}
		return v.boolVal, nil

	case KindInt:
		return v.intVal, nil

	case KindFloat:
		if math.IsNaN(v.floatVal) || math.IsInf(v.floatVal, 0) {
			return nil, encodeErr(NonRepresentableValue, path, "non-finite float")
		}
		return v.floatVal, nil

	case KindStr:
		return e.encodeString(v.strVal), nil

	case KindSeq, KindMap:
		return e.encodeComposite(v, depth, path)

	default:
		return nil, encodeErr(NonRepresentableValue, path, "unknown kind %d", v.kind)
	}
}

// encodeComposite applies structural dedup around the body encoding: the
// first occurrence of a repeated subtree is encoded inline and copied into
// the reference table, every later occurrence becomes a back-reference.
func (e *encoder) encodeComposite(v *Value, depth int, path string) (jsonValue, error) {
	var st *canonStat
	if e.level >= LevelAggressive {
		if st = e.lookupStat(v); st != nil && st.count >= 2 {
			if st.refIndex >= 0 {
				e.m.RefsResolved++
				return refPrefix + strconv.Itoa(st.refIndex), nil
			}
		} else {
			st = nil
		}
	}

	var body jsonValue
	var err error
	if v.kind == KindSeq {
		body, err = e.encodeSeq(v, depth, path)
	} else {
		body, err = e.encodeMap(v, depth, path)
	}
	if err != nil {
		return nil, err
	}

	if st != nil {
		st.refIndex = len(e.refs)
		e.refs = append(e.refs, body)
	}
	return body, nil
}

func (e *encoder) encodeSeq(v *Value, depth int, path string) (jsonValue, error) {
	if e.level >= LevelStandard {
		if block, ok, err := e.trySchemaBlock(v, depth, path); err != nil {
			return nil, err
		} else if ok {
			return block, nil
		}
	}

	items := make([]jsonValue, len(v.seqVal))
	for i, elem := range v.seqVal {
		encoded, err := e.encodeValue(elem, depth+1, path+"["+strconv.Itoa(i)+"]")
		if err != nil {
			return nil, err
		}
		items[i] = encoded
	}
	return items, nil
}

func (e *encoder) encodeMap(v *Value, depth int, path string) (jsonValue, error) {
	obj := newJSONObject(len(v.mapVal))
	for _, entry := range v.mapVal {
		wire := encodeKey(entry.Key)
		if wire != entry.Key {
			if _, abbreviated := keyToCode[entry.Key]; abbreviated {
				e.m.AbbreviationsUsed++
			}
		}
		encoded, err := e.encodeValue(entry.Value, depth+1, path+"."+entry.Key)
		if err != nil {
			return nil, err
		}
		obj.set(wire, encoded)
	}
	return obj, nil
}

func (e *encoder) encodeString(s string) jsonValue {
	if e.level >= LevelStandard {
		if tag, ok := matchValuePattern(s); ok {
			e.m.PatternTokens++
			return tag + s
		}
	}
	if e.level >= LevelAggressive &&
		len(s) >= e.cfg.DictMinLen && e.dictCount[s] >= e.cfg.DictMinCount {
		idx, ok := e.dictIndex[s]
		if !ok {
			idx = len(e.dict)
			e.dictIndex[s] = idx
			e.dict = append(e.dict, s)
			e.m.DictEntries++
		}
		return dictPrefix + strconv.Itoa(idx)
	}
	if e.level >= LevelStandard && stringNeedsEscape(s) {
		return sigilEscape + s
	}
	return s
}

// ============================================================
// Schema Blocks
// ============================================================

// trySchemaBlock encodes a sequence of mappings as a descriptor plus
// positional rows when the key sets are consistent enough. Rows missing a
// described field carry the absent sigil; rows with extra fields carry an
// overflow sub-mapping appended after the described cells. To keep the
// round trip exact, elements whose own key order disagrees with the
// descriptor fall the whole sequence back to element-by-element encoding.
func (e *encoder) trySchemaBlock(v *Value, depth int, path string) (jsonValue, bool, error) {
	if len(v.seqVal) < 2 {
		return nil, false, nil
	}
	for _, elem := range v.seqVal {
		if elem.Kind() != KindMap {
			return nil, false, nil
		}
	}

	descriptor, consistency := schemaDescriptor(v.seqVal)
	if len(descriptor) == 0 || consistency < e.cfg.SchemaConsistency {
		return nil, false, nil
	}

	descPos := make(map[string]int, len(descriptor))
	for i, k := range descriptor {
		descPos[k] = i
	}
	for _, elem := range v.seqVal {
		if !rowConforms(elem, descPos) {
			return nil, false, nil
		}
	}

	schema := make([]jsonValue, len(descriptor))
	for i, k := range descriptor {
		schema[i] = encodeKey(k)
	}

	rows := make([]jsonValue, len(v.seqVal))
	for i, elem := range v.seqVal {
		rowPath := path + "[" + strconv.Itoa(i) + "]"
		row := make([]jsonValue, len(descriptor), len(descriptor)+1)
		for j, k := range descriptor {
			if !elem.Has(k) {
				row[j] = sigilAbsent
				continue
			}
			if _, abbreviated := keyToCode[k]; abbreviated {
				e.m.AbbreviationsUsed++
			}
			encoded, err := e.encodeValue(elem.Get(k), depth+2, rowPath+"."+k)
			if err != nil {
				return nil, false, err
			}
			row[j] = encoded
		}

		var overflow *jsonObject
		for _, entry := range elem.mapVal {
			if _, described := descPos[entry.Key]; described {
				continue
			}
			if overflow == nil {
				overflow = newJSONObject(2)
			}
			if _, abbreviated := keyToCode[entry.Key]; abbreviated {
				e.m.AbbreviationsUsed++
			}
			encoded, err := e.encodeValue(entry.Value, depth+2, rowPath+"."+entry.Key)
			if err != nil {
				return nil, false, err
			}
			overflow.set(encodeKey(entry.Key), encoded)
		}
		if overflow != nil {
			wrapper := newJSONObject(1)
			wrapper.set(markOpt, overflow)
			row = append(row, wrapper)
		}
		rows[i] = row
	}

	e.m.SchemaBlocks++
	e.m.SchemaRows += len(rows)

	block := newJSONObject(2)
	block.set(markSchema, schema)
	block.set(markRows, rows)
	return block, true, nil
}

// schemaDescriptor returns the union of keys present in at least half the
// elements, in first-occurrence order, and the key-set consistency ratio
// (1.0 when all key sets are identical, |intersection|/|union| otherwise).
func schemaDescriptor(elems []*Value) ([]string, float64) {
	var order []string
	counts := make(map[string]int)
	for _, elem := range elems {
		for _, entry := range elem.mapVal {
			if _, seen := counts[entry.Key]; !seen {
				order = append(order, entry.Key)
			}
			counts[entry.Key]++
		}
	}
	if len(order) == 0 {
		return nil, 0
	}

	intersection := 0
	identical := true
	for _, k := range order {
		if counts[k] == len(elems) {
			intersection++
		}
	}
	for _, elem := range elems {
		if len(elem.mapVal) != len(order) {
			identical = false
			break
		}
	}
	consistency := float64(intersection) / float64(len(order))
	if identical && intersection == len(order) {
		consistency = 1.0
	}

	var descriptor []string
	for _, k := range order {
		if counts[k]*2 >= len(elems) {
			descriptor = append(descriptor, k)
		}
	}
	return descriptor, consistency
}

// rowConforms checks that an element's own key order can be reconstructed
// from descriptor order plus an appended overflow: described keys must
// appear in ascending descriptor position, followed only by extras.
func rowConforms(elem *Value, descPos map[string]int) bool {
	last := -1
	inExtras := false
	for _, entry := range elem.mapVal {
		pos, described := descPos[entry.Key]
		if !described {
			inExtras = true
			continue
		}
		if inExtras || pos <= last {
			return false
		}
		last = pos
	}
	return true
}

// ============================================================
// EXTREME Byte Compaction
// ============================================================

// deflateEnvelope wraps a fully transformed envelope in the EXTREME outer
// envelope: DEFLATE then base64, with the compaction flag set.
func deflateEnvelope(inner string) (string, error) {
	var buf bytes.Buffer
	zw, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", fmt.Errorf("toon: deflate: %w", err)
	}
	if _, err := zw.Write([]byte(inner)); err != nil {
		return "", fmt.Errorf("toon: deflate: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("toon: deflate: %w", err)
	}

	outer := newJSONObject(4)
	outer.set(markVersion, FormatVersion)
	outer.set(markLevel, int64(LevelExtreme))
	outer.set(markZlib, true)
	outer.set(markPayload, base64.StdEncoding.EncodeToString(buf.Bytes()))

	var out bytes.Buffer
	if err := writeJSON(&out, outer); err != nil {
		return "", err
	}
	return out.String(), nil
}
