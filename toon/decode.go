package toon

import (
	"bytes"
	"encoding/base64"
	"io"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/flate"
)

// ============================================================
// Decoder
// ============================================================
//
// Decoding is all-or-nothing: any structural inconsistency aborts the call
// with a typed DecodeError and no partial tree. Reconstruction is metered
// against depth, node and byte budgets so crafted dictionaries or reference
// chains cannot expand superlinearly (decompression-bomb guard).

// Decode decodes a representation back into a Value tree using default
// limits.
func Decode(representation string) (*Value, error) {
	return DecodeWithConfig(representation, DefaultConfig())
}

// DecodeWithConfig decodes with explicit limits.
func DecodeWithConfig(representation string, cfg Config) (*Value, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	env, err := parseEnvelope(representation)
	if err != nil {
		return nil, err
	}

	if env.zlib {
		inner, err := inflateEnvelope(env, cfg)
		if err != nil {
			return nil, err
		}
		env, err = parseEnvelope(inner)
		if err != nil {
			return nil, err
		}
		if env.zlib {
			return nil, decodeErr(MalformedEnvelope, "nested byte-compaction envelope")
		}
	}

	d := &decoder{
		cfg:       cfg,
		level:     env.level,
		dict:      env.dict,
		refs:      env.refs,
		nodesLeft: cfg.MaxDecodeNodes,
		bytesLeft: cfg.MaxDecodeBytes,
	}
	return d.decodeValue(env.payload, 1)
}

// inflateEnvelope reverses the EXTREME byte pass. The inflated size is
// capped by the byte budget before the inner envelope is even parsed.
func inflateEnvelope(env *envelope, cfg Config) (string, error) {
	b64, ok := env.payload.(string)
	if !ok {
		return "", decodeErr(MalformedEnvelope, "byte-compacted payload is not a string")
	}
	compressed, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", decodeErr(MalformedEnvelope, "bad base64 payload: %v", err)
	}

	fr := flate.NewReader(bytes.NewReader(compressed))
	defer fr.Close()
	inner, err := io.ReadAll(io.LimitReader(fr, cfg.MaxDecodeBytes+1))
	if err != nil {
		return "", decodeErr(MalformedEnvelope, "inflate: %v", err)
	}
	if int64(len(inner)) > cfg.MaxDecodeBytes {
		return "", decodeErr(DepthOrSizeLimitExceeded, "inflated envelope exceeds %d bytes", cfg.MaxDecodeBytes)
	}
	return string(inner), nil
}

type decoder struct {
	cfg   Config
	level Level
	dict  []string
	refs  []jsonValue

	nodesLeft int
	bytesLeft int64
}

// charge debits the expansion budget for one materialized node and its
// string payload.
func (d *decoder) charge(depth int, strBytes int) error {
	if depth > d.cfg.MaxDecodeDepth {
		return decodeErr(DepthOrSizeLimitExceeded, "depth %d exceeds limit %d", depth, d.cfg.MaxDecodeDepth)
	}
	d.nodesLeft--
	if d.nodesLeft < 0 {
		return decodeErr(DepthOrSizeLimitExceeded, "node budget exhausted")
	}
	d.bytesLeft -= int64(strBytes)
	if d.bytesLeft < 0 {
		return decodeErr(DepthOrSizeLimitExceeded, "byte budget exhausted")
	}
	return nil
}

func (d *decoder) decodeValue(raw jsonValue, depth int) (*Value, error) {
	switch val := raw.(type) {
	case nil:
		if err := d.charge(depth, 0); err != nil {
			return nil, err
		}
		return Null(), nil

	case bool:
		if err := d.charge(depth, 0); err != nil {
			return nil, err
		}
		return Bool(val), nil

	case json.Number:
		if err := d.charge(depth, 0); err != nil {
			return nil, err
		}
		v, err := numberToValue(val)
		if err != nil {
			return nil, decodeErr(MalformedEnvelope, "bad number %q", string(val))
		}
		return v, nil

	case string:
		return d.decodeString(val, depth)

	case []jsonValue:
		if err := d.charge(depth, 0); err != nil {
			return nil, err
		}
		items := make([]*Value, len(val))
		for i, elem := range val {
			v, err := d.decodeValue(elem, depth+1)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return Seq(items...), nil

	case *jsonObject:
		if isSchemaBlock(val) {
			return d.decodeSchemaBlock(val, depth)
		}
		if err := d.charge(depth, 0); err != nil {
			return nil, err
		}
		entries := make([]Entry, val.len())
		for i, wire := range val.keys {
			key := decodeKey(wire)
			if err := d.charge(depth, len(key)); err != nil {
				return nil, err
			}
			v, err := d.decodeValue(val.vals[i], depth+1)
			if err != nil {
				return nil, err
			}
			entries[i] = Entry{Key: key, Value: v}
		}
		return Map(entries...), nil

	default:
		return nil, decodeErr(MalformedEnvelope, "unexpected wire value %T", raw)
	}
}

// decodeString resolves sigils, tokens and escapes. At MINIMAL no payload
// sigils are active and every string is literal.
func (d *decoder) decodeString(s string, depth int) (*Value, error) {
	if d.level < LevelStandard {
		if err := d.charge(depth, len(s)); err != nil {
			return nil, err
		}
		return Str(s), nil
	}

	switch s {
	case sigilNull:
		if err := d.charge(depth, 0); err != nil {
			return nil, err
		}
		return Null(), nil
	case sigilTrue:
		if err := d.charge(depth, 0); err != nil {
			return nil, err
		}
		return Bool(true), nil
	case sigilFalse:
		if err := d.charge(depth, 0); err != nil {
			return nil, err
		}
		return Bool(false), nil
	case sigilAbsent:
		return nil, decodeErr(MalformedEnvelope, "absent marker outside a schema row")
	}

	if s == "" {
		if err := d.charge(depth, 0); err != nil {
			return nil, err
		}
		return Str(s), nil
	}

	switch s[0] {
	case '!':
		literal := s[1:]
		if err := d.charge(depth, len(literal)); err != nil {
			return nil, err
		}
		return Str(literal), nil

	case '$':
		original, ok := decodePatternToken(s)
		if !ok {
			return nil, decodeErr(MalformedEnvelope, "unknown value-pattern token %q", s)
		}
		if err := d.charge(depth, len(original)); err != nil {
			return nil, err
		}
		return Str(original), nil

	case '@':
		return d.decodeReference(s, depth)

	default:
		if err := d.charge(depth, len(s)); err != nil {
			return nil, err
		}
		return Str(s), nil
	}
}

// decodeReference resolves @dN dictionary and @rN structural tokens. Every
// @rN expansion materializes an independent subtree and is charged in full
// against the budgets.
func (d *decoder) decodeReference(s string, depth int) (*Value, error) {
	switch {
	case strings.HasPrefix(s, dictPrefix):
		idx, err := strconv.Atoi(s[len(dictPrefix):])
		if err != nil || idx < 0 {
			return nil, decodeErr(MalformedEnvelope, "bad dictionary token %q", s)
		}
		if idx >= len(d.dict) {
			return nil, decodeErr(DictionaryIndexOutOfRange, "index %d, dictionary length %d", idx, len(d.dict))
		}
		entry := d.dict[idx]
		if err := d.charge(depth, len(entry)); err != nil {
			return nil, err
		}
		return Str(entry), nil

	case strings.HasPrefix(s, refPrefix):
		idx, err := strconv.Atoi(s[len(refPrefix):])
		if err != nil || idx < 0 {
			return nil, decodeErr(MalformedEnvelope, "bad reference token %q", s)
		}
		if idx >= len(d.refs) {
			return nil, decodeErr(DanglingReference, "index %d, reference table length %d", idx, len(d.refs))
		}
		// Each hop is charged before expanding, so a reference chain that
		// only visits other references (a crafted self-referential table)
		// still runs into the depth and node budgets.
		if err := d.charge(depth, 0); err != nil {
			return nil, err
		}
		return d.decodeValue(d.refs[idx], depth+1)

	default:
		return nil, decodeErr(MalformedEnvelope, "unknown reference token %q", s)
	}
}

// ============================================================
// Schema Blocks
// ============================================================

func isSchemaBlock(obj *jsonObject) bool {
	_, hasSchema := obj.get(markSchema)
	_, hasRows := obj.get(markRows)
	return hasSchema && hasRows
}

// decodeSchemaBlock rebuilds the original sequence of mappings from a
// descriptor plus rows. Row length must equal the descriptor length, or
// exceed it by exactly one overflow wrapper.
func (d *decoder) decodeSchemaBlock(obj *jsonObject, depth int) (*Value, error) {
	if err := d.charge(depth, 0); err != nil {
		return nil, err
	}

	schemaRaw, _ := obj.get(markSchema)
	schemaArr, ok := schemaRaw.([]jsonValue)
	if !ok {
		return nil, decodeErr(MalformedEnvelope, "%s is not an array", markSchema)
	}
	descriptor := make([]string, len(schemaArr))
	for i, elem := range schemaArr {
		wire, ok := elem.(string)
		if !ok {
			return nil, decodeErr(MalformedEnvelope, "%s[%d] is not a string", markSchema, i)
		}
		descriptor[i] = decodeKey(wire)
	}

	rowsRaw, _ := obj.get(markRows)
	rowsArr, ok := rowsRaw.([]jsonValue)
	if !ok {
		return nil, decodeErr(MalformedEnvelope, "%s is not an array", markRows)
	}

	elems := make([]*Value, len(rowsArr))
	for i, rowRaw := range rowsArr {
		row, ok := rowRaw.([]jsonValue)
		if !ok {
			return nil, decodeErr(SchemaRowMismatch, "row %d is not an array", i)
		}

		var overflow *jsonObject
		cells := row
		switch {
		case len(row) == len(descriptor):
			// No overflow.
		case len(row) == len(descriptor)+1:
			wrapper, ok := row[len(row)-1].(*jsonObject)
			if !ok {
				return nil, decodeErr(SchemaRowMismatch, "row %d: trailing cell is not an overflow mapping", i)
			}
			optRaw, hasOpt := wrapper.get(markOpt)
			if !hasOpt || wrapper.len() != 1 {
				return nil, decodeErr(SchemaRowMismatch, "row %d: trailing cell is not a valid overflow marker", i)
			}
			overflow, ok = optRaw.(*jsonObject)
			if !ok {
				return nil, decodeErr(SchemaRowMismatch, "row %d: overflow is not a mapping", i)
			}
			cells = row[:len(row)-1]
		default:
			return nil, decodeErr(SchemaRowMismatch, "row %d has %d cells, descriptor has %d fields", i, len(row), len(descriptor))
		}

		entries := make([]Entry, 0, len(descriptor))
		for j, cell := range cells {
			if marker, ok := cell.(string); ok && marker == sigilAbsent {
				continue
			}
			v, err := d.decodeValue(cell, depth+2)
			if err != nil {
				return nil, err
			}
			if err := d.charge(depth, len(descriptor[j])); err != nil {
				return nil, err
			}
			entries = append(entries, Entry{Key: descriptor[j], Value: v})
		}
		if overflow != nil {
			for k, wire := range overflow.keys {
				key := decodeKey(wire)
				if err := d.charge(depth, len(key)); err != nil {
					return nil, err
				}
				v, err := d.decodeValue(overflow.vals[k], depth+2)
				if err != nil {
					return nil, err
				}
				entries = append(entries, Entry{Key: key, Value: v})
			}
		}
		elems[i] = Map(entries...)
	}

	return Seq(elems...), nil
}
