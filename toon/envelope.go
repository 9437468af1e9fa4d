package toon

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// ============================================================
// Levels
// ============================================================

// Level selects the bundle of transforms applied by Encode. Each level
// enables a strict superset of the transforms below it; the DEFLATE byte
// pass is exclusive to LevelExtreme.
type Level int

const (
	// LevelMinimal applies key abbreviation only.
	LevelMinimal Level = 1 + iota
	// LevelStandard adds schema compression and value-pattern tokens.
	LevelStandard
	// LevelAggressive adds the string dictionary and structural
	// back-references.
	LevelAggressive
	// LevelExtreme adds DEFLATE byte compaction of the whole envelope.
	LevelExtreme
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelMinimal:
		return "MINIMAL"
	case LevelStandard:
		return "STANDARD"
	case LevelAggressive:
		return "AGGRESSIVE"
	case LevelExtreme:
		return "EXTREME"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// Valid reports whether l names a known level.
func (l Level) Valid() bool {
	return l >= LevelMinimal && l <= LevelExtreme
}

// ParseLevel parses a level name.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(s) {
	case "MINIMAL":
		return LevelMinimal, nil
	case "STANDARD":
		return LevelStandard, nil
	case "AGGRESSIVE":
		return LevelAggressive, nil
	case "EXTREME":
		return LevelExtreme, nil
	default:
		return 0, fmt.Errorf("toon: unknown level %q", s)
	}
}

// ============================================================
// Wire Constants
// ============================================================

// FormatVersion is the envelope version this implementation emits and the
// only one it accepts.
const FormatVersion = "2.0"

// Envelope and section marker keys.
const (
	markVersion = "_toon"
	markLevel   = "_lvl"
	markPayload = "d"
	markDict    = "_dict"
	markRefs    = "_refs"
	markZlib    = "_zlib"
	markSchema  = "_sch"
	markRows    = "_dat"
	markOpt     = "_opt"
)

// Payload sigils. Every sigil is disjoint from the others and from any
// unescaped literal string at the same position.
const (
	sigilNull   = "~"
	sigilTrue   = "T"
	sigilFalse  = "F"
	sigilAbsent = "^"
	sigilEscape = "!"
	dictPrefix  = "@d"
	refPrefix   = "@r"
)

// ============================================================
// Ordered JSON Model
// ============================================================
//
// The wire form is compact JSON, but encoding/json-style maps cannot carry
// the mapping order the codec must preserve, so the envelope and payload
// are built from an explicit ordered model and written by hand. Strings go
// through goccy/go-json for escaping; everything else is trivial.

// jsonValue is one of: nil, bool, int64, float64, json.Number (read side),
// string, []jsonValue, *jsonObject.
type jsonValue any

// jsonObject is a JSON object with stable member order.
type jsonObject struct {
	keys []string
	vals []jsonValue
}

func newJSONObject(capacity int) *jsonObject {
	return &jsonObject{
		keys: make([]string, 0, capacity),
		vals: make([]jsonValue, 0, capacity),
	}
}

func (o *jsonObject) set(key string, v jsonValue) {
	o.keys = append(o.keys, key)
	o.vals = append(o.vals, v)
}

func (o *jsonObject) get(key string) (jsonValue, bool) {
	for i, k := range o.keys {
		if k == key {
			return o.vals[i], true
		}
	}
	return nil, false
}

func (o *jsonObject) len() int {
	return len(o.keys)
}

// writeJSON appends the compact serialization of v.
func writeJSON(buf *bytes.Buffer, v jsonValue) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case float64:
		s := strconv.FormatFloat(val, 'g', -1, 64)
		// Keep a float marker so int/float survive the round trip.
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		buf.WriteString(s)
	case json.Number:
		buf.WriteString(string(val))
	case string:
		escaped, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(escaped)
	case []jsonValue:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case *jsonObject:
		buf.WriteByte('{')
		for i, key := range val.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			escaped, err := json.Marshal(key)
			if err != nil {
				return err
			}
			buf.Write(escaped)
			buf.WriteByte(':')
			if err := writeJSON(buf, val.vals[i]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("toon: unsupported wire value %T", v)
	}
	return nil
}

// readJSON parses compact JSON into the ordered model. Numbers come back
// as json.Number so the int/float distinction is decided later.
func readJSON(data []byte) (jsonValue, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := readJSONValue(dec)
	if err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after document")
	}
	return v, nil
}

func readJSONValue(dec *json.Decoder) (jsonValue, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return readJSONFromToken(dec, tok)
}

func readJSONFromToken(dec *json.Decoder, tok json.Token) (jsonValue, error) {
	switch t := tok.(type) {
	case nil:
		return nil, nil
	case bool:
		return t, nil
	case json.Number:
		return t, nil
	case string:
		return t, nil
	case json.Delim:
		switch t {
		case '[':
			arr := []jsonValue{}
			for dec.More() {
				elem, err := readJSONValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, elem)
			}
			if _, err := dec.Token(); err != nil { // consume ]
				return nil, err
			}
			return arr, nil
		case '{':
			obj := newJSONObject(4)
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is not a string")
				}
				val, err := readJSONValue(dec)
				if err != nil {
					return nil, err
				}
				obj.set(key, val)
			}
			if _, err := dec.Token(); err != nil { // consume }
				return nil, err
			}
			return obj, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %v", t)
		}
	default:
		return nil, fmt.Errorf("unexpected token %T", tok)
	}
}

// ============================================================
// Envelope
// ============================================================

// envelope is the top-level encoded artifact. Built fresh per encode,
// fully consumed per decode.
type envelope struct {
	version string
	level   Level
	payload jsonValue
	dict    []string    // string dictionary, first-occurrence order
	refs    []jsonValue // encoded first occurrences of deduped subtrees
	zlib    bool        // EXTREME outer wrapper only
}

// marshal renders the envelope as compact JSON with a fixed member order,
// which is what makes encoding deterministic end to end.
func (e *envelope) marshal() (string, error) {
	root := newJSONObject(5)
	root.set(markVersion, e.version)
	root.set(markLevel, int64(e.level))
	if e.zlib {
		root.set(markZlib, true)
	}
	root.set(markPayload, e.payload)
	if len(e.dict) > 0 {
		arr := make([]jsonValue, len(e.dict))
		for i, s := range e.dict {
			arr[i] = s
		}
		root.set(markDict, arr)
	}
	if len(e.refs) > 0 {
		root.set(markRefs, append([]jsonValue(nil), e.refs...))
	}

	var buf bytes.Buffer
	if err := writeJSON(&buf, root); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// parseEnvelope reads and validates an envelope header and its sections.
func parseEnvelope(representation string) (*envelope, error) {
	raw, err := readJSON([]byte(representation))
	if err != nil {
		return nil, decodeErr(MalformedEnvelope, "not valid JSON: %v", err)
	}
	root, ok := raw.(*jsonObject)
	if !ok {
		return nil, decodeErr(MalformedEnvelope, "top level is not an object")
	}

	versionVal, ok := root.get(markVersion)
	if !ok {
		return nil, decodeErr(MalformedEnvelope, "missing %s version tag", markVersion)
	}
	version, ok := versionVal.(string)
	if !ok {
		return nil, decodeErr(MalformedEnvelope, "%s is not a string", markVersion)
	}
	if version != FormatVersion {
		return nil, decodeErr(UnsupportedVersion, "got %q, want %q", version, FormatVersion)
	}

	levelVal, ok := root.get(markLevel)
	if !ok {
		return nil, decodeErr(MalformedEnvelope, "missing %s level tag", markLevel)
	}
	levelNum, ok := levelVal.(json.Number)
	if !ok {
		return nil, decodeErr(MalformedEnvelope, "%s is not a number", markLevel)
	}
	levelInt, err := levelNum.Int64()
	if err != nil || !Level(levelInt).Valid() {
		return nil, decodeErr(MalformedEnvelope, "bad level %s", levelNum)
	}

	env := &envelope{version: version, level: Level(levelInt)}

	payload, ok := root.get(markPayload)
	if !ok {
		return nil, decodeErr(MalformedEnvelope, "missing %s payload", markPayload)
	}
	env.payload = payload

	if zlibVal, ok := root.get(markZlib); ok {
		flag, ok := zlibVal.(bool)
		if !ok {
			return nil, decodeErr(MalformedEnvelope, "%s is not a bool", markZlib)
		}
		env.zlib = flag
	}

	if dictVal, ok := root.get(markDict); ok {
		arr, ok := dictVal.([]jsonValue)
		if !ok {
			return nil, decodeErr(MalformedEnvelope, "%s is not an array", markDict)
		}
		env.dict = make([]string, len(arr))
		for i, elem := range arr {
			s, ok := elem.(string)
			if !ok {
				return nil, decodeErr(MalformedEnvelope, "%s[%d] is not a string", markDict, i)
			}
			env.dict[i] = s
		}
	}

	if refsVal, ok := root.get(markRefs); ok {
		arr, ok := refsVal.([]jsonValue)
		if !ok {
			return nil, decodeErr(MalformedEnvelope, "%s is not an array", markRefs)
		}
		env.refs = arr
	}

	return env, nil
}
