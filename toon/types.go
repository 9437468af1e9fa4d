package toon

import "fmt"

// Kind represents TOON value kinds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindStr
	KindSeq
	KindMap
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindSeq:
		return "seq"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is the tree every codec and analyzer operation works on: a closed
// tagged union over null, bool, int, float, string, ordered sequence and
// ordered string-keyed mapping. Int and float are distinct kinds so numeric
// precision survives a round trip.
type Value struct {
	kind Kind

	// Scalar values (only one valid based on kind)
	boolVal  bool
	intVal   int64
	floatVal float64
	strVal   string

	// Container values
	seqVal []*Value
	mapVal []Entry
}

// Entry represents a key-value pair in a mapping.
type Entry struct {
	Key   string
	Value *Value
}

// ============================================================
// Constructors
// ============================================================

// Null creates a null value.
func Null() *Value {
	return &Value{kind: KindNull}
}

// Bool creates a boolean value.
func Bool(v bool) *Value {
	return &Value{kind: KindBool, boolVal: v}
}

// Int creates an integer value.
func Int(v int64) *Value {
	return &Value{kind: KindInt, intVal: v}
}

// Float creates a float value.
func Float(v float64) *Value {
	return &Value{kind: KindFloat, floatVal: v}
}

// Str creates a string value.
func Str(v string) *Value {
	return &Value{kind: KindStr, strVal: v}
}

// Seq creates a sequence value.
func Seq(values ...*Value) *Value {
	return &Value{kind: KindSeq, seqVal: values}
}

// Map creates a mapping value from ordered entries.
func Map(entries ...Entry) *Value {
	return &Value{kind: KindMap, mapVal: entries}
}

// Field creates an Entry for use in Map construction.
func Field(key string, value *Value) Entry {
	return Entry{Key: key, Value: value}
}

// ============================================================
// Accessors
// ============================================================

// Kind returns the value kind. A nil receiver reads as null.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

// IsNull returns true if this is a null value.
func (v *Value) IsNull() bool {
	return v == nil || v.kind == KindNull
}

// AsBool returns the boolean value.
func (v *Value) AsBool() (bool, error) {
	if v == nil {
		return false, fmt.Errorf("toon: nil value")
	}
	if v.kind != KindBool {
		return false, fmt.Errorf("toon: expected bool, got %s", v.kind)
	}
	return v.boolVal, nil
}

// AsInt returns the integer value.
func (v *Value) AsInt() (int64, error) {
	if v == nil {
		return 0, fmt.Errorf("toon: nil value")
	}
	if v.kind != KindInt {
		return 0, fmt.Errorf("toon: expected int, got %s", v.kind)
	}
	return v.intVal, nil
}

// AsFloat returns the float value.
func (v *Value) AsFloat() (float64, error) {
	if v == nil {
		return 0, fmt.Errorf("toon: nil value")
	}
	if v.kind != KindFloat {
		return 0, fmt.Errorf("toon: expected float, got %s", v.kind)
	}
	return v.floatVal, nil
}

// AsStr returns the string value.
func (v *Value) AsStr() (string, error) {
	if v == nil {
		return "", fmt.Errorf("toon: nil value")
	}
	if v.kind != KindStr {
		return "", fmt.Errorf("toon: expected str, got %s", v.kind)
	}
	return v.strVal, nil
}

// AsSeq returns the sequence elements.
func (v *Value) AsSeq() ([]*Value, error) {
	if v == nil {
		return nil, fmt.Errorf("toon: nil value")
	}
	if v.kind != KindSeq {
		return nil, fmt.Errorf("toon: expected seq, got %s", v.kind)
	}
	return v.seqVal, nil
}

// AsMap returns the mapping entries.
func (v *Value) AsMap() ([]Entry, error) {
	if v == nil {
		return nil, fmt.Errorf("toon: nil value")
	}
	if v.kind != KindMap {
		return nil, fmt.Errorf("toon: expected map, got %s", v.kind)
	}
	return v.mapVal, nil
}

// Number returns a numeric value as float64 if int or float.
func (v *Value) Number() (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch v.kind {
	case KindInt:
		return float64(v.intVal), true
	case KindFloat:
		return v.floatVal, true
	default:
		return 0, false
	}
}

// IsNumeric returns true if int or float.
func (v *Value) IsNumeric() bool {
	return v != nil && (v.kind == KindInt || v.kind == KindFloat)
}

// IsScalar returns true for null, bool, int, float and string values.
func (v *Value) IsScalar() bool {
	return v == nil || v.kind <= KindStr
}

// Len returns the length of a sequence or mapping, 0 otherwise.
func (v *Value) Len() int {
	if v == nil {
		return 0
	}
	switch v.kind {
	case KindSeq:
		return len(v.seqVal)
	case KindMap:
		return len(v.mapVal)
	default:
		return 0
	}
}

// Get returns a field value by key from a mapping, nil if absent.
func (v *Value) Get(key string) *Value {
	if v == nil || v.kind != KindMap {
		return nil
	}
	for _, e := range v.mapVal {
		if e.Key == key {
			return e.Value
		}
	}
	return nil
}

// Has reports whether a mapping contains the key.
func (v *Value) Has(key string) bool {
	if v == nil || v.kind != KindMap {
		return false
	}
	for _, e := range v.mapVal {
		if e.Key == key {
			return true
		}
	}
	return false
}

// Keys returns mapping keys in entry order.
func (v *Value) Keys() []string {
	if v == nil || v.kind != KindMap {
		return nil
	}
	keys := make([]string, len(v.mapVal))
	for i, e := range v.mapVal {
		keys[i] = e.Key
	}
	return keys
}

// Index returns the i-th element of a sequence.
func (v *Value) Index(i int) (*Value, error) {
	if v == nil || v.kind != KindSeq {
		return nil, fmt.Errorf("toon: not a seq")
	}
	if i < 0 || i >= len(v.seqVal) {
		return nil, fmt.Errorf("toon: index %d out of bounds (len=%d)", i, len(v.seqVal))
	}
	return v.seqVal[i], nil
}

// ============================================================
// Mutators
// ============================================================

// Set sets a field value on a mapping, appending if the key is new.
func (v *Value) Set(key string, val *Value) {
	if v.kind != KindMap {
		panic("toon: cannot set on non-map")
	}
	for i := range v.mapVal {
		if v.mapVal[i].Key == key {
			v.mapVal[i].Value = val
			return
		}
	}
	v.mapVal = append(v.mapVal, Entry{Key: key, Value: val})
}

// Append adds a value to a sequence.
func (v *Value) Append(val *Value) {
	if v.kind != KindSeq {
		panic("toon: cannot append to non-seq")
	}
	v.seqVal = append(v.seqVal, val)
}

// ============================================================
// Structural Operations
// ============================================================

// Equal reports deep structural equality, including mapping entry order.
func Equal(a, b *Value) bool {
	if a.IsNull() || b.IsNull() {
		return a.IsNull() && b.IsNull()
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindBool:
		return a.boolVal == b.boolVal
	case KindInt:
		return a.intVal == b.intVal
	case KindFloat:
		return a.floatVal == b.floatVal
	case KindStr:
		return a.strVal == b.strVal
	case KindSeq:
		if len(a.seqVal) != len(b.seqVal) {
			return false
		}
		for i := range a.seqVal {
			if !Equal(a.seqVal[i], b.seqVal[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.mapVal) != len(b.mapVal) {
			return false
		}
		for i := range a.mapVal {
			if a.mapVal[i].Key != b.mapVal[i].Key {
				return false
			}
			if !Equal(a.mapVal[i].Value, b.mapVal[i].Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Clone returns an independent deep copy.
func (v *Value) Clone() *Value {
	if v == nil {
		return Null()
	}
	c := &Value{
		kind:     v.kind,
		boolVal:  v.boolVal,
		intVal:   v.intVal,
		floatVal: v.floatVal,
		strVal:   v.strVal,
	}
	if v.seqVal != nil {
		c.seqVal = make([]*Value, len(v.seqVal))
		for i, elem := range v.seqVal {
			c.seqVal[i] = elem.Clone()
		}
	}
	if v.mapVal != nil {
		c.mapVal = make([]Entry, len(v.mapVal))
		for i, e := range v.mapVal {
			c.mapVal[i] = Entry{Key: e.Key, Value: e.Value.Clone()}
		}
	}
	return c
}

// Depth returns the maximum nesting depth. Scalars have depth 1.
func (v *Value) Depth() int {
	if v == nil {
		return 1
	}
	max := 0
	switch v.kind {
	case KindSeq:
		for _, elem := range v.seqVal {
			if d := elem.Depth(); d > max {
				max = d
			}
		}
	case KindMap:
		for _, e := range v.mapVal {
			if d := e.Value.Depth(); d > max {
				max = d
			}
		}
	}
	return max + 1
}

// NodeCount returns the total number of nodes in the tree.
func (v *Value) NodeCount() int {
	if v == nil {
		return 1
	}
	n := 1
	switch v.kind {
	case KindSeq:
		for _, elem := range v.seqVal {
			n += elem.NodeCount()
		}
	case KindMap:
		for _, e := range v.mapVal {
			n += e.Value.NodeCount()
		}
	}
	return n
}
