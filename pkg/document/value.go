package document

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind discriminates the variant held by a Value
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

// Value is a tagged union over the shapes a decoded document payload can take
// (null, bool, number, string, list, map). Session documents are dynamic and
// loosely typed, so every operation on them (path lookup, containment search,
// rendering) is defined totally over this type instead of type-switching on
// raw decoded BSON at each call site.
type Value struct {
	kind    Kind
	boolean bool
	number  float64
	str     string
	list    []Value
	entries map[string]Value
}

func Null() Value                  { return Value{kind: KindNull} }
func Bool(b bool) Value            { return Value{kind: KindBool, boolean: b} }
func Number(n float64) Value       { return Value{kind: KindNumber, number: n} }
func String(s string) Value        { return Value{kind: KindString, str: s} }
func List(items ...Value) Value    { return Value{kind: KindList, list: items} }
func Map(m map[string]Value) Value { return Value{kind: KindMap, entries: m} }

// FromBSON converts a decoded BSON value into a Value. Database-native types
// that have no variant of their own (object ids, binary UUIDs, timestamps)
// are folded into their canonical string forms.
func FromBSON(v any) Value {
	switch t := v.(type) {
	case nil, primitive.Null:
		return Null()
	case bool:
		return Bool(t)
	case int:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case float32:
		return Number(float64(t))
	case float64:
		return Number(t)
	case string:
		return String(t)
	case bson.M:
		return fromBSONMap(t)
	case map[string]any:
		return fromBSONMap(t)
	case bson.A:
		return fromBSONList(t)
	case []any:
		return fromBSONList(t)
	case bson.D:
		entries := make(map[string]Value, len(t))
		for _, elem := range t {
			entries[elem.Key] = FromBSON(elem.Value)
		}
		return Map(entries)
	case primitive.ObjectID:
		return String(t.Hex())
	case primitive.Binary:
		return fromBinary(t)
	case primitive.DateTime:
		return String(t.Time().UTC().Format(time.RFC3339))
	case time.Time:
		return String(t.UTC().Format(time.RFC3339))
	case primitive.Decimal128:
		return String(t.String())
	case primitive.Timestamp:
		return String(fmt.Sprintf("%d.%d", t.T, t.I))
	default:
		return String(fmt.Sprintf("%v", v))
	}
}

func fromBSONMap(m map[string]any) Value {
	entries := make(map[string]Value, len(m))
	for key, val := range m {
		entries[key] = FromBSON(val)
	}
	return Map(entries)
}

func fromBSONList(items []any) Value {
	list := make([]Value, len(items))
	for i, item := range items {
		list[i] = FromBSON(item)
	}
	return Value{kind: KindList, list: list}
}

func fromBinary(b primitive.Binary) Value {
	// Legacy (0x03) and standard (0x04) UUID subtypes render as UUID text
	if (b.Subtype == 0x03 || b.Subtype == 0x04) && len(b.Data) == 16 {
		if id, err := uuid.FromBytes(b.Data); err == nil {
			return String(id.String())
		}
	}
	return String(fmt.Sprintf("%x", b.Data))
}

// Kind returns the variant discriminator
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is the null variant
func (v Value) IsNull() bool { return v.kind == KindNull }

// BoolValue returns the boolean payload; false for other variants
func (v Value) BoolValue() bool { return v.boolean }

// NumberValue returns the numeric payload; zero for other variants
func (v Value) NumberValue() float64 { return v.number }

// StringValue returns the string payload; empty for other variants
func (v Value) StringValue() string { return v.str }

// Items returns the list payload; nil for other variants
func (v Value) Items() []Value { return v.list }

// Len returns the number of list items or map entries
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindMap:
		return len(v.entries)
	default:
		return 0
	}
}

// Get returns the map entry for key
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMap {
		return Null(), false
	}
	entry, ok := v.entries[key]
	return entry, ok
}

// Keys returns the map keys in sorted order
func (v Value) Keys() []string {
	if v.kind != KindMap {
		return nil
	}
	keys := make([]string, 0, len(v.entries))
	for key := range v.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Lookup walks a nested map path (e.g. "data", "events") and returns the
// value found at the end of it
func (v Value) Lookup(path ...string) (Value, bool) {
	current := v
	for _, key := range path {
		next, ok := current.Get(key)
		if !ok {
			return Null(), false
		}
		current = next
	}
	return current, true
}

// WithPath returns a copy of the value with the entry at path replaced.
// Maps along the path are copied; everything else is shared. When the path
// does not resolve to a map chain the value is returned unchanged.
func (v Value) WithPath(path []string, replacement Value) Value {
	if len(path) == 0 {
		return replacement
	}
	if v.kind != KindMap {
		return v
	}
	child, ok := v.entries[path[0]]
	if !ok {
		return v
	}
	updated := child.WithPath(path[1:], replacement)
	entries := make(map[string]Value, len(v.entries))
	for key, val := range v.entries {
		entries[key] = val
	}
	entries[path[0]] = updated
	return Map(entries)
}

// Contains reports whether needle appears anywhere in the value: as a
// substring of any nested string, as the rendering of any nested scalar, or
// as a map key. This backs the fallback scan's recursive containment check.
func (v Value) Contains(needle string) bool {
	if needle == "" {
		return false
	}
	switch v.kind {
	case KindString:
		return strings.Contains(v.str, needle)
	case KindNumber, KindBool:
		return v.Text() == needle
	case KindList:
		for _, item := range v.list {
			if item.Contains(needle) {
				return true
			}
		}
	case KindMap:
		for key, val := range v.entries {
			if key == needle || val.Contains(needle) {
				return true
			}
		}
	}
	return false
}

// Text returns the bare scalar form of the value: strings unquoted, other
// variants rendered. Used where values are embedded in prose, such as event
// previews.
func (v Value) Text() string {
	if v.kind == KindString {
		return v.str
	}
	return v.Render()
}

// Render produces a deterministic JSON-like representation. Map keys are
// emitted in sorted order so that rendering the same document twice always
// yields identical text.
func (v Value) Render() string {
	var sb strings.Builder
	v.render(&sb)
	return sb.String()
}

func (v Value) render(sb *strings.Builder) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.boolean))
	case KindNumber:
		sb.WriteString(formatNumber(v.number))
	case KindString:
		sb.WriteString(strconv.Quote(v.str))
	case KindList:
		sb.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				sb.WriteByte(',')
			}
			item.render(sb)
		}
		sb.WriteByte(']')
	case KindMap:
		sb.WriteByte('{')
		for i, key := range v.Keys() {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Quote(key))
			sb.WriteByte(':')
			v.entries[key].render(sb)
		}
		sb.WriteByte('}')
	}
}

func formatNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}
