// Package models provides data structures used throughout planscribe.
package models

import (
	"strings"
)

// ValueKind identifies the JSON type a Value was decoded from.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindArray
	KindObject
)

// String returns the kind name.
func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "null"
	}
}

// Value is a single attribute value of a plan node.
// Numbers keep the literal text they had in the document.
type Value struct {
	Kind   ValueKind
	Str    string
	Bool   bool
	Items  []Value
	Fields Attributes
}

// StringValue returns a string Value.
func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// NumberValue returns a number Value holding the given literal.
func NumberValue(literal string) Value {
	return Value{Kind: KindNumber, Str: literal}
}

// BoolValue returns a boolean Value.
func BoolValue(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

// NullValue returns a null Value.
func NullValue() Value {
	return Value{Kind: KindNull}
}

// ArrayValue returns an array Value.
func ArrayValue(items ...Value) Value {
	return Value{Kind: KindArray, Items: items}
}

// ObjectValue returns an object Value.
func ObjectValue(fields Attributes) Value {
	return Value{Kind: KindObject, Fields: fields}
}

// IsEmpty reports whether the value carries no text worth narrating:
// null, false, an empty string, or an empty collection.
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case KindString:
		return v.Str == ""
	case KindBool:
		return !v.Bool
	case KindArray:
		return len(v.Items) == 0
	case KindObject:
		return len(v.Fields) == 0
	case KindNumber:
		return false
	default:
		return true
	}
}

// String renders the value the way it is narrated. Strings render verbatim,
// nested strings are quoted, and collections use a bracketed list form.
func (v Value) String() string {
	var b strings.Builder
	v.write(&b, false)
	return b.String()
}

func (v Value) write(b *strings.Builder, nested bool) {
	switch v.Kind {
	case KindString:
		if nested {
			b.WriteString(quote(v.Str))
		} else {
			b.WriteString(v.Str)
		}
	case KindNumber:
		b.WriteString(v.Str)
	case KindBool:
		if v.Bool {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
	case KindArray:
		b.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				b.WriteString(", ")
			}
			item.write(b, true)
		}
		b.WriteByte(']')
	case KindObject:
		b.WriteByte('{')
		for i, attr := range v.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(quote(attr.Name))
			b.WriteString(": ")
			attr.Value.write(b, true)
		}
		b.WriteByte('}')
	default:
		b.WriteString("None")
	}
}

func quote(s string) string {
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}
