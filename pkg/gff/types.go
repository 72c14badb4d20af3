// Package gff implements the generic structured binary container format
// used by the dialogue file codec. It knows nothing about dialogue
// semantics: it decodes a file into a tree of typed structs and fields and
// encodes such a tree back to the identical byte layout.
package gff

import "fmt"

// FieldType tags the wire type of a field value.
type FieldType uint32

const (
	TypeByte      FieldType = 0  // unsigned 8-bit
	TypeChar      FieldType = 1  // signed 8-bit
	TypeWord      FieldType = 2  // unsigned 16-bit
	TypeShort     FieldType = 3  // signed 16-bit
	TypeDword     FieldType = 4  // unsigned 32-bit
	TypeInt       FieldType = 5  // signed 32-bit
	TypeDword64   FieldType = 6  // unsigned 64-bit
	TypeInt64     FieldType = 7  // signed 64-bit
	TypeFloat     FieldType = 8  // IEEE-754 single
	TypeDouble    FieldType = 9  // IEEE-754 double
	TypeString    FieldType = 10 // length-prefixed string
	TypeResRef    FieldType = 11 // short ASCII resource identifier
	TypeLocString FieldType = 12 // localized string set
	TypeVoid      FieldType = 13 // opaque binary blob
	TypeStruct    FieldType = 14 // nested struct
	TypeList      FieldType = 15 // ordered list of structs
)

func (t FieldType) String() string {
	switch t {
	case TypeByte:
		return "byte"
	case TypeChar:
		return "char"
	case TypeWord:
		return "word"
	case TypeShort:
		return "short"
	case TypeDword:
		return "dword"
	case TypeInt:
		return "int"
	case TypeDword64:
		return "dword64"
	case TypeInt64:
		return "int64"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypeString:
		return "string"
	case TypeResRef:
		return "resref"
	case TypeLocString:
		return "locstring"
	case TypeVoid:
		return "void"
	case TypeStruct:
		return "struct"
	case TypeList:
		return "list"
	default:
		return fmt.Sprintf("FieldType(%d)", uint32(t))
	}
}

// MaxResRefLen is the longest resource identifier the format can store.
// Longer values are truncated on write, never rejected.
const MaxResRefLen = 16

// MaxLabelLen is the fixed size of a label record.
const MaxLabelLen = 16

// NoStrRef marks a LocString with no external string-table fallback.
const NoStrRef uint32 = 0xFFFFFFFF

// Value is the interface for field payloads. Implementations are the
// concrete wire types below; nothing outside this package implements it.
type Value interface {
	gffValue() // marker method restricting implementations to this package
}

// Byte is an unsigned 8-bit value.
type Byte uint8

// Char is a signed 8-bit value.
type Char int8

// Word is an unsigned 16-bit value.
type Word uint16

// Short is a signed 16-bit value.
type Short int16

// Dword is an unsigned 32-bit value.
type Dword uint32

// Int is a signed 32-bit value.
type Int int32

// Dword64 is an unsigned 64-bit value.
type Dword64 uint64

// Int64 is a signed 64-bit value.
type Int64 int64

// Float is a 32-bit IEEE-754 value.
type Float float32

// Double is a 64-bit IEEE-754 value.
type Double float64

// String is a length-prefixed character string.
type String string

// ResRef is a short ASCII resource identifier. Values longer than
// MaxResRefLen are truncated when encoded.
type ResRef string

// LocSub is one (language id, text) pair inside a LocString.
type LocSub struct {
	ID   uint32
	Text string
}

// LocString carries zero or more localized substrings plus an optional
// external string-table reference used when no inline text matches.
type LocString struct {
	StrRef uint32 // NoStrRef when absent
	Subs   []LocSub
}

// Void is an opaque binary blob.
type Void []byte

// Field is one labeled, typed slot inside a Struct.
type Field struct {
	Type  FieldType
	Label string
	Value Value
}

// Struct is a typed record of fields. The root of a decoded file is a
// Struct; nesting happens through TypeStruct and TypeList fields.
type Struct struct {
	Type   uint32
	Fields []Field
}

// List is an ordered sequence of structs.
type List []*Struct

func (Byte) gffValue()      {}
func (Char) gffValue()      {}
func (Word) gffValue()      {}
func (Short) gffValue()     {}
func (Dword) gffValue()     {}
func (Int) gffValue()       {}
func (Dword64) gffValue()   {}
func (Int64) gffValue()     {}
func (Float) gffValue()     {}
func (Double) gffValue()    {}
func (String) gffValue()    {}
func (ResRef) gffValue()    {}
func (LocString) gffValue() {}
func (Void) gffValue()      {}
func (*Struct) gffValue()   {}
func (List) gffValue()      {}

// Field lookup helpers. Missing fields and type mismatches return the zero
// value; callers that need to distinguish use Lookup.

// Lookup returns the field with the given label, or nil.
func (s *Struct) Lookup(label string) *Field {
	for i := range s.Fields {
		if s.Fields[i].Label == label {
			return &s.Fields[i]
		}
	}
	return nil
}

// Set replaces the value of the labeled field, appending the field if it
// does not exist yet.
func (s *Struct) Set(label string, t FieldType, v Value) {
	if f := s.Lookup(label); f != nil {
		f.Type = t
		f.Value = v
		return
	}
	s.Fields = append(s.Fields, Field{Type: t, Label: label, Value: v})
}

// Dword returns the labeled field as a uint32.
func (s *Struct) Dword(label string) uint32 {
	if f := s.Lookup(label); f != nil {
		if v, ok := f.Value.(Dword); ok {
			return uint32(v)
		}
	}
	return 0
}

// Byte returns the labeled field as a uint8.
func (s *Struct) Byte(label string) uint8 {
	if f := s.Lookup(label); f != nil {
		if v, ok := f.Value.(Byte); ok {
			return uint8(v)
		}
	}
	return 0
}

// String returns the labeled field as a string.
func (s *Struct) String(label string) string {
	if f := s.Lookup(label); f != nil {
		if v, ok := f.Value.(String); ok {
			return string(v)
		}
	}
	return ""
}

// ResRef returns the labeled field as a resource identifier.
func (s *Struct) ResRef(label string) string {
	if f := s.Lookup(label); f != nil {
		if v, ok := f.Value.(ResRef); ok {
			return string(v)
		}
	}
	return ""
}

// LocString returns the labeled field as a localized string set.
func (s *Struct) LocString(label string) LocString {
	if f := s.Lookup(label); f != nil {
		if v, ok := f.Value.(LocString); ok {
			return v
		}
	}
	return LocString{StrRef: NoStrRef}
}

// List returns the labeled field as a list of structs.
func (s *Struct) List(label string) List {
	if f := s.Lookup(label); f != nil {
		if v, ok := f.Value.(List); ok {
			return v
		}
	}
	return nil
}

// TruncateResRef clamps a resource identifier to the wire limit.
func TruncateResRef(s string) string {
	if len(s) > MaxResRefLen {
		return s[:MaxResRefLen]
	}
	return s
}
