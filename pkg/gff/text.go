package gff

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Plain-text interchange form of the container. It carries the same logical
// schema as the binary image and exists for tooling and debugging; it is
// not bit-critical and makes no layout promises beyond field order.

type textFile struct {
	FileType string     `yaml:"file_type"`
	Root     textStruct `yaml:"root"`
}

type textStruct struct {
	Type   uint32      `yaml:"type"`
	Fields []textField `yaml:"fields,omitempty"`
}

type textField struct {
	Label string    `yaml:"label"`
	Type  string    `yaml:"type"`
	Value yaml.Node `yaml:"value"`
}

type textLocString struct {
	StrRef *uint32      `yaml:"strref,omitempty"`
	Subs   []textLocSub `yaml:"subs,omitempty"`
}

type textLocSub struct {
	ID   uint32 `yaml:"id"`
	Text string `yaml:"text"`
}

// EncodeText renders the container tree as YAML.
func EncodeText(f *File) ([]byte, error) {
	if f == nil || f.Root == nil {
		return nil, fmt.Errorf("gff: encode text: nil root")
	}
	root, err := textFromStruct(f.Root)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(textFile{FileType: f.FileType, Root: *root})
}

// DecodeText parses the YAML interchange form back into a container tree.
func DecodeText(data []byte) (*File, error) {
	var tf textFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, &ParseError{Err: ErrCorrupt, Detail: err.Error()}
	}
	root, err := structFromText(&tf.Root)
	if err != nil {
		return nil, err
	}
	return &File{FileType: tf.FileType, Root: root}, nil
}

func textFromStruct(s *Struct) (*textStruct, error) {
	ts := &textStruct{Type: s.Type}
	for i := range s.Fields {
		f := &s.Fields[i]
		tf := textField{Label: f.Label, Type: f.Type.String()}

		var plain any
		switch v := f.Value.(type) {
		case Byte:
			plain = uint8(v)
		case Char:
			plain = int8(v)
		case Word:
			plain = uint16(v)
		case Short:
			plain = int16(v)
		case Dword:
			plain = uint32(v)
		case Int:
			plain = int32(v)
		case Dword64:
			plain = uint64(v)
		case Int64:
			plain = int64(v)
		case Float:
			plain = float32(v)
		case Double:
			plain = float64(v)
		case String:
			plain = string(v)
		case ResRef:
			plain = string(v)
		case Void:
			plain = []byte(v)
		case LocString:
			tls := textLocString{}
			if v.StrRef != NoStrRef {
				ref := v.StrRef
				tls.StrRef = &ref
			}
			for _, sub := range v.Subs {
				tls.Subs = append(tls.Subs, textLocSub{ID: sub.ID, Text: sub.Text})
			}
			plain = tls
		case *Struct:
			child, err := textFromStruct(v)
			if err != nil {
				return nil, err
			}
			plain = child
		case List:
			children := make([]*textStruct, 0, len(v))
			for _, item := range v {
				child, err := textFromStruct(item)
				if err != nil {
					return nil, err
				}
				children = append(children, child)
			}
			plain = children
		default:
			return nil, fmt.Errorf("gff: encode text: field %q: unsupported value %T", f.Label, f.Value)
		}
		if err := tf.Value.Encode(plain); err != nil {
			return nil, fmt.Errorf("gff: encode text: field %q: %w", f.Label, err)
		}
		ts.Fields = append(ts.Fields, tf)
	}
	return ts, nil
}

func structFromText(ts *textStruct) (*Struct, error) {
	s := &Struct{Type: ts.Type}
	for i := range ts.Fields {
		tf := &ts.Fields[i]
		ft, ok := fieldTypeByName(tf.Type)
		if !ok {
			return nil, &ParseError{Err: ErrCorrupt, Detail: fmt.Sprintf("field %q: unknown type %q", tf.Label, tf.Type)}
		}
		v, err := valueFromText(ft, &tf.Value)
		if err != nil {
			return nil, &ParseError{Err: ErrCorrupt, Detail: fmt.Sprintf("field %q: %v", tf.Label, err)}
		}
		s.Fields = append(s.Fields, Field{Type: ft, Label: tf.Label, Value: v})
	}
	return s, nil
}

// decodeAs decodes a YAML node into T, then converts through fn.
func decodeAs[T any](node *yaml.Node, fn func(T) Value) (Value, error) {
	var v T
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	return fn(v), nil
}

func valueFromText(ft FieldType, node *yaml.Node) (Value, error) {
	switch ft {
	case TypeByte:
		return decodeAs(node, func(v uint8) Value { return Byte(v) })
	case TypeChar:
		return decodeAs(node, func(v int8) Value { return Char(v) })
	case TypeWord:
		return decodeAs(node, func(v uint16) Value { return Word(v) })
	case TypeShort:
		return decodeAs(node, func(v int16) Value { return Short(v) })
	case TypeDword:
		return decodeAs(node, func(v uint32) Value { return Dword(v) })
	case TypeInt:
		return decodeAs(node, func(v int32) Value { return Int(v) })
	case TypeDword64:
		return decodeAs(node, func(v uint64) Value { return Dword64(v) })
	case TypeInt64:
		return decodeAs(node, func(v int64) Value { return Int64(v) })
	case TypeFloat:
		return decodeAs(node, func(v float32) Value { return Float(v) })
	case TypeDouble:
		return decodeAs(node, func(v float64) Value { return Double(v) })
	case TypeString:
		return decodeAs(node, func(v string) Value { return String(v) })
	case TypeResRef:
		return decodeAs(node, func(v string) Value { return ResRef(v) })
	case TypeVoid:
		return decodeAs(node, func(v []byte) Value { return Void(v) })
	case TypeLocString:
		var tls textLocString
		if err := node.Decode(&tls); err != nil {
			return nil, err
		}
		ls := LocString{StrRef: NoStrRef}
		if tls.StrRef != nil {
			ls.StrRef = *tls.StrRef
		}
		for _, sub := range tls.Subs {
			ls.Subs = append(ls.Subs, LocSub{ID: sub.ID, Text: sub.Text})
		}
		return ls, nil
	case TypeStruct:
		var child textStruct
		if err := node.Decode(&child); err != nil {
			return nil, err
		}
		return structFromText(&child)
	case TypeList:
		var children []textStruct
		if err := node.Decode(&children); err != nil {
			return nil, err
		}
		list := make(List, 0, len(children))
		for i := range children {
			child, err := structFromText(&children[i])
			if err != nil {
				return nil, err
			}
			list = append(list, child)
		}
		return list, nil
	default:
		return nil, fmt.Errorf("unknown field type %d", uint32(ft))
	}
}

func fieldTypeByName(name string) (FieldType, bool) {
	for t := TypeByte; t <= TypeList; t++ {
		if t.String() == name {
			return t, true
		}
	}
	return 0, false
}
