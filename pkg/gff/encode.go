package gff

import (
	"encoding/binary"
	"fmt"
	"math"
)

// encoder accumulates the six output arrays while walking the struct tree.
type encoder struct {
	structs   []structRec
	fields    []fieldRec
	labels    []string
	labelIdx  map[string]uint32
	fieldData []byte
	fieldIdx  []byte
	listIdx   []byte
}

type structRec struct {
	typ, data, count uint32
}

type fieldRec struct {
	typ, label, data uint32
}

// Encode serializes a container tree to its binary image. It is the left
// inverse of Decode: decoding the result reproduces the tree field for
// field. Labels longer than the fixed record size and resource identifiers
// longer than MaxResRefLen are truncated, not rejected.
func Encode(f *File) ([]byte, error) {
	if f == nil || f.Root == nil {
		return nil, fmt.Errorf("gff: encode: nil root")
	}
	e := &encoder{labelIdx: make(map[string]uint32)}
	if _, err := e.writeStruct(f.Root); err != nil {
		return nil, err
	}

	fileType := f.FileType
	for len(fileType) < 4 {
		fileType += " "
	}
	fileType = fileType[:4]

	structBytes := len(e.structs) * structRecSize
	fieldBytes := len(e.fields) * fieldRecSize
	labelBytes := len(e.labels) * labelRecSize

	out := make([]byte, 0, headerSize+structBytes+fieldBytes+labelBytes+
		len(e.fieldData)+len(e.fieldIdx)+len(e.listIdx))
	out = append(out, fileType...)
	out = append(out, Version...)

	off := uint32(headerSize)
	putPair := func(count, size uint32) {
		out = binary.LittleEndian.AppendUint32(out, off)
		out = binary.LittleEndian.AppendUint32(out, count)
		off += size
	}
	putPair(uint32(len(e.structs)), uint32(structBytes))
	putPair(uint32(len(e.fields)), uint32(fieldBytes))
	putPair(uint32(len(e.labels)), uint32(labelBytes))
	putPair(uint32(len(e.fieldData)), uint32(len(e.fieldData)))
	putPair(uint32(len(e.fieldIdx)), uint32(len(e.fieldIdx)))
	putPair(uint32(len(e.listIdx)), uint32(len(e.listIdx)))

	for _, s := range e.structs {
		out = binary.LittleEndian.AppendUint32(out, s.typ)
		out = binary.LittleEndian.AppendUint32(out, s.data)
		out = binary.LittleEndian.AppendUint32(out, s.count)
	}
	for _, fr := range e.fields {
		out = binary.LittleEndian.AppendUint32(out, fr.typ)
		out = binary.LittleEndian.AppendUint32(out, fr.label)
		out = binary.LittleEndian.AppendUint32(out, fr.data)
	}
	for _, l := range e.labels {
		var rec [labelRecSize]byte
		copy(rec[:], l)
		out = append(out, rec[:]...)
	}
	out = append(out, e.fieldData...)
	out = append(out, e.fieldIdx...)
	out = append(out, e.listIdx...)
	return out, nil
}

// writeStruct appends s and everything below it, returning s's struct index.
func (e *encoder) writeStruct(s *Struct) (uint32, error) {
	si := uint32(len(e.structs))
	e.structs = append(e.structs, structRec{typ: s.Type})

	switch n := len(s.Fields); n {
	case 0:
	case 1:
		fi, err := e.writeField(&s.Fields[0])
		if err != nil {
			return 0, err
		}
		e.structs[si].data = fi
		e.structs[si].count = 1
	default:
		fis := make([]uint32, 0, n)
		for i := range s.Fields {
			fi, err := e.writeField(&s.Fields[i])
			if err != nil {
				return 0, err
			}
			fis = append(fis, fi)
		}
		// The field-index block for this struct is contiguous; nested
		// structs may have appended their own blocks in between, so the
		// offset is captured only now.
		e.structs[si].data = uint32(len(e.fieldIdx))
		e.structs[si].count = uint32(n)
		for _, fi := range fis {
			e.fieldIdx = binary.LittleEndian.AppendUint32(e.fieldIdx, fi)
		}
	}
	return si, nil
}

func (e *encoder) writeField(f *Field) (uint32, error) {
	fi := uint32(len(e.fields))
	e.fields = append(e.fields, fieldRec{
		typ:   uint32(f.Type),
		label: e.internLabel(f.Label),
	})

	var data uint32
	switch v := f.Value.(type) {
	case Byte:
		data = uint32(v)
	case Char:
		data = uint32(uint8(v))
	case Word:
		data = uint32(v)
	case Short:
		data = uint32(uint16(v))
	case Dword:
		data = uint32(v)
	case Int:
		data = uint32(v)
	case Float:
		data = math.Float32bits(float32(v))
	case Dword64:
		data = e.appendData64(uint64(v))
	case Int64:
		data = e.appendData64(uint64(v))
	case Double:
		data = e.appendData64(math.Float64bits(float64(v)))
	case String:
		data = uint32(len(e.fieldData))
		e.fieldData = binary.LittleEndian.AppendUint32(e.fieldData, uint32(len(v)))
		e.fieldData = append(e.fieldData, v...)
	case ResRef:
		s := TruncateResRef(string(v))
		data = uint32(len(e.fieldData))
		e.fieldData = append(e.fieldData, byte(len(s)))
		e.fieldData = append(e.fieldData, s...)
	case LocString:
		data = e.appendLocString(v)
	case Void:
		data = uint32(len(e.fieldData))
		e.fieldData = binary.LittleEndian.AppendUint32(e.fieldData, uint32(len(v)))
		e.fieldData = append(e.fieldData, v...)
	case *Struct:
		si, err := e.writeStruct(v)
		if err != nil {
			return 0, err
		}
		data = si
	case List:
		sis := make([]uint32, 0, len(v))
		for _, child := range v {
			si, err := e.writeStruct(child)
			if err != nil {
				return 0, err
			}
			sis = append(sis, si)
		}
		data = uint32(len(e.listIdx))
		e.listIdx = binary.LittleEndian.AppendUint32(e.listIdx, uint32(len(sis)))
		for _, si := range sis {
			e.listIdx = binary.LittleEndian.AppendUint32(e.listIdx, si)
		}
	case nil:
		return 0, fmt.Errorf("gff: encode: field %q has no value", f.Label)
	default:
		return 0, fmt.Errorf("gff: encode: field %q: unsupported value %T", f.Label, f.Value)
	}
	e.fields[fi].data = data
	return fi, nil
}

func (e *encoder) appendData64(v uint64) uint32 {
	off := uint32(len(e.fieldData))
	e.fieldData = binary.LittleEndian.AppendUint64(e.fieldData, v)
	return off
}

func (e *encoder) appendLocString(v LocString) uint32 {
	off := uint32(len(e.fieldData))
	total := uint32(8) // strref + substring count
	for _, sub := range v.Subs {
		total += 8 + uint32(len(sub.Text))
	}
	e.fieldData = binary.LittleEndian.AppendUint32(e.fieldData, total)
	e.fieldData = binary.LittleEndian.AppendUint32(e.fieldData, v.StrRef)
	e.fieldData = binary.LittleEndian.AppendUint32(e.fieldData, uint32(len(v.Subs)))
	for _, sub := range v.Subs {
		e.fieldData = binary.LittleEndian.AppendUint32(e.fieldData, sub.ID)
		e.fieldData = binary.LittleEndian.AppendUint32(e.fieldData, uint32(len(sub.Text)))
		e.fieldData = append(e.fieldData, sub.Text...)
	}
	return off
}

// internLabel returns the index of label in the deduplicated label table,
// truncating to the fixed record size first.
func (e *encoder) internLabel(label string) uint32 {
	if len(label) > MaxLabelLen {
		label = label[:MaxLabelLen]
	}
	if i, ok := e.labelIdx[label]; ok {
		return i
	}
	i := uint32(len(e.labels))
	e.labels = append(e.labels, label)
	e.labelIdx[label] = i
	return i
}
