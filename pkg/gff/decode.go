package gff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Decoding errors. Every malformed input maps to a *ParseError wrapping one
// of these sentinels; nothing in this file panics on hostile bytes.
var (
	ErrTruncated  = errors.New("gff: file truncated")
	ErrBadVersion = errors.New("gff: unsupported version tag")
	ErrCorrupt    = errors.New("gff: corrupt structure")
)

// ParseError reports why a file could not be decoded.
type ParseError struct {
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Detail)
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseErr(sentinel error, format string, args ...any) error {
	return &ParseError{Err: sentinel, Detail: fmt.Sprintf(format, args...)}
}

// Version is the only container version this codec reads and writes.
const Version = "V3.2"

const (
	headerSize    = 56
	structRecSize = 12
	fieldRecSize  = 12
	labelRecSize  = 16
	maxNestDepth  = 100000
)

// File is a decoded container: a four-character content tag plus the root
// struct of the tree.
type File struct {
	FileType string // 4-character tag, e.g. "DLG "
	Root     *Struct
}

// decoder holds the six arrays sliced out of a validated file image.
type decoder struct {
	structs     []byte // structCount records of 12 bytes
	fields      []byte // fieldCount records of 12 bytes
	labels      []byte // labelCount records of 16 bytes
	fieldData   []byte
	fieldIdx    []byte
	listIdx     []byte
	structCount uint32
	fieldCount  uint32
	labelCount  uint32
	seen        []bool // struct indices already instantiated
}

// Decode parses a binary container image. Every offset and count in the
// header and in nested records is validated against the remaining bytes
// before any buffer is allocated from it; truncated or impossible layouts
// fail closed with a *ParseError.
func Decode(data []byte) (*File, error) {
	if len(data) < headerSize {
		return nil, parseErr(ErrTruncated, "file is %d bytes, header needs %d", len(data), headerSize)
	}

	fileType := string(data[0:4])
	version := string(data[4:8])
	if version != Version {
		return nil, parseErr(ErrBadVersion, "got %q, want %q", version, Version)
	}

	u32 := func(off int) uint32 { return binary.LittleEndian.Uint32(data[off:]) }

	// Section bounds are checked in uint64 space so count*recordSize cannot
	// wrap around and sneak past the file length.
	section := func(name string, off, count, recSize uint32) ([]byte, error) {
		end := uint64(off) + uint64(count)*uint64(recSize)
		if uint64(off) > uint64(len(data)) || end > uint64(len(data)) {
			return nil, parseErr(ErrTruncated, "%s section: offset %d count %d exceeds %d-byte file", name, off, count, len(data))
		}
		return data[off:end], nil
	}

	var (
		d   decoder
		err error
	)
	d.structCount = u32(12)
	d.fieldCount = u32(20)
	d.labelCount = u32(28)

	if d.structs, err = section("struct", u32(8), d.structCount, structRecSize); err != nil {
		return nil, err
	}
	if d.fields, err = section("field", u32(16), d.fieldCount, fieldRecSize); err != nil {
		return nil, err
	}
	if d.labels, err = section("label", u32(24), d.labelCount, labelRecSize); err != nil {
		return nil, err
	}
	if d.fieldData, err = section("field data", u32(32), u32(36), 1); err != nil {
		return nil, err
	}
	if d.fieldIdx, err = section("field indices", u32(40), u32(44), 1); err != nil {
		return nil, err
	}
	if d.listIdx, err = section("list indices", u32(48), u32(52), 1); err != nil {
		return nil, err
	}

	if d.structCount == 0 {
		return nil, parseErr(ErrCorrupt, "no structs")
	}
	d.seen = make([]bool, d.structCount)

	root, err := d.readStruct(0, 0)
	if err != nil {
		return nil, err
	}
	return &File{FileType: fileType, Root: root}, nil
}

// readStruct instantiates struct index si. A struct index may be reached at
// most once; a second visit means the index arrays form a cycle, which a
// well-formed tree never does.
func (d *decoder) readStruct(si uint32, depth int) (*Struct, error) {
	if si >= d.structCount {
		return nil, parseErr(ErrCorrupt, "struct index %d out of range (%d structs)", si, d.structCount)
	}
	if d.seen[si] {
		return nil, parseErr(ErrCorrupt, "struct index %d referenced twice", si)
	}
	if depth > maxNestDepth {
		return nil, parseErr(ErrCorrupt, "struct nesting exceeds %d", maxNestDepth)
	}
	d.seen[si] = true

	rec := d.structs[si*structRecSize:]
	s := &Struct{Type: binary.LittleEndian.Uint32(rec)}
	dataWord := binary.LittleEndian.Uint32(rec[4:])
	fieldCount := binary.LittleEndian.Uint32(rec[8:])

	switch {
	case fieldCount == 0:
		return s, nil
	case fieldCount == 1:
		// The data word is itself the single field index.
		f, err := d.readField(dataWord, depth)
		if err != nil {
			return nil, err
		}
		s.Fields = []Field{*f}
		return s, nil
	default:
		// The data word is a byte offset into the field-index array.
		end := uint64(dataWord) + uint64(fieldCount)*4
		if end > uint64(len(d.fieldIdx)) {
			return nil, parseErr(ErrTruncated, "struct %d field indices: offset %d count %d exceeds %d bytes", si, dataWord, fieldCount, len(d.fieldIdx))
		}
		s.Fields = make([]Field, 0, fieldCount)
		for i := uint32(0); i < fieldCount; i++ {
			fi := binary.LittleEndian.Uint32(d.fieldIdx[dataWord+i*4:])
			f, err := d.readField(fi, depth)
			if err != nil {
				return nil, err
			}
			s.Fields = append(s.Fields, *f)
		}
		return s, nil
	}
}

func (d *decoder) readField(fi uint32, depth int) (*Field, error) {
	if fi >= d.fieldCount {
		return nil, parseErr(ErrCorrupt, "field index %d out of range (%d fields)", fi, d.fieldCount)
	}
	rec := d.fields[fi*fieldRecSize:]
	ftype := FieldType(binary.LittleEndian.Uint32(rec))
	labelIdx := binary.LittleEndian.Uint32(rec[4:])
	dataWord := binary.LittleEndian.Uint32(rec[8:])

	if labelIdx >= d.labelCount {
		return nil, parseErr(ErrCorrupt, "label index %d out of range (%d labels)", labelIdx, d.labelCount)
	}
	label := trimLabel(d.labels[labelIdx*labelRecSize : labelIdx*labelRecSize+labelRecSize])

	f := &Field{Type: ftype, Label: label}

	switch ftype {
	case TypeByte:
		f.Value = Byte(dataWord & 0xFF)
	case TypeChar:
		f.Value = Char(int8(dataWord & 0xFF))
	case TypeWord:
		f.Value = Word(dataWord & 0xFFFF)
	case TypeShort:
		f.Value = Short(int16(dataWord & 0xFFFF))
	case TypeDword:
		f.Value = Dword(dataWord)
	case TypeInt:
		f.Value = Int(int32(dataWord))
	case TypeFloat:
		f.Value = Float(math.Float32frombits(dataWord))
	case TypeDword64:
		b, err := d.dataBytes(dataWord, 8)
		if err != nil {
			return nil, err
		}
		f.Value = Dword64(binary.LittleEndian.Uint64(b))
	case TypeInt64:
		b, err := d.dataBytes(dataWord, 8)
		if err != nil {
			return nil, err
		}
		f.Value = Int64(int64(binary.LittleEndian.Uint64(b)))
	case TypeDouble:
		b, err := d.dataBytes(dataWord, 8)
		if err != nil {
			return nil, err
		}
		f.Value = Double(math.Float64frombits(binary.LittleEndian.Uint64(b)))
	case TypeString:
		s, err := d.readString(dataWord)
		if err != nil {
			return nil, err
		}
		f.Value = String(s)
	case TypeResRef:
		s, err := d.readResRef(dataWord)
		if err != nil {
			return nil, err
		}
		f.Value = ResRef(s)
	case TypeLocString:
		ls, err := d.readLocString(dataWord)
		if err != nil {
			return nil, err
		}
		f.Value = *ls
	case TypeVoid:
		s, err := d.readString(dataWord) // same u32-length framing
		if err != nil {
			return nil, err
		}
		f.Value = Void([]byte(s))
	case TypeStruct:
		child, err := d.readStruct(dataWord, depth+1)
		if err != nil {
			return nil, err
		}
		f.Value = child
	case TypeList:
		list, err := d.readList(dataWord, depth)
		if err != nil {
			return nil, err
		}
		f.Value = list
	default:
		return nil, parseErr(ErrCorrupt, "field %q: unknown type %d", label, uint32(ftype))
	}
	return f, nil
}

// dataBytes returns n bytes at off in the field-data block, bounds-checked.
func (d *decoder) dataBytes(off uint32, n uint32) ([]byte, error) {
	if uint64(off)+uint64(n) > uint64(len(d.fieldData)) {
		return nil, parseErr(ErrTruncated, "field data: offset %d size %d exceeds %d bytes", off, n, len(d.fieldData))
	}
	return d.fieldData[off : off+n], nil
}

func (d *decoder) readString(off uint32) (string, error) {
	b, err := d.dataBytes(off, 4)
	if err != nil {
		return "", err
	}
	n := binary.LittleEndian.Uint32(b)
	body, err := d.dataBytes(off+4, n)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (d *decoder) readResRef(off uint32) (string, error) {
	b, err := d.dataBytes(off, 1)
	if err != nil {
		return "", err
	}
	n := uint32(b[0])
	body, err := d.dataBytes(off+1, n)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (d *decoder) readLocString(off uint32) (*LocString, error) {
	hdr, err := d.dataBytes(off, 12)
	if err != nil {
		return nil, err
	}
	// hdr[0:4] is the total payload size; the per-substring framing below is
	// authoritative, so it is only sanity-checked, not trusted.
	total := binary.LittleEndian.Uint32(hdr)
	if uint64(off)+4+uint64(total) > uint64(len(d.fieldData)) {
		return nil, parseErr(ErrTruncated, "locstring: total size %d at offset %d exceeds %d bytes", total, off, len(d.fieldData))
	}
	ls := &LocString{StrRef: binary.LittleEndian.Uint32(hdr[4:])}
	count := binary.LittleEndian.Uint32(hdr[8:])
	// Each substring needs at least its 8-byte header.
	if uint64(count)*8 > uint64(len(d.fieldData))-uint64(off)-12 {
		return nil, parseErr(ErrTruncated, "locstring: %d substrings cannot fit at offset %d", count, off)
	}
	pos := off + 12
	for i := uint32(0); i < count; i++ {
		sub, err := d.dataBytes(pos, 8)
		if err != nil {
			return nil, err
		}
		id := binary.LittleEndian.Uint32(sub)
		n := binary.LittleEndian.Uint32(sub[4:])
		body, err := d.dataBytes(pos+8, n)
		if err != nil {
			return nil, err
		}
		ls.Subs = append(ls.Subs, LocSub{ID: id, Text: string(body)})
		pos += 8 + n
	}
	return ls, nil
}

func (d *decoder) readList(off uint32, depth int) (List, error) {
	b, err := d.listBytes(off, 4)
	if err != nil {
		return nil, err
	}
	count := binary.LittleEndian.Uint32(b)
	if uint64(off)+4+uint64(count)*4 > uint64(len(d.listIdx)) {
		return nil, parseErr(ErrTruncated, "list: offset %d count %d exceeds %d-byte index block", off, count, len(d.listIdx))
	}
	list := make(List, 0, count)
	for i := uint32(0); i < count; i++ {
		si := binary.LittleEndian.Uint32(d.listIdx[off+4+i*4:])
		s, err := d.readStruct(si, depth+1)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, nil
}

func (d *decoder) listBytes(off uint32, n uint32) ([]byte, error) {
	if uint64(off)+uint64(n) > uint64(len(d.listIdx)) {
		return nil, parseErr(ErrTruncated, "list indices: offset %d size %d exceeds %d bytes", off, n, len(d.listIdx))
	}
	return d.listIdx[off : off+n], nil
}

func trimLabel(b []byte) string {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end])
}
