// Package codec implements the component serialization framing spec.md §6
// defines for round-tripping components: fixed-size fields as a
// little-endian primitive block, variable-size fields length-prefixed with
// a varint behind an offset-table header for O(1) field access, and a
// leading bitmask byte marking which optional fields follow.
package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// FieldType enumerates the wire types a schema field can carry.
type FieldType int

const (
	FieldBool FieldType = iota
	FieldU16
	FieldI32
	FieldU32
	FieldF64
	FieldString
	FieldStringMap
)

// fixedSize returns the encoded byte width of a fixed-size field type, or
// 0 for variable-size types.
func (t FieldType) fixedSize() int {
	switch t {
	case FieldBool:
		return 1
	case FieldU16:
		return 2
	case FieldI32, FieldU32:
		return 4
	case FieldF64:
		return 8
	default:
		return 0
	}
}

// Field is one entry of a component's codec descriptor: a name, a wire
// type, and optionally a default used when the field is absent.
type Field struct {
	Name     string
	Type     FieldType
	Optional bool
	Default  any
}

// Schema is the ordered codec descriptor for one component type.
type Schema struct {
	Name   string
	Fields []Field
}

// Values is the field-name-to-value map a schema encodes and decodes.
// Supported value types per FieldType: bool, uint16, int32, uint32,
// float64, string, map[string]string.
type Values map[string]any

// Marshal encodes values against the schema. Layout:
//
//	[optional bitmask bytes][fixed block][offset table][variable block]
//
// The bitmask has one bit per optional field in declaration order. The
// fixed block holds every present fixed-size field little-endian. The
// offset table holds one uvarint per present variable-size field, giving
// its start offset within the variable block, so any variable field is
// reachable without scanning its predecessors.
func Marshal(s Schema, values Values) ([]byte, error) {
	present := make([]bool, len(s.Fields))
	optionalBits := 0
	for i, f := range s.Fields {
		_, has := values[f.Name]
		if f.Optional {
			present[i] = has
			optionalBits++
		} else {
			if !has && f.Default == nil {
				return nil, fmt.Errorf("codec: %s: required field %q missing", s.Name, f.Name)
			}
			present[i] = true
		}
	}

	maskLen := (optionalBits + 7) / 8
	mask := make([]byte, maskLen)
	bit := 0
	for i, f := range s.Fields {
		if !f.Optional {
			continue
		}
		if present[i] {
			mask[bit/8] |= 1 << (bit % 8)
		}
		bit++
	}

	var fixed []byte
	var variable []byte
	var offsets []uint64

	for i, f := range s.Fields {
		if !present[i] {
			continue
		}
		v, has := values[f.Name]
		if !has {
			v = f.Default
		}
		switch f.Type {
		case FieldBool:
			b := byte(0)
			if v.(bool) {
				b = 1
			}
			fixed = append(fixed, b)
		case FieldU16:
			fixed = binary.LittleEndian.AppendUint16(fixed, v.(uint16))
		case FieldI32:
			fixed = binary.LittleEndian.AppendUint32(fixed, uint32(v.(int32)))
		case FieldU32:
			fixed = binary.LittleEndian.AppendUint32(fixed, v.(uint32))
		case FieldF64:
			fixed = binary.LittleEndian.AppendUint64(fixed, math.Float64bits(v.(float64)))
		case FieldString:
			offsets = append(offsets, uint64(len(variable)))
			variable = appendString(variable, v.(string))
		case FieldStringMap:
			offsets = append(offsets, uint64(len(variable)))
			variable = appendStringMap(variable, v.(map[string]string))
		default:
			return nil, fmt.Errorf("codec: %s: field %q has unknown type %d", s.Name, f.Name, f.Type)
		}
	}

	out := make([]byte, 0, len(mask)+len(fixed)+len(variable)+8*len(offsets)+1)
	out = append(out, mask...)
	out = append(out, fixed...)
	out = binary.AppendUvarint(out, uint64(len(offsets)))
	for _, off := range offsets {
		out = binary.AppendUvarint(out, off)
	}
	out = append(out, variable...)
	return out, nil
}

// Unmarshal decodes data against the schema, applying defaults for absent
// optional fields that declare one.
func Unmarshal(s Schema, data []byte) (Values, error) {
	optionalBits := 0
	for _, f := range s.Fields {
		if f.Optional {
			optionalBits++
		}
	}
	maskLen := (optionalBits + 7) / 8
	if len(data) < maskLen {
		return nil, fmt.Errorf("codec: %s: truncated bitmask", s.Name)
	}
	mask := data[:maskLen]
	pos := maskLen

	present := make([]bool, len(s.Fields))
	bit := 0
	for i, f := range s.Fields {
		if f.Optional {
			present[i] = mask[bit/8]&(1<<(bit%8)) != 0
			bit++
		} else {
			present[i] = true
		}
	}

	values := make(Values, len(s.Fields))

	// fixed block first, in declaration order.
	for i, f := range s.Fields {
		size := f.Type.fixedSize()
		if size == 0 || !present[i] {
			continue
		}
		if pos+size > len(data) {
			return nil, fmt.Errorf("codec: %s: truncated fixed field %q", s.Name, f.Name)
		}
		raw := data[pos : pos+size]
		pos += size
		switch f.Type {
		case FieldBool:
			values[f.Name] = raw[0] != 0
		case FieldU16:
			values[f.Name] = binary.LittleEndian.Uint16(raw)
		case FieldI32:
			values[f.Name] = int32(binary.LittleEndian.Uint32(raw))
		case FieldU32:
			values[f.Name] = binary.LittleEndian.Uint32(raw)
		case FieldF64:
			values[f.Name] = math.Float64frombits(binary.LittleEndian.Uint64(raw))
		}
	}

	// offset table, then the variable block it indexes into.
	count, n := binary.Uvarint(data[pos:])
	if n <= 0 {
		return nil, fmt.Errorf("codec: %s: bad offset-table length", s.Name)
	}
	pos += n
	offsets := make([]uint64, count)
	for i := range offsets {
		off, n := binary.Uvarint(data[pos:])
		if n <= 0 {
			return nil, fmt.Errorf("codec: %s: bad offset entry %d", s.Name, i)
		}
		offsets[i] = off
		pos += n
	}
	variable := data[pos:]

	varIdx := 0
	for i, f := range s.Fields {
		if f.Type.fixedSize() != 0 {
			continue
		}
		if !present[i] {
			if f.Optional && f.Default != nil {
				values[f.Name] = f.Default
			}
			continue
		}
		if varIdx >= len(offsets) {
			return nil, fmt.Errorf("codec: %s: offset table short for field %q", s.Name, f.Name)
		}
		chunk := variable[offsets[varIdx]:]
		varIdx++
		switch f.Type {
		case FieldString:
			str, err := readString(chunk)
			if err != nil {
				return nil, fmt.Errorf("codec: %s: field %q: %w", s.Name, f.Name, err)
			}
			values[f.Name] = str
		case FieldStringMap:
			m, err := readStringMap(chunk)
			if err != nil {
				return nil, fmt.Errorf("codec: %s: field %q: %w", s.Name, f.Name, err)
			}
			values[f.Name] = m
		}
	}

	// defaults for absent optional fixed fields.
	for i, f := range s.Fields {
		if !present[i] && f.Optional && f.Default != nil && f.Type.fixedSize() != 0 {
			values[f.Name] = f.Default
		}
	}

	return values, nil
}

func appendString(dst []byte, s string) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(s)))
	return append(dst, s...)
}

func readString(data []byte) (string, error) {
	length, n := binary.Uvarint(data)
	if n <= 0 || uint64(len(data)-n) < length {
		return "", fmt.Errorf("truncated string")
	}
	return string(data[n : n+int(length)]), nil
}

func appendStringMap(dst []byte, m map[string]string) []byte {
	// deterministic encode order so serialize(deserialize(b)) == b holds.
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	dst = binary.AppendUvarint(dst, uint64(len(keys)))
	for _, k := range keys {
		dst = appendString(dst, k)
		dst = appendString(dst, m[k])
	}
	return dst
}

func readStringMap(data []byte) (map[string]string, error) {
	count, n := binary.Uvarint(data)
	if n <= 0 {
		return nil, fmt.Errorf("truncated map header")
	}
	data = data[n:]
	m := make(map[string]string, count)
	for i := uint64(0); i < count; i++ {
		k, err := readString(data)
		if err != nil {
			return nil, err
		}
		data = data[uvarintLen(uint64(len(k)))+len(k):]
		v, err := readString(data)
		if err != nil {
			return nil, err
		}
		data = data[uvarintLen(uint64(len(v)))+len(v):]
		m[k] = v
	}
	return m, nil
}

func uvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
