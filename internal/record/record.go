package record

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Record is a single process data sample.
//
// Records are stored verbatim, with no framing, length prefix or checksum.
// The on-disk layout follows the natural alignment of the equivalent C
// struct, which leaves one byte of trailing padding.
type Record struct {
	A int16
	B int16
	C int16
	D int16
	E int16
	F int16
	G int16
	H int16
	I int16
	J int8
	K int8
	L uint32
	M uint64
	N [6]byte
	O uint8
}

// diskRecord mirrors Record with explicit padding so that binary.Write
// produces exactly Size bytes. Blank fields are written as zeros.
type diskRecord struct {
	A, B, C, D, E, F, G, H, I int16
	J, K                      int8
	L                         uint32 // already 4-aligned at byte 20
	M                         uint64 // already 8-aligned at byte 24
	N                         [6]byte
	O                         uint8
	_                         uint8 // pads the struct to a multiple of 8
}

// A..I (18) + J, K (2) + L (4) + M (8) + N (6) + O (1) + padding (1)
const Size = 40

// NumFields is the number of values accepted by ParseFields.
const NumFields = 15

var ErrFieldCount = errors.New("invalid number of record fields")

func EncodeRecordToBytes(record *Record) ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.Grow(Size)

	if err := binary.Write(buf, binary.LittleEndian, toDisk(record)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func DecodeRecordFromBytes(data []byte) (*Record, error) {
	if len(data) < Size {
		return nil, fmt.Errorf("short record: got %d bytes, want %d", len(data), Size)
	}

	var d diskRecord
	if err := binary.Read(bytes.NewReader(data[:Size]), binary.LittleEndian, &d); err != nil {
		return nil, err
	}

	return &Record{
		A: d.A, B: d.B, C: d.C, D: d.D, E: d.E, F: d.F, G: d.G, H: d.H, I: d.I,
		J: d.J, K: d.K,
		L: d.L,
		M: d.M,
		N: d.N,
		O: d.O,
	}, nil
}

func toDisk(r *Record) diskRecord {
	return diskRecord{
		A: r.A, B: r.B, C: r.C, D: r.D, E: r.E, F: r.F, G: r.G, H: r.H, I: r.I,
		J: r.J, K: r.K,
		L: r.L,
		M: r.M,
		N: r.N,
		O: r.O,
	}
}

// ParseFields builds a Record from its textual field values, in declaration
// order. Integers accept any base understood by strconv (0x, 0o, 0b
// prefixes). N is six hex octets, optionally separated by ':' or '-'.
func ParseFields(fields []string) (Record, error) {
	var r Record

	if len(fields) != NumFields {
		return r, fmt.Errorf("%w: got %d, want %d", ErrFieldCount, len(fields), NumFields)
	}

	int16s := []*int16{&r.A, &r.B, &r.C, &r.D, &r.E, &r.F, &r.G, &r.H, &r.I}
	for i, dst := range int16s {
		v, err := strconv.ParseInt(fields[i], 0, 16)
		if err != nil {
			return r, fmt.Errorf("field %d: %w", i, err)
		}
		*dst = int16(v)
	}

	for i, dst := range []*int8{&r.J, &r.K} {
		v, err := strconv.ParseInt(fields[9+i], 0, 8)
		if err != nil {
			return r, fmt.Errorf("field %d: %w", 9+i, err)
		}
		*dst = int8(v)
	}

	l, err := strconv.ParseUint(fields[11], 0, 32)
	if err != nil {
		return r, fmt.Errorf("field 11: %w", err)
	}
	r.L = uint32(l)

	m, err := strconv.ParseUint(fields[12], 0, 64)
	if err != nil {
		return r, fmt.Errorf("field 12: %w", err)
	}
	r.M = m

	n, err := parseOctets(fields[13])
	if err != nil {
		return r, fmt.Errorf("field 13: %w", err)
	}
	r.N = n

	o, err := strconv.ParseUint(fields[14], 0, 8)
	if err != nil {
		return r, fmt.Errorf("field 14: %w", err)
	}
	r.O = uint8(o)

	return r, nil
}

func parseOctets(s string) ([6]byte, error) {
	var out [6]byte

	s = strings.NewReplacer(":", "", "-", "").Replace(s)
	raw, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(raw) != len(out) {
		return out, fmt.Errorf("expected %d octets, got %d", len(out), len(raw))
	}

	copy(out[:], raw)
	return out, nil
}
