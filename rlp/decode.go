package rlp

import (
	"bytes"
	"io"
	"math/big"
	"reflect"

	"github.com/holiman/uint256"
)

// Kind tags the three syntactic forms of an RLP item.
type Kind int

const (
	Byte   Kind = iota // single byte in [0x00, 0x7f], self-encoding
	String             // byte string, possibly empty
	List               // sequence of items
)

// Decode reads one RLP value from r into the value pointed to by val.
func Decode(r io.Reader, val interface{}) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return DecodeBytes(data, val)
}

// DecodeBytes decodes b into the value pointed to by val. Supported targets
// are the unsigned and signed integer kinds, bool, string, byte slices and
// arrays, big.Int, uint256.Int, pointers to any of these, and structs and
// slices composed of them.
func DecodeBytes(b []byte, val interface{}) error {
	return newByteStream(b).decodeValue(reflect.ValueOf(val))
}

// Stream is a cursor over RLP data. Entering a list with List narrows the
// readable window to that list's payload until the matching ListEnd.
type Stream struct {
	data  []byte
	pos   int
	lists []int // stack of payload end offsets for open lists
}

// NewStream creates a Stream reading all of r.
func NewStream(r io.Reader) *Stream {
	data, _ := io.ReadAll(r)
	return newByteStream(data)
}

func newByteStream(data []byte) *Stream {
	return &Stream{data: data}
}

// limit is the exclusive end of the readable window.
func (s *Stream) limit() int {
	if n := len(s.lists); n > 0 {
		return s.lists[n-1]
	}
	return len(s.data)
}

// header parses the prefix of the next item without consuming it. It
// returns the item's kind and the payload bounds, enforcing canonical
// size encoding: a long-form header may not carry leading zero bytes or
// a size that would have fit the short form.
func (s *Stream) header() (kind Kind, start, end int, err error) {
	lim := s.limit()
	if s.pos >= lim {
		return 0, 0, 0, io.EOF
	}
	prefix := s.data[s.pos]

	var base Kind
	switch {
	case prefix <= 0x7f:
		return Byte, s.pos, s.pos + 1, nil
	case prefix <= 0xb7:
		base = String
		start = s.pos + 1
		end = start + int(prefix-0x80)
	case prefix <= 0xbf:
		base = String
		start, end, err = s.longHeader(int(prefix-0xb7), lim)
	case prefix <= 0xf7:
		base = List
		start = s.pos + 1
		end = start + int(prefix-0xc0)
	default:
		base = List
		start, end, err = s.longHeader(int(prefix-0xf7), lim)
	}
	if err != nil {
		return 0, 0, 0, err
	}
	if end > lim {
		return 0, 0, 0, io.ErrUnexpectedEOF
	}
	return base, start, end, nil
}

// longHeader resolves the payload bounds of a long-form item whose size
// field spans lenOfLen bytes.
func (s *Stream) longHeader(lenOfLen, lim int) (start, end int, err error) {
	if s.pos+1+lenOfLen > lim {
		return 0, 0, io.ErrUnexpectedEOF
	}
	sizeBytes := s.data[s.pos+1 : s.pos+1+lenOfLen]
	if sizeBytes[0] == 0 {
		return 0, 0, ErrCanonInt
	}
	size := int(readBigEndian(sizeBytes))
	if size <= 55 {
		return 0, 0, ErrNonCanonicalSize
	}
	start = s.pos + 1 + lenOfLen
	return start, start + size, nil
}

// Kind reports the kind and payload size of the next item without
// consuming it.
func (s *Stream) Kind() (Kind, uint64, error) {
	kind, start, end, err := s.header()
	if err != nil {
		return 0, 0, err
	}
	return kind, uint64(end - start), nil
}

// item consumes the next item and returns its kind and payload. Single
// bytes return themselves as the payload.
func (s *Stream) item() (Kind, []byte, error) {
	kind, start, end, err := s.header()
	if err != nil {
		return 0, nil, err
	}
	payload := s.data[start:end]
	// A one-byte string whose byte is its own encoding must not carry a
	// header.
	if kind == String && len(payload) == 1 && payload[0] <= 0x7f {
		return 0, nil, ErrCanonSize
	}
	s.pos = end
	return kind, payload, nil
}

// Bytes reads the next item as a string.
func (s *Stream) Bytes() ([]byte, error) {
	kind, payload, err := s.item()
	if err != nil {
		return nil, err
	}
	if kind == List {
		return nil, ErrExpectedString
	}
	return payload, nil
}

// List enters the next item, which must be a list, and returns its payload
// size. Reads are then confined to the list until ListEnd.
func (s *Stream) List() (uint64, error) {
	if s.pos < s.limit() && s.data[s.pos] < 0xc0 {
		return 0, ErrExpectedList
	}
	_, start, end, err := s.header()
	if err != nil {
		return 0, err
	}
	s.lists = append(s.lists, end)
	s.pos = start
	return uint64(end - start), nil
}

// ListEnd leaves the current list. All of the list's payload must have
// been consumed.
func (s *Stream) ListEnd() error {
	n := len(s.lists)
	if n == 0 {
		return ErrExpectedList
	}
	if s.pos != s.lists[n-1] {
		return ErrEOL
	}
	s.lists = s.lists[:n-1]
	return nil
}

// Uint64 reads an integer item. Integers encode without leading zeros, and
// at most 8 content bytes fit a uint64.
func (s *Stream) Uint64() (uint64, error) {
	b, err := s.Bytes()
	if err != nil {
		return 0, err
	}
	switch {
	case len(b) > 8:
		return 0, ErrUint64Range
	case len(b) > 1 && b[0] == 0:
		return 0, ErrCanonInt
	}
	return readBigEndian(b), nil
}

// BigInt reads an arbitrary-size integer item.
func (s *Stream) BigInt() (*big.Int, error) {
	b, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	if len(b) > 1 && b[0] == 0 {
		return nil, ErrCanonInt
	}
	return new(big.Int).SetBytes(b), nil
}

func readBigEndian(b []byte) uint64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}

// decodeValue dispatches decoding into the pointee of v.
func (s *Stream) decodeValue(v reflect.Value) error {
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return ErrExpectedString
	}
	return s.decodeInto(v.Elem())
}

var (
	bigIntType     = reflect.TypeOf(big.Int{})
	bigIntPtrType  = reflect.TypeOf((*big.Int)(nil))
	uint256IntType = reflect.TypeOf(uint256.Int{})
)

func (s *Stream) decodeInto(v reflect.Value) error {
	switch v.Type() {
	case bigIntType:
		bi, err := s.BigInt()
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(*bi))
		return nil
	case uint256IntType:
		return s.decodeUint256(v.Addr().Interface().(*uint256.Int))
	}

	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		if v.Type() == bigIntPtrType {
			bi, err := s.BigInt()
			if err != nil {
				return err
			}
			v.Set(reflect.ValueOf(bi))
			return nil
		}
		return s.decodeInto(v.Elem())
	}

	switch v.Kind() {
	case reflect.Bool:
		return s.decodeBool(v)

	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		u, err := s.Uint64()
		if err != nil {
			return err
		}
		v.SetUint(u)
		return nil

	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		u, err := s.Uint64()
		if err != nil {
			return err
		}
		v.SetInt(int64(u))
		return nil

	case reflect.String:
		b, err := s.Bytes()
		if err != nil {
			return err
		}
		v.SetString(string(b))
		return nil

	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b, err := s.Bytes()
			if err != nil {
				return err
			}
			v.SetBytes(bytes.Clone(b))
			return nil
		}
		return s.decodeList(v)

	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b, err := s.Bytes()
			if err != nil {
				return err
			}
			for i := 0; i < v.Len() && i < len(b); i++ {
				v.Index(i).SetUint(uint64(b[i]))
			}
			return nil
		}
		return s.decodeList(v)

	case reflect.Struct:
		return s.decodeStruct(v)
	}
	return ErrExpectedString
}

func (s *Stream) decodeUint256(u *uint256.Int) error {
	b, err := s.Bytes()
	if err != nil {
		return err
	}
	if len(b) > 32 {
		return ErrValueTooLarge
	}
	if len(b) > 0 && b[0] == 0 {
		return ErrCanonInt
	}
	u.SetBytes(b)
	return nil
}

func (s *Stream) decodeBool(v reflect.Value) error {
	b, err := s.Bytes()
	if err != nil {
		return err
	}
	switch {
	case len(b) == 0:
		v.SetBool(false)
	case len(b) == 1 && b[0] <= 1:
		v.SetBool(b[0] == 1)
	default:
		return ErrCanonInt
	}
	return nil
}

func (s *Stream) decodeList(v reflect.Value) error {
	if _, err := s.List(); err != nil {
		return err
	}
	for i := 0; s.pos < s.lists[len(s.lists)-1]; i++ {
		if v.Kind() == reflect.Slice && i >= v.Len() {
			v.Set(reflect.Append(v, reflect.New(v.Type().Elem()).Elem()))
		}
		if i >= v.Len() {
			break
		}
		if err := s.decodeInto(v.Index(i)); err != nil {
			return err
		}
	}
	return s.ListEnd()
}

func (s *Stream) decodeStruct(v reflect.Value) error {
	if _, err := s.List(); err != nil {
		return err
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if !t.Field(i).IsExported() {
			continue
		}
		if err := s.decodeInto(v.Field(i)); err != nil {
			return err
		}
	}
	return s.ListEnd()
}
