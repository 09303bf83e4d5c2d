package rlp

import (
	"io"
	"math/big"
	"reflect"

	"github.com/holiman/uint256"
)

// Encode writes the RLP encoding of val to w.
func Encode(w io.Writer, val interface{}) error {
	b, err := EncodeToBytes(val)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// EncodeToBytes returns the RLP encoding of val. Integers encode as their
// minimal big-endian bytes, bool as 0x01/empty, byte slices and arrays as
// strings, and structs and other slices as lists of their elements in
// order. Nil pointers encode as the empty string.
func EncodeToBytes(val interface{}) ([]byte, error) {
	return encodeValue(reflect.ValueOf(val))
}

// WrapList wraps an already-encoded run of items in a list header.
func WrapList(payload []byte) []byte {
	return withHeader(0xc0, payload)
}

func encodeValue(v reflect.Value) ([]byte, error) {
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return []byte{0x80}, nil
		}
		v = v.Elem()
	}

	switch v.Type() {
	case bigIntType:
		return encodeBigInt(v.Addr().Interface().(*big.Int)), nil
	case uint256IntType:
		return encodeString(v.Addr().Interface().(*uint256.Int).Bytes()), nil
	}

	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return []byte{0x01}, nil
		}
		return []byte{0x80}, nil

	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		return encodeUint(v.Uint()), nil

	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		return encodeUint(uint64(v.Int())), nil

	case reflect.String:
		return encodeString([]byte(v.String())), nil

	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return encodeString(v.Bytes()), nil
		}
		return encodeList(v)

	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, v.Len())
			for i := range b {
				b[i] = byte(v.Index(i).Uint())
			}
			return encodeString(b), nil
		}
		return encodeList(v)

	case reflect.Struct:
		return encodeStruct(v)

	case reflect.Invalid:
		return []byte{0x80}, nil
	}
	return nil, ErrValueTooLarge
}

func encodeList(v reflect.Value) ([]byte, error) {
	var payload []byte
	for i := 0; i < v.Len(); i++ {
		enc, err := encodeValue(v.Index(i))
		if err != nil {
			return nil, err
		}
		payload = append(payload, enc...)
	}
	return withHeader(0xc0, payload), nil
}

func encodeStruct(v reflect.Value) ([]byte, error) {
	var payload []byte
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if !t.Field(i).IsExported() {
			continue
		}
		enc, err := encodeValue(v.Field(i))
		if err != nil {
			return nil, err
		}
		payload = append(payload, enc...)
	}
	return withHeader(0xc0, payload), nil
}

// encodeUint encodes an integer: zero is the empty string, values below
// 128 are their own encoding, the rest are minimal big-endian strings.
func encodeUint(u uint64) []byte {
	switch {
	case u == 0:
		return []byte{0x80}
	case u < 0x80:
		return []byte{byte(u)}
	}
	return encodeString(minimalBigEndian(u))
}

func encodeBigInt(i *big.Int) []byte {
	if i.Sign() == 0 {
		return []byte{0x80}
	}
	return encodeString(i.Bytes())
}

func encodeString(data []byte) []byte {
	if len(data) == 1 && data[0] <= 0x7f {
		return data
	}
	return withHeader(0x80, data)
}

// withHeader prepends the RLP header for a payload of the given class
// (0x80 for strings, 0xc0 for lists).
func withHeader(class byte, payload []byte) []byte {
	n := len(payload)
	if n <= 55 {
		return append([]byte{class + byte(n)}, payload...)
	}
	size := minimalBigEndian(uint64(n))
	out := append([]byte{class + 0x37 + byte(len(size))}, size...)
	return append(out, payload...)
}

// minimalBigEndian returns u in big-endian form without leading zeros.
func minimalBigEndian(u uint64) []byte {
	n := 1
	for v := u >> 8; v != 0; v >>= 8 {
		n++
	}
	out := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = byte(u)
		u >>= 8
	}
	return out
}
