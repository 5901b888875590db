package utils

import (
	"encoding/binary"
	"github.com/vuuvv/errors"
	"golang.org/x/exp/constraints"
)

const (
	PaddingLeft  string = "left"  // 在前面填充
	PaddingRight string = "right" // 在后面填充
)

// AlignUp rounds n up to the next multiple of align. align 0 or 1 returns n.
func AlignUp[T constraints.Unsigned](n, align T) T {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}

// MinNonZero returns the smaller of a and b, treating 0 in b as "unset".
func MinNonZero[T constraints.Unsigned](a, b T) T {
	if b != 0 && b < a {
		return b
	}
	return a
}

func UintToBytes[T constraints.Integer](u T, size int, order binary.ByteOrder) []byte {
	data := make([]byte, 8)
	order.PutUint64(data, uint64(u))

	switch order {
	case binary.LittleEndian:
		return data[:size]
	default: // 默认情况是大端的
		return data[8-size:]
	}
}

func BytesToUint(data []byte, order binary.ByteOrder) (uint64, error) {
	if order == binary.LittleEndian {
		return BytesToUintLE(data)
	}
	return BytesToUintBE(data)
}

func BytesToUintBE(data []byte) (uint64, error) {
	byteLen := len(data)
	if byteLen < 1 || byteLen > 8 {
		return 0, errors.Errorf("字节长度必须在1-8之间: %d", byteLen)
	}

	var result uint64
	for i := 0; i < byteLen; i++ {
		result = (result << 8) | uint64(data[i])
	}
	return result, nil
}

func BytesToUintLE(data []byte) (uint64, error) {
	byteLen := len(data)
	if byteLen < 1 || byteLen > 8 {
		return 0, errors.Errorf("字节长度必须在1-8之间: %d", byteLen)
	}

	var result uint64
	for i := 0; i < byteLen; i++ {
		result |= uint64(data[i]) << (i * 8)
	}
	return result, nil
}

// Reverse returns a reversed copy of data.
func Reverse(data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[len(data)-1-i] = b
	}
	return out
}

// ResizeBytes truncates or pads data to size. Truncation always keeps the head.
func ResizeBytes(data []byte, size int, padByte byte, position string) []byte {
	if position == "" {
		position = PaddingRight
	}

	if size < 0 {
		return nil
	}

	currentLen := len(data)

	if currentLen == size {
		return data
	}

	if currentLen > size {
		return data[:size]
	}

	needPad := size - currentLen
	result := make([]byte, size)

	switch position {
	case PaddingLeft:
		for i := 0; i < needPad; i++ {
			result[i] = padByte
		}
		copy(result[needPad:], data)

	default:
		copy(result, data)
		for i := currentLen; i < size; i++ {
			result[i] = padByte
		}
	}

	return result
}
