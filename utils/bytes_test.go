package utils

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlignUp(t *testing.T) {
	tests := []struct {
		n, a, want uint
	}{
		{0, 4, 0},
		{1, 4, 4},
		{4, 4, 4},
		{5, 8, 8},
		{7, 1, 7},
		{7, 0, 7},
		{9, 2, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AlignUp(tt.n, tt.a), "AlignUp(%d, %d)", tt.n, tt.a)
	}
	assert.Equal(t, uint(2), MinNonZero[uint](4, 2))
	assert.Equal(t, uint(4), MinNonZero[uint](4, 0))
	assert.Equal(t, uint(1), MinNonZero[uint](1, 8))
}

func TestUintBytesRoundTrip(t *testing.T) {
	le := UintToBytes(uint32(0x12345678), 4, binary.LittleEndian)
	assert.Equal(t, []byte{0x78, 0x56, 0x34, 0x12}, le)
	be := UintToBytes(uint32(0x12345678), 4, binary.BigEndian)
	assert.Equal(t, []byte{0x12, 0x34, 0x56, 0x78}, be)

	v, err := BytesToUint(le, binary.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x12345678), v)

	v, err = BytesToUint(be, binary.BigEndian)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x12345678), v)

	_, err = BytesToUintLE(nil)
	assert.Error(t, err)
	_, err = BytesToUintBE(make([]byte, 9))
	assert.Error(t, err)
}

func TestResizeBytes(t *testing.T) {
	assert.Equal(t, []byte{1, 2, 0, 0}, ResizeBytes([]byte{1, 2}, 4, 0, PaddingRight))
	assert.Equal(t, []byte{0, 0, 1, 2}, ResizeBytes([]byte{1, 2}, 4, 0, PaddingLeft))
	assert.Equal(t, []byte{1, 2}, ResizeBytes([]byte{1, 2, 3}, 2, 0, ""))
	assert.Nil(t, ResizeBytes([]byte{1}, -1, 0, ""))
	assert.Equal(t, []byte{3, 2, 1}, Reverse([]byte{1, 2, 3}))
}

func TestCatch(t *testing.T) {
	var got any
	func() {
		defer Catch(func(reason any) { got = reason })
		Panicf("bad %d", 1)
	}()
	assert.Equal(t, "bad 1", got)
}
