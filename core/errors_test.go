package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := NewError(KindUnknownType).Member("x").Type("wat").Build()

	assert.True(t, errors.Is(err, ErrUnknownType))
	assert.False(t, errors.Is(err, ErrParse))

	wrapped := fmt.Errorf("layout: %w", err)
	assert.True(t, errors.Is(wrapped, ErrUnknownType))
	assert.Equal(t, KindUnknownType, KindOf(wrapped))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestErrorMessage(t *testing.T) {
	err := NewError(KindParse).At(3, 7).Detail("expected ';'").Build()
	assert.Equal(t, "parse at 3:7: expected ';'", err.Error())

	err = NewError(KindValue).Tokens(2, 4).Detail("invalid tokens").Build()
	assert.Equal(t, "value tokens #2, #4: invalid tokens", err.Error())

	cause := errors.New("boom")
	err = NewError(KindValue).Cause(cause).Build()
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "caused by: boom")
}

func TestParseEndian(t *testing.T) {
	tests := []struct {
		in   string
		want Endian
		ok   bool
	}{
		{"little", Little, true},
		{"LE", Little, true},
		{" Big ", Big, true},
		{"be", Big, true},
		{"middle", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEndian(tt.in)
			if !tt.ok {
				require.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCloneAggregateIsDeep(t *testing.T) {
	inner := &StructDef{Aggregate{Name: "Inner", Members: []MemberDef{{Type: "int", Name: "a"}}}}
	outer := &StructDef{Aggregate{Name: "Outer", Members: []MemberDef{
		{Type: TypeStruct, Name: "in", ArrayDims: []uint{2}, Nested: inner},
	}}}

	c := CloneAggregate(outer).(*StructDef)
	c.Members[0].ArrayDims[0] = 9
	c.Members[0].Nested.Body().Members[0].Name = "changed"

	assert.Equal(t, uint(2), outer.Members[0].ArrayDims[0])
	assert.Equal(t, "a", inner.Members[0].Name)
	assert.Equal(t, KindStruct, c.Kind())
}

func TestMemberHelpers(t *testing.T) {
	m := MemberDef{Type: "int", Name: "m", ArrayDims: []uint{2, 3}}
	assert.True(t, m.IsArray())
	n, ok := m.ElementCount()
	assert.True(t, ok)
	assert.Equal(t, uint(6), n)
	assert.False(t, m.IsAnonymous())

	huge := MemberDef{Type: "char", Name: "h", ArrayDims: []uint{1 << 16, 1 << 16, 1 << 16, 1 << 16}}
	_, ok = huge.ElementCount()
	assert.False(t, ok)

	f := FlatMember{Type: "int", Name: "f", ArrayDims: []uint{4}}
	assert.Equal(t, MemberDef{Type: "int", Name: "f", ArrayDims: []uint{4}}, f.Member())

	assert.Equal(t, "unsigned int", CollapseSpace("  unsigned \t  int "))
	assert.True(t, NewPadding(PaddingName, 1, 3).IsPadding())
}
