package core

import (
	"strings"
)

const (
	TypePadding = "padding" // 填充字节
	TypePointer = "pointer" // 所有指针统一为 pointer
	TypeStruct  = "struct"
	TypeUnion   = "union"
	TypeBool    = "bool"
)

const (
	PaddingName      = "(padding)"
	FinalPaddingName = "(final padding)"
)

// TypeInfo is the size and alignment of a canonical type name.
type TypeInfo struct {
	Size  uint `json:"size" yaml:"size"`
	Align uint `json:"align" yaml:"align"`
}

type AggregateKind string

const (
	KindStruct AggregateKind = TypeStruct
	KindUnion  AggregateKind = TypeUnion
)

func (k AggregateKind) Valid() bool {
	return k == KindStruct || k == KindUnion
}

type Endian string

const (
	Little Endian = "little"
	Big    Endian = "big"
)

func (e Endian) Valid() bool {
	return e == Little || e == Big
}

// ParseEndian accepts "little"/"big" case-insensitively, plus the short forms "le"/"be".
func ParseEndian(s string) (Endian, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "little", "le":
		return Little, nil
	case "big", "be":
		return Big, nil
	}
	return "", NewError(KindInvalidArgument).Detailf("unsupported endianness: %q", s).Build()
}

// CollapseSpace turns every whitespace run into one space and trims both ends.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
