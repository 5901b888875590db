package core

import "math/bits"

// MemberDef is one member declaration of a struct or union body.
//
// Type holds the declared type name, or "struct"/"union" when Nested is set.
// Name is empty for anonymous members. ArrayDims is empty for non-arrays.
type MemberDef struct {
	Type       string       `json:"type"`
	Name       string       `json:"name,omitempty"`
	IsBitfield bool         `json:"isBitfield,omitempty"`
	BitSize    uint         `json:"bitSize,omitempty"`
	ArrayDims  []uint       `json:"arrayDims,omitempty"`
	Nested     AggregateDef `json:"nested,omitempty"`
}

func (m MemberDef) IsArray() bool {
	return len(m.ArrayDims) > 0
}

func (m MemberDef) IsAnonymous() bool {
	return m.Name == ""
}

// ElementCount is the product of all array dimensions, 1 for non-arrays.
// ok is false when the product does not fit in a uint.
func (m MemberDef) ElementCount() (n uint, ok bool) {
	n = 1
	for _, d := range m.ArrayDims {
		hi, lo := bits.Mul(n, d)
		if hi != 0 {
			return 0, false
		}
		n = lo
	}
	return n, true
}

// Clone deep-copies the member including its nested subtree.
func (m MemberDef) Clone() MemberDef {
	c := m
	if m.ArrayDims != nil {
		c.ArrayDims = append([]uint(nil), m.ArrayDims...)
	}
	if m.Nested != nil {
		c.Nested = CloneAggregate(m.Nested)
	}
	return c
}

// Aggregate is the body shared by StructDef and UnionDef.
type Aggregate struct {
	Name    string      `json:"name,omitempty"`
	Members []MemberDef `json:"members"`
	Pack    uint        `json:"pack,omitempty"` // 0 表示未设置
}

func (a *Aggregate) Body() *Aggregate {
	return a
}

func (a Aggregate) clone() Aggregate {
	c := Aggregate{Name: a.Name, Pack: a.Pack}
	if a.Members != nil {
		c.Members = make([]MemberDef, len(a.Members))
		for i, m := range a.Members {
			c.Members[i] = m.Clone()
		}
	}
	return c
}

// AggregateDef is either a *StructDef or a *UnionDef.
type AggregateDef interface {
	Kind() AggregateKind
	Body() *Aggregate
	sealed()
}

type StructDef struct {
	Aggregate
}

func (*StructDef) Kind() AggregateKind { return KindStruct }
func (*StructDef) sealed()             {}

type UnionDef struct {
	Aggregate
}

func (*UnionDef) Kind() AggregateKind { return KindUnion }
func (*UnionDef) sealed()             {}

// NewAggregate builds an empty definition of the given kind.
func NewAggregate(kind AggregateKind, name string) AggregateDef {
	if kind == KindUnion {
		return &UnionDef{Aggregate{Name: name}}
	}
	return &StructDef{Aggregate{Name: name}}
}

func CloneAggregate(def AggregateDef) AggregateDef {
	switch d := def.(type) {
	case *StructDef:
		return &StructDef{d.Aggregate.clone()}
	case *UnionDef:
		return &UnionDef{d.Aggregate.clone()}
	}
	return nil
}

// FlatMember is the member shape produced by the lenient legacy parser.
// Types are already normalized and pointers are "pointer".
type FlatMember struct {
	Type       string `json:"type"`
	Name       string `json:"name"`
	IsBitfield bool   `json:"isBitfield,omitempty"`
	BitSize    uint   `json:"bitSize,omitempty"`
	ArrayDims  []uint `json:"arrayDims,omitempty"`
}

func (f FlatMember) Member() MemberDef {
	m := MemberDef{
		Type:       f.Type,
		Name:       f.Name,
		IsBitfield: f.IsBitfield,
		BitSize:    f.BitSize,
	}
	if len(f.ArrayDims) > 0 {
		m.ArrayDims = append([]uint(nil), f.ArrayDims...)
	}
	return m
}
