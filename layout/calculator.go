package layout

import (
	"github.com/vuuvv/structlayout/core"
	"github.com/vuuvv/structlayout/log"
	"github.com/vuuvv/structlayout/registry"
	"github.com/vuuvv/structlayout/utils"
	"go.uber.org/zap"
	"math/bits"
	"strconv"
	"strings"
)

// Result is a complete layout of one aggregate.
type Result struct {
	Items     []core.LayoutItem `json:"items"`
	TotalSize uint              `json:"totalSize"`
	Alignment uint              `json:"alignment"`
}

// Fields returns the non-padding items.
func (r *Result) Fields() []core.LayoutItem {
	out := make([]core.LayoutItem, 0, len(r.Items))
	for _, it := range r.Items {
		if !it.IsPadding() {
			out = append(out, it)
		}
	}
	return out
}

func (r *Result) Find(name string) (core.LayoutItem, bool) {
	for _, it := range r.Items {
		if !it.IsPadding() && it.Name == name {
			return it, true
		}
	}
	return core.LayoutItem{}, false
}

// Calculator places members the way a 64-bit C compiler does, using reg for
// every scalar type.
type Calculator struct {
	reg *registry.Registry
}

func New(reg *registry.Registry) *Calculator {
	return &Calculator{reg: reg}
}

func (c *Calculator) Compute(def core.AggregateDef) (*Result, error) {
	body := def.Body()
	return c.ComputeMembers(body.Members, def.Kind(), body.Pack)
}

// ComputeMembers lays out members as a struct or union. pack 0 means natural alignment.
func (c *Calculator) ComputeMembers(members []core.MemberDef, kind core.AggregateKind, pack uint) (*Result, error) {
	if !kind.Valid() {
		return nil, core.NewError(core.KindInvalidArgument).Detailf("unknown aggregate kind %q", kind).Build()
	}
	r, err := c.aggregate(members, kind, pack, "")
	if err != nil {
		return nil, err
	}
	if dup := duplicateNames(r.Items); len(dup) > 0 {
		return nil, core.NewError(core.KindInvalidArgument).Member(dup[0]).Detail("duplicate member name").Build()
	}
	log.Named("layout").Debug("layout computed",
		zap.String("kind", string(kind)),
		zap.Uint("pack", pack),
		zap.Int("items", len(r.Items)),
		zap.Uint("size", r.TotalSize),
		zap.Uint("align", r.Alignment),
	)
	return r, nil
}

// ComputeFlat lays out the member list produced by the legacy parser.
func (c *Calculator) ComputeFlat(members []core.FlatMember, kind core.AggregateKind, pack uint) (*Result, error) {
	defs := make([]core.MemberDef, len(members))
	for i, m := range members {
		defs[i] = m.Member()
	}
	return c.ComputeMembers(defs, kind, pack)
}

func (c *Calculator) aggregate(members []core.MemberDef, kind core.AggregateKind, pack uint, path string) (*Result, error) {
	if kind == core.KindUnion {
		return c.union(members, pack, path)
	}
	return c.structure(members, pack, path)
}

// placed is one member laid out relative to its own start.
type placed struct {
	items []core.LayoutItem
	size  uint
	align uint
}

// bitUnit is the storage unit currently receiving bitfields.
type bitUnit struct {
	offset uint
	size   uint
	bits   uint // 已使用的位数
	typ    string
}

func (c *Calculator) structure(members []core.MemberDef, pack uint, path string) (*Result, error) {
	var items []core.LayoutItem
	var offset uint
	maxAlign := uint(1)
	var unit *bitUnit

	pad := func(align uint) {
		aligned := utils.AlignUp(offset, align)
		if aligned > offset {
			items = append(items, core.NewPadding(core.PaddingName, offset, aligned-offset))
		}
		offset = aligned
	}

	for _, m := range members {
		if m.IsBitfield {
			info, norm, err := c.bitfieldType(m, path)
			if err != nil {
				return nil, err
			}
			align := utils.MinNonZero(info.Align, pack)

			if m.BitSize == 0 {
				// 匿名 :0 结束当前存储单元并对齐到下一个
				unit = nil
				pad(align)
				continue
			}

			if unit == nil || unit.typ != norm || unit.bits+m.BitSize > info.Size*8 {
				pad(align)
				unit = &bitUnit{offset: offset, size: info.Size, typ: norm}
				offset += info.Size
				maxAlign = max(maxAlign, align)
			}
			if m.Name != "" {
				items = append(items, core.LayoutItem{
					Name:       m.Name,
					Type:       norm,
					Offset:     unit.offset,
					Size:       unit.size,
					BitOffset:  unit.bits,
					BitSize:    m.BitSize,
					IsBitfield: true,
				})
			}
			unit.bits += m.BitSize
			continue
		}

		unit = nil
		p, err := c.member(m, pack, path)
		if err != nil {
			return nil, err
		}
		pad(p.align)
		for _, it := range p.items {
			it.Offset += offset
			items = append(items, it)
		}
		offset += p.size
		maxAlign = max(maxAlign, p.align)
	}

	total := utils.AlignUp(offset, maxAlign)
	if total > offset {
		items = append(items, core.NewPadding(core.FinalPaddingName, offset, total-offset))
	}
	return &Result{Items: items, TotalSize: total, Alignment: maxAlign}, nil
}

// union places every member at offset 0. Bitfields are treated as their
// underlying type and never share a unit.
func (c *Calculator) union(members []core.MemberDef, pack uint, path string) (*Result, error) {
	var items []core.LayoutItem
	var size uint
	maxAlign := uint(1)

	for _, m := range members {
		if m.IsBitfield {
			info, norm, err := c.bitfieldType(m, path)
			if err != nil {
				return nil, err
			}
			if m.BitSize == 0 {
				continue
			}
			if m.Name != "" {
				items = append(items, core.LayoutItem{
					Name:       m.Name,
					Type:       norm,
					Size:       info.Size,
					BitSize:    m.BitSize,
					IsBitfield: true,
				})
			}
			size = max(size, info.Size)
			maxAlign = max(maxAlign, utils.MinNonZero(info.Align, pack))
			continue
		}

		p, err := c.member(m, pack, path)
		if err != nil {
			return nil, err
		}
		items = append(items, p.items...)
		size = max(size, p.size)
		maxAlign = max(maxAlign, p.align)
	}

	return &Result{Items: items, TotalSize: size, Alignment: maxAlign}, nil
}

// MaxItems caps the layout rows a single member may flatten into.
const MaxItems = 1 << 20

// extent checks an array of elements each elemSize bytes wide and rowsPerElem
// rows long, returning its element count and byte size.
func extent(m core.MemberDef, elemSize, rowsPerElem uint, path string) (count, size uint, err error) {
	count, ok := m.ElementCount()
	if !ok {
		return 0, 0, core.NewError(core.KindInvalidArgument).Member(join(path, m.Name)).
			Detailf("array dimensions %v overflow the element count", m.ArrayDims).Build()
	}
	hi, size := bits.Mul(count, elemSize)
	if hi != 0 {
		return 0, 0, core.NewError(core.KindInvalidArgument).Member(join(path, m.Name)).
			Detailf("array of %d elements of %d bytes overflows", count, elemSize).Build()
	}
	hi, rows := bits.Mul(count, max(rowsPerElem, 1))
	if hi != 0 || rows > MaxItems {
		return 0, 0, core.NewError(core.KindInvalidArgument).Member(join(path, m.Name)).
			Detailf("array flattens to more than %d items", MaxItems).Build()
	}
	return count, size, nil
}

// member lays out a non-bitfield member, arrays flattened element by element.
func (c *Calculator) member(m core.MemberDef, pack uint, path string) (*placed, error) {
	if m.Nested != nil {
		nestedPack := m.Nested.Body().Pack
		if nestedPack == 0 {
			nestedPack = pack
		}
		sub, err := c.aggregate(m.Nested.Body().Members, m.Nested.Kind(), nestedPack, join(path, m.Name))
		if err != nil {
			return nil, err
		}

		count, size, err := extent(m, sub.TotalSize, uint(len(sub.Items)), path)
		if err != nil {
			return nil, err
		}
		out := &placed{
			size:  size,
			align: utils.MinNonZero(sub.Alignment, pack),
		}
		for k := uint(0); k < count; k++ {
			prefix := ""
			if m.Name != "" {
				prefix = m.Name + indexSuffix(m.ArrayDims, k) + "."
			}
			for _, it := range sub.Items {
				it.Offset += k * sub.TotalSize
				if !it.IsPadding() {
					it.Name = prefix + it.Name
				}
				out.items = append(out.items, it)
			}
		}
		return out, nil
	}

	info, err := c.reg.Resolve(m.Type)
	if err != nil {
		return nil, core.NewError(core.KindUnknownType).Member(join(path, m.Name)).Type(m.Type).Build()
	}
	typ := c.reg.Normalize(m.Type)

	count, size, err := extent(m, info.Size, 1, path)
	if err != nil {
		return nil, err
	}
	out := &placed{
		size:  size,
		align: utils.MinNonZero(info.Align, pack),
	}
	for k := uint(0); k < count; k++ {
		out.items = append(out.items, core.LayoutItem{
			Name:   m.Name + indexSuffix(m.ArrayDims, k),
			Type:   typ,
			Offset: k * info.Size,
			Size:   info.Size,
		})
	}
	return out, nil
}

func (c *Calculator) bitfieldType(m core.MemberDef, path string) (core.TypeInfo, string, error) {
	info, err := c.reg.Resolve(m.Type)
	if err != nil {
		return info, "", core.NewError(core.KindUnknownType).Member(join(path, m.Name)).Type(m.Type).Build()
	}
	if m.BitSize == 0 && m.Name != "" {
		return info, "", core.NewError(core.KindInvalidArgument).Member(join(path, m.Name)).Detail("named bitfield has zero width").Build()
	}
	if m.BitSize > info.Size*8 {
		return info, "", core.NewError(core.KindInvalidArgument).
			Member(join(path, m.Name)).
			Detailf("bit width %d exceeds %d bits of %s", m.BitSize, info.Size*8, m.Type).
			Build()
	}
	return info, c.reg.Normalize(m.Type), nil
}

// indexSuffix renders element k of a row-major array as "[i][j]".
func indexSuffix(dims []uint, k uint) string {
	if len(dims) == 0 {
		return ""
	}
	idx := make([]uint, len(dims))
	for i := len(dims) - 1; i >= 0; i-- {
		if dims[i] == 0 {
			continue
		}
		idx[i] = k % dims[i]
		k /= dims[i]
	}
	var b strings.Builder
	for _, i := range idx {
		b.WriteByte('[')
		b.WriteString(strconv.FormatUint(uint64(i), 10))
		b.WriteByte(']')
	}
	return b.String()
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	if name == "" {
		return path
	}
	return path + "." + name
}
