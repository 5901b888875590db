package layout

import (
	"github.com/vuuvv/structlayout/core"
)

// 手动定义的位域只允许这些类型
var bitfieldTypes = map[string]bool{
	"char":          true,
	"unsigned char": true,
	"int":           true,
	"unsigned int":  true,
}

// duplicateNames lists each non-padding name seen more than once, in order of
// its second appearance.
func duplicateNames(items []core.LayoutItem) []string {
	seen := make(map[string]int, len(items))
	var dup []string
	for _, it := range items {
		if it.IsPadding() || it.Name == "" {
			continue
		}
		seen[it.Name]++
		if seen[it.Name] == 2 {
			dup = append(dup, it.Name)
		}
	}
	return dup
}

// Validate checks a hand-written member list against a declared struct size.
// It reports every problem it finds. The layout is only computed when the
// members themselves are valid, and a layout larger than totalSize is an
// overflow.
func (c *Calculator) Validate(members []core.FlatMember, totalSize uint) []error {
	var errs []error
	items := make([]core.LayoutItem, 0, len(members))
	for _, m := range members {
		items = append(items, core.LayoutItem{Name: m.Name})

		if core.CollapseSpace(m.Type) == "" {
			errs = append(errs, core.NewError(core.KindInvalidArgument).Member(m.Name).Detail("member has no type").Build())
			continue
		}
		if !c.reg.Known(m.Type) {
			errs = append(errs, core.NewError(core.KindUnknownType).Member(m.Name).Type(m.Type).Build())
			continue
		}
		if m.IsBitfield && !bitfieldTypes[c.reg.Normalize(m.Type)] {
			errs = append(errs, core.NewError(core.KindInvalidArgument).
				Member(m.Name).
				Type(m.Type).
				Detail("bitfields only support char, unsigned char, int and unsigned int").
				Build())
		}
	}
	for _, name := range duplicateNames(items) {
		errs = append(errs, core.NewError(core.KindInvalidArgument).Member(name).Detail("duplicate member name").Build())
	}
	if totalSize == 0 {
		errs = append(errs, core.NewError(core.KindInvalidArgument).Detail("struct size must be positive").Build())
	}
	if len(errs) > 0 {
		return errs
	}

	r, err := c.ComputeFlat(members, core.KindStruct, 0)
	if err != nil {
		return []error{err}
	}
	if r.TotalSize > totalSize {
		return []error{core.NewError(core.KindOverflow).
			Detailf("layout size %d bytes exceeds declared struct size %d bytes", r.TotalSize, totalSize).
			Build()}
	}
	return nil
}

// UsedBits sums the bits the members occupy, bitfields by width and everything
// else by type size. Padding is not counted and unknown types add nothing.
func (c *Calculator) UsedBits(members []core.FlatMember) uint {
	var used uint
	for _, m := range members {
		info, err := c.reg.Resolve(m.Type)
		if err != nil {
			continue
		}
		if m.IsBitfield {
			used += m.BitSize
			continue
		}
		n, ok := m.Member().ElementCount()
		if !ok {
			continue
		}
		used += info.Size * 8 * n
	}
	return used
}
