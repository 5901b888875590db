package core

// LayoutItem is one row of a computed layout. For non-bitfields BitOffset and BitSize are 0.
type LayoutItem struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Offset     uint   `json:"offset"`
	Size       uint   `json:"size"`
	BitOffset  uint   `json:"bitOffset"`
	BitSize    uint   `json:"bitSize"`
	IsBitfield bool   `json:"isBitfield"`
}

func (i LayoutItem) IsPadding() bool {
	return i.Type == TypePadding
}

// End is the first byte offset after the item.
func (i LayoutItem) End() uint {
	return i.Offset + i.Size
}

func NewPadding(name string, offset, size uint) LayoutItem {
	return LayoutItem{Name: name, Type: TypePadding, Offset: offset, Size: size}
}
