package codec

import (
	"encoding/binary"
	"encoding/hex"
	"github.com/google/uuid"
	"github.com/vuuvv/structlayout/core"
	"github.com/vuuvv/structlayout/utils"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Value is a decoded field. Any width is supported.
type Value struct {
	n      *big.Int
	isBool bool
}

func (v Value) Bool() bool {
	return v.n != nil && v.n.Sign() != 0
}

// Uint64 reports false when the value does not fit.
func (v Value) Uint64() (uint64, bool) {
	if v.n == nil {
		return 0, true
	}
	if !v.n.IsUint64() {
		return 0, false
	}
	return v.n.Uint64(), true
}

// Native returns bool, int64 (values up to MaxInt64), uint64, or the decimal
// string when wider than 64 bits.
func (v Value) Native() any {
	if v.isBool {
		return v.Bool()
	}
	u, ok := v.Uint64()
	if !ok {
		return v.n.String()
	}
	if u <= math.MaxInt64 {
		return int64(u)
	}
	return u
}

func (v Value) String() string {
	if v.isBool {
		return strconv.FormatBool(v.Bool())
	}
	if v.n == nil {
		return "0"
	}
	return v.n.String()
}

func byteOrder(e core.Endian) (binary.ByteOrder, error) {
	switch e {
	case core.Little:
		return binary.LittleEndian, nil
	case core.Big:
		return binary.BigEndian, nil
	}
	return nil, core.NewError(core.KindInvalidArgument).Detailf("unsupported endianness: %q", e).Build()
}

// slice returns buf[offset:offset+size] or a range error.
func slice(buf []byte, item core.LayoutItem) ([]byte, error) {
	end := item.Offset + item.Size
	if end < item.Offset || uint(len(buf)) < end {
		return nil, core.NewError(core.KindRange).
			Member(item.Name).
			Detailf("need %d bytes, have %d", end, len(buf)).
			Build()
	}
	return buf[item.Offset:end], nil
}

// Extract reads item from buf. Bitfields are shifted and masked out of their
// storage unit, bool items decode as true/false. buf is never modified.
func Extract(buf []byte, item core.LayoutItem, e core.Endian) (Value, error) {
	order, err := byteOrder(e)
	if err != nil {
		return Value{}, err
	}
	raw, err := slice(buf, item)
	if err != nil {
		return Value{}, err
	}

	n := new(big.Int)
	switch {
	case len(raw) == 0:
	case len(raw) <= 8:
		u, err := utils.BytesToUint(raw, order)
		if err != nil {
			return Value{}, core.NewError(core.KindRange).Member(item.Name).Cause(err).Build()
		}
		n.SetUint64(u)
	case order == binary.LittleEndian:
		n.SetBytes(utils.Reverse(raw))
	default:
		n.SetBytes(raw)
	}

	if item.IsBitfield {
		n.Rsh(n, item.BitOffset)
		mask := new(big.Int).Lsh(big.NewInt(1), item.BitSize)
		mask.Sub(mask, big.NewInt(1))
		n.And(n, mask)
	}

	return Value{n: n, isBool: item.Type == core.TypeBool && !item.IsBitfield}, nil
}

// FieldValue is one decoded layout row.
type FieldValue struct {
	ID     uuid.UUID       `json:"id"`
	Name   string          `json:"name"`
	Type   string          `json:"type"`
	Offset uint            `json:"offset"`
	Size   uint            `json:"size"`
	Item   core.LayoutItem `json:"-"`
	Value  string          `json:"value"`
	Raw    Value           `json:"-"`
	HexRaw string          `json:"hexRaw"` // 内存顺序
}

var rowNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("structlayout"))

// RowID is stable for a given row name, so presenters can key rows across decodes.
func RowID(name string, offset uint) uuid.UUID {
	return uuid.NewSHA1(rowNamespace, []byte(name+"@"+strconv.FormatUint(uint64(offset), 10)))
}

// DecodeLayout decodes every row of items. Padding rows get the value "-".
func DecodeLayout(buf []byte, items []core.LayoutItem, e core.Endian) ([]FieldValue, error) {
	if _, err := byteOrder(e); err != nil {
		return nil, err
	}
	rows := make([]FieldValue, 0, len(items))
	for _, it := range items {
		raw, err := slice(buf, it)
		if err != nil {
			return nil, err
		}
		row := FieldValue{
			ID:     RowID(it.Name, it.Offset),
			Name:   it.Name,
			Type:   it.Type,
			Offset: it.Offset,
			Size:   it.Size,
			Item:   it,
			HexRaw: hex.EncodeToString(raw),
		}
		if it.IsPadding() {
			row.Value = "-"
		} else {
			v, err := Extract(buf, it, e)
			if err != nil {
				return nil, err
			}
			row.Raw = v
			row.Value = v.String()
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// DecodeHex decodes a hex dump of the whole aggregate. Whitespace and a 0x
// prefix are ignored, a short dump is zero-filled up to totalSize.
func DecodeHex(hexStr string, items []core.LayoutItem, totalSize uint, e core.Endian) ([]FieldValue, error) {
	body := normalizeHex(hexStr)
	if len(body)%2 != 0 {
		return nil, core.NewError(core.KindValue).Detailf("odd number of hex digits: %d", len(body)).Build()
	}
	data, err := hex.DecodeString(body)
	if err != nil {
		return nil, core.NewError(core.KindValue).Detail("invalid hex data").Cause(err).Build()
	}
	if uint(len(data)) < totalSize {
		data = utils.ResizeBytes(data, int(totalSize), 0, utils.PaddingRight)
	}
	return DecodeLayout(data, items, e)
}

// normalizeHex drops whitespace, "_" separators and 0x prefixes.
func normalizeHex(s string) string {
	var b strings.Builder
	for _, f := range strings.Fields(s) {
		f = strings.TrimPrefix(strings.TrimPrefix(f, "0x"), "0X")
		b.WriteString(strings.ReplaceAll(f, "_", ""))
	}
	return b.String()
}
