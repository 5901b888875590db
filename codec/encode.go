package codec

import (
	"github.com/vuuvv/structlayout/core"
	"github.com/vuuvv/structlayout/utils"
	"math/big"
	"strings"
)

// EncodeField serializes a hex number into exactly byteSize bytes. An empty
// input means 0. A 0x prefix and "_" separators are accepted.
func EncodeField(hexInput string, byteSize int, e core.Endian) ([]byte, error) {
	if byteSize <= 0 {
		return nil, core.NewError(core.KindInvalidArgument).Detailf("byte size must be positive, got %d", byteSize).Build()
	}
	order, err := byteOrder(e)
	if err != nil {
		return nil, err
	}

	body := strings.TrimSpace(hexInput)
	negative := strings.HasPrefix(body, "-")
	body = normalizeHex(strings.TrimPrefix(body, "-"))
	if body == "" {
		if negative {
			return nil, core.NewError(core.KindValue).Detailf("invalid hex value %q", hexInput).Build()
		}
		return make([]byte, byteSize), nil
	}

	n, ok := new(big.Int).SetString(body, 16)
	if !ok {
		return nil, core.NewError(core.KindValue).Detailf("invalid hex value %q", hexInput).Build()
	}
	if negative && n.Sign() != 0 {
		return nil, core.NewError(core.KindOverflow).Detailf("negative value %s does not fit %d unsigned bytes", hexInput, byteSize).Build()
	}
	if n.BitLen() > byteSize*8 {
		return nil, core.NewError(core.KindOverflow).Detailf("value 0x%s too large for %d bytes", n.Text(16), byteSize).Build()
	}

	if byteSize <= 8 {
		return utils.UintToBytes(n.Uint64(), byteSize, order), nil
	}
	out := n.FillBytes(make([]byte, byteSize))
	if e == core.Little {
		out = utils.Reverse(out)
	}
	return out, nil
}
