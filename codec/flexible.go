package codec

import (
	"fmt"
	"github.com/vuuvv/structlayout/core"
	"github.com/vuuvv/structlayout/utils"
	"math/big"
	"regexp"
	"strings"
)

var (
	flexTokenRegex = regexp.MustCompile(`^0[xX][0-9A-Fa-f_]+$`)
	flexSplitRegex = regexp.MustCompile(`[,\s]+`)
)

// ByteSpan records where an assembled byte came from. Padded bytes have no token.
type ByteSpan struct {
	TokenIndex int  `json:"tokenIndex"` // 0 起始
	Offset     int  `json:"offset"`     // 在 token 小端展开后的字节序号
	Padded     bool `json:"padded,omitempty"`
}

// TruncatedByte is a byte dropped because the input was longer than the target.
type TruncatedByte struct {
	GlobalIndex int `json:"globalIndex"`
	TokenIndex  int `json:"tokenIndex"`
	Offset      int `json:"offset"`
}

// PaddingRange is the inclusive index range of zero bytes appended at the tail.
type PaddingRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type Assembly struct {
	Data      []byte          `json:"data"`
	Warnings  []string        `json:"warnings"`
	Spans     []ByteSpan      `json:"spans"`
	Truncated []TruncatedByte `json:"truncated,omitempty"`
	Padding   *PaddingRange   `json:"padding,omitempty"`
}

// TokenizeFlexible splits on any run of commas and whitespace.
func TokenizeFlexible(input string) []string {
	var out []string
	for _, p := range flexSplitRegex.Split(input, -1) {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// tokenBytes expands one token to its minimal little-endian byte sequence,
// e.g. 0xABC -> BC 0A.
func tokenBytes(token string) ([]byte, bool) {
	if !flexTokenRegex.MatchString(token) {
		return nil, false
	}
	body := strings.ReplaceAll(token[2:], "_", "")
	if body == "" {
		return nil, false
	}
	if len(body)%2 != 0 {
		body = "0" + body
	}
	n, ok := new(big.Int).SetString(body, 16)
	if !ok {
		return nil, false
	}
	return utils.Reverse(n.FillBytes(make([]byte, len(body)/2))), true
}

// AssembleFlexible concatenates 0x tokens into one buffer. With targetLen >= 0
// the buffer is zero-padded or truncated at the tail to that length. Every
// invalid token is reported in a single error by its 1-based index.
func AssembleFlexible(input string, targetLen int) (*Assembly, error) {
	tokens := TokenizeFlexible(input)

	expanded := make([][]byte, len(tokens))
	var bad []int
	var badText []string
	for i, tok := range tokens {
		b, ok := tokenBytes(tok)
		if !ok {
			bad = append(bad, i+1)
			badText = append(badText, fmt.Sprintf("token #%d: '%s'", i+1, tok))
			continue
		}
		expanded[i] = b
	}
	if len(bad) > 0 {
		return nil, core.NewError(core.KindValue).
			Tokens(bad...).
			Detail("invalid tokens: " + strings.Join(badText, "; ")).
			Build()
	}

	a := &Assembly{Warnings: []string{}, Data: []byte{}, Spans: []ByteSpan{}}
	for ti, b := range expanded {
		for bi, v := range b {
			a.Data = append(a.Data, v)
			a.Spans = append(a.Spans, ByteSpan{TokenIndex: ti, Offset: bi})
		}
	}

	if targetLen < 0 {
		return a, nil
	}

	cur := len(a.Data)
	switch {
	case cur < targetLen:
		a.Data = utils.ResizeBytes(a.Data, targetLen, 0, utils.PaddingRight)
		for i := cur; i < targetLen; i++ {
			a.Spans = append(a.Spans, ByteSpan{TokenIndex: -1, Offset: -1, Padded: true})
		}
		a.Padding = &PaddingRange{From: cur, To: targetLen - 1}
		a.Warnings = append(a.Warnings, fmt.Sprintf("padded %d bytes with 0x00 from index %d to %d", targetLen-cur, cur, targetLen-1))
	case cur > targetLen:
		for gi := targetLen; gi < cur; gi++ {
			a.Truncated = append(a.Truncated, TruncatedByte{
				GlobalIndex: gi,
				TokenIndex:  a.Spans[gi].TokenIndex,
				Offset:      a.Spans[gi].Offset,
			})
		}
		a.Data = utils.ResizeBytes(a.Data, targetLen, 0, utils.PaddingRight)
		a.Spans = a.Spans[:targetLen]
		a.Warnings = append(a.Warnings, fmt.Sprintf("truncated %d bytes from tail (indices %d..%d)", cur-targetLen, targetLen, cur-1))
	}
	return a, nil
}
