package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies every error returned by the parser, registry, layout and codec.
type Kind string

const (
	KindParse           Kind = "parse"            // no aggregate found / malformed member
	KindUnknownType     Kind = "unknown_type"     // type or alias not resolvable
	KindInvalidArgument Kind = "invalid_argument" // bad byte size, endianness, bit width
	KindOverflow        Kind = "overflow"         // value too large for the target width
	KindValue           Kind = "value"            // malformed hex input
	KindRange           Kind = "range"            // buffer shorter than the item
)

var (
	ErrParse           = &Error{Kind: KindParse}
	ErrUnknownType     = &Error{Kind: KindUnknownType}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrOverflow        = &Error{Kind: KindOverflow}
	ErrValue           = &Error{Kind: KindValue}
	ErrRange           = &Error{Kind: KindRange}
)

// Error carries the error classification plus the minimal positional detail
// (member name, source line/column, token indexes) a presenter needs.
type Error struct {
	Kind   Kind
	Member string
	Type   string
	Line   int
	Col    int
	Tokens []int // 1-based token indexes, flexible hex input only
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))

	if e.Line > 0 {
		fmt.Fprintf(&b, " at %d:%d", e.Line, e.Col)
	}
	if e.Member != "" {
		b.WriteString(" member ")
		b.WriteString(e.Member)
	}
	if e.Type != "" {
		b.WriteString(" type ")
		b.WriteString(strconv.Quote(e.Type))
	}
	if len(e.Tokens) > 0 {
		b.WriteString(" tokens")
		for i, t := range e.Tokens {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(" #")
			b.WriteString(strconv.Itoa(t))
		}
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on Kind only, so the Err* sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Builder provides structured error construction.
type Builder struct {
	err Error
}

func NewError(kind Kind) *Builder {
	return &Builder{err: Error{Kind: kind}}
}

func (b *Builder) Member(name string) *Builder {
	b.err.Member = name
	return b
}

func (b *Builder) Type(name string) *Builder {
	b.err.Type = name
	return b
}

func (b *Builder) At(line, col int) *Builder {
	b.err.Line = line
	b.err.Col = col
	return b
}

func (b *Builder) Tokens(idx ...int) *Builder {
	b.err.Tokens = append(b.err.Tokens, idx...)
	return b
}

func (b *Builder) Detail(msg string) *Builder {
	b.err.Detail = msg
	return b
}

func (b *Builder) Detailf(format string, args ...any) *Builder {
	b.err.Detail = fmt.Sprintf(format, args...)
	return b
}

func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

func (b *Builder) Build() *Error {
	e := b.err
	return &e
}
