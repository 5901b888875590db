package parser

import (
	"github.com/vuuvv/structlayout/core"
	"github.com/vuuvv/structlayout/log"
	"go.uber.org/zap"
	"strconv"
	"strings"
)

// 内置类型关键字, 用于判断匿名位域 (unsigned int : 3)
var builtinKeywords = map[string]bool{
	"char":     true,
	"short":    true,
	"int":      true,
	"long":     true,
	"float":    true,
	"double":   true,
	"unsigned": true,
	"signed":   true,
	"bool":     true,
	"_Bool":    true,
}

var qualifiers = map[string]bool{
	"const":    true,
	"volatile": true,
}

type options struct {
	target string
}

type Option func(*options)

// WithTarget selects the top-level aggregate returned by Parse. Without it the
// last named top-level aggregate is the root.
func WithTarget(name string) Option {
	return func(o *options) {
		o.target = name
	}
}

// Parse returns the root aggregate of text as an AST.
func Parse(text string, opts ...Option) (core.AggregateDef, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	defs, err := ParseAll(text)
	if err != nil {
		return nil, err
	}

	if o.target != "" {
		for _, def := range defs {
			if def.Body().Name == o.target {
				return def, nil
			}
		}
		return nil, core.NewError(core.KindParse).Type(o.target).Detail("target aggregate not found").Build()
	}
	return defs[len(defs)-1], nil
}

// ParseAll returns every named top-level aggregate in source order, with
// `struct Tag name;` references resolved into deep copies.
func ParseAll(text string) ([]core.AggregateDef, error) {
	p := newParser(Tokenize(text))
	defs, err := p.parseTopLevel()
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, core.NewError(core.KindParse).Detail("no struct or union definition found").Build()
	}
	if err = p.resolveReferences(); err != nil {
		return nil, err
	}
	return defs, nil
}

type parser struct {
	tokens []Token
	pos    int

	pack      uint
	packStack []uint

	tags  map[string]core.AggregateDef // struct/union 标签
	order []core.AggregateDef
}

func newParser(tokens []Token) *parser {
	return &parser{
		tokens: tokens,
		tags:   map[string]core.AggregateDef{},
	}
}

func (p *parser) peek() *Token {
	return p.peekAt(0)
}

func (p *parser) peekAt(n int) *Token {
	if p.pos+n >= len(p.tokens) {
		return &p.tokens[len(p.tokens)-1]
	}
	return &p.tokens[p.pos+n]
}

func (p *parser) next() *Token {
	t := p.peek()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(typ TokenType) (*Token, error) {
	t := p.next()
	if t.Type != typ {
		return nil, p.errorAt(t, "expected %v, got %s", typ, describe(t))
	}
	return t, nil
}

func (p *parser) errorAt(t *Token, format string, args ...any) *core.Error {
	return core.NewError(core.KindParse).At(t.Line, t.Col).Detailf(format, args...).Build()
}

func describe(t *Token) string {
	if t.Type == EOF {
		return "end of input"
	}
	return strconv.Quote(t.Value)
}

func isAggregateKeyword(t *Token) bool {
	return t.Type == Ident && (t.Value == core.TypeStruct || t.Value == core.TypeUnion)
}

// parseTopLevel scans for struct/union bodies and skips everything else.
func (p *parser) parseTopLevel() ([]core.AggregateDef, error) {
	var defs []core.AggregateDef
	for p.peek().Type != EOF {
		t := p.peek()
		switch {
		case t.Type == Pragma:
			if err := p.applyPragma(p.next()); err != nil {
				return nil, err
			}
		case isAggregateKeyword(t) && isBodyStart(p.peekAt(1), p.peekAt(2)):
			def, err := p.parseAggregate()
			if err != nil {
				return nil, err
			}
			if def.Body().Name == "" {
				log.Named("parser").Debug("skip anonymous top-level aggregate", zap.Int("line", t.Line))
				continue
			}
			defs = append(defs, def)
		default:
			p.next()
		}
	}
	return defs, nil
}

// isBodyStart reports whether the tokens after struct/union open a body.
func isBodyStart(a, b *Token) bool {
	return a.Type == LBrace || (a.Type == Ident && b.Type == LBrace)
}

func (p *parser) applyPragma(t *Token) error {
	args := strings.Split(t.Value, ",")
	for i := range args {
		args[i] = strings.TrimSpace(args[i])
	}

	switch args[0] {
	case "":
		p.pack = 0
	case "push":
		p.packStack = append(p.packStack, p.pack)
		if len(args) > 1 {
			n, err := p.packValue(t, args[len(args)-1])
			if err != nil {
				return err
			}
			p.pack = n
		}
	case "pop":
		if n := len(p.packStack); n > 0 {
			p.pack = p.packStack[n-1]
			p.packStack = p.packStack[:n-1]
		} else {
			p.pack = 0
		}
	case "show":
	default:
		n, err := p.packValue(t, args[0])
		if err != nil {
			return err
		}
		p.pack = n
	}
	return nil
}

func (p *parser) packValue(t *Token, s string) (uint, error) {
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil || n == 0 || n&(n-1) != 0 {
		return 0, p.errorAt(t, "invalid #pragma pack value %q", s)
	}
	return uint(n), nil
}

// parseAggregate parses `struct|union [Tag] { members }` and leaves the
// position after the closing brace.
func (p *parser) parseAggregate() (core.AggregateDef, error) {
	kw := p.next()
	var name string
	if p.peek().Type == Ident {
		name = p.next().Value
	}
	if _, err := p.expect(LBrace); err != nil {
		return nil, err
	}

	def := core.NewAggregate(core.AggregateKind(kw.Value), name)
	body := def.Body()
	body.Pack = p.pack

	for {
		t := p.peek()
		switch t.Type {
		case RBrace:
			p.next()
			if name != "" {
				p.tags[name] = def
			}
			p.order = append(p.order, def)
			return def, nil
		case EOF:
			return nil, p.errorAt(t, "unterminated %s %s", kw.Value, name)
		case Pragma:
			if err := p.applyPragma(p.next()); err != nil {
				return nil, err
			}
		case Semicolon:
			p.next()
		default:
			members, err := p.parseMember()
			if err != nil {
				return nil, err
			}
			body.Members = append(body.Members, members...)
		}
	}
}

// parseMember parses one declaration up to and including ';'. A declaration
// with several declarators (`int a, *b;`) yields one member each.
func (p *parser) parseMember() ([]core.MemberDef, error) {
	if isAggregateKeyword(p.peek()) {
		return p.parseAggregateMember()
	}

	start := p.peek()
	var words []string
	for p.peek().Type == Ident {
		t := p.next()
		if !qualifiers[t.Value] {
			words = append(words, t.Value)
		}
	}
	if len(words) == 0 {
		return nil, p.errorAt(start, "expected member type, got %s", describe(start))
	}

	var first core.MemberDef
	var base string
	last := words[len(words)-1]
	switch p.peek().Type {
	case Star:
		base = strings.Join(words, " ")
		if err := p.parsePointerName(&first); err != nil {
			return nil, err
		}
	case Colon:
		// 只有类型或者最后一个单词是内置关键字时为匿名位域
		if len(words) == 1 || builtinKeywords[last] {
			base = strings.Join(words, " ")
		} else {
			base = strings.Join(words[:len(words)-1], " ")
			first.Name = last
		}
		first.Type = base
	default:
		if builtinKeywords[last] {
			return nil, p.errorAt(p.peek(), "expected member name after %q", strings.Join(words, " "))
		}
		if len(words) == 1 {
			return nil, p.errorAt(start, "member %q has no type", last)
		}
		base = strings.Join(words[:len(words)-1], " ")
		first.Type = base
		first.Name = last
	}

	return p.parseDeclarators(first, func() (core.MemberDef, error) {
		m := core.MemberDef{Type: base}
		if p.peek().Type == Star {
			if err := p.parsePointerName(&m); err != nil {
				return m, err
			}
			return m, nil
		}
		t, err := p.expect(Ident)
		if err != nil {
			return m, err
		}
		m.Name = t.Value
		return m, nil
	})
}

// parsePointerName consumes `* [const] name` and marks m as a pointer.
func (p *parser) parsePointerName(m *core.MemberDef) error {
	for p.peek().Type == Star || (p.peek().Type == Ident && qualifiers[p.peek().Value]) {
		p.next()
	}
	t, err := p.expect(Ident)
	if err != nil {
		return err
	}
	m.Type = core.TypePointer
	m.Name = t.Value
	return nil
}

// parseDeclarators finishes the first declarator (dims, bit width) and any
// further comma separated ones, then consumes ';'.
func (p *parser) parseDeclarators(first core.MemberDef, nextDecl func() (core.MemberDef, error)) ([]core.MemberDef, error) {
	var members []core.MemberDef
	m := first
	for {
		if err := p.parseSuffix(&m); err != nil {
			return nil, err
		}
		members = append(members, m)

		t := p.next()
		switch t.Type {
		case Semicolon:
			return members, nil
		case Comma:
			var err error
			if m, err = nextDecl(); err != nil {
				return nil, err
			}
		default:
			return nil, p.errorAt(t, "expected ';' after member %s, got %s", m.Name, describe(t))
		}
	}
}

// parseSuffix reads `[d1][d2]...` and `: N` after a declarator name.
func (p *parser) parseSuffix(m *core.MemberDef) error {
	for p.peek().Type == LBracket {
		open := p.next()
		t := p.next()
		if t.Type != Number {
			if t.Type == RBracket {
				return p.errorAt(open, "array %s needs an explicit dimension", m.Name)
			}
			return p.errorAt(t, "array dimension must be an integer literal, got %s", describe(t))
		}
		n, err := parseNumber(t.Value)
		if err != nil {
			return p.errorAt(t, "invalid array dimension %q", t.Value)
		}
		m.ArrayDims = append(m.ArrayDims, n)
		if _, err = p.expect(RBracket); err != nil {
			return err
		}
	}

	if p.peek().Type != Colon {
		return nil
	}
	colon := p.next()
	switch {
	case m.IsArray():
		return p.errorAt(colon, "bitfield %s cannot be an array", m.Name)
	case m.Type == core.TypePointer:
		return p.errorAt(colon, "bitfield %s cannot be a pointer", m.Name)
	case m.Nested != nil || isAggregateType(m.Type):
		return p.errorAt(colon, "bitfield %s cannot be an aggregate", m.Name)
	}
	t, err := p.expect(Number)
	if err != nil {
		return err
	}
	bits, err := parseNumber(t.Value)
	if err != nil {
		return p.errorAt(t, "invalid bit width %q", t.Value)
	}
	m.IsBitfield = true
	m.BitSize = bits
	return nil
}

// parseAggregateMember handles inline bodies, `struct Tag name;` references
// and aggregate pointers.
func (p *parser) parseAggregateMember() ([]core.MemberDef, error) {
	kw := p.peek()
	if isBodyStart(p.peekAt(1), p.peekAt(2)) {
		nested, err := p.parseAggregate()
		if err != nil {
			return nil, err
		}
		m := core.MemberDef{Type: kw.Value, Nested: nested}

		switch p.peek().Type {
		case Semicolon:
			p.next()
			if tag := nested.Body().Name; tag != "" {
				// 带标签且无声明符: 只声明标签, 不产生成员
				log.Named("parser").Debug("tag declaration inside aggregate", zap.String("tag", tag))
				return nil, nil
			}
			// 匿名成员, 字段展开到父级
			return []core.MemberDef{m}, nil
		case Star:
			m.Nested = nil
			if err = p.parsePointerName(&m); err != nil {
				return nil, err
			}
		default:
			t, err := p.expect(Ident)
			if err != nil {
				return nil, err
			}
			m.Name = t.Value
		}
		return p.parseDeclarators(m, p.aggregateDeclarator(kw.Value, nested, nested.Body().Name))
	}

	p.next()
	tag, err := p.expect(Ident)
	if err != nil {
		return nil, err
	}
	typeName := kw.Value + " " + tag.Value
	m := core.MemberDef{Type: typeName}
	if p.peek().Type == Star {
		if err = p.parsePointerName(&m); err != nil {
			return nil, err
		}
	} else {
		t, err := p.expect(Ident)
		if err != nil {
			return nil, err
		}
		m.Name = t.Value
	}
	return p.parseDeclarators(m, p.aggregateDeclarator(kw.Value, nil, tag.Value))
}

// aggregateDeclarator reads the 2nd+ declarators of an aggregate member. Each
// gets its own copy of an inline body.
func (p *parser) aggregateDeclarator(kw string, nested core.AggregateDef, tag string) func() (core.MemberDef, error) {
	return func() (core.MemberDef, error) {
		m := core.MemberDef{Type: kw}
		if nested != nil {
			m.Nested = core.CloneAggregate(nested)
		} else {
			m.Type = kw + " " + tag
		}
		if p.peek().Type == Star {
			m.Nested = nil
			err := p.parsePointerName(&m)
			return m, err
		}
		t, err := p.expect(Ident)
		if err != nil {
			return m, err
		}
		m.Name = t.Value
		return m, nil
	}
}

func isAggregateType(typ string) bool {
	kw, _, _ := strings.Cut(typ, " ")
	return kw == core.TypeStruct || kw == core.TypeUnion
}

func parseNumber(s string) (uint, error) {
	s = strings.TrimRight(s, "uUlL")
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, err
	}
	return uint(n), nil
}

const (
	unvisited = iota
	visiting
	resolved
)

// resolveReferences replaces every `struct Tag` member whose tag is defined
// in the text by a deep copy of that definition.
func (p *parser) resolveReferences() error {
	state := map[core.AggregateDef]int{}
	for _, def := range p.order {
		if err := p.resolve(def, state); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) resolve(def core.AggregateDef, state map[core.AggregateDef]int) error {
	switch state[def] {
	case resolved:
		return nil
	case visiting:
		return core.NewError(core.KindParse).Type(def.Body().Name).Detail("aggregate contains itself by value").Build()
	}
	state[def] = visiting

	members := def.Body().Members
	for i := range members {
		m := &members[i]
		if m.Nested != nil {
			if err := p.resolve(m.Nested, state); err != nil {
				return err
			}
			continue
		}
		if !isAggregateType(m.Type) {
			continue
		}
		_, tag, _ := strings.Cut(m.Type, " ")
		target, found := p.tags[tag]
		if !found {
			continue
		}
		if err := p.resolve(target, state); err != nil {
			return core.NewError(core.KindParse).Member(m.Name).Type(m.Type).Cause(err).Detail("cannot embed aggregate").Build()
		}
		m.Type = string(target.Kind())
		m.Nested = core.CloneAggregate(target)
	}

	state[def] = resolved
	return nil
}
