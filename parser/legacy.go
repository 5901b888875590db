package parser

import (
	"github.com/vuuvv/structlayout/core"
	"github.com/vuuvv/structlayout/log"
	"github.com/vuuvv/structlayout/registry"
	"go.uber.org/zap"
)

// LegacyDefinition is the flat result of ParseLegacy.
type LegacyDefinition struct {
	Kind    core.AggregateKind `json:"kind"`
	Name    string             `json:"name"`
	Pack    uint               `json:"pack,omitempty"`
	Members []core.FlatMember  `json:"members"`
}

// ParseLegacy reads the first named top-level aggregate as a flat member list.
//
// It never fails on a member: declarations that do not parse, nested
// aggregates and types unknown to reg are dropped, only logged at debug level.
// Pointers become "pointer" and aliases are normalized.
func ParseLegacy(text string, reg *registry.Registry) (*LegacyDefinition, error) {
	p := newParser(Tokenize(text))

	for p.peek().Type != EOF {
		t := p.peek()
		if t.Type == Pragma {
			if err := p.applyPragma(p.next()); err != nil {
				log.Named("parser").Debug("ignore pragma", zap.Error(err))
			}
			continue
		}
		if isAggregateKeyword(t) && p.peekAt(1).Type == Ident && p.peekAt(2).Type == LBrace {
			def := &LegacyDefinition{
				Kind: core.AggregateKind(t.Value),
				Name: p.peekAt(1).Value,
				Pack: p.pack,
			}
			p.pos += 3
			def.Members = p.legacyBody(reg)
			return def, nil
		}
		p.next()
	}
	return nil, core.NewError(core.KindParse).Detail("no named struct or union definition found").Build()
}

// legacyBody walks statements up to the matching '}' (or EOF).
func (p *parser) legacyBody(reg *registry.Registry) []core.FlatMember {
	var members []core.FlatMember
	for {
		t := p.peek()
		switch t.Type {
		case EOF, RBrace:
			p.next()
			return members
		case Semicolon, Pragma:
			p.next()
			continue
		}

		stmt := p.statement()
		if isAggregateKeyword(&stmt[0]) && containsType(stmt, LBrace) {
			log.Named("parser").Debug("legacy parser drops nested aggregate", zap.Int("line", t.Line))
			continue
		}

		sub := newParser(append(stmt, Token{Type: EOF, Line: t.Line, Col: t.Col}))
		parsed, err := sub.parseMember()
		if err != nil {
			log.Named("parser").Debug("legacy parser skips declaration", zap.Int("line", t.Line), zap.Error(err))
			continue
		}
		for _, m := range parsed {
			if fm, ok := flatten(m, reg); ok {
				members = append(members, fm)
			}
		}
	}
}

// statement consumes tokens up to and including the ';' that ends the current
// declaration, skipping over balanced braces.
func (p *parser) statement() []Token {
	var out []Token
	depth := 0
	for {
		t := p.peek()
		switch t.Type {
		case EOF:
			return out
		case RBrace:
			if depth == 0 {
				return out
			}
			depth--
		case LBrace:
			depth++
		}
		out = append(out, *p.next())
		if t.Type == Semicolon && depth == 0 {
			return out
		}
	}
}

func containsType(tokens []Token, typ TokenType) bool {
	for _, t := range tokens {
		if t.Type == typ {
			return true
		}
	}
	return false
}

func flatten(m core.MemberDef, reg *registry.Registry) (core.FlatMember, bool) {
	if m.Nested != nil {
		log.Named("parser").Debug("legacy parser drops aggregate member", zap.String("member", m.Name))
		return core.FlatMember{}, false
	}
	typ := m.Type
	if typ != core.TypePointer {
		typ = reg.Normalize(typ)
		if !reg.Known(typ) {
			log.Named("parser").Debug("legacy parser drops member of unknown type", zap.String("member", m.Name), zap.String("type", m.Type))
			return core.FlatMember{}, false
		}
	}
	fm := core.FlatMember{
		Type:       typ,
		Name:       m.Name,
		IsBitfield: m.IsBitfield,
		BitSize:    m.BitSize,
	}
	if m.IsArray() {
		fm.ArrayDims = append([]uint(nil), m.ArrayDims...)
	}
	return fm, true
}
