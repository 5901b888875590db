package parser

import (
	"strings"
	"unicode"
)

type TokenType int

const (
	EOF TokenType = iota
	Ident
	Number
	LBrace
	RBrace
	LBracket
	RBracket
	Semicolon
	Colon
	Star
	Comma
	Pragma // #pragma pack(...), Value 为括号内的参数
	String
	Other
)

func (t TokenType) String() string {
	switch t {
	case EOF:
		return "end of input"
	case Ident:
		return "identifier"
	case Number:
		return "number"
	case LBrace:
		return "'{'"
	case RBrace:
		return "'}'"
	case LBracket:
		return "'['"
	case RBracket:
		return "']'"
	case Semicolon:
		return "';'"
	case Colon:
		return "':'"
	case Star:
		return "'*'"
	case Comma:
		return "','"
	case Pragma:
		return "#pragma"
	case String:
		return "string"
	}
	return "symbol"
}

type Token struct {
	Value string
	Type  TokenType
	Line  int
	Col   int
}

var punct = map[rune]TokenType{
	'{': LBrace,
	'}': RBrace,
	'[': LBracket,
	']': RBracket,
	';': Semicolon,
	':': Colon,
	'*': Star,
	',': Comma,
}

// Tokenize splits C/C++ source into tokens. Comments and preprocessor lines are
// dropped, except #pragma pack which becomes a Pragma token. The result always
// ends with an EOF token.
func Tokenize(input string) []Token {
	var tokens []Token
	runes := []rune(input)
	line, col := 1, 1
	lineStart := true

	// advance moves i forward by n runes keeping line/col current.
	i := 0
	advance := func(n int) {
		for ; n > 0 && i < len(runes); n-- {
			if runes[i] == '\n' {
				line++
				col = 1
				lineStart = true
			} else {
				col++
			}
			i++
		}
	}
	emit := func(typ TokenType, value string, l, c int) {
		tokens = append(tokens, Token{Value: value, Type: typ, Line: l, Col: c})
		lineStart = false
	}

	for i < len(runes) {
		r := runes[i]

		if unicode.IsSpace(r) {
			advance(1)
			continue
		}

		// Line comment
		if r == '/' && i+1 < len(runes) && runes[i+1] == '/' {
			for i < len(runes) && runes[i] != '\n' {
				advance(1)
			}
			continue
		}

		// Block comment
		if r == '/' && i+1 < len(runes) && runes[i+1] == '*' {
			wasStart := lineStart
			advance(2)
			for i < len(runes) && !(runes[i] == '*' && i+1 < len(runes) && runes[i+1] == '/') {
				advance(1)
			}
			advance(2)
			if !wasStart {
				lineStart = false
			}
			continue
		}

		// Preprocessor line, honouring backslash continuations
		if r == '#' && lineStart {
			l, c := line, col
			var b strings.Builder
			for i < len(runes) && runes[i] != '\n' {
				if runes[i] == '\\' && i+1 < len(runes) && runes[i+1] == '\n' {
					advance(2)
					b.WriteByte(' ')
					continue
				}
				b.WriteRune(runes[i])
				advance(1)
			}
			if args, ok := pragmaPackArgs(b.String()); ok {
				emit(Pragma, args, l, c)
				lineStart = true
			}
			continue
		}

		l, c := line, col

		if typ, ok := punct[r]; ok {
			// C++ scope operator stays inside the identifier
			if r == ':' && i+1 < len(runes) && runes[i+1] == ':' && len(tokens) > 0 && tokens[len(tokens)-1].Type == Ident {
				last := &tokens[len(tokens)-1]
				if last.Line == line && last.Col+len([]rune(last.Value)) == col {
					advance(2)
					last.Value += "::"
					for i < len(runes) && isIdentRune(runes[i]) {
						last.Value += string(runes[i])
						advance(1)
					}
					continue
				}
			}
			advance(1)
			emit(typ, string(r), l, c)
			continue
		}

		// String or char literal
		if r == '"' || r == '\'' {
			quote := r
			start := i
			advance(1)
			for i < len(runes) && runes[i] != quote && runes[i] != '\n' {
				if runes[i] == '\\' {
					advance(1)
				}
				advance(1)
			}
			advance(1)
			emit(String, string(runes[start:min(i, len(runes))]), l, c)
			continue
		}

		if unicode.IsDigit(r) {
			start := i
			for i < len(runes) && (isIdentRune(runes[i]) || runes[i] == '.') {
				advance(1)
			}
			emit(Number, string(runes[start:i]), l, c)
			continue
		}

		if unicode.IsLetter(r) || r == '_' {
			start := i
			for i < len(runes) && isIdentRune(runes[i]) {
				advance(1)
			}
			emit(Ident, string(runes[start:i]), l, c)
			continue
		}

		advance(1)
		emit(Other, string(r), l, c)
	}

	tokens = append(tokens, Token{Type: EOF, Line: line, Col: col})
	return tokens
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// pragmaPackArgs recognizes "#pragma pack(args)" and returns the trimmed args.
func pragmaPackArgs(directive string) (string, bool) {
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(directive), "#"))
	if !strings.HasPrefix(rest, "pragma") {
		return "", false
	}
	rest = strings.TrimSpace(strings.TrimPrefix(rest, "pragma"))
	if !strings.HasPrefix(rest, "pack") {
		return "", false
	}
	rest = strings.TrimSpace(strings.TrimPrefix(rest, "pack"))
	if !strings.HasPrefix(rest, "(") {
		return "", false
	}
	end := strings.LastIndex(rest, ")")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[1:end]), true
}
