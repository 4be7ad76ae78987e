package penman

import "fmt"

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLParen
	tokRParen
	tokSlash
	tokRole
	tokString
	tokSymbol
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokSlash:
		return "'/'"
	case tokRole:
		return "role"
	case tokString:
		return "string"
	case tokSymbol:
		return "symbol"
	default:
		return fmt.Sprintf("token(%d)", int(k))
	}
}

type token struct {
	kind tokenKind
	text string
	pos  int
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

// isDelim reports whether c ends a symbol, role or alignment.
func isDelim(c byte) bool {
	return isSpace(c) || c == '(' || c == ')' || c == '/' || c == ':' || c == '~' || c == '"'
}

// lex turns a block into tokens. Alignment markers are consumed and dropped.
func lex(s string) ([]token, error) {
	toks := make([]token, 0, len(s)/3)
	n := len(s)
	for i := 0; i < n; {
		c := s[i]
		switch {
		case isSpace(c):
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case c == '/':
			toks = append(toks, token{kind: tokSlash, text: "/", pos: i})
			i++
		case c == ':':
			start := i
			i++
			for i < n && !isDelim(s[i]) {
				i++
			}
			if i == start+1 {
				return nil, &DecodeError{Pos: start, Msg: "empty role name"}
			}
			toks = append(toks, token{kind: tokRole, text: s[start:i], pos: start})
		case c == '"':
			start := i
			i++
			closed := false
			for i < n {
				if s[i] == '\\' {
					i += 2
					continue
				}
				if s[i] == '"' {
					closed = true
					i++
					break
				}
				i++
			}
			if !closed {
				return nil, &DecodeError{Pos: start, Msg: "unterminated string"}
			}
			toks = append(toks, token{kind: tokString, text: s[start:i], pos: start})
		case c == '~':
			i++
			for i < n && !isDelim(s[i]) {
				i++
			}
		default:
			start := i
			for i < n && !isDelim(s[i]) {
				i++
			}
			toks = append(toks, token{kind: tokSymbol, text: s[start:i], pos: start})
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: n})
	return toks, nil
}
