package formula

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokString
	tokIdent
	tokOp      // + - * / ** ( ) , < <= > >= == !=
	tokKeyword // and or not if else
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

var keywords = map[string]bool{
	"and": true, "or": true, "not": true, "if": true, "else": true,
}

// lex splits an expression into tokens. Unknown characters fail the
// whole expression; the caller skips the rule.
func lex(input string) ([]token, error) {
	var tokens []token
	runes := []rune(input)
	i := 0

	for i < len(runes) {
		ch := runes[i]

		switch {
		case unicode.IsSpace(ch):
			i++

		case unicode.IsDigit(ch) || (ch == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			// scientific notation
			if i < len(runes) && (runes[i] == 'e' || runes[i] == 'E') {
				j := i + 1
				if j < len(runes) && (runes[j] == '+' || runes[j] == '-') {
					j++
				}
				if j < len(runes) && unicode.IsDigit(runes[j]) {
					i = j
					for i < len(runes) && unicode.IsDigit(runes[i]) {
						i++
					}
				}
			}
			text := string(runes[start:i])
			num, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("bad number %q at %d", text, start)
			}
			tokens = append(tokens, token{kind: tokNumber, text: text, num: num, pos: start})

		case ch == '\'' || ch == '"':
			quote := ch
			start := i
			i++
			var sb strings.Builder
			for i < len(runes) && runes[i] != quote {
				sb.WriteRune(runes[i])
				i++
			}
			if i >= len(runes) {
				return nil, fmt.Errorf("unterminated string at %d", start)
			}
			i++ // closing quote
			tokens = append(tokens, token{kind: tokString, text: sb.String(), pos: start})

		case unicode.IsLetter(ch) || ch == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			text := string(runes[start:i])
			kind := tokIdent
			if keywords[text] {
				kind = tokKeyword
			}
			tokens = append(tokens, token{kind: kind, text: text, pos: start})

		default:
			start := i
			var op string
			switch ch {
			case '*':
				if i+1 < len(runes) && runes[i+1] == '*' {
					op = "**"
				} else {
					op = "*"
				}
			case '<':
				if i+1 < len(runes) && runes[i+1] == '=' {
					op = "<="
				} else {
					op = "<"
				}
			case '>':
				if i+1 < len(runes) && runes[i+1] == '=' {
					op = ">="
				} else {
					op = ">"
				}
			case '=':
				if i+1 < len(runes) && runes[i+1] == '=' {
					op = "=="
				} else {
					return nil, fmt.Errorf("assignment is not allowed at %d", start)
				}
			case '!':
				if i+1 < len(runes) && runes[i+1] == '=' {
					op = "!="
				} else {
					return nil, fmt.Errorf("unexpected character %q at %d", ch, start)
				}
			case '+', '-', '/', '(', ')', ',':
				op = string(ch)
			default:
				return nil, fmt.Errorf("unexpected character %q at %d", ch, start)
			}
			i += len(op)
			tokens = append(tokens, token{kind: tokOp, text: op, pos: start})
		}
	}

	tokens = append(tokens, token{kind: tokEOF, pos: len(runes)})
	return tokens, nil
}
