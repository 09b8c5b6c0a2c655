package formula

import "fmt"

// parser is a recursive-descent parser over the token stream. The
// precedence ladder mirrors conditional > or > and > not > comparison
// > additive > multiplicative > unary > power > call/atom, with power
// right-associative.
type parser struct {
	tokens []token
	pos    int
}

// parse compiles an expression string into an AST.
func parse(input string) (node, error) {
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	expr, err := p.conditional()
	if err != nil {
		return nil, err
	}
	if !p.atEOF() {
		return nil, fmt.Errorf("unexpected token %q at %d", p.peek().text, p.peek().pos)
	}
	return expr, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) atEOF() bool {
	return p.peek().kind == tokEOF
}

func (p *parser) acceptOp(text string) bool {
	if t := p.peek(); t.kind == tokOp && t.text == text {
		p.pos++
		return true
	}
	return false
}

func (p *parser) acceptKeyword(text string) bool {
	if t := p.peek(); t.kind == tokKeyword && t.text == text {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expectOp(text string) error {
	if !p.acceptOp(text) {
		return fmt.Errorf("expected %q at %d, got %q", text, p.peek().pos, p.peek().text)
	}
	return nil
}

// conditional := orTest ["if" orTest "else" conditional]
func (p *parser) conditional() (node, error) {
	body, err := p.orTest()
	if err != nil {
		return nil, err
	}

	if !p.acceptKeyword("if") {
		return body, nil
	}

	test, err := p.orTest()
	if err != nil {
		return nil, err
	}
	if !p.acceptKeyword("else") {
		return nil, fmt.Errorf("conditional expression missing else at %d", p.peek().pos)
	}
	orelse, err := p.conditional()
	if err != nil {
		return nil, err
	}

	return &condExpr{test: test, body: body, orelse: orelse}, nil
}

// orTest := andTest ("or" andTest)*
func (p *parser) orTest() (node, error) {
	first, err := p.andTest()
	if err != nil {
		return nil, err
	}

	values := []node{first}
	for p.acceptKeyword("or") {
		next, err := p.andTest()
		if err != nil {
			return nil, err
		}
		values = append(values, next)
	}

	if len(values) == 1 {
		return first, nil
	}
	return &boolOp{op: "or", values: values}, nil
}

// andTest := notTest ("and" notTest)*
func (p *parser) andTest() (node, error) {
	first, err := p.notTest()
	if err != nil {
		return nil, err
	}

	values := []node{first}
	for p.acceptKeyword("and") {
		next, err := p.notTest()
		if err != nil {
			return nil, err
		}
		values = append(values, next)
	}

	if len(values) == 1 {
		return first, nil
	}
	return &boolOp{op: "and", values: values}, nil
}

// notTest := "not" notTest | comparison
func (p *parser) notTest() (node, error) {
	if p.acceptKeyword("not") {
		operand, err := p.notTest()
		if err != nil {
			return nil, err
		}
		return &unaryOp{op: "not", operand: operand}, nil
	}
	return p.comparison()
}

// comparison := additive (compOp additive)*
func (p *parser) comparison() (node, error) {
	left, err := p.additive()
	if err != nil {
		return nil, err
	}

	var ops []string
	var comparators []node
	for {
		t := p.peek()
		if t.kind != tokOp {
			break
		}
		switch t.text {
		case "==", "!=", "<", "<=", ">", ">=":
			p.pos++
			right, err := p.additive()
			if err != nil {
				return nil, err
			}
			ops = append(ops, t.text)
			comparators = append(comparators, right)
		default:
			goto done
		}
	}
done:
	if len(ops) == 0 {
		return left, nil
	}
	return &compareOp{left: left, ops: ops, comparators: comparators}, nil
}

// additive := multiplicative (("+"|"-") multiplicative)*
func (p *parser) additive() (node, error) {
	left, err := p.multiplicative()
	if err != nil {
		return nil, err
	}

	for {
		t := p.peek()
		if t.kind == tokOp && (t.text == "+" || t.text == "-") {
			p.pos++
			right, err := p.multiplicative()
			if err != nil {
				return nil, err
			}
			left = &binaryOp{op: t.text, left: left, right: right}
			continue
		}
		return left, nil
	}
}

// multiplicative := unary (("*"|"/") unary)*
func (p *parser) multiplicative() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}

	for {
		t := p.peek()
		if t.kind == tokOp && (t.text == "*" || t.text == "/") {
			p.pos++
			right, err := p.unary()
			if err != nil {
				return nil, err
			}
			left = &binaryOp{op: t.text, left: left, right: right}
			continue
		}
		return left, nil
	}
}

// unary := ("+"|"-") unary | power
func (p *parser) unary() (node, error) {
	t := p.peek()
	if t.kind == tokOp && (t.text == "+" || t.text == "-") {
		p.pos++
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &unaryOp{op: t.text, operand: operand}, nil
	}
	return p.power()
}

// power := atom ["**" unary]  (right-associative; binds tighter than
// a leading unary minus, so -2**2 is -4)
func (p *parser) power() (node, error) {
	base, err := p.atom()
	if err != nil {
		return nil, err
	}

	if p.acceptOp("**") {
		exponent, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &binaryOp{op: "**", left: base, right: exponent}, nil
	}
	return base, nil
}

// atom := number | string | ident ["(" args ")"] | "(" conditional ")"
func (p *parser) atom() (node, error) {
	t := p.peek()

	switch t.kind {
	case tokNumber:
		p.pos++
		return &numberLit{value: t.num}, nil

	case tokString:
		p.pos++
		return &stringLit{value: t.text}, nil

	case tokIdent:
		p.pos++
		if !p.acceptOp("(") {
			return &ident{name: t.text}, nil
		}
		var args []node
		if !p.acceptOp(")") {
			for {
				arg, err := p.conditional()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if p.acceptOp(",") {
					continue
				}
				if err := p.expectOp(")"); err != nil {
					return nil, err
				}
				break
			}
		}
		return &callExpr{name: t.text, args: args}, nil

	case tokOp:
		if t.text == "(" {
			p.pos++
			inner, err := p.conditional()
			if err != nil {
				return nil, err
			}
			if err := p.expectOp(")"); err != nil {
				return nil, err
			}
			return inner, nil
		}
	}

	return nil, fmt.Errorf("unexpected token %q at %d", t.text, t.pos)
}
