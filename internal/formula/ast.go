package formula

// Expression AST. The grammar is deliberately tiny: arithmetic,
// comparisons (chained), boolean operators with short-circuit,
// conditional expressions and calls into the function registry.
// There is no assignment, no attribute access and no indexing.

type node interface {
	eval(env *env) (any, error)
}

type numberLit struct {
	value float64
}

type stringLit struct {
	value string
}

type ident struct {
	name string
}

type binaryOp struct {
	op    string // + - * / **
	left  node
	right node
}

type unaryOp struct {
	op      string // + - not
	operand node
}

type boolOp struct {
	op     string // and or
	values []node
}

type compareOp struct {
	left        node
	ops         []string // == != < <= > >=
	comparators []node
}

type condExpr struct {
	test   node
	body   node
	orelse node
}

type callExpr struct {
	name string
	args []node
}
