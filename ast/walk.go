package ast

// Visitor defines the interface for AST traversal. If Visit returns nil,
// children of the node are not visited. Otherwise, the returned Visitor
// is used to visit children.
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk traverses an AST in depth-first order. It starts by calling
// v.Visit(node); if the returned visitor w is not nil, Walk is invoked
// recursively with visitor w for each of the non-nil children of node.
func Walk(v Visitor, node Node) {
	if v = v.Visit(node); v == nil {
		return
	}

	switch n := node.(type) {
	case *Program:
		for _, stmt := range n.Stmts {
			Walk(v, stmt)
		}

	// Statements
	case *Block:
		for _, stmt := range n.Stmts {
			Walk(v, stmt)
		}
	case *Let:
		Walk(v, n.Name)
		if n.Value != nil {
			Walk(v, n.Value)
		}
	case *Set:
		Walk(v, n.Name)
		Walk(v, n.Value)
	case *Disown:
		Walk(v, n.Name)
	case *FuncDecl:
		Walk(v, n.Name)
		for _, clause := range n.Clauses {
			for _, p := range clause.Params {
				Walk(v, p.Pattern)
			}
			Walk(v, clause.Body)
		}
	case *Return:
		if n.Value != nil {
			Walk(v, n.Value)
		}
	case *While:
		Walk(v, n.Cond)
		Walk(v, n.Body)
	case *ForIn:
		Walk(v, n.Name)
		Walk(v, n.Iterable)
		Walk(v, n.Body)
	case *Loop:
		Walk(v, n.Body)
	case *Scope:
		Walk(v, n.Body)
	case *If:
		Walk(v, n.Cond)
		Walk(v, n.Consequence)
		if n.Alternative != nil {
			Walk(v, n.Alternative)
		}
	case *ElseBlock:
		Walk(v, n.Body)
	case *ExprStmt:
		Walk(v, n.X)

	// Expressions
	case *Prefix:
		Walk(v, n.X)
	case *Infix:
		Walk(v, n.X)
		Walk(v, n.Y)
	case *Call:
		Walk(v, n.Fn)
		for _, arg := range n.Args {
			Walk(v, arg)
		}
	case *Index:
		Walk(v, n.X)
		Walk(v, n.Idx)
	case *Field:
		Walk(v, n.X)
	case *Closure:
		for _, p := range n.Params {
			Walk(v, p.Pattern)
		}
		Walk(v, n.Body)
	case *Cond:
		Walk(v, n.Scrutinee)
		for _, arm := range n.Arms {
			Walk(v, arm.Pattern)
			Walk(v, arm.Body)
		}
	case *Borrow:
		Walk(v, n.Name)
	case *Array:
		for _, e := range n.Elems {
			Walk(v, e)
		}
	case *Record:
		for _, f := range n.Fields {
			Walk(v, f.Value)
		}

	// Patterns
	case *PatternLiteral:
		Walk(v, n.X)
	case *PatternRecord:
		for _, f := range n.Fields {
			if f.Value != nil {
				Walk(v, f.Value)
			}
		}
	}
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses an AST in depth-first order, calling f for each node.
// If f returns false, children of the node are not visited.
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}
