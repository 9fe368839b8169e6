package core

// Inspect traverses the tree rooted at n in source order, calling f for each
// node. If f returns false the node's children are skipped. Type
// expressions are visited as *TypeExpr nodes.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch n := n.(type) {
	case *File:
		for _, d := range n.Decls {
			Inspect(d, f)
		}

	// declarations
	case *NamespaceDecl:
		for _, d := range n.Decls {
			Inspect(d, f)
		}
	case *ClassDecl:
		for _, b := range n.Bases {
			Inspect(b, f)
		}
		for _, m := range n.Members {
			Inspect(m, f)
		}
	case *AbstractDecl:
		inspectType(n.Target, f)
		for _, m := range n.Members {
			Inspect(m, f)
		}
	case *RefurbishDecl:
		inspectType(n.Target, f)
		for _, m := range n.Members {
			Inspect(m, f)
		}
	case *EnumDecl:
		for _, m := range n.Members {
			inspectExpr(m.Value, f)
		}
	case *FuncDecl:
		for _, p := range n.Params {
			inspectType(p.Type, f)
			inspectExpr(p.Default, f)
		}
		inspectType(n.Result, f)
		if n.Body != nil {
			Inspect(n.Body, f)
		}
	case *VarDecl:
		inspectType(n.Type, f)
		inspectExpr(n.Value, f)
	case *TypeExpr:
		for _, a := range n.Args {
			Inspect(a, f)
		}
		for _, e := range n.Tuple {
			Inspect(e, f)
		}
		for _, p := range n.Params {
			Inspect(p, f)
		}
		inspectType(n.Result, f)

	// statements
	case *BlockStmt:
		for _, s := range n.Stmts {
			Inspect(s, f)
		}
	case *ExprStmt:
		inspectExpr(n.X, f)
	case *DeclStmt:
		Inspect(n.Decl, f)
	case *IfStmt:
		inspectExpr(n.Cond, f)
		Inspect(n.Then, f)
		if n.Else != nil {
			Inspect(n.Else, f)
		}
	case *WhileStmt:
		inspectExpr(n.Cond, f)
		Inspect(n.Body, f)
	case *RangeLoopStmt:
		inspectExpr(n.From, f)
		inspectExpr(n.To, f)
		inspectExpr(n.Step, f)
		Inspect(n.Body, f)
	case *ForInStmt:
		inspectExpr(n.Iter, f)
		Inspect(n.Body, f)
	case *ReturnStmt:
		inspectExpr(n.Value, f)

	// expressions
	case *BinaryExpr:
		inspectExpr(n.Left, f)
		inspectExpr(n.Right, f)
	case *UnaryExpr:
		inspectExpr(n.X, f)
	case *CallExpr:
		inspectExpr(n.Fn, f)
		for _, a := range n.Args {
			inspectExpr(a, f)
		}
	case *MemberExpr:
		inspectExpr(n.X, f)
	case *IndexExpr:
		inspectExpr(n.X, f)
		inspectExpr(n.Index, f)
	case *NewExpr:
		inspectType(n.Type, f)
		for _, a := range n.Args {
			inspectExpr(a, f)
		}
	case *DeleteExpr:
		inspectExpr(n.X, f)
	case *CastExpr:
		inspectExpr(n.X, f)
		inspectType(n.Type, f)
	case *TupleLit:
		for _, e := range n.Elems {
			inspectExpr(e, f)
		}
	case *TupleIndexExpr:
		inspectExpr(n.X, f)
	case *RangeExpr:
		inspectExpr(n.From, f)
		inspectExpr(n.To, f)
	case *TernaryExpr:
		inspectExpr(n.Cond, f)
		inspectExpr(n.Then, f)
		inspectExpr(n.Else, f)
	case *ParenExpr:
		inspectExpr(n.X, f)
	}
}

// inspectExpr and inspectType skip typed nils, which Inspect cannot detect
// through the Node interface.
func inspectExpr(e Expr, f func(Node) bool) {
	if e != nil {
		Inspect(e, f)
	}
}

func inspectType(t *TypeExpr, f func(Node) bool) {
	if t != nil {
		Inspect(t, f)
	}
}
