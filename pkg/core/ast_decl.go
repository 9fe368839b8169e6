package core

// ---------- Declarations ----------

// IncludeKind distinguishes the four dependency directives.
type IncludeKind int

// IncludeKind constants.
const (
	IncludeHeader  IncludeKind = iota // include: native header, emitted in the header
	IncludeContain                    // contain: native header, emitted in the source only
	IncludeImport                     // import: another tasty module, emitted in the header
	IncludeDerive                     // derive: another tasty module, emitted in the source only
)

func (k IncludeKind) String() string {
	switch k {
	case IncludeHeader:
		return "include"
	case IncludeContain:
		return "contain"
	case IncludeImport:
		return "import"
	case IncludeDerive:
		return "derive"
	}
	return "unknown"
}

// IsModule reports whether the directive names a tasty module.
func (k IncludeKind) IsModule() bool {
	return k == IncludeImport || k == IncludeDerive
}

// InSource reports whether the directive belongs to the source file only.
func (k IncludeKind) InSource() bool {
	return k == IncludeContain || k == IncludeDerive
}

// IncludeDecl is an include, contain, import or derive directive.
type IncludeDecl struct {
	DeclInfo
	Kind  IncludeKind
	Path  string
	Local bool
}

// AssumeDecl declares a trusted external entity: assume Qt is namespace;
type AssumeDecl struct {
	DeclInfo
	Name string
	Kind string // namespace, class, variable or function
}

// InjectDecl carries verbatim target-language text.
type InjectDecl struct {
	DeclInfo
	Text string
}

// NamespaceDecl groups declarations under a namespace.
type NamespaceDecl struct {
	DeclInfo
	Name  string
	Decls []Decl
}

// ClassDecl is a class declaration.
type ClassDecl struct {
	DeclInfo
	Name    string
	Bases   []*TypeExpr
	Members []Decl // *VarDecl, *FuncDecl, *InjectDecl in source order
}

// AbstractDecl binds a local name to an external type and lists the members
// it forwards. Members with a body become static extension functions.
type AbstractDecl struct {
	DeclInfo
	Name    string
	Target  *TypeExpr
	Members []*FuncDecl
}

// RefurbishDecl adds extension functions to an existing type.
type RefurbishDecl struct {
	DeclInfo
	Target  *TypeExpr
	Members []*FuncDecl
}

// EnumDecl is an enumeration.
type EnumDecl struct {
	DeclInfo
	Name    string
	Members []*EnumMember
}

// EnumMember is one enumerator.
type EnumMember struct {
	NodeInfo
	Name  string
	Value Expr
}

// AttributeDecl defines a named attribute.
type AttributeDecl struct {
	DeclInfo
	Name       string
	Params     []string
	Directives []*AttributeApp
}

// AttributeApp is @Name(args). Args hold the literal source text of each
// argument.
type AttributeApp struct {
	NodeInfo
	Name string
	Args []string
}

// FuncKind classifies functions.
type FuncKind int

// FuncKind constants.
const (
	FuncPlain FuncKind = iota
	FuncConstructor
	FuncDestructor
	FuncOperator
)

// FuncDecl is a function or method declaration. Body is nil for a prototype.
type FuncDecl struct {
	DeclInfo
	Name        string
	Kind        FuncKind
	Operator    string // operator symbol when Kind is FuncOperator
	Params      []*Param
	Result      *TypeExpr
	InferReturn bool
	ConstMethod bool
	Body        *BlockStmt
}

// Param is a function parameter.
type Param struct {
	NodeInfo
	Name    string
	Storage Storage
	Type    *TypeExpr
	Default Expr
}

// VarDecl is a variable, field or global declaration.
type VarDecl struct {
	DeclInfo
	Name    string
	Storage Storage
	Type    *TypeExpr // nil when inferred
	Value   Expr
}

func (*IncludeDecl) declNode()   {}
func (*AssumeDecl) declNode()    {}
func (*InjectDecl) declNode()    {}
func (*NamespaceDecl) declNode() {}
func (*ClassDecl) declNode()     {}
func (*AbstractDecl) declNode()  {}
func (*RefurbishDecl) declNode() {}
func (*EnumDecl) declNode()      {}
func (*AttributeDecl) declNode() {}
func (*FuncDecl) declNode()      {}
func (*VarDecl) declNode()       {}

// DeclName returns the declared name, or "" for unnamed declarations.
func DeclName(d Decl) string {
	switch d := d.(type) {
	case *NamespaceDecl:
		return d.Name
	case *ClassDecl:
		return d.Name
	case *AbstractDecl:
		return d.Name
	case *EnumDecl:
		return d.Name
	case *AttributeDecl:
		return d.Name
	case *FuncDecl:
		return d.Name
	case *VarDecl:
		return d.Name
	case *AssumeDecl:
		return d.Name
	}
	return ""
}
