package ir

// Node is the base interface for all IR nodes
type Node interface {
	irNode()
}

// Expr represents an expression
type Expr interface {
	Node
	irExpr()
}

// Stmt represents a statement
type Stmt interface {
	Node
	irStmt()
}

// Decl is a top-level declaration
type Decl interface {
	Node
	irDecl()
}

// Script represents a generated Squirrel source file
type Script struct {
	Header []string // comment lines, written without the "// " prefix
	Pragma string   // e.g. "untyped"; empty for none
	Decls  []Decl
}

func (Script) irNode() {}

// GuardBlock wraps declarations in a preprocessor platform guard.
// An empty Guard emits the declarations unguarded.
type GuardBlock struct {
	Guard string // "SERVER", "CLIENT", "UI"
	Decls []Decl
}

func (GuardBlock) irNode() {}
func (GuardBlock) irDecl() {}

// FuncDecl represents a function declaration
type FuncDecl struct {
	Global     bool
	ReturnType string // defaults to "void"
	Name       string
	Params     []Param
	Body       []Stmt
}

func (FuncDecl) irNode() {}
func (FuncDecl) irDecl() {}

// Param represents a function parameter
type Param struct {
	Type string
	Name string
}

// CommentDecl is a top-level comment line
type CommentDecl struct {
	Text string
}

func (CommentDecl) irNode() {}
func (CommentDecl) irDecl() {}

// LocalStmt represents a local declaration: local name = value
type LocalStmt struct {
	Type  string // empty emits "local"
	Name  string
	Value Expr // can be nil
}

func (LocalStmt) irNode() {}
func (LocalStmt) irStmt() {}

// AssignStmt represents assignment: lhs = rhs, or lhs <- rhs for new table slots
type AssignStmt struct {
	Left    Expr
	Right   Expr
	NewSlot bool
}

func (AssignStmt) irNode() {}
func (AssignStmt) irStmt() {}

// IfStmt represents an if statement
type IfStmt struct {
	Cond Expr
	Then []Stmt
	Else []Stmt // can be empty, or contain single IfStmt for else-if
	// HasElse emits an else block even when Else is empty.
	HasElse bool
}

func (IfStmt) irNode() {}
func (IfStmt) irStmt() {}

// ForStmt represents a counted for loop: for ( int i = from; i < to; i++ )
type ForStmt struct {
	Var  string
	From Expr
	To   Expr
	Body []Stmt
}

func (ForStmt) irNode() {}
func (ForStmt) irStmt() {}

// ForeachStmt represents a foreach loop
type ForeachStmt struct {
	KeyType   string // e.g. "int"; empty for no key
	Key       string
	ValueType string // defaults to "var"
	Value     string
	X         Expr // expression to iterate
	Body      []Stmt
}

func (ForeachStmt) irNode() {}
func (ForeachStmt) irStmt() {}

// WhileStmt represents a while loop
type WhileStmt struct {
	Cond Expr
	Body []Stmt
}

func (WhileStmt) irNode() {}
func (WhileStmt) irStmt() {}

// ReturnStmt represents a return statement
type ReturnStmt struct {
	Value Expr // can be nil
}

func (ReturnStmt) irNode() {}
func (ReturnStmt) irStmt() {}

// ExprStmt wraps an expression as a statement
type ExprStmt struct {
	X Expr
}

func (ExprStmt) irNode() {}
func (ExprStmt) irStmt() {}

// ThreadStmt starts a call on a new script thread: thread f()
type ThreadStmt struct {
	Call *CallExpr
}

func (ThreadStmt) irNode() {}
func (ThreadStmt) irStmt() {}

// CommentStmt is a single line comment
type CommentStmt struct {
	Text string
}

func (CommentStmt) irNode() {}
func (CommentStmt) irStmt() {}

// BlockStmt represents a block of statements
type BlockStmt struct {
	Stmts []Stmt
}

func (BlockStmt) irNode() {}
func (BlockStmt) irStmt() {}

// Ident represents an identifier
type Ident struct {
	Name string
}

func (Ident) irNode() {}
func (Ident) irExpr() {}

// Literal represents a literal value
type Literal struct {
	Value any    // string, int, float64, bool, nil
	Kind  string // "string", "int", "float", "bool", "null"
}

func (Literal) irNode() {}
func (Literal) irExpr() {}

// CallExpr represents a function call
type CallExpr struct {
	Func Expr
	Args []Expr
}

func (CallExpr) irNode() {}
func (CallExpr) irExpr() {}

// SelectorExpr represents a.b
type SelectorExpr struct {
	X   Expr
	Sel string
}

func (SelectorExpr) irNode() {}
func (SelectorExpr) irExpr() {}

// IndexExpr represents a[i]
type IndexExpr struct {
	X     Expr
	Index Expr
}

func (IndexExpr) irNode() {}
func (IndexExpr) irExpr() {}

// UnaryExpr represents a unary expression: !x, -x
type UnaryExpr struct {
	Op string
	X  Expr
}

func (UnaryExpr) irNode() {}
func (UnaryExpr) irExpr() {}

// BinaryExpr represents a binary expression: x + y, x == y, etc.
type BinaryExpr struct {
	X  Expr
	Op string
	Y  Expr
}

func (BinaryExpr) irNode() {}
func (BinaryExpr) irExpr() {}

// ArrayLit represents an array literal: [a, b]
type ArrayLit struct {
	Elements []Expr
}

func (ArrayLit) irNode() {}
func (ArrayLit) irExpr() {}

// TableLit represents a table literal: { k = v }
type TableLit struct {
	Fields []TableField
}

func (TableLit) irNode() {}
func (TableLit) irExpr() {}

// TableField is one slot of a table literal
type TableField struct {
	Key   string
	Value Expr
}

// RawExpr allows inserting raw script code (escape hatch)
type RawExpr struct {
	Code string
}

func (RawExpr) irNode() {}
func (RawExpr) irExpr() {}

// RawStmt allows inserting raw script code as a statement
type RawStmt struct {
	Code string
}

func (RawStmt) irNode() {}
func (RawStmt) irStmt() {}
