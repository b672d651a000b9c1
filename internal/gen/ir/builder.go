package ir

import "fmt"

// ScriptBuilder builds a Script
type ScriptBuilder struct {
	script *Script
}

// NewScript creates a new script builder
func NewScript() *ScriptBuilder {
	return &ScriptBuilder{
		script: &Script{
			Header: make([]string, 0),
			Decls:  make([]Decl, 0),
		},
	}
}

// Header adds a header comment line
func (b *ScriptBuilder) Header(lines ...string) *ScriptBuilder {
	b.script.Header = append(b.script.Header, lines...)
	return b
}

// Pragma sets the pragma line written after the header
func (b *ScriptBuilder) Pragma(p string) *ScriptBuilder {
	b.script.Pragma = p
	return b
}

// AddDecl adds a declaration
func (b *ScriptBuilder) AddDecl(d Decl) *ScriptBuilder {
	b.script.Decls = append(b.script.Decls, d)
	return b
}

// Build returns the completed script
func (b *ScriptBuilder) Build() *Script {
	return b.script
}

// FuncBuilder builds a function declaration
type FuncBuilder struct {
	decl *FuncDecl
}

// NewFunc creates a new function builder
func NewFunc(name string) *FuncBuilder {
	return &FuncBuilder{
		decl: &FuncDecl{
			Name:   name,
			Params: make([]Param, 0),
			Body:   make([]Stmt, 0),
		},
	}
}

// Global marks the function as global
func (b *FuncBuilder) Global() *FuncBuilder {
	b.decl.Global = true
	return b
}

// Returns sets the return type
func (b *FuncBuilder) Returns(typ string) *FuncBuilder {
	b.decl.ReturnType = typ
	return b
}

// Param adds a parameter
func (b *FuncBuilder) Param(typ, name string) *FuncBuilder {
	b.decl.Params = append(b.decl.Params, Param{Type: typ, Name: name})
	return b
}

// Body sets the function body
func (b *FuncBuilder) Body(stmts ...Stmt) *FuncBuilder {
	b.decl.Body = stmts
	return b
}

// AddStmt adds a statement to the body
func (b *FuncBuilder) AddStmt(stmt Stmt) *FuncBuilder {
	b.decl.Body = append(b.decl.Body, stmt)
	return b
}

// Build returns the completed function
func (b *FuncBuilder) Build() *FuncDecl {
	return b.decl
}

// Guard wraps declarations in a platform guard
func Guard(platform string, decls ...Decl) *GuardBlock {
	return &GuardBlock{Guard: platform, Decls: decls}
}

// Expression builders

// Id creates an identifier
func Id(name string) *Ident {
	return &Ident{Name: name}
}

// Lit creates a literal
func Lit(value any) *Literal {
	switch v := value.(type) {
	case string:
		return &Literal{Value: v, Kind: "string"}
	case int:
		return &Literal{Value: v, Kind: "int"}
	case int64:
		return &Literal{Value: v, Kind: "int"}
	case float64:
		return &Literal{Value: v, Kind: "float"}
	case bool:
		return &Literal{Value: v, Kind: "bool"}
	case nil:
		return Null()
	default:
		return &Literal{Value: v, Kind: "unknown"}
	}
}

// Null creates a null literal
func Null() *Literal {
	return &Literal{Value: nil, Kind: "null"}
}

// True creates a true literal
func True() *Literal {
	return &Literal{Value: true, Kind: "bool"}
}

// False creates a false literal
func False() *Literal {
	return &Literal{Value: false, Kind: "bool"}
}

// IsNull reports whether x is the null literal
func IsNull(x Expr) bool {
	l, ok := x.(*Literal)
	return ok && l.Kind == "null"
}

// Call creates a function call
func Call(fn string, args ...Expr) *CallExpr {
	return &CallExpr{
		Func: parseExpr(fn),
		Args: args,
	}
}

// CallOn creates a method call on an expression
func CallOn(receiver Expr, method string, args ...Expr) *CallExpr {
	return &CallExpr{
		Func: &SelectorExpr{X: receiver, Sel: method},
		Args: args,
	}
}

// Sel creates a selector expression: x.name
func Sel(x Expr, name string) *SelectorExpr {
	return &SelectorExpr{X: x, Sel: name}
}

// Dot creates a chained selector from a string like "foo.bar.baz"
func Dot(path string) Expr {
	return parseExpr(path)
}

// Index creates an index expression: x[i]
func Index(x Expr, index Expr) *IndexExpr {
	return &IndexExpr{X: x, Index: index}
}

// Not creates a not expression: !x
func Not(x Expr) *UnaryExpr {
	return &UnaryExpr{Op: "!", X: x}
}

// Neg creates a negation expression: -x
func Neg(x Expr) *UnaryExpr {
	return &UnaryExpr{Op: "-", X: x}
}

// Bin creates a binary expression with an arbitrary operator
func Bin(x Expr, op string, y Expr) *BinaryExpr {
	return &BinaryExpr{X: x, Op: op, Y: y}
}

// Binary operators

func Add(x, y Expr) *BinaryExpr { return &BinaryExpr{X: x, Op: "+", Y: y} }
func Sub(x, y Expr) *BinaryExpr { return &BinaryExpr{X: x, Op: "-", Y: y} }
func Mul(x, y Expr) *BinaryExpr { return &BinaryExpr{X: x, Op: "*", Y: y} }
func Div(x, y Expr) *BinaryExpr { return &BinaryExpr{X: x, Op: "/", Y: y} }
func Mod(x, y Expr) *BinaryExpr { return &BinaryExpr{X: x, Op: "%", Y: y} }
func Eq(x, y Expr) *BinaryExpr  { return &BinaryExpr{X: x, Op: "==", Y: y} }
func Lt(x, y Expr) *BinaryExpr  { return &BinaryExpr{X: x, Op: "<", Y: y} }
func And(x, y Expr) *BinaryExpr { return &BinaryExpr{X: x, Op: "&&", Y: y} }
func Or(x, y Expr) *BinaryExpr  { return &BinaryExpr{X: x, Op: "||", Y: y} }

// Array creates an array literal
func Array(elems ...Expr) *ArrayLit {
	return &ArrayLit{Elements: elems}
}

// Table creates a table literal
func Table(fields ...TableField) *TableLit {
	return &TableLit{Fields: fields}
}

// Raw creates a raw expression (escape hatch)
func Raw(code string) *RawExpr {
	return &RawExpr{Code: code}
}

// Rawf creates a formatted raw expression
func Rawf(format string, args ...any) *RawExpr {
	return &RawExpr{Code: fmt.Sprintf(format, args...)}
}

// Statement builders

// Local creates a local declaration with initialization
func Local(name string, value Expr) *LocalStmt {
	return &LocalStmt{Name: name, Value: value}
}

// Typed creates a typed declaration: int x = 1
func Typed(typ, name string, value Expr) *LocalStmt {
	return &LocalStmt{Type: typ, Name: name, Value: value}
}

// Assign creates an assignment statement
func Assign(left Expr, right Expr) *AssignStmt {
	return &AssignStmt{Left: left, Right: right}
}

// NewSlot creates a table slot creation: t.k <- v
func NewSlot(left Expr, right Expr) *AssignStmt {
	return &AssignStmt{Left: left, Right: right, NewSlot: true}
}

// If creates an if statement
func If(cond Expr, then ...Stmt) *IfStmt {
	return &IfStmt{Cond: cond, Then: then}
}

// IfElse creates an if-else statement
func IfElse(cond Expr, then []Stmt, els []Stmt) *IfStmt {
	return &IfStmt{Cond: cond, Then: then, Else: els}
}

// For creates a counted for loop
func For(v string, from, to Expr, body ...Stmt) *ForStmt {
	return &ForStmt{Var: v, From: from, To: to, Body: body}
}

// Foreach creates an indexed foreach loop
func Foreach(key, value string, x Expr, body ...Stmt) *ForeachStmt {
	return &ForeachStmt{KeyType: "int", Key: key, Value: value, X: x, Body: body}
}

// While creates a while loop
func While(cond Expr, body ...Stmt) *WhileStmt {
	return &WhileStmt{Cond: cond, Body: body}
}

// Return creates a return statement
func Return(value Expr) *ReturnStmt {
	return &ReturnStmt{Value: value}
}

// ExprStatement wraps an expression as a statement
func ExprStatement(e Expr) *ExprStmt {
	return &ExprStmt{X: e}
}

// Thread creates a thread start: thread f()
func Thread(call *CallExpr) *ThreadStmt {
	return &ThreadStmt{Call: call}
}

// Comment creates a comment line
func Comment(text string) *CommentStmt {
	return &CommentStmt{Text: text}
}

// Commentf creates a formatted comment line
func Commentf(format string, args ...any) *CommentStmt {
	return &CommentStmt{Text: fmt.Sprintf(format, args...)}
}

// Block creates a block statement
func Block(stmts ...Stmt) *BlockStmt {
	return &BlockStmt{Stmts: stmts}
}

// RawStatement creates a raw statement (escape hatch)
func RawStatement(code string) *RawStmt {
	return &RawStmt{Code: code}
}

// RawStatementf creates a formatted raw statement
func RawStatementf(format string, args ...any) *RawStmt {
	return &RawStmt{Code: fmt.Sprintf(format, args...)}
}

// parseExpr parses a dot-separated path into an expression
// e.g., "foo.bar.baz" -> Sel(Sel(Id("foo"), "bar"), "baz")
func parseExpr(path string) Expr {
	var result Expr
	start := 0

	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '.' {
			part := path[start:i]
			if result == nil {
				result = Id(part)
			} else {
				result = &SelectorExpr{X: result, Sel: part}
			}
			start = i + 1
		}
	}

	return result
}
