package ir

import (
	"fmt"
	"io"
	"strings"
)

// IndentWidth is the number of spaces per nesting level
const IndentWidth = 4

// Emitter writes Squirrel code from IR nodes
type Emitter struct {
	w      io.Writer
	indent int
	err    error
}

// NewEmitter creates a new emitter
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w}
}

// Emit writes the IR node to the writer
func (e *Emitter) Emit(n Node) error {
	e.emit(n)
	return e.err
}

// EmitScript is a convenience method for emitting a script
func EmitScript(w io.Writer, s *Script) error {
	return NewEmitter(w).Emit(s)
}

// FormatExpr renders a single expression to text.
func FormatExpr(x Expr) string {
	var sb strings.Builder
	e := NewEmitter(&sb)
	e.emitExpr(x)
	return sb.String()
}

// FormatStmts renders statements at the given depth, one per line, each
// terminated by a newline.
func FormatStmts(stmts []Stmt, depth int) string {
	var sb strings.Builder
	e := NewEmitter(&sb)
	e.indent = depth
	e.emitStmts(stmts)
	return sb.String()
}

// tableKey renders a table slot name. Keys that are not plain identifiers
// use the bracketed string form.
func tableKey(k string) string {
	if isIdent(k) {
		return k
	}
	return "[" + Quote(k) + "]"
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// Quote returns s as a double-quoted Squirrel string literal.
func Quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func (e *Emitter) write(s string) {
	if e.err != nil {
		return
	}
	_, e.err = io.WriteString(e.w, s)
}

func (e *Emitter) writef(format string, args ...any) {
	e.write(fmt.Sprintf(format, args...))
}

func (e *Emitter) writeIndent() {
	e.write(strings.Repeat(" ", e.indent*IndentWidth))
}

func (e *Emitter) newline() {
	e.write("\n")
}

func (e *Emitter) emit(n Node) {
	if e.err != nil {
		return
	}

	switch v := n.(type) {
	case *Script:
		e.emitScript(v)
	case *GuardBlock:
		e.emitGuard(v)
	case *FuncDecl:
		e.emitFunc(v)
	case *CommentDecl:
		e.writef("// %s", v.Text)
	case *LocalStmt:
		e.emitLocal(v)
	case *AssignStmt:
		e.emitAssign(v)
	case *IfStmt:
		e.emitIf(v)
	case *ForStmt:
		e.emitFor(v)
	case *ForeachStmt:
		e.emitForeach(v)
	case *WhileStmt:
		e.emitWhile(v)
	case *ReturnStmt:
		e.emitReturn(v)
	case *ExprStmt:
		e.emitExpr(v.X)
	case *ThreadStmt:
		e.write("thread ")
		e.emitExpr(v.Call)
	case *CommentStmt:
		e.writef("// %s", v.Text)
	case *BlockStmt:
		e.emitBody(v.Stmts)
	case *RawStmt:
		e.write(v.Code)
	case Expr:
		e.emitExpr(v)
	default:
		e.err = fmt.Errorf("unknown node type: %T", n)
	}
}

func (e *Emitter) emitScript(s *Script) {
	for _, line := range s.Header {
		if line == "" {
			e.write("//\n")
			continue
		}
		e.writef("// %s\n", line)
	}
	if s.Pragma != "" {
		if len(s.Header) > 0 {
			e.newline()
		}
		e.writef("%s\n", s.Pragma)
	}

	for _, decl := range s.Decls {
		e.newline()
		e.emit(decl)
		e.newline()
	}
}

func (e *Emitter) emitGuard(g *GuardBlock) {
	if g.Guard != "" {
		e.writef("#if %s\n", g.Guard)
	}
	for i, decl := range g.Decls {
		if i > 0 {
			e.write("\n\n")
		}
		e.emit(decl)
	}
	if g.Guard != "" {
		e.write("\n#endif")
	}
}

func (e *Emitter) emitFunc(f *FuncDecl) {
	if f.Global {
		e.write("global ")
	}
	ret := f.ReturnType
	if ret == "" {
		ret = "void"
	}
	e.writef("%s function %s(", ret, f.Name)
	if len(f.Params) > 0 {
		e.write(" ")
		for i, p := range f.Params {
			if i > 0 {
				e.write(", ")
			}
			e.writef("%s %s", p.Type, p.Name)
		}
		e.write(" ")
	}
	e.write(")\n")
	e.writeIndent()
	e.emitBody(f.Body)
}

// emitBody writes a brace block on its own lines. The caller has already
// written the indentation for the opening brace.
func (e *Emitter) emitBody(stmts []Stmt) {
	e.write("{\n")
	e.indent++
	e.emitStmts(stmts)
	e.indent--
	e.writeIndent()
	e.write("}")
}

func (e *Emitter) emitStmts(stmts []Stmt) {
	for _, stmt := range stmts {
		e.writeIndent()
		e.emit(stmt)
		e.newline()
	}
}

func (e *Emitter) emitLocal(v *LocalStmt) {
	typ := v.Type
	if typ == "" {
		typ = "local"
	}
	e.writef("%s %s", typ, v.Name)
	if v.Value != nil {
		e.write(" = ")
		e.emitExpr(v.Value)
	}
}

func (e *Emitter) emitAssign(a *AssignStmt) {
	e.emitExpr(a.Left)
	if a.NewSlot {
		e.write(" <- ")
	} else {
		e.write(" = ")
	}
	e.emitExpr(a.Right)
}

func (e *Emitter) emitIf(i *IfStmt) {
	e.write("if ( ")
	e.emitExpr(i.Cond)
	e.write(" )\n")
	e.writeIndent()
	e.emitBody(i.Then)

	if len(i.Else) > 0 || i.HasElse {
		e.newline()
		e.writeIndent()
		e.write("else")
		// Check if it's an else-if
		if len(i.Else) == 1 {
			if elif, ok := i.Else[0].(*IfStmt); ok {
				e.write(" ")
				e.emitIf(elif)
				return
			}
		}
		e.newline()
		e.writeIndent()
		e.emitBody(i.Else)
	}
}

func (e *Emitter) emitFor(f *ForStmt) {
	e.writef("for ( int %s = ", f.Var)
	e.emitExpr(f.From)
	e.writef("; %s < ", f.Var)
	e.emitExpr(f.To)
	e.writef("; %s++ )\n", f.Var)
	e.writeIndent()
	e.emitBody(f.Body)
}

func (e *Emitter) emitForeach(f *ForeachStmt) {
	e.write("foreach ( ")
	if f.Key != "" {
		keyType := f.KeyType
		if keyType == "" {
			keyType = "int"
		}
		e.writef("%s %s, ", keyType, f.Key)
	}
	valueType := f.ValueType
	if valueType == "" {
		valueType = "var"
	}
	e.writef("%s %s in ", valueType, f.Value)
	e.emitExpr(f.X)
	e.write(" )\n")
	e.writeIndent()
	e.emitBody(f.Body)
}

func (e *Emitter) emitWhile(w *WhileStmt) {
	e.write("while ( ")
	e.emitExpr(w.Cond)
	e.write(" )\n")
	e.writeIndent()
	e.emitBody(w.Body)
}

func (e *Emitter) emitReturn(r *ReturnStmt) {
	e.write("return")
	if r.Value != nil {
		e.write(" ")
		e.emitExpr(r.Value)
	}
}

func (e *Emitter) emitExpr(expr Expr) {
	if e.err != nil {
		return
	}

	switch v := expr.(type) {
	case *Ident:
		e.write(v.Name)

	case *Literal:
		e.emitLiteral(v)

	case *CallExpr:
		e.emitExpr(v.Func)
		e.write("(")
		if len(v.Args) > 0 {
			e.write(" ")
			for i, arg := range v.Args {
				if i > 0 {
					e.write(", ")
				}
				e.emitExpr(arg)
			}
			e.write(" ")
		}
		e.write(")")

	case *SelectorExpr:
		e.emitExpr(v.X)
		e.write(".")
		e.write(v.Sel)

	case *IndexExpr:
		e.emitExpr(v.X)
		e.write("[")
		e.emitExpr(v.Index)
		e.write("]")

	case *UnaryExpr:
		e.write(v.Op)
		e.emitExpr(v.X)

	case *BinaryExpr:
		e.write("(")
		e.emitExpr(v.X)
		e.writef(" %s ", v.Op)
		e.emitExpr(v.Y)
		e.write(")")

	case *ArrayLit:
		e.write("[")
		for i, elem := range v.Elements {
			if i > 0 {
				e.write(", ")
			}
			e.emitExpr(elem)
		}
		e.write("]")

	case *TableLit:
		if len(v.Fields) == 0 {
			e.write("{}")
			return
		}
		e.write("{ ")
		for i, f := range v.Fields {
			if i > 0 {
				e.write(", ")
			}
			e.write(tableKey(f.Key))
			e.write(" = ")
			e.emitExpr(f.Value)
		}
		e.write(" }")

	case *RawExpr:
		e.write(v.Code)

	default:
		e.err = fmt.Errorf("unknown expression type: %T", expr)
	}
}

func (e *Emitter) emitLiteral(l *Literal) {
	switch l.Kind {
	case "string":
		e.write(Quote(l.Value.(string)))
	case "int":
		e.writef("%d", l.Value)
	case "float":
		e.writef("%v", l.Value)
	case "bool":
		e.writef("%t", l.Value)
	case "null":
		e.write("null")
	default:
		e.writef("%v", l.Value)
	}
}
