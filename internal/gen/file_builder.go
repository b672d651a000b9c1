package gen

import (
	"strings"

	"modgraph/internal/gen/ir"
)

// Preamble lines written at the top of every generated script
const (
	HeaderLine = "Generated by modgraph. Do not edit by hand."
	Pragma     = "untyped"
)

// FileBuilder assembles the guarded blocks of each pass into one script
type FileBuilder struct {
	script *ir.ScriptBuilder
}

// NewFileBuilder creates a builder holding only the preamble
func NewFileBuilder() *FileBuilder {
	return &FileBuilder{
		script: ir.NewScript().Header(HeaderLine).Pragma(Pragma),
	}
}

// AddPass adds the root function of a pass followed by its thread functions
func (b *FileBuilder) AddPass(p *pass) {
	fn := ir.NewFunc(p.root.function).Body(p.body...)
	for _, param := range p.params {
		fn.Param(param.Type, param.Name)
	}

	decls := make([]ir.Decl, 0, 1+len(p.threads))
	decls = append(decls, fn.Build())
	for _, t := range p.threads {
		decls = append(decls, t)
	}
	b.script.AddDecl(ir.Guard(p.root.guard, decls...))
}

// AddAborted adds a placeholder for a pass that could not be lowered
func (b *FileBuilder) AddAborted(r root, err error) {
	b.script.AddDecl(ir.Guard(r.guard, &ir.CommentDecl{
		Text: "modgraph: " + r.function + " was not generated: " + err.Error(),
	}))
}

// Emit renders the script
func (b *FileBuilder) Emit() (string, error) {
	var sb strings.Builder
	if err := ir.EmitScript(&sb, b.script.Build()); err != nil {
		return "", err
	}
	return sb.String(), nil
}
