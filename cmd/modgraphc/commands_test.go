package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"modgraph/internal/graph"
	"modgraph/internal/project"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProject = `{
  "version": 1,
  "metadata": {"name": "Sample", "modId": "sample mod"},
  "nodes": [
    {"id": "srv", "type": "init-server", "category": "event",
     "outputs": [{"id": "out", "label": "out", "kind": "exec"}]},
    {"id": "p", "type": "print", "data": {"message": "hello"},
     "inputs": [{"id": "in", "label": "in", "kind": "exec"}, {"id": "message", "label": "message", "kind": "data"}],
     "outputs": [{"id": "out", "label": "out", "kind": "exec"}]}
  ],
  "connections": [
    {"id": "c1", "from": {"nodeId": "srv", "portId": "out"}, "to": {"nodeId": "p", "portId": "in"}}
  ]
}`

func run(t *testing.T, args ...string) string {
	t.Helper()
	logger = zerolog.Nop()
	outputPath, embed, modDir, scriptName = "", false, "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleProject), 0o644))
	return path
}

func TestCompileCommand(t *testing.T) {
	out := run(t, "compile", writeSample(t))
	assert.Contains(t, out, "void function ModServer_Init()")
	assert.Contains(t, out, `printt( "hello" )`)
}

func TestCompileEmbedThenRecover(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "sample.nut")
	run(t, "compile", writeSample(t), "--embed", "-o", script)

	out := run(t, "recover", script)
	doc, err := graph.DecodeDocument([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "Sample", doc.Metadata.Name)
	assert.Len(t, doc.Nodes, 2)

	again := run(t, "compile", script)
	assert.Contains(t, again, `printt( "hello" )`)
}

func TestCompileIntoMod(t *testing.T) {
	mod := t.TempDir()
	out := run(t, "compile", writeSample(t), "--mod", mod)
	assert.Equal(t, filepath.Join(mod, project.ScriptsDir, "sample_mod.nut")+"\n", out)
	assert.FileExists(t, filepath.Join(mod, project.ScriptsDir, "sample_mod.nut"))
}

func TestPackUnpack(t *testing.T) {
	src := writeSample(t)
	packed := filepath.Join(t.TempDir(), "sample.r5vp")
	run(t, "pack", src, "-o", packed)

	data, err := os.ReadFile(packed)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, project.Magic))

	out := run(t, "unpack", packed)
	doc, err := graph.DecodeDocument([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "sample mod", doc.Metadata.ModID)

	compiled := run(t, "compile", packed)
	assert.Contains(t, compiled, `printt( "hello" )`)
}
