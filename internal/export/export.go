package export

import (
	"bufio"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"modgraph/internal/graph"
)

const (
	BeginMarker = "// ==== MODGRAPH PROJECT BEGIN ===="
	EndMarker   = "// ==== MODGRAPH PROJECT END ===="

	// LineWidth is the number of base64 characters per comment line
	LineWidth = 80
)

// ErrNoEmbeddedProject is returned by Recover when the text holds no project block.
var ErrNoEmbeddedProject = errors.New("no embedded project found")

// Wrap prepends a metadata header to script and appends the full project
// document, base64 encoded and fenced by comment markers, so the graph can
// be recovered from the exported file later.
func Wrap(script string, doc *graph.Document) (string, error) {
	payload, err := graph.EncodeDocument(doc)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	writeHeader(&sb, doc.Metadata)

	sb.WriteString(script)
	if !strings.HasSuffix(script, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	sb.WriteString(BeginMarker)
	sb.WriteString("\n")
	encoded := base64.StdEncoding.EncodeToString(payload)
	for len(encoded) > 0 {
		n := min(LineWidth, len(encoded))
		sb.WriteString("// ")
		sb.WriteString(encoded[:n])
		sb.WriteString("\n")
		encoded = encoded[n:]
	}
	sb.WriteString(EndMarker)
	sb.WriteString("\n")

	return sb.String(), nil
}

func writeHeader(sb *strings.Builder, meta graph.Metadata) {
	fields := []struct {
		label string
		value string
	}{
		{"Mod", meta.Name},
		{"Mod ID", meta.ModID},
		{"Author", meta.Author},
		{"Version", meta.Version},
		{"Description", meta.Description},
	}

	written := 0
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		// keep multi-line descriptions inside the comment
		value := strings.ReplaceAll(f.value, "\n", " ")
		fmt.Fprintf(sb, "// %s: %s\n", f.label, value)
		written++
	}
	if written > 0 {
		sb.WriteString("\n")
	}
}

// Recover extracts the project document embedded by Wrap.
func Recover(text string) (*graph.Document, error) {
	var (
		inside  bool
		found   bool
		payload strings.Builder
	)

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == BeginMarker:
			inside = true
			payload.Reset()
		case line == EndMarker && inside:
			inside = false
			found = true
		case inside:
			line = strings.TrimPrefix(line, "//")
			payload.WriteString(strings.TrimSpace(line))
		}
		if found {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan script: %w", err)
	}
	if !found {
		return nil, ErrNoEmbeddedProject
	}

	data, err := base64.StdEncoding.DecodeString(payload.String())
	if err != nil {
		return nil, fmt.Errorf("failed to decode embedded project: %w", err)
	}
	return graph.DecodeDocument(data)
}
