package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type PortKind string

const (
	PortKindExec PortKind = "exec"
	PortKindData PortKind = "data"
)

// Port is a single connection point on a node. IDs are unique within a node.
type Port struct {
	ID       string   `json:"id" validate:"required"`
	Label    string   `json:"label"`
	Kind     PortKind `json:"kind" validate:"required,oneof=exec data"`
	DataType string   `json:"dataType,omitempty"`
}

func (slf Port) IsExec() bool {
	return slf.Kind == PortKindExec
}

// Position is only used by the editor canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Node struct {
	ID       string         `json:"id" validate:"required"`
	Type     string         `json:"type" validate:"required"`
	Category string         `json:"category"`
	Label    string         `json:"label"`
	Position Position       `json:"position"`
	Data     map[string]any `json:"data,omitempty"`
	Inputs   []Port         `json:"inputs" validate:"dive"`
	Outputs  []Port         `json:"outputs" validate:"dive"`
}

// Input returns the input port with the given id.
func (slf *Node) Input(portID string) (Port, bool) {
	return findPort(slf.Inputs, portID)
}

// Output returns the output port with the given id.
func (slf *Node) Output(portID string) (Port, bool) {
	return findPort(slf.Outputs, portID)
}

// FindOutput looks an output port up by id first, then by label. Names are
// compared after normalisation, so "Loop Body" matches "loopbody".
func (slf *Node) FindOutput(kind PortKind, names ...string) (Port, bool) {
	return matchPort(slf.Outputs, kind, names)
}

// FindInput is the input-side counterpart of FindOutput.
func (slf *Node) FindInput(kind PortKind, names ...string) (Port, bool) {
	return matchPort(slf.Inputs, kind, names)
}

// ExecOutputs returns the exec outputs in declaration order.
func (slf *Node) ExecOutputs() []Port {
	return filterPorts(slf.Outputs, PortKindExec)
}

// DataInputs returns the data inputs in declaration order.
func (slf *Node) DataInputs() []Port {
	return filterPorts(slf.Inputs, PortKindData)
}

// DataOutputs returns the data outputs in declaration order.
func (slf *Node) DataOutputs() []Port {
	return filterPorts(slf.Outputs, PortKindData)
}

// IsEvent reports whether the node was tagged as an event by the editor.
func (slf *Node) IsEvent() bool {
	return strings.EqualFold(slf.Category, "event") || strings.HasPrefix(slf.Type, "event-")
}

func findPort(ports []Port, portID string) (Port, bool) {
	for _, p := range ports {
		if p.ID == portID {
			return p, true
		}
	}
	return Port{}, false
}

func matchPort(ports []Port, kind PortKind, names []string) (Port, bool) {
	for _, name := range names {
		for _, p := range ports {
			if p.Kind == kind && p.ID == name {
				return p, true
			}
		}
	}
	for _, name := range names {
		want := NormalizeKey(name)
		for _, p := range ports {
			if p.Kind == kind && NormalizeKey(p.Label) == want {
				return p, true
			}
		}
	}
	return Port{}, false
}

func filterPorts(ports []Port, kind PortKind) []Port {
	out := make([]Port, 0, len(ports))
	for _, p := range ports {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

// NormalizeKey lower-cases s and strips all whitespace, dashes and underscores.
func NormalizeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '\t', '\n', '\r', '-', '_':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type PortRef struct {
	NodeID string `json:"nodeId" validate:"required"`
	PortID string `json:"portId" validate:"required"`
}

func (slf PortRef) String() string {
	return slf.NodeID + ":" + slf.PortID
}

type Connection struct {
	ID   string  `json:"id"`
	From PortRef `json:"from"`
	To   PortRef `json:"to"`
}

// Metadata describes the mod a document belongs to. It is only used by the
// export header and the mod scaffolding.
type Metadata struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Author      string `json:"author,omitempty"`
	Version     string `json:"version,omitempty"`
	ModID       string `json:"modId,omitempty"`
}

// Document is the project document saved by the editor.
type Document struct {
	Version     int          `json:"version"`
	Metadata    Metadata     `json:"metadata"`
	Nodes       []Node       `json:"nodes" validate:"dive"`
	Connections []Connection `json:"connections" validate:"dive"`
}

// DecodeDocument parses a project document. Numbers inside node data are kept
// as json.Number so their literal text reaches the generated script unchanged.
func DecodeDocument(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	if doc.Nodes == nil {
		doc.Nodes = make([]Node, 0)
	}
	if doc.Connections == nil {
		doc.Connections = make([]Connection, 0)
	}
	return &doc, nil
}

// EncodeDocument serializes a project document with stable indentation.
func EncodeDocument(doc *Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return data, nil
}
