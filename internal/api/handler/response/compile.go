package response

import "modgraph/internal/gen"

type CompileResponse struct {
	Hash        string           `json:"hash"`
	Cached      bool             `json:"cached"`
	Source      string           `json:"source"`
	Roots       []gen.RootInfo   `json:"roots"`
	Diagnostics []gen.Diagnostic `json:"diagnostics"`
}

type ExportResponse struct {
	Hash        string           `json:"hash"`
	Script      string           `json:"script"`
	Diagnostics []gen.Diagnostic `json:"diagnostics"`
}

type NodeTypesResponse struct {
	Types []string `json:"types"`
}

type HealthResponse struct {
	Status   string          `json:"status"`
	Backends map[string]bool `json:"backends"`
}
