package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xeipuuv/gojsonschema"

	"github.com/AIM-Intelligence/AIM-Forge/pkg/types"
)

const structureFileName = "structure.json"
const schemaFileName = "structure.schema.json"

type structureFile struct {
	Nodes []types.Node `json:"nodes"`
	Edges []types.Edge `json:"edges"`
}

// Load reads structure.json from projectDir and builds a Graph. A missing
// structure file yields an empty graph rather than an error, matching a
// freshly created project that has not been edited yet. When a
// structure.schema.json sidecar is present, the raw document is validated
// against it before decoding. maxNodes/maxEdges bound the decoded document's
// size the same way the schema sidecar bounds its shape; a non-positive
// limit disables that particular check.
func Load(projectDir string, maxNodes, maxEdges int) (*Graph, error) {
	path := filepath.Join(projectDir, structureFileName)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(nil, nil), nil
		}
		return nil, fmt.Errorf("graph: reading structure file: %w", err)
	}

	if err := validateAgainstSchema(projectDir, raw); err != nil {
		return nil, err
	}

	var doc structureFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("graph: parsing structure file: %w", err)
	}

	if maxNodes > 0 && len(doc.Nodes) > maxNodes {
		return nil, fmt.Errorf("%w: %d nodes exceeds limit of %d", ErrTooManyNodes, len(doc.Nodes), maxNodes)
	}
	if maxEdges > 0 && len(doc.Edges) > maxEdges {
		return nil, fmt.Errorf("%w: %d edges exceeds limit of %d", ErrTooManyEdges, len(doc.Edges), maxEdges)
	}

	return New(doc.Nodes, doc.Edges), nil
}

func validateAgainstSchema(projectDir string, document []byte) error {
	schemaPath := filepath.Join(projectDir, schemaFileName)
	schemaRaw, err := os.ReadFile(schemaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("graph: reading schema sidecar: %w", err)
	}

	schemaLoader := gojsonschema.NewBytesLoader(schemaRaw)
	docLoader := gojsonschema.NewBytesLoader(document)
	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("graph: validating structure against schema: %w", err)
	}
	if !result.Valid() {
		return fmt.Errorf("graph: structure file violates schema: %v", result.Errors())
	}
	return nil
}
