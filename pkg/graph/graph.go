package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/graphview/pkg/errors"
)

// Attrs is the free-form data attached to nodes and edges read from files.
type Attrs = map[string]any

// Document is the on-disk graph format used by the CLI, the server and the
// file and MongoDB sources.
//
//	{
//	  "nodes": [{"id": "a", "data": {"label": "Alpha"}}],
//	  "edges": [{"id": "e1", "source": "a", "target": "b"}]
//	}
//
// Edges without an ID get "source->target" (suffixed with #n for parallel
// edges) when the document is read.
type Document struct {
	Nodes []Node[Attrs] `json:"nodes" yaml:"nodes" bson:"nodes"`
	Edges []Edge[Attrs] `json:"edges" yaml:"edges" bson:"edges"`
}

// Format identifies a document encoding.
type Format string

// Document encodings.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath infers the encoding from a file extension.
// Unknown extensions default to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// =============================================================================
// Document Serialization API
// =============================================================================

// ReadDocumentFile reads a JSON or YAML graph document from path.
func ReadDocumentFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDocument(f, FormatFromPath(path))
}

// ReadDocument decodes a graph document from r and validates it.
func ReadDocument(r io.Reader, format Format) (Document, error) {
	var doc Document
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
			return Document{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode yaml")
		}
	default:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return Document{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode json")
		}
	}
	doc.AssignEdgeIDs()
	if err := Validate(doc.Nodes, doc.Edges); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// UnmarshalDocument decodes a JSON graph document.
func UnmarshalDocument(data []byte) (Document, error) {
	return ReadDocument(bytes.NewReader(data), FormatJSON)
}

// WriteDocument writes doc as indented JSON.
func WriteDocument(doc Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteModel writes a transformed model as indented JSON.
func WriteModel[N, E any](m Model[N, E], w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteModelFile writes a transformed model to a JSON file.
// The file is created with 0644 permissions.
func WriteModelFile[N, E any](m Model[N, E], path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteModel(m, f)
}

// Label returns the display label of a document node: data["label"] when
// it is a non-empty string, otherwise the ID.
func Label(n Node[Attrs]) string {
	if l, ok := n.Data["label"].(string); ok && l != "" {
		return l
	}
	return n.ID
}

// =============================================================================
// Internal Helpers
// =============================================================================

// AssignEdgeIDs gives every edge without an ID "source->target", suffixed
// with #n when that ID is taken.
func (d *Document) AssignEdgeIDs() {
	used := make(map[string]bool, len(d.Edges))
	for _, e := range d.Edges {
		if e.ID != "" {
			used[e.ID] = true
		}
	}
	for i := range d.Edges {
		if d.Edges[i].ID != "" {
			continue
		}
		base := d.Edges[i].Source + "->" + d.Edges[i].Target
		id := base
		for n := 2; used[id]; n++ {
			id = fmt.Sprintf("%s#%d", base, n)
		}
		used[id] = true
		d.Edges[i].ID = id
	}
}
