package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/matzehuels/nestgraph/pkg/graph"
)

// WriteJSON encodes the store's snapshot as indented JSON and writes it to w.
func WriteJSON(s *graph.Store, w io.Writer) error {
	return WriteDocument(s.ExportState(), w)
}

// WriteDocument encodes a document as indented JSON.
func WriteDocument(doc graph.Document, w io.Writer) error {
	doc = normalize(doc)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Marshal returns the indented JSON encoding of doc.
func Marshal(doc graph.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteDocument(doc, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportJSON writes the store to a JSON file at path. See [WriteFile].
func ExportJSON(s *graph.Store, path string) error {
	return WriteFile(s.ExportState(), path)
}

// WriteFile writes doc as JSON to path. The file is written to a temporary
// sibling first and renamed into place, so a failed write never truncates
// an existing document.
func WriteFile(doc graph.Document, path string) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".nestgraph-*.json")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// normalize replaces nil collections so that they encode as [] instead of null.
func normalize(doc graph.Document) graph.Document {
	if doc.Nodes == nil {
		doc.Nodes = []graph.Entity{}
	}
	if doc.Containers == nil {
		doc.Containers = []graph.Entity{}
	}
	if doc.Edges == nil {
		doc.Edges = []graph.Edge{}
	}
	return doc
}
