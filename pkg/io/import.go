package io

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	errs "github.com/matzehuels/nestgraph/pkg/errors"
	"github.com/matzehuels/nestgraph/pkg/graph"
)

// ReadJSON decodes a document from r into a new store configured with opts.
//
// On any failure ReadJSON logs the problem through the store's logger and
// returns an empty store together with a MALFORMED_INPUT error. The returned
// store is never nil. ReadJSON does not close r.
func ReadJSON(r io.Reader, opts ...graph.Option) (*graph.Store, error) {
	s := graph.New(opts...)
	doc, err := decode(r)
	if err != nil {
		s.Logger().Warn("malformed document, starting from an empty one", "err", err)
		return s, err
	}
	if err := s.ImportState(doc); err != nil {
		return s, err
	}
	return s, nil
}

// ImportJSON reads the JSON document at path. A file that cannot be opened
// yields an empty store and an error that is not MALFORMED_INPUT, so callers
// can tell a missing file from a corrupt one.
func ImportJSON(path string, opts ...graph.Option) (*graph.Store, error) {
	f, err := os.Open(path)
	if err != nil {
		code := errs.ErrCodeInvalidPath
		if os.IsNotExist(err) {
			code = errs.ErrCodeDocumentNotFound
		}
		return graph.New(opts...), errs.Wrap(code, err, "open %s", path)
	}
	defer f.Close()
	return ReadJSON(f, opts...)
}

// Unmarshal decodes a document without building a store. It does not check
// references; use [graph.Store.ImportState] for that.
func Unmarshal(data []byte) (graph.Document, error) {
	return decode(bytes.NewReader(data))
}

func decode(r io.Reader) (graph.Document, error) {
	var doc graph.Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return graph.Document{}, errs.Wrap(errs.ErrCodeMalformedInput, err, "decode document")
	}
	return doc, nil
}
