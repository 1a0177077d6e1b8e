package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/nestgraph/pkg/buildinfo"
	"github.com/matzehuels/nestgraph/pkg/editor"
	errs "github.com/matzehuels/nestgraph/pkg/errors"
	"github.com/matzehuels/nestgraph/pkg/graph"
	"github.com/matzehuels/nestgraph/pkg/render/nodelink"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: buildinfo.Version})
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"documents": infos})
}

type createRequest struct {
	Name     string          `json:"name"`
	Demo     bool            `json:"demo,omitempty"`
	Document *graph.Document `json:"document,omitempty"`
}

func (s *Server) createDocument(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := errs.ValidateDocumentName(req.Name); err != nil {
		s.writeError(w, err)
		return
	}

	ctx := r.Context()
	if _, err := s.store.Load(ctx, req.Name); err == nil {
		s.writeError(w, errs.New(errs.ErrCodeDuplicateID, "document %q already exists", req.Name))
		return
	} else if !errs.IsNotFound(err) {
		s.writeError(w, err)
		return
	}

	var doc graph.Document
	switch {
	case req.Document != nil:
		doc = *req.Document
	case req.Demo:
		doc = editor.DemoDocument()
	}
	st, err := graph.FromDocument(doc, graph.WithSizing(s.sizing))
	if err != nil {
		s.writeError(w, errs.Wrap(errs.ErrCodeMalformedInput, err, "document %q", req.Name))
		return
	}
	doc = st.ExportState()
	if err := s.store.Save(ctx, req.Name, doc); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("document created", "name", req.Name, "entities", len(doc.Nodes)+len(doc.Containers))
	s.writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	s.query(func(sess *session, _ *http.Request) (any, error) {
		return sess.ed.Document(), nil
	})(w, r)
}

// replaceDocument overwrites a document and discards its open session,
// including the undo history.
func (s *Server) replaceDocument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := errs.ValidateDocumentName(name); err != nil {
		s.writeError(w, err)
		return
	}
	var doc graph.Document
	if err := decode(r, &doc); err != nil {
		s.writeError(w, err)
		return
	}
	st, err := graph.FromDocument(doc, graph.WithSizing(s.sizing))
	if err != nil {
		s.writeError(w, errs.Wrap(errs.ErrCodeMalformedInput, err, "document %q", name))
		return
	}
	doc = st.ExportState()

	release, err := s.exclusive(r.Context(), name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer release()
	if err := s.store.Save(r.Context(), name, doc); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := errs.ValidateDocumentName(name); err != nil {
		s.writeError(w, err)
		return
	}
	release, err := s.exclusive(r.Context(), name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer release()
	if err := s.store.Delete(r.Context(), name); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = nodelink.FormatSVG
	}
	contentType := "image/svg+xml"
	switch format {
	case nodelink.FormatSVG:
	case nodelink.FormatDOT:
		contentType = "text/vnd.graphviz"
	default:
		s.writeError(w, errs.New(errs.ErrCodeInvalidFormat, "unsupported render format %q", format))
		return
	}
	layout := r.URL.Query().Get("layout")

	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out, err := s.renderer.Render(r.Context(), sess.ed.Store(), format, layout)
	sess.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	if _, err := w.Write(out); err != nil {
		s.logger.Warn("write render", "err", err)
	}
}

// session resolves the {name} URL parameter to an open session and returns
// it locked.
func (s *Server) session(r *http.Request) (*session, error) {
	name := chi.URLParam(r, "name")
	if err := errs.ValidateDocumentName(name); err != nil {
		return nil, err
	}
	return s.acquire(r.Context(), name)
}

// gestureFunc edits a session and reports whether the document changed.
type gestureFunc func(sess *session, r *http.Request) (resp any, changed bool, err error)

// queryFunc reads from a session.
type queryFunc func(sess *session, r *http.Request) (any, error)

// gesture runs fn under the session lock and persists the document when fn
// changed it. If the save fails the session is discarded, so the next
// request sees what storage holds.
func (s *Server) gesture(fn gestureFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.session(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		defer sess.mu.Unlock()

		resp, changed, err := fn(sess, r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if changed {
			name := chi.URLParam(r, "name")
			if err := s.store.Save(r.Context(), name, sess.ed.Document()); err != nil {
				s.logger.Warn("save failed, dropping session", "name", name, "err", err)
				s.discard(name, sess)
				s.writeError(w, err)
				return
			}
		}
		s.writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) query(fn queryFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.session(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		resp, err := fn(sess, r)
		sess.mu.Unlock()
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, resp)
	}
}
