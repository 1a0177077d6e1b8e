// Package server exposes document editing over HTTP.
//
// Each stored document gets one editor session, created on first use and
// kept in memory so undo history survives between requests. Requests on the
// same document are serialized; every gesture that changes the document is
// written back to storage before the response is sent.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/nestgraph/pkg/editor"
	errs "github.com/matzehuels/nestgraph/pkg/errors"
	"github.com/matzehuels/nestgraph/pkg/geometry"
	"github.com/matzehuels/nestgraph/pkg/graph"
	"github.com/matzehuels/nestgraph/pkg/history"
	"github.com/matzehuels/nestgraph/pkg/render/nodelink"
	"github.com/matzehuels/nestgraph/pkg/storage"
)

// Server serves the editing API for documents held in a storage backend.
type Server struct {
	store       storage.Store
	renderer    *nodelink.Renderer
	logger      *log.Logger
	sizing      graph.Sizing
	historyCap  int
	pasteOffset geometry.Vec2
	newID       func(prefix string) string
	corsOrigin  string

	mu       sync.Mutex
	sessions map[string]*session
}

// session is one open document. A closed session has been dropped from the
// server and must not be edited or saved again.
type session struct {
	mu     sync.Mutex
	ed     *editor.Editor
	clip   editor.Clip
	closed bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to log.Default().
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRenderer sets the renderer behind the render endpoint.
func WithRenderer(r *nodelink.Renderer) Option {
	return func(s *Server) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithSizing sets the sizing used by opened documents.
func WithSizing(z graph.Sizing) Option {
	return func(s *Server) { s.sizing = z }
}

// WithHistoryCapacity bounds the undo history of each session.
func WithHistoryCapacity(n int) Option {
	return func(s *Server) { s.historyCap = n }
}

// WithPasteOffset sets how far pasted entities move from their originals.
func WithPasteOffset(v geometry.Vec2) Option {
	return func(s *Server) { s.pasteOffset = v }
}

// WithIDGenerator replaces the id generator of every session.
func WithIDGenerator(fn func(prefix string) string) Option {
	return func(s *Server) { s.newID = fn }
}

// WithCORSOrigin sets the Access-Control-Allow-Origin value. Empty disables
// CORS headers.
func WithCORSOrigin(origin string) Option {
	return func(s *Server) { s.corsOrigin = origin }
}

// New returns a server over store.
func New(store storage.Store, opts ...Option) *Server {
	s := &Server{
		store:       store,
		logger:      log.Default(),
		sizing:      graph.DefaultSizing(),
		historyCap:  history.DefaultCapacity,
		pasteOffset: editor.DefaultPasteOffset,
		sessions:    make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.renderer == nil {
		s.renderer = nodelink.NewRenderer(nil, 0, nodelink.Options{}, s.logger)
	}
	return s
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	if s.corsOrigin != "" {
		r.Use(cors(s.corsOrigin))
	}

	r.Get("/health", s.health)

	r.Route("/documents", func(r chi.Router) {
		r.Get("/", s.listDocuments)
		r.Post("/", s.createDocument)

		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", s.getDocument)
			r.Put("/", s.replaceDocument)
			r.Delete("/", s.deleteDocument)

			r.Post("/nodes", s.gesture(addNode))
			r.Post("/containers", s.gesture(addContainer))
			r.Post("/edges", s.gesture(connect))
			r.Post("/entities/{id}/ports", s.gesture(addPort))
			r.Delete("/entities/{id}/ports/{port}", s.gesture(removePort))
			r.Post("/move", s.gesture(move))
			r.Post("/resize", s.gesture(resize))
			r.Post("/collapse", s.gesture(collapse))
			r.Post("/rename", s.gesture(rename))
			r.Post("/data", s.gesture(setData))
			r.Post("/delete", s.gesture(deleteSelection))
			r.Post("/copy", s.gesture(copySelection))
			r.Post("/cut", s.gesture(cutSelection))
			r.Post("/paste", s.gesture(paste))
			r.Post("/undo", s.gesture(undo))
			r.Post("/redo", s.gesture(redo))

			r.Get("/history", s.query(historyLabels))
			r.Get("/hit", s.query(hit))
			r.Get("/select", s.query(selectRect))
			r.Get("/entities/{id}/ports/{port}", s.query(portPosition))
			r.Get("/validate", s.query(validate))
			r.Get("/render", s.render)
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// open returns the session for name, loading the document on first use.
func (s *Server) open(ctx context.Context, name string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[name]; ok {
		return sess, nil
	}
	doc, err := s.store.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	sess, err := s.newSession(doc)
	if err != nil {
		return nil, err
	}
	s.sessions[name] = sess
	return sess, nil
}

func (s *Server) newSession(doc graph.Document) (*session, error) {
	st, err := graph.FromDocument(doc, graph.WithSizing(s.sizing), graph.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	ed := editor.New(st,
		editor.WithLogger(s.logger),
		editor.WithHistory(history.NewManager(s.historyCap, history.WithLogger(s.logger))),
		editor.WithPasteOffset(s.pasteOffset),
		editor.WithIDGenerator(s.newID),
	)
	return &session{ed: ed}, nil
}

// acquire opens the session for name and returns it locked. Sessions closed
// while the caller waited for the lock are skipped.
func (s *Server) acquire(ctx context.Context, name string) (*session, error) {
	for {
		sess, err := s.open(ctx, name)
		if err != nil {
			return nil, err
		}
		sess.mu.Lock()
		if !sess.closed {
			return sess, nil
		}
		sess.mu.Unlock()
	}
}

// exclusive locks the session for name so no gesture can save over a
// replace or delete. The returned release discards the session and unlocks
// it. A document that is missing from storage or cannot be loaded has no
// session to hold.
func (s *Server) exclusive(ctx context.Context, name string) (release func(), err error) {
	sess, err := s.acquire(ctx, name)
	if errs.IsNotFound(err) || errs.IsValidation(err) {
		return func() {}, nil
	}
	if err != nil {
		return nil, err
	}
	return func() {
		s.discard(name, sess)
		sess.mu.Unlock()
	}, nil
}

// discard closes sess and drops it so the next request reloads name from
// storage. The caller must hold sess.mu.
func (s *Server) discard(name string, sess *session) {
	sess.closed = true
	s.mu.Lock()
	if s.sessions[name] == sess {
		delete(s.sessions, name)
	}
	s.mu.Unlock()
}
