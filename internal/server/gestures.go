package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/nestgraph/pkg/editor"
	errs "github.com/matzehuels/nestgraph/pkg/errors"
	"github.com/matzehuels/nestgraph/pkg/geometry"
	"github.com/matzehuels/nestgraph/pkg/graph"
)

// result is the response of every gesture.
type result struct {
	Changed   bool              `json:"changed"`
	ID        string            `json:"id,omitempty"`
	Selection *editor.Selection `json:"selection,omitempty"`
}

func changed(ok bool, err error) (any, bool, error) {
	if err != nil {
		return nil, false, err
	}
	return result{Changed: ok}, ok, nil
}

func added(id string, err error) (any, bool, error) {
	if err != nil {
		return nil, false, err
	}
	return result{Changed: true, ID: id}, true, nil
}

func addNode(sess *session, r *http.Request) (any, bool, error) {
	var n graph.Entity
	if err := decode(r, &n); err != nil {
		return nil, false, err
	}
	return added(sess.ed.AddNode(n))
}

func addContainer(sess *session, r *http.Request) (any, bool, error) {
	var c graph.Entity
	if err := decode(r, &c); err != nil {
		return nil, false, err
	}
	return added(sess.ed.AddContainer(c))
}

func connect(sess *session, r *http.Request) (any, bool, error) {
	var e graph.Edge
	if err := decode(r, &e); err != nil {
		return nil, false, err
	}
	return added(sess.ed.Connect(e))
}

func addPort(sess *session, r *http.Request) (any, bool, error) {
	var p graph.Port
	if err := decode(r, &p); err != nil {
		return nil, false, err
	}
	return changed(sess.ed.AddPort(chi.URLParam(r, "id"), p))
}

func removePort(sess *session, r *http.Request) (any, bool, error) {
	return changed(sess.ed.RemovePort(chi.URLParam(r, "id"), chi.URLParam(r, "port")))
}

type moveRequest struct {
	IDs []string `json:"ids"`
	DX  float64  `json:"dx"`
	DY  float64  `json:"dy"`
}

func move(sess *session, r *http.Request) (any, bool, error) {
	var req moveRequest
	if err := decode(r, &req); err != nil {
		return nil, false, err
	}
	return changed(sess.ed.Move(req.IDs, geometry.Vec2{X: req.DX, Y: req.DY}))
}

type resizeRequest struct {
	ID     string  `json:"id"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func resize(sess *session, r *http.Request) (any, bool, error) {
	var req resizeRequest
	if err := decode(r, &req); err != nil {
		return nil, false, err
	}
	return changed(sess.ed.Resize(req.ID, geometry.Size{Width: req.Width, Height: req.Height}))
}

type idRequest struct {
	ID string `json:"id"`
}

func collapse(sess *session, r *http.Request) (any, bool, error) {
	var req idRequest
	if err := decode(r, &req); err != nil {
		return nil, false, err
	}
	return changed(sess.ed.ToggleCollapse(req.ID))
}

// renameRequest renames an entity, or one of its ports when Port is set, or
// an edge when Edge is true.
type renameRequest struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Port  string `json:"port,omitempty"`
	Edge  bool   `json:"edge,omitempty"`
}

func rename(sess *session, r *http.Request) (any, bool, error) {
	var req renameRequest
	if err := decode(r, &req); err != nil {
		return nil, false, err
	}
	switch {
	case req.Edge:
		return changed(sess.ed.RenameEdge(req.ID, req.Label))
	case req.Port != "":
		return changed(sess.ed.RenamePort(req.ID, req.Port, req.Label))
	}
	return changed(sess.ed.Rename(req.ID, req.Label))
}

type dataRequest struct {
	ID    string `json:"id"`
	Key   string `json:"key"`
	Value any    `json:"value"`
}

func setData(sess *session, r *http.Request) (any, bool, error) {
	var req dataRequest
	if err := decode(r, &req); err != nil {
		return nil, false, err
	}
	if req.Key == "" {
		return nil, false, errs.New(errs.ErrCodeInvalidInput, "data key cannot be empty")
	}
	return changed(sess.ed.SetData(req.ID, req.Key, req.Value))
}

func deleteSelection(sess *session, r *http.Request) (any, bool, error) {
	var sel editor.Selection
	if err := decode(r, &sel); err != nil {
		return nil, false, err
	}
	return changed(sess.ed.Delete(sel))
}

// clipResponse summarizes the session clipboard.
type clipResponse struct {
	Nodes      int `json:"nodes"`
	Containers int `json:"containers"`
	Edges      int `json:"edges"`
}

func clipSummary(c editor.Clip) clipResponse {
	return clipResponse{Nodes: len(c.Nodes), Containers: len(c.Containers), Edges: len(c.Edges)}
}

func copySelection(sess *session, r *http.Request) (any, bool, error) {
	var sel editor.Selection
	if err := decode(r, &sel); err != nil {
		return nil, false, err
	}
	sess.clip = sess.ed.Copy(sel)
	return clipSummary(sess.clip), false, nil
}

func cutSelection(sess *session, r *http.Request) (any, bool, error) {
	var sel editor.Selection
	if err := decode(r, &sel); err != nil {
		return nil, false, err
	}
	before := sess.ed.History().UndoLen()
	clip, err := sess.ed.Cut(sel)
	if err != nil {
		return nil, false, err
	}
	sess.clip = clip
	return clipSummary(clip), sess.ed.History().UndoLen() != before, nil
}

func paste(sess *session, _ *http.Request) (any, bool, error) {
	if sess.clip.Empty() {
		return result{}, false, nil
	}
	sel, err := sess.ed.Paste(sess.clip)
	if err != nil {
		return nil, false, err
	}
	return result{Changed: true, Selection: &sel}, true, nil
}

func undo(sess *session, _ *http.Request) (any, bool, error) {
	return changed(sess.ed.Undo())
}

func redo(sess *session, _ *http.Request) (any, bool, error) {
	return changed(sess.ed.Redo())
}

type historyResponse struct {
	Undo    []string `json:"undo"`
	CanUndo bool     `json:"canUndo"`
	CanRedo bool     `json:"canRedo"`
}

func historyLabels(sess *session, _ *http.Request) (any, error) {
	h := sess.ed.History()
	return historyResponse{Undo: h.Labels(), CanUndo: h.CanUndo(), CanRedo: h.CanRedo()}, nil
}

type hitResponse struct {
	Hit bool   `json:"hit"`
	ID  string `json:"id,omitempty"`
}

func hit(sess *session, r *http.Request) (any, error) {
	p, err := pointParam(r)
	if err != nil {
		return nil, err
	}
	id, ok := sess.ed.Store().HitTest(p)
	return hitResponse{Hit: ok, ID: id}, nil
}

func selectRect(sess *session, r *http.Request) (any, error) {
	p, err := pointParam(r)
	if err != nil {
		return nil, err
	}
	w, err := floatParam(r, "w")
	if err != nil {
		return nil, err
	}
	h, err := floatParam(r, "h")
	if err != nil {
		return nil, err
	}
	rect := geometry.Rect{X: p.X, Y: p.Y, W: w, H: h}.Normalize()
	return editor.SelectRect(sess.ed.Store(), rect), nil
}

func portPosition(sess *session, r *http.Request) (any, error) {
	id, port := chi.URLParam(r, "id"), chi.URLParam(r, "port")
	pos, ok := sess.ed.Store().PortPosition(id, port)
	if !ok {
		return nil, errs.New(errs.ErrCodeNotFound, "port %q on %q not found", port, id)
	}
	return pos, nil
}

type validateResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func validate(sess *session, _ *http.Request) (any, error) {
	if err := sess.ed.Store().Validate(); err != nil {
		return validateResponse{Error: err.Error()}, nil
	}
	return validateResponse{Valid: true}, nil
}

func pointParam(r *http.Request) (geometry.Vec2, error) {
	x, err := floatParam(r, "x")
	if err != nil {
		return geometry.Vec2{}, err
	}
	y, err := floatParam(r, "y")
	if err != nil {
		return geometry.Vec2{}, err
	}
	return geometry.Vec2{X: x, Y: y}, nil
}

func floatParam(r *http.Request, key string) (float64, error) {
	raw := r.URL.Query().Get(key)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errs.New(errs.ErrCodeInvalidInput, "query parameter %s: %q is not a number", key, raw)
	}
	return v, nil
}
