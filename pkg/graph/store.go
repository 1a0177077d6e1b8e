package graph

import (
	"slices"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/nestgraph/pkg/errors"
	"github.com/matzehuels/nestgraph/pkg/geometry"
)

// Store owns every node, container and edge of a diagram together with the
// containment relation between them. All mutations keep the following true:
//
//   - a ParentID always names an existing container that lists the entity as
//     a member, and every member lists that container as its parent
//   - following ParentID never loops
//   - edges and port references never dangle
//
// Collections remember insertion order, which drives iteration, hit-test
// priority and serialization.
//
// The zero value is not usable - use [New]. Store is not safe for concurrent
// use; callers serialize edits, typically by cloning, mutating the clone and
// swapping it in.
type Store struct {
	nodes      map[string]*Entity
	containers map[string]*Entity
	edges      map[string]*Edge

	nodeOrder      []string
	containerOrder []string
	edgeOrder      []string

	sizing Sizing
	logger *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for warnings such as ports added to missing
// entities. Defaults to log.Default().
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSizing overrides the sizing constants.
func WithSizing(z Sizing) Option {
	return func(s *Store) { s.sizing = z }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		nodes:      make(map[string]*Entity),
		containers: make(map[string]*Entity),
		edges:      make(map[string]*Edge),
		sizing:     DefaultSizing(),
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sizing returns the store's sizing constants.
func (s *Store) Sizing() Sizing { return s.sizing }

// Logger returns the store's logger.
func (s *Store) Logger() *log.Logger { return s.logger }

// =============================================================================
// Lookups
// =============================================================================

// Entity returns the node or container with the given id.
func (s *Store) Entity(id string) (*Entity, bool) {
	if n, ok := s.nodes[id]; ok {
		return n, true
	}
	c, ok := s.containers[id]
	return c, ok
}

// Node returns the node with the given id.
func (s *Store) Node(id string) (*Entity, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Container returns the container with the given id.
func (s *Store) Container(id string) (*Entity, bool) {
	c, ok := s.containers[id]
	return c, ok
}

// Edge returns the edge with the given id.
func (s *Store) Edge(id string) (*Edge, bool) {
	e, ok := s.edges[id]
	return e, ok
}

// Has reports whether an entity or edge uses id.
func (s *Store) Has(id string) bool {
	_, isNode := s.nodes[id]
	_, isContainer := s.containers[id]
	_, isEdge := s.edges[id]
	return isNode || isContainer || isEdge
}

// Nodes returns all nodes in insertion order.
func (s *Store) Nodes() []*Entity { return collect(s.nodes, s.nodeOrder) }

// Containers returns all containers in insertion order.
func (s *Store) Containers() []*Entity { return collect(s.containers, s.containerOrder) }

// Edges returns all edges in insertion order.
func (s *Store) Edges() []*Edge { return collect(s.edges, s.edgeOrder) }

func collect[T any](m map[string]*T, order []string) []*T {
	out := make([]*T, 0, len(order))
	for _, id := range order {
		out = append(out, m[id])
	}
	return out
}

// NodeCount returns the number of nodes.
func (s *Store) NodeCount() int { return len(s.nodes) }

// ContainerCount returns the number of containers.
func (s *Store) ContainerCount() int { return len(s.containers) }

// EdgeCount returns the number of edges.
func (s *Store) EdgeCount() int { return len(s.edges) }

// Roots returns the ids of entities without a parent: nodes first, then
// containers, each in insertion order.
func (s *Store) Roots() []string {
	var out []string
	for _, id := range s.nodeOrder {
		if s.nodes[id].ParentID == "" {
			out = append(out, id)
		}
	}
	for _, id := range s.containerOrder {
		if s.containers[id].ParentID == "" {
			out = append(out, id)
		}
	}
	return out
}

// EdgesAt returns the edges touching the given entity, in insertion order.
func (s *Store) EdgesAt(id string) []*Edge {
	var out []*Edge
	for _, eid := range s.edgeOrder {
		if e := s.edges[eid]; e.Touches(id) {
			out = append(out, e)
		}
	}
	return out
}

// Descendants returns every entity nested in the container, depth first:
// each container's member nodes, then its child containers followed by
// their own descendants. Returns nil if id is not a container.
func (s *Store) Descendants(id string) []string {
	var out []string
	seen := map[string]bool{id: true}
	var walk func(cid string)
	walk = func(cid string) {
		c, ok := s.containers[cid]
		if !ok {
			return
		}
		for _, nid := range c.NodeIDs {
			if !seen[nid] {
				seen[nid] = true
				out = append(out, nid)
			}
		}
		for _, ch := range c.ChildContainerIDs {
			if !seen[ch] {
				seen[ch] = true
				out = append(out, ch)
				walk(ch)
			}
		}
	}
	walk(id)
	return out
}

// Ancestors returns the chain of containers above the entity, nearest first.
func (s *Store) Ancestors(id string) []string {
	e, ok := s.Entity(id)
	if !ok {
		return nil
	}
	var out []string
	seen := map[string]bool{id: true}
	for pid := e.ParentID; pid != "" && !seen[pid]; {
		p, ok := s.containers[pid]
		if !ok {
			break
		}
		seen[pid] = true
		out = append(out, pid)
		pid = p.ParentID
	}
	return out
}

// IsDescendant reports whether id is nested, at any depth, inside ancestorID.
func (s *Store) IsDescendant(id, ancestorID string) bool {
	return slices.Contains(s.Ancestors(id), ancestorID)
}

// Bounds returns the box of the given entity.
func (s *Store) Bounds(id string) (geometry.Rect, bool) {
	e, ok := s.Entity(id)
	if !ok {
		return geometry.Rect{}, false
	}
	return e.Bounds(), true
}

// =============================================================================
// Adding
// =============================================================================

// AddNode adds a node. The store keeps its own copy of e. A zero size is
// replaced by the default node size, and a non-empty ParentID attaches the
// node to that container.
//
// Returns an INVALID_ID error for a malformed id, DUPLICATE_ID if any entity
// or edge already uses the id, and INVALID_REFERENCE if ParentID names no
// container.
func (s *Store) AddNode(e Entity) error {
	if err := s.checkNewEntity(&e); err != nil {
		return err
	}
	n := e.clone()
	n.Kind = KindNode
	n.NodeIDs, n.ChildContainerIDs, n.Collapsed = nil, nil, false
	if n.Size.IsZero() {
		n.Size = s.sizing.NodeSize
	}
	s.nodes[n.ID] = n
	s.nodeOrder = append(s.nodeOrder, n.ID)
	if n.ParentID != "" {
		parent := n.ParentID
		n.ParentID = ""
		s.attach(n, parent)
	}
	return nil
}

// AddContainer adds an empty container. Membership lists on e are ignored;
// members join through their own ParentID or through containment
// resolution. A zero size is replaced by the minimum container size.
//
// Errors are as for [Store.AddNode].
func (s *Store) AddContainer(e Entity) error {
	if err := s.checkNewEntity(&e); err != nil {
		return err
	}
	c := e.clone()
	c.Kind = KindContainer
	c.NodeIDs, c.ChildContainerIDs = nil, nil
	if c.Size.IsZero() {
		c.Size = s.sizing.MinSize
	}
	s.containers[c.ID] = c
	s.containerOrder = append(s.containerOrder, c.ID)
	if c.ParentID != "" {
		parent := c.ParentID
		c.ParentID = ""
		s.attach(c, parent)
	}
	return nil
}

func (s *Store) checkNewEntity(e *Entity) error {
	if err := errs.ValidateID(e.ID); err != nil {
		return err
	}
	if s.Has(e.ID) {
		return errs.New(errs.ErrCodeDuplicateID, "id %q already in use", e.ID)
	}
	if e.ParentID != "" {
		if _, ok := s.containers[e.ParentID]; !ok {
			return errs.New(errs.ErrCodeInvalidReference, "parent container %q does not exist", e.ParentID)
		}
	}
	seen := make(map[string]bool, len(e.Ports))
	for _, p := range e.Ports {
		if err := errs.ValidateID(p.ID); err != nil {
			return err
		}
		if seen[p.ID] {
			return errs.New(errs.ErrCodeDuplicateID, "entity %q has duplicate port %q", e.ID, p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

// AddEdge adds an edge. Both endpoints must exist and any port id given must
// be present on its endpoint; otherwise an INVALID_REFERENCE error is
// returned. Self-loops are allowed.
func (s *Store) AddEdge(e Edge) error {
	if err := errs.ValidateID(e.ID); err != nil {
		return err
	}
	if s.Has(e.ID) {
		return errs.New(errs.ErrCodeDuplicateID, "id %q already in use", e.ID)
	}
	if err := s.checkEndpoint(e.ID, e.SourceID, e.SourcePortID); err != nil {
		return err
	}
	if err := s.checkEndpoint(e.ID, e.TargetID, e.TargetPortID); err != nil {
		return err
	}
	edge := e
	s.edges[edge.ID] = &edge
	s.edgeOrder = append(s.edgeOrder, edge.ID)
	return nil
}

func (s *Store) checkEndpoint(edgeID, entityID, portID string) error {
	ent, ok := s.Entity(entityID)
	if !ok {
		return errs.New(errs.ErrCodeInvalidReference, "edge %q: endpoint %q does not exist", edgeID, entityID)
	}
	if portID == "" {
		return nil
	}
	if _, ok := ent.Port(portID); !ok {
		return errs.New(errs.ErrCodeInvalidReference, "edge %q: entity %q has no port %q", edgeID, entityID, portID)
	}
	return nil
}

// =============================================================================
// Removing
// =============================================================================

// RemoveNode deletes a node, every edge touching it and its membership in
// its parent. Returns false if no such node exists.
func (s *Store) RemoveNode(id string) bool {
	n, ok := s.nodes[id]
	if !ok {
		return false
	}
	s.removeEdgesWhere(func(e *Edge) bool { return e.Touches(id) })
	s.detach(n)
	delete(s.nodes, id)
	s.nodeOrder = deleteID(s.nodeOrder, id)
	return true
}

// RemoveContainer deletes a container with all of its descendants and every
// edge touching any of them. Members are removed before the container
// itself. Returns false if no such container exists.
func (s *Store) RemoveContainer(id string) bool {
	c, ok := s.containers[id]
	if !ok {
		return false
	}
	s.detach(c)
	for _, nid := range slices.Clone(c.NodeIDs) {
		s.RemoveNode(nid)
	}
	for _, cid := range slices.Clone(c.ChildContainerIDs) {
		s.RemoveContainer(cid)
	}
	s.removeEdgesWhere(func(e *Edge) bool { return e.Touches(id) })
	delete(s.containers, id)
	s.containerOrder = deleteID(s.containerOrder, id)
	return true
}

// Remove deletes the node or container with the given id.
func (s *Store) Remove(id string) bool {
	if _, ok := s.nodes[id]; ok {
		return s.RemoveNode(id)
	}
	return s.RemoveContainer(id)
}

// RemoveEdge deletes an edge. Returns false if no such edge exists.
func (s *Store) RemoveEdge(id string) bool {
	if _, ok := s.edges[id]; !ok {
		return false
	}
	delete(s.edges, id)
	s.edgeOrder = deleteID(s.edgeOrder, id)
	return true
}

func (s *Store) removeEdgesWhere(match func(*Edge) bool) int {
	removed := 0
	s.edgeOrder = slices.DeleteFunc(s.edgeOrder, func(eid string) bool {
		if match(s.edges[eid]) {
			delete(s.edges, eid)
			removed++
			return true
		}
		return false
	})
	return removed
}

func deleteID(ids []string, id string) []string {
	return slices.DeleteFunc(ids, func(s string) bool { return s == id })
}

// =============================================================================
// In-place mutation
// =============================================================================

// MoveNode sets a node's position. Containment is not re-resolved; see
// [Store.ResolveContainment].
func (s *Store) MoveNode(id string, pos geometry.Vec2) bool {
	n, ok := s.nodes[id]
	if !ok {
		return false
	}
	n.Position = pos
	return true
}

// MoveContainer sets a container's position. Members keep their own
// positions; callers dragging a container translate its descendants too.
func (s *Store) MoveContainer(id string, pos geometry.Vec2) bool {
	c, ok := s.containers[id]
	if !ok {
		return false
	}
	c.Position = pos
	return true
}

// Move sets the position of a node or container.
func (s *Store) Move(id string, pos geometry.Vec2) bool {
	if s.MoveNode(id, pos) {
		return true
	}
	return s.MoveContainer(id, pos)
}

// Resize sets an entity's size. Negative components are clamped to zero.
func (s *Store) Resize(id string, size geometry.Size) bool {
	e, ok := s.Entity(id)
	if !ok {
		return false
	}
	e.Size = geometry.Size{Width: max(size.Width, 0), Height: max(size.Height, 0)}
	return true
}

// SetLabel sets the display label of an entity.
func (s *Store) SetLabel(id, label string) bool {
	e, ok := s.Entity(id)
	if !ok {
		return false
	}
	e.Label = label
	return true
}

// SetEdgeLabel sets the label of an edge.
func (s *Store) SetEdgeLabel(id, label string) bool {
	e, ok := s.edges[id]
	if !ok {
		return false
	}
	e.Label = label
	return true
}

// SetData sets one attribute of an entity. A nil value deletes the key.
func (s *Store) SetData(id, key string, value any) bool {
	e, ok := s.Entity(id)
	if !ok {
		return false
	}
	if value == nil {
		delete(e.Data, key)
		if len(e.Data) == 0 {
			e.Data = nil
		}
		return true
	}
	if e.Data == nil {
		e.Data = Data{}
	}
	e.Data[key] = cloneValue(value)
	return true
}

// ToggleCollapsed flips a container's collapsed flag. Stored size is kept so
// that expanding restores the previous box.
func (s *Store) ToggleCollapsed(id string) bool {
	c, ok := s.containers[id]
	if !ok {
		return false
	}
	c.Collapsed = !c.Collapsed
	return true
}

// SetCollapsed sets a container's collapsed flag.
func (s *Store) SetCollapsed(id string, collapsed bool) bool {
	c, ok := s.containers[id]
	if !ok {
		return false
	}
	c.Collapsed = collapsed
	return true
}

// SetParent attaches an entity to a container, or to the root when parentID
// is empty, bypassing geometric resolution. Returns CONTAINMENT_CYCLE if the
// new parent is the entity itself or one of its descendants.
func (s *Store) SetParent(id, parentID string) error {
	e, ok := s.Entity(id)
	if !ok {
		return errs.New(errs.ErrCodeNotFound, "entity %q does not exist", id)
	}
	if parentID == "" {
		s.detach(e)
		return nil
	}
	if _, ok := s.containers[parentID]; !ok {
		return errs.New(errs.ErrCodeInvalidReference, "parent container %q does not exist", parentID)
	}
	if parentID == id || s.IsDescendant(parentID, id) {
		return errs.New(errs.ErrCodeContainmentCycle, "cannot place %q inside %q", id, parentID)
	}
	s.attach(e, parentID)
	return nil
}

// attach moves e into the container parentID, detaching it from any previous
// parent. The caller guarantees the container exists.
func (s *Store) attach(e *Entity, parentID string) {
	if e.ParentID == parentID {
		return
	}
	s.detach(e)
	p := s.containers[parentID]
	if e.IsContainer() {
		if !slices.Contains(p.ChildContainerIDs, e.ID) {
			p.ChildContainerIDs = append(p.ChildContainerIDs, e.ID)
		}
	} else if !slices.Contains(p.NodeIDs, e.ID) {
		p.NodeIDs = append(p.NodeIDs, e.ID)
	}
	e.ParentID = parentID
}

// detach removes e from its parent's membership and promotes it to root.
func (s *Store) detach(e *Entity) {
	if e.ParentID == "" {
		return
	}
	if p, ok := s.containers[e.ParentID]; ok {
		if e.IsContainer() {
			p.ChildContainerIDs = deleteID(p.ChildContainerIDs, e.ID)
		} else {
			p.NodeIDs = deleteID(p.NodeIDs, e.ID)
		}
	}
	e.ParentID = ""
}
