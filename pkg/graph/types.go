package graph

import (
	"maps"
	"reflect"
	"slices"

	"github.com/matzehuels/nestgraph/pkg/geometry"
)

// =============================================================================
// Constants
// =============================================================================

// Kind discriminates the two placeable entity variants.
type Kind string

// Entity kinds.
const (
	KindNode      Kind = "node"
	KindContainer Kind = "container"
)

// Default sizing constants. They can be overridden per store with [WithSizing].
const (
	DefaultPadding      = 24.0
	DefaultHeaderHeight = 32.0
	DefaultMinWidth     = 160.0
	DefaultMinHeight    = 120.0
	DefaultNodeWidth    = 100.0
	DefaultNodeHeight   = 50.0
)

// Sizing holds the geometric constants used by container auto-sizing and by
// entities added without an explicit size.
type Sizing struct {
	Padding      float64       // Space between a container border and its members
	HeaderHeight float64       // Title bar height, added above the members
	MinSize      geometry.Size // Floor for container sizes
	NodeSize     geometry.Size // Size given to nodes added with a zero size
}

// DefaultSizing returns the stock sizing constants.
func DefaultSizing() Sizing {
	return Sizing{
		Padding:      DefaultPadding,
		HeaderHeight: DefaultHeaderHeight,
		MinSize:      geometry.Size{Width: DefaultMinWidth, Height: DefaultMinHeight},
		NodeSize:     geometry.Size{Width: DefaultNodeWidth, Height: DefaultNodeHeight},
	}
}

// =============================================================================
// Entity - Node or Container
// =============================================================================

// Data stores arbitrary caller-defined attributes of an entity. Values should
// be JSON-compatible: strings, numbers, booleans, nil, and nested
// []any / map[string]any.
type Data map[string]any

// Port is a named connection point on an entity.
type Port struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
}

// Entity is a node or a container. The container-only fields (NodeIDs,
// ChildContainerIDs, Collapsed) are always empty for nodes.
//
// Entities returned by [Store] lookups are owned by the store and must be
// treated as read-only; all writes go through Store methods so that
// containment stays consistent.
type Entity struct {
	ID       string        `json:"id"`
	Kind     Kind          `json:"kind"`
	Label    string        `json:"label,omitempty"`
	Position geometry.Vec2 `json:"position"`
	Size     geometry.Size `json:"size"`
	ParentID string        `json:"parentId,omitempty"`
	Ports    []Port        `json:"ports,omitempty"`
	Data     Data          `json:"data,omitempty"`

	NodeIDs           []string `json:"nodeIds,omitempty"`
	ChildContainerIDs []string `json:"childContainerIds,omitempty"`
	Collapsed         bool     `json:"collapsed,omitempty"`
}

// IsContainer reports whether the entity is a container.
func (e *Entity) IsContainer() bool { return e.Kind == KindContainer }

// Bounds returns the entity's box in world space.
func (e *Entity) Bounds() geometry.Rect { return geometry.RectOf(e.Position, e.Size) }

// Center returns the midpoint of the entity's box.
func (e *Entity) Center() geometry.Vec2 { return geometry.Center(e.Position, e.Size) }

// DisplayLabel returns the label if set, otherwise the ID.
func (e *Entity) DisplayLabel() string {
	if e.Label != "" {
		return e.Label
	}
	return e.ID
}

// Port returns the port with the given id.
func (e *Entity) Port(id string) (Port, bool) {
	for _, p := range e.Ports {
		if p.ID == id {
			return p, true
		}
	}
	return Port{}, false
}

// Members returns the direct member ids: nodes first, then child containers.
func (e *Entity) Members() []string {
	out := make([]string, 0, len(e.NodeIDs)+len(e.ChildContainerIDs))
	out = append(out, e.NodeIDs...)
	return append(out, e.ChildContainerIDs...)
}

// Equal reports whether two entities serialize identically. Nil and empty
// collections compare equal.
func (e *Entity) Equal(o *Entity) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.ID == o.ID && e.Kind == o.Kind && e.Label == o.Label &&
		e.Position == o.Position && e.Size == o.Size &&
		e.ParentID == o.ParentID && e.Collapsed == o.Collapsed &&
		slices.Equal(e.Ports, o.Ports) &&
		slices.Equal(e.NodeIDs, o.NodeIDs) &&
		slices.Equal(e.ChildContainerIDs, o.ChildContainerIDs) &&
		dataEqual(e.Data, o.Data)
}

func dataEqual(a, b Data) bool {
	if len(a) == 0 || len(b) == 0 {
		return len(a) == len(b)
	}
	return reflect.DeepEqual(a, b)
}

// clone returns a deep copy of e.
func (e *Entity) clone() *Entity {
	c := *e
	c.Ports = slices.Clone(e.Ports)
	c.NodeIDs = slices.Clone(e.NodeIDs)
	c.ChildContainerIDs = slices.Clone(e.ChildContainerIDs)
	c.Data = cloneData(e.Data)
	return &c
}

// Clone returns a deep copy of the bag.
func (d Data) Clone() Data { return cloneData(d) }

func cloneData(d Data) Data {
	if d == nil {
		return nil
	}
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = cloneValue(vv)
		}
		return m
	case Data:
		return cloneData(t)
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = cloneValue(vv)
		}
		return s
	case []string:
		return slices.Clone(t)
	case map[string]string:
		return maps.Clone(t)
	default:
		return v
	}
}

// =============================================================================
// Edge
// =============================================================================

// Edge connects two entities, optionally at specific ports. Edges refer to
// their endpoints by id only.
type Edge struct {
	ID           string `json:"id"`
	SourceID     string `json:"source"`
	TargetID     string `json:"target"`
	SourcePortID string `json:"sourcePort,omitempty"`
	TargetPortID string `json:"targetPort,omitempty"`
	Label        string `json:"label,omitempty"`
}

// Touches reports whether the edge has id as either endpoint.
func (e *Edge) Touches(id string) bool { return e.SourceID == id || e.TargetID == id }

// UsesPort reports whether the edge terminates at the given port of the
// given entity.
func (e *Edge) UsesPort(entityID, portID string) bool {
	return (e.SourceID == entityID && e.SourcePortID == portID) ||
		(e.TargetID == entityID && e.TargetPortID == portID)
}

// Peer returns the endpoint opposite to entityID.
func (e *Edge) Peer(entityID string) string {
	if e.SourceID == entityID {
		return e.TargetID
	}
	return e.SourceID
}

// =============================================================================
// Document - Serialization Snapshot
// =============================================================================

// Document is the structural snapshot of a store: three ordered collections.
// It is the canonical format for files, storage backends and the HTTP API,
// and round-trips exactly through [Store.ExportState] and [Store.ImportState].
type Document struct {
	Nodes      []Entity `json:"nodes"`
	Containers []Entity `json:"containers"`
	Edges      []Edge   `json:"edges"`
}

// Len returns the total number of records in the document.
func (d Document) Len() int { return len(d.Nodes) + len(d.Containers) + len(d.Edges) }

// Equal reports whether two documents serialize identically, including the
// order of every collection.
func (d Document) Equal(o Document) bool {
	return slices.EqualFunc(d.Nodes, o.Nodes, func(a, b Entity) bool { return a.Equal(&b) }) &&
		slices.EqualFunc(d.Containers, o.Containers, func(a, b Entity) bool { return a.Equal(&b) }) &&
		slices.Equal(d.Edges, o.Edges)
}
