package graph

import (
	"errors"

	errs "github.com/matzehuels/nestgraph/pkg/errors"
)

// Validate checks every structural invariant of the store and returns all
// violations joined with errors.Join, or nil. Each violation is an
// *errors.Error carrying INVALID_REFERENCE, DUPLICATE_ID or
// CONTAINMENT_CYCLE.
//
// Mutations through Store methods cannot produce violations; Validate exists
// for imported documents and as a test oracle.
func (s *Store) Validate() error {
	var problems []error
	report := func(code errs.Code, format string, args ...any) {
		problems = append(problems, errs.New(code, format, args...))
	}

	for _, e := range s.Nodes() {
		s.validateEntity(e, report)
		if len(e.NodeIDs) > 0 || len(e.ChildContainerIDs) > 0 {
			report(errs.ErrCodeInvalidReference, "node %q lists members", e.ID)
		}
	}
	for _, c := range s.Containers() {
		s.validateEntity(c, report)
		s.validateMembers(c, report)
	}
	s.validateAcyclic(report)

	for _, e := range s.Edges() {
		for _, end := range []struct{ id, port string }{{e.SourceID, e.SourcePortID}, {e.TargetID, e.TargetPortID}} {
			ent, ok := s.Entity(end.id)
			if !ok {
				report(errs.ErrCodeInvalidReference, "edge %q: endpoint %q does not exist", e.ID, end.id)
				continue
			}
			if end.port != "" {
				if _, ok := ent.Port(end.port); !ok {
					report(errs.ErrCodeInvalidReference, "edge %q: entity %q has no port %q", e.ID, end.id, end.port)
				}
			}
		}
	}

	return errors.Join(problems...)
}

type reporter func(code errs.Code, format string, args ...any)

func (s *Store) validateEntity(e *Entity, report reporter) {
	ports := make(map[string]bool, len(e.Ports))
	for _, p := range e.Ports {
		if ports[p.ID] {
			report(errs.ErrCodeDuplicateID, "entity %q has duplicate port %q", e.ID, p.ID)
		}
		ports[p.ID] = true
	}

	if e.ParentID == "" {
		return
	}
	p, ok := s.containers[e.ParentID]
	if !ok {
		report(errs.ErrCodeInvalidReference, "entity %q: parent %q does not exist", e.ID, e.ParentID)
		return
	}
	list := p.NodeIDs
	if e.IsContainer() {
		list = p.ChildContainerIDs
	}
	for _, id := range list {
		if id == e.ID {
			return
		}
	}
	report(errs.ErrCodeInvalidReference, "entity %q: parent %q does not list it as a member", e.ID, p.ID)
}

func (s *Store) validateMembers(c *Entity, report reporter) {
	seen := make(map[string]bool)
	check := func(id string, want map[string]*Entity, kind Kind) {
		if seen[id] {
			report(errs.ErrCodeDuplicateID, "container %q lists %q twice", c.ID, id)
			return
		}
		seen[id] = true
		m, ok := want[id]
		if !ok {
			report(errs.ErrCodeInvalidReference, "container %q: member %s %q does not exist", c.ID, kind, id)
			return
		}
		if m.ParentID != c.ID {
			report(errs.ErrCodeInvalidReference, "container %q lists %q whose parent is %q", c.ID, id, m.ParentID)
		}
	}
	for _, id := range c.NodeIDs {
		check(id, s.nodes, KindNode)
	}
	for _, id := range c.ChildContainerIDs {
		check(id, s.containers, KindContainer)
	}
}

// validateAcyclic follows every container's parent chain for at most
// ContainerCount steps.
func (s *Store) validateAcyclic(report reporter) {
	limit := len(s.containers)
	for _, c := range s.Containers() {
		steps := 0
		for pid := c.ParentID; pid != ""; steps++ {
			if steps > limit || pid == c.ID {
				report(errs.ErrCodeContainmentCycle, "container %q is nested inside itself", c.ID)
				break
			}
			p, ok := s.containers[pid]
			if !ok {
				break
			}
			pid = p.ParentID
		}
	}
}
