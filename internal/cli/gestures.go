package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nestgraph/pkg/editor"
	errs "github.com/matzehuels/nestgraph/pkg/errors"
	"github.com/matzehuels/nestgraph/pkg/geometry"
	"github.com/matzehuels/nestgraph/pkg/graph"
)

// entityFlags are the flags shared by "add node" and "add container".
type entityFlags struct {
	id, label, parent string
	x, y, w, h        float64
	ports             []string
}

func (f *entityFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.id, "id", "", "entity id (generated when empty)")
	cmd.Flags().StringVarP(&f.label, "label", "l", "", "display label")
	cmd.Flags().StringVar(&f.parent, "parent", "", "container to place the entity in (default: decided by position)")
	cmd.Flags().Float64VarP(&f.x, "x", "x", 0, "left edge")
	cmd.Flags().Float64VarP(&f.y, "y", "y", 0, "top edge")
	cmd.Flags().Float64Var(&f.w, "width", 0, "width (default from config)")
	cmd.Flags().Float64Var(&f.h, "height", 0, "height (default from config)")
	cmd.Flags().StringArrayVarP(&f.ports, "port", "p", nil, "port as id or id:label (repeatable)")
}

func (f *entityFlags) entity() graph.Entity {
	e := graph.Entity{
		ID:       f.id,
		Label:    f.label,
		ParentID: f.parent,
		Position: geometry.Vec2{X: f.x, Y: f.y},
		Size:     geometry.Size{Width: f.w, Height: f.h},
	}
	for _, p := range f.ports {
		e.Ports = append(e.Ports, parsePort(p))
	}
	return e
}

// parsePort splits "id:label".
func parsePort(s string) graph.Port {
	id, label, _ := strings.Cut(s, ":")
	return graph.Port{ID: id, Label: label}
}

// parseEndpoint splits "entity:port".
func parseEndpoint(s string) (entity, port string) {
	entity, port, _ = strings.Cut(s, ":")
	return entity, port
}

// addCommand creates the "add" command group.
func (c *CLI) addCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add nodes, containers, edges or ports",
	}

	cmd.AddCommand(c.addEntityCommand("node"))
	cmd.AddCommand(c.addEntityCommand("container"))
	cmd.AddCommand(c.addEdgeCommand())
	cmd.AddCommand(c.addPortCommand())
	return cmd
}

func (c *CLI) addEntityCommand(kind string) *cobra.Command {
	var f entityFlags

	cmd := &cobra.Command{
		Use:   kind + " <doc>",
		Short: "Add a " + kind,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id string
			_, err := c.mutate(cmd.Context(), args[0], func(ed *editor.Editor) (bool, error) {
				var err error
				if kind == "container" {
					id, err = ed.AddContainer(f.entity())
				} else {
					id, err = ed.AddNode(f.entity())
				}
				return err == nil, err
			})
			if err != nil {
				return err
			}
			printSuccess("Added %s %s", kind, StyleHighlight.Render(id))
			return nil
		},
	}

	f.register(cmd)
	return cmd
}

func (c *CLI) addEdgeCommand() *cobra.Command {
	var id, label string

	cmd := &cobra.Command{
		Use:   "edge <doc> <source[:port]> <target[:port]>",
		Short: "Connect two entities",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, srcPort := parseEndpoint(args[1])
			dst, dstPort := parseEndpoint(args[2])
			edge := graph.Edge{
				ID:           id,
				SourceID:     src,
				SourcePortID: srcPort,
				TargetID:     dst,
				TargetPortID: dstPort,
				Label:        label,
			}
			_, err := c.mutate(cmd.Context(), args[0], func(ed *editor.Editor) (bool, error) {
				var err error
				id, err = ed.Connect(edge)
				return err == nil, err
			})
			if err != nil {
				return err
			}
			printSuccess("Connected %s %s %s", args[1], iconArrow, args[2])
			printDetail("edge %s", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "edge id (generated when empty)")
	cmd.Flags().StringVarP(&label, "label", "l", "", "edge label")
	return cmd
}

func (c *CLI) addPortCommand() *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "port <doc> <entity> <port-id>",
		Short: "Add a port to an entity",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := graph.Port{ID: args[2], Label: label}
			return c.report(c.mutate(cmd.Context(), args[0], func(ed *editor.Editor) (bool, error) {
				return ed.AddPort(args[1], p)
			}))("Added port %s to %s", args[2], args[1])
		},
	}

	cmd.Flags().StringVarP(&label, "label", "l", "", "port label")
	return cmd
}

// rmCommand creates the "rm" command.
func (c *CLI) rmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <doc> <id>...",
		Short: "Delete entities or edges; containers take their contents with them",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := args[1:]
			return c.report(c.mutate(cmd.Context(), args[0], func(ed *editor.Editor) (bool, error) {
				var sel editor.Selection
				for _, id := range ids {
					_, isEdge := ed.Store().Edge(id)
					sel = sel.Toggle(id, isEdge)
				}
				return ed.Delete(sel)
			}))("Deleted %s", strings.Join(ids, ", "))
		},
	}
}

// rmPortCommand creates the "rm-port" command.
func (c *CLI) rmPortCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm-port <doc> <entity> <port>",
		Short: "Remove a port and every edge attached to it",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.report(c.mutate(cmd.Context(), args[0], func(ed *editor.Editor) (bool, error) {
				return ed.RemovePort(args[1], args[2])
			}))("Removed port %s from %s", args[2], args[1])
		},
	}
}

// moveCommand creates the "move" command.
func (c *CLI) moveCommand() *cobra.Command {
	var dx, dy float64

	cmd := &cobra.Command{
		Use:   "move <doc> <id>... --dx N --dy N",
		Short: "Drag entities by an offset; containment is re-resolved on drop",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := args[1:]
			return c.report(c.mutate(cmd.Context(), args[0], func(ed *editor.Editor) (bool, error) {
				return ed.Move(ids, geometry.Vec2{X: dx, Y: dy})
			}))("Moved %s by %g,%g", strings.Join(ids, ", "), dx, dy)
		},
	}

	cmd.Flags().Float64Var(&dx, "dx", 0, "horizontal offset")
	cmd.Flags().Float64Var(&dy, "dy", 0, "vertical offset")
	return cmd
}

// resizeCommand creates the "resize" command.
func (c *CLI) resizeCommand() *cobra.Command {
	var w, h float64

	cmd := &cobra.Command{
		Use:   "resize <doc> <id> --width N --height N",
		Short: "Resize an entity; containers never shrink below the minimum size",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.report(c.mutate(cmd.Context(), args[0], func(ed *editor.Editor) (bool, error) {
				if w <= 0 || h <= 0 {
					return false, errs.New(errs.ErrCodeInvalidInput, "--width and --height must be positive")
				}
				return ed.Resize(args[1], geometry.Size{Width: w, Height: h})
			}))("Resized %s to %gx%g", args[1], w, h)
		},
	}

	cmd.Flags().Float64Var(&w, "width", 0, "new width")
	cmd.Flags().Float64Var(&h, "height", 0, "new height")
	return cmd
}

// collapseCommand creates the "collapse" command.
func (c *CLI) collapseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "collapse <doc> <container>",
		Short: "Toggle whether a container is collapsed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.report(c.mutate(cmd.Context(), args[0], func(ed *editor.Editor) (bool, error) {
				return ed.ToggleCollapse(args[1])
			}))("Toggled %s", args[1])
		},
	}
}

// renameCommand creates the "rename" command.
func (c *CLI) renameCommand() *cobra.Command {
	var port string
	var edge bool

	cmd := &cobra.Command{
		Use:   "rename <doc> <id> <label>",
		Short: "Relabel an entity, one of its ports (--port) or an edge (--edge)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, label := args[1], args[2]
			return c.report(c.mutate(cmd.Context(), args[0], func(ed *editor.Editor) (bool, error) {
				switch {
				case edge:
					return ed.RenameEdge(id, label)
				case port != "":
					return ed.RenamePort(id, port, label)
				}
				return ed.Rename(id, label)
			}))("Renamed %s to %q", id, label)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "rename this port of the entity")
	cmd.Flags().BoolVar(&edge, "edge", false, "the id names an edge")
	return cmd
}

// report turns a mutate result into a success or no-op message.
func (c *CLI) report(changed bool, err error) func(format string, args ...any) error {
	return func(format string, args ...any) error {
		if err != nil {
			return err
		}
		if !changed {
			printWarning("Nothing changed")
			return nil
		}
		printSuccess(format, args...)
		return nil
	}
}
