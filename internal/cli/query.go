package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/nestgraph/pkg/errors"
	"github.com/matzehuels/nestgraph/pkg/geometry"
)

// hitCommand creates the "hit" command.
func (c *CLI) hitCommand() *cobra.Command {
	var x, y float64

	cmd := &cobra.Command{
		Use:   "hit <doc> --x N --y N",
		Short: "Print the topmost visible entity at a world point",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, err := c.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			s := ed.Store()
			id, ok := s.HitTest(geometry.Vec2{X: x, Y: y})
			if !ok {
				printInfo("Nothing at %g,%g", x, y)
				return nil
			}
			e, _ := s.Entity(id)
			fmt.Println(entityLine(e))
			return nil
		},
	}

	cmd.Flags().Float64VarP(&x, "x", "x", 0, "world x")
	cmd.Flags().Float64VarP(&y, "y", "y", 0, "world y")
	return cmd
}

// portPosCommand creates the "port-pos" command.
func (c *CLI) portPosCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "port-pos <doc> <entity> <port>",
		Short: "Print where a port is drawn",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, err := c.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			pos, ok := ed.Store().PortPosition(args[1], args[2])
			if !ok {
				return errs.New(errs.ErrCodeNotFound, "port %q on %q not found", args[2], args[1])
			}
			printKeyValue("x", fmt.Sprintf("%g", pos.X))
			printKeyValue("y", fmt.Sprintf("%g", pos.Y))
			return nil
		},
	}
}
