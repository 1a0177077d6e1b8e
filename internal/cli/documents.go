package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nestgraph/pkg/editor"
	errs "github.com/matzehuels/nestgraph/pkg/errors"
	"github.com/matzehuels/nestgraph/pkg/graph"
	graphio "github.com/matzehuels/nestgraph/pkg/io"
)

// newCommand creates the "new" command.
func (c *CLI) newCommand() *cobra.Command {
	var demo, force bool

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create an empty document, or the demo diagram with --demo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var doc graph.Document
			if demo {
				doc = editor.DemoDocument()
			}
			return c.create(cmd.Context(), args[0], doc, force)
		},
	}

	cmd.Flags().BoolVar(&demo, "demo", false, "start from the demo diagram")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing document")
	return cmd
}

// importCommand creates the "import" command.
func (c *CLI) importCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "import <name> <file.json>",
		Short: "Import a JSON document into the store",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := graphio.ImportJSON(args[1])
			if err != nil {
				return err
			}
			return c.create(cmd.Context(), args[0], st.ExportState(), force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing document")
	return cmd
}

func (c *CLI) create(ctx context.Context, name string, doc graph.Document, force bool) error {
	if err := errs.ValidateDocumentName(name); err != nil {
		return err
	}
	ed, err := c.newEditor(doc)
	if err != nil {
		return err
	}
	store, err := c.openStorage(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if !force {
		if _, err := store.Load(ctx, name); err == nil {
			return errs.New(errs.ErrCodeDuplicateID, "document %q already exists (use --force to overwrite)", name)
		} else if !errs.IsNotFound(err) {
			return err
		}
	}
	doc = ed.Document()
	if err := store.Save(ctx, name, doc); err != nil {
		return err
	}
	printSuccess("Created %s", StyleHighlight.Render(name))
	printCounts(len(doc.Nodes), len(doc.Containers), len(doc.Edges))
	printNextStep("Inspect it", "nestgraph tree "+name)
	return nil
}

// listCommand creates the "list" command.
func (c *CLI) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored documents",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			infos, err := store.List(ctx)
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				printInfo("No documents")
				printNextStep("Create one", "nestgraph new --demo demo")
				return nil
			}

			rows := make([][]string, 0, len(infos))
			for _, in := range infos {
				rows = append(rows, []string{
					in.Name,
					fmt.Sprint(in.Nodes),
					fmt.Sprint(in.Containers),
					fmt.Sprint(in.Edges),
					in.UpdatedAt.Local().Format(time.DateTime),
				})
			}
			headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
				Headers("Document", "Nodes", "Containers", "Edges", "Updated").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					switch {
					case row == -1:
						return headerStyle
					case col == 0:
						return StyleHighlight
					case col == 4:
						return StyleDim
					}
					return StyleNumber
				})
			fmt.Println(t.Render())
			return nil
		},
	}
}

// dropCommand creates the "drop" command.
func (c *CLI) dropCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "drop <name>",
		Short: "Delete a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := errs.ValidateDocumentName(name); err != nil {
				return err
			}
			ctx := cmd.Context()
			store, err := c.openStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(ctx, name); err != nil {
				return err
			}
			printSuccess("Dropped %s", name)
			return nil
		},
	}
}

// exportCommand creates the "export" command.
func (c *CLI) exportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <name>",
		Short: "Write a document as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, err := c.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return graphio.WriteJSON(ed.Store(), os.Stdout)
			}
			if err := graphio.ExportJSON(ed.Store(), output); err != nil {
				return err
			}
			printSuccess("Exported %s", args[0])
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

// validateCommand creates the "validate" command.
func (c *CLI) validateCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate [name]",
		Short: "Check a stored document or a JSON file for broken invariants",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				st   *graph.Store
				what string
			)
			switch {
			case file != "":
				// ImportJSON already validated; a failure here is the report.
				s, err := graphio.ImportJSON(file)
				if err != nil {
					printError("%s: %s", file, errs.UserMessage(err))
					return err
				}
				st, what = s, file
			case len(args) == 1:
				ed, err := c.load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				st, what = ed.Store(), args[0]
			default:
				return errs.New(errs.ErrCodeInvalidInput, "name a document or pass --file")
			}

			if err := st.Validate(); err != nil {
				printError("%s is invalid", what)
				printDetail("%s", err)
				return err
			}
			printSuccess("%s is valid", what)
			printCounts(st.NodeCount(), st.ContainerCount(), st.EdgeCount())
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "validate a JSON file instead of a stored document")
	return cmd
}

// treeCommand creates the "tree" command.
func (c *CLI) treeCommand() *cobra.Command {
	var edges bool

	cmd := &cobra.Command{
		Use:   "tree <name>",
		Short: "Print the containment hierarchy of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, err := c.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			s := ed.Store()
			fmt.Println(renderTree(s, args[0]))
			if edges {
				printNewline()
				for _, e := range s.VisibleEdges() {
					fmt.Println("  " + edgeLine(e))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&edges, "edges", "e", false, "also list visible edges")
	return cmd
}

// edgeLine formats a visible edge as "src:port → dst:port (id)".
func edgeLine(e graph.VisibleEdge) string {
	end := func(id, port string) string {
		if port == "" {
			return StyleValue.Render(id)
		}
		return StyleValue.Render(id) + StyleDim.Render(":"+port)
	}
	line := end(e.Source, e.SourcePort) + " " + StyleDim.Render(iconArrow) + " " + end(e.Target, e.TargetPort)
	if e.Edge.Label != "" {
		line += " " + StyleHighlight.Render(e.Edge.Label)
	}
	return line + " " + StyleDim.Render("("+e.Edge.ID+")")
}
