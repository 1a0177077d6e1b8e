package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nestgraph/pkg/graph"
	graphio "github.com/matzehuels/nestgraph/pkg/io"
	"github.com/matzehuels/nestgraph/pkg/render"
	"github.com/matzehuels/nestgraph/pkg/render/nodelink"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string   // output file (single format) or base path
	formats  []string // "dot", "svg", "pdf", "png", "json"
	layout   string   // Graphviz engine
	rankdir  string   // Graphviz rank direction
	detailed bool     // append entity data to labels
	scale    float64  // PNG scale
	noCache  bool     // bypass the render cache
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{layout: nodelink.LayoutDot, rankdir: "TB", scale: 2}

	cmd := &cobra.Command{
		Use:   "render <doc>",
		Short: "Render a document with Graphviz",
		Long: `Render a document with Graphviz.

Expanded containers are drawn as clusters, collapsed ones as record nodes
listing their proxy ports. DOT and SVG output is cached by document content.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple); - for stdout")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, pdf, png, json (comma-separated)")
	cmd.Flags().StringVar(&opts.layout, "layout", opts.layout, "Graphviz layout engine: dot, fdp, neato")
	cmd.Flags().StringVar(&opts.rankdir, "rankdir", opts.rankdir, "rank direction: TB, LR, BT, RL")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include entity data in labels")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the render cache")
	return cmd
}

// parseFormats parses the --format flag. Empty means svg.
func parseFormats(s string) []string {
	if s == "" {
		return []string{nodelink.FormatSVG}
	}
	return strings.Split(s, ",")
}

var validFormats = map[string]bool{"dot": true, "svg": true, "pdf": true, "png": true, "json": true}

func validateFormats(formats []string) error {
	for _, f := range formats {
		if !validFormats[f] {
			return fmt.Errorf("invalid format: %s (must be 'svg', 'dot', 'pdf', 'png' or 'json')", f)
		}
	}
	return nil
}

// basePath strips a known format extension from output, or falls back to
// the document name.
func basePath(output, name string) string {
	if output == "" {
		return name
	}
	ext := filepath.Ext(output)
	if validFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func (c *CLI) runRender(ctx context.Context, name string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	ed, err := c.load(ctx, name)
	if err != nil {
		return err
	}
	s := ed.Store()
	logger.Debug("loaded document", "name", name, "nodes", s.NodeCount(), "containers", s.ContainerCount(), "edges", s.EdgeCount())

	ch := c.openCache(ctx, opts.noCache)
	defer ch.Close()
	ttl := c.cacheTTL()
	r := nodelink.NewRenderer(ch, ttl, nodelink.Options{RankDir: opts.rankdir, Detailed: opts.detailed}, logger,
		nodelink.WithKeyer(c.cacheKeyer()))

	base := basePath(opts.output, name)
	for _, format := range opts.formats {
		data, err := renderFormat(ctx, r, s, format, opts)
		if errors.Is(err, render.ErrNoConverter) {
			printWarning("Skipping %s: %v", format, err)
			continue
		}
		if err != nil {
			return fmt.Errorf("%s: %w", format, err)
		}

		path := base + "." + format
		if opts.output == "-" {
			path = ""
		} else if len(opts.formats) == 1 && opts.output != "" {
			path = opts.output
		}
		if err := writeOutput(path, data); err != nil {
			return err
		}
		if path != "" {
			prog.done("Rendered " + path)
		}
	}
	return nil
}

func renderFormat(ctx context.Context, r *nodelink.Renderer, s *graph.Store, format string, opts *renderOpts) ([]byte, error) {
	switch format {
	case nodelink.FormatDOT, nodelink.FormatSVG:
		return r.Render(ctx, s, format, opts.layout)
	case "json":
		return graphio.Marshal(s.ExportState())
	}
	svg, err := r.Render(ctx, s, nodelink.FormatSVG, opts.layout)
	if err != nil {
		return nil, err
	}
	if format == "pdf" {
		return render.ToPDF(svg)
	}
	return render.ToPNG(svg, opts.scale)
}

// cacheTTL returns the configured render cache lifetime, or zero (never
// expire) when the config is unreadable.
func (c *CLI) cacheTTL() (ttl time.Duration) {
	cfg, err := c.loadConfig()
	if err != nil {
		return 0
	}
	ttl, err = cfg.Cache.TTLDuration()
	if err != nil {
		c.Logger.Warn("invalid cache ttl", "ttl", cfg.Cache.TTL, "err", err)
		return 0
	}
	return ttl
}

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = out.Write(data)
	return err
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
