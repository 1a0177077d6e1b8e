package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/nestgraph/pkg/graph"
)

// Graphviz layout engines accepted by [RenderSVG].
const (
	LayoutDot   = "dot"
	LayoutFDP   = "fdp"
	LayoutNeato = "neato"
)

// Options configures diagram generation.
type Options struct {
	// Detailed appends each entity's data bag to its label.
	Detailed bool

	// RankDir is the Graphviz rank direction, "TB" when empty.
	RankDir string
}

// ToDOT converts the visible part of a store to Graphviz DOT.
//
// Expanded containers become clusters holding their members. Each cluster
// also holds an invisible point named after the container, so edges ending
// on the container clip to the cluster border. Collapsed containers become
// record nodes listing their ports and proxy ports; hidden members are
// omitted, and edges are redrawn between visible representatives.
func ToDOT(s *graph.Store, opts Options) string {
	rankdir := opts.RankDir
	if rankdir == "" {
		rankdir = "TB"
	}
	w := &dotWriter{s: s, opts: opts, fields: make(map[string]map[string]string)}
	w.line(0, "digraph G {")
	w.line(1, "rankdir=%s;", rankdir)
	w.line(1, "compound=true;")
	w.line(1, "bgcolor=\"transparent\";")
	w.line(1, "node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];")
	w.line(1, "ranksep=0.5;")
	w.line(1, "nodesep=0.3;")
	w.buf.WriteString("\n")

	for _, id := range s.Roots() {
		w.entity(id, 1)
	}

	edges := s.VisibleEdges()
	if len(edges) > 0 {
		w.buf.WriteString("\n")
	}
	for _, e := range edges {
		w.edge(e)
	}
	w.line(0, "}")
	return w.buf.String()
}

type dotWriter struct {
	s    *graph.Store
	opts Options
	buf  bytes.Buffer
	// fields maps entity id -> port id -> record field name.
	fields map[string]map[string]string
}

func (w *dotWriter) line(depth int, format string, args ...any) {
	w.buf.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(&w.buf, format, args...)
	w.buf.WriteByte('\n')
}

func (w *dotWriter) entity(id string, depth int) {
	e, ok := w.s.Entity(id)
	if !ok {
		return
	}
	if e.IsContainer() && !e.Collapsed {
		w.cluster(e, depth)
		return
	}
	ports := w.s.RenderablePorts(id)
	attrs := []string{}
	if len(ports) > 0 {
		attrs = append(attrs, "shape=record", "label="+recordQuote(w.recordLabel(e, ports)))
	} else {
		attrs = append(attrs, "label="+quote(w.label(e)))
	}
	if e.IsContainer() {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	}
	w.line(depth, "%q [%s];", e.ID, strings.Join(attrs, ", "))
}

func (w *dotWriter) cluster(c *graph.Entity, depth int) {
	w.line(depth, "subgraph %q {", "cluster_"+c.ID)
	w.line(depth+1, "label=%s;", quote(w.label(c)))
	w.line(depth+1, "style=\"rounded\";")
	w.line(depth+1, "%q [shape=point, width=0.01, style=invis, label=\"\"];", c.ID)
	for _, id := range c.NodeIDs {
		w.entity(id, depth+1)
	}
	for _, id := range c.ChildContainerIDs {
		w.entity(id, depth+1)
	}
	w.line(depth, "}")
}

func (w *dotWriter) edge(e graph.VisibleEdge) {
	attrs := []string{}
	if e.Edge.Label != "" {
		attrs = append(attrs, "label="+quote(e.Edge.Label))
	}
	if c, ok := w.s.Container(e.Source); ok && !c.Collapsed {
		attrs = append(attrs, fmt.Sprintf("ltail=%q", "cluster_"+c.ID))
	}
	if c, ok := w.s.Container(e.Target); ok && !c.Collapsed {
		attrs = append(attrs, fmt.Sprintf("lhead=%q", "cluster_"+c.ID))
	}
	line := w.endpoint(e.Source, e.SourcePort) + " -> " + w.endpoint(e.Target, e.TargetPort)
	if len(attrs) > 0 {
		line += " [" + strings.Join(attrs, ", ") + "]"
	}
	w.line(1, "%s;", line)
}

func (w *dotWriter) endpoint(id, port string) string {
	if f, ok := w.fields[id][port]; ok && port != "" {
		return strconv.Quote(id) + ":" + f
	}
	return strconv.Quote(id)
}

func (w *dotWriter) label(e *graph.Entity) string {
	label := e.DisplayLabel()
	if !w.opts.Detailed || len(e.Data) == 0 {
		return label
	}
	parts := []string{label}
	for _, k := range slices.Sorted(maps.Keys(e.Data)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, e.Data[k]))
	}
	return strings.Join(parts, "\n")
}

// recordLabel lays the title over a row of port fields. Field names are
// positional so that arbitrary port ids never need escaping.
func (w *dotWriter) recordLabel(e *graph.Entity, ports []graph.Port) string {
	names := make(map[string]string, len(ports))
	fields := make([]string, 0, len(ports))
	for _, p := range ports {
		if _, dup := names[p.ID]; dup {
			continue
		}
		name := "p" + strconv.Itoa(len(fields))
		names[p.ID] = name
		label := p.Label
		if label == "" {
			label = p.ID
		}
		fields = append(fields, "<"+name+"> "+escapeRecord(label))
	}
	w.fields[e.ID] = names
	return "{" + escapeRecord(w.label(e)) + "|{" + strings.Join(fields, "|") + "}}"
}

var recordSpecial = strings.NewReplacer(
	`\`, `\\`, `{`, `\{`, `}`, `\}`, `|`, `\|`, `<`, `\<`, `>`, `\>`, "\n", `\n`,
)

func escapeRecord(s string) string { return recordSpecial.Replace(s) }

var dotSpecial = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// quote renders s as a DOT string literal.
func quote(s string) string { return `"` + dotSpecial.Replace(s) + `"` }

// recordQuote wraps an already escaped record label, keeping its
// backslash escapes intact.
func recordQuote(s string) string { return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"` }

// RenderSVG renders DOT source to SVG with the given Graphviz layout engine
// ("dot" when empty).
func RenderSVG(dot, layout string) ([]byte, error) {
	if layout == "" {
		layout = LayoutDot
	}
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.Layout(layout))

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized svg tag with a unitless one
// anchored at the origin.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
