package nodelink

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nestgraph/pkg/cache"
	"github.com/matzehuels/nestgraph/pkg/graph"
	graphio "github.com/matzehuels/nestgraph/pkg/io"
	"github.com/matzehuels/nestgraph/pkg/observability"
)

// Output formats produced by [Renderer].
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
)

// Renderer renders documents through a cache. Cache failures are logged and
// never fail a render.
type Renderer struct {
	cache  cache.Cache
	keyer  cache.Keyer
	ttl    time.Duration
	opts   Options
	logger *log.Logger
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithKeyer sets how cache keys are built. Defaults to cache.NewDefaultKeyer().
func WithKeyer(k cache.Keyer) RendererOption {
	return func(r *Renderer) {
		if k != nil {
			r.keyer = k
		}
	}
}

// NewRenderer returns a renderer backed by c. A nil cache disables caching.
func NewRenderer(c cache.Cache, ttl time.Duration, opts Options, logger *log.Logger, ropts ...RendererOption) *Renderer {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	r := &Renderer{cache: c, keyer: cache.NewDefaultKeyer(), ttl: ttl, opts: opts, logger: logger}
	for _, opt := range ropts {
		opt(r)
	}
	return r
}

// Render returns the document in the given format ("dot" or "svg"),
// laid out with the given Graphviz engine.
func (r *Renderer) Render(ctx context.Context, s *graph.Store, format, layout string) ([]byte, error) {
	if layout == "" {
		layout = LayoutDot
	}
	if format != FormatDOT && format != FormatSVG {
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	data, err := graphio.Marshal(s.ExportState())
	if err != nil {
		return nil, err
	}
	key := r.keyer.RenderKey(cache.Hash(data), cache.RenderKeyOpts{
		Format:   format,
		Layout:   layout,
		RankDir:  r.opts.RankDir,
		Detailed: r.opts.Detailed,
	})
	hooks := observability.Cache()

	if out, ok, err := r.cache.Get(ctx, key); err != nil {
		r.logger.Warn("render cache read failed", "err", err)
	} else if ok {
		hooks.OnCacheHit(ctx, format)
		return out, nil
	}
	hooks.OnCacheMiss(ctx, format)

	dot := ToDOT(s, r.opts)
	out := []byte(dot)
	if format == FormatSVG {
		if out, err = RenderSVG(dot, layout); err != nil {
			return nil, err
		}
	}

	if err := r.cache.Set(ctx, key, out, r.ttl); err != nil {
		r.logger.Warn("render cache write failed", "err", err)
	} else {
		hooks.OnCacheSet(ctx, format, len(out))
	}
	return out, nil
}
