package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nestgraph/pkg/buildinfo"
	"github.com/matzehuels/nestgraph/pkg/cache"
	"github.com/matzehuels/nestgraph/pkg/config"
	"github.com/matzehuels/nestgraph/pkg/editor"
	errs "github.com/matzehuels/nestgraph/pkg/errors"
	"github.com/matzehuels/nestgraph/pkg/graph"
	"github.com/matzehuels/nestgraph/pkg/history"
	"github.com/matzehuels/nestgraph/pkg/storage"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath overrides the default config file location.
	ConfigPath string

	cfg *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          config.AppName,
		Short:        "nestgraph edits diagrams of nested containers",
		Long:         `nestgraph edits diagrams whose nodes live inside nested, collapsible containers. Documents are kept in a configurable store and can be rendered with Graphviz, served over HTTP or browsed in the terminal.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default "+config.DefaultPath()+")")

	root.AddCommand(c.newCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.dropCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.addCommand())
	root.AddCommand(c.rmCommand())
	root.AddCommand(c.rmPortCommand())
	root.AddCommand(c.moveCommand())
	root.AddCommand(c.resizeCommand())
	root.AddCommand(c.collapseCommand())
	root.AddCommand(c.renameCommand())
	root.AddCommand(c.hitCommand())
	root.AddCommand(c.portPosCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Shared Resources
// =============================================================================

// loadConfig loads the configuration once per process.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *CLI) openStorage(ctx context.Context) (storage.Store, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	switch cfg.Storage.Backend {
	case config.BackendMongo, config.BackendNeo4j:
		sp := newSpinner(ctx, os.Stderr, "Connecting to "+cfg.Storage.Backend)
		sp.Start()
		defer sp.Stop()
	}
	return storage.Open(ctx, cfg.Storage, c.Logger)
}

func (c *CLI) openCache(ctx context.Context, noCache bool) cache.Cache {
	cfg, err := c.loadConfig()
	if err != nil || noCache {
		return cache.NewNullCache()
	}
	ch, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		c.Logger.Warn("cache unavailable, rendering uncached", "err", err)
		return cache.NewNullCache()
	}
	return ch
}

// cacheKeyer returns the render cache keyer configured by [cache].
func (c *CLI) cacheKeyer() cache.Keyer {
	cfg, err := c.loadConfig()
	if err != nil {
		return cache.NewDefaultKeyer()
	}
	return cache.KeyerFor(cfg.Cache)
}

// newEditor wraps doc in an editor configured from the config file.
func (c *CLI) newEditor(doc graph.Document) (*editor.Editor, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	st, err := graph.FromDocument(doc, graph.WithSizing(cfg.GraphSizing()), graph.WithLogger(c.Logger))
	if err != nil {
		return nil, err
	}
	return editor.New(st,
		editor.WithLogger(c.Logger),
		editor.WithHistory(history.NewManager(cfg.Editor.HistoryCapacity, history.WithLogger(c.Logger))),
		editor.WithPasteOffset(cfg.PasteOffset()),
	), nil
}

// load opens the named document for reading.
func (c *CLI) load(ctx context.Context, name string) (*editor.Editor, error) {
	if err := errs.ValidateDocumentName(name); err != nil {
		return nil, err
	}
	store, err := c.openStorage(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	doc, err := store.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.newEditor(doc)
}

// mutate loads a document, runs fn and saves the result if fn changed it.
func (c *CLI) mutate(ctx context.Context, name string, fn func(*editor.Editor) (bool, error)) (bool, error) {
	if err := errs.ValidateDocumentName(name); err != nil {
		return false, err
	}
	store, err := c.openStorage(ctx)
	if err != nil {
		return false, err
	}
	defer store.Close()

	doc, err := store.Load(ctx, name)
	if err != nil {
		return false, err
	}
	ed, err := c.newEditor(doc)
	if err != nil {
		return false, err
	}
	changed, err := fn(ed)
	if err != nil || !changed {
		return false, err
	}
	if err := store.Save(ctx, name, ed.Document()); err != nil {
		return false, fmt.Errorf("save %s: %w", name, err)
	}
	return true, nil
}
