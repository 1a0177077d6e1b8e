package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/nestgraph/internal/server"
	"github.com/matzehuels/nestgraph/pkg/render/nodelink"
)

// serveCommand creates the "serve" command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr, origin string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the editing API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			store, err := c.openStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			ch := c.openCache(ctx, noCache)
			defer ch.Close()
			renderer := nodelink.NewRenderer(ch, c.cacheTTL(), nodelink.Options{}, c.Logger,
				nodelink.WithKeyer(c.cacheKeyer()))

			srv := server.New(store,
				server.WithLogger(c.Logger),
				server.WithRenderer(renderer),
				server.WithSizing(cfg.GraphSizing()),
				server.WithHistoryCapacity(cfg.Editor.HistoryCapacity),
				server.WithPasteOffset(cfg.PasteOffset()),
				server.WithCORSOrigin(origin),
			)
			printInfo("Serving on %s", StyleLink.Render("http://"+displayAddr(addr)))
			printDetail("storage: %s", cfg.Storage.Backend)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&origin, "cors-origin", "", "allow browser requests from this origin")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the render cache")
	return cmd
}

// displayAddr turns ":8080" into "localhost:8080".
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
