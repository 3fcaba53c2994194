package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alnah/lingocast/internal/logging"
	"github.com/alnah/lingocast/internal/server"
)

// ServeCmd creates the serve command.
func ServeCmd(env *Env) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve episodes and topic feeds over HTTP",
		Long: `Serve the HTTP API:

  POST /api/podcast                       assemble an episode
  GET  /api/topics                        list topics
  GET  /podcast/topic/{topic}/feed.xml    RSS feed of a topic
  GET  /podcast/topic/{topic}/{text}.mp3  single narration
  GET  /healthz

Feed links use public-url when set, otherwise the request host.
Requires OPENAI_API_KEY and ffmpeg.`,
		Example: `  lingocast serve
  lingocast serve --addr 127.0.0.1:9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, env, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: listen-addr setting)")

	return cmd
}

func runServe(cmd *cobra.Command, env *Env, addr string) error {
	ctx := cmd.Context()
	cfg, logger, err := setup(env)
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.ListenAddr
	}

	p, err := newPipeline(ctx, env, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	srv := server.New(p.assembler,
		server.WithPublicURL(cfg.PublicURL),
		server.WithNarrationPaths(p.cache),
		server.WithLogger(logging.Component(logger, "http")),
	)
	fmt.Fprintf(env.Stderr, "Serving on %s (Ctrl+C to stop)\n", addr)
	return srv.Run(ctx, addr)
}
