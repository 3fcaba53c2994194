package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alnah/lingocast/internal/format"
	"github.com/alnah/lingocast/internal/logging"
	"github.com/alnah/lingocast/internal/podcast"
)

// CacheCmd creates the cache command with subcommands.
func CacheCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and prune cached narrations",
		Long: `Inspect and prune the narration cache.

Narrations are synthesized once per text and reused by later builds.
Removing an entry forces the next build to synthesize it again.`,
		Example: `  lingocast cache list
  lingocast cache rm berlin/intro
  lingocast cache clear`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List cached narrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheList(cmd, env)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <topic/text>",
		Short: "Remove one cached narration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheRemove(cmd, env, args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached narration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheClear(cmd, env)
		},
	})

	return cmd
}

func runCacheList(cmd *cobra.Command, env *Env) error {
	ctx := cmd.Context()
	cfg, logger, err := setup(env)
	if err != nil {
		return err
	}
	c, err := env.CacheFactory.OpenCache(ctx, cfg.CacheDir, logging.Component(logger, "cache"))
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	entries, err := c.Entries(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(env.Stderr, "Cache is empty (%s)\n", c.Dir())
		return nil
	}

	var total int64
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		total += e.Size
		rows = append(rows, []string{
			e.TopicID + "/" + e.TextID,
			format.Size(e.Size),
			strconv.FormatInt(e.Hits, 10),
			e.Modified.Local().Format("2006-01-02 15:04"),
		})
	}
	renderTable(env.Stdout, []string{"Selection", "Size", "Hits", "Modified"}, rows, 2, 3)
	fmt.Fprintf(env.Stderr, "%s, %s\n", plural(len(entries), "entry", "entries"), format.Size(total))
	return nil
}

func runCacheRemove(cmd *cobra.Command, env *Env, ref string) error {
	ctx := cmd.Context()
	sel, err := podcast.ParseSelection(ref)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSelection, err)
	}

	cfg, logger, err := setup(env)
	if err != nil {
		return err
	}
	c, err := env.CacheFactory.OpenCache(ctx, cfg.CacheDir, logging.Component(logger, "cache"))
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if err := c.Remove(ctx, sel.TopicID, sel.TextID); err != nil {
		return err
	}
	fmt.Fprintf(env.Stderr, "Removed %s\n", sel)
	return nil
}

func runCacheClear(cmd *cobra.Command, env *Env) error {
	ctx := cmd.Context()
	cfg, logger, err := setup(env)
	if err != nil {
		return err
	}
	c, err := env.CacheFactory.OpenCache(ctx, cfg.CacheDir, logging.Component(logger, "cache"))
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	n, err := c.Clear(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.Stderr, "Removed %s\n", plural(n, "entry", "entries"))
	return nil
}
