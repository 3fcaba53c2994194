package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alnah/lingocast/internal/logging"
)

// TopicsCmd creates the topics command.
func TopicsCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "List topics and their texts",
		Long: `List every topic in the content directory with its texts.

The "Selection" column is the reference to pass to "lingocast build".`,
		Example: `  lingocast topics`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTopics(cmd, env)
		},
	}
}

func runTopics(cmd *cobra.Command, env *Env) error {
	cfg, logger, err := setup(env)
	if err != nil {
		return err
	}

	store := env.StoreFactory.NewStore(cfg.ContentDir, logging.Component(logger, "content"))
	topics, err := store.Topics(cmd.Context())
	if err != nil {
		return err
	}
	if len(topics) == 0 {
		fmt.Fprintf(env.Stderr, "No topics found in %s\n", cfg.ContentDir)
		return nil
	}

	var rows [][]string
	for _, topic := range topics {
		for _, text := range topic.Texts {
			rows = append(rows, []string{
				topic.Title,
				text.Title,
				topic.ID + "/" + text.ID,
				strconv.Itoa(len(text.Content)),
			})
		}
	}
	renderTable(env.Stdout, []string{"Topic", "Text", "Selection", "Paragraphs"}, rows, 4)
	return nil
}
