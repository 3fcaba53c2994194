package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/lingocast/internal/config"
)

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in $XDG_CONFIG_HOME/lingocast/config.toml
(default ~/.config/lingocast/config.toml). Every key falls back to the
LINGOCAST_<KEY> environment variable, e.g. LINGOCAST_CONTENT_DIR.

Supported settings:
  ` + strings.Join(config.Keys(), "\n  "),
		Example: `  lingocast config set content-dir ~/lingoflow/content
  lingocast config set tts-voice nova
  lingocast config get cache-dir
  lingocast config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value in the config file.

output-dir is created if it doesn't exist.`,
		Example: `  lingocast config set output-dir ~/Podcasts
  lingocast config set tts-speed 0.9`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Print the effective value of a key: the config file, then the
environment, then the default. Prints nothing if unset.`,
		Example: `  lingocast config get content-dir`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List all configuration values",
		Long:    `List every key with its effective value and where it comes from.`,
		Example: `  lingocast config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

func runConfigSet(env *Env, key, value string) error {
	if strings.HasSuffix(key, "-dir") {
		value = config.ExpandPath(value)
	}
	if err := config.Set(key, value); err != nil {
		return err
	}
	fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, value)
	return nil
}

func runConfigGet(env *Env, key string) error {
	if _, err := config.Get(key); err != nil {
		return err
	}
	settings, err := config.Describe()
	if err != nil {
		return err
	}
	for _, s := range settings {
		if s.Key == key && s.Value != "" {
			fmt.Fprintln(env.Stdout, s.Value)
		}
	}
	return nil
}

func runConfigList(env *Env) error {
	settings, err := config.Describe()
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(settings))
	for _, s := range settings {
		rows = append(rows, []string{s.Key, s.Value, s.Source})
	}
	renderTable(env.Stdout, []string{"Key", "Value", "Source"}, rows)
	return nil
}
