package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/alnah/lingocast/internal/chapter"
	"github.com/alnah/lingocast/internal/config"
	"github.com/alnah/lingocast/internal/format"
	"github.com/alnah/lingocast/internal/podcast"
)

// stdoutTarget is the -o value that streams audio to stdout.
const stdoutTarget = "-"

// buildOptions holds the parsed flags of the build command.
type buildOptions struct {
	refs   []string
	file   string
	output string
}

// BuildCmd creates the build command.
// The env parameter provides injectable dependencies for testing.
func BuildCmd(env *Env) *cobra.Command {
	var opts buildOptions

	cmd := &cobra.Command{
		Use:   "build [topic/text ...]",
		Short: "Assemble an episode from selected texts",
		Long: `Assemble one MP3 episode from the selected texts.

Each text gets a spoken introduction, a short cue and its narration, and
becomes one chapter of the episode. Narrations are cached, so rebuilding an
episode only synthesizes what changed.

Selections are "topic/text" references, given as arguments or in a JSON
file (-f) holding {"selections":[{"topicId":...,"textId":...}]} or a bare
array. Unknown references are skipped.

Requires OPENAI_API_KEY and ffmpeg.`,
		Example: `  lingocast build berlin/intro berlin/mauer -o berlin.mp3
  lingocast build -f selections.json
  lingocast build wien/prater -o - > prater.mp3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.refs = args
			return runBuild(cmd, env, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "JSON file with selections")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", `Output file, or "-" for stdout (default: lingocast-<timestamp>.mp3)`)

	return cmd
}

// runBuild executes the build pipeline.
// Validation order: selections -> output -> API key -> ffmpeg -> assembly.
func runBuild(cmd *cobra.Command, env *Env, opts buildOptions) error {
	ctx := cmd.Context()

	selections, err := collectSelections(opts.refs, opts.file)
	if err != nil {
		return err
	}

	cfg, logger, err := setup(env)
	if err != nil {
		return err
	}

	toStdout := opts.output == stdoutTarget
	var outputPath string
	if toStdout {
		if env.StdoutIsTerminal() {
			return fmt.Errorf("%w: redirect stdout or use -o <file>", ErrTerminalOutput)
		}
	} else {
		outputPath = config.ResolveOutputPath(opts.output, cfg.OutputDir, defaultEpisodeFilename(env.Now()))
		if err := checkOutputFree(outputPath); err != nil {
			return err
		}
	}

	p, err := newPipeline(ctx, env, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	fmt.Fprintf(env.Stderr, "Assembling %s...\n", plural(len(selections), "selection", "selections"))
	res, err := p.assembler.AssembleWithChapters(ctx, selections)
	if err != nil {
		return err
	}

	if toStdout {
		if _, err := env.Stdout.Write(res.Audio); err != nil {
			return fmt.Errorf("write stdout: %w", err)
		}
	} else if err := writeFileExclusive(outputPath, res.Audio); err != nil {
		return err
	}

	printChapters(env, res.Chapters)
	target := outputPath
	if toStdout {
		target = "stdout"
	}
	fmt.Fprintf(env.Stderr, "Wrote %s (%s, %s) to %s\n",
		plural(len(res.Chapters), "chapter", "chapters"),
		format.Size(int64(len(res.Audio))),
		format.Duration(totalDuration(res.Chapters)),
		target,
	)
	return nil
}

// collectSelections merges argument references and the selections file.
func collectSelections(refs []string, file string) ([]podcast.Selection, error) {
	var selections []podcast.Selection
	for _, ref := range refs {
		sel, err := podcast.ParseSelection(ref)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSelection, err)
		}
		selections = append(selections, sel)
	}

	if file != "" {
		fromFile, err := readSelectionsFile(file)
		if err != nil {
			return nil, err
		}
		selections = append(selections, fromFile...)
	}

	if len(selections) == 0 {
		return nil, fmt.Errorf("%w: pass topic/text arguments or -f <file>", ErrNoSelections)
	}
	return selections, nil
}

// readSelectionsFile accepts {"selections":[...]} or a bare array.
func readSelectionsFile(path string) ([]podcast.Selection, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-specified input file
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("read selections: %w", err)
	}

	var wrapped struct {
		Selections []podcast.Selection `json:"selections"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil {
		return wrapped.Selections, nil
	}
	var bare []podcast.Selection
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidSelection, path, err)
	}
	return bare, nil
}

// defaultEpisodeFilename returns "lingocast-20260126-143052.mp3".
func defaultEpisodeFilename(now time.Time) string {
	return "lingocast-" + now.Format("20060102-150405") + ".mp3"
}

func totalDuration(chapters []chapter.Info) time.Duration {
	if len(chapters) == 0 {
		return 0
	}
	return time.Duration(chapters[len(chapters)-1].EndMs) * time.Millisecond
}

func printChapters(env *Env, chapters []chapter.Info) {
	rows := make([][]string, 0, len(chapters))
	for i, ch := range chapters {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			ch.Title,
			format.Timestamp(ch.StartMs),
			format.Timestamp(ch.EndMs),
		})
	}
	renderTable(env.Stderr, []string{"#", "Chapter", "Start", "End"}, rows, 1, 3, 4)
}
