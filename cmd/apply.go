package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"restitch/edit"
	"restitch/parse"
	"restitch/report"
)

const applyLongDescription = `Apply the edit blocks found in a model reply to FILE.

The reply is read from the REPLY argument or from stdin. Nothing is written
back unless --write or --output is given; by default the patched content goes
to stdout and the per-block report to stderr.

The reply grammar pairs a search section with a replace section per block:

  # near line 42        (optional hint, used as a last-resort line target)
  <<<SEARCH>>>
  text expected in FILE (empty for pure insertion)
  <<<REPLACE>>>
  replacement text      (empty for deletion)
  <<<END>>>`

func newApplyCmd() *cobra.Command {
	var (
		writeInPlace bool
		outputPath   string
		showDiff     bool
		formatFlag   string
		partialOK    bool
		noColor      bool
		verboseFlag  bool
		logFileFlag  string
	)

	cmd := &cobra.Command{
		Use:   "apply FILE [REPLY]",
		Short: "Apply a model reply's edit blocks to FILE",
		Long:  applyLongDescription,
		Args:  cobra.RangeArgs(1, 2),
		// A partial patch is a domain outcome, not a usage mistake.
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configureLogger(logFileFlag, verboseFlag)

			original, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			reply, err := readReply(cmd, args)
			if err != nil {
				return fmt.Errorf("failed to read reply: %w", err)
			}

			insts, diags := parse.Reply(reply)
			for _, d := range diags {
				slog.Warn("dropped malformed block", "line", d.Line, "reason", d.Reason)
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: dropped block at %s\n", d)
			}

			opts := edit.Options{
				FuzzyThreshold: viper.GetFloat64(fuzzyThresholdKey),
				WindowSlack:    viper.GetInt(windowSlackKey),
			}
			res := edit.ApplyWithOptions(string(original), insts, opts)

			added, removed := report.ChangeStats(string(original), res.NewContent)
			slog.Info("patch run finished",
				"file", args[0],
				"blocks", len(insts),
				"applied", res.TotalApplied,
				"failed", res.TotalFailed,
				"bytes_added", added,
				"bytes_removed", removed,
			)

			if err := emit(cmd, args[0], res, formatFlag, showDiff, !noColor, string(original)); err != nil {
				return err
			}

			if err := writeResult(args[0], outputPath, writeInPlace, res); err != nil {
				return err
			}

			if !res.IsFullyApplied && !partialOK {
				return fmt.Errorf("patch incomplete: %s", res.StatusMessage)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&writeInPlace, "write", "w", false, "rewrite FILE in place with the patched content")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the patched content to this path")
	cmd.Flags().BoolVarP(&showDiff, "diff", "d", false, "print a unified diff preview instead of the patched content")
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "text", "report format: text, json or yaml")
	cmd.Flags().BoolVar(&partialOK, "partial-ok", false, "exit zero even when some blocks were not applied")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored status badges")
	cmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "log at debug level")
	cmd.Flags().StringVar(&logFileFlag, "log-file", "", "log file path (default "+defaultLogFilename+")")

	cmd.Flags().Float64(fuzzyThresholdFlagName, defaultFuzzyThreshold, "minimum similarity score for fuzzy matches")
	bindFlagToConfig(cmd.Flags().Lookup(fuzzyThresholdFlagName), fuzzyThresholdKey)
	cmd.Flags().Int(windowSlackFlagName, defaultWindowSlack, "fuzzy window size tolerance in lines")
	bindFlagToConfig(cmd.Flags().Lookup(windowSlackFlagName), windowSlackKey)

	return cmd
}

// applyCmd represents the apply command.
var applyCmd = newApplyCmd()

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values
// feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}
	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// readReply loads the model reply from the second argument or stdin.
func readReply(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 1 {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// emit prints the report to stderr and the requested payload to stdout.
func emit(cmd *cobra.Command, name string, res edit.Result, format string, showDiff, color bool, original string) error {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	switch format {
	case "json":
		return report.WriteJSON(out, res)
	case "yaml":
		return report.WriteYAML(out, res)
	case "text":
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}

	report.WriteTable(errOut, res, color)

	if showDiff {
		diff, err := report.UnifiedDiff(original, res.NewContent, name)
		if err != nil {
			return fmt.Errorf("failed to build diff preview: %w", err)
		}
		fmt.Fprint(out, diff)
		return nil
	}
	fmt.Fprint(out, res.NewContent)
	return nil
}

// writeResult persists the patched content when asked to. The engine itself
// never touches the filesystem; this is the only write path.
func writeResult(file, outputPath string, inPlace bool, res edit.Result) error {
	target := ""
	switch {
	case inPlace:
		target = file
	case outputPath != "":
		target = outputPath
	default:
		return nil
	}
	if err := os.WriteFile(target, []byte(res.NewContent), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	slog.Info("wrote patched content", "path", target)
	return nil
}
