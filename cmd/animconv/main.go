// animconv converts skeleton animation files between the binary .anim form
// and an editable .txt form.
//
// Usage:
//
//	animconv <file.anim|file.txt> [-s]
//
// A .anim input produces a .txt next to it and vice versa. -s suppresses the
// pause after an error.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/animconv/internal/config"
	"github.com/Faultbox/animconv/internal/convert"
	"github.com/Faultbox/animconv/internal/logger"
)

// errReported marks failures whose message has already been printed.
var errReported = errors.New("reported")

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd(stdin io.Reader, stdout io.Writer) *cobra.Command {
	var flags config.Flags
	var output string

	cmd := &cobra.Command{
		Use:   "animconv <file.anim|file.txt>",
		Short: "Convert skeleton animation files between .anim and .txt",
		Long: `animconv converts skeleton animation files.

  file.anim -> file.txt   decode the binary form to editable text
  file.txt  -> file.anim  encode edited text back to the binary form

Settings are read from ./animconv.yaml or the user config directory and may be
overridden by flags.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	flags.Bind(cmd.Flags())
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this path instead of the derived one")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		fail := func(pause bool, msg string) error {
			fmt.Fprintln(stdout, msg)
			if pause {
				fmt.Fprint(stdout, "Press Enter to continue...")
				bufio.NewReader(stdin).ReadString('\n')
				fmt.Fprintln(stdout)
			}
			return errReported
		}

		switch {
		case len(args) == 0:
			return fail(!flags.Silent, "Please specify an input file.")
		case len(args) > 1:
			return fail(!flags.Silent, "Too many arguments. If you meant to run in silent mode, use the -s flag.")
		}

		cfg, err := config.Load(&flags)
		if err != nil {
			return fail(!flags.Silent, fmt.Sprintf("Error: %v", err))
		}

		if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile, cfg.Console.Silent); err != nil {
			return fail(cfg.ShouldPause(), fmt.Sprintf("Error: initializing logger: %v", err))
		}
		defer logger.Sync()

		if flags.SaveConfig != "" {
			if err := cfg.SaveTo(flags.SaveConfig); err != nil {
				logger.Log.Warn("saving config", zap.String("path", flags.SaveConfig), zap.Error(err))
			} else {
				logger.Log.Info("saved config", zap.String("path", flags.SaveConfig))
			}
		}

		opts, err := convertOptions(cfg, output)
		if err != nil {
			return fail(cfg.ShouldPause(), fmt.Sprintf("Error: %v", err))
		}

		if _, err := convert.File(args[0], opts); err != nil {
			logger.Log.Error("conversion failed", zap.String("input", args[0]), zap.Error(err))
			return fail(cfg.ShouldPause(), userMessage(err))
		}
		return nil
	}

	return cmd
}

// convertOptions resolves the conversion settings from cfg.
func convertOptions(cfg *config.Config, output string) (convert.Options, error) {
	textOpts, err := cfg.TextOptions()
	if err != nil {
		return convert.Options{}, err
	}
	padding, err := cfg.PaddingMode()
	if err != nil {
		return convert.Options{}, err
	}
	return convert.Options{
		Text:    textOpts,
		Padding: padding,
		Output:  output,
		Logger:  logger.Log,
	}, nil
}

// userMessage returns the console text for a conversion error.
func userMessage(err error) string {
	switch {
	case errors.Is(err, convert.ErrUnsupportedExtension):
		return "Extension of input file must be .txt or .anim"
	case errors.Is(err, convert.ErrInputOpen):
		return "Input file couldn't be opened. Try again."
	case errors.Is(err, convert.ErrOutputOpen):
		return "Output file couldn't be opened. Try again."
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
