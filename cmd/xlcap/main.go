// Command xlcap turns a cap-table JSON document into an xlsx workbook whose
// figures are live formulas.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/javajack/xlcap"
	"github.com/javajack/xlcap/config"
	"github.com/javajack/xlcap/model"
)

type flags struct {
	configPath string
	strict     bool
	verbose    bool
	outputPath string
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:   "xlcap",
		Short: "Generate cap-table workbooks with live formulas",
		Long: `xlcap lays out a cap-table JSON document as an xlsx workbook. Every derived
figure (ownership, conversion shares, vesting, waterfall payouts) is written as a
formula over named ranges and table references, so the workbook stays live.

Examples:
  xlcap generate captable.json -o captable.xlsx
  xlcap validate captable.json
  xlcap describe captable.json --config xlcap.yaml`,
		SilenceUsage: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVarP(&f.configPath, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().BoolVar(&f.strict, "strict", false, "Fail on duplicate layout registrations")
	root.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "Log progress to stderr")

	root.AddCommand(
		newGenerateCmd(f),
		newValidateCmd(f),
		newDescribeCmd(f),
		newResolveCmd(f),
	)
	return root
}

// generatorOptions builds the generator options from the flags shared by every
// command.
func (f *flags) generatorOptions(cmd *cobra.Command) ([]xlcap.Option, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	level := slog.LevelWarn
	if f.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	opts := []xlcap.Option{xlcap.WithConfig(cfg), xlcap.WithLogger(logger)}
	if cmd.Flags().Changed("strict") {
		opts = append(opts, xlcap.WithStrictMode(f.strict))
	}
	return opts, nil
}

func newGenerateCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <captable.json>",
		Short: "Write the workbook for a cap table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := f.generatorOptions(cmd)
			if err != nil {
				return err
			}
			out := f.outputPath
			if out == "" {
				out = "captable.xlsx"
			}
			if err := xlcap.Generate(args[0], out, opts...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.outputPath, "output", "o", "", "Output workbook path (default: captable.xlsx)")
	return cmd
}

func newValidateCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <captable.json>",
		Short: "Check a cap table and its formula encoding objects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ct, err := model.Load(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			errs := 0
			for _, is := range ct.Validate() {
				fmt.Fprintln(out, is)
				errs++
			}
			for _, is := range xlcap.CalculationIssues(ct) {
				fmt.Fprintln(out, is)
				if is.Severity == xlcap.SeverityError {
					errs++
				}
			}
			if errs > 0 {
				return fmt.Errorf("%s: %d error(s)", args[0], errs)
			}
			fmt.Fprintf(out, "%s: ok\n", args[0])
			return nil
		},
	}
}

func newDescribeCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <captable.json>",
		Short: "Print the layout map of a cap table without writing a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := layout(cmd, f, args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), run.LayoutMap().Describe())
			return nil
		},
	}
}

func newResolveCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <captable.json> <feo.json>",
		Short: "Resolve one formula encoding object against the layout of a cap table",
		Long: `Resolve one formula encoding object against the layout of a cap table and
print the final formula. Use "-" to read the object from stdin.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := layout(cmd, f, args[0])
			if err != nil {
				return err
			}
			var data []byte
			if args[1] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[1])
			}
			if err != nil {
				return fmt.Errorf("read formula encoding object: %w", err)
			}
			formula, err := xlcap.NewResolver(run.LayoutMap()).ResolveJSON(data)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formula)
			return nil
		},
	}
}

func layout(cmd *cobra.Command, f *flags, path string) (*xlcap.Run, error) {
	opts, err := f.generatorOptions(cmd)
	if err != nil {
		return nil, err
	}
	ct, err := model.Load(path)
	if err != nil {
		return nil, err
	}
	return xlcap.NewGenerator(opts...).Layout(ct)
}
