package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"gomod.pri/cobf/config"
	"gomod.pri/cobf/pipeline"
	"gomod.pri/cobf/xerror"
	"gomod.pri/cobf/xtrace"
	"gomod.pri/cobf/xutils/logutil"
)

type rootFlags struct {
	config  string
	dialect string
	key     string
	seed    string
	budget  int
	report  string
	verbose bool

	noStrings     bool
	noControlFlow bool
	noDeadCode    bool
	noAntiDebug   bool
	noRename      bool

	deterministicIV bool
}

func main() {
	hw := logutil.Setup(logutil.Config{Level: "error", Limit: 1000})

	ctx := context.Background()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		_ = xerror.RaiseCtx(ctx, xerror.CodeConfigError, err)
		_ = hw.Close()
		os.Exit(1)
	}
	_ = hw.Close()
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "cobf [flags] INPUT",
		Short: "Obfuscate a C or C++ translation unit and write the result to stdout",
		Long: `cobf renames identifiers, encrypts string literals, rewrites if/else into
switch statements and injects dead code and a debugger check. INPUT is a
single source file of at most 1 MiB, or - for standard input.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runObfuscate(cmd, f, args[0])
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.config, "config", "c", "", "config file (yaml, json or toml)")
	pf.StringVarP(&f.key, "key", "k", "", "encryption key, zero-padded or truncated to 32 bytes")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "log pass summaries to stderr")

	fl := cmd.Flags()
	fl.StringVarP(&f.dialect, "dialect", "d", "", "source dialect: c or cpp (default: from the file extension)")
	fl.StringVarP(&f.seed, "seed", "s", "", "seed for names and dead code, decimal or 0x hex")
	fl.IntVar(&f.budget, "dead-code-budget", 0, "function bodies that receive dead code")
	fl.StringVarP(&f.report, "report", "r", "", "write the identifier map and string table to this YAML file")
	fl.BoolVar(&f.noStrings, "no-strings", false, "keep string literals")
	fl.BoolVar(&f.noControlFlow, "no-control-flow", false, "keep if/else statements")
	fl.BoolVar(&f.noDeadCode, "no-dead-code", false, "do not inject dead code")
	fl.BoolVar(&f.noAntiDebug, "no-anti-debug", false, "do not inject the debugger check")
	fl.BoolVar(&f.noRename, "no-rename", false, "keep identifiers")
	fl.BoolVar(&f.deterministicIV, "deterministic-iv", false, "derive string IVs from the seed so output is reproducible")

	cmd.AddCommand(newDecryptCmd(f))
	return cmd
}

// loadConfig reads the config file if one was given and applies the
// persistent flags over it.
func loadConfig(cmd *cobra.Command, f *rootFlags) (*config.Config, error) {
	c := config.Default()
	if f.config != "" {
		var err error
		if c, err = config.Load(f.config); err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("key") {
		c.Key = f.key
	}
	if f.verbose {
		c.Log.Level = "debug"
	}
	logutil.SetLevel(c.Log.Level)

	return c, nil
}

func runObfuscate(cmd *cobra.Command, f *rootFlags, input string) error {
	ctx := cmd.Context()

	c, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	applyFlags(cmd, f, c)

	if f.verbose {
		shutdown := xtrace.Install()
		defer func() { _ = shutdown(ctx) }()
	}

	opts, err := c.Options(input)
	if err != nil {
		return err
	}

	src, err := readInput(cmd.InOrStdin(), input)
	if err != nil {
		return err
	}

	res, err := pipeline.Run(ctx, src, opts)
	if err != nil {
		return err
	}

	if f.report != "" {
		if err := writeReport(f.report, opts.Dialect, res); err != nil {
			return err
		}
	}

	if _, err := io.WriteString(cmd.OutOrStdout(), res.Output); err != nil {
		return xerror.New(xerror.CodeIoError, err)
	}
	return nil
}

func applyFlags(cmd *cobra.Command, f *rootFlags, c *config.Config) {
	fl := cmd.Flags()
	if fl.Changed("dialect") {
		c.Dialect = f.dialect
	}
	if fl.Changed("seed") {
		c.Seed = f.seed
	}
	if fl.Changed("dead-code-budget") {
		c.DeadCodeBudget = f.budget
	}
	if f.deterministicIV {
		c.DeterministicIV = true
	}

	disable := map[string]*bool{
		"no-strings":      &c.StringEncrypt,
		"no-control-flow": &c.ControlFlow,
		"no-dead-code":    &c.DeadCode,
		"no-anti-debug":   &c.AntiDebug,
		"no-rename":       &c.Identifiers,
	}
	for name, pass := range disable {
		if v, _ := fl.GetBool(name); v {
			*pass = false
		}
	}
}

// readInput reads at most MaxInputSize bytes from path, or from stdin for "-".
func readInput(stdin io.Reader, path string) (string, error) {
	r := stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return "", xerror.New(xerror.CodeIoError, err)
		}
		defer file.Close()
		r = file
	}

	b, err := io.ReadAll(io.LimitReader(r, pipeline.MaxInputSize+1))
	if err != nil {
		return "", xerror.New(xerror.CodeIoError, fmt.Errorf("read %s: %w", path, err))
	}
	if len(b) > pipeline.MaxInputSize {
		return "", xerror.New(xerror.CodeIoError, fmt.Errorf("%w: %s", pipeline.ErrInputTooLarge, path))
	}
	return string(b), nil
}
