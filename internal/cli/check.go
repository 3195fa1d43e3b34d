package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bumper/pkg/cache"
	"github.com/matzehuels/bumper/pkg/config"
	"github.com/matzehuels/bumper/pkg/deps"
	"github.com/matzehuels/bumper/pkg/errors"
	"github.com/matzehuels/bumper/pkg/manifest"
	"github.com/matzehuels/bumper/pkg/pipeline"
)

// checkFlags holds the flags shared by the root command and "check".
type checkFlags struct {
	write       bool
	concurrency int
	keepGoing   bool
	refresh     bool
	noCache     bool
	registry    string
	interactive bool
	only        string
}

func (f *checkFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.BoolVarP(&f.write, "write", "w", false, "write updated versions back to the manifest")
	fl.IntVarP(&f.concurrency, "concurrency", "c", deps.DefaultConcurrency, "concurrent registry lookups per section")
	fl.BoolVar(&f.keepGoing, "keep-going", false, "report failed lookups instead of failing the section")
	fl.BoolVar(&f.refresh, "refresh", false, "bypass cached registry responses")
	fl.BoolVar(&f.noCache, "no-cache", false, "disable the response cache")
	fl.StringVar(&f.registry, "registry", "", "npm registry URL (default: "+config.Default().Registry+")")
	fl.BoolVarP(&f.interactive, "interactive", "i", false, "choose which updates to write")
	fl.StringVar(&f.only, "only", "", "check a single section: dependencies or devDependencies")
	_ = cmd.RegisterFlagCompletionFunc("only", completeSection)
	cmd.ValidArgsFunction = completeManifest
}

// apply overrides cfg with the flags that were set on the command line.
func (f *checkFlags) apply(cmd *cobra.Command, cfg config.Config) (config.Config, error) {
	fl := cmd.Flags()
	if fl.Changed("write") {
		cfg.Write = f.write
	}
	if fl.Changed("concurrency") {
		if f.concurrency <= 0 {
			return cfg, errors.New(errors.ErrCodeInvalidConfig, "--concurrency must be positive, got %d", f.concurrency)
		}
		cfg.Concurrency = f.concurrency
	}
	if fl.Changed("keep-going") {
		cfg.KeepGoing = f.keepGoing
	}
	if fl.Changed("registry") {
		cfg.Registry = f.registry
	}
	if f.noCache {
		cfg.Cache.Backend = cache.BackendNone
	}
	if f.interactive {
		cfg.Write = true
	}
	return cfg.WithDefaults(), nil
}

// checkCommand creates the check command.
func (c *CLI) checkCommand() *cobra.Command {
	var flags checkFlags

	cmd := &cobra.Command{
		Use:   "check [package.json]",
		Short: "Report dependencies with newer versions and optionally update them",
		Long: `Check every entry of dependencies and devDependencies against the npm
registry and print the ones whose latest version differs from the declared one:

  left-pad: ^1.0.0 => ^1.3.0

Range prefixes (^, ~, >=, ...) are kept. Values that are not plain versions
(workspace:*, git URLs, tags) are skipped. With --write the manifest is
rewritten in place, including matching entries under overrides. A section
whose lookups fail is reported and left untouched; the command then exits
with a non-zero status after writing the other section.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCheck(cmd, args, &flags)
		},
	}
	flags.register(cmd)

	return cmd
}

// runCheck loads the manifest, checks it, prints the reports and writes the
// successful sections when asked to.
func (c *CLI) runCheck(cmd *cobra.Command, args []string, flags *checkFlags) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	cfg, err := flags.apply(cmd, c.config)
	if err != nil {
		return err
	}

	path := defaultManifest
	if len(args) == 1 {
		path = args[0]
	}
	if err := errors.ValidatePath(path); err != nil {
		return err
	}

	doc, err := manifest.Load(path)
	if err != nil {
		return err
	}
	decl, err := manifest.DeclaredSections(doc)
	if err != nil {
		return err
	}

	runner, err := pipeline.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := pipeline.Options{
		Concurrency: cfg.Concurrency,
		KeepGoing:   cfg.KeepGoing,
		Refresh:     flags.refresh,
		Only:        flags.only,
		Logger:      logger,
	}

	total := len(decl.Dependencies) + len(decl.DevDependencies)
	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Checking %d packages...", total))
	spinner.Start()

	result, err := runner.Check(ctx, decl, opts)
	if err != nil {
		spinner.StopWithError("Check failed")
		return err
	}
	spinner.Stop()
	if spinner.Cancelled() {
		return ctx.Err()
	}
	prog.done("Checked "+path, "packages", total)

	printReports(c.Out, result)

	if cfg.Write && result.ChangeCount() > 0 {
		if err := c.write(ctx, runner, doc, path, result, flags.interactive); err != nil {
			return err
		}
	}

	printSummary(c.status(), result)
	return result.Err()
}

// write patches and saves the manifest. In interactive mode only the changes
// picked in the selection list are applied.
func (c *CLI) write(ctx context.Context, runner *pipeline.Runner, doc *manifest.Document, path string, result *pipeline.Result, interactive bool) error {
	if interactive {
		picked, ok, err := selectChanges(ctx, result)
		if err != nil {
			return fmt.Errorf("select changes: %w", err)
		}
		if !ok {
			c.status().info("Aborted, %s not modified", path)
			return nil
		}
		result = picked
	}

	n, err := runner.Apply(ctx, doc, result)
	if err != nil {
		return err
	}
	if n == 0 {
		c.status().info("Nothing to write")
		return nil
	}
	if err := doc.Save(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	out := c.status()
	out.success("Updated %d versions", n)
	out.file(path)
	return nil
}

// sectionTitles are the report headings.
var sectionTitles = map[string]string{
	deps.SectionDependencies:    "Dependencies:",
	deps.SectionDevDependencies: "DevDependencies:",
}

// printReports writes one block per section: a heading followed by the
// aligned change lines, or the error that made the section fail.
func printReports(w io.Writer, result *pipeline.Result) {
	p := printer{w}
	for i, s := range result.Sections {
		if i > 0 {
			p.newline()
		}
		fmt.Fprintln(w, StyleTitle.Render(sectionTitles[s.Section]))
		switch {
		case !s.OK():
			p.failure("%s", errors.UserMessage(s.Err))
		case s.ChangeSet.Empty():
			fmt.Fprintln(w, StyleDim.Render("All up to date"))
		default:
			fmt.Fprint(w, deps.Render(s.ChangeSet))
		}
		for _, f := range s.ChangeSet.Failures {
			p.warning("%s: %s", f.Name, errors.UserMessage(f.Err))
		}
	}
}

// printSummary prints the one-line totals after the reports.
func printSummary(out printer, result *pipeline.Result) {
	var parts []string
	parts = append(parts, fmt.Sprintf("%d outdated", result.ChangeCount()))
	if n := result.FailureCount(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d lookups failed", n))
	}
	failed := 0
	for _, s := range result.Sections {
		if !s.OK() {
			failed++
		}
	}
	if failed > 0 {
		parts = append(parts, fmt.Sprintf("%d sections failed", failed))
	}
	out.newline()
	out.stats(parts...)
}
