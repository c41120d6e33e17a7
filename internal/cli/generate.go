package cli

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/frijol-dev/frijol/internal/codegen"
	"github.com/frijol-dev/frijol/internal/config"
	"github.com/frijol-dev/frijol/internal/loader"
)

const securityNotice = `+------------------------------- Security Notice -------------------------------+
| Code generators can execute malicious payloads from untrusted OpenAPI specs.  |
|                                                                               |
| Example: a schema named "User"; os.Exit(1); var _ = "" could inject code.     |
|                                                                               |
| This generator sanitizes inputs, but the safest approach is to review the     |
| spec yourself.                                                                |
|                                                                               |
| Tip: use "frijol preview <spec>" to inspect a spec before generating.         |
+-------------------------------------------------------------------------------+`

func GenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [spec]",
		Short: "Generate a Go client from an OpenAPI specification",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runGenerate,
	}
	config.BindFlags(cmd)
	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		if err := cmd.Flags().Set("spec", args[0]); err != nil {
			return err
		}
	}

	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}

	log := newLogger(cfg.Verbose)

	if !cfg.Yes {
		cmd.PrintErrln(securityNotice)
		cmd.PrintErrf("About to generate a client from: %s\n", cfg.Spec)
		if !confirm(cmd, "I trust this spec and want to proceed [y/N]: ") {
			return fmt.Errorf("aborted")
		}
	}

	result, err := loader.Load(cmd.Context(), cfg.Spec, cfg.Validate)
	if err != nil {
		return fmt.Errorf("loading spec: %w", err)
	}
	for _, w := range result.Warnings {
		cmd.PrintErrf("Warning: %s\n", w)
	}
	cmd.PrintErrf("Loaded OpenAPI %s: %s v%s\n", result.SpecVersion, result.Title, result.Version)

	gen, err := codegen.New(cfg, log)
	if err != nil {
		return err
	}

	outputs, err := gen.Generate(result)
	if err != nil {
		return fmt.Errorf("generating client: %w", err)
	}

	if err := os.MkdirAll(cfg.Output, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	for _, out := range outputs {
		path := filepath.Join(cfg.Output, out.Filename)
		if err := os.WriteFile(path, []byte(out.Content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		cmd.PrintErrf("Written: %s\n", path)
	}

	cmd.PrintErrf("Successfully generated client in %s\n", cfg.Output)
	return nil
}

func confirm(cmd *cobra.Command, prompt string) bool {
	cmd.PrintErr(prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
