// Package config merges the frijol.yaml config file with command-line
// flags. Flags win over the file.
package config

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

const defaultConfigFile = "frijol.yaml"

type Config struct {
	// Spec is the path or URL of the OpenAPI document.
	Spec string `koanf:"spec"`
	// Output is the directory generated files are written to.
	Output string `koanf:"output"`
	// Package is the Go package name of the generated client.
	Package string `koanf:"package"`

	Templates TemplateConfig `koanf:"templates"`

	// Targets selects what gets generated.
	Targets []string `koanf:"targets"`

	// Validate runs full OpenAPI schema validation before generating.
	Validate bool `koanf:"validate"`
	// Yes skips the security confirmation prompt.
	Yes bool `koanf:"yes"`
	// Verbose enables debug logging.
	Verbose bool `koanf:"verbose"`

	// AdditionalInitialisms extends the naming rules (e.g. "SKU").
	AdditionalInitialisms []string `koanf:"additional-initialisms"`
}

type TemplateConfig struct {
	// Dir overrides embedded templates by file name.
	Dir string `koanf:"dir"`
}

var validTargets = map[string]bool{"types": true, "client": true}

// BindFlags declares the generate flags on a command.
func BindFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("config", "c", "", "Config file path (default: frijol.yaml)")
	flags.StringP("spec", "s", "", "OpenAPI spec path or URL")
	flags.StringP("output", "o", "", "Output directory for the generated client")
	flags.StringP("package", "p", "", "Go package name of the generated client")
	flags.String("templates", "", "Custom templates directory")
	flags.StringSlice("targets", nil, "Generation targets: types, client")
	flags.Bool("validate", false, "Validate the document before generating")
	flags.BoolP("yes", "y", false, "Skip the security confirmation prompt")
	flags.BoolP("verbose", "v", false, "Enable verbose logging")
	flags.StringSlice("additional-initialisms", nil, "Additional initialisms for generated names")
}

// Load reads frijol.yaml (or --config) and overlays flag values.
func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			configFile = defaultConfigFile
		}
	}
	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	overrides := flagOverrides(cmd)
	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func flagOverrides(cmd *cobra.Command) map[string]any {
	m := make(map[string]any)
	flags := cmd.Flags()

	if v, _ := flags.GetString("spec"); v != "" {
		m["spec"] = v
	}
	if v, _ := flags.GetString("output"); v != "" {
		m["output"] = v
	}
	if v, _ := flags.GetString("package"); v != "" {
		m["package"] = v
	}
	if v, _ := flags.GetString("templates"); v != "" {
		m["templates.dir"] = v
	}
	if v, _ := flags.GetStringSlice("targets"); len(v) > 0 {
		m["targets"] = v
	}
	if v, _ := flags.GetStringSlice("additional-initialisms"); len(v) > 0 {
		m["additional-initialisms"] = v
	}
	for _, name := range []string{"validate", "yes", "verbose"} {
		if flags.Changed(name) {
			v, _ := flags.GetBool(name)
			m[name] = v
		}
	}
	return m
}

func (c *Config) applyDefaults() {
	if c.Output == "" {
		c.Output = "./sdk"
	}
	if c.Package == "" {
		c.Package = "client"
	}
	if len(c.Targets) == 0 {
		c.Targets = []string{"types", "client"}
	}
}

// Check verifies required fields and the closed target enumeration.
func (c *Config) Check() error {
	if c.Spec == "" {
		return fmt.Errorf("spec path or URL is required")
	}
	for _, t := range c.Targets {
		if !validTargets[t] {
			return fmt.Errorf("invalid target: %s (valid: types, client)", t)
		}
	}
	return nil
}

// HasTarget reports whether a target is selected.
func (c *Config) HasTarget(target string) bool {
	for _, t := range c.Targets {
		if t == target {
			return true
		}
	}
	return false
}
