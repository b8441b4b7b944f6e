package runtimeconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrContentDirRequired = errors.New("mdsite config: markdown content directory is required")
var ErrTemplatesDirRequired = errors.New("mdsite config: templates directory is required")
var ErrOutputDirRequired = errors.New("mdsite config: generator output directory is required")
var ErrOutputDirOverlapsInput = errors.New("mdsite config: generator output directory must differ from the input directories")
var ErrLayoutRequired = errors.New("mdsite config: generator default layout is required")
var ErrLayoutInvalid = errors.New("mdsite config: generator default layout must be a template group name")
var ErrWorkersInvalid = errors.New("mdsite config: generator workers must be zero or positive")
var ErrStrictHTMLRequiresVerify = errors.New("mdsite config: strict html requires html verification to be enabled")
var ErrMarkdownEngineUnknown = errors.New("mdsite config: markdown engine is invalid")
var ErrMaxPassesInvalid = errors.New("mdsite config: template max passes must be zero or positive")
var ErrTimeoutInvalid = errors.New("mdsite config: timeouts must be zero or positive")
var ErrLoggingProviderRequired = errors.New("mdsite config: logging provider is required")
var ErrLoggingProviderUnknown = errors.New("mdsite config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("mdsite config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("mdsite config: logging format is invalid")

// Config aggregates everything a site build needs. It maps one to one onto the
// site.yaml file.
type Config struct {
	// Site values are registered as the "site" template group.
	Site      map[string]string `yaml:"site"`
	Markdown  MarkdownConfig    `yaml:"markdown"`
	Templates TemplatesConfig   `yaml:"templates"`
	Generator GeneratorConfig   `yaml:"generator"`
	Commands  CommandsConfig    `yaml:"commands"`
	Logging   LoggingConfig     `yaml:"logging"`
}

// MarkdownConfig captures page discovery and parser behaviour.
type MarkdownConfig struct {
	// Engine is "dialect" (default) or "commonmark".
	Engine     string               `yaml:"engine"`
	ContentDir string               `yaml:"content_dir"`
	Pattern    string               `yaml:"pattern"`
	Recursive  bool                 `yaml:"recursive"`
	Parser     MarkdownParserConfig `yaml:"parser"`
}

// MarkdownParserConfig mirrors interfaces.ParseOptions for runtime configuration.
type MarkdownParserConfig struct {
	Extensions []string `yaml:"extensions"`
	HardWraps  bool     `yaml:"hard_wraps"`
	SafeMode   bool     `yaml:"safe_mode"`
}

// TemplatesConfig locates the template files.
type TemplatesConfig struct {
	Dir       string `yaml:"dir"`
	MaxPasses int    `yaml:"max_passes"`
}

// GeneratorConfig captures behaviour for the static site generator.
type GeneratorConfig struct {
	OutputDir       string        `yaml:"output_dir"`
	BaseURL         string        `yaml:"base_url"`
	Layout          string        `yaml:"layout"`
	RequiredFields  []string      `yaml:"required_fields"`
	IncludeDrafts   bool          `yaml:"drafts"`
	Workers         int           `yaml:"workers"`
	CleanBuild      bool          `yaml:"clean"`
	Incremental     bool          `yaml:"incremental"`
	GenerateSitemap bool          `yaml:"sitemap"`
	GenerateRobots  bool          `yaml:"robots"`
	VerifyHTML      bool          `yaml:"verify_html"`
	StrictHTML      bool          `yaml:"strict_html"`
	RenderTimeout   time.Duration `yaml:"render_timeout"`
}

// CommandsConfig captures command handler behaviour.
type CommandsConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `yaml:"provider"`
	Level     string   `yaml:"level"`
	Format    string   `yaml:"format"`
	AddSource bool     `yaml:"add_source"`
	Focus     []string `yaml:"focus"`
}

// DefaultConfig returns the defaults used when site.yaml omits a value.
func DefaultConfig() Config {
	return Config{
		Site: map[string]string{},
		Markdown: MarkdownConfig{
			Engine:     "dialect",
			ContentDir: "content",
			Pattern:    "*.md",
			Recursive:  true,
		},
		Templates: TemplatesConfig{
			Dir:       "templates",
			MaxPasses: 32,
		},
		Generator: GeneratorConfig{
			OutputDir:       "public",
			Layout:          "default",
			RequiredFields:  []string{"title"},
			Workers:         0,
			CleanBuild:      true,
			GenerateSitemap: false,
			GenerateRobots:  false,
			VerifyHTML:      true,
		},
		Commands: CommandsConfig{
			Timeout: 0,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
			Format:   "",
		},
	}
}

// Load reads a YAML config file over DefaultConfig, resolves relative
// directories against the file's directory and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("mdsite config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("mdsite config: %s: %w", path, err)
	}
	cfg = cfg.ResolvePaths(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML over DefaultConfig. Unknown keys are rejected. An empty
// document yields the defaults.
func Parse(data []byte) (Config, error) {
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode yaml: %w", err)
	}
	if cfg.Site == nil {
		cfg.Site = map[string]string{}
	}
	return cfg, nil
}

// ResolvePaths joins relative directories onto base.
func (cfg Config) ResolvePaths(base string) Config {
	if strings.TrimSpace(base) == "" || base == "." {
		return cfg
	}
	resolve := func(dir string) string {
		if strings.TrimSpace(dir) == "" || filepath.IsAbs(dir) {
			return dir
		}
		return filepath.Join(base, dir)
	}
	cfg.Markdown.ContentDir = resolve(cfg.Markdown.ContentDir)
	cfg.Templates.Dir = resolve(cfg.Templates.Dir)
	cfg.Generator.OutputDir = resolve(cfg.Generator.OutputDir)
	return cfg
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.Markdown.ContentDir) == "" {
		return ErrContentDirRequired
	}
	if strings.TrimSpace(cfg.Templates.Dir) == "" {
		return ErrTemplatesDirRequired
	}
	if strings.TrimSpace(cfg.Generator.OutputDir) == "" {
		return ErrOutputDirRequired
	}
	output := filepath.Clean(cfg.Generator.OutputDir)
	if output == filepath.Clean(cfg.Markdown.ContentDir) || output == filepath.Clean(cfg.Templates.Dir) {
		return fmt.Errorf("%w: %s", ErrOutputDirOverlapsInput, cfg.Generator.OutputDir)
	}
	layout := strings.TrimSpace(cfg.Generator.Layout)
	if layout == "" {
		return ErrLayoutRequired
	}
	if strings.ContainsAny(layout, " .{}/") || isReservedGroup(layout) {
		return fmt.Errorf("%w: %s", ErrLayoutInvalid, layout)
	}
	if cfg.Generator.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrWorkersInvalid, cfg.Generator.Workers)
	}
	if cfg.Generator.StrictHTML && !cfg.Generator.VerifyHTML {
		return ErrStrictHTMLRequiresVerify
	}
	if cfg.Generator.RenderTimeout < 0 {
		return fmt.Errorf("%w: render_timeout", ErrTimeoutInvalid)
	}
	if cfg.Commands.Timeout < 0 {
		return fmt.Errorf("%w: commands.timeout", ErrTimeoutInvalid)
	}
	if engine := strings.TrimSpace(cfg.Markdown.Engine); engine != "" && !isSupportedEngine(engine) {
		return fmt.Errorf("%w: %s", ErrMarkdownEngineUnknown, engine)
	}
	if cfg.Templates.MaxPasses < 0 {
		return fmt.Errorf("%w: %d", ErrMaxPassesInvalid, cfg.Templates.MaxPasses)
	}

	provider := normalizeProvider(cfg.Logging.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

// isReservedGroup reports template groups the builder registers per page.
func isReservedGroup(name string) bool {
	switch name {
	case "page", "site", "build":
		return true
	default:
		return false
	}
}

func isSupportedEngine(engine string) bool {
	switch strings.ToLower(engine) {
	case "dialect", "commonmark", "goldmark":
		return true
	default:
		return false
	}
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty", "auto":
		return true
	default:
		return false
	}
}
