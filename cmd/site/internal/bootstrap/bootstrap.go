package bootstrap

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-mdsite"
	"github.com/goliatone/go-mdsite/internal/di"
	"github.com/goliatone/go-mdsite/pkg/interfaces"
)

// Options captures the tunable configuration for the site CLI module. Non-empty
// overrides win over values read from ConfigPath.
type Options struct {
	ConfigPath     string
	ContentDir     string
	TemplatesDir   string
	OutputDir      string
	BaseURL        string
	Engine         string
	LogLevel       string
	Drafts         *bool
	LoggerProvider interfaces.LoggerProvider
	DIOptions      []di.Option
}

// Resources groups the module runtime used by CLI commands.
type Resources struct {
	Module *mdsite.Module
	Config mdsite.Config
}

// BuildModule loads configuration, applies overrides and constructs the module.
func BuildModule(opts Options) (*Resources, error) {
	cfg := mdsite.DefaultConfig()
	if path := strings.TrimSpace(opts.ConfigPath); path != "" {
		loaded, err := mdsite.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if trimmed := strings.TrimSpace(opts.ContentDir); trimmed != "" {
		cfg.Markdown.ContentDir = trimmed
	}
	if trimmed := strings.TrimSpace(opts.TemplatesDir); trimmed != "" {
		cfg.Templates.Dir = trimmed
	}
	if trimmed := strings.TrimSpace(opts.OutputDir); trimmed != "" {
		cfg.Generator.OutputDir = trimmed
	}
	if trimmed := strings.TrimSpace(opts.BaseURL); trimmed != "" {
		cfg.Generator.BaseURL = trimmed
	}
	if trimmed := strings.TrimSpace(opts.Engine); trimmed != "" {
		cfg.Markdown.Engine = trimmed
	}
	if trimmed := strings.TrimSpace(opts.LogLevel); trimmed != "" {
		cfg.Logging.Level = trimmed
	}
	if opts.Drafts != nil {
		cfg.Generator.IncludeDrafts = *opts.Drafts
	}

	diOpts := append([]di.Option{}, opts.DIOptions...)
	if opts.LoggerProvider != nil {
		diOpts = append(diOpts, di.WithLoggerProvider(opts.LoggerProvider))
	}

	module, err := mdsite.New(cfg, diOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise site module: %w", err)
	}

	return &Resources{
		Module: module,
		Config: cfg,
	}, nil
}
