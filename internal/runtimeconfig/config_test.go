package runtimeconfig_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-mdsite/internal/runtimeconfig"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := runtimeconfig.DefaultConfig().Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_RequiresDirectories(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*runtimeconfig.Config)
		want   error
	}{
		{"content", func(c *runtimeconfig.Config) { c.Markdown.ContentDir = " " }, runtimeconfig.ErrContentDirRequired},
		{"templates", func(c *runtimeconfig.Config) { c.Templates.Dir = "" }, runtimeconfig.ErrTemplatesDirRequired},
		{"output", func(c *runtimeconfig.Config) { c.Generator.OutputDir = "" }, runtimeconfig.ErrOutputDirRequired},
		{"overlap", func(c *runtimeconfig.Config) { c.Generator.OutputDir = "content/" }, runtimeconfig.ErrOutputDirOverlapsInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := runtimeconfig.DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestConfigValidate_Generator(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Generator.Layout = "page.header"
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLayoutInvalid) {
		t.Fatalf("expected ErrLayoutInvalid, got %v", err)
	}

	cfg = runtimeconfig.DefaultConfig()
	cfg.Generator.Layout = "page"
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLayoutInvalid) {
		t.Fatalf("expected reserved layout to be rejected, got %v", err)
	}

	cfg = runtimeconfig.DefaultConfig()
	cfg.Generator.Workers = -1
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrWorkersInvalid) {
		t.Fatalf("expected ErrWorkersInvalid, got %v", err)
	}

	cfg = runtimeconfig.DefaultConfig()
	cfg.Generator.VerifyHTML = false
	cfg.Generator.StrictHTML = true
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrStrictHTMLRequiresVerify) {
		t.Fatalf("expected ErrStrictHTMLRequiresVerify, got %v", err)
	}

	cfg = runtimeconfig.DefaultConfig()
	cfg.Generator.RenderTimeout = -time.Second
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrTimeoutInvalid) {
		t.Fatalf("expected ErrTimeoutInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownEngine(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Markdown.Engine = "textile"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrMarkdownEngineUnknown) {
		t.Fatalf("expected ErrMarkdownEngineUnknown, got %v", err)
	}
}

func TestConfigValidate_RequiresLoggingProvider(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Provider = ""

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingProviderRequired) {
		t.Fatalf("expected ErrLoggingProviderRequired, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownLoggingProvider(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Provider = "syslog"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingProviderUnknown) {
		t.Fatalf("expected ErrLoggingProviderUnknown, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidLoggingLevel(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Level = "verbose"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingLevelInvalid) {
		t.Fatalf("expected ErrLoggingLevelInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidLoggingFormat(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Format = "xml"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingFormatInvalid) {
		t.Fatalf("expected ErrLoggingFormatInvalid, got %v", err)
	}
}

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := runtimeconfig.Parse([]byte(`
site:
  title: My Site
  year: 2024
markdown:
  engine: commonmark
  parser:
    hard_wraps: true
generator:
  workers: 4
  render_timeout: 5s
  required_fields: [title, template]
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Site["title"] != "My Site" || cfg.Site["year"] != "2024" {
		t.Fatalf("unexpected site values: %#v", cfg.Site)
	}
	if cfg.Markdown.Engine != "commonmark" || !cfg.Markdown.Parser.HardWraps {
		t.Fatalf("unexpected markdown config: %#v", cfg.Markdown)
	}
	if cfg.Markdown.ContentDir != "content" {
		t.Fatalf("expected content dir default to survive, got %q", cfg.Markdown.ContentDir)
	}
	if cfg.Generator.Workers != 4 || cfg.Generator.RenderTimeout != 5*time.Second {
		t.Fatalf("unexpected generator config: %#v", cfg.Generator)
	}
	if len(cfg.Generator.RequiredFields) != 2 || cfg.Generator.RequiredFields[1] != "template" {
		t.Fatalf("unexpected required fields: %v", cfg.Generator.RequiredFields)
	}
	if cfg.Generator.Layout != "default" {
		t.Fatalf("expected default layout, got %q", cfg.Generator.Layout)
	}
}

func TestParse_EmptyDocumentKeepsDefaults(t *testing.T) {
	cfg, err := runtimeconfig.Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Templates.MaxPasses != 32 || cfg.Site == nil {
		t.Fatalf("expected defaults, got %#v", cfg)
	}
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	if _, err := runtimeconfig.Parse([]byte("generator:\n  ouput_dir: dist\n")); err == nil {
		t.Fatalf("expected unknown key to fail")
	}
}

func TestLoad_ResolvesRelativeDirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.yaml")
	if err := os.WriteFile(path, []byte("generator:\n  output_dir: dist\ntemplates:\n  dir: /abs/templates\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := runtimeconfig.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Generator.OutputDir != filepath.Join(dir, "dist") {
		t.Fatalf("expected output dir under config dir, got %q", cfg.Generator.OutputDir)
	}
	if cfg.Markdown.ContentDir != filepath.Join(dir, "content") {
		t.Fatalf("expected content dir under config dir, got %q", cfg.Markdown.ContentDir)
	}
	if cfg.Templates.Dir != "/abs/templates" {
		t.Fatalf("expected absolute dir to be kept, got %q", cfg.Templates.Dir)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := runtimeconfig.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}
