package mdsite_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-mdsite"
	"github.com/goliatone/go-mdsite/internal/di"
	"github.com/goliatone/go-mdsite/internal/templates"
)

func TestConvert(t *testing.T) {
	got := mdsite.Convert("# Title\n\nSee [docs](guide.html) and *this*", 1)
	want := "<h1>Title</h1>\n<p>See <a href=\"../guide.html\">docs</a> and <em>this</em></p>"
	if got != want {
		t.Fatalf("Convert() = %q, want %q", got, want)
	}
}

func TestNewTemplateEngineFallsBackToSite(t *testing.T) {
	engine := mdsite.NewTemplateEngine()
	engine.Register("site", map[string]string{"name": "Docs"})
	engine.Register("page", map[string]string{"title": "Intro"})

	got, err := engine.Resolve("{{page.title}} | {{page.name}}")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "Intro | Docs" {
		t.Fatalf("unexpected output %q", got)
	}

	_, err = engine.Resolve("{{page.author}}")
	var resolution *templates.ResolutionError
	if !errors.As(err, &resolution) {
		t.Fatalf("expected ResolutionError, got %v", err)
	}
}

func TestLoadTemplates(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "header.html"), []byte("<h1>{{site.name}}</h1>"), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}

	engine, err := mdsite.LoadTemplates(dir)
	if err != nil {
		t.Fatalf("LoadTemplates: %v", err)
	}
	engine.Register("site", map[string]string{"name": "Docs"})

	got, err := engine.Resolve("{{header}}")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "<h1>Docs</h1>" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestNewValidatesConfig(t *testing.T) {
	cfg := mdsite.DefaultConfig()
	cfg.Templates.Dir = ""
	if _, err := mdsite.New(cfg); !errors.Is(err, mdsite.ErrTemplatesDirRequired) {
		t.Fatalf("expected ErrTemplatesDirRequired, got %v", err)
	}
}

func TestModuleBuildsSite(t *testing.T) {
	cfg := mdsite.DefaultConfig()
	cfg.Site = map[string]string{"name": "Docs"}
	cfg.Generator.OutputDir = t.TempDir()

	content := fstest.MapFS{
		"index.md": {Data: []byte("---\ntitle: Home\n---\n{{site.name}} home\n")},
	}
	tmpl := fstest.MapFS{
		"default.html": {Data: []byte("<title>{{page.title}}</title>{{page}}")},
	}

	module, err := mdsite.New(cfg, di.WithContentFS(content), di.WithTemplatesFS(tmpl))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if module.Markdown() == nil || module.Logger("test") == nil {
		t.Fatal("expected markdown service and logger")
	}

	result, err := module.Generator().Build(context.Background(), mdsite.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result.PagesBuilt != 1 {
		t.Fatalf("expected one page, got %d", result.PagesBuilt)
	}

	data, err := os.ReadFile(filepath.Join(cfg.Generator.OutputDir, "index.html"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "<title>Home</title><p>Docs home</p>" {
		t.Fatalf("unexpected index.html %q", data)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := mdsite.LoadConfig(filepath.Join(t.TempDir(), "site.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}
