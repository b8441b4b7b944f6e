package sitecmd

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-mdsite/internal/generator"
	"github.com/goliatone/go-mdsite/pkg/interfaces"
)

func TestBuildSiteHandler_Execute_Build(t *testing.T) {
	cmd := loadBuildFixture(t, "build_basic.json")

	var capturedOpts generator.BuildOptions
	callbackInvoked := false

	svc := &fakeGeneratorService{
		buildFunc: func(ctx context.Context, opts generator.BuildOptions) (*generator.BuildResult, error) {
			capturedOpts = opts
			return &generator.BuildResult{PagesBuilt: 2}, nil
		},
	}

	handler := NewBuildSiteHandler(svc, nil, FeatureGates{GeneratorEnabled: alwaysTrue})

	cmd.ResultCallback = func(env ResultEnvelope) {
		callbackInvoked = true
		if env.Result == nil {
			t.Fatalf("expected build result, got nil")
		}
		if env.Result.PagesBuilt != 2 {
			t.Fatalf("expected PagesBuilt 2, got %d", env.Result.PagesBuilt)
		}
		if env.Metadata["operation"] != "build" {
			t.Fatalf("expected operation build, got %v", env.Metadata["operation"])
		}
	}

	if err := handler.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("execute build: %v", err)
	}

	if !capturedOpts.Force {
		t.Fatalf("expected Force true")
	}
	if capturedOpts.DryRun {
		t.Fatalf("expected DryRun false")
	}
	want := []string{"index.md", "blog/first-post.md"}
	if len(capturedOpts.Paths) != len(want) {
		t.Fatalf("expected paths %v, got %v", want, capturedOpts.Paths)
	}
	for i := range want {
		if capturedOpts.Paths[i] != want[i] {
			t.Fatalf("expected paths %v, got %v", want, capturedOpts.Paths)
		}
	}
	if !callbackInvoked {
		t.Fatal("expected callback to be invoked")
	}
}

func TestBuildSiteHandler_Execute_PropagatesBuildFailure(t *testing.T) {
	buildErr := errors.New("render failed")
	callbackInvoked := false
	svc := &fakeGeneratorService{
		buildFunc: func(context.Context, generator.BuildOptions) (*generator.BuildResult, error) {
			return &generator.BuildResult{}, buildErr
		},
	}

	handler := NewBuildSiteHandler(svc, nil, FeatureGates{GeneratorEnabled: alwaysTrue})
	err := handler.Execute(context.Background(), BuildSiteCommand{
		ResultCallback: func(ResultEnvelope) { callbackInvoked = true },
	})
	if !errors.Is(err, buildErr) {
		t.Fatalf("expected build error, got %v", err)
	}
	if !callbackInvoked {
		t.Fatal("expected callback to receive partial result")
	}
}

func TestBuildSiteHandler_Execute_GeneratorDisabled(t *testing.T) {
	handler := NewBuildSiteHandler(&fakeGeneratorService{}, nil, FeatureGates{GeneratorEnabled: alwaysFalse})
	err := handler.Execute(context.Background(), BuildSiteCommand{})
	if !errors.Is(err, generator.ErrServiceDisabled) {
		t.Fatalf("expected ErrServiceDisabled, got %v", err)
	}
}

func TestBuildSiteCommandValidate(t *testing.T) {
	cmd := loadBuildFixture(t, "build_invalid_path.json")
	if err := cmd.Validate(); err == nil {
		t.Fatal("expected validation error for path outside the content root")
	}
	if err := (BuildSiteCommand{Paths: []string{" "}}).Validate(); err == nil {
		t.Fatal("expected validation error for empty path")
	}
	if err := (BuildSiteCommand{Paths: []string{"docs/../index.md"}}).Validate(); err != nil {
		t.Fatalf("expected path inside root to pass, got %v", err)
	}
}

func TestBuildSiteHandler_Execute_RejectsInvalidCommand(t *testing.T) {
	called := false
	svc := &fakeGeneratorService{
		buildFunc: func(context.Context, generator.BuildOptions) (*generator.BuildResult, error) {
			called = true
			return nil, nil
		},
	}
	handler := NewBuildSiteHandler(svc, nil, FeatureGates{GeneratorEnabled: alwaysTrue})
	if err := handler.Execute(context.Background(), loadBuildFixture(t, "build_invalid_path.json")); err == nil {
		t.Fatal("expected validation failure")
	}
	if called {
		t.Fatal("expected Build not to run for invalid command")
	}
}

func TestDiffSiteHandler_Execute(t *testing.T) {
	var cmd DiffSiteCommand
	loadFixture(t, "diff_basic.json", &cmd)

	var capturedOpts generator.BuildOptions
	callbackInvoked := false

	svc := &fakeGeneratorService{
		buildFunc: func(ctx context.Context, opts generator.BuildOptions) (*generator.BuildResult, error) {
			capturedOpts = opts
			return &generator.BuildResult{PagesSkipped: 2, DryRun: true}, nil
		},
	}

	handler := NewDiffSiteHandler(svc, nil, FeatureGates{GeneratorEnabled: alwaysTrue})
	cmd.ResultCallback = func(env ResultEnvelope) {
		callbackInvoked = true
		if env.Metadata["operation"] != "diff" {
			t.Fatalf("expected diff operation, got %v", env.Metadata["operation"])
		}
		if env.Result == nil || env.Result.PagesSkipped != 2 {
			t.Fatalf("unexpected diff result: %#v", env.Result)
		}
	}

	if err := handler.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("execute diff: %v", err)
	}
	if !capturedOpts.DryRun {
		t.Fatal("expected DryRun to be true for diff")
	}
	if !capturedOpts.Force {
		t.Fatal("expected Force to be forwarded")
	}
	if !callbackInvoked {
		t.Fatal("expected callback to be invoked")
	}
}

func TestCleanSiteHandler_Execute(t *testing.T) {
	cleanCalled := false
	svc := &fakeGeneratorService{
		cleanFunc: func(ctx context.Context) error {
			cleanCalled = true
			return nil
		},
	}

	handler := NewCleanSiteHandler(svc, nil, FeatureGates{GeneratorEnabled: alwaysTrue})
	if err := handler.Execute(context.Background(), CleanSiteCommand{}); err != nil {
		t.Fatalf("execute clean: %v", err)
	}
	if !cleanCalled {
		t.Fatal("expected Clean to be called")
	}
}

func TestCleanSiteHandler_Execute_GeneratorDisabled(t *testing.T) {
	handler := NewCleanSiteHandler(&fakeGeneratorService{}, nil, FeatureGates{})
	err := handler.Execute(context.Background(), CleanSiteCommand{})
	if !errors.Is(err, generator.ErrServiceDisabled) {
		t.Fatalf("expected ErrServiceDisabled, got %v", err)
	}
}

func TestRenderPageHandler_Execute(t *testing.T) {
	svc := &fakeGeneratorService{
		renderFunc: func(ctx context.Context, path string) (*generator.RenderedPage, error) {
			if path != "blog/post.md" {
				t.Fatalf("expected normalized path, got %q", path)
			}
			return &generator.RenderedPage{Path: path, HTML: "<p>ok</p>"}, nil
		},
	}

	var got *generator.RenderedPage
	handler := NewRenderPageHandler(svc, nil, FeatureGates{GeneratorEnabled: alwaysTrue})
	err := handler.Execute(context.Background(), RenderPageCommand{
		Path:           "./blog/post.md",
		ResultCallback: func(page *generator.RenderedPage) { got = page },
	})
	if err != nil {
		t.Fatalf("execute render: %v", err)
	}
	if got == nil || got.HTML != "<p>ok</p>" {
		t.Fatalf("unexpected rendered page: %#v", got)
	}
}

func TestRenderPageCommandValidate(t *testing.T) {
	if err := (RenderPageCommand{}).Validate(); err == nil {
		t.Fatal("expected missing path to fail validation")
	}
	if err := (RenderPageCommand{Path: "../../etc/passwd"}).Validate(); err == nil {
		t.Fatal("expected escaping path to fail validation")
	}
	if err := (RenderPageCommand{Path: "index.md"}).Validate(); err != nil {
		t.Fatalf("expected valid path, got %v", err)
	}
}

func TestConvertMarkdownHandler_UsesRenderer(t *testing.T) {
	var cmd ConvertMarkdownCommand
	loadFixture(t, "convert_basic.json", &cmd)

	renderer := &fakeRenderer{html: "<p>converted</p>"}
	var got string
	cmd.ResultCallback = func(html string) { got = html }

	handler := NewConvertMarkdownHandler(renderer, nil)
	if err := handler.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("execute convert: %v", err)
	}
	if got != "<p>converted</p>" {
		t.Fatalf("unexpected html %q", got)
	}
	if renderer.opts.LinkDepth != 2 {
		t.Fatalf("expected link depth 2, got %d", renderer.opts.LinkDepth)
	}
}

func TestConvertMarkdownHandler_EngineOverride(t *testing.T) {
	var cmd ConvertMarkdownCommand
	loadFixture(t, "convert_basic.json", &cmd)
	cmd.Engine = "dialect"

	renderer := &fakeRenderer{html: "unused"}
	var got string
	cmd.ResultCallback = func(html string) { got = html }

	handler := NewConvertMarkdownHandler(renderer, nil)
	if err := handler.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("execute convert: %v", err)
	}
	if renderer.called {
		t.Fatal("expected engine override to bypass the configured renderer")
	}
	want := `<p>See <a href="../../guide.html">the guide</a> for <strong>details</strong></p>`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestConvertMarkdownCommandValidate(t *testing.T) {
	if err := (ConvertMarkdownCommand{LinkDepth: -1}).Validate(); err == nil {
		t.Fatal("expected negative link depth to fail")
	}
	if err := (ConvertMarkdownCommand{Engine: "textile"}).Validate(); err == nil {
		t.Fatal("expected unknown engine to fail")
	}
	if err := (ConvertMarkdownCommand{Engine: "goldmark"}).Validate(); err != nil {
		t.Fatalf("expected goldmark alias to pass, got %v", err)
	}
}

func loadBuildFixture(t *testing.T, name string) BuildSiteCommand {
	t.Helper()
	var cmd BuildSiteCommand
	loadFixture(t, name, &cmd)
	return cmd
}

func loadFixture(t *testing.T, name string, target any) {
	t.Helper()
	path := filepath.Join("testdata", name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("unmarshal fixture %s: %v", name, err)
	}
}

type fakeGeneratorService struct {
	buildFunc  func(context.Context, generator.BuildOptions) (*generator.BuildResult, error)
	renderFunc func(context.Context, string) (*generator.RenderedPage, error)
	cleanFunc  func(context.Context) error
}

func (f *fakeGeneratorService) Build(ctx context.Context, opts generator.BuildOptions) (*generator.BuildResult, error) {
	if f.buildFunc != nil {
		return f.buildFunc(ctx, opts)
	}
	return nil, nil
}

func (f *fakeGeneratorService) RenderPage(ctx context.Context, path string) (*generator.RenderedPage, error) {
	if f.renderFunc != nil {
		return f.renderFunc(ctx, path)
	}
	return nil, generator.ErrPageNotFound
}

func (f *fakeGeneratorService) Clean(ctx context.Context) error {
	if f.cleanFunc != nil {
		return f.cleanFunc(ctx)
	}
	return nil
}

type fakeRenderer struct {
	html   string
	opts   interfaces.ParseOptions
	called bool
}

func (f *fakeRenderer) Render(_ context.Context, _ []byte, opts interfaces.ParseOptions) ([]byte, error) {
	f.called = true
	f.opts = opts
	return []byte(f.html), nil
}

func alwaysTrue() bool  { return true }
func alwaysFalse() bool { return false }
