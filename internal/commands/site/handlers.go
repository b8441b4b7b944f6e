package sitecmd

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-mdsite/internal/commands"
	"github.com/goliatone/go-mdsite/internal/generator"
	"github.com/goliatone/go-mdsite/internal/markdown"
	"github.com/goliatone/go-mdsite/pkg/interfaces"
)

// MarkdownRenderer converts Markdown fragments. *markdown.Service satisfies it.
type MarkdownRenderer interface {
	Render(ctx context.Context, markdown []byte, opts interfaces.ParseOptions) ([]byte, error)
}

// generatorErrorRules tag generator sentinels so hosts can tell a bad page
// from a missing input without string matching.
var generatorErrorRules = []commands.ErrorRule{
	{Target: generator.ErrServiceDisabled, Category: goerrors.CategoryOperation, TextCode: "SITE_GENERATOR_DISABLED", Message: "site generator disabled"},
	{Target: generator.ErrInputDirMissing, Category: goerrors.CategoryNotFound, TextCode: "SITE_INPUT_MISSING", Message: "site input missing"},
	{Target: generator.ErrPageNotFound, Category: goerrors.CategoryNotFound, TextCode: "SITE_PAGE_NOT_FOUND", Message: "page not found"},
	{Target: generator.ErrMissingFrontMatter, Category: goerrors.CategoryValidation, TextCode: "SITE_PAGE_INVALID", Message: "page rejected"},
	{Target: generator.ErrRequiredFields, Category: goerrors.CategoryValidation, TextCode: "SITE_PAGE_INVALID", Message: "page rejected"},
	{Target: generator.ErrLayoutMissing, Category: goerrors.CategoryValidation, TextCode: "SITE_LAYOUT_INVALID", Message: "layout rejected"},
	{Target: generator.ErrLayoutReserved, Category: goerrors.CategoryValidation, TextCode: "SITE_LAYOUT_INVALID", Message: "layout rejected"},
	{Target: generator.ErrDuplicateOutput, Category: goerrors.CategoryConflict, TextCode: "SITE_OUTPUT_CONFLICT", Message: "output path conflict"},
}

var convertErrorRules = []commands.ErrorRule{
	{Target: markdown.ErrUnknownEngine, Category: goerrors.CategoryBadInput, TextCode: "SITE_ENGINE_UNKNOWN", Message: "markdown engine rejected"},
}

// BuildSiteHandler orchestrates generator builds using the shared command handler foundation.
type BuildSiteHandler struct {
	inner *commands.Handler[BuildSiteCommand]
}

// NewBuildSiteHandler constructs a handler wired to the provided generator service.
func NewBuildSiteHandler(service generator.Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[BuildSiteCommand]) *BuildSiteHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg BuildSiteCommand) error {
		if service == nil || !gates.generatorEnabled() {
			return generator.ErrServiceDisabled
		}

		result, err := service.Build(ctx, generator.BuildOptions{
			Paths:  normalizePaths(msg.Paths),
			Force:  msg.Force,
			DryRun: msg.DryRun,
		})
		invokeCallback(msg.ResultCallback, ResultEnvelope{
			Result: result,
			Metadata: map[string]any{
				"operation": "build",
			},
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[BuildSiteCommand]{
		commands.WithLogger[BuildSiteCommand](baseLogger),
		commands.WithOperation[BuildSiteCommand]("site.build"),
		commands.WithMessageFields(func(msg BuildSiteCommand) map[string]any {
			return buildFields(msg.Paths, msg.Force, msg.DryRun)
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[BuildSiteCommand](baseLogger)),
		commands.WithErrorRules[BuildSiteCommand](generatorErrorRules...),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &BuildSiteHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[BuildSiteCommand].
func (h *BuildSiteHandler) Execute(ctx context.Context, msg BuildSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

// DiffSiteHandler performs dry-run builds for diffing workflows.
type DiffSiteHandler struct {
	inner *commands.Handler[DiffSiteCommand]
}

// NewDiffSiteHandler constructs a handler that executes generator dry-runs.
func NewDiffSiteHandler(service generator.Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[DiffSiteCommand]) *DiffSiteHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg DiffSiteCommand) error {
		if service == nil || !gates.generatorEnabled() {
			return generator.ErrServiceDisabled
		}

		result, err := service.Build(ctx, generator.BuildOptions{
			Paths:  normalizePaths(msg.Paths),
			Force:  msg.Force,
			DryRun: true,
		})
		invokeCallback(msg.ResultCallback, ResultEnvelope{
			Result: result,
			Metadata: map[string]any{
				"operation": "diff",
			},
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[DiffSiteCommand]{
		commands.WithLogger[DiffSiteCommand](baseLogger),
		commands.WithOperation[DiffSiteCommand]("site.diff"),
		commands.WithMessageFields(func(msg DiffSiteCommand) map[string]any {
			return buildFields(msg.Paths, msg.Force, false)
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[DiffSiteCommand](baseLogger)),
		commands.WithErrorRules[DiffSiteCommand](generatorErrorRules...),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &DiffSiteHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[DiffSiteCommand].
func (h *DiffSiteHandler) Execute(ctx context.Context, msg DiffSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

// CleanSiteHandler clears generator artifacts.
type CleanSiteHandler struct {
	inner *commands.Handler[CleanSiteCommand]
}

// NewCleanSiteHandler constructs a handler that cleans generator output.
func NewCleanSiteHandler(service generator.Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[CleanSiteCommand]) *CleanSiteHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, _ CleanSiteCommand) error {
		if service == nil || !gates.generatorEnabled() {
			return generator.ErrServiceDisabled
		}
		return service.Clean(ctx)
	}

	handlerOpts := []commands.HandlerOption[CleanSiteCommand]{
		commands.WithLogger[CleanSiteCommand](baseLogger),
		commands.WithOperation[CleanSiteCommand]("site.clean"),
		commands.WithTelemetry(commands.DefaultTelemetry[CleanSiteCommand](baseLogger)),
		commands.WithErrorRules[CleanSiteCommand](generatorErrorRules...),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &CleanSiteHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[CleanSiteCommand].
func (h *CleanSiteHandler) Execute(ctx context.Context, msg CleanSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

// RenderPageHandler assembles a single page for previews.
type RenderPageHandler struct {
	inner *commands.Handler[RenderPageCommand]
}

// NewRenderPageHandler constructs a handler that renders one page through the generator.
func NewRenderPageHandler(service generator.Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[RenderPageCommand]) *RenderPageHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg RenderPageCommand) error {
		if service == nil || !gates.generatorEnabled() {
			return generator.ErrServiceDisabled
		}
		page, err := service.RenderPage(ctx, normalizePath(msg.Path))
		if err != nil {
			return err
		}
		if msg.ResultCallback != nil {
			msg.ResultCallback(page)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[RenderPageCommand]{
		commands.WithLogger[RenderPageCommand](baseLogger),
		commands.WithOperation[RenderPageCommand]("site.render"),
		commands.WithMessageFields(func(msg RenderPageCommand) map[string]any {
			return map[string]any{"path": normalizePath(msg.Path)}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[RenderPageCommand](baseLogger)),
		commands.WithErrorRules[RenderPageCommand](generatorErrorRules...),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &RenderPageHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[RenderPageCommand].
func (h *RenderPageHandler) Execute(ctx context.Context, msg RenderPageCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ConvertMarkdownHandler converts standalone Markdown fragments.
type ConvertMarkdownHandler struct {
	inner *commands.Handler[ConvertMarkdownCommand]
}

// NewConvertMarkdownHandler constructs a handler backed by renderer. Commands
// naming an engine bypass renderer and use a fresh parser for that engine.
func NewConvertMarkdownHandler(renderer MarkdownRenderer, logger interfaces.Logger, opts ...commands.HandlerOption[ConvertMarkdownCommand]) *ConvertMarkdownHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg ConvertMarkdownCommand) error {
		parseOpts := interfaces.ParseOptions{LinkDepth: msg.LinkDepth}
		var (
			html []byte
			err  error
		)
		if strings.TrimSpace(msg.Engine) != "" || renderer == nil {
			var parser interfaces.MarkdownParser
			parser, err = markdown.NewRenderer(msg.Engine, interfaces.ParseOptions{})
			if err != nil {
				return err
			}
			html, err = parser.ParseWithOptions([]byte(msg.Markdown), parseOpts)
		} else {
			html, err = renderer.Render(ctx, []byte(msg.Markdown), parseOpts)
		}
		if err != nil {
			return err
		}
		if msg.ResultCallback != nil {
			msg.ResultCallback(string(html))
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[ConvertMarkdownCommand]{
		commands.WithLogger[ConvertMarkdownCommand](baseLogger),
		commands.WithOperation[ConvertMarkdownCommand]("site.convert"),
		commands.WithMessageFields(func(msg ConvertMarkdownCommand) map[string]any {
			fields := map[string]any{"bytes": len(msg.Markdown)}
			if msg.LinkDepth > 0 {
				fields["link_depth"] = msg.LinkDepth
			}
			if engine := strings.TrimSpace(msg.Engine); engine != "" {
				fields["engine"] = markdown.NormalizeEngine(engine)
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ConvertMarkdownCommand](baseLogger)),
		commands.WithErrorRules[ConvertMarkdownCommand](convertErrorRules...),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ConvertMarkdownHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ConvertMarkdownCommand].
func (h *ConvertMarkdownHandler) Execute(ctx context.Context, msg ConvertMarkdownCommand) error {
	return h.inner.Execute(ctx, msg)
}

func buildFields(paths []string, force, dryRun bool) map[string]any {
	fields := map[string]any{}
	if len(paths) > 0 {
		fields["paths"] = len(paths)
	}
	if force {
		fields["force"] = true
	}
	if dryRun {
		fields["dry_run"] = true
	}
	return fields
}

func normalizePath(value string) string {
	return strings.TrimPrefix(strings.TrimSpace(strings.ReplaceAll(value, "\\", "/")), "./")
}

func normalizePaths(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := map[string]struct{}{}
	for _, value := range values {
		trimmed := normalizePath(value)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func invokeCallback(cb ResultCallback, envelope ResultEnvelope) {
	if cb == nil {
		return
	}
	cb(envelope)
}

var _ MarkdownRenderer = (*markdown.Service)(nil)
