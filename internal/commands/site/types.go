package sitecmd

import (
	"path"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-mdsite/internal/generator"
	"github.com/goliatone/go-mdsite/internal/markdown"
)

const (
	buildSiteMessageType  = "site.build"
	diffSiteMessageType   = "site.diff"
	cleanSiteMessageType  = "site.clean"
	renderPageMessageType = "site.render"
	convertMessageType    = "site.convert"
)

// ResultCallback receives build results produced by generator operations. The callback is optional
// and is invoked synchronously from the handler when a BuildResult is available.
type ResultCallback func(ResultEnvelope)

// ResultEnvelope captures the outcome of a site command execution that generated a BuildResult.
type ResultEnvelope struct {
	Result   *generator.BuildResult
	Metadata map[string]any
}

// BuildSiteCommand executes a generator build, optionally limited to a set of content paths.
type BuildSiteCommand struct {
	Paths          []string       `json:"paths,omitempty"`
	Force          bool           `json:"force,omitempty"`
	DryRun         bool           `json:"dry_run,omitempty"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (BuildSiteCommand) Type() string { return buildSiteMessageType }

// Validate ensures every path is relative to the content root.
func (m BuildSiteCommand) Validate() error {
	errs := validation.Errors{}
	if err := validatePaths(m.Paths); err != nil {
		errs["paths"] = validation.NewError("site.build.path_invalid", err.Error())
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// DiffSiteCommand performs a dry-run build to surface what would change without writing artifacts.
type DiffSiteCommand struct {
	Paths          []string       `json:"paths,omitempty"`
	Force          bool           `json:"force,omitempty"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (DiffSiteCommand) Type() string { return diffSiteMessageType }

// Validate ensures every path is relative to the content root.
func (m DiffSiteCommand) Validate() error {
	errs := validation.Errors{}
	if err := validatePaths(m.Paths); err != nil {
		errs["paths"] = validation.NewError("site.diff.path_invalid", err.Error())
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// CleanSiteCommand clears generated artifacts from the output directory.
type CleanSiteCommand struct{}

// Type implements command.Message.
func (CleanSiteCommand) Type() string { return cleanSiteMessageType }

// Validate satisfies command.Message; there are no payload constraints.
func (CleanSiteCommand) Validate() error { return nil }

// PageCallback receives the page assembled by RenderPageHandler.
type PageCallback func(*generator.RenderedPage)

// RenderPageCommand assembles one page without writing it.
type RenderPageCommand struct {
	Path           string       `json:"path"`
	ResultCallback PageCallback `json:"-"`
}

// Type implements command.Message.
func (RenderPageCommand) Type() string { return renderPageMessageType }

// Validate requires a relative content path.
func (m RenderPageCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Path,
			validation.Required.Error("path is required"),
			validation.By(func(value any) error {
				return validatePaths([]string{value.(string)})
			}),
		),
	)
}

// HTMLCallback receives converted HTML.
type HTMLCallback func(string)

// ConvertMarkdownCommand converts a Markdown fragment without any template
// processing.
type ConvertMarkdownCommand struct {
	Markdown  string `json:"markdown"`
	LinkDepth int    `json:"link_depth,omitempty"`
	// Engine overrides the configured engine when set.
	Engine         string       `json:"engine,omitempty"`
	ResultCallback HTMLCallback `json:"-"`
}

// Type implements command.Message.
func (ConvertMarkdownCommand) Type() string { return convertMessageType }

// Validate checks the link depth and engine name.
func (m ConvertMarkdownCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.LinkDepth, validation.Min(0).Error("link_depth must not be negative")),
		validation.Field(&m.Engine, validation.By(func(value any) error {
			engine, _ := value.(string)
			if strings.TrimSpace(engine) == "" {
				return nil
			}
			switch markdown.NormalizeEngine(engine) {
			case markdown.EngineDialect, markdown.EngineCommonMark:
				return nil
			}
			return validation.NewError("site.convert.engine_unknown", "engine must be dialect or commonmark")
		})),
	)
}

// FeatureGates exposes runtime switches used to guard handler execution.
type FeatureGates struct {
	GeneratorEnabled func() bool
}

func (g FeatureGates) generatorEnabled() bool {
	if g.GeneratorEnabled == nil {
		return false
	}
	return g.GeneratorEnabled()
}

func validatePaths(paths []string) error {
	for _, value := range paths {
		trimmed := strings.TrimSpace(strings.ReplaceAll(value, "\\", "/"))
		if trimmed == "" {
			return validation.NewError("site.path_empty", "paths must not contain empty values")
		}
		cleaned := path.Clean(strings.TrimPrefix(trimmed, "/"))
		if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
			return validation.NewError("site.path_outside_root", "paths must stay inside the content directory")
		}
	}
	return nil
}
