package mdsite

import (
	"os"

	"github.com/goliatone/go-mdsite/internal/di"
	"github.com/goliatone/go-mdsite/internal/generator"
	"github.com/goliatone/go-mdsite/internal/logging"
	"github.com/goliatone/go-mdsite/internal/markdown"
	"github.com/goliatone/go-mdsite/internal/templates"
	"github.com/goliatone/go-mdsite/pkg/interfaces"
)

// GeneratorService exports the site generator contract.
type GeneratorService = generator.Service

// BuildOptions exports the generator build options.
type BuildOptions = generator.BuildOptions

// BuildResult exports the generator build summary.
type BuildResult = generator.BuildResult

// TemplateEngine exports the placeholder engine.
type TemplateEngine = templates.Engine

// Module represents the top level site runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a Module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Generator returns the configured generator service.
func (m *Module) Generator() GeneratorService {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.GeneratorService()
}

// Markdown returns the configured markdown service.
func (m *Module) Markdown() interfaces.MarkdownService {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.MarkdownService()
}

// Logger returns a logger scoped to module, drawn from the configured provider.
func (m *Module) Logger(module string) interfaces.Logger {
	if m == nil || m.container == nil {
		return nil
	}
	return logging.ModuleLogger(m.container.LoggerProvider(), module)
}

// Convert renders markdown in the site dialect. Internal links gain one "../"
// per linkDepth.
func Convert(source string, linkDepth int) string {
	return markdown.NewConverter(interfaces.ParseOptions{}).Convert(source, linkDepth)
}

// NewTemplateEngine returns an empty placeholder engine with page to site
// fallback enabled.
func NewTemplateEngine(opts ...templates.Option) *TemplateEngine {
	return templates.NewEngine(opts...)
}

// LoadTemplates reads a template directory into an engine. Each file becomes
// a group keyed by its stem.
func LoadTemplates(dir string, opts ...templates.Option) (*TemplateEngine, error) {
	store, err := templates.LoadDir(os.DirFS(dir), ".")
	if err != nil {
		return nil, err
	}
	return templates.NewEngine(append([]templates.Option{templates.WithStore(store)}, opts...)...), nil
}
