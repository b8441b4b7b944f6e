package di

import (
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-mdsite/internal/commands"
	sitecmd "github.com/goliatone/go-mdsite/internal/commands/site"
	"github.com/goliatone/go-mdsite/internal/generator"
	"github.com/goliatone/go-mdsite/internal/logging"
	"github.com/goliatone/go-mdsite/internal/logging/console"
	"github.com/goliatone/go-mdsite/internal/logging/gologger"
	"github.com/goliatone/go-mdsite/internal/markdown"
	"github.com/goliatone/go-mdsite/internal/runtimeconfig"
	"github.com/goliatone/go-mdsite/pkg/interfaces"
)

// Container wires the markdown service, the generator and the command
// handlers from one runtime configuration.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider

	contentFS        fs.FS
	templatesFS      fs.FS
	generatorOptions []generator.Option

	markdownSvc  *markdown.Service
	generatorSvc generator.Service

	buildHandler   *sitecmd.BuildSiteHandler
	diffHandler    *sitecmd.DiffSiteHandler
	cleanHandler   *sitecmd.CleanSiteHandler
	renderHandler  *sitecmd.RenderPageHandler
	convertHandler *sitecmd.ConvertMarkdownHandler
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider selected by Config.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}

// WithContentFS reads pages from fsys instead of Config.Markdown.ContentDir.
func WithContentFS(fsys fs.FS) Option {
	return func(c *Container) {
		c.contentFS = fsys
	}
}

// WithTemplatesFS reads templates from fsys instead of Config.Templates.Dir.
func WithTemplatesFS(fsys fs.FS) Option {
	return func(c *Container) {
		c.templatesFS = fsys
	}
}

// WithGeneratorOptions forwards options to generator.NewService.
func WithGeneratorOptions(opts ...generator.Option) Option {
	return func(c *Container) {
		c.generatorOptions = append(c.generatorOptions, opts...)
	}
}

// WithGeneratorService replaces the generator built from configuration.
func WithGeneratorService(svc generator.Service) Option {
	return func(c *Container) {
		c.generatorSvc = svc
	}
}

// NewContainer validates cfg and builds every service it describes.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	if err := c.configureMarkdown(); err != nil {
		return nil, err
	}
	if err := c.configureGenerator(); err != nil {
		return nil, err
	}
	c.configureCommands()

	logging.ModuleLogger(c.loggerProvider, "site").Debug("site.container.configured",
		"engine", c.markdownSvc.Engine(),
		"content_dir", c.Config.Markdown.ContentDir,
		"output_dir", c.Config.Generator.OutputDir,
		"logging_provider", c.Config.Logging.Provider,
	)
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(c.Config.Logging.Provider)) {
	case "gologger", "go-logger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     c.Config.Logging.Level,
			Format:    c.Config.Logging.Format,
			AddSource: c.Config.Logging.AddSource,
			Focus:     c.Config.Logging.Focus,
		})
		if err != nil {
			return fmt.Errorf("di: configure go-logger: %w", err)
		}
		c.loggerProvider = provider
	default:
		// stdout is reserved for command output such as converted HTML.
		options := console.Options{Writer: os.Stderr}
		if level, ok := console.ParseLevel(c.Config.Logging.Level); ok {
			options.MinLevel = &level
		}
		c.loggerProvider = console.NewProvider(options)
	}
	return nil
}

func (c *Container) configureMarkdown() error {
	contentFS := c.contentFS
	if contentFS == nil {
		contentFS = os.DirFS(c.Config.Markdown.ContentDir)
	}
	svc, err := markdown.NewServiceFS(contentFS, c.markdownConfig())
	if err != nil {
		return fmt.Errorf("di: configure markdown: %w", err)
	}
	c.markdownSvc = svc
	return nil
}

func (c *Container) markdownConfig() markdown.Config {
	md := c.Config.Markdown
	return markdown.Config{
		BasePath:  md.ContentDir,
		Pattern:   md.Pattern,
		Recursive: md.Recursive,
		Engine:    md.Engine,
		Parser: interfaces.ParseOptions{
			Extensions: append([]string(nil), md.Parser.Extensions...),
			HardWraps:  md.Parser.HardWraps,
			SafeMode:   md.Parser.SafeMode,
		},
		Logger: logging.MarkdownLogger(c.loggerProvider),
	}
}

func (c *Container) configureGenerator() error {
	if c.generatorSvc != nil {
		return nil
	}
	gen := c.Config.Generator
	mdCfg := c.markdownConfig()
	svc, err := generator.NewService(generator.Config{
		ContentDir:      c.Config.Markdown.ContentDir,
		TemplatesDir:    c.Config.Templates.Dir,
		OutputDir:       gen.OutputDir,
		Pattern:         mdCfg.Pattern,
		Recursive:       mdCfg.Recursive,
		Engine:          mdCfg.Engine,
		Parser:          mdCfg.Parser,
		Site:            c.Config.Site,
		BaseURL:         gen.BaseURL,
		Layout:          gen.Layout,
		RequiredFields:  gen.RequiredFields,
		IncludeDrafts:   gen.IncludeDrafts,
		MaxPasses:       c.Config.Templates.MaxPasses,
		Workers:         gen.Workers,
		CleanBuild:      gen.CleanBuild,
		Incremental:     gen.Incremental,
		GenerateSitemap: gen.GenerateSitemap,
		GenerateRobots:  gen.GenerateRobots,
		VerifyHTML:      gen.VerifyHTML,
		StrictHTML:      gen.StrictHTML,
		RenderTimeout:   gen.RenderTimeout,
	}, generator.Dependencies{
		Content:        c.contentFS,
		Templates:      c.templatesFS,
		Logger:         logging.BuilderLogger(c.loggerProvider),
		TemplateLogger: logging.TemplatesLogger(c.loggerProvider),
		MarkdownLogger: mdCfg.Logger,
	}, c.generatorOptions...)
	if err != nil {
		return fmt.Errorf("di: configure generator: %w", err)
	}
	c.generatorSvc = svc
	return nil
}

func (c *Container) configureCommands() {
	gates := sitecmd.FeatureGates{
		GeneratorEnabled: func() bool { return c.generatorSvc != nil },
	}
	timeout := c.Config.Commands.Timeout
	logger := func(module string) interfaces.Logger {
		return commands.CommandLogger(c.loggerProvider, module)
	}

	c.buildHandler = sitecmd.NewBuildSiteHandler(c.generatorSvc, logger("build"), gates,
		timeoutOption[sitecmd.BuildSiteCommand](timeout)...)
	c.diffHandler = sitecmd.NewDiffSiteHandler(c.generatorSvc, logger("diff"), gates,
		timeoutOption[sitecmd.DiffSiteCommand](timeout)...)
	c.cleanHandler = sitecmd.NewCleanSiteHandler(c.generatorSvc, logger("clean"), gates,
		timeoutOption[sitecmd.CleanSiteCommand](timeout)...)
	c.renderHandler = sitecmd.NewRenderPageHandler(c.generatorSvc, logger("render"), gates,
		timeoutOption[sitecmd.RenderPageCommand](timeout)...)
	c.convertHandler = sitecmd.NewConvertMarkdownHandler(c.markdownSvc, logger("convert"),
		timeoutOption[sitecmd.ConvertMarkdownCommand](timeout)...)
}

// timeoutOption keeps the handler default when no timeout is configured.
func timeoutOption[T command.Message](timeout time.Duration) []commands.HandlerOption[T] {
	if timeout <= 0 {
		return nil
	}
	return []commands.HandlerOption[T]{commands.WithTimeout[T](timeout)}
}

// LoggerProvider returns the provider every module logger is drawn from.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// MarkdownService returns the configured markdown service.
func (c *Container) MarkdownService() *markdown.Service {
	return c.markdownSvc
}

// GeneratorService returns the configured generator.
func (c *Container) GeneratorService() generator.Service {
	return c.generatorSvc
}

// BuildHandler returns the site.build command handler.
func (c *Container) BuildHandler() *sitecmd.BuildSiteHandler {
	return c.buildHandler
}

// DiffHandler returns the site.diff command handler.
func (c *Container) DiffHandler() *sitecmd.DiffSiteHandler {
	return c.diffHandler
}

// CleanHandler returns the site.clean command handler.
func (c *Container) CleanHandler() *sitecmd.CleanSiteHandler {
	return c.cleanHandler
}

// RenderHandler returns the site.render command handler.
func (c *Container) RenderHandler() *sitecmd.RenderPageHandler {
	return c.renderHandler
}

// ConvertHandler returns the site.convert command handler.
func (c *Container) ConvertHandler() *sitecmd.ConvertMarkdownHandler {
	return c.convertHandler
}
