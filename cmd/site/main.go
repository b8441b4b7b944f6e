package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/goliatone/go-mdsite/cmd/site/internal/bootstrap"
	sitecmd "github.com/goliatone/go-mdsite/internal/commands/site"
	"github.com/goliatone/go-mdsite/internal/generator"
)

type buildHandler interface {
	Execute(context.Context, sitecmd.BuildSiteCommand) error
}

type diffHandler interface {
	Execute(context.Context, sitecmd.DiffSiteCommand) error
}

type cleanHandler interface {
	Execute(context.Context, sitecmd.CleanSiteCommand) error
}

type renderHandler interface {
	Execute(context.Context, sitecmd.RenderPageCommand) error
}

type convertHandler interface {
	Execute(context.Context, sitecmd.ConvertMarkdownCommand) error
}

type handlerSet struct {
	build   buildHandler
	diff    diffHandler
	clean   cleanHandler
	render  renderHandler
	convert convertHandler
}

type moduleOptions struct {
	bootstrap bootstrap.Options
}

type moduleResources struct {
	handlers handlerSet
}

var moduleBuilder = buildModule

var (
	stdout io.Writer = os.Stdout
	stdin  io.Reader = os.Stdin
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("site: %v", err)
	}
}

func buildModule(opts moduleOptions) (*moduleResources, error) {
	resources, err := bootstrap.BuildModule(opts.bootstrap)
	if err != nil {
		return nil, err
	}
	container := resources.Module.Container()
	return &moduleResources{
		handlers: handlerSet{
			build:   container.BuildHandler(),
			diff:    container.DiffHandler(),
			clean:   container.CleanHandler(),
			render:  container.RenderHandler(),
			convert: container.ConvertHandler(),
		},
	}, nil
}

func run(args []string) error {
	if len(args) == 0 {
		return errors.New("missing subcommand (build, diff, clean, render, convert)")
	}

	switch args[0] {
	case "build":
		return runBuild(args[1:])
	case "diff":
		return runDiff(args[1:])
	case "clean":
		return runClean(args[1:])
	case "render":
		return runRender(args[1:])
	case "convert":
		return runConvert(args[1:])
	default:
		return fmt.Errorf("unknown subcommand %q", args[0])
	}
}

// pathList collects a repeatable --path flag.
type pathList []string

func (p *pathList) String() string { return strings.Join(*p, ",") }

func (p *pathList) Set(value string) error {
	*p = append(*p, value)
	return nil
}

type commonFlags struct {
	config    *string
	content   *string
	templates *string
	output    *string
	baseURL   *string
	engine    *string
	logLevel  *string
	drafts    *bool
}

func newFlagSet(name string) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet("site "+name, flag.ContinueOnError)
	common := &commonFlags{
		config:    fs.String("config", "", "Path to a YAML site configuration"),
		content:   fs.String("content", "", "Markdown content directory (overrides config)"),
		templates: fs.String("templates", "", "Template directory (overrides config)"),
		output:    fs.String("output", "", "Output directory (overrides config)"),
		baseURL:   fs.String("base-url", "", "Base URL used for sitemap and robots entries"),
		engine:    fs.String("engine", "", "Markdown engine: dialect or commonmark"),
		logLevel:  fs.String("log-level", "", "Log level (trace, debug, info, warn, error)"),
		drafts:    fs.Bool("drafts", false, "Include pages marked draft"),
	}
	return fs, common
}

func (c *commonFlags) options(fs *flag.FlagSet) moduleOptions {
	opts := bootstrap.Options{
		ConfigPath:   *c.config,
		ContentDir:   *c.content,
		TemplatesDir: *c.templates,
		OutputDir:    *c.output,
		BaseURL:      *c.baseURL,
		Engine:       *c.engine,
		LogLevel:     *c.logLevel,
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "drafts" {
			opts.Drafts = c.drafts
		}
	})
	return moduleOptions{bootstrap: opts}
}

func loadHandlers(opts moduleOptions) (handlerSet, error) {
	resources, err := moduleBuilder(opts)
	if err != nil {
		return handlerSet{}, fmt.Errorf("bootstrap module: %w", err)
	}
	if resources == nil {
		return handlerSet{}, errors.New("module resources not configured")
	}
	return resources.handlers, nil
}

func runBuild(args []string) error {
	fs, common := newFlagSet("build")
	var paths pathList
	fs.Var(&paths, "path", "Content path to build (repeatable)")
	force := fs.Bool("force", false, "Render every page even when unchanged")
	dryRun := fs.Bool("dry-run", false, "Render without writing artifacts")
	if err := fs.Parse(args); err != nil {
		return err
	}

	handlers, err := loadHandlers(common.options(fs))
	if err != nil {
		return err
	}
	if handlers.build == nil {
		return errors.New("build handler not configured")
	}

	return handlers.build.Execute(context.Background(), sitecmd.BuildSiteCommand{
		Paths:          paths,
		Force:          *force,
		DryRun:         *dryRun,
		ResultCallback: logResult,
	})
}

func runDiff(args []string) error {
	fs, common := newFlagSet("diff")
	var paths pathList
	fs.Var(&paths, "path", "Content path to diff (repeatable)")
	force := fs.Bool("force", false, "Report every page even when unchanged")
	if err := fs.Parse(args); err != nil {
		return err
	}

	handlers, err := loadHandlers(common.options(fs))
	if err != nil {
		return err
	}
	if handlers.diff == nil {
		return errors.New("diff handler not configured")
	}

	return handlers.diff.Execute(context.Background(), sitecmd.DiffSiteCommand{
		Paths:          paths,
		Force:          *force,
		ResultCallback: logResult,
	})
}

func runClean(args []string) error {
	fs, common := newFlagSet("clean")
	if err := fs.Parse(args); err != nil {
		return err
	}

	handlers, err := loadHandlers(common.options(fs))
	if err != nil {
		return err
	}
	if handlers.clean == nil {
		return errors.New("clean handler not configured")
	}

	if err := handlers.clean.Execute(context.Background(), sitecmd.CleanSiteCommand{}); err != nil {
		return err
	}
	log.Printf("module=site operation=clean status=ok")
	return nil
}

func runRender(args []string) error {
	fs, common := newFlagSet("render")
	pagePath := fs.String("path", "", "Content path of the page to render")
	if err := fs.Parse(args); err != nil {
		return err
	}

	handlers, err := loadHandlers(common.options(fs))
	if err != nil {
		return err
	}
	if handlers.render == nil {
		return errors.New("render handler not configured")
	}

	return handlers.render.Execute(context.Background(), sitecmd.RenderPageCommand{
		Path: *pagePath,
		ResultCallback: func(page *generator.RenderedPage) {
			if page == nil {
				return
			}
			log.Printf("module=site operation=render path=%s output=%s layout=%s", page.Path, page.Output, page.Layout)
			fmt.Fprint(stdout, page.HTML)
		},
	})
}

func runConvert(args []string) error {
	fs, common := newFlagSet("convert")
	depth := fs.Int("depth", 0, "Number of directories between the page and the site root")
	if err := fs.Parse(args); err != nil {
		return err
	}

	handlers, err := loadHandlers(common.options(fs))
	if err != nil {
		return err
	}
	if handlers.convert == nil {
		return errors.New("convert handler not configured")
	}

	source, err := io.ReadAll(stdin)
	if err != nil {
		return fmt.Errorf("read markdown: %w", err)
	}

	return handlers.convert.Execute(context.Background(), sitecmd.ConvertMarkdownCommand{
		Markdown:  string(source),
		LinkDepth: *depth,
		Engine:    *common.engine,
		ResultCallback: func(html string) {
			fmt.Fprintln(stdout, html)
		},
	})
}

func logResult(env sitecmd.ResultEnvelope) {
	operation, _ := env.Metadata["operation"].(string)
	if operation == "" {
		operation = "build"
	}
	result := env.Result
	if result == nil {
		log.Printf("module=site operation=%s status=incomplete", operation)
		return
	}
	log.Printf("module=site operation=%s summary pages_built=%d pages_skipped=%d dry_run=%t duration=%s",
		operation, result.PagesBuilt, result.PagesSkipped, result.DryRun, result.Duration)
	for _, diag := range result.Diagnostics {
		switch {
		case diag.Err != nil:
			log.Printf("module=site operation=%s page=%s error=%q", operation, diag.Path, diag.Err.Error())
		case len(diag.Warnings) > 0:
			log.Printf("module=site operation=%s page=%s warnings=%q", operation, diag.Path, strings.Join(diag.Warnings, "; "))
		case result.DryRun && !diag.Skipped:
			log.Printf("module=site operation=%s page=%s output=%s changed=true", operation, diag.Path, diag.Output)
		}
	}
}
