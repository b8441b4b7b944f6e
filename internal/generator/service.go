package generator

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-mdsite/internal/logging"
	"github.com/goliatone/go-mdsite/internal/validation"
	"github.com/goliatone/go-mdsite/pkg/interfaces"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrServiceDisabled indicates the generator has not been configured.
	ErrServiceDisabled = errors.New("generator: service disabled")
	// ErrInputDirMissing is returned when the content or templates directory does not exist.
	ErrInputDirMissing = errors.New("generator: input directory missing")
	// ErrMissingFrontMatter is returned for pages without a front matter block.
	ErrMissingFrontMatter = errors.New("generator: page has no front matter")
	// ErrRequiredFields is returned when a page omits a required front matter field.
	ErrRequiredFields = errors.New("generator: page is missing required fields")
	// ErrLayoutMissing is returned when a page names a layout with no template group.
	ErrLayoutMissing = errors.New("generator: layout template not found")
	// ErrLayoutReserved is returned when a layout names a group the builder fills itself.
	ErrLayoutReserved = errors.New("generator: layout name is reserved")
	// ErrDuplicateOutput is returned when two pages map to the same output file.
	ErrDuplicateOutput = errors.New("generator: duplicate output path")
	// ErrPageNotFound is returned by RenderPage for unknown paths.
	ErrPageNotFound = errors.New("generator: page not found")

	errOutputDirRequired = errors.New("generator: output directory is required")
)

// Service describes the static site generator contract.
type Service interface {
	Build(ctx context.Context, opts BuildOptions) (*BuildResult, error)
	RenderPage(ctx context.Context, path string) (*RenderedPage, error)
	Clean(ctx context.Context) error
}

// Config captures runtime behaviour toggles for the generator.
type Config struct {
	ContentDir      string
	TemplatesDir    string
	OutputDir       string
	Pattern         string
	Recursive       bool
	Engine          string
	Parser          interfaces.ParseOptions
	Site            map[string]string
	BaseURL         string
	Layout          string
	RequiredFields  []string
	IncludeDrafts   bool
	MaxPasses       int
	Workers         int
	CleanBuild      bool
	Incremental     bool
	GenerateSitemap bool
	GenerateRobots  bool
	VerifyHTML      bool
	StrictHTML      bool
	RenderTimeout   time.Duration
}

// Dependencies lists optional collaborators. Nil filesystems fall back to the
// configured directories on disk.
type Dependencies struct {
	Content   fs.FS
	Templates fs.FS
	Logger    interfaces.Logger
	// TemplateLogger receives placeholder resolution traces.
	TemplateLogger interfaces.Logger
	MarkdownLogger interfaces.Logger
}

// BuildOptions narrows the scope of a generator run.
type BuildOptions struct {
	// Paths limits the build to these content paths. Sitemap and robots are
	// only regenerated on full builds.
	Paths  []string
	DryRun bool
	// Force renders every page even when the manifest says it is unchanged.
	Force bool
}

// BuildResult reports aggregated build metadata.
type BuildResult struct {
	BuildID      uuid.UUID
	PagesBuilt   int
	PagesSkipped int
	Duration     time.Duration
	Rendered     []RenderedPage
	Diagnostics  []RenderDiagnostic
	DryRun       bool
}

// RenderedPage is one assembled page.
type RenderedPage struct {
	PageID       uuid.UUID
	Path         string
	Output       string
	Route        string
	Layout       string
	HTML         string
	Checksum     string
	LastModified time.Time
	Duration     time.Duration
}

// RenderDiagnostic records the outcome of a single page.
type RenderDiagnostic struct {
	Path     string
	Output   string
	Layout   string
	Duration time.Duration
	Skipped  bool
	Warnings []string
	Err      error
}

// Option customises the service.
type Option func(*service)

// WithClock overrides the time source used for manifest and sitemap dates.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMemoryOutput keeps artifacts in memory instead of writing OutputDir.
// The returned function lists them by output path.
func WithMemoryOutput() (Option, func() map[string]string) {
	writer := newMemoryWriter()
	return func(s *service) {
		s.newWriter = func(dryRun bool) artifactWriter {
			if dryRun {
				return noopWriter{source: writer}
			}
			return writer
		}
	}, writer.Files
}

// NewService wires a generator implementation with the provided configuration and dependencies.
func NewService(cfg Config, deps Dependencies, opts ...Option) (Service, error) {
	if strings.TrimSpace(cfg.OutputDir) == "" {
		return nil, errOutputDirRequired
	}
	validator, err := validation.NewRequiredFieldsValidator(cfg.RequiredFields)
	if err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = logging.NoOp()
	}
	if deps.MarkdownLogger == nil {
		deps.MarkdownLogger = logging.NoOp()
	}
	if deps.TemplateLogger == nil {
		deps.TemplateLogger = logging.NoOp()
	}
	if strings.TrimSpace(cfg.Layout) == "" {
		cfg.Layout = "default"
	}
	s := &service{
		cfg:       cfg,
		deps:      deps,
		validator: validator,
		now:       time.Now,
	}
	s.newWriter = func(dryRun bool) artifactWriter {
		return newArtifactWriter(s.cfg.OutputDir, dryRun)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// NewDisabledService returns a Service that fails all operations with ErrServiceDisabled.
func NewDisabledService() Service {
	return disabledService{}
}

type service struct {
	cfg       Config
	deps      Dependencies
	validator *validation.Validator
	now       func() time.Time
	newWriter func(dryRun bool) artifactWriter
}

type disabledService struct{}

func (s *service) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	buildID := uuid.New()
	logger := logging.WithFields(s.deps.Logger, map[string]any{"build_id": buildID.String()})

	buildCtx, err := s.loadContext(ctx, buildID, opts.Paths)
	if err != nil {
		logger.Error("site.build.context_failed", "error", err)
		return nil, err
	}

	result := &BuildResult{
		BuildID:     buildID,
		DryRun:      opts.DryRun,
		Diagnostics: make([]RenderDiagnostic, 0, len(buildCtx.Pages)),
	}
	fullBuild := len(opts.Paths) == 0
	writer := s.newWriter(opts.DryRun)

	if fullBuild && s.cfg.CleanBuild && !s.cfg.Incremental && !opts.DryRun {
		if err := writer.RemoveAll(ctx); err != nil {
			return nil, fmt.Errorf("generator: clean output: %w", err)
		}
	}

	manifest := newBuildManifest()
	if s.cfg.Incremental || !fullBuild {
		data, err := writer.ReadFile(ctx, manifestFileName)
		if err != nil {
			return nil, fmt.Errorf("generator: read manifest: %w", err)
		}
		if manifest, err = parseManifest(data); err != nil {
			logger.Warn("site.build.manifest_ignored", "error", err)
			manifest = newBuildManifest()
		}
	}

	var (
		mu       sync.Mutex
		rendered = make([]RenderedPage, 0, len(buildCtx.Pages))
	)
	collect := func(diag RenderDiagnostic, page *RenderedPage) {
		mu.Lock()
		defer mu.Unlock()
		result.Diagnostics = append(result.Diagnostics, diag)
		switch {
		case diag.Err != nil:
		case diag.Skipped:
			result.PagesSkipped++
		default:
			result.PagesBuilt++
			if page != nil {
				rendered = append(rendered, *page)
			}
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.effectiveWorkerCount(len(buildCtx.Pages)))
	for _, data := range buildCtx.Pages {
		group.Go(func() error {
			pageLogger := logging.WithPageContext(logger, data.Path, data.Output, "render")
			diag := RenderDiagnostic{Path: data.Path, Output: data.Output, Layout: data.Layout}

			if s.cfg.Incremental && !opts.Force && manifest.shouldSkipPage(data.Path, data.Hash, data.Output) {
				diag.Skipped = true
				collect(diag, nil)
				pageLogger.Debug("site.build.page.skipped")
				return nil
			}

			page, warnings, err := s.renderPage(groupCtx, buildCtx, data)
			diag.Warnings = warnings
			if err != nil {
				diag.Err = err
				collect(diag, nil)
				pageLogger.Error("site.build.page.failed", "error", err)
				return err
			}
			diag.Duration = page.Duration
			for _, warning := range warnings {
				pageLogger.Warn("site.build.page.warning", "warning", warning)
			}

			if err := writer.WriteFile(groupCtx, writeFileRequest{
				Path:     page.Output,
				Content:  strings.NewReader(page.HTML),
				Category: categoryPage,
				Checksum: page.Checksum,
			}); err != nil {
				err = fmt.Errorf("generator: page %s: %w", data.Path, err)
				diag.Err = err
				collect(diag, nil)
				return err
			}
			collect(diag, page)
			pageLogger.Info("site.build.page.rendered", "duration", page.Duration)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		result.Duration = time.Since(start)
		sortDiagnostics(result.Diagnostics)
		logger.Error("site.build.failed", "error", err, "duration", result.Duration)
		return result, err
	}

	sort.Slice(rendered, func(i, j int) bool { return rendered[i].Path < rendered[j].Path })
	sortDiagnostics(result.Diagnostics)
	result.Rendered = rendered

	if !opts.DryRun {
		if err := s.writeSupportFiles(ctx, writer, buildCtx, manifest, rendered, fullBuild); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}
	}

	result.Duration = time.Since(start)
	logger.Info("site.build.completed",
		"pages_built", result.PagesBuilt,
		"pages_skipped", result.PagesSkipped,
		"dry_run", opts.DryRun,
		"duration", result.Duration,
	)
	return result, nil
}

func (s *service) writeSupportFiles(
	ctx context.Context,
	writer artifactWriter,
	buildCtx *BuildContext,
	manifest *buildManifest,
	rendered []RenderedPage,
	fullBuild bool,
) error {
	keep := make(map[string]struct{}, len(buildCtx.Pages))
	for _, data := range buildCtx.Pages {
		keep[manifest.pageKey(data.Path)] = struct{}{}
	}
	hashes := make(map[string]*PageData, len(buildCtx.Pages))
	for _, data := range buildCtx.Pages {
		hashes[data.Path] = data
	}
	for _, page := range rendered {
		data := hashes[page.Path]
		if data == nil {
			continue
		}
		manifest.setPage(manifestPage{
			Path:         page.Path,
			PageID:       page.PageID.String(),
			Output:       page.Output,
			Layout:       page.Layout,
			Hash:         data.Hash,
			Checksum:     page.Checksum,
			LastModified: page.LastModified,
			RenderedAt:   buildCtx.GeneratedAt,
		})
	}

	if fullBuild {
		manifest.prunePages(keep)
		if s.cfg.GenerateSitemap {
			pages := make([]RenderedPage, 0, len(buildCtx.Pages))
			for _, data := range buildCtx.Pages {
				pages = append(pages, RenderedPage{Output: data.Output, LastModified: data.Document.LastModified})
			}
			content := buildSitemap(s.cfg.BaseURL, pages, buildCtx.GeneratedAt)
			if err := writer.WriteFile(ctx, writeFileRequest{
				Path:     "sitemap.xml",
				Content:  strings.NewReader(content),
				Category: categorySitemap,
				Checksum: computeHashFromString(content),
			}); err != nil {
				return fmt.Errorf("generator: write sitemap: %w", err)
			}
		}
		if s.cfg.GenerateRobots {
			content := buildRobots(s.cfg.BaseURL, s.cfg.GenerateSitemap)
			if err := writer.WriteFile(ctx, writeFileRequest{
				Path:     "robots.txt",
				Content:  strings.NewReader(content),
				Category: categoryRobots,
				Checksum: computeHashFromString(content),
			}); err != nil {
				return fmt.Errorf("generator: write robots: %w", err)
			}
		}
	}

	manifest.BuildID = buildCtx.BuildID.String()
	manifest.GeneratedAt = buildCtx.GeneratedAt
	data, err := manifest.marshal()
	if err != nil {
		return err
	}
	if err := writer.WriteFile(ctx, writeFileRequest{
		Path:     manifestFileName,
		Content:  bytes.NewReader(data),
		Category: categoryManifest,
		Checksum: computeHash(data),
	}); err != nil {
		return fmt.Errorf("generator: write manifest: %w", err)
	}
	return nil
}

// RenderPage assembles a single page without writing it.
func (s *service) RenderPage(ctx context.Context, path string) (*RenderedPage, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: empty path", ErrPageNotFound)
	}
	buildCtx, err := s.loadContext(ctx, uuid.New(), []string{path})
	if err != nil {
		return nil, err
	}
	if len(buildCtx.Pages) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, path)
	}
	page, warnings, err := s.renderPage(ctx, buildCtx, buildCtx.Pages[0])
	if err != nil {
		return nil, err
	}
	for _, warning := range warnings {
		logging.WithPageContext(s.deps.Logger, page.Path, page.Output, "render").Warn("site.build.page.warning", "warning", warning)
	}
	return page, nil
}

// Clean removes everything under the output directory.
func (s *service) Clean(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.newWriter(false).RemoveAll(ctx); err != nil {
		return fmt.Errorf("generator: clean output: %w", err)
	}
	s.deps.Logger.Info("site.clean.completed", "output_dir", s.cfg.OutputDir)
	return nil
}

func (s *service) effectiveWorkerCount(pages int) int {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}
	if pages > 0 && workers > pages {
		return pages
	}
	return workers
}

func sortDiagnostics(diags []RenderDiagnostic) {
	sort.SliceStable(diags, func(i, j int) bool { return diags[i].Path < diags[j].Path })
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func computeHashFromString(content string) string {
	return computeHash([]byte(content))
}

func (disabledService) Build(context.Context, BuildOptions) (*BuildResult, error) {
	return nil, ErrServiceDisabled
}

func (disabledService) RenderPage(context.Context, string) (*RenderedPage, error) {
	return nil, ErrServiceDisabled
}

func (disabledService) Clean(context.Context) error {
	return ErrServiceDisabled
}
