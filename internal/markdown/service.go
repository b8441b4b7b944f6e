package markdown

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/goliatone/go-mdsite/internal/logging"
	"github.com/goliatone/go-mdsite/pkg/interfaces"
)

// Config controls how the Markdown service discovers and renders pages.
type Config struct {
	BasePath  string
	Pattern   string
	Recursive bool
	Engine    string
	Parser    interfaces.ParseOptions
	Logger    interfaces.Logger
}

// Service implements interfaces.MarkdownService for filesystem-backed pages.
// Every render builds a fresh parser, so the service can be shared by
// concurrent page builds even when the dialect converter is selected.
type Service struct {
	cfg    Config
	loader *Loader
	logger interfaces.Logger
}

var _ interfaces.MarkdownService = (*Service)(nil)

// NewService constructs a Markdown service rooted at cfg.BasePath.
func NewService(cfg Config) (*Service, error) {
	filesystem, err := prepareFilesystem(cfg.BasePath)
	if err != nil {
		return nil, err
	}
	return NewServiceFS(filesystem, cfg)
}

// NewServiceFS constructs a Markdown service over an existing filesystem.
func NewServiceFS(filesystem fs.FS, cfg Config) (*Service, error) {
	if _, err := NewRenderer(cfg.Engine, cfg.Parser); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Service{
		cfg:    cfg,
		logger: logger,
		loader: NewLoader(filesystem, LoaderConfig{
			Pattern:   cfg.Pattern,
			Recursive: cfg.Recursive,
		}),
	}, nil
}

// Engine reports the canonical engine name in use.
func (s *Service) Engine() string {
	return NormalizeEngine(s.cfg.Engine)
}

// Load reads a single page relative to the base path. The body is not
// rendered because the link depth depends on where the page is written.
func (s *Service) Load(ctx context.Context, path string) (*interfaces.Document, error) {
	result, err := s.loader.LoadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("markdown.document.loaded",
		"path", result.Document.FilePath,
		"bytes", len(result.Document.Body),
	)
	return result.Document, nil
}

// LoadDirectory reads every page within dir, sorted by path.
func (s *Service) LoadDirectory(ctx context.Context, dir string) ([]*interfaces.Document, error) {
	results, err := s.loader.LoadDirectory(ctx, dir)
	if err != nil {
		return nil, err
	}
	docs := make([]*interfaces.Document, 0, len(results))
	for _, result := range results {
		docs = append(docs, result.Document)
	}
	return docs, nil
}

// Discover lists page paths under dir.
func (s *Service) Discover(ctx context.Context, dir string) ([]string, error) {
	return s.loader.Discover(ctx, dir)
}

// Render converts Markdown bytes into HTML with the configured engine.
func (s *Service) Render(ctx context.Context, markdown []byte, opts interfaces.ParseOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	merged := mergeParseOptions(s.cfg.Parser, opts)
	parser, err := NewRenderer(s.cfg.Engine, merged)
	if err != nil {
		return nil, err
	}
	html, err := parser.ParseWithOptions(markdown, merged)
	if err != nil {
		s.logger.Error("markdown.render.failed", "engine", s.Engine(), "error", err)
		return nil, err
	}
	return html, nil
}

// RenderDocument converts the document body into HTML and stores it on the
// document.
func (s *Service) RenderDocument(ctx context.Context, doc *interfaces.Document, opts interfaces.ParseOptions) ([]byte, error) {
	if doc == nil {
		return nil, errors.New("markdown service: document is nil")
	}
	html, err := s.Render(ctx, doc.Body, opts)
	if err != nil {
		return nil, fmt.Errorf("markdown render document %s: %w", doc.FilePath, err)
	}
	doc.BodyHTML = html
	return html, nil
}

func mergeParseOptions(base, override interfaces.ParseOptions) interfaces.ParseOptions {
	result := base
	if len(override.Extensions) > 0 {
		result.Extensions = append([]string(nil), override.Extensions...)
	}
	if override.HardWraps {
		result.HardWraps = true
	}
	if override.SafeMode {
		result.SafeMode = true
	}
	if override.LinkDepth > 0 {
		result.LinkDepth = override.LinkDepth
	}
	return result
}

func prepareFilesystem(basePath string) (fs.FS, error) {
	if strings.TrimSpace(basePath) == "" {
		basePath = "."
	}
	if _, err := os.Stat(basePath); err != nil {
		return nil, fmt.Errorf("markdown service: stat base path %s: %w", basePath, err)
	}
	return os.DirFS(basePath), nil
}
