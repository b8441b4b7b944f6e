package generator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-mdsite/internal/identity"
	"github.com/goliatone/go-mdsite/internal/markdown"
	"github.com/goliatone/go-mdsite/internal/templates"
	"github.com/goliatone/go-mdsite/pkg/interfaces"
	"github.com/google/uuid"
)

// BuildContext holds everything shared by the pages of one build.
type BuildContext struct {
	BuildID     uuid.UUID
	GeneratedAt time.Time
	// Engine carries the template files and the site group. Pages render
	// against a Clone so they never observe each other's page group.
	Engine      *templates.Engine
	Markdown    *markdown.Service
	Fingerprint string
	Pages       []*PageData
}

// PageData is a loaded page with its computed output location.
type PageData struct {
	ID        uuid.UUID
	Path      string
	Output    string
	LinkDepth int
	Layout    string
	// Hash covers the page source and the template fingerprint.
	Hash     string
	Document *interfaces.Document
}

func (s *service) loadContext(ctx context.Context, buildID uuid.UUID, only []string) (*BuildContext, error) {
	contentFS, err := s.inputFS(s.deps.Content, s.cfg.ContentDir, "content")
	if err != nil {
		return nil, err
	}
	templatesFS, err := s.inputFS(s.deps.Templates, s.cfg.TemplatesDir, "templates")
	if err != nil {
		return nil, err
	}

	store, err := templates.LoadDir(templatesFS, ".")
	if err != nil {
		return nil, fmt.Errorf("generator: load templates: %w", err)
	}
	engineOpts := []templates.Option{
		templates.WithStore(store),
		templates.WithLogger(s.deps.TemplateLogger),
	}
	if s.cfg.MaxPasses > 0 {
		engineOpts = append(engineOpts, templates.WithMaxPasses(s.cfg.MaxPasses))
	}
	engine := templates.NewEngine(engineOpts...)
	if len(s.cfg.Site) > 0 {
		engine.Register(templates.SiteGroup, s.cfg.Site)
	}

	mdService, err := markdown.NewServiceFS(contentFS, markdown.Config{
		Pattern:   s.cfg.Pattern,
		Recursive: s.cfg.Recursive,
		Engine:    s.cfg.Engine,
		Parser:    s.cfg.Parser,
		Logger:    s.deps.MarkdownLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}

	paths := normalizePaths(only)
	if len(paths) == 0 {
		if paths, err = mdService.Discover(ctx, "."); err != nil {
			return nil, fmt.Errorf("generator: discover pages: %w", err)
		}
	}

	buildCtx := &BuildContext{
		BuildID:     buildID,
		GeneratedAt: s.now().UTC(),
		Engine:      engine,
		Markdown:    mdService,
		Fingerprint: storeFingerprint(engine.Store(), s.cfg),
		Pages:       make([]*PageData, 0, len(paths)),
	}

	outputs := make(map[string]string, len(paths))
	for _, pagePath := range paths {
		doc, err := mdService.Load(ctx, pagePath)
		if err != nil {
			switch {
			case errors.Is(err, markdown.ErrNoFrontMatter):
				return nil, fmt.Errorf("%w: %s", ErrMissingFrontMatter, pagePath)
			case errors.Is(err, fs.ErrNotExist) && len(only) > 0:
				return nil, fmt.Errorf("%w: %s", ErrPageNotFound, pagePath)
			default:
				return nil, fmt.Errorf("generator: load page %s: %w", pagePath, err)
			}
		}
		if doc.FrontMatter.Draft && !s.cfg.IncludeDrafts {
			continue
		}
		if err := s.validator.Validate(doc.FrontMatter.Values); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrRequiredFields, pagePath, err)
		}

		output, err := pageOutputPath(doc.FilePath, doc.FrontMatter.Slug)
		if err != nil {
			return nil, err
		}
		if previous, ok := outputs[output]; ok {
			return nil, fmt.Errorf("%w: %s and %s both render to %s", ErrDuplicateOutput, previous, doc.FilePath, output)
		}
		outputs[output] = doc.FilePath

		buildCtx.Pages = append(buildCtx.Pages, &PageData{
			ID:        identity.PageUUID(doc.FilePath),
			Path:      doc.FilePath,
			Output:    output,
			LinkDepth: linkDepth(output),
			Layout:    s.pageLayout(doc.FrontMatter),
			Hash:      pageHash(buildCtx.Fingerprint, doc),
			Document:  doc,
		})
	}

	sort.Slice(buildCtx.Pages, func(i, j int) bool {
		return buildCtx.Pages[i].Path < buildCtx.Pages[j].Path
	})
	return buildCtx, nil
}

// inputFS returns the injected filesystem or opens dir after checking it exists.
func (s *service) inputFS(injected fs.FS, dir, label string) (fs.FS, error) {
	if injected != nil {
		return injected, nil
	}
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: %s directory not configured", ErrInputDirMissing, label)
	}
	info, err := os.Stat(trimmed)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s directory %s does not exist", ErrInputDirMissing, label, trimmed)
		}
		return nil, fmt.Errorf("generator: stat %s directory %s: %w", label, trimmed, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s path %s is not a directory", ErrInputDirMissing, label, trimmed)
	}
	return os.DirFS(trimmed), nil
}

// pageLayout picks the template group for a page: front matter "layout",
// then "template", then the configured default.
func (s *service) pageLayout(fm interfaces.FrontMatter) string {
	if layout := strings.TrimSpace(fm.Layout); layout != "" {
		return layout
	}
	if layout := strings.TrimSpace(fm.Values["template"]); layout != "" {
		return layout
	}
	return s.cfg.Layout
}

func normalizePaths(paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, 0, len(paths))
	seen := map[string]struct{}{}
	for _, p := range paths {
		trimmed := strings.TrimPrefix(strings.TrimSpace(strings.ReplaceAll(p, "\\", "/")), "./")
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

// storeFingerprint hashes every template value and the settings that change
// page output, so editing a template invalidates incremental skips.
func storeFingerprint(store *templates.Store, cfg Config) string {
	var builder strings.Builder
	for _, group := range store.Groups() {
		for _, key := range store.Keys(group) {
			value, _ := store.Lookup(group, key)
			builder.WriteString(group)
			builder.WriteByte(0)
			builder.WriteString(key)
			builder.WriteByte(0)
			builder.WriteString(value)
			builder.WriteByte(0)
		}
	}
	builder.WriteString(cfg.Layout)
	builder.WriteByte(0)
	builder.WriteString(markdown.NormalizeEngine(cfg.Engine))
	builder.WriteByte(0)
	builder.WriteString(strconv.FormatBool(cfg.Parser.HardWraps))
	builder.WriteString(strconv.FormatBool(cfg.Parser.SafeMode))
	builder.WriteString(strings.Join(cfg.Parser.Extensions, ","))
	return computeHashFromString(builder.String())
}

func pageHash(fingerprint string, doc *interfaces.Document) string {
	data := make([]byte, 0, len(fingerprint)+len(doc.FilePath)+len(doc.Checksum)+2)
	data = append(data, fingerprint...)
	data = append(data, 0)
	data = append(data, doc.FilePath...)
	data = append(data, 0)
	data = append(data, doc.Checksum...)
	return computeHash(data)
}
