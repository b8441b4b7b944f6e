package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-mdsite/internal/markdown"
	"github.com/goliatone/go-mdsite/internal/templates"
	"github.com/goliatone/go-mdsite/pkg/interfaces"
)

// Keys added to the page group next to the front matter values. They win
// over front matter keys of the same name.
const (
	pageKeyPath   = "path"
	pageKeyURL    = "url"
	pageKeyRoot   = "root"
	pageKeyID     = "id"
	pageKeyLayout = "layout"
	pageKeyDate   = "modified"
)

const buildGroup = "build"

// renderPage converts the page body, registers it as the page group of a
// cloned engine and resolves the layout placeholder. Balance problems are
// returned as warnings unless StrictHTML is set.
func (s *service) renderPage(ctx context.Context, buildCtx *BuildContext, data *PageData) (*RenderedPage, []string, error) {
	if s.cfg.RenderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RenderTimeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	start := time.Now()
	doc := data.Document
	body, err := buildCtx.Markdown.Render(ctx, doc.Body, interfaces.ParseOptions{LinkDepth: data.LinkDepth})
	if err != nil {
		return nil, nil, fmt.Errorf("generator: page %s: convert body: %w", data.Path, err)
	}

	engine := buildCtx.Engine.Clone()
	if isReservedGroup(data.Layout) {
		return nil, nil, fmt.Errorf("%w: page %s uses %q", ErrLayoutReserved, data.Path, data.Layout)
	}
	if !engine.Store().HasGroup(data.Layout) {
		return nil, nil, fmt.Errorf("%w: page %s uses layout %q", ErrLayoutMissing, data.Path, data.Layout)
	}
	engine.Register(buildGroup, map[string]string{
		pageKeyID:      buildCtx.BuildID.String(),
		"generated_at": buildCtx.GeneratedAt.Format(time.RFC3339),
	})
	engine.Register(templates.PageGroup, pageValues(data, string(body)))

	html, err := engine.Resolve("{{" + data.Layout + "}}")
	if err != nil {
		return nil, nil, fmt.Errorf("generator: page %s: %w", data.Path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("generator: page %s: %w", data.Path, err)
	}

	var warnings []string
	if s.cfg.VerifyHTML {
		if err := markdown.CheckBalanced([]byte(html)); err != nil {
			if s.cfg.StrictHTML {
				return nil, nil, fmt.Errorf("generator: page %s: %w", data.Path, err)
			}
			warnings = append(warnings, err.Error())
		}
	}

	return &RenderedPage{
		PageID:       data.ID,
		Path:         data.Path,
		Output:       data.Output,
		Route:        pageRoute(data.Output),
		Layout:       data.Layout,
		HTML:         html,
		Checksum:     computeHashFromString(html),
		LastModified: doc.LastModified,
		Duration:     time.Since(start),
	}, warnings, nil
}

func isReservedGroup(name string) bool {
	switch name {
	case templates.PageGroup, templates.SiteGroup, buildGroup:
		return true
	default:
		return false
	}
}

func pageValues(data *PageData, body string) map[string]string {
	values := make(map[string]string, len(data.Document.FrontMatter.Values)+7)
	for key, value := range data.Document.FrontMatter.Values {
		values[key] = value
	}
	values[templates.DefaultKey] = body
	values[pageKeyPath] = data.Path
	values[pageKeyURL] = pageRoute(data.Output)
	values[pageKeyRoot] = rootPrefix(data.LinkDepth)
	values[pageKeyID] = data.ID.String()
	values[pageKeyLayout] = data.Layout
	if !data.Document.LastModified.IsZero() {
		values[pageKeyDate] = data.Document.LastModified.UTC().Format(time.RFC3339)
	}
	return values
}
