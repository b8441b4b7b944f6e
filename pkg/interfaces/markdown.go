package interfaces

import (
	"context"
	"time"
)

// MarkdownParser defines how page bodies are converted into HTML. Both the
// dialect converter and the CommonMark engine satisfy it so the site builder
// can switch engines through configuration.
type MarkdownParser interface {
	// Parse converts Markdown into HTML using the parser's default settings.
	Parse(markdown []byte) ([]byte, error)
	// ParseWithOptions converts Markdown into HTML using the supplied overrides.
	ParseWithOptions(markdown []byte, opts ParseOptions) ([]byte, error)
}

// ParseOptions customises Markdown parsing behaviour, keeping option names
// readable for configuration unmarshalling and CLI flags.
type ParseOptions struct {
	Extensions []string
	HardWraps  bool
	SafeMode   bool
	// LinkDepth is the number of directories between the page and the site
	// root. Internal links are prefixed with "../" once per level.
	LinkDepth int
}

// MarkdownService exposes page document workflows: discovery, front matter
// extraction and rendering.
type MarkdownService interface {
	Load(ctx context.Context, path string) (*Document, error)
	LoadDirectory(ctx context.Context, dir string) ([]*Document, error)
	Render(ctx context.Context, markdown []byte, opts ParseOptions) ([]byte, error)
	RenderDocument(ctx context.Context, doc *Document, opts ParseOptions) ([]byte, error)
}

// Document represents a Markdown page with parsed metadata and content.
type Document struct {
	FilePath     string
	FrontMatter  FrontMatter
	Body         []byte
	BodyHTML     []byte
	LastModified time.Time
	// Checksum stores the SHA-256 digest of the original file content so
	// incremental builds can detect unchanged pages.
	Checksum []byte
}

// FrontMatter models page metadata. Well known keys are lifted into fields;
// Values holds every key flattened to strings so it can be registered as a
// template group.
type FrontMatter struct {
	Title  string            `yaml:"title" json:"title"`
	Layout string            `yaml:"layout" json:"layout"`
	Slug   string            `yaml:"slug" json:"slug"`
	Draft  bool              `yaml:"draft" json:"draft"`
	Raw    map[string]any    `yaml:"-" json:"raw"`
	Values map[string]string `yaml:"-" json:"values"`
}
