package markdown

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-mdsite/pkg/interfaces"
)

// Engine names accepted by NewRenderer.
const (
	EngineDialect    = "dialect"
	EngineCommonMark = "commonmark"
	EngineGoldmark   = "goldmark"
)

// ErrUnknownEngine is returned when an engine name is not recognised.
var ErrUnknownEngine = errors.New("markdown: unknown engine")

// NewRenderer returns a parser for the named engine. An empty name selects the
// dialect converter. The returned dialect converter is stateful and must be
// used by a single goroutine.
func NewRenderer(engine string, defaults interfaces.ParseOptions) (interfaces.MarkdownParser, error) {
	switch NormalizeEngine(engine) {
	case EngineDialect:
		return NewConverter(defaults), nil
	case EngineCommonMark:
		return NewGoldmarkParser(defaults), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, engine)
}

// NormalizeEngine maps engine aliases to their canonical name.
func NormalizeEngine(engine string) string {
	switch key := strings.ToLower(strings.TrimSpace(engine)); key {
	case "", EngineDialect:
		return EngineDialect
	case EngineCommonMark, EngineGoldmark:
		return EngineCommonMark
	default:
		return key
	}
}
