package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/goliatone/go-mdsite/pkg/interfaces"
)

const frontMatterDelimiter = "---"

// ErrNoFrontMatter is returned when a page does not open with a "---" block.
var ErrNoFrontMatter = errors.New("markdown: front matter block not found")

// ParseFrontMatter splits source into its YAML header and the Markdown body.
// The body is trimmed. Every header value is also flattened into
// FrontMatter.Values so it can be registered as a template group.
func ParseFrontMatter(source []byte) (interfaces.FrontMatter, []byte, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(source, " \t\r\n"), []byte(frontMatterDelimiter)) {
		return interfaces.FrontMatter{}, nil, ErrNoFrontMatter
	}

	raw := map[string]any{}
	body, err := frontmatter.Parse(bytes.NewReader(source), &raw)
	if err != nil {
		return interfaces.FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	return buildFrontMatter(raw), bytes.TrimSpace(body), nil
}

// BuildDocument assembles a Document from a page path, its raw content and
// modification time. BodyHTML is left empty so callers can render lazily.
func BuildDocument(path string, source []byte, modified time.Time) (*interfaces.Document, error) {
	meta, body, err := ParseFrontMatter(source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &interfaces.Document{
		FilePath:     path,
		FrontMatter:  meta,
		Body:         body,
		LastModified: modified,
	}, nil
}

func buildFrontMatter(raw map[string]any) interfaces.FrontMatter {
	values := map[string]string{}
	flattenValues("", raw, values)

	meta := interfaces.FrontMatter{
		Title:  values["title"],
		Layout: values["layout"],
		Slug:   values["slug"],
		Raw:    raw,
		Values: values,
	}
	if draft, ok := raw["draft"].(bool); ok {
		meta.Draft = draft
	}
	return meta
}

// flattenValues turns nested maps into dotted keys, joins lists with ", " and
// formats times as RFC3339.
func flattenValues(prefix string, input map[string]any, out map[string]string) {
	for key, value := range input {
		name := key
		if prefix != "" {
			name = prefix + "." + key
		}
		switch typed := value.(type) {
		case map[string]any:
			flattenValues(name, typed, out)
		case map[any]any:
			flattenValues(name, stringKeys(typed), out)
		default:
			out[name] = stringifyValue(typed)
		}
	}
}

func stringifyValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case uint64:
		return strconv.FormatUint(typed, 10)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case time.Time:
		return typed.Format(time.RFC3339)
	case []any:
		parts := make([]string, 0, len(typed))
		for _, item := range typed {
			parts = append(parts, stringifyValue(item))
		}
		return strings.Join(parts, ", ")
	case map[any]any:
		return stringifyValue(stringKeys(typed))
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, key := range keys {
			parts = append(parts, key+": "+stringifyValue(typed[key]))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(typed)
	}
}

// stringKeys normalises maps decoded by the YAML v2 decoder, which keys nested
// mappings by interface values.
func stringKeys(input map[any]any) map[string]any {
	out := make(map[string]any, len(input))
	for key, value := range input {
		out[fmt.Sprint(key)] = value
	}
	return out
}
