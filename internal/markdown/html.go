package markdown

import (
	"regexp"
	"strings"
)

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

	schemePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*:`)
)

// attribute is a single name/value pair. Boolean attributes render as the bare
// name.
type attribute struct {
	name    string
	value   string
	boolean bool
}

func attr(name, value string) attribute {
	return attribute{name: name, value: value}
}

func boolAttr(name string) attribute {
	return attribute{name: name, boolean: true}
}

var voidElements = map[string]struct{}{
	"br":    {},
	"hr":    {},
	"img":   {},
	"input": {},
}

func isVoid(tag string) bool {
	_, ok := voidElements[tag]
	return ok
}

func writeOpenTag(b *strings.Builder, tag string, attrs []attribute) {
	b.WriteByte('<')
	b.WriteString(tag)
	for _, a := range attrs {
		b.WriteByte(' ')
		b.WriteString(a.name)
		if a.boolean {
			continue
		}
		b.WriteString(`="`)
		attrEscaper.WriteString(b, a.value)
		b.WriteByte('"')
	}
	b.WriteByte('>')
}

func writeCloseTag(b *strings.Builder, tag string) {
	b.WriteString("</")
	b.WriteString(tag)
	b.WriteByte('>')
}

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

// isInternalLink reports whether href points inside the generated site and so
// must be rewritten relative to the current page depth.
func isInternalLink(href string) bool {
	href = strings.TrimSpace(href)
	switch {
	case href == "":
		return false
	case strings.HasPrefix(href, "/"), strings.HasPrefix(href, "#"):
		return false
	case schemePattern.MatchString(href):
		return false
	}
	return true
}

func relativeHref(href string, depth int) string {
	if depth <= 0 || !isInternalLink(href) {
		return href
	}
	return strings.Repeat("../", depth) + href
}
