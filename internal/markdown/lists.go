package markdown

import "strings"

// listIndentUnit is the number of leading columns per nesting level. Tabs
// count as tabWidth columns.
const (
	listIndentUnit = 2
	tabWidth       = 4
)

type listMarker struct {
	indent  int
	tag     string
	content string
}

// matchListItem recognises "*", "-" (unordered) and "N." (ordered) markers
// followed by whitespace, after optional indentation.
func matchListItem(text string) (listMarker, bool) {
	width, i := 0, 0
scan:
	for ; i < len(text); i++ {
		switch text[i] {
		case ' ':
			width++
		case '\t':
			width += tabWidth
		default:
			break scan
		}
	}
	rest := text[i:]
	if rest == "" {
		return listMarker{}, false
	}

	tag, n := "", 0
	switch rest[0] {
	case '*', '-':
		tag, n = "ul", 1
	default:
		digits := 0
		for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
			digits++
		}
		if digits == 0 || digits >= len(rest) || rest[digits] != '.' {
			return listMarker{}, false
		}
		tag, n = "ol", digits+1
	}
	if n >= len(rest) || (rest[n] != ' ' && rest[n] != '\t') {
		return listMarker{}, false
	}

	return listMarker{
		indent:  width,
		tag:     tag,
		content: strings.TrimSpace(rest[n:]),
	}, true
}

func (c *Converter) listItem(line blockLine) bool {
	marker, ok := matchListItem(line.text)
	if !ok {
		return false
	}
	target := marker.indent/listIndentUnit + 1

	if c.listDepth == 0 {
		c.beginBlock()
	}

	for c.listDepth > target {
		c.closeThrough(c.innermostList())
	}

	if c.listDepth == target {
		c.closeThrough("li")
		if top := c.stack.top(); top != marker.tag {
			c.closeTop()
			c.open(marker.tag)
		}
	}

	for c.listDepth < target {
		switch top := c.stack.top(); {
		case c.listDepth == 0:
		case top == "ul" || top == "ol":
			c.open("li")
		default:
			c.closeAbove("li")
		}
		c.open(marker.tag)
	}

	c.open("li")
	c.inline(marker.content)
	return true
}

func (c *Converter) innermostList() string {
	for i := len(c.stack) - 1; i > 0; i-- {
		if c.stack[i] == "ul" || c.stack[i] == "ol" {
			return c.stack[i]
		}
	}
	return ""
}
