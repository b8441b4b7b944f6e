package markdown

import "strings"

// inline runs the inline scanner over text, writing into the current block.
// Toggles may close any matching element opened since the enclosing block
// element started.
func (c *Converter) inline(text string) {
	c.scanInline(text, 1)
}

// scanInline walks text byte by byte, taking the leftmost highest priority
// marker at each position. floor bounds how deep toggles may search the stack
// so link text cannot close elements opened outside the link.
func (c *Converter) scanInline(text string, floor int) {
	for i := 0; i < len(text); {
		rest := text[i:]
		if c.codeRun > 0 && c.stack.top() == "code" {
			i += c.codeToken(rest)
			continue
		}
		n := c.inlineToken(rest, floor)
		if n == 0 {
			c.writeEscaped(rest[0])
			n = 1
		}
		i += n
	}
}

// codeToken handles one position inside inline code: only the matching
// backtick run closes it, everything else is escaped verbatim.
func (c *Converter) codeToken(rest string) int {
	switch {
	case c.codeRun == 3 && strings.HasPrefix(rest, "```"):
		c.closeTop()
		return 3
	case c.codeRun == 1 && rest[0] == '`':
		c.closeTop()
		return 1
	}
	c.writeEscaped(rest[0])
	return 1
}

func (c *Converter) inlineToken(rest string, floor int) int {
	switch {
	case strings.HasPrefix(rest, "```"):
		c.openCode(3)
		return 3
	case rest[0] == '`':
		c.openCode(1)
		return 1
	case strings.HasPrefix(rest, "**"), strings.HasPrefix(rest, "__"):
		c.toggle("strong", floor)
		return 2
	case strings.HasPrefix(rest, "~~"):
		c.toggle("s", floor)
		return 2
	case rest[0] == '*', rest[0] == '_':
		c.toggle("em", floor)
		return 1
	case rest[0] == '[':
		if n := c.checkbox(rest); n > 0 {
			return n
		}
		return c.link(rest)
	case rest[0] == '<':
		return c.autolink(rest)
	}
	return 0
}

func (c *Converter) writeEscaped(b byte) {
	switch b {
	case '&':
		c.buf.WriteString("&amp;")
	case '<':
		c.buf.WriteString("&lt;")
	case '>':
		c.buf.WriteString("&gt;")
	default:
		c.buf.WriteByte(b)
	}
}

func (c *Converter) openCode(run int) {
	c.open("code")
	c.codeRun = run
}

// toggle opens tag, or closes the innermost open tag of that name. Elements
// opened after it are closed first and reopened afterwards so the output stays
// balanced while the author's interleaving is preserved.
func (c *Converter) toggle(tag string, floor int) {
	idx := c.stack.lastIndex(tag, floor)
	if idx < 0 {
		c.open(tag)
		return
	}
	reopen := make([]string, 0, len(c.stack)-idx-1)
	for len(c.stack)-1 > idx {
		reopen = append(reopen, c.closeTop())
	}
	c.closeTop()
	for i := len(reopen) - 1; i >= 0; i-- {
		c.open(reopen[i])
	}
}

// checkbox matches "[ ]", "[x]" or "[X]" followed by whitespace or the end of
// the span. Only the bracket triple is consumed.
func (c *Converter) checkbox(rest string) int {
	if len(rest) < 3 || rest[2] != ']' {
		return 0
	}
	mark := rest[1]
	if mark != ' ' && mark != 'x' && mark != 'X' {
		return 0
	}
	if len(rest) > 3 && rest[3] != ' ' && rest[3] != '\t' {
		return 0
	}
	attrs := []attribute{attr("type", "checkbox")}
	if mark != ' ' {
		attrs = append(attrs, boolAttr("checked"))
	}
	c.open("input", attrs...)
	return 3
}

func (c *Converter) link(rest string) int {
	text, href, n, ok := matchLink(rest)
	if !ok {
		return 0
	}
	c.open("a", attr("href", relativeHref(strings.TrimSpace(href), c.linkDepth)))
	c.scanInline(text, len(c.stack))
	c.closeThrough("a")
	return n
}

// matchLink matches [text](href) at the start of s, where text holds no
// brackets and href holds no parentheses. n is the number of bytes consumed.
func matchLink(s string) (text, href string, n int, ok bool) {
	if len(s) < 5 || s[0] != '[' {
		return "", "", 0, false
	}
	end := strings.IndexAny(s[1:], "[]")
	if end <= 0 || s[1+end] != ']' {
		return "", "", 0, false
	}
	closeBracket := 1 + end
	if closeBracket+1 >= len(s) || s[closeBracket+1] != '(' {
		return "", "", 0, false
	}
	start := closeBracket + 2
	stop := strings.IndexAny(s[start:], "()")
	if stop <= 0 || s[start+stop] != ')' {
		return "", "", 0, false
	}
	return s[1:closeBracket], s[start : start+stop], start + stop + 1, true
}

// autolink emits <host.tld/...> as a link whose text is the URL itself. The
// href follows the same depth rule as bracket links; the text is left as typed.
func (c *Converter) autolink(rest string) int {
	url, n, ok := matchAutolink(rest)
	if !ok {
		return 0
	}
	c.open("a", attr("href", relativeHref(url, c.linkDepth)))
	textEscaper.WriteString(&c.buf, url)
	c.closeThrough("a")
	return n
}

func matchAutolink(s string) (string, int, bool) {
	end := strings.IndexByte(s, '>')
	if end < 4 {
		return "", 0, false
	}
	url := s[1:end]
	if strings.ContainsAny(url, " \t<") {
		return "", 0, false
	}
	if !strings.Contains(url[1:len(url)-1], ".") {
		return "", 0, false
	}
	return url, end + 1, true
}
