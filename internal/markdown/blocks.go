package markdown

import (
	"strconv"
	"strings"
	"unicode"
)

const (
	maxHeadingLevel = 6
	codeIndent      = "    "
	codeFence       = "```"
)

// blockLine carries a source line twice: raw keeps trailing whitespace for
// code content, text has it stripped for matching.
type blockLine struct {
	raw  string
	text string
}

// blockRule is one entry of the dispatch table. try reports whether the rule
// matched and consumed the line.
type blockRule struct {
	name string
	try  func(blockLine) bool
}

// blockRules returns the dispatch table in priority order; the first rule that
// matches a line wins. Code continuation is handled before the table because
// it suspends normal dispatch.
func (c *Converter) blockRules() []blockRule {
	return []blockRule{
		{name: "blank", try: c.blankLine},
		{name: "header", try: c.header},
		{name: "image", try: c.image},
		{name: "list_item", try: c.listItem},
		{name: "code_start", try: c.codeStart},
		{name: "table_row", try: c.tableRow},
		{name: "rule", try: c.horizontalRule},
		{name: "blockquote", try: c.blockquote},
		{name: "paragraph", try: c.paragraph},
	}
}

func (c *Converter) dispatch(raw string) {
	if c.mode != codeNone && c.continueCode(raw) {
		return
	}

	line := blockLine{
		raw:  raw,
		text: strings.TrimRightFunc(raw, unicode.IsSpace),
	}
	for _, rule := range c.rules {
		if rule.try(line) {
			return
		}
	}
}

// continueCode consumes a line while a code block is open. It returns false
// when an indented block ends so the line can be dispatched normally.
func (c *Converter) continueCode(raw string) bool {
	switch c.mode {
	case codeFenced:
		if strings.TrimRightFunc(raw, unicode.IsSpace) == codeFence {
			c.closeThrough("pre")
			c.mode = codeNone
			return true
		}
		c.writeCode(raw)
		return true
	case codeIndented:
		if strings.HasPrefix(raw, codeIndent) {
			c.writeCode(raw[len(codeIndent):])
			return true
		}
		c.closeThrough("pre")
		c.mode = codeNone
		c.flush()
		return false
	}
	return false
}

func (c *Converter) writeCode(content string) {
	textEscaper.WriteString(&c.buf, content)
	c.buf.WriteByte('\n')
}

func (c *Converter) blankLine(line blockLine) bool {
	if line.text != "" {
		return false
	}
	c.closeToRoot()
	c.flush()
	return true
}

func (c *Converter) header(line blockLine) bool {
	if !strings.HasPrefix(line.text, "#") {
		return false
	}
	level := len(line.text) - len(strings.TrimLeft(line.text, "#"))
	content := strings.TrimSpace(line.text[level:])
	if level > maxHeadingLevel {
		level = maxHeadingLevel
	}
	tag := "h" + strconv.Itoa(level)

	c.beginBlock()
	c.open(tag)
	c.inline(content)
	c.closeThrough(tag)
	return true
}

func (c *Converter) image(line blockLine) bool {
	alt, src, ok := matchImage(line.text)
	if !ok {
		return false
	}
	c.beginBlock()
	c.open("img",
		attr("src", relativeHref(src, c.linkDepth)),
		attr("alt", alt),
		attr("title", alt),
	)
	return true
}

// matchImage accepts a whole line of the form ![alt](src).
func matchImage(text string) (alt, src string, ok bool) {
	if !strings.HasPrefix(text, "![") || !strings.HasSuffix(text, ")") {
		return "", "", false
	}
	label, target, n, ok := matchLink(text[1:])
	if !ok || n != len(text)-1 {
		return "", "", false
	}
	return label, strings.TrimSpace(target), true
}

func (c *Converter) codeStart(line blockLine) bool {
	if lang, ok := matchFence(line.text); ok {
		c.beginBlock()
		if lang != "" {
			c.open("pre", attr("data-code-lang", lang))
		} else {
			c.open("pre")
		}
		c.mode = codeFenced
		return true
	}

	if !strings.HasPrefix(line.raw, codeIndent) {
		return false
	}
	c.beginBlock()
	c.open("pre")
	c.mode = codeIndented
	c.writeCode(line.raw[len(codeIndent):])
	return true
}

// matchFence accepts ``` optionally followed by a word token naming the
// language.
func matchFence(text string) (string, bool) {
	if !strings.HasPrefix(text, codeFence) {
		return "", false
	}
	lang := text[len(codeFence):]
	for _, r := range lang {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return "", false
		}
	}
	return lang, true
}

func (c *Converter) horizontalRule(line blockLine) bool {
	if !isRule(line.text) {
		return false
	}
	c.beginBlock()
	c.open("hr")
	return true
}

func isRule(text string) bool {
	if len(text) < 3 || !strings.ContainsRune("-_=*", rune(text[0])) {
		return false
	}
	for i := 1; i < len(text); i++ {
		if text[i] != text[0] {
			return false
		}
	}
	return true
}

func (c *Converter) blockquote(line blockLine) bool {
	text := line.text
	if !strings.HasPrefix(text, ">") || strings.HasPrefix(text, ">>") {
		return false
	}
	content := strings.TrimSpace(text[1:])

	if c.stack.at(1) == "blockquote" {
		if content == "" {
			return true
		}
		if !strings.HasSuffix(c.buf.String(), "<p>") {
			c.buf.WriteByte(' ')
		}
		c.inline(content)
		return true
	}

	c.beginBlock()
	c.open("blockquote")
	c.open("p")
	c.inline(content)
	return true
}

func (c *Converter) paragraph(line blockLine) bool {
	content := strings.TrimSpace(line.text)
	if c.stack.at(1) == "p" {
		c.open("br")
		c.inline(content)
		return true
	}
	c.beginBlock()
	c.open("p")
	c.inline(content)
	return true
}
