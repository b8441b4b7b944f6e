package markdown

import (
	"strings"

	"github.com/goliatone/go-mdsite/pkg/interfaces"
)

type codeMode uint8

const (
	codeNone codeMode = iota
	codeFenced
	codeIndented
)

// Converter renders the site markdown dialect into HTML. It keeps per-document
// state (element stack, line buffer, list depth, code mode) which is reset at
// the start of every Convert call, so one instance can be reused for many
// documents but must not be shared between goroutines.
type Converter struct {
	defaults interfaces.ParseOptions

	stack     elementStack
	buf       strings.Builder
	blocks    []string
	mode      codeMode
	listDepth int
	linkDepth int
	codeRun   int
	table     tableState
	rules     []blockRule
}

var _ interfaces.MarkdownParser = (*Converter)(nil)

// NewConverter constructs a dialect converter. Only LinkDepth is honoured from
// the defaults; the dialect has no extensions to toggle.
func NewConverter(defaults interfaces.ParseOptions) *Converter {
	c := &Converter{defaults: defaults}
	c.rules = c.blockRules()
	c.reset(defaults.LinkDepth)
	return c
}

// Convert renders markdown into HTML. Internal link targets are prefixed with
// "../" once per linkDepth so pages nested in directories keep working links.
// Top level blocks are joined with a newline.
func (c *Converter) Convert(markdown string, linkDepth int) string {
	c.reset(linkDepth)

	// A final newline terminates the last line; it does not start an empty one.
	for _, line := range strings.Split(strings.TrimSuffix(markdown, "\n"), "\n") {
		c.dispatch(strings.TrimSuffix(line, "\r"))
	}

	c.closeToRoot()
	c.flush()

	out := strings.Join(c.blocks, "\n")
	c.blocks = nil
	return out
}

// Parse satisfies interfaces.MarkdownParser using the converter defaults.
func (c *Converter) Parse(markdown []byte) ([]byte, error) {
	return c.ParseWithOptions(markdown, c.defaults)
}

// ParseWithOptions satisfies interfaces.MarkdownParser. The dialect cannot
// fail, the error is always nil.
func (c *Converter) ParseWithOptions(markdown []byte, opts interfaces.ParseOptions) ([]byte, error) {
	return []byte(c.Convert(string(markdown), opts.LinkDepth)), nil
}

func (c *Converter) reset(linkDepth int) {
	if linkDepth < 0 {
		linkDepth = 0
	}
	c.stack = newElementStack()
	c.buf.Reset()
	c.blocks = nil
	c.mode = codeNone
	c.listDepth = 0
	c.linkDepth = linkDepth
	c.codeRun = 0
	c.table = tableState{}
}

// open writes the start tag and records it on the stack. Void elements are
// written but never stay on the stack.
func (c *Converter) open(tag string, attrs ...attribute) {
	writeOpenTag(&c.buf, tag, attrs)
	if isVoid(tag) {
		return
	}
	c.stack.push(tag)
	if tag == "ul" || tag == "ol" {
		c.listDepth++
	}
}

func (c *Converter) closeTop() string {
	tag := c.stack.pop()
	if tag == "" {
		return ""
	}
	writeCloseTag(&c.buf, tag)
	switch tag {
	case "code":
		c.codeRun = 0
	case "ul", "ol":
		if c.listDepth > 0 {
			c.listDepth--
		}
	case "table":
		c.table = tableState{}
	}
	return tag
}

// closeThrough closes every element above the innermost tag and then the tag
// itself. It is a no-op when tag is not open.
func (c *Converter) closeThrough(tag string) {
	if c.stack.lastIndex(tag, 1) < 0 {
		return
	}
	for !c.stack.isRoot() {
		if c.closeTop() == tag {
			return
		}
	}
}

// closeAbove closes elements until tag is on top of the stack.
func (c *Converter) closeAbove(tag string) {
	idx := c.stack.lastIndex(tag, 1)
	if idx < 0 {
		return
	}
	for len(c.stack)-1 > idx {
		c.closeTop()
	}
}

func (c *Converter) closeToRoot() {
	for !c.stack.isRoot() {
		c.closeTop()
	}
	c.mode = codeNone
	c.listDepth = 0
}

func (c *Converter) flush() {
	if c.buf.Len() == 0 {
		return
	}
	c.blocks = append(c.blocks, c.buf.String())
	c.buf.Reset()
}

// beginBlock ends whatever top level block is open and starts a fresh output
// block.
func (c *Converter) beginBlock() {
	c.closeToRoot()
	c.flush()
}
