package markdown

import "strings"

const (
	cellSeparator   = " | "
	minDividerWidth = 3
)

type tableState struct {
	columns      int
	awaitDivider bool
	body         bool
}

// splitTableRow splits a row on " | ". Rows must not start or end with
// whitespace or a pipe and every cell must be non-empty.
func splitTableRow(text string) ([]string, bool) {
	if !strings.Contains(text, cellSeparator) {
		return nil, false
	}
	if isCellEdge(text[0]) || isCellEdge(text[len(text)-1]) {
		return nil, false
	}
	cells := strings.Split(text, cellSeparator)
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
		if cells[i] == "" {
			return nil, false
		}
	}
	return cells, true
}

func isCellEdge(b byte) bool {
	return b == ' ' || b == '\t' || b == '|'
}

// dividerClass checks for a divider row (---, :--, :-:, --:) and returns the
// table class implied by its alignment markers. A class is only set when all
// columns agree on center or right alignment.
func dividerClass(cells []string) (string, bool) {
	class := ""
	for i, cell := range cells {
		align, ok := dividerAlignment(cell)
		if !ok {
			return "", false
		}
		if i == 0 {
			class = align
			continue
		}
		if align != class {
			class = ""
		}
	}
	return class, true
}

func dividerAlignment(cell string) (string, bool) {
	if len(cell) < minDividerWidth {
		return "", false
	}
	left := strings.HasPrefix(cell, ":")
	right := strings.HasSuffix(cell, ":")
	dashes := strings.TrimSuffix(strings.TrimPrefix(cell, ":"), ":")
	if dashes == "" || strings.Trim(dashes, "-") != "" {
		return "", false
	}
	switch {
	case left && right:
		return "center", true
	case right:
		return "right", true
	default:
		return "", true
	}
}

func (c *Converter) tableRow(line blockLine) bool {
	cells, ok := splitTableRow(line.text)
	if !ok {
		return false
	}

	if c.stack.at(1) != "table" {
		c.beginBlock()
		c.open("table")
		c.open("thead")
		c.open("tr")
		for _, cell := range cells {
			c.open("th", attr("scope", "col"))
			c.inline(cell)
			c.closeThrough("th")
		}
		c.closeThrough("thead")
		c.table = tableState{columns: len(cells), awaitDivider: true}
		return true
	}

	if c.table.awaitDivider {
		c.table.awaitDivider = false
		if class, ok := dividerClass(cells); ok {
			if class != "" {
				c.setTableClass(class)
			}
			c.openTableBody()
			return true
		}
	}

	c.openTableBody()
	c.open("tr")
	for _, cell := range normalizeCells(cells, c.table.columns) {
		c.open("td")
		c.inline(cell)
		c.closeThrough("td")
	}
	c.closeThrough("tr")
	return true
}

func (c *Converter) openTableBody() {
	if c.table.body {
		return
	}
	c.open("tbody")
	c.table.body = true
}

// setTableClass rewrites the table start tag, which is always the first tag
// of the current output block.
func (c *Converter) setTableClass(class string) {
	current := c.buf.String()
	if !strings.HasPrefix(current, "<table>") {
		return
	}
	c.buf.Reset()
	writeOpenTag(&c.buf, "table", []attribute{attr("class", class)})
	c.buf.WriteString(current[len("<table>"):])
}

// normalizeCells pads short rows with empty cells and folds extra cells into
// the last column so every row matches the header width.
func normalizeCells(cells []string, columns int) []string {
	if columns <= 0 || len(cells) == columns {
		return cells
	}
	if len(cells) < columns {
		padded := make([]string, columns)
		copy(padded, cells)
		return padded
	}
	folded := make([]string, columns)
	copy(folded, cells[:columns-1])
	folded[columns-1] = strings.Join(cells[columns-1:], cellSeparator)
	return folded
}
