package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html"
)

// ErrUnbalancedHTML is matched by every *BalanceError.
var ErrUnbalancedHTML = errors.New("markdown: unbalanced html")

// BalanceError describes the first tag that breaks nesting.
type BalanceError struct {
	Tag      string
	Expected string
	Offset   int
}

func (e *BalanceError) Error() string {
	switch {
	case e.Expected == "":
		return fmt.Sprintf("unexpected </%s> at byte %d", e.Tag, e.Offset)
	case e.Tag == "":
		return fmt.Sprintf("unclosed <%s> at end of document", e.Expected)
	default:
		return fmt.Sprintf("found </%s> at byte %d, expected </%s>", e.Tag, e.Offset, e.Expected)
	}
}

func (e *BalanceError) Unwrap() error {
	return ErrUnbalancedHTML
}

var htmlVoidTags = map[string]struct{}{
	"area": {}, "base": {}, "br": {}, "col": {}, "embed": {}, "hr": {}, "img": {},
	"input": {}, "link": {}, "meta": {}, "source": {}, "track": {}, "wbr": {},
}

// CheckBalanced tokenizes document and verifies every start tag is closed in
// order. Void elements and self-closing tags are ignored.
func CheckBalanced(document []byte) error {
	tokenizer := html.NewTokenizer(bytes.NewReader(document))
	var open []string
	offset := 0
	for {
		tokenType := tokenizer.Next()
		raw := len(tokenizer.Raw())
		switch tokenType {
		case html.ErrorToken:
			if err := tokenizer.Err(); err != io.EOF {
				return err
			}
			if len(open) > 0 {
				return &BalanceError{Expected: open[len(open)-1], Offset: offset}
			}
			return nil
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if _, ok := htmlVoidTags[tag]; !ok {
				open = append(open, tag)
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if len(open) == 0 {
				return &BalanceError{Tag: tag, Offset: offset}
			}
			if expected := open[len(open)-1]; expected != tag {
				return &BalanceError{Tag: tag, Expected: expected, Offset: offset}
			}
			open = open[:len(open)-1]
		}
		offset += raw
	}
}
