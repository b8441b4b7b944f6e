package markdown

const rootElement = "ROOT"

// elementStack mirrors the nesting of tags that are open in the output. The
// bottom entry is always rootElement and is never popped.
type elementStack []string

func newElementStack() elementStack {
	return elementStack{rootElement}
}

func (s elementStack) top() string {
	return s[len(s)-1]
}

// at returns the tag at depth i (0 is the root sentinel) or "" when the stack
// is shallower.
func (s elementStack) at(i int) string {
	if i < 0 || i >= len(s) {
		return ""
	}
	return s[i]
}

func (s *elementStack) push(tag string) {
	*s = append(*s, tag)
}

func (s *elementStack) pop() string {
	if len(*s) <= 1 {
		return ""
	}
	last := (*s)[len(*s)-1]
	*s = (*s)[:len(*s)-1]
	return last
}

// lastIndex reports the highest position of tag at or above floor, or -1.
func (s elementStack) lastIndex(tag string, floor int) int {
	if floor < 1 {
		floor = 1
	}
	for i := len(s) - 1; i >= floor; i-- {
		if s[i] == tag {
			return i
		}
	}
	return -1
}

func (s elementStack) isRoot() bool {
	return len(s) == 1
}
