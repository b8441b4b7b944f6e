package interfaces

// TemplateEngine fills {{group.key}} placeholders from a grouped key/value
// store. Implementations hold mutable state; callers that render pages in
// parallel give each page its own engine.
type TemplateEngine interface {
	// Register merges values into the named group.
	Register(group string, values map[string]string)
	// Resolve substitutes every placeholder in text, recursively.
	Resolve(text string) (string, error)
	// Reset clears every registered group.
	Reset()
}
