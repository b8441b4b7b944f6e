package templates

import (
	"regexp"
	"strings"

	"github.com/goliatone/go-mdsite/internal/logging"
	"github.com/goliatone/go-mdsite/pkg/interfaces"
)

const (
	// DefaultKey holds a group's body, used by bare {{group}} placeholders.
	DefaultKey = "_html"
	// PageGroup and SiteGroup are the groups linked by the default fallback.
	PageGroup = "page"
	SiteGroup = "site"
	// DefaultMaxPasses bounds how often a text is rescanned for placeholders.
	DefaultMaxPasses = 32
)

var (
	placeholderPattern = regexp.MustCompile(`\{\{(.+?)\}\}`)
	referencePattern   = regexp.MustCompile(`^([A-Za-z0-9_-]+)(?:\.([A-Za-z0-9_.-]+))?$`)
)

// Engine resolves {{group.key}} and {{group}} placeholders against a Store.
// An Engine is not safe for concurrent use; Clone it per page instead.
type Engine struct {
	store     *Store
	maxPasses int
	fallback  map[string]string
	logger    interfaces.Logger
}

var _ interfaces.TemplateEngine = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithMaxPasses overrides how many rescans Resolve performs before giving up.
func WithMaxPasses(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxPasses = n
		}
	}
}

// WithFallback looks keys that are missing from the from group up in the to
// group instead. An empty to removes the fallback.
func WithFallback(from, to string) Option {
	return func(e *Engine) {
		if to == "" {
			delete(e.fallback, from)
			return
		}
		e.fallback[from] = to
	}
}

// WithLogger sets the logger used for resolution diagnostics.
func WithLogger(logger interfaces.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithStore seeds the engine with a copy of store.
func WithStore(store *Store) Option {
	return func(e *Engine) {
		e.store.Merge(store)
	}
}

// NewEngine constructs an engine with an empty store. Keys missing from the
// page group fall back to the site group unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		store:     NewStore(),
		maxPasses: DefaultMaxPasses,
		fallback:  map[string]string{PageGroup: SiteGroup},
		logger:    logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Register merges values into group. Existing keys are overwritten.
func (e *Engine) Register(group string, values map[string]string) {
	e.store.Register(group, values)
}

// Set stores a single value.
func (e *Engine) Set(group, key, value string) {
	e.store.Set(group, key, value)
}

// Lookup returns a raw, unresolved value, applying the group fallback.
func (e *Engine) Lookup(group, key string) (string, bool) {
	value, ok, _ := e.lookup(group, key)
	return value, ok
}

// Store exposes the underlying store for inspection.
func (e *Engine) Store() *Store {
	return e.store
}

// Reset clears every registered group.
func (e *Engine) Reset() {
	e.store.Reset()
}

// Clone returns an engine with a deep copy of the store and the same options.
func (e *Engine) Clone() *Engine {
	fallback := make(map[string]string, len(e.fallback))
	for from, to := range e.fallback {
		fallback[from] = to
	}
	return &Engine{
		store:     e.store.Clone(),
		maxPasses: e.maxPasses,
		fallback:  fallback,
		logger:    e.logger,
	}
}

// Resolve substitutes every placeholder in text. Values are expanded
// recursively, then the result is rescanned until a pass substitutes nothing,
// since a value can complete a placeholder together with the text around it.
func (e *Engine) Resolve(text string) (string, error) {
	r := &resolver{engine: e, memo: map[Reference]string{}, active: map[Reference]bool{}}
	out := text
	for pass := 1; ; pass++ {
		if pass > e.maxPasses {
			return "", ErrTooManyPasses
		}
		next, replaced, err := r.expand(out)
		if err != nil {
			return "", err
		}
		if replaced == 0 {
			return out, nil
		}
		e.logger.Trace("templates.resolve.pass", "pass", pass, "replaced", replaced)
		out = next
	}
}

// Placeholders lists the well-formed references in text, in order of
// appearance and without duplicates. Values are not expanded.
func (e *Engine) Placeholders(text string) []Reference {
	return Placeholders(text)
}

func (e *Engine) lookup(group, key string) (string, bool, bool) {
	if value, ok := e.store.Lookup(group, key); ok {
		return value, true, true
	}
	groupFound := e.store.HasGroup(group)
	if to, ok := e.fallback[group]; ok {
		if value, ok := e.store.Lookup(to, key); ok {
			return value, true, true
		}
	}
	return "", false, groupFound
}

// Reference names one group/key pair.
type Reference struct {
	Group string
	Key   string
}

func (r Reference) String() string {
	if r.Key == DefaultKey {
		return r.Group
	}
	return r.Group + "." + r.Key
}

// ParseReference parses the inside of a placeholder. Surrounding whitespace is
// ignored; a bare group selects DefaultKey.
func ParseReference(inner string) (Reference, bool) {
	match := referencePattern.FindStringSubmatch(strings.TrimSpace(inner))
	if match == nil {
		return Reference{}, false
	}
	ref := Reference{Group: match[1], Key: match[2]}
	if ref.Key == "" {
		ref.Key = DefaultKey
	}
	return ref, true
}

// Placeholders lists the well-formed references in text.
func Placeholders(text string) []Reference {
	var refs []Reference
	seen := map[Reference]struct{}{}
	_ = scanPlaceholders(text, func(_, _ int, ref Reference) error {
		if _, ok := seen[ref]; !ok {
			seen[ref] = struct{}{}
			refs = append(refs, ref)
		}
		return nil
	})
	return refs
}

// scanPlaceholders calls fn with the byte range of every well-formed
// placeholder and stops at the first error. A malformed span is skipped one
// byte at a time so a valid placeholder nested inside it is still found.
func scanPlaceholders(text string, fn func(start, end int, ref Reference) error) error {
	for offset := 0; offset < len(text); {
		loc := placeholderPattern.FindStringSubmatchIndex(text[offset:])
		if loc == nil {
			return nil
		}
		start, end := offset+loc[0], offset+loc[1]
		ref, ok := ParseReference(text[offset+loc[2] : offset+loc[3]])
		if !ok {
			offset = start + 1
			continue
		}
		if err := fn(start, end, ref); err != nil {
			return err
		}
		offset = end
	}
	return nil
}

type resolver struct {
	engine *Engine
	memo   map[Reference]string
	active map[Reference]bool
	chain  []string
}

// expand substitutes the placeholders of one pass over text.
func (r *resolver) expand(text string) (string, int, error) {
	var b strings.Builder
	last, replaced := 0, 0
	err := scanPlaceholders(text, func(start, end int, ref Reference) error {
		value, err := r.resolve(text[start:end], ref)
		if err != nil {
			return err
		}
		b.WriteString(text[last:start])
		b.WriteString(value)
		last = end
		replaced++
		return nil
	})
	if err != nil {
		return "", 0, err
	}
	if replaced == 0 {
		return text, 0, nil
	}
	b.WriteString(text[last:])
	return b.String(), replaced, nil
}

func (r *resolver) resolve(literal string, ref Reference) (string, error) {
	if value, ok := r.memo[ref]; ok {
		return value, nil
	}
	if r.active[ref] {
		chain := append(append([]string(nil), r.chain...), ref.String())
		return "", &CycleError{Chain: chain}
	}

	raw, ok, groupFound := r.engine.lookup(ref.Group, ref.Key)
	if !ok {
		return "", &ResolutionError{
			Reference:    literal,
			Group:        ref.Group,
			Key:          ref.Key,
			MissingGroup: !groupFound,
		}
	}

	r.active[ref] = true
	r.chain = append(r.chain, ref.String())
	value, err := r.expandFully(raw)
	r.chain = r.chain[:len(r.chain)-1]
	delete(r.active, ref)
	if err != nil {
		return "", err
	}

	r.memo[ref] = value
	return value, nil
}

// expandFully rescans a value until it holds no well-formed placeholder.
func (r *resolver) expandFully(text string) (string, error) {
	out := text
	for pass := 1; ; pass++ {
		if pass > r.engine.maxPasses {
			return "", ErrTooManyPasses
		}
		next, replaced, err := r.expand(out)
		if err != nil {
			return "", err
		}
		if replaced == 0 {
			return out, nil
		}
		out = next
	}
}
