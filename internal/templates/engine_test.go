package templates

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine := NewEngine()
	engine.Register("test", map[string]string{
		"this":   "labradoodle",
		"that":   "pug",
		"header": "<header><strong>This is the top</strong></header>",
		"site":   "http://www.example.com",
	})
	return engine
}

func TestResolveDelimiterBlocks(t *testing.T) {
	engine := newTestEngine(t)

	got, err := engine.Resolve("{{ test.this }}")
	require.NoError(t, err)
	assert.Equal(t, "labradoodle", got)

	got, err = engine.Resolve("{{test.that}}")
	require.NoError(t, err)
	assert.Equal(t, "pug", got)
}

func TestResolveInline(t *testing.T) {
	engine := newTestEngine(t)

	got, err := engine.Resolve("Replace {{ test.this }} with a dog.")
	require.NoError(t, err)
	assert.Equal(t, "Replace labradoodle with a dog.", got)

	got, err = engine.Resolve("{{test.that}} is a dog, as well as {{test.this}}")
	require.NoError(t, err)
	assert.Equal(t, "pug is a dog, as well as labradoodle", got)
}

func TestResolveHTMLValue(t *testing.T) {
	engine := newTestEngine(t)

	got, err := engine.Resolve("{{ test.header }}")
	require.NoError(t, err)
	assert.Equal(t, "<header><strong>This is the top</strong></header>", got)
}

func TestResolveMalformedPassThrough(t *testing.T) {
	engine := newTestEngine(t)
	input := "{this is a normal one}, while { { this is not } }, and maybe {{ something without a proper close } }."

	got, err := engine.Resolve(input)
	require.NoError(t, err)
	assert.Equal(t, input, got)

	input = "{{ not a reference! }} and {{ }}"
	got, err = engine.Resolve(input)
	require.NoError(t, err)
	assert.Equal(t, input, got)
}

func TestResolveInsideMarkdownLink(t *testing.T) {
	engine := newTestEngine(t)

	got, err := engine.Resolve("Check out my page at [{{test.site}}/thispage/index.html](my website).")
	require.NoError(t, err)
	assert.Equal(t, "Check out my page at [http://www.example.com/thispage/index.html](my website).", got)
}

func TestResolveBareGroupUsesDefaultKey(t *testing.T) {
	engine := NewEngine()
	engine.Register("footer", map[string]string{DefaultKey: "<footer>bye</footer>"})

	got, err := engine.Resolve("<body>{{ footer }}</body>")
	require.NoError(t, err)
	assert.Equal(t, "<body><footer>bye</footer></body>", got)
}

func TestResolveRecursive(t *testing.T) {
	engine := NewEngine()
	engine.Register("layout", map[string]string{DefaultKey: "<html>{{ header }}{{ page }}</html>"})
	engine.Register("header", map[string]string{DefaultKey: "<h1>{{ page.title }}</h1>"})
	engine.Register("page", map[string]string{
		"title":    "{{ site.title }} | Home",
		DefaultKey: "<p>{{page.title}}</p>",
	})
	engine.Register("site", map[string]string{"title": "Example"})

	got, err := engine.Resolve("{{ layout }}")
	require.NoError(t, err)
	assert.Equal(t, "<html><h1>Example | Home</h1><p>Example | Home</p></html>", got)
	assert.Empty(t, Placeholders(got))
}

func TestResolveNestedPlaceholderInsideMalformedSpan(t *testing.T) {
	engine := newTestEngine(t)

	got, err := engine.Resolve("{{ {{test.that}} !}}")
	require.NoError(t, err)
	assert.Equal(t, "{{ pug !}}", got)
}

func TestResolvePlaceholderFormedAcrossValueBoundary(t *testing.T) {
	engine := NewEngine()
	engine.Register("a", map[string]string{"open": "{{test"})
	engine.Register("test", map[string]string{"this": "labradoodle"})

	got, err := engine.Resolve("{{a.open}}.this}}")
	require.NoError(t, err)
	assert.Equal(t, "labradoodle", got)
}

func TestResolvePageFallsBackToSite(t *testing.T) {
	engine := NewEngine()
	engine.Register("site", map[string]string{"author": "Ada", "title": "Site"})
	engine.Register("page", map[string]string{"title": "Page"})

	got, err := engine.Resolve("{{ page.title }} by {{ page.author }}")
	require.NoError(t, err)
	assert.Equal(t, "Page by Ada", got)
}

func TestResolveFallbackWithoutPageGroup(t *testing.T) {
	engine := NewEngine()
	engine.Register("site", map[string]string{"author": "Ada"})

	got, err := engine.Resolve("{{ page.author }}")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got)
}

func TestResolveNoFallbackForOtherGroups(t *testing.T) {
	engine := NewEngine()
	engine.Register("site", map[string]string{"author": "Ada"})
	engine.Register("post", map[string]string{"title": "x"})

	_, err := engine.Resolve("{{ post.author }}")
	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "{{ post.author }}", resErr.Reference)
	assert.False(t, resErr.MissingGroup)
}

func TestResolveMissingGroup(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Resolve("before {{ nope.key }} after")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnresolvedReference))

	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "{{ nope.key }}", resErr.Reference)
	assert.Equal(t, "nope", resErr.Group)
	assert.Equal(t, "key", resErr.Key)
	assert.True(t, resErr.MissingGroup)
	assert.Contains(t, err.Error(), "{{ nope.key }}")
}

func TestResolveMissingKeyNamesNestedReference(t *testing.T) {
	engine := NewEngine()
	engine.Register("layout", map[string]string{DefaultKey: "<main>{{layout.missing}}</main>"})

	_, err := engine.Resolve("{{ layout }}")
	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "{{layout.missing}}", resErr.Reference)
	assert.Equal(t, "missing", resErr.Key)
}

func TestResolveCycle(t *testing.T) {
	engine := NewEngine()
	engine.Register("a", map[string]string{"b": "x {{ c.d }}"})
	engine.Register("c", map[string]string{"d": "y {{ a.b }}"})

	_, err := engine.Resolve("{{ a.b }}")
	require.ErrorIs(t, err, ErrReferenceCycle)

	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []string{"a.b", "c.d", "a.b"}, cycleErr.Chain)
}

func TestResolveSelfReference(t *testing.T) {
	engine := NewEngine()
	engine.Register("loop", map[string]string{DefaultKey: "{{ loop }}"})

	_, err := engine.Resolve("{{loop}}")
	require.ErrorIs(t, err, ErrReferenceCycle)
}

func TestResolveTooManyPasses(t *testing.T) {
	engine := NewEngine(WithMaxPasses(1))
	engine.Register("a", map[string]string{"open": "{{test"})
	engine.Register("test", map[string]string{"this": "labradoodle"})

	_, err := engine.Resolve("{{a.open}}.this}}")
	require.ErrorIs(t, err, ErrTooManyPasses)
}

func TestRegisterMerges(t *testing.T) {
	engine := NewEngine()
	engine.Register("test", map[string]string{"a": "z"})
	engine.Register("test", map[string]string{"b": "y", "a": "x"})
	engine.Register("another", map[string]string{"123": "456"})

	assert.Equal(t, []string{"test", "another"}, engine.Store().Groups())
	assert.Equal(t, []string{"a", "b"}, engine.Store().Keys("test"))
	assert.Equal(t, map[string]string{"a": "x", "b": "y"}, engine.Store().Values("test"))
}

func TestResetAndClone(t *testing.T) {
	engine := newTestEngine(t)
	clone := engine.Clone()
	clone.Register("page", map[string]string{"title": "only in clone"})

	_, ok := engine.Lookup("page", "title")
	assert.False(t, ok, "clone must not leak into the original")

	got, err := clone.Resolve("{{ test.this }}: {{ page.title }}")
	require.NoError(t, err)
	assert.Equal(t, "labradoodle: only in clone", got)

	engine.Reset()
	assert.Zero(t, engine.Store().Len())
	_, err = engine.Resolve("{{ test.this }}")
	require.ErrorIs(t, err, ErrUnresolvedReference)

	got, err = clone.Resolve("{{ test.that }}")
	require.NoError(t, err)
	assert.Equal(t, "pug", got)
}

func TestWithFallbackOverride(t *testing.T) {
	engine := NewEngine(WithFallback(PageGroup, ""), WithFallback("post", SiteGroup))
	engine.Register("site", map[string]string{"author": "Ada"})

	_, err := engine.Resolve("{{ page.author }}")
	require.ErrorIs(t, err, ErrUnresolvedReference)

	got, err := engine.Resolve("{{ post.author }}")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got)
}

func TestPlaceholders(t *testing.T) {
	refs := Placeholders("{{ a.b }} {{a.b}} {{ c }} {{ bad ref }} {{ d.e.f }}")
	assert.Equal(t, []Reference{
		{Group: "a", Key: "b"},
		{Group: "c", Key: DefaultKey},
		{Group: "d", Key: "e.f"},
	}, refs)
	assert.Equal(t, "c", refs[1].String())
	assert.Equal(t, "d.e.f", refs[2].String())
}
