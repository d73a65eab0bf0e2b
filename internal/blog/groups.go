package blog

import (
	"path"
	"slices"
	"strings"
)

// Group holds every translation of one post, keyed by locale.
type Group struct {
	Key   string
	Posts map[string]*Post
}

// Post returns the translation for locale, if any.
func (g *Group) Post(locale string) (*Post, bool) {
	p, ok := g.Posts[locale]
	return p, ok
}

// Preferred returns the translation for lang, or the first supported locale
// that has one.
func (g *Group) Preferred(lang string) (*Post, bool) {
	if p, ok := g.Posts[lang]; ok {
		return p, true
	}
	for _, locale := range SupportedLocales {
		if p, ok := g.Posts[locale]; ok {
			return p, true
		}
	}
	return nil, false
}

// Locales lists the locales present in the group, sorted.
func (g *Group) Locales() []string {
	locales := make([]string, 0, len(g.Posts))
	for locale := range g.Posts {
		locales = append(locales, locale)
	}
	slices.Sort(locales)
	return locales
}

// Groups is the result of one content scan. Iteration follows discovery
// order.
type Groups struct {
	order []*Group
	byKey map[string]*Group
}

func newGroups() *Groups {
	return &Groups{
		order: make([]*Group, 0),
		byKey: make(map[string]*Group),
	}
}

func (g *Groups) add(post *Post) {
	key := post.Slug.GroupKey()
	group, ok := g.byKey[key]
	if !ok {
		group = &Group{Key: key, Posts: make(map[string]*Post, len(SupportedLocales))}
		g.byKey[key] = group
		g.order = append(g.order, group)
	}
	group.Posts[post.Locale] = post
}

func (g *Groups) All() []*Group {
	return g.order
}

func (g *Groups) Get(key string) (*Group, bool) {
	group, ok := g.byKey[key]
	return group, ok
}

func (g *Groups) Len() int {
	return len(g.order)
}

func (g *Groups) Keys() []string {
	keys := make([]string, 0, len(g.order))
	for _, group := range g.order {
		keys = append(keys, group.Key)
	}
	return keys
}

// LocaleFromPath reads the locale suffix of a document name such as
// "hello.en.md". Names without a known suffix belong to DefaultLocale. The
// returned base has both the extension and the locale suffix removed.
func LocaleFromPath(p string) (locale, base string) {
	name := path.Base(p)
	name = strings.TrimSuffix(name, path.Ext(name))

	if dot := strings.LastIndex(name, "."); dot >= 0 {
		if suffix := name[dot+1:]; slices.Contains(SupportedLocales, suffix) {
			return suffix, name[:dot]
		}
	}
	return DefaultLocale, name
}
