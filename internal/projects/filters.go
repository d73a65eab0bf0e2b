package projects

import (
	"slices"
	"strings"
)

type Filter interface {
	Apply(projects []Project) []Project
}

// TechnologyFilter keeps projects using any of the technologies, compared
// case-insensitively.
type TechnologyFilter struct {
	Technologies []string
}

func (f TechnologyFilter) Apply(projects []Project) []Project {
	if len(f.Technologies) == 0 {
		return projects
	}
	wanted := make([]string, 0, len(f.Technologies))
	for _, tech := range f.Technologies {
		wanted = append(wanted, strings.ToLower(tech))
	}
	return keep(projects, func(p Project) bool {
		return slices.ContainsFunc(p.Technologies, func(tech string) bool {
			return slices.Contains(wanted, strings.ToLower(tech))
		})
	})
}

type CategoryFilter struct {
	Categories []string
}

func (f CategoryFilter) Apply(projects []Project) []Project {
	if len(f.Categories) == 0 {
		return projects
	}
	return keep(projects, func(p Project) bool {
		return p.Category != "" && slices.Contains(f.Categories, p.Category)
	})
}

// StatusFilter keeps active projects when ActiveOnly is set and every
// project otherwise.
type StatusFilter struct {
	ActiveOnly bool
}

func (f StatusFilter) Apply(projects []Project) []Project {
	if !f.ActiveOnly {
		return projects
	}
	return keep(projects, func(p Project) bool { return p.Active })
}

type namedFilter struct {
	key    string
	filter Filter
}

// CompositeFilter applies keyed filters in insertion order. Adding a key
// again replaces its filter in place.
type CompositeFilter struct {
	filters []namedFilter
}

func NewCompositeFilter() *CompositeFilter {
	return &CompositeFilter{filters: make([]namedFilter, 0)}
}

func (c *CompositeFilter) Add(key string, filter Filter) {
	for i := range c.filters {
		if c.filters[i].key == key {
			c.filters[i].filter = filter
			return
		}
	}
	c.filters = append(c.filters, namedFilter{key: key, filter: filter})
}

func (c *CompositeFilter) Remove(key string) {
	c.filters = slices.DeleteFunc(c.filters, func(f namedFilter) bool { return f.key == key })
}

func (c *CompositeFilter) Clear() {
	c.filters = c.filters[:0]
}

func (c *CompositeFilter) Apply(projects []Project) []Project {
	for _, f := range c.filters {
		projects = f.filter.Apply(projects)
	}
	return projects
}

func keep(projects []Project, pred func(Project) bool) []Project {
	kept := make([]Project, 0, len(projects))
	for _, p := range projects {
		if pred(p) {
			kept = append(kept, p)
		}
	}
	return kept
}
