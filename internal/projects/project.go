package projects

import (
	"errors"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

var ErrProjectNotFound = errors.New("project not found")

const (
	CategoryFrontend  = "Frontend"
	CategoryBackend   = "Backend"
	CategoryFullstack = "Fullstack"
)

// Text is a string given either once for every language or per language.
type Text map[string]string

const anyLanguage = "*"

func (t *Text) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*t = Text{anyLanguage: node.Value}
		return nil
	case yaml.MappingNode:
		m := make(map[string]string, len(node.Content)/2)
		if err := node.Decode(&m); err != nil {
			return fmt.Errorf("fail to decode localized text: %w", err)
		}
		*t = m
		return nil
	}
	return fmt.Errorf("text at line %d must be a string or a language mapping", node.Line)
}

// In returns the text for lang, falling back to en, fr, then any value.
func (t Text) In(lang string) string {
	for _, key := range []string{lang, "en", "fr", anyLanguage} {
		if v, ok := t[key]; ok {
			return v
		}
	}
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return ""
	}
	slices.Sort(keys)
	return t[keys[0]]
}

type Link struct {
	Type string `yaml:"type" json:"type"`
	Href string `yaml:"href" json:"href"`
	Icon string `yaml:"icon" json:"icon"`
}

// Entry is one project as written in the data file.
type Entry struct {
	Title        string   `yaml:"title" validate:"required"`
	Href         string   `yaml:"href"`
	Dates        Text     `yaml:"dates"`
	Active       bool     `yaml:"active"`
	Featured     bool     `yaml:"featured"`
	Description  Text     `yaml:"description"`
	Technologies []string `yaml:"technologies"`
	Links        []Link   `yaml:"links"`
	Image        string   `yaml:"image"`
	Video        string   `yaml:"video"`
	Demo         string   `yaml:"demo"`
	GitHub       string   `yaml:"github"`
}

type Project struct {
	ID           string   `json:"id"`
	Slug         string   `json:"slug"`
	Category     string   `json:"category"`
	Title        string   `json:"title"`
	Href         string   `json:"href,omitempty"`
	Dates        string   `json:"dates"`
	Active       bool     `json:"active"`
	Featured     bool     `json:"featured"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	Links        []Link   `json:"links,omitempty"`
	Image        string   `json:"image,omitempty"`
	Video        string   `json:"video,omitempty"`
	Demo         string   `json:"demo,omitempty"`
	GitHub       string   `json:"github,omitempty"`

	Stars      int      `json:"stars,omitempty"`
	Forks      int      `json:"forks,omitempty"`
	LastUpdate string   `json:"lastUpdate,omitempty"`
	Language   string   `json:"language,omitempty"`
	Topics     []string `json:"topics,omitempty"`
}

// WithStats copies GitHub statistics onto the project.
func (p Project) WithStats(stats *GitHubStats) Project {
	if stats == nil {
		return p
	}
	p.Stars = stats.Stars
	p.Forks = stats.Forks
	p.LastUpdate = stats.LastUpdate
	p.Language = stats.Language
	p.Topics = stats.Topics
	return p
}

// CategoryOf derives a project category from its technologies.
func CategoryOf(technologies []string) string {
	switch {
	case slices.Contains(technologies, "SvelteKit"):
		return CategoryFrontend
	case slices.Contains(technologies, "Laravel"), slices.Contains(technologies, "PHP"):
		return CategoryBackend
	}
	return CategoryFullstack
}

type Stats struct {
	TotalProjects    int      `json:"totalProjects"`
	ActiveProjects   int      `json:"activeProjects"`
	TotalStars       int      `json:"totalStars"`
	TotalForks       int      `json:"totalForks"`
	TechnologiesUsed []string `json:"technologiesUsed"`
}

type Filters struct {
	Technologies []string
	Categories   []string
	Active       *bool
	Search       string
}
