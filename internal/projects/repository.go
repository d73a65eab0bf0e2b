package projects

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goliatone/go-slug"
	"gopkg.in/yaml.v3"
)

var nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

type dataFile struct {
	Items []Entry `yaml:"items" validate:"dive"`
}

// StaticRepository serves the projects listed in a YAML data file.
type StaticRepository struct {
	entries []Entry
}

func LoadStaticRepository(path string) (*StaticRepository, error) {
	fileBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fail to read projects file: %w", err)
	}
	return NewStaticRepository(fileBytes)
}

func NewStaticRepository(data []byte) (*StaticRepository, error) {
	file := dataFile{}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("fail to parse projects file: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(&file); err != nil {
		return nil, fmt.Errorf("invalid projects file: %w", err)
	}

	return &StaticRepository{entries: file.Items}, nil
}

// Slugify turns a title into a URL slug.
func Slugify(title string) string {
	if normalized, err := slug.Normalize(title); err == nil && normalized != "" {
		return normalized
	}
	return strings.Trim(nonSlugRe.ReplaceAllString(strings.ToLower(title), "-"), "-")
}

func (r *StaticRepository) GetAllProjects(lang string) []Project {
	projects := make([]Project, 0, len(r.entries))
	for i, e := range r.entries {
		technologies := e.Technologies
		if technologies == nil {
			technologies = []string{}
		}
		projects = append(projects, Project{
			ID:           fmt.Sprintf("project-%d", i),
			Slug:         Slugify(e.Title),
			Category:     CategoryOf(technologies),
			Title:        e.Title,
			Href:         e.Href,
			Dates:        e.Dates.In(lang),
			Active:       e.Active,
			Featured:     e.Featured,
			Description:  e.Description.In(lang),
			Technologies: technologies,
			Links:        e.Links,
			Image:        e.Image,
			Video:        e.Video,
			Demo:         e.Demo,
			GitHub:       e.GitHub,
		})
	}
	return projects
}

func (r *StaticRepository) GetProjectBySlug(slug, lang string) (Project, error) {
	for _, p := range r.GetAllProjects(lang) {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Project{}, fmt.Errorf("%w: '%s'", ErrProjectNotFound, slug)
}

func (r *StaticRepository) GetFilteredProjects(filters Filters, lang string) []Project {
	composite := NewCompositeFilter()
	if len(filters.Technologies) > 0 {
		composite.Add("technology", TechnologyFilter{Technologies: filters.Technologies})
	}
	if len(filters.Categories) > 0 {
		composite.Add("category", CategoryFilter{Categories: filters.Categories})
	}
	if filters.Active != nil {
		composite.Add("status", StatusFilter{ActiveOnly: *filters.Active})
	}
	return composite.Apply(r.GetAllProjects(lang))
}

func (r *StaticRepository) GetTechnologies() []string {
	technologies := make([]string, 0)
	for _, e := range r.entries {
		technologies = append(technologies, e.Technologies...)
	}
	slices.Sort(technologies)
	return slices.Compact(technologies)
}

func (r *StaticRepository) GetCategories() []string {
	categories := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		categories = append(categories, CategoryOf(e.Technologies))
	}
	slices.Sort(categories)
	return slices.Compact(categories)
}
