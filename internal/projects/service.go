package projects

import (
	"context"
	"log/slog"
	"slices"
)

const similarLimit = 3

type Service struct {
	repository *StaticRepository
	searcher   Searcher
	stats      StatsProvider
	logger     *slog.Logger
}

func NewService(repository *StaticRepository, searcher Searcher, stats StatsProvider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repository: repository, searcher: searcher, stats: stats, logger: logger}
}

func (s *Service) GetAllProjects(lang string) []Project {
	return s.repository.GetAllProjects(lang)
}

// GetProjectBySlug returns the project with its GitHub statistics when the
// project names a repository and the statistics can be fetched.
func (s *Service) GetProjectBySlug(ctx context.Context, slug, lang string) (Project, error) {
	project, err := s.repository.GetProjectBySlug(slug, lang)
	if err != nil {
		return Project{}, err
	}
	if project.GitHub == "" || s.stats == nil {
		return project, nil
	}

	stats, err := s.stats.GetStats(ctx, project.GitHub)
	if err != nil {
		s.logger.Warn("failed to fetch github stats",
			slog.String("project", project.Slug),
			slog.String("error", err.Error()),
		)
		return project, nil
	}
	return project.WithStats(stats), nil
}

// SimilarProjects lists up to three other projects sharing the category or
// a technology.
func (s *Service) SimilarProjects(project Project, lang string) []Project {
	similar := make([]Project, 0, similarLimit)
	for _, p := range s.repository.GetAllProjects(lang) {
		if p.Slug == project.Slug {
			continue
		}
		if p.Category == project.Category || slices.ContainsFunc(p.Technologies, func(tech string) bool {
			return slices.Contains(project.Technologies, tech)
		}) {
			similar = append(similar, p)
		}
		if len(similar) == similarLimit {
			break
		}
	}
	return similar
}

func (s *Service) GetFilteredProjects(filters Filters, lang string) ([]Project, error) {
	projects := s.repository.GetFilteredProjects(filters, lang)
	if filters.Search == "" {
		return projects, nil
	}
	return s.search(projects, filters.Search)
}

func (s *Service) SearchProjects(query, lang string) ([]Project, error) {
	return s.search(s.repository.GetAllProjects(lang), query)
}

func (s *Service) search(projects []Project, query string) ([]Project, error) {
	results, err := s.searcher.Search(projects, query)
	if err != nil {
		return nil, err
	}
	found := make([]Project, 0, len(results))
	for _, r := range results {
		found = append(found, r.Project)
	}
	return found, nil
}

func (s *Service) GetTechnologies() []string {
	return s.repository.GetTechnologies()
}

func (s *Service) GetCategories() []string {
	return s.repository.GetCategories()
}

// GetProjectStats summarizes the catalogue, enriched with GitHub statistics
// where available.
func (s *Service) GetProjectStats(ctx context.Context, lang string) Stats {
	projects := s.EnhanceWithStats(ctx, s.repository.GetAllProjects(lang))

	stats := Stats{TotalProjects: len(projects), TechnologiesUsed: make([]string, 0)}
	for _, p := range projects {
		if p.Active {
			stats.ActiveProjects++
		}
		stats.TotalStars += p.Stars
		stats.TotalForks += p.Forks
		for _, tech := range p.Technologies {
			if !slices.Contains(stats.TechnologiesUsed, tech) {
				stats.TechnologiesUsed = append(stats.TechnologiesUsed, tech)
			}
		}
	}
	return stats
}

func (s *Service) EnhanceWithStats(ctx context.Context, projects []Project) []Project {
	if s.stats == nil {
		return projects
	}

	urls := make([]string, 0, len(projects))
	for _, p := range projects {
		if p.GitHub != "" {
			urls = append(urls, p.GitHub)
		}
	}
	if len(urls) == 0 {
		return projects
	}

	statsByURL := s.stats.GetBulkStats(ctx, urls)
	enhanced := make([]Project, 0, len(projects))
	for _, p := range projects {
		enhanced = append(enhanced, p.WithStats(statsByURL[p.GitHub]))
	}
	return enhanced
}
