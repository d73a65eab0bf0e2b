package blog

import (
	"context"
	"slices"
)

// RelatedPosts ranks published posts by the number of categories they share
// with the post resolved from slug, then by date. Posts sharing no category
// are left out.
func (r *Repository) RelatedPosts(ctx context.Context, slug, lang string, limit int) ([]ListItem, error) {
	posts, err := r.GetAllPosts(ctx, lang)
	if err != nil {
		return nil, err
	}

	idx := slices.IndexFunc(posts, func(p ListItem) bool { return p.Slug == slug })
	if idx < 0 {
		return []ListItem{}, nil
	}
	current := posts[idx]

	type scored struct {
		item  ListItem
		score int
	}
	candidates := make([]scored, 0, len(posts))
	for i, post := range posts {
		if i == idx {
			continue
		}
		score := 0
		for _, category := range post.Metadata.Categories {
			if current.Metadata.HasCategory(category) {
				score++
			}
		}
		if score > 0 {
			candidates = append(candidates, scored{item: post, score: score})
		}
	}

	slices.SortStableFunc(candidates, func(a, b scored) int {
		if a.score != b.score {
			return b.score - a.score
		}
		return newestFirst(a.item, b.item)
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	related := make([]ListItem, 0, len(candidates))
	for _, c := range candidates {
		related = append(related, c.item)
	}
	return related, nil
}
