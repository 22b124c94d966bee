package feed

import (
	"strings"

	"github.com/UkralStul/peacesync-blog/internal/domain"
)

// Criteria - состояние фильтров ленты.
type Criteria struct {
	SearchTerm     string   `json:"searchTerm"`
	SelectedTags   []string `json:"selectedTags"`
	ModerationView bool     `json:"moderationView"`
}

// Feed - отфильтрованная лента и теги для чипов фильтра.
type Feed struct {
	Posts []domain.PostView `json:"posts"`
	Tags  []string          `json:"tags"`
}

// HasTag - выбран ли тег.
func (c *Criteria) HasTag(tag string) bool {
	for _, t := range c.SelectedTags {
		if t == tag {
			return true
		}
	}
	return false
}

// ToggleTag выбирает тег или снимает выбор, если он уже выбран.
func (c *Criteria) ToggleTag(tag string) {
	for i, t := range c.SelectedTags {
		if t == tag {
			c.SelectedTags = append(c.SelectedTags[:i:i], c.SelectedTags[i+1:]...)
			return
		}
	}
	c.SelectedTags = append(c.SelectedTags, tag)
}

// Clear сбрасывает поиск и теги одновременно. Режим модерации не трогается.
func (c *Criteria) Clear() {
	c.SearchTerm = ""
	c.SelectedTags = nil
}

// MatchesSearch - пустой запрос подходит всем, иначе ищем подстроку
// в заголовке или тексте без учёта регистра.
func MatchesSearch(p *domain.Post, term string) bool {
	if term == "" {
		return true
	}
	needle := strings.ToLower(term)
	return strings.Contains(strings.ToLower(p.Title), needle) ||
		strings.Contains(strings.ToLower(p.Content), needle)
}

// MatchesTags - у поста должны быть все выбранные теги.
func MatchesTags(p *domain.Post, tags []string) bool {
	for _, want := range tags {
		found := false
		for _, have := range p.Tags {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Match - проходит ли пост все фильтры ленты для зрителя: видимость,
// режим модерации, затем поиск и теги.
func Match(p *domain.Post, v domain.Viewer, c Criteria) bool {
	if !domain.Viewable(p, v) || !domain.PassesModerationView(p, v, c.ModerationView) {
		return false
	}
	return MatchesSearch(p, c.SearchTerm) && MatchesTags(p, c.SelectedTags)
}

// Apply отбирает посты для зрителя. Порядок входа сохраняется.
func Apply(posts []domain.PostView, v domain.Viewer, c Criteria) []domain.PostView {
	out := make([]domain.PostView, 0, len(posts))
	for i := range posts {
		if Match(&posts[i].Post, v, c) {
			out = append(out, posts[i])
		}
	}
	return out
}

// Filter - то же, что Apply, для постов без обогащения.
func Filter(posts []*domain.Post, v domain.Viewer, c Criteria) []*domain.Post {
	out := make([]*domain.Post, 0, len(posts))
	for _, p := range posts {
		if Match(p, v, c) {
			out = append(out, p)
		}
	}
	return out
}

// AggregateTags собирает различные теги в порядке первого появления.
func AggregateTags(posts []domain.PostView) []string {
	tags := newTagSet()
	for i := range posts {
		tags.add(posts[i].Tags)
	}
	return tags.list
}

// TagsOf - AggregateTags для постов без обогащения.
func TagsOf(posts []*domain.Post) []string {
	tags := newTagSet()
	for _, p := range posts {
		tags.add(p.Tags)
	}
	return tags.list
}

type tagSet struct {
	seen map[string]struct{}
	list []string
}

func newTagSet() *tagSet {
	return &tagSet{seen: make(map[string]struct{}), list: make([]string, 0)}
}

func (ts *tagSet) add(tags []string) {
	for _, t := range tags {
		if _, ok := ts.seen[t]; ok {
			continue
		}
		ts.seen[t] = struct{}{}
		ts.list = append(ts.list, t)
	}
}

// Visible оставляет только посты, которые зритель вправе видеть.
func Visible(posts []domain.PostView, v domain.Viewer) []domain.PostView {
	out := make([]domain.PostView, 0, len(posts))
	for i := range posts {
		if domain.Viewable(&posts[i].Post, v) {
			out = append(out, posts[i])
		}
	}
	return out
}
