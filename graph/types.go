package graph

import (
	"context"
	"strings"

	"github.com/UkralStul/peacesync-blog/internal/domain"
	graphql "github.com/graph-gophers/graphql-go"
)

// === Feed ===

type feedResolver struct {
	posts []*postResolver
	tags  []string
}

func (f *feedResolver) Posts() []*postResolver { return f.posts }
func (f *feedResolver) Tags() []string         { return f.tags }

// === Post ===

type postResolver struct {
	r *Resolver
	p *domain.Post
}

func (r *Resolver) post(p *domain.Post) *postResolver {
	return &postResolver{r: r, p: p}
}

func (r *Resolver) posts(posts []*domain.Post) []*postResolver {
	out := make([]*postResolver, len(posts))
	for i, p := range posts {
		out[i] = r.post(p)
	}
	return out
}

func (p *postResolver) ID() graphql.ID  { return graphql.ID(p.p.ID) }
func (p *postResolver) Title() string   { return p.p.Title }
func (p *postResolver) Content() string { return p.p.Content }
func (p *postResolver) Excerpt() string { return p.p.Excerpt }
func (p *postResolver) Tags() []string  { return p.p.Tags }

func (p *postResolver) ImageURL() *string {
	if p.p.ImageURL == "" {
		return nil
	}
	return &p.p.ImageURL
}

// Status - значение enum PostStatus.
func (p *postResolver) Status() string { return strings.ToUpper(string(p.p.Status)) }

func (p *postResolver) CreatedAt() graphql.Time { return graphql.Time{Time: p.p.CreatedAt} }
func (p *postResolver) UpdatedAt() graphql.Time { return graphql.Time{Time: p.p.UpdatedAt} }

// Резолверы ниже принимают контекст, поэтому библиотека вызывает их
// параллельно для всех постов списка, а лоадеры собирают ключи в один батч.

func (p *postResolver) Author(ctx context.Context) *authorResolver {
	return &authorResolver{a: p.r.svc.Author(ctx, p.p.AuthorID)}
}

func (p *postResolver) LikeCount(ctx context.Context) int32 {
	return int32(p.r.svc.LikeCount(ctx, p.p.ID))
}

func (p *postResolver) CommentCount(ctx context.Context) int32 {
	return int32(p.r.svc.CommentCount(ctx, p.p.ID))
}

func (p *postResolver) ViewerHasReacted(ctx context.Context) bool {
	return p.r.svc.ViewerHasReacted(ctx, viewer(ctx), p.p.ID)
}

func (p *postResolver) CanEdit(ctx context.Context) bool {
	return domain.CanEditPost(p.p, viewer(ctx))
}

func (p *postResolver) CanDelete(ctx context.Context) bool {
	return domain.CanDeletePost(p.p, viewer(ctx))
}

func (p *postResolver) Comments(ctx context.Context) ([]*commentResolver, error) {
	comments, err := p.r.svc.Thread(ctx, viewer(ctx), p.p.ID)
	if err != nil {
		return nil, p.r.fail(err)
	}
	return p.r.comments(comments), nil
}

// === Comment ===

type commentResolver struct {
	r *Resolver
	c *domain.Comment
}

func (r *Resolver) comment(c *domain.Comment) *commentResolver {
	return &commentResolver{r: r, c: c}
}

func (r *Resolver) comments(comments []*domain.Comment) []*commentResolver {
	out := make([]*commentResolver, len(comments))
	for i, c := range comments {
		out[i] = r.comment(c)
	}
	return out
}

func (c *commentResolver) ID() graphql.ID          { return graphql.ID(c.c.ID) }
func (c *commentResolver) PostID() graphql.ID      { return graphql.ID(c.c.PostID) }
func (c *commentResolver) Content() string         { return c.c.Content }
func (c *commentResolver) CreatedAt() graphql.Time { return graphql.Time{Time: c.c.CreatedAt} }
func (c *commentResolver) Edited() bool            { return c.c.Edited() }

func (c *commentResolver) UpdatedAt() *graphql.Time {
	if c.c.UpdatedAt == nil {
		return nil
	}
	return &graphql.Time{Time: *c.c.UpdatedAt}
}

func (c *commentResolver) Author(ctx context.Context) *authorResolver {
	return &authorResolver{a: c.r.svc.Author(ctx, c.c.AuthorID)}
}

func (c *commentResolver) CanEdit(ctx context.Context) bool {
	return domain.CanEditComment(c.c, viewer(ctx))
}

func (c *commentResolver) CanDelete(ctx context.Context) bool {
	return domain.CanDeleteComment(c.c, viewer(ctx))
}

// === Author, ReactionState, Viewer ===

type authorResolver struct {
	a domain.Author
}

func (a *authorResolver) ID() graphql.ID      { return graphql.ID(a.a.ID) }
func (a *authorResolver) DisplayName() string { return a.a.DisplayName }
func (a *authorResolver) AvatarURL() string   { return a.a.AvatarURL }

type reactionResolver struct {
	state *domain.ReactionState
}

func (r *reactionResolver) PostID() graphql.ID { return graphql.ID(r.state.PostID) }
func (r *reactionResolver) Reacted() bool      { return r.state.Reacted }
func (r *reactionResolver) LikeCount() int32   { return int32(r.state.LikeCount) }

type viewerResolver struct {
	v domain.Viewer
}

func (v *viewerResolver) ID() *graphql.ID {
	if !v.v.Authenticated() {
		return nil
	}
	id := graphql.ID(v.v.UserID)
	return &id
}

func (v *viewerResolver) Role() string        { return string(v.v.Role) }
func (v *viewerResolver) Authenticated() bool { return v.v.Authenticated() }
