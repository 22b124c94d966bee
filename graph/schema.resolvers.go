package graph

import (
	"context"
	"strings"

	"github.com/UkralStul/peacesync-blog/internal/apperr"
	"github.com/UkralStul/peacesync-blog/internal/domain"
	"github.com/UkralStul/peacesync-blog/internal/feed"
	graphql "github.com/graph-gophers/graphql-go"
)

// === Query Resolvers ===

type feedArgs struct {
	Search         *string
	Tags           *[]string
	ModerationView *bool
}

// Feed возвращает посты без вычисляемых полей: счётчики и авторы
// догружаются резолверами полей батчами.
func (r *Resolver) Feed(ctx context.Context, args feedArgs) (*feedResolver, error) {
	var c feed.Criteria
	if args.Search != nil {
		c.SearchTerm = *args.Search
	}
	if args.Tags != nil {
		c.SelectedTags = *args.Tags
	}
	if args.ModerationView != nil {
		c.ModerationView = *args.ModerationView
	}

	posts, tags, err := r.svc.FeedPosts(ctx, viewer(ctx), c)
	if err != nil {
		return nil, r.fail(err)
	}
	return &feedResolver{posts: r.posts(posts), tags: tags}, nil
}

// Post - null, если поста нет или зритель его не видит.
func (r *Resolver) Post(ctx context.Context, args struct{ ID graphql.ID }) (*postResolver, error) {
	post, err := r.svc.FindPost(ctx, viewer(ctx), string(args.ID))
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeNotFound {
			return nil, nil
		}
		return nil, r.fail(err)
	}
	return r.post(post), nil
}

func (r *Resolver) Comments(ctx context.Context, args struct{ PostID graphql.ID }) ([]*commentResolver, error) {
	comments, err := r.svc.Thread(ctx, viewer(ctx), string(args.PostID))
	if err != nil {
		return nil, r.fail(err)
	}
	return r.comments(comments), nil
}

func (r *Resolver) Me(ctx context.Context) *viewerResolver {
	return &viewerResolver{v: viewer(ctx)}
}

// === Mutation Resolvers ===

type postInput struct {
	Title    string
	Content  string
	Excerpt  *string
	Tags     *[]string
	ImageURL *string
}

func (in postInput) toDomain() domain.PostInput {
	out := domain.PostInput{Title: in.Title, Content: in.Content}
	if in.Excerpt != nil {
		out.Excerpt = *in.Excerpt
	}
	if in.Tags != nil {
		out.Tags = *in.Tags
	}
	if in.ImageURL != nil {
		out.ImageURL = *in.ImageURL
	}
	return out
}

func (r *Resolver) CreatePost(ctx context.Context, args struct{ Input postInput }) (*postResolver, error) {
	view, err := r.svc.CreatePost(ctx, viewer(ctx), args.Input.toDomain())
	if err != nil {
		return nil, r.fail(err)
	}
	return r.post(&view.Post), nil
}

func (r *Resolver) UpdatePost(ctx context.Context, args struct {
	ID    graphql.ID
	Input postInput
}) (*postResolver, error) {
	view, err := r.svc.UpdatePost(ctx, viewer(ctx), string(args.ID), args.Input.toDomain())
	if err != nil {
		return nil, r.fail(err)
	}
	return r.post(&view.Post), nil
}

func (r *Resolver) DeletePost(ctx context.Context, args struct{ ID graphql.ID }) (bool, error) {
	if err := r.svc.DeletePost(ctx, viewer(ctx), string(args.ID)); err != nil {
		return false, r.fail(err)
	}
	return true, nil
}

func (r *Resolver) Moderate(ctx context.Context, args struct {
	ID     graphql.ID
	Action string
}) (*postResolver, error) {
	action := domain.Action(strings.ToLower(args.Action))
	post, err := r.svc.Moderate(ctx, viewer(ctx), string(args.ID), action)
	if err != nil {
		return nil, r.fail(err)
	}
	return r.post(post), nil
}

func (r *Resolver) React(ctx context.Context, args struct {
	PostID  graphql.ID
	Reacted bool
}) (*reactionResolver, error) {
	state, err := r.svc.React(ctx, viewer(ctx), string(args.PostID), args.Reacted)
	if err != nil {
		return nil, r.fail(err)
	}
	return &reactionResolver{state: state}, nil
}

func (r *Resolver) AddComment(ctx context.Context, args struct {
	PostID  graphql.ID
	Content string
}) (*commentResolver, error) {
	view, err := r.svc.AddComment(ctx, viewer(ctx), string(args.PostID), args.Content)
	if err != nil {
		return nil, r.fail(err)
	}
	return r.comment(&view.Comment), nil
}

func (r *Resolver) EditComment(ctx context.Context, args struct {
	ID      graphql.ID
	Content string
}) (*commentResolver, error) {
	view, err := r.svc.EditComment(ctx, viewer(ctx), string(args.ID), args.Content)
	if err != nil {
		return nil, r.fail(err)
	}
	return r.comment(&view.Comment), nil
}

func (r *Resolver) DeleteComment(ctx context.Context, args struct{ ID graphql.ID }) (bool, error) {
	if err := r.svc.DeleteComment(ctx, viewer(ctx), string(args.ID)); err != nil {
		return false, r.fail(err)
	}
	return true, nil
}
