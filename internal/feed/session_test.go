package feed_test

import (
	"context"
	"errors"
	"testing"

	"github.com/UkralStul/peacesync-blog/internal/apperr"
	"github.com/UkralStul/peacesync-blog/internal/blog"
	"github.com/UkralStul/peacesync-blog/internal/domain"
	"github.com/UkralStul/peacesync-blog/internal/feed"
	"github.com/UkralStul/peacesync-blog/internal/storage/inmemory"
	"github.com/rs/zerolog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = domain.Viewer{UserID: "alice", Role: domain.RoleUser}
	bob   = domain.Viewer{UserID: "bob", Role: domain.RoleUser}
	mod   = domain.Viewer{UserID: "mod", Role: domain.RoleModerator}
)

// unreliableBackend проваливает реакции, пока failReact выставлен.
type unreliableBackend struct {
	*blog.Service
	failReact bool
}

func (u *unreliableBackend) React(ctx context.Context, v domain.Viewer, postID string, want bool) (*domain.ReactionState, error) {
	if u.failReact {
		return nil, apperr.StoreUnavailable("add reaction", errors.New("connection reset"))
	}
	return u.Service.React(ctx, v, postID, want)
}

func setup(t *testing.T) (*blog.Service, *unreliableBackend) {
	t.Helper()
	svc := blog.New(inmemory.New(), zerolog.Nop())
	return svc, &unreliableBackend{Service: svc}
}

func newPost(t *testing.T, svc *blog.Service, v domain.Viewer, title string, tags ...string) *domain.PostView {
	t.Helper()
	p, err := svc.CreatePost(context.Background(), v, domain.PostInput{Title: title, Content: "about " + title, Tags: tags})
	require.NoError(t, err)
	return p
}

func TestSession_FiltersOverLoadedPosts(t *testing.T) {
	svc, backend := setup(t)
	ctx := context.Background()
	newPost(t, svc, mod, "Finding Peace", "a", "b")
	newPost(t, svc, mod, "Sleep better", "a", "c")

	s := feed.NewSession(backend, bob, zerolog.Nop())
	require.NoError(t, s.Refresh(ctx))
	assert.Len(t, s.Visible(), 2)
	assert.Equal(t, []string{"a", "c", "b"}, s.Tags())

	s.ToggleTag("a")
	s.ToggleTag("c")
	require.Len(t, s.Visible(), 1)
	assert.Equal(t, "Sleep better", s.Visible()[0].Title)

	s.SetSearchTerm("peace")
	assert.Empty(t, s.Visible())

	s.ClearFilters()
	assert.Len(t, s.Visible(), 2)
	assert.Empty(t, s.Criteria().SelectedTags)

	assert.ErrorIs(t, s.SetModerationView(true), apperr.ErrPermissionDenied)
}

func TestSession_ModerateUpdatesHeldPost(t *testing.T) {
	svc, backend := setup(t)
	ctx := context.Background()
	post := newPost(t, svc, alice, "pending")

	s := feed.NewSession(backend, mod, zerolog.Nop())
	require.NoError(t, s.Refresh(ctx))
	require.NoError(t, s.SetModerationView(true))
	require.Len(t, s.Visible(), 1)

	require.NoError(t, s.Moderate(ctx, post.ID, domain.ActionApprove))
	assert.Empty(t, s.Visible(), "approved post leaves the moderation queue without a refresh")

	require.NoError(t, s.SetModerationView(false))
	require.Len(t, s.Visible(), 1)
	assert.Equal(t, domain.StatusApproved, s.Visible()[0].Status)
}

func TestSession_ModerateDeniedKeepsState(t *testing.T) {
	svc, backend := setup(t)
	ctx := context.Background()
	post := newPost(t, svc, mod, "approved")

	s := feed.NewSession(backend, bob, zerolog.Nop())
	require.NoError(t, s.Refresh(ctx))

	err := s.Moderate(ctx, post.ID, domain.ActionReject)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	require.Len(t, s.Visible(), 1)
	assert.Equal(t, domain.StatusApproved, s.Visible()[0].Status)
}

func TestSession_ReactConfirmsAndRollsBack(t *testing.T) {
	svc, backend := setup(t)
	ctx := context.Background()
	post := newPost(t, svc, mod, "likeable")

	s := feed.NewSession(backend, bob, zerolog.Nop())
	require.NoError(t, s.Refresh(ctx))

	out, err := s.React(ctx, post.ID, true)
	require.NoError(t, err)
	assert.False(t, out.RolledBack())
	assert.Equal(t, 1, out.Optimistic.LikeCount)
	assert.Equal(t, 1, out.Final.LikeCount)
	assert.True(t, s.Visible()[0].ViewerHasReacted)

	backend.failReact = true
	out, err = s.React(ctx, post.ID, false)
	assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)
	assert.True(t, out.RolledBack())
	assert.Equal(t, 0, out.Optimistic.LikeCount)
	assert.Equal(t, 1, out.Final.LikeCount)

	held := s.Visible()[0]
	assert.True(t, held.ViewerHasReacted)
	assert.Equal(t, 1, held.LikeCount)
}

func TestSession_ReactRequiresSignIn(t *testing.T) {
	svc, backend := setup(t)
	ctx := context.Background()
	post := newPost(t, svc, mod, "likeable")

	s := feed.NewSession(backend, domain.Anonymous, zerolog.Nop())
	require.NoError(t, s.Refresh(ctx))

	out, err := s.React(ctx, post.ID, true)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	assert.True(t, out.RolledBack())
	assert.Zero(t, s.Visible()[0].LikeCount)
}

func TestSession_SingleExpandedThread(t *testing.T) {
	svc, backend := setup(t)
	ctx := context.Background()
	first := newPost(t, svc, mod, "first")
	second := newPost(t, svc, mod, "second")
	_, err := svc.AddComment(ctx, alice, first.ID, "hello")
	require.NoError(t, err)

	s := feed.NewSession(backend, bob, zerolog.Nop())
	require.NoError(t, s.Refresh(ctx))

	comments, err := s.ToggleThread(ctx, first.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 1)
	assert.Equal(t, first.ID, s.Expanded())

	_, err = s.ToggleThread(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, s.Expanded())
	assert.Empty(t, s.Comments())

	added, err := s.AddComment(ctx, "nice")
	require.NoError(t, err)
	assert.Len(t, s.Comments(), 1)

	edited, err := s.EditComment(ctx, added.ID, "very nice")
	require.NoError(t, err)
	assert.True(t, edited.Edited)
	assert.Equal(t, "very nice", s.Comments()[0].Content)

	require.NoError(t, s.DeleteComment(ctx, added.ID))
	assert.Empty(t, s.Comments())

	collapsed, err := s.ToggleThread(ctx, second.ID)
	require.NoError(t, err)
	assert.Nil(t, collapsed)
	assert.Empty(t, s.Expanded())

	_, err = s.AddComment(ctx, "nowhere")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSession_NotFoundRefreshes(t *testing.T) {
	svc, backend := setup(t)
	ctx := context.Background()
	post := newPost(t, svc, mod, "soon gone")

	s := feed.NewSession(backend, bob, zerolog.Nop())
	require.NoError(t, s.Refresh(ctx))
	require.Len(t, s.Visible(), 1)

	require.NoError(t, svc.DeletePost(ctx, mod, post.ID))

	_, err := s.React(ctx, post.ID, true)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Empty(t, s.Visible(), "not found triggers a refresh")
}
