package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/UkralStul/peacesync-blog/internal/domain"
	"github.com/UkralStul/peacesync-blog/internal/storage"
	"github.com/rs/zerolog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore открывает отдельную in-memory базу SQLite на тест.
// Без cgo драйвер не открывается - тогда тест пропускается.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	store, err := NewSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name), zerolog.Nop())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func createPost(t *testing.T, s *Store, title string, createdAt time.Time) *domain.Post {
	t.Helper()
	post, err := s.CreatePost(context.Background(), &domain.Post{
		Title:     title,
		Content:   "content of " + title,
		Excerpt:   "content of " + title,
		Tags:      []string{"mindfulness", "sleep"},
		AuthorID:  "user-1",
		Status:    domain.StatusPending,
		CreatedAt: createdAt,
	})
	require.NoError(t, err)
	return post
}

func TestSQLStore_PostRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	older := createPost(t, s, "older", base)
	newer := createPost(t, s, "newer", base.Add(time.Hour))

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, newer.ID, posts[0].ID)
	assert.Equal(t, older.ID, posts[1].ID)
	assert.Equal(t, []string{"mindfulness", "sleep"}, posts[0].Tags)
	assert.Equal(t, domain.StatusPending, posts[0].Status)

	_, err = s.GetPostByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSQLStore_UpdatePostKeepsExplicitUpdatedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	post := createPost(t, s, "p", base)

	approved := domain.StatusApproved
	at := base.Add(2 * time.Hour)
	updated, err := s.UpdatePost(ctx, post.ID, domain.PostPatch{Status: &approved, Tags: []string{"calm"}, UpdatedAt: at})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, updated.Status)
	assert.Equal(t, []string{"calm"}, updated.Tags)
	assert.True(t, at.Equal(updated.UpdatedAt))

	_, err = s.UpdatePost(ctx, "missing", domain.PostPatch{Status: &approved})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSQLStore_Reactions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	post := createPost(t, s, "p", time.Now().UTC())

	require.NoError(t, s.AddReaction(ctx, post.ID, "user-2"))
	assert.ErrorIs(t, s.AddReaction(ctx, post.ID, "user-2"), storage.ErrDuplicate)
	assert.ErrorIs(t, s.AddReaction(ctx, "missing", "user-2"), storage.ErrNotFound)
	require.NoError(t, s.AddReaction(ctx, post.ID, "user-3"))

	n, err := s.CountReactions(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	counts, err := s.CountReactionsByPostIDs(ctx, []string{post.ID, "other"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{post.ID: 2, "other": 0}, counts)

	mine, err := s.ListViewerReactions(ctx, "user-3")
	require.NoError(t, err)
	assert.Contains(t, mine, post.ID)

	require.NoError(t, s.RemoveReaction(ctx, post.ID, "user-3"))
	assert.ErrorIs(t, s.RemoveReaction(ctx, post.ID, "user-3"), storage.ErrNotFound)
}

func TestSQLStore_Comments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	post := createPost(t, s, "p", base)

	second, err := s.CreateComment(ctx, &domain.Comment{PostID: post.ID, AuthorID: "user-2", Content: "second", CreatedAt: base.Add(time.Minute)})
	require.NoError(t, err)
	_, err = s.CreateComment(ctx, &domain.Comment{PostID: post.ID, AuthorID: "user-3", Content: "first", CreatedAt: base})
	require.NoError(t, err)
	_, err = s.CreateComment(ctx, &domain.Comment{PostID: "missing", AuthorID: "user-3", Content: "x"})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	comments, err := s.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)

	edited, err := s.UpdateComment(ctx, second.ID, "second, edited", base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "second, edited", edited.Content)
	assert.True(t, edited.Edited())

	counts, err := s.CountCommentsByPostIDs(ctx, []string{post.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, counts[post.ID])

	require.NoError(t, s.DeleteComment(ctx, second.ID))
	assert.ErrorIs(t, s.DeleteComment(ctx, second.ID), storage.ErrNotFound)
	_, err = s.UpdateComment(ctx, second.ID, "gone", base)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSQLStore_DeletePostCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	post := createPost(t, s, "p", time.Now().UTC())

	require.NoError(t, s.AddReaction(ctx, post.ID, "user-2"))
	_, err := s.CreateComment(ctx, &domain.Comment{PostID: post.ID, AuthorID: "user-2", Content: "hi"})
	require.NoError(t, err)

	require.NoError(t, s.DeletePost(ctx, post.ID))
	assert.ErrorIs(t, s.DeletePost(ctx, post.ID), storage.ErrNotFound)

	n, err := s.CountComments(ctx, post.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = s.CountReactions(ctx, post.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLStore_Profiles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertProfile(ctx, &domain.Profile{ID: "user-1", DisplayName: "Peace Seeker"}))
	require.NoError(t, s.UpsertProfile(ctx, &domain.Profile{ID: "user-1", DisplayName: "Grateful Soul"}))

	p, err := s.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Grateful Soul", p.DisplayName)

	_, err = s.GetProfile(ctx, "ghost")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	all, err := s.GetProfilesByIDs(ctx, []string{"user-1", "ghost"})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
