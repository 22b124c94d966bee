package dataloader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/UkralStul/peacesync-blog/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu            sync.Mutex
	countCalls    int
	profileCall   int
	reactionCalls int
	fail          bool
}

func (f *fakeSource) CountReactionsByPostIDs(_ context.Context, ids []string) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countCalls++
	if f.fail {
		return nil, errors.New("db down")
	}
	out := make(map[string]int, len(ids))
	for i, id := range ids {
		out[id] = i + 1
	}
	return out, nil
}

func (f *fakeSource) CountCommentsByPostIDs(ctx context.Context, ids []string) (map[string]int, error) {
	return f.CountReactionsByPostIDs(ctx, ids)
}

func (f *fakeSource) ListViewerReactions(_ context.Context, userID string) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactionCalls++
	if f.fail {
		return nil, errors.New("db down")
	}
	return map[string]struct{}{userID + "-post": {}}, nil
}

func (f *fakeSource) GetProfilesByIDs(_ context.Context, ids []string) (map[string]*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profileCall++
	return map[string]*domain.Profile{"known": {ID: "known", DisplayName: "Known"}}, nil
}

func TestLoadCounts_SingleBatch(t *testing.T) {
	src := &fakeSource{}
	l := NewLoaders(src, src)

	counts, errs := LoadCounts(context.Background(), l.LikeCounts, []string{"a", "b", "c"})
	assert.Empty(t, errs)
	assert.Len(t, counts, 3)
	assert.Equal(t, 1, src.countCalls)

	// повторная загрузка берётся из кэша лоадера
	_, _ = LoadCounts(context.Background(), l.LikeCounts, []string{"a"})
	assert.Equal(t, 1, src.countCalls)
}

func TestLoadCounts_ErrorsPerKey(t *testing.T) {
	src := &fakeSource{fail: true}
	l := NewLoaders(src, src)

	counts, errs := LoadCounts(context.Background(), l.CommentCounts, []string{"a", "b"})
	assert.Empty(t, counts)
	assert.Len(t, errs, 2)
}

func TestLoadProfiles_MissingIsNotAnError(t *testing.T) {
	src := &fakeSource{}
	l := NewLoaders(src, src)

	profiles, err := LoadProfiles(context.Background(), l.Profiles, []string{"known", "ghost"})
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
	assert.Equal(t, "Known", profiles["known"].DisplayName)
}

func TestLoadReactions_OneQueryPerViewer(t *testing.T) {
	src := &fakeSource{}
	l := NewLoaders(src, src)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reacted, err := LoadReactions(context.Background(), l.Reactions, "bob")
			assert.NoError(t, err)
			assert.Contains(t, reacted, "bob-post")
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, src.reactionCalls)

	failing := NewLoaders(&fakeSource{fail: true}, src)
	_, err := LoadReactions(context.Background(), failing.Reactions, "bob")
	assert.Error(t, err)
}

func TestMiddleware_InjectsLoaders(t *testing.T) {
	src := &fakeSource{}
	var got *Loaders
	h := Middleware(src, src, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = For(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotNil(t, got)
	assert.Nil(t, For(context.Background()))
}
