package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/UkralStul/peacesync-blog/internal/auth"
	"github.com/UkralStul/peacesync-blog/internal/blog"
	"github.com/UkralStul/peacesync-blog/internal/dataloader"
	"github.com/UkralStul/peacesync-blog/internal/domain"
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

// countingStore считает обращения лоадеров к хранилищу.
type countingStore struct {
	*inmemory.Store
	likeBatches     atomic.Int32
	commentBatches  atomic.Int32
	reactionLookups atomic.Int32
	profileBatches  atomic.Int32
}

func (s *countingStore) CountReactionsByPostIDs(ctx context.Context, ids []string) (map[string]int, error) {
	s.likeBatches.Add(1)
	return s.Store.CountReactionsByPostIDs(ctx, ids)
}

func (s *countingStore) CountCommentsByPostIDs(ctx context.Context, ids []string) (map[string]int, error) {
	s.commentBatches.Add(1)
	return s.Store.CountCommentsByPostIDs(ctx, ids)
}

func (s *countingStore) ListViewerReactions(ctx context.Context, userID string) (map[string]struct{}, error) {
	s.reactionLookups.Add(1)
	return s.Store.ListViewerReactions(ctx, userID)
}

func (s *countingStore) GetProfilesByIDs(ctx context.Context, ids []string) (map[string]*domain.Profile, error) {
	s.profileBatches.Add(1)
	return s.Store.GetProfilesByIDs(ctx, ids)
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message    string                 `json:"message"`
		Extensions map[string]interface{} `json:"extensions"`
	} `json:"errors"`
}

type testEnv struct {
	t       *testing.T
	svc     *blog.Service
	store   *countingStore
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := &countingStore{Store: inmemory.New()}
	svc := blog.New(store.Store, zerolog.Nop())
	h, err := NewHandler(svc, zerolog.Nop())
	require.NoError(t, err)
	return &testEnv{t: t, svc: svc, store: store, handler: dataloader.Middleware(store, store, h)}
}

func (e *testEnv) exec(v domain.Viewer, query string, vars map[string]interface{}) gqlResponse {
	e.t.Helper()
	body, err := json.Marshal(map[string]interface{}{"query": query, "variables": vars})
	require.NoError(e.t, err)

	req := httptest.NewRequest(http.MethodPost, "/query", bytes.NewReader(body))
	req = req.WithContext(auth.WithViewer(req.Context(), v))
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	require.Equal(e.t, http.StatusOK, rr.Code, rr.Body.String())

	var resp gqlResponse
	require.NoError(e.t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	return resp
}

func (e *testEnv) createPost(v domain.Viewer, title string, tags ...string) string {
	e.t.Helper()
	post, err := e.svc.CreatePost(context.Background(), v, domain.PostInput{Title: title, Content: "About " + title, Tags: tags})
	require.NoError(e.t, err)
	return post.ID
}

func decodeData[T any](t *testing.T, resp gqlResponse) T {
	t.Helper()
	require.Empty(t, resp.Errors)
	var v T
	require.NoError(t, json.Unmarshal(resp.Data, &v))
	return v
}

type postData struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Status           string   `json:"status"`
	Tags             []string `json:"tags"`
	LikeCount        int      `json:"likeCount"`
	CommentCount     int      `json:"commentCount"`
	ViewerHasReacted bool     `json:"viewerHasReacted"`
	CanDelete        bool     `json:"canDelete"`
	Author           struct {
		DisplayName string `json:"displayName"`
		AvatarURL   string `json:"avatarUrl"`
	} `json:"author"`
}

const feedQuery = `query($search: String, $tags: [String!], $moderation: Boolean) {
	feed(search: $search, tags: $tags, moderationView: $moderation) {
		tags
		posts { id title status tags likeCount commentCount viewerHasReacted canDelete author { displayName avatarUrl } }
	}
}`

type feedData struct {
	Feed struct {
		Tags  []string   `json:"tags"`
		Posts []postData `json:"posts"`
	} `json:"feed"`
}

func TestFeed_FieldsAreBatched(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, e.store.UpsertProfile(ctx, &domain.Profile{ID: "mod", DisplayName: "Kind Moderator"}))

	const n = 12
	ids := make([]string, n)
	for i := range ids {
		ids[i] = e.createPost(mod, fmt.Sprintf("post %d", i), "calm")
	}
	_, err := e.svc.React(ctx, bob, ids[0], true)
	require.NoError(t, err)
	_, err = e.svc.AddComment(ctx, alice, ids[1], "thanks")
	require.NoError(t, err)

	// счётчики после подготовки данных интересуют только для запроса ленты
	e.store.likeBatches.Store(0)
	e.store.commentBatches.Store(0)
	e.store.reactionLookups.Store(0)
	e.store.profileBatches.Store(0)

	data := decodeData[feedData](t, e.exec(bob, feedQuery, nil))
	require.Len(t, data.Feed.Posts, n)
	assert.Equal(t, []string{"calm"}, data.Feed.Tags)

	byID := make(map[string]postData, n)
	for _, p := range data.Feed.Posts {
		byID[p.ID] = p
		assert.Equal(t, "Kind Moderator", p.Author.DisplayName)
		assert.Equal(t, "APPROVED", p.Status)
		assert.False(t, p.CanDelete)
	}
	assert.Equal(t, 1, byID[ids[0]].LikeCount)
	assert.True(t, byID[ids[0]].ViewerHasReacted)
	assert.False(t, byID[ids[1]].ViewerHasReacted)
	assert.Equal(t, 1, byID[ids[1]].CommentCount)

	// поля резолвятся по одному на пост, но в хранилище уходят батчами
	assert.Less(t, int(e.store.likeBatches.Load()), n)
	assert.Less(t, int(e.store.commentBatches.Load()), n)
	assert.Less(t, int(e.store.profileBatches.Load()), n)
	assert.Equal(t, int32(1), e.store.reactionLookups.Load())
}

func TestFeed_FiltersAndVisibility(t *testing.T) {
	e := newTestEnv(t)
	e.createPost(mod, "Sleep hygiene", "sleep", "calm")
	e.createPost(mod, "Gratitude list", "gratitude")
	pending := e.createPost(alice, "My first steps", "calm")

	data := decodeData[feedData](t, e.exec(domain.Anonymous, feedQuery, map[string]interface{}{"search": "SLEEP"}))
	require.Len(t, data.Feed.Posts, 1)
	assert.Equal(t, "Sleep hygiene", data.Feed.Posts[0].Title)
	assert.Equal(t, []string{"gratitude", "sleep", "calm"}, data.Feed.Tags)

	data = decodeData[feedData](t, e.exec(alice, feedQuery, map[string]interface{}{"tags": []string{"calm"}}))
	assert.Len(t, data.Feed.Posts, 2)

	data = decodeData[feedData](t, e.exec(mod, feedQuery, map[string]interface{}{"moderation": true}))
	require.Len(t, data.Feed.Posts, 1)
	assert.Equal(t, pending, data.Feed.Posts[0].ID)
	assert.Equal(t, "PENDING", data.Feed.Posts[0].Status)
	assert.Equal(t, domain.AnonymousName, data.Feed.Posts[0].Author.DisplayName)
}

func TestPost_HiddenIsNull(t *testing.T) {
	e := newTestEnv(t)
	pending := e.createPost(alice, "draft")
	const q = `query($id: ID!) { post(id: $id) { id title } }`

	type resp struct {
		Post *struct {
			ID string `json:"id"`
		} `json:"post"`
	}
	assert.Nil(t, decodeData[resp](t, e.exec(bob, q, map[string]interface{}{"id": pending})).Post)
	assert.Nil(t, decodeData[resp](t, e.exec(bob, q, map[string]interface{}{"id": "missing"})).Post)

	own := decodeData[resp](t, e.exec(alice, q, map[string]interface{}{"id": pending}))
	require.NotNil(t, own.Post)
	assert.Equal(t, pending, own.Post.ID)
}

func TestModerate_ThroughMutation(t *testing.T) {
	e := newTestEnv(t)
	id := e.createPost(alice, "my story")
	const m = `mutation($id: ID!, $action: ModerationAction!) { moderate(id: $id, action: $action) { id status } }`

	denied := e.exec(bob, m, map[string]interface{}{"id": id, "action": "APPROVE"})
	require.Len(t, denied.Errors, 1)
	assert.Equal(t, "PERMISSION_DENIED", denied.Errors[0].Extensions["code"])

	missing := e.exec(bob, m, map[string]interface{}{"id": "no-such-post", "action": "APPROVE"})
	require.Len(t, missing.Errors, 1)
	assert.Equal(t, "PERMISSION_DENIED", missing.Errors[0].Extensions["code"])

	type resp struct {
		Moderate struct {
			Status string `json:"status"`
		} `json:"moderate"`
	}
	approved := decodeData[resp](t, e.exec(mod, m, map[string]interface{}{"id": id, "action": "APPROVE"}))
	assert.Equal(t, "APPROVED", approved.Moderate.Status)

	conflict := e.exec(mod, m, map[string]interface{}{"id": id, "action": "REJECT"})
	require.Len(t, conflict.Errors, 1)
	assert.Equal(t, "CONFLICT", conflict.Errors[0].Extensions["code"])

	data := decodeData[feedData](t, e.exec(domain.Anonymous, feedQuery, nil))
	require.Len(t, data.Feed.Posts, 1)
	assert.Equal(t, id, data.Feed.Posts[0].ID)
}

func TestPostMutations(t *testing.T) {
	e := newTestEnv(t)
	const create = `mutation($input: PostInput!) { createPost(input: $input) { id status tags canDelete } }`
	input := map[string]interface{}{"title": "Breathing", "content": "Slowly in, slowly out", "tags": []string{" calm", "calm"}}

	anon := e.exec(domain.Anonymous, create, map[string]interface{}{"input": input})
	require.Len(t, anon.Errors, 1)
	assert.Equal(t, "PERMISSION_DENIED", anon.Errors[0].Extensions["code"])

	invalid := e.exec(alice, create, map[string]interface{}{"input": map[string]interface{}{"title": " ", "content": "x"}})
	require.Len(t, invalid.Errors, 1)
	assert.Equal(t, "VALIDATION_ERROR", invalid.Errors[0].Extensions["code"])
	assert.Equal(t, "title", invalid.Errors[0].Extensions["field"])

	type created struct {
		CreatePost postData `json:"createPost"`
	}
	post := decodeData[created](t, e.exec(alice, create, map[string]interface{}{"input": input})).CreatePost
	assert.Equal(t, "PENDING", post.Status)
	assert.Equal(t, []string{"calm"}, post.Tags)
	assert.True(t, post.CanDelete)

	const update = `mutation($id: ID!, $input: PostInput!) { updatePost(id: $id, input: $input) { title } }`
	denied := e.exec(bob, update, map[string]interface{}{"id": post.ID, "input": input})
	require.Len(t, denied.Errors, 1)
	assert.Equal(t, "NOT_FOUND", denied.Errors[0].Extensions["code"])

	const del = `mutation($id: ID!) { deletePost(id: $id) }`
	type deleted struct {
		DeletePost bool `json:"deletePost"`
	}
	assert.True(t, decodeData[deleted](t, e.exec(alice, del, map[string]interface{}{"id": post.ID})).DeletePost)
}

func TestReactAndComments(t *testing.T) {
	e := newTestEnv(t)
	id := e.createPost(mod, "open thread")

	const react = `mutation($id: ID!, $on: Boolean!) { react(postId: $id, reacted: $on) { reacted likeCount } }`
	type reacted struct {
		React struct {
			Reacted   bool `json:"reacted"`
			LikeCount int  `json:"likeCount"`
		} `json:"react"`
	}
	for i := 0; i < 2; i++ {
		got := decodeData[reacted](t, e.exec(bob, react, map[string]interface{}{"id": id, "on": true}))
		assert.True(t, got.React.Reacted)
		assert.Equal(t, 1, got.React.LikeCount)
	}

	const add = `mutation($id: ID!, $text: String!) { addComment(postId: $id, content: $text) { id content edited canEdit } }`
	type comment struct {
		ID        string  `json:"id"`
		Content   string  `json:"content"`
		Edited    bool    `json:"edited"`
		CanEdit   bool    `json:"canEdit"`
		CanDelete bool    `json:"canDelete"`
		UpdatedAt *string `json:"updatedAt"`
	}
	type added struct {
		AddComment comment `json:"addComment"`
	}
	c := decodeData[added](t, e.exec(bob, add, map[string]interface{}{"id": id, "text": "  thank you "})).AddComment
	assert.Equal(t, "thank you", c.Content)
	assert.False(t, c.Edited)
	assert.True(t, c.CanEdit)

	const edit = `mutation($id: ID!, $text: String!) { editComment(id: $id, content: $text) { edited updatedAt } }`
	type edited struct {
		EditComment comment `json:"editComment"`
	}
	same := decodeData[edited](t, e.exec(bob, edit, map[string]interface{}{"id": c.ID, "text": "thank you"})).EditComment
	assert.False(t, same.Edited)
	assert.Nil(t, same.UpdatedAt)

	changed := decodeData[edited](t, e.exec(bob, edit, map[string]interface{}{"id": c.ID, "text": "thank you so much"})).EditComment
	assert.True(t, changed.Edited)
	assert.NotNil(t, changed.UpdatedAt)

	const thread = `query($id: ID!) { comments(postId: $id) { id canEdit canDelete author { displayName } } }`
	type listed struct {
		Comments []comment `json:"comments"`
	}
	list := decodeData[listed](t, e.exec(mod, thread, map[string]interface{}{"id": id})).Comments
	require.Len(t, list, 1)
	assert.False(t, list[0].CanEdit)
	assert.True(t, list[0].CanDelete)

	const del = `mutation($id: ID!) { deleteComment(id: $id) }`
	type deleted struct {
		DeleteComment bool `json:"deleteComment"`
	}
	assert.True(t, decodeData[deleted](t, e.exec(mod, del, map[string]interface{}{"id": c.ID})).DeleteComment)
	assert.Empty(t, decodeData[listed](t, e.exec(mod, thread, map[string]interface{}{"id": id})).Comments)
}

func TestMe(t *testing.T) {
	e := newTestEnv(t)
	type resp struct {
		Me struct {
			ID            *string `json:"id"`
			Role          string  `json:"role"`
			Authenticated bool    `json:"authenticated"`
		} `json:"me"`
	}
	const q = `{ me { id role authenticated } }`

	anon := decodeData[resp](t, e.exec(domain.Anonymous, q, nil))
	assert.Nil(t, anon.Me.ID)
	assert.False(t, anon.Me.Authenticated)

	m := decodeData[resp](t, e.exec(mod, q, nil))
	require.NotNil(t, m.Me.ID)
	assert.Equal(t, "mod", *m.Me.ID)
	assert.Equal(t, "moderator", m.Me.Role)
}
