package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/UkralStul/peacesync-blog/internal/domain"
	"github.com/UkralStul/peacesync-blog/internal/storage"
	"github.com/google/uuid"
)

// Store реализует интерфейс Storage в памяти.
type Store struct {
	mu             sync.RWMutex
	posts          map[string]*domain.Post
	postOrder      []string // порядок вставки, для стабильной сортировки
	comments       map[string]*domain.Comment
	commentsByPost map[string][]string                     // map[postID][]commentID
	reactions      map[string]map[string]*domain.Reaction // map[postID]map[userID]
	profiles       map[string]*domain.Profile
}

// New создает новый экземпляр in-memory хранилища.
func New() *Store {
	return &Store{
		posts:          make(map[string]*domain.Post),
		comments:       make(map[string]*domain.Comment),
		commentsByPost: make(map[string][]string),
		reactions:      make(map[string]map[string]*domain.Reaction),
		profiles:       make(map[string]*domain.Profile),
	}
}

var _ storage.Storage = (*Store)(nil)

// === Post Methods ===

func (s *Store) ListPosts(ctx context.Context) ([]*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// от новых к старым; при равном времени позже вставленный идёт первым
	all := make([]*domain.Post, 0, len(s.posts))
	for i := len(s.postOrder) - 1; i >= 0; i-- {
		if p, ok := s.posts[s.postOrder[i]]; ok {
			all = append(all, clonePost(p))
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all, nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, storage.ErrNotFound)
	}
	return clonePost(post), nil
}

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if _, exists := s.posts[post.ID]; exists {
		return nil, fmt.Errorf("post %s: %w", post.ID, storage.ErrDuplicate)
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	if post.UpdatedAt.IsZero() {
		post.UpdatedAt = post.CreatedAt
	}
	s.posts[post.ID] = clonePost(post)
	s.postOrder = append(s.postOrder, post.ID)
	return clonePost(post), nil
}

func (s *Store) UpdatePost(ctx context.Context, id string, patch domain.PostPatch) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, storage.ErrNotFound)
	}
	if patch.Title != nil {
		post.Title = *patch.Title
	}
	if patch.Content != nil {
		post.Content = *patch.Content
	}
	if patch.Excerpt != nil {
		post.Excerpt = *patch.Excerpt
	}
	if patch.Tags != nil {
		post.Tags = append([]string(nil), patch.Tags...)
	}
	if patch.ImageURL != nil {
		post.ImageURL = *patch.ImageURL
	}
	if patch.Status != nil {
		post.Status = *patch.Status
	}
	if !patch.UpdatedAt.IsZero() {
		post.UpdatedAt = patch.UpdatedAt
	}
	return clonePost(post), nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return fmt.Errorf("post %s: %w", id, storage.ErrNotFound)
	}
	delete(s.posts, id)
	for i, pid := range s.postOrder {
		if pid == id {
			s.postOrder = append(s.postOrder[:i], s.postOrder[i+1:]...)
			break
		}
	}
	// Каскадно удаляем комментарии и реакции
	for _, cid := range s.commentsByPost[id] {
		delete(s.comments, cid)
	}
	delete(s.commentsByPost, id)
	delete(s.reactions, id)
	return nil
}

// === Counters ===

func (s *Store) CountReactions(ctx context.Context, postID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reactions[postID]), nil
}

func (s *Store) CountComments(ctx context.Context, postID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.commentsByPost[postID]), nil
}

// === Dataloader Methods ===

func (s *Store) CountReactionsByPostIDs(ctx context.Context, postIDs []string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]int, len(postIDs))
	for _, id := range postIDs {
		result[id] = len(s.reactions[id])
	}
	return result, nil
}

func (s *Store) CountCommentsByPostIDs(ctx context.Context, postIDs []string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]int, len(postIDs))
	for _, id := range postIDs {
		result[id] = len(s.commentsByPost[id])
	}
	return result, nil
}

func (s *Store) GetProfilesByIDs(ctx context.Context, ids []string) (map[string]*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*domain.Profile, len(ids))
	for _, id := range ids {
		if p, ok := s.profiles[id]; ok {
			cp := *p
			result[id] = &cp
		}
	}
	return result, nil
}

// === Reaction Methods ===

func (s *Store) ListViewerReactions(ctx context.Context, userID string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]struct{})
	for postID, byUser := range s.reactions {
		if _, ok := byUser[userID]; ok {
			result[postID] = struct{}{}
		}
	}
	return result, nil
}

func (s *Store) AddReaction(ctx context.Context, postID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[postID]; !ok {
		return fmt.Errorf("post %s: %w", postID, storage.ErrNotFound)
	}
	byUser := s.reactions[postID]
	if byUser == nil {
		byUser = make(map[string]*domain.Reaction)
		s.reactions[postID] = byUser
	}
	if _, ok := byUser[userID]; ok {
		return fmt.Errorf("reaction %s/%s: %w", postID, userID, storage.ErrDuplicate)
	}
	byUser[userID] = &domain.Reaction{
		PostID:    postID,
		UserID:    userID,
		Type:      domain.ReactionLike,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (s *Store) RemoveReaction(ctx context.Context, postID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byUser := s.reactions[postID]
	if _, ok := byUser[userID]; !ok {
		return fmt.Errorf("reaction %s/%s: %w", postID, userID, storage.ErrNotFound)
	}
	delete(byUser, userID)
	if len(byUser) == 0 {
		delete(s.reactions, postID)
	}
	return nil
}

// === Comment Methods ===

func (s *Store) ListComments(ctx context.Context, postID string) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.commentsByPost[postID]
	all := make([]*domain.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.comments[id]; ok {
			all = append(all, cloneComment(c))
		}
	}
	// Сортируем по времени создания, старые первыми
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	return all, nil
}

func (s *Store) GetCommentByID(ctx context.Context, id string) (*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, fmt.Errorf("comment %s: %w", id, storage.ErrNotFound)
	}
	return cloneComment(c), nil
}

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Проверка поста
	if _, ok := s.posts[comment.PostID]; !ok {
		return nil, fmt.Errorf("post %s: %w", comment.PostID, storage.ErrNotFound)
	}

	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	s.comments[comment.ID] = cloneComment(comment)
	s.commentsByPost[comment.PostID] = append(s.commentsByPost[comment.PostID], comment.ID)
	return cloneComment(comment), nil
}

func (s *Store) UpdateComment(ctx context.Context, id, content string, at time.Time) (*domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, fmt.Errorf("comment %s: %w", id, storage.ErrNotFound)
	}
	c.Content = content
	updated := at
	c.UpdatedAt = &updated
	return cloneComment(c), nil
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return fmt.Errorf("comment %s: %w", id, storage.ErrNotFound)
	}
	delete(s.comments, id)
	ids := s.commentsByPost[c.PostID]
	for i, cid := range ids {
		if cid == id {
			s.commentsByPost[c.PostID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// === Profile Methods ===

func (s *Store) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", id, storage.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (s *Store) UpsertProfile(ctx context.Context, profile *domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *profile
	s.profiles[profile.ID] = &cp
	return nil
}

func clonePost(p *domain.Post) *domain.Post {
	cp := *p
	cp.Tags = append([]string(nil), p.Tags...)
	return &cp
}

func cloneComment(c *domain.Comment) *domain.Comment {
	cp := *c
	if c.UpdatedAt != nil {
		t := *c.UpdatedAt
		cp.UpdatedAt = &t
	}
	return &cp
}
