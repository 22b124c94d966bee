package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/UkralStul/peacesync-blog/internal/domain"
	"github.com/UkralStul/peacesync-blog/internal/storage"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"
)

// ErrAlreadySeeded - в хранилище уже есть посты, сидер ничего не трогает.
var ErrAlreadySeeded = errors.New("blog already has posts")

// Tags - набор тегов для демо-постов.
var Tags = []string{
	"mindfulness", "meditation", "self-care", "gratitude", "anxiety",
	"depression", "wellness", "healing", "mental-health", "emotional-health",
	"breathing", "stress-relief", "sleep", "journaling", "positive-thinking",
}

var authorNames = []string{
	"Mindful Explorer", "Peace Seeker", "Wellness Advocate", "Calm Practitioner", "Grateful Soul",
}

var titles = []string{
	"Finding Peace in Daily Mindfulness Practices",
	"The Science Behind Meditation and Brain Health",
	"Gratitude Journaling: Transform Your Outlook in Five Minutes a Day",
	"Breaking the Cycle: How to Recognize and Manage Anxiety Triggers",
	"The Power of Deep Breathing: A Simple Technique for Immediate Stress Relief",
	"Building a Bedtime Routine That Actually Works",
	"Small Acts of Self-Care on Busy Days",
	"Healing Is Not Linear",
}

// Options - объём демо-данных.
type Options struct {
	Posts       int
	MaxLikes    int
	MaxComments int
	Seed        uint64 // 0 - случайный
}

func DefaultOptions() Options {
	return Options{Posts: len(titles), MaxLikes: 8, MaxComments: 5}
}

// Result - сколько записей создано.
type Result struct {
	Profiles  int
	Posts     int
	Reactions int
	Comments  int
}

// ProfileWriter пишет профили авторов. Кэш профилей реализует его, сбрасывая
// устаревшие записи.
type ProfileWriter interface {
	UpsertProfile(ctx context.Context, profile *domain.Profile) error
}

// Seeder наполняет блог демо-данными через storage.Storage, поэтому работает
// с любым бэкендом.
type Seeder struct {
	store    storage.Storage
	profiles ProfileWriter
	faker    *gofakeit.Faker
	opts     Options
	log      zerolog.Logger
	now      time.Time
}

func NewSeeder(store storage.Storage, opts Options, log zerolog.Logger) *Seeder {
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Seeder{
		store:    store,
		profiles: store,
		faker:    gofakeit.New(seed),
		opts:     opts,
		log:      log.With().Str("component", "seeder").Logger(),
		now:      time.Now().UTC(),
	}
}

// Run создаёт профили, одобренные посты, лайки и комментарии.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	existing, err := s.store.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing posts: %w", err)
	}
	if len(existing) > 0 {
		return nil, ErrAlreadySeeded
	}

	res := &Result{}
	authors, err := s.seedProfiles(ctx)
	if err != nil {
		return res, err
	}
	res.Profiles = len(authors)

	// читатели ставят лайки и пишут комментарии
	readers := make([]string, 0, s.opts.MaxLikes+len(authors))
	readers = append(readers, authors...)
	for i := 0; i < s.opts.MaxLikes; i++ {
		readers = append(readers, fmt.Sprintf("reader-%d", i+1))
	}

	for i := 0; i < s.opts.Posts; i++ {
		post, err := s.seedPost(ctx, i, authors[i%len(authors)])
		if err != nil {
			return res, err
		}
		res.Posts++

		likes, err := s.seedLikes(ctx, post.ID, readers)
		if err != nil {
			return res, err
		}
		res.Reactions += likes

		comments, err := s.seedComments(ctx, post, readers)
		if err != nil {
			return res, err
		}
		res.Comments += comments
	}

	s.log.Info().Int("profiles", res.Profiles).Int("posts", res.Posts).
		Int("reactions", res.Reactions).Int("comments", res.Comments).Msg("blog seeded")
	return res, nil
}

// WithProfileWriter направляет запись профилей через w вместо хранилища.
func (s *Seeder) WithProfileWriter(w ProfileWriter) *Seeder {
	if w != nil {
		s.profiles = w
	}
	return s
}

func (s *Seeder) seedProfiles(ctx context.Context) ([]string, error) {
	ids := make([]string, len(authorNames))
	for i, name := range authorNames {
		id := fmt.Sprintf("seed-author-%d", i+1)
		if err := s.profiles.UpsertProfile(ctx, &domain.Profile{
			ID:          id,
			DisplayName: name,
			AvatarURL:   domain.PlaceholderAvatar(name),
		}); err != nil {
			return nil, fmt.Errorf("failed to create profile %s: %w", id, err)
		}
		ids[i] = id
	}
	return ids, nil
}

func (s *Seeder) seedPost(ctx context.Context, i int, authorID string) (*domain.Post, error) {
	title := titles[i%len(titles)]
	if i >= len(titles) {
		title = fmt.Sprintf("%s (%d)", title, i/len(titles)+1)
	}

	paragraphs := make([]string, 3)
	for p := range paragraphs {
		paragraphs[p] = strings.Join([]string{
			s.faker.HipsterSentence(), s.faker.HipsterSentence(), s.faker.HipsterSentence(),
		}, " ")
	}
	content := strings.Join(paragraphs, "\n\n")
	createdAt := s.faker.DateRange(s.now.AddDate(0, 0, -30), s.now).UTC()

	post, err := s.store.CreatePost(ctx, &domain.Post{
		Title:     title,
		Content:   content,
		Excerpt:   domain.DeriveExcerpt(content),
		Tags:      s.pickTags(),
		AuthorID:  authorID,
		Status:    domain.StatusApproved,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create post %q: %w", title, err)
	}
	return post, nil
}

func (s *Seeder) pickTags() []string {
	n := s.faker.IntRange(2, 4)
	picked := make([]string, 0, n)
	for len(picked) < n {
		picked = append(picked, s.faker.RandomString(Tags))
		picked = domain.NormalizeTags(picked)
	}
	return picked
}

func (s *Seeder) seedLikes(ctx context.Context, postID string, readers []string) (int, error) {
	n := s.faker.IntRange(0, s.opts.MaxLikes)
	if n > len(readers) {
		n = len(readers)
	}
	order := append([]string(nil), readers...)
	for i := len(order) - 1; i > 0; i-- {
		j := s.faker.IntRange(0, i)
		order[i], order[j] = order[j], order[i]
	}
	for _, userID := range order[:n] {
		err := s.store.AddReaction(ctx, postID, userID)
		if err != nil && !errors.Is(err, storage.ErrDuplicate) {
			return 0, fmt.Errorf("failed to add like to %s: %w", postID, err)
		}
	}
	return n, nil
}

func (s *Seeder) seedComments(ctx context.Context, post *domain.Post, readers []string) (int, error) {
	n := s.faker.IntRange(0, s.opts.MaxComments)
	for i := 0; i < n; i++ {
		createdAt := s.faker.DateRange(post.CreatedAt, s.now).UTC()
		if _, err := s.store.CreateComment(ctx, &domain.Comment{
			PostID:    post.ID,
			AuthorID:  readers[s.faker.IntRange(0, len(readers)-1)],
			Content:   s.faker.HipsterSentence(),
			CreatedAt: createdAt,
		}); err != nil {
			return i, fmt.Errorf("failed to add comment to %s: %w", post.ID, err)
		}
	}
	return n, nil
}
