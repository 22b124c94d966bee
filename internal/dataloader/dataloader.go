package dataloader

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/UkralStul/peacesync-blog/internal/domain"
	"github.com/graph-gophers/dataloader"
)

type contextKey string

const key = contextKey("dataloaders")

// Source - источник счётчиков по постам и лайков зрителя.
type Source interface {
	CountReactionsByPostIDs(ctx context.Context, postIDs []string) (map[string]int, error)
	CountCommentsByPostIDs(ctx context.Context, postIDs []string) (map[string]int, error)
	ListViewerReactions(ctx context.Context, userID string) (map[string]struct{}, error)
}

// ProfileSource - источник профилей авторов.
type ProfileSource interface {
	GetProfilesByIDs(ctx context.Context, ids []string) (map[string]*domain.Profile, error)
}

// Loaders содержит все дата-лоадеры приложения.
type Loaders struct {
	LikeCounts    *dataloader.Loader
	CommentCounts *dataloader.Loader
	Profiles      *dataloader.Loader
	// Reactions - по ключу userID множество постов, которые он лайкнул.
	// Кэш лоадера даёт один запрос на весь запрос клиента.
	Reactions *dataloader.Loader
}

// NewLoaders создает набор лоадеров. Кэш лоадера живёт, пока жив набор,
// поэтому набор создаётся на один запрос.
func NewLoaders(src Source, profiles ProfileSource) *Loaders {
	wait := dataloader.WithWait(time.Millisecond * 1)
	return &Loaders{
		LikeCounts:    dataloader.NewBatchedLoader(countBatch(src.CountReactionsByPostIDs), wait),
		CommentCounts: dataloader.NewBatchedLoader(countBatch(src.CountCommentsByPostIDs), wait),
		Profiles:      dataloader.NewBatchedLoader(profileBatch(profiles), wait),
		Reactions:     dataloader.NewBatchedLoader(reactionBatch(src), wait),
	}
}

// Middleware для внедрения лоадеров в контекст запроса.
func Middleware(src Source, profiles ProfileSource, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), key, NewLoaders(src, profiles))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// For извлекает лоадеры из контекста. Возвращает nil, если их там нет.
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(key).(*Loaders)
	return l
}

func countBatch(fetch func(context.Context, []string) (map[string]int, error)) dataloader.BatchFunc {
	return func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids := keys.Keys()
		// Вызываем метод хранилища, который делает ОДИН запрос к БД
		counts, err := fetch(ctx, ids)
		results := make([]*dataloader.Result, len(keys))
		for i, id := range ids {
			if err != nil {
				results[i] = &dataloader.Result{Error: err}
				continue
			}
			results[i] = &dataloader.Result{Data: counts[id]}
		}
		return results
	}
}

func profileBatch(src ProfileSource) dataloader.BatchFunc {
	return func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids := keys.Keys()
		profiles, err := src.GetProfilesByIDs(ctx, ids)
		results := make([]*dataloader.Result, len(keys))
		for i, id := range ids {
			if err != nil {
				results[i] = &dataloader.Result{Error: err}
				continue
			}
			// отсутствующий профиль - не ошибка, а nil
			results[i] = &dataloader.Result{Data: profiles[id]}
		}
		return results
	}
}

func reactionBatch(src Source) dataloader.BatchFunc {
	return func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		results := make([]*dataloader.Result, len(keys))
		for i, userID := range keys.Keys() {
			reacted, err := src.ListViewerReactions(ctx, userID)
			results[i] = &dataloader.Result{Data: reacted, Error: err}
		}
		return results
	}
}

// LoadCounts ставит в очередь все ключи сразу, чтобы они ушли одним батчем,
// и возвращает счётчики и ошибки по каждому посту.
func LoadCounts(ctx context.Context, l *dataloader.Loader, postIDs []string) (map[string]int, map[string]error) {
	thunks := make([]dataloader.Thunk, len(postIDs))
	for i, id := range postIDs {
		thunks[i] = l.Load(ctx, dataloader.StringKey(id))
	}
	counts := make(map[string]int, len(postIDs))
	errs := make(map[string]error)
	for i, thunk := range thunks {
		v, err := thunk()
		if err != nil {
			errs[postIDs[i]] = err
			continue
		}
		n, ok := v.(int)
		if !ok {
			errs[postIDs[i]] = fmt.Errorf("unexpected count type %T", v)
			continue
		}
		counts[postIDs[i]] = n
	}
	return counts, errs
}

// LoadProfiles - то же для профилей. Отсутствующие профили в результат не попадают.
func LoadProfiles(ctx context.Context, l *dataloader.Loader, ids []string) (map[string]*domain.Profile, error) {
	thunks := make([]dataloader.Thunk, len(ids))
	for i, id := range ids {
		thunks[i] = l.Load(ctx, dataloader.StringKey(id))
	}
	result := make(map[string]*domain.Profile, len(ids))
	var firstErr error
	for i, thunk := range thunks {
		v, err := thunk()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if p, ok := v.(*domain.Profile); ok && p != nil {
			result[ids[i]] = p
		}
	}
	return result, firstErr
}

// LoadReactions возвращает посты, которые лайкнул пользователь.
func LoadReactions(ctx context.Context, l *dataloader.Loader, userID string) (map[string]struct{}, error) {
	v, err := l.Load(ctx, dataloader.StringKey(userID))()
	if err != nil {
		return nil, err
	}
	reacted, _ := v.(map[string]struct{})
	return reacted, nil
}
