package domain

import (
	"net/url"
	"strings"
)

// ExcerptLength - длина автоматического анонса в рунах.
const ExcerptLength = 150

// MaxCommentLength - максимальная длина комментария в рунах.
const MaxCommentLength = 2000

// AnonymousName показывается, если профиль автора не найден.
const AnonymousName = "Anonymous"

// DeriveExcerpt строит анонс из текста поста: первые 150 рун и многоточие.
// Короткий текст возвращается как есть.
func DeriveExcerpt(content string) string {
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) <= ExcerptLength {
		return content
	}
	return strings.TrimSpace(string(runes[:ExcerptLength])) + "..."
}

// NormalizeTags обрезает пробелы, выбрасывает пустые и повторные теги,
// сохраняя порядок первого появления.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// PlaceholderAvatar генерирует аватар по имени.
func PlaceholderAvatar(name string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=random"
}
