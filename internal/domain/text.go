package domain

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

var (
	hashtagPattern    = regexp.MustCompile(`#(\w+)`)
	mentionPattern    = regexp.MustCompile(`@(\w+)`)
	urlPattern        = regexp.MustCompile(`https?://\S+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// ExtractHashtags devuelve los tokens #hashtag del texto, deduplicados.
// La extracción distingue mayúsculas: #World y #world son tokens distintos.
func ExtractHashtags(text string) []string {
	return extractTokens(hashtagPattern, text)
}

// ExtractMentions devuelve los tokens @mention del texto, deduplicados.
func ExtractMentions(text string) []string {
	return extractTokens(mentionPattern, text)
}

func extractTokens(pattern *regexp.Regexp, text string) []string {
	if text == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var tokens []string
	for _, match := range pattern.FindAllStringSubmatch(text, -1) {
		if _, ok := seen[match[1]]; ok {
			continue
		}
		seen[match[1]] = struct{}{}
		tokens = append(tokens, match[1])
	}
	sort.Strings(tokens)
	return tokens
}

// CleanText quita URLs, menciones y hashtags, y colapsa espacios.
// Solo lo usan los scorers; el caption crudo se conserva en el PostRecord.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = urlPattern.ReplaceAllString(text, "")
	text = mentionPattern.ReplaceAllString(text, "")
	text = hashtagPattern.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// FormatDate devuelve la fecha en formato legible, o vacío si es cero.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("January 2, 2006")
}

// EngagementRate calcula likes más comentarios (dobles) sobre followers, con tope 1.0.
func EngagementRate(likes, comments int, followers int64) float64 {
	if followers <= 0 {
		return 0.0
	}
	rate := float64(likes+comments*2) / float64(followers)
	if rate > 1.0 {
		return 1.0
	}
	return rate
}
