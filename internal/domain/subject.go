package domain

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidSubject indica que el username no cumple el patron permitido.
var ErrInvalidSubject = errors.New("invalid subject")

var subjectPattern = regexp.MustCompile(`^[A-Za-z0-9._]{1,30}$`)

// ValidateSubject verifica el patron de username de Instagram.
func ValidateSubject(subject string) bool {
	return subjectPattern.MatchString(subject)
}

// ExtractSubject obtiene el username desde una URL de perfil o lo
// devuelve verbatim si el input no es una URL.
func ExtractSubject(raw string) (string, error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return "", ErrInvalidSubject
	}

	subject := raw
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		parsed, err := url.Parse(raw)
		if err != nil {
			return "", ErrInvalidSubject
		}
		segments := strings.FieldsFunc(parsed.Path, func(r rune) bool { return r == '/' })
		if len(segments) == 0 {
			return "", ErrInvalidSubject
		}
		subject = segments[0]
	}

	if !ValidateSubject(subject) {
		return "", ErrInvalidSubject
	}
	return subject, nil
}

// ProfileURL arma la URL canonica de un perfil.
func ProfileURL(subject string) string {
	return "https://www.instagram.com/" + subject + "/"
}

// PostURL arma la URL canonica de un post a partir de su shortcode.
func PostURL(shortcode string) string {
	return "https://www.instagram.com/p/" + shortcode + "/"
}
