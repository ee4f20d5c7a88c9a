package util

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	// ErrInvalidUUID is returned when a value is not a UUID.
	ErrInvalidUUID = errors.New("invalid uuid")
	// ErrInvalidURL indicates that a URL failed validation.
	ErrInvalidURL = errors.New("invalid url")
	// ErrInvalidHashtag is returned for hashtags that are not '#' followed by
	// word characters.
	ErrInvalidHashtag = errors.New("invalid hashtag")
	// ErrInvalidColor is returned for colors not in #RRGGBB or #AARRGGBB form.
	ErrInvalidColor = errors.New("invalid color")
)

var (
	hashtagPattern = regexp.MustCompile(`^#\w+$`)
	colorPattern   = regexp.MustCompile(`^#([0-9A-Fa-f]{6}|[0-9A-Fa-f]{8})$`)
)

// ParseUUID parses a UUID of any version.
func ParseUUID(value string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return uuid.Nil, fmt.Errorf("%w: value is empty", ErrInvalidUUID)
	}
	u, err := uuid.Parse(trimmed)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidUUID, err)
	}
	if u == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: nil uuid", ErrInvalidUUID)
	}
	return u, nil
}

// ParseUUIDv4 parses and validates a UUID string, ensuring it is version 4.
func ParseUUIDv4(value string) (uuid.UUID, error) {
	u, err := ParseUUID(value)
	if err != nil {
		return uuid.Nil, err
	}
	if u.Version() != 4 {
		return uuid.Nil, fmt.Errorf("%w: expected version 4", ErrInvalidUUID)
	}
	return u, nil
}

// ValidateMetadata enforces constraints on metadata maps and returns a copy
// containing trimmed keys and values.
func ValidateMetadata(meta map[string]string, maxEntries, maxKeyLen, maxValueLen int) (map[string]string, error) {
	if len(meta) == 0 {
		return nil, nil
	}
	if maxEntries > 0 && len(meta) > maxEntries {
		return nil, fmt.Errorf("metadata entries exceeded: got %d, max %d", len(meta), maxEntries)
	}

	out := make(map[string]string, len(meta))
	for rawKey, rawValue := range meta {
		key := strings.TrimSpace(rawKey)
		value := strings.TrimSpace(rawValue)
		if key == "" {
			return nil, errors.New("metadata key cannot be empty")
		}
		if err := EnsureMaxRunes("metadata key "+key, key, maxKeyLen); err != nil {
			return nil, err
		}
		if err := EnsureMaxRunes("metadata value for "+key, value, maxValueLen); err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, nil
}

// EnsureMaxRunes ensures a string is not longer than the provided rune count.
func EnsureMaxRunes(field, value string, max int) error {
	if max <= 0 {
		return nil
	}
	if utf8.RuneCountInString(value) > max {
		return fmt.Errorf("%s exceeds maximum length of %d characters", field, max)
	}
	return nil
}

// EnsureMaxItems ensures a list field holds at most max entries.
func EnsureMaxItems(field string, count, max int) error {
	if max > 0 && count > max {
		return fmt.Errorf("%s: expected at most %d item(s); got %d", field, max, count)
	}
	return nil
}

// ValidateHTTPURL ensures the provided string is a valid HTTP or HTTPS URL.
func ValidateHTTPURL(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%w: value is empty", ErrInvalidURL)
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: host is required", ErrInvalidURL)
	}
	return trimmed, nil
}

// ValidateOptionalHTTPURL is ValidateHTTPURL for fields that may be empty.
func ValidateOptionalHTTPURL(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	return ValidateHTTPURL(value)
}

// ValidateURI ensures value parses as an absolute URI of any scheme, as used
// by deep links.
func ValidateURI(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", nil
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme == "" {
		return "", fmt.Errorf("%w: scheme is required", ErrInvalidURL)
	}
	return trimmed, nil
}

// ValidateHashtag checks an optional hashtag.
func ValidateHashtag(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", nil
	}
	if !hashtagPattern.MatchString(trimmed) {
		return "", fmt.Errorf("%w: %q", ErrInvalidHashtag, trimmed)
	}
	return trimmed, nil
}

// ValidateColors checks a list of story background colors and returns them
// upper-cased.
func ValidateColors(values []string, max int) ([]string, error) {
	if err := EnsureMaxItems("colors", len(values), max); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(values))
	for idx, value := range values {
		trimmed := strings.TrimSpace(value)
		if !colorPattern.MatchString(trimmed) {
			return nil, fmt.Errorf("color[%d]: %w: %q", idx, ErrInvalidColor, trimmed)
		}
		out = append(out, strings.ToUpper(trimmed))
	}
	return out, nil
}
