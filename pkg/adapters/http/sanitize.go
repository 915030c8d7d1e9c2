package http

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxIDSize bounds train and station identifiers.
	DefaultMaxIDSize = 128
	// DefaultMaxBodySize is 4 MiB, enough for a few thousand trains.
	DefaultMaxBodySize int64 = 4 << 20
	// EnvMaxBodySize overrides DefaultMaxBodySize.
	EnvMaxBodySize = "RAILWAYS_MAX_BODY_SIZE"
)

var (
	ErrIDTooLarge  = errors.New("identifier exceeds maximum allowed size")
	ErrInvalidUTF8 = errors.New("identifier contains invalid UTF-8 sequences")
)

// SanitizeID enforces the size limit, validates UTF-8 and strips control
// characters from an identifier.
func SanitizeID(id string) (string, error) {
	if len(id) > DefaultMaxIDSize {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrIDTooLarge, len(id), DefaultMaxIDSize)
	}
	if !utf8.ValidString(id) {
		return "", ErrInvalidUTF8
	}
	if strings.IndexFunc(id, unicode.IsControl) < 0 {
		return strings.TrimSpace(id), nil
	}
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		if !unicode.IsControl(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String()), nil
}

func sanitizeAll(ids []string) ([]string, error) {
	out := make([]string, len(ids))
	for i, id := range ids {
		clean, err := SanitizeID(id)
		if err != nil {
			return nil, err
		}
		out[i] = clean
	}
	return out, nil
}

func maxBodySize() int64 {
	if val := os.Getenv(EnvMaxBodySize); val != "" {
		if size, err := strconv.ParseInt(val, 10, 64); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxBodySize
}
