package util

import (
	"errors"
	"strings"
	"unicode"
)

const maxFileNameLen = 200

var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName makes a backend-supplied file name safe to store and
// serve: separators become "_", control characters are dropped and the
// result is capped in length. Traversal patterns are rejected outright.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	if cleaned == "" {
		return "", ErrInvalidFileName
	}
	if len(cleaned) > maxFileNameLen {
		cleaned = truncateKeepExt(cleaned)
	}
	return cleaned, nil
}

func truncateKeepExt(name string) string {
	ext := ""
	if i := strings.LastIndexByte(name, '.'); i > 0 && len(name)-i <= 10 {
		ext = name[i:]
	}
	base := []rune(strings.TrimSuffix(name, ext))
	for len(string(base))+len(ext) > maxFileNameLen {
		base = base[:len(base)-1]
	}
	return string(base) + ext
}
