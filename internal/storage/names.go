package storage

import (
	"net/url"
	"path"
	"strings"
)

// CleanName validates an object name and returns it without surrounding
// slashes. Names may contain "/" for prefixes but never "." or ".." segments.
func CleanName(name string) (string, error) {
	trimmed := strings.Trim(strings.TrimSpace(name), "/")
	if trimmed == "" {
		return "", ErrInvalidName
	}
	for _, seg := range strings.Split(trimmed, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", ErrInvalidName
		}
	}
	return trimmed, nil
}

// JoinURL appends an escaped object name to a base URL.
func JoinURL(base, name string) string {
	segs := strings.Split(name, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	escaped := strings.Join(segs, "/")
	if base == "" {
		return escaped
	}
	return strings.TrimRight(base, "/") + "/" + escaped
}

// JoinKey joins a key prefix and a name.
func JoinKey(prefix, name string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}
