package database

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNoDataSource is returned when a SQLite connection string names no file
var ErrNoDataSource = errors.New("connection string has no data source")

// ParseConnectionString converts an ADO.NET style SQLite connection string
// ("Data Source=products.db;Cache=Shared") into a DSN understood by the
// sqlite driver. A string without any '=' is treated as a plain file path.
func ParseConnectionString(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrNoDataSource
	}
	if !strings.Contains(s, "=") {
		return s, nil
	}

	var source, mode, cache string
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return "", fmt.Errorf("malformed connection string segment %q", part)
		}
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		switch normalizeKey(key) {
		case "datasource", "filename":
			source = value
		case "mode":
			mode = strings.ToLower(value)
		case "cache":
			cache = strings.ToLower(value)
		}
	}

	if source == "" {
		return "", ErrNoDataSource
	}

	params := url.Values{}
	switch mode {
	case "memory":
		params.Set("mode", "memory")
	case "readonly":
		params.Set("mode", "ro")
	case "readwritecreate", "":
	case "readwrite":
		params.Set("mode", "rw")
	default:
		return "", fmt.Errorf("unsupported connection string mode %q", mode)
	}
	if cache == "shared" || cache == "private" {
		params.Set("cache", cache)
	}

	if len(params) == 0 {
		return source, nil
	}
	return "file:" + source + "?" + params.Encode(), nil
}

func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	return strings.ReplaceAll(key, " ", "")
}
