package utils

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

var ErrInvalidID = errors.New("invalid id")

// ParseID accepts positive integers only.
func ParseID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrInvalidID
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// URLParamID parses the chi path parameter name.
func URLParamID(r *http.Request, name string) (int64, error) {
	return ParseID(chi.URLParam(r, name))
}

// QueryID parses ?name=.
func QueryID(r *http.Request, name string) (int64, error) {
	return ParseID(r.URL.Query().Get(name))
}

// QueryInt returns def when the parameter is absent and an error when it is not an integer.
func QueryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// ContainsPattern wraps s for a LIKE ... ESCAPE '!' match with its wildcards taken literally.
func ContainsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
