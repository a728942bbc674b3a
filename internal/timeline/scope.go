// Package timeline keeps per-scope, score-ordered, capped sets of content
// ids. A scope is addressed by a string such as "home:42", "public:local"
// or "hashtag:go:media"; the same string names both the storage key and the
// realtime channel so live pushes and cached entries stay in step.
package timeline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidScope = errors.New("invalid scope")

type Scope string

const mediaSuffix = ":media"

func Home(accountID int64) Scope  { return Scope("home:" + strconv.FormatInt(accountID, 10)) }
func List(listID int64) Scope     { return Scope("list:" + strconv.FormatInt(listID, 10)) }
func Public() Scope               { return "public" }
func PublicLocal() Scope          { return "public:local" }
func PublicRemote() Scope         { return "public:remote" }
func PublicDomain(d string) Scope { return Scope("public:domain:" + strings.ToLower(d)) }
func Hashtag(tag string) Scope    { return Scope("hashtag:" + strings.ToLower(tag)) }
func HashtagLocal(tag string) Scope {
	return Scope("hashtag:" + strings.ToLower(tag) + ":local")
}
func Group(accountID int64) Scope { return Scope("group:" + strconv.FormatInt(accountID, 10)) }

// Media returns the media-only variant of s.
func (s Scope) Media() Scope {
	if s.IsMedia() {
		return s
	}
	return s + mediaSuffix
}

func (s Scope) IsMedia() bool { return strings.HasSuffix(string(s), mediaSuffix) }

// Personal reports whether the scope belongs to a single recipient.
func (s Scope) Personal() bool {
	return strings.HasPrefix(string(s), "home:") || strings.HasPrefix(string(s), "list:")
}

// Kind is the leading segment ("home", "list", "public", ...), used as a
// low-cardinality metrics label.
func (s Scope) Kind() string {
	k, _, _ := strings.Cut(string(s), ":")
	return k
}

// Owner returns the numeric id of a home, list or group scope.
func (s Scope) Owner() (int64, bool) {
	k, rest, ok := strings.Cut(strings.TrimSuffix(string(s), mediaSuffix), ":")
	if !ok || (k != "home" && k != "list" && k != "group") {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	return id, err == nil
}

// Key is the sorted-set key holding the scope's entries.
func (s Scope) Key() string { return "feed:" + string(s) }

// Channel is the pub/sub channel for live updates of the scope.
func (s Scope) Channel() string { return "timeline:" + string(s) }

func (s Scope) String() string { return string(s) }

// ParseScope validates a scope string received from a client.
func ParseScope(raw string) (Scope, error) {
	s := Scope(strings.ToLower(strings.TrimSpace(raw)))
	base := strings.TrimSuffix(string(s), mediaSuffix)
	parts := strings.Split(base, ":")
	switch parts[0] {
	case "home", "list", "group":
		if len(parts) != 2 {
			break
		}
		if _, err := strconv.ParseInt(parts[1], 10, 64); err != nil {
			break
		}
		return s, nil
	case "public":
		switch {
		case len(parts) == 1:
			return s, nil
		case len(parts) == 2 && (parts[1] == "local" || parts[1] == "remote"):
			return s, nil
		case len(parts) == 3 && parts[1] == "domain" && parts[2] != "":
			return s, nil
		}
	case "hashtag":
		if len(parts) == 2 && parts[1] != "" {
			return s, nil
		}
		if len(parts) == 3 && parts[1] != "" && parts[2] == "local" {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrInvalidScope, raw)
}
