package github

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/codebase"
)

// RepoRef is a parsed repository locator.
type RepoRef struct {
	Host  string
	Owner string
	Name  string
}

// ID is the "owner/name" repository identity.
func (r RepoRef) ID() string { return codebase.RepoID(r.Owner, r.Name) }

// CanonicalURL is the form stored on Repository rows, so equivalent inputs
// dedup to the same row.
func (r RepoRef) CanonicalURL() string {
	return "https://" + r.Host + "/" + r.Owner + "/" + r.Name
}

// ParseRepositoryURL accepts https://host/owner/name[.git], host/owner/name[.git]
// and git@host:owner/name[.git]. Extra path segments after the name are ignored.
// Owner and name are lowercased.
func ParseRepositoryURL(raw string) (RepoRef, error) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return RepoRef{}, invalid(raw)
	}

	var host, path string
	switch {
	case strings.HasPrefix(s, "git@"):
		rest := strings.TrimPrefix(s, "git@")
		h, p, ok := strings.Cut(rest, ":")
		if !ok {
			return RepoRef{}, invalid(raw)
		}
		host, path = h, p
	case strings.Contains(s, "://"):
		u, err := url.Parse(s)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.User != nil {
			return RepoRef{}, invalid(raw)
		}
		host, path = u.Host, u.Path
	default:
		h, p, ok := strings.Cut(s, "/")
		if !ok {
			return RepoRef{}, invalid(raw)
		}
		host, path = h, p
	}

	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" || !strings.Contains(host, ".") && !strings.HasPrefix(host, "localhost") {
		return RepoRef{}, invalid(raw)
	}

	path = strings.Trim(path, "/")
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	segs := strings.Split(path, "/")
	if len(segs) < 2 {
		return RepoRef{}, invalid(raw)
	}
	owner := segs[0]
	name := strings.TrimSuffix(segs[1], ".git")
	if !codebase.ValidRepoSegment(owner) || !codebase.ValidRepoSegment(name) {
		return RepoRef{}, invalid(raw)
	}
	return RepoRef{Host: host, Owner: strings.ToLower(owner), Name: strings.ToLower(name)}, nil
}

func invalid(raw string) error {
	return fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
}
