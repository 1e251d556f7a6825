package codebase

import (
	"fmt"
	"regexp"
	"strings"

	perrors "github.com/riyuc/cf-ai-Codebase-Onboarder/internal/pkg/errors"
)

var ErrInvalidCommitID = fmt.Errorf("invalid commit id: %w", perrors.ErrInvalidArgument)

var (
	repoSegmentRE = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
	shaRE         = regexp.MustCompile(`^[0-9a-fA-F]{7,40}$`)
)

// CommitID identifies a commit within a repository. It renders as
// "owner/name:sha".
type CommitID struct {
	RepoID string
	SHA    string
}

func NewCommitID(repoID, sha string) (CommitID, error) {
	id := CommitID{RepoID: strings.ToLower(strings.TrimSpace(repoID)), SHA: strings.ToLower(strings.TrimSpace(sha))}
	if err := id.Validate(); err != nil {
		return CommitID{}, err
	}
	return id, nil
}

func ParseCommitID(s string) (CommitID, error) {
	s = strings.TrimSpace(s)
	if strings.Count(s, ":") != 1 {
		return CommitID{}, fmt.Errorf("%w: %q", ErrInvalidCommitID, s)
	}
	i := strings.IndexByte(s, ':')
	id, err := NewCommitID(s[:i], s[i+1:])
	if err != nil {
		return CommitID{}, err
	}
	if !strings.EqualFold(id.String(), s) {
		return CommitID{}, fmt.Errorf("%w: %q does not round-trip", ErrInvalidCommitID, s)
	}
	return id, nil
}

func (c CommitID) String() string {
	return c.RepoID + ":" + c.SHA
}

func (c CommitID) IsZero() bool { return c.RepoID == "" && c.SHA == "" }

func (c CommitID) Validate() error {
	if !ValidRepoID(c.RepoID) {
		return fmt.Errorf("%w: repo id %q", ErrInvalidCommitID, c.RepoID)
	}
	if !shaRE.MatchString(c.SHA) {
		return fmt.Errorf("%w: sha %q", ErrInvalidCommitID, c.SHA)
	}
	return nil
}

// Owner and Name split the repo id.
func (c CommitID) Owner() string {
	owner, _, _ := strings.Cut(c.RepoID, "/")
	return owner
}

func (c CommitID) Name() string {
	_, name, _ := strings.Cut(c.RepoID, "/")
	return name
}

// ValidRepoID reports whether s is "owner/name" using GitHub's charset.
func ValidRepoID(s string) bool {
	owner, name, ok := strings.Cut(s, "/")
	if !ok {
		return false
	}
	return ValidRepoSegment(owner) && ValidRepoSegment(name)
}

func ValidRepoSegment(s string) bool {
	return s != "" && s != "." && s != ".." && repoSegmentRE.MatchString(s)
}

// RepoID joins owner and name, lowercased.
func RepoID(owner, name string) string {
	return strings.ToLower(owner + "/" + name)
}
