package github

import (
	"time"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/codebase"
)

type RepoInfo struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
	Description     string    `json:"description"`
	HTMLURL         string    `json:"html_url"`
	DefaultBranch   string    `json:"default_branch"`
	Language        string    `json:"language"`
	StargazersCount int       `json:"stargazers_count"`
	Topics          []string  `json:"topics"`
	Private         bool      `json:"private"`
	CreatedAt       time.Time `json:"created_at"`
	Owner           struct {
		Login string `json:"login"`
	} `json:"owner"`
}

type ParentRef struct {
	SHA string `json:"sha"`
}

type CommitStats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
	Total     int `json:"total"`
}

// CommitRecord is a commit as listed or fetched from GitHub. Files, Stats
// and Parents are only complete on the detail endpoint.
type CommitRecord struct {
	SHA         string                `json:"sha"`
	Message     string                `json:"message"`
	Author      string                `json:"author"`
	AuthorLogin string                `json:"author_login,omitempty"`
	AuthoredAt  time.Time             `json:"authored_at"`
	HTMLURL     string                `json:"html_url,omitempty"`
	Parents     []ParentRef           `json:"parents"`
	Stats       *CommitStats          `json:"stats,omitempty"`
	Files       []codebase.FileChange `json:"files,omitempty"`
}

// FirstParent is the "before" state of the commit.
func (c *CommitRecord) FirstParent() (string, error) {
	if c == nil || len(c.Parents) == 0 || c.Parents[0].SHA == "" {
		return "", ErrNoParent
	}
	return c.Parents[0].SHA, nil
}

type TreeEntry struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
	Type string `json:"type"` // blob|tree|commit
	SHA  string `json:"sha"`
	Size int64  `json:"size"`
}

type ListCommitsOptions struct {
	Branch  string
	Since   time.Time
	Until   time.Time
	PerPage int
	Page    int
}

// wire shapes

type ghCommit struct {
	SHA     string `json:"sha"`
	HTMLURL string `json:"html_url"`
	Commit  struct {
		Message string `json:"message"`
		Author  struct {
			Name  string    `json:"name"`
			Email string    `json:"email"`
			Date  time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	Author *struct {
		Login string `json:"login"`
	} `json:"author"`
	Parents []ParentRef  `json:"parents"`
	Stats   *CommitStats `json:"stats"`
	Files   []ghFile     `json:"files"`
}

type ghFile struct {
	Filename         string `json:"filename"`
	Status           string `json:"status"`
	Additions        int    `json:"additions"`
	Deletions        int    `json:"deletions"`
	Patch            string `json:"patch"`
	PreviousFilename string `json:"previous_filename"`
}

type ghTree struct {
	SHA       string      `json:"sha"`
	Tree      []TreeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

type ghContent struct {
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
	Size     int64  `json:"size"`
	Path     string `json:"path"`
}

func (c ghCommit) record() CommitRecord {
	rec := CommitRecord{
		SHA:        c.SHA,
		Message:    c.Commit.Message,
		Author:     c.Commit.Author.Name,
		AuthoredAt: c.Commit.Author.Date,
		HTMLURL:    c.HTMLURL,
		Parents:    c.Parents,
		Stats:      c.Stats,
	}
	if c.Author != nil {
		rec.AuthorLogin = c.Author.Login
		if rec.Author == "" {
			rec.Author = c.Author.Login
		}
	}
	if len(c.Files) > 0 {
		rec.Files = make([]codebase.FileChange, 0, len(c.Files))
		for _, f := range c.Files {
			rec.Files = append(rec.Files, codebase.FileChange{
				Filename:         f.Filename,
				Status:           fileStatus(f.Status),
				Additions:        f.Additions,
				Deletions:        f.Deletions,
				Patch:            f.Patch,
				PreviousFilename: f.PreviousFilename,
			})
		}
	}
	return rec
}

// GitHub also reports copied/changed/unchanged; fold those into the four
// statuses diffs carry.
func fileStatus(s string) codebase.FileStatus {
	switch s {
	case "added", "copied":
		return codebase.FileAdded
	case "removed":
		return codebase.FileRemoved
	case "renamed":
		return codebase.FileRenamed
	default:
		return codebase.FileModified
	}
}
