package github

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/logger"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(logger.NewNop(), Config{BaseURL: srv.URL, Token: "ghp_testtoken", UserAgent: "onboarder-test"}, srv.Client())
}

func TestClientSendsHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "application/vnd.github+json" {
			t.Errorf("Accept: got=%q", got)
		}
		if got := r.Header.Get("X-GitHub-Api-Version"); got != "2022-11-28" {
			t.Errorf("api version: got=%q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer ghp_testtoken" {
			t.Errorf("Authorization: got=%q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "onboarder-test" {
			t.Errorf("User-Agent: got=%q", got)
		}
		_, _ = w.Write([]byte(`{"full_name":"octocat/hello","default_branch":"main","owner":{"login":"octocat"}}`))
	})
	info, err := c.GetRepository(context.Background(), "octocat", "hello")
	if err != nil {
		t.Fatalf("GetRepository: %v", err)
	}
	if info.DefaultBranch != "main" || info.Owner.Login != "octocat" {
		t.Fatalf("repo info: got=%+v", info)
	}
}

func TestGetRepositoryNotAccessible(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "42")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	})
	_, err := c.GetRepository(context.Background(), "octocat", "private")
	if !errors.Is(err, ErrNotAccessible) {
		t.Fatalf("want ErrNotAccessible got=%v", err)
	}
	var he *HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("want *HTTPError got=%T", err)
	}
	if he.StatusCode != 404 || !strings.Contains(he.Body, "Not Found") || he.RateLimitRemaining != 42 {
		t.Fatalf("http error: %+v", he)
	}
	if c.IsAccessible(context.Background(), "octocat", "private") {
		t.Fatalf("IsAccessible: want=false")
	}
}

func TestRateLimitedError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", "1700000000")
		w.WriteHeader(http.StatusForbidden)
	})
	_, err := c.ListCommits(context.Background(), "o", "n", ListCommitsOptions{})
	var he *HTTPError
	if !errors.As(err, &he) || !he.IsRateLimited() {
		t.Fatalf("want rate-limited HTTPError got=%v", err)
	}
	if he.RateLimitReset.Unix() != 1700000000 {
		t.Fatalf("reset: got=%v", he.RateLimitReset)
	}
}

func TestListCommitsQueryAndOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/octocat/hello/commits" {
			t.Errorf("path: got=%s", r.URL.Path)
		}
		if got := r.URL.Query().Get("per_page"); got != "100" {
			t.Errorf("per_page: want=100 got=%s", got)
		}
		if got := r.URL.Query().Get("sha"); got != "dev" {
			t.Errorf("sha: want=dev got=%s", got)
		}
		_, _ = w.Write([]byte(`[
			{"sha":"bbb","commit":{"message":"second","author":{"name":"Mona","date":"2024-01-02T00:00:00Z"}}},
			{"sha":"aaa","commit":{"message":"first","author":{"name":"","date":"2024-01-01T00:00:00Z"}},"author":{"login":"hubot"}}
		]`))
	})
	got, err := c.ListCommits(context.Background(), "octocat", "hello", ListCommitsOptions{Branch: "dev", PerPage: 500})
	if err != nil {
		t.Fatalf("ListCommits: %v", err)
	}
	if len(got) != 2 || got[0].SHA != "bbb" || got[1].SHA != "aaa" {
		t.Fatalf("order: got=%+v", got)
	}
	if got[1].Author != "hubot" {
		t.Fatalf("author fallback: want=hubot got=%q", got[1].Author)
	}
}

func TestClampPerPage(t *testing.T) {
	for in, want := range map[int]int{0: 30, -5: 1, 1: 1, 50: 50, 100: 100, 101: 100} {
		if got := ClampPerPage(in); got != want {
			t.Fatalf("ClampPerPage(%d): want=%d got=%d", in, want, got)
		}
	}
}

func TestGetCommitFilesAndParent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/o/n/commits/abc1234":
			_, _ = w.Write([]byte(`{"sha":"abc1234","commit":{"message":"Add x","author":{"name":"a","date":"2024-01-01T00:00:00Z"}},
				"parents":[{"sha":"parent1"}],"stats":{"additions":3,"deletions":1,"total":4},
				"files":[{"filename":"x.go","status":"added","additions":3,"deletions":1,"patch":"@@"},{"filename":"y.go","status":"copied"}]}`))
		case "/repos/o/n/commits/root000":
			_, _ = w.Write([]byte(`{"sha":"root000","commit":{"message":"init"},"parents":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	rec, err := c.GetCommit(context.Background(), "o", "n", "abc1234")
	if err != nil {
		t.Fatalf("GetCommit: %v", err)
	}
	parent, err := rec.FirstParent()
	if err != nil || parent != "parent1" {
		t.Fatalf("FirstParent: want=parent1 got=%q err=%v", parent, err)
	}
	if len(rec.Files) != 2 || rec.Files[0].Status != "added" || rec.Files[1].Status != "added" {
		t.Fatalf("files: %+v", rec.Files)
	}
	if rec.Stats == nil || rec.Stats.Total != 4 {
		t.Fatalf("stats: %+v", rec.Stats)
	}

	root, err := c.GetCommit(context.Background(), "o", "n", "root000")
	if err != nil {
		t.Fatalf("GetCommit root: %v", err)
	}
	if _, err := root.FirstParent(); !errors.Is(err, ErrNoParent) {
		t.Fatalf("root FirstParent: want ErrNoParent got=%v", err)
	}
}

func TestGetFileContentBase64RoundTrip(t *testing.T) {
	original := "package main\n\nfunc main() {\n\tprintln(\"héllo, 世界\")\n}\n" + strings.Repeat("x", 200)
	enc := base64.StdEncoding.EncodeToString([]byte(original))
	var wrapped strings.Builder
	for i := 0; i < len(enc); i += 60 {
		end := i + 60
		if end > len(enc) {
			end = len(enc)
		}
		wrapped.WriteString(enc[i:end])
		wrapped.WriteString("\n")
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/o/n/contents/cmd/main.go" {
			t.Errorf("path: got=%s", r.URL.Path)
		}
		if r.URL.Query().Get("ref") != "deadbeef" {
			t.Errorf("ref: got=%s", r.URL.Query().Get("ref"))
		}
		_, _ = w.Write([]byte(`{"type":"file","encoding":"base64","content":"` + strings.ReplaceAll(wrapped.String(), "\n", `\n`) + `"}`))
	})
	got, err := c.GetFileContent(context.Background(), "o", "n", "cmd/main.go", "deadbeef")
	if err != nil {
		t.Fatalf("GetFileContent: %v", err)
	}
	if got != original {
		t.Fatalf("round trip mismatch:\nwant=%q\ngot=%q", original, got)
	}
}

func TestGetFileContentNotAFile(t *testing.T) {
	if _, err := decodeContent("src", []byte(`[{"name":"a.go"}]`)); !errors.Is(err, ErrNotAFile) {
		t.Fatalf("array: want ErrNotAFile got=%v", err)
	}
	if _, err := decodeContent("src", []byte(`{"type":"dir"}`)); !errors.Is(err, ErrNotAFile) {
		t.Fatalf("dir: want ErrNotAFile got=%v", err)
	}
	got, err := decodeContent("README", []byte(`{"type":"file","content":"plain text"}`))
	if err != nil || got != "plain text" {
		t.Fatalf("plain: got=%q err=%v", got, err)
	}
}

func TestGetTreeRecursive(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("recursive") != "1" {
			t.Errorf("recursive flag missing")
		}
		_, _ = w.Write([]byte(`{"sha":"t","truncated":true,"tree":[{"path":"a","type":"tree"},{"path":"a/b.go","type":"blob","size":12}]}`))
	})
	entries, err := c.GetTree(context.Background(), "o", "n", "main")
	if err != nil {
		t.Fatalf("GetTree: %v", err)
	}
	if len(entries) != 2 || entries[1].Size != 12 {
		t.Fatalf("entries: %+v", entries)
	}
}
