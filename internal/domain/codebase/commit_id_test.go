package codebase

import (
	"errors"
	"testing"
)

func TestParseCommitIDRoundTrip(t *testing.T) {
	const raw = "octocat/hello-world:7fd1a60b01f91b314f59955a4e4d4e80d8edf11d"
	id, err := ParseCommitID(raw)
	if err != nil {
		t.Fatalf("ParseCommitID: %v", err)
	}
	if id.RepoID != "octocat/hello-world" {
		t.Fatalf("repo: want=%q got=%q", "octocat/hello-world", id.RepoID)
	}
	if id.Owner() != "octocat" || id.Name() != "hello-world" {
		t.Fatalf("owner/name: got=%q/%q", id.Owner(), id.Name())
	}
	if id.String() != raw {
		t.Fatalf("String: want=%q got=%q", raw, id.String())
	}
}

func TestParseCommitIDRejects(t *testing.T) {
	cases := []string{
		"",
		"octocat/hello",
		"octocat:hello:abcdef1",
		"octocat/hello:xyz",
		"octocat/hello:abc",
		"octocat:abcdef1",
		"octo cat/hello:abcdef1",
		"octocat/hello :abcdef1",
	}
	for _, raw := range cases {
		if _, err := ParseCommitID(raw); !errors.Is(err, ErrInvalidCommitID) {
			t.Fatalf("ParseCommitID(%q): want ErrInvalidCommitID got=%v", raw, err)
		}
	}
}

func TestNewCommitIDLowercasesSHA(t *testing.T) {
	id, err := NewCommitID("a/b", "ABCDEF1")
	if err != nil {
		t.Fatalf("NewCommitID: %v", err)
	}
	if id.SHA != "abcdef1" {
		t.Fatalf("sha: want=abcdef1 got=%s", id.SHA)
	}
}

func TestRepoIdentityIgnoresCase(t *testing.T) {
	if got := RepoID("OctoCat", "Hello-World"); got != "octocat/hello-world" {
		t.Fatalf("RepoID: want=octocat/hello-world got=%s", got)
	}
	id, err := ParseCommitID("OctoCat/Hello-World:abcdef1")
	if err != nil {
		t.Fatalf("ParseCommitID: %v", err)
	}
	if id.RepoID != "octocat/hello-world" {
		t.Fatalf("repo: want=octocat/hello-world got=%s", id.RepoID)
	}
}

func TestLinesChanged(t *testing.T) {
	got := LinesChanged([]FileChange{{Additions: 3, Deletions: 1}, {Additions: 10}})
	if got != 14 {
		t.Fatalf("LinesChanged: want=14 got=%d", got)
	}
}
