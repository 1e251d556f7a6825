package github

import (
	"errors"
	"testing"
)

func TestParseRepositoryURL(t *testing.T) {
	cases := []struct {
		in    string
		owner string
		name  string
	}{
		{"https://github.com/octocat/Hello-World", "octocat", "hello-world"},
		{"https://github.com/octocat/Hello-World.git", "octocat", "hello-world"},
		{"http://github.com/octocat/hello/", "octocat", "hello"},
		{"https://github.com/octocat/hello/tree/main/src", "octocat", "hello"},
		{"github.com/octocat/hello.git", "octocat", "hello"},
		{"git@github.com:octocat/hello.git", "octocat", "hello"},
		{"  git@github.com:my_org/repo.name  ", "my_org", "repo.name"},
	}
	for _, tc := range cases {
		ref, err := ParseRepositoryURL(tc.in)
		if err != nil {
			t.Fatalf("ParseRepositoryURL(%q): %v", tc.in, err)
		}
		if ref.Owner != tc.owner || ref.Name != tc.name {
			t.Fatalf("ParseRepositoryURL(%q): want=%s/%s got=%s/%s", tc.in, tc.owner, tc.name, ref.Owner, ref.Name)
		}
		if ref.Host != "github.com" {
			t.Fatalf("host: want=github.com got=%s", ref.Host)
		}
	}
}

func TestParseRepositoryURLInvalid(t *testing.T) {
	cases := []string{
		"",
		"octocat/hello",
		"https://github.com/octocat",
		"ftp://github.com/octocat/hello",
		"git@github.com/octocat/hello",
		"https://github.com/octo cat/hello",
		"https://github.com/octocat/he:llo",
		"not a url",
	}
	for _, in := range cases {
		if _, err := ParseRepositoryURL(in); !errors.Is(err, ErrInvalidFormat) {
			t.Fatalf("ParseRepositoryURL(%q): want ErrInvalidFormat got=%v", in, err)
		}
	}
}

func TestRepoRefCanonicalURL(t *testing.T) {
	a, _ := ParseRepositoryURL("git@github.com:octocat/hello.git")
	b, _ := ParseRepositoryURL("https://github.com/octocat/hello/")
	if a.CanonicalURL() != b.CanonicalURL() {
		t.Fatalf("canonical: %q vs %q", a.CanonicalURL(), b.CanonicalURL())
	}
	if a.ID() != "octocat/hello" {
		t.Fatalf("id: got=%q", a.ID())
	}
	c, _ := ParseRepositoryURL("https://github.com/OctoCat/Hello")
	if c.CanonicalURL() != a.CanonicalURL() || c.ID() != a.ID() {
		t.Fatalf("mixed case: want=%s %s got=%s %s", a.CanonicalURL(), a.ID(), c.CanonicalURL(), c.ID())
	}
}
