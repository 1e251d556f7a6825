package github

import "testing"

func TestFilterLearningCommits(t *testing.T) {
	in := []CommitRecord{
		{SHA: "1", Message: "Add dark mode toggle"},
		{SHA: "2", Message: "Merge pull request #12 from octocat/feature"},
		{SHA: "3", Message: "wip"},
		{SHA: "4", Message: "Bump lodash from 4.17.20 to 4.17.21"},
		{SHA: "5", Message: "chore(deps): update module golang.org/x/net"},
		{SHA: "6", Message: "style: run gofmt on everything"},
		{SHA: "7", Message: "Fix off-by-one in pagination"},
		{SHA: "8", Message: "Merge branch 'main' into feature"},
		{SHA: "9", Message: "Run prettier over the web package"},
		{SHA: "10", Message: "Refactor config loader\n\nformatting only in tests"},
	}
	got := FilterLearningCommits(in)
	want := []string{"1", "7", "10"}
	if len(got) != len(want) {
		t.Fatalf("len: want=%d got=%d (%v)", len(want), len(got), got)
	}
	for i, sha := range want {
		if got[i].SHA != sha {
			t.Fatalf("order[%d]: want=%s got=%s", i, sha, got[i].SHA)
		}
	}
}
