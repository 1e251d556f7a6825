package classifier

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/codebase"
)

// spread builds n files whose changes sum to lines.
func spread(n, lines int, name func(i int) string) []codebase.FileChange {
	out := make([]codebase.FileChange, n)
	for i := range out {
		out[i] = codebase.FileChange{Filename: name(i), Status: codebase.FileModified}
	}
	for i := 0; i < lines; i++ {
		out[i%n].Additions++
	}
	return out
}

func goFiles(i int) string { return fmt.Sprintf("pkg/f%d.go", i) }

func TestClassifyConcreteCases(t *testing.T) {
	cases := []struct {
		name     string
		msg      string
		files    []codebase.FileChange
		worthy   bool
		category codebase.Category
		reason   string
	}{
		{"feature", "Add dark mode toggle", spread(3, 40, goFiles), true, codebase.CategoryFeature, ReasonFeature},
		{"fix", "Fix off-by-one in pagination", spread(2, 12, goFiles), true, codebase.CategoryFix, ReasonFocusedFix},
		{"tiny fix", "Fix typo", spread(1, 2, goFiles), false, codebase.CategoryFix, ReasonTooSmall},
		{"version bump", "chore: bump version to 2.3.1", spread(3, 40, goFiles), false, codebase.CategoryOther, ReasonVersionBump},
		{"config only", "Update package.json dependencies", spread(1, 20, func(int) string { return "package.json" }), false, codebase.CategoryOther, ReasonConfigOnly},
	}
	for _, tc := range cases {
		got := Classify(tc.msg, tc.files)
		if got.IsLearningWorthy != tc.worthy {
			t.Fatalf("%s: worthy want=%v got=%v (%s)", tc.name, tc.worthy, got.IsLearningWorthy, got.Reason)
		}
		if got.Category != tc.category {
			t.Fatalf("%s: category want=%s got=%s", tc.name, tc.category, got.Category)
		}
		if got.Reason != tc.reason {
			t.Fatalf("%s: reason want=%q got=%q", tc.name, tc.reason, got.Reason)
		}
	}
}

func TestClassifyRulePrecedence(t *testing.T) {
	bulk := Classify("Add huge feature", spread(16, 100, goFiles))
	if bulk.IsLearningWorthy || bulk.Reason != ReasonBulk {
		t.Fatalf("bulk: got=%+v", bulk)
	}
	// Bulk wins over the size rule.
	bulkTiny := Classify("Add", spread(20, 1, goFiles))
	if bulkTiny.Reason != ReasonBulk {
		t.Fatalf("bulk before size: got=%q", bulkTiny.Reason)
	}
	generated := Classify("Add generated client", spread(4, 501, goFiles))
	if generated.IsLearningWorthy || generated.Reason != ReasonGenerated {
		t.Fatalf("generated: got=%+v", generated)
	}
	edge := Classify("Add handler", spread(2, 500, goFiles))
	if !edge.IsLearningWorthy {
		t.Fatalf("500 lines is still in range: got=%+v", edge)
	}
	five := Classify("Add handler", spread(1, 5, goFiles))
	if !five.IsLearningWorthy {
		t.Fatalf("5 lines is in range: got=%+v", five)
	}
}

func TestClassifyCategoryThresholds(t *testing.T) {
	if a := Classify("Fix crash", spread(6, 40, goFiles)); a.IsLearningWorthy || a.Reason != ReasonBroadFix {
		t.Fatalf("fix with 6 files: got=%+v", a)
	}
	if a := Classify("Fix crash", spread(2, 9, goFiles)); a.IsLearningWorthy {
		t.Fatalf("fix with 9 lines: got=%+v", a)
	}
	if a := Classify("Refactor storage layer", spread(8, 200, goFiles)); !a.IsLearningWorthy || a.Category != codebase.CategoryRefactor {
		t.Fatalf("refactor at limits: got=%+v", a)
	}
	if a := Classify("Refactor storage layer", spread(9, 50, goFiles)); a.IsLearningWorthy || a.Reason != ReasonBroadRefactor {
		t.Fatalf("refactor 9 files: got=%+v", a)
	}
	if a := Classify("Refactor storage layer", spread(3, 201, goFiles)); a.IsLearningWorthy {
		t.Fatalf("refactor 201 lines: got=%+v", a)
	}
}

func TestClassifyTestAndDocsByPath(t *testing.T) {
	testFiles := spread(4, 40, func(i int) string { return fmt.Sprintf("pkg/x%d_test.go", i) })
	if a := Classify("Cover the parser edge cases", testFiles); a.Category != codebase.CategoryTest || !a.IsLearningWorthy {
		t.Fatalf("test by path: got=%+v", a)
	}
	docFiles := spread(3, 30, func(i int) string { return fmt.Sprintf("guide/page%d.md", i) })
	if a := Classify("Explain the deploy flow", docFiles); a.Category != codebase.CategoryDocs || a.IsLearningWorthy {
		t.Fatalf("docs by path: got=%+v", a)
	}
	if a := Classify("Update README", spread(1, 10, goFiles)); a.Category != codebase.CategoryDocs {
		t.Fatalf("docs by message: got=%+v", a)
	}
	if a := Classify("Tweak something", spread(2, 20, goFiles)); a.Category != codebase.CategoryOther || a.IsLearningWorthy {
		t.Fatalf("other: got=%+v", a)
	}
}

func TestClassifyConfigOnlyOverride(t *testing.T) {
	files := []codebase.FileChange{
		{Filename: ".github/workflows/ci.yml", Additions: 20},
		{Filename: "web/package-lock.json", Additions: 30},
	}
	a := Classify("Add feature", files)
	if a.IsLearningWorthy || a.Reason != ReasonConfigOnly {
		t.Fatalf("config only: got=%+v", a)
	}
	files = append(files, codebase.FileChange{Filename: "main.go", Additions: 5})
	if a := Classify("Add feature", files); !a.IsLearningWorthy {
		t.Fatalf("mixed config and code: got=%+v", a)
	}
}

func TestClassifyVersionBumpOverridesFeature(t *testing.T) {
	a := Classify("Add release notes for 1.4.0 release", spread(2, 30, goFiles))
	if a.Category != codebase.CategoryFeature || a.IsLearningWorthy || a.Reason != ReasonVersionBump {
		t.Fatalf("version bump: got=%+v", a)
	}
	if a := Classify("Add support for 1.2.3 style ids", spread(2, 30, goFiles)); !a.IsLearningWorthy {
		t.Fatalf("semver without bump keyword: got=%+v", a)
	}
}

func TestClassifyFileTypesAndDeterminism(t *testing.T) {
	files := []codebase.FileChange{
		{Filename: "b/Main.GO", Additions: 3},
		{Filename: "a/x.ts", Additions: 3},
		{Filename: "Makefile", Additions: 1},
		{Filename: "c/y.go", Deletions: 2},
	}
	first := Classify("Implement widget", files)
	if !reflect.DeepEqual(first.FileTypes, []string{"go", "ts"}) {
		t.Fatalf("file types: got=%v", first.FileTypes)
	}
	if first.LinesChanged != 9 {
		t.Fatalf("lines: want=9 got=%d", first.LinesChanged)
	}
	for i := 0; i < 5; i++ {
		if again := Classify("Implement widget", files); !reflect.DeepEqual(first, again) {
			t.Fatalf("not deterministic: %+v vs %+v", first, again)
		}
	}
}
