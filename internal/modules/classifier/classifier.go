// Package classifier decides whether a commit is worth teaching from its
// message and per-file change stats. Everything here is pure.
package classifier

import (
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/codebase"
)

const (
	MaxFiles        = 15
	MinLines        = 5
	MaxLines        = 500
	fixMinLines     = 10
	fixMaxFiles     = 5
	refactorMaxFile = 8
	refactorMaxLine = 200
	majorityRatio   = 0.7
)

const (
	ReasonBulk          = "bulk operation"
	ReasonTooSmall      = "too small"
	ReasonGenerated     = "likely generated"
	ReasonFeature       = "new feature"
	ReasonFocusedFix    = "focused bug fix"
	ReasonBroadFix      = "fix too small or too spread out"
	ReasonRefactor      = "contained refactor"
	ReasonBroadRefactor = "refactor too broad"
	ReasonTests         = "test changes"
	ReasonDocs          = "documentation only"
	ReasonOther         = "no learning category"
	ReasonConfigOnly    = "configuration files only"
	ReasonVersionBump   = "version bump or release"
)

var semverRE = regexp.MustCompile(`\d+\.\d+\.\d+`)

var configExts = map[string]bool{
	"json": true, "yml": true, "yaml": true, "toml": true, "ini": true, "config": true,
}

var configNames = []string{
	"package.json", "package-lock.json", "yarn.lock", "pnpm-lock.yaml",
	".gitignore", ".gitattributes", ".dockerignore", "dockerfile", "docker-compose",
	".editorconfig", ".eslintrc", ".prettierrc", ".npmrc", ".nvmrc", "tsconfig",
}

var docExts = map[string]bool{"md": true, "mdx": true, "rst": true, "txt": true, "adoc": true}

// Classify applies the rules in fixed order; Reason names the rule that
// decided the verdict.
func Classify(message string, files []codebase.FileChange) codebase.CommitAnalysis {
	msg := strings.ToLower(message)
	lines := codebase.LinesChanged(files)
	a := codebase.CommitAnalysis{
		Category:     categorize(msg, files),
		FileTypes:    fileTypes(files),
		LinesChanged: lines,
	}

	if len(files) > MaxFiles {
		a.Reason = ReasonBulk
		return a
	}
	if lines < MinLines {
		a.Reason = ReasonTooSmall
		return a
	}
	if lines > MaxLines {
		a.Reason = ReasonGenerated
		return a
	}

	switch a.Category {
	case codebase.CategoryFeature:
		a.IsLearningWorthy, a.Reason = true, ReasonFeature
	case codebase.CategoryFix:
		if lines >= fixMinLines && len(files) <= fixMaxFiles {
			a.IsLearningWorthy, a.Reason = true, ReasonFocusedFix
		} else {
			a.Reason = ReasonBroadFix
		}
	case codebase.CategoryRefactor:
		if len(files) <= refactorMaxFile && lines <= refactorMaxLine {
			a.IsLearningWorthy, a.Reason = true, ReasonRefactor
		} else {
			a.Reason = ReasonBroadRefactor
		}
	case codebase.CategoryTest:
		a.IsLearningWorthy, a.Reason = true, ReasonTests
	case codebase.CategoryDocs:
		a.Reason = ReasonDocs
	default:
		a.Reason = ReasonOther
	}

	if allConfig(files) {
		a.IsLearningWorthy, a.Reason = false, ReasonConfigOnly
	}
	if isVersionBump(msg) {
		a.IsLearningWorthy, a.Reason = false, ReasonVersionBump
	}
	return a
}

func categorize(msg string, files []codebase.FileChange) codebase.Category {
	switch {
	case containsAny(msg, "add", "feat", "implement"):
		return codebase.CategoryFeature
	case containsAny(msg, "fix", "bug", "resolve"):
		return codebase.CategoryFix
	case containsAny(msg, "refactor", "improve", "clean"):
		return codebase.CategoryRefactor
	case strings.Contains(msg, "test") || share(files, isTestPath) > majorityRatio:
		return codebase.CategoryTest
	case containsAny(msg, "doc", "readme") || share(files, isDocPath) > majorityRatio:
		return codebase.CategoryDocs
	default:
		return codebase.CategoryOther
	}
}

func isVersionBump(msg string) bool {
	return semverRE.MatchString(msg) && containsAny(msg, "bump", "release", "version")
}

func allConfig(files []codebase.FileChange) bool {
	if len(files) == 0 {
		return false
	}
	for _, f := range files {
		if !isConfigPath(f.Filename) {
			return false
		}
	}
	return true
}

func isConfigPath(p string) bool {
	base := strings.ToLower(path.Base(p))
	if configExts[ext(base)] {
		return true
	}
	for _, n := range configNames {
		if strings.Contains(base, n) {
			return true
		}
	}
	return false
}

func isTestPath(p string) bool {
	lp := strings.ToLower(p)
	base := path.Base(lp)
	switch {
	case strings.HasPrefix(lp, "test/"), strings.HasPrefix(lp, "tests/"), strings.HasPrefix(lp, "spec/"):
		return true
	case strings.Contains(lp, "/test/"), strings.Contains(lp, "/tests/"), strings.Contains(lp, "__tests__/"):
		return true
	case strings.Contains(base, "_test."), strings.Contains(base, ".test."), strings.Contains(base, ".spec."):
		return true
	case strings.HasPrefix(base, "test_"):
		return true
	}
	return false
}

func isDocPath(p string) bool {
	lp := strings.ToLower(p)
	base := path.Base(lp)
	if strings.HasPrefix(base, "readme") || docExts[ext(base)] {
		return true
	}
	return strings.HasPrefix(lp, "docs/") || strings.Contains(lp, "/docs/")
}

func share(files []codebase.FileChange, pred func(string) bool) float64 {
	if len(files) == 0 {
		return 0
	}
	n := 0
	for _, f := range files {
		if pred(f.Filename) {
			n++
		}
	}
	return float64(n) / float64(len(files))
}

func fileTypes(files []codebase.FileChange) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, f := range files {
		e := ext(strings.ToLower(path.Base(f.Filename)))
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

func ext(base string) string {
	return strings.TrimPrefix(path.Ext(base), ".")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
