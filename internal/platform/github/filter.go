package github

import (
	"regexp"
	"strings"
)

var (
	formattingRE = regexp.MustCompile(`^(style|format|lint)(\([^)]*\))?!?:`)
	depBumpRE    = regexp.MustCompile(`^(chore|build|fix)\(deps(-dev)?\)`)
)

// FilterLearningCommits is the cheap pre-filter applied before fetching commit
// detail. It preserves input order.
func FilterLearningCommits(commits []CommitRecord) []CommitRecord {
	out := make([]CommitRecord, 0, len(commits))
	for _, c := range commits {
		if skipCommit(c.Message) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func skipCommit(message string) bool {
	msg := strings.ToLower(strings.TrimSpace(message))
	if len(msg) < 10 {
		return true
	}
	subject, _, _ := strings.Cut(msg, "\n")
	subject = strings.TrimSpace(subject)

	if strings.HasPrefix(subject, "merge") &&
		(strings.Contains(msg, "pull request") || strings.Contains(msg, "branch")) {
		return true
	}
	if isDependencyBump(subject, msg) {
		return true
	}
	return isFormattingOnly(subject)
}

func isDependencyBump(subject, msg string) bool {
	if depBumpRE.MatchString(subject) {
		return true
	}
	if strings.Contains(msg, "dependabot") || strings.Contains(msg, "renovate[bot]") {
		return true
	}
	if strings.HasPrefix(subject, "bump ") && strings.Contains(subject, " from ") {
		return true
	}
	for _, p := range []string{"update dependencies", "update dependency", "upgrade dependencies", "upgrade dependency"} {
		if strings.HasPrefix(subject, p) {
			return true
		}
	}
	return false
}

func isFormattingOnly(subject string) bool {
	if formattingRE.MatchString(subject) {
		return true
	}
	for _, p := range []string{"run prettier", "prettier", "gofmt", "go fmt", "fix lint", "lint fix", "fix linting", "format code", "reformat", "fix formatting", "fix whitespace", "whitespace"} {
		if strings.HasPrefix(subject, p) {
			return true
		}
	}
	return false
}
