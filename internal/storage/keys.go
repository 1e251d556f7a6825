package storage

import (
	"strings"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/codebase"
)

func AnalysisKey(repoID string) string     { return "analysis:" + repoID }
func SessionKey(sessionID string) string   { return "session:" + sessionID }
func TutorialKey(tutorialID string) string { return "tutorial:" + tutorialID }
func RepoMetaKey(repoID string) string     { return "repo:meta:" + repoID }
func RateKey(key string) string            { return "rate:" + key }
func MemoryKey(sessionID string) string    { return "memory:" + sessionID }

func RepoPrefix(repoID string) string { return "repos/" + repoID + "/" }

func DiffPath(repoID, sha string) string {
	return RepoPrefix(repoID) + "diffs/" + sha + ".json"
}

func RepoSnapshotPath(repoID, branch, sha string) string {
	return RepoPrefix(repoID) + "snapshots/" + safeSegment(branch) + "/" + sha + ".json"
}

func TutorialPrefix(tutorialID string) string { return "tutorials/" + tutorialID + "/" }

func TutorialContentPath(tutorialID string) string {
	return TutorialPrefix(tutorialID) + "content.json"
}

func ArtifactPath(tutorialID, stepID, filename string) string {
	return TutorialPrefix(tutorialID) + "artifacts/" + safeSegment(stepID) + "/" + safeSegment(filename)
}

func SessionPrefix(sessionID string) string { return "sessions/" + sessionID + "/" }

func WorkspacePath(workspaceID, name string) string {
	return SessionPrefix(workspaceID) + "workspace/" + safeSegment(name) + ".json"
}

func CommitVectorID(id codebase.CommitID) string { return "commit:" + id.String() }
func CodeVectorID(repoID, path string) string    { return "code:" + repoID + ":" + path }
func TutorialVectorID(tutorialID string) string  { return "tutorial:" + tutorialID }

// safeSegment keeps caller-supplied names from escaping their prefix.
func safeSegment(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "..", "_")
	if s == "" {
		return "_"
	}
	return s
}
