package tutorial

import (
	"context"
	"fmt"
	"strings"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/domain/codebase"
)

const fallbackMaxFileSteps = 5

// FallbackGenerator builds a deterministic tutorial from the commit and its
// file list. It never fails.
type FallbackGenerator struct{}

func (FallbackGenerator) Generate(_ context.Context, in GenerateInput) (*GeneratedTutorial, error) {
	subject, _, _ := strings.Cut(strings.TrimSpace(in.Message), "\n")
	if subject == "" {
		subject = "commit " + short(in.SHA)
	}

	out := &GeneratedTutorial{
		Title:       "Recreate: " + subject,
		Description: fmt.Sprintf("Re-implement commit %s in %s, starting from its parent %s.", short(in.SHA), in.RepoID, short(in.ParentSHA)),
	}
	out.Steps = append(out.Steps, GeneratedStep{
		Title:        "Explore the starting point",
		Description:  "Get familiar with the code as it was before the change.",
		Instructions: "Open the workspace and read the files listed below before editing anything:\n" + fileList(in.Changes),
		Hints:        []string{"Read the commit message again and decide which file changes first."},
	})

	for i, f := range in.Changes {
		if i == fallbackMaxFileSteps {
			break
		}
		out.Steps = append(out.Steps, fileStep(f))
	}

	out.Steps = append(out.Steps, GeneratedStep{
		Title:        "Verify the change",
		Description:  "Make sure the result matches the original intent.",
		Instructions: fmt.Sprintf("Build and run the tests, then compare your work with: %s", subject),
		Hints:        []string{fmt.Sprintf("The original change touched %d lines across %d files.", codebase.LinesChanged(in.Changes), len(in.Changes))},
	})
	if len(out.Steps) > MaxSteps {
		out.Steps = append(out.Steps[:MaxSteps-1], out.Steps[len(out.Steps)-1])
	}
	return out, nil
}

func fileStep(f codebase.FileChange) GeneratedStep {
	s := GeneratedStep{
		Description: fmt.Sprintf("+%d -%d lines", f.Additions, f.Deletions),
		CodeExample: truncate(f.Patch, maxPatchChars),
	}
	switch f.Status {
	case codebase.FileAdded:
		s.Title = "Create " + f.Filename
		s.Instructions = fmt.Sprintf("Add the new file %s.", f.Filename)
	case codebase.FileRemoved:
		s.Title = "Remove " + f.Filename
		s.Instructions = fmt.Sprintf("Delete %s and fix anything that referenced it.", f.Filename)
		s.CodeExample = ""
	case codebase.FileRenamed:
		s.Title = "Rename " + f.PreviousFilename
		s.Instructions = fmt.Sprintf("Move %s to %s and update its references.", f.PreviousFilename, f.Filename)
	default:
		s.Title = "Update " + f.Filename
		s.Instructions = fmt.Sprintf("Modify %s.", f.Filename)
	}
	if f.Patch != "" {
		s.Hints = []string{"Compare your edit with the diff in the code example."}
	}
	return s
}

func fileList(files []codebase.FileChange) string {
	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "- %s (%s)\n", f.Filename, f.Status)
	}
	return strings.TrimRight(b.String(), "\n")
}
