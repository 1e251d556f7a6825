package tutorial

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/openai"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/promptstyle"
)

const (
	aiMaxTokens      = 2500
	aiTemperature    = 0.4
	maxPromptChanges = 10
	maxPatchChars    = 4000
	maxBeforeFiles   = 5
	maxBeforeChars   = 3000
)

const systemPrompt = `You write hands-on coding tutorials that let a developer re-implement a real commit.
The learner starts from the parent commit and should end with the change applied.
Respond with JSON of the form:
{"title": string, "description": string, "steps": [{"title": string, "description": string, "instructions": string, "code_example": string, "hints": [string]}]}
Use between 2 and 6 steps. Instructions must name the files to edit.`

type AIGenerator struct {
	client openai.Client
}

func NewAIGenerator(client openai.Client) *AIGenerator {
	return &AIGenerator{client: client}
}

func (g *AIGenerator) Generate(ctx context.Context, in GenerateInput) (*GeneratedTutorial, error) {
	text, err := g.client.GenerateText(ctx, promptstyle.ApplySystem(systemPrompt, "json"), buildUserPrompt(in), aiMaxTokens, aiTemperature)
	if err != nil {
		return nil, err
	}
	return parseGenerated(text)
}

func buildUserPrompt(in GenerateInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Repository: %s\n", in.RepoID)
	if in.Language != "" {
		fmt.Fprintf(&b, "Primary language: %s\n", in.Language)
	}
	if in.Description != "" {
		fmt.Fprintf(&b, "About: %s\n", in.Description)
	}
	fmt.Fprintf(&b, "Commit %s (parent %s) by %s, category %s\n", short(in.SHA), short(in.ParentSHA), in.Author, in.Category)
	fmt.Fprintf(&b, "Message:\n%s\n\n", strings.TrimSpace(in.Message))

	b.WriteString("Changed files:\n")
	for i, f := range in.Changes {
		if i == maxPromptChanges {
			fmt.Fprintf(&b, "... and %d more files\n", len(in.Changes)-maxPromptChanges)
			break
		}
		fmt.Fprintf(&b, "--- %s (%s, +%d -%d)\n", f.Filename, f.Status, f.Additions, f.Deletions)
		if f.Patch != "" {
			b.WriteString(truncate(f.Patch, maxPatchChars))
			b.WriteString("\n")
		}
	}
	if len(in.Before) > 0 {
		b.WriteString("\nStarting content of edited files:\n")
		for i, s := range in.Before {
			if i == maxBeforeFiles {
				break
			}
			fmt.Fprintf(&b, "=== %s\n%s\n", s.Path, truncate(s.Content, maxBeforeChars))
		}
	}
	return b.String()
}

// parseGenerated tolerates code fences and prose around the JSON object.
func parseGenerated(text string) (*GeneratedTutorial, error) {
	raw := strings.TrimSpace(text)
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no json object", ErrMalformedOutput)
	}
	var out GeneratedTutorial
	if err := json.Unmarshal([]byte(raw[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	out.Title = strings.TrimSpace(out.Title)
	for i := range out.Steps {
		out.Steps[i].Title = strings.TrimSpace(out.Steps[i].Title)
		out.Steps[i].Instructions = strings.TrimSpace(out.Steps[i].Instructions)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "") + "\n[truncated]"
}

func short(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
