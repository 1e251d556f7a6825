package promptstyle

import "strings"

const marker = "ONBOARDER_PROMPT_STYLE_V1"

// ApplySystem prepends a short guidance block to a system prompt. Prompts
// that already carry the block are returned unchanged.
func ApplySystem(system string, mode string) string {
	base := strings.TrimSpace(system)
	if base == "" || strings.Contains(base, marker) {
		return base
	}
	mode = strings.ToLower(strings.TrimSpace(mode))

	var b strings.Builder
	b.WriteString(marker)
	b.WriteString("\nYou help developers learn an unfamiliar codebase from its commit history.")
	b.WriteString("\nGround every statement in the commit message, diff and files you are given.")
	b.WriteString("\nIf information is missing, say so rather than guessing.")
	if mode == "json" {
		b.WriteString("\nReturn a single JSON object and nothing else.")
	} else {
		b.WriteString("\nBe concise.")
	}
	b.WriteString("\n---\n")
	b.WriteString(base)
	return b.String()
}
