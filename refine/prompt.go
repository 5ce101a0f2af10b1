package refine

import (
	"fmt"
	"os"
	"text/template"
)

// DefaultPrompt asks for a structured decision record about one segment of
// raw notes.
const DefaultPrompt = `You are the Ultimate Decision Operator.

Here is a segment of raw notes:
"""{{.Text}}"""

Return only structured JSON output with the following fields:
- pre_digested_version: {"objective": "...", "resources": "...", "blockers": "...", "stakeholders": "..."}
- actual_role: "..."
- fill_in_checklist: [...]
- action_plan: {"recommended_decision": "...", "confidence": "...", "step_checklist": [...], "alternatives": [...]}
- meta: "..."

No explanation, return a single JSON object only.
`

// PromptData is the value a prompt template is executed with.
type PromptData struct {
	ID   any
	Text string
}

// ParsePrompt compiles a prompt template. Missing keys are errors.
func ParsePrompt(text string) (*template.Template, error) {
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	return tmpl, nil
}

// LoadPrompt reads a template from path, or returns DefaultPrompt when path
// is empty.
func LoadPrompt(path string) (*template.Template, error) {
	if path == "" {
		return ParsePrompt(DefaultPrompt)
	}
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied template
	if err != nil {
		return nil, fmt.Errorf("read prompt template %s: %w", path, err)
	}
	return ParsePrompt(string(data))
}
