package adapter

import (
	"fmt"
	"strings"

	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/prompt"
)

// CustomRole pairs an arbitrary role name with templated content that is
// injected ahead of the conversation.
type CustomRole struct {
	Role  string `json:"role" validate:"required,min=1"`
	Value string `json:"value"`
}

// SystemPromptConfig is the model-level prompt material configured for a
// backend.
type SystemPromptConfig struct {
	System      string       `json:"system,omitempty"`
	CustomRoles []CustomRole `json:"custom_roles,omitempty"`
}

type renderedRole struct {
	name    string
	content string
}

// systemMerger injects rendered system material into a message list
// following one dialect's convention.
type systemMerger interface {
	merge(system string, roles []renderedRole, messages []any) []any
}

func mergerFor(target Dialect) systemMerger {
	if target == DialectOllama {
		return flattenMerger{}
	}
	return multiRoleMerger{}
}

// ApplySystemPrompt renders the configured system prompt and custom roles
// with the given variables and injects them into a copy of messages, using
// the merge convention of the target dialect. A failed render falls back to
// the unrendered text and is reported as a degradation; a custom role
// without a name is skipped the same way.
func ApplySystemPrompt(cfg SystemPromptConfig, messages []any, vars map[string]string, target Dialect) ([]any, []Degradation) {
	var degradations []Degradation

	system := ""
	if cfg.System != "" {
		rendered, err := renderField(cfg.System, vars)
		if err != nil {
			degradations = append(degradations, Degradation{
				Component: componentSystemPrompt,
				Field:     "system",
				Reason:    fmt.Sprintf("template render failed, using raw text: %v", err),
			})
			rendered = cfg.System
		}
		system = rendered
	}

	var roles []renderedRole
	for _, role := range cfg.CustomRoles {
		if role.Role == "" {
			degradations = append(degradations, Degradation{
				Component: componentSystemPrompt,
				Field:     "custom_roles",
				Reason:    "custom role definition without a role name, skipped",
			})
			continue
		}
		rendered, err := renderField(role.Value, vars)
		if err != nil {
			degradations = append(degradations, Degradation{
				Component: componentSystemPrompt,
				Field:     "custom_roles",
				Reason:    fmt.Sprintf("template render failed for role %q, using raw text: %v", role.Role, err),
			})
			rendered = role.Value
		}
		roles = append(roles, renderedRole{name: role.Role, content: rendered})
	}

	if system == "" && len(roles) == 0 {
		return copyMessages(messages), degradations
	}
	return mergerFor(target).merge(system, roles, messages), degradations
}

// renderField runs the two render passes: free-form variables, then the
// reserved user and date-time placeholders.
func renderField(text string, vars map[string]string) (string, error) {
	withVars, err := prompt.RenderVariables(text, vars)
	if err != nil {
		return "", err
	}
	return prompt.RenderContext(withVars, vars["user_name"], vars["user_location"])
}

// flattenMerger implements Ollama's convention: the system prompt and every
// custom role collapse into a single leading system message, custom roles
// prefixed with an uppercase [NAME]: label.
type flattenMerger struct{}

func (flattenMerger) merge(system string, roles []renderedRole, messages []any) []any {
	var parts []string
	if system != "" {
		parts = append(parts, system)
	}
	for _, role := range roles {
		parts = append(parts, fmt.Sprintf("[%s]:\n%s", strings.ToUpper(role.name), role.content))
	}

	combined := strings.TrimSpace(strings.Join(parts, "\n\n"))
	if combined == "" {
		return copyMessages(messages)
	}
	return UpsertSystemMessage(combined, messages)
}

// multiRoleMerger implements OpenAI's convention: one leading message per
// rendered field. Prior messages whose role collides with an injected role
// are displaced, reserved role names included.
type multiRoleMerger struct{}

func (multiRoleMerger) merge(system string, roles []renderedRole, messages []any) []any {
	leading := make([]any, 0, len(roles)+1)
	if system != "" {
		leading = append(leading, map[string]any{"role": "system", "content": system})
	}
	for _, role := range roles {
		leading = append(leading, map[string]any{"role": role.name, "content": role.content})
	}
	if len(leading) == 0 {
		return copyMessages(messages)
	}

	injected := map[string]bool{"system": true}
	for _, role := range roles {
		injected[role.name] = true
	}

	out := leading
	for _, raw := range messages {
		if message, ok := raw.(map[string]any); ok {
			if role, _ := message["role"].(string); injected[role] {
				continue
			}
		}
		out = append(out, raw)
	}
	return out
}

// UpsertSystemMessage returns a copy of messages with content installed as
// the leading system message. An existing leading system message is
// replaced in place; otherwise a new one is prepended.
func UpsertSystemMessage(content string, messages []any) []any {
	if len(messages) > 0 {
		if first, ok := messages[0].(map[string]any); ok {
			if role, _ := first["role"].(string); role == "system" {
				out := copyMessages(messages)
				updated := copyMap(first)
				updated["content"] = content
				out[0] = updated
				return out
			}
		}
	}

	out := make([]any, 0, len(messages)+1)
	out = append(out, map[string]any{"role": "system", "content": content})
	return append(out, messages...)
}

func copyMessages(messages []any) []any {
	out := make([]any, len(messages))
	copy(out, messages)
	return out
}
