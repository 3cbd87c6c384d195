package adapter

import (
	"encoding/json"
	"strings"
)

// ConvertMessages rewrites an OpenAI-dialect message list into Ollama's
// shape. The input is not mutated. Recoverable per-message failures
// (unparseable tool-call arguments, malformed image data URLs) are reported
// as degradations while conversion continues.
//
// Branch priority per message: plain string content wins, then tool calls,
// then structured content parts. A message carrying both a string content
// and tool_calls keeps only the string content.
func ConvertMessages(messages []any) ([]map[string]any, []Degradation) {
	out := make([]map[string]any, 0, len(messages))
	var degradations []Degradation

	for _, raw := range messages {
		message, ok := raw.(map[string]any)
		if !ok {
			degradations = append(degradations, Degradation{
				Component: componentMessageConverter,
				Field:     "messages",
				Reason:    "message entry is not an object, dropped",
			})
			continue
		}

		converted, degs := convertMessage(message)
		out = append(out, converted)
		degradations = append(degradations, degs...)
	}

	return out, degradations
}

func convertMessage(message map[string]any) (map[string]any, []Degradation) {
	role, _ := message["role"].(string)
	converted := map[string]any{"role": role}
	var degradations []Degradation

	content := message["content"]
	toolCalls, _ := message["tool_calls"].([]any)
	toolCallID, _ := message["tool_call_id"].(string)

	switch {
	case isString(content):
		converted["content"] = content
		// A string-content message referencing a tool call is the tool's
		// response; Ollama expects it under the tool role.
		if toolCallID != "" {
			converted["role"] = "tool"
			converted["tool_call_id"] = toolCallID
		}

	case len(toolCalls) > 0:
		// Ollama expects tool invocations under the assistant role with an
		// empty content and arguments as a decoded object.
		converted["role"] = "assistant"
		calls := make([]map[string]any, 0, len(toolCalls))
		for _, rawCall := range toolCalls {
			call, degs := convertToolCall(rawCall)
			calls = append(calls, call)
			degradations = append(degradations, degs...)
		}
		converted["tool_calls"] = calls
		converted["content"] = ""

	default:
		if parts, ok := content.([]any); ok {
			degradations = append(degradations, convertContentParts(parts, converted)...)
		}
	}

	// Ollama requires a content key even when empty.
	if _, ok := converted["content"]; !ok {
		if _, ok := converted["tool_calls"]; !ok {
			converted["content"] = ""
		}
	}

	return converted, degradations
}

func convertToolCall(raw any) (map[string]any, []Degradation) {
	call, _ := raw.(map[string]any)
	function, _ := call["function"].(map[string]any)
	name, _ := function["name"].(string)

	arguments := map[string]any{}
	var degradations []Degradation
	switch args := function["arguments"].(type) {
	case string:
		if args != "" {
			if err := json.Unmarshal([]byte(args), &arguments); err != nil {
				arguments = map[string]any{}
				degradations = append(degradations, Degradation{
					Component: componentMessageConverter,
					Field:     "tool_calls",
					Reason:    "tool call arguments are not valid JSON, replaced with empty object",
				})
			}
		}
	case map[string]any:
		arguments = args
	}

	return map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":      name,
			"arguments": arguments,
		},
	}, degradations
}

// convertContentParts flattens a structured content list into plain text
// plus an images list on the converted message.
func convertContentParts(parts []any, converted map[string]any) []Degradation {
	var text strings.Builder
	var images []string
	var degradations []Degradation

	for _, rawPart := range parts {
		part, ok := rawPart.(map[string]any)
		if !ok {
			continue
		}

		switch part["type"] {
		case "text":
			if s, ok := part["text"].(string); ok {
				text.WriteString(s)
			}
		case "image_url":
			imageURL, _ := part["image_url"].(map[string]any)
			url, _ := imageURL["url"].(string)
			if url == "" {
				continue
			}
			if strings.HasPrefix(url, "data:") {
				// Ollama wants the bare base64 payload without the data URL
				// envelope.
				comma := strings.Index(url, ",")
				if comma < 0 {
					degradations = append(degradations, Degradation{
						Component: componentMessageConverter,
						Field:     "images",
						Reason:    "image data URL has no comma separator, skipped",
					})
					continue
				}
				url = url[comma+1:]
			}
			images = append(images, url)
		}
	}

	if trimmed := strings.TrimSpace(text.String()); trimmed != "" {
		converted["content"] = trimmed
	} else if len(images) > 0 {
		converted["content"] = ""
	}
	if len(images) > 0 {
		converted["images"] = images
	}

	return degradations
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}
