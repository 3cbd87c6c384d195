// Package validator checks inbound OpenAI-dialect request bodies before
// they reach the adaptation pipeline.
package validator

import (
	"encoding/json"
	"fmt"
)

// ParseAndValidate decodes the request body and checks the fields the
// adaptation pipeline depends on. It returns the decoded payload so the
// caller never parses twice.
func ParseAndValidate(body []byte) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("invalid request format: %v", err)
	}

	if err := validateMessages(payload); err != nil {
		return nil, err
	}
	if err := validateMessageContent(payload); err != nil {
		return nil, err
	}
	if err := validateTools(payload); err != nil {
		return nil, err
	}
	if err := validateStream(payload); err != nil {
		return nil, err
	}

	return payload, nil
}

// validateMessages checks that the messages field exists; without it there
// is nothing to adapt.
func validateMessages(payload map[string]any) error {
	if _, ok := payload["messages"]; !ok {
		return fmt.Errorf("missing 'messages' field in request")
	}
	return nil
}

// validateMessageContent validates the content field in messages
func validateMessageContent(payload map[string]any) error {
	messages, ok := payload["messages"].([]any)
	if !ok {
		return fmt.Errorf("invalid 'messages' format: must be an array")
	}

	for i, msg := range messages {
		msgMap, ok := msg.(map[string]any)
		if !ok {
			return fmt.Errorf("invalid message at index %d: must be an object", i)
		}

		content, hasContent := msgMap["content"]
		if !hasContent || content == nil {
			// Assistant messages carrying only tool calls have no content.
			continue
		}

		switch content := content.(type) {
		case string:
			continue
		case []any:
			if err := validateContentParts(content); err != nil {
				return fmt.Errorf("invalid content array in message %d: %v", i, err)
			}
		default:
			return fmt.Errorf("invalid content type in message %d: must be string or array", i)
		}
	}

	return nil
}

// validateContentParts validates an array of structured content parts
func validateContentParts(parts []any) error {
	if len(parts) == 0 {
		return fmt.Errorf("content array cannot be empty")
	}

	for i, part := range parts {
		partMap, ok := part.(map[string]any)
		if !ok {
			return fmt.Errorf("invalid content part at index %d: must be an object", i)
		}

		partType, hasType := partMap["type"].(string)
		if !hasType {
			return fmt.Errorf("content part at index %d missing 'type' field", i)
		}

		switch partType {
		case "text":
			if _, hasText := partMap["text"].(string); !hasText {
				return fmt.Errorf("text content part at index %d missing 'text' field", i)
			}
		case "image_url":
			imageURL, hasImageURL := partMap["image_url"].(map[string]any)
			if !hasImageURL {
				return fmt.Errorf("image_url content part at index %d missing 'image_url' field", i)
			}
			if _, hasURL := imageURL["url"].(string); !hasURL {
				return fmt.Errorf("image_url content part at index %d missing 'url' field", i)
			}
		default:
			return fmt.Errorf("unknown content type '%s' at index %d", partType, i)
		}
	}

	return nil
}

// validateTools checks that the tools field, if present, is an array of
// function declarations
func validateTools(payload map[string]any) error {
	tools, ok := payload["tools"]
	if !ok {
		return nil
	}

	toolsArr, ok := tools.([]any)
	if !ok {
		return fmt.Errorf("invalid 'tools' format: must be an array")
	}

	for _, tool := range toolsArr {
		toolMap, ok := tool.(map[string]any)
		if !ok || toolMap["type"] != "function" || toolMap["function"] == nil {
			return fmt.Errorf("invalid 'tools' format: each tool must have type 'function' and a 'function' object")
		}
	}

	return nil
}

// validateStream ensures the 'stream' field, if present, is boolean
func validateStream(payload map[string]any) error {
	if stream, exists := payload["stream"]; exists {
		if _, ok := stream.(bool); !ok {
			return fmt.Errorf("invalid 'stream' field: must be boolean")
		}
	}
	return nil
}
