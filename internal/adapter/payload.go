package adapter

import (
	"errors"
	"fmt"
)

// ErrMissingMessages is returned when a payload has no messages list; there
// is nothing meaningful to convert without one.
var ErrMissingMessages = errors.New("payload has no messages")

// ConvertPayload rewrites an OpenAI-dialect chat-completion payload into
// Ollama's shape. The input payload and its nested records are not mutated.
//
// Field handling: model, tools, format and metadata copy through verbatim;
// stream defaults to false; the options record is copied with max_tokens
// renamed to num_predict and system plus keep_alive hoisted to the top
// level; a top-level stop relocates into options; a response_format with a
// nested schema is hoisted into the top-level format field. Everything else
// is dropped.
func ConvertPayload(payload map[string]any) (map[string]any, []Degradation, error) {
	rawMessages, ok := payload["messages"]
	if !ok || rawMessages == nil {
		return nil, nil, ErrMissingMessages
	}
	messages, ok := rawMessages.([]any)
	if !ok {
		return nil, nil, fmt.Errorf("messages is %T, want list", rawMessages)
	}

	converted := map[string]any{}
	if model, ok := payload["model"]; ok {
		converted["model"] = model
	}

	ollamaMessages, degradations := ConvertMessages(messages)
	converted["messages"] = ollamaMessages

	if stream, ok := payload["stream"]; ok {
		converted["stream"] = stream
	} else {
		converted["stream"] = false
	}

	for _, passthrough := range []string{"tools", "format", "metadata"} {
		if value, ok := payload[passthrough]; ok {
			converted[passthrough] = value
		}
	}

	if rawOptions, ok := payload["options"].(map[string]any); ok && len(rawOptions) > 0 {
		options := copyMap(rawOptions)

		if value, ok := options["max_tokens"]; ok {
			// Ollama warns on unknown options, so the OpenAI name is
			// renamed rather than duplicated.
			options["num_predict"] = value
			delete(options, "max_tokens")
		}

		// Ollama takes the system prompt and keep_alive as direct
		// parameters, not options.
		for _, hoisted := range []string{"system", "keep_alive"} {
			if value, ok := options[hoisted]; ok {
				converted[hoisted] = value
				delete(options, hoisted)
			}
		}

		converted["options"] = options
	}

	if stop, ok := payload["stop"]; ok {
		options, _ := converted["options"].(map[string]any)
		if options == nil {
			options = map[string]any{}
		}
		options["stop"] = stop
		converted["options"] = options
	}

	if responseFormat, ok := payload["response_format"].(map[string]any); ok {
		formatType, _ := responseFormat["type"].(string)
		if container, ok := responseFormat[formatType].(map[string]any); ok && len(container) > 0 {
			if schema, ok := container["schema"]; ok {
				converted["format"] = schema
			}
		}
	}

	return converted, degradations, nil
}
