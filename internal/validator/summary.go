package validator

// PayloadSummary captures the shape of an inbound request for logging,
// metrics and audit records without retaining the payload itself.
type PayloadSummary struct {
	Model        string `json:"model" bson:"model"`
	MessageCount int    `json:"message_count" bson:"message_count"`
	Streaming    bool   `json:"streaming" bson:"streaming"`
	HasTools     bool   `json:"has_tools" bson:"has_tools"`
	HasImages    bool   `json:"has_images" bson:"has_images"`
}

// Summarize inspects a decoded payload and reports its shape.
func Summarize(payload map[string]any) PayloadSummary {
	summary := PayloadSummary{}
	summary.Model, _ = payload["model"].(string)
	summary.Streaming, _ = payload["stream"].(bool)

	if tools, ok := payload["tools"].([]any); ok && len(tools) > 0 {
		summary.HasTools = true
	}

	messages, _ := payload["messages"].([]any)
	summary.MessageCount = len(messages)
	for _, raw := range messages {
		message, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		parts, ok := message["content"].([]any)
		if !ok {
			continue
		}
		for _, rawPart := range parts {
			if part, ok := rawPart.(map[string]any); ok && part["type"] == "image_url" {
				summary.HasImages = true
			}
		}
	}

	return summary
}
