package adapter

import "fmt"

// UserInfo carries the identity fields of the requesting user that are
// available to system prompt templates.
type UserInfo struct {
	Name string
	Info map[string]any
}

// ResolveTemplateVariables builds the substitution table for system prompt
// templates. Request metadata variables come first, then user identity
// fields; every value is stringified so templates never see raw types.
// A nil metadata map or nil user simply contributes nothing.
func ResolveTemplateVariables(metadata map[string]any, user *UserInfo) map[string]string {
	vars := make(map[string]string)

	if metadata != nil {
		if raw, ok := metadata["variables"].(map[string]any); ok {
			for name, value := range raw {
				vars[name] = stringifyVariable(value)
			}
		}
	}

	if user != nil {
		vars["user_name"] = user.Name
		if user.Info != nil {
			if location, ok := user.Info["location"]; ok && location != nil {
				vars["user_location"] = stringifyVariable(location)
			}
		}
	}

	return vars
}

// stringifyVariable renders a template variable value as text. Strings pass
// through untouched, nil becomes empty, everything else uses fmt formatting.
func stringifyVariable(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
