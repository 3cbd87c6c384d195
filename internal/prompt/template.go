// Package prompt renders the {{placeholder}} templates used in configured
// system prompts. Rendering happens in two passes: free-form variables
// first, then the reserved user and date-time placeholders.
package prompt

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrUnterminatedPlaceholder is returned when a template opens a
// placeholder without closing it.
var ErrUnterminatedPlaceholder = errors.New("unterminated template placeholder")

var variablePattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// RenderVariables substitutes {{name}} placeholders from vars. Placeholders
// without a matching variable are left in place so the reserved ones
// survive for the context pass.
func RenderVariables(text string, vars map[string]string) (string, error) {
	if err := checkTerminated(text); err != nil {
		return "", err
	}

	rendered := variablePattern.ReplaceAllStringFunc(text, func(match string) string {
		name := strings.TrimSpace(strings.Trim(match, "{}"))
		if value, ok := vars[name]; ok {
			return value
		}
		return match
	})
	return rendered, nil
}

// RenderContext substitutes the reserved placeholders: {{USER_NAME}},
// {{USER_LOCATION}} and the current date and time family. An unknown
// location renders as "Unknown"; an empty user name leaves {{USER_NAME}}
// untouched.
func RenderContext(text, userName, userLocation string) (string, error) {
	if err := checkTerminated(text); err != nil {
		return "", err
	}

	now := time.Now()
	replacements := []string{
		"{{CURRENT_DATE}}", now.Format("2006-01-02"),
		"{{CURRENT_TIME}}", now.Format("15:04:05"),
		"{{CURRENT_DATETIME}}", now.Format("2006-01-02 15:04:05"),
		"{{CURRENT_WEEKDAY}}", now.Weekday().String(),
	}
	if userName != "" {
		replacements = append(replacements, "{{USER_NAME}}", userName)
	}
	location := userLocation
	if location == "" {
		location = "Unknown"
	}
	replacements = append(replacements, "{{USER_LOCATION}}", location)

	return strings.NewReplacer(replacements...).Replace(text), nil
}

// checkTerminated rejects templates that open a placeholder and never close
// it; substitution on such input would silently eat the rest of the text.
func checkTerminated(text string) error {
	for i := 0; i < len(text); {
		open := strings.Index(text[i:], "{{")
		if open < 0 {
			return nil
		}
		open += i
		end := strings.Index(text[open:], "}}")
		if end < 0 {
			return fmt.Errorf("%w at offset %d", ErrUnterminatedPlaceholder, open)
		}
		i = open + end + 2
	}
	return nil
}
