package adapter

import "fmt"

// Dialect identifies the wire schema a chat-completion payload is written in.
type Dialect string

const (
	DialectOpenAI Dialect = "openai"
	DialectOllama Dialect = "ollama"
)

// Valid reports whether d names a supported dialect.
func (d Dialect) Valid() bool {
	return d == DialectOpenAI || d == DialectOllama
}

// ParseDialect converts a raw string into a Dialect.
func ParseDialect(s string) (Dialect, error) {
	d := Dialect(s)
	if !d.Valid() {
		return "", fmt.Errorf("unsupported dialect: %q", s)
	}
	return d, nil
}

// Degradation records a recoverable, per-field failure encountered during a
// transformation. The transformation continues with a documented fallback;
// the caller decides how to surface the record.
type Degradation struct {
	Component string `json:"component"`
	Field     string `json:"field"`
	Reason    string `json:"reason"`
}

// Component names used in degradation records.
const (
	componentSystemPrompt     = "system_prompt_composer"
	componentMessageConverter = "message_converter"
)
