package adapter

import (
	"fmt"
	"strconv"
	"strings"
)

// CastKind enumerates the coercions a mapped model parameter can require.
type CastKind int

const (
	// CastRaw copies the value unchanged.
	CastRaw CastKind = iota
	// CastFloat coerces to float64.
	CastFloat
	// CastInt coerces to int.
	CastInt
	// CastBool coerces to bool.
	CastBool
	// CastString renders the value as text.
	CastString
	// CastObject requires a JSON object value.
	CastObject
	// CastStop decodes backslash escape sequences in stop sequences.
	CastStop
)

// ParamMapping describes how one model parameter lands in the destination
// payload: the coercion to apply and, when set, a different destination
// field name.
type ParamMapping struct {
	Kind   CastKind
	Rename string
}

// MappingTable maps source parameter names to their destination mapping.
// Parameters absent from the table are left alone by the apply routine.
type MappingTable map[string]ParamMapping

// OpenAIParams is the parameter surface accepted by OpenAI-compatible
// backends.
var OpenAIParams = MappingTable{
	"temperature":       {Kind: CastFloat},
	"top_p":             {Kind: CastFloat},
	"max_tokens":        {Kind: CastInt},
	"frequency_penalty": {Kind: CastFloat},
	"reasoning_effort":  {Kind: CastString},
	"seed":              {Kind: CastRaw},
	"stop":              {Kind: CastStop},
	"logit_bias":        {Kind: CastRaw},
	"response_format":   {Kind: CastObject},
}

// OllamaParams is the option surface accepted by Ollama backends. See
// https://github.com/ollama/ollama/blob/main/docs/api.md#request-8. The
// OpenAI-named max_tokens is renamed to num_predict before lookup.
var OllamaParams = MappingTable{
	"temperature":       {Kind: CastFloat},
	"top_p":             {Kind: CastFloat},
	"seed":              {Kind: CastRaw},
	"mirostat":          {Kind: CastInt},
	"mirostat_eta":      {Kind: CastFloat},
	"mirostat_tau":      {Kind: CastFloat},
	"num_ctx":           {Kind: CastInt},
	"num_batch":         {Kind: CastInt},
	"num_keep":          {Kind: CastInt},
	"num_predict":       {Kind: CastInt},
	"repeat_last_n":     {Kind: CastInt},
	"top_k":             {Kind: CastInt},
	"min_p":             {Kind: CastFloat},
	"typical_p":         {Kind: CastFloat},
	"repeat_penalty":    {Kind: CastFloat},
	"presence_penalty":  {Kind: CastFloat},
	"frequency_penalty": {Kind: CastFloat},
	"penalize_newline":  {Kind: CastBool},
	"stop":              {Kind: CastStop},
	"numa":              {Kind: CastBool},
	"num_gpu":           {Kind: CastInt},
	"main_gpu":          {Kind: CastInt},
	"low_vram":          {Kind: CastBool},
	"vocab_only":        {Kind: CastBool},
	"use_mmap":          {Kind: CastBool},
	"use_mlock":         {Kind: CastBool},
	"num_thread":        {Kind: CastInt},
}

// ollamaRenames maps OpenAI parameter names to their Ollama equivalents.
var ollamaRenames = map[string]string{
	"max_tokens": "num_predict",
}

// ApplyParams writes every parameter the table knows about into a copy of
// the destination map, coerced per its mapping. Parameters with nil values
// and parameters the table does not name are skipped. The inputs are not
// mutated. A failed coercion aborts with an error naming the field.
func ApplyParams(params map[string]any, dest map[string]any, table MappingTable) (map[string]any, error) {
	out := copyMap(dest)
	if len(params) == 0 {
		return out, nil
	}

	for name, mapping := range table {
		value, ok := params[name]
		if !ok || value == nil {
			continue
		}

		cast, err := castValue(value, mapping.Kind)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}

		target := name
		if mapping.Rename != "" {
			target = mapping.Rename
		}
		out[target] = cast
	}

	return out, nil
}

// ApplyOpenAIParams merges model-level parameters into a copy of an
// OpenAI-dialect payload. OpenAI carries sampling parameters at the top
// level of the request body.
func ApplyOpenAIParams(params map[string]any, payload map[string]any) (map[string]any, error) {
	return ApplyParams(params, payload, OpenAIParams)
}

// ApplyOllamaParams merges model-level parameters into a copy of an
// Ollama-dialect payload. Parameters land in the options record; keep_alive
// and format are hoisted out of options to the top level first, since
// Ollama rejects them as options.
func ApplyOllamaParams(params map[string]any, payload map[string]any) (map[string]any, error) {
	out := copyMap(payload)

	options := map[string]any{}
	if existing, ok := out["options"].(map[string]any); ok {
		options = copyMap(existing)
	}

	for _, hoisted := range []string{"keep_alive", "format"} {
		if value, ok := options[hoisted]; ok {
			out[hoisted] = value
			delete(options, hoisted)
		}
	}

	renamed := params
	if len(params) > 0 {
		renamed = copyMap(params)
		for from, to := range ollamaRenames {
			if value, ok := renamed[from]; ok && value != nil {
				renamed[to] = value
				delete(renamed, from)
			}
		}
	}

	options, err := ApplyParams(renamed, options, OllamaParams)
	if err != nil {
		return nil, err
	}

	if len(options) > 0 {
		out["options"] = options
	} else {
		delete(out, "options")
	}
	return out, nil
}

// castValue coerces a single parameter value per the requested kind.
func castValue(value any, kind CastKind) (any, error) {
	switch kind {
	case CastRaw:
		return value, nil
	case CastFloat:
		return castFloat(value)
	case CastInt:
		return castInt(value)
	case CastBool:
		return castBool(value)
	case CastString:
		return fmt.Sprintf("%v", value), nil
	case CastObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected object, got %T", value)
		}
		return obj, nil
	case CastStop:
		return castStop(value)
	default:
		return nil, fmt.Errorf("unknown cast kind %d", kind)
	}
}

func castFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot cast %q to float", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot cast %T to float", value)
	}
}

func castInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case float32:
		return int(v), nil
	case string:
		i, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("cannot cast %q to int", v)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("cannot cast %T to int", value)
	}
}

func castBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("cannot cast %q to bool", v)
		}
		return b, nil
	default:
		return false, fmt.Errorf("cannot cast %T to bool", value)
	}
}

// castStop decodes backslash escape sequences in stop sequences, so a
// configured "\\n" stops on an actual newline. Accepts a single string or a
// list of strings.
func castStop(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return unescapeSequences(v), nil
	case []string:
		out := make([]string, len(v))
		for i, s := range v {
			out[i] = unescapeSequences(s)
		}
		return out, nil
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("stop sequence %d is %T, want string", i, item)
			}
			out[i] = unescapeSequences(s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot cast %T to stop sequences", value)
	}
}

// unescapeSequences decodes the common backslash escapes in place. Unknown
// escapes and plain text round-trip unchanged, so user-visible stop strings
// without escapes are never altered.
func unescapeSequences(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			out = append(out, s[i])
			continue
		}

		i++
		switch s[i] {
		case 'n':
			out = append(out, '\n')
		case 't':
			out = append(out, '\t')
		case 'r':
			out = append(out, '\r')
		case 'a':
			out = append(out, '\a')
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case 'v':
			out = append(out, '\v')
		case '0':
			out = append(out, 0)
		case '\\':
			out = append(out, '\\')
		case '\'':
			out = append(out, '\'')
		case '"':
			out = append(out, '"')
		case 'x':
			if i+2 < len(s) {
				if n, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
					out = append(out, []byte(string(rune(n)))...)
					i += 2
					continue
				}
			}
			out = append(out, '\\', 'x')
		case 'u':
			if i+4 < len(s) {
				if n, err := strconv.ParseUint(s[i+1:i+5], 16, 32); err == nil {
					out = append(out, []byte(string(rune(n)))...)
					i += 4
					continue
				}
			}
			out = append(out, '\\', 'u')
		default:
			out = append(out, '\\', s[i])
		}
	}
	return string(out)
}

// copyMap returns a shallow copy of m. A nil map copies to an empty one.
func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
