package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertPayload_MissingMessages(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
	}{
		{name: "absent", payload: map[string]any{"model": "llama3"}},
		{name: "nil", payload: map[string]any{"messages": nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ConvertPayload(tt.payload)
			assert.ErrorIs(t, err, ErrMissingMessages)
		})
	}
}

func TestConvertPayload_MessagesNotAList(t *testing.T) {
	_, _, err := ConvertPayload(map[string]any{"messages": "hello"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissingMessages)
	assert.Contains(t, err.Error(), "want list")
}

func TestConvertPayload_Basics(t *testing.T) {
	payload := map[string]any{
		"model": "llama3.1:8b",
		"messages": []any{
			map[string]any{"role": "user", "content": "hi"},
		},
	}

	converted, degradations, err := ConvertPayload(payload)
	require.NoError(t, err)
	assert.Empty(t, degradations)

	assert.Equal(t, "llama3.1:8b", converted["model"])
	assert.Equal(t, false, converted["stream"])

	messages, ok := converted["messages"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	assert.Equal(t, "hi", messages[0]["content"])
}

func TestConvertPayload_StreamPreserved(t *testing.T) {
	payload := map[string]any{
		"stream":   true,
		"messages": []any{map[string]any{"role": "user", "content": "hi"}},
	}

	converted, _, err := ConvertPayload(payload)
	require.NoError(t, err)
	assert.Equal(t, true, converted["stream"])
}

func TestConvertPayload_Passthroughs(t *testing.T) {
	tools := []any{map[string]any{"type": "function"}}
	metadata := map[string]any{"user_id": "u1"}

	payload := map[string]any{
		"messages": []any{map[string]any{"role": "user", "content": "hi"}},
		"tools":    tools,
		"format":   "json",
		"metadata": metadata,
	}

	converted, _, err := ConvertPayload(payload)
	require.NoError(t, err)

	assert.Equal(t, tools, converted["tools"])
	assert.Equal(t, "json", converted["format"])
	assert.Equal(t, metadata, converted["metadata"])
}

func TestConvertPayload_OptionsHandling(t *testing.T) {
	payload := map[string]any{
		"messages": []any{map[string]any{"role": "user", "content": "hi"}},
		"options": map[string]any{
			"max_tokens": 256,
			"system":     "be brief",
			"keep_alive": "10m",
			"top_k":      40,
		},
	}

	converted, _, err := ConvertPayload(payload)
	require.NoError(t, err)

	assert.Equal(t, "be brief", converted["system"])
	assert.Equal(t, "10m", converted["keep_alive"])

	options, ok := converted["options"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 256, options["num_predict"])
	assert.Equal(t, 40, options["top_k"])
	assert.NotContains(t, options, "max_tokens")
	assert.NotContains(t, options, "system")
	assert.NotContains(t, options, "keep_alive")
}

func TestConvertPayload_TopLevelStopMovesIntoOptions(t *testing.T) {
	t.Run("without_existing_options", func(t *testing.T) {
		payload := map[string]any{
			"messages": []any{map[string]any{"role": "user", "content": "hi"}},
			"stop":     []any{"END"},
		}

		converted, _, err := ConvertPayload(payload)
		require.NoError(t, err)

		options, ok := converted["options"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, []any{"END"}, options["stop"])
		assert.NotContains(t, converted, "stop")
	})

	t.Run("merges_with_existing_options", func(t *testing.T) {
		payload := map[string]any{
			"messages": []any{map[string]any{"role": "user", "content": "hi"}},
			"stop":     "DONE",
			"options":  map[string]any{"top_k": 20},
		}

		converted, _, err := ConvertPayload(payload)
		require.NoError(t, err)

		options := converted["options"].(map[string]any)
		assert.Equal(t, "DONE", options["stop"])
		assert.Equal(t, 20, options["top_k"])
	})
}

func TestConvertPayload_ResponseFormatSchema(t *testing.T) {
	schema := map[string]any{"type": "object", "properties": map[string]any{}}

	tests := []struct {
		name           string
		responseFormat any
		expectedFormat any
	}{
		{
			name: "json_schema_hoisted",
			responseFormat: map[string]any{
				"type":        "json_schema",
				"json_schema": map[string]any{"name": "answer", "schema": schema},
			},
			expectedFormat: schema,
		},
		{
			name:           "type_without_container_ignored",
			responseFormat: map[string]any{"type": "json_object"},
		},
		{
			name: "empty_container_ignored",
			responseFormat: map[string]any{
				"type":        "json_schema",
				"json_schema": map[string]any{},
			},
		},
		{
			name:           "non_object_ignored",
			responseFormat: "json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := map[string]any{
				"messages":        []any{map[string]any{"role": "user", "content": "hi"}},
				"response_format": tt.responseFormat,
			}

			converted, _, err := ConvertPayload(payload)
			require.NoError(t, err)

			if tt.expectedFormat == nil {
				assert.NotContains(t, converted, "format")
			} else {
				assert.Equal(t, tt.expectedFormat, converted["format"])
			}
		})
	}
}

func TestConvertPayload_UnknownFieldsDropped(t *testing.T) {
	payload := map[string]any{
		"messages":    []any{map[string]any{"role": "user", "content": "hi"}},
		"temperature": 0.9,
		"n":           3,
	}

	converted, _, err := ConvertPayload(payload)
	require.NoError(t, err)

	assert.NotContains(t, converted, "temperature")
	assert.NotContains(t, converted, "n")
}

func TestConvertPayload_DoesNotMutateInput(t *testing.T) {
	options := map[string]any{"max_tokens": 100, "system": "hi"}
	payload := map[string]any{
		"messages": []any{map[string]any{"role": "user", "content": "hi"}},
		"options":  options,
	}

	_, _, err := ConvertPayload(payload)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"max_tokens": 100, "system": "hi"}, options)
	assert.NotContains(t, payload, "system")
}
