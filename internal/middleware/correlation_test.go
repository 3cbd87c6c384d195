package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestCorrelationMiddleware_GeneratesIDs(t *testing.T) {
	handler := RequestCorrelationMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/backends", nil))

	assert.Len(t, recorder.Header().Get(RequestIDHeader), 16)
	assert.Len(t, recorder.Header().Get(CorrelationIDHeader), 36)
}

func TestRequestCorrelationMiddleware_PreservesClientIDs(t *testing.T) {
	handler := RequestCorrelationMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	request := httptest.NewRequest(http.MethodGet, "/v1/backends", nil)
	request.Header.Set(RequestIDHeader, "client-req-id")
	request.Header.Set(CorrelationIDHeader, "client-corr-id")

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, "client-req-id", recorder.Header().Get(RequestIDHeader))
	assert.Equal(t, "client-corr-id", recorder.Header().Get(CorrelationIDHeader))
}

func TestRequestCorrelationMiddleware_RelaysBodyAndStatus(t *testing.T) {
	handler := RequestCorrelationMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))

	body := strings.NewReader(`{"messages": []}`)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/v1/adapt", body))

	assert.Equal(t, http.StatusCreated, recorder.Code)
	assert.JSONEq(t, `{"ok": true}`, recorder.Body.String())
}

func TestRequestCorrelationMiddleware_RelaysBodyBeyondCaptureLimit(t *testing.T) {
	chunk := strings.Repeat("a", 4096)
	handler := RequestCorrelationMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		for i := 0; i < 5; i++ {
			_, err := w.Write([]byte(chunk))
			require.NoError(t, err)
		}
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))

	assert.Equal(t, http.StatusCreated, recorder.Code)
	assert.Equal(t, strings.Repeat("a", 5*len(chunk)), recorder.Body.String())
}

func TestRequestCorrelationMiddleware_HandlerSeesFullBody(t *testing.T) {
	var seen string
	handler := RequestCorrelationMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := make([]byte, 64)
		n, _ := r.Body.Read(data)
		seen = string(data[:n])
		w.WriteHeader(http.StatusOK)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/v1/adapt", strings.NewReader(`{"a":1}`)))

	assert.Equal(t, `{"a":1}`, seen)
}

func TestRequestCorrelationMiddleware_HealthPathSkipsCapture(t *testing.T) {
	handler := RequestCorrelationMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.JSONEq(t, `{"status":"healthy"}`, recorder.Body.String())
}

func TestCORSMiddleware(t *testing.T) {
	handler := CORSMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("sets_cors_headers", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/backends", nil))

		assert.Equal(t, "*", recorder.Header().Get("Access-Control-Allow-Origin"))
		assert.NotEmpty(t, recorder.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, http.StatusNoContent, recorder.Code)
	})

	t.Run("preflight_short_circuits", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodOptions, "/v1/adapt", nil))

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "*", recorder.Header().Get("Access-Control-Allow-Origin"))
	})
}
