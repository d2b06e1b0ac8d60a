package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		requestID string
	}{
		{name: "Incoming request id", requestID: "req-123"},
		{name: "Generated request id"},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := zerolog.New(&buf)

			gin.SetMode(gin.ReleaseMode)
			server := gin.New()
			server.Use(RequestLogger(logger))
			server.GET("/ping", func(gctx *gin.Context) {
				zerolog.Ctx(gctx.Request.Context()).Info().Msg("handled")
				gctx.Status(http.StatusNoContent)
			})

			recorder := httptest.NewRecorder()
			request := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tc.requestID != "" {
				request.Header.Set(RequestIDHeader, tc.requestID)
			}

			server.ServeHTTP(recorder, request)

			gotID := recorder.Header().Get(RequestIDHeader)
			if gotID == "" {
				t.Fatalf("response header %s is empty", RequestIDHeader)
			}

			if tc.requestID != "" && gotID != tc.requestID {
				t.Errorf("response %s = %q, want %q", RequestIDHeader, gotID, tc.requestID)
			}

			dec := json.NewDecoder(&buf)

			var lines int
			for dec.More() {
				var entry map[string]any
				if err := dec.Decode(&entry); err != nil {
					t.Fatalf("decoding log line: %v", err)
				}

				if entry["request_id"] != gotID {
					t.Errorf("log request_id = %v, want %q", entry["request_id"], gotID)
				}

				lines++
			}

			if lines != 2 {
				t.Errorf("logged %d lines, want 2", lines)
			}
		})
	}
}
