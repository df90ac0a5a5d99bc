package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type statusSink struct {
	codes []int
}

func (s *statusSink) RecordHTTPStatus(code int) {
	s.codes = append(s.codes, code)
}

func TestHTTPMetricsMiddleware_RecordsStatus(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    int
	}{
		{"implicit 200", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) }, http.StatusOK},
		{"no content", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }, http.StatusNoContent},
		{"not found", func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) }, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &statusSink{}
			handler := NewHTTPMetricsMiddleware(sink)(tt.handler)
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/people", nil))

			if len(sink.codes) != 1 || sink.codes[0] != tt.want {
				t.Errorf("recorded = %v, want [%d]", sink.codes, tt.want)
			}
		})
	}
}

func TestStatusRecorder_ReusedAcrossMiddlewares(t *testing.T) {
	sink := &statusSink{}
	var inner http.ResponseWriter
	handler := NewHTTPMetricsMiddleware(sink)(NewHTTPMetricsMiddleware(sink)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = w
		w.WriteHeader(http.StatusAccepted)
	})))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if _, ok := inner.(*statusRecorder); !ok {
		t.Fatalf("inner writer = %T, want *statusRecorder", inner)
	}
	if len(sink.codes) != 2 || sink.codes[0] != http.StatusAccepted || sink.codes[1] != http.StatusAccepted {
		t.Errorf("recorded = %v, want [202 202]", sink.codes)
	}
}
