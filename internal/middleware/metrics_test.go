package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type fakeHTTPRecorder struct {
	mu        sync.Mutex
	statuses  []int
	latencies []time.Duration
}

func (f *fakeHTTPRecorder) RecordHTTPStatus(statusCode int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, statusCode)
}

func (f *fakeHTTPRecorder) RecordRequestLatency(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latencies = append(f.latencies, d)
}

func TestMetricsMiddleware_RecordsStatusAndLatency(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    int
	}{
		{"implicit 200", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) }, http.StatusOK},
		{"see other", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
		}, http.StatusSeeOther},
		{"not found", http.NotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeHTTPRecorder{}
			handler := NewMetricsMiddleware(rec)(tt.handler)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if len(rec.statuses) != 1 || rec.statuses[0] != tt.want {
				t.Errorf("statuses = %v, want [%d]", rec.statuses, tt.want)
			}
			if len(rec.latencies) != 1 || rec.latencies[0] < 0 {
				t.Errorf("latencies = %v", rec.latencies)
			}
		})
	}
}
