package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"cleanedge.io/forms/internal/observe"
	"cleanedge.io/forms/internal/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	_ = logger.Init("error", "json")
}

// captureSink records reported errors for assertions.
type captureSink struct {
	mu   sync.Mutex
	errs []error
}

func (s *captureSink) ReportError(err error, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *captureSink) ReportEvent(string, observe.Level, map[string]interface{}) {}

func TestRecoveryHandlerRendersSharedErrorShape(t *testing.T) {
	sink := &captureSink{}
	r := gin.New()
	r.Use(gin.CustomRecovery(recoveryHandler(sink)))
	r.GET("/boom", func(*gin.Context) { panic("database password is hunter2") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	if body.Success {
		t.Error("success = true, want false")
	}
	if body.Error == "" {
		t.Error("error message missing")
	}
	if strings.Contains(w.Body.String(), "hunter2") {
		t.Errorf("body leaks the panic value: %s", w.Body.String())
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.errs) != 1 || !strings.Contains(sink.errs[0].Error(), "hunter2") {
		t.Errorf("sink errors = %v, want the recovered panic", sink.errs)
	}
}

func TestCORSConfigDefaultsToAllowAllWhenOriginsEmpty(t *testing.T) {
	got := corsConfig(nil)
	if !got.AllowAllOrigins {
		t.Fatalf("AllowAllOrigins = %v, want true", got.AllowAllOrigins)
	}
	if got.AllowCredentials {
		t.Fatalf("AllowCredentials = %v, want false", got.AllowCredentials)
	}
}

func TestCORSConfigUsesConfiguredOrigins(t *testing.T) {
	origins := []string{"https://cleanedge.example", "https://www.cleanedge.example"}
	got := corsConfig(origins)
	if got.AllowAllOrigins {
		t.Fatalf("AllowAllOrigins = %v, want false", got.AllowAllOrigins)
	}
	if len(got.AllowOrigins) != 2 {
		t.Fatalf("len(AllowOrigins) = %d, want 2", len(got.AllowOrigins))
	}
}

func TestCORSConfigExposesRateLimitHeaders(t *testing.T) {
	got := corsConfig(nil)
	want := map[string]bool{
		"X-RateLimit-Limit":     false,
		"X-RateLimit-Remaining": false,
		"X-RateLimit-Reset":     false,
	}
	for _, h := range got.ExposeHeaders {
		if _, ok := want[h]; ok {
			want[h] = true
		}
	}
	for h, seen := range want {
		if !seen {
			t.Errorf("ExposeHeaders missing %s", h)
		}
	}
}
