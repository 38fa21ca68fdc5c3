package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sightline/internal/config"
	"sightline/internal/game"
	"sightline/internal/world"
)

func testEngine(t *testing.T) *game.Engine {
	t.Helper()

	worldCfg := config.DefaultWorld()
	worldCfg.TerrainSize = 400
	worldCfg.GridSize = 80
	worldCfg.BotsCount = 3

	w, err := world.Generate(worldCfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return game.NewEngine(worldCfg, config.DefaultSim(), w, nil)
}

func testRouter(t *testing.T, engine *game.Engine) http.Handler {
	t.Helper()

	rl := NewIPRateLimiter(RateLimitConfig{
		RequestsPerSecond: 1000,
		Burst:             1000,
		CleanupInterval:   time.Minute,
	})
	t.Cleanup(rl.Stop)

	return NewRouter(RouterConfig{
		Handlers:       NewHandlers(engine),
		RateLimiter:    rl,
		DisableLogging: true,
	})
}

func TestHealthz(t *testing.T) {
	router := testRouter(t, testEngine(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q, want ok", rec.Body.String())
	}
}

func TestStateEndpoint(t *testing.T) {
	engine := testEngine(t)
	router := testRouter(t, engine)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/state", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var body struct {
		Running  bool `json:"running"`
		Entities int  `json:"entities"`
		Players  int  `json:"players"`
		World    struct {
			Size      float64 `json:"size"`
			Obstacles int     `json:"obstacles"`
		} `json:"world"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Running {
		t.Error("engine should be parked with no clients")
	}
	if body.Entities != 3 {
		t.Errorf("entities = %d, want 3 bots", body.Entities)
	}
	if body.Players != 0 {
		t.Errorf("players = %d, want 0", body.Players)
	}
	if body.World.Size != 400 {
		t.Errorf("world size = %v, want 400", body.World.Size)
	}
	if body.World.Obstacles == 0 {
		t.Error("world should report obstacles")
	}
}

func TestStatsEndpoint(t *testing.T) {
	router := testRouter(t, testEngine(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"tickRate", "tickTimeMsAvg", "losTimeMsAvg", "sessions"} {
		if _, ok := body[key]; !ok {
			t.Errorf("stats missing %q: %v", key, body)
		}
	}
}

func TestRouterNotFound(t *testing.T) {
	router := testRouter(t, testEngine(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestIPRateLimiterBurst(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{
		RequestsPerSecond: 1,
		Burst:             3,
		CleanupInterval:   time.Minute,
	})
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d inside burst should pass", i)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("request past burst should be rejected")
	}
	if rl.Rejected() != 1 {
		t.Errorf("rejected = %d, want 1", rl.Rejected())
	}

	// Independent budget per IP.
	if !rl.Allow("10.0.0.2") {
		t.Error("fresh IP should have its own budget")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{
		RequestsPerSecond: 1,
		Burst:             1,
		CleanupInterval:   time.Minute,
	})
	defer rl.Stop()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/healthz", nil)
	req.RemoteAddr = "10.1.1.1:5000"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 should carry Retry-After")
	}
}

func TestSessionLimiter(t *testing.T) {
	sl := NewSessionLimiter(2)

	if !sl.Acquire("a") || !sl.Acquire("a") {
		t.Fatal("first two sessions should be admitted")
	}
	if sl.Acquire("a") {
		t.Error("third session for the same IP should be refused")
	}
	if !sl.Acquire("b") {
		t.Error("other IPs are unaffected")
	}

	sl.Release("a")
	if !sl.Acquire("a") {
		t.Error("released slot should be reusable")
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"remote addr", "192.0.2.7:1234", "", "", "192.0.2.7"},
		{"xff single", "10.0.0.1:80", "203.0.113.5", "", "203.0.113.5"},
		{"xff chain", "10.0.0.1:80", "203.0.113.5, 10.0.0.2", "", "203.0.113.5"},
		{"x-real-ip", "10.0.0.1:80", "", "198.51.100.9", "198.51.100.9"},
		{"xff wins", "10.0.0.1:80", "203.0.113.5", "198.51.100.9", "203.0.113.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := GetClientIP(req); got != tt.want {
				t.Errorf("GetClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
