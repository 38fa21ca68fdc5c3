package api

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"sightline/internal/game"
)

// Handlers serves the read-only JSON API next to the websocket. It sees
// the engine through Status snapshots only; it never touches live
// simulation state.
type Handlers struct {
	engine       *game.Engine
	serverStatus func() serverStatus
}

type serverStatus struct {
	Sessions int `json:"sessions"`
}

// NewHandlers builds the API handler set over an engine.
func NewHandlers(engine *game.Engine) *Handlers {
	return &Handlers{
		engine:       engine,
		serverStatus: func() serverStatus { return serverStatus{} },
	}
}

func (h *Handlers) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *Handlers) handleState(w http.ResponseWriter, r *http.Request) {
	st := h.engine.Status()
	world := h.engine.World()
	writeJSON(w, map[string]any{
		"running":   st.Running,
		"entities":  st.Entities,
		"players":   st.Players,
		"bullets":   st.Bullets,
		"tickCount": st.TickCount,
		"world": map[string]any{
			"size":      world.Size,
			"obstacles": len(world.Obstacles),
		},
	})
}

func (h *Handlers) handleStats(w http.ResponseWriter, r *http.Request) {
	st := h.engine.Status()
	writeJSON(w, map[string]any{
		"tickRate":      st.TickRate,
		"tickTimeMsAvg": st.TickTimeMsAvg,
		"losTimeMsAvg":  st.LosTimeMsAvg,
		"sessions":      h.serverStatus().Sessions,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding error", http.StatusInternalServerError)
	}
}

// bindServer lets the stats handler report live session counts once the
// full Server wires itself in.
func (h *Handlers) bindServer(s *Server) {
	h.serverStatus = func() serverStatus {
		return serverStatus{Sessions: int(atomic.LoadInt32(&s.sessionCount))}
	}
}
