package game

import (
	"log"
	"sync"
	"time"

	"sightline/internal/config"
	"sightline/internal/game/spatial"
	"sightline/internal/perf"
	"sightline/internal/world"
)

// firstPlayerID is where the player id range starts. Bot ids count up
// from zero, so the two ranges never meet; player ids are never reused.
const firstPlayerID = 1000

// Engine owns the simulation: world, grid, entities, bullets, clients.
// All mutation happens on the tick goroutine under mu; transports only
// touch the engine through Connect/Disconnect and the clients' intent
// registers.
//
// The loop runs only while clients are connected. The first Connect
// starts it, the last Disconnect parks it.
type Engine struct {
	mu sync.RWMutex

	worldCfg config.WorldConfig
	simCfg   config.SimConfig

	world *world.World
	grid  *spatial.Grid
	los   *LOSEngine
	perf  *perf.Tracker
	rng   *rng

	entities map[uint32]*Entity
	bots     []*Entity
	clients  map[uint32]*Client
	bullets  []Bullet
	hits     []HitEvent

	// visStamp marks which entities the current visibility query saw;
	// the counter makes clearing free.
	visStamp map[uint32]uint64
	visQuery uint64

	nextPlayerID uint32

	running  bool
	stopChan chan struct{}
	lastTime time.Time

	staged []stagedIntent
	failed []uint32

	stats     tickStats
	tickCount int64
}

type stagedIntent struct {
	c     *Client
	in    InputState
	shoot bool
	los   bool
}

// NewEngine builds the simulation over a generated world and spawns the
// bot population. The tracker may be nil to disable timing.
func NewEngine(worldCfg config.WorldConfig, simCfg config.SimConfig, w *world.World, tracker *perf.Tracker) *Engine {
	grid := spatial.NewGrid(w.Size, worldCfg.CellSize, worldCfg.GridSize, w.Obstacles)
	e := &Engine{
		worldCfg:     worldCfg,
		simCfg:       simCfg,
		world:        w,
		grid:         grid,
		los:          NewLOSEngine(grid),
		perf:         tracker,
		rng:          newRNG(worldCfg.Seed),
		entities:     make(map[uint32]*Entity, worldCfg.BotsCount+16),
		clients:      make(map[uint32]*Client),
		visStamp:     make(map[uint32]uint64, worldCfg.BotsCount+16),
		nextPlayerID: firstPlayerID,
	}
	e.spawnBots()
	return e
}

// World returns the static world the engine runs on.
func (e *Engine) World() *world.World {
	return e.world
}

// Connect registers a new session and returns its client handle. The
// simulation loop starts with the first connection.
func (e *Engine) Connect(conn Conn) *Client {
	e.mu.Lock()
	defer e.mu.Unlock()

	c := e.addPlayer(conn)
	if len(e.clients) == 1 {
		e.startLocked()
	}
	log.Printf("player %d connected (%d online)", c.ID, len(e.clients))
	return c
}

// Disconnect tears a session down. The loop parks when the last client
// leaves.
func (e *Engine) Disconnect(id uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disconnectLocked(id)
}

func (e *Engine) disconnectLocked(id uint32) {
	if _, ok := e.clients[id]; !ok {
		return
	}
	e.removePlayer(id)
	log.Printf("player %d disconnected (%d online)", id, len(e.clients))
	if len(e.clients) == 0 {
		e.stopLocked()
	}
}

// Stop halts the loop regardless of connected clients. Used on shutdown.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

func (e *Engine) startLocked() {
	if e.running {
		return
	}
	e.running = true
	// Reset the clock so the first tick after an idle stretch does not
	// integrate the whole pause as one giant deltaTime.
	e.lastTime = time.Now()
	e.stopChan = make(chan struct{})
	go e.run(e.stopChan)
	log.Printf("simulation loop started (%d Hz)", e.simCfg.TickRate)
}

func (e *Engine) stopLocked() {
	if !e.running {
		return
	}
	e.running = false
	close(e.stopChan)
	log.Printf("simulation loop parked")
}

func (e *Engine) run(stop chan struct{}) {
	ticker := time.NewTicker(time.Second / time.Duration(e.simCfg.TickRate))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			e.mu.Lock()
			if e.running {
				e.tick(now)
			}
			e.mu.Unlock()
			e.perf.MaybeFlush()
		}
	}
}

// tick advances the world one step. Stage order is fixed: drain intents,
// bots, players, bullets, then per-client visibility and broadcast, so
// every client sees a fully settled world.
func (e *Engine) tick(now time.Time) {
	tickStart := time.Now()
	dt := now.Sub(e.lastTime).Seconds()
	if dt < 0 {
		dt = 0
	}
	e.lastTime = now
	nowMillis := now.UnixMilli()
	e.hits = e.hits[:0]
	e.tickCount++

	e.perf.Start("tick")

	e.staged = e.staged[:0]
	for _, c := range e.clients {
		in, shoot, los := c.drainIntent()
		e.staged = append(e.staged, stagedIntent{c: c, in: in, shoot: shoot, los: los})
	}

	e.perf.Start("bots")
	e.stepBots(dt)
	e.perf.Stop()

	e.perf.Start("players")
	for i := range e.staged {
		s := &e.staged[i]
		e.stepPlayer(s.c, s.in, dt)
		if s.shoot {
			e.tryFire(s.c, s.in, nowMillis)
		}
	}
	e.perf.Stop()

	e.perf.Start("bullets")
	e.stepBullets(dt, nowMillis)
	e.perf.Stop()

	var losDur time.Duration
	e.failed = e.failed[:0]
	e.perf.Start("broadcast")
	for i := range e.staged {
		s := &e.staged[i]

		losStart := time.Now()
		visible := e.visibleSet(s.c, s.los)
		losDur += time.Since(losStart)

		frame := e.buildFrame(s.c, visible, s.los)
		if err := s.c.Conn.Send(frame); err != nil {
			e.failed = append(e.failed, s.c.ID)
		}
	}
	e.perf.Stop()

	// A dead socket costs its owner the session, never the tick.
	for _, id := range e.failed {
		e.disconnectLocked(id)
	}

	e.perf.Stop()
	tickMs := float64(time.Since(tickStart)) / float64(time.Millisecond)
	losMs := float64(losDur) / float64(time.Millisecond)
	e.stats.record(now, tickMs, losMs)
}

// Status is a point-in-time summary for the HTTP API and metrics.
type Status struct {
	Running       bool    `json:"running"`
	Entities      int     `json:"entities"`
	Players       int     `json:"players"`
	Bullets       int     `json:"bullets"`
	TickCount     int64   `json:"tickCount"`
	TickRate      int     `json:"tickRate"`
	TickTimeMsAvg float32 `json:"tickTimeMsAvg"`
	LosTimeMsAvg  float32 `json:"losTimeMsAvg"`
}

// Status reports the current simulation state.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Status{
		Running:       e.running,
		Entities:      len(e.entities),
		Players:       len(e.clients),
		Bullets:       len(e.bullets),
		TickCount:     e.tickCount,
		TickRate:      e.simCfg.TickRate,
		TickTimeMsAvg: e.stats.TickTimeMsAvg,
		LosTimeMsAvg:  e.stats.LosTimeMsAvg,
	}
}
