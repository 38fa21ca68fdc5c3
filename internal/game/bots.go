package game

import (
	"math"

	"sightline/internal/geom"
	"sightline/internal/world"
)

const (
	botTurnChance = 0.02
	botHP         = 100
)

// spawnBots creates the bot population on uniform random positions away
// from the boundary, with random headings. Bot ids start at zero; player
// ids start at 1000, so the ranges never collide.
func (e *Engine) spawnBots() {
	half := e.world.Size/2 - 100
	for i := 0; i < e.worldCfg.BotsCount; i++ {
		x := e.rng.rangeFloat(-half, half)
		z := e.rng.rangeFloat(-half, half)
		b := &Entity{
			ID:    uint32(i),
			Pos:   geom.Vec3{X: x, Y: world.FootY(x, z), Z: z},
			Yaw:   e.rng.rangeFloat(0, 2*math.Pi),
			HP:    botHP,
			MaxHP: botHP,
		}
		e.entities[b.ID] = b
		e.bots = append(e.bots, b)
		e.grid.InsertEntity(b.ID, x, z)
	}
}

// stepBots advances every bot one tick of its random walk.
func (e *Engine) stepBots(dt float64) {
	soft := e.world.Size/2 - 50
	for _, b := range e.bots {
		if e.rng.float64() < botTurnChance {
			b.Yaw += e.rng.rangeFloat(-0.5, 0.5) * e.simCfg.BotTurnSpeed * dt * 10
		}

		dx, dz := yawStep(b.Yaw, e.simCfg.BotSpeed*dt)
		nx, nz := b.Pos.X+dx, b.Pos.Z+dz
		if nx < -soft || nx > soft || nz < -soft || nz > soft {
			b.Yaw += math.Pi
			continue
		}

		if !slideMove(e.grid, b, dx, dz, e.simCfg.PlayerRadius) {
			b.Yaw += math.Pi/2 + e.rng.rangeFloat(-math.Pi/8, math.Pi/8)
		}
	}
}
