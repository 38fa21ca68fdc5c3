package game

import (
	"sightline/internal/wire"
)

// buildFrame encodes one client's UPDATE into its reusable buffers and
// returns the wire bytes. The returned slice aliases c-private storage
// and is valid until the client's next frame.
func (e *Engine) buildFrame(c *Client, visible []*Entity, losMode bool) []byte {
	c.frame.Entities = c.frame.Entities[:0]
	for _, ent := range visible {
		flags := uint8(0)
		if ent.IsPlayer {
			flags |= wire.FlagIsPlayer
		}
		c.frame.Entities = append(c.frame.Entities, wire.EntityState{
			ID:    ent.ID,
			X:     float32(ent.Pos.X),
			Y:     float32(ent.Pos.Y),
			Z:     float32(ent.Pos.Z),
			Yaw:   float32(ent.Yaw),
			Pitch: float32(ent.Pitch),
			HP:    ent.HP,
			MaxHP: ent.MaxHP,
			Flags: flags,
		})
	}

	c.frame.Bullets = c.frame.Bullets[:0]
	for i := range e.bullets {
		b := &e.bullets[i]
		c.frame.Bullets = append(c.frame.Bullets, wire.BulletState{
			X: float32(b.Pos.X),
			Y: float32(b.Pos.Y),
			Z: float32(b.Pos.Z),
		})
	}

	c.frame.Hits = c.frame.Hits[:0]
	for i := range e.hits {
		h := &e.hits[i]
		c.frame.Hits = append(c.frame.Hits, wire.HitState{
			X:         float32(h.Pos.X),
			Y:         float32(h.Pos.Y),
			Z:         float32(h.Pos.Z),
			HitEntity: h.HitEntity,
		})
	}

	pos := c.Entity.Pos
	c.frame.MyX = float32(pos.X)
	c.frame.MyY = float32(pos.Y)
	c.frame.MyZ = float32(pos.Z)

	serverMode := uint8(0)
	if losMode {
		serverMode = 1
	}
	c.frame.Stats = wire.Stats{
		TotalEntities:    uint32(len(e.entities)),
		TotalObstacles:   uint32(len(e.world.Obstacles)),
		ConnectedPlayers: uint16(len(e.clients)),
		TickTimeMsPerSec: e.stats.TickTimeMsPerSec,
		LosTimeMsPerSec:  e.stats.LosTimeMsPerSec,
		TickTimeMsAvg:    e.stats.TickTimeMsAvg,
		VisibleEntities:  uint16(len(visible)),
		ServerMode:       serverMode,
		TickRate:         uint8(e.simCfg.TickRate),
	}

	c.frameBuf = wire.AppendUpdate(c.frameBuf[:0], &c.frame)
	return c.frameBuf
}
