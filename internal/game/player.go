package game

import (
	"sightline/internal/geom"
	"sightline/internal/world"
)

const playerHP = 100

// addPlayer spawns an entity for a new session and registers the client.
// Player ids are monotonic from 1000 and never reused, so a reconnecting
// client is always a fresh identity.
func (e *Engine) addPlayer(conn Conn) *Client {
	id := e.nextPlayerID
	e.nextPlayerID++

	half := (e.world.Size - 200) / 2
	x := e.rng.rangeFloat(-half, half)
	z := e.rng.rangeFloat(-half, half)
	p := &Entity{
		ID:       id,
		Pos:      geom.Vec3{X: x, Y: world.FootY(x, z), Z: z},
		IsPlayer: true,
		HP:       playerHP,
		MaxHP:    playerHP,
	}
	e.entities[id] = p
	e.grid.InsertEntity(id, x, z)

	c := &Client{
		ID:     id,
		Entity: p,
		Conn:   conn,
		grace:  make(map[uint32]int),
	}
	e.clients[id] = c
	return c
}

// removePlayer tears a session down: entity gone, grid bin evicted,
// grace state discarded.
func (e *Engine) removePlayer(id uint32) {
	if _, ok := e.clients[id]; !ok {
		return
	}
	delete(e.clients, id)
	delete(e.entities, id)
	e.grid.RemoveEntity(id)
}

// stepPlayer applies one tick of a client's movement intent with the same
// wall-slide shape bots use. Orientation is copied through regardless of
// whether the move lands; remote clients render it.
func (e *Engine) stepPlayer(c *Client, in InputState, dt float64) {
	p := c.Entity
	p.Yaw = in.Yaw
	p.Pitch = in.Pitch

	dx := in.MoveX * e.simCfg.PlayerSpeed * dt
	dz := in.MoveZ * e.simCfg.PlayerSpeed * dt
	if dx == 0 && dz == 0 {
		return
	}

	hard := e.world.Size/2 - 10
	nx, nz := p.Pos.X+dx, p.Pos.Z+dz
	if nx <= -hard || nx >= hard {
		dx = 0
	}
	if nz <= -hard || nz >= hard {
		dz = 0
	}
	if dx == 0 && dz == 0 {
		return
	}

	slideMove(e.grid, p, dx, dz, e.simCfg.PlayerRadius)
}
