package game

import (
	"math"

	"sightline/internal/config"
	"sightline/internal/geom"
	"sightline/internal/world"
)

// bulletSubStep caps how far a bullet moves between collision tests. At
// bullet speed 150 and 30 Hz a tick covers 5 units, so a tick integrates
// in ~50 sub-steps and cannot tunnel through the thinnest fence.
const bulletSubStep = 0.1

// bulletHitHeight is the vertical band above an entity's feet a bullet
// can strike.
const bulletHitHeight = 4.0

// Bullet is one projectile in flight. Direction is unit length; position
// advances by speed along it every tick.
type Bullet struct {
	Pos     geom.Vec3
	Dir     geom.Vec3
	OwnerID uint32
	Spawned int64 // milliseconds
}

// aimDirection converts yaw/pitch into the unit aim vector, mirroring the
// client camera basis where yaw 0 with zero pitch looks down -Z.
func aimDirection(yaw, pitch float64) geom.Vec3 {
	cp := math.Cos(pitch)
	return geom.Vec3{
		X: -math.Sin(yaw) * cp,
		Y: math.Sin(pitch),
		Z: -math.Cos(yaw) * cp,
	}
}

// tryFire spawns a bullet for the client if the fire-rate gate allows it.
// The muzzle sits at eye height, pushed forward far enough that the
// bullet starts outside its owner's own hitbox.
func (e *Engine) tryFire(c *Client, in InputState, nowMillis int64) {
	minIntervalMs := int64(1000 / e.simCfg.FireRate)
	if nowMillis-c.lastShotMillis < minIntervalMs {
		return
	}
	c.lastShotMillis = nowMillis

	dir := aimDirection(in.Yaw, in.Pitch)
	origin := c.Entity.Pos
	origin.Y += config.EyeHeight
	e.bullets = append(e.bullets, Bullet{
		Pos:     origin.Add(dir.Scale(1.5)),
		Dir:     dir,
		OwnerID: c.ID,
		Spawned: nowMillis,
	})
}

// stepBullets integrates every bullet with sub-stepped continuous
// collision detection and compacts the slice in place. Hits land in
// e.hits for this tick's broadcast.
func (e *Engine) stepBullets(dt float64, nowMillis int64) {
	half := e.world.Size / 2
	kept := e.bullets[:0]

	for i := range e.bullets {
		b := &e.bullets[i]
		if nowMillis-b.Spawned > e.simCfg.BulletLifetimeMs {
			continue
		}
		if e.flyBullet(b, dt, half) {
			kept = append(kept, *b)
		}
	}
	e.bullets = kept
}

// flyBullet advances one bullet across the tick. Returns false when the
// bullet is spent (hit something, left the world, or fell into terrain).
//
// Each sub-step tests entities first, then obstacles, then ground and
// bounds. Entity priority matters when a bullet reaches a target skimming
// the wall behind it in the same sub-step.
func (e *Engine) flyBullet(b *Bullet, dt, half float64) bool {
	total := e.simCfg.BulletSpeed * dt
	n := int(math.Ceil(total / bulletSubStep))
	if n < 1 {
		n = 1
	}
	step := total / float64(n)

	for s := 0; s < n; s++ {
		prev := b.Pos
		next := prev.Add(b.Dir.Scale(step))

		if victim := e.bulletHitsEntity(next, b.OwnerID); victim != nil {
			hit := refineHit(prev, next, func(p geom.Vec3) bool {
				return hitsEntityAt(p, victim)
			})
			e.hits = append(e.hits, HitEvent{Pos: hit, HitEntity: true})
			e.applyDamage(victim)
			return false
		}

		if obs := e.bulletHitsObstacle(next); obs != nil {
			hit := refineHit(prev, next, func(p geom.Vec3) bool {
				return obs.Box.ContainsInflated(p, config.BulletRadius)
			})
			// Push the impact marker from the bullet centre onto the
			// obstacle surface.
			hit = hit.Add(b.Dir.Scale(config.BulletRadius))
			e.hits = append(e.hits, HitEvent{Pos: hit, HitEntity: false})
			return false
		}

		if next.Y < world.GroundHeight(next.X, next.Z) {
			hit := refineHit(prev, next, func(p geom.Vec3) bool {
				return p.Y < world.GroundHeight(p.X, p.Z)
			})
			e.hits = append(e.hits, HitEvent{Pos: hit, HitEntity: false})
			return false
		}
		if next.X < -half || next.X > half || next.Z < -half || next.Z > half {
			return false
		}

		b.Pos = next
	}
	return true
}

func hitsEntityAt(p geom.Vec3, victim *Entity) bool {
	if p.Y < victim.Pos.Y || p.Y > victim.Pos.Y+bulletHitHeight {
		return false
	}
	return p.DistXZ(victim.Pos) < config.EntityRadius+config.BulletRadius
}

// bulletHitsEntity scans the 3x3 cell neighbourhood for a struck entity.
func (e *Engine) bulletHitsEntity(p geom.Vec3, ownerID uint32) *Entity {
	for _, id := range e.grid.NearbyEntities(p.X, p.Z) {
		if id == ownerID {
			continue
		}
		victim, ok := e.entities[id]
		if !ok {
			continue
		}
		if hitsEntityAt(p, victim) {
			return victim
		}
	}
	return nil
}

func (e *Engine) bulletHitsObstacle(p geom.Vec3) *world.Obstacle {
	obstacles := e.grid.Obstacles()
	for _, idx := range e.grid.NearbyObstacles(p.X, p.Z) {
		o := &obstacles[idx]
		if !o.Kind.Solid() {
			continue
		}
		if o.Box.ContainsInflated(p, config.BulletRadius) {
			return o
		}
	}
	return nil
}

// refineHit binary-searches the sub-step segment for the surface crossing.
// Five halvings bring a 0.1-unit sub-step down to ~3mm of error, plenty
// for impact effects.
func refineHit(prev, next geom.Vec3, hit func(geom.Vec3) bool) geom.Vec3 {
	t, halfStep := 1.0, 0.5
	for i := 0; i < 5; i++ {
		p := prev.Add(next.Sub(prev).Scale(t))
		if hit(p) {
			t -= halfStep
		} else {
			t += halfStep
		}
		halfStep /= 2
	}
	return prev.Add(next.Sub(prev).Scale(t))
}

// applyDamage subtracts bullet damage and respawns the victim on a kill:
// full health back, teleported to a fresh uniform position clear of the
// boundary band, grid bin updated.
func (e *Engine) applyDamage(victim *Entity) {
	dmg := uint16(e.simCfg.BulletDamage)
	if victim.HP > dmg {
		victim.HP -= dmg
		return
	}

	victim.HP = victim.MaxHP
	half := (e.world.Size - 200) / 2
	x := e.rng.rangeFloat(-half, half)
	z := e.rng.rangeFloat(-half, half)
	victim.Pos = geom.Vec3{X: x, Y: world.FootY(x, z), Z: z}
	e.grid.MoveEntity(victim.ID, x, z)
}
