package game

// visibleSet builds the entity set broadcast to one client this tick.
//
// The radial pass keeps entities within view distance (squared 3D
// distance, self excluded). With LOS mode off that is the whole filter;
// with it on, each candidate must pass the silhouette test or ride the
// grace window.
//
// The grace window bridges single-tick occlusion flickers: an entity seen
// on tick t stays in the set for LosGraceTicks further ticks after it
// drops out of sight, which is shorter than the client's interpolation
// delay and so invisible to players. Sustained occlusion expires it.
func (e *Engine) visibleSet(c *Client, losMode bool) []*Entity {
	c.visible = c.visible[:0]
	e.visQuery++

	viewer := c.Entity
	maxDistSq := e.worldCfg.ViewDistance * e.worldCfg.ViewDistance

	for id, ent := range e.entities {
		if id == c.ID {
			continue
		}
		if viewer.Pos.DistSq(ent.Pos) > maxDistSq {
			continue
		}
		if losMode && !e.los.CanSee(viewer.Pos, ent.Pos) {
			continue
		}
		c.visible = append(c.visible, ent)
		e.visStamp[id] = e.visQuery
	}

	if !losMode {
		return c.visible
	}

	for id, ticks := range c.grace {
		if e.visStamp[id] == e.visQuery {
			continue
		}
		ent, alive := e.entities[id]
		if !alive || ticks <= 0 {
			delete(c.grace, id)
			continue
		}
		c.visible = append(c.visible, ent)
		if ticks--; ticks == 0 {
			delete(c.grace, id)
		} else {
			c.grace[id] = ticks
		}
	}

	// Seen entities get a fresh grace allowance.
	if e.simCfg.LosGraceTicks > 0 {
		for _, ent := range c.visible {
			if e.visStamp[ent.ID] == e.visQuery {
				c.grace[ent.ID] = e.simCfg.LosGraceTicks
			}
		}
	}

	return c.visible
}
