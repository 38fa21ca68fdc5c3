package game

import (
	"math"
	"sync"

	"sightline/internal/wire"
)

// Conn is the send-only handle the broadcaster pushes frames through. The
// transport owns the socket; Send must not block the tick (queue or fail).
type Conn interface {
	Send(frame []byte) error
}

// InputState is the last movement intent a client reported. MoveX/MoveZ
// are applied as-is; the client pre-normalises.
type InputState struct {
	MoveX, MoveZ float64
	Yaw, Pitch   float64
}

// Client is one connected player's session: its entity, its intent
// registers and its per-client visibility state.
//
// The intent registers (input, shooting, losMode) are written by the
// transport's read loop and drained by the tick under inMu. Everything
// else is tick-private.
type Client struct {
	ID     uint32
	Entity *Entity
	Conn   Conn

	inMu     sync.Mutex
	input    InputState
	shooting bool
	losMode  bool

	lastShotMillis int64

	// grace holds entities recently seen but occluded now, mapped to the
	// ticks they remain broadcast.
	grace map[uint32]int

	// Per-tick scratch, reused so steady-state broadcasting does not
	// allocate: the visible set, the staged frame and its wire bytes.
	visible  []*Entity
	frame    wire.Update
	frameBuf []byte
}

// SetInput records a movement intent. Non-finite values are dropped to
// zero movement with the previous orientation kept.
func (c *Client) SetInput(in InputState) {
	if !finite(in.MoveX) || !finite(in.MoveZ) {
		in.MoveX, in.MoveZ = 0, 0
	}
	c.inMu.Lock()
	if !finite(in.Yaw) || !finite(in.Pitch) {
		in.Yaw, in.Pitch = c.input.Yaw, c.input.Pitch
	}
	c.input = in
	c.inMu.Unlock()
}

// SetShooting records whether the fire button is held.
func (c *Client) SetShooting(on bool) {
	c.inMu.Lock()
	c.shooting = on
	c.inMu.Unlock()
}

// SetLosMode switches between radial-only and LOS-filtered broadcasts.
func (c *Client) SetLosMode(on bool) {
	c.inMu.Lock()
	c.losMode = on
	c.inMu.Unlock()
}

// drainIntent snapshots the intent registers for the current tick.
func (c *Client) drainIntent() (InputState, bool, bool) {
	c.inMu.Lock()
	in, shoot, los := c.input, c.shooting, c.losMode
	c.inMu.Unlock()
	return in, shoot, los
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
