// Package wire implements the binary client protocol. Every frame starts
// with a one-byte type tag; CONFIG carries JSON, everything else is
// packed little-endian binary to keep the 30 Hz broadcast cheap.
//
// The layouts here are mirrored bit-for-bit by the browser client.
// Changing any offset is a protocol-breaking change.
package wire

import (
	"encoding/binary"
	"encoding/json"
	"math"

	"github.com/pkg/errors"

	"sightline/internal/world"
)

// Frame type tags.
const (
	MsgConfig     byte = 0x01 // server -> client, JSON
	MsgUpdate     byte = 0x02 // server -> client, binary
	MsgInput      byte = 0x03 // client -> server, 17 bytes
	MsgShoot      byte = 0x04 // client -> server, 2 bytes
	MsgToggleMode byte = 0x05 // client -> server, 2 bytes
)

// Fixed frame and record sizes in bytes.
const (
	InputFrameSize  = 17
	ShootFrameSize  = 2
	ToggleFrameSize = 2

	entityRecordSize = 29
	bulletRecordSize = 12
	hitRecordSize    = 13
	statsBlockSize   = 28
)

// Entity flag bits.
const FlagIsPlayer uint8 = 1 << 0

// EntityState is one entity record inside an UPDATE frame.
type EntityState struct {
	ID         uint32
	X, Y, Z    float32
	Yaw, Pitch float32
	HP, MaxHP  uint16
	Flags      uint8
}

// BulletState is one bullet record inside an UPDATE frame.
type BulletState struct {
	X, Y, Z float32
}

// HitState is one impact record inside an UPDATE frame.
type HitState struct {
	X, Y, Z   float32
	HitEntity bool
}

// Stats is the fixed-size operator block at the tail of every UPDATE.
type Stats struct {
	TotalEntities    uint32
	TotalObstacles   uint32
	ConnectedPlayers uint16
	TickTimeMsPerSec float32
	LosTimeMsPerSec  float32
	TickTimeMsAvg    float32
	VisibleEntities  uint16
	ServerMode       uint8
	TickRate         uint8
}

// Update is a fully decoded UPDATE frame.
type Update struct {
	MyX, MyY, MyZ float32
	Entities      []EntityState
	Bullets       []BulletState
	Hits          []HitState
	Stats         Stats
}

// Input is a decoded INPUT frame: movement intent plus view angles.
type Input struct {
	MoveX, MoveZ float32
	Yaw, Pitch   float32
}

// UpdateSize returns the encoded size of an UPDATE with the given record
// counts, for pre-sizing broadcast buffers.
func UpdateSize(entities, bullets, hits int) int {
	return 1 + 12 + 2 + entities*entityRecordSize +
		2 + bullets*bulletRecordSize +
		2 + hits*hitRecordSize +
		statsBlockSize
}

// AppendUpdate encodes the frame onto buf and returns the extended slice.
// Passing a reused buf keeps the per-tick broadcast allocation-free.
func AppendUpdate(buf []byte, u *Update) []byte {
	buf = append(buf, MsgUpdate)
	buf = appendF32(buf, u.MyX)
	buf = appendF32(buf, u.MyY)
	buf = appendF32(buf, u.MyZ)

	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(u.Entities)))
	for i := range u.Entities {
		e := &u.Entities[i]
		buf = binary.LittleEndian.AppendUint32(buf, e.ID)
		buf = appendF32(buf, e.X)
		buf = appendF32(buf, e.Y)
		buf = appendF32(buf, e.Z)
		buf = appendF32(buf, e.Yaw)
		buf = appendF32(buf, e.Pitch)
		buf = binary.LittleEndian.AppendUint16(buf, e.HP)
		buf = binary.LittleEndian.AppendUint16(buf, e.MaxHP)
		buf = append(buf, e.Flags)
	}

	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(u.Bullets)))
	for i := range u.Bullets {
		b := &u.Bullets[i]
		buf = appendF32(buf, b.X)
		buf = appendF32(buf, b.Y)
		buf = appendF32(buf, b.Z)
	}

	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(u.Hits)))
	for i := range u.Hits {
		h := &u.Hits[i]
		buf = appendF32(buf, h.X)
		buf = appendF32(buf, h.Y)
		buf = appendF32(buf, h.Z)
		if h.HitEntity {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	}

	s := &u.Stats
	buf = binary.LittleEndian.AppendUint32(buf, s.TotalEntities)
	buf = binary.LittleEndian.AppendUint32(buf, s.TotalObstacles)
	buf = binary.LittleEndian.AppendUint16(buf, s.ConnectedPlayers)
	buf = appendF32(buf, s.TickTimeMsPerSec)
	buf = appendF32(buf, s.LosTimeMsPerSec)
	buf = appendF32(buf, s.TickTimeMsAvg)
	buf = binary.LittleEndian.AppendUint16(buf, s.VisibleEntities)
	buf = append(buf, s.ServerMode, s.TickRate, 0, 0)

	return buf
}

// DecodeUpdate parses an UPDATE frame, type byte included.
func DecodeUpdate(data []byte) (*Update, error) {
	r := reader{data: data}
	if t := r.u8(); t != MsgUpdate {
		return nil, errors.Errorf("update: unexpected type byte 0x%02x", t)
	}

	u := &Update{}
	u.MyX, u.MyY, u.MyZ = r.f32(), r.f32(), r.f32()

	n := int(r.u16())
	u.Entities = make([]EntityState, n)
	for i := 0; i < n; i++ {
		e := &u.Entities[i]
		e.ID = r.u32()
		e.X, e.Y, e.Z = r.f32(), r.f32(), r.f32()
		e.Yaw, e.Pitch = r.f32(), r.f32()
		e.HP, e.MaxHP = r.u16(), r.u16()
		e.Flags = r.u8()
	}

	n = int(r.u16())
	u.Bullets = make([]BulletState, n)
	for i := 0; i < n; i++ {
		b := &u.Bullets[i]
		b.X, b.Y, b.Z = r.f32(), r.f32(), r.f32()
	}

	n = int(r.u16())
	u.Hits = make([]HitState, n)
	for i := 0; i < n; i++ {
		h := &u.Hits[i]
		h.X, h.Y, h.Z = r.f32(), r.f32(), r.f32()
		h.HitEntity = r.u8() != 0
	}

	s := &u.Stats
	s.TotalEntities = r.u32()
	s.TotalObstacles = r.u32()
	s.ConnectedPlayers = r.u16()
	s.TickTimeMsPerSec = r.f32()
	s.LosTimeMsPerSec = r.f32()
	s.TickTimeMsAvg = r.f32()
	s.VisibleEntities = r.u16()
	s.ServerMode = r.u8()
	s.TickRate = r.u8()
	r.skip(2)

	if r.failed {
		return nil, errors.New("update: truncated frame")
	}
	return u, nil
}

// EncodeInput builds a 17-byte INPUT frame.
func EncodeInput(in Input) []byte {
	buf := make([]byte, 0, InputFrameSize)
	buf = append(buf, MsgInput)
	buf = appendF32(buf, in.MoveX)
	buf = appendF32(buf, in.MoveZ)
	buf = appendF32(buf, in.Yaw)
	buf = appendF32(buf, in.Pitch)
	return buf
}

// DecodeInput parses an INPUT frame, type byte included.
func DecodeInput(data []byte) (Input, error) {
	if len(data) != InputFrameSize {
		return Input{}, errors.Errorf("input: want %d bytes, got %d", InputFrameSize, len(data))
	}
	if data[0] != MsgInput {
		return Input{}, errors.Errorf("input: unexpected type byte 0x%02x", data[0])
	}
	r := reader{data: data[1:]}
	return Input{
		MoveX: r.f32(),
		MoveZ: r.f32(),
		Yaw:   r.f32(),
		Pitch: r.f32(),
	}, nil
}

// DecodeShoot parses a SHOOT frame into the held-trigger flag.
func DecodeShoot(data []byte) (bool, error) {
	if len(data) != ShootFrameSize || data[0] != MsgShoot {
		return false, errors.Errorf("shoot: malformed frame (%d bytes)", len(data))
	}
	return data[1] != 0, nil
}

// DecodeToggleMode parses a TOGGLE_MODE frame into the LOS-mode flag.
func DecodeToggleMode(data []byte) (bool, error) {
	if len(data) != ToggleFrameSize || data[0] != MsgToggleMode {
		return false, errors.Errorf("toggle: malformed frame (%d bytes)", len(data))
	}
	return data[1] != 0, nil
}

// configEnvelope is the one-shot JSON handshake sent at session open.
type configEnvelope struct {
	Type    string        `json:"type"`
	Terrain configTerrain `json:"terrain"`
	View    float64       `json:"viewDistance"`
}

type configTerrain struct {
	Size      float64          `json:"size"`
	Obstacles []world.Obstacle `json:"obstacles"`
}

// EncodeConfig builds the CONFIG frame: type byte, then the JSON
// envelope describing the static world.
func EncodeConfig(w *world.World, viewDistance float64) ([]byte, error) {
	body, err := json.Marshal(configEnvelope{
		Type: "config",
		Terrain: configTerrain{
			Size:      w.Size,
			Obstacles: w.Obstacles,
		},
		View: viewDistance,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode config")
	}
	frame := make([]byte, 0, 1+len(body))
	frame = append(frame, MsgConfig)
	return append(frame, body...), nil
}

func appendF32(buf []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
}

// reader is a bounds-checked little-endian cursor. Reads past the end
// return zero and set failed, so decoders can check once at the end.
type reader struct {
	data   []byte
	off    int
	failed bool
}

func (r *reader) take(n int) []byte {
	if r.off+n > len(r.data) {
		r.failed = true
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) skip(n int) {
	r.take(n)
}

func (r *reader) u8() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) f32() float32 {
	return math.Float32frombits(r.u32())
}
