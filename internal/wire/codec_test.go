package wire

import (
	"encoding/json"
	"math"
	"reflect"
	"strings"
	"testing"

	"sightline/internal/config"
	"sightline/internal/geom"
	"sightline/internal/world"
)

func sampleUpdate() *Update {
	return &Update{
		MyX: 12.5, MyY: 3.25, MyZ: -40,
		Entities: []EntityState{
			{ID: 0, X: 1, Y: 2, Z: 3, Yaw: 0.5, Pitch: -0.25, HP: 80, MaxHP: 100},
			{ID: 1007, X: -9.5, Y: 2.5, Z: 64, Yaw: 3.1, Pitch: 0, HP: 100, MaxHP: 100, Flags: FlagIsPlayer},
		},
		Bullets: []BulletState{
			{X: 4, Y: 5, Z: 6},
		},
		Hits: []HitState{
			{X: 9.75, Y: 3, Z: 0, HitEntity: false},
			{X: -2, Y: 4, Z: 11, HitEntity: true},
		},
		Stats: Stats{
			TotalEntities:    602,
			TotalObstacles:   350,
			ConnectedPlayers: 2,
			TickTimeMsPerSec: 48.2,
			LosTimeMsPerSec:  12.1,
			TickTimeMsAvg:    1.6,
			VisibleEntities:  14,
			ServerMode:       1,
			TickRate:         30,
		},
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	in := sampleUpdate()
	frame := AppendUpdate(nil, in)

	if want := UpdateSize(len(in.Entities), len(in.Bullets), len(in.Hits)); len(frame) != want {
		t.Fatalf("encoded size = %d, UpdateSize = %d", len(frame), want)
	}

	out, err := DecodeUpdate(frame)
	if err != nil {
		t.Fatalf("DecodeUpdate: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch:\n in %+v\nout %+v", in, out)
	}
}

func TestUpdateRoundTripEmpty(t *testing.T) {
	in := &Update{
		MyX:      1,
		Entities: []EntityState{},
		Bullets:  []BulletState{},
		Hits:     []HitState{},
		Stats:    Stats{TickRate: 30},
	}
	frame := AppendUpdate(nil, in)

	if want := UpdateSize(0, 0, 0); len(frame) != want {
		t.Fatalf("empty frame = %d bytes, want %d", len(frame), want)
	}

	out, err := DecodeUpdate(frame)
	if err != nil {
		t.Fatalf("DecodeUpdate: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch:\n in %+v\nout %+v", in, out)
	}
}

func TestAppendUpdateReusesBuffer(t *testing.T) {
	u := sampleUpdate()
	buf := AppendUpdate(nil, u)
	first := cap(buf)

	// Encoding into buf[:0] must not grow the backing array.
	buf = AppendUpdate(buf[:0], u)
	if cap(buf) != first {
		t.Errorf("buffer reallocated: cap %d -> %d", first, cap(buf))
	}
}

func TestDecodeUpdateTruncated(t *testing.T) {
	frame := AppendUpdate(nil, sampleUpdate())

	for _, n := range []int{0, 1, 5, 13, len(frame) / 2, len(frame) - 1} {
		if _, err := DecodeUpdate(frame[:n]); err == nil {
			t.Errorf("truncation to %d bytes should fail", n)
		}
	}
}

func TestDecodeUpdateWrongType(t *testing.T) {
	frame := AppendUpdate(nil, sampleUpdate())
	frame[0] = MsgInput
	if _, err := DecodeUpdate(frame); err == nil {
		t.Error("wrong type byte should fail")
	}
}

func TestInputRoundTripBitExact(t *testing.T) {
	inputs := []Input{
		{MoveX: 1, MoveZ: -1, Yaw: 2.5, Pitch: -0.7},
		{},
		{MoveX: -0.0001, MoveZ: 0.9999, Yaw: float32(math.Pi), Pitch: float32(-math.Pi / 2)},
		{Yaw: math.MaxFloat32, Pitch: math.SmallestNonzeroFloat32},
	}
	for _, in := range inputs {
		frame := EncodeInput(in)
		if len(frame) != InputFrameSize {
			t.Fatalf("input frame = %d bytes, want %d", len(frame), InputFrameSize)
		}
		out, err := DecodeInput(frame)
		if err != nil {
			t.Fatalf("DecodeInput: %v", err)
		}
		if out != in {
			t.Errorf("round trip: got %+v, want %+v", out, in)
		}
	}
}

func TestDecodeInputMalformed(t *testing.T) {
	good := EncodeInput(Input{MoveX: 1})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", good[:16]},
		{"long", append(append([]byte{}, good...), 0)},
		{"wrong type", append([]byte{MsgShoot}, good[1:]...)},
	}
	for _, tt := range tests {
		if _, err := DecodeInput(tt.data); err == nil {
			t.Errorf("%s: want error", tt.name)
		}
	}
}

func TestDecodeShoot(t *testing.T) {
	if on, err := DecodeShoot([]byte{MsgShoot, 1}); err != nil || !on {
		t.Errorf("shoot on = (%v, %v), want (true, nil)", on, err)
	}
	if on, err := DecodeShoot([]byte{MsgShoot, 0}); err != nil || on {
		t.Errorf("shoot off = (%v, %v), want (false, nil)", on, err)
	}
	for _, bad := range [][]byte{nil, {MsgShoot}, {MsgShoot, 1, 0}, {MsgInput, 1}} {
		if _, err := DecodeShoot(bad); err == nil {
			t.Errorf("DecodeShoot(%v) should fail", bad)
		}
	}
}

func TestDecodeToggleMode(t *testing.T) {
	if on, err := DecodeToggleMode([]byte{MsgToggleMode, 1}); err != nil || !on {
		t.Errorf("toggle on = (%v, %v), want (true, nil)", on, err)
	}
	for _, bad := range [][]byte{nil, {MsgToggleMode}, {MsgUpdate, 1}} {
		if _, err := DecodeToggleMode(bad); err == nil {
			t.Errorf("DecodeToggleMode(%v) should fail", bad)
		}
	}
}

func TestEncodeConfig(t *testing.T) {
	w := &world.World{
		Size: 2000,
		Obstacles: []world.Obstacle{
			{
				Kind: world.KindHouseWall,
				Box: geom.AABB{
					Center: geom.Vec3{X: 1, Y: 2, Z: 3},
					Size:   geom.Vec3{X: 4, Y: 5, Z: 6},
				},
			},
		},
	}

	frame, err := EncodeConfig(w, config.DefaultWorld().ViewDistance)
	if err != nil {
		t.Fatalf("EncodeConfig: %v", err)
	}
	if frame[0] != MsgConfig {
		t.Fatalf("type byte = 0x%02x, want 0x%02x", frame[0], MsgConfig)
	}

	var env struct {
		Type    string  `json:"type"`
		View    float64 `json:"viewDistance"`
		Terrain struct {
			Size      float64           `json:"size"`
			Obstacles []json.RawMessage `json:"obstacles"`
		} `json:"terrain"`
	}
	if err := json.Unmarshal(frame[1:], &env); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if env.Type != "config" {
		t.Errorf("type = %q, want config", env.Type)
	}
	if env.Terrain.Size != 2000 {
		t.Errorf("terrain size = %v, want 2000", env.Terrain.Size)
	}
	if len(env.Terrain.Obstacles) != 1 {
		t.Fatalf("obstacles = %d, want 1", len(env.Terrain.Obstacles))
	}
	if !strings.Contains(string(env.Terrain.Obstacles[0]), `"position"`) {
		t.Errorf("obstacle missing position: %s", env.Terrain.Obstacles[0])
	}
}
