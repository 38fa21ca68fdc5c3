// Package config provides centralized configuration management: the
// env-overridable world, simulation and server settings, and the geometry
// constants the browser client must agree on metre-for-metre.
//
// Not every client-coupled or tuning constant lives here: the wire layout
// is defined in package wire, the heightmap noise formula in package
// world, and a few fixed gameplay values (entity HP, bullet hit height,
// sub-step length) in package game.
package config

import (
	"log"
	"os"
	"strconv"
)

// =============================================================================
// CLIENT-COUPLED GEOMETRY CONSTANTS
// =============================================================================

// These constants are mirrored by the client for interpolation and aiming.
// Changing any of them is a protocol-breaking change.
const (
	// EyeHeight is the camera/muzzle height above an entity's feet.
	EyeHeight = 3.0

	// EntityHeight is the top of an entity's silhouette above its feet.
	EntityHeight = 3.6

	// EntityRadius is the half-width of an entity's silhouette and hitbox.
	EntityRadius = 1.0

	// BulletRadius inflates obstacle boxes during bullet collision.
	BulletRadius = 0.3

	// GroundClearance keeps entity feet this far above the heightmap.
	GroundClearance = 2.0

	// TileSize is the heightmap sample spacing in world units.
	TileSize = 10.0

	// HeightScale scales the raw heightmap noise.
	HeightScale = 2.5
)

// =============================================================================
// WORLD CONFIGURATION
// =============================================================================

// WorldConfig holds the static world parameters. Of these, TerrainSize
// and ViewDistance also reach every client in the CONFIG frame.
type WorldConfig struct {
	TerrainSize  float64 // World extent; playable area is centered on origin
	GridSize     int     // Cells per axis of the spatial grid
	CellSize     float64 // Grid cell size in world units
	ViewDistance float64 // Radial visibility cutoff
	BotsCount    int     // Number of AI entities spawned at start
	Seed         int64   // World generation seed
}

// DefaultWorld returns the default world configuration.
func DefaultWorld() WorldConfig {
	return WorldConfig{
		TerrainSize:  2000,
		GridSize:     400,
		CellSize:     5,
		ViewDistance: 200,
		BotsCount:    600,
		Seed:         1337,
	}
}

// WorldFromEnv returns world configuration with environment overrides.
func WorldFromEnv() WorldConfig {
	cfg := DefaultWorld()

	if n := getEnvInt("BOTS_COUNT", -1); n >= 0 {
		cfg.BotsCount = n
	}
	if s := getEnvInt("WORLD_SEED", 0); s != 0 {
		cfg.Seed = int64(s)
	}
	if v := getEnvFloat("VIEW_DISTANCE", 0); v > 0 {
		cfg.ViewDistance = v
	}

	return cfg
}

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// SimConfig holds the tick-rate and combat tunables.
type SimConfig struct {
	TickRate         int     // Simulation steps per second
	PlayerSpeed      float64 // Player movement speed, units/second
	PlayerRadius     float64 // Player collision radius
	BotSpeed         float64 // Bot movement speed, units/second
	BotTurnSpeed     float64 // Bot yaw drift rate, radians/second
	FireRate         float64 // Max shots per second per player
	BulletSpeed      float64 // Units/second
	BulletDamage     int     // HP subtracted per hit
	BulletLifetimeMs int64   // Bullet expiry, milliseconds
	LosGraceTicks    int     // Ticks a lost-LOS entity stays broadcast
}

// MaxLosGraceTicks bounds the grace window. Every graced tick discloses a
// hidden entity for ~33ms, so large values reopen the wallhack hole the LOS
// filter exists to close.
const MaxLosGraceTicks = 2

// DefaultSim returns the default simulation configuration.
func DefaultSim() SimConfig {
	return SimConfig{
		TickRate:         30,
		PlayerSpeed:      50,
		PlayerRadius:     1.5,
		BotSpeed:         5,
		BotTurnSpeed:     1,
		FireRate:         5,
		BulletSpeed:      150,
		BulletDamage:     20,
		BulletLifetimeMs: 3000,
		LosGraceTicks:    1,
	}
}

// SimFromEnv returns simulation configuration with environment overrides.
// LOS_GRACE_TICKS above MaxLosGraceTicks is rejected, not clamped.
func SimFromEnv() SimConfig {
	cfg := DefaultSim()

	if t := getEnvInt("TICK_RATE", 0); t > 0 {
		cfg.TickRate = t
	}
	if g := getEnvInt("LOS_GRACE_TICKS", -1); g >= 0 {
		if g > MaxLosGraceTicks {
			log.Printf("LOS_GRACE_TICKS=%d rejected (max %d), keeping %d",
				g, MaxLosGraceTicks, cfg.LosGraceTicks)
		} else {
			cfg.LosGraceTicks = g
		}
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP/WebSocket server settings.
type ServerConfig struct {
	Port            int
	StaticDir       string // Directory of client assets served at /
	MaxConnections  int    // Total concurrent WebSocket sessions
	MaxConnsPerIP   int    // Concurrent WebSocket sessions per IP
	DebugListenAddr string // Localhost-only pprof/metrics listener
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:            3005,
		StaticDir:       "./web",
		MaxConnections:  128,
		MaxConnsPerIP:   8,
		DebugListenAddr: "127.0.0.1:6060",
	}
}

// ServerFromEnv returns server configuration with environment overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if d := os.Getenv("STATIC_DIR"); d != "" {
		cfg.StaticDir = d
	}
	if m := getEnvInt("MAX_CONNECTIONS", 0); m > 0 {
		cfg.MaxConnections = m
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	World  WorldConfig
	Sim    SimConfig
	Server ServerConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		World:  WorldFromEnv(),
		Sim:    SimFromEnv(),
		Server: ServerFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
