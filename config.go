package main

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the full server configuration, loaded from a TOML file over
// defaults.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	World   WorldConfig   `toml:"world"`
	Spatial SpatialConfig `toml:"spatial"`
	Pools   PoolsConfig   `toml:"pools"`
	Game    GameConfig    `toml:"game"`
	Debris  DebrisConfig  `toml:"debris"`
	Logging LoggingConfig `toml:"logging"`
}

type ServerConfig struct {
	Addr      string `toml:"addr"`
	PublicURL string `toml:"public_url"` // base URL encoded into QR join codes
	ClientDir string `toml:"client_dir"`
	DBPath    string `toml:"db_path"`
}

type WorldConfig struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

// SpatialConfig sizes the broad-phase grid. CellSize must be at least twice
// the largest entity radius (here the largest asteroid).
type SpatialConfig struct {
	CellSize float64 `toml:"cell_size"`
}

type PoolConfig struct {
	Initial int `toml:"initial"`
	Max     int `toml:"max"`
}

type PoolsConfig struct {
	Asteroids PoolConfig `toml:"asteroids"`
	Shots     PoolConfig `toml:"shots"`
}

type GameConfig struct {
	TickRate       int     `toml:"tick_rate"`       // physics ticks per second
	BroadcastEvery int     `toml:"broadcast_every"` // state broadcast every N ticks
	SpawnInterval  float64 `toml:"spawn_interval"`  // seconds between asteroid spawns
	ScanRange      float64 `toml:"scan_range"`
	ScanTimeQuick  float64 `toml:"scan_time_quick"`
	ScanTimeFull   float64 `toml:"scan_time_full"`
}

type DebrisConfig struct {
	UseMock   bool          `toml:"use_mock"`
	CachePath string        `toml:"cache_path"`
	CacheTTL  time.Duration `toml:"cache_ttl"`
	Timeout   time.Duration `toml:"timeout"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:      ":8080",
			PublicURL: "http://localhost:8080",
			ClientDir: "client",
			DBPath:    "astrotag.db",
		},
		World: WorldConfig{
			Width:  4000,
			Height: 4000,
		},
		Spatial: SpatialConfig{
			// 2x the largest asteroid radius plus slack
			CellSize: AsteroidMaxRadius*2 + 8,
		},
		Pools: PoolsConfig{
			Asteroids: PoolConfig{Initial: 100, Max: 500},
			Shots:     PoolConfig{Initial: 50, Max: 200},
		},
		Game: GameConfig{
			TickRate:       60,
			BroadcastEvery: 2,
			SpawnInterval:  0.8,
			ScanRange:      300,
			ScanTimeQuick:  1.0,
			ScanTimeFull:   3.0,
		},
		Debris: DebrisConfig{
			UseMock:   true,
			CachePath: "debris_cache.json",
			CacheTTL:  24 * time.Hour,
			Timeout:   10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig reads a TOML config file over the defaults. An empty path
// returns the defaults unchanged.
func LoadConfig(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the simulation core cannot be constructed
// from.
func (c *Config) Validate() error {
	if c.Spatial.CellSize <= 0 {
		return fmt.Errorf("config: spatial cell_size must be positive, got %g", c.Spatial.CellSize)
	}
	if c.Spatial.CellSize < AsteroidMaxRadius*2 {
		return fmt.Errorf("config: spatial cell_size %g below 2x max asteroid radius %g",
			c.Spatial.CellSize, AsteroidMaxRadius)
	}
	for _, p := range []struct {
		name string
		cfg  PoolConfig
	}{
		{"asteroids", c.Pools.Asteroids},
		{"shots", c.Pools.Shots},
	} {
		if p.cfg.Max <= 0 {
			return fmt.Errorf("config: pools.%s max must be positive, got %d", p.name, p.cfg.Max)
		}
		if p.cfg.Initial < 0 || p.cfg.Initial > p.cfg.Max {
			return fmt.Errorf("config: pools.%s initial %d out of range [0, %d]",
				p.name, p.cfg.Initial, p.cfg.Max)
		}
	}
	if c.Game.TickRate <= 0 {
		return fmt.Errorf("config: game tick_rate must be positive, got %d", c.Game.TickRate)
	}
	if c.Game.BroadcastEvery <= 0 {
		return fmt.Errorf("config: game broadcast_every must be positive, got %d", c.Game.BroadcastEvery)
	}
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("config: world size must be positive, got %gx%g", c.World.Width, c.World.Height)
	}
	return nil
}
