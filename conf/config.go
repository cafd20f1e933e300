// Package conf loads limbo settings from an ini file.
//
//	[pool]
//	frames = 64
//
//	[log]
//	level = info
//	file  = /var/log/limbo.log
package conf

import (
	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

type Cfg struct {
	Raw *ini.File

	// pool
	PoolFrames int

	// logs
	LogLevel string
	LogFile  string
}

func NewCfg() *Cfg {
	return &Cfg{
		Raw:        ini.Empty(),
		PoolFrames: 64,
		LogLevel:   "info",
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Cfg, error) {
	cfg := NewCfg()
	if path == "" {
		return cfg, nil
	}
	raw, err := ini.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load config %s", path)
	}
	cfg.Raw = raw

	pool := raw.Section("pool")
	cfg.PoolFrames = pool.Key("frames").MustInt(cfg.PoolFrames)
	if cfg.PoolFrames < 1 {
		return nil, errors.Errorf("config %s: pool.frames must be positive, got %d", path, cfg.PoolFrames)
	}

	log := raw.Section("log")
	cfg.LogLevel = log.Key("level").MustString(cfg.LogLevel)
	cfg.LogFile = log.Key("file").MustString(cfg.LogFile)
	return cfg, nil
}
