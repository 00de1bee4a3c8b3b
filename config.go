package dnscache

import (
	"github.com/BurntSushi/toml"
)

// Config holds the tunables an operator sets for one Env: cache sizes
// and shard counts for both stores, the global TTL ceiling, and how
// often to log a hit-ratio summary. TOML keys are snake_case.
type Config struct {
	MaxTTL int64 `toml:"max_ttl"`

	RRsetCapacity int `toml:"rrset_capacity"`
	RRsetShards   int `toml:"rrset_shards"`

	MessageCapacity int `toml:"message_capacity"`
	MessageShards   int `toml:"message_shards"`

	// LogHitRatioEvery, when > 0, is the number of Lookup calls between
	// diagnostic hit-ratio log lines. Zero disables the summary.
	LogHitRatioEvery int64 `toml:"log_hit_ratio_every"`
}

// DefaultConfig returns the configuration a freshly started cache uses
// absent an explicit config file.
func DefaultConfig() Config {
	return Config{
		MaxTTL:           3600,
		RRsetCapacity:    65536,
		RRsetShards:      DefaultRRsetShards,
		MessageCapacity:  65536,
		MessageShards:    DefaultMessageShards,
		LogHitRatioEvery: 0,
	}
}

// LoadConfig reads a TOML config file at path, starting from
// DefaultConfig so an omitted field keeps its default rather than
// zeroing out.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}
