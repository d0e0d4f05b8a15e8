// Package conf holds the bootstrap configuration, scanned from YAML via the
// kratos config file source.
package conf

import "time"

// Bootstrap is the root configuration.
type Bootstrap struct {
	Server *Server `json:"server"`
	Data   *Data   `json:"data"`
	Engine *Engine `json:"engine"`
}

// Server configures the transport layer.
type Server struct {
	HTTP HTTPServer `json:"http"`
}

type HTTPServer struct {
	Network string `json:"network"`
	Addr    string `json:"addr"`
	Timeout string `json:"timeout"`
}

// TimeoutDuration parses the HTTP timeout, defaulting to 1s.
func (s HTTPServer) TimeoutDuration() time.Duration {
	return parseDuration(s.Timeout, time.Second)
}

// Data configures persistence collaborators.
type Data struct {
	Database Database `json:"database"`
	Redis    Redis    `json:"redis"`
}

type Database struct {
	Driver string `json:"driver"`
	Source string `json:"source"`
	Pool   Pool   `json:"pool"`
}

type Pool struct {
	MaxOpenConns    int32 `json:"max_open_conns"`
	MinIdleConns    int32 `json:"min_idle_conns"`
	MaxConnLifetime int32 `json:"max_conn_lifetime"` // minutes
	MaxConnIdleTime int32 `json:"max_conn_idle_time"` // minutes
}

type Redis struct {
	Network      string `json:"network"`
	Addr         string `json:"addr"`
	ReadTimeout  string `json:"read_timeout"`
	WriteTimeout string `json:"write_timeout"`
}

// ReadTimeoutDuration parses the redis read timeout, 0 means driver default.
func (r Redis) ReadTimeoutDuration() time.Duration {
	return parseDuration(r.ReadTimeout, 0)
}

// WriteTimeoutDuration parses the redis write timeout, 0 means driver default.
func (r Redis) WriteTimeoutDuration() time.Duration {
	return parseDuration(r.WriteTimeout, 0)
}

// Engine configures the scoring and aggregation behavior.
type Engine struct {
	// DictionaryTTL bounds how long a dictionary snapshot is served
	// before it is rebuilt from storage.
	DictionaryTTL string `json:"dictionary_ttl"`
	// AggregatorSpec is the cron spec of the stats aggregator.
	AggregatorSpec string `json:"aggregator_spec"`
	// AggregatorWindow is the trailing window of user actions each
	// aggregator run recomputes from scratch.
	AggregatorWindow string `json:"aggregator_window"`
	// AggregatorLockTTL caps how long a crashed run can hold the run lock.
	AggregatorLockTTL string `json:"aggregator_lock_ttl"`
	// MinRecommendUsers is the default unique-users threshold for
	// filter suggestions.
	MinRecommendUsers int64  `json:"min_recommend_users"`
	BloomKey          string `json:"bloom_key"`
	BloomBits         uint   `json:"bloom_bits"`
	BloomHashes       uint   `json:"bloom_hashes"`
}

func (e *Engine) DictionaryTTLDuration() time.Duration {
	return parseDuration(e.DictionaryTTL, 5*time.Minute)
}

func (e *Engine) WindowDuration() time.Duration {
	return parseDuration(e.AggregatorWindow, 24*time.Hour)
}

func (e *Engine) LockTTLDuration() time.Duration {
	return parseDuration(e.AggregatorLockTTL, 15*time.Minute)
}

func (e *Engine) CronSpec() string {
	if e.AggregatorSpec == "" {
		return "@hourly"
	}
	return e.AggregatorSpec
}

func (e *Engine) MinUsersThreshold() int64 {
	if e.MinRecommendUsers <= 0 {
		return 3
	}
	return e.MinRecommendUsers
}

// Bloom returns the prefilter parameters with defaults applied.
func (e *Engine) Bloom() (key string, bits, hashes uint) {
	key, bits, hashes = e.BloomKey, e.BloomBits, e.BloomHashes
	if key == "" {
		key = "jobquality:bloom:dictionary"
	}
	if bits == 0 {
		bits = 1024 * 1024 * 8
	}
	if hashes == 0 {
		hashes = 5
	}
	return key, bits, hashes
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return def
	}
	return d
}
