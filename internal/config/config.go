// Package config defines the trainer's process configuration and loading.
package config

// Config contains process configuration.
type Config struct {
	// Addr configures the HTTP listen address, e.g. ":8420".
	Addr string `koanf:"addr"`

	// DataDir is where the database, charts, and plugins live.
	DataDir string `koanf:"data_dir"`

	// StaticDir serves the dashboard assets when set.
	StaticDir string `koanf:"static_dir"`

	// CameraID selects the capture device.
	CameraID int `koanf:"camera_id"`

	// MotionThreshold is the percentage of changed pixels that counts as
	// motion.
	MotionThreshold float64 `koanf:"motion_threshold"`

	// MinConfidence is the tracking confidence below which fingertip
	// observations are dropped.
	MinConfidence float64 `koanf:"min_confidence"`

	// HitRadius is the spatial hit tolerance in play-area units.
	HitRadius float64 `koanf:"hit_radius"`

	// MoveThreshold is the displacement in play-area units beyond which a
	// contact becomes a slide instead of a tap.
	MoveThreshold float64 `koanf:"move_threshold"`

	// TapMaxDurationMs is the longest contact that still counts as a tap.
	TapMaxDurationMs int64 `koanf:"tap_max_duration_ms"`

	// PluginTimeoutMs bounds each feedback plugin execution.
	PluginTimeoutMs int `koanf:"plugin_timeout_ms"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		Addr:             ":8420",
		DataDir:          "", // resolved to ~/.taala when empty
		CameraID:         0,
		MotionThreshold:  1.0,
		MinConfidence:    0.7,
		HitRadius:        50,
		MoveThreshold:    30,
		TapMaxDurationMs: 350,
		PluginTimeoutMs:  5000,
	}
}
