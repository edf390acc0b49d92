package autospawn

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// File names inside the log folder.
const (
	DaemonLogName  = "pdi_auto_spawn.log"
	CommandLogName = "pdi_command_output.log"
	LockName       = "pdi_auto_spawn.lock"
)

// ErrInvalidConfig is wrapped by every error returned from Config.Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// TimeUnit is the unit the spawn and wait intervals are given in.
type TimeUnit string

const (
	Days    TimeUnit = "d"
	Hours   TimeUnit = "h"
	Minutes TimeUnit = "m"
	Seconds TimeUnit = "s"
)

// Millis returns the number of milliseconds in one unit. False is returned if
// the unit is unknown.
func (u TimeUnit) Millis() (int64, bool) {
	switch u {
	case Days:
		return 24 * 60 * 60 * 1000, true
	case Hours:
		return 60 * 60 * 1000, true
	case Minutes:
		return 60 * 1000, true
	case Seconds:
		return 1000, true
	default:
		return 0, false
	}
}

// Name returns the unit in words, as used in log lines.
func (u TimeUnit) Name() string {
	switch u {
	case Days:
		return "days"
	case Hours:
		return "hours"
	case Minutes:
		return "minutes"
	case Seconds:
		return "seconds"
	default:
		return string(u)
	}
}

// SizeUnit is the unit the log size limit is given in.
type SizeUnit string

const (
	Kilobytes SizeUnit = "k"
	Megabytes SizeUnit = "m"
	Gigabytes SizeUnit = "g"
)

// Bytes returns the number of bytes in one unit. False is returned if the unit
// is unknown.
func (u SizeUnit) Bytes() (int64, bool) {
	switch u {
	case Kilobytes:
		return 1 << 10, true
	case Megabytes:
		return 1 << 20, true
	case Gigabytes:
		return 1 << 30, true
	default:
		return 0, false
	}
}

// Config is the supervisor configuration. It must not be modified once the
// supervisor has been created.
type Config struct {
	// Command is the shell command line that is respawned.
	Command string `yaml:"command"`
	// LogFolder contains the daemon log, the command output log and the lock
	// file.
	LogFolder string `yaml:"log_folder"`
	// WorkDir is the working directory of the spawned command.
	WorkDir string `yaml:"workdir"`

	// SpawnInterval is how long to wait after launching a process, in
	// TimeUnit.
	SpawnInterval int `yaml:"spawn_interval"`
	// WaitInterval is how long to wait before polling a process that is still
	// running, in TimeUnit.
	WaitInterval int      `yaml:"wait_interval"`
	TimeUnit     TimeUnit `yaml:"time_unit"`

	// LogLimit is the daemon log size, in SizeUnit, past which it is rotated.
	LogLimit int      `yaml:"log_limit"`
	SizeUnit SizeUnit `yaml:"size_unit"`

	// CPULimit is the CPU percentage the spawned process is throttled to. A
	// value of 0 or less disables throttling.
	CPULimit     int    `yaml:"cpu_limit"`
	ThrottleTool string `yaml:"throttle_tool"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Command:       "/opt/di/kitchen.sh -file=/opt/pdi/mirth_archiving_only.kjb",
		LogFolder:     "/tmp/logs",
		WorkDir:       "/opt/di",
		SpawnInterval: 60,
		WaitInterval:  10,
		TimeUnit:      Seconds,
		LogLimit:      10,
		SizeUnit:      Kilobytes,
		CPULimit:      0,
		ThrottleTool:  "cpulimit",
	}
}

// LoadConfigFile decodes the YAML file at path over cfg. Keys absent from the
// file keep their current values in cfg.
func LoadConfigFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "failed to open config file")
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	// An empty file decodes to io.EOF and overrides nothing.
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return errors.Wrapf(err, "failed to decode config file %s", path)
	}

	return nil
}

// Validate checks the invariants of the configuration.
func (cfg Config) Validate() error {
	switch {
	case cfg.Command == "":
		return errors.Wrap(ErrInvalidConfig, "command is empty")
	case cfg.LogFolder == "":
		return errors.Wrap(ErrInvalidConfig, "log folder is empty")
	case cfg.SpawnInterval <= 0:
		return errors.Wrapf(ErrInvalidConfig, "spawn interval %d is not positive", cfg.SpawnInterval)
	case cfg.WaitInterval <= 0:
		return errors.Wrapf(ErrInvalidConfig, "wait interval %d is not positive", cfg.WaitInterval)
	case cfg.LogLimit <= 0:
		return errors.Wrapf(ErrInvalidConfig, "log limit %d is not positive", cfg.LogLimit)
	case cfg.CPULimit > 0 && cfg.ThrottleTool == "":
		return errors.Wrap(ErrInvalidConfig, "cpu limit is set but throttle tool is empty")
	}

	if _, ok := cfg.TimeUnit.Millis(); !ok {
		return errors.Wrapf(ErrInvalidConfig, "unknown time unit %q", cfg.TimeUnit)
	}
	if _, ok := cfg.SizeUnit.Bytes(); !ok {
		return errors.Wrapf(ErrInvalidConfig, "unknown size unit %q", cfg.SizeUnit)
	}

	if max := cfg.maxInterval(); int64(cfg.SpawnInterval) > max {
		return errors.Wrapf(ErrInvalidConfig, "spawn interval %d exceeds %d", cfg.SpawnInterval, max)
	}
	if max := cfg.maxInterval(); int64(cfg.WaitInterval) > max {
		return errors.Wrapf(ErrInvalidConfig, "wait interval %d exceeds %d", cfg.WaitInterval, max)
	}

	b, _ := cfg.SizeUnit.Bytes()
	if max := math.MaxInt64 / b; int64(cfg.LogLimit) > max {
		return errors.Wrapf(ErrInvalidConfig, "log limit %d exceeds %d", cfg.LogLimit, max)
	}

	return nil
}

// maxInterval returns the largest interval in TimeUnit that fits a
// time.Duration.
func (cfg Config) maxInterval() int64 {
	ms, _ := cfg.TimeUnit.Millis()
	return math.MaxInt64 / (ms * int64(time.Millisecond))
}

// SpawnDuration returns the time to sleep after a launch.
func (cfg Config) SpawnDuration() time.Duration {
	return cfg.intervalDuration(cfg.SpawnInterval)
}

// WaitDuration returns the time to sleep while the previous process is still
// running.
func (cfg Config) WaitDuration() time.Duration {
	return cfg.intervalDuration(cfg.WaitInterval)
}

func (cfg Config) intervalDuration(interval int) time.Duration {
	ms, _ := cfg.TimeUnit.Millis()
	return time.Duration(int64(interval)*ms) * time.Millisecond
}

// RotateLimit returns the daemon log size in bytes past which it is rotated.
func (cfg Config) RotateLimit() int64 {
	b, _ := cfg.SizeUnit.Bytes()
	return int64(cfg.LogLimit) * b
}

// DaemonLogPath returns the path of the supervisor's own log.
func (cfg Config) DaemonLogPath() string {
	return filepath.Join(cfg.LogFolder, DaemonLogName)
}

// CommandLogPath returns the path the spawned command writes its output to.
func (cfg Config) CommandLogPath() string {
	return filepath.Join(cfg.LogFolder, CommandLogName)
}

// LockPath returns the path of the single-instance lock file.
func (cfg Config) LockPath() string {
	return filepath.Join(cfg.LogFolder, LockName)
}

// ThrottleEnabled returns true if spawned processes are CPU throttled.
func (cfg Config) ThrottleEnabled() bool {
	return cfg.CPULimit > 0
}
