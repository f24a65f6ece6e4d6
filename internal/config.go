package internal

// Config is the process configuration. It is filled from defaults, then
// from flags, environment variables and an optional JSON file by goconfig.
type Config struct {
	Device         string `usage:"storage device: a host directory, or a label for the memory filesystem"`
	FsKind         string `usage:"filesystem kind: host or memory"`
	MountPoint     string `usage:"mount point path"`
	FileSubPath    string `usage:"backing file path below the mount point"`
	CapacityBytes  int64  `usage:"storage budget in bytes (0 leaves a host filesystem unbounded)"`
	IntervalMs     int    `usage:"sampling interval in milliseconds"`
	SamplerCommand string `usage:"command printing one record per run (empty uses the simulator)"`
	MetricsAddr    string `usage:"metrics and health HTTP address (empty disables it)"`
	LogLevel       string `usage:"log level: debug, info, warn or error"`
	ShowConfig     bool   `usage:"print config"`
	Version        bool   `usage:"show version and exit"`
}

const DEFAULT_DEVICE = "./flash"
const DEFAULT_FS_KIND = "host"
const DEFAULT_MOUNT_POINT = "/lfs"
const DEFAULT_FILE_SUB_PATH = "/procData"
const DEFAULT_CAPACITY_BYTES = 64 * 1024
const DEFAULT_INTERVAL_MS = 100
const DEFAULT_LOG_LEVEL = "info"

func DefaultConfig() *Config {
	return &Config{
		Device:        DEFAULT_DEVICE,
		FsKind:        DEFAULT_FS_KIND,
		MountPoint:    DEFAULT_MOUNT_POINT,
		FileSubPath:   DEFAULT_FILE_SUB_PATH,
		CapacityBytes: DEFAULT_CAPACITY_BYTES,
		IntervalMs:    DEFAULT_INTERVAL_MS,
		LogLevel:      DEFAULT_LOG_LEVEL,
	}
}
