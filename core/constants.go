package core

const (
	OneKilobyte = 1024
	OneMegabyte = 1024 * OneKilobyte // 1024 (1KB) * 1024 => 1MB

	MinimumIntervalMs = 1

	// Largest budget accepted for the in-memory filesystem
	MaximumMemoryCapacityBytes = 256 * OneMegabyte

	WriterComponent  = "writer"
	SourceComponent  = "source"
	MetricsComponent = "metrics"
)
