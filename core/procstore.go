package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"path"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/0xRadioAc7iv/procstore/internal"
	"github.com/0xRadioAc7iv/procstore/internal/metrics"
	"github.com/0xRadioAc7iv/procstore/internal/mount"
	"github.com/0xRadioAc7iv/procstore/internal/ringwriter"
	"github.com/0xRadioAc7iv/procstore/internal/source"
	"github.com/0xRadioAc7iv/procstore/internal/storage"
)

// ProcStore mounts the storage device, then samples a record every Interval
// and persists it into the backing file until stopped.
type ProcStore struct {
	mountHandle   *mount.Handle
	writer        *ringwriter.Writer
	source        *source.Source
	registry      *prometheus.Registry
	sourceCancel  context.CancelFunc
	sourceDone    chan struct{}
	metricsCancel context.CancelFunc
	metricsAddr   net.Addr
	logger        *slog.Logger

	lifecycleMu sync.Mutex // for Start + Stop
	started     bool

	Device         string
	FsKind         string
	MountPoint     string
	FileSubPath    string
	CapacityBytes  int64
	Interval       time.Duration
	SamplerCommand string
	MetricsAddr    string
	Logger         *slog.Logger
}

var ErrAlreadyStarted = errors.New("procstore already started")

func (ps *ProcStore) Start() error {
	ps.lifecycleMu.Lock()
	defer ps.lifecycleMu.Unlock()

	if ps.started {
		return ErrAlreadyStarted
	}

	ps.applyDefaults()
	if err := ps.validate(); err != nil {
		return err
	}

	h, err := mount.Mount(mount.Config{
		Kind:          storage.Kind(ps.FsKind),
		Device:        ps.Device,
		MountPoint:    ps.MountPoint,
		CapacityBytes: ps.CapacityBytes,
	})
	if err != nil {
		ps.logger.Error("FAIL: mount", "device", ps.Device, "mount_point", ps.MountPoint, "error", err)
		return err
	}
	ps.logger.Debug("mounted", "mount_point", h.MountPoint(), "kind", ps.FsKind)
	ps.mountHandle = h

	sampler, err := ps.newSampler()
	if err != nil {
		ps.unmount()
		return err
	}

	ps.registry = prometheus.NewRegistry()
	collector := metrics.NewCollector(ps.registry)

	ps.writer = ringwriter.New(h, ps.BackingFilePath(),
		ringwriter.WithLogger(ps.logger.With("component", WriterComponent)),
		ringwriter.WithObserver(collector),
	)

	ps.source = source.New(ps.Interval, sampler, ps.writer,
		source.WithLogger(ps.logger.With("component", SourceComponent)),
		source.WithObserver(collector),
	)

	if ps.MetricsAddr != "" {
		metricsCtx, metricsCancel := context.WithCancel(context.Background())
		handler := metrics.Handler(ps.registry, ps.health)
		addr, err := metrics.Serve(metricsCtx, ps.MetricsAddr, handler, ps.logger.With("component", MetricsComponent))
		if err != nil {
			metricsCancel()
			ps.unmount()
			return fmt.Errorf("start metrics server: %w", err)
		}
		ps.metricsCancel = metricsCancel
		ps.metricsAddr = addr
	}

	sourceCtx, sourceCancel := context.WithCancel(context.Background())
	ps.sourceCancel = sourceCancel
	ps.sourceDone = make(chan struct{})
	go func() {
		defer close(ps.sourceDone)
		ps.source.Run(sourceCtx)
	}()

	ps.started = true

	ps.logger.Info("procstore started",
		"file", ps.BackingFilePath(),
		"interval", ps.Interval.String(),
		"capacity_bytes", ps.CapacityBytes,
	)

	return nil
}

func (ps *ProcStore) applyDefaults() {
	if ps.Logger == nil {
		ps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ps.logger = ps.Logger

	if ps.FsKind == "" {
		ps.FsKind = internal.DEFAULT_FS_KIND
	}
	if ps.MountPoint == "" {
		ps.MountPoint = internal.DEFAULT_MOUNT_POINT
	}
	if ps.FileSubPath == "" {
		ps.FileSubPath = internal.DEFAULT_FILE_SUB_PATH
	}
	if ps.Interval == 0 {
		ps.Interval = internal.DEFAULT_INTERVAL_MS * time.Millisecond
	}
}

func (ps *ProcStore) validate() error {
	if ps.Interval < MinimumIntervalMs*time.Millisecond {
		return fmt.Errorf("interval %s is below the %dms minimum", ps.Interval, MinimumIntervalMs)
	}
	if storage.Kind(ps.FsKind) == storage.KindMemory && ps.CapacityBytes > MaximumMemoryCapacityBytes {
		return fmt.Errorf("memory capacity %d exceeds %d bytes", ps.CapacityBytes, MaximumMemoryCapacityBytes)
	}
	return nil
}

func (ps *ProcStore) newSampler() (source.Sampler, error) {
	if ps.SamplerCommand == "" {
		return source.NewSimulator(), nil
	}

	sampler, err := source.NewCommandSampler(ps.SamplerCommand)
	if err != nil {
		return nil, err
	}
	ps.logger.Info("using sampler command", "command", sampler.String())

	return sampler, nil
}

// health stays ok while the device is mounted; persist errors are reported
// in the state but heal on a later tick.
func (ps *ProcStore) health() (bool, string) {
	state := fmt.Sprintf("offset=%d ticks=%d", ps.writer.Offset(), ps.source.Ticks())
	if err := ps.source.LastError(); err != nil {
		state += fmt.Sprintf(" last_error=%q", err.Error())
	}
	return ps.mountHandle.Mounted(), state
}

func (ps *ProcStore) unmount() {
	if ps.mountHandle == nil {
		return
	}
	if err := ps.mountHandle.Unmount(); err != nil {
		ps.logger.Error("Error while unmounting", "mount_point", ps.mountHandle.MountPoint(), "error", err)
	}
}

// Stop halts the periodic source, waits for an in-flight persist to finish,
// stops the metrics server and unmounts the device.
func (ps *ProcStore) Stop() {
	ps.lifecycleMu.Lock()
	defer ps.lifecycleMu.Unlock()

	if !ps.started {
		return
	}
	ps.started = false

	ps.sourceCancel()
	<-ps.sourceDone

	if ps.metricsCancel != nil {
		ps.metricsCancel()
		ps.metricsCancel = nil
	}

	ps.unmount()

	stats := ps.writer.Stats()
	ps.logger.Info("procstore stopped",
		"offset", ps.writer.Offset(),
		"persisted", stats.Persisted,
		"wraps", stats.Wraps,
		"failures", stats.Failures,
	)
}

// BackingFilePath is the mount-point-absolute path of the circular file.
func (ps *ProcStore) BackingFilePath() string {
	return path.Join(ps.MountPoint, ps.FileSubPath)
}

func (ps *ProcStore) Offset() int64 {
	return ps.writer.Offset()
}

func (ps *ProcStore) Stats() ringwriter.Stats {
	return ps.writer.Stats()
}

func (ps *ProcStore) Ticks() uint64 {
	return ps.source.Ticks()
}

// Filesystem returns the mounted filesystem backing the store.
func (ps *ProcStore) Filesystem() storage.Filesystem {
	return ps.mountHandle.Filesystem()
}

// MetricsAddress returns the bound metrics address, or nil when disabled.
func (ps *ProcStore) MetricsAddress() net.Addr {
	return ps.metricsAddr
}

func (ps *ProcStore) Registry() *prometheus.Registry {
	return ps.registry
}

// FromConfig builds an unstarted ProcStore from the process configuration.
func FromConfig(c *internal.Config, logger *slog.Logger) *ProcStore {
	return &ProcStore{
		Device:         c.Device,
		FsKind:         c.FsKind,
		MountPoint:     c.MountPoint,
		FileSubPath:    c.FileSubPath,
		CapacityBytes:  c.CapacityBytes,
		Interval:       time.Duration(c.IntervalMs) * time.Millisecond,
		SamplerCommand: c.SamplerCommand,
		MetricsAddr:    c.MetricsAddr,
		Logger:         logger,
	}
}
