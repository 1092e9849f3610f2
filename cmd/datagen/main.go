package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/frqc/data-generation/internal/barrier"
	"github.com/frqc/data-generation/internal/config"
	"github.com/frqc/data-generation/internal/driver"
	"github.com/frqc/data-generation/internal/geo"
	"github.com/frqc/data-generation/internal/influx"
	"github.com/frqc/data-generation/internal/intake"
	"github.com/frqc/data-generation/internal/logging"
	"github.com/frqc/data-generation/internal/monitor"
	intOtel "github.com/frqc/data-generation/internal/otel"
	"github.com/frqc/data-generation/internal/rig"
	"github.com/frqc/data-generation/internal/run"
	"github.com/frqc/data-generation/internal/sim/simworld"
	"github.com/frqc/data-generation/internal/weather"
	"github.com/frqc/data-generation/pkg/core"
	"github.com/rs/zerolog"
)

// version info - can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	AppName string = "datagen"
)

// global services
var (
	SessionStartTime time.Time = time.Now()

	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	// Diag is the low-volume zerolog operational channel
	Diag zerolog.Logger

	RunContext     *run.Context
	influxManager  *influx.Manager
	monitorService *monitor.Service
)

func main() {
	configDir := flag.String("config", ".", "directory containing datagen.cfg.json")
	frames := flag.Int("frames", 100, "number of frames to record")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s (built %s)\n", AppName, CurrentVersion, BuildDate)
		return
	}

	if err := realMain(*configDir, *frames); err != nil {
		if Logger != nil {
			Logger.Error("Run failed", "error", err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func realMain(configDir string, frames int) error {
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, "info", nil)
	Logger = SlogManager.Logger()

	if err := config.Load(configDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config")
	}

	logsDir := viper.GetString("logsDir")
	if _, err := os.Stat(logsDir); os.IsNotExist(err) {
		os.MkdirAll(logsDir, 0755)
	}

	logFilePath := filepath.Join(logsDir,
		fmt.Sprintf("%s.%s.log", AppName, SessionStartTime.Format("20060102_150405")))
	var logWriter io.Writer
	logFile, err := os.OpenFile(logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", logFilePath)
	} else {
		logWriter = logFile
		defer logFile.Close()
	}

	// Initialize OTel provider if enabled (after log file is created)
	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		OTelProvider, err = intOtel.New(intOtel.Config{
			Enabled:      otelCfg.Enabled,
			ServiceName:  otelCfg.ServiceName,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    logWriter,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		} else {
			Logger.Info("OTel provider initialized", "file", logFilePath)
		}
	}

	// Re-setup logging with file output and optional OTel
	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	SlogManager.Setup(logWriter, viper.GetString("logLevel"), otelLogProvider)

	RunContext = run.NewContext(viper.GetString("runTag"), "simworld")

	// Wrap the logger so every record carries the run ID and current frame.
	Logger = slog.New(logging.NewContextHandler(SlogManager.Logger().Handler(), func() []slog.Attr {
		return []slog.Attr{
			slog.String("runID", RunContext.GetRun().RunID),
			slog.Uint64("frame", RunContext.Frame()),
		}
	}))
	Logger.Info("Logging to file", "path", logFilePath)

	// Diagnostic channel: console plus optional Graylog shipping.
	graylogAddr := ""
	if viper.GetBool("graylog.enabled") {
		graylogAddr = viper.GetString("graylog.address")
	}
	Diag, err = logging.NewDiagLogger(logging.DiagConfig{
		Level:          viper.GetString("logLevel"),
		Console:        true,
		GraylogAddress: graylogAddr,
	}, zerolog.HookFunc(func(e *zerolog.Event, level zerolog.Level, msg string) {
		e.Str("runID", RunContext.GetRun().RunID)
	}))
	if err != nil {
		Logger.Warn("Failed to set up diagnostic logger", "error", err)
		Diag = zerolog.Nop()
	}
	Diag.Info().Str("version", CurrentVersion).Msg("Starting up")

	if viper.GetBool("influx.enabled") {
		influxManager = influx.NewManager(Diag, filepath.Join(logsDir, "influx_backup.log.gzip"))
		if err := influxManager.Connect(); err != nil {
			Logger.Warn("InfluxDB unavailable, metrics will use backup writer", "error", err)
		}
		defer influxManager.Close()
	}

	storageBackend, err := createStorageBackend()
	if err != nil {
		return fmt.Errorf("creating storage backend: %w", err)
	}
	if err := storageBackend.Init(); err != nil {
		return fmt.Errorf("initializing storage backend: %w", err)
	}
	defer storageBackend.Close()

	// Rig geometry: cam_i sits i*offsetStep to the right of the reference.
	rigCfg := config.GetRigConfig()
	names := make([]core.SensorName, 0, rigCfg.Cameras)
	offsets := make(rig.OffsetTable, rigCfg.Cameras)
	for i := 0; i < rigCfg.Cameras; i++ {
		name := core.SensorName(fmt.Sprintf("cam_%d", i))
		names = append(names, name)
		offsets[name] = float64(i) * rigCfg.OffsetStep
	}
	registry, err := rig.NewRegistry(names)
	if err != nil {
		return err
	}

	seed := viper.GetInt64("sim.seed")
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	var plannerOpts []rig.Option
	if rigCfg.RandomizeHeading {
		plannerOpts = append(plannerOpts, rig.WithRandomHeading(rng))
	}
	planner := rig.NewPlanner(offsets, plannerOpts...)

	collectCfg := config.GetCollectConfig()
	q := intake.New(collectCfg.IntakeBuffer)
	b, err := barrier.New(q, Logger)
	if err != nil {
		return fmt.Errorf("creating barrier: %w", err)
	}

	world := simworld.New(simworld.Config{
		ImageHeight: viper.GetInt("sim.imageHeight"),
		ImageWidth:  viper.GetInt("sim.imageWidth"),
		MaxLatency:  viper.GetDuration("sim.maxSensorLatency"),
		Seed:        seed,
	})

	var picker *weather.Picker
	if viper.GetBool("weather.enabled") {
		picker = weather.NewPicker(rng)
	}

	trajectory := geo.NewTrajectory()

	driverDeps := driver.Dependencies{
		World:      world,
		Intake:     q,
		Barrier:    b,
		Registry:   registry,
		Offsets:    offsets,
		Planner:    planner,
		Storage:    storageBackend,
		RunContext: RunContext,
		Logger:     Logger,
		Rand:       rng,
		Weather:    picker,
		Trajectory: trajectory,
	}
	if influxManager != nil {
		driverDeps.Metrics = influxManager
	}

	d, err := driver.New(driver.Config{
		Frames:           frames,
		PerSensorTimeout: collectCfg.PerSensorTimeout,
		FixedDelta:       viper.GetDuration("sim.fixedDelta"),
		WeatherEvery:     viper.GetInt("weather.everyFrames"),
	}, driverDeps)
	if err != nil {
		return err
	}

	// GORM-backed storage backends can persist collector health rows
	perfRecorder, _ := storageBackend.(monitor.PerformanceRecorder)

	monitorService = monitor.NewService(monitor.Dependencies{
		LogManager:  SlogManager,
		RunContext:  RunContext,
		Influx:      influxManager,
		Performance: perfRecorder,
		StatusDir:   logsDir,
		Snapshot: func() monitor.Status {
			stats := d.Stats()
			return monitor.Status{
				FramesComplete: stats.FramesComplete,
				FramesPartial:  stats.FramesPartial,
				IntakeDepth:    stats.IntakeDepth,
				LastCollectMs:  stats.LastCollectMs,
			}
		},
	})
	if err := monitorService.Start(); err != nil {
		Logger.Warn("Failed to start monitor service", "error", err)
	}
	defer monitorService.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := d.Run(ctx)

	if trajectory.Len() >= 2 {
		wktPath := filepath.Join(logsDir,
			fmt.Sprintf("trajectory_%s.wkt", RunContext.GetRun().RunID))
		if err := trajectory.WriteFile(wktPath); err != nil {
			Logger.Warn("Failed to write trajectory", "error", err)
		} else {
			Logger.Info("Wrote trajectory", "path", wktPath)
		}
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := SlogManager.Flush(flushCtx); err != nil {
		Logger.Warn("Failed to flush logs", "error", err)
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(flushCtx); err != nil {
			Logger.Warn("Failed to shut down OTel provider", "error", err)
		}
	}

	if runErr != nil && ctx.Err() != nil {
		Diag.Info().Msg("Interrupted, shut down cleanly")
		return nil
	}
	if runErr == nil {
		Diag.Info().Msg("Run complete")
	}
	return runErr
}
