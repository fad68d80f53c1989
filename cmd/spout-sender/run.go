package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/breeze-rmm/spout2media/internal/capture"
	"github.com/breeze-rmm/spout2media/internal/config"
	"github.com/breeze-rmm/spout2media/internal/control"
	"github.com/breeze-rmm/spout2media/internal/d3d"
	"github.com/breeze-rmm/spout2media/internal/gfx"
	"github.com/breeze-rmm/spout2media/internal/health"
	"github.com/breeze-rmm/spout2media/internal/logging"
	"github.com/breeze-rmm/spout2media/internal/renderq"
	"github.com/breeze-rmm/spout2media/internal/spout"
)

var log = logging.L("main")

var runFlags struct {
	name      string
	width     int
	height    int
	frameRate int
	paused    bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Publish a moving test pattern as a Spout sender",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		applyRunFlags(cmd, cfg)
		if result := cfg.ValidateTiered(); result.HasFatals() {
			for _, e := range result.Fatals {
				fmt.Fprintf(os.Stderr, "config: %v\n", e)
			}
			return fmt.Errorf("invalid config (%d errors)", len(result.Fatals))
		}
		return runSender(cfg)
	},
}

func init() {
	runCmd.Flags().StringVar(&runFlags.name, "name", "", "sender name")
	runCmd.Flags().IntVar(&runFlags.width, "width", 0, "frame width")
	runCmd.Flags().IntVar(&runFlags.height, "height", 0, "frame height")
	runCmd.Flags().IntVar(&runFlags.frameRate, "fps", 0, "frames per second")
	runCmd.Flags().BoolVar(&runFlags.paused, "paused", false, "wait for a start request on the control pipe")
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("name") {
		cfg.SenderName = runFlags.name
	}
	if cmd.Flags().Changed("width") {
		cfg.Width = runFlags.width
	}
	if cmd.Flags().Changed("height") {
		cfg.Height = runFlags.height
	}
	if cmd.Flags().Changed("fps") {
		cfg.FrameRate = runFlags.frameRate
	}
}

func initLogging(cfg *config.Config) (io.Closer, error) {
	if cfg.LogFile == "" {
		logging.Init(cfg.LogFormat, cfg.LogLevel, os.Stderr)
		return io.NopCloser(nil), nil
	}
	rw, err := logging.NewRotatingWriter(cfg.LogFile, cfg.LogMaxSizeMB, cfg.LogMaxBackups)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logging.Init(cfg.LogFormat, cfg.LogLevel, io.MultiWriter(os.Stderr, rw))
	return rw, nil
}

func runSender(cfg *config.Config) error {
	logCloser, err := initLogging(cfg)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	format, err := gfx.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	ns, err := spout.NewNamespace(spout.NewSystemMapper(), spout.Options{MaxSenders: cfg.MaxSenders})
	if err != nil {
		return fmt.Errorf("open sender namespace: %w", err)
	}
	defer ns.Close()

	graphics, err := d3d.NewGraphics()
	if err != nil {
		return err
	}
	device, err := d3d.CreateStandalone()
	if err != nil {
		return err
	}
	defer device.Close()

	src, err := d3d.NewPatternSource(device, uint32(cfg.Width), uint32(cfg.Height), format)
	if err != nil {
		return err
	}
	defer src.Close()

	queue := renderq.New(cfg.QueueSize)
	mon := health.NewMonitor()
	ctrl := capture.New(capture.Options{
		Output:    capture.Output{SenderName: cfg.SenderName},
		RHI:       device,
		Graphics:  graphics,
		Namespace: ns,
		Health:    mon,
		Scheduler: queue,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pipe := cfg.ControlPipe
	if pipe == "" {
		pipe = control.DefaultPath
	}
	srv := control.NewServer(pipe, ctrl, ns, mon)
	go func() {
		if err := srv.Listen(ctx); err != nil {
			log.Error("control server failed", logging.KeyError, err)
		}
	}()

	if !runFlags.paused {
		if err := ctrl.Start(); err != nil {
			return err
		}
	}

	log.Info("sender running",
		logging.KeySender, cfg.SenderName,
		"size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"format", format.String(),
		"fps", cfg.FrameRate,
		"control", pipe)

	ticker := time.NewTicker(time.Second / time.Duration(cfg.FrameRate))
	defer ticker.Stop()

	var frame uint64
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			n := frame
			if !queue.Submit(func() {
				src.Advance()
				ctrl.OnFrame(capture.Frame{Number: n, Texture: src})
			}) {
				log.Debug("render queue behind, frame skipped", logging.KeyFrame, n)
			}
			frame++
		}
	}

	log.Info("shutting down")
	srv.Close()
	ctrl.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	queue.Shutdown(shutdownCtx)
	ctrl.Close()

	st := ctrl.Stats()
	log.Info("sender stopped",
		"published", st.Published,
		"dropped", st.Dropped,
		"constructions", st.Constructions)
	return nil
}
