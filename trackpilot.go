package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"syscall"

	"gocv.io/x/gocv"

	"trackpilot/config"
	"trackpilot/detection"
	"trackpilot/pipeline"
	"trackpilot/pkg/log"
)

var (
	configPath  = flag.String("config", "", "TOML parameter file (optional, defaults are used for absent keys)")
	videoInput  = flag.String("video", "0", "Video file, stream URL or camera index\n\t\tExample: -video=/data/track.mp4")
	weightsPath = flag.String("weights", "", "Detector weights; empty runs without sign detection")
	netConfig   = flag.String("cfg", "", "Detector network config")
	namesPath   = flag.String("names", "", "Detector class names, one per line")
	debugMode   = flag.Bool("debug", false, "Show the debug window and log at debug level")
	logFile     = flag.String("log-file", "", "Also write logs to this rotating file")
	logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
)

// noDetector is used when no weights are given; lane following and the
// geometry-only zones still work.
type noDetector struct{}

func (noDetector) Detect(gocv.Mat) ([]detection.Detection, error) { return nil, nil }

// scaledSource resizes every captured frame to the configured size.
type scaledSource struct {
	capture *gocv.VideoCapture
	raw     gocv.Mat
	size    image.Point
}

func (s *scaledSource) Read(m *gocv.Mat) bool {
	if !s.capture.Read(&s.raw) || s.raw.Empty() {
		return false
	}
	gocv.Resize(s.raw, m, s.size, 0, 0, gocv.InterpolationLinear)
	return true
}

type window struct{ w *gocv.Window }

func (d window) Show(canvas gocv.Mat) {
	d.w.IMShow(canvas)
	d.w.WaitKey(1)
}

func main() {
	flag.Parse()

	level := *logLevel
	if *debugMode {
		level = "debug"
	}
	log.NewLogger(log.Options{Level: level, FilePath: *logFile})
	logger := log.Component("main")

	if err := run(logger); err != nil {
		if errors.Is(err, pipeline.ErrStopArea) {
			logger.Info("finish reached, vehicle stopped")
			return
		}
		logger.WithError(err).Error("trackpilot stopped")
		os.Exit(1)
	}
}

func run(logger *log.Entry) error {
	params := config.Default()
	if *configPath != "" {
		var err error
		if params, err = config.Load(*configPath); err != nil {
			return err
		}
		logger.WithField("path", *configPath).Info("parameters loaded")
	}
	params.Pipeline.Debug = params.Pipeline.Debug || *debugMode

	capture, err := gocv.OpenVideoCapture(*videoInput)
	if err != nil {
		return fmt.Errorf("open video %s: %w", *videoInput, err)
	}
	defer capture.Close()

	raw := gocv.NewMat()
	defer raw.Close()
	src := &scaledSource{capture: capture, raw: raw, size: image.Pt(params.Width, params.Height)}

	var detector pipeline.Detector = noDetector{}
	if *weightsPath != "" {
		pm := detection.NewProviderManager(params.Detector.MinScore, params.Detector.InputSize)
		if err := pm.Initialize(*weightsPath, *netConfig, *namesPath); err != nil {
			return fmt.Errorf("init detector: %w", err)
		}
		defer pm.Close()
		info := pm.GetProviderInfo()
		logger.WithFields(log.Fields{"type": info.Type, "backend": info.Backend, "init_time": info.InitTime}).Info("detector ready")
		detector = pm
	} else {
		logger.Warn("no detector weights, sign-triggered zones stay idle")
	}

	collab := pipeline.Collaborators{
		Detector:  detector,
		Binarizer: params.Binarizer,
		Tracker:   params.Tracker,
		Control:   pipeline.NewCenterLine(params.Control),
		Actuator:  pipeline.NewLogActuator(),
	}
	if params.Pipeline.Debug {
		w := gocv.NewWindow("trackpilot")
		defer w.Close()
		collab.Display = window{w: w}
	}

	runner := pipeline.NewRunner(params.Pipeline, collab, params.Arbiter())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.WithFields(log.Fields{"video": *videoInput, "size": fmt.Sprintf("%dx%d", params.Width, params.Height)}).Info("starting")
	err = runner.Run(ctx, src)
	runner.Stats().Log(logger)
	if errors.Is(err, context.Canceled) {
		logger.WithField("frames", runner.Frames()).Info("interrupted")
		return nil
	}
	return err
}
