package detection

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"gocv.io/x/gocv"

	"trackpilot/pkg/log"
)

// InferenceProvider defines the interface for sign/object inference
type InferenceProvider interface {
	Initialize(weightsPath, configPath, namesPath string) error
	Detect(frame gocv.Mat) ([]Detection, error)
	Close() error
	GetProviderInfo() ProviderInfo
}

// ProviderInfo contains information about the inference provider
type ProviderInfo struct {
	Type         string        // "GPU" or "CPU"
	Backend      string        // "CUDA", "CPU"
	Device       string        // Device identifier
	EstimatedFPS int           // Estimated inference FPS
	InitTime     time.Duration // Time taken to initialize
}

// ProviderManager handles automatic provider selection and fallback
type ProviderManager struct {
	currentProvider InferenceProvider
	providerInfo    ProviderInfo
	minScore        float64
	inputSize       int
}

// NewProviderManager creates a provider manager. Detections scoring below
// minScore are dropped before they reach the zone recognizers.
func NewProviderManager(minScore float64, inputSize int) *ProviderManager {
	if inputSize <= 0 {
		inputSize = 320
	}
	return &ProviderManager{minScore: minScore, inputSize: inputSize}
}

// Initialize performs auto-detection and initializes the best available provider
func (pm *ProviderManager) Initialize(weightsPath, configPath, namesPath string) error {
	logger := log.Component("provider")
	logger.Info("auto-detecting best inference provider")

	if hasGPUCapability() {
		gpuProvider := NewGPUProvider(pm.minScore, pm.inputSize)

		startTime := time.Now()
		err := gpuProvider.Initialize(weightsPath, configPath, namesPath)
		if err == nil {
			if testProvider(gpuProvider) {
				pm.currentProvider = gpuProvider
				pm.providerInfo = gpuProvider.GetProviderInfo()
				pm.providerInfo.InitTime = time.Since(startTime)
				logger.WithField("init_time", pm.providerInfo.InitTime).Info("GPU provider initialized")
				return nil
			}
			logger.Warn("GPU test inference failed, falling back to CPU")
			gpuProvider.Close()
		} else {
			logger.WithError(err).Warn("GPU initialization failed, falling back to CPU")
		}
	} else {
		logger.Info("no GPU capability detected")
	}

	cpuProvider := NewCPUProvider(pm.minScore, pm.inputSize)

	startTime := time.Now()
	if err := cpuProvider.Initialize(weightsPath, configPath, namesPath); err != nil {
		return fmt.Errorf("both GPU and CPU providers failed: %w", err)
	}

	pm.currentProvider = cpuProvider
	pm.providerInfo = cpuProvider.GetProviderInfo()
	pm.providerInfo.InitTime = time.Since(startTime)
	logger.WithField("init_time", pm.providerInfo.InitTime).Info("CPU provider initialized")

	return nil
}

// Detect runs the active provider on one frame.
func (pm *ProviderManager) Detect(frame gocv.Mat) ([]Detection, error) {
	if pm.currentProvider == nil {
		return nil, fmt.Errorf("no inference provider initialized")
	}
	return pm.currentProvider.Detect(frame)
}

// GetProvider returns the current active provider
func (pm *ProviderManager) GetProvider() InferenceProvider {
	return pm.currentProvider
}

// GetProviderInfo returns information about the current provider
func (pm *ProviderManager) GetProviderInfo() ProviderInfo {
	return pm.providerInfo
}

// Close closes the current provider
func (pm *ProviderManager) Close() error {
	if pm.currentProvider != nil {
		return pm.currentProvider.Close()
	}
	return nil
}

// hasGPUCapability checks if GPU inference is possible
func hasGPUCapability() bool {
	if !hasNVIDIAGPU() {
		return false
	}
	return hasNVIDIADriver()
}

// hasNVIDIAGPU checks if NVIDIA GPU is present
func hasNVIDIAGPU() bool {
	cmd := exec.Command("lspci")
	output, err := cmd.Output()
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(output)), "nvidia")
}

// hasNVIDIADriver checks if NVIDIA drivers are loaded
func hasNVIDIADriver() bool {
	cmd := exec.Command("nvidia-smi", "--query-gpu=name", "--format=csv,noheader")
	if err := cmd.Run(); err != nil {
		return false
	}

	matches, _ := filepath.Glob("/dev/nvidia*")
	return len(matches) > 0
}

// testProvider performs a quick test inference to verify the provider works
func testProvider(provider InferenceProvider) bool {
	testFrame := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer testFrame.Close()

	_, err := provider.Detect(testFrame)
	return err == nil
}
