package detection

import (
	"gocv.io/x/gocv"
)

// CPUProvider implements inference using the OpenCV CPU backend
type CPUProvider struct {
	netProvider
}

// NewCPUProvider returns an uninitialized CPU provider.
func NewCPUProvider(minScore float64, inputSize int) *CPUProvider {
	return &CPUProvider{netProvider{
		backend:   gocv.NetBackendDefault,
		target:    gocv.NetTargetCPU,
		minScore:  minScore,
		inputSize: inputSize,
	}}
}

// Initialize initializes the CPU provider with model files
func (cp *CPUProvider) Initialize(weightsPath, configPath, namesPath string) error {
	return cp.initialize(weightsPath, configPath, namesPath)
}

// Detect performs object detection on a frame using CPU
func (cp *CPUProvider) Detect(frame gocv.Mat) ([]Detection, error) {
	return cp.detect(frame)
}

// Close releases resources used by the CPU provider
func (cp *CPUProvider) Close() error {
	return cp.close()
}

// GetProviderInfo returns information about the CPU provider
func (cp *CPUProvider) GetProviderInfo() ProviderInfo {
	return ProviderInfo{
		Type:         "CPU",
		Backend:      "OpenCV CPU",
		Device:       "CPU",
		EstimatedFPS: 30,
	}
}
