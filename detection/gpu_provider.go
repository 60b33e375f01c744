package detection

import (
	"gocv.io/x/gocv"
)

// GPUProvider implements inference using the OpenCV CUDA backend
type GPUProvider struct {
	netProvider
}

// NewGPUProvider returns an uninitialized CUDA provider.
func NewGPUProvider(minScore float64, inputSize int) *GPUProvider {
	return &GPUProvider{netProvider{
		backend:   gocv.NetBackendCUDA,
		target:    gocv.NetTargetCUDA,
		minScore:  minScore,
		inputSize: inputSize,
	}}
}

// Initialize initializes the GPU provider with model files
func (gp *GPUProvider) Initialize(weightsPath, configPath, namesPath string) error {
	return gp.initialize(weightsPath, configPath, namesPath)
}

// Detect performs object detection on a frame using GPU
func (gp *GPUProvider) Detect(frame gocv.Mat) ([]Detection, error) {
	return gp.detect(frame)
}

// Close releases resources used by the GPU provider
func (gp *GPUProvider) Close() error {
	return gp.close()
}

// GetProviderInfo returns information about the GPU provider
func (gp *GPUProvider) GetProviderInfo() ProviderInfo {
	return ProviderInfo{
		Type:         "GPU",
		Backend:      "OpenCV CUDA",
		Device:       "NVIDIA GPU",
		EstimatedFPS: 120,
	}
}
