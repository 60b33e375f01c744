package detection

import (
	"fmt"
	"image"
	"os"
	"strings"
	"sync"

	"gocv.io/x/gocv"
)

// netProvider runs a YOLO-style darknet/ONNX network through the OpenCV DNN
// module. CPU and GPU providers differ only in backend and target.
type netProvider struct {
	net        gocv.Net
	classNames []string
	backend    gocv.NetBackendType
	target     gocv.NetTargetType
	minScore   float64
	inputSize  int
	mu         sync.Mutex
}

func (np *netProvider) initialize(weightsPath, configPath, namesPath string) error {
	np.net = gocv.ReadNet(weightsPath, configPath)
	if np.net.Empty() {
		return fmt.Errorf("failed to load network from %s and %s", weightsPath, configPath)
	}

	if err := np.net.SetPreferableBackend(np.backend); err != nil {
		return fmt.Errorf("set backend: %w", err)
	}
	if err := np.net.SetPreferableTarget(np.target); err != nil {
		return fmt.Errorf("set target: %w", err)
	}

	namesBytes, err := os.ReadFile(namesPath)
	if err != nil {
		return fmt.Errorf("could not read class names: %w", err)
	}
	np.classNames = strings.Split(string(namesBytes), "\n")

	return nil
}

// detect performs one forward pass. Output rows are
// [cx, cy, w, h, objectness, class scores...] normalized to the input size.
func (np *netProvider) detect(frame gocv.Mat) ([]Detection, error) {
	np.mu.Lock()
	defer np.mu.Unlock()

	if frame.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	blob := gocv.BlobFromImage(frame, 1.0/255.0, image.Pt(np.inputSize, np.inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	np.net.SetInput(blob, "")
	output := np.net.Forward("")
	defer output.Close()

	var detections []Detection
	for i := 0; i < output.Rows(); i++ {
		row := output.RowRange(i, i+1)
		data := row.Clone()
		scores := data.ColRange(5, data.Cols())
		_, maxVal, _, maxLoc := gocv.MinMaxLoc(scores)
		classID := maxLoc.X
		confidence := float64(maxVal)

		if confidence >= np.minScore && classID < len(np.classNames) {
			rect := boxFromNormalized(
				data.GetFloatAt(0, 0), data.GetFloatAt(0, 1),
				data.GetFloatAt(0, 2), data.GetFloatAt(0, 3),
				frame.Cols(), frame.Rows())

			detections = append(detections, Detection{
				Label:  ParseLabel(np.classNames[classID]),
				X:      rect.Min.X,
				Y:      rect.Min.Y,
				Width:  rect.Dx(),
				Height: rect.Dy(),
				Score:  confidence,
			})
		}

		scores.Close()
		data.Close()
		row.Close()
	}

	return detections, nil
}

func (np *netProvider) close() error {
	return np.net.Close()
}
