package vision

import (
	"image"

	"gocv.io/x/gocv"
)

// OtsuBinarizer converts a BGR or grayscale frame into a single-channel mask
// with Otsu's global threshold. The caller owns the returned Mat.
type OtsuBinarizer struct {
	// BlurKernel, when > 1, smooths the gray image before thresholding.
	BlurKernel int `toml:"blur_kernel"`
}

func (b OtsuBinarizer) Binarize(frame gocv.Mat) gocv.Mat {
	out := gocv.NewMat()
	if frame.Empty() {
		return out
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() == 1 {
		frame.CopyTo(&gray)
	} else {
		gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)
	}

	if b.BlurKernel > 1 {
		k := b.BlurKernel | 1
		gocv.GaussianBlur(gray, &gray, image.Pt(k, k), 0, 0, gocv.BorderDefault)
	}

	gocv.Threshold(gray, &out, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	return out
}
