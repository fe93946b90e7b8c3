package audio

import (
	"encoding/binary"
	"math"
)

const (
	// MinDB is the level reported for digital silence.
	MinDB = -60.0
	// ClipThreshold is slightly below full scale to catch near-clips.
	ClipThreshold int16 = 32760
	// BytesPerFrame is the size of one interleaved S16LE stereo sample pair.
	BytesPerFrame = 4

	fullScale = 32768.0
)

// DecodeFrame folds interleaved S16LE stereo PCM into mono samples in
// [-1, 1] by averaging both channels. It fills out from buf and returns the
// number of samples written and the number of clipped channel samples.
// Format: [L_low, L_high, R_low, R_high, ...].
func DecodeFrame(buf []byte, out []float64) (n, clipped int) {
	for i := 0; i+3 < len(buf) && n < len(out); i += BytesPerFrame {
		left := int16(binary.LittleEndian.Uint16(buf[i:]))
		right := int16(binary.LittleEndian.Uint16(buf[i+2:]))

		if left >= ClipThreshold || left <= -ClipThreshold {
			clipped++
		}
		if right >= ClipThreshold || right <= -ClipThreshold {
			clipped++
		}

		out[n] = (float64(left) + float64(right)) / (2 * fullScale)
		n++
	}
	return n, clipped
}

// Levels contains the RMS and peak of one frame, linear and in dBFS.
type Levels struct {
	RMS    float64
	Peak   float64
	RMSDB  float64
	PeakDB float64
}

// FrameLevels computes the levels of a mono frame.
func FrameLevels(frame []float64) Levels {
	if len(frame) == 0 {
		return Levels{RMSDB: MinDB, PeakDB: MinDB}
	}

	var sumSquares, peak float64
	for _, s := range frame {
		sumSquares += s * s
		peak = max(peak, math.Abs(s))
	}
	rms := math.Sqrt(sumSquares / float64(len(frame)))

	return Levels{
		RMS:    rms,
		Peak:   peak,
		RMSDB:  ToDB(rms),
		PeakDB: ToDB(peak),
	}
}

// ToDB converts a linear amplitude to dBFS, floored at MinDB.
func ToDB(linear float64) float64 {
	if linear <= 0 {
		return MinDB
	}
	return max(20*math.Log10(linear), MinDB)
}
