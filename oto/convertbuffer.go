package oto

import "math"

// MonoFloatTo16BitLEStereo converts a mono float buffer to interleaved
// 16-bit little-endian stereo samples, appending to recycleBuffer.
func MonoFloatTo16BitLEStereo(buffer []float32, recycleBuffer []byte) []byte {
	for _, v := range buffer {
		var uv int16
		if v < -1.0 {
			uv = -math.MaxInt16
		} else if v > 1.0 {
			uv = math.MaxInt16
		} else {
			uv = int16(v * math.MaxInt16)
		}
		lo, hi := byte(uv&255), byte(uv>>8)
		recycleBuffer = append(recycleBuffer, lo, hi, lo, hi)
	}
	return recycleBuffer
}
