package dtype

import (
	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"
)

// Half-precision values are stored as raw uint16 bit patterns. These
// helpers convert between the stored bits and float32 for callers that
// need to inspect or produce half-precision data.

// Float16ToFloat32 decodes IEEE 754 half-precision bit patterns.
func Float16ToFloat32(bits []uint16) []float32 {
	out := make([]float32, len(bits))
	for i, b := range bits {
		out[i] = float16.Frombits(b).Float32()
	}
	return out
}

// Float32ToFloat16 encodes float32 values as half-precision bit patterns.
func Float32ToFloat16(vals []float32) []uint16 {
	out := make([]uint16, len(vals))
	for i, v := range vals {
		out[i] = float16.Fromfloat32(v).Bits()
	}
	return out
}

// BFloat16ToFloat32 decodes brain-float bit patterns stored as raw bytes
// (two bytes per element, little-endian).
func BFloat16ToFloat32(data []byte) []float32 {
	return bfloat16.DecodeFloat32(data)
}

// Float32ToBFloat16 encodes float32 values as brain-float bytes.
func Float32ToBFloat16(vals []float32) []byte {
	return bfloat16.EncodeFloat32(vals)
}
