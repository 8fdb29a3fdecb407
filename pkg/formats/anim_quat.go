package formats

import "math"

// QuatScale is the fixed-point multiplier for every quaternion component.
const QuatScale float32 = 32767

// Quat is a dequantized rotation as it appears in the text form.
type Quat struct {
	X, Y, Z, W float32
}

// DecodeQuat converts a raw rotation to floats. Y and Z are divided by
// -QuatScale; the format stores them mirrored.
func DecodeQuat(q RawQuat) Quat {
	return Quat{
		X: float32(q.X) / QuatScale,
		Y: float32(q.Y) / -QuatScale,
		Z: float32(q.Z) / -QuatScale,
		W: float32(q.W) / QuatScale,
	}
}

// EncodeQuat converts floats back to a raw rotation. All four components are
// multiplied by +QuatScale, so Y and Z come back with the opposite sign of the
// value DecodeQuat started from. Existing tools expect exactly this.
func EncodeQuat(q Quat) RawQuat {
	return RawQuat{
		X: quantize(q.X * QuatScale),
		Y: quantize(q.Y * QuatScale),
		Z: quantize(q.Z * QuatScale),
		W: quantize(q.W * QuatScale),
	}
}

// EncodeQuatSymmetric is the inverse of DecodeQuat: Y and Z are multiplied by
// -QuatScale.
func EncodeQuatSymmetric(q Quat) RawQuat {
	return RawQuat{
		X: quantize(q.X * QuatScale),
		Y: quantize(q.Y * -QuatScale),
		Z: quantize(q.Z * -QuatScale),
		W: quantize(q.W * QuatScale),
	}
}

// quantize truncates toward zero and wraps modulo 2^16 like a C integer cast.
// NaN and infinities become 0.
func quantize(v float32) int16 {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int16(int64(math.Mod(math.Trunc(f), 1<<16)))
}
