package audio

import (
	"encoding/binary"
	"math"

	"github.com/lixenwraith/ambience/constant"
)

// softLimit compresses peaks above the knee, then hard clips to [-1, 1]
func softLimit(v float64) float64 {
	const (
		knee = constant.LimiterThreshold
		head = constant.LimiterHeadroom
		k    = constant.LimiterSlope
	)
	if v > knee {
		v = knee + head*(1.0-1.0/(1.0+(v-knee)*k))
	} else if v < -knee {
		v = -knee - head*(1.0-1.0/(1.0+(-v-knee)*k))
	}

	if v > 1.0 {
		v = 1.0
	} else if v < -1.0 {
		v = -1.0
	}
	return v
}

// floatToBytes converts stereo frames to interleaved int16 LE bytes
// Applies soft limiting before hard clip
func floatToBytes(in [][2]float64, out []byte) {
	for i, f := range in {
		idx := i * constant.AudioBytesPerFrame
		l := int16(softLimit(f[0]) * 32767)
		r := int16(softLimit(f[1]) * 32767)
		binary.LittleEndian.PutUint16(out[idx:], uint16(l))
		binary.LittleEndian.PutUint16(out[idx+2:], uint16(r))
	}
}

// floatToFloat32Bytes converts stereo frames to interleaved float32 LE bytes
func floatToFloat32Bytes(in [][2]float64, out []byte) {
	for i, f := range in {
		idx := i * constant.AudioFloatBytesPerFrame
		binary.LittleEndian.PutUint32(out[idx:], math.Float32bits(float32(softLimit(f[0]))))
		binary.LittleEndian.PutUint32(out[idx+4:], math.Float32bits(float32(softLimit(f[1]))))
	}
}
