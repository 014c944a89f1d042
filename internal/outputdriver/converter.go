package outputdriver

import "unsafe"

// bytesToFloat32 reinterprets the host's raw F32 output buffer as a
// []float32 without copying — the Data callback runs on the real-time
// thread and must not allocate (spec.md §4.D/§4.E).
func bytesToFloat32(b []byte) []float32 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/4)
}

func zeroFloat32(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}
