package importpipeline

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"
	"os"
)

const fingerprintSampleBytes = 1 << 20 // first 1MiB

// fingerprint computes sha256(first 1MiB of path) xored with the file's
// total size, used to recognize the same stem ingested twice under a
// different path or filename (spec.md §4.H).
func fingerprint(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", 0, err
	}

	h := sha256.New()
	if _, err := io.CopyN(h, f, fingerprintSampleBytes); err != nil && err != io.EOF {
		return "", 0, err
	}
	sum := h.Sum(nil)

	var sizeBytes [8]byte
	binary.BigEndian.PutUint64(sizeBytes[:], uint64(info.Size()))
	for i := range sizeBytes {
		sum[len(sum)-len(sizeBytes)+i] ^= sizeBytes[i]
	}

	return hex.EncodeToString(sum), info.Size(), nil
}
