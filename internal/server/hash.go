// hash.go - SHA-256 bookkeeping for archived report objects.
package server

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

// hashingReader tees a stream through SHA-256 while counting bytes, so a
// report can be hashed while it is uploaded rather than in a second pass.
type hashingReader struct {
	r io.Reader
	h hash.Hash
	n int64
}

func newHashingReader(r io.Reader) *hashingReader {
	return &hashingReader{r: r, h: sha256.New()}
}

func (hr *hashingReader) Read(p []byte) (int, error) {
	n, err := hr.r.Read(p)
	if n > 0 {
		hr.h.Write(p[:n])
		hr.n += int64(n)
	}
	return n, err
}

func (hr *hashingReader) sumHex() string {
	return hex.EncodeToString(hr.h.Sum(nil))
}

func (hr *hashingReader) bytesRead() int64 {
	return hr.n
}

// sha256Hex drains r and returns the hex digest. Used to verify archived
// objects against their recorded digest.
func sha256Hex(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
