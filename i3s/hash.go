package i3s

import (
	"github.com/minio/highwayhash"
	"hash"
)

var key = []byte("I3SMERGE0123456789ABCDEF01234567")

// NewHash returns a 64 bit highway hash
func NewHash() (hash.Hash64, error) {
	return highwayhash.New64(key)
}

// Hash returns highway hash of data
func Hash(data []byte) (uint64, error) {
	h, err := NewHash()
	if err != nil {
		return 0, err
	}
	_, err = h.Write(data)
	return h.Sum64(), err
}
