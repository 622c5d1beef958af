package slpk

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/viant/i3smerge/i3s"
)

// Digest returns a highway hash over relative paths and contents of files under dir, optionally skipping some names
func Digest(ctx context.Context, dir string, skip ...string) (uint64, error) {
	files, err := Files(dir)
	if err != nil {
		return 0, err
	}
	skipped := map[string]bool{}
	for _, name := range skip {
		skipped[name] = true
	}
	hash, err := i3s.NewHash()
	if err != nil {
		return 0, err
	}
	for _, name := range files {
		if err = ctx.Err(); err != nil {
			return 0, err
		}
		if skipped[name] {
			continue
		}
		_, _ = hash.Write([]byte(name))
		_, _ = hash.Write([]byte{0})
		if err = copyInto(hash, filepath.Join(dir, filepath.FromSlash(name))); err != nil {
			return 0, err
		}
	}
	return hash.Sum64(), nil
}

func copyInto(writer io.Writer, location string) error {
	reader, err := os.Open(location)
	if err != nil {
		return err
	}
	defer reader.Close()
	_, err = io.Copy(writer, reader)
	return err
}
