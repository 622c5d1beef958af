// Package codec reads and writes package documents as plain or gzip compressed JSON.
package codec

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/viant/afs"
)

const fileMode = 0644

// Codec reads and writes JSON documents using afs
type Codec struct {
	fs afs.Service
}

// New creates a codec
func New(fs afs.Service) *Codec {
	if fs == nil {
		fs = afs.New()
	}
	return &Codec{fs: fs}
}

// IsCompressed returns true if location names a gzip document
func IsCompressed(location string) bool {
	return strings.HasSuffix(location, ".gz")
}

// Read decodes document at location into v
func (c *Codec) Read(ctx context.Context, location string, v interface{}) error {
	data, err := c.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", location, err)
	}
	if IsCompressed(location) {
		if data, err = Decompress(data); err != nil {
			return fmt.Errorf("failed to decompress %s: %w", location, err)
		}
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err = decoder.Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", location, err)
	}
	return nil
}

// Write encodes v at location, compressing it when location ends with .gz
func (c *Codec) Write(ctx context.Context, location string, v interface{}) error {
	data, err := Encode(v, IsCompressed(location))
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", location, err)
	}
	if err = c.fs.Upload(ctx, location, fileMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", location, err)
	}
	return nil
}

// Exists returns true if location exists
func (c *Codec) Exists(ctx context.Context, location string) bool {
	ok, _ := c.fs.Exists(ctx, location)
	return ok
}

// Encode marshals v with stable formatting; gzip output carries no timestamp
func Encode(v interface{}, compress bool) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	if !compress {
		return data, nil
	}
	buffer := new(bytes.Buffer)
	writer := gzip.NewWriter(buffer)
	if _, err = writer.Write(data); err != nil {
		return nil, err
	}
	if err = writer.Close(); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// Decompress inflates gzip data
func Decompress(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}
