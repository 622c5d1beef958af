// Package slpk extracts and creates scene layer package archives.
package slpk

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Extension is the conventional package archive extension
const Extension = ".slpk"

// Extract unpacks archive into dir
func Extract(ctx context.Context, archive, dir string) error {
	reader, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", archive, err)
	}
	defer reader.Close()
	base, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	for _, file := range reader.File {
		if err = ctx.Err(); err != nil {
			return err
		}
		name := strings.ReplaceAll(file.Name, "\\", "/")
		target := filepath.Join(base, filepath.FromSlash(name))
		if target != base && !strings.HasPrefix(target, base+string(os.PathSeparator)) {
			return fmt.Errorf("archive %s entry %q escapes destination", archive, file.Name)
		}
		if file.FileInfo().IsDir() || strings.HasSuffix(name, "/") {
			if err = os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}
		if err = extractFile(file, target); err != nil {
			return fmt.Errorf("failed to extract %s: %w", file.Name, err)
		}
	}
	return nil
}

func extractFile(file *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	reader, err := file.Open()
	if err != nil {
		return err
	}
	defer reader.Close()
	writer, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err = io.Copy(writer, reader); err != nil {
		writer.Close()
		return err
	}
	return writer.Close()
}

// Files returns slash separated relative paths of all regular files under dir, sorted
func Files(dir string) ([]string, error) {
	var result []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		relative, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		result = append(result, filepath.ToSlash(relative))
		return nil
	})
	sort.Strings(result)
	return result, err
}

// Create writes every file under dir into archive; entries are stored uncompressed since payloads carry their own compression
func Create(ctx context.Context, dir, archive string) (err error) {
	files, err := Files(dir)
	if err != nil {
		return err
	}
	output, err := os.OpenFile(archive, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := output.Close(); err == nil {
			err = closeErr
		}
	}()
	writer := zip.NewWriter(output)
	for _, name := range files {
		if err = ctx.Err(); err != nil {
			return err
		}
		if err = addFile(writer, filepath.Join(dir, filepath.FromSlash(name)), name); err != nil {
			return fmt.Errorf("failed to add %s: %w", name, err)
		}
	}
	if err = writer.Close(); err != nil {
		return err
	}
	return output.Sync()
}

func addFile(writer *zip.Writer, location, name string) error {
	info, err := os.Stat(location)
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Store
	entry, err := writer.CreateHeader(header)
	if err != nil {
		return err
	}
	reader, err := os.Open(location)
	if err != nil {
		return err
	}
	defer reader.Close()
	_, err = io.Copy(entry, reader)
	return err
}
