// Package archive packs and unpacks the zip files exchanged with remote storage.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsafePath is returned when an archive entry would escape the destination
var ErrUnsafePath = errors.New("archive entry escapes destination")

// Pack writes a deflate-compressed zip at dest holding files, each given as a
// slash-separated path relative to base and stored under that same name.
// Parent directories of dest are created as needed.
func Pack(dest, base string, files []string) (err error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	// #nosec G304 -- dest is built by the caller below the agent's temp dir
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create archive %s: %w", dest, err)
	}
	defer func() {
		if closeErr := out.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("failed to close archive %s: %w", dest, closeErr)
		}
	}()

	zw := zip.NewWriter(out)
	for _, name := range files {
		if err := addFile(zw, base, name); err != nil {
			_ = zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive %s: %w", dest, err)
	}
	return nil
}

func addFile(zw *zip.Writer, base, name string) error {
	src := filepath.Join(base, filepath.FromSlash(name))

	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("failed to build header for %s: %w", src, err)
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}

	// #nosec G304 -- src was selected below the task's base path
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("failed to compress %s: %w", src, err)
	}
	return nil
}

// Extract unpacks the zip at src into dest, overwriting files that already
// exist. Entries whose name is absolute or climbs out of dest are rejected
// with ErrUnsafePath before anything is written.
func Extract(src, dest string) error {
	zr, err := zip.OpenReader(src)
	if errors.Is(err, zip.ErrInsecurePath) {
		_ = zr.Close()
		return fmt.Errorf("%w: %s", ErrUnsafePath, src)
	}
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", src, err)
	}
	defer func() { _ = zr.Close() }()

	for _, f := range zr.File {
		if !isSafeEntry(f.Name) {
			return fmt.Errorf("%w: %q", ErrUnsafePath, f.Name)
		}
	}

	if err := os.MkdirAll(dest, 0750); err != nil {
		return fmt.Errorf("failed to create destination %s: %w", dest, err)
	}

	for _, f := range zr.File {
		if err := extractFile(f, dest); err != nil {
			return err
		}
	}
	return nil
}

func isSafeEntry(name string) bool {
	if strings.Contains(name, `\`) {
		return false
	}
	return filepath.IsLocal(filepath.FromSlash(strings.TrimSuffix(name, "/")))
}

func extractFile(f *zip.File, dest string) error {
	target := filepath.Join(dest, filepath.FromSlash(f.Name))

	if f.FileInfo().IsDir() {
		if err := os.MkdirAll(target, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", target, err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", target, err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to read entry %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	// #nosec G304 -- target was checked to stay below dest
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}

	// #nosec G110 -- archives are produced by this agent
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", target, err)
	}

	if !f.Modified.IsZero() {
		_ = os.Chtimes(target, f.Modified, f.Modified)
	}
	return nil
}

// Entries returns the names stored in the zip at src
func Entries(src string) ([]string, error) {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", src, err)
	}
	defer func() { _ = zr.Close() }()

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names, nil
}
