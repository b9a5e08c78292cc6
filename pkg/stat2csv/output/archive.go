package output

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteArchive writes a deflate-compressed zip at zipPath holding files.
// Each entry is named by the base name of its file.
func WriteArchive(zipPath string, files ...string) error {
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		name := filepath.Base(f)
		if seen[name] {
			return fmt.Errorf("duplicate archive entry %q", name)
		}
		seen[name] = true
	}

	return WriteFileAtomic(zipPath, func(w io.Writer) error {
		zw := zip.NewWriter(w)
		for _, f := range files {
			if err := addFile(zw, f); err != nil {
				zw.Close()
				return err
			}
		}
		return zw.Close()
	})
}

func addFile(zw *zip.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.Base(path)
	header.Method = zip.Deflate

	dst, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}

// ReadArchiveFile returns the content of one entry of a zip archive.
func ReadArchiveFile(zipPath, name string) ([]byte, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s: no entry %q", zipPath, name)
}
