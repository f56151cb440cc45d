// Command omipack splits an extracted OMI data directory into size-capped zip
// archives (Omi_1.zip, Omi_2.zip, ...) suitable for hosting with per-file
// size limits. The valuation service extracts them back automatically on
// first load.
//
// Usage:
//
//	go run ./cmd/omipack -source data/omi -out . -max-size-mb 80
package main

import (
	"archive/zip"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

func main() {
	source := flag.String("source", "", "directory containing the extracted OMI dataset")
	out := flag.String("out", ".", "directory to write Omi_*.zip archives into")
	maxSizeMB := flag.Int("max-size-mb", 80, "maximum archive size in megabytes")
	flag.Parse()

	if *source == "" {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(*source, *out, int64(*maxSizeMB)*1024*1024); err != nil {
		fmt.Fprintf(os.Stderr, "omipack: %v\n", err)
		os.Exit(1)
	}
}

func run(source, out string, maxSize int64) error {
	entries, err := os.ReadDir(source)
	if err != nil {
		return fmt.Errorf("read source dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, e.Name())
		}
	}
	fmt.Printf("Found %d files in %s\n", len(files), source)

	var (
		index       = 1
		currentSize int64
		w           *archiveWriter
	)

	for _, name := range files {
		path := filepath.Join(source, name)
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", name, err)
		}

		// Roll to a new archive when this file would push past the cap.
		if w != nil && currentSize+info.Size() > maxSize {
			if err := w.close(currentSize); err != nil {
				return err
			}
			index++
			w = nil
		}
		if w == nil {
			w, err = newArchiveWriter(filepath.Join(out, fmt.Sprintf("Omi_%d.zip", index)))
			if err != nil {
				return err
			}
			currentSize = 0
		}

		if err := w.add(path, name); err != nil {
			return fmt.Errorf("add %s: %w", name, err)
		}
		currentSize += info.Size()
	}

	if w != nil {
		if err := w.close(currentSize); err != nil {
			return err
		}
	}

	fmt.Printf("Done: %d archive(s) written to %s\n", index, out)
	return nil
}

type archiveWriter struct {
	name string
	f    *os.File
	zw   *zip.Writer
}

func newArchiveWriter(path string) (*archiveWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	fmt.Printf("Writing %s\n", path)
	return &archiveWriter{name: path, f: f, zw: zip.NewWriter(f)}, nil
}

func (w *archiveWriter) add(path, name string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := w.zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}

func (w *archiveWriter) close(contentSize int64) error {
	if err := w.zw.Close(); err != nil {
		return err
	}
	if err := w.f.Close(); err != nil {
		return err
	}
	fmt.Printf("Completed %s (%.1f MB of content)\n", w.name, float64(contentSize)/1024/1024)
	return nil
}
