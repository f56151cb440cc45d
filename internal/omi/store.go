package omi

import (
	"archive/zip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Dataset file patterns inside the data directory. The semester segment of
// the CSV names changes per release, so both are matched by glob.
const (
	valuesCSVGlob       = "QI_*_VALORI.csv"
	descriptionsCSVGlob = "QI_*_ZONE.csv"
	archiveGlob         = "Omi_*.zip"
)

// Values-table column headers the store reads. Extra columns are ignored.
const (
	colZone         = "Zona"
	colMunicipality = "Comune_descrizione"
	colProvince     = "Prov"
	colPropertyType = "Descr_Tipologia"
	colComprMin     = "Compr_min"
	colComprMax     = "Compr_max"
	colDescription  = "Zona_Descr"
)

// Store holds the OMI dataset in memory: zone boundary polygons, the value
// ranges table and the optional zone-description table. Load runs once;
// afterwards the store is immutable and safe for concurrent readers.
type Store struct {
	dataDir string
	logger  *slog.Logger

	loadOnce sync.Once
	loadErr  error
	ready    atomic.Bool

	polygons        []ZonePolygon
	values          []referenceRecord
	descriptions    []zoneDescription
	hasPropertyType bool
}

// NewStore creates a store rooted at dataDir. Nothing is read until Load.
func NewStore(dataDir string, logger *slog.Logger) *Store {
	return &Store{dataDir: dataDir, logger: logger}
}

// Load parses archives, boundary files and reference tables. It is
// idempotent: subsequent calls return the first outcome without re-reading
// anything. A missing values table is the one hard failure; individual
// malformed files are warned about and skipped.
func (s *Store) Load() error {
	s.loadOnce.Do(func() {
		start := time.Now()
		s.loadErr = s.load()
		if s.loadErr == nil {
			s.ready.Store(true)
			s.logger.Info("omi dataset loaded",
				"polygons", len(s.polygons),
				"value_rows", len(s.values),
				"description_rows", len(s.descriptions),
				"duration", time.Since(start),
			)
		}
	})
	return s.loadErr
}

// Ready reports whether a load has completed successfully.
func (s *Store) Ready() bool {
	return s.ready.Load()
}

// PolygonCount returns the number of loaded zone polygons.
func (s *Store) PolygonCount() int { return len(s.polygons) }

// ReferenceRowCount returns the number of loaded value-table rows.
func (s *Store) ReferenceRowCount() int { return len(s.values) }

// Polygons exposes the loaded polygons for read-only iteration.
func (s *Store) Polygons() []ZonePolygon { return s.polygons }

func (s *Store) load() error {
	s.extractArchives()

	if err := s.loadTables(); err != nil {
		return err
	}
	s.loadPolygons()
	return nil
}

// extractArchives unpacks Omi_*.zip archives found in the data directory when
// the expected extracted layout is absent. Per-archive failures are warned
// about and skipped; a dataset shipped already extracted needs no archives.
func (s *Store) extractArchives() {
	if matches, _ := filepath.Glob(filepath.Join(s.dataDir, valuesCSVGlob)); len(matches) > 0 {
		return
	}

	archives, _ := filepath.Glob(filepath.Join(s.dataDir, archiveGlob))
	sort.Strings(archives)
	if len(archives) == 0 {
		return
	}

	s.logger.Info("extracting omi archives", "count", len(archives))
	for _, path := range archives {
		if err := extractZip(path, s.dataDir); err != nil {
			s.logger.Warn("archive extraction failed, skipping", "archive", filepath.Base(path), "error", err)
		}
	}
}

func extractZip(path, destDir string) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if err := extractZipEntry(f, destDir); err != nil {
			return fmt.Errorf("entry %s: %w", f.Name, err)
		}
	}
	return nil
}

func extractZipEntry(f *zip.File, destDir string) error {
	dest := filepath.Join(destDir, filepath.Clean(f.Name))
	if !strings.HasPrefix(dest, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return errors.New("path escapes destination directory")
	}
	if f.FileInfo().IsDir() {
		return os.MkdirAll(dest, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}

// loadTables reads the value ranges table and, when present, the
// zone-description table. The values table is required: without it no query
// can ever succeed, so its absence is a configuration error rather than a
// silent empty store.
func (s *Store) loadTables() error {
	valuesPath, err := findDatasetFile(s.dataDir, valuesCSVGlob)
	if err != nil {
		return fmt.Errorf("omi values table: %w", err)
	}

	header, rows, err := readSemicolonCSV(valuesPath)
	if err != nil {
		return fmt.Errorf("omi values table %s: %w", filepath.Base(valuesPath), err)
	}

	cols := indexColumns(header)
	_, s.hasPropertyType = cols[colPropertyType]
	for _, row := range rows {
		s.values = append(s.values, referenceRecord{
			Zone:         cell(row, cols, colZone),
			Municipality: cell(row, cols, colMunicipality),
			Province:     cell(row, cols, colProvince),
			PropertyType: cell(row, cols, colPropertyType),
			ComprMin:     cell(row, cols, colComprMin),
			ComprMax:     cell(row, cols, colComprMax),
		})
	}

	descPath, err := findDatasetFile(s.dataDir, descriptionsCSVGlob)
	if err != nil {
		// Optional table: zone labels degrade to synthesized "Zona OMI <code>".
		s.logger.Info("zone description table not found, labels will be synthesized")
		return nil
	}
	header, rows, err = readSemicolonCSV(descPath)
	if err != nil {
		s.logger.Warn("zone description table unreadable, skipping", "file", filepath.Base(descPath), "error", err)
		return nil
	}
	cols = indexColumns(header)
	for _, row := range rows {
		s.descriptions = append(s.descriptions, zoneDescription{
			Zone:         cell(row, cols, colZone),
			Municipality: cell(row, cols, colMunicipality),
			Province:     cell(row, cols, colProvince),
			Description:  cell(row, cols, colDescription),
		})
	}
	return nil
}

// loadPolygons walks the data directory recursively (archives may extract
// into subdirectories) and parses every KML file. A malformed file is warned
// about and skipped, never fatal.
func (s *Store) loadPolygons() {
	var paths []string
	_ = filepath.WalkDir(s.dataDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".kml") {
			paths = append(paths, path)
		}
		return nil
	})
	sort.Strings(paths)

	for _, path := range paths {
		polys, err := parseKMLFile(path)
		if err != nil {
			s.logger.Warn("boundary file unparsable, skipping", "file", filepath.Base(path), "error", err)
			continue
		}
		s.polygons = append(s.polygons, polys...)
	}
}

func findDatasetFile(dir, glob string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, glob))
	if err == nil && len(matches) == 0 {
		// Archives may have extracted into a subdirectory.
		matches, err = filepath.Glob(filepath.Join(dir, "*", glob))
	}
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no file matching %s under %s", glob, dir)
	}
	sort.Strings(matches)
	return matches[0], nil
}

// readSemicolonCSV reads an OMI table: semicolon-delimited, a human banner on
// the first line, the column header on the second. Returns header and data
// rows as raw strings.
func readSemicolonCSV(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(all) < 2 {
		return nil, nil, errors.New("missing column header row")
	}
	return all[1], all[2:], nil
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	return cols
}

func cell(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
