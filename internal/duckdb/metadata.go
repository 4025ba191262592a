package duckdb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Matches reports whether two fingerprints describe the same file contents.
// Modification times are compared at microsecond precision, which is what
// DuckDB timestamps retain.
func (f FileFingerprint) Matches(other FileFingerprint) bool {
	return f.Path == other.Path &&
		f.Size == other.Size &&
		f.ModTime.UTC().Truncate(time.Microsecond).Equal(other.ModTime.UTC().Truncate(time.Microsecond))
}

func (s *Store) writeSource(fp FileFingerprint) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO sources (path, size, mod_time) VALUES (?, ?, ?)",
		fp.Path, fp.Size, fp.ModTime.UTC(),
	)
	if err != nil {
		return fmt.Errorf("write source fingerprint: %w", err)
	}
	return nil
}

// Source returns the fingerprint of the BED file the features were loaded from.
// The boolean is false if nothing has been loaded.
func (s *Store) Source() (FileFingerprint, bool, error) {
	var fp FileFingerprint
	err := s.db.QueryRow("SELECT path, size, mod_time FROM sources LIMIT 1").
		Scan(&fp.Path, &fp.Size, &fp.ModTime)
	if errors.Is(err, sql.ErrNoRows) {
		return FileFingerprint{}, false, nil
	}
	if err != nil {
		return FileFingerprint{}, false, fmt.Errorf("read source fingerprint: %w", err)
	}
	return fp, true, nil
}

// UpToDate reports whether the store holds features loaded from path and the
// file has not changed since.
func (s *Store) UpToDate(path string) (bool, error) {
	current, err := StatFile(path)
	if err != nil {
		return false, err
	}
	stored, ok, err := s.Source()
	if err != nil || !ok {
		return false, err
	}
	return stored.Matches(current), nil
}
