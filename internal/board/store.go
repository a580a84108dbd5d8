package board

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DecodeError reports a board file that exists but does not parse.
// It matches ErrDecode via errors.Is.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Store loads and saves the board file. Save arms the self-write flag
// strictly before any bytes reach disk, closing the race between the
// watcher seeing the new file and the flag becoming visible.
type Store struct {
	path string
	flag *SelfWriteFlag
}

func NewStore(path string, flag *SelfWriteFlag) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: board path is required", ErrInvalidInput)
	}
	if flag == nil {
		flag = NewSelfWriteFlag()
	}
	return &Store{path: filepath.Clean(path), flag: flag}, nil
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the board file. A missing file yields an empty board and
// does not create the file. Unknown fields are tolerated so external
// editors can carry forward data this version does not know about.
func (s *Store) Load() (Board, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Board{}, nil
		}
		return Board{}, fmt.Errorf("read %s: %w", s.path, err)
	}
	var b Board
	if err := json.Unmarshal(data, &b); err != nil {
		return Board{}, &DecodeError{Path: s.path, Err: err}
	}
	b.normalize()
	return b, nil
}

// Exists reports whether the board file is currently present on disk.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Save serializes the board and writes it atomically (temp file then
// rename), creating parent directories as needed. A concurrent reader
// never observes a half-written file.
func (s *Store) Save(b Board) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", s.path, err)
	}

	// Arm before the first byte is written: the watcher may see the
	// temp-file create or the rename at any point after this.
	s.flag.Arm()

	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		// The board file was never replaced, so no event will consume
		// the flag; left armed it would swallow the next external edit.
		s.flag.Consume()
		return err
	}
	return nil
}

func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmpFile.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()
	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Chmod(mode); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}
