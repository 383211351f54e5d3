package local

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mcoot/datathon/internal/model"
	"github.com/mcoot/datathon/internal/storage"
)

// maxLineSize bounds a single record line when scanning the file
const maxLineSize = 1 << 20

// Storage appends registrations to a newline-delimited JSON file.
// Each insert is an independent open-append-close; concurrent writers rely on
// O_APPEND semantics and there is no in-process locking.
type Storage struct {
	path string
}

// New creates a local file storage writing to path
func New(path string) *Storage {
	return &Storage{path: path}
}

// Ensure Storage implements the interface
var _ storage.Registrations = (*Storage)(nil)

// Path returns the file the storage appends to
func (s *Storage) Path() string {
	return s.path
}

func (s *Storage) Insert(ctx context.Context, reg *model.Registration) error {
	if !reg.ValidUTF8() {
		return &storage.Error{Kind: storage.KindInvalid, Message: "record is not valid UTF-8"}
	}
	line, err := json.Marshal(reg)
	if err != nil {
		return &storage.Error{Kind: storage.KindInvalid, Message: "encode record", Err: err}
	}
	line = append(line, '\n')
	if len(line) > maxLineSize {
		return &storage.Error{Kind: storage.KindInvalid, Message: "record too large"}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return storage.Unavailable("create storage directory", err)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return s.fsError("open storage file", err)
	}

	// One write call per record so the append lands as a single unit
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return s.fsError("append record", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return s.fsError("sync storage file", err)
	}
	if err := f.Close(); err != nil {
		return s.fsError("close storage file", err)
	}
	return nil
}

func (s *Storage) ExistsForIdentity(ctx context.Context, email string) (bool, error) {
	found := false
	err := s.scan(ctx, func(reg *model.Registration) bool {
		if strings.EqualFold(reg.SubmittedByEmail, email) || strings.EqualFold(reg.Email, email) {
			found = true
			return false
		}
		return true
	})
	return found, err
}

// ReadAll returns every record in the file in append order
func (s *Storage) ReadAll(ctx context.Context) ([]*model.Registration, error) {
	var regs []*model.Registration
	err := s.scan(ctx, func(reg *model.Registration) bool {
		regs = append(regs, reg)
		return true
	})
	return regs, err
}

// Ping checks the storage directory can be created
func (s *Storage) Ping(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return storage.Unavailable("create storage directory", err)
	}
	return nil
}

func (s *Storage) Backend() string {
	return storage.BackendLocal
}

// scan calls fn for each decodable record until fn returns false.
// A missing file holds no records. Lines that fail to decode or exceed
// maxLineSize are skipped.
func (s *Storage) scan(ctx context.Context, fn func(*model.Registration) bool) error {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return s.fsError("open storage file", err)
	}
	defer func() { _ = f.Close() }()

	r := bufio.NewReaderSize(f, 64*1024)
	var buf []byte
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, tooLong, err := readLine(r, buf[:0])
		buf = line
		if err != nil && !errors.Is(err, io.EOF) {
			return storage.Unavailable("read storage file", err)
		}

		if !tooLong && len(bytes.TrimSpace(line)) > 0 {
			var reg model.Registration
			if jsonErr := json.Unmarshal(line, &reg); jsonErr == nil {
				if !fn(&reg) {
					return nil
				}
			}
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

// readLine reads up to and including the next newline into buf. A line longer
// than maxLineSize is consumed but not kept, and reported as tooLong.
func readLine(r *bufio.Reader, buf []byte) (line []byte, tooLong bool, err error) {
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(chunk) > maxLineSize {
				tooLong = true
				buf = buf[:0]
			} else {
				buf = append(buf, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return buf, tooLong, err
	}
}

func (s *Storage) fsError(op string, err error) *storage.Error {
	if errors.Is(err, fs.ErrPermission) {
		return &storage.Error{
			Kind:    storage.KindRejected,
			Code:    "EACCES",
			Message: op,
			Hint:    fmt.Sprintf("check that %s is writable by the server process", s.path),
			Err:     err,
		}
	}
	return storage.Unavailable(op, err)
}
