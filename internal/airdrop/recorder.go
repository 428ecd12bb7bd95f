package airdrop

import (
	"bufio"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry is one airdrop attempt as written to the JSONL log.
type Entry struct {
	Address    string    `json:"address"`
	AmountMist uint64    `json:"amountMist"`
	Digest     string    `json:"digest,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

const (
	StatusSuccess     = "success"
	StatusFailed      = "failed"
	StatusRefused     = "refused"
	StatusUnconfirmed = "unconfirmed"
)

// JSONLRecorder appends attempts as JSON lines so an interrupted run can resume.
type JSONLRecorder struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewJSONLRecorder creates/opens the target file and returns a recorder.
func NewJSONLRecorder(path string) (*JSONLRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLRecorder{
		file: file,
		enc:  json.NewEncoder(file),
	}, nil
}

// Record writes a single attempt.
func (r *JSONLRecorder) Record(entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return errors.New("recorder closed")
	}
	return r.enc.Encode(entry)
}

// Close flushes and closes the file handle.
func (r *JSONLRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// Settled returns the addresses a previous run paid or may have paid. A missing log means none.
func Settled(path string) (map[string]bool, error) {
	done := make(map[string]bool)
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return done, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue // torn final line from a crash
		}
		if entry.Status == StatusSuccess || entry.Status == StatusUnconfirmed {
			done[entry.Address] = true
		}
	}
	return done, scanner.Err()
}
