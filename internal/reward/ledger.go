package reward

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/StarryNift/starrynift-nft-box/internal/execution"
	"github.com/StarryNift/starrynift-nft-box/internal/sui"
)

// Ledger remembers which addresses were paid and the result of every payment.
// Both lists are rewritten on every Record so a crash never loses a payment.
type Ledger struct {
	fundedPath string
	logPath    string

	mu     sync.Mutex
	funded []string
	index  map[string]struct{}
	log    []execution.Result
}

// LoadLedger reads the funded list and payment log. Missing files start empty.
func LoadLedger(fundedPath, logPath string) (*Ledger, error) {
	l := &Ledger{fundedPath: fundedPath, logPath: logPath, index: make(map[string]struct{})}
	var funded []string
	if err := readJSON(fundedPath, &funded); err != nil {
		return nil, fmt.Errorf("funded list: %w", err)
	}
	if err := readJSON(logPath, &l.log); err != nil {
		return nil, fmt.Errorf("funded log: %w", err)
	}
	for _, addr := range funded {
		key := ledgerKey(addr)
		if _, dup := l.index[key]; dup {
			continue
		}
		l.index[key] = struct{}{}
		l.funded = append(l.funded, addr)
	}
	return l, nil
}

// IsFunded reports whether addr was already paid.
func (l *Ledger) IsFunded(addr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.index[ledgerKey(addr)]
	return ok
}

// Record marks addr funded, appends res to the log and persists both files.
func (l *Ledger) Record(addr string, res execution.Result) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := ledgerKey(addr)
	if _, ok := l.index[key]; !ok {
		l.index[key] = struct{}{}
		l.funded = append(l.funded, addr)
	}
	l.log = append(l.log, res)

	if err := writeJSON(l.fundedPath, nonNil(l.funded)); err != nil {
		return fmt.Errorf("persist funded list: %w", err)
	}
	if err := writeJSON(l.logPath, l.log); err != nil {
		return fmt.Errorf("persist funded log: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the funded addresses.
func (l *Ledger) Snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.funded))
	copy(out, l.funded)
	return out
}

// Log returns a copy of the recorded payments.
func (l *Ledger) Log() []execution.Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]execution.Result, len(l.log))
	copy(out, l.log)
	return out
}

func ledgerKey(addr string) string {
	if norm, err := sui.NormalizeAddress(addr); err == nil {
		return norm
	}
	return addr
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func readJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}
