// Package reward reconciles coupon claims made on chain against a local ledger of paid
// addresses and pays out the SUI each claimed coupon is worth.
package reward

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/StarryNift/starrynift-nft-box/internal/metrics"
	"github.com/StarryNift/starrynift-nft-box/internal/sui"
)

// ClaimFieldType is the dynamic field a claim transaction creates to record the coupon value.
const ClaimFieldType = "0x2::dynamic_field::Field<address, u64>"

// Claim is one coupon claim: who claimed and how many whole SUI the coupon was worth.
type Claim struct {
	Sender string `json:"sender"`
	Value  uint64 `json:"value,string"`
}

// Reader is the read side of the node the scanner needs.
type Reader interface {
	QueryEvents(ctx context.Context, filter sui.EventFilter, cursor *sui.EventID, limit int, descending bool) (*sui.EventPage, error)
	GetTransactionBlock(ctx context.Context, digest string, opts sui.TransactionBlockOptions) (*sui.TransactionBlockResponse, error)
	GetObject(ctx context.Context, objectID string, opts sui.ObjectDataOptions) (*sui.ObjectResponse, error)
}

// Page is one page of claims and where to continue.
type Page struct {
	Claims  []Claim
	Cursor  *sui.EventID
	HasNext bool
}

// ScannerConfig configures a Scanner.
type ScannerConfig struct {
	EventType   string
	PageSize    int
	Concurrency int
	ClaimsPath  string
}

// Scanner turns claim events into claim records.
type Scanner struct {
	reader Reader
	cfg    ScannerConfig
	log    zerolog.Logger
}

func NewScanner(reader Reader, cfg ScannerConfig, log zerolog.Logger) *Scanner {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Scanner{reader: reader, cfg: cfg, log: log.With().Str("component", "scanner").Logger()}
}

// EventType is the Move event the scanner queries.
func (s *Scanner) EventType() string { return s.cfg.EventType }

// Page reads one page of claim events, newest first, and resolves each to a claim.
// Events whose transaction carries no claim field are skipped.
func (s *Scanner) Page(ctx context.Context, cursor *sui.EventID) (*Page, error) {
	events, err := s.reader.QueryEvents(ctx, sui.EventFilter{MoveEventType: s.cfg.EventType}, cursor, s.cfg.PageSize, true)
	if err != nil {
		return nil, err
	}

	resolved := make([]*Claim, len(events.Data))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, ev := range events.Data {
		i, ev := i, ev
		g.Go(func() error {
			claim, err := s.resolve(gctx, ev)
			if err != nil {
				return fmt.Errorf("event %s/%s: %w", ev.ID.TxDigest, ev.ID.EventSeq, err)
			}
			resolved[i] = claim
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	page := &Page{Cursor: events.NextCursor, HasNext: events.HasNextPage}
	for _, c := range resolved {
		if c != nil {
			page.Claims = append(page.Claims, *c)
		}
	}
	metrics.ClaimsScannedTotal.Add(float64(len(page.Claims)))
	return page, nil
}

func (s *Scanner) resolve(ctx context.Context, ev sui.Event) (*Claim, error) {
	tx, err := s.reader.GetTransactionBlock(ctx, ev.ID.TxDigest, sui.FullTransactionOptions)
	if err != nil {
		return nil, err
	}
	if len(tx.ObjectChanges) == 0 {
		s.log.Debug().Str("digest", ev.ID.TxDigest).Msg("claim transaction has no object changes")
		return nil, nil
	}
	var fieldID string
	for _, c := range tx.ObjectChanges {
		if c.Type == "created" && c.ObjectType == ClaimFieldType {
			fieldID = c.ObjectID
			break
		}
	}
	if fieldID == "" {
		s.log.Warn().Str("digest", ev.ID.TxDigest).Str("sender", ev.Sender).Msg("claim transaction created no value field")
		return nil, nil
	}
	obj, err := s.reader.GetObject(ctx, fieldID, sui.ObjectDataOptions{ShowType: true, ShowContent: true, ShowDisplay: true})
	if err != nil {
		return nil, err
	}
	if obj.Data == nil || obj.Data.Content == nil {
		s.log.Warn().Str("object", fieldID).Msg("claim field has no content")
		return nil, nil
	}
	value, err := obj.Data.Content.FieldUint64("value")
	if err != nil {
		return nil, fmt.Errorf("claim field %s: %w", fieldID, err)
	}
	return &Claim{Sender: ev.Sender, Value: value}, nil
}

// FetchAll walks every page and writes the claims file.
func (s *Scanner) FetchAll(ctx context.Context) ([]Claim, error) {
	all := []Claim{}
	var cursor *sui.EventID
	for {
		page, err := s.Page(ctx, cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Claims...)
		cursor = page.Cursor
		if cursor == nil || !page.HasNext {
			break
		}
	}
	if s.cfg.ClaimsPath != "" {
		if err := writeJSON(s.cfg.ClaimsPath, all); err != nil {
			return all, fmt.Errorf("write claims: %w", err)
		}
	}
	s.log.Info().Int("claims", len(all)).Msg("claim scan complete")
	return all, nil
}

// writeJSON replaces path atomically with v indented by two spaces.
func writeJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
