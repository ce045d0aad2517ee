// internal/countries/snapshot/store.go
//
// Snapshot cache for the raw country dataset.
//
// The last good upstream dataset is stored as lz4-compressed JSON, one row
// per source. Provider wraps an upstream countries.Provider:
//   1. A snapshot younger than MaxAge is served without calling upstream.
//   2. Otherwise upstream is fetched; on success the snapshot is replaced.
//   3. If upstream fails, a stale snapshot is served instead.
//   4. No snapshot and upstream failure returns the upstream error.

package snapshot

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pierrec/lz4/v4"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/countryguess/internal/countries"
)

// ErrNoSnapshot is returned by Latest when nothing has been stored yet.
var ErrNoSnapshot = errors.New("no snapshot stored")

// Store persists dataset snapshots in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens the database at path and applies migrations.
func Open(path string) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Save replaces the snapshot for source.
func (s *Store) Save(ctx context.Context, source string, raw []countries.RawCountry, fetchedAt time.Time) error {
	doc, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	payload, err := compress(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO snapshots (source, fetched_at, records, payload)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(source) DO UPDATE SET
            fetched_at=excluded.fetched_at,
            records=excluded.records,
            payload=excluded.payload`,
		source, fetchedAt.UTC().Format(time.RFC3339Nano), len(raw), payload,
	)
	return err
}

// Latest returns the stored snapshot for source and when it was fetched.
func (s *Store) Latest(ctx context.Context, source string) ([]countries.RawCountry, time.Time, error) {
	var (
		fetched string
		payload []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT fetched_at, payload FROM snapshots WHERE source=?`, source,
	).Scan(&fetched, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ErrNoSnapshot
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	at, err := time.Parse(time.RFC3339Nano, fetched)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("parse fetched_at: %w", err)
	}
	doc, err := decompress(payload)
	if err != nil {
		return nil, time.Time{}, err
	}
	var raw []countries.RawCountry
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return raw, at, nil
}

func compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(src); err != nil {
		return nil, fmt.Errorf("lz4 write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("lz4 close: %w", err)
	}
	return buf.Bytes(), nil
}

func decompress(src []byte) ([]byte, error) {
	out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(src)))
	if err != nil {
		return nil, fmt.Errorf("lz4 read: %w", err)
	}
	return out, nil
}

// Provider serves upstream data through the snapshot cache.
type Provider struct {
	Upstream countries.Provider
	Store    *Store
	Source   string        // row key, e.g. the upstream URL
	MaxAge   time.Duration // 0 means always try upstream first
	Now      func() time.Time
}

// Fetch satisfies countries.Provider.
func (p *Provider) Fetch(ctx context.Context) ([]countries.RawCountry, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	cached, fetchedAt, cacheErr := p.Store.Latest(ctx, p.Source)
	if cacheErr != nil && !errors.Is(cacheErr, ErrNoSnapshot) {
		log.Warn().Err(cacheErr).Str("source", p.Source).Msg("read snapshot")
	}
	haveCache := cacheErr == nil && len(cached) > 0
	if haveCache && p.MaxAge > 0 && now().Sub(fetchedAt) < p.MaxAge {
		log.Debug().Str("source", p.Source).Time("fetchedAt", fetchedAt).Msg("serving fresh snapshot")
		return cached, nil
	}

	raw, err := p.Upstream.Fetch(ctx)
	if err != nil {
		if haveCache {
			log.Warn().Err(err).Time("fetchedAt", fetchedAt).Msg("upstream failed, serving stale snapshot")
			return cached, nil
		}
		return nil, err
	}
	if err := p.Store.Save(ctx, p.Source, raw, now()); err != nil {
		// The fresh data is still good to serve.
		log.Warn().Err(err).Str("source", p.Source).Msg("save snapshot")
	}
	return raw, nil
}
