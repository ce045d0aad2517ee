package snapshot

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robalobadob/countryguess/internal/countries"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "snap.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func sample(name string) []countries.RawCountry {
	return []countries.RawCountry{{
		Name:       countries.RawName{Common: name},
		Population: 10,
		Area:       20,
		Continents: []string{"Europe"},
		Latlng:     []float64{1, 2},
		UNMember:   true,
	}}
}

type upstream struct {
	calls atomic.Int32
	raw   []countries.RawCountry
	err   error
}

func (u *upstream) Fetch(ctx context.Context) ([]countries.RawCountry, error) {
	u.calls.Add(1)
	return u.raw, u.err
}

func TestSaveLatest(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, _, err := st.Latest(ctx, "src"); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("Latest on empty store err = %v", err)
	}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := st.Save(ctx, "src", sample("Austria"), at); err != nil {
		t.Fatal(err)
	}
	if err := st.Save(ctx, "src", sample("Belgium"), at.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	raw, got, err := st.Latest(ctx, "src")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(at.Add(time.Hour)) {
		t.Fatalf("fetchedAt = %v", got)
	}
	if len(raw) != 1 || raw[0].Name.Common != "Belgium" || raw[0].Latlng[1] != 2 {
		t.Fatalf("raw = %+v", raw)
	}
}

func TestProviderFreshSnapshot(t *testing.T) {
	st := openTestStore(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := st.Save(context.Background(), "src", sample("Austria"), now.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	up := &upstream{raw: sample("Belgium")}
	p := &Provider{Upstream: up, Store: st, Source: "src", MaxAge: 24 * time.Hour, Now: func() time.Time { return now }}

	raw, err := p.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if raw[0].Name.Common != "Austria" || up.calls.Load() != 0 {
		t.Fatalf("got %s with %d upstream calls, want cached Austria", raw[0].Name.Common, up.calls.Load())
	}
}

func TestProviderRefreshesStale(t *testing.T) {
	st := openTestStore(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	if err := st.Save(ctx, "src", sample("Austria"), now.Add(-48*time.Hour)); err != nil {
		t.Fatal(err)
	}
	up := &upstream{raw: sample("Belgium")}
	p := &Provider{Upstream: up, Store: st, Source: "src", MaxAge: 24 * time.Hour, Now: func() time.Time { return now }}

	raw, err := p.Fetch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if raw[0].Name.Common != "Belgium" {
		t.Fatalf("got %s, want upstream Belgium", raw[0].Name.Common)
	}
	saved, at, err := st.Latest(ctx, "src")
	if err != nil || saved[0].Name.Common != "Belgium" || !at.Equal(now) {
		t.Fatalf("snapshot not replaced: %+v at %v (%v)", saved, at, err)
	}
}

func TestProviderServesStaleOnFailure(t *testing.T) {
	st := openTestStore(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := st.Save(context.Background(), "src", sample("Austria"), now.Add(-48*time.Hour)); err != nil {
		t.Fatal(err)
	}
	up := &upstream{err: errors.New("boom")}
	p := &Provider{Upstream: up, Store: st, Source: "src", MaxAge: time.Hour, Now: func() time.Time { return now }}

	raw, err := p.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if raw[0].Name.Common != "Austria" {
		t.Fatalf("got %s, want stale Austria", raw[0].Name.Common)
	}
}

func TestProviderNoSnapshotFailure(t *testing.T) {
	st := openTestStore(t)
	boom := errors.New("boom")
	p := &Provider{Upstream: &upstream{err: boom}, Store: st, Source: "src", MaxAge: time.Hour}
	if _, err := p.Fetch(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want upstream error", err)
	}
}

func TestReopenKeepsSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.db")
	st, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Save(context.Background(), "src", sample("Austria"), time.Now()); err != nil {
		t.Fatal(err)
	}
	_ = st.Close()

	st, err = Open(path) // migrations must be idempotent
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	raw, _, err := st.Latest(context.Background(), "src")
	if err != nil || raw[0].Name.Common != "Austria" {
		t.Fatalf("Latest after reopen = %+v, %v", raw, err)
	}
}
