// internal/countries/catalog.go
//
// Process-wide country catalog.
// Responsibilities:
//   - Fetch the raw dataset from a Provider once, normalize it, publish it.
//   - Case-insensitive lookup by name.
//   - Tier filtering and uniform random selection.
//
// Loading:
//   • Concurrent first callers share one in-flight fetch (singleflight) and
//     all receive its result.
//   • A failed load leaves the catalog empty; the next call fetches again.
//   • Once published, the dataset is read lock-free through an atomic pointer.

package countries

import (
	"context"
	"crypto/rand"
	"math/big"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"github.com/robalobadob/countryguess/internal/telemetry"
)

const loadKey = "catalog"

// dataset is the immutable, published catalog contents.
type dataset struct {
	list   []Country          // load order
	byName map[string]int     // nameKey -> index in list
	tiers  map[Tier][]Country // precomputed candidate sets
}

// Catalog serves normalized country records to every session.
type Catalog struct {
	provider Provider
	intn     func(n int) int

	data  atomic.Pointer[dataset]
	group singleflight.Group
}

// Option customizes a Catalog.
type Option func(*Catalog)

// WithIntn replaces the random source used by RandomByTier.
// intn must return a uniform value in [0, n).
func WithIntn(intn func(n int) int) Option {
	return func(c *Catalog) { c.intn = intn }
}

// NewCatalog returns an unloaded catalog backed by p.
func NewCatalog(p Provider, opts ...Option) *Catalog {
	c := &Catalog{provider: p, intn: cryptoIntn}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Load fetches and publishes the dataset if it is not loaded yet.
func (c *Catalog) Load(ctx context.Context) error {
	_, err := c.ensure(ctx)
	return err
}

// Loaded reports whether a dataset has been published.
func (c *Catalog) Loaded() bool { return c.data.Load() != nil }

func (c *Catalog) ensure(ctx context.Context) (*dataset, error) {
	if d := c.data.Load(); d != nil {
		return d, nil
	}
	v, err, _ := c.group.Do(loadKey, func() (any, error) {
		// A concurrent Do may have finished between our fast check and now.
		if d := c.data.Load(); d != nil {
			return d, nil
		}
		// Shared by every waiter, so one caller's cancellation must not fail the rest.
		d, err := c.fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.data.Store(d)
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*dataset), nil
}

func (c *Catalog) fetch(ctx context.Context) (*dataset, error) {
	ctx, span := telemetry.Tracer("catalog").Start(ctx, "catalog.load")
	defer span.End()

	raw, err := c.provider.Fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		log.Error().Err(err).Msg("catalog fetch failed")
		return nil, &DataSourceError{Op: "fetch", Err: err}
	}
	list, err := Normalize(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed data")
		log.Error().Err(err).Int("records", len(raw)).Msg("catalog data malformed")
		return nil, &DataSourceError{Op: "normalize", Err: err}
	}

	d := &dataset{
		list:   list,
		byName: make(map[string]int, len(list)),
		tiers:  make(map[Tier][]Country, 4),
	}
	for i, ct := range list {
		d.byName[ct.Key()] = i
	}
	for _, t := range Tiers() {
		var set []Country
		for _, ct := range list {
			if t.Includes(ct) {
				set = append(set, ct)
			}
		}
		d.tiers[t] = set
	}

	span.SetAttributes(attribute.Int("catalog.countries", len(list)))
	log.Info().Int("countries", len(list)).Msg("catalog loaded")
	return d, nil
}

// All returns every country in load order.
func (c *Catalog) All(ctx context.Context) ([]Country, error) {
	d, err := c.ensure(ctx)
	if err != nil {
		return nil, err
	}
	return append([]Country(nil), d.list...), nil
}

// FindByName looks up a country by case-insensitive exact name.
func (c *Catalog) FindByName(ctx context.Context, name string) (Country, error) {
	d, err := c.ensure(ctx)
	if err != nil {
		return Country{}, err
	}
	i, ok := d.byName[nameKey(name)]
	if !ok {
		return Country{}, ErrNotFound
	}
	return d.list[i], nil
}

// ListByTier returns the candidate set of t in catalog load order.
func (c *Catalog) ListByTier(ctx context.Context, t Tier) ([]Country, error) {
	t, err := ParseTier(string(t))
	if err != nil {
		return nil, err
	}
	d, err := c.ensure(ctx)
	if err != nil {
		return nil, err
	}
	return append([]Country(nil), d.tiers[t]...), nil
}

// Names returns the display names of the candidate set of t.
func (c *Catalog) Names(ctx context.Context, t Tier) ([]string, error) {
	list, err := c.ListByTier(ctx, t)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(list))
	for i, ct := range list {
		names[i] = ct.Name
	}
	return names, nil
}

// RandomByTier picks a country uniformly from the candidate set of t.
func (c *Catalog) RandomByTier(ctx context.Context, t Tier) (Country, error) {
	t, err := ParseTier(string(t))
	if err != nil {
		return Country{}, err
	}
	d, err := c.ensure(ctx)
	if err != nil {
		return Country{}, err
	}
	set := d.tiers[t]
	if len(set) == 0 {
		return Country{}, ErrEmptyTier
	}
	return set[c.intn(len(set))], nil
}

// cryptoIntn returns a uniform value in [0, n) from crypto/rand.
func cryptoIntn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}
