package countries

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func rawCountry(name string, pop int64, area float64, continent string, un bool, latlng ...float64) RawCountry {
	return RawCountry{
		Name:       RawName{Common: name},
		Population: pop,
		Area:       area,
		Continents: []string{continent},
		Latlng:     latlng,
		UNMember:   un,
	}
}

func fixture() []RawCountry {
	return []RawCountry{
		rawCountry("Germany", 83_000_000, 357_022, "Europe", true, 51, 9),
		rawCountry("Poland", 37_000_000, 312_696, "Europe", true, 52, 19),
		rawCountry("India", 1_380_000_000, 3_287_590, "Asia", true, 20, 77),
		rawCountry("Brazil", 212_000_000, 8_515_767, "South America", true, -10, -55),
		rawCountry("Greenland", 56_000, 2_166_086, "North America", false, 72, -40),
		rawCountry("Vatican City", 451, 0.44, "Europe", false, 41.9, 12.45),
		rawCountry("Heard Island and McDonald Islands", 0, 412, "Antarctica", false),
		rawCountry("Nigeria", 100_000_000, 923_768, "Africa", true, 10, 8), // not above the threshold
	}
}

func TestNormalize(t *testing.T) {
	list, err := Normalize(fixture())
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(list) != 8 {
		t.Fatalf("len = %d, want 8", len(list))
	}
	if list[0].Name != "Germany" || list[0].Position == nil || *list[0].Position != (Point{51, 9}) {
		t.Fatalf("Germany = %+v", list[0])
	}
	if list[6].Position != nil {
		t.Fatalf("Heard Island position = %+v, want nil", list[6].Position)
	}
}

func TestNormalizeRejects(t *testing.T) {
	ok := rawCountry("France", 1, 1, "Europe", true, 46, 2)
	cases := map[string][]RawCountry{
		"empty":     nil,
		"no name":   {rawCountry("  ", 1, 1, "Europe", true)},
		"negative":  {rawCountry("X", -1, 1, "Europe", true)},
		"neg area":  {rawCountry("X", 1, -1, "Europe", true)},
		"continent": {{Name: RawName{Common: "X"}, Population: 1}},
		"duplicate": {ok, rawCountry("france", 2, 2, "Europe", true)},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Normalize(in); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNormalizeBadCoordinates(t *testing.T) {
	list, err := Normalize([]RawCountry{rawCountry("X", 1, 1, "Asia", true, 95, 10)})
	if err != nil {
		t.Fatal(err)
	}
	if list[0].Position != nil {
		t.Fatalf("position = %+v, want nil for out-of-range latitude", list[0].Position)
	}
}

func TestParseTier(t *testing.T) {
	cases := map[string]Tier{
		"EASY":        TierEasy,
		"easy":        TierEasy,
		" Hard ":      TierHard,
		"EASY_EUROPE": TierEasyEurope,
		"easy-europe": TierEasyEurope,
		"expert":      TierExpert,
	}
	for in, want := range cases {
		got, err := ParseTier(in)
		if err != nil || got != want {
			t.Fatalf("ParseTier(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	for _, in := range []string{"", "MEDIUM", "easy europe"} {
		_, err := ParseTier(in)
		if !errors.Is(err, ErrInvalidTier) {
			t.Fatalf("ParseTier(%q) err = %v, want ErrInvalidTier", in, err)
		}
		var te *TierError
		if !errors.As(err, &te) || te.Input != in {
			t.Fatalf("ParseTier(%q) TierError = %+v", in, te)
		}
	}
}

func newTestCatalog(t *testing.T, raw []RawCountry, opts ...Option) (*Catalog, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	p := ProviderFunc(func(ctx context.Context) ([]RawCountry, error) {
		calls.Add(1)
		return raw, nil
	})
	return NewCatalog(p, opts...), &calls
}

func names(list []Country) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.Name
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestListByTier(t *testing.T) {
	cat, _ := newTestCatalog(t, fixture())
	ctx := context.Background()
	cases := map[Tier][]string{
		TierEasy:       {"India", "Brazil"},
		TierEasyEurope: {"Germany", "Poland", "Vatican City"},
		TierHard:       {"Germany", "Poland", "India", "Brazil", "Nigeria"},
		TierExpert: {"Germany", "Poland", "India", "Brazil", "Greenland", "Vatican City",
			"Heard Island and McDonald Islands", "Nigeria"},
	}
	for tier, want := range cases {
		list, err := cat.ListByTier(ctx, tier)
		if err != nil {
			t.Fatalf("ListByTier(%s): %v", tier, err)
		}
		if got := names(list); !equalStrings(got, want) {
			t.Fatalf("ListByTier(%s) = %v, want %v", tier, got, want)
		}
		for _, c := range list {
			if !tier.Includes(c) {
				t.Fatalf("%s listed under %s", c.Name, tier)
			}
		}
	}
	if _, err := cat.ListByTier(ctx, Tier("NOPE")); !errors.Is(err, ErrInvalidTier) {
		t.Fatalf("invalid tier err = %v", err)
	}
}

func TestFindByName(t *testing.T) {
	cat, _ := newTestCatalog(t, fixture())
	ctx := context.Background()
	for _, in := range []string{"germany", "GERMANY", " Germany "} {
		c, err := cat.FindByName(ctx, in)
		if err != nil || c.Name != "Germany" {
			t.Fatalf("FindByName(%q) = %+v, %v", in, c, err)
		}
	}
	if _, err := cat.FindByName(ctx, "Atlantis"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRandomByTierDeterministic(t *testing.T) {
	var gotN int
	cat, _ := newTestCatalog(t, fixture(), WithIntn(func(n int) int { gotN = n; return n - 1 }))
	c, err := cat.RandomByTier(context.Background(), TierEasyEurope)
	if err != nil {
		t.Fatal(err)
	}
	if gotN != 3 || c.Name != "Vatican City" {
		t.Fatalf("RandomByTier = %s (n=%d), want Vatican City (n=3)", c.Name, gotN)
	}
}

func TestRandomByTierCoversSet(t *testing.T) {
	cat, _ := newTestCatalog(t, fixture())
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		c, err := cat.RandomByTier(context.Background(), TierEasy)
		if err != nil {
			t.Fatal(err)
		}
		if !TierEasy.Includes(c) {
			t.Fatalf("%s drawn for EASY", c.Name)
		}
		seen[c.Name] = true
	}
	if len(seen) != 2 {
		t.Fatalf("drew %v, want both EASY countries", seen)
	}
}

func TestRandomByTierEmpty(t *testing.T) {
	cat, _ := newTestCatalog(t, []RawCountry{rawCountry("Iceland", 370_000, 103_000, "Europe", true, 65, -18)})
	if _, err := cat.RandomByTier(context.Background(), TierEasy); !errors.Is(err, ErrEmptyTier) {
		t.Fatalf("err = %v, want ErrEmptyTier", err)
	}
}

func TestLoadOnceConcurrent(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	p := ProviderFunc(func(ctx context.Context) ([]RawCountry, error) {
		calls.Add(1)
		<-release
		return fixture(), nil
	})
	cat := NewCatalog(p)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cat.FindByName(context.Background(), "Poland")
			errs <- err
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("FindByName: %v", err)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("provider called %d times, want 1", n)
	}
	if !cat.Loaded() {
		t.Fatal("Loaded() = false after successful load")
	}
}

func TestLoadFailureRetries(t *testing.T) {
	var calls atomic.Int32
	p := ProviderFunc(func(ctx context.Context) ([]RawCountry, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("connection refused")
		}
		return fixture(), nil
	})
	cat := NewCatalog(p)
	ctx := context.Background()

	err := cat.Load(ctx)
	if !IsDataSource(err) {
		t.Fatalf("first Load err = %v, want DataSourceError", err)
	}
	if cat.Loaded() {
		t.Fatal("catalog loaded after failure")
	}
	if err := cat.Load(ctx); err != nil {
		t.Fatalf("second Load: %v", err)
	}
	all, _ := cat.All(ctx)
	if len(all) != 8 {
		t.Fatalf("All len = %d, want 8", len(all))
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
}

func TestLoadMalformed(t *testing.T) {
	cat, _ := newTestCatalog(t, []RawCountry{{Name: RawName{Common: "X"}}})
	err := cat.Load(context.Background())
	var dse *DataSourceError
	if !errors.As(err, &dse) || dse.Op != "normalize" {
		t.Fatalf("err = %v, want normalize DataSourceError", err)
	}
}

func TestLoadIgnoresCallerCancel(t *testing.T) {
	p := ProviderFunc(func(ctx context.Context) ([]RawCountry, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return fixture(), nil
	})
	cat := NewCatalog(p)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := cat.Load(ctx); err != nil {
		t.Fatalf("Load with cancelled ctx: %v", err)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	cat, _ := newTestCatalog(t, fixture())
	ctx := context.Background()
	a, _ := cat.All(ctx)
	a[0].Name = "Changed"
	b, _ := cat.All(ctx)
	if b[0].Name != "Germany" {
		t.Fatalf("catalog mutated through All: %s", b[0].Name)
	}
}

func TestTierLookupUsesCanonicalName(t *testing.T) {
	cat, _ := newTestCatalog(t, fixture())
	ctx := context.Background()

	list, err := cat.ListByTier(ctx, Tier("easy"))
	if err != nil || len(list) != 2 {
		t.Fatalf("ListByTier(easy) = %d countries, %v; want 2", len(list), err)
	}
	list, err = cat.ListByTier(ctx, Tier("easy-europe"))
	if err != nil || len(list) != 3 {
		t.Fatalf("ListByTier(easy-europe) = %d countries, %v; want 3", len(list), err)
	}
	c, err := cat.RandomByTier(ctx, Tier("hard"))
	if err != nil || !TierHard.Includes(c) {
		t.Fatalf("RandomByTier(hard) = %+v, %v", c, err)
	}
	names, err := cat.Names(ctx, Tier(" Expert "))
	if err != nil || len(names) != 8 {
		t.Fatalf("Names(expert) = %v, %v", names, err)
	}
}
