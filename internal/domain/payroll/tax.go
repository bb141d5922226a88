package payroll

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// Law is a versioned tax rule document for one region. Rules is opaque to
// the registry; only the calculator registered for the region interprets it.
type Law struct {
	Region  string         `json:"region"`
	Version string         `json:"version"`
	Rules   map[string]any `json:"rules"`
}

func LawKey(region, version string) string {
	return region + "-" + version
}

// LawRegistry holds the laws loaded at startup. Runs hold the read lock;
// a reload replaces the whole set under the write lock, so the engine
// never observes a half-swapped registry.
type LawRegistry struct {
	mu       sync.RWMutex
	byKey    map[string]Law
	byRegion map[string]Law
}

func NewLawRegistry() *LawRegistry {
	return &LawRegistry{
		byKey:    make(map[string]Law),
		byRegion: make(map[string]Law),
	}
}

// Put registers a law under its composite "{region}-{version}" key and
// makes it the region's current law. When several versions exist for one
// region, the last one registered wins the region lookup.
func (r *LawRegistry) Put(law Law) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKey[LawKey(law.Region, law.Version)] = law
	r.byRegion[law.Region] = law
}

func (r *LawRegistry) Get(region, version string) (Law, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	law, ok := r.byKey[LawKey(region, version)]
	return law, ok
}

// ByRegion returns the current law for a region, if any version of it is
// registered. This is the lookup the engine uses.
func (r *LawRegistry) ByRegion(region string) (Law, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	law, ok := r.byRegion[region]
	return law, ok
}

func (r *LawRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byKey)
}

// Laws returns a snapshot of every registered law, ordered by composite key.
func (r *LawRegistry) Laws() []Law {
	r.mu.RLock()
	defer r.mu.RUnlock()
	laws := make([]Law, 0, len(r.byKey))
	for _, law := range r.byKey {
		laws = append(laws, law)
	}
	sort.Slice(laws, func(i, j int) bool {
		return LawKey(laws[i].Region, laws[i].Version) < LawKey(laws[j].Region, laws[j].Version)
	})
	return laws
}

// ReplaceAll swaps the registry contents in one critical section. Laws are
// applied in slice order, so later duplicates win region lookups, same as
// repeated Put calls.
func (r *LawRegistry) ReplaceAll(laws []Law) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKey = make(map[string]Law, len(laws))
	r.byRegion = make(map[string]Law, len(laws))
	for _, law := range laws {
		r.byKey[LawKey(law.Region, law.Version)] = law
		r.byRegion[law.Region] = law
	}
}

// Calculator computes the tax withheld for one employee. Implementations
// are invoked from many engine workers at once and must be reentrant.
type Calculator interface {
	Region() string
	Calculate(emp Employee, gross float64, law Law) float64
}

type CalculatorRegistry struct {
	mu       sync.RWMutex
	byRegion map[string]Calculator
}

func NewCalculatorRegistry() *CalculatorRegistry {
	return &CalculatorRegistry{byRegion: make(map[string]Calculator)}
}

func (r *CalculatorRegistry) Register(c Calculator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byRegion[c.Region()] = c
}

func (r *CalculatorRegistry) Lookup(region string) (Calculator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byRegion[region]
	return c, ok
}

func (r *CalculatorRegistry) Regions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	regions := make([]string, 0, len(r.byRegion))
	for region := range r.byRegion {
		regions = append(regions, region)
	}
	sort.Strings(regions)
	return regions
}

func (r *CalculatorRegistry) ReplaceAll(calcs []Calculator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byRegion = make(map[string]Calculator, len(calcs))
	for _, c := range calcs {
		r.byRegion[c.Region()] = c
	}
}

// FederalFlatRate withholds a flat fraction of gross, read from the law's
// "rate" rule. Real federal tax uses brackets and exemptions; this is the
// reference fallback calculator.
type FederalFlatRate struct{}

func (FederalFlatRate) Region() string { return RegionFederal }

func (FederalFlatRate) Calculate(_ Employee, gross float64, law Law) float64 {
	return flatTax(gross, law)
}

// RegionalFlatRate applies the same flat-rate semantics for an arbitrary
// region. One is auto-registered per region seen in the loaded laws.
type RegionalFlatRate struct {
	region string
}

func NewRegionalFlatRate(region string) RegionalFlatRate {
	return RegionalFlatRate{region: region}
}

func (c RegionalFlatRate) Region() string { return c.region }

func (c RegionalFlatRate) Calculate(_ Employee, gross float64, law Law) float64 {
	return flatTax(gross, law)
}

// flatTax reads rules.rate as a number and returns gross * rate rounded to
// cents. A missing or non-numeric rate yields zero tax.
func flatTax(gross float64, law Law) float64 {
	rate, ok := law.Rules["rate"].(float64)
	if !ok {
		return 0
	}
	tax := decimal.NewFromFloat(gross).Mul(decimal.NewFromFloat(rate)).Round(2)
	out, _ := tax.Float64()
	return out
}
