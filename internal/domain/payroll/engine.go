package payroll

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Engine turns a Request into a Result. It is a pure function over the
// request and the two registries: per-employee rows are computed in
// parallel across a bounded worker pool, but the output order always
// matches the input order and repeated runs over the same input are
// byte-identical.
type Engine struct {
	mu      sync.RWMutex
	laws    *LawRegistry
	calcs   *CalculatorRegistry
	workers int
}

type EngineOption func(*Engine)

// WithWorkers bounds the per-employee worker pool. Zero or negative means
// one worker per available core.
func WithWorkers(n int) EngineOption {
	return func(e *Engine) {
		e.workers = n
	}
}

func NewEngine(laws *LawRegistry, calcs *CalculatorRegistry, opts ...EngineOption) *Engine {
	e := &Engine{laws: laws, calcs: calcs}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers <= 0 {
		e.workers = runtime.GOMAXPROCS(0)
	}
	return e
}

// Run computes every employee's row. Only structural problems abort a run:
// missing registries or a cancelled context. Per-employee conditions such
// as an unknown region or a missing "hours" item are absorbed by the
// fallback rules and always produce a row.
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.laws == nil {
		return nil, ErrMissingLawRegistry
	}
	if e.calcs == nil {
		return nil, ErrMissingCalculatorRegistry
	}

	results := make([]EmployeeResult, len(req.Employees))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, emp := range req.Employees {
		i, emp := i, emp
		items := req.PayItems[emp.ID]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = e.payEmployee(emp, items)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("pay run aborted: %w", err)
	}

	return &Result{Period: req.PayPeriod, Results: results}, nil
}

// Swap runs fn while no pay run is in flight. Registry reloads go through
// it so a run never overlaps a mutation.
func (e *Engine) Swap(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn()
}

func (e *Engine) payEmployee(emp Employee, items []PayItem) EmployeeResult {
	base := emp.PayRate
	if emp.PayFrequency == FrequencyHourly {
		base = emp.PayRate * firstHours(items)
	}

	// Sum every non-hours adjustment in input order. Any additional
	// "hours" lines beyond the first are dropped here too, not summed.
	var extra float64
	for _, item := range items {
		if isHoursItem(item) {
			continue
		}
		extra += item.Amount
	}
	gross := base + extra

	// Law and calculator resolve independently, each falling back to the
	// federal entry. If either is still missing the run keeps going with
	// zero tax rather than failing the employee.
	law, haveLaw := e.laws.ByRegion(emp.HomeRegion)
	if !haveLaw {
		law, haveLaw = e.laws.ByRegion(RegionFederal)
	}
	calc, haveCalc := e.calcs.Lookup(emp.HomeRegion)
	if !haveCalc {
		calc, haveCalc = e.calcs.Lookup(RegionFederal)
	}

	var taxes float64
	if haveLaw && haveCalc {
		taxes = calc.Calculate(emp, gross, law)
	}

	details := map[string]any{}
	if haveLaw {
		details["tax_region"] = law.Region
		details["tax_version"] = law.Version
	}

	return EmployeeResult{
		Employee: emp,
		Gross:    gross,
		Taxes:    taxes,
		Net:      gross - taxes,
		Details:  details,
	}
}

// firstHours returns the amount of the first "hours" item, or zero when
// none is present.
func firstHours(items []PayItem) float64 {
	for _, item := range items {
		if isHoursItem(item) {
			return item.Amount
		}
	}
	return 0
}

func isHoursItem(item PayItem) bool {
	return strings.EqualFold(item.Description, hoursDescription)
}
