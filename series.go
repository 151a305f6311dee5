package stresslab

import (
	"iter"
	"math"
	"slices"
	"sort"
	"strings"
)

// Series stores a named chronological sequence of float64 values, each
// associated with a specific date. Dates are unique and always sorted.
type Series struct {
	name string
	days []Date
	vals []float64
}

// NewSeries returns a new empty series with the given name.
func NewSeries(name string) *Series {
	return &Series{name: name}
}

// Name returns the series name.
func (s *Series) Name() string { return s.name }

// Len returns the number of points in the series.
func (s *Series) Len() int { return len(s.days) }

// IsEmpty reports whether the series has no points.
func (s *Series) IsEmpty() bool { return len(s.days) == 0 }

// Append adds a point to the series. An existing value at that date is overwritten.
func (s *Series) Append(on Date, v float64) *Series {
	if i := slices.Index(s.days, on); i >= 0 {
		s.vals[i] = v
		return s
	}
	s.days = append(s.days, on)
	s.vals = append(s.vals, v)
	if len(s.days) > 1 && s.days[len(s.days)-2].After(on) {
		s.sort()
	}
	return s
}

type chronological struct{ *Series }

func (c chronological) Len() int           { return len(c.days) }
func (c chronological) Less(i, j int) bool { return c.days[i].Before(c.days[j]) }
func (c chronological) Swap(i, j int) {
	c.days[i], c.days[j] = c.days[j], c.days[i]
	c.vals[i], c.vals[j] = c.vals[j], c.vals[i]
}

func (s *Series) sort() { sort.Sort(chronological{s}) }

// At returns the i-th date and value in chronological order.
func (s *Series) At(i int) (Date, float64) { return s.days[i], s.vals[i] }

// Get returns the value at 'day' and true, or zero and false.
func (s *Series) Get(day Date) (float64, bool) {
	if i := slices.Index(s.days, day); i >= 0 {
		return s.vals[i], true
	}
	return 0, false
}

// First returns the first date and value. The series must not be empty.
func (s *Series) First() (Date, float64) { return s.days[0], s.vals[0] }

// Last returns the last date and value. The series must not be empty.
func (s *Series) Last() (Date, float64) {
	last := len(s.days) - 1
	return s.days[last], s.vals[last]
}

// Values returns an iterator over all date/value pairs, in chronological order.
func (s *Series) Values() iter.Seq2[Date, float64] {
	return func(yield func(Date, float64) bool) {
		for i, on := range s.days {
			if !yield(on, s.vals[i]) {
				return
			}
		}
	}
}

// Dates returns a copy of the series dates in chronological order.
func (s *Series) Dates() []Date { return slices.Clone(s.days) }

// Mean returns the arithmetic mean of the values, or 0 for an empty series.
func (s *Series) Mean() float64 {
	if len(s.vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s.vals {
		sum += v
	}
	return sum / float64(len(s.vals))
}

// Rename returns a shallow copy of the series under a new name.
func (s *Series) Rename(name string) *Series {
	return &Series{name: name, days: s.days, vals: s.vals}
}

// Panel is a date-indexed table of values, one column per instrument
// ticker. Missing cells are NaN. A Panel is never mutated once built:
// every transformation returns a new one.
type Panel struct {
	tickers []string       // sorted, uppercase
	index   map[string]int // ticker to column
	days    []Date         // strictly ascending, unique
	cells   [][]float64    // one row per day, NaN for missing
}

// PanelBuilder accumulates (day, ticker, value) points and assembles them
// into a Panel. The zero value is not usable, use NewPanelBuilder.
type PanelBuilder struct {
	points map[Date]map[string]float64
}

func NewPanelBuilder() *PanelBuilder {
	return &PanelBuilder{points: make(map[Date]map[string]float64)}
}

// Add records the value of a ticker on a day. Tickers are normalized to uppercase.
func (b *PanelBuilder) Add(on Date, ticker string, value float64) *PanelBuilder {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	row, ok := b.points[on]
	if !ok {
		row = make(map[string]float64)
		b.points[on] = row
	}
	row[ticker] = value
	return b
}

// Panel assembles the accumulated points. Rows where every ticker is
// missing do not exist by construction.
func (b *PanelBuilder) Panel() *Panel {
	tickerSet := make(map[string]struct{})
	days := make([]Date, 0, len(b.points))
	for on, row := range b.points {
		days = append(days, on)
		for t := range row {
			tickerSet[t] = struct{}{}
		}
	}
	slices.SortFunc(days, func(a, c Date) int { return a.Sub(c) })

	tickers := make([]string, 0, len(tickerSet))
	for t := range tickerSet {
		tickers = append(tickers, t)
	}
	slices.Sort(tickers)

	p := newPanel(tickers, days)
	for i, on := range days {
		for t, v := range b.points[on] {
			p.cells[i][p.index[t]] = v
		}
	}
	return p
}

func newPanel(tickers []string, days []Date) *Panel {
	index := make(map[string]int, len(tickers))
	for i, t := range tickers {
		index[t] = i
	}
	cells := make([][]float64, len(days))
	for i := range cells {
		row := make([]float64, len(tickers))
		for j := range row {
			row[j] = math.NaN()
		}
		cells[i] = row
	}
	return &Panel{tickers: tickers, index: index, days: days, cells: cells}
}

// Tickers returns the panel column names, sorted and uppercase.
func (p *Panel) Tickers() []string { return slices.Clone(p.tickers) }

// Days returns the panel dates in ascending order.
func (p *Panel) Days() []Date { return slices.Clone(p.days) }

// Len returns the number of rows (days) in the panel.
func (p *Panel) Len() int { return len(p.days) }

// IsEmpty reports whether the panel has no rows or no columns.
func (p *Panel) IsEmpty() bool { return len(p.days) == 0 || len(p.tickers) == 0 }

// Has reports whether the panel has a column for the ticker.
func (p *Panel) Has(ticker string) bool {
	_, ok := p.index[strings.ToUpper(ticker)]
	return ok
}

// Day returns the date of the i-th row.
func (p *Panel) Day(i int) Date { return p.days[i] }

// Get returns the value for (day, ticker) and true, or 0 and false when the
// cell is missing or absent.
func (p *Panel) Get(on Date, ticker string) (float64, bool) {
	col, ok := p.index[strings.ToUpper(ticker)]
	if !ok {
		return 0, false
	}
	i, found := p.searchDay(on)
	if !found {
		return 0, false
	}
	v := p.cells[i][col]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// at returns the raw cell (possibly NaN) at row i, column col.
func (p *Panel) at(i, col int) float64 { return p.cells[i][col] }

// searchDay returns the position of 'on' in the panel index, or the
// insertion position and false.
func (p *Panel) searchDay(on Date) (int, bool) {
	return slices.BinarySearchFunc(p.days, on, func(d, t Date) int { return d.Sub(t) })
}

// FirstDayOnOrAfter returns the first panel date on or after 'on', or
// false when no such trading day exists.
func (p *Panel) FirstDayOnOrAfter(on Date) (Date, bool) {
	i, _ := p.searchDay(on)
	if i >= len(p.days) {
		return Date{}, false
	}
	return p.days[i], true
}

// clone returns a deep copy of the panel, sharing the immutable index.
func (p *Panel) clone() *Panel {
	cells := make([][]float64, len(p.cells))
	for i, row := range p.cells {
		cells[i] = slices.Clone(row)
	}
	return &Panel{tickers: p.tickers, index: p.index, days: p.days, cells: cells}
}
