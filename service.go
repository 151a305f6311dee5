package stresslab

import (
	"context"
	"fmt"
	"strings"
)

// DefaultStartingCash is used for weight-based portfolios when the
// caller does not supply one.
const DefaultStartingCash = 100_000

// Service composes the pipeline components behind the three logical
// operations: Analyze, AnalyzeWithShock and Forecast. It is stateless
// apart from the injected analysis store.
type Service struct {
	provider PriceProvider
	store    *AnalysisStore
}

// NewService builds a Service around a price provider and an analysis store.
func NewService(provider PriceProvider, store *AnalysisStore) *Service {
	return &Service{provider: provider, store: store}
}

// Store exposes the underlying analysis store, for stats and cleanup surfaces.
func (s *Service) Store() *AnalysisStore { return s.store }

// HoldingInput is one portfolio line. Exactly one of Weight or Shares is
// set; the presence of Shares on any holding selects shares mode for the
// whole portfolio.
type HoldingInput struct {
	Ticker string   `json:"ticker"`
	Weight *float64 `json:"weight,omitempty"`
	Shares *float64 `json:"shares,omitempty"`
}

// PortfolioInput declares the portfolio under analysis.
type PortfolioInput struct {
	StartingCash *float64       `json:"starting_cash,omitempty"`
	Holdings     []HoldingInput `json:"holdings"`
}

// DateRangeInput is the requested calendar window, start included, end excluded.
type DateRangeInput struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// AnalyzeRequest is the strongly typed payload of the Analyze operation.
type AnalyzeRequest struct {
	Portfolio PortfolioInput `json:"portfolio"`
	DateRange DateRangeInput `json:"date_range"`
}

// ShockInput describes the requested stress event.
type ShockInput struct {
	Type        string   `json:"type"`
	Date        string   `json:"date"`
	Pct         float64  `json:"pct"`
	ReboundDays *int     `json:"rebound_days,omitempty"`
	VolMult     *float64 `json:"vol_mult,omitempty"`
	DriftShift  *float64 `json:"drift_shift,omitempty"`
}

// StressRequest is the payload of the AnalyzeWithShock operation.
type StressRequest struct {
	Portfolio PortfolioInput `json:"portfolio"`
	DateRange DateRangeInput `json:"date_range"`
	Shock     ShockInput     `json:"shock"`
}

// ForecastInput configures the drift projection. A nil Days defaults to
// 30 business days; an explicit non-positive value is rejected.
type ForecastInput struct {
	Days   *int     `json:"days,omitempty"`
	Mode   string   `json:"mode"`
	Window *int     `json:"window,omitempty"`
	Alpha  *float64 `json:"alpha,omitempty"`
	Lambda *float64 `json:"lambda,omitempty"`
	Target *float64 `json:"target,omitempty"`
}

// ForecastRequest is the payload of the Forecast operation. Source picks
// the cached return series of a stress analysis, baseline by default.
type ForecastRequest struct {
	AnalysisID string        `json:"analysis_id"`
	Source     string        `json:"source,omitempty"`
	Forecast   ForecastInput `json:"forecast"`
}

// AnalyzeInputs echoes the interpreted portfolio back to the caller.
type AnalyzeInputs struct {
	Mode         string             `json:"mode"`
	StartingCash float64            `json:"starting_cash"`
	Weights      map[string]float64 `json:"weights"`
	DateRange    DateRangeInput     `json:"date_range"`
}

// CurvePoint is one serialized equity curve point, value rounded to 2 decimals.
type CurvePoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Leg bundles the equity curve and metrics of one pipeline run.
type Leg struct {
	EquityCurve []CurvePoint `json:"equity_curve"`
	Metrics     Metrics      `json:"metrics"`
}

// AnalyzeResponse is the result of the Analyze operation.
type AnalyzeResponse struct {
	AnalysisID  string        `json:"analysis_id"`
	Inputs      AnalyzeInputs `json:"inputs"`
	EquityCurve []CurvePoint  `json:"equity_curve"`
	Metrics     Metrics       `json:"metrics"`
	Breakdown   *Breakdown    `json:"holdings_breakdown,omitempty"`
}

// ShockEcho reports the shock as requested and as applied. When the
// requested date is not a trading day it is snapped forward and the
// substitution is reported in Note.
type ShockEcho struct {
	Type          string   `json:"type"`
	RequestedDate string   `json:"requested_date"`
	AppliedDate   string   `json:"applied_date,omitempty"`
	Note          string   `json:"note,omitempty"`
	Pct           float64  `json:"pct"`
	ReboundDays   *int     `json:"rebound_days,omitempty"`
	VolMult       *float64 `json:"vol_mult,omitempty"`
	DriftShift    *float64 `json:"drift_shift,omitempty"`
}

// StressInputs echoes the interpreted stress request.
type StressInputs struct {
	AnalyzeInputs
	Shock ShockEcho `json:"shock"`
}

// StressResponse is the result of the AnalyzeWithShock operation.
type StressResponse struct {
	AnalysisID string       `json:"analysis_id"`
	Inputs     StressInputs `json:"inputs"`
	Baseline   Leg          `json:"baseline"`
	Scenario   Leg          `json:"scenario"`
	Delta      struct {
		Metrics Metrics `json:"metrics"`
	} `json:"delta"`
	Breakdown *Breakdown `json:"holdings_breakdown,omitempty"`
}

// ForecastEcho echoes the interpreted forecast request.
type ForecastEcho struct {
	AnalysisID string        `json:"analysis_id"`
	Source     string        `json:"source"`
	Forecast   ForecastInput `json:"forecast"`
}

// ForecastResponse is the result of the Forecast operation.
type ForecastResponse struct {
	Inputs               ForecastEcho `json:"inputs"`
	Trend                Trend        `json:"trend"`
	Summary              Summary      `json:"summary"`
	HistoricalEquityCurve []CurvePoint `json:"historical_equity_curve"`
	ForecastEquityCurve  []CurvePoint `json:"forecast_equity_curve"`
	EquityCurve          []CurvePoint `json:"equity_curve"`
}

// Analyze runs the baseline pipeline: price panel, asset returns,
// portfolio returns, equity curve, metrics. On success the portfolio
// return series is cached for a later Forecast call.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (resp *AnalyzeResponse, err error) {
	defer recoverInternal(&err)

	window, err := parseDateRange(req.DateRange)
	if err != nil {
		return nil, err
	}
	pf, err := parsePortfolio(req.Portfolio)
	if err != nil {
		return nil, err
	}

	prices, err := s.fetchPrices(ctx, pf.tickers(), window)
	if err != nil {
		return nil, err
	}

	weights, cash, breakdown, err := pf.resolve(prices)
	if err != nil {
		return nil, err
	}

	run, err := analyzeFromPrices(prices, weights, cash)
	if err != nil {
		return nil, err
	}

	inputs := AnalyzeInputs{
		Mode:         pf.mode,
		StartingCash: cash,
		Weights:      roundWeights(weights),
		DateRange:    req.DateRange,
	}
	id := s.cache(AnalysisRecord{
		Kind:         KindAnalyze,
		Inputs:       inputs,
		StartingCash: cash,
		Returns:      run.returns,
	}, run.curve)

	return &AnalyzeResponse{
		AnalysisID:  id,
		Inputs:      inputs,
		EquityCurve: curvePoints(run.curve),
		Metrics:     run.metrics.rounded(),
		Breakdown:   breakdown,
	}, nil
}

// AnalyzeWithShock runs the baseline pipeline and a shocked-scenario
// pipeline on the same price panel, and compares them. Both portfolio
// return series are cached for a later Forecast call.
func (s *Service) AnalyzeWithShock(ctx context.Context, req StressRequest) (resp *StressResponse, err error) {
	defer recoverInternal(&err)

	window, err := parseDateRange(req.DateRange)
	if err != nil {
		return nil, err
	}
	pf, err := parsePortfolio(req.Portfolio)
	if err != nil {
		return nil, err
	}
	shock, echo, err := parseShock(req.Shock)
	if err != nil {
		return nil, err
	}

	prices, err := s.fetchPrices(ctx, pf.tickers(), window)
	if err != nil {
		return nil, err
	}

	weights, cash, breakdown, err := pf.resolve(prices)
	if err != nil {
		return nil, err
	}

	baseline, err := analyzeFromPrices(prices, weights, cash)
	if err != nil {
		return nil, err
	}

	// Snap the shock date forward to the next trading day, an
	// informational substitution rather than an error.
	if applied, ok := prices.FirstDayOnOrAfter(shock.Date); ok {
		echo.AppliedDate = applied.String()
		if applied != shock.Date {
			echo.Note = fmt.Sprintf("requested shock date %s is not a trading day; applied on %s", shock.Date, applied)
		}
	} else {
		echo.Note = fmt.Sprintf("shock date %s falls after the last trading day; scenario equals baseline", shock.Date)
	}

	shocked, err := shock.Apply(prices)
	if err != nil {
		return nil, err
	}
	scenario, err := analyzeFromPrices(shocked, weights, cash)
	if err != nil {
		return nil, err
	}

	inputs := StressInputs{
		AnalyzeInputs: AnalyzeInputs{
			Mode:         pf.mode,
			StartingCash: cash,
			Weights:      roundWeights(weights),
			DateRange:    req.DateRange,
		},
		Shock: echo,
	}
	id := s.cache(AnalysisRecord{
		Kind:            KindAnalyzeShock,
		Inputs:          inputs.AnalyzeInputs,
		StartingCash:    cash,
		Returns:         baseline.returns,
		ScenarioReturns: scenario.returns,
	}, baseline.curve)

	out := &StressResponse{
		AnalysisID: id,
		Inputs:     inputs,
		Baseline:   Leg{EquityCurve: curvePoints(baseline.curve), Metrics: baseline.metrics.rounded()},
		Scenario:   Leg{EquityCurve: curvePoints(scenario.curve), Metrics: scenario.metrics.rounded()},
		Breakdown:  breakdown,
	}
	out.Delta.Metrics = scenario.metrics.Sub(baseline.metrics).rounded()
	return out, nil
}

// Forecast projects a cached portfolio return series forward. The series
// is retrieved from the analysis store, not recomputed.
func (s *Service) Forecast(req ForecastRequest) (resp *ForecastResponse, err error) {
	defer recoverInternal(&err)

	id := strings.TrimSpace(req.AnalysisID)
	if id == "" {
		return nil, Validationf("analysis_id is required")
	}
	source := strings.ToLower(strings.TrimSpace(req.Source))
	if source == "" {
		source = "baseline"
	}
	if source != "baseline" && source != "scenario" {
		return nil, Validationf("source must be 'baseline' or 'scenario', got %q", req.Source)
	}

	rec, ok := s.store.Get(id)
	if !ok {
		return nil, Validationf("%w: %s, re-run the analysis", ErrNotFound, id)
	}

	returns := rec.Returns
	if source == "scenario" {
		if rec.Kind != KindAnalyzeShock {
			return nil, Validationf("analysis %s has no scenario leg", id)
		}
		returns = rec.ScenarioReturns
	}

	cfg := req.Forecast
	if cfg.Days == nil {
		days := 30
		cfg.Days = &days
	}
	if cfg.Mode == "" {
		cfg.Mode = Mean.String()
	}
	mode, err := ParseForecastMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	spec := DriftSpec{Mode: mode, Alpha: cfg.Alpha, Lambda: cfg.Lambda}
	if cfg.Window != nil {
		spec.Window = *cfg.Window
	}
	target := DefaultTarget
	if cfg.Target != nil {
		target = *cfg.Target
	}
	if target <= 0 {
		return nil, Validationf("target must be > 0, got %v", target)
	}

	result, err := Forecast(returns, rec.StartingCash, spec, *cfg.Days, target)
	if err != nil {
		return nil, err
	}

	return &ForecastResponse{
		Inputs: ForecastEcho{AnalysisID: id, Source: source, Forecast: cfg},
		Trend: Trend{
			Mode:   result.Trend.Mode,
			Window: result.Trend.Window,
			Alpha:  result.Trend.Alpha,
			Lambda: result.Trend.Lambda,
			Drift:  Round6(result.Trend.Drift),
		},
		Summary: Summary{
			FinalValue:              Round2(result.Summary.FinalValue),
			AbsChange:               Round2(result.Summary.AbsChange),
			RelChange:               Round6(result.Summary.RelChange),
			RealizedMeanDailyReturn: Round6(result.Summary.RealizedMeanDailyReturn),
			TargetMultiple:          result.Summary.TargetMultiple,
			DaysToTarget:            result.Summary.DaysToTarget,
		},
		HistoricalEquityCurve: curvePoints(result.Historical),
		ForecastEquityCurve:   curvePoints(result.Projected),
		EquityCurve:           curvePoints(result.Combined),
	}, nil
}

// pipelineRun is the outcome of one prices-to-metrics pass.
type pipelineRun struct {
	returns *Series
	curve   *Series
	metrics Metrics
}

// analyzeFromPrices is the core pipeline:
// prices -> asset returns -> portfolio returns -> equity curve -> metrics.
func analyzeFromPrices(prices *Panel, weights map[string]float64, startingCash float64) (pipelineRun, error) {
	assetReturns := prices.Returns()
	portfolio, err := PortfolioReturns(assetReturns, weights)
	if err != nil {
		return pipelineRun{}, err
	}
	curve := EquityCurve(portfolio, startingCash)
	return pipelineRun{
		returns: portfolio,
		curve:   curve,
		metrics: ComputeMetrics(portfolio, curve, 0),
	}, nil
}

// cache stores the record along with the last equity point and returns the id.
func (s *Service) cache(rec AnalysisRecord, curve *Series) string {
	if !curve.IsEmpty() {
		rec.LastEquityDate, rec.LastEquityValue = curve.Last()
	}
	return s.store.Put(rec)
}

// fetchPrices retrieves the price panel, mapping an empty-data failure to
// a validation failure for the pipelines.
func (s *Service) fetchPrices(ctx context.Context, tickers []string, window Range) (*Panel, error) {
	prices, err := s.provider.DailyPrices(ctx, tickers, window)
	if err != nil {
		return nil, Validationf("fetch prices: %w", err)
	}
	return prices, nil
}

// parsedPortfolio is the validated, normalized portfolio declaration.
type parsedPortfolio struct {
	mode         string // "weights" or "shares"
	weights      map[string]float64
	shares       map[string]float64
	startingCash *float64
}

func (p *parsedPortfolio) tickers() []string {
	source := p.weights
	if p.mode == "shares" {
		source = p.shares
	}
	tickers := make([]string, 0, len(source))
	for t := range source {
		tickers = append(tickers, t)
	}
	return tickers
}

// resolve turns the declaration into weights and starting cash, valuing
// shares against the panel's first trading day when needed.
func (p *parsedPortfolio) resolve(prices *Panel) (map[string]float64, float64, *Breakdown, error) {
	if p.mode == "shares" {
		weights, breakdown, err := SharesToWeights(prices, p.shares)
		if err != nil {
			return nil, 0, nil, err
		}
		cash := breakdown.TotalValue
		if p.startingCash != nil {
			cash = *p.startingCash
		}
		return weights, cash, breakdown, nil
	}
	cash := float64(DefaultStartingCash)
	if p.startingCash != nil {
		cash = *p.startingCash
	}
	return p.weights, cash, nil, nil
}

func parsePortfolio(in PortfolioInput) (*parsedPortfolio, error) {
	if len(in.Holdings) == 0 {
		return nil, Validationf("portfolio holdings are required (ticker + weight or shares)")
	}

	sharesMode := false
	for _, h := range in.Holdings {
		if h.Shares != nil {
			sharesMode = true
			break
		}
	}

	pf := &parsedPortfolio{
		weights:      make(map[string]float64),
		shares:       make(map[string]float64),
		startingCash: in.StartingCash,
		mode:         "weights",
	}
	if sharesMode {
		pf.mode = "shares"
	}

	for _, h := range in.Holdings {
		ticker := strings.ToUpper(strings.TrimSpace(h.Ticker))
		if ticker == "" {
			return nil, Validationf("every holding needs a ticker")
		}
		if sharesMode {
			if h.Shares == nil {
				return nil, Validationf("holding %s: mixed weight and shares holdings are unsupported", ticker)
			}
			pf.shares[ticker] = *h.Shares
		} else {
			var weight float64
			if h.Weight != nil {
				weight = *h.Weight
			}
			pf.weights[ticker] = weight
		}
	}
	return pf, nil
}

func parseDateRange(in DateRangeInput) (Range, error) {
	if strings.TrimSpace(in.Start) == "" || strings.TrimSpace(in.End) == "" {
		return Range{}, Validationf("date_range.start and date_range.end are required")
	}
	from, err := ParseDate(in.Start)
	if err != nil {
		return Range{}, Validationf("date_range.start: %w", err)
	}
	to, err := ParseDate(in.End)
	if err != nil {
		return Range{}, Validationf("date_range.end: %w", err)
	}
	return NewRange(from, to), nil
}

func parseShock(in ShockInput) (Shock, ShockEcho, error) {
	typeName := in.Type
	if strings.TrimSpace(typeName) == "" {
		typeName = Permanent.String()
	}
	shockType, err := ParseShockType(typeName)
	if err != nil {
		return Shock{}, ShockEcho{}, err
	}
	if strings.TrimSpace(in.Date) == "" {
		return Shock{}, ShockEcho{}, Validationf("shock.date is required")
	}
	on, err := ParseDate(in.Date)
	if err != nil {
		return Shock{}, ShockEcho{}, Validationf("shock.date: %w", err)
	}

	shock := Shock{Type: shockType, Date: on, Pct: in.Pct}
	echo := ShockEcho{Type: shockType.String(), RequestedDate: on.String(), Pct: in.Pct}
	switch shockType {
	case LinearRebound:
		days := 10
		if in.ReboundDays != nil {
			days = *in.ReboundDays
		}
		if days < 1 {
			return Shock{}, ShockEcho{}, Validationf("rebound_days must be >= 1, got %d", days)
		}
		shock.ReboundDays = days
		echo.ReboundDays = &days
	case RegimeShift:
		volMult, driftShift := 1.5, -0.0005
		if in.VolMult != nil {
			volMult = *in.VolMult
		}
		if in.DriftShift != nil {
			driftShift = *in.DriftShift
		}
		shock.VolMult, shock.DriftShift = volMult, driftShift
		echo.VolMult, echo.DriftShift = &volMult, &driftShift
	}
	return shock, echo, nil
}

// curvePoints serializes an equity curve, rounding values to 2 decimals.
func curvePoints(curve *Series) []CurvePoint {
	points := make([]CurvePoint, 0, curve.Len())
	for on, v := range curve.Values() {
		points = append(points, CurvePoint{Date: on.String(), Value: Round2(v)})
	}
	return points
}

// roundWeights rounds an echoed weight map to ratio precision.
func roundWeights(weights map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(weights))
	for t, w := range weights {
		out[t] = Round6(w)
	}
	return out
}

// recoverInternal converts a panic anywhere in the pipeline into an
// opaque internal error, distinct from validation failures.
func recoverInternal(err *error) {
	if r := recover(); r != nil {
		*err = &InternalError{cause: fmt.Errorf("%v", r)}
	}
}
