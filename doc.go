// Package stresslab computes portfolio analytics under stress scenarios.
//
// The core is a deterministic pipeline: a date-indexed price [Panel] is
// converted to daily returns, aggregated into a portfolio return
// [Series] by weights, compounded into an equity curve, and reduced to
// risk and performance [Metrics]. A [Shock] reruns the pipeline on a
// transformed copy of the panel, and [Forecast] extends a return series
// forward with an estimated constant drift.
//
// [Service] ties the pipeline to a [PriceProvider] and an in-memory
// [AnalysisStore], exposing the three operations used by the CLI and
// the HTTP server: Analyze, AnalyzeWithShock and Forecast.
package stresslab
