// Package renderer turns analysis, stress and forecast results into
// markdown reports.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/etnz/stresslab"
)

//go:embed templates/*.md
var templates embed.FS

// funcs are the formatting helpers available to every template.
var funcs = template.FuncMap{
	"money":     func(v float64) string { return stresslab.M(v, "USD").String() },
	"smoney":    func(v float64) string { return stresslab.M(v, "USD").SignedString() },
	"pct":       func(v float64) string { return stresslab.AsPercent(v).String() },
	"spct":      func(v float64) string { return stresslab.AsPercent(v).SignedString() },
	"ratio":     func(v float64) string { return fmt.Sprintf("%.4f", v) },
	"days": func(p *int) string {
		if p == nil {
			return "not reached"
		}
		return fmt.Sprintf("%d", *p)
	},
	"num": func(p *int) int {
		if p == nil {
			return 0
		}
		return *p
	},
	"lastPoint": lastPoint,
}

func lastPoint(points []stresslab.CurvePoint) stresslab.CurvePoint {
	if len(points) == 0 {
		return stresslab.CurvePoint{Date: "-"}
	}
	return points[len(points)-1]
}

// AnalysisMarkdown renders an analyze response to a markdown report.
func AnalysisMarkdown(r *stresslab.AnalyzeResponse) string {
	return renderTemplate("analysis", "analysis.md", map[string]string{
		"metrics":   "metrics.md",
		"breakdown": "breakdown.md",
		"curve":     "curve.md",
	}, r)
}

// StressMarkdown renders a stress response to a markdown report.
func StressMarkdown(r *stresslab.StressResponse) string {
	return renderTemplate("stress", "stress.md", map[string]string{
		"breakdown": "breakdown.md",
		"curve":     "curve.md",
	}, r)
}

// ForecastMarkdown renders a forecast response to a markdown report.
func ForecastMarkdown(r *stresslab.ForecastResponse) string {
	return renderTemplate("forecast", "forecast.md", map[string]string{
		"curve": "curve.md",
	}, r)
}

// CheckMarkdown renders a ticker check result.
func CheckMarkdown(c stresslab.TickerCheck) string {
	if c.Valid {
		return fmt.Sprintf("✅ **%s** is a valid ticker.\n", c.Ticker)
	}
	return fmt.Sprintf("❌ **%s** is not usable: %s.\n", c.Ticker, c.Reason)
}

// renderTemplate is a generic utility to render a main template that
// depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, "templates/"+mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, "templates/"+file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q: %v", file, err)
		}
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return fmt.Sprintf("error rendering %q: %v", templateName, err)
	}
	return b.String()
}
