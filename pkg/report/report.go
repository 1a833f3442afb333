// Package report renders a computed strategy as a single page PDF.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/mpapenbr/pitstop-strategy-manager/pkg/session"
)

var ErrNoResult = errors.New("plan has no successful result")

type (
	Option func(*config)
	config struct {
		compress bool
		title    string
	}
)

func WithCompression(b bool) Option {
	return func(c *config) {
		c.compress = b
	}
}

func WithTitle(title string) Option {
	return func(c *config) {
		c.title = title
	}
}

//nolint:funlen // layout code
func Render(w io.Writer, plan *session.Plan, opts ...Option) error {
	if plan == nil || plan.Result == nil || !plan.Result.OK {
		return ErrNoResult
	}
	cfg := &config{compress: true, title: "Pit stop strategy"}
	for _, opt := range opts {
		opt(cfg)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(cfg.compress)
	pdf.SetTitle(cfg.title, true)
	pdf.SetCreator("psm", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("%s: %s", cfg.title, plan.RaceID), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	req := plan.Request
	lines := []string{
		fmt.Sprintf("Base lap time: %.3fs", req.BaseLaptimeS),
		fmt.Sprintf("Degradation SOFT/MEDIUM/HARD: %.3f / %.3f / %.3f s/lap",
			req.DegSoftS, req.DegMediumS, req.DegHardS),
		fmt.Sprintf("Stint laps: %d-%d, max stops: %d, two compound rule: %t",
			req.MinStintLaps, req.MaxStintLaps, req.MaxStops, req.EnforceTwoCompoundRule),
		fmt.Sprintf("Strategy: %s", strings.Join(plan.Result.Strategy, ", ")),
		fmt.Sprintf("Predicted total: %.3fs", plan.Result.PredictedTotalS),
		plan.Result.Notes,
	}
	for _, line := range lines {
		pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	header := []string{"Part", "Laps", "Compound", "Duration (s)"}
	widths := []float64{30, 40, 40, 40}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(220, 220, 220)
	for i, h := range header {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, p := range plan.Parts {
		var laps, compound string
		if p.Type == "pit" {
			laps = fmt.Sprintf("after %d", p.Lap)
		} else {
			laps = fmt.Sprintf("%d-%d (%d)", p.LapStart, p.LapEnd, p.Laps)
			compound = p.Compound
		}
		cells := []string{p.Type, laps, compound, fmt.Sprintf("%.3f", p.DurationS)}
		for i, c := range cells {
			align := "L"
			if i == len(cells)-1 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 6, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}

// WriteFile renders the plan and stores it at path. Nothing is written if
// rendering fails.
func WriteFile(path string, plan *session.Plan, opts ...Option) error {
	var buf bytes.Buffer
	if err := Render(&buf, plan, opts...); err != nil {
		return err
	}
	//nolint:gosec // path is given by the user
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
