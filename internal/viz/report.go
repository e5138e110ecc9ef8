package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/san-kum/phystrace/internal/acceptance"
	"github.com/san-kum/phystrace/internal/storage"
	"github.com/san-kum/phystrace/internal/validate"
)

const barWidth = 24

// RenderReport lays out the Post-Sim Gate scores, per-test results,
// failures, warnings and details.
func (s Styles) RenderReport(name string, rep *acceptance.Report) string {
	var b strings.Builder
	verdict := s.Pass.Render("ACCEPTED")
	if !rep.OK {
		verdict = s.Fail.Render("REJECTED")
	}
	b.WriteString(s.Header.Render(fmt.Sprintf("%s  %s", name, verdict)))
	b.WriteString("\n\n")

	scores := []struct {
		label string
		v     float64
	}{
		{"validity", rep.Score.Validity},
		{"consistency", rep.Score.Consistency},
		{"stability", rep.Score.Stability},
		{"overall", rep.Score.Overall},
	}
	for _, sc := range scores {
		fmt.Fprintf(&b, "%s %s %s\n",
			s.Label.Render(fmt.Sprintf("%-12s", sc.label)),
			s.ScoreBar(sc.v, barWidth),
			s.Value.Render(fmt.Sprintf("%.3f", sc.v)))
	}

	if len(rep.Results) > 0 {
		b.WriteString(s.Separator(12+1+barWidth+6) + "\n")
		b.WriteString(s.resultsTable(rep.Results))
		b.WriteString("\n")
	}
	if len(rep.Errors) > 0 {
		b.WriteString("\n" + s.Title.Render("failures") + "\n")
		for _, f := range rep.Errors {
			b.WriteString(s.Fail.Render("  ✗ ") + f.Error() + "\n")
		}
	}
	if len(rep.Warnings) > 0 {
		b.WriteString("\n" + s.Title.Render("warnings") + "\n")
		for _, w := range rep.Warnings {
			b.WriteString(s.Warn.Render("  ! ") + w + "\n")
		}
	}
	if rep.Details.Len() > 0 {
		b.WriteString("\n" + s.Title.Render("details") + "\n")
		for _, k := range rep.Details.Keys() {
			v, _ := rep.Details.Get(k)
			fmt.Fprintf(&b, "  %s %s\n", s.Label.Render(k), formatDetail(v))
		}
	}
	return b.String()
}

func (s Styles) resultsTable(results []acceptance.Result) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.Label).
		Headers("TEST", "KIND", "SCORE", "VALUE", "LIMIT", "")
	for _, r := range results {
		mark := "✓"
		if !r.Passed {
			mark = "✗"
		}
		t.Row(r.ID, string(r.Kind),
			fmt.Sprintf("%.3f", r.Score),
			fmt.Sprintf("%.4g", r.Value),
			fmt.Sprintf("%.4g", r.Limit),
			mark)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		base := lipgloss.NewStyle().Padding(0, 1)
		if row == table.HeaderRow {
			return base.Inherit(s.Title)
		}
		if col == 5 && row >= 0 && row < len(results) {
			if results[row].Passed {
				return base.Inherit(s.Pass)
			}
			return base.Inherit(s.Fail)
		}
		return base
	})
	return t.Render()
}

func formatDetail(v any) string {
	switch x := v.(type) {
	case float64:
		return fmt.Sprintf("%.6g", x)
	case []float64:
		parts := make([]string, len(x))
		for i, f := range x {
			parts[i] = fmt.Sprintf("%.4g", f)
		}
		return "[" + strings.Join(parts, " ") + "]"
	}
	return fmt.Sprint(v)
}

// RenderIssues lists Pre-Sim Gate findings with their paths and hints.
func (s Styles) RenderIssues(res validate.Result) string {
	var b strings.Builder
	if res.OK {
		b.WriteString(s.Pass.Render("contract valid") + "\n")
	} else {
		b.WriteString(s.Fail.Render(fmt.Sprintf("contract invalid: %d error(s)", len(res.Errors))) + "\n")
	}
	write := func(mark lipgloss.Style, sym string, is validate.Issue) {
		fmt.Fprintf(&b, "%s %s %s\n", mark.Render(sym), s.Value.Render(is.Code), is.Message)
		if is.Path != "" {
			fmt.Fprintf(&b, "    %s %s\n", s.Label.Render("at"), is.Path)
		}
		if is.Hint != "" {
			fmt.Fprintf(&b, "    %s\n", s.Muted.Render(is.Hint))
		}
	}
	for _, is := range res.Errors {
		write(s.Fail, "✗", is)
	}
	for _, is := range res.Warnings {
		write(s.Warn, "!", is)
	}
	return b.String()
}

// RenderRuns tabulates stored runs.
func (s Styles) RenderRuns(runs []storage.RunMetadata) string {
	if len(runs) == 0 {
		return s.Muted.Render("no runs stored")
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Label).
		Headers("ID", "CONTRACT", "WHEN", "STATUS", "OVERALL", "OK")
	for _, r := range runs {
		ok := "no"
		if r.OK {
			ok = "yes"
		}
		t.Row(r.ID[:min(8, len(r.ID))], r.Contract,
			r.Timestamp.Format("2006-01-02 15:04:05"),
			string(r.Status),
			fmt.Sprintf("%.3f", r.Score.Overall),
			ok)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return s.Title.Padding(0, 1)
		}
		return lipgloss.NewStyle().Padding(0, 1)
	})
	return t.Render()
}
