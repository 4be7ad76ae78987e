package reporting

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/xkilldash9x/fairgraph/api/schemas"
)

// maxExampleFamilies is how many role families the example section lists.
const maxExampleFamilies = 5

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

type tableReporter struct {
	w    io.WriteCloser
	opts Options
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func (r *tableReporter) WriteScores(report *ScoreReport) error {
	t := newTable("gid", "score", "fairness_nodes", "amr")
	for _, g := range report.Graphs {
		t.Row(
			strconv.Itoa(g.ID),
			FormatScore(g.Score),
			strconv.Itoa(g.FairnessNodes),
			FlattenAMR(g.AMR, r.opts.AMRWidth),
		)
	}
	_, err := fmt.Fprintf(r.w, "%s\n\n%s\n",
		titleStyle.Render(fmt.Sprintf("Top %d graphs by fairness centrality:", report.K)),
		t.Render())
	return err
}

func (r *tableReporter) WriteSummary(report *schemas.SummaryReport) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyzed %d graphs (%d failed to decode)\n", report.Graphs, len(report.Failures))

	sections := []struct {
		title   string
		entries []schemas.CountEntry
	}{
		{"Position of fairness", report.Positions},
		{"Parent roles (relations) of fairness", report.ParentRoles},
		{"Parent concepts of fairness", report.ParentConcepts},
		{"Child roles (relations) of fairness", report.ChildRoles},
		{"Sibling concepts (same parent as fairness)", report.SiblingConcepts},
	}
	for _, s := range sections {
		fmt.Fprintf(&b, "\n%s\n", titleStyle.Render("=== "+s.title+" ==="))
		if len(s.entries) == 0 {
			b.WriteString("[No data]\n")
			continue
		}
		t := newTable(s.title, "count")
		for _, e := range s.entries {
			t.Row(e.Key, strconv.Itoa(e.Count))
		}
		b.WriteString(t.Render())
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n%s\n", titleStyle.Render("--- Example relations (first few) ---"))
	writeExamples(&b, "Parent role", report.ParentExamples)
	writeExamples(&b, "Child role", report.ChildExamples)

	_, err := io.WriteString(r.w, b.String())
	return err
}

func writeExamples(b *strings.Builder, label string, families []schemas.FamilyExamples) {
	for i, fam := range families {
		if i == maxExampleFamilies {
			break
		}
		parts := make([]string, len(fam.Examples))
		for j, ex := range fam.Examples {
			parts[j] = fmt.Sprintf("(%s, %s)", ex.Concept, ex.Role)
		}
		fmt.Fprintf(b, "%s %s: [%s]\n", label, fam.Family, strings.Join(parts, ", "))
	}
}

func (r *tableReporter) Close() error {
	return r.w.Close()
}

// FormatScore prints a score with four decimals.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 4, 64)
}

// FlattenAMR folds a multi-line graph onto one line and cuts it to width
// runes, marking the cut with "...". A width of zero disables the cut.
func FlattenAMR(amr string, width int) string {
	flat := strings.Join(strings.Fields(amr), " ")
	if width <= 0 {
		return flat
	}
	runes := []rune(flat)
	if len(runes) <= width {
		return flat
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
