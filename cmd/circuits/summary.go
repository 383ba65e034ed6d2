package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/EmpoweredVote/EV-Circuits/internal/config"
	"github.com/EmpoweredVote/EV-Circuits/internal/model"
	"github.com/EmpoweredVote/EV-Circuits/internal/pipeline"
	"github.com/EmpoweredVote/EV-Circuits/internal/render"
)

var summaryComuna string

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print per-comuna totals as a table",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := loadResult(cmd)
		if err != nil {
			return err
		}

		rows := pipeline.Summarize(res.Metrics, res.Election)
		if summaryComuna != "" && summaryComuna != render.AllSubdivisions {
			rows = filterSummary(rows, model.NormalizeName(summaryComuna))
			if len(rows) == 0 {
				return fmt.Errorf("no circuits in comuna %q", summaryComuna)
			}
		}

		fmt.Fprintln(cmd.OutOrStdout(), summaryTable(rows, res.Election))
		return nil
	},
}

func init() {
	summaryCmd.Flags().StringVar(&summaryComuna, "comuna", "", "only show one comuna")
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func filterSummary(rows []pipeline.SubdivisionSummary, comuna string) []pipeline.SubdivisionSummary {
	var out []pipeline.SubdivisionSummary
	for _, r := range rows {
		if r.Subdivision == comuna {
			out = append(out, r)
		}
	}
	return out
}

// summaryTable lays rows out with a trailing total line.
func summaryTable(rows []pipeline.SubdivisionSummary, e config.Election) string {
	var total pipeline.SubdivisionSummary
	total.Subdivision = "TOTAL"

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(
			"Comuna",
			"Circuitos",
			"Votos "+e.FocusGroup,
			"Votos "+e.RivalGroup,
			fmt.Sprintf("%% %s %d", e.FocusGroup, e.Current.Year),
			fmt.Sprintf("%% %s %d", e.FocusGroup, e.Prior.Year),
			"Gana "+e.FocusGroup,
			"Gana "+e.RivalGroup,
		)

	for _, r := range rows {
		t.Row(summaryRow(r)...)

		total.Circuits += r.Circuits
		total.FocusVotes += r.FocusVotes
		total.RivalVotes += r.RivalVotes
		total.TotalCurrent += r.TotalCurrent
		total.PriorRef += r.PriorRef
		total.TotalPrior += r.TotalPrior
		total.FocusWins += r.FocusWins
		total.RivalWins += r.RivalWins
	}
	if len(rows) > 1 {
		t.Row(summaryRow(total)...)
	}

	return titleStyle.Render(fmt.Sprintf("%s vs %s por comuna", e.FocusGroup, e.RivalGroup)) + "\n" + t.String()
}

func summaryRow(r pipeline.SubdivisionSummary) []string {
	name := r.Subdivision
	if name == "" {
		name = "(sin comuna)"
	}
	return []string{
		name,
		strconv.Itoa(r.Circuits),
		count(r.FocusVotes),
		count(r.RivalVotes),
		pct(r.ShareCurrent()),
		pct(r.SharePrior()),
		strconv.Itoa(r.FocusWins),
		strconv.Itoa(r.RivalWins),
	}
}

func count(n int64) string {
	v := float64(n)
	s, _ := render.FormatCount(&v)
	return s
}

func pct(v *float64) string {
	s, err := render.FormatShare(v)
	if err != nil {
		return "-"
	}
	return s
}
