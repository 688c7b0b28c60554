package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"finledger/internal/core"
)

// FormatMoney renders m behind the currency prefix, e.g. "Rs.12.50" or
// "-Rs.3.00".
func FormatMoney(prefix string, m core.Money) string {
	if m.Cents < 0 {
		return "-" + prefix + core.Money{Cents: -m.Cents}.String()
	}
	return prefix + m.String()
}

// Renderer writes ledger views as aligned text tables.
type Renderer struct {
	Out    io.Writer
	Prefix string
}

func (r Renderer) table() *tabwriter.Writer {
	return tabwriter.NewWriter(r.Out, 0, 0, 2, ' ', 0)
}

// Money formats m with the prefix, highlighting negative values.
func (r Renderer) Money(m core.Money) string {
	s := FormatMoney(r.Prefix, m)
	if m.Cents < 0 {
		return NegativeStyle.Render(s)
	}
	return s
}

// Entries prints one row per entry, or a notice when there are none.
func (r Renderer) Entries(title string, entries []core.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(r.Out, SubtleStyle.Render("No entries found."))
		return
	}
	fmt.Fprintln(r.Out, TitleStyle.Render(title))

	w := r.table()
	defer w.Flush()
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		HeaderStyle.Render("ID"),
		HeaderStyle.Render("Date"),
		HeaderStyle.Render("Kind"),
		HeaderStyle.Render("Category"),
		HeaderStyle.Render("Amount"),
		HeaderStyle.Render("Description"))
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		strings.Repeat("-", 4),
		strings.Repeat("-", 10),
		strings.Repeat("-", 7),
		strings.Repeat("-", 15),
		strings.Repeat("-", 12),
		strings.Repeat("-", 20))
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Date, e.Kind, e.Category, r.Money(e.Amount), e.Description)
	}
}

// Totals prints the overall income, expense and savings.
func (r Renderer) Totals(t core.Totals) {
	fmt.Fprintln(r.Out, TitleStyle.Render("Summary"))
	w := r.table()
	defer w.Flush()
	fmt.Fprintf(w, "Entries:\t%d\n", t.Count)
	fmt.Fprintf(w, "Total Income:\t%s\n", r.Money(t.Income))
	fmt.Fprintf(w, "Total Expense:\t%s\n", r.Money(t.Expense))
	fmt.Fprintf(w, "Savings:\t%s\n", r.Money(t.Savings))
}

// Month prints a month breakdown with each category's share of expenses.
func (r Renderer) Month(b core.MonthBreakdown) {
	fmt.Fprintln(r.Out, TitleStyle.Render("Summary for "+b.YearMonth))
	if b.Count == 0 {
		fmt.Fprintln(r.Out, SubtleStyle.Render("No entries found for this month."))
		return
	}

	w := r.table()
	fmt.Fprintf(w, "Income:\t%s\n", r.Money(b.Income))
	fmt.Fprintf(w, "Total Expense:\t%s\n", r.Money(b.Expense))
	fmt.Fprintf(w, "Savings:\t%s\n", r.Money(b.Savings))
	w.Flush()

	if len(b.ByCategory) == 0 {
		return
	}
	fmt.Fprintln(r.Out)
	w = r.table()
	defer w.Flush()
	fmt.Fprintf(w, "%s\t%s\t%s\n",
		HeaderStyle.Render("Category"),
		HeaderStyle.Render("Amount"),
		HeaderStyle.Render("Percentage"))
	for _, c := range b.ByCategory {
		fmt.Fprintf(w, "%s\t%s\t%.2f%%\n", c.Name, r.Money(c.Amount), c.Percentage)
	}
}

// Months prints the months that have entries, one per line.
func (r Renderer) Months(months []string) {
	if len(months) == 0 {
		fmt.Fprintln(r.Out, SubtleStyle.Render("No entries found."))
		return
	}
	fmt.Fprintln(r.Out, TitleStyle.Render("Months"))
	for _, m := range months {
		fmt.Fprintln(r.Out, m)
	}
}

// Success prints a confirmation line.
func (r Renderer) Success(format string, args ...any) {
	fmt.Fprintln(r.Out, SuccessStyle.Render(fmt.Sprintf(format, args...)))
}
