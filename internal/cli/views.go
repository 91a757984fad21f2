package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"diarybook/internal/core"
)

// Result types returned by commands. Structured formats encode the struct;
// text output goes through WriteText.

type entrySaved struct {
	Entry core.DiaryEntry `json:"entry" yaml:"entry"`
}

func (v entrySaved) WriteText(w io.Writer) error {
	_, err := fmt.Fprintln(w, SuccessStyle.Render(
		fmt.Sprintf("Saved %s entry for %s", v.Entry.Category, v.Entry.Date)))
	return err
}

type entryList struct {
	Date    core.Date         `json:"date" yaml:"date"`
	Entries []core.DiaryEntry `json:"entries" yaml:"entries"`
}

func (v entryList) WriteText(w io.Writer) error {
	if len(v.Entries) == 0 {
		_, err := fmt.Fprintln(w, SubtleStyle.Render("No entries for "+v.Date.String()))
		return err
	}
	if _, err := fmt.Fprintln(w, TitleStyle.Render("Diary "+v.Date.String())); err != nil {
		return err
	}
	for _, e := range v.Entries {
		if _, err := fmt.Fprintf(w, "\n[%s]\n%s\n", e.Category, e.Text); err != nil {
			return err
		}
	}
	return nil
}

type recordSaved struct {
	Record core.FinanceRecord `json:"record" yaml:"record"`
}

func (v recordSaved) WriteText(w io.Writer) error {
	_, err := fmt.Fprintln(w, SuccessStyle.Render(fmt.Sprintf("Recorded #%d: %s %s on %s",
		v.Record.ID, core.FormatAmount(v.Record.Amount), v.Record.Category, v.Record.Date)))
	return err
}

type recordList struct {
	Date    core.Date            `json:"date" yaml:"date"`
	Records []core.FinanceRecord `json:"records" yaml:"records"`
}

func (v recordList) WriteText(w io.Writer) error {
	if len(v.Records) == 0 {
		_, err := fmt.Fprintln(w, SubtleStyle.Render("No records for "+v.Date.String()))
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
		HeaderStyle.Render("ID"),
		HeaderStyle.Render("CATEGORY"),
		HeaderStyle.Render("AMOUNT"),
		HeaderStyle.Render("NOTE"))
	for _, r := range v.Records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, r.Category, core.FormatAmount(r.Amount), r.Note)
	}
	return tw.Flush()
}

type categoryList struct {
	Categories []core.FinanceCategory `json:"categories" yaml:"categories"`
}

func (v categoryList) WriteText(w io.Writer) error {
	if len(v.Categories) == 0 {
		_, err := fmt.Fprintln(w, SubtleStyle.Render("No categories"))
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\n", HeaderStyle.Render("ID"), HeaderStyle.Render("NAME"))
	for _, c := range v.Categories {
		fmt.Fprintf(tw, "%d\t%s\n", c.ID, c.Name)
	}
	return tw.Flush()
}

type categoryAdded struct {
	Category core.FinanceCategory `json:"category" yaml:"category"`
}

func (v categoryAdded) WriteText(w io.Writer) error {
	_, err := fmt.Fprintln(w, SuccessStyle.Render(
		fmt.Sprintf("Added category #%d %s", v.Category.ID, v.Category.Name)))
	return err
}

type categoryDeleted struct {
	ID int64 `json:"id" yaml:"id"`
}

func (v categoryDeleted) WriteText(w io.Writer) error {
	_, err := fmt.Fprintln(w, SuccessStyle.Render(fmt.Sprintf("Deleted category #%d", v.ID)))
	return err
}

type statsView struct {
	core.Stats `yaml:",inline"`
}

func (v statsView) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintln(w, TitleStyle.Render("Spending as of "+v.Today.String())); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Today\t%s\n", core.FormatAmount(v.DailyTotal))
	fmt.Fprintf(tw, "This week\t%s\n", core.FormatAmount(v.WeeklyTotal))
	fmt.Fprintf(tw, "This month\t%s\n", core.FormatAmount(v.MonthlyTotal))
	fmt.Fprintln(tw, "\t")
	for _, d := range v.RecentSeries {
		fmt.Fprintf(tw, "%s %s\t%s\n", d.Date.Weekday().String()[:3], d.Date, core.FormatAmount(d.Total))
	}
	return tw.Flush()
}

type storeInfo struct {
	Path          string `json:"path" yaml:"path"`
	SchemaVersion uint   `json:"schema_version" yaml:"schema_version"`
}

func (v storeInfo) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Store %s is at schema version %d\n", v.Path, v.SchemaVersion)
	return err
}
