// Package report renders computed pay lines for export. The engine owns the
// numbers; this package only formats them.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/fnenow/clock/payroll"
)

// Names maps ids to display names for the report. Missing entries fall back
// to the raw id, so partial maps are fine.
type Names struct {
	Workers  map[string]string
	Projects map[int64]string
}

func (n Names) Worker(id string) string {
	if name, ok := n.Workers[id]; ok {
		return name
	}
	return id
}

func (n Names) Project(id int64) string {
	if name, ok := n.Projects[id]; ok {
		return name
	}
	return fmt.Sprintf("%d", id)
}

var csvHeader = []string{
	"ID", "Worker", "Project", "In", "Out", "Regular Hrs", "OT Hrs", "OT Type",
	"Pay Rate", "Amount", "Bill Date", "Paid Date", "Note",
}

// WriteCSV renders one row per pay line, amounts to 2 decimal places.
func WriteCSV(w io.Writer, lines []payroll.PayLine, names Names) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, l := range lines {
		otType := ""
		if l.Kind == payroll.OvertimeNone {
			otType = "regular"
		} else {
			otType = string(l.Kind)
		}
		row := []string{
			fmt.Sprintf("%d", l.EntryID),
			names.Worker(l.WorkerID),
			names.Project(l.ProjectID),
			l.ClockIn.String(),
			l.ClockOut.String(),
			l.RegularHours.String(),
			l.OvertimeHours.String(),
			otType,
			l.PayRate.StringFixed(2),
			l.PayAmount.StringFixed(2),
			l.BilledDate,
			l.PaidDate,
			l.Note,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Filename returns the export filename convention, payroll_yymmddhh.csv.
func Filename(now time.Time) string {
	return "payroll_" + now.Format("06010215") + ".csv"
}
