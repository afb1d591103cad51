package rfi

import (
	"fmt"
	"strings"
	"time"
)

// reportTimeFormat matches the station's run logs, e.g. "06:48, 24 April 2019".
const reportTimeFormat = "15:04, 2 January 2006"

// Report is the human-facing reconciliation summary the CLI shows before
// asking whether to proceed. Building it is a pure function of the result;
// the core never blocks on user input.
type Report struct {
	FirstFile    string
	LastFile     string
	Start        time.Time
	End          time.Time
	Duration     time.Duration
	Polarisation Polarisation
	Azimuth      Azimuth
	Band         Band

	MatchedFiles  int
	ValidFiles    int
	ExpectedFiles int
	Completeness  float64 // valid / expected, in [0, 1] for incomplete ranges
}

// Report summarizes the run against the nominal cadence.
func (r *Result) Report(cadence time.Duration) Report {
	sel := r.Selection
	return Report{
		FirstFile:     sel.Files[0].Name(),
		LastFile:      sel.Files[len(sel.Files)-1].Name(),
		Start:         sel.ActualStart,
		End:           sel.ActualEnd,
		Duration:      sel.Duration(),
		Polarisation:  sel.Window.Polarisation,
		Azimuth:       sel.Window.Azimuth,
		Band:          sel.Window.Band,
		MatchedFiles:  len(sel.Files),
		ValidFiles:    len(r.Survivors),
		ExpectedFiles: sel.ExpectedCount(cadence),
		Completeness:  sel.Completeness(len(r.Survivors), cadence),
	}
}

// String renders the report in the station's run-log layout.
func (r Report) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "First file:\t%s\n", r.FirstFile)
	fmt.Fprintf(&sb, "Last file:\t%s\n", r.LastFile)
	sb.WriteString("\nActual time range (corrected w.r.t. available files)\nand current parameters:\n\n")
	fmt.Fprintf(&sb, "%s  -->  %s\n\n", r.Start.Format(reportTimeFormat), r.End.Format(reportTimeFormat))
	fmt.Fprintf(&sb, "Length of time interval:  %.2f day(s)\n", r.Duration.Hours()/24)
	fmt.Fprintf(&sb, "Polarisation: %s\n", r.Polarisation.Describe())
	fmt.Fprintf(&sb, "Azimuth: %d deg\n", int(r.Azimuth))
	fmt.Fprintf(&sb, "Frequency band: %s\n\n", r.Band.Describe())
	fmt.Fprintf(&sb, "Total number of files in time range: %d\n", r.MatchedFiles)
	if r.Completeness < 1.0 {
		fmt.Fprintf(&sb, "Number of files expected in time interval: %d\n", r.ExpectedFiles)
		fmt.Fprintf(&sb, "Percentage completeness: %6.2f%%\n", r.Completeness*100)
	}

	return sb.String()
}

// DescribeRejects lists every dropped file and why, or returns an empty
// string when nothing was dropped.
func (r *Result) DescribeRejects() string {
	if len(r.Flagged) == 0 && len(r.Unreadable) == 0 {
		return ""
	}

	var sb strings.Builder
	if len(r.Flagged) > 0 {
		sb.WriteString("-> The following file(s) had invalid values of signal power:\n")
		sb.WriteString("-> (possibly indicating amplifier malfunction)\n")
		for _, f := range r.Flagged {
			fmt.Fprintf(&sb, "%s (mean %.2f dBm)\n", f.Record.Name(), f.MeanPower)
		}
	}
	if len(r.Unreadable) > 0 {
		sb.WriteString("-> The following file(s) could not be read:\n")
		for _, u := range r.Unreadable {
			fmt.Fprintf(&sb, "%s (%s)\n", u.Record.Name(), u.Err)
		}
	}
	fmt.Fprintf(&sb, "\n-> Total number of useful files therefore: %d\n", len(r.Survivors))

	return sb.String()
}
