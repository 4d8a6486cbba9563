package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/chrissnell/tempwatch/internal/analysis"
	"github.com/chrissnell/tempwatch/internal/climate"
)

func formatStd(s climate.SeasonalStats) string {
	if !s.HasStd() {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", s.Std)
}

// writeReport prints a report as aligned text tables
func writeReport(w io.Writer, r *analysis.Report, live *analysis.VerdictResult) error {
	fmt.Fprintf(w, "== %s (run %s) ==\n\n", r.City, r.RunID)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OBSERVATIONS\tMIN\tMAX\tMEAN")
	fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t%.2f\n", r.Summary.Count, r.Summary.Min, r.Summary.Max, r.Summary.Mean)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEASON\tCOUNT\tMEAN\tSTD")
	for _, s := range r.Seasons {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%s\n", s.Season, s.Count, s.Mean, formatStd(s))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "BAND (window %d, %.1fσ)\tCOUNT\n", r.Params.WindowSize, r.Params.Sigma)
	for _, b := range climate.Bands {
		fmt.Fprintf(tw, "%s\t%d\n", b, r.BandCounts[b])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if live != nil {
		fmt.Fprintf(w, "\nCurrent temperature %.1f°C in %s: %s (seasonal mean %.2f, std %s)\n",
			live.Reading.Value, live.Season, live.Verdict, live.Baseline.Mean, formatStd(live.Baseline))
	}

	fmt.Fprintln(w)
	return nil
}
