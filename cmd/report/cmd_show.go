package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"airquality-platform/internal/export"
	"airquality-platform/internal/models"
	"airquality-platform/internal/services"
)

var (
	showYear      int
	showMonth     int
	showPollutant string
	showXLSX      string
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the dashboard for one month",
	Long: `Computes every dashboard section for the selected month and prints
them. Sections that cannot be computed are reported and the rest still print.`,
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVar(&showYear, "year", 0, "Selected year")
	showCmd.Flags().IntVar(&showMonth, "month", 0, "Selected month (1-12)")
	showCmd.Flags().StringVar(&showPollutant, "pollutant", "", "Pollutant for the per-pollutant sections (default: configured)")
	showCmd.Flags().StringVar(&showXLSX, "xlsx", "", "Also write the dashboard to this XLSX file")
	showCmd.MarkFlagRequired("year")
	showCmd.MarkFlagRequired("month")
}

func runShow(cmd *cobra.Command, args []string) error {
	sel := services.Selection{Criteria: models.FilterCriteria{Year: showYear, Month: showMonth}}
	if showPollutant != "" {
		f, err := models.ParseField(showPollutant)
		if err != nil {
			return err
		}
		sel.Pollutant = f
	}

	svc, closer, err := loadDashboard(cmd.Context())
	if err != nil {
		return err
	}
	defer closer()

	snap, err := svc.Snapshot(cmd.Context(), sel)
	if err != nil {
		return err
	}

	printSnapshot(cmd.OutOrStdout(), snap)

	if showXLSX != "" {
		if err := export.SaveAs(snap, showXLSX); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nWorkbook written to %s\n", showXLSX)
	}
	return nil
}

// printSnapshot renders the snapshot as text tables. Undefined values print as "-".
func printSnapshot(out io.Writer, snap *services.Snapshot) {
	fmt.Fprintf(out, "%s  %s  %s  (%d rows)\n", snap.Station, snap.Criteria, snap.Pollutant, snap.Rows)

	section(out, "Summary", snap.Errors[services.SectionSummary], func(tw *tabwriter.Writer) {
		if snap.Summary == nil {
			return
		}
		fmt.Fprintln(tw, "field\tcount\tmean\tstd\tmin\t25%\t50%\t75%\tmax")
		for _, fs := range snap.Summary.Fields {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n", fs.Field, fs.Count,
				value(fs.Mean), value(fs.Std), value(fs.Min), value(fs.Q25), value(fs.Q50), value(fs.Q75), value(fs.Max))
		}
	})

	section(out, "Correlation", snap.Errors[services.SectionCorrelation], func(tw *tabwriter.Writer) {
		if snap.Correlation == nil {
			return
		}
		header := make([]string, len(snap.Correlation.Fields))
		for i, f := range snap.Correlation.Fields {
			header[i] = string(f)
		}
		fmt.Fprintln(tw, "\t"+strings.Join(header, "\t"))
		for i, f := range snap.Correlation.Fields {
			cells := make([]string, len(snap.Correlation.Values[i]))
			for j, v := range snap.Correlation.Values[i] {
				cells[j] = value(v)
			}
			fmt.Fprintf(tw, "%s\t%s\n", f, strings.Join(cells, "\t"))
		}
	})

	means := func(title, name, key string, rows []models.GroupMean) {
		section(out, title, snap.Errors[name], func(tw *tabwriter.Writer) {
			fmt.Fprintf(tw, "%s\tmean\tcount\n", key)
			for _, m := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", m.Key, value(m.Mean), m.Count)
			}
		})
	}
	means("Monthly means ("+string(snap.Pollutant)+", all years)", services.SectionMonthlyMeans, "month", snap.MonthlyMeans)
	means("Hourly means ("+string(snap.Pollutant)+", all years)", services.SectionHourlyMeans, "hour", snap.HourlyMeans)
	means("Wind rose (PM2.5)", services.SectionWindRose, "wd", snap.WindRose)

	section(out, fmt.Sprintf("Distribution (%d)", snap.Criteria.Year), snap.Errors[services.SectionDistribution], func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "month\tcount\tmin\tq1\tmedian\tq3\tmax\toutliers")
		for _, d := range snap.Distribution {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%d\n", d.Key, d.Count,
				value(d.Min), value(d.Q1), value(d.Median), value(d.Q3), value(d.Max), len(d.Outliers))
		}
	})

	section(out, "Decomposition", snap.Errors[services.SectionDecomposition], func(tw *tabwriter.Writer) {
		if snap.Decomposition == nil || snap.Decomposition.Decomposition == nil {
			return
		}
		d := snap.Decomposition
		fmt.Fprintf(tw, "period\t%d\n", d.Period)
		fmt.Fprintf(tw, "samples\t%d\n", len(d.Trend))
		fmt.Fprintf(tw, "seasonal amplitude\t%s\n", value(amplitude(d.Seasonal)))
	})

	fmt.Fprintf(out, "\nSeries: %d points, scatter RAIN vs %s: %d pairs\n", len(snap.Series), snap.Pollutant, len(snap.Scatter))
}

// section prints a titled table or the reason it is unavailable
func section(out io.Writer, title string, failure *services.SectionError, body func(tw *tabwriter.Writer)) {
	fmt.Fprintf(out, "\n== %s ==\n", title)
	if failure != nil {
		fmt.Fprintf(out, "unavailable (%s): %s\n", failure.Kind, failure.Message)
		return
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	body(tw)
	tw.Flush()
}

func value(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

// amplitude is max minus min of the defined values
func amplitude(values []*float64) *float64 {
	var lo, hi *float64
	for _, v := range values {
		if v == nil {
			continue
		}
		if lo == nil || *v < *lo {
			lo = v
		}
		if hi == nil || *v > *hi {
			hi = v
		}
	}
	if lo == nil {
		return nil
	}
	return models.Float(*hi - *lo)
}
