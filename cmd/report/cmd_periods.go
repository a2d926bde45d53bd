package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var periodsCmd = &cobra.Command{
	Use:   "periods",
	Short: "List the selectable years and months",
	RunE:  runPeriods,
}

func init() {
	rootCmd.AddCommand(periodsCmd)
}

func runPeriods(cmd *cobra.Command, args []string) error {
	svc, closer, err := loadDashboard(cmd.Context())
	if err != nil {
		return err
	}
	defer closer()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Station %s, %d records\n", svc.Station(), svc.Records())
	for _, p := range svc.Periods(cmd.Context()) {
		months := make([]string, len(p.Months))
		for i, m := range p.Months {
			months[i] = strconv.Itoa(m)
		}
		fmt.Fprintf(out, "  %d: %s\n", p.Year, strings.Join(months, " "))
	}
	return nil
}
