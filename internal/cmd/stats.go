package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reqsift/reqsift/internal/extract"
	"github.com/reqsift/reqsift/internal/model"
	"github.com/reqsift/reqsift/internal/reader"
	"github.com/reqsift/reqsift/internal/stats"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats <logfile>",
	Short: "Aggregate request statistics from a getData debug log",
	Long: `Run the same single-pass extraction as extract over one log file and
print an aggregate summary instead of per-request rows: totals, counts by
datacenter and status, and elapsed-seconds percentiles.`,
	Args: cobra.ExactArgs(1),
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print the summary as JSON")
	statsCmd.Flags().BoolVar(&extractLenient, "lenient", false, "skip malformed marker lines instead of failing")
}

func runStats(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync() // nolint

	in, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer in.Close()

	opts := []extract.Option{extract.WithLogger(log)}
	if extractLenient || viper.GetBool("lenient") {
		opts = append(opts, extract.WithLenient())
	}
	ex := extract.New(opts...)

	collector := stats.New()
	err = ex.Run(reader.New(in).Lines(), func(rec *model.Record) error {
		collector.Add(rec)
		return nil
	})
	if err != nil {
		return err
	}

	snapshot := collector.Snapshot()
	if statsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snapshot)
	}
	renderStats(snapshot)
	return nil
}

var (
	styleTitle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	styleLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// renderStats prints the summary in sections, sorted for stable output.
func renderStats(s stats.Stats) {
	fmt.Println(styleTitle.Render("Requests"))
	fmt.Printf("  %s %d\n", styleLabel.Render("total:"), s.TotalRequests)
	if s.TotalRequests == 0 {
		return
	}
	fmt.Printf("  %s min %.1fs  avg %.1fs  p50 %.1fs  p95 %.1fs  max %.1fs\n",
		styleLabel.Render("seconds:"), s.MinSeconds, s.AvgSeconds, s.P50Seconds, s.P95Seconds, s.MaxSeconds)

	fmt.Println(styleTitle.Render("By datacenter"))
	for _, k := range sortedKeys(s.DatacenterCounts) {
		fmt.Printf("  %-12s %d\n", k, s.DatacenterCounts[k])
	}

	fmt.Println(styleTitle.Render("By status"))
	for _, k := range sortedKeys(s.StatusCounts) {
		fmt.Printf("  %-12s %d\n", k, s.StatusCounts[k])
	}

	fmt.Println(styleTitle.Render("Slowest"))
	for _, rec := range s.Slowest {
		fmt.Printf("  %s  %-8s %-12s %s\n", rec.SecondsText(), rec.Datacenter, rec.Request, rec.Filename)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
