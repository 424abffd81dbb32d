package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/odme-systems/sentinel/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var (
	serverURL string
	cfgFile   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sentinelctl",
	Short: "Sentinel anomaly registry CLI",
	Long: `sentinelctl is the command-line interface for the Sentinel anomaly registry.

It allows field operators to ingest anomalies, file agent reports, resolve
anomalies, and query the registry.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.sentinel")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if serverURL == "" {
			serverURL = viper.GetString("server_url")
		}
		if serverURL == "" {
			serverURL = "http://localhost:8080"
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.sentinel/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Sentinel registry URL (default http://localhost:8080)")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(versionCmd)
}

// attrFlags holds the shared attribute flags for ingest and report.
type attrFlags struct {
	intensity  float64
	aggression float64
	invisible  bool
	category   string
	location   string
	agent      string
	notes      string
}

func (f *attrFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.intensity, "intensity", 0, "magical intensity reading (0–100)")
	cmd.Flags().Float64Var(&f.aggression, "aggression", 0, "aggression reading (0–100)")
	cmd.Flags().BoolVar(&f.invisible, "invisible", false, "entity cannot be seen")
	cmd.Flags().StringVar(&f.category, "category", "", "anomaly category (shapeshifter|elemental|phantom)")
	cmd.Flags().StringVar(&f.location, "location", "", "detection location")
	cmd.Flags().StringVar(&f.agent, "agent", "", "reporting agent name")
	cmd.Flags().StringVar(&f.notes, "notes", "", "free-text notes")
}

func (f *attrFlags) attributeSet() client.AttributeSet {
	return client.AttributeSet{
		Intensity:    f.intensity,
		Invisibility: f.invisible,
		Aggression:   f.aggression,
		Category:     f.category,
		Location:     f.location,
		AgentName:    f.agent,
		Notes:        f.notes,
	}
}

func newClient() *client.Client {
	return client.New(serverURL, client.WithTimeout(10*time.Second))
}

func ctlContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// ── ingest ───────────────────────────────────────────────────────────────────

var ingestFlags attrFlags

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a new anomaly",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := ctlContext()
		defer cancel()

		anomaly, err := newClient().Ingest(ctx, ingestFlags.attributeSet())
		if err != nil {
			return err
		}

		fmt.Printf("anomaly %s created\n", anomaly.ID)
		fmt.Printf("  level: %s (score %.1f)\n", anomaly.CurrentLevel, anomaly.CurrentScore)
		return nil
	},
}

// ── report ───────────────────────────────────────────────────────────────────

var reportFlags attrFlags

var reportCmd = &cobra.Command{
	Use:   "report <anomaly-id>",
	Short: "File an agent report against an anomaly",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := ctlContext()
		defer cancel()

		report, anomaly, err := newClient().SubmitReport(ctx, args[0], reportFlags.attributeSet())
		if err != nil {
			return err
		}

		fmt.Printf("report %s accepted\n", report.ID)
		fmt.Printf("  report level:  %s (score %.1f)\n", report.Level, report.Score)
		fmt.Printf("  current level: %s (score %.1f)\n", anomaly.CurrentLevel, anomaly.CurrentScore)
		return nil
	},
}

// ── resolve ──────────────────────────────────────────────────────────────────

var resolveCmd = &cobra.Command{
	Use:   "resolve <anomaly-id>",
	Short: "Mark an anomaly resolved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := ctlContext()
		defer cancel()

		anomaly, err := newClient().Resolve(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("anomaly %s resolved at level %s\n", anomaly.ID, anomaly.CurrentLevel)
		return nil
	},
}

// ── get ──────────────────────────────────────────────────────────────────────

var getJSON bool

var getCmd = &cobra.Command{
	Use:   "get <anomaly-id>",
	Short: "Show one anomaly with its report history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := ctlContext()
		defer cancel()

		anomaly, err := newClient().Get(ctx, args[0])
		if err != nil {
			return err
		}

		if getJSON {
			out, err := json.MarshalIndent(anomaly, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		fmt.Printf("anomaly %s\n", anomaly.ID)
		fmt.Printf("  status:   %s\n", anomaly.Status)
		if anomaly.Category != "" {
			fmt.Printf("  category: %s\n", anomaly.Category)
		}
		if anomaly.Location != "" {
			fmt.Printf("  location: %s\n", anomaly.Location)
		}
		fmt.Printf("  level:    %s (score %.1f)\n", anomaly.CurrentLevel, anomaly.CurrentScore)
		fmt.Printf("  detected: %s\n", anomaly.CreatedAt.Format(time.RFC3339))

		if len(anomaly.Reports) > 0 {
			fmt.Printf("  reports (%d):\n", len(anomaly.Reports))
			for _, r := range anomaly.Reports {
				agent := r.AgentName
				if agent == "" {
					agent = "-"
				}
				fmt.Printf("    %s  %-8s  score %5.1f  by %s\n",
					r.CreatedAt.Format("2006-01-02 15:04"), r.Level, r.Score, agent)
			}
		}
		return nil
	},
}

func init() {
	ingestFlags.register(ingestCmd)
	reportFlags.register(reportCmd)
	getCmd.Flags().BoolVar(&getJSON, "json", false, "print raw JSON")
}

// ── list ─────────────────────────────────────────────────────────────────────

var listOpts client.ListOptions

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List anomalies",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := ctlContext()
		defer cancel()

		anomalies, err := newClient().List(ctx, listOpts)
		if err != nil {
			return err
		}
		if len(anomalies) == 0 {
			fmt.Println("no anomalies found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tLEVEL\tSCORE\tCATEGORY\tLOCATION\tDETECTED")
		for _, a := range anomalies {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%s\t%s\t%s\n",
				a.ID, a.Status, a.CurrentLevel, a.CurrentScore,
				a.Category, a.Location, a.CreatedAt.Format("2006-01-02 15:04"),
			)
		}
		return w.Flush()
	},
}

func init() {
	listCmd.Flags().StringVar(&listOpts.Status, "status", "", "filter by status (active|resolved)")
	listCmd.Flags().StringVar(&listOpts.MinLevel, "min-level", "", "filter by minimum threat level")
	listCmd.Flags().StringVar(&listOpts.Category, "category", "", "filter by category")
	listCmd.Flags().IntVar(&listOpts.Limit, "limit", 50, "maximum results")
	listCmd.Flags().IntVar(&listOpts.Offset, "offset", 0, "results offset")
}

// ── summary ──────────────────────────────────────────────────────────────────

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show registry-wide statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := ctlContext()
		defer cancel()

		s, err := newClient().GetSummary(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("total anomalies:   %d\n", s.TotalAnomalies)
		fmt.Printf("unresolved:        %d\n", s.UnresolvedCount)
		if s.MostCommonCategory != "" {
			fmt.Printf("top category:      %s\n", s.MostCommonCategory)
		}
		if s.AvgUnresolvedScore != nil {
			fmt.Printf("avg active score:  %.1f\n", *s.AvgUnresolvedScore)
		}
		return nil
	},
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the sentinelctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("sentinelctl", version)
	},
}
