package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hoanghai1803/daybrief/internal/models"
	"github.com/hoanghai1803/daybrief/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build one briefing and print it as JSON",
	Long: `Build one briefing and print it as JSON. Flags override the saved
default settings; unset flags keep them.

Examples:
  daybrief run
  daybrief run --categories technology,science --duration 3-5
  daybrief run --weather --local --zip 10001 --script`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.StringSlice("categories", nil, "categories to include")
	f.StringSlice("providers", nil, "news providers to query (default all configured)")
	f.String("duration", "", "target listening time: 1-3, 3-5, 5-10, 10-15, 15-20, 20-30")
	f.String("zip", "", "zip code for local news and weather")
	f.Bool("local", false, "include local news")
	f.Bool("weather", false, "include the weather report")
	f.Bool("entertainment", false, "include the entertainment roundup")
	f.Bool("feeds", false, "include curated RSS feeds")
	f.Bool("script", false, "write a spoken script")
	f.Int("max-age", 0, "maximum story age in hours")
}

func runRun(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	var s models.RunSettings
	s.Categories, _ = f.GetStringSlice("categories")
	s.Providers, _ = f.GetStringSlice("providers")
	duration, _ := f.GetString("duration")
	s.Duration = models.DurationBucket(duration)
	s.ZipCode, _ = f.GetString("zip")
	s.IncludeLocal, _ = f.GetBool("local")
	s.IncludeWeather, _ = f.GetBool("weather")
	s.IncludeEntertainment, _ = f.GetBool("entertainment")
	s.IncludeCuratedFeeds, _ = f.GetBool("feeds")
	s.GenerateScript, _ = f.GetBool("script")
	s.MaxAgeHours, _ = f.GetInt("max-age")

	if s.Duration != "" && !s.Duration.Valid() {
		return fmt.Errorf("invalid --duration %q", duration)
	}
	if s.MaxAgeHours < 0 {
		return fmt.Errorf("invalid --max-age %d", s.MaxAgeHours)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.runner.Run(ctx, s, pipeline.TriggerCLI)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
