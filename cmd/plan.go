package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"CrateFM/config"
	"CrateFM/core/agent"
	"CrateFM/core/planner"
	"CrateFM/core/scoring"
	"CrateFM/logger"
	"CrateFM/model"
	"CrateFM/repository"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	planLibrary  string
	planPrompt   string
	planBPMMin   float64
	planBPMMax   float64
	planGenre    string
	planDuration int
	planSeeds    []string
	planFinalize bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan a crate from a JSON track library",
	Long: `Loads tracks from a JSON file into an in-memory catalog, plans a crate
from either a free-text prompt (AI-assisted when AI_API_KEY is set) or
explicit constraints, and prints the sequenced result.`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planLibrary, "library", "l", "", "path to a JSON file holding an array of tracks (required)")
	planCmd.Flags().StringVarP(&planPrompt, "prompt", "p", "", "free-text planning prompt")
	planCmd.Flags().Float64Var(&planBPMMin, "bpm-min", 0, "minimum BPM")
	planCmd.Flags().Float64Var(&planBPMMax, "bpm-max", 0, "maximum BPM")
	planCmd.Flags().StringVar(&planGenre, "genre", "", "target genre")
	planCmd.Flags().IntVar(&planDuration, "duration", 0, "target duration in seconds")
	planCmd.Flags().StringSliceVar(&planSeeds, "seed", nil, "seed track id (repeatable); seeds open the crate")
	planCmd.Flags().BoolVar(&planFinalize, "finalize", false, "finalize the plan after validation")
	planCmd.MarkFlagRequired("library")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger.InitLogger(logger.Config{Level: logger.LogLevel(cfg.LogLevel)})

	repo := repository.NewMemoryTrackRepository()
	if err := loadLibrary(repo, planLibrary); err != nil {
		return err
	}

	var gen planner.TextGenerator
	if cfg.AIAPIKey != "" {
		gen = agent.NewCrateAgent(&agent.CrateAgentConfig{
			APIBaseURL:  cfg.AIBaseURL,
			APIKey:      cfg.AIAPIKey,
			Model:       cfg.AIModel,
			MaxTokens:   cfg.AIMaxTokens,
			Temperature: cfg.AITemperature,
		})
	}

	crate := planner.NewPlanner(repo, gen,
		planner.WithDefaultTargetDuration(cfg.DefaultTargetDuration),
		planner.WithTolerance(cfg.FinalizeTolerance))

	req := planner.PlanRequest{Prompt: planPrompt, SeedTrackIDs: planSeeds}
	if planPrompt == "" {
		req.Intent = &model.DerivedIntent{
			BPMRange:       model.BPMRange{Min: planBPMMin, Max: planBPMMax},
			TargetDuration: planDuration,
		}
		if planGenre != "" {
			req.Intent.Genres = []string{planGenre}
		}
	}

	plan, err := crate.CreatePlan(context.Background(), req)
	if err != nil {
		return err
	}

	printPlan(repo, plan)

	report, err := crate.Mixability()
	if err == nil {
		printMixability(report)
	}

	if planFinalize {
		final, err := crate.Finalize()
		if err != nil {
			color.Red("finalize failed: %v", err)
			return err
		}
		color.Green("plan %s finalized", final.ID)
	}
	return nil
}

func loadLibrary(repo repository.TrackRepository, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read library %s: %w", path, err)
	}
	var tracks []model.Track
	if err := json.Unmarshal(data, &tracks); err != nil {
		return fmt.Errorf("failed to parse library %s: %w", path, err)
	}
	for i := range tracks {
		repo.Add(&tracks[i])
	}
	color.Cyan("loaded %d tracks from %s", len(tracks), path)
	return nil
}

func printPlan(repo repository.TrackRepository, plan *model.CratePlan) {
	bold := color.New(color.Bold)
	bold.Printf("\nCrate plan %s", plan.ID)
	if plan.AIGenerated {
		fmt.Print(" (AI-sequenced)")
	}
	fmt.Printf(": %d tracks, %dm%02ds total\n\n", len(plan.TrackIDs), plan.TotalDuration/60, plan.TotalDuration%60)

	for i, t := range repo.GetMany(plan.TrackIDs) {
		fmt.Printf("%3d. %s - %s  ", i+1, t.Artist, t.Title)
		color.Yellow("%.0f BPM  %s  %ds", t.BPM, t.Key, t.Duration)
	}
	if plan.Annotation != "" {
		fmt.Printf("\n%s\n", plan.Annotation)
	}
}

func printMixability(report scoring.MixabilityReport) {
	fmt.Printf("\nMixability: %.2f\n", report.OverallScore)
	for _, weak := range report.WeakTransitions {
		color.Red("  weak transition %s -> %s (%.2f): %s", weak.FromID, weak.ToID, weak.Score, weak.Reason)
	}
	for _, rec := range report.Recommendations {
		color.Yellow("  hint: %s", rec)
	}
}
