package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/guilhermexp/zenith-tasks/internal/logger"
	"github.com/guilhermexp/zenith-tasks/internal/models"
	"github.com/guilhermexp/zenith-tasks/internal/services/ai"
	"github.com/guilhermexp/zenith-tasks/internal/services/intelligence"
)

type analyzeOptions struct {
	itemsPath        string
	output           string
	availableMinutes int
	preferences      string
	verbose          bool
}

// NewAnalyzeCmd creates the analyze command and its subcommands
func NewAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run analysis over an items file",
		Long:  "Run prioritization, pattern detection or conflict detection over a JSON file of items. Results are not persisted.",
	}

	cmd.PersistentFlags().StringVar(&opts.itemsPath, "items", "", "Path to a JSON file containing an array of items (required)")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "json", "Output format: json or yaml")
	cmd.PersistentFlags().IntVar(&opts.availableMinutes, "available-minutes", 0, "Schedulable minutes for prioritization")
	cmd.PersistentFlags().StringVar(&opts.preferences, "preferences", "", "Free-text user preferences for the AI scorer")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log the analysis pipeline at debug level")
	cobra.CheckErr(cmd.MarkPersistentFlagRequired("items"))

	cmd.AddCommand(newPrioritizeCmd(opts))
	cmd.AddCommand(newPatternsCmd(opts))
	cmd.AddCommand(newConflictsCmd(opts))

	return cmd
}

func newPrioritizeCmd(opts *analyzeOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prioritize",
		Short: "Score and rank items",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, items, err := loadItems(opts.itemsPath)
			if err != nil {
				return err
			}

			engine := buildEngine(opts.verbose)
			result, err := engine.Scorer().Prioritize(context.Background(), &intelligence.PrioritizeRequest{
				UserID:           userID,
				Items:            items,
				AvailableMinutes: opts.availableMinutes,
				Preferences:      opts.preferences,
			})
			if err != nil {
				return fmt.Errorf("prioritization failed: %w", err)
			}

			return render(result, opts.output)
		},
	}
}

func newPatternsCmd(opts *analyzeOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "Detect behavioral patterns",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, items, err := loadItems(opts.itemsPath)
			if err != nil {
				return err
			}

			engine := buildEngine(opts.verbose)
			patterns, err := engine.Patterns().DetectPatterns(context.Background(), userID, items)
			if err != nil {
				return fmt.Errorf("pattern detection failed: %w", err)
			}

			return render(patterns, opts.output)
		},
	}
}

func newConflictsCmd(opts *analyzeOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "conflicts",
		Short: "Detect scheduling conflicts",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, items, err := loadItems(opts.itemsPath)
			if err != nil {
				return err
			}

			engine := buildEngine(opts.verbose)
			conflicts, err := engine.Conflicts().DetectConflicts(context.Background(), &intelligence.ConflictRequest{
				UserID: userID,
				Items:  items,
			})
			if err != nil {
				return fmt.Errorf("conflict detection failed: %w", err)
			}

			return render(conflicts, opts.output)
		},
	}
}

// buildEngine assembles an engine with no-op storage. AI scoring is used
// when OPENAI_API_KEY is set, otherwise the rule-based path applies.
func buildEngine(verbose bool) *intelligence.Engine {
	var zapLogger *zap.Logger
	if verbose {
		if l, err := logger.NewDevelopmentLogger(true); err == nil {
			zapLogger = l
		}
	}

	var provider ai.Provider
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		if zapLogger != nil {
			provider = ai.NewOpenAIProviderWithLogger(apiKey, os.Getenv("AI_BASE_URL"), os.Getenv("AI_MODEL"), zapLogger, true)
		} else {
			provider = ai.NewOpenAIProvider(apiKey, os.Getenv("AI_MODEL"))
		}
	}

	stores := intelligence.NopStores{}
	return intelligence.NewEngine(
		intelligence.NewScorer(provider, stores, zapLogger),
		intelligence.NewPatternDetector(stores, intelligence.DefaultPatternConfig(), zapLogger),
		intelligence.NewConflictDetector(stores, zapLogger),
	)
}

// loadItems reads the items file and derives the user ID from the first item
func loadItems(path string) (uuid.UUID, []models.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("failed to read items file: %w", err)
	}

	var items []models.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return uuid.Nil, nil, fmt.Errorf("failed to parse items file: %w", err)
	}

	userID := uuid.Nil
	if len(items) > 0 {
		userID = items[0].UserID
	}
	if items == nil {
		items = []models.Item{}
	}

	return userID, items, nil
}

func render(result any, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		fmt.Println(string(data))
	case "yaml":
		data, err := yaml.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		fmt.Print(string(data))
	default:
		return fmt.Errorf("unknown output format: %s (must be json or yaml)", format)
	}
	return nil
}
