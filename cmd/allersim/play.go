package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"allersim/internal/menu"
	"allersim/internal/session"
	"allersim/internal/session/filestore"
	"allersim/pkg/types"
)

func newPlayCommand() *cobra.Command {
	var (
		playerName string
		playerAge  int
		allergies  []string
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Run an interactive training session in the terminal",
		Long: `Starts a conversation with the simulated restaurant server. Type your
lines and press enter; type "done" (or Ctrl-D) to end the session and see
your score.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			semantic, replies, err := buildCollaborators(cfg)
			if err != nil {
				return err
			}

			index := menu.NewLoader(nil).Load(cfg.ScenarioPath)
			profile := types.PlayerProfile{Name: playerName, Age: playerAge, Allergies: allergies}
			level := types.ParseLevel(cfg.Level)

			opts := []session.Option{}
			if semantic != nil {
				opts = append(opts, session.WithSemanticAnalyzer(semantic))
			}
			if replies != nil {
				opts = append(opts, session.WithReplyProducer(replies))
			}
			engine, err := session.NewEngine(profile, level, index, opts...)
			if err != nil {
				return err
			}

			return runPlay(cmd.Context(), cfg.SessionDir, engine, index, profile, level)
		},
	}

	cmd.Flags().StringVarP(&playerName, "name", "n", "", "Player name (required)")
	cmd.Flags().IntVarP(&playerAge, "age", "a", 10, "Player age")
	cmd.Flags().StringSliceVar(&allergies, "allergies", nil, "Player allergies, e.g. --allergies peanuts,dairy")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runPlay(ctx context.Context, sessionDir string, engine *session.Engine, index *menu.SafetyIndex, profile types.PlayerProfile, level types.Level) error {
	fmt.Printf("%s\n", bold(fmt.Sprintf("Welcome to %s, %s!", index.RestaurantName(), profile.Name)))
	fmt.Printf("Difficulty: %s. Your allergies: %s.\n", level, strings.Join(profile.Allergies, ", "))
	fmt.Printf("Type your lines. Type %s when you're finished.\n\n", bold("done"))
	fmt.Printf("%s %s\n", cyan("Server:"), "Welcome! Can I get you started with something, or would you like to hear about the menu?")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("%s ", green("You:"))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "done") || strings.EqualFold(line, "quit") {
			break
		}

		reply, err := engine.ProcessTurn(ctx, line)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", cyan("Server:"), reply)
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	record, err := engine.Finalize()
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}

	printAssessment(record)

	store, err := filestore.New(sessionDir)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	if err := store.Save(record); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Printf("\nSession saved as %s\n", record.ID)
	return nil
}

func printAssessment(record *session.Record) {
	a := record.Assessment

	fmt.Printf("\n%s\n", bold("=== Session Results ==="))
	scoreLine := fmt.Sprintf("Score: %d / %d (passing: %d)", a.TotalScore, a.MaxPossibleScore, a.PassingScore)
	if a.Passed {
		fmt.Println(green(scoreLine + "  PASSED"))
	} else {
		fmt.Println(red(scoreLine + "  NOT PASSED"))
	}
	if a.CriticalFailure {
		fmt.Println(red("Critical safety failure: an unsafe dish was ordered without disclosing allergies."))
	}

	if len(a.DetailedScores) > 0 {
		fmt.Printf("\n%s\n", bold("Breakdown"))
		criteria := make([]string, 0, len(a.DetailedScores))
		for name := range a.DetailedScores {
			criteria = append(criteria, name)
		}
		sort.Strings(criteria)
		for _, name := range criteria {
			fmt.Printf("  %-20s %d\n", name, a.DetailedScores[name])
		}
	}

	fb := record.Feedback
	if len(fb.Strengths) > 0 {
		fmt.Printf("\n%s\n", bold("What went well"))
		for _, s := range fb.Strengths {
			fmt.Printf("  %s %s\n", green("+"), s)
		}
	}
	if len(fb.Improvements) > 0 {
		fmt.Printf("\n%s\n", bold("Things to practice"))
		for _, s := range fb.Improvements {
			fmt.Printf("  %s %s\n", yellow("-"), s)
		}
	}

	fmt.Printf("\n%s\n", fb.Paragraph)
}
