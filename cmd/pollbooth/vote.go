package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abrezinsky/pollbooth/internal/fingerprint"
	"github.com/abrezinsky/pollbooth/internal/models"
	"github.com/abrezinsky/pollbooth/internal/vote"
)

// sessionFingerprint derives (or restores) the session fingerprint
func sessionFingerprint(ctx context.Context, e *env) (string, error) {
	provider := fingerprint.NewProvider(e.log, e.store, nil)
	return provider.Fingerprint(ctx)
}

func voteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vote <category-id>",
		Short: "Cast a vote in a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			provider := fingerprint.NewProvider(e.log, e.store, nil)
			controller := vote.NewController(e.log, e.client, provider, e.store)
			defer controller.Close()

			loadErr := controller.Load(cmd.Context(), id)

			switch controller.State() {
			case vote.StateAlreadyVoted:
				fmt.Println("You have already voted in this category.")
				if at := controller.VotedAt(); at != nil {
					fmt.Printf("Voted at %s.\n", at.Format("2006-01-02 15:04"))
				}
				fmt.Printf("See the results with: pollbooth results %d\n", id)
				return nil
			case vote.StateInsufficientItems:
				fmt.Println("This category needs at least two items before voting opens.")
				return nil
			case vote.StateActive:
				return runInteraction(cmd.Context(), controller)
			default:
				return loadErr
			}
		},
	}
}

// runInteraction drives the mode-specific prompt loop
func runInteraction(ctx context.Context, controller *vote.Controller) error {
	cat := controller.Category()
	fmt.Printf("%s\n", cat.Name)
	if cat.Description != "" {
		fmt.Println(cat.Description)
	}
	fmt.Println()

	in := bufio.NewReader(os.Stdin)

	switch strategy := controller.Strategy().(type) {
	case *vote.SingleChoice:
		return runSingleChoice(ctx, controller, strategy, in)
	case *vote.Pairwise:
		return runPairwise(ctx, controller, strategy, in)
	case *vote.Ranked:
		return runRanked(ctx, controller, strategy, in)
	case *vote.Tiers:
		return runTiers(ctx, controller, strategy, in)
	default:
		return fmt.Errorf("no interaction available for mode %s", cat.ComparisonMode)
	}
}

// prompt prints a prompt and reads one trimmed line
func prompt(in *bufio.Reader, text string) (string, error) {
	fmt.Print(text)
	line, err := in.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readComment asks for the optional vote comment
func readComment(in *bufio.Reader) (string, error) {
	return prompt(in, "Comment (optional, enter to skip): ")
}

// submit sends the vote and reports the outcome, leaving the selection
// intact on failure so the user can retry
func submit(ctx context.Context, controller *vote.Controller, comment string) error {
	if err := controller.Submit(ctx, comment); err != nil {
		fmt.Printf("Submission failed: %v\nYour selection was kept; try again.\n", err)
		return err
	}
	fmt.Println("Vote recorded. Thanks for voting!")
	return nil
}

func runSingleChoice(ctx context.Context, controller *vote.Controller, strategy *vote.SingleChoice, in *bufio.Reader) error {
	items := strategy.Items()
	for i, item := range items {
		fmt.Printf("  %d. %s\n", i+1, item.Name)
	}

	for {
		answer, err := prompt(in, fmt.Sprintf("\nYour pick (1-%d): ", len(items)))
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(answer)
		if err != nil || n < 1 || n > len(items) {
			fmt.Println("Please enter a listed number.")
			continue
		}
		if err := strategy.Select(items[n-1].ID); err != nil {
			return err
		}
		break
	}

	comment, err := readComment(in)
	if err != nil {
		return err
	}
	return submit(ctx, controller, comment)
}

func runPairwise(ctx context.Context, controller *vote.Controller, strategy *vote.Pairwise, in *bufio.Reader) error {
	a, b := strategy.Matchup()
	fmt.Printf("  1. %s\n  2. %s\n", a.Name, b.Name)

	for {
		answer, err := prompt(in, "\nWhich one wins? (1/2): ")
		if err != nil {
			return err
		}
		var winner models.Item
		switch answer {
		case "1":
			winner = a
		case "2":
			winner = b
		default:
			fmt.Println("Please enter 1 or 2.")
			continue
		}
		if err := strategy.ChooseWinner(winner.ID); err != nil {
			return err
		}
		break
	}

	comment, err := readComment(in)
	if err != nil {
		return err
	}
	return submit(ctx, controller, comment)
}

func runRanked(ctx context.Context, controller *vote.Controller, strategy *vote.Ranked, in *bufio.Reader) error {
	fmt.Println("Reorder with \"swap <a> <b>\", then \"done\" to submit.")
	for {
		for i, item := range strategy.Items() {
			fmt.Printf("  %d. %s\n", i+1, item.Name)
		}

		answer, err := prompt(in, "\n> ")
		if err != nil {
			return err
		}
		fields := strings.Fields(answer)
		switch {
		case answer == "done":
			comment, err := readComment(in)
			if err != nil {
				return err
			}
			return submit(ctx, controller, comment)
		case len(fields) == 3 && fields[0] == "swap":
			from, err1 := strconv.Atoi(fields[1])
			to, err2 := strconv.Atoi(fields[2])
			if err1 != nil || err2 != nil {
				fmt.Println("Usage: swap <a> <b>")
				continue
			}
			if err := strategy.Move(from-1, to-1); err != nil {
				fmt.Println(err)
			}
		default:
			fmt.Println("Commands: swap <a> <b>, done")
		}
	}
}

func runTiers(ctx context.Context, controller *vote.Controller, strategy *vote.Tiers, in *bufio.Reader) error {
	labels := strategy.Labels()
	fmt.Printf("Tiers: %s\n", strings.Join(labels, " "))
	fmt.Println("Assign with \"set <n> <tier>\", move pages with \"page <p>\", \"done\" to finish.")
	fmt.Println("Every assignment is saved immediately; you can come back and change any of them.")

	for {
		page := strategy.Page()
		items := strategy.PageItems(page)
		fmt.Printf("\nPage %d/%d\n", page+1, strategy.Pages())
		for i, item := range items {
			mark := "-"
			if tier, ok := strategy.Tier(item.ID); ok {
				mark = labels[tier]
			}
			if controller.Saving(item.ID) {
				mark += " (saving)"
			}
			if err := controller.TierError(item.ID); err != nil {
				mark += fmt.Sprintf(" (save failed: %v)", err)
			}
			fmt.Printf("  %d. %-30s [%s]\n", i+1, item.Name, mark)
		}

		answer, err := prompt(in, "\n> ")
		if err != nil {
			return err
		}
		fields := strings.Fields(answer)
		switch {
		case answer == "done":
			controller.Wait()
			fmt.Println("All selections saved.")
			return nil
		case len(fields) == 3 && fields[0] == "set":
			n, err1 := strconv.Atoi(fields[1])
			tier := tierIndex(labels, fields[2])
			if err1 != nil || n < 1 || n > len(items) || tier < 0 {
				fmt.Println("Usage: set <n> <tier label>")
				continue
			}
			if err := controller.SelectTier(ctx, items[n-1].ID, tier); err != nil {
				fmt.Println(err)
			}
		case len(fields) == 2 && fields[0] == "page":
			p, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Println("Usage: page <p>")
				continue
			}
			if err := strategy.SetPage(p - 1); err != nil {
				fmt.Println(err)
			}
		default:
			fmt.Println("Commands: set <n> <tier>, page <p>, done")
		}
	}
}

// tierIndex resolves a tier label (case-insensitive) to its index
func tierIndex(labels []string, label string) int {
	for i, l := range labels {
		if strings.EqualFold(l, label) {
			return i
		}
	}
	return -1
}
