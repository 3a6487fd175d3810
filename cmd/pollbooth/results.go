package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abrezinsky/pollbooth/internal/browser"
	"github.com/abrezinsky/pollbooth/internal/live"
	"github.com/abrezinsky/pollbooth/internal/models"
	"github.com/abrezinsky/pollbooth/internal/results"
	"github.com/abrezinsky/pollbooth/internal/share"
	"github.com/abrezinsky/pollbooth/pkg/pollapi"
)

const barWidth = 40

func resultsCmd() *cobra.Command {
	var (
		flagWatch    bool
		flagOpen     bool
		flagInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "results <category-id>",
		Short: "Show results for a category",
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

			if flagOpen {
				url := share.ResultsURL(e.cfg.WebBase, id)
				fmt.Printf("Opening %s\n", url)
				return browser.Open(url)
			}

			fp, err := sessionFingerprint(cmd.Context(), e)
			if err != nil {
				e.log.Warn("Fingerprint unavailable", "error", err)
			}

			if flagWatch {
				return watchResults(cmd.Context(), e, id, fp, flagInterval)
			}

			res, err := e.client.GetResults(cmd.Context(), id, fp)
			if err != nil {
				if pollapi.IsPrivateResults(err) {
					fmt.Printf("Results are private until you vote. Vote with: pollbooth vote %d\n", id)
					return nil
				}
				return err
			}
			printResults(res.CategoryName, res.ComparisonMode, res.TotalVotes, res.Results)
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagWatch, "watch", false, "keep refreshing as votes come in")
	cmd.Flags().BoolVar(&flagOpen, "open", false, "open the web results page instead")
	cmd.Flags().DurationVar(&flagInterval, "interval", 5*time.Second, "poll interval when the live stream is unavailable")
	return cmd
}

// watchResults streams updates over WebSocket, falling back to REST polling
// when the stream cannot be established
func watchResults(ctx context.Context, e *env, categoryID int, fingerprint string, interval time.Duration) error {
	cat, err := e.client.GetCategory(ctx, categoryID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan live.Update, 1)
	errc := make(chan error, 1)

	go func() {
		sub := live.NewSubscriber(e.cfg.WSBase, e.log)
		if err := sub.Run(ctx, categoryID, updates); err != nil {
			e.log.Debug("Live stream unavailable, polling instead", "error", err)
			poller := live.NewPoller(e.client, nil, interval, e.log)
			errc <- poller.Run(ctx, categoryID, fingerprint, updates)
			return
		}
		errc <- nil
	}()

	for {
		select {
		case update := <-updates:
			fmt.Print("\033[H\033[2J") // clear screen between refreshes
			printResults(cat.Name, cat.ComparisonMode, update.TotalVotes, update.Results)
			fmt.Println("\nWatching for updates (Ctrl-C to stop)")
		case err := <-errc:
			if err != nil && ctx.Err() == nil {
				if pollapi.IsPrivateResults(err) {
					fmt.Printf("Results are private until you vote. Vote with: pollbooth vote %d\n", categoryID)
					return nil
				}
				return err
			}
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

func printResults(name string, mode models.ComparisonMode, totalVotes int, rows []models.VoteResultRow) {
	fmt.Printf("%s (%d votes)\n\n", name, totalVotes)
	if len(rows) == 0 {
		fmt.Println("No votes yet.")
		return
	}

	for i, row := range results.RendererFor(mode).Render(rows) {
		fmt.Printf("%2d. %-30s %s %s\n", i+1, row.Name, bar(row.BarPercent), detailColumn(mode, row))
	}
}

// bar renders a fixed-width unicode bar for a normalized percentage
func bar(percent float64) string {
	filled := int(percent / 100 * barWidth)
	if filled < 0 {
		filled = 0
	}
	if filled > barWidth {
		filled = barWidth
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

// detailColumn picks the mode-appropriate numeric column
func detailColumn(mode models.ComparisonMode, row results.Row) string {
	switch mode {
	case models.EloTournament:
		return fmt.Sprintf("%.0f (%d games)", row.EloRating, row.GamesPlayed)
	case models.SingleChoice:
		if row.WilsonLower != nil && row.WilsonUpper != nil {
			return fmt.Sprintf("%.1f%% [%.1f-%.1f]", row.Percentage, *row.WilsonLower, *row.WilsonUpper)
		}
		return fmt.Sprintf("%.1f%%", row.Percentage)
	case models.RankedList:
		if row.AverageRank != nil {
			return fmt.Sprintf("avg rank %.2f", *row.AverageRank)
		}
		return fmt.Sprintf("%.1f%%", row.Percentage)
	default:
		return fmt.Sprintf("%.1f%% (%d)", row.Percentage, row.VoteCount)
	}
}

func shareCmd() *cobra.Command {
	var (
		flagOut  string
		flagSize int
	)

	cmd := &cobra.Command{
		Use:   "share <category-id>",
		Short: "Print a shareable voting link and save its QR code",
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

			// Resolve the category so we fail fast on a bad id
			cat, err := e.client.GetCategory(cmd.Context(), id)
			if err != nil {
				return err
			}

			url := share.VoteURL(e.cfg.WebBase, id)
			fmt.Printf("%s\n%s\n", cat.Name, url)

			if flagOut != "" {
				if err := share.WriteQRPNG(url, flagOut, flagSize); err != nil {
					return err
				}
				fmt.Printf("QR code written to %s\n", flagOut)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flagOut, "out", "o", "", "write a QR code PNG to this path")
	cmd.Flags().IntVar(&flagSize, "size", 256, "QR code size in pixels")
	return cmd
}
