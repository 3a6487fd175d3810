package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/abrezinsky/pollbooth/internal/config"
	"github.com/abrezinsky/pollbooth/internal/logger"
	"github.com/abrezinsky/pollbooth/internal/store"
	"github.com/abrezinsky/pollbooth/pkg/pollapi"
)

var version = "dev"

var (
	flagAPIBase  string
	flagLogLevel string
	flagSession  string
	flagVerbose  bool
)

// env holds the wired dependencies shared by all commands
type env struct {
	cfg    *config.Config
	log    *logger.SlogLogger
	client pollapi.Client
	store  *store.Store
}

// newEnv loads config and wires the shared dependencies. Flags override
// config file and environment values.
func newEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if flagAPIBase != "" {
		cfg.APIBase = flagAPIBase
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if flagSession != "" {
		cfg.SessionPath = flagSession
	}

	log := logger.NewWithLevel(logger.ParseLevel(cfg.LogLevel))
	if flagVerbose {
		log.EnableRequestLogging()
	}

	st, err := store.New(cfg.SessionPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	return &env{
		cfg:    cfg,
		log:    log,
		client: pollapi.NewHTTPClient(cfg.APIBase, log),
		store:  st,
	}, nil
}

func (e *env) close() {
	if e.store != nil {
		e.store.Close()
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:     "pollbooth",
		Short:   "Terminal client for the community polling API",
		Version: version,
	}

	rootCmd.PersistentFlags().StringVar(&flagAPIBase, "api", "", "API base URL (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "loglevel", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagSession, "session", "", "session store path (default in-memory)")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "log API requests and responses")

	rootCmd.AddCommand(categoriesCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(voteCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(resultsCmd())
	rootCmd.AddCommand(shareCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List voting categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			categories, err := e.client.ListCategories(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tMODE\tNAME")
			for _, cat := range categories {
				fmt.Fprintf(w, "%d\t%s\t%s\n", cat.ID, cat.ComparisonMode, cat.Name)
			}
			return w.Flush()
		},
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <category-id>",
		Short: "Show a category and its items",
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

			cat, err := e.client.GetCategory(cmd.Context(), id)
			if err != nil {
				return err
			}

			fmt.Printf("%s (#%d)\n", cat.Name, cat.ID)
			if cat.Description != "" {
				fmt.Println(cat.Description)
			}
			fmt.Printf("Mode: %s, %d items\n\n", cat.ComparisonMode, len(cat.Items))
			for _, item := range cat.Items {
				if item.GroupName != "" {
					fmt.Printf("  %d. %s (%s)\n", item.ID, item.Name, item.GroupName)
				} else {
					fmt.Printf("  %d. %s\n", item.ID, item.Name)
				}
			}
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <category-id>",
		Short: "Check whether this device has voted in a category",
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

			fp, err := sessionFingerprint(cmd.Context(), e)
			if err != nil {
				return err
			}

			status, err := e.client.VoteStatus(cmd.Context(), id, fp)
			if err != nil {
				return err
			}
			if status.HasVoted {
				if status.VotedAt != nil {
					fmt.Printf("Already voted (at %s)\n", status.VotedAt.Format("2006-01-02 15:04"))
				} else {
					fmt.Println("Already voted")
				}
			} else {
				fmt.Println("Not voted yet")
			}
			return nil
		},
	}
}

func parseID(arg string) (int, error) {
	var id int
	if _, err := fmt.Sscanf(arg, "%d", &id); err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid category id %q", arg)
	}
	return id, nil
}
