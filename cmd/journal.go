package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/pulse/config"
	"github.com/kilianp07/pulse/infra/journal"
)

var (
	journalBus   string
	journalLimit int
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect recorded bus cycles",
}

var journalLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List recorded cycles",
	RunE:  runJournalLs,
}

func init() {
	journalLsCmd.Flags().StringVar(&journalBus, "bus", "", "only list cycles of this bus")
	journalLsCmd.Flags().IntVar(&journalLimit, "limit", 20, "maximum number of cycles, 0 for all")
	journalCmd.AddCommand(journalLsCmd)
	rootCmd.AddCommand(journalCmd)
}

func runJournalLs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := journal.Open(cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "error while closing journal:", err)
		}
	}()
	res, err := store.Query(cmd.Context(), journal.Query{Bus: journalBus, Limit: journalLimit})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, cs := range res {
		fmt.Fprintf(out, "%s\t%d\t%s\t%s\tobservers=%d each=%d last=%d\n",
			cs.Bus, cs.Cycle, cs.Started.Format(time.RFC3339Nano), cs.Duration,
			cs.Observers, cs.EachDelivered, cs.LastDelivered)
	}
	return nil
}
