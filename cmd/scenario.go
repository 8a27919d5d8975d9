package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/pulse/qa/scenarios"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Replay scripted bus scenarios",
}

var scenarioRunCmd = &cobra.Command{
	Use:   "run <file|dir>",
	Short: "Run one scenario file or every scenario in a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenarios,
}

func init() {
	scenarioCmd.AddCommand(scenarioRunCmd)
	rootCmd.AddCommand(scenarioCmd)
}

func runScenarios(cmd *cobra.Command, args []string) error {
	all, err := scenarios.LoadAll(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	failed := 0
	for _, sc := range all {
		res := scenarios.Run(sc)
		if res.Passed() {
			fmt.Fprintf(out, "PASS %s\n", res.Name)
			continue
		}
		failed++
		fmt.Fprintf(out, "FAIL %s\n", res.Name)
		for _, f := range res.Failures {
			fmt.Fprintf(out, "  %s\n", f)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(all))
	}
	return nil
}
