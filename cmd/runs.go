/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	runsDBPath string
	runsNovel  string
	runsLimit  int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recorded chapter translation runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStorePath(runsDBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.ListRuns(cmd.Context(), runsNovel, runsLimit)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNOVEL\tCHAPTER\tSTATE\tCHUNKS\tCACHED\tVIOLATIONS\tWHEN\tREASON")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\t%d\t%d\t%s\t%s\n",
				r.ID, r.Novel, r.ChapterNumber, r.State, r.Chunks, r.CachedChunks,
				r.Violations, r.CreatedAt.Format("2006-01-02 15:04"), r.FailureReason)
		}
		return w.Flush()
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the consistency violations of one run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStorePath(runsDBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		violations, err := db.RunViolations(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to load violations: %w", err)
		}
		if len(violations) == 0 {
			fmt.Println("No violations recorded for this run.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CHUNK\tTERM\tEXPECTED\tFOUND\tREPAIRED")
		for _, v := range violations {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%v\n", v.ChunkIndex+1, v.Term, v.Expected, v.Found, v.Repaired)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsShowCmd)

	runsCmd.PersistentFlags().StringVar(&runsDBPath, "db", defaultDBPath, "Database path")
	runsCmd.Flags().StringVar(&runsNovel, "novel", "", "Only show runs of this novel")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum runs to show (0 = all)")
}
