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
	glossaryDBPath string
	glossaryNovel  string
)

var glossaryCmd = &cobra.Command{
	Use:   "glossary",
	Short: "Manage per-novel glossaries",
	Long: `Add, list, import and delete glossary entries.

Each novel has its own glossary. Entries make sure character names, sects,
ranks and techniques are rendered identically in every chapter.`,
}

var glossaryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List glossary entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStorePath(glossaryDBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		// An empty --novel lists every novel.
		entries, err := db.ListGlossaryTerms(cmd.Context(), glossaryNovel)
		if err != nil {
			return fmt.Errorf("failed to list glossary: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("Glossary is empty.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NOVEL\tSOURCE TERM\tTARGET TERM\tADDED")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				e.Novel, e.SourceTerm, e.TargetTerm, e.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var glossaryAddCmd = &cobra.Command{
	Use:   "add <source-term> <target-term>",
	Short: "Add or update a glossary entry",
	Long: `Add a glossary entry mapping a source term to its canonical translation.
Adding an existing source term replaces its target.

Example:
  novelsync glossary add "林羽" "Lin Yu" --novel nine-suns`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if glossaryNovel == "" {
			return fmt.Errorf("--novel flag is required")
		}

		db, err := openStorePath(glossaryDBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.AddGlossaryTerm(cmd.Context(), glossaryNovel, args[0], args[1]); err != nil {
			return fmt.Errorf("failed to add glossary entry: %w", err)
		}
		fmt.Printf("Added: [%s] %q → %q\n", glossaryNovel, args[0], args[1])
		return nil
	},
}

var glossaryImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import glossary entries from a JSON, YAML or CSV file",
	Long: `Import entries into a novel's glossary. All entries are written or none.

JSON and YAML files hold either a map of source term to target term or a
list of {source, target} objects. CSV files hold source and target in the
first two columns, with an optional "source,target" header.

Example:
  novelsync glossary import terms.yaml --novel nine-suns`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if glossaryNovel == "" {
			return fmt.Errorf("--novel flag is required")
		}

		entries, err := readGlossaryFile(args[0])
		if err != nil {
			return err
		}

		db, err := openStorePath(glossaryDBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.ImportGlossary(cmd.Context(), glossaryNovel, entries)
		if err != nil {
			return fmt.Errorf("failed to import glossary: %w", err)
		}
		fmt.Printf("Imported %d entries into %s\n", n, glossaryNovel)
		return nil
	},
}

var glossaryDeleteCmd = &cobra.Command{
	Use:   "delete <source-term>",
	Short: "Delete a glossary entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if glossaryNovel == "" {
			return fmt.Errorf("--novel flag is required")
		}

		db, err := openStorePath(glossaryDBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		deleted, err := db.DeleteGlossaryTerm(cmd.Context(), glossaryNovel, args[0])
		if err != nil {
			return fmt.Errorf("failed to delete glossary entry: %w", err)
		}
		if !deleted {
			return fmt.Errorf("no entry %q in %s", args[0], glossaryNovel)
		}
		fmt.Printf("Deleted glossary entry: %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(glossaryCmd)

	glossaryCmd.PersistentFlags().StringVar(&glossaryDBPath, "db", defaultDBPath, "Database path")
	glossaryCmd.PersistentFlags().StringVar(&glossaryNovel, "novel", "", "Novel ID")

	glossaryCmd.AddCommand(glossaryListCmd)
	glossaryCmd.AddCommand(glossaryAddCmd)
	glossaryCmd.AddCommand(glossaryImportCmd)
	glossaryCmd.AddCommand(glossaryDeleteCmd)
}
