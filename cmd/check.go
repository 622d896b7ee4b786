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
	"time"

	"github.com/spf13/cobra"

	"github.com/Nabeelshar/n85ylvh9-auto/internal/chapter"
	"github.com/Nabeelshar/n85ylvh9-auto/internal/glossary"
)

var skipSample bool

const sampleDescription = `<div class="describe-html">
<p>这是一部修真小说，讲述了主人公林羽的修仙之路。</p>
<p>从一个普通的少年，一步步成长为强大的修士。</p>
</div>`

const sampleChapter = `林羽站在青云宗的山门前，看着眼前的一切。
他刚刚突破到筑基期，感受到体内澎湃的灵气。
"终于成功了！"他心中激动不已。`

var sampleGlossary = map[string]string{
	"林羽":  "Lin Yu",
	"青云宗": "Azure Cloud Sect",
	"筑基期": "Foundation Establishment",
	"灵气":  "Spiritual Energy",
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check backend connectivity and run a sample translation",
	Long: `Probe every configured backend, then translate a sample description and a
sample chapter with a small glossary to verify the whole pipeline.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg.LogLevel)
		ctx := cmd.Context()

		backend, cleanup, err := buildBackend(ctx, cfg, logFunc(logger, "backend"))
		if err != nil {
			return err
		}
		defer cleanup()

		fmt.Println("Backends:")
		reachable := 0
		for _, p := range backend.Probe(ctx) {
			if p.Err != nil {
				fmt.Printf("  ✗ %s: %v\n", p.Service, p.Err)
				continue
			}
			reachable++
			fmt.Printf("  ✓ %s (%s)\n", p.Service, p.Latency.Round(time.Millisecond))
		}
		if reachable == 0 {
			return fmt.Errorf("no backend is reachable")
		}
		if skipSample {
			return nil
		}

		g, err := glossary.New(sampleGlossary)
		if err != nil {
			return err
		}
		tr, err := chapter.New(backend, chapter.Options{
			SourceLang: "zh",
			TargetLang: cfg.Translation.TargetLang,
			Log:        logFunc(logger, "chapter"),
		})
		if err != nil {
			return err
		}

		fmt.Println("\nDescription:")
		fmt.Println(tr.TranslateDescription(ctx, sampleDescription, g))

		res, err := tr.TranslateChapter(ctx, sampleChapter, 1, g)
		if err != nil {
			return err
		}
		fmt.Println("\nChapter:")
		if !res.Success {
			return fmt.Errorf("sample chapter failed: %s", res.FailureReason)
		}
		fmt.Println(res.TranslatedText)
		for _, v := range res.Violations() {
			fmt.Printf("  violation: %s -> %s (repaired: %v)\n", v.Term, v.Expected, v.Repaired)
		}
		fmt.Println("\nAll checks passed.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&skipSample, "skip-sample", false, "Only probe backends")
}
