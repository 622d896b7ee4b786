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
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Nabeelshar/n85ylvh9-auto/internal/chapter"
	"github.com/Nabeelshar/n85ylvh9-auto/internal/config"
	"github.com/Nabeelshar/n85ylvh9-auto/internal/detector"
	"github.com/Nabeelshar/n85ylvh9-auto/internal/glossary"
	"github.com/Nabeelshar/n85ylvh9-auto/internal/markdown"
	"github.com/Nabeelshar/n85ylvh9-auto/internal/refiner"
	"github.com/Nabeelshar/n85ylvh9-auto/internal/store"
	"github.com/Nabeelshar/n85ylvh9-auto/internal/validator"
)

var (
	inputFiles   []string
	outputFile   string
	outputDir    string
	sourceLang   string
	targetLang   string
	novelID      string
	glossaryFile string

	chapterNumber int
	outputFormat  string
	parallel      int
	noCache       bool
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate chapters or descriptions",
	Long: `Translate web novel content through the configured backend chain.

Glossary terms come from --glossary (JSON, YAML or CSV) or, when omitted,
from the stored glossary of --novel.`,
}

var translateChapterCmd = &cobra.Command{
	Use:   "chapter",
	Short: "Translate one or more chapters",
	Long: `Translate chapters chunk by chunk. Input files are numbered consecutively
starting at --chapter.

A chapter that fails is not written to its output file; whatever was
translated before the failure goes to <output>.partial instead. Rerunning
reuses chunks already in the translation memory.

Example:
  novelsync translate chapter -i ch12.txt -i ch13.txt --novel nine-suns --chapter 12 --out-dir out/`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if chapterNumber < 1 {
			return fmt.Errorf("--chapter must be at least 1")
		}
		if outputFormat != "text" && outputFormat != "html" {
			return fmt.Errorf("--format must be text or html")
		}
		if outputFile != "" && len(inputFiles) > 1 {
			return fmt.Errorf("--output takes a single input; use --out-dir for several chapters")
		}

		env, err := newTranslateEnv()
		if err != nil {
			return err
		}
		defer env.close()

		texts := make([]string, len(inputFiles))
		for i, path := range inputFiles {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read input file: %w", err)
			}
			texts[i] = string(data)
		}
		if err := env.init(cmd.Context(), texts[0]); err != nil {
			return err
		}

		jobs := make([]chapter.Job, len(texts))
		for i, text := range texts {
			jobs[i] = chapter.Job{ChapterNumber: chapterNumber + i, Text: text}
		}

		results, err := env.translator.TranslateBatch(cmd.Context(), jobs, env.glossary, parallel)
		if err != nil {
			return err
		}

		failed := 0
		for i, res := range results {
			if res == nil {
				continue
			}
			if env.db != nil && novelID != "" {
				if _, err := env.db.SaveRun(context.WithoutCancel(cmd.Context()), novelID, res); err != nil {
					env.logger.Warn("failed to record run", "chapter", res.ChapterNumber, "error", err)
				}
			}
			out := chapterOutputPath(inputFiles[i], res.ChapterNumber, env.cfg.Translation.TargetLang)
			if err := writeChapter(out, res); err != nil {
				return err
			}
			if !res.Success {
				failed++
				fmt.Printf("Chapter %d FAILED: %s\n", res.ChapterNumber, res.FailureReason)
				continue
			}
			fmt.Printf("Chapter %d translated -> %s (%d chunk(s), %d violation(s))\n",
				res.ChapterNumber, out, len(res.Units), len(res.Violations()))
			for _, v := range res.Violations() {
				status := "unrepaired"
				if v.Repaired {
					status = "repaired from " + v.Found
				}
				fmt.Printf("  %s -> %s: %s\n", v.Term, v.Expected, status)
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d chapter(s) failed", failed, len(results))
		}
		return nil
	},
}

var translateDescriptionCmd = &cobra.Command{
	Use:   "description",
	Short: "Translate a novel description, keeping its HTML markup",
	Long: `Translate a short HTML description in a single call. On any failure the
original description is written unchanged so publication is never blocked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(inputFiles) != 1 {
			return fmt.Errorf("description takes exactly one --input file")
		}
		data, err := os.ReadFile(inputFiles[0])
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}

		env, err := newTranslateEnv()
		if err != nil {
			return err
		}
		defer env.close()
		if err := env.init(cmd.Context(), markdown.StripHTMLTags(string(data))); err != nil {
			return err
		}

		translated := env.translator.TranslateDescription(cmd.Context(), string(data), env.glossary)

		out := outputFile
		if out == "" {
			fmt.Println(translated)
			return nil
		}
		if err := writeFile(out, translated); err != nil {
			return err
		}
		fmt.Printf("Description translated -> %s\n", out)
		return nil
	},
}

// translateEnv holds what both translate subcommands share.
type translateEnv struct {
	cfg        *config.Config
	logger     *slog.Logger
	db         *store.Store
	cleanup    func()
	translator *chapter.Translator
	glossary   *glossary.Glossary
}

func newTranslateEnv() (*translateEnv, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if sourceLang != "" {
		cfg.Translation.SourceLang = sourceLang
	}
	if targetLang != "" {
		cfg.Translation.TargetLang = targetLang
	}
	if noCache {
		cfg.Store.Disabled = true
	}
	return &translateEnv{cfg: cfg, logger: newLogger(cfg.LogLevel)}, nil
}

// init resolves the source language from sample, then opens the store,
// loads the glossary and builds the chapter translator.
func (e *translateEnv) init(ctx context.Context, sample string) error {
	tc := e.cfg.Translation

	if tc.SourceLang == "" || tc.SourceLang == "auto" {
		if detected, ok := detector.New().DetectISO(sample); ok {
			tc.SourceLang = detected
			e.logger.Info("detected source language", "lang", detected)
		} else {
			tc.SourceLang = ""
		}
	}

	db, err := openStore(e.cfg)
	if err != nil {
		return err
	}
	e.db = db

	g, err := resolveGlossary(ctx, db, novelID, glossaryFile)
	if err != nil {
		return fmt.Errorf("failed to load glossary: %w", err)
	}
	e.glossary = g
	e.logger.Info("glossary loaded", "novel", novelID, "terms", g.Len())

	backend, cleanup, err := buildBackend(ctx, e.cfg, logFunc(e.logger, "backend"))
	if err != nil {
		return err
	}
	e.cleanup = cleanup

	opts := chapter.Options{
		SourceLang:   tc.SourceLang,
		TargetLang:   tc.TargetLang,
		ChunkBudget:  tc.ChunkBudget,
		ContextWords: tc.ContextWords,
		Log:          logFunc(e.logger, "chapter"),
	}
	if db != nil {
		opts.Cache = db
	}
	if tc.ValidateOutput {
		opts.Validator = validator.New(tc.SourceLang, tc.TargetLang)
	}
	if tc.Refine {
		opts.Refiner = refiner.NewOllamaRefiner(tc.RefinerModel, tc.RefinerURL)
	}

	e.translator, err = chapter.New(backend, opts)
	return err
}

func (e *translateEnv) close() {
	if e.cleanup != nil {
		e.cleanup()
	}
	if e.db != nil {
		e.db.Close()
	}
}

func chapterOutputPath(input string, number int, target string) string {
	if outputFile != "" {
		return outputFile
	}
	ext := ".txt"
	if outputFormat == "html" {
		ext = ".html"
	}
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if name == "" {
		name = fmt.Sprintf("chapter-%d", number)
	}
	dir := outputDir
	if dir == "" {
		dir = filepath.Dir(input)
		name += "." + target
	}
	return filepath.Join(dir, name+ext)
}

// writeChapter publishes a successful chapter to path. A failed chapter is
// never written there; its partial text goes to path.partial for review.
func writeChapter(path string, res *chapter.Result) error {
	if !res.Success {
		if res.TranslatedText == "" {
			return nil
		}
		return writeFile(path+".partial", res.TranslatedText)
	}

	content := res.TranslatedText
	if outputFormat == "html" {
		content = markdown.ToHTML([]byte(content))
	}
	return writeFile(path, content)
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(translateCmd)
	translateCmd.AddCommand(translateChapterCmd)
	translateCmd.AddCommand(translateDescriptionCmd)

	translateCmd.PersistentFlags().StringSliceVarP(&inputFiles, "input", "i", nil, "Input file(s) to translate (required)")
	translateCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "Output file (single input only)")
	translateCmd.PersistentFlags().StringVarP(&sourceLang, "source", "s", "", "Source language code (default from config, \"auto\" detects)")
	translateCmd.PersistentFlags().StringVarP(&targetLang, "target", "t", "", "Target language code (default from config)")
	translateCmd.PersistentFlags().StringVar(&novelID, "novel", "", "Novel ID whose stored glossary is used and under which runs are recorded")
	translateCmd.PersistentFlags().StringVarP(&glossaryFile, "glossary", "g", "", "Glossary file (JSON, YAML or CSV) overriding the stored glossary")
	translateCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Disable the translation memory and run log")
	translateCmd.MarkPersistentFlagRequired("input")

	translateChapterCmd.Flags().IntVarP(&chapterNumber, "chapter", "n", 1, "Chapter number of the first input file")
	translateChapterCmd.Flags().StringVar(&outputDir, "out-dir", "", "Directory for translated chapters (default: next to each input)")
	translateChapterCmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or html")
	translateChapterCmd.Flags().IntVarP(&parallel, "parallel", "p", 1, "Number of chapters translated concurrently")
}
