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
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Nabeelshar/n85ylvh9-auto/internal/config"
	"github.com/Nabeelshar/n85ylvh9-auto/internal/glossary"
	"github.com/Nabeelshar/n85ylvh9-auto/internal/orchestrator"
	"github.com/Nabeelshar/n85ylvh9-auto/internal/store"
	"github.com/Nabeelshar/n85ylvh9-auto/internal/translator"
)

const defaultDBPath = "./data/novelsync.db"

// buildService constructs one backend binding from its provider settings.
func buildService(ctx context.Context, p config.ProviderConfig) (translator.Backend, io.Closer, error) {
	switch p.Provider {
	case "gemini":
		svc, err := translator.NewGeminiService(p.APIKey, p.Model)
		return svc, nil, err
	case "openai":
		svc, err := translator.NewOpenAIService(p.APIKey, p.BaseURL, p.Model)
		return svc, nil, err
	case "openrouter":
		svc, err := translator.NewOpenRouterService(p.APIKey, p.BaseURL, p.Model)
		return svc, nil, err
	case "ollama":
		return translator.NewOllamaTranslator(p.BaseURL, p.Model), nil, nil
	case "google":
		svc, err := translator.NewGoogleService(ctx, p.Credentials)
		if err != nil {
			return nil, nil, err
		}
		return svc, svc, nil
	default:
		return nil, nil, fmt.Errorf("unknown provider: %s", p.Provider)
	}
}

// buildBackend wraps the configured provider chain in the retry and fallback
// policy. The returned cleanup closes any client connections.
func buildBackend(ctx context.Context, cfg *config.Config, log func(string)) (*orchestrator.Orchestrator, func(), error) {
	var (
		list    []translator.Backend
		closers []io.Closer
	)
	cleanup := func() {
		for _, c := range closers {
			c.Close()
		}
	}

	for _, p := range cfg.Providers() {
		svc, closer, err := buildService(ctx, p)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to configure %s: %w", p.Provider, err)
		}
		list = append(list, svc)
		if closer != nil {
			closers = append(closers, closer)
		}
	}

	orch := orchestrator.New(list, orchestrator.OrchestratorConfig{
		Timeout:           cfg.Retry.Timeout,
		MaxAttempts:       cfg.Retry.MaxAttempts,
		RetryDelay:        cfg.Retry.RetryDelay,
		RequestsPerMinute: cfg.Retry.RequestsPerMinute,
		Log:               log,
	})
	return orch, cleanup, nil
}

// openStore returns nil when the store is disabled.
func openStore(cfg *config.Config) (*store.Store, error) {
	if cfg.Store.Disabled || cfg.Store.Path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := store.New(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func openStorePath(path string) (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// readGlossaryFile reads glossary entries from a JSON, YAML or CSV file.
// JSON and YAML accept either a source-to-target map or a list of
// {source, target} objects; CSV takes the first two columns of every row.
func readGlossaryFile(path string) ([]glossary.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read glossary file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return parseGlossaryCSV(data)
	case ".yaml", ".yml":
		return parseGlossaryDoc(data, yaml.Unmarshal)
	case ".json":
		return parseGlossaryDoc(data, json.Unmarshal)
	default:
		return nil, fmt.Errorf("unsupported glossary format: %s (use .json, .yaml or .csv)", filepath.Ext(path))
	}
}

func parseGlossaryDoc(data []byte, unmarshal func([]byte, interface{}) error) ([]glossary.Entry, error) {
	var terms map[string]string
	if err := unmarshal(data, &terms); err == nil {
		entries := make([]glossary.Entry, 0, len(terms))
		for src, tgt := range terms {
			entries = append(entries, glossary.Entry{Source: src, Target: tgt})
		}
		return entries, nil
	}

	var entries []glossary.Entry
	if err := unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse glossary: %w", err)
	}
	return entries, nil
}

func parseGlossaryCSV(data []byte) ([]glossary.Entry, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	var entries []glossary.Entry
	for i, row := range records {
		if len(row) < 2 {
			return nil, fmt.Errorf("row %d: expected source and target columns", i+1)
		}
		// Optional header row.
		if i == 0 && strings.EqualFold(strings.TrimSpace(row[0]), "source") {
			continue
		}
		entries = append(entries, glossary.Entry{Source: row[0], Target: row[1]})
	}
	return entries, nil
}

// resolveGlossary prefers an explicit glossary file and otherwise loads the
// novel's stored glossary. Without either the glossary is empty.
func resolveGlossary(ctx context.Context, db *store.Store, novel, file string) (*glossary.Glossary, error) {
	if file != "" {
		entries, err := readGlossaryFile(file)
		if err != nil {
			return nil, err
		}
		return glossary.FromEntries(entries)
	}
	if db != nil && novel != "" {
		return db.LoadGlossary(ctx, novel)
	}
	return glossary.New(nil)
}
