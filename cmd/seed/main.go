// Command seed loads a JSON or YAML question bank file into storage, the
// one concrete driver of the admin.QuestionCurator contract in this
// repository (the HTTP admin panel itself is out of scope).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/admin"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/config"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/logger"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/models"
	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/storage"
	pkgstorage "github.com/AlexeyPetrochenko/kts-tg-bot-game/pkg/storage"
)

var bankPath string

// storageCurator adapts a storage.Store into admin.QuestionCurator.
type storageCurator struct {
	store pkgstorage.Store
}

func (c storageCurator) AddQuestion(ctx context.Context, question, answer string) (*models.Question, error) {
	return c.store.CreateQuestion(ctx, question, answer)
}

func (c storageCurator) ListQuestions(ctx context.Context) ([]*models.Question, error) {
	return c.store.ListQuestions(ctx)
}

func (c storageCurator) DeleteQuestion(ctx context.Context, questionID int64) error {
	return c.store.DeleteQuestion(ctx, questionID)
}

var _ admin.QuestionCurator = storageCurator{}

// bankEntry is one row of the seed file's question list, in either JSON or
// YAML form.
type bankEntry struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

// parseBank decodes raw according to path's extension: .yaml/.yml as YAML,
// anything else as JSON.
func parseBank(path string, raw []byte) ([]bankEntry, error) {
	var entries []bankEntry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("failed to parse YAML bank file %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("failed to parse JSON bank file %s: %w", path, err)
		}
	}
	return entries, nil
}

func main() {
	root := &cobra.Command{
		Use:   "seed",
		Short: "Loads a JSON or YAML question bank file into storage",
		RunE:  run,
	}
	root.Flags().StringVar(&bankPath, "bank", "", "path to a JSON or YAML question bank file (required)")
	_ = root.MarkFlagRequired("bank")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	env := os.Getenv("ENV")
	cfg, err := config.Load(config.Path(env))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.Setup(env, os.Getenv("LOG_LEVEL"))

	ctx := context.Background()
	store, err := storage.New(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}
	defer store.Close()

	raw, err := os.ReadFile(bankPath)
	if err != nil {
		return fmt.Errorf("failed to read bank file %s: %w", bankPath, err)
	}

	entries, err := parseBank(bankPath, raw)
	if err != nil {
		return err
	}

	curator := storageCurator{store: store}
	loaded := 0
	for _, e := range entries {
		if e.Question == "" || e.Answer == "" {
			log.Warn("skipping incomplete bank entry", "question", e.Question)
			continue
		}
		if _, err := curator.AddQuestion(ctx, e.Question, e.Answer); err != nil {
			log.Error("failed to add question", "question", e.Question, "error", err)
			continue
		}
		loaded++
	}

	log.Info("question bank loaded", "entries", len(entries), "loaded", loaded)
	return nil
}
