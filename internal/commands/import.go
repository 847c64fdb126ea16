package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/bankfeed-dev/bankfeed/internal/categorizer"
	"github.com/bankfeed-dev/bankfeed/internal/classify"
	"github.com/bankfeed-dev/bankfeed/internal/config"
	"github.com/bankfeed-dev/bankfeed/internal/gitops"
	"github.com/bankfeed-dev/bankfeed/internal/ingest"
	"github.com/bankfeed-dev/bankfeed/internal/logger"
	"github.com/bankfeed-dev/bankfeed/internal/runlog"
	"github.com/bankfeed-dev/bankfeed/internal/store"
)

func newImportCommand() *cobra.Command {
	var dir string
	var noCategorize bool

	cmd := &cobra.Command{
		Use:   "import [file...]",
		Short: "Import and classify bank CSV files",
		Long:  "Import the given CSV files, or with no arguments every *.csv waiting in import/.",
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runImport(cmd, absDir, args, noCategorize)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "workspace directory")
	cmd.Flags().BoolVar(&noCategorize, "no-categorize", false, "skip the model categorization pass")

	return cmd
}

func runImport(cmd *cobra.Command, dir string, paths []string, noCategorize bool) error {
	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	if err != nil {
		return fmt.Errorf("loading %s (run 'bankfeed init' first): %w", config.FileName, err)
	}

	log := logger.New()
	ctx := logger.WithContext(cmd.Context(), log)

	svc := ingest.NewService(store.NewCSVStore(dir))
	svc.BankHint = cfg.Parsing.BankHint
	svc.Dates.DayFirst = cfg.Parsing.DayFirst
	svc.Detector.Window = time.Duration(cfg.Reversals.WindowDays) * 24 * time.Hour
	svc.Detector.SimilarityThreshold = cfg.Reversals.SimilarityThreshold

	rulesPath := filepath.Join(dir, cfg.Project.RulesFile)
	if rules, err := classify.LoadRules(rulesPath); err == nil {
		svc.Classifier = classify.New(rules)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading rules: %w", err)
	}

	if cfg.Categorizer.Enabled && !noCategorize {
		if hasModelKey() {
			client, err := categorizer.NewGeminiClient(ctx, cfg.Categorizer.Model)
			if err != nil {
				return fmt.Errorf("creating categorizer: %w", err)
			}
			engine := categorizer.NewEngine(client)
			engine.BatchSize = cfg.Categorizer.BatchSize
			engine.BatchDelay = time.Duration(cfg.Categorizer.BatchDelaySeconds) * time.Second
			engine.RetryDelay = time.Duration(cfg.Categorizer.RetryDelaySeconds) * time.Second
			engine.ConfidenceThreshold = cfg.Categorizer.ConfidenceThreshold
			svc.Refiner = engine
		} else {
			log.Warn().Msg("no GEMINI_API_KEY set, skipping model categorization")
		}
	}

	// Explicit file arguments bypass the inbox scan and stay where they are.
	fromInbox := len(paths) == 0
	var files []ingest.FileInfo
	if fromInbox {
		if files, err = ingest.Scan(dir); err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No CSV files found in import/")
			return nil
		}
	} else {
		for _, p := range paths {
			abs, err := filepath.Abs(p)
			if err != nil {
				return fmt.Errorf("resolving %s: %w", p, err)
			}
			info, err := os.Stat(abs)
			if err != nil {
				return fmt.Errorf("stat %s: %w", p, err)
			}
			files = append(files, ingest.FileInfo{Name: filepath.Base(abs), Path: abs, Size: info.Size()})
		}
	}

	batch, err := svc.Run(ctx, files)
	if err != nil {
		return err
	}

	var entries []runlog.Entry
	for _, fr := range batch.Files {
		if fr.Err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s: FAILED (%v)\n", fr.File, fr.Err)
			continue
		}
		entries = append(entries, runlog.Entry{
			Timestamp:  time.Now().UTC(),
			BatchID:    batch.BatchID,
			File:       fr.File,
			Parsed:     fr.Parsed,
			Imported:   fr.Imported,
			Duplicates: fr.Duplicates,
			Skipped:    fr.Skipped,
			Warnings:   len(fr.Warnings),
		})
		if fromInbox {
			if err := ingest.MarkProcessed(dir, fr.File); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d imported, %d duplicates, %d warnings\n",
			fr.File, fr.Imported, fr.Duplicates, len(fr.Warnings))
	}
	if len(entries) > 0 {
		if err := runlog.Append(dir, entries); err != nil {
			return fmt.Errorf("writing import log: %w", err)
		}
	}

	if cfg.Git.AutoCommit && gitops.IsRepo(dir) {
		msg := fmt.Sprintf("import: batch %s (%d transactions)", batch.BatchID, len(batch.Imported))
		if _, err := gitops.CommitAll(dir, msg, cfg.Git.AuthorName, cfg.Git.AuthorEmail); err != nil {
			return fmt.Errorf("committing import: %w", err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d transactions (%d duplicates, %d reversal pairs)\n",
		len(batch.Imported), len(batch.Duplicates), len(batch.Pairs))
	return nil
}

func hasModelKey() bool {
	return os.Getenv("GEMINI_API_KEY") != "" || os.Getenv("GOOGLE_API_KEY") != ""
}
