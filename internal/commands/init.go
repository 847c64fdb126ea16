package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bankfeed-dev/bankfeed/internal/classify"
	"github.com/bankfeed-dev/bankfeed/internal/config"
	"github.com/bankfeed-dev/bankfeed/internal/gitops"
)

func newInitCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new bankfeed workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, name)
		},
	}

	cmd.Flags().StringVar(&name, "name", "household", "workspace name")

	return cmd
}

func runInit(cmd *cobra.Command, dir, name string) error {
	dirs := []string{
		"rules",
		"logs",
		"data",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfg := config.Default(name)
	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Seed the editable rule table with the built-in defaults.
	if err := classify.SaveRules(filepath.Join(dir, cfg.Project.RulesFile), classify.DefaultRules()); err != nil {
		return fmt.Errorf("writing rules: %w", err)
	}

	gitignore := ".env\nexports/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	if cfg.Git.AutoCommit {
		if err := gitops.Init(dir); err != nil {
			return fmt.Errorf("git init: %w", err)
		}
		hash, err := gitops.CommitAll(dir, "init: "+name, cfg.Git.AuthorName, cfg.Git.AuthorEmail)
		if err != nil {
			return fmt.Errorf("initial commit: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Initialized bankfeed workspace at %s (%s)\n", dir, hash)
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized bankfeed workspace at %s\n", dir)
	return nil
}
