// file: cmd/search.go
// version: 1.0.0
// guid: 3f9d2b71-6c4e-48a0-b5e2-1a7c8d0f4e96

package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jdfalk/listings-engine/internal/collection"
	"github.com/jdfalk/listings-engine/internal/config"
	"github.com/jdfalk/listings-engine/internal/models"
	"github.com/jdfalk/listings-engine/internal/search"
	"github.com/jdfalk/listings-engine/internal/trigram"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	searchIsland      string
	includeCategories bool
	queriesFile       string
	saveConfig        bool
)

// searchCmd runs one search, or a batch of them, against the collection
var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search listings by business name",
	Long: `Search listings by business name and print the merged result as JSON.

With --queries-file every non-empty line of the file is searched and one
JSON result is printed per line.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validIsland(searchIsland); err != nil {
			return err
		}
		if queriesFile == "" && len(args) == 0 {
			return fmt.Errorf("a query or --queries-file is required")
		}

		repo, release, err := loadCollection(cmd.Context())
		if err != nil {
			return err
		}
		defer release()
		engine := newEngine(repo)

		if queriesFile != "" {
			return runBatchSearch(cmd, engine, queriesFile)
		}

		res := engine.Search(cmd.Context(), search.Request{
			Search:            args[0],
			Island:            searchIsland,
			IncludeCategories: includeCategories,
		})
		if err := writeJSON(cmd.OutOrStdout(), res, true); err != nil {
			return err
		}
		if res.Err != nil {
			return fmt.Errorf("search failed: %w", res.Err)
		}
		return nil
	},
}

// categoriesCmd lists or ranks categories
var categoriesCmd = &cobra.Command{
	Use:   "categories [query]",
	Short: "List categories or rank them against a query",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validIsland(searchIsland); err != nil {
			return err
		}

		repo, release, err := loadCollection(cmd.Context())
		if err != nil {
			return err
		}
		defer release()

		if len(args) == 1 {
			return writeJSON(cmd.OutOrStdout(), repo.SearchCategories(args[0], searchIsland), true)
		}

		out := cmd.OutOrStdout()
		for _, c := range repo.Categories() {
			if c.OnIsland(searchIsland) {
				fmt.Fprintf(out, "%d\t%s\t%d\n", c.ID, c.Label, c.ListingsCount)
			}
		}
		return nil
	},
}

// similarityCmd prints trigram scores for two strings
var similarityCmd = &cobra.Command{
	Use:   "similarity <a> <b>",
	Short: "Print trigram similarity of two strings",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "similarity: %.6f\n", trigram.Similarity(args[0], args[1]))
		fmt.Fprintf(out, "word_similarity: %.6f\n", trigram.WordSimilarity(args[0], args[1]))
		return nil
	},
}

// configCmd prints the effective configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the effective configuration as YAML. With --save it is also
written to the config file so later runs pick it up.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := config.AppConfig.Marshal()
		if err != nil {
			return err
		}
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return err
		}
		if !saveConfig {
			return nil
		}

		path := cfgFile
		if path == "" {
			path = config.ConfigFilePath()
		}
		return config.SaveConfigToFile(path)
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchIsland, "island", "", "restrict to one island ("+strings.Join(models.Islands, ", ")+")")
	searchCmd.Flags().BoolVar(&includeCategories, "include-categories", false, "include category suggestions")
	searchCmd.Flags().StringVar(&queriesFile, "queries-file", "", "search every line of this file")
	categoriesCmd.Flags().StringVar(&searchIsland, "island", "", "restrict to one island")
	configCmd.Flags().BoolVar(&saveConfig, "save", false, "write the configuration to the config file")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(similarityCmd)
	rootCmd.AddCommand(configCmd)
}

// loadCollection acquires the shared repository and waits for it to load
func loadCollection(ctx context.Context) (*collection.Repository, func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}
	repo, release, err := openCollection()
	if err != nil {
		return nil, nil, err
	}
	if err := repo.Load(ctx); err != nil {
		release()
		return nil, nil, err
	}
	return repo, release, nil
}

func runBatchSearch(cmd *cobra.Command, engine *search.Engine, path string) error {
	queries, err := readQueries(path)
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(len(queries),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription("searching"),
		progressbar.OptionShowCount(),
	)

	failures := 0
	out := cmd.OutOrStdout()
	for _, q := range queries {
		res := engine.Search(cmd.Context(), search.Request{
			Search:            q,
			Island:            searchIsland,
			IncludeCategories: includeCategories,
		})
		if res.Err != nil {
			failures++
		}
		if err := writeJSON(out, res, false); err != nil {
			return err
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	fmt.Fprintln(cmd.ErrOrStderr())

	if failures > 0 {
		return fmt.Errorf("%d of %d searches failed", failures, len(queries))
	}
	return nil
}

// readQueries returns the trimmed non-empty lines of path
func readQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open queries file: %w", err)
	}
	defer f.Close()

	var queries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if q := strings.TrimSpace(scanner.Text()); q != "" {
			queries = append(queries, q)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read queries file: %w", err)
	}
	return queries, nil
}

func validIsland(island string) error {
	if island != "" && !models.IsIsland(island) {
		return fmt.Errorf("unknown island %q (want one of %s)", island, strings.Join(models.Islands, ", "))
	}
	return nil
}

func writeJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
