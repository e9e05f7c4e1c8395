// file: cmd/root.go
// version: 2.1.0
// guid: 6a7b8c9d-0e1f-2a3b-4c5d-6e7f8a9b0c1d

package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jdfalk/listings-engine/internal/backend"
	"github.com/jdfalk/listings-engine/internal/collection"
	"github.com/jdfalk/listings-engine/internal/config"
	"github.com/jdfalk/listings-engine/internal/metrics"
	"github.com/jdfalk/listings-engine/internal/realtime"
	"github.com/jdfalk/listings-engine/internal/search"
	"github.com/jdfalk/listings-engine/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string
var collectionPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "listings-engine",
	Short: "Search a business directory with fuzzy matching",
	Long: `Listings Engine loads a directory of business listings and categories
and answers incremental searches against it.

Exact matches are backfilled with trigram similarity suggestions, and
category labels are ranked by how closely they match what was typed.`,
	SilenceUsage: true,
}

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the search API server",
	Long:  `Start the HTTP server exposing search, category and listing endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.AppConfig.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if !strings.EqualFold(config.AppConfig.LogLevel, "debug") {
			gin.SetMode(gin.ReleaseMode)
		}

		// Initialize real-time event hub
		realtime.InitializeEventHub()
		fmt.Println("Real-time event hub initialized")

		repo, release, err := openCollection()
		if err != nil {
			return err
		}
		defer release()

		// Load in the background; requests wait for it
		go func() {
			_ = repo.Load(context.Background())
		}()

		engine := newEngine(repo)
		cfg := serverConfig(cmd)
		srv := server.NewServer(engine, repo, cfg)

		fmt.Printf("Serving collection: %s\n", config.AppConfig.CollectionPath)
		return srv.Start(cfg)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/"+config.ConfigFileName+")")
	rootCmd.PersistentFlags().StringVar(&collectionPath, "collection", "", "path to the listings collection (JSON or YAML)")
	rootCmd.PersistentFlags().String("category-source", config.CategorySourceLocal, "category suggestions: local or remote")
	rootCmd.PersistentFlags().Int("threshold", 3, "exact match count below which suggestions are fetched")

	viper.BindPFlag("collection_path", rootCmd.PersistentFlags().Lookup("collection"))
	viper.BindPFlag("category_source", rootCmd.PersistentFlags().Lookup("category-source"))
	viper.BindPFlag("match_threshold", rootCmd.PersistentFlags().Lookup("threshold"))

	rootCmd.AddCommand(serveCmd)

	// Add serve command specific flags
	serveCmd.Flags().String("port", "", "port to run the server on (default from config)")
	serveCmd.Flags().String("host", "", "host to bind the server to (default from config)")
	serveCmd.Flags().String("read-timeout", "15s", "read timeout (e.g. 15s, 1m)")
	serveCmd.Flags().String("write-timeout", "15s", "write timeout (e.g. 15s, 1m)")
	serveCmd.Flags().String("idle-timeout", "60s", "idle timeout (e.g. 60s, 2m)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(strings.TrimSuffix(config.ConfigFileName, ".yaml"))
	}

	viper.SetEnvPrefix("LISTINGS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	config.InitConfig()
}

// openCollection acquires the shared repository for the configured
// collection file and publishes its stats once it has loaded.
func openCollection() (*collection.Repository, func(), error) {
	if config.AppConfig.CollectionPath == "" {
		return nil, nil, fmt.Errorf("collection path not specified (use --collection or collection_path)")
	}

	repo := collection.Acquire(collection.NewFileProvider(config.AppConfig.CollectionPath))
	repo.OnLoaded(func(st collection.Stats) {
		metrics.SetListings(st.Listings)
		metrics.SetCategories(st.Categories)
		if realtime.GlobalHub != nil {
			realtime.GlobalHub.SendCollectionLoaded(st.Listings, st.Categories, st.Tags, st.Error)
		}
	})
	return repo, collection.Release, nil
}

// newEngine builds a search engine over repo from AppConfig
func newEngine(repo *collection.Repository) *search.Engine {
	cfg := config.AppConfig
	local := backend.NewLocal(repo, cfg.SimilarityThreshold, cfg.BackendCacheTTL)
	// Drop anything memoized before the load finished
	repo.OnLoaded(func(collection.Stats) { local.Reset() })
	return search.NewEngine(local, repo, search.Options{
		Threshold:             cfg.MatchThreshold,
		MinQueryLength:        cfg.MinQueryLength,
		FetchLimit:            cfg.SuggestionFetchLimit,
		FetchLimitWithMatches: cfg.SuggestionFetchLimitWithMatches,
		CategorySource:        cfg.CategorySource,
		CategoryLimit:         cfg.CategoryLimit,
	})
}

// serverConfig merges AppConfig with serve command flags
func serverConfig(cmd *cobra.Command) server.ServerConfig {
	cfg := server.ServerConfig{
		Host:               config.AppConfig.Host,
		Port:               strconv.Itoa(config.AppConfig.Port),
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       15 * time.Second,
		IdleTimeout:        60 * time.Second,
		RateLimitPerMinute: config.AppConfig.RateLimitPerMinute,
		RateLimitBurst:     config.AppConfig.RateLimitBurst,
	}

	// Override with command line flags if provided
	if port := cmd.Flag("port").Value.String(); port != "" {
		cfg.Port = port
	}
	if host := cmd.Flag("host").Value.String(); host != "" {
		cfg.Host = host
	}
	if rt := cmd.Flag("read-timeout").Value.String(); rt != "" {
		if d, err := time.ParseDuration(rt); err == nil {
			cfg.ReadTimeout = d
		}
	}
	if wt := cmd.Flag("write-timeout").Value.String(); wt != "" {
		if d, err := time.ParseDuration(wt); err == nil {
			cfg.WriteTimeout = d
		}
	}
	if it := cmd.Flag("idle-timeout").Value.String(); it != "" {
		if d, err := time.ParseDuration(it); err == nil {
			cfg.IdleTimeout = d
		}
	}
	return cfg
}
