// Package cli implements the command-line interface for gemsync.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mjardine/gemsync/internal/config"
	"github.com/mjardine/gemsync/internal/shopify"
	"github.com/mjardine/gemsync/internal/store"
	"github.com/mjardine/gemsync/internal/warranty"
)

var configPath string

// cmdContext holds common resources for CLI commands
type cmdContext struct {
	Config *config.Config
	Store  *store.Store
	Source warranty.Source
	Client shopify.Client
}

// Close releases resources held by cmdContext
func (c *cmdContext) Close() {
	if c.Store != nil {
		c.Store.Close()
	}
	if db, ok := c.Source.(*warranty.DB); ok && db != nil {
		db.Close()
	}
}

// initContext initializes config and the local results store.
func initContext() *cmdContext {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitError("%v", err)
	}

	st, err := store.New(cfg.ResultsDB)
	if err != nil {
		exitError("failed to open results store: %v", err)
	}
	if err := st.Initialize(); err != nil {
		st.Close()
		exitError("failed to initialize results store: %v", err)
	}

	return &cmdContext{Config: cfg, Store: st}
}

// initSourceContext additionally connects to the warranty database.
func initSourceContext() *cmdContext {
	c := initContext()

	if c.Config.Database.DSN == "" {
		c.Close()
		exitError("warranty database DSN not configured (set GEMSYNC_DB_DSN or [database] dsn)")
	}
	db, err := warranty.Open(c.Config.Database.DSN)
	if err != nil {
		c.Close()
		exitError("failed to connect to warranty database: %v", err)
	}
	c.Source = db

	return c
}

// initFullContext additionally builds the rate-limited platform client.
func initFullContext() *cmdContext {
	c := initSourceContext()

	sc := c.Config.Shopify
	if sc.ShopDomain == "" || sc.AccessToken == "" {
		c.Close()
		exitError("platform credentials not configured (set SHOPIFY_SHOP_DOMAIN and SHOPIFY_ACCESS_TOKEN)")
	}

	pc := c.Config.Processing
	limiter := shopify.NewLimiter(pc.RateLimitPerSecond, pc.RateLimitBurst)
	inner := shopify.NewHTTPClient(sc.ShopDomain, sc.AccessToken, sc.APIVersion, sc.Timeout())
	inner.SetLogger(c.Config.NewLogger())
	c.Client = shopify.NewRetryClient(inner, &shopify.RetryConfig{
		MaxRetries:     pc.MaxRetries,
		InitialBackoff: pc.RetryDelay(),
		MaxBackoff:     30 * time.Second,
		JitterFraction: 0.25,
	}, limiter)

	return c
}

var rootCmd = &cobra.Command{
	Use:   "gemsync",
	Short: "Jewelry catalog synchronization",
	Long: `gemsync synchronizes jewelry SKU groups from the warranty database
into the catalog platform. Each group becomes one product whose
options and variants are derived from the attributes that vary
across its SKUs; unchanged groups are detected by fingerprint and
skipped.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path")
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(groupsCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(versionCmd)
}

// exitError prints an error and exits
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

// shortID returns first 8 characters of an ID
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
