package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/bnema/ublock-webkit-cosmetics/internal/channel"
	"github.com/bnema/ublock-webkit-cosmetics/internal/dom"
	"github.com/bnema/ublock-webkit-cosmetics/internal/fetcher"
	"github.com/bnema/ublock-webkit-cosmetics/internal/filterer"
	"github.com/bnema/ublock-webkit-cosmetics/internal/mlog"
	"github.com/bnema/ublock-webkit-cosmetics/internal/models"
	"github.com/bnema/ublock-webkit-cosmetics/internal/parser"
	"github.com/bnema/ublock-webkit-cosmetics/internal/stylesheet"
)

var (
	cfgFile string
	cfg     models.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ublock-webkit-cosmetics",
	Short: "Inject compiled cosmetic filters into a page as a user stylesheet",
	Long: `A tool that runs compiled cosmetic rules through the cosmetic filterer,
batches them into a single user stylesheet and reports what they hide.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		return mlog.Configure(cfg.Log.Level, cfg.Log.JSON)
	},
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a rules file to a page and print the resulting stylesheet",
	RunE:  runApply,
}

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Count the page elements hidden by a rules file",
	RunE:  runCount,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	RunE:  runInit,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./configs/cosmetics.toml)")

	for _, c := range []*cobra.Command{applyCmd, countCmd} {
		c.Flags().StringP("rules", "r", "", "compiled cosmetic rules file")
		c.Flags().StringP("page", "p", "", "HTML page file")
		c.Flags().StringP("url", "u", "", "fetch the page from this URL instead")
		c.Flags().StringSlice("hide-id", nil, "hide elements by id through the hide-marker attribute")
		c.Flags().StringSlice("exclude-id", nil, "exclude elements by id from hiding")
		_ = c.MarkFlagRequired("rules")
	}

	applyCmd.Flags().StringP("output", "o", "", "write the stylesheet to this file instead of stdout")
	applyCmd.Flags().Bool("disabled", false, "toggle the filterset off after applying it")
	applyCmd.Flags().Bool("verbose", false, "verbose output")

	rootCmd.AddCommand(applyCmd, countCmd, initCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("cosmetics")
		viper.SetConfigType("toml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
	}

	// Set defaults
	viper.SetDefault("filterer.hide_node_attr", "data-ubw-hide")
	viper.SetDefault("filterer.commit_delay", "16ms")
	viper.SetDefault("http.timeout", "30s")
	viper.SetDefault("http.retries", 3)
	viper.SetDefault("log.level", "warn")
	viper.SetDefault("log.json", false)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing config: %v\n", err)
	}
}

// session is one filterer wired to an in-process stylesheet host
type session struct {
	doc      *dom.Document
	sheet    *channel.Sheet
	batch    *stylesheet.Batch
	filterer *filterer.Filterer
	registry *prometheus.Registry
	stats    parser.Stats
}

func newSession(cmd *cobra.Command) (*session, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rulesPath, _ := cmd.Flags().GetString("rules")
	pagePath, _ := cmd.Flags().GetString("page")
	pageURL, _ := cmd.Flags().GetString("url")

	doc, err := loadDocument(ctx, pagePath, pageURL)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(rulesPath)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	p := parser.New()
	filters, err := p.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}

	logger := mlog.L()
	s := &session{
		doc:      doc,
		sheet:    channel.NewSheet(logger),
		registry: prometheus.NewRegistry(),
		stats:    p.Stats(),
	}
	s.batch = stylesheet.New(ctx, s.sheet, stylesheet.Opt{Logger: logger})
	if err := s.batch.RegisterMetricsTo(s.registry); err != nil {
		return nil, fmt.Errorf("failed to register metrics, %w", err)
	}
	s.filterer = filterer.New(ctx, s.batch, filterer.Options{
		HideNodeAttr: cfg.Filterer.HideNodeAttr,
		Document:     doc,
		CommitDelay:  cfg.Filterer.CommitDelay,
		Logger:       logger,
	})
	s.filterer.AddListener(&changeLogger{logger: logger})

	for _, f := range filters {
		switch f.Type {
		case models.FilterTypeCosmetic:
			s.filterer.AddCSSRule([]string{f.Selector}, f.Declarations, models.RuleOptions{Lazy: f.Lazy})
		case models.FilterTypeCosmeticException:
			s.filterer.ExceptCSSRules([]models.Exception{models.Exception(f.Selector)})
		}
	}

	excludeIDs, _ := cmd.Flags().GetStringSlice("exclude-id")
	hideIDs, _ := cmd.Flags().GetStringSlice("hide-id")
	for _, id := range excludeIDs {
		if n := doc.ElementByID(id); n != nil {
			s.filterer.ExcludeNode(n)
		}
	}
	for _, id := range hideIDs {
		if n := doc.ElementByID(id); n != nil {
			s.filterer.HideNode(n)
		}
	}

	s.filterer.Commit(true)
	s.batch.Wait()
	return s, nil
}

func loadDocument(ctx context.Context, pagePath, pageURL string) (*dom.Document, error) {
	switch {
	case pageURL != "":
		return fetcher.New(cfg.HTTP).Document(ctx, pageURL)
	case pagePath != "":
		f, err := os.Open(pagePath)
		if err != nil {
			return nil, fmt.Errorf("open page: %w", err)
		}
		defer f.Close()
		return dom.Parse(f)
	}
	return nil, fmt.Errorf("one of --page or --url is required")
}

func runApply(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")
	disabled, _ := cmd.Flags().GetBool("disabled")
	verbose, _ := cmd.Flags().GetBool("verbose")

	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	if disabled {
		s.filterer.Toggle(false, nil)
		s.batch.Wait()
	}

	text := s.sheet.Text()
	if outputPath != "" {
		if err := writeFile(outputPath, text+"\n"); err != nil {
			return err
		}
		fmt.Printf("Wrote stylesheet: %s\n", outputPath)
	} else if text != "" {
		fmt.Println(text)
	}

	snapshot := s.filterer.GetAllSelectors(false)
	fmt.Printf("\nRules: %d (declarative: %d, exceptions: %d)\n",
		s.filterer.Len(), len(snapshot.Declarative), len(snapshot.Exceptions))
	fmt.Printf("Filtered elements: %d\n", s.filterer.GetFilteredElementCount())

	if verbose {
		fmt.Printf("\nParsed: %d total, %d cosmetic (%d lazy), %d exceptions, %d comments\n",
			s.stats.Total, s.stats.Cosmetic, s.stats.Lazy, s.stats.Exception, s.stats.Comments)
		for reason, count := range s.stats.SkipReasons {
			fmt.Printf("  - %s: %d\n", reason, count)
		}
		sheetStats := s.sheet.Stats()
		fmt.Printf("Sheet: %d sends, %d added, %d removed, %d rejected\n",
			sheetStats.Sends, sheetStats.Added, sheetStats.Removed, sheetStats.Rejected)
		if err := printMetrics(s.registry); err != nil {
			return err
		}
	}
	return nil
}

func runCount(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	fmt.Println(s.filterer.GetFilteredElementCount())
	return nil
}

func printMetrics(reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	fmt.Println("Metrics:")
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fmt.Printf("  %s: %v\n", mf.GetName(), m.GetCounter().GetValue())
		}
	}
	return nil
}

// changeLogger logs filterset changes
type changeLogger struct {
	logger *zap.Logger
}

func (l *changeLogger) OnFilteringChanged(c models.Change) {
	for _, d := range c.Declarative {
		l.logger.Debug("rule added",
			zap.String("selectors", strings.ReplaceAll(d.Selectors(), "\n", " ")),
			zap.String("declarations", d.Declarations()))
	}
	for _, e := range c.Exceptions {
		l.logger.Debug("rule excepted", zap.String("exception", string(e)))
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := "./configs/cosmetics.toml"
	if cfgFile != "" {
		configPath = cfgFile
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	defaultConfig := `# uBlock WebKit cosmetics configuration

# Cosmetic filterer settings
[filterer]
# attribute used to hide single nodes; empty disables node hiding
hide_node_attr = "data-ubw-hide"
# delay between a rule change and its commit
commit_delay = "16ms"

# HTTP client settings (used with --url)
[http]
timeout = "30s"
retries = 3

# Logging
[log]
level = "warn"
json = false
`

	if err := writeFile(configPath, defaultConfig); err != nil {
		return err
	}

	fmt.Printf("Created config file: %s\n", configPath)
	return nil
}

func writeFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(content), 0644)
}
