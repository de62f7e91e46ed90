// Package main provides the CLI entrypoint for newstype.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/newstype/internal/articles"
	"github.com/verte-zerg/newstype/internal/config"
	"github.com/verte-zerg/newstype/internal/credential"
	"github.com/verte-zerg/newstype/internal/gateway"
	"github.com/verte-zerg/newstype/internal/model"
	"github.com/verte-zerg/newstype/internal/relay"
	"github.com/verte-zerg/newstype/internal/stats"
	"github.com/verte-zerg/newstype/internal/statsui"
	"github.com/verte-zerg/newstype/internal/store"
	"github.com/verte-zerg/newstype/internal/streak"
	"github.com/verte-zerg/newstype/internal/tui"
	"github.com/verte-zerg/newstype/internal/worldnews"
)

const (
	defaultCategory   = "top"
	defaultCountry    = "us"
	defaultTimeout    = 15 * time.Second
	defaultWeakTop    = 6
	defaultWeakWindow = 20
	defaultCharLimit  = 20
	weakMinSeen       = 10
	weakThreshold     = 0.95
)

var (
	practiceCategory string
	practiceCountry  string
	practiceRelayURL string
	practiceBaseURL  string
	practiceOffline  bool
	practiceTimeout  time.Duration
	practiceWeakTop  int

	statsCategory string
	statsSince    string
	statsLast     int
	statsChars    int
	statsPlain    bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "newstype",
		Short:         "Typing practice on current news articles",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceCategory, "category", defaultCategory, "news category ("+strings.Join(model.Categories, ", ")+")")
	rootCmd.Flags().StringVar(&practiceCountry, "country", defaultCountry, "source country (us, ca)")
	rootCmd.Flags().StringVar(&practiceRelayURL, "relay-url", "", "fetch through a newstype relay at this URL")
	rootCmd.Flags().StringVar(&practiceBaseURL, "base-url", worldnews.DefaultBaseURL, "World News API base URL")
	rootCmd.Flags().BoolVar(&practiceOffline, "offline", false, "use built-in sample articles")
	rootCmd.Flags().DurationVar(&practiceTimeout, "timeout", defaultTimeout, "request timeout")
	rootCmd.Flags().IntVar(&practiceWeakTop, "weak-top", defaultWeakTop, "number of weak keys to tint on the keyboard")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCategoriesCmd())
	rootCmd.AddCommand(newKeyCmd())
	rootCmd.AddCommand(newStreakCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newRelayCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "category", &practiceCategory, fileCfg.Practice.Category)
	applyStringConfig(cmd, "country", &practiceCountry, fileCfg.Practice.Country)
	applyIntConfig(cmd, "weak-top", &practiceWeakTop, fileCfg.Practice.WeakTop)
	applyStringConfig(cmd, "relay-url", &practiceRelayURL, fileCfg.News.RelayURL)
	applyStringConfig(cmd, "base-url", &practiceBaseURL, fileCfg.News.BaseURL)
	applyBoolConfig(cmd, "offline", &practiceOffline, fileCfg.News.Offline)
	applyDurationConfig(cmd, "timeout", &practiceTimeout, fileCfg.News.Timeout)

	cfg := model.Config{
		Category: strings.ToLower(strings.TrimSpace(practiceCategory)),
		Country:  strings.ToLower(strings.TrimSpace(practiceCountry)),
		RelayURL: strings.TrimSpace(practiceRelayURL),
		BaseURL:  strings.TrimSpace(practiceBaseURL),
		Offline:  practiceOffline,
		Timeout:  practiceTimeout,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}
	if practiceWeakTop < 0 {
		return fmt.Errorf("--weak-top must be >= 0")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	rec, _, err := streak.Visit(ctx, st, time.Now())
	if err != nil {
		logErrf("failed to update streak: %v\n", err)
	}

	creds := credential.New(st)
	apiKey, err := creds.Load(ctx)
	if err != nil {
		logErrf("failed to load API key: %v\n", err)
	}
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv(relay.EnvAPIKey))
	}

	fetcher, keyOptional := newFetcher(cfg)
	ctrl, err := articles.New(fetcher, articles.Options{
		Category:    cfg.Category,
		Country:     cfg.Country,
		APIKey:      apiKey,
		KeyOptional: keyOptional,
	})
	if err != nil {
		return err
	}

	m := tui.NewModel(tui.Options{
		Controller:   ctrl,
		Store:        st,
		Credentials:  creds,
		Streak:       rec.Days,
		WeakKeys:     loadWeakKeys(ctx, st, practiceWeakTop),
		FetchTimeout: cfg.Timeout,
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// newFetcher picks the article source. Offline samples and relays that may
// hold their own key do not require a local API key.
func newFetcher(cfg model.Config) (gateway.Fetcher, bool) {
	switch {
	case cfg.Offline:
		return gateway.Offline{Now: time.Now}, true
	case cfg.RelayURL != "":
		return gateway.NewRelayClient(cfg.RelayURL, cfg.Timeout), true
	default:
		return gateway.NewDirect(worldnews.New(cfg.BaseURL, cfg.Timeout)), false
	}
}

func loadWeakKeys(ctx context.Context, st *store.Store, top int) map[rune]struct{} {
	if top <= 0 {
		return nil
	}
	report, err := stats.BuildReport(ctx, st, model.StatsConfig{Last: defaultWeakWindow})
	if err != nil {
		logErrf("failed to load weak keys: %v\n", err)
		return nil
	}
	return stats.SelectWeakChars(report.CharAggs, top, weakMinSeen, weakThreshold)
}

func openStore() (*store.Store, error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o600); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List news categories and countries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeCategories(cmd.OutOrStdout())
		},
	}
}

func writeCategories(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "Categories:"); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	for _, c := range model.Categories {
		if _, err := fmt.Fprintf(w, "  %s\n", c); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if _, err := fmt.Fprintln(w, "Countries:"); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	for _, c := range model.Countries {
		if _, err := fmt.Fprintf(w, "  %s  %s\n", c.Code, c.Name); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the stored World News API key",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set [key]",
		Short: "Store an API key (prompts when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runKeySetCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the stored API key, masked",
		Args:  cobra.NoArgs,
		RunE:  runKeyShowCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the stored API key",
		Args:  cobra.NoArgs,
		RunE:  runKeyClearCmd,
	})
	return cmd
}

func runKeySetCmd(cmd *cobra.Command, args []string) error {
	var key string
	if len(args) == 1 {
		key = args[0]
	} else {
		read, err := readSecret(cmd.ErrOrStderr(), "API key: ")
		if err != nil {
			return err
		}
		key = read
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	saved, err := credential.New(st).Save(cmd.Context(), key)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved API key %s\n", credential.Mask(saved))
	return err
}

// readSecret reads a line without echo from a terminal, or plainly from a
// pipe.
func readSecret(prompt io.Writer, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		if _, err := fmt.Fprint(prompt, label); err != nil {
			return "", err
		}
		raw, err := term.ReadPassword(fd)
		if _, perr := fmt.Fprintln(prompt); perr != nil {
			_ = perr
		}
		if err != nil {
			return "", fmt.Errorf("failed to read key: %w", err)
		}
		return string(raw), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read key: %w", err)
	}
	return line, nil
}

func runKeyShowCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	key, err := credential.New(st).Load(cmd.Context())
	if err != nil {
		return err
	}
	if key == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "No API key stored.")
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), credential.Mask(key))
	return err
}

func runKeyClearCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	if err := credential.New(st).Clear(cmd.Context()); err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), "API key removed.")
	return err
}

func newStreakCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "streak",
		Short: "Show the daily practice streak",
		Args:  cobra.NoArgs,
		RunE:  runStreakCmd,
	}
}

func runStreakCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	rec, err := streak.Load(cmd.Context(), st)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), formatStreak(rec))
	return err
}

func formatStreak(rec streak.Record) string {
	if rec.LastVisit.IsZero() || rec.Days <= 0 {
		return "No practice recorded yet."
	}
	unit := "days"
	if rec.Days == 1 {
		unit = "day"
	}
	return fmt.Sprintf("%d %s (last practice %s)", rec.Days, unit, rec.LastVisit.Format(streak.DateLayout))
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsCategory, "category", "", "category filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsChars, "chars", defaultCharLimit, "number of characters in the per-char table")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a text report instead of the interactive view")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation(streak.DateLayout, statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsCategory != "" && !model.ValidCategory(statsCategory) {
		return fmt.Errorf("%w: %s", articles.ErrUnknownCategory, statsCategory)
	}

	cfg := model.StatsConfig{
		Category: statsCategory,
		Since:    sinceTime,
		Last:     statsLast,
		Chars:    statsChars,
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	if !statsPlain && term.IsTerminal(int(os.Stdout.Fd())) {
		program := tea.NewProgram(statsui.NewModel(statsui.StoreLoader(st), cfg), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run stats TUI: %w", err)
		}
		return nil
	}

	report, err := stats.BuildReport(cmd.Context(), st, cfg)
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}
	return report.Render(cmd.OutOrStdout(), cfg.Chars)
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *config.Duration) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = value.Duration
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# newstype configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# category = %q         # One of: %s
# country = %q            # us (English) or ca (French)
# weak-top = %d              # Weak keys tinted on the keyboard

[news]
# relay-url = "http://localhost:8080"   # Fetch through a newstype relay
# base-url = %q
# timeout = %q
# offline = false         # Built-in sample articles, no API key needed

[relay]
# addr = ":8080"
# api-key = ""            # Prefer WORLD_NEWS_API_KEY in the environment or .env
# redis-addr = ""         # e.g. "localhost:6379" enables the response cache
# redis-db = 0
# redis-password = ""
# cache-ttl = %q
# log-level = "info"
`,
		defaultCategory,
		strings.Join(model.Categories, ", "),
		defaultCountry,
		defaultWeakTop,
		worldnews.DefaultBaseURL,
		defaultTimeout.String(),
		relay.DefaultCacheTTL.String(),
	)
}

func validateConfig(cfg model.Config) error {
	if !model.ValidCategory(cfg.Category) {
		return fmt.Errorf("%w: %q (available: %s)", articles.ErrUnknownCategory, cfg.Category, strings.Join(model.Categories, ", "))
	}
	if _, ok := model.LookupCountry(cfg.Country); !ok {
		return fmt.Errorf("%w: %q", articles.ErrUnknownCountry, cfg.Country)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("--timeout must be > 0")
	}
	if !cfg.Offline && cfg.RelayURL == "" && cfg.BaseURL == "" {
		return fmt.Errorf("--base-url must not be empty")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
