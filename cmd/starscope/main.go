package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"starscope/internal/analysis"
	"starscope/internal/cache"
	"starscope/internal/config"
	"starscope/internal/history"
	"starscope/internal/models"
	"starscope/internal/probe"
	"starscope/internal/registry"
	"starscope/internal/vault"
)

const usage = `starscope - analyze GitHub repositories with LLM providers

Usage:
  starscope providers                 list known providers
  starscope discover                  probe local LLM services
  starscope credential set <key>      encrypt and store a credential for the configured provider
  starscope credential clear          forget stored credentials and the encryption key
  starscope analyze <owner/name>      analyze a repository (see analyze -h)
  starscope history                   list cached analyses, newest first
  starscope stats                     show cache statistics
  starscope clear                     empty the analysis cache
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "starscope: %v\n", err)
		os.Exit(1)
	}
}

func run(command string, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	switch command {
	case "providers":
		return listProviders()
	case "discover":
		return discover(ctx)
	case "credential":
		return credential(cfg, args)
	case "analyze":
		return analyze(ctx, cfg, args)
	case "history":
		return listHistory(ctx, cfg)
	case "stats":
		return showStats(ctx, cfg)
	case "clear":
		return clearCache(ctx, cfg)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func listProviders() error {
	for _, desc := range registry.ListAll() {
		kind := "cloud"
		if desc.IsLocal {
			kind = "local"
		}
		fmt.Printf("%-12s %-18s %s\n", desc.ID, kind+", "+string(desc.Auth), desc.Description)
		for _, model := range desc.Models {
			price := "free"
			if model.Pricing != nil {
				price = fmt.Sprintf("$%.4f/$%.4f per 1K tokens", model.Pricing.InputPerKTokens, model.Pricing.OutputPerKTokens)
			}
			fmt.Printf("    %-40s %s\n", model.ID, price)
		}
	}
	return nil
}

func discover(ctx context.Context) error {
	statuses := probe.NewProber().Discover(ctx)
	for _, desc := range registry.ListLocal() {
		status := statuses[desc.ID]
		if !status.Available {
			fmt.Printf("%-12s not running (%s)\n", desc.ID, desc.SetupInstructions)
			continue
		}
		fmt.Printf("%-12s available, %d model(s)\n", desc.ID, len(status.Models))
		for _, model := range status.Models {
			size := probe.FormatSize(model.Size)
			if size != "" {
				size = " (" + size + ")"
			}
			fmt.Printf("    %s%s\n", probe.DisplayName(model.Name), size)
		}
	}
	return nil
}

func credential(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: starscope credential <set|clear>")
	}

	store := vault.NewFileKeyStore(cfg.Vault.KeyPath)
	v := vault.New(store)

	switch args[0] {
	case "set":
		if len(args) < 2 {
			return fmt.Errorf("usage: starscope credential set <key>")
		}
		encrypted, err := v.Encrypt(args[1])
		if err != nil {
			return err
		}
		if err := writeCredential(credentialPath(cfg), string(cfg.Provider), encrypted); err != nil {
			return err
		}
		fmt.Printf("stored credential for %s\n", cfg.Provider)
		return nil

	case "clear":
		if err := os.Remove(credentialPath(cfg)); err != nil && !os.IsNotExist(err) {
			return err
		}
		if err := v.Clear(); err != nil {
			return err
		}
		fmt.Println("credentials and encryption key cleared")
		return nil

	default:
		return fmt.Errorf("unknown credential action %q", args[0])
	}
}

func analyze(ctx context.Context, cfg *config.Config, args []string) error {
	flags := flag.NewFlagSet("analyze", flag.ContinueOnError)
	description := flags.String("description", "", "repository description")
	language := flags.String("language", "", "primary language")
	stars := flags.Int("stars", 0, "star count")
	topics := flags.String("topics", "", "comma-separated topics")
	refresh := flags.Bool("refresh", false, "ignore the cache and re-analyze")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() < 1 {
		return fmt.Errorf("usage: starscope analyze <owner/name> [flags]")
	}
	fullName := flags.Arg(0)

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if !*refresh {
		cached, err := store.GetLatest(ctx, fullName)
		if err != nil {
			return err
		}
		if cached != nil && !cached.IsStale() {
			fmt.Println(cached.Analysis)
			fmt.Printf("\n(cached %s, %s, %d tokens, $%.4f)\n",
				time.UnixMilli(cached.Timestamp).Format(time.RFC3339), cached.Provider, cached.TokenCount, cached.Cost)
			return nil
		}
	}

	repo := models.Repository{
		FullName:    fullName,
		Description: *description,
		Language:    *language,
		Stars:       *stars,
	}
	if *topics != "" {
		repo.Topics = strings.Split(*topics, ",")
	}

	credentialValue, err := resolveCredential(cfg)
	if err != nil {
		return err
	}

	var exporter history.Sink = history.NewNoopSink()
	if cfg.History.Enabled && cfg.History.S3Bucket != "" {
		writer, err := history.NewS3Writer(ctx, cfg.History.S3Bucket, cfg.History.S3Region, cfg.History.S3Prefix)
		if err != nil {
			return err
		}
		exporter = history.NewBatchSink(writer, cfg.History.FlushSize, cfg.History.FlushInterval)
	}

	done := make(chan error, 1)
	analyzer := analysis.NewAnalyzer()
	err = analyzer.AnalyzeRepository(ctx, repo, analysis.Config{
		Provider:   cfg.Provider,
		Credential: credentialValue,
		Model:      cfg.Model,
		MaxTokens:  cfg.MaxTokens,
		Endpoint:   cfg.Endpoint,
	}, &consoleSink{ctx: ctx, cfg: cfg, repo: repo, store: store, exporter: exporter, done: done})
	if err != nil {
		return err
	}

	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := exporter.Shutdown(shutdownCtx); shutdownErr != nil {
		fmt.Fprintf(os.Stderr, "starscope: history export incomplete: %v\n", shutdownErr)
	}
	return err
}

// consoleSink streams tokens to stdout, then persists and exports the
// completed analysis.
type consoleSink struct {
	ctx      context.Context
	cfg      *config.Config
	repo     models.Repository
	store    cache.Store
	exporter history.Sink
	done     chan error
}

func (s *consoleSink) OnToken(token string) {
	fmt.Print(token)
}

func (s *consoleSink) OnComplete(result analysis.Result) {
	fmt.Printf("\n\n(%s/%s, %d tokens, $%.4f)\n", result.Provider, result.Model, result.TokenCount, result.Cost)

	record, err := s.store.Save(s.ctx, cache.Record{
		RepositoryFullName: s.repo.FullName,
		RepositoryURL:      "https://github.com/" + s.repo.FullName,
		Analysis:           result.Content,
		Model:              result.Model,
		Provider:           result.Provider,
		TokenCount:         result.TokenCount,
		Cost:               result.Cost,
		Timestamp:          result.Timestamp.UnixMilli(),
	})
	if err != nil {
		s.done <- fmt.Errorf("analysis succeeded but caching failed: %w", err)
		return
	}
	if err := s.exporter.Enqueue(record); err != nil {
		fmt.Fprintf(os.Stderr, "starscope: history export skipped: %v\n", err)
	}
	s.done <- nil
}

func (s *consoleSink) OnError(err error) {
	s.done <- err
}

func listHistory(ctx context.Context, cfg *config.Config) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.GetAll(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("no cached analyses")
		return nil
	}
	for _, record := range records {
		marker := ""
		if record.IsStale() {
			marker = " (stale)"
		}
		fmt.Printf("%-40s %s %s/%s%s\n", record.RepositoryFullName,
			time.UnixMilli(record.Timestamp).Format("2006-01-02 15:04"), record.Provider, record.Model, marker)
	}
	return nil
}

func showStats(ctx context.Context, cfg *config.Config) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("records: %d (ceiling %d)\n", stats.Count, cache.MaxRecords)
	fmt.Printf("tokens:  %d\n", stats.TotalTokens)
	fmt.Printf("cost:    $%.4f\n", stats.TotalCost)
	if stats.Count > 0 {
		fmt.Printf("oldest:  %s\n", time.UnixMilli(stats.OldestTimestamp).Format(time.RFC3339))
		fmt.Printf("newest:  %s\n", time.UnixMilli(stats.NewestTimestamp).Format(time.RFC3339))
	}
	return nil
}

func clearCache(ctx context.Context, cfg *config.Config) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Clear(ctx); err != nil {
		return err
	}
	fmt.Println("cache cleared")
	return nil
}

// openStore selects the cache backend from configuration.
func openStore(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	switch cfg.CacheBackend {
	case "", "memory":
		return cache.NewMemoryStore(), nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:        cfg.Redis.Address,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to reach redis: %w", err)
		}
		return cache.NewRedisStore(client, cfg.Redis.KeyPrefix), nil

	case "postgres":
		if cfg.Database.URL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
		store, err := cache.OpenPostgres(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}

// resolveCredential prefers the stored encrypted credential, falling back
// to the environment.
func resolveCredential(cfg *config.Config) (string, error) {
	encrypted, err := readCredential(credentialPath(cfg), string(cfg.Provider))
	if err != nil {
		return "", err
	}
	if encrypted != "" {
		v := vault.New(vault.NewFileKeyStore(cfg.Vault.KeyPath))
		plain, err := v.Decrypt(encrypted)
		if err != nil {
			return "", fmt.Errorf("stored credential for %s is unreadable, run \"starscope credential set\" again: %w", cfg.Provider, err)
		}
		return plain, nil
	}
	return cfg.Credential, nil
}

func credentialPath(cfg *config.Config) string {
	return filepath.Join(filepath.Dir(cfg.Vault.KeyPath), "credentials.json")
}
