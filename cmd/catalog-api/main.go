package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartstore/internal/catalogapi"
	"github.com/vladislavdragonenkov/cartstore/internal/domain"
	"github.com/vladislavdragonenkov/cartstore/internal/storage/memory"
	"github.com/vladislavdragonenkov/cartstore/internal/storage/postgres"
)

const (
	envCatalogAddr = "CATALOG_ADDR"
	envPostgresDSN = "CART_POSTGRES_DSN"
	envLogLevel    = "CART_LOG_LEVEL"
)

type options struct {
	addr string
	seed string
	dsn  string
}

func parseOptions(args []string, getenv func(string) string) (options, error) {
	fs := flag.NewFlagSet("catalog-api", flag.ContinueOnError)
	opts := options{}
	fs.StringVar(&opts.addr, "addr", ":3333", "listen address (fallback: "+envCatalogAddr+")")
	fs.StringVar(&opts.seed, "seed", "cmd/catalog-api/db.json", "catalog seed file ({\"products\":[],\"stock\":[]})")
	fs.StringVar(&opts.dsn, "dsn", "", "PostgreSQL DSN; empty keeps the catalog in memory (fallback: "+envPostgresDSN+")")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if v := strings.TrimSpace(getenv(envCatalogAddr)); v != "" && !flagSet(fs, "addr") {
		opts.addr = v
	}
	if strings.TrimSpace(opts.dsn) == "" {
		opts.dsn = strings.TrimSpace(getenv(envPostgresDSN))
	}
	return opts, nil
}

func flagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func loadSeed(path string) (memory.CatalogSeed, error) {
	if strings.TrimSpace(path) == "" {
		return memory.CatalogSeed{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return memory.CatalogSeed{}, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()
	return memory.ReadCatalogSeed(f)
}

// openRepository возвращает memory-каталог из seed или Postgres, засеянный им же.
func openRepository(ctx context.Context, opts options, seed memory.CatalogSeed, logger *log.Entry) (domain.CatalogRepository, func() error, error) {
	if opts.dsn == "" {
		logger.WithField("products", len(seed.Products)).Info("using in-memory catalog")
		return memory.NewCatalogRepository(seed), func() error { return nil }, nil
	}

	store, err := postgres.Open(ctx, opts.dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("apply postgres migrations: %w", err)
	}
	if len(seed.Products) > 0 {
		if err := postgres.SeedCatalog(ctx, store, seed.Products, seed.Stock); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		logger.WithField("products", len(seed.Products)).Info("postgres catalog seeded")
	}
	return postgres.NewCatalogRepository(store), store.Close, nil
}

func main() {
	_ = godotenv.Load()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if lvl, err := log.ParseLevel(os.Getenv(envLogLevel)); err == nil {
		log.SetLevel(lvl)
	}
	logger := log.WithField("component", "catalog-api")

	opts, err := parseOptions(os.Args[1:], os.Getenv)
	if err != nil {
		logger.WithError(err).Fatal("invalid arguments")
	}

	seed, err := loadSeed(opts.seed)
	if err != nil {
		logger.WithError(err).Fatal("failed to load catalog seed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepository(ctx, opts, seed, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to open catalog repository")
	}
	defer func() { _ = closeRepo() }()

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           catalogapi.NewRouter(catalogapi.NewHandler(repo, logger)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	logger.Infof("catalog API слушает %s", opts.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Error("catalog API завершился с ошибкой")
		return
	}
	logger.Info("catalog API остановлен")
}
