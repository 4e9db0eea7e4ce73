package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions(nil, env(map[string]string{
		envCatalogAddr: ":4000",
		envPostgresDSN: "postgres://cart@db/cart",
	}))
	require.NoError(t, err)
	require.Equal(t, ":4000", opts.addr)
	require.Equal(t, "postgres://cart@db/cart", opts.dsn)

	opts, err = parseOptions([]string{"-addr=:5000", "-dsn=postgres://flag"}, env(map[string]string{
		envCatalogAddr: ":4000",
		envPostgresDSN: "postgres://env",
	}))
	require.NoError(t, err)
	require.Equal(t, ":5000", opts.addr)
	require.Equal(t, "postgres://flag", opts.dsn)

	_, err = parseOptions([]string{"-unknown"}, env(nil))
	require.Error(t, err)
}

func TestLoadSeed_BundledFile(t *testing.T) {
	seed, err := loadSeed("db.json")
	require.NoError(t, err)
	require.Len(t, seed.Products, 6)
	require.Len(t, seed.Stock, 6)
}

func TestLoadSeed_Errors(t *testing.T) {
	_, err := loadSeed(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"stock":[{"id":1,"amount":-1}]}`), 0o600))
	_, err = loadSeed(path)
	require.ErrorIs(t, err, domain.ErrStockNegative)

	seed, err := loadSeed("")
	require.NoError(t, err)
	require.Empty(t, seed.Products)
}

func TestOpenRepository_Memory(t *testing.T) {
	seed, err := loadSeed("db.json")
	require.NoError(t, err)

	repo, closeFn, err := openRepository(context.Background(), options{}, seed, log.WithField("test", "catalog"))
	require.NoError(t, err)
	defer func() { require.NoError(t, closeFn()) }()

	stock, err := repo.GetStock(context.Background(), 6)
	require.NoError(t, err)
	require.Equal(t, 10, stock.Amount)
}
