package app

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/cartstore/internal/health"
)

func TestInitStorage_Memory(t *testing.T) {
	t.Parallel()

	for _, driver := range []string{"", StorageDriverMemory, " Memory "} {
		deps, err := initStorage(context.Background(), Config{StorageDriver: driver}, log.WithField("test", "memory-storage"))
		if err != nil {
			t.Fatalf("initStorage(%q) failed: %v", driver, err)
		}
		if deps.storage == nil {
			t.Fatalf("storage should not be nil for driver %q", driver)
		}
		if deps.closeFn != nil {
			t.Fatalf("memory storage has nothing to close")
		}
	}
}

func TestInitStorage_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cart.json")
	deps, err := initStorage(context.Background(), Config{
		StorageDriver: StorageDriverFile,
		StorageFile:   path,
	}, log.WithField("test", "file-storage"))
	if err != nil {
		t.Fatalf("initStorage(file) failed: %v", err)
	}

	ctx := context.Background()
	if err := deps.storage.Set(ctx, "k", []byte(`[]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if check := deps.storageChecker.Check(ctx); check.Status != healthcheck.StatusHealthy {
		t.Fatalf("expected healthy file storage, got %+v", check)
	}
}

func TestInitStorage_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{"postgres without dsn", Config{StorageDriver: StorageDriverPostgres}, "postgres dsn is required"},
		{"file without path", Config{StorageDriver: StorageDriverFile}, "storage file path is required"},
		{"redis without addr", Config{StorageDriver: StorageDriverRedis}, "redis address is required"},
		{"unsupported", Config{StorageDriver: "sqlite"}, "unsupported storage driver"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := initStorage(context.Background(), tc.cfg, log.WithField("test", tc.name))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestInitCatalogSource_RejectsBadURL(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.CatalogURL = "ftp://catalog"
	if _, _, err := initCatalogSource(cfg, log.WithField("test", "catalog")); err == nil {
		t.Fatal("expected error for non-http catalog url")
	}
}

func TestInitRuntimeDependencies_Memory(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	deps, err := initRuntimeDependencies(context.Background(), cfg, log.WithField("test", "runtime"))
	if err != nil {
		t.Fatalf("initRuntimeDependencies failed: %v", err)
	}
	defer deps.close(log.WithField("test", "runtime"))

	if deps.source == nil || deps.notifier == nil || deps.recorder == nil {
		t.Fatalf("dependencies must be initialized: %+v", deps)
	}
	if deps.dispatcher != nil || deps.producer != nil {
		t.Fatal("kafka must stay disabled without brokers")
	}

	deps.notifier.Success("hello")
	if last, ok := deps.recorder.Last(); !ok || last.Message != "hello" {
		t.Fatalf("recorder should receive notifications, got %+v", last)
	}
}
