package configpkg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	env := []byte("DB_DRIVER=postgres\n" +
		"DB_SOURCE=postgresql://localhost/test\n" +
		"TOKEN_SYMMETRIC_KEY=12345678901234567890123456789012\n" +
		"LEDGER_BACKEND=bolt\n" +
		"KAFKA_BROKERS=kafka-1:9092,kafka-2:9092\n" +
		"BREAKER_OPEN_TIMEOUT=1m\n")

	if err := os.WriteFile(filepath.Join(dir, "app.env"), env, 0o600); err != nil {
		t.Fatalf("os.WriteFile() returned error: %v", err)
	}

	t.Setenv("DRAFT_STORE", "memory")

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load(%q) returned error: %v", dir, err)
	}

	want := Config{
		DBDriver:           "postgres",
		DBSource:           "postgresql://localhost/test",
		ServerAddress:      "0.0.0.0:8080",
		TokenSymmetricKey:  "12345678901234567890123456789012",
		TokenFormat:        "paseto",
		LedgerBackend:      BackendBolt,
		DraftStore:         BackendMemory,
		BoltPath:           "ledger.db",
		BreakerMaxFailures: 5,
		BreakerOpenTimeout: time.Minute,
		KafkaBrokers:       []string{"kafka-1:9092", "kafka-2:9092"},
		KafkaTopic:         "ledger.transactions",
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load(%q) returned unexpected difference (-want +got):\n%s", dir, diff)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Errorf("Load(empty dir) returned nil error, want error")
	}
}
