//go:build integration

package ledgerrepo_test

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"

	"github.com/go-petr/receipt-ledger/internal/domain"
	"github.com/go-petr/receipt-ledger/internal/ledgerrepo"
	"github.com/go-petr/receipt-ledger/internal/middleware"
	"github.com/go-petr/receipt-ledger/pkg/configpkg"
	"github.com/go-petr/receipt-ledger/pkg/dbpkg"
	"github.com/go-petr/receipt-ledger/pkg/randompkg"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	_ "github.com/lib/pq"
)

var (
	dbDriver string
	dbSource string
	ctx      context.Context
)

func TestMain(m *testing.M) {
	config, err := configpkg.Load("../../configs")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	dbDriver = config.DBDriver
	dbSource = config.DBSource

	logger := middleware.CreateLogger(config)
	ctx = logger.WithContext(context.Background())

	os.Exit(m.Run())
}

func TestRepoPGSRecordAndGet(t *testing.T) {
	tx := dbpkg.SetupTX(t, dbDriver, dbSource)
	repo := ledgerrepo.NewTxRepoPGS(tx)

	entry := randomEntry(randompkg.ClientID())
	entry.Metadata = map[string]string{domain.MetaTransactionID: randompkg.String(8)}

	got, err := repo.Record(ctx, entry, "approve:"+randompkg.String(6))
	if err != nil {
		t.Fatalf("repo.Record(%+v) returned error: %v", entry, err)
	}

	stored, err := repo.Get(ctx, got.ID)
	if err != nil {
		t.Fatalf("repo.Get(%q) returned error: %v", got.ID, err)
	}

	ignore := cmpopts.IgnoreFields(domain.LedgerTransaction{}, "CreatedAt")
	if diff := cmp.Diff(got, stored, ignore); diff != "" {
		t.Errorf("repo.Get(%q) returned unexpected difference (-want +got):\n%s", got.ID, diff)
	}

	replayed, err := repo.Record(ctx, entry, got.CorrelationID)
	if err != nil {
		t.Fatalf("repo.Record(replay) returned error: %v", err)
	}

	if replayed.ID != got.ID {
		t.Errorf("repo.Record(replay).ID = %q, want %q", replayed.ID, got.ID)
	}
}

func TestRepoPGSReverse(t *testing.T) {
	tx := dbpkg.SetupTX(t, dbDriver, dbSource)
	repo := ledgerrepo.NewTxRepoPGS(tx)

	entry := randomEntry(randompkg.ClientID())

	original, err := repo.Record(ctx, entry, "")
	if err != nil {
		t.Fatalf("repo.Record(%+v) returned error: %v", entry, err)
	}

	compensating := entry
	compensating.Postings = map[string]int64{}
	for account, delta := range entry.Postings {
		compensating.Postings[account] = -delta
	}
	compensating.ReversalOf = original.ID

	reversal, err := repo.Reverse(ctx, original.ID, compensating, "")
	if err != nil {
		t.Fatalf("repo.Reverse(%q) returned error: %v", original.ID, err)
	}

	if reversal.ReversalOf != original.ID {
		t.Errorf("reversal.ReversalOf = %q, want %q", reversal.ReversalOf, original.ID)
	}

	for account := range entry.Postings {
		balance, err := repo.Balance(ctx, entry.ClientID, account)
		if err != nil {
			t.Fatalf("repo.Balance(%q) returned error: %v", account, err)
		}

		if balance != 0 {
			t.Errorf("repo.Balance(%q) = %d, want 0", account, balance)
		}
	}

	if _, err := repo.Reverse(ctx, original.ID, compensating, ""); !errors.Is(err, domain.ErrAlreadyVoided) {
		t.Errorf("second repo.Reverse(%q) err = %v, want %v", original.ID, err, domain.ErrAlreadyVoided)
	}

	if _, err := repo.Reverse(ctx, "missing", compensating, ""); !errors.Is(err, domain.ErrJournalNotFound) {
		t.Errorf("repo.Reverse(missing) err = %v, want %v", err, domain.ErrJournalNotFound)
	}
}

func TestRepoPGSTrialBalance(t *testing.T) {
	tx := dbpkg.SetupTX(t, dbDriver, dbSource)
	repo := ledgerrepo.NewTxRepoPGS(tx)

	clientID := randompkg.ClientID()

	for i := 0; i < 3; i++ {
		if _, err := repo.Record(ctx, randomEntry(clientID), ""); err != nil {
			t.Fatalf("repo.Record() returned error: %v", err)
		}
	}

	rows, err := repo.TrialBalance(ctx, clientID, domain.DateRange{})
	if err != nil {
		t.Fatalf("repo.TrialBalance(%q) returned error: %v", clientID, err)
	}

	var debit, credit int64
	for _, r := range rows {
		debit += r.Debit.Int64()
		credit += r.Credit.Int64()
	}

	if debit != credit {
		t.Errorf("trial balance totals = %d/%d, want equal", debit, credit)
	}

	if len(rows) != 2 {
		t.Errorf("len(rows) = %d, want 2", len(rows))
	}
}
