package firestore

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
)

func TestTransactionFromEmptyContext(t *testing.T) {
	if tx, ok := TransactionFrom(context.Background()); ok || tx != nil {
		t.Fatal("plain context must carry no transaction")
	}
	if tx, ok := TransactionFrom(nil); ok || tx != nil {
		t.Fatal("nil context must carry no transaction")
	}
}

func TestWithTransactionNilHandle(t *testing.T) {
	ctx := WithTransaction(context.Background(), nil)
	if _, ok := TransactionFrom(ctx); ok {
		t.Fatal("nil handle must not register as an active transaction")
	}
}

func TestRunTransactionRequiresClient(t *testing.T) {
	err := RunTransaction(context.Background(), nil, func(context.Context, *firestore.Transaction) error {
		return nil
	})
	if err == nil {
		t.Fatal("expected error for nil client")
	}
}

func TestTxOptions(t *testing.T) {
	cfg := txConfig{attempts: defaultTxAttempts, timeout: defaultTxTimeout}
	WithTxAttempts(9)(&cfg)
	WithTxTimeout(time.Second)(&cfg)
	if cfg.attempts != 9 || cfg.timeout != time.Second {
		t.Fatalf("cfg = %+v", cfg)
	}

	WithTxAttempts(0)(&cfg)
	WithTxTimeout(0)(&cfg)
	if cfg.attempts != 9 || cfg.timeout != time.Second {
		t.Fatal("non-positive overrides must be ignored")
	}
}
