package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"myriad-tipping-go/internal/models"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrDuplicateTip marks a transaction hash that was already recorded. The
// tipping flow uses it to keep backend recording idempotent.
var ErrDuplicateTip = errors.New("duplicate tip")

// TipRecord is one locally recorded tip submission.
type TipRecord struct {
	ID            string
	Hash          string
	Amount        decimal.Decimal
	From          string
	To            string
	CurrencyID    string
	ReferenceType models.ReferenceType
	ReferenceID   string
	CreatedAt     time.Time
}

// Ledger is the local audit trail of submitted tips, keyed by transaction
// hash. The authoritative ledger lives behind the backend; this one only
// guards against double-recording and supports offline inspection.
type Ledger struct {
	db *sql.DB
}

func NewLedger(ctx context.Context, cfg models.DatabaseConfig) (*Ledger, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening tip ledger", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	ledger := &Ledger{db: db}
	if err := ledger.InitSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return ledger, nil
}

// NewLedgerWithDB wraps an existing database handle. Used by tests.
func NewLedgerWithDB(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) InitSchema() error {
	if _, err := l.db.Exec(schemaTips); err != nil {
		return fmt.Errorf("failed to create tips schema: %w", err)
	}
	return nil
}

// RecordTipParams contains the parameters for recording a submitted tip.
type RecordTipParams struct {
	Hash          string
	Amount        decimal.Decimal
	From          string
	To            string
	CurrencyID    string
	ReferenceType models.ReferenceType
	ReferenceID   string
}

// RecordTip stores a submitted tip. A repeated hash yields ErrDuplicateTip.
func (l *Ledger) RecordTip(ctx context.Context, params RecordTipParams) (*TipRecord, error) {
	if params.Hash == "" {
		return nil, fmt.Errorf("tip hash cannot be empty")
	}

	var existingID string
	err := l.db.QueryRowContext(ctx, queryCheckDuplicateTip, params.Hash).Scan(&existingID)
	if err == nil {
		zap.L().Warn("Duplicate tip hash detected, skipping",
			zap.String("hash", params.Hash),
			zap.String("existing_id", existingID))
		return nil, fmt.Errorf("%w: hash %s already recorded", ErrDuplicateTip, params.Hash)
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check for duplicate tip: %w", err)
	}

	record := &TipRecord{}
	var amountStr string
	err = l.db.QueryRowContext(ctx, queryInsertTip,
		uuid.New().String(), params.Hash, params.Amount.String(),
		params.From, params.To, params.CurrencyID,
		string(params.ReferenceType), params.ReferenceID, time.Now().UTC()).
		Scan(&record.ID, &record.Hash, &amountStr, &record.From, &record.To,
			&record.CurrencyID, &record.ReferenceType, &record.ReferenceID, &record.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record tip: %w", err)
	}

	record.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse recorded amount %q: %w", amountStr, err)
	}

	zap.L().Info("Tip recorded locally",
		zap.String("hash", record.Hash),
		zap.String("amount", record.Amount.String()),
		zap.String("currency_id", record.CurrencyID))

	return record, nil
}

// TipByHash looks up a recorded tip; returns nil when none exists.
func (l *Ledger) TipByHash(ctx context.Context, hash string) (*TipRecord, error) {
	record := &TipRecord{}
	var amountStr string
	err := l.db.QueryRowContext(ctx, queryGetTipByHash, hash).
		Scan(&record.ID, &record.Hash, &amountStr, &record.From, &record.To,
			&record.CurrencyID, &record.ReferenceType, &record.ReferenceID, &record.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query tip by hash: %w", err)
	}

	record.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse recorded amount %q: %w", amountStr, err)
	}
	return record, nil
}

// ListRecent returns the most recently recorded tips, newest first.
func (l *Ledger) ListRecent(ctx context.Context, limit int) ([]TipRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := l.db.QueryContext(ctx, queryListRecentTips, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tips: %w", err)
	}
	defer rows.Close()

	var records []TipRecord
	for rows.Next() {
		var record TipRecord
		var amountStr string
		if err := rows.Scan(&record.ID, &record.Hash, &amountStr, &record.From, &record.To,
			&record.CurrencyID, &record.ReferenceType, &record.ReferenceID, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tip row: %w", err)
		}
		record.Amount, err = decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse recorded amount %q: %w", amountStr, err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (l *Ledger) Close() {
	if err := l.db.Close(); err != nil {
		zap.L().Warn("Failed to close tip ledger", zap.Error(err))
	}
}
