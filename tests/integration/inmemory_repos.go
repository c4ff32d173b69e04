package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"peerpay-settlement/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// In-memory repos backing the integration stack. They reproduce the database
// semantics the services lean on: the conditional status update, the
// settlement record primary key, and the non-negative balance check.

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]*domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{rows: make(map[uuid.UUID]*domain.Transaction)}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.ReferenceID == t.ReferenceID {
			return fmt.Errorf("duplicate reference_id %s", t.ReferenceID)
		}
	}
	cp := *t
	r.rows[t.ID] = &cp
	return nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *inMemoryTransactionRepo) GetByReference(ctx context.Context, referenceID string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.rows {
		if t.ReferenceID == referenceID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

// Transition mirrors the conditional UPDATE: exactly one concurrent caller
// observes status == from and flips it.
func (r *inMemoryTransactionRepo) Transition(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to domain.TransactionStatus, providerTxnID *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[id]
	if !ok || t.Status != from {
		return false, nil
	}
	t.Status = to
	if providerTxnID != nil {
		t.ProviderTxnID = providerTxnID
	}
	now := time.Now().UTC()
	t.SettledAt = &now
	return true, nil
}

func (r *inMemoryTransactionRepo) SetGatewayCorrelation(ctx context.Context, id uuid.UUID, correlation string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[id]
	if !ok {
		return fmt.Errorf("transaction not found")
	}
	if t.GatewayCorrelation != nil && *t.GatewayCorrelation != correlation {
		return fmt.Errorf("correlation already set")
	}
	t.GatewayCorrelation = &correlation
	return nil
}

func (r *inMemoryTransactionRepo) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Transaction
	for _, t := range r.rows {
		if t.Status == domain.StatusPending && t.CreatedAt.Before(cutoff) {
			out = append(out, *t)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// --- In-Memory Balance Repo ---

type inMemoryBalanceRepo struct {
	mu       sync.Mutex
	balances map[int64]*domain.Balance
}

func newInMemoryBalanceRepo() *inMemoryBalanceRepo {
	return &inMemoryBalanceRepo{balances: make(map[int64]*domain.Balance)}
}

// seed sets a balance directly, standing in for prior ledger activity.
func (r *inMemoryBalanceRepo) seed(userID, amount int64, currency string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[userID] = &domain.Balance{UserID: userID, Amount: amount, Currency: currency, UpdatedAt: time.Now().UTC()}
}

func (r *inMemoryBalanceRepo) Ensure(ctx context.Context, tx pgx.Tx, userID int64, currency string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.balances[userID]; !ok {
		r.balances[userID] = &domain.Balance{UserID: userID, Currency: currency, UpdatedAt: time.Now().UTC()}
	}
	return nil
}

func (r *inMemoryBalanceRepo) Get(ctx context.Context, userID int64) (*domain.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.balances[userID]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *inMemoryBalanceRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, userID int64) (*domain.Balance, error) {
	return r.Get(ctx, userID)
}

// Adjust enforces the database's non-negative check: a delta that would drive
// the balance below zero is rejected rather than applied.
func (r *inMemoryBalanceRepo) Adjust(ctx context.Context, tx pgx.Tx, userID int64, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.balances[userID]
	if !ok {
		return fmt.Errorf("balance row missing for user %d", userID)
	}
	if b.Amount+delta < 0 {
		return fmt.Errorf("balance check violation for user %d", userID)
	}
	b.Amount += delta
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// --- In-Memory Subscription Repo ---

type inMemorySubscriptionRepo struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]*domain.Subscription
	premium map[int64]bool
}

func newInMemorySubscriptionRepo() *inMemorySubscriptionRepo {
	return &inMemorySubscriptionRepo{
		rows:    make(map[uuid.UUID]*domain.Subscription),
		premium: make(map[int64]bool),
	}
}

func (r *inMemorySubscriptionRepo) Insert(ctx context.Context, tx pgx.Tx, s *domain.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.Status == domain.SubscriptionActive {
		for _, existing := range r.rows {
			if existing.UserID == s.UserID && existing.Status == domain.SubscriptionActive {
				return fmt.Errorf("active subscription already exists for user %d", s.UserID)
			}
		}
	}
	cp := *s
	r.rows[s.ID] = &cp
	return nil
}

func (r *inMemorySubscriptionRepo) GetActive(ctx context.Context, userID int64) (*domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.rows {
		if s.UserID == userID && s.Status == domain.SubscriptionActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemorySubscriptionRepo) GetActiveForUpdate(ctx context.Context, tx pgx.Tx, userID int64) (*domain.Subscription, error) {
	return r.GetActive(ctx, userID)
}

func (r *inMemorySubscriptionRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.SubscriptionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok {
		return fmt.Errorf("subscription not found")
	}
	s.Status = status
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemorySubscriptionRepo) SetPremium(ctx context.Context, tx pgx.Tx, userID int64, premium bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.premium[userID] = premium
	return nil
}

func (r *inMemorySubscriptionRepo) isPremium(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.premium[userID]
}

func (r *inMemorySubscriptionRepo) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.rows {
		if s.Status == domain.SubscriptionActive && !now.Before(s.EndDate) {
			s.Status = domain.SubscriptionExpired
			s.UpdatedAt = now
			r.premium[s.UserID] = false
			n++
		}
	}
	return n, nil
}

// --- In-Memory Settlement Record Repo ---

type inMemorySettlementRecordRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.SettlementRecord
}

func newInMemorySettlementRecordRepo() *inMemorySettlementRecordRepo {
	return &inMemorySettlementRecordRepo{rows: make(map[string]*domain.SettlementRecord)}
}

func recordKey(referenceID, eventID string) string {
	return referenceID + "\x00" + eventID
}

// Create mirrors the (reference_id, event_id) primary key.
func (r *inMemorySettlementRecordRepo) Create(ctx context.Context, tx pgx.Tx, rec *domain.SettlementRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := recordKey(rec.ReferenceID, rec.EventID)
	if _, ok := r.rows[key]; ok {
		return fmt.Errorf("settlement record already exists for %s/%s", rec.ReferenceID, rec.EventID)
	}
	cp := *rec
	r.rows[key] = &cp
	return nil
}

func (r *inMemorySettlementRecordRepo) Get(ctx context.Context, referenceID, eventID string) (*domain.SettlementRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.rows[recordKey(referenceID, eventID)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *inMemorySettlementRecordRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, referenceID, eventID string) (*domain.SettlementRecord, error) {
	return r.Get(ctx, referenceID, eventID)
}

func (r *inMemorySettlementRecordRepo) MarkLedgerApplied(ctx context.Context, tx pgx.Tx, referenceID, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.rows[recordKey(referenceID, eventID)]
	if !ok {
		return fmt.Errorf("settlement record not found")
	}
	now := time.Now().UTC()
	rec.LedgerApplied = true
	rec.AppliedAt = &now
	return nil
}

func (r *inMemorySettlementRecordRepo) ListUnapplied(ctx context.Context, cutoff time.Time, limit int) ([]domain.SettlementRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.SettlementRecord
	for _, rec := range r.rows {
		committed := rec.Status == domain.StatusCompleted || rec.Status == domain.StatusRefundPending
		if committed && !rec.LedgerApplied &&
			rec.RedriveAttempts < domain.MaxLedgerRedrives && rec.CreatedAt.Before(cutoff) {
			out = append(out, *rec)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *inMemorySettlementRecordRepo) IncrementRedrive(ctx context.Context, referenceID, eventID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.rows[recordKey(referenceID, eventID)]
	if !ok {
		return 0, fmt.Errorf("settlement record not found")
	}
	rec.RedriveAttempts++
	return rec.RedriveAttempts, nil
}

// appliedCount reports how many records have committed their ledger effect.
func (r *inMemorySettlementRecordRepo) appliedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.rows {
		if rec.LedgerApplied {
			n++
		}
	}
	return n
}

// --- In-Memory Event Log Repo ---

type inMemoryEventLogRepo struct {
	mu   sync.Mutex
	rows []*domain.EventDeliveryLog
}

func newInMemoryEventLogRepo() *inMemoryEventLogRepo {
	return &inMemoryEventLogRepo{}
}

func (r *inMemoryEventLogRepo) Create(ctx context.Context, log *domain.EventDeliveryLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *log
	r.rows = append(r.rows, &cp)
	return nil
}

func (r *inMemoryEventLogRepo) UpdateDelivery(ctx context.Context, id uuid.UUID, status domain.EventDeliveryStatus, attempt int, lastError *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			row.Status = status
			row.Attempt = attempt
			row.LastError = lastError
			return nil
		}
	}
	return fmt.Errorf("event log not found")
}

// countForReference reports how many events were emitted for a transaction.
func (r *inMemoryEventLogRepo) countForReference(referenceID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, row := range r.rows {
		if row.ReferenceID == referenceID {
			n++
		}
	}
	return n
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
