package history

import (
	"context"
	"fmt"
	"sync"

	"myriad-tipping-go/internal/api"
	"myriad-tipping-go/internal/models"

	"go.uber.org/zap"
)

// Store is a paginated, filterable view of the tip history for one
// reference. Paging forward appends; changing the reference, sort, or
// currency filter replaces the whole list.
type Store struct {
	backend *api.Client
	limit   int

	mu           sync.Mutex
	reference    *models.TipReference
	disabled     bool
	currencyID   string
	sort         models.TransactionSort
	transactions []models.Transaction
	meta         models.ListMeta
}

func NewStore(backend *api.Client) *Store {
	return &Store{
		backend: backend,
		limit:   api.DefaultPageLimit,
		sort:    models.SortLatest,
	}
}

// Open points the store at a reference and clears stale pages from a
// previously viewed one. Tipping is disabled when the viewer is anonymous
// or owns the referenced content.
func (s *Store) Open(reference models.TipReference, viewerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reference == nil || s.reference.ID != reference.ID || s.reference.Type != reference.Type {
		s.transactions = nil
		s.meta = models.ListMeta{}
	}
	s.reference = &reference
	s.disabled = viewerID == "" || reference.OwnerID == viewerID
}

// Clear drops all loaded state. Called when the tipping dialog closes.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reference = nil
	s.disabled = false
	s.transactions = nil
	s.meta = models.ListMeta{}
}

// TippingDisabled reports whether the viewer may tip the open reference.
func (s *Store) TippingDisabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disabled
}

// Fetch loads one page. Page 1 (or 0) replaces the list; later pages append
// new transactions, skipping ids already present.
func (s *Store) Fetch(ctx context.Context, page int) error {
	s.mu.Lock()
	reference := s.reference
	currencyID := s.currencyID
	sort := s.sort
	s.mu.Unlock()

	if reference == nil {
		return fmt.Errorf("no reference opened")
	}
	if page < 1 {
		page = 1
	}

	list, err := s.backend.ListTransactions(ctx, api.TransactionQuery{
		Page:          page,
		Limit:         s.limit,
		ReferenceID:   reference.ID,
		ReferenceType: reference.Type,
		CurrencyID:    currencyID,
		Sort:          sort,
	})
	if err != nil {
		return fmt.Errorf("unable to fetch transaction history: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The reference may have changed while the request was in flight.
	if s.reference == nil || s.reference.ID != reference.ID {
		return nil
	}

	if page <= 1 {
		s.transactions = list.Data
	} else {
		seen := make(map[string]struct{}, len(s.transactions))
		for _, tx := range s.transactions {
			seen[tx.ID] = struct{}{}
		}
		for _, tx := range list.Data {
			if _, dup := seen[tx.ID]; dup {
				continue
			}
			s.transactions = append(s.transactions, tx)
		}
	}
	s.meta = list.Meta

	zap.L().Debug("Transaction history page loaded",
		zap.String("reference_id", reference.ID),
		zap.Int("page", list.Meta.CurrentPage),
		zap.Int("total_pages", list.Meta.TotalPageCount),
		zap.Int("loaded", len(s.transactions)))

	return nil
}

// FetchNext loads the page after the last one fetched.
func (s *Store) FetchNext(ctx context.Context) error {
	s.mu.Lock()
	next := s.meta.CurrentPage + 1
	s.mu.Unlock()
	return s.Fetch(ctx, next)
}

// SetSort changes the ordering and reloads from the first page.
func (s *Store) SetSort(ctx context.Context, sort models.TransactionSort) error {
	s.mu.Lock()
	s.sort = sort
	s.mu.Unlock()
	return s.Fetch(ctx, 1)
}

// SetCurrency changes the currency filter and reloads from the first page.
// An empty id removes the filter.
func (s *Store) SetCurrency(ctx context.Context, currencyID string) error {
	s.mu.Lock()
	s.currencyID = currencyID
	s.mu.Unlock()
	return s.Fetch(ctx, 1)
}

// HasMore reports whether pages remain beyond the last fetched one.
func (s *Store) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta.CurrentPage < s.meta.TotalPageCount
}

// Transactions returns a snapshot of the merged pages.
func (s *Store) Transactions() []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}

// Meta returns the pagination metadata of the last fetch.
func (s *Store) Meta() models.ListMeta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}
