package addresswatch

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// FeedMock is a testify mock for Feed.
type FeedMock struct {
	mock.Mock
}

func NewFeedMock(t *testing.T) *FeedMock {
	m := &FeedMock{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *FeedMock) Subscribe(ctx context.Context) (<-chan []byte, error) {
	args := m.Called(ctx)
	ch, _ := args.Get(0).(chan []byte)
	if ch == nil {
		return nil, args.Error(1)
	}
	return ch, args.Error(1)
}

// PriceConverterMock is a testify mock for PriceConverter.
type PriceConverterMock struct {
	mock.Mock
}

func NewPriceConverterMock(t *testing.T) *PriceConverterMock {
	m := &PriceConverterMock{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *PriceConverterMock) ConvertToUSD(ctx context.Context, symbol string, amount decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, symbol, amount)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// TransactionNotifierMock is a testify mock for TransactionNotifier.
type TransactionNotifierMock struct {
	mock.Mock
}

func NewTransactionNotifierMock(t *testing.T) *TransactionNotifierMock {
	m := &TransactionNotifierMock{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *TransactionNotifierMock) NotifyTransaction(ctx context.Context, n Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// NotificationJournalMock is a testify mock for NotificationJournal.
type NotificationJournalMock struct {
	mock.Mock
}

func NewNotificationJournalMock(t *testing.T) *NotificationJournalMock {
	m := &NotificationJournalMock{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *NotificationJournalMock) RecordNotification(ctx context.Context, n Notification, dispatchErr error) error {
	args := m.Called(ctx, n, dispatchErr)
	return args.Error(0)
}

// mapStore is an unbounded SightingStore for tests.
type mapStore struct {
	mu      sync.Mutex
	entries map[string]int
}

func newMapStore() *mapStore {
	return &mapStore{entries: make(map[string]int)}
}

func (s *mapStore) Sightings(txid string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count, ok := s.entries[txid]
	return count, ok
}

func (s *mapStore) SetSightings(txid string, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[txid] = count
}

func (s *mapStore) Forget(txid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, txid)
}

func (s *mapStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
