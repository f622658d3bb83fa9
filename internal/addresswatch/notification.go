package addresswatch

import (
	"context"
	"time"
)

// Notification describes one newly observed transaction, ready to be rendered
// by a TransactionNotifier.
type Notification struct {
	ID            string           // UUIDv7 correlating logs, journal and dispatch
	Network       string           // watcher network name (e.g. "bitcoin")
	Address       string           // watched address
	Symbol        string           // asset symbol (e.g. "BTC")
	TxID          string           // feed-assigned transaction id
	BalanceChange string           // balance change literal as reported by the feed
	Fiat          ConversionResult // USD value of the balance change, or unavailable
	ExplorerURL   string           // block explorer link for the transaction
	IconURL       string           // network icon
	ObservedAt    time.Time        // when the first sighting was handled (UTC)
}

// TransactionNotifier delivers a Notification to an external sink (e.g. a chat
// webhook). Delivery is attempted once; errors are reported, never retried by
// the watcher.
type TransactionNotifier interface {
	NotifyTransaction(ctx context.Context, n Notification) error
}

// NotificationJournal records every dispatch attempt and its outcome.
// dispatchErr is nil when the notifier succeeded.
type NotificationJournal interface {
	RecordNotification(ctx context.Context, n Notification, dispatchErr error) error
}

// nopJournal is the default NotificationJournal; it records nothing.
type nopJournal struct{}

func (nopJournal) RecordNotification(context.Context, Notification, error) error { return nil }
