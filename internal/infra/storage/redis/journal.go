package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/gabapcia/hosewatch/internal/addresswatch"

	"github.com/redis/go-redis/v9"
)

// journalKeyPrefix is the namespace prefix for all notification journal keys.
const journalKeyPrefix = "hosewatch"

const (
	journalOutcomeDelivered = "delivered"
	journalOutcomeFailed    = "failed"
)

// journalKey builds the stream key holding the notifications of one network:
//
//	"hosewatch:notifications:<network>"
func journalKey(network string) string {
	return fmt.Sprintf("%s:notifications:%s", journalKeyPrefix, network)
}

// journalEntry flattens a dispatch attempt into stream fields.
func journalEntry(n addresswatch.Notification, dispatchErr error) map[string]any {
	entry := map[string]any{
		"id":             n.ID,
		"address":        n.Address,
		"symbol":         n.Symbol,
		"txid":           n.TxID,
		"balance_change": n.BalanceChange,
		"fiat":           n.Fiat.String(),
		"explorer_url":   n.ExplorerURL,
		"observed_at":    n.ObservedAt.UTC().Format(time.RFC3339Nano),
		"outcome":        journalOutcomeDelivered,
	}

	if dispatchErr != nil {
		entry["outcome"] = journalOutcomeFailed
		entry["error"] = dispatchErr.Error()
	}

	return entry
}

// RecordNotification appends the dispatch attempt to the network's journal
// stream, trimming the stream to roughly journalMaxLen entries.
func (c *client) RecordNotification(ctx context.Context, n addresswatch.Notification, dispatchErr error) error {
	return c.conn.XAdd(ctx, &redis.XAddArgs{
		Stream: journalKey(n.Network),
		MaxLen: c.journalMaxLen,
		Approx: true,
		Values: journalEntry(n, dispatchErr),
	}).Err()
}

// Compile-time assertion to ensure client implements the NotificationJournal interface.
var _ addresswatch.NotificationJournal = new(client)
