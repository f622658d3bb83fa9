package addresswatch

// Stage classifies one sighting of a transaction id.
type Stage uint8

const (
	// StageNew is the first sighting of a txid. Only this stage triggers a notification.
	StageNew Stage = iota + 1

	// StageValidating is any follow-up sighting before settlement.
	StageValidating

	// StageSettled is the sighting that completes the lifecycle; the txid is forgotten.
	StageSettled
)

// String implements fmt.Stringer.
func (s Stage) String() string {
	switch s {
	case StageNew:
		return "new"
	case StageValidating:
		return "validating"
	case StageSettled:
		return "settled"
	default:
		return "unknown"
	}
}

const (
	// DefaultSightingsToSettle matches the feed's lifecycle of a transaction:
	// initiated, validating, confirmed.
	DefaultSightingsToSettle = 3

	// minSightingsToSettle keeps room for at least the New and Settled stages.
	minSightingsToSettle = 2
)

// SightingStore holds the number of times each in-flight txid has been seen.
//
// Implementations decide the retention policy (TTL, capacity). A txid the store
// no longer holds is indistinguishable from one never seen.
type SightingStore interface {
	// Sightings returns the recorded count for txid and whether an entry exists.
	Sightings(txid string) (int, bool)

	// SetSightings creates or overwrites the entry for txid.
	SetSightings(txid string, count int)

	// Forget removes the entry for txid, if any.
	Forget(txid string)
}

// tracker is the transaction lifecycle state machine. It is only driven from
// the watcher's frame loop, so it performs no locking of its own.
type tracker struct {
	store             SightingStore
	sightingsToSettle int
}

func newTracker(store SightingStore, sightingsToSettle int) *tracker {
	return &tracker{
		store:             store,
		sightingsToSettle: max(sightingsToSettle, minSightingsToSettle),
	}
}

// observe records one sighting of txid and classifies it:
//
//   - no entry: store 1, New
//   - entry below the threshold after this sighting: increment, Validating
//   - entry reaching the threshold: forget, Settled
func (t *tracker) observe(txid string) Stage {
	count, ok := t.store.Sightings(txid)
	if !ok {
		t.store.SetSightings(txid, 1)
		return StageNew
	}

	count++
	if count >= t.sightingsToSettle {
		t.store.Forget(txid)
		return StageSettled
	}

	t.store.SetSightings(txid, count)
	return StageValidating
}
