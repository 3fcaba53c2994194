package cache

import "time"

// Export internal functions for testing.
// This file is only compiled during tests (suffix _test.go).

// RetryOnBusy exports retryOnBusy for testing.
var RetryOnBusy = retryOnBusy

// IsSQLiteBusy exports isSQLiteBusy for testing.
var IsSQLiteBusy = isSQLiteBusy

// SetLedgerClock replaces the ledger's time source.
func SetLedgerClock(l *Ledger, now func() time.Time) {
	l.now = now
}
