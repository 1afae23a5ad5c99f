// Package meta reconstructs fill events and balance deltas from ledger
// transaction metadata change sets.
package meta

import "time"

// rippleEpochOffset is the number of seconds between the Unix epoch and the
// ledger's native epoch (2000-01-01T00:00:00Z). Ledger timestamps are seconds
// since the ripple epoch and must be shifted by exactly this constant.
const rippleEpochOffset int64 = 946684800

// FromRippleTime converts a ledger-native timestamp to absolute time.
func FromRippleTime(secs uint32) time.Time {
	return time.Unix(int64(secs)+rippleEpochOffset, 0).UTC()
}

// ToRippleTime converts absolute time to a ledger-native timestamp.
func ToRippleTime(t time.Time) uint32 {
	return uint32(t.Unix() - rippleEpochOffset)
}
