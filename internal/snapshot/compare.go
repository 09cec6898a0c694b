package snapshot

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefix for snapshot content hashes. Version suffix enables future
// algorithm migration.
const hashDomain = "draftsync/snapshot/v1"

// Hash computes the SHA-256 content hash of a snapshot's canonical bytes.
// Used for cheap change detection and for correlating save attempts in logs.
//
// Format: SHA256(domain + 0x00 + canonical bytes). The null separator
// prevents domain/data boundary ambiguity.
func Hash(v Value) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(hashDomain))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Equal reports deep structural equality between two snapshots. Snapshots
// are rebuilt values on every edit, so reference comparison is meaningless;
// equality is defined as identical canonical bytes.
//
// A nil on either side is only equal to a nil on the other.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ab, errA := MarshalCanonical(a)
	bb, errB := MarshalCanonical(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// Changed is the autosave change comparator: it reports whether cur differs
// from prev. It fails safe - if either snapshot cannot be canonicalized the
// answer is "changed", so a malformed snapshot triggers a save rather than
// silently skipping one.
func Changed(prev, cur Value) bool {
	if prev == nil && cur == nil {
		return false
	}
	if prev == nil || cur == nil {
		return true
	}
	pb, err := MarshalCanonical(prev)
	if err != nil {
		return true
	}
	cb, err := MarshalCanonical(cur)
	if err != nil {
		return true
	}
	return !bytes.Equal(pb, cb)
}
