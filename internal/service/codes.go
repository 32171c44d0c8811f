package service

import (
	"fmt"
	"hash/fnv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// directSeq disambiguates direct-issue codes minted within the same
// millisecond by one process.
var directSeq atomic.Uint64

// offerPrefix reduces an offer id to a short, stable code prefix.
// UUIDs keep their first block; anything else is truncated.
func offerPrefix(offerID string) string {
	p := strings.ToUpper(offerID)
	if i := strings.IndexByte(p, '-'); i > 0 {
		p = p[:i]
	}
	if len(p) > 8 {
		p = p[:8]
	}
	return p
}

// offerDigest hashes the full offer id. Code prefixes keep only the id's
// first block for readability, so codes additionally carry this digest to
// keep offers with a shared prefix from colliding.
func offerDigest(offerID string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(offerID))
	return h.Sum32()
}

// placeholderCode derives a deterministic code from the offer and an
// ordinal. Re-running placeholder issuance after a partial failure
// regenerates the same codes, so the unique constraint absorbs the
// rows that already exist.
func placeholderCode(offerID string, ordinal int) string {
	return fmt.Sprintf("CPN-%s-%08X-%06d", offerPrefix(offerID), offerDigest(offerID), ordinal)
}

// directCode mints a code for a directly issued instance. The unix-milli
// timestamp plus a process-wide sequence keeps codes distinct under burst
// traffic.
func directCode(offerID string, now time.Time) string {
	seq := directSeq.Add(1) % 100000
	return fmt.Sprintf("CPN-%s-%d-%05d", offerPrefix(offerID), now.UnixMilli(), seq)
}

// idempotentCode derives a stable code from the caller-supplied idempotency
// key. A retry of the same logical request regenerates the same code, so the
// insert conflicts instead of duplicating and the original row can be
// returned. The recipient is part of the anchor: the key dedupes one user's
// retries, it must never alias two users onto one instance.
func idempotentCode(offerID, recipientID, idemKey string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(offerID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(recipientID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(idemKey))
	return fmt.Sprintf("CPN-%s-IK%016X", offerPrefix(offerID), h.Sum64())
}

// shareCode mints a code for the receiver's instance of a share. Freshness
// matters more than determinism here, so a random UUID block is used.
func shareCode(offerID string) string {
	block := strings.ToUpper(uuid.NewString())
	if i := strings.IndexByte(block, '-'); i > 0 {
		block = block[:i]
	}
	return fmt.Sprintf("CPN-%s-S%s", offerPrefix(offerID), block)
}
