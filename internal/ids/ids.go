// Package ids generates the opaque primary keys used across the identity
// schema: users, sessions, roles, permissions and request ids. ULIDs keep
// created_at ordering without a dedicated sort column.
package ids

import (
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// monotonic entropy is not safe for concurrent use; New is called from
// request handlers, so guard it.
var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// New returns a fresh lexicographically sortable identifier.
func New() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
