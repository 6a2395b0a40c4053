package journal

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// referencePrefix keeps reference numbers recognizable on statements
// and in support conversations.
const referencePrefix = "TXN-"

// ReferenceGenerator produces candidate reference numbers. The journal
// still verifies uniqueness against storage; generation only has to be
// collision-resistant, not collision-free.
type ReferenceGenerator interface {
	Next() string
}

// ulidGenerator issues "TXN-<ULID>" references. ULIDs sort by creation
// time, which keeps the journal's audit listing naturally ordered.
type ulidGenerator struct{}

// NewReferenceGenerator creates the default ULID-backed generator.
func NewReferenceGenerator() ReferenceGenerator {
	return ulidGenerator{}
}

func (ulidGenerator) Next() string {
	return referencePrefix + ulid.MustNew(ulid.Now(), rand.Reader).String()
}
