package id

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// UUIDGenerator issues random v4 ids for orders, sessions and idempotency keys.
type UUIDGenerator struct{}

func NewUUIDGenerator() UUIDGenerator { return UUIDGenerator{} }

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// ReferenceGenerator issues sortable payment references such as PAY-01J9Z....
type ReferenceGenerator struct {
	mu      sync.Mutex
	prefix  string
	entropy io.Reader
	now     func() time.Time
}

func NewReferenceGenerator(prefix string) *ReferenceGenerator {
	return &ReferenceGenerator{
		prefix:  prefix,
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

func (g *ReferenceGenerator) NewReference() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.prefix + ulid.MustNew(ulid.Timestamp(g.now()), g.entropy).String()
}
