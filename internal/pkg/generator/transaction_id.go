package generator

import (
	"fmt"
	"sync"

	"github.com/yuzvak/storefront/internal/pkg/clock"
)

// TransactionIDGenerator issues "<prefix>-<unix millis>" identifiers. Within one
// process the millisecond part never repeats: a clash with the previous value is
// bumped forward by one.
type TransactionIDGenerator struct {
	prefix string
	clock  clock.Clock

	mu   sync.Mutex
	last int64
}

func NewTransactionIDGenerator(prefix string, clk clock.Clock) *TransactionIDGenerator {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &TransactionIDGenerator{
		prefix: prefix,
		clock:  clk,
	}
}

func (g *TransactionIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	millis := g.clock.Now().UnixMilli()
	if millis <= g.last {
		millis = g.last + 1
	}
	g.last = millis

	return fmt.Sprintf("%s-%d", g.prefix, millis)
}
