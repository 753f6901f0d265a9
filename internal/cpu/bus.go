package cpu

import (
	"github.com/pkg/errors"

	"go6502/internal/memory"
)

type pendingWrite struct {
	address uint16
	value   uint8
}

// transaction is the CPU's view of memory during one step. Writes are
// staged and only reach the real memory on commit, and the first access
// outside a bounded memory is latched as a fault. A failed step is rolled
// back by discarding the transaction.
type transaction struct {
	mem     memory.Memory
	bounded memory.Bounded
	writes  []pendingWrite
	fault   error
}

func newTransaction(mem memory.Memory) *transaction {
	tx := &transaction{mem: mem, writes: make([]pendingWrite, 0, 4)}
	if b, ok := mem.(memory.Bounded); ok {
		tx.bounded = b
	}
	return tx
}

func (tx *transaction) check(address uint16, access string) bool {
	if tx.fault != nil {
		return false
	}
	if tx.bounded != nil && !tx.bounded.Contains(address) {
		tx.fault = errors.Wrapf(ErrMemoryFault, "%s $%04X", access, address)
		return false
	}
	return true
}

func (tx *transaction) Read(address uint16) uint8 {
	if !tx.check(address, "read") {
		return 0
	}
	for i := len(tx.writes) - 1; i >= 0; i-- {
		if tx.writes[i].address == address {
			return tx.writes[i].value
		}
	}
	return tx.mem.Read(address)
}

func (tx *transaction) Write(address uint16, value uint8) {
	if !tx.check(address, "write") {
		return
	}
	tx.writes = append(tx.writes, pendingWrite{address, value})
}

func (tx *transaction) commit() {
	for _, w := range tx.writes {
		tx.mem.Write(w.address, w.value)
	}
	tx.reset()
}

func (tx *transaction) reset() {
	tx.writes = tx.writes[:0]
	tx.fault = nil
}
