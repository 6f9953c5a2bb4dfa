package bridge

import (
	"log"

	"github.com/sarchlab/axi2wb/sim"
)

// TransactionLogger is a hook that prints every upstream transaction when it
// is accepted and when its response is taken.
type TransactionLogger struct {
	sim.LogHookBase

	timeTeller sim.TimeTeller
}

// NewTransactionLogger creates a TransactionLogger that writes to the logger.
func NewTransactionLogger(
	logger *log.Logger,
	timeTeller sim.TimeTeller,
) *TransactionLogger {
	h := &TransactionLogger{timeTeller: timeTeller}
	h.Logger = logger

	return h
}

// Func logs the transaction.
func (h *TransactionLogger) Func(ctx sim.HookCtx) {
	txn, ok := ctx.Item.(Transaction)
	if !ok {
		return
	}

	kind := "read"
	if txn.Write {
		kind = "write"
	}

	name := ""
	if domain, ok := ctx.Domain.(sim.Named); ok {
		name = domain.Name()
	}

	now := h.timeTeller.CurrentTime()

	switch ctx.Pos {
	case HookPosTransactionStart:
		status := "accepted"
		if txn.Rejected {
			status = "rejected"
		}

		h.Printf("%.10f, %s, %s %s, id=%d, addr=0x%08x",
			now, name, kind, status, txn.ID, txn.Addr)
	case HookPosTransactionEnd:
		h.Printf("%.10f, %s, %s done, id=%d, resp=%s",
			now, name, kind, txn.ID, txn.Resp)
	}
}
