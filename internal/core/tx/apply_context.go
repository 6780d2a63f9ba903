package tx

// ApplyContext provides all the state and helpers needed to apply a
// transaction. It is passed to Appliable.Apply() instead of individual
// parameters.
type ApplyContext struct {
	// View provides read/write access to ledger state (the ApplyStateTable)
	View LedgerView

	// Account is the source account (mutable, written back by the engine)
	Account *AccountRoot

	// AccountID is the decoded source account identifier
	AccountID [32]byte

	// Config holds engine configuration (reserves, slot, game parameters)
	Config EngineConfig

	// TxHash is the hash of the current transaction
	TxHash [32]byte

	// Metadata allows transactors to set DeliveredAmount
	Metadata *Metadata
}

// AccountReserve calculates the total reserve required for an account with
// the given owner count. Reserve = ReserveBase + ownerCount * ReserveIncrement.
func (ctx *ApplyContext) AccountReserve(ownerCount uint32) uint64 {
	return ctx.Config.ReserveBase + (uint64(ownerCount) * ctx.Config.ReserveIncrement)
}

// CheckReserveIncrease validates that an account can afford the reserve
// increase for creating a new ledger entry.
func (ctx *ApplyContext) CheckReserveIncrease(priorBalance uint64, currentOwnerCount uint32) Result {
	if priorBalance < ctx.AccountReserve(currentOwnerCount+1) {
		return TecINSUFFICIENT_RESERVE
	}
	return TesSUCCESS
}

// Slot returns the ledger sequence the transaction applies in.
func (ctx *ApplyContext) Slot() uint64 {
	return ctx.Config.LedgerSequence
}
