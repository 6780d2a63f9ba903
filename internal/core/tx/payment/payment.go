// Package payment implements the Payment transaction: a native unit
// transfer that creates the destination account when it does not exist.
package payment

import (
	"errors"
	"strconv"

	"github.com/dicehouse/diced/internal/core/ledger/keylet"
	"github.com/dicehouse/diced/internal/core/tx"
	"github.com/dicehouse/diced/internal/core/tx/sle"
)

func init() {
	tx.Register(tx.TypePayment, func() tx.Transaction {
		return &Payment{BaseTx: *tx.NewBaseTx(tx.TypePayment, "")}
	})
}

// Payment moves native units between accounts.
type Payment struct {
	tx.BaseTx

	// Amount is the number of native units to deliver (required)
	Amount string `json:"Amount"`

	// Destination is the account to receive the units (required)
	Destination string `json:"Destination"`
}

// NewPayment creates a new Payment transaction
func NewPayment(account, destination string, amount uint64) *Payment {
	return &Payment{
		BaseTx:      *tx.NewBaseTx(tx.TypePayment, account),
		Amount:      strconv.FormatUint(amount, 10),
		Destination: destination,
	}
}

// Validate validates the Payment transaction
func (p *Payment) Validate() error {
	if err := p.BaseTx.Validate(); err != nil {
		return err
	}

	if p.Destination == "" {
		return errors.New("temDST_NEEDED: Destination is required")
	}
	if p.Destination == p.Account {
		return errors.New("temINVALID: cannot send to self")
	}

	amount, err := strconv.ParseUint(p.Amount, 10, 64)
	if err != nil || amount == 0 {
		return errors.New("temBAD_AMOUNT: Amount must be a positive integer")
	}

	return nil
}

// Flatten returns a flat map of all transaction fields
func (p *Payment) Flatten() (map[string]any, error) {
	m := p.Common.ToMap()
	m["Amount"] = p.Amount
	m["Destination"] = p.Destination
	return m, nil
}

// Apply applies a Payment transaction
func (p *Payment) Apply(ctx *tx.ApplyContext) tx.Result {
	amount, err := strconv.ParseUint(p.Amount, 10, 64)
	if err != nil {
		return tx.TemINVALID
	}

	destID, err := sle.DecodeAccountID(p.Destination)
	if err != nil {
		return tx.TemINVALID
	}

	if ctx.Account.Balance < amount {
		return tx.TecUNFUNDED
	}

	destKey := keylet.Account(destID)
	destData, err := ctx.View.Read(destKey)
	if err != nil {
		return tx.TefINTERNAL
	}

	if destData == nil {
		// Funding a new account: the delivered amount must cover the
		// base reserve, otherwise the account would be immediately
		// below its own floor.
		if amount < ctx.Config.ReserveBase {
			return tx.TecNO_DST
		}

		dest := &sle.AccountRoot{
			Account:           destID,
			Balance:           amount,
			Sequence:          1,
			PreviousTxnID:     ctx.TxHash,
			PreviousTxnLgrSeq: ctx.Slot(),
		}
		newData, serErr := sle.SerializeAccountRoot(dest)
		if serErr != nil {
			return tx.TefINTERNAL
		}
		if err := ctx.View.Insert(destKey, newData); err != nil {
			return tx.TefINTERNAL
		}
	} else {
		dest, parseErr := sle.ParseAccountRoot(destData)
		if parseErr != nil {
			return tx.TefINTERNAL
		}

		newBalance, ok := tx.CheckedAdd(dest.Balance, amount)
		if !ok {
			return tx.TecOVERFLOW
		}
		dest.Balance = newBalance
		dest.PreviousTxnID = ctx.TxHash
		dest.PreviousTxnLgrSeq = ctx.Slot()

		newData, serErr := sle.SerializeAccountRoot(dest)
		if serErr != nil {
			return tx.TefINTERNAL
		}
		if err := ctx.View.Update(destKey, newData); err != nil {
			return tx.TefINTERNAL
		}
	}

	ctx.Account.Balance -= amount
	ctx.Metadata.DeliveredAmount = amount

	return tx.TesSUCCESS
}
