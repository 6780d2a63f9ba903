package tx

import "fmt"

// Result represents a transaction result code
type Result int

// Transaction result codes, organized by category: tes, tec, tef, tel, tem, ter.
// The bands keep their conventional meanings: tes applied successfully,
// tec applied but only the fee was claimed, tef/tem/tel/ter not applied.
const (
	// tesSUCCESS (0-99)
	TesSUCCESS Result = 0

	// tec codes (100-199): transaction failed but claimed the fee
	TecCLAIM                Result = 100
	TecNO_DST               Result = 124
	TecUNFUNDED             Result = 129
	TecNO_TARGET            Result = 138
	TecNO_PERMISSION        Result = 139
	TecINSUFFICIENT_RESERVE Result = 141
	TecINTERNAL             Result = 144
	TecDUPLICATE            Result = 149
	TecTOO_SOON             Result = 152
	TecOVERFLOW             Result = 153

	// tef codes (-199 to -100): failed, not applied, not retriable
	TefFAILURE       Result = -199
	TefALREADY       Result = -198
	TefBAD_AUTH      Result = -196
	TefINTERNAL      Result = -192
	TefPAST_SEQ      Result = -190
	TefMAX_LEDGER    Result = -187
	TefBAD_SIGNATURE Result = -186

	// tel codes (-399 to -300): local error
	TelLOCAL_ERROR   Result = -399
	TelINSUF_FEE_P   Result = -394
	TelWRONG_NETWORK Result = -386

	// tem codes (-299 to -200): malformed transaction
	TemMALFORMED       Result = -299
	TemBAD_AMOUNT      Result = -298
	TemBAD_FEE         Result = -295
	TemBAD_SEQUENCE    Result = -283
	TemBAD_SIGNATURE   Result = -282
	TemBAD_SRC_ACCOUNT Result = -281
	TemDST_NEEDED      Result = -279
	TemINVALID         Result = -277
	TemBAD_ROLL        Result = -275

	// ter codes (-99 to -1): failed, retriable in a later ledger
	TerRETRY       Result = -99
	TerNO_ACCOUNT  Result = -96
	TerINSUF_FEE_B Result = -94
	TerPRE_SEQ     Result = -92
)

// String returns the canonical code name
func (r Result) String() string {
	switch r {
	case TesSUCCESS:
		return "tesSUCCESS"
	case TecCLAIM:
		return "tecCLAIM"
	case TecNO_DST:
		return "tecNO_DST"
	case TecUNFUNDED:
		return "tecUNFUNDED"
	case TecNO_TARGET:
		return "tecNO_TARGET"
	case TecNO_PERMISSION:
		return "tecNO_PERMISSION"
	case TecINSUFFICIENT_RESERVE:
		return "tecINSUFFICIENT_RESERVE"
	case TecINTERNAL:
		return "tecINTERNAL"
	case TecDUPLICATE:
		return "tecDUPLICATE"
	case TecTOO_SOON:
		return "tecTOO_SOON"
	case TecOVERFLOW:
		return "tecOVERFLOW"
	case TefFAILURE:
		return "tefFAILURE"
	case TefALREADY:
		return "tefALREADY"
	case TefBAD_AUTH:
		return "tefBAD_AUTH"
	case TefINTERNAL:
		return "tefINTERNAL"
	case TefPAST_SEQ:
		return "tefPAST_SEQ"
	case TefMAX_LEDGER:
		return "tefMAX_LEDGER"
	case TefBAD_SIGNATURE:
		return "tefBAD_SIGNATURE"
	case TelLOCAL_ERROR:
		return "telLOCAL_ERROR"
	case TelINSUF_FEE_P:
		return "telINSUF_FEE_P"
	case TelWRONG_NETWORK:
		return "telWRONG_NETWORK"
	case TemMALFORMED:
		return "temMALFORMED"
	case TemBAD_AMOUNT:
		return "temBAD_AMOUNT"
	case TemBAD_FEE:
		return "temBAD_FEE"
	case TemBAD_SEQUENCE:
		return "temBAD_SEQUENCE"
	case TemBAD_SIGNATURE:
		return "temBAD_SIGNATURE"
	case TemBAD_SRC_ACCOUNT:
		return "temBAD_SRC_ACCOUNT"
	case TemDST_NEEDED:
		return "temDST_NEEDED"
	case TemINVALID:
		return "temINVALID"
	case TemBAD_ROLL:
		return "temBAD_ROLL"
	case TerRETRY:
		return "terRETRY"
	case TerNO_ACCOUNT:
		return "terNO_ACCOUNT"
	case TerINSUF_FEE_B:
		return "terINSUF_FEE_B"
	case TerPRE_SEQ:
		return "terPRE_SEQ"
	default:
		return fmt.Sprintf("unknownResult(%d)", int(r))
	}
}

// IsSuccess returns true if the transaction succeeded
func (r Result) IsSuccess() bool {
	return r == TesSUCCESS
}

// IsTec returns true for tec codes (fee claimed, effects discarded)
func (r Result) IsTec() bool {
	return r >= 100 && r < 200
}

// IsTef returns true for tef codes
func (r Result) IsTef() bool {
	return r >= -199 && r <= -100
}

// IsTel returns true for tel codes
func (r Result) IsTel() bool {
	return r >= -399 && r <= -300
}

// IsTem returns true for tem codes
func (r Result) IsTem() bool {
	return r >= -299 && r <= -200
}

// IsTer returns true for ter codes
func (r Result) IsTer() bool {
	return r >= -99 && r <= -1
}

// ShouldRetry returns true if the transaction may succeed in a later ledger
func (r Result) ShouldRetry() bool {
	return r.IsTer()
}

// IsApplied returns true if the transaction modified the ledger
// (success, or a tec code that claimed the fee)
func (r Result) IsApplied() bool {
	return r.IsSuccess() || r.IsTec()
}

// Message returns a human-readable description of the result
func (r Result) Message() string {
	switch r {
	case TesSUCCESS:
		return "The transaction was applied."
	case TecCLAIM:
		return "Fee claimed. Transaction did not achieve its intended purpose."
	case TecNO_DST:
		return "Destination does not exist."
	case TecUNFUNDED:
		return "Insufficient balance to fund the operation."
	case TecNO_TARGET:
		return "Target entry does not exist."
	case TecNO_PERMISSION:
		return "No permission to perform the requested operation."
	case TecINSUFFICIENT_RESERVE:
		return "Insufficient reserve to create a new entry."
	case TecINTERNAL:
		return "An internal error occurred during processing."
	case TecDUPLICATE:
		return "An entry already exists at the derived address."
	case TecTOO_SOON:
		return "The timeout threshold has not been reached."
	case TecOVERFLOW:
		return "Arithmetic overflow or underflow in balance computation."
	case TefBAD_AUTH:
		return "Transaction signed by an unauthorized key."
	case TefBAD_SIGNATURE:
		return "A signature is provably corrupt."
	case TefINTERNAL:
		return "An internal error occurred during validation."
	case TefPAST_SEQ:
		return "This sequence number has already passed."
	case TefMAX_LEDGER:
		return "Ledger sequence too high."
	case TelINSUF_FEE_P:
		return "Fee insufficient."
	case TelWRONG_NETWORK:
		return "Transaction specifies a different network."
	case TemMALFORMED:
		return "Malformed transaction."
	case TemBAD_AMOUNT:
		return "Malformed: bad amount."
	case TemBAD_FEE:
		return "Malformed: bad fee."
	case TemBAD_SEQUENCE:
		return "Malformed: sequence is not in the current ledger."
	case TemBAD_SIGNATURE:
		return "Malformed: bad signature."
	case TemBAD_SRC_ACCOUNT:
		return "Malformed: bad source account."
	case TemDST_NEEDED:
		return "Malformed: destination account needed."
	case TemINVALID:
		return "Malformed: invalid transaction."
	case TemBAD_ROLL:
		return "Malformed: roll target out of range."
	case TerNO_ACCOUNT:
		return "The source account does not exist."
	case TerINSUF_FEE_B:
		return "Account balance cannot cover the fee."
	case TerPRE_SEQ:
		return "Missing or prior sequence."
	default:
		return r.String()
	}
}
