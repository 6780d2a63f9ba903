package sle

// AffectedNode describes one ledger entry touched by a transaction, as it
// appears in transaction metadata.
type AffectedNode struct {
	NodeType        string         `json:"NodeType"` // CreatedNode, ModifiedNode, DeletedNode
	LedgerEntryType string         `json:"LedgerEntryType"`
	LedgerIndex     string         `json:"LedgerIndex"`
	NewFields       map[string]any `json:"NewFields,omitempty"`
	FinalFields     map[string]any `json:"FinalFields,omitempty"`
	PreviousFields  map[string]any `json:"PreviousFields,omitempty"`
}
