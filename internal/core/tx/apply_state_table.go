package tx

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dicehouse/diced/internal/core/ledger/entry"
	"github.com/dicehouse/diced/internal/core/ledger/keylet"
	"github.com/dicehouse/diced/internal/core/tx/sle"
)

// Action represents the type of modification to a ledger entry
type Action int

const (
	// ActionCache means the entry was read but not modified
	ActionCache Action = iota
	// ActionInsert means a new entry was created
	ActionInsert
	// ActionModify means an existing entry was modified
	ActionModify
	// ActionErase means an entry was deleted
	ActionErase
)

// TrackedEntry represents a ledger entry being tracked for changes
type TrackedEntry struct {
	Action   Action
	Original []byte // Original state (nil for inserts)
	Current  []byte // Current state (state before deletion for erases)
}

// ApplyStateTable wraps a LedgerView and buffers all modifications. The
// buffered changes commit to the base view in a single Apply() call, so a
// transactor that fails partway leaves no trace. Insert refuses keys that
// already exist — that refusal is the only duplicate-creation defense the
// engine has, and the only one it needs.
type ApplyStateTable struct {
	base   LedgerView
	items  map[[32]byte]*TrackedEntry
	units  uint64
	txHash [32]byte
	txSeq  uint64
}

// NewApplyStateTable creates a new ApplyStateTable wrapping the given base view
func NewApplyStateTable(base LedgerView, txHash [32]byte, txSeq uint64) *ApplyStateTable {
	return &ApplyStateTable{
		base:   base,
		items:  make(map[[32]byte]*TrackedEntry),
		txHash: txHash,
		txSeq:  txSeq,
	}
}

// Read reads a ledger entry, tracking it as cached
func (t *ApplyStateTable) Read(k keylet.Keylet) ([]byte, error) {
	if item, exists := t.items[k.Key]; exists {
		if item.Action == ActionErase {
			return nil, nil
		}
		return item.Current, nil
	}

	data, err := t.base.Read(k)
	if err != nil {
		return nil, err
	}

	// Only track entries that exist in the base
	if data != nil {
		t.items[k.Key] = &TrackedEntry{
			Action:   ActionCache,
			Original: data,
			Current:  data,
		}
	}

	return data, nil
}

// Exists checks if an entry exists
func (t *ApplyStateTable) Exists(k keylet.Keylet) (bool, error) {
	if item, exists := t.items[k.Key]; exists {
		return item.Action != ActionErase, nil
	}
	return t.base.Exists(k)
}

// Insert adds a new entry. Fails if an entry already exists at the key.
func (t *ApplyStateTable) Insert(k keylet.Keylet, data []byte) error {
	if item, exists := t.items[k.Key]; exists {
		if item.Action != ActionErase {
			return fmt.Errorf("entry already exists")
		}
		// Re-inserting a deleted entry becomes a modify
		item.Action = ActionModify
		item.Current = data
		return nil
	}

	exists, err := t.base.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("entry already exists")
	}

	t.items[k.Key] = &TrackedEntry{
		Action:   ActionInsert,
		Original: nil,
		Current:  data,
	}

	return nil
}

// Update modifies an existing entry
func (t *ApplyStateTable) Update(k keylet.Keylet, data []byte) error {
	if item, exists := t.items[k.Key]; exists {
		if item.Action == ActionErase {
			return fmt.Errorf("entry not found (deleted)")
		}
		if item.Action == ActionCache {
			item.Action = ActionModify
		}
		// For insert, keep it as insert with new data
		item.Current = data
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}

	t.items[k.Key] = &TrackedEntry{
		Action:   ActionModify,
		Original: original,
		Current:  data,
	}

	return nil
}

// Erase removes an entry
func (t *ApplyStateTable) Erase(k keylet.Keylet) error {
	if item, exists := t.items[k.Key]; exists {
		if item.Action == ActionErase {
			return fmt.Errorf("entry already deleted")
		}
		if item.Action == ActionInsert {
			// Inserting then deleting = no change
			delete(t.items, k.Key)
			return nil
		}
		// Current keeps the state before deletion (for metadata)
		item.Action = ActionErase
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}

	t.items[k.Key] = &TrackedEntry{
		Action:   ActionErase,
		Original: original,
		Current:  original,
	}

	return nil
}

// IsErased returns true if the entry at the given key has been erased.
func (t *ApplyStateTable) IsErased(k keylet.Keylet) bool {
	if item, exists := t.items[k.Key]; exists {
		return item.Action == ActionErase
	}
	return false
}

// AdjustUnitsDestroyed records destroyed native units
func (t *ApplyStateTable) AdjustUnitsDestroyed(units uint64) {
	t.units += units
}

// ForEach iterates over all state entries of the base view.
func (t *ApplyStateTable) ForEach(fn func(key [32]byte, data []byte) bool) error {
	return t.base.ForEach(fn)
}

// Apply commits all buffered changes to the base view and returns the
// generated metadata. Unchanged cached entries are skipped.
func (t *ApplyStateTable) Apply() (*Metadata, error) {
	metadata := &Metadata{
		AffectedNodes: make([]AffectedNode, 0),
	}

	for key, item := range t.items {
		switch item.Action {
		case ActionCache:
			continue

		case ActionInsert:
			metadata.AffectedNodes = append(metadata.AffectedNodes, buildAffectedNode("CreatedNode", key, nil, item.Current))
			if err := t.base.Insert(keylet.Keylet{Key: key}, item.Current); err != nil {
				return nil, err
			}

		case ActionModify:
			if bytes.Equal(item.Original, item.Current) {
				continue
			}
			metadata.AffectedNodes = append(metadata.AffectedNodes, buildAffectedNode("ModifiedNode", key, item.Original, item.Current))
			if err := t.base.Update(keylet.Keylet{Key: key}, item.Current); err != nil {
				return nil, err
			}

		case ActionErase:
			metadata.AffectedNodes = append(metadata.AffectedNodes, buildAffectedNode("DeletedNode", key, item.Original, item.Current))
			if err := t.base.Erase(keylet.Keylet{Key: key}); err != nil {
				return nil, err
			}
		}
	}

	if t.units > 0 {
		t.base.AdjustUnitsDestroyed(t.units)
	}

	return metadata, nil
}

// UnitsDestroyed returns the amount of native units destroyed
func (t *ApplyStateTable) UnitsDestroyed() uint64 {
	return t.units
}

// buildAffectedNode generates a metadata node from serialized entry states.
func buildAffectedNode(nodeType string, key [32]byte, original, current []byte) AffectedNode {
	typed := current
	if typed == nil {
		typed = original
	}
	entryType := entry.Type(sle.GetEntryType(typed)).String()

	node := AffectedNode{
		NodeType:        nodeType,
		LedgerEntryType: entryType,
		LedgerIndex:     strings.ToUpper(hex.EncodeToString(key[:])),
	}

	switch nodeType {
	case "CreatedNode":
		node.NewFields = extractEntryFields(current)
	case "ModifiedNode":
		node.FinalFields = extractEntryFields(current)
		node.PreviousFields = changedFields(extractEntryFields(original), node.FinalFields)
	case "DeletedNode":
		node.FinalFields = extractEntryFields(current)
	}

	return node
}

// changedFields returns the subset of previous fields whose value differs
// in the final state.
func changedFields(previous, final map[string]any) map[string]any {
	changed := make(map[string]any)
	for name, prevValue := range previous {
		if finalValue, ok := final[name]; !ok || fmt.Sprintf("%v", prevValue) != fmt.Sprintf("%v", finalValue) {
			changed[name] = prevValue
		}
	}
	if len(changed) == 0 {
		return nil
	}
	return changed
}

// extractEntryFields parses a serialized entry into a metadata field map.
func extractEntryFields(data []byte) map[string]any {
	if data == nil {
		return nil
	}

	switch entry.Type(sle.GetEntryType(data)) {
	case entry.TypeAccountRoot:
		a, err := sle.ParseAccountRoot(data)
		if err != nil {
			return nil
		}
		return map[string]any{
			"Account":    sle.EncodeAccountID(a.Account),
			"Balance":    fmt.Sprintf("%d", a.Balance),
			"Sequence":   a.Sequence,
			"OwnerCount": a.OwnerCount,
		}
	case entry.TypeVault:
		v, err := sle.ParseVault(data)
		if err != nil {
			return nil
		}
		return map[string]any{
			"House":   sle.EncodeAccountID(v.House),
			"Balance": fmt.Sprintf("%d", v.Balance),
			"Bump":    uint32(v.Bump),
		}
	case entry.TypeBet:
		b, err := sle.ParseBet(data)
		if err != nil {
			return nil
		}
		return map[string]any{
			"Player": sle.EncodeAccountID(b.Player),
			"Vault":  sle.EncodeAccountID(b.Vault),
			"Seed":   strings.ToUpper(hex.EncodeToString(b.Seed[:])),
			"Roll":   uint32(b.Roll),
			"Amount": fmt.Sprintf("%d", b.Amount),
			"Slot":   b.Slot,
		}
	default:
		return nil
	}
}
