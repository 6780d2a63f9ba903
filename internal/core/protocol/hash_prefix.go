package protocol

// HashPrefix provides domain separation for the daemon's hashing
// contexts: two hashes computed for different purposes can never
// collide because every context mixes in its own four-byte prefix.
type HashPrefix [4]byte

var (
	// HashPrefixLedgerMaster is used for calculating ledger hashes
	HashPrefixLedgerMaster = HashPrefix{'L', 'W', 'R', 0x00}

	// HashPrefixInnerNode is used for interior hashes of the state tree
	HashPrefixInnerNode = HashPrefix{'M', 'I', 'N', 0x00}

	// HashPrefixStateLeaf is used for state entry leaf hashes
	HashPrefixStateLeaf = HashPrefix{'M', 'L', 'N', 0x00}

	// HashPrefixTxNode is used for transaction-with-metadata leaf hashes
	HashPrefixTxNode = HashPrefix{'S', 'N', 'D', 0x00}

	// HashPrefixTransaction is used for signing transactions
	HashPrefixTransaction = HashPrefix{'S', 'T', 'X', 0x00}

	// HashPrefixTransactionID is used for computing transaction IDs
	HashPrefixTransactionID = HashPrefix{'T', 'X', 'N', 0x00}
)

// Bytes returns the prefix as a byte slice
func (h HashPrefix) Bytes() []byte {
	return h[:]
}
