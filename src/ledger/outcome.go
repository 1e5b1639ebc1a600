package ledger

// Outcome is the verdict of the Ledger on a Block.
type Outcome uint8

const (
	// Accepted means every check passed.
	Accepted Outcome = iota
	// BadSignature means an entry signature does not verify against the block
	// content hash.
	BadSignature
	// SequenceMismatch means an entry does not directly follow the latest
	// sequence of its account.
	SequenceMismatch
	// UnconservedBalance means the block creates value.
	UnconservedBalance
	// DuplicateAccountInBlock means an account has more than one entry.
	DuplicateAccountInBlock
	// UnknownAccountNotOpen means an entry of an account without any record
	// does not carry sequence 0.
	UnknownAccountNotOpen
	// EmptyBlock means the block has no entries.
	EmptyBlock
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "Accepted"
	case BadSignature:
		return "BadSignature"
	case SequenceMismatch:
		return "SequenceMismatch"
	case UnconservedBalance:
		return "UnconservedBalance"
	case DuplicateAccountInBlock:
		return "DuplicateAccountInBlock"
	case UnknownAccountNotOpen:
		return "UnknownAccountNotOpen"
	case EmptyBlock:
		return "EmptyBlock"
	default:
		return "Unknown"
	}
}

// Rejected returns true for every Outcome but Accepted.
func (o Outcome) Rejected() bool {
	return o != Accepted
}
