package domain

// Kind is the cash-flow classification of a transaction.
type Kind int

const (
	KindExpense Kind = iota
	KindIncome
	KindTransfer
)

func (k Kind) String() string {
	switch k {
	case KindIncome:
		return "income"
	case KindTransfer:
		return "transfer"
	default:
		return "expense"
	}
}
