package enums

// WithdrawalStatus is the outcome of a standard-list withdrawal.
type WithdrawalStatus string

const (
	WithdrawalCompleted         WithdrawalStatus = "completed"
	WithdrawalInsufficientStock WithdrawalStatus = "insufficient_stock"
)

// String implements fmt.Stringer.
func (w WithdrawalStatus) String() string {
	return string(w)
}
