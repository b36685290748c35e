package enums

// RefundStatus reflects the terminal state of a refund audit record.
type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusCompleted RefundStatus = "completed"
	RefundStatusFailed    RefundStatus = "failed"
)

// String implements fmt.Stringer.
func (r RefundStatus) String() string {
	return string(r)
}
