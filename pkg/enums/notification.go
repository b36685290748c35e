package enums

// NotificationType classifies persisted user notifications.
type NotificationType string

const (
	NotificationTypeOrderStatus  NotificationType = "order_status"
	NotificationTypeReturnStatus NotificationType = "return_status"
	NotificationTypePayment      NotificationType = "payment"
	NotificationTypeLowStock     NotificationType = "low_stock"
	NotificationTypeDesignReview NotificationType = "design_review"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderStatus,
	NotificationTypeReturnStatus,
	NotificationTypePayment,
	NotificationTypeLowStock,
	NotificationTypeDesignReview,
}

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}
