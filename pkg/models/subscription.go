package models

// Subscription is one chat's notification preferences. Created or
// reactivated on first bot contact.
type Subscription struct {
	ChatID               int64    `json:"chatId"`
	SubscribedTo         Subjects `json:"subscribedTo"`
	NotifyNewEmployee    bool     `json:"notifyNewEmployee"`
	NotifyDeleteEmployee bool     `json:"notifyDeleteEmployee"`
	Active               bool     `json:"active"`
}

// NewSubscription returns the default subscription created on first /start:
// subscribed to everyone, all roster notifications on.
func NewSubscription(chatID int64) Subscription {
	return Subscription{
		ChatID:               chatID,
		SubscribedTo:         AllEmployees(),
		NotifyNewEmployee:    true,
		NotifyDeleteEmployee: true,
		Active:               true,
	}
}
