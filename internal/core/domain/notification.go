package domain

import "time"

// Notification is an append-only feed item addressed to a role or to a
// single user.
type Notification struct {
	ID            string    `json:"id" bson:"_id"`
	SenderID      string    `json:"sender_id" bson:"sender_id"`
	SenderName    string    `json:"sender_name" bson:"sender_name"`
	SenderRole    Role      `json:"sender_role" bson:"sender_role"`
	RecipientRole Role      `json:"recipient_role" bson:"recipient_role"`
	RecipientUID  string    `json:"recipient_uid,omitempty" bson:"recipient_uid,omitempty"`
	Title         string    `json:"title" bson:"title"`
	Message       string    `json:"message" bson:"message"`
	Timestamp     time.Time `json:"timestamp" bson:"timestamp"`
}

// NewNotification stamps sender identity from the acting user.
func NewNotification(from Actor, to Role, title, message string) Notification {
	return Notification{
		SenderID:      from.UID,
		SenderName:    from.Name,
		SenderRole:    from.Role,
		RecipientRole: to,
		Title:         title,
		Message:       message,
	}
}

// ForUser narrows the notification to a single recipient.
func (n Notification) ForUser(uid string) Notification {
	n.RecipientUID = uid
	return n
}
