package models

import (
	"time"

	"github.com/google/uuid"
)

type EmailNotificationPayload struct {
	Recipient string `json:"recipient"`
	Template  string `json:"template"`
	Subject   string `json:"subject"`
}

func NewEmailNotification(orderID, recipient, template, subject string) Envelope[EmailNotificationPayload] {
	return Envelope[EmailNotificationPayload]{
		ID:      uuid.NewString(),
		Type:    TopicNotificationsEmail,
		Version: 1,
		Time:    time.Now().UTC(),
		OrderID: orderID,
		Payload: EmailNotificationPayload{Recipient: recipient, Template: template, Subject: subject},
	}
}
