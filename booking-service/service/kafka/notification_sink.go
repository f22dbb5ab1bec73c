package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arunvm123/concertbooking/booking-service/model"
	"github.com/arunvm123/concertbooking/booking-service/service"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer the sink needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NotificationSink publishes notifications to the notification topic where
// the notification service picks them up for delivery
type NotificationSink struct {
	writer MessageWriter
}

func NewNotificationSink(writer MessageWriter) *NotificationSink {
	return &NotificationSink{writer: writer}
}

// NewWriter creates a synchronous writer for the notification topic
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
}

func (s *NotificationSink) Send(ctx context.Context, n service.Notification) error {
	msg := model.NotificationRequest{
		Type:           string(n.Type),
		BookingID:      n.BookingID,
		RecipientEmail: n.To,
		Subject:        n.Subject,
		HTMLBody:       n.HTMLBody,
		TextBody:       n.TextBody,
		Timestamp:      time.Now().UTC(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(n.BookingID),
		Value: data,
	})
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	return nil
}
