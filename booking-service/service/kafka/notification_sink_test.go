package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/arunvm123/concertbooking/booking-service/model"
	"github.com/arunvm123/concertbooking/booking-service/service"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestSendPublishesNotificationKeyedByBooking(t *testing.T) {
	w := &recordingWriter{}
	sink := NewNotificationSink(w)

	err := sink.Send(context.Background(), service.Notification{
		Type:      service.NotificationBookingConfirmed,
		BookingID: "b-1",
		To:        "fan@example.com",
		Subject:   "Booking Confirmation - Night Show",
		HTMLBody:  "<p>hi</p>",
		TextBody:  "hi",
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	require.Equal(t, "b-1", string(w.msgs[0].Key))

	var got model.NotificationRequest
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	require.Equal(t, "booking_confirmed", got.Type)
	require.Equal(t, "fan@example.com", got.RecipientEmail)
	require.Equal(t, "Booking Confirmation - Night Show", got.Subject)
	require.Equal(t, "<p>hi</p>", got.HTMLBody)
	require.False(t, got.Timestamp.IsZero())
}

func TestSendWrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	sink := NewNotificationSink(&recordingWriter{err: boom})

	err := sink.Send(context.Background(), service.Notification{BookingID: "b-1"})
	require.ErrorIs(t, err, boom)
}
