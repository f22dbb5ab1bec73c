package booking

import (
	"fmt"
	"html"

	"github.com/arunvm123/concertbooking/booking-service/model"
	"github.com/arunvm123/concertbooking/booking-service/service"
)

const timeLayout = "2006-01-02 15:04 MST"

func confirmationNotification(b *model.Booking, to string) service.Notification {
	text := fmt.Sprintf("Dear customer,\n\n"+
		"Your booking has been confirmed.\n\n"+
		"Booking ID: %s\n"+
		"Event: %s\n"+
		"Seat class: %s\n"+
		"Price: $%.2f\n"+
		"Booked at: %s\n\n"+
		"Thank you for your booking!\n",
		b.ID, b.EventName, b.SeatClassName, b.Price, b.BookingTime.Format(timeLayout))

	body := fmt.Sprintf("<h2>Your booking is confirmed</h2>"+
		"<p>Thank you for your booking! Here are the details:</p>"+
		"<ul>"+
		"<li><strong>Booking ID:</strong> %s</li>"+
		"<li><strong>Event:</strong> %s</li>"+
		"<li><strong>Seat class:</strong> %s</li>"+
		"<li><strong>Price:</strong> $%.2f</li>"+
		"<li><strong>Booked at:</strong> %s</li>"+
		"</ul>",
		html.EscapeString(b.ID), html.EscapeString(b.EventName), html.EscapeString(b.SeatClassName),
		b.Price, b.BookingTime.Format(timeLayout))

	return service.Notification{
		Type:      service.NotificationBookingConfirmed,
		BookingID: b.ID,
		To:        to,
		Subject:   "Booking Confirmation - " + b.EventName,
		HTMLBody:  body,
		TextBody:  text,
	}
}

func cancellationNotification(b *model.Booking, to string) service.Notification {
	text := fmt.Sprintf("Dear customer,\n\n"+
		"Your booking has been cancelled.\n\n"+
		"Booking ID: %s\n"+
		"Event: %s\n"+
		"Seat class: %s\n\n"+
		"The seat has been released.\n",
		b.ID, b.EventName, b.SeatClassName)

	body := fmt.Sprintf("<h2>Your booking has been cancelled</h2>"+
		"<ul>"+
		"<li><strong>Booking ID:</strong> %s</li>"+
		"<li><strong>Event:</strong> %s</li>"+
		"<li><strong>Seat class:</strong> %s</li>"+
		"</ul>"+
		"<p>The seat has been released.</p>",
		html.EscapeString(b.ID), html.EscapeString(b.EventName), html.EscapeString(b.SeatClassName))

	return service.Notification{
		Type:      service.NotificationBookingCancelled,
		BookingID: b.ID,
		To:        to,
		Subject:   "Booking Cancellation Confirmation - " + b.EventName,
		HTMLBody:  body,
		TextBody:  text,
	}
}
