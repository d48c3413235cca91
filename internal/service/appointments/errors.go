package appointments

import "errors"

var (
	ErrSelfBooking        = errors.New("you cannot book an appointment with yourself")
	ErrNotAProvider       = errors.New("you can only create appointments with providers")
	ErrPastDate           = errors.New("past dates are not permitted")
	ErrSlotTaken          = errors.New("appointment date is not available")
	ErrNotFound           = errors.New("appointment not found")
	ErrForbidden          = errors.New("you don't have permission to cancel this appointment")
	ErrCancellationWindow = errors.New("you can only cancel appointments 2 hours in advance")
)
