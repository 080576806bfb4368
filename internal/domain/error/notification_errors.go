package error

import "errors"

// ErrUnknownNotificationKind is returned for outbox entries no template can render.
var ErrUnknownNotificationKind = errors.New("unknown notification kind")

// DeliveryError is a failed hand-off to the email provider. Permanent failures
// are not retried.
type DeliveryError struct {
	Permanent bool
	Err       error
}

func (e *DeliveryError) Error() string {
	if e.Permanent {
		return "permanent delivery failure: " + e.Err.Error()
	}
	return "temporary delivery failure: " + e.Err.Error()
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// IsPermanentDelivery reports whether err carries a permanent DeliveryError.
func IsPermanentDelivery(err error) bool {
	var delivery *DeliveryError
	return errors.As(err, &delivery) && delivery.Permanent
}
