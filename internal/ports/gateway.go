package ports

import "context"

// SendResult is the gateway's HTTP response to a send attempt. It is
// returned for every response regardless of status code; a transport
// failure (no response at all) is reported as an error instead.
type SendResult struct {
	StatusCode int
	Body       string
}

// GatewayClient abstracts the external WhatsApp messaging gateway.
type GatewayClient interface {
	// CheckSession reports whether the gateway session is connected and
	// usable. The error, when present, carries the cause (timeout,
	// unreachable host); callers treat any error as not connected.
	CheckSession(ctx context.Context) (bool, error)

	// SendText submits one message. A non-nil error means the request
	// never produced an HTTP response.
	SendText(ctx context.Context, number, text string) (SendResult, error)
}
