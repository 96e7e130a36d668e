// +build !prometheus

package instrument

// Init is a no-op when built without -tags prometheus.
func Init(addr string) {}

// BlockSent is a no-op when built without -tags prometheus.
func BlockSent() {}

// BlockReceived is a no-op when built without -tags prometheus.
func BlockReceived() {}

// BlockAuthFailure is a no-op when built without -tags prometheus.
func BlockAuthFailure() {}

// SetPendingRequests is a no-op when built without -tags prometheus.
func SetPendingRequests(n int) {}

// DroppedUnsolicited is a no-op when built without -tags prometheus.
func DroppedUnsolicited(reason string) {}

// CommandSent is a no-op when built without -tags prometheus.
func CommandSent(tag string) {}

// BrokerError is a no-op when built without -tags prometheus.
func BrokerError(tag string) {}

// ObserveHandshakeDuration is a no-op when built without -tags prometheus.
func ObserveHandshakeDuration(seconds float64) {}
