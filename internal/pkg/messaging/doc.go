// Package messaging publishes and consumes events over a pluggable broker.
//
// Handlers see a Message regardless of driver. Returning nil acknowledges the
// message; returning an error asks the broker to redeliver where the broker
// supports it. Trace context travels in message headers.
package messaging
