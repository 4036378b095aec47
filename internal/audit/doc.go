// Package audit buffers engine audit events and hands them to a sink.
//
//   - [Sink] is the consumer interface (channel, JSON lines, no-op).
//   - [Dispatcher] relays events from a bounded queue on one goroutine, either
//     dropping or blocking when the queue is full.
//   - [Event] records the event type, account, request id, client IP and outcome.
//
// The Engine decides which events to emit; this package only delivers them.
// It must not import deliveryAuth.
package audit
