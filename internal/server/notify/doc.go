// Package notify delivers notification intents produced by lifecycle
// transitions.
//
// The Relay drains the outbox into a Broker (RabbitMQ or an in-process
// channel). A consumer hands each delivery to the Dispatcher, which resolves
// recipients and sends over the websocket Hub, a Pusher and a Mailer.
package notify
