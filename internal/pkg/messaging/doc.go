// Package messaging publishes domain events to a broker chosen at startup
// (Kafka, NATS, NSQ or Google Pub/Sub). Callers depend on Publisher only, so
// the broker can change without touching use-case code.
package messaging
