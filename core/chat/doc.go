// Package chat defines the transport-neutral conversation model shared by the
// LINE and Telegram channels: inbound events, outbound messages and replies.
//
// Both unions are sealed: only the types declared here satisfy Event and Message,
// so a type switch over them is exhaustive.
package chat
