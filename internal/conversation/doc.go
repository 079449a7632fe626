// Package conversation implements the bot's dialogue as a small state machine.
//
// A user is Idle until a food roulette roll stores a category in the session
// store; the stored entry is the AwaitingLocation state. A shared location
// consumes it and returns the user to Idle. Every other event leaves the state
// alone, except Follow which always resets it.
package conversation
