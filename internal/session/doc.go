// Package session stores the per-user roulette state: the label of the last
// rolled food category. Presence of an entry means the bot is waiting for the
// user's location; absence is the normal idle state and never an error.
package session
