// Package platform holds one adapter per chat platform: a signature/token
// verifier, a payload parser producing the canonical message representation,
// and where the platform requires it a challenge responder and a sender
// profile lookup. The adapters share no base type; each route handler
// dispatches to its platform's functions directly since the crypto and
// envelope schemes have nothing in common.
package platform

// Source identifiers for the supported platforms
const (
	SourceChatwork = "chatwork"
	SourceTeams    = "teams"
	SourceLark     = "lark"
	SourceSlack    = "slack"
	SourceLine     = "line"
)

// NormalizedMessage is the canonical representation every parser funnels
// into. Parsers return nil for events that are not plain user text messages
// (bot posts, subtypes, non-message events); callers skip those silently.
type NormalizedMessage struct {
	RoomID    string
	MessageID string
	Text      string
	SenderID  string
	Source    string
}
