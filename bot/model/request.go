package model

import (
	"fmt"
	"time"
)

// Request is a normalized inbound chat message. A front-end adapter builds
// one from its native event; it is not mutated afterwards. The authority
// level is derived once at ingress and carried along unchanged.
//
// The json tags are the wire contract for requests crossing the bus.
type Request struct {
	SourceSystem     SourceSystem `json:"source_system"`
	Username         string       `json:"username"`
	Message          string       `json:"message"`
	MessageID        string       `json:"message_id,omitempty"`
	ChannelID        string       `json:"channel_id,omitempty"`
	ChannelIsPrivate bool         `json:"channel_is_private"`
	ChannelIsNSFW    bool         `json:"channel_is_nsfw"`
	Authority        Authority    `json:"authority"`
	Timestamp        time.Time    `json:"timestamp"`
}

func NewRequest(
	source SourceSystem,
	username string,
	message string,
	authority Authority,
) *Request {
	return &Request{
		SourceSystem: source,
		Username:     username,
		Message:      message,
		Authority:    authority,
		Timestamp:    time.Now().UTC(),
	}
}

// Namespace scopes dedup tracking to the audience that saw the content.
func (r *Request) Namespace() string {
	return fmt.Sprintf("%s:%s", r.SourceSystem, r.ChannelID)
}
