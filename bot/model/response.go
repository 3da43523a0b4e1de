package model

import "time"

// Image is a picture payload attached to a response.
type Image struct {
	URL         string `json:"url"`
	Source      string `json:"source,omitempty"`
	Description string `json:"description,omitempty"`
	Referrer    string `json:"referrer,omitempty"`
}

// Response is the reply produced for a single Request. SourceSystem and
// ChannelID are copied from the originating request so that a bus consumer
// can route the response with no correlation table.
//
// The json tags are the wire contract for responses crossing the bus.
type Response struct {
	SourceSystem SourceSystem `json:"source_system"`
	ChannelID    string       `json:"channel_id,omitempty"`
	Message      string       `json:"message,omitempty"`
	Image        *Image       `json:"image,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`
}

func NewResponse(message string) *Response {
	return &Response{
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}
