package models

import (
	"net/url"
	"strings"
)

// Sender identifies who wrote a chat message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// ChatMessage is one entry of the in-memory advisory transcript.
type ChatMessage struct {
	ID        string     `json:"id"`
	Sender    Sender     `json:"sender"`
	Text      string     `json:"text"`
	Citations []Citation `json:"citations,omitempty"`
}

// WebSource is a web page the assistant grounded its answer on.
type WebSource struct {
	URI   string `json:"uri"`
	Title string `json:"title,omitempty"`
}

// Citation is a grounding reference. Only web sources are currently produced.
type Citation struct {
	Web *WebSource `json:"web,omitempty"`
}

// Valid reports whether the citation carries a usable URI.
func (c Citation) Valid() bool {
	return c.Web != nil && strings.TrimSpace(c.Web.URI) != ""
}

// Label returns the citation title, or the URI host when no title is present.
func (c Citation) Label() string {
	if c.Web == nil {
		return ""
	}
	if t := strings.TrimSpace(c.Web.Title); t != "" {
		return t
	}
	u, err := url.Parse(c.Web.URI)
	if err != nil || u.Host == "" {
		return c.Web.URI
	}
	return u.Host
}
