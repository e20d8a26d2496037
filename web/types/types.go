package types

// ChatRequest is the body of POST /chat, accepted as JSON or form data.
type ChatRequest struct {
	Message string `json:"message" form:"message"`
	Agent   string `json:"agent" form:"agent"`
	Goal    string `json:"goal" form:"goal"`
}

// RenderedMessage is a chat message ready for the browser.
type RenderedMessage struct {
	ID       string `json:"id"`
	Role     string `json:"role"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

// ChatResponse is returned by POST /chat.
type ChatResponse struct {
	Agent     string          `json:"agent"`
	User      RenderedMessage `json:"user"`
	Assistant RenderedMessage `json:"assistant"`
}

// AgentInfo describes an agent for the picker.
type AgentInfo struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Goals    []string `json:"goals"`
	Greeting string   `json:"greeting,omitempty"`
}

// StreamData is one server-sent event payload.
type StreamData struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// Stream event types
const (
	StreamChunk = "chunk"
	StreamEnd   = "end"
	StreamError = "error"
)
