package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"fitmate/agent"
	"fitmate/format"
	"fitmate/web/middleware"
	"fitmate/web/templates"
	"fitmate/web/types"

	"github.com/gin-gonic/gin"
	"github.com/rivo/uniseg"
	"go.uber.org/zap"
)

type ChatHandler struct {
	agent           *agent.Agent
	logger          *zap.Logger
	typewriterDelay time.Duration
}

func NewChatHandler(agent *agent.Agent, logger *zap.Logger, typewriterDelay time.Duration) *ChatHandler {
	return &ChatHandler{
		agent:           agent,
		logger:          logger,
		typewriterDelay: typewriterDelay,
	}
}

// Index renders the chat page for the agent and goal picked in the query.
func (h *ChatHandler) Index(c *gin.Context) {
	sessionID, _ := middleware.SessionID(c)
	registry := h.agent.Registry()

	profile, err := registry.Get(c.Query("agent"))
	if err != nil {
		profile = registry.Default()
	}
	goal, ok := profile.CanonicalGoal(c.Query("goal"))
	if !ok {
		goal = ""
	}

	var messages []types.RenderedMessage
	if profile.Greeting != "" {
		messages = append(messages, types.RenderedMessage{
			ID:       "greeting",
			Role:     agent.RoleAssistant,
			Markdown: profile.Greeting,
			HTML:     format.ToHTML(profile.Greeting),
		})
	}
	for _, msg := range h.agent.History(sessionID.String(), profile.Key) {
		messages = append(messages, render(msg))
	}

	page := templates.ChatPage(templates.PageData{
		Agents:   agentInfos(registry.List()),
		Current:  agentInfo(profile),
		Goal:     goal,
		Messages: messages,
	})

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(c.Request.Context(), c.Writer); err != nil {
		h.logger.Error("Failed to render chat page", zap.Error(err))
	}
}

// SendMessage sends the user's message to the selected agent and returns
// both sides rendered for display.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req types.ChatRequest
	if err := c.ShouldBind(&req); err != nil {
		respondWithClientError(c, http.StatusBadRequest, "Invalid request")
		return
	}

	sessionID, _ := middleware.SessionID(c)
	reply, err := h.agent.Send(c.Request.Context(), agent.Request{
		SessionID: sessionID.String(),
		AgentKey:  req.Agent,
		Goal:      req.Goal,
		Text:      req.Message,
	})
	if err != nil {
		respondWithChatError(c, err, h.logger,
			zap.String("session_id", sessionID.String()),
			zap.String("agent", req.Agent))
		return
	}

	c.JSON(http.StatusOK, types.ChatResponse{
		Agent:     reply.Agent,
		User:      render(reply.User),
		Assistant: render(reply.Assistant),
	})
}

// StreamResponse replays an assistant reply as server-sent events, one
// grapheme cluster per chunk, then sends the rendered HTML with the end event.
func (h *ChatHandler) StreamResponse(c *gin.Context) {
	sessionID, _ := middleware.SessionID(c)

	msg, err := h.agent.Message(sessionID.String(), c.Query("agent"), c.Query("message_id"))
	if err != nil {
		respondWithChatError(c, err, h.logger)
		return
	}
	if msg.Role != agent.RoleAssistant {
		respondWithClientError(c, http.StatusBadRequest, "Only assistant replies can be streamed")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	ctx := c.Request.Context()
	var writeMu sync.Mutex
	write := func(data types.StreamData) error {
		return WriteSSEData(ctx, c.Writer, data, &writeMu)
	}

	if err := h.typewrite(ctx, msg.Content, write); err != nil {
		h.logger.Debug("Stream ended early", zap.Error(err))
		return
	}
	if err := write(types.StreamData{Type: types.StreamEnd, Content: format.ToHTML(msg.Content)}); err != nil {
		h.logger.Debug("Failed to send end event", zap.Error(err))
	}
}

// typewrite emits text one grapheme cluster at a time so emoji and combining
// marks are never split.
func (h *ChatHandler) typewrite(ctx context.Context, text string, write func(types.StreamData) error) error {
	var ticker *time.Ticker
	if h.typewriterDelay > 0 {
		ticker = time.NewTicker(h.typewriterDelay)
		defer ticker.Stop()
	}

	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		if err := write(types.StreamData{Type: types.StreamChunk, Content: gr.Str()}); err != nil {
			return err
		}
		if ticker == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Agents lists the available agents.
func (h *ChatHandler) Agents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"agents": agentInfos(h.agent.Registry().List())})
}

// WriteSSEData is a helper to write SSE formatted data safely.
func WriteSSEData(ctx context.Context, w http.ResponseWriter, data types.StreamData, mu *sync.Mutex) error {
	mu.Lock()
	defer mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "data: %s\n\n", jsonData)
	if err != nil {
		return err
	}

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}

// render prepares a message for the browser. User text is escaped so it shows
// literally; assistant text is rendered as Markdown.
func render(msg agent.Message) types.RenderedMessage {
	md := msg.Content
	if msg.Role == agent.RoleUser {
		md = format.EscapeMarkdown(md)
	}
	return types.RenderedMessage{
		ID:       msg.ID,
		Role:     msg.Role,
		Markdown: md,
		HTML:     format.ToHTML(md),
	}
}

func agentInfo(p agent.Profile) types.AgentInfo {
	return types.AgentInfo{
		Key:      p.Key,
		Label:    p.Label,
		Goals:    p.Goals,
		Greeting: p.Greeting,
	}
}

func agentInfos(profiles []agent.Profile) []types.AgentInfo {
	infos := make([]types.AgentInfo, 0, len(profiles))
	for _, p := range profiles {
		infos = append(infos, agentInfo(p))
	}
	return infos
}
