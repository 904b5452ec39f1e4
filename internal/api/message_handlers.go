package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/coursepilot/coursepilot/internal/bus"
	domainerrors "github.com/coursepilot/coursepilot/internal/errors"
)

// DefaultMessageTimeout bounds a relayed bus request.
const DefaultMessageTimeout = 10 * time.Second

const messagesPath = "/api/v1/messages"

func (s *Server) registerMessageRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "sendMessage",
		Method:      http.MethodPost,
		Path:        messagesPath,
		Summary:     "Send bus message",
		Description: "Delivers a raw {action,...} message to the background context or a tab and returns its reply",
		Tags:        []string{"Messages"},
	}, s.handleSendMessage)
}

// SendMessageInput carries a raw bus message.
type SendMessageInput struct {
	Target  string `query:"target" doc:"Destination context: background (default) or tab:<id>"`
	RawBody []byte `contentType:"application/json"`
}

// SendMessageOutput is the bus reply, success or not.
type SendMessageOutput struct {
	Body bus.Reply
}

func (s *Server) handleSendMessage(ctx context.Context, input *SendMessageInput) (*SendMessageOutput, error) {
	addr, err := bus.ParseAddress(input.Target)
	if err != nil {
		return nil, err
	}

	var msg bus.Message
	if err := json.Unmarshal(input.RawBody, &msg); err != nil {
		return nil, domainerrors.Validationf("invalid message: %v", err)
	}
	if msg.Action == "" {
		return nil, domainerrors.Validation("message action is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.MessageTimeout)
	defer cancel()

	reply := s.deps.Bus.Request(ctx, addr, msg)
	return &SendMessageOutput{Body: reply}, nil
}
