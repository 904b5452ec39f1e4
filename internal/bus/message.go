package bus

import (
	"bytes"
	"encoding/json"
	"fmt"

	apperr "github.com/coursepilot/coursepilot/internal/errors"
)

// Message is a request or notification. On the wire the payload fields sit
// next to "action": {"action":"saveNote","videoUrl":...}.
type Message struct {
	Action string
	// Raw is the full JSON object, action included.
	Raw json.RawMessage
}

// NewMessage builds a message whose payload object is flattened next to action.
// A nil payload yields {"action":...}. Non-object payloads go under "data".
func NewMessage(action string, payload any) (Message, error) {
	fields, err := objectFields(payload)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s payload: %w", action, err)
	}
	fields["action"] = mustRaw(action)
	raw, err := json.Marshal(fields)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s: %w", action, err)
	}
	return Message{Action: action, Raw: raw}, nil
}

// MustMessage is NewMessage for payloads that always encode.
func MustMessage(action string, payload any) Message {
	m, err := NewMessage(action, payload)
	if err != nil {
		panic(err)
	}
	return m
}

// Bind decodes the message payload into dst. Unknown fields are ignored.
func (m Message) Bind(dst any) error {
	if len(m.Raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(m.Raw, dst); err != nil {
		return apperr.Validationf("invalid %s payload: %v", m.Action, err)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (m Message) MarshalJSON() ([]byte, error) {
	if len(m.Raw) == 0 {
		return json.Marshal(map[string]string{"action": m.Action})
	}
	return m.Raw, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Message) UnmarshalJSON(data []byte) error {
	var head struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	m.Action = head.Action
	m.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// Reply answers a request: {"success":true,...payload} or {"success":false,"error":...}.
type Reply struct {
	Success bool
	Error   string
	// Code is the error code of a failed reply.
	Code apperr.Code
	// Data holds the payload fields of a successful reply.
	Data json.RawMessage
}

// OK builds a successful reply with payload fields flattened next to success.
func OK(payload any) Reply {
	fields, err := objectFields(payload)
	if err != nil {
		return Fail(apperr.Wrap(err, apperr.CodeInternal, "encode reply"))
	}
	if len(fields) == 0 {
		return Reply{Success: true}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return Fail(apperr.Wrap(err, apperr.CodeInternal, "encode reply"))
	}
	return Reply{Success: true, Data: raw}
}

// Fail builds a failed reply from err.
func Fail(err error) Reply {
	if err == nil {
		return Reply{Success: false, Error: "unknown error", Code: apperr.CodeInternal}
	}
	return Reply{Success: false, Error: err.Error(), Code: apperr.CodeOf(err)}
}

// Err returns nil for a successful reply and a coded error otherwise.
func (r Reply) Err() error {
	if r.Success {
		return nil
	}
	code := r.Code
	if code == "" {
		code = apperr.CodeInternal
	}
	return &apperr.Error{Code: code, Message: r.Error}
}

// Bind decodes the reply payload into dst.
func (r Reply) Bind(dst any) error {
	if len(r.Data) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, dst)
}

// MarshalJSON implements json.Marshaler.
func (r Reply) MarshalJSON() ([]byte, error) {
	fields := map[string]json.RawMessage{}
	if len(r.Data) > 0 {
		if err := json.Unmarshal(r.Data, &fields); err != nil {
			return nil, err
		}
	}
	fields["success"] = mustRaw(r.Success)
	if !r.Success {
		fields["error"] = mustRaw(r.Error)
		if r.Code != "" {
			fields["code"] = mustRaw(r.Code)
		}
	}
	return json.Marshal(fields)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Reply) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*r = Reply{}
	if v, ok := fields["success"]; ok {
		if err := json.Unmarshal(v, &r.Success); err != nil {
			return err
		}
	}
	if v, ok := fields["error"]; ok {
		_ = json.Unmarshal(v, &r.Error)
	}
	if v, ok := fields["code"]; ok {
		_ = json.Unmarshal(v, &r.Code)
	}
	delete(fields, "success")
	delete(fields, "error")
	delete(fields, "code")
	if len(fields) > 0 {
		raw, err := json.Marshal(fields)
		if err != nil {
			return err
		}
		r.Data = raw
	}
	return nil
}

// objectFields encodes payload and splits it into top-level fields.
func objectFields(payload any) (map[string]json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if payload == nil {
		return fields, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return fields, nil
	}
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil, err
		}
		return fields, nil
	}
	fields["data"] = trimmed
	return fields, nil
}

func mustRaw(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}
