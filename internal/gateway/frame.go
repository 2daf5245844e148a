package gateway

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type Op string

const (
	// входящие
	OpReady            Op = "READY"
	OpMessageCreate    Op = "MESSAGE_CREATE"
	OpVoiceStateUpdate Op = "VOICE_STATE_UPDATE"
	OpResponse         Op = "RESPONSE"

	// исходящие
	OpIdentify        Op = "IDENTIFY"
	OpSendMessage     Op = "SEND_MESSAGE"
	OpSendFile        Op = "SEND_FILE"
	OpVoiceConnect    Op = "VOICE_CONNECT"
	OpVoiceDisconnect Op = "VOICE_DISCONNECT"
	OpVoiceState      Op = "VOICE_STATE"
	OpVoiceAudio      Op = "VOICE_AUDIO"
)

var ErrBadFrame = errors.New("gateway: malformed frame")

// Frame: один кадр шлюза.
type Frame struct {
	Op   Op
	Seq  uint32
	Data map[string]any
}

func (f *Frame) Marshal() ([]byte, error) {
	data := f.Data
	if data == nil {
		data = map[string]any{}
	}
	st, err := structpb.NewStruct(map[string]any{
		"op":  string(f.Op),
		"seq": float64(f.Seq),
		"d":   data,
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", f.Op, err)
	}
	return proto.Marshal(st)
}

func UnmarshalFrame(b []byte) (*Frame, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	m := st.AsMap()
	op, ok := m["op"].(string)
	if !ok || op == "" {
		return nil, fmt.Errorf("%w: no op", ErrBadFrame)
	}
	f := &Frame{Op: Op(op)}
	if seq, ok := m["seq"].(float64); ok && seq > 0 {
		f.Seq = uint32(seq)
	}
	if d, ok := m["d"].(map[string]any); ok {
		f.Data = d
	} else {
		f.Data = map[string]any{}
	}
	return f, nil
}

// Err: ошибка из RESPONSE-кадра (nil, если ошибки нет).
func (f *Frame) Err() error {
	if f.Op != OpResponse {
		return nil
	}
	if e := f.str("error"); e != "" {
		return &ResponseError{Op: f.str("op"), Message: e}
	}
	return nil
}

func (f *Frame) str(key string) string {
	s, _ := f.Data[key].(string)
	return s
}

func (f *Frame) boolean(key string) bool {
	b, _ := f.Data[key].(bool)
	return b
}

func (f *Frame) strings(key string) []string {
	raw, _ := f.Data[key].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// ResponseError: отказ платформы выполнить запрос.
type ResponseError struct {
	Op      string
	Message string
}

func (e *ResponseError) Error() string {
	if e.Op == "" {
		return "gateway: " + e.Message
	}
	return fmt.Sprintf("gateway: %s: %s", e.Op, e.Message)
}
