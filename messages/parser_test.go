package messages

import (
	"encoding/json"
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestParseContainer(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    MessageContainer
		wantErr bool
	}{
		{
			name: "ok",
			raw:  `{"message_type":"join-room","content":{"room":3,"password":"secret"}}`,
			want: MessageContainer{
				MessageType: MessageTypeJoinRoom,
				Content:     json.RawMessage(`{"room":3,"password":"secret"}`),
			},
		},
		{
			name: "without content",
			raw:  `{"message_type":"ready"}`,
			want: MessageContainer{MessageType: MessageTypeReady},
		},
		{
			name:    "invalid json",
			raw:     `{"message_type":`,
			wantErr: true,
		},
		{
			name:    "missing type",
			raw:     `{"content":{}}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseContainer([]byte(tt.raw))
			if tt.wantErr {
				require.Error(t, err, "should fail")
				e, _ := errors.Cast(err)
				assert.Equal(t, errors.ErrBadRequest, e.Code, "should blame requester")
				return
			}
			require.NoError(t, err, "should not fail")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeContent(t *testing.T) {
	container, err := ParseContainer([]byte(`{"message_type":"join-room","content":{"room":3,"password":"secret"}}`))
	require.NoError(t, err)
	got, err := DecodeContent[MessageJoinRoom](container)
	require.NoError(t, err, "should not fail")
	assert.Equal(t, MessageJoinRoom{Room: 3, Password: "secret"}, got)
}

func TestDecodeContentEmpty(t *testing.T) {
	got, err := DecodeContent[MessageQuickJoin](MessageContainer{MessageType: MessageTypeQuickJoin})
	require.NoError(t, err, "should not fail")
	assert.Equal(t, model.GameMode(""), got.Mode)
}

func TestDecodeContentInvalid(t *testing.T) {
	_, err := DecodeContent[MessageJoinRoom](MessageContainer{
		MessageType: MessageTypeJoinRoom,
		Content:     json.RawMessage(`{"room":"three"}`),
	})
	assert.True(t, errors.BlameUser(err), "should blame requester")
}

func TestNewResult(t *testing.T) {
	ok := NewResult(MessageTypeReady, nil)
	assert.Equal(t, MessageResult{Request: MessageTypeReady, Code: errors.ResultOK}, ok.Content)
	failed := NewResult(MessageTypeJoinRoom, errors.NewCapacityError(errors.KindRoomFull, "room full", nil))
	assert.Equal(t, MessageResult{
		Request: MessageTypeJoinRoom,
		Code:    errors.ResultRoomFull,
		Message: "room full",
	}, failed.Content)
	internal := NewResult(MessageTypeJoinRoom, errors.NewInternalError("secret", nil))
	assert.Equal(t, MessageResult{Request: MessageTypeJoinRoom, Code: errors.ResultFailed}, internal.Content,
		"should hide internal messages")
}

func TestMessageErrorFromError(t *testing.T) {
	internal := MessageErrorFromError(errors.NewInternalError("db down", nil))
	assert.Equal(t, "internal server error", internal.Message, "should hide internal errors")
	blamed := MessageErrorFromError(errors.NewBadRequestError("", "bad", errors.Details{"a": 1}))
	assert.Equal(t, "bad", blamed.Message)
	assert.Equal(t, map[string]interface{}{"a": 1}, blamed.Details)
}
