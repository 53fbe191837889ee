// Package noticesvc forwards notices received via MQTT to players.
package noticesvc

import (
	"context"
	"github.com/go-playground/validator/v10"
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/event"
	"github.com/lefinal/masc-match/messages"
	"github.com/lefinal/masc-match/model"
	"github.com/lefinal/masc-match/portal"
	"github.com/lefinal/masc-match/service"
	"go.uber.org/zap"
)

// Topics.
const (
	// topicNotice is where notices for players are received.
	topicNotice portal.Topic = "lefinal/masc-match/notices"
	// topicNoticeError is where errors for invalid notices are published.
	topicNoticeError portal.Topic = "lefinal/masc-match/notices/error"
)

// Broadcaster broadcasts messages to players.
type Broadcaster interface {
	// Broadcast the message to all players in all channels.
	Broadcast(message messages.Message)
	// BroadcastIn broadcasts the message to all players in the given channel.
	BroadcastIn(channelID model.ChannelID, message messages.Message) error
}

type noticeService struct {
	logger      *zap.Logger
	portal      portal.Portal
	broadcaster Broadcaster
	validator   *validator.Validate
}

// New creates a service.Service that broadcasts received notices.
func New(logger *zap.Logger, portal portal.Portal, broadcaster Broadcaster) service.Service {
	return &noticeService{
		logger:      logger,
		portal:      portal,
		broadcaster: broadcaster,
		validator:   validator.New(),
	}
}

// Run the service until the given context.Context is done.
func (s *noticeService) Run(ctx context.Context) error {
	newsletter := portal.Subscribe[event.NoticeEvent](ctx, s.portal, topicNotice)
	for e := range newsletter.Receive {
		err := s.handleNotice(e.Payload)
		if err != nil {
			errors.Log(s.logger, errors.Wrap(err, "handle notice", nil))
			s.portal.Publish(ctx, topicNoticeError, event.ErrorEventPayloadFromError(err))
		}
	}
	return nil
}

func (s *noticeService) handleNotice(notice event.NoticeEvent) error {
	err := s.validator.Struct(notice)
	if err != nil {
		return errors.Error{
			Code:    errors.ErrBadRequest,
			Err:     err,
			Message: "invalid notice",
		}
	}
	message := messages.Message{
		MessageType: messages.MessageTypeNotice,
		Content:     messages.MessageNotice{Message: notice.Message},
	}
	if !notice.Channel.Valid {
		s.broadcaster.Broadcast(message)
		return nil
	}
	err = s.broadcaster.BroadcastIn(model.ChannelID(notice.Channel.Int), message)
	if err != nil {
		return errors.Wrap(err, "broadcast in channel", errors.Details{"channel_id": notice.Channel.Int})
	}
	return nil
}
