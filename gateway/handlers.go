package gateway

import (
	"context"
	"fmt"
	"github.com/lefinal/masc-match/channel"
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/games"
	"github.com/lefinal/masc-match/messages"
	"github.com/lefinal/masc-match/model"
	"github.com/lefinal/masc-match/player"
	"github.com/lefinal/masc-match/room"
	"go.uber.org/zap"
	"time"
)

// decode the content of the container and validate it.
func decode[T any](s *sessionHandler, container messages.MessageContainer) (T, error) {
	content, err := messages.DecodeContent[T](container)
	if err != nil {
		return content, err
	}
	err = s.gateway.validator.Struct(content)
	if err != nil {
		return content, errors.Error{
			Code:    errors.ErrBadRequest,
			Err:     err,
			Message: "invalid message content",
			Details: errors.Details{"message_type": container.MessageType},
		}
	}
	return content, nil
}

// dispatch the request to the matching handler.
func (s *sessionHandler) dispatch(ctx context.Context, container messages.MessageContainer) error {
	if container.MessageType == messages.MessageTypeHello {
		return s.handleHello(ctx, container)
	}
	if s.player == nil {
		return errors.NewBadRequestError(errors.KindNotIdentified, "hello required", nil)
	}
	switch container.MessageType {
	case messages.MessageTypeLatency:
		return s.handleLatency(container)
	case messages.MessageTypeJoinChannel:
		return s.handleJoinChannel(container)
	case messages.MessageTypeLeaveChannel:
		return s.handleLeaveChannel()
	case messages.MessageTypeCreateRoom:
		return s.handleCreateRoom(container)
	case messages.MessageTypeJoinRoom:
		return s.handleJoinRoom(container)
	case messages.MessageTypeQuickJoin:
		return s.handleQuickJoin(container)
	case messages.MessageTypeLeaveRoom:
		c, err := s.channel()
		if err != nil {
			return err
		}
		return c.LeaveRoom(s.player)
	}
	// Everything else is a room operation.
	r, err := s.room()
	if err != nil {
		return err
	}
	return s.dispatchRoom(r, container)
}

// dispatchRoom dispatches requests for the room the player is in.
func (s *sessionHandler) dispatchRoom(r *room.Room, container messages.MessageContainer) error {
	playerID := s.player.ID()
	switch container.MessageType {
	case messages.MessageTypeChangeRules:
		m, err := decode[messages.MessageChangeRules](s, container)
		if err != nil {
			return err
		}
		return r.ChangeRules(playerID, m.Options)
	case messages.MessageTypeBeginRound:
		return r.BeginRound(playerID)
	case messages.MessageTypeReady:
		return r.ChangeReadyStatus(playerID)
	case messages.MessageTypeChangeTeam:
		m, err := decode[messages.MessageChangeTeam](s, container)
		if err != nil {
			return err
		}
		return r.ChangeTeam(playerID, m.Team)
	case messages.MessageTypeChangeMode:
		m, err := decode[messages.MessageChangeMode](s, container)
		if err != nil {
			return err
		}
		return r.ChangeMode(playerID, m.Mode)
	case messages.MessageTypeConfirmJoin:
		return r.ConfirmJoin(playerID)
	case messages.MessageTypeLoadingCompleted:
		return r.LoadingCompleted(playerID)
	case messages.MessageTypeKick:
		m, err := decode[messages.MessageTargetPlayer](s, container)
		if err != nil {
			return err
		}
		return r.Kick(playerID, m.Player)
	case messages.MessageTypeTransferMaster:
		m, err := decode[messages.MessageTargetPlayer](s, container)
		if err != nil {
			return err
		}
		return r.TransferMaster(playerID, m.Player)
	case messages.MessageTypeStartVoteKick:
		m, err := decode[messages.MessageStartVoteKick](s, container)
		if err != nil {
			return err
		}
		return r.StartVoteKick(playerID, m.Target, m.Reason)
	case messages.MessageTypeVoteKick:
		m, err := decode[messages.MessageVoteKick](s, container)
		if err != nil {
			return err
		}
		return r.VoteKick(playerID, m.Yes)
	case messages.MessageTypeScoreKill, messages.MessageTypeScoreTeamKill:
		m, err := decode[messages.MessageScoreKill](s, container)
		if err != nil {
			return err
		}
		kill := games.Kill{Killer: m.Killer, Victim: m.Victim, Assist: m.Assist, Weapon: m.Weapon}
		if container.MessageType == messages.MessageTypeScoreTeamKill {
			return r.ReportTeamKill(playerID, kill)
		}
		return r.ReportKill(playerID, kill)
	case messages.MessageTypeScoreSuicide:
		m, err := decode[messages.MessageScoreSlot](s, container)
		if err != nil {
			return err
		}
		return r.ReportSuicide(playerID, m.Slot)
	case messages.MessageTypeScoreHeal:
		m, err := decode[messages.MessageScoreHeal](s, container)
		if err != nil {
			return err
		}
		return r.ReportHeal(playerID, m.Healer, m.Target)
	case messages.MessageTypeScoreObjective:
		m, err := decode[messages.MessageScoreObjective](s, container)
		if err != nil {
			return err
		}
		return r.ReportObjective(playerID, m.Slot, m.Objective)
	case messages.MessageTypeRespawn:
		m, err := decode[messages.MessageScoreSlot](s, container)
		if err != nil {
			return err
		}
		return r.Respawn(playerID, m.Slot)
	}
	return errors.NewBadRequestError(errors.KindUnknownMessageType,
		fmt.Sprintf("unsupported message type %q", container.MessageType),
		errors.Details{"message_type": container.MessageType})
}

// channel returns the channel the player is in.
func (s *sessionHandler) channel() (*channel.Channel, error) {
	channelID, ok := s.player.Channel()
	if !ok {
		return nil, errors.NewInvalidStateError(errors.KindNotInChannel, "not in channel", nil)
	}
	c, err := s.gateway.channels.Get(channelID)
	if err != nil {
		return nil, errors.Wrap(err, "get channel", nil)
	}
	return c, nil
}

// room returns the room the player is in.
func (s *sessionHandler) room() (*room.Room, error) {
	c, err := s.channel()
	if err != nil {
		return nil, err
	}
	return c.Room(s.player)
}

func (s *sessionHandler) handleHello(ctx context.Context, container messages.MessageContainer) error {
	if s.player != nil {
		return errors.NewBadRequestError("", "already identified", errors.Details{"player_id": s.player.ID()})
	}
	m, err := decode[messages.MessageHello](s, container)
	if err != nil {
		return err
	}
	stats, err := s.gateway.stats.PlayerStats(ctx, m.PlayerID)
	if err != nil {
		return errors.Wrap(err, "load player stats", errors.Details{"player_id": m.PlayerID})
	}
	p := player.New(player.Identity{
		ID:            m.PlayerID,
		Nickname:      m.Nickname,
		Level:         m.Level,
		SecurityLevel: m.SecurityLevel,
	}, s.session)
	p.SetStats(stats)
	err = s.gateway.register(p)
	if err != nil {
		return err
	}
	s.player = p
	s.logger = s.logger.With(zap.Any("player_id", p.ID()))
	s.logger.Debug("player identified")
	p.Send(messages.Message{
		MessageType: messages.MessageTypeWelcome,
		Content: messages.MessageWelcome{
			PlayerID: p.ID(),
			Channels: s.gateway.channels.List(),
		},
	})
	return nil
}

func (s *sessionHandler) handleLatency(container messages.MessageContainer) error {
	m, err := decode[messages.MessageLatency](s, container)
	if err != nil {
		return err
	}
	s.player.SetLatency(time.Duration(m.LatencyMS) * time.Millisecond)
	return nil
}

func (s *sessionHandler) handleJoinChannel(container messages.MessageContainer) error {
	m, err := decode[messages.MessageJoinChannel](s, container)
	if err != nil {
		return err
	}
	c, err := s.gateway.channels.Get(m.Channel)
	if err != nil {
		return errors.Wrap(err, "get channel", nil)
	}
	return c.Join(s.player)
}

func (s *sessionHandler) handleLeaveChannel() error {
	c, err := s.channel()
	if err != nil {
		return err
	}
	c.Leave(s.player, model.LeaveReasonLeft)
	return nil
}

func (s *sessionHandler) handleCreateRoom(container messages.MessageContainer) error {
	m, err := decode[messages.MessageCreateRoom](s, container)
	if err != nil {
		return err
	}
	c, err := s.channel()
	if err != nil {
		return err
	}
	_, err = c.CreateRoom(s.player, m.Options)
	return err
}

func (s *sessionHandler) handleJoinRoom(container messages.MessageContainer) error {
	m, err := decode[messages.MessageJoinRoom](s, container)
	if err != nil {
		return err
	}
	c, err := s.channel()
	if err != nil {
		return err
	}
	_, err = c.JoinRoom(s.player, m.Room, m.Password)
	return err
}

func (s *sessionHandler) handleQuickJoin(container messages.MessageContainer) error {
	m, err := decode[messages.MessageQuickJoin](s, container)
	if err != nil {
		return err
	}
	c, err := s.channel()
	if err != nil {
		return err
	}
	_, err = c.QuickJoin(s.player, m.Mode)
	return err
}
