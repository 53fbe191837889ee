package games

import (
	"github.com/lefinal/masc-match/messages"
	"github.com/lefinal/masc-match/model"
	"github.com/lefinal/masc-match/player"
	"github.com/lefinal/masc-match/team"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"math/rand"
	"sort"
	"time"
)

// roomStub is a minimal Room for testing rules.
type roomStub struct {
	options      model.RoomOptions
	roster       *team.Roster
	participants map[model.PlayerID]*player.Participant
	master       model.PlayerID
	host         model.PlayerID
	broadcasts   []messages.Message
	ejected      map[model.PlayerID]model.LeaveReason
	rule         Rule
}

func newRoomStub(options model.RoomOptions) *roomStub {
	return &roomStub{
		options:      options,
		roster:       team.NewRoster(),
		participants: make(map[model.PlayerID]*player.Participant),
		ejected:      make(map[model.PlayerID]model.LeaveReason),
	}
}

func (r *roomStub) ID() model.RoomID {
	return 1
}

func (r *roomStub) ChannelID() model.ChannelID {
	return 1
}

func (r *roomStub) Options() model.RoomOptions {
	return r.options
}

func (r *roomStub) Roster() *team.Roster {
	return r.roster
}

func (r *roomStub) Participants() []*player.Participant {
	participants := make([]*player.Participant, 0, len(r.participants))
	for _, p := range r.participants {
		participants = append(participants, p)
	}
	sort.Slice(participants, func(i, j int) bool {
		return participants[i].Slot < participants[j].Slot
	})
	return participants
}

func (r *roomStub) Participant(playerID model.PlayerID) (*player.Participant, bool) {
	p, ok := r.participants[playerID]
	return p, ok
}

func (r *roomStub) ParticipantBySlot(slot model.SlotID) (*player.Participant, bool) {
	for _, p := range r.participants {
		if p.Slot == slot {
			return p, true
		}
	}
	return nil, false
}

func (r *roomStub) Master() model.PlayerID {
	return r.master
}

func (r *roomStub) Host() model.PlayerID {
	return r.host
}

func (r *roomStub) Broadcast(message messages.Message) {
	r.broadcasts = append(r.broadcasts, message)
}

func (r *roomStub) Eject(playerID model.PlayerID, reason model.LeaveReason) {
	p, ok := r.participants[playerID]
	if !ok {
		return
	}
	delete(r.participants, playerID)
	r.roster.Remove(playerID)
	r.ejected[playerID] = reason
	r.rule.OnLeave(p)
}

// join adds a playing participant with the slot derived from the player id.
func (r *roomStub) join(playerID model.PlayerID) *player.Participant {
	return r.joinAs(playerID, model.PlayerModeNormal)
}

func (r *roomStub) joinAs(playerID model.PlayerID, mode model.PlayerGameMode) *player.Participant {
	p := player.NewParticipant(player.New(player.Identity{
		ID:       playerID,
		Nickname: "player",
	}, &player.SessionMock{}), model.SlotID(playerID-1))
	teamID, err := r.roster.Join(playerID, mode, model.TeamNone)
	if err != nil {
		panic(err)
	}
	p.Team = teamID
	p.Mode = mode
	p.IsConnecting = false
	p.Record = r.rule.NewRecord()
	r.participants[playerID] = p
	if len(r.participants) == 1 {
		r.master = playerID
		r.host = playerID
	}
	return p
}

// broadcastsOfType returns all broadcast messages of the given type.
func (r *roomStub) broadcastsOfType(messageType messages.MessageType) []messages.Message {
	filtered := make([]messages.Message, 0)
	for _, message := range r.broadcasts {
		if message.MessageType == messageType {
			filtered = append(filtered, message)
		}
	}
	return filtered
}

// experienceCatalogStub grants fixed experience.
type experienceCatalogStub struct{}

func (c experienceCatalogStub) Experience(_ model.GameMode, _ time.Duration, _ int, won bool) int {
	if won {
		return 20
	}
	return 10
}

func testDeps() Deps {
	return Deps{
		Logger:  zap.New(zapcore.NewNopCore()),
		Timing:  DefaultTiming(),
		Catalog: experienceCatalogStub{},
		Random:  rand.New(rand.NewSource(1)),
	}
}

// newTestRule creates and initializes a rule for a new roomStub.
func newTestRule(options model.RoomOptions) (*Base, *roomStub) {
	room := newRoomStub(options)
	rule, err := newRule(room, testDeps())
	if err != nil {
		panic(err)
	}
	room.rule = rule
	if err = rule.Initialize(); err != nil {
		panic(err)
	}
	return rule, room
}

// startMatch fires TriggerStartPrepare, lets all playing participants load and
// runs the countdown.
func startMatch(rule *Base, room *roomStub) error {
	if err := rule.Fire(TriggerStartPrepare); err != nil {
		return err
	}
	for _, p := range room.Participants() {
		if p.IsPlaying() {
			if err := rule.OnLoadingCompleted(p.ID()); err != nil {
				return err
			}
		}
	}
	rule.Update(time.Millisecond)
	rule.Update(rule.deps.Timing.Countdown)
	return nil
}

func testOptions(mode model.GameMode) model.RoomOptions {
	return model.RoomOptions{
		Name:           "test",
		Mode:           mode,
		Map:            "harbor",
		PlayerLimit:    4,
		SpectatorLimit: 2,
	}
}
