package channel

import (
	"context"
	"fmt"
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/messages"
	"github.com/lefinal/masc-match/model"
	"github.com/lefinal/masc-match/room"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"sort"
	"time"
)

// DefaultUpdateConcurrency is the default maximum count of rooms that are
// updated in parallel.
const DefaultUpdateConcurrency = 8

// Registry holds all channels. Channels are created from configuration and
// live for the lifetime of the Registry.
type Registry struct {
	logger            *zap.Logger
	updateConcurrency int
	channels          map[model.ChannelID]*Channel
	// ordered holds all channels ordered by id.
	ordered []*Channel
}

// NewRegistry creates all channels from the given configs. Channel ids must be
// unique. If updateConcurrency is not positive, DefaultUpdateConcurrency is
// used.
func NewRegistry(logger *zap.Logger, configs []Config, deps room.Deps, updateConcurrency int) (*Registry, error) {
	if updateConcurrency <= 0 {
		updateConcurrency = DefaultUpdateConcurrency
	}
	reg := &Registry{
		logger:            logger.Named("channel-registry"),
		updateConcurrency: updateConcurrency,
		channels:          make(map[model.ChannelID]*Channel, len(configs)),
		ordered:           make([]*Channel, 0, len(configs)),
	}
	for _, config := range configs {
		if _, ok := reg.channels[config.ID]; ok {
			return nil, errors.NewInternalError(fmt.Sprintf("duplicate channel id %d", config.ID),
				errors.Details{"channel_id": config.ID})
		}
		c := newChannel(logger, config, deps)
		reg.channels[config.ID] = c
		reg.ordered = append(reg.ordered, c)
	}
	sort.Slice(reg.ordered, func(i, j int) bool {
		return reg.ordered[i].ID() < reg.ordered[j].ID()
	})
	return reg, nil
}

// Get the channel with the given id.
func (reg *Registry) Get(channelID model.ChannelID) (*Channel, error) {
	c, ok := reg.channels[channelID]
	if !ok {
		return nil, errors.NewResourceNotFoundError("channel not found", errors.Details{"channel_id": channelID})
	}
	return c, nil
}

// Channels returns all channels ordered by id.
func (reg *Registry) Channels() []*Channel {
	return append([]*Channel(nil), reg.ordered...)
}

// List returns the info of all channels ordered by id.
func (reg *Registry) List() []messages.ChannelInfo {
	infos := make([]messages.ChannelInfo, 0, len(reg.ordered))
	for _, c := range reg.ordered {
		infos = append(infos, c.Info())
	}
	return infos
}

// RoomList returns the info of all rooms in the channel with the given id.
func (reg *Registry) RoomList(channelID model.ChannelID) ([]messages.RoomInfo, error) {
	c, err := reg.Get(channelID)
	if err != nil {
		return nil, err
	}
	return c.Rooms().List(), nil
}

// Broadcast the message to all players of all channels.
func (reg *Registry) Broadcast(message messages.Message) {
	for _, c := range reg.ordered {
		c.Broadcast(message)
	}
}

// BroadcastIn broadcasts the message to all players of the channel with the
// given id.
func (reg *Registry) BroadcastIn(channelID model.ChannelID, message messages.Message) error {
	c, err := reg.Get(channelID)
	if err != nil {
		return err
	}
	c.Broadcast(message)
	return nil
}

// Update all rooms of all channels. Rooms are updated in parallel while each
// room updates itself sequentially. Panics in room updates are recovered by
// the rooms themselves.
func (reg *Registry) Update(ctx context.Context, elapsed time.Duration) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(reg.updateConcurrency)
	for _, c := range reg.ordered {
		for _, r := range c.Rooms().Rooms() {
			if ctx.Err() != nil {
				_ = eg.Wait()
				return errors.NewContextAbortedError("update rooms")
			}
			r := r
			eg.Go(func() error {
				r.Update(elapsed)
				return nil
			})
		}
	}
	return eg.Wait()
}

// RoomCount returns the count of rooms in all channels.
func (reg *Registry) RoomCount() int {
	count := 0
	for _, c := range reg.ordered {
		count += c.Rooms().Count()
	}
	return count
}

// PlayerCount returns the count of players in all channels.
func (reg *Registry) PlayerCount() int {
	count := 0
	for _, c := range reg.ordered {
		count += c.PlayerCount()
	}
	return count
}
