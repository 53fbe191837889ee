package room

import (
	"github.com/lefinal/masc-match/errors"
	"github.com/lefinal/masc-match/messages"
	"github.com/lefinal/masc-match/model"
	"github.com/lefinal/masc-match/player"
	"go.uber.org/zap"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// Registry holds all rooms of a channel. Room ids are assigned lowest-free
// starting at 1 and reused after disposal.
type Registry struct {
	logger    *zap.Logger
	channelID model.ChannelID
	roomLimit int
	deps      Deps
	lobby     Lobby
	// randomMutex locks random.
	randomMutex sync.Mutex
	random      *rand.Rand
	// m locks rooms. It is never held while calling into a room that is
	// reachable by others.
	m     sync.RWMutex
	rooms map[model.RoomID]*Room
}

// NewRegistry creates a new Registry for the given channel. The lobby is
// notified about room changes and is optional.
func NewRegistry(logger *zap.Logger, channelID model.ChannelID, roomLimit int, deps Deps, lobby Lobby) *Registry {
	if lobby == nil {
		lobby = nopLobby{}
	}
	if deps.Logger == nil {
		deps.Logger = logger
	}
	return &Registry{
		logger:    logger.Named("room-registry"),
		channelID: channelID,
		roomLimit: roomLimit,
		deps:      deps,
		lobby:     lobby,
		random:    rand.New(rand.NewSource(time.Now().UnixNano() + int64(channelID))),
		rooms:     make(map[model.RoomID]*Room),
	}
}

// Create a room with the given options and join the creator as master.
func (reg *Registry) Create(p *player.Player, options model.RoomOptions) (*Room, error) {
	err := reg.deps.Catalog.ValidateRoomOptions(options)
	if err != nil {
		return nil, errors.Wrap(err, "validate options", nil)
	}
	reg.randomMutex.Lock()
	options, err = reg.deps.Catalog.ResolveRandomMap(options, reg.random)
	seed := reg.random.Int63()
	reg.randomMutex.Unlock()
	if err != nil {
		return nil, errors.Wrap(err, "resolve random map", nil)
	}
	room, err := reg.create(p, options, seed)
	if err != nil {
		return nil, err
	}
	reg.logger.Debug("room created", zap.Any("room_id", room.ID()), zap.Any("mode", options.Mode),
		zap.Any("map", options.Map), zap.Any("master", p.ID()))
	reg.lobby.RoomUpdated(room.Info())
	return room, nil
}

func (reg *Registry) create(p *player.Player, options model.RoomOptions, seed int64) (*Room, error) {
	reg.m.Lock()
	defer reg.m.Unlock()
	if reg.roomLimit > 0 && len(reg.rooms) >= reg.roomLimit {
		return nil, errors.NewCapacityError(errors.KindRoomLimitReached, "room limit reached",
			errors.Details{"room_limit": reg.roomLimit})
	}
	id := model.RoomID(1)
	for {
		if _, ok := reg.rooms[id]; !ok {
			break
		}
		id++
	}
	room, err := newRoom(id, reg.channelID, options, reg.deps, reg.lobby, seed, reg.remove)
	if err != nil {
		return nil, errors.Wrap(err, "new room", nil)
	}
	// The room is not reachable yet, so joining directly cannot race and must
	// not dispose it.
	room.opMutex.Lock()
	err = room.join(p, options.Password)
	room.infoChanged = false
	room.opMutex.Unlock()
	if err != nil {
		room.rule.Cleanup()
		return nil, errors.Wrap(err, "join creator", nil)
	}
	reg.rooms[id] = room
	return room, nil
}

// remove the disposed room. Called from Room.dispose.
func (reg *Registry) remove(room *Room) {
	reg.m.Lock()
	defer reg.m.Unlock()
	if current, ok := reg.rooms[room.ID()]; ok && current == room {
		delete(reg.rooms, room.ID())
		reg.logger.Debug("room removed", zap.Any("room_id", room.ID()))
	}
}

// Get the room with the given id.
func (reg *Registry) Get(roomID model.RoomID) (*Room, error) {
	reg.m.RLock()
	room, ok := reg.rooms[roomID]
	reg.m.RUnlock()
	if !ok || room.IsDisposed() {
		return nil, errors.NewResourceNotFoundError("room not found", errors.Details{"room_id": roomID})
	}
	return room, nil
}

// Rooms returns all rooms ordered by id.
func (reg *Registry) Rooms() []*Room {
	reg.m.RLock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		rooms = append(rooms, room)
	}
	reg.m.RUnlock()
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].ID() < rooms[j].ID()
	})
	return rooms
}

// List returns the info of all rooms ordered by id.
func (reg *Registry) List() []messages.RoomInfo {
	rooms := reg.Rooms()
	infos := make([]messages.RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		if room.IsDisposed() {
			continue
		}
		infos = append(infos, room.Info())
	}
	return infos
}

// Count returns the count of rooms.
func (reg *Registry) Count() int {
	reg.m.RLock()
	defer reg.m.RUnlock()
	return len(reg.rooms)
}

// QuickJoin joins the player into the first room that accepts players without
// password. The mode is an optional filter.
func (reg *Registry) QuickJoin(p *player.Player, mode model.GameMode) (*Room, error) {
	for _, room := range reg.Rooms() {
		if !room.isJoinable(mode) {
			continue
		}
		err := room.Join(p, "")
		if err == nil {
			return room, nil
		}
		if errors.Is(err, errors.KindAlreadyInRoom) {
			return nil, err
		}
		reg.logger.Debug("quick-join candidate rejected", zap.Any("room_id", room.ID()), zap.Error(err))
	}
	return nil, errors.Error{
		Code:    errors.ErrNotFound,
		Kind:    errors.KindNoRoomAvailable,
		Message: "no room available",
		Details: errors.Details{"mode": mode},
	}
}

// Update all rooms. Rooms that get empty are disposed.
func (reg *Registry) Update(elapsed time.Duration) {
	for _, room := range reg.Rooms() {
		room.Update(elapsed)
	}
}
