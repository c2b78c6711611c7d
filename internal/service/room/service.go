package room

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/syncroom/server/internal/domain"
	"github.com/syncroom/server/internal/playback"
	"github.com/syncroom/server/internal/repository/room"
)

var ErrRoomNotFound = errors.New("room not found")

type iRoomRepo interface {
	GetRoom(ctx context.Context, roomID string) (domain.RoomState, int64, error)
	CreateRoom(context.Context, *room.CreateRoomParams) error
	CompareAndSetRoom(context.Context, *room.CompareAndSetRoomParams) error
	DeleteRoom(ctx context.Context, roomID string) error
	RoomExists(ctx context.Context, roomID string) (bool, error)
	ListRooms(ctx context.Context) ([]string, error)
	IncUsers(ctx context.Context) error
	DecUsers(ctx context.Context) error
	GetUsersCount(ctx context.Context) (int, error)
}

type iConnRepo interface {
	Add(conn *websocket.Conn, sessionID string) error
	RemoveBySessionID(sessionID string) error
	GetConn(sessionID string) (*websocket.Conn, error)
	GetSessionIDs() []string
}

type Config struct {
	// GracePeriod is how long an empty room survives before deletion.
	GracePeriod      time.Duration
	ChatLimit        int
	ChatMaxLength    int
	ChatRateInterval time.Duration
	SyncTolerance    float64
	DefaultMediaURL  string
	DefaultImageURL  string
}

type service struct {
	roomRepo iRoomRepo
	connRepo iConnRepo
	logger   *slog.Logger
	cfg      *Config

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	timersMu   sync.Mutex
	timers     map[string]*deletionTimer
	generation uint64

	chatLimiter *chatLimiter
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, logger *slog.Logger, cfg *Config) *service {
	if cfg.GracePeriod == 0 {
		cfg.GracePeriod = 60 * time.Second
	}
	if cfg.ChatLimit == 0 {
		cfg.ChatLimit = 200
	}
	if cfg.ChatMaxLength == 0 {
		cfg.ChatMaxLength = 500
	}
	if cfg.ChatRateInterval == 0 {
		cfg.ChatRateInterval = 750 * time.Millisecond
	}
	if cfg.SyncTolerance == 0 {
		cfg.SyncTolerance = playback.DefaultTolerance
	}

	return &service{
		roomRepo:    roomRepo,
		connRepo:    connRepo,
		logger:      logger,
		cfg:         cfg,
		locks:       make(map[string]*sync.Mutex),
		timers:      make(map[string]*deletionTimer),
		chatLimiter: newChatLimiter(cfg.ChatRateInterval),
	}
}

// defaultMedia is the bootstrap playlist entry for a brand-new room: the
// configured image when present, the fallback video otherwise.
func (s *service) defaultMedia() (url string, isImage bool) {
	if s.cfg.DefaultImageURL != "" {
		return s.cfg.DefaultImageURL, true
	}

	return s.cfg.DefaultMediaURL, false
}
