package server

import (
	"encoding/json"
	"net/http"
	"net/rpc"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/DDMaster24/doodle-duals/broadcast"
	"github.com/DDMaster24/doodle-duals/config"
	"github.com/DDMaster24/doodle-duals/logger"
	"github.com/DDMaster24/doodle-duals/monitor"
	"github.com/DDMaster24/doodle-duals/network"
	"github.com/DDMaster24/doodle-duals/persistence"
	"github.com/DDMaster24/doodle-duals/ratelimit"
	"github.com/DDMaster24/doodle-duals/reconnect"
	"github.com/DDMaster24/doodle-duals/room"
	gameserver_rpc "github.com/DDMaster24/doodle-duals/rpc"
	"github.com/DDMaster24/doodle-duals/services"
	"github.com/DDMaster24/doodle-duals/session"
	"github.com/DDMaster24/doodle-duals/timer"
)

// GameServer owns the websocket endpoint and wires the coordinator together:
// registry, sessions, rate limiter, reconnection ledger, metrics and the
// admin RPC surface.
type GameServer struct {
	cfg            *config.Config
	upgrader       websocket.Upgrader
	scheduler      *timer.Manager
	roomManager    *room.Manager
	sessionManager *session.Manager
	limiter        *ratelimit.Limiter
	ledger         *reconnect.Ledger
	matchService   *services.MatchService
	mon            *monitor.Monitor
	rpcServer      *gameserver_rpc.Server
	shutdownChan   chan struct{}
}

func NewGameServer(cfg *config.Config, db persistence.Database) *GameServer {
	s := &GameServer{
		cfg:            cfg,
		scheduler:      timer.NewManager(),
		sessionManager: session.NewManager(),
		mon:            monitor.NewMonitor("doodle_duals"),
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	s.roomManager = room.NewManager(cfg, s.scheduler)
	s.roomManager.SetBroadcaster(broadcast.NewRoomBroadcaster(s.sessionManager))

	s.limiter = ratelimit.NewLimiter(
		ratelimit.Limit{MaxCount: cfg.RateLimit.Placement.MaxCount, Window: cfg.RateLimit.Placement.Window},
		ratelimit.Limit{MaxCount: cfg.RateLimit.Shot.MaxCount, Window: cfg.RateLimit.Shot.Window},
		ratelimit.Limit{MaxCount: cfg.RateLimit.Other.MaxCount, Window: cfg.RateLimit.Other.Window},
	)
	s.ledger = reconnect.NewLedger(s.roomManager, s.scheduler, s.limiter, cfg.Game.ReconnectGrace)

	if db != nil {
		s.matchService = services.NewMatchService(db)
		s.roomManager.SetRecorder(s.matchService)
	}

	rpcServer, err := gameserver_rpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer
	rpc.Register(gameserver_rpc.NewAdminService(s, s.matchService))

	return s
}

// Stats implements rpc.StatsProvider.
func (s *GameServer) Stats() (activeRooms, onlinePlayers, pendingReconnects int) {
	return s.roomManager.Count(), s.sessionManager.Count(), s.ledger.PendingCount()
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()
	s.mon.StartServer(s.cfg.Server.MetricsAddress)

	// Rooms are also destroyed from ledger expiries, so the gauge is
	// refreshed on a slow tick rather than at every call site.
	s.scheduler.Schedule(5*time.Second, 5*time.Second, func() {
		s.mon.SetActiveRooms(s.roomManager.Count())
	})

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Game server listening on %s", s.cfg.Server.HTTPAddress)
	return http.ListenAndServe(s.cfg.Server.HTTPAddress, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.rpcServer.Stop()
	s.roomManager.Shutdown()
	s.scheduler.Stop()
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

// heartbeatInterval is the expected client ping cadence; a connection silent
// for twice this long is dropped by the read deadline.
const heartbeatInterval = 30 * time.Second

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	wsConn.SetHeartbeat(heartbeatInterval)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	s.mon.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.sessionManager.Remove(sess.GetID())
		s.mon.DecOnlinePlayers()
		if code := sess.GetRoomCode(); code != "" {
			// The seat survives for the grace window; the ledger decides
			// whether it is ever released.
			s.ledger.OnDisconnect(sess.GetID(), code)
		} else {
			s.limiter.Forget(sess.GetID())
		}
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func rateCategory(msgID uint16) (ratelimit.Category, bool) {
	switch msgID {
	case network.MsgTypeHeartbeat:
		return 0, false
	case network.MsgTypePlaceBlock, network.MsgTypePlaceTreasure:
		return ratelimit.CategoryPlacement, true
	case network.MsgTypeShoot:
		return ratelimit.CategoryShot, true
	default:
		return ratelimit.CategoryOther, true
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	started := time.Now()
	s.mon.IncMessagesReceived()
	defer func() {
		s.mon.ObserveMessageLatency(time.Since(started))
	}()

	if category, limited := rateCategory(packet.MsgID); limited {
		if !s.limiter.Allow(sess.GetID(), category) {
			s.reject(sess, network.RejectRateLimited, "slow down")
			return
		}
	}

	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.Touch()
		sess.Conn.SetHeartbeat(heartbeatInterval)
	case network.MsgTypeCreateRoom:
		s.handleCreateRoom(sess)
	case network.MsgTypeJoinRoom:
		s.handleJoinRoom(sess, packet)
	case network.MsgTypeReady:
		s.withRoom(sess, func(r *room.Room) error {
			return r.HandleReady(sess.GetID())
		})
	case network.MsgTypePlaceBlock:
		s.handlePlaceBlock(sess, packet)
	case network.MsgTypePlaceTreasure:
		s.handlePlaceTreasure(sess, packet)
	case network.MsgTypeShoot:
		s.handleShoot(sess, packet)
	case network.MsgTypeClaimWin:
		s.handleClaimWin(sess, packet)
	case network.MsgTypeReconnect:
		s.handleReconnect(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
}

func (s *GameServer) reject(sess *session.Session, code, reason string) {
	s.mon.IncRejectedAction(code)
	if code == network.RejectIntegrity {
		s.mon.IncSuspiciousClaims()
	}
	sess.SendEvent(network.MsgTypeActionRejected, network.ActionRejectedEvent{
		Code:   code,
		Reason: reason,
	})
}

func (s *GameServer) rejectErr(sess *session.Session, err error) {
	s.reject(sess, room.RejectionClass(err), err.Error())
}

func (s *GameServer) handleCreateRoom(sess *session.Session) {
	if sess.GetRoomCode() != "" {
		s.reject(sess, network.RejectValidation, "already in a room")
		return
	}

	r, err := s.roomManager.CreateRoom(sess.GetID())
	if err != nil {
		// Exhausting the code space is a service-level failure.
		logger.Log.Fatalf("Failed to create room: %v", err)
		return
	}
	sess.SetRoomCode(r.Code)

	sess.SendEvent(network.MsgTypeRoomCreated, network.RoomCreatedEvent{
		RoomCode:     r.Code,
		PlayerNumber: 1,
	})
}

func (s *GameServer) handleJoinRoom(sess *session.Session, packet *network.Packet) {
	var req network.JoinRoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.reject(sess, network.RejectValidation, "invalid join payload")
		return
	}
	if sess.GetRoomCode() != "" {
		s.reject(sess, network.RejectValidation, "already in a room")
		return
	}

	// Tag the session before the join so the joiner receives the join and
	// coin-flip broadcasts emitted inside it.
	code := strings.ToUpper(req.RoomCode)
	sess.SetRoomCode(code)

	_, playerNumber, err := s.roomManager.JoinRoom(code, sess.GetID())
	if err != nil {
		sess.SetRoomCode("")
		s.rejectErr(sess, err)
		return
	}

	sess.SendEvent(network.MsgTypeRoomJoined, network.RoomJoinedEvent{
		RoomCode:     code,
		PlayerNumber: playerNumber,
	})
}

// withRoom resolves the session's room and funnels handler errors into a
// single rejection event, leaving room state untouched on failure.
func (s *GameServer) withRoom(sess *session.Session, fn func(r *room.Room) error) {
	code := sess.GetRoomCode()
	if code == "" {
		s.reject(sess, network.RejectValidation, "not in a room")
		return
	}
	r, exists := s.roomManager.Get(code)
	if !exists {
		s.reject(sess, network.RejectNotFound, "room not found")
		return
	}
	if err := fn(r); err != nil {
		s.rejectErr(sess, err)
	}
}

func (s *GameServer) handlePlaceBlock(sess *session.Session, packet *network.Packet) {
	var req network.PlaceBlockRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.reject(sess, network.RejectValidation, "invalid placement payload")
		return
	}
	s.withRoom(sess, func(r *room.Room) error {
		return r.HandlePlaceBlock(sess.GetID(), req.Type, req.X, req.Y)
	})
}

func (s *GameServer) handlePlaceTreasure(sess *session.Session, packet *network.Packet) {
	var req network.PlaceTreasureRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.reject(sess, network.RejectValidation, "invalid placement payload")
		return
	}
	s.withRoom(sess, func(r *room.Room) error {
		return r.HandlePlaceTreasure(sess.GetID(), req.X, req.Y)
	})
}

func (s *GameServer) handleShoot(sess *session.Session, packet *network.Packet) {
	var req network.ShootRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.reject(sess, network.RejectValidation, "invalid shot payload")
		return
	}
	s.withRoom(sess, func(r *room.Room) error {
		return r.HandleShoot(sess.GetID(), req.OriginX, req.OriginY, req.VelocityX, req.VelocityY)
	})
}

func (s *GameServer) handleClaimWin(sess *session.Session, packet *network.Packet) {
	var req network.ClaimWinRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.reject(sess, network.RejectValidation, "invalid claim payload")
		return
	}
	s.withRoom(sess, func(r *room.Room) error {
		return r.HandleClaimWin(sess.GetID(), req.Loser)
	})
}

func (s *GameServer) handleReconnect(sess *session.Session, packet *network.Packet) {
	var req network.ReconnectRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.reject(sess, network.RejectValidation, "invalid reconnect payload")
		return
	}
	if sess.GetRoomCode() != "" {
		s.reject(sess, network.RejectValidation, "already in a room")
		return
	}

	code := strings.ToUpper(req.RoomCode)
	sess.SetRoomCode(code)

	playerNumber, err := s.ledger.Resume(req.PriorConnection, code, sess.GetID())
	if err != nil {
		sess.SetRoomCode("")
		s.rejectErr(sess, err)
		return
	}

	sess.SendEvent(network.MsgTypeRoomJoined, network.RoomJoinedEvent{
		RoomCode:     code,
		PlayerNumber: playerNumber,
	})
}
