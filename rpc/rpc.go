package rpc

import (
	"net"
	"net/rpc"

	"github.com/DDMaster24/doodle-duals/logger"
	"github.com/DDMaster24/doodle-duals/models"
	"github.com/DDMaster24/doodle-duals/services"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// StatsProvider is implemented by the game server and reports live counters.
type StatsProvider interface {
	Stats() (activeRooms, onlinePlayers, pendingReconnects int)
}

// AdminService exposes operational queries over net/rpc. Methods follow the
// net/rpc signature rules: exported, pointer args, error return.
type AdminService struct {
	stats   StatsProvider
	matches *services.MatchService
}

func NewAdminService(stats StatsProvider, matches *services.MatchService) *AdminService {
	return &AdminService{stats: stats, matches: matches}
}

type StatsArgs struct{}

type StatsReply struct {
	ActiveRooms       int
	OnlinePlayers     int
	PendingReconnects int
	ArchivedMatches   int64
}

func (a *AdminService) GetStats(args *StatsArgs, reply *StatsReply) error {
	reply.ActiveRooms, reply.OnlinePlayers, reply.PendingReconnects = a.stats.Stats()
	if a.matches != nil {
		count, err := a.matches.CountMatches()
		if err != nil {
			return err
		}
		reply.ArchivedMatches = count
	}
	return nil
}

type RecentMatchesArgs struct {
	Limit int
}

type RecentMatchesReply struct {
	Matches []models.MatchRecord
}

func (a *AdminService) GetRecentMatches(args *RecentMatchesArgs, reply *RecentMatchesReply) error {
	if a.matches == nil {
		reply.Matches = nil
		return nil
	}
	limit := args.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	matches, err := a.matches.RecentMatches(limit)
	if err != nil {
		return err
	}
	reply.Matches = matches
	return nil
}
