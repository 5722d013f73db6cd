package network

// Message IDs. 1xx are client->server, 2xx are server->client.
const (
	MsgTypeHeartbeat = 1

	MsgTypeCreateRoom    = 101
	MsgTypeJoinRoom      = 102
	MsgTypeReady         = 103
	MsgTypePlaceBlock    = 104
	MsgTypePlaceTreasure = 105
	MsgTypeShoot         = 106
	MsgTypeClaimWin      = 107
	MsgTypeReconnect     = 108

	MsgTypeRoomCreated        = 201
	MsgTypeRoomJoined         = 202
	MsgTypePlayerJoined       = 203
	MsgTypeCoinFlipResult     = 204
	MsgTypeBuildPhaseStart    = 205
	MsgTypeGamePhaseStart     = 206
	MsgTypeObjectPlaced       = 207
	MsgTypeShotFired          = 208
	MsgTypeTurnChanged        = 209
	MsgTypeGameOver           = 210
	MsgTypeStateSync          = 211
	MsgTypePlayerDisconnected = 212
	MsgTypePlayerReconnected  = 213
	MsgTypePlayerLeft         = 214
	MsgTypeActionRejected     = 215
)

// Rejection codes, one per error class. Reason carries the specific cause.
const (
	RejectValidation  = "VALIDATION_REJECTED"
	RejectRateLimited = "RATE_LIMITED"
	RejectNotFound    = "NOT_FOUND"
	RejectIntegrity   = "INTEGRITY_REJECTED"
)

// --- Client -> server payloads ---

type JoinRoomRequest struct {
	RoomCode string `json:"room_code"`
}

type PlaceBlockRequest struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type PlaceTreasureRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type ShootRequest struct {
	OriginX   float64 `json:"origin_x"`
	OriginY   float64 `json:"origin_y"`
	VelocityX float64 `json:"velocity_x"`
	VelocityY float64 `json:"velocity_y"`
}

type ClaimWinRequest struct {
	Loser int `json:"loser"`
}

type ReconnectRequest struct {
	RoomCode        string `json:"room_code"`
	PriorConnection string `json:"prior_connection"`
}

// --- Server -> client payloads ---

type RoomCreatedEvent struct {
	RoomCode     string `json:"room_code"`
	PlayerNumber int    `json:"player_number"`
}

type RoomJoinedEvent struct {
	RoomCode     string `json:"room_code"`
	PlayerNumber int    `json:"player_number"`
}

type PlayerJoinedEvent struct {
	PlayersCount int `json:"players_count"`
}

type CoinFlipResultEvent struct {
	FirstPlayer int `json:"first_player"`
}

type BuildPhaseStartEvent struct {
	DurationMs       int64 `json:"duration_ms"`
	AllowancePerType int   `json:"allowance_per_type"`
}

type GamePhaseStartEvent struct {
	ActivePlayer int `json:"active_player"`
}

type ObjectPlacedEvent struct {
	PlayerNumber int     `json:"player_number"`
	Type         string  `json:"type"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
}

type ShotFiredEvent struct {
	ShotID       string  `json:"shot_id"`
	PlayerNumber int     `json:"player_number"`
	OriginX      float64 `json:"origin_x"`
	OriginY      float64 `json:"origin_y"`
	VelocityX    float64 `json:"velocity_x"`
	VelocityY    float64 `json:"velocity_y"`
}

// TurnChanged reasons.
const (
	TurnReasonShot    = "shot"
	TurnReasonTimeout = "timeout"
)

type TurnChangedEvent struct {
	ActivePlayer int    `json:"active_player"`
	Reason       string `json:"reason"`
}

type GameOverEvent struct {
	Winner int `json:"winner"`
}

type StateSyncEvent struct {
	Phase             string  `json:"phase"`
	ActivePlayer      int     `json:"active_player"`
	ObjectivesPresent [2]bool `json:"objectives_present"`
}

type PlayerDisconnectedEvent struct {
	PlayerNumber      int   `json:"player_number"`
	ReconnectWindowMs int64 `json:"reconnect_window_ms"`
}

type PlayerReconnectedEvent struct {
	PlayerNumber int `json:"player_number"`
}

type PlayerLeftEvent struct {
	PlayerNumber int `json:"player_number"`
}

type ActionRejectedEvent struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}
