package session

import (
	"net"
	"testing"
	"time"

	"github.com/DDMaster24/doodle-duals/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct {
	sent []uint16
}

func (m *MockConnection) Send(msgID uint16, data []byte) error {
	m.sent = append(m.sent, msgID)
	return nil
}

func (m *MockConnection) SendEvent(msgID uint16, payload interface{}) error {
	m.sent = append(m.sent, msgID)
	return nil
}

func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func TestNewManager(t *testing.T) {
	manager := NewManager()
	if manager == nil {
		t.Fatal("NewManager should not return nil")
	}
	if manager.sessions == nil {
		t.Fatal("NewManager should initialize the sessions map")
	}
}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sessionID := "test_session_1"
	sess := NewSession(sessionID, &MockConnection{})

	// Test Add
	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("Expected session count to be 1, got %d", manager.Count())
	}

	// Test Get
	retrievedSess, exists := manager.Get(sessionID)
	if !exists {
		t.Fatal("Get should find the added session")
	}
	if retrievedSess != sess {
		t.Fatal("Get should return the same session instance")
	}

	// Test Remove
	manager.Remove(sessionID)
	if manager.Count() != 0 {
		t.Fatalf("Expected session count to be 0 after removal, got %d", manager.Count())
	}

	_, exists = manager.Get(sessionID)
	if exists {
		t.Fatal("Get should not find the removed session")
	}
}

func TestManager_GetByRoomCode(t *testing.T) {
	manager := NewManager()

	sess1 := NewSession("session1", &MockConnection{})
	sess1.SetRoomCode("ABC123")

	sess2 := NewSession("session2", &MockConnection{})
	sess2.SetRoomCode("XYZ789")

	sess3 := NewSession("session3", &MockConnection{})
	sess3.SetRoomCode("ABC123")

	manager.Add(sess1)
	manager.Add(sess2)
	manager.Add(sess3)

	abcSessions := manager.GetByRoomCode("ABC123")
	if len(abcSessions) != 2 {
		t.Errorf("Expected 2 sessions for room ABC123, got %d", len(abcSessions))
	}

	xyzSessions := manager.GetByRoomCode("XYZ789")
	if len(xyzSessions) != 1 {
		t.Errorf("Expected 1 session for room XYZ789, got %d", len(xyzSessions))
	}

	noneSessions := manager.GetByRoomCode("QQQQQQ")
	if len(noneSessions) != 0 {
		t.Errorf("Expected 0 sessions for an unknown room, got %d", len(noneSessions))
	}
}

func TestSession_RoomCode(t *testing.T) {
	sess := NewSession("test_session", &MockConnection{})

	if sess.GetRoomCode() != "" {
		t.Error("A fresh session should not be bound to a room")
	}

	sess.SetRoomCode("ABC123")
	if sess.GetRoomCode() != "ABC123" {
		t.Errorf("Expected room code ABC123, got %q", sess.GetRoomCode())
	}

	sess.SetRoomCode("")
	if sess.GetRoomCode() != "" {
		t.Error("Clearing the room code should leave the session unbound")
	}
}

func TestSession_SendTouchesActivity(t *testing.T) {
	sess := NewSession("test_session", &MockConnection{})
	before := sess.LastActive

	time.Sleep(5 * time.Millisecond)
	if err := sess.Send(1, nil); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	sess.mutex.RLock()
	after := sess.LastActive
	sess.mutex.RUnlock()
	if !after.After(before) {
		t.Error("Send should advance LastActive")
	}
}
