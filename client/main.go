package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	MsgTypeCreateRoom    = 101
	MsgTypeJoinRoom      = 102
	MsgTypeReady         = 103
	MsgTypePlaceBlock    = 104
	MsgTypePlaceTreasure = 105
	MsgTypeShoot         = 106
	MsgTypeClaimWin      = 107
)

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, data []byte) error {
	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func sendJSON(c *websocket.Conn, msgID uint16, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return send(c, msgID, data)
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func main() {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: "localhost:8080", Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			if len(message) < 4 {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			msgID := binary.BigEndian.Uint16(message[0:2])
			data := message[4:]
			log.Printf("<- RECV (ID: %d): %s", msgID, string(data))
		}
	}()

	log.Println("Commands:")
	log.Println("  create")
	log.Println("  join <code>")
	log.Println("  ready")
	log.Println("  block <type> <x> <y>")
	log.Println("  treasure <x> <y>")
	log.Println("  shoot <x> <y> <vx> <vy>")
	log.Println("  claim <loser>")

	// Write loop
	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		default:
			text, _ := reader.ReadString('\n')
			fields := strings.Fields(strings.TrimSpace(text))
			if len(fields) == 0 {
				continue
			}

			var err error
			switch fields[0] {
			case "create":
				err = send(c, MsgTypeCreateRoom, []byte{})
			case "join":
				if len(fields) != 2 {
					log.Println("Usage: join <code>")
					continue
				}
				err = sendJSON(c, MsgTypeJoinRoom, map[string]string{"room_code": fields[1]})
			case "ready":
				err = send(c, MsgTypeReady, []byte{})
			case "block":
				if len(fields) != 4 {
					log.Println("Usage: block <type> <x> <y>")
					continue
				}
				err = sendJSON(c, MsgTypePlaceBlock, map[string]interface{}{
					"type": fields[1],
					"x":    parseFloat(fields[2]),
					"y":    parseFloat(fields[3]),
				})
			case "treasure":
				if len(fields) != 3 {
					log.Println("Usage: treasure <x> <y>")
					continue
				}
				err = sendJSON(c, MsgTypePlaceTreasure, map[string]interface{}{
					"x": parseFloat(fields[1]),
					"y": parseFloat(fields[2]),
				})
			case "shoot":
				if len(fields) != 5 {
					log.Println("Usage: shoot <x> <y> <vx> <vy>")
					continue
				}
				err = sendJSON(c, MsgTypeShoot, map[string]interface{}{
					"origin_x":   parseFloat(fields[1]),
					"origin_y":   parseFloat(fields[2]),
					"velocity_x": parseFloat(fields[3]),
					"velocity_y": parseFloat(fields[4]),
				})
			case "claim":
				if len(fields) != 2 {
					log.Println("Usage: claim <loser>")
					continue
				}
				loser, _ := strconv.Atoi(fields[1])
				err = sendJSON(c, MsgTypeClaimWin, map[string]int{"loser": loser})
			default:
				log.Printf("Unknown command: %s", fields[0])
				continue
			}
			if err != nil {
				log.Println("Write error:", err)
				return
			}
			log.Printf("-> SENT: %s", fields[0])
		}
	}
}
