package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wfunc/dicetown/models"
	"github.com/wfunc/dicetown/network"
)

const usage = `commands:
  bind <room> <player>             bind this connection to a seat
  start <player>[:ai] ...          start a game with the given seats
  roll [1|2]                       roll dice
  keep | reroll                    answer the radio tower
  tv <target>                      answer the TV station
  swap <target> <give> <take>      answer the business center
  buy <establishment>              buy an establishment
  build <landmark>                 build a landmark
  end                              end the turn
  state                            fetch the room snapshot
  ping                             heartbeat`

var seq uint32

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, body interface{}) error {
	var data []byte
	if body != nil {
		var err error
		if data, err = json.Marshal(body); err != nil {
			return err
		}
	}
	packet, err := network.Encode(msgID, atomic.AddUint32(&seq, 1), data)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.BinaryMessage, packet)
}

// parseCommand turns one input line into a message id and body.
func parseCommand(line string) (uint16, interface{}, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, nil, fmt.Errorf("empty command")
	}
	args := fields[1:]
	need := func(n int) error {
		if len(args) < n {
			return fmt.Errorf("%s needs %d arguments", fields[0], n)
		}
		return nil
	}

	switch fields[0] {
	case "bind":
		if err := need(2); err != nil {
			return 0, nil, err
		}
		return network.MsgTypeBind, network.BindRequest{RoomID: args[0], PlayerID: args[1]}, nil
	case "start":
		if err := need(2); err != nil {
			return 0, nil, err
		}
		req := network.StartGameRequest{}
		for _, a := range args {
			id, ai := strings.CutSuffix(a, ":ai")
			req.Seats = append(req.Seats, network.SeatRequest{PlayerID: id, IsAI: ai})
		}
		return network.MsgTypeStartGame, req, nil
	case "roll":
		count := 1
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return 0, nil, fmt.Errorf("dice count: %w", err)
			}
			count = n
		}
		return network.MsgTypeRoll, network.RollRequest{DiceCount: count}, nil
	case "keep", "reroll":
		return network.MsgTypeResolveDecision, network.ResolveDecisionRequest{
			Decision: models.Resolution{Type: models.DecisionRadioTower, Choice: fields[0]},
		}, nil
	case "tv":
		if err := need(1); err != nil {
			return 0, nil, err
		}
		return network.MsgTypeResolveDecision, network.ResolveDecisionRequest{
			Decision: models.Resolution{Type: models.DecisionTVStation, TargetPlayerID: args[0]},
		}, nil
	case "swap":
		if err := need(3); err != nil {
			return 0, nil, err
		}
		return network.MsgTypeResolveDecision, network.ResolveDecisionRequest{
			Decision: models.Resolution{
				Type:           models.DecisionBusinessCenter,
				TargetPlayerID: args[0],
				GiveCardID:     args[1],
				TakeCardID:     args[2],
			},
		}, nil
	case "buy":
		if err := need(1); err != nil {
			return 0, nil, err
		}
		return network.MsgTypeBuyEstablishment, network.BuyRequest{CardID: args[0]}, nil
	case "build":
		if err := need(1); err != nil {
			return 0, nil, err
		}
		return network.MsgTypeBuyLandmark, network.BuyRequest{CardID: args[0]}, nil
	case "end":
		return network.MsgTypeEndTurn, nil, nil
	case "state":
		return network.MsgTypeSnapshot, nil, nil
	case "ping":
		return network.MsgTypeHeartbeat, nil, nil
	}
	return 0, nil, fmt.Errorf("unknown command %q", fields[0])
}

func main() {
	addr := flag.String("addr", "localhost:8080", "game server address")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
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
			packet, err := network.Decode(message)
			if err != nil {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			log.Printf("<- RECV (ID: %d, seq %d): %s", packet.MsgID, packet.Seq, string(packet.Data))
		}
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	log.Println(usage)

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
		case line, ok := <-lines:
			if !ok {
				return
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			msgID, body, err := parseCommand(line)
			if err != nil {
				log.Println(err)
				continue
			}
			if err := send(c, msgID, body); err != nil {
				log.Println("Write error:", err)
				return
			}
			log.Printf("-> SENT: %s", strings.TrimSpace(line))
		}
	}
}
