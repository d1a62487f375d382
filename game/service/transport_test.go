package service_test

import (
	"encoding/json"
	"testing"

	"github.com/wricardo/rps-arena/game/room"
	"github.com/wricardo/rps-arena/game/service"
)

type sent struct {
	To      room.ConnID
	Event   string
	Payload any
}

// recordingTransport is an in-memory Transport that keeps every delivery in order
type recordingTransport struct {
	groups map[string][]room.ConnID
	live   map[room.ConnID]bool
	sent   []sent
}

func newRecordingTransport(conns ...room.ConnID) *recordingTransport {
	tr := &recordingTransport{
		groups: make(map[string][]room.ConnID),
		live:   make(map[room.ConnID]bool),
	}
	for _, conn := range conns {
		tr.live[conn] = true
	}
	return tr
}

func (tr *recordingTransport) Join(roomID string, conn room.ConnID) {
	if tr.IsMember(roomID, conn) {
		return
	}
	tr.groups[roomID] = append(tr.groups[roomID], conn)
}

func (tr *recordingTransport) Leave(roomID string, conn room.ConnID) {
	members := tr.groups[roomID]
	for i, m := range members {
		if m == conn {
			tr.groups[roomID] = append(members[:i:i], members[i+1:]...)
			break
		}
	}
	if len(tr.groups[roomID]) == 0 {
		delete(tr.groups, roomID)
	}
}

func (tr *recordingTransport) Members(roomID string) []room.ConnID {
	return append([]room.ConnID(nil), tr.groups[roomID]...)
}

func (tr *recordingTransport) IsMember(roomID string, conn room.ConnID) bool {
	for _, m := range tr.groups[roomID] {
		if m == conn {
			return true
		}
	}
	return false
}

func (tr *recordingTransport) Connected(conn room.ConnID) bool {
	return tr.live[conn]
}

func (tr *recordingTransport) Emit(conn room.ConnID, event string, payload any) {
	tr.sent = append(tr.sent, sent{To: conn, Event: event, Payload: payload})
}

func (tr *recordingTransport) Broadcast(roomID string, event string, payload any, except room.ConnID) {
	for _, m := range tr.groups[roomID] {
		if m != except {
			tr.Emit(m, event, payload)
		}
	}
}

// disconnect mimics the hub: the connection leaves every group before the
// coordinator hears about it.
func (tr *recordingTransport) disconnect(conn room.ConnID) {
	delete(tr.live, conn)
	for roomID := range tr.groups {
		tr.Leave(roomID, conn)
	}
}

func (tr *recordingTransport) deliveries(conn room.ConnID) []sent {
	var out []sent
	for _, s := range tr.sent {
		if s.To == conn {
			out = append(out, s)
		}
	}
	return out
}

func (tr *recordingTransport) eventNames(conn room.ConnID) []string {
	var names []string
	for _, s := range tr.deliveries(conn) {
		names = append(names, s.Event)
	}
	return names
}

func (tr *recordingTransport) last(conn room.ConnID) sent {
	d := tr.deliveries(conn)
	if len(d) == 0 {
		return sent{}
	}
	return d[len(d)-1]
}

func (tr *recordingTransport) clear() {
	tr.sent = nil
}

func newEvent(t *testing.T, name string, conn room.ConnID, data any) service.Event {
	t.Helper()

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("Failed to marshal %s payload: %v", name, err)
	}
	return service.Event{Name: name, Conn: conn, Data: raw}
}
