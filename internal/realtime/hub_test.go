package realtime_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hackfest/ideavote/internal/domain"
	"github.com/hackfest/ideavote/internal/realtime"
	"github.com/hackfest/ideavote/internal/scoring"
	"github.com/hackfest/ideavote/internal/session"
)

type stubBoards struct {
	board *scoring.Board
}

func (s *stubBoards) Snapshot(_ context.Context) (*scoring.Board, error) {
	return s.board, nil
}

type captureSink struct {
	mu      sync.Mutex
	applied chan struct{}
	role    domain.Role
	deltas  map[int64]int
}

func newCaptureSink() *captureSink {
	return &captureSink{applied: make(chan struct{}, 1)}
}

func (s *captureSink) Apply(_ context.Context, role domain.Role, deltas map[int64]int) ([]domain.Idea, error) {
	s.mu.Lock()
	s.role = role
	s.deltas = deltas
	s.mu.Unlock()
	select {
	case s.applied <- struct{}{}:
	default:
	}
	return nil, nil
}

func testBoard() *scoring.Board {
	return &scoring.Board{
		Scores: map[int64]scoring.IdeaScores{
			1: {Name: "Idea One", Judge: 5, Audience: 3, Total: 8},
			2: {Name: "Idea Two", Judge: 2, Audience: 1, Total: 3},
		},
		Winner: &scoring.Winner{ID: 1, Name: "Idea One", Score: 8},
	}
}

type fixture struct {
	hub      *realtime.Hub
	sink     *captureSink
	server   *httptest.Server
	sessions *session.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	hub := realtime.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	sink := newCaptureSink()
	sessions := session.NewManager("test-secret", time.Hour, nil)
	handler := realtime.NewHandler(hub, sessions, sink, &stubBoards{board: testBoard()})

	server := httptest.NewServer(http.HandlerFunc(handler.ServeWS))
	t.Cleanup(server.Close)

	return &fixture{hub: hub, sink: sink, server: server, sessions: sessions}
}

func (f *fixture) dial(t *testing.T, role domain.Role) *websocket.Conn {
	t.Helper()

	sess, err := f.sessions.Establish(&domain.User{ID: 1, Email: "viewer@amdocs.com", Role: role})
	if err != nil {
		t.Fatalf("failed to establish session: %v", err)
	}

	url := strings.Replace(f.server.URL, "http", "ws", 1) + "?token=" + sess.Token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) realtime.Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame realtime.Frame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("failed to read frame: %v", err)
	}
	return frame
}

func TestConnectRequiresValidSession(t *testing.T) {
	f := newFixture(t)

	url := strings.Replace(f.server.URL, "http", "ws", 1)
	if _, resp, err := websocket.DefaultDialer.Dial(url, nil); err == nil {
		t.Error("expected dial without a token to fail")
	} else if resp != nil && resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}

	if _, resp, err := websocket.DefaultDialer.Dial(url+"?token=garbage", nil); err == nil {
		t.Error("expected dial with a garbage token to fail")
	} else if resp != nil && resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestNewViewerGetsCurrentBoard(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, domain.RoleAudience)

	frame := readFrame(t, conn)
	if frame.Type != realtime.FrameScores {
		t.Errorf("expected %q frame, got %q", realtime.FrameScores, frame.Type)
	}
	if len(frame.Scores) != 2 {
		t.Errorf("expected 2 ideas on the board, got %d", len(frame.Scores))
	}
	if frame.Winner == nil || frame.Winner.ID != 1 {
		t.Errorf("expected winner idea 1, got %+v", frame.Winner)
	}
}

func TestBroadcastReachesAllViewers(t *testing.T) {
	f := newFixture(t)

	first := f.dial(t, domain.RoleJudge)
	second := f.dial(t, domain.RoleAudience)
	readFrame(t, first)
	readFrame(t, second)

	if got := f.hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 registered viewers, got %d", got)
	}

	f.hub.Broadcast(realtime.Frame{
		Type:      realtime.FrameScores,
		Timestamp: time.Now(),
		Scores: map[int64]scoring.IdeaScores{
			1: {Name: "Idea One", Judge: 6, Audience: 3, Total: 9},
		},
		Winner: &scoring.Winner{ID: 1, Name: "Idea One", Score: 9},
	})

	for _, conn := range []*websocket.Conn{first, second} {
		frame := readFrame(t, conn)
		if frame.Scores[1].Total != 9 {
			t.Errorf("expected updated total 9, got %d", frame.Scores[1].Total)
		}
	}
}

func TestSubmissionReachesSinkWithSessionRole(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, domain.RoleJudge)
	readFrame(t, conn)

	err := conn.WriteJSON(map[string]interface{}{
		"type":   "submit_scores",
		"scores": map[string]int{"1": 5, "2": 2, "bogus": 9},
	})
	if err != nil {
		t.Fatalf("failed to write submission: %v", err)
	}

	select {
	case <-f.sink.applied:
	case <-time.After(2 * time.Second):
		t.Fatal("submission never reached the sink")
	}

	f.sink.mu.Lock()
	defer f.sink.mu.Unlock()
	if f.sink.role != domain.RoleJudge {
		t.Errorf("submission attributed to %v, want judge", f.sink.role)
	}
	if len(f.sink.deltas) != 2 || f.sink.deltas[1] != 5 || f.sink.deltas[2] != 2 {
		t.Errorf("unexpected deltas: %v", f.sink.deltas)
	}
}

func TestConnectWhileBroadcasting(t *testing.T) {
	f := newFixture(t)

	// Keep the run loop writing to every registered connection while new
	// viewers arrive mid-stream. Each connect-time frame must come out of the
	// run loop too, so a second writer on any connection is a bug here.
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
				f.hub.Broadcast(realtime.Frame{
					Type:      realtime.FrameScores,
					Timestamp: time.Now(),
					Scores:    map[int64]scoring.IdeaScores{1: {Name: "Idea One", Total: 1}},
				})
				time.Sleep(time.Millisecond)
			}
		}
	}()

	const viewers = 25
	var wg sync.WaitGroup
	for i := 0; i < viewers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			sess, err := f.sessions.Establish(&domain.User{ID: 1, Email: "viewer@amdocs.com", Role: domain.RoleAudience})
			if err != nil {
				t.Errorf("failed to establish session: %v", err)
				return
			}
			url := strings.Replace(f.server.URL, "http", "ws", 1) + "?token=" + sess.Token
			conn, _, err := websocket.DefaultDialer.Dial(url, nil)
			if err != nil {
				t.Errorf("failed to dial: %v", err)
				return
			}
			defer conn.Close()

			conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			var frame realtime.Frame
			if err := conn.ReadJSON(&frame); err != nil {
				t.Errorf("failed to read connect-time frame: %v", err)
			}
		}()
	}
	wg.Wait()

	close(stop)
	<-done
}

func TestDisconnectUnregistersViewer(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, domain.RoleAudience)
	readFrame(t, conn)

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for f.hub.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("viewer still registered after disconnect, count=%d", f.hub.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
