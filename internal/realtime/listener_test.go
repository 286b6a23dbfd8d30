package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/coder/websocket"
)

func TestListenerReceivesProfileEvents(t *testing.T) {
	received := make(chan Event, 4)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("authorization = %q", got)
		}
		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept: %v", err)
			return
		}
		defer conn.Close(ws.StatusNormalClosure, "")

		payload, _ := json.Marshal(Event{
			Type:      "profile_updated",
			Entity:    "profile",
			Action:    "updated",
			ProfileID: "b",
		})
		if err := conn.Write(r.Context(), ws.MessageText, payload); err != nil {
			return
		}
		// Hold the connection open until the client goes away.
		conn.Read(r.Context())
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	l := NewListener(Config{URL: wsURL, Token: "tok-123", ReconnectDelay: time.Hour}, func(ev Event) {
		received <- ev
	}, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.Start(ctx)
	defer l.Stop()

	select {
	case ev := <-received:
		if ev.Entity != "profile" || ev.ProfileID != "b" {
			t.Errorf("event = %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestListenerIgnoresMalformedPayloads(t *testing.T) {
	received := make(chan Event, 4)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(ws.StatusNormalClosure, "")

		conn.Write(r.Context(), ws.MessageText, []byte("not json"))
		payload, _ := json.Marshal(Event{Entity: "profile", Action: "created"})
		conn.Write(r.Context(), ws.MessageText, payload)
		conn.Read(r.Context())
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	l := NewListener(Config{URL: wsURL, ReconnectDelay: time.Hour}, func(ev Event) {
		received <- ev
	}, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.Start(ctx)
	defer l.Stop()

	select {
	case ev := <-received:
		if ev.Action != "created" {
			t.Errorf("event = %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestListenerStopUnblocks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(ws.StatusNormalClosure, "")
		conn.Read(r.Context())
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	l := NewListener(Config{URL: wsURL, ReconnectDelay: time.Hour}, nil, slog.Default())

	l.Start(context.Background())
	time.Sleep(100 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		l.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
}
