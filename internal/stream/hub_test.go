package stream

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestHubPublishLocal(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("dev-1")
	defer hub.Unregister(client)

	hub.Publish("dev-1", EventArrived, map[string]string{"session_id": "s-1"})

	select {
	case msg := <-client.Send:
		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		if ev.Type != EventArrived || ev.DeviceID != "dev-1" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for event")
	}
}

func TestHubPublishOtherDevice(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("dev-1")
	defer hub.Unregister(client)

	hub.Publish("dev-2", EventFix, nil)

	select {
	case <-client.Send:
		t.Fatalf("received event for another device")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubChannelHelpers(t *testing.T) {
	ch := navChannel("abc")
	if ch != "nav:abc:events" {
		t.Fatalf("unexpected channel: %q", ch)
	}
	if deviceFromChannel(ch) != "abc" {
		t.Fatalf("unexpected device id")
	}
	if deviceFromChannel("bad") != "" {
		t.Fatalf("expected empty device id")
	}
}

func TestUnregisterCloses(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("dev-2")
	hub.Unregister(client)
	_, ok := <-client.Send
	if ok {
		t.Fatalf("expected channel closed")
	}
}

func TestHubRedisRoundTrip(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	hub := NewHub(client)
	ws := hub.Register("dev-redis")
	defer hub.Unregister(ws)

	// give the pattern subscription time to attach
	time.Sleep(20 * time.Millisecond)
	hub.Publish("dev-redis", EventFix, map[string]float64{"lat": 35.0})

	select {
	case msg := <-ws.Send:
		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		if ev.Type != EventFix || ev.DeviceID != "dev-redis" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for redis round trip")
	}
}

func TestHubRedisPublishError(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	server.Close()
	defer client.Close()

	hub := NewHub(client)
	ws := hub.Register("dev-bad")
	defer hub.Unregister(ws)

	hub.Publish("dev-bad", EventError, nil)
}
