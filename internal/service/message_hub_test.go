package service

import (
	"testing"

	"github.com/go-redis/redis/v8"
)

func TestUintField(t *testing.T) {
	// JSON 数字解出来一律是 float64
	data := map[string]interface{}{
		"receiverId": float64(42),
		"zero":       float64(0),
		"negative":   float64(-3),
		"string":     "42",
	}

	if got := uintField(data, "receiverId"); got != 42 {
		t.Errorf("receiverId = %d, want 42", got)
	}
	if got := uintField(data, "zero"); got != 0 {
		t.Errorf("zero value should map to 0, got %d", got)
	}
	if got := uintField(data, "negative"); got != 0 {
		t.Errorf("negative value should map to 0, got %d", got)
	}
	if got := uintField(data, "string"); got != 0 {
		t.Errorf("non-numeric value should map to 0, got %d", got)
	}
	if got := uintField(data, "missing"); got != 0 {
		t.Errorf("missing key should map to 0, got %d", got)
	}
}

func newTestHub() *MessageHub {
	// 端口 1 上没有监听者，Redis 查询快速失败，本地分片逻辑不受影响
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	return NewMessageHub(rdb, nil)
}

func TestPushToLocalUsersDeliversPayload(t *testing.T) {
	hub := newTestHub()
	client := &Client{UserID: 5, Send: make(chan []byte, 1)}
	s := hub.getShard(5)
	s.mu.Lock()
	s.clients[5] = client
	s.mu.Unlock()

	hub.pushToLocalUsers([]uint{5, 999}, []byte(`{"event":"message:received"}`))

	select {
	case got := <-client.Send:
		if string(got) != `{"event":"message:received"}` {
			t.Fatalf("unexpected payload %s", got)
		}
	default:
		t.Fatal("connected client should receive the payload")
	}
}

func TestPushToLocalUsersDropsWhenBufferFull(t *testing.T) {
	hub := newTestHub()
	client := &Client{UserID: 5, Send: make(chan []byte, 1)}
	client.Send <- []byte("backlog")
	s := hub.getShard(5)
	s.mu.Lock()
	s.clients[5] = client
	s.mu.Unlock()

	// 慢客户端不能阻塞网关，缓冲满时直接丢弃
	done := make(chan struct{})
	go func() {
		hub.pushToLocalUsers([]uint{5}, []byte("dropped"))
		close(done)
	}()
	<-done

	if got := <-client.Send; string(got) != "backlog" {
		t.Fatalf("backlog message should be untouched, got %s", got)
	}
	select {
	case got := <-client.Send:
		t.Fatalf("overflow message should be dropped, got %s", got)
	default:
	}
}

func TestIsUserOnlineLocalShard(t *testing.T) {
	hub := newTestHub()
	client := &Client{UserID: 37, Send: make(chan []byte, 1)}
	s := hub.getShard(37)
	s.mu.Lock()
	s.clients[37] = client
	s.mu.Unlock()

	if !hub.IsUserOnline(37) {
		t.Error("user registered on the local shard should be online")
	}
	// 本地没有、Redis 也查不到的用户视为离线
	if hub.IsUserOnline(38) {
		t.Error("unknown user should be offline")
	}
}

func TestShardDistributionIsStable(t *testing.T) {
	hub := newTestHub()
	for _, id := range []uint{1, 31, 32, 33, 1024} {
		if hub.getShard(id) != hub.shards[id%shardCount] {
			t.Errorf("user %d mapped to the wrong shard", id)
		}
	}
}
