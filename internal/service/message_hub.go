package service

import (
	"context"
	"encoding/json"
	"fmt"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"
	"net/http"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	shardCount     = 32
	onlineTTL      = 2 * time.Minute // 在线状态过期时间
	hubChannel     = "im_channel"
)

var (
	// 内存复用 (sync.Pool)
	eventPool = sync.Pool{
		New: func() interface{} {
			return &WSEvent{}
		},
	}
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSEvent 网关事件帧，event 命名沿用前端已有的约定
type WSEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type Client struct {
	Hub     *MessageHub
	Conn    *websocket.Conn
	Send    chan []byte
	UserID  uint
	Limiter *rate.Limiter // 限流器
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Error("WebSocket unexpected close", zap.Error(err), zap.Uint("userId", c.UserID))
			}
			break
		}

		// 限流校验 (每秒最多 30 条消息，允许突发 50 条)
		if !c.Limiter.Allow() {
			continue
		}

		// 对象池解析消息
		event := eventPool.Get().(*WSEvent)
		if err := json.Unmarshal(raw, event); err != nil {
			eventPool.Put(event)
			continue
		}

		monitoring.IMMessageCounter.WithLabelValues(event.Event, "in").Inc() // 记录上行消息
		c.Hub.handleEvent(c.UserID, event)
		eventPool.Put(event)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if n := len(c.Send); n > 0 {
				for i := 0; i < n; i++ {
					w.Write(<-c.Send)
				}
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type shard struct {
	clients map[uint]*Client
	mu      sync.RWMutex
}

// MessageHub 私信在线网关。消息先经 MessageService 落库，再尽力推送；
// 多实例间通过 Redis 发布订阅转发，在线状态用带 TTL 的 user:online:{id} 键。
type MessageHub struct {
	shards     [shardCount]*shard
	register   chan *Client
	unregister chan *Client
	Redis      *redis.Client
	Messages   *MessageService
	ctx        context.Context
}

func NewMessageHub(rdb *redis.Client, messages *MessageService) *MessageHub {
	h := &MessageHub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		Redis:      rdb,
		Messages:   messages,
		ctx:        context.Background(),
	}
	for i := 0; i < shardCount; i++ {
		h.shards[i] = &shard{
			clients: make(map[uint]*Client),
		}
	}
	return h
}

func (h *MessageHub) getShard(userID uint) *shard {
	return h.shards[userID%shardCount]
}

type PubSubMessage struct {
	TargetUsers []uint          `json:"targetUsers"`
	Payload     json.RawMessage `json:"payload"`
}

func (h *MessageHub) Run() {
	pubsub := h.Redis.Subscribe(h.ctx, hubChannel)
	go func() {
		ch := pubsub.Channel()
		for msg := range ch {
			var psMsg PubSubMessage
			if err := json.Unmarshal([]byte(msg.Payload), &psMsg); err != nil {
				logger.Log.Error("PubSub unmarshal error", zap.Error(err))
				continue
			}
			h.pushToLocalUsers(psMsg.TargetUsers, psMsg.Payload)
		}
	}()

	// 批量处理状态更新
	ticker := time.NewTicker(500 * time.Millisecond)
	// 状态续期定时器 (Heartbeat)
	heartbeatTicker := time.NewTicker(1 * time.Minute)
	defer func() {
		ticker.Stop()
		heartbeatTicker.Stop()
	}()

	type statusUpdate struct {
		userID uint
		online bool
	}
	var pendingUpdates []statusUpdate

	for {
		select {
		case client := <-h.register:
			s := h.getShard(client.UserID)
			s.mu.Lock()
			s.clients[client.UserID] = client
			s.mu.Unlock()
			pendingUpdates = append(pendingUpdates, statusUpdate{client.UserID, true})
			monitoring.IMOnlineUsers.Inc() // 增加在线人数

		case client := <-h.unregister:
			s := h.getShard(client.UserID)
			s.mu.Lock()
			if _, ok := s.clients[client.UserID]; ok {
				delete(s.clients, client.UserID)
				close(client.Send)
				monitoring.IMOnlineUsers.Dec() // 减少在线人数
			}
			s.mu.Unlock()
			pendingUpdates = append(pendingUpdates, statusUpdate{client.UserID, false})

		case <-heartbeatTicker.C:
			// 为本地在线用户批量续期
			h.refreshOnlineStatus()

		case <-ticker.C:
			if len(pendingUpdates) == 0 {
				continue
			}

			pipe := h.Redis.Pipeline()
			for _, update := range pendingUpdates {
				key := fmt.Sprintf("user:online:%d", update.userID)
				if update.online {
					pipe.Set(h.ctx, key, "true", onlineTTL)
				} else {
					pipe.Del(h.ctx, key)
				}
			}
			if _, err := pipe.Exec(h.ctx); err != nil {
				logger.Log.Error("Redis pipeline error", zap.Error(err))
			}

			// 发送上线/下线通知
			for _, update := range pendingUpdates {
				h.notifyStatus(update.userID, update.online)
			}
			pendingUpdates = pendingUpdates[:0]
		}
	}
}

// refreshOnlineStatus 刷新当前实例所有在线用户的过期时间
func (h *MessageHub) refreshOnlineStatus() {
	pipe := h.Redis.Pipeline()
	count := 0
	for i := 0; i < shardCount; i++ {
		s := h.shards[i]
		s.mu.RLock()
		for userID := range s.clients {
			pipe.Expire(h.ctx, fmt.Sprintf("user:online:%d", userID), onlineTTL)
			count++
		}
		s.mu.RUnlock()
	}
	if count > 0 {
		pipe.Exec(h.ctx)
		logger.Log.Debug("Refreshed online status", zap.Int("count", count))
	}
}

// notifyStatus 把上线/下线事件推给有过会话往来的用户
func (h *MessageHub) notifyStatus(userID uint, online bool) {
	event := "user:offline"
	if online {
		event = "user:online"
	}

	peerIDs, err := h.Messages.MessageRepo.PeerIDs(userID)
	if err != nil {
		logger.Log.Error("Status notify peer lookup failed", zap.Error(err), zap.Uint("userId", userID))
		return
	}
	if len(peerIDs) > 0 {
		h.PushToUsers(peerIDs, WSEvent{
			Event: event,
			Data:  map[string]interface{}{"userId": userID},
		})
	}
}

// handleEvent 上行事件分发。持久化一律走 MessageService，
// 网关本身只负责投递，不持有任何消息状态。
func (h *MessageHub) handleEvent(senderID uint, event *WSEvent) {
	data, _ := event.Data.(map[string]interface{})

	switch event.Event {
	case "send:message":
		receiverID := uintField(data, "receiverId")
		content, _ := data["content"].(string)
		if receiverID == 0 || content == "" {
			return
		}

		message, err := h.Messages.Send(senderID, receiverID, content)
		if err != nil {
			logger.Log.Warn("WS message rejected",
				zap.Uint("senderId", senderID),
				zap.Uint("receiverId", receiverID),
				zap.Error(err))
			h.PushToUsers([]uint{senderID}, WSEvent{
				Event: "message:error",
				Data:  map[string]interface{}{"error": err.Error()},
			})
			return
		}

		h.PushToUsers([]uint{senderID}, WSEvent{Event: "message:sent", Data: message})
		h.PushToUsers([]uint{receiverID}, WSEvent{Event: "message:received", Data: message})
		h.PushToUsers([]uint{senderID, receiverID}, WSEvent{
			Event: "conversation:updated",
			Data:  map[string]interface{}{"lastMessage": message},
		})

	case "typing:start", "typing:stop":
		receiverID := uintField(data, "receiverId")
		if receiverID == 0 {
			return
		}
		outbound := "typing:stopped"
		if event.Event == "typing:start" {
			outbound = "typing:started"
		}
		// 瞬时事件，对方不在线就直接丢弃
		if !h.IsUserOnline(receiverID) {
			return
		}
		h.PushToUsers([]uint{receiverID}, WSEvent{
			Event: outbound,
			Data:  map[string]interface{}{"userId": senderID},
		})

	case "mark:read":
		messageID, _ := data["messageId"].(string)
		if messageID == "" {
			return
		}
		message, err := h.Messages.MarkRead(senderID, messageID)
		if err != nil {
			return
		}
		if h.IsUserOnline(message.SenderID) {
			h.PushToUsers([]uint{message.SenderID}, WSEvent{
				Event: "message:read",
				Data: map[string]interface{}{
					"messageId": message.ID,
					"readerId":  senderID,
				},
			})
		}

	case "mark:all:read":
		peerID := uintField(data, "senderId")
		if peerID == 0 {
			return
		}
		if err := h.Messages.MarkAllRead(senderID, peerID); err != nil {
			return
		}
		if h.IsUserOnline(peerID) {
			h.PushToUsers([]uint{peerID}, WSEvent{
				Event: "messages:all:read",
				Data:  map[string]interface{}{"readerId": senderID},
			})
		}
	}
}

func uintField(data map[string]interface{}, key string) uint {
	if v, ok := data[key].(float64); ok && v > 0 {
		return uint(v)
	}
	return 0
}

// Stop 关闭所有连接并清理在线状态
func (h *MessageHub) Stop() {
	logger.Log.Info("MessageHub stopping: clearing online status and closing connections...")

	var allUserIDs []uint
	for i := 0; i < shardCount; i++ {
		s := h.shards[i]
		s.mu.Lock()
		for userID, client := range s.clients {
			allUserIDs = append(allUserIDs, userID)
			close(client.Send)
			delete(s.clients, userID)
		}
		s.mu.Unlock()
	}

	if len(allUserIDs) > 0 {
		pipe := h.Redis.Pipeline()
		for _, userID := range allUserIDs {
			pipe.Del(h.ctx, fmt.Sprintf("user:online:%d", userID))
		}
		pipe.Exec(h.ctx)
	}

	monitoring.IMOnlineUsers.Set(0) // 停机时清空指标
	logger.Log.Info("MessageHub stopped", zap.Int("closedConnections", len(allUserIDs)))
}

func (h *MessageHub) PushToUsers(userIDs []uint, event WSEvent) {
	// 避免二次序列化
	payload, _ := json.Marshal(event)
	psMsg := PubSubMessage{
		TargetUsers: userIDs,
		Payload:     payload,
	}
	wrapped, _ := json.Marshal(psMsg)
	h.Redis.Publish(h.ctx, hubChannel, wrapped)
	monitoring.IMMessageCounter.WithLabelValues(event.Event, "out").Inc() // 记录下行消息
}

func (h *MessageHub) pushToLocalUsers(userIDs []uint, payload []byte) {
	for _, id := range userIDs {
		s := h.getShard(id)
		s.mu.RLock()
		if client, ok := s.clients[id]; ok {
			select {
			case client.Send <- payload:
			default:
			}
		}
		s.mu.RUnlock()
	}
}

func (h *MessageHub) IsUserOnline(userID uint) bool {
	// 查本地分片
	s := h.getShard(userID)
	s.mu.RLock()
	_, ok := s.clients[userID]
	s.mu.RUnlock()
	if ok {
		return true
	}

	// 查 Redis (多实例部署)
	val, err := h.Redis.Get(h.ctx, fmt.Sprintf("user:online:%d", userID)).Result()
	return err == nil && val == "true"
}

func ServeWs(hub *MessageHub, w http.ResponseWriter, r *http.Request, userID uint) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed", zap.Error(err), zap.Uint("userId", userID))
		return
	}
	client := &Client{
		Hub:     hub,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		UserID:  userID,
		Limiter: rate.NewLimiter(rate.Limit(30), 50), // 每秒30条，允许突发50条
	}
	client.Hub.register <- client

	go client.writePump()
	go client.readPump()
}
