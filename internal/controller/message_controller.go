package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type MessageController struct {
	MessageService *service.MessageService
	Hub            *service.MessageHub
}

func NewMessageController(messageService *service.MessageService, hub *service.MessageHub) *MessageController {
	return &MessageController{
		MessageService: messageService,
		Hub:            hub,
	}
}

// SendMessageRequest 发送私信请求体
type SendMessageRequest struct {
	ReceiverID uint   `json:"receiverId" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

// Send godoc
// @Summary 发送私信
// @Description 落库后若对方在线则实时推送
// @Tags 消息
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body SendMessageRequest true "消息内容"
// @Success 201 {object} util.Response{data=model.Message}
// @Failure 404 {object} util.Response "接收者不存在"
// @Router /api/messages [post]
func (c *MessageController) Send(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	var req SendMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	message, err := c.MessageService.Send(claims.UserID, req.ReceiverID, req.Content)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	// REST 入口发送的消息同样走在线推送
	c.Hub.PushToUsers([]uint{req.ReceiverID}, service.WSEvent{Event: "message:received", Data: message})
	c.Hub.PushToUsers([]uint{claims.UserID, req.ReceiverID}, service.WSEvent{
		Event: "conversation:updated",
		Data:  map[string]interface{}{"lastMessage": message},
	})

	util.Created(ctx, message)
}

// Conversations godoc
// @Summary 会话列表
// @Description 全部会话概要：对端信息、最近一条消息、未读数
// @Tags 消息
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]service.ConversationSummary}
// @Router /api/messages/conversations [get]
func (c *MessageController) Conversations(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	summaries, err := c.MessageService.GetConversations(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, summaries)
}

// Conversation godoc
// @Summary 会话历史
// @Description 与某用户的完整往来，拉取时对方发来的未读自动置为已读
// @Tags 消息
// @Produce  json
// @Security BearerAuth
// @Param   peerId path int true "对端用户ID"
// @Success 200 {object} util.Response{data=[]model.Message}
// @Router /api/messages/conversation/{peerId} [get]
func (c *MessageController) Conversation(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	peerID, err := strconv.ParseUint(ctx.Param("peerId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid peer id")
		return
	}

	messages, err := c.MessageService.GetConversation(claims.UserID, uint(peerID))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, messages)
}

// UnreadCount godoc
// @Summary 未读消息数
// @Tags 消息
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=object}
// @Router /api/messages/unread-count [get]
func (c *MessageController) UnreadCount(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	count, err := c.MessageService.UnreadCount(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"count": count})
}

// MarkRead godoc
// @Summary 标记消息已读
// @Tags 消息
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "消息ID"
// @Success 200 {object} util.Response{data=model.Message}
// @Router /api/messages/{id}/read [patch]
func (c *MessageController) MarkRead(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	message, err := c.MessageService.MarkRead(claims.UserID, ctx.Param("id"))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	if c.Hub.IsUserOnline(message.SenderID) {
		c.Hub.PushToUsers([]uint{message.SenderID}, service.WSEvent{
			Event: "message:read",
			Data:  map[string]interface{}{"messageId": message.ID, "readerId": claims.UserID},
		})
	}
	util.Success(ctx, message)
}

// MarkAllRead godoc
// @Summary 标记会话全部已读
// @Tags 消息
// @Produce  json
// @Security BearerAuth
// @Param   peerId path int true "对端用户ID"
// @Success 200 {object} util.Response
// @Router /api/messages/conversation/{peerId}/read-all [patch]
func (c *MessageController) MarkAllRead(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	peerID, err := strconv.ParseUint(ctx.Param("peerId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid peer id")
		return
	}

	if err := c.MessageService.MarkAllRead(claims.UserID, uint(peerID)); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	if c.Hub.IsUserOnline(uint(peerID)) {
		c.Hub.PushToUsers([]uint{uint(peerID)}, service.WSEvent{
			Event: "messages:all:read",
			Data:  map[string]interface{}{"readerId": claims.UserID},
		})
	}
	util.Success(ctx, nil)
}

// Delete godoc
// @Summary 删除消息
// @Description 只能删除自己发出的消息
// @Tags 消息
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "消息ID"
// @Success 200 {object} util.Response
// @Router /api/messages/{id} [delete]
func (c *MessageController) Delete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if err := c.MessageService.Delete(claims.UserID, ctx.Param("id")); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// HandleWS godoc
// @Summary 私信实时通道
// @Description WebSocket 升级入口，令牌从查询参数或 Bearer 头读取
// @Tags 消息
// @Security BearerAuth
// @Router /api/messages/ws [get]
func (c *MessageController) HandleWS(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	service.ServeWs(c.Hub, ctx.Writer, ctx.Request, claims.UserID)
}
