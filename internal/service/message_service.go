package service

import (
	"errors"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"

	"gorm.io/gorm"
)

type MessageService struct {
	MessageRepo *repository.MessageRepository
	UserRepo    *repository.UserRepository
}

func NewMessageService(messageRepo *repository.MessageRepository, userRepo *repository.UserRepository) *MessageService {
	return &MessageService{
		MessageRepo: messageRepo,
		UserRepo:    userRepo,
	}
}

// Send 持久化一条私信并返回带双方信息的完整记录
func (s *MessageService) Send(senderID, receiverID uint, content string) (*model.Message, error) {
	if _, err := s.UserRepo.FindByID(receiverID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrReceiverNotFound
		}
		return nil, err
	}

	message := &model.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
	}
	if err := s.MessageRepo.Create(message); err != nil {
		return nil, err
	}
	return s.MessageRepo.FindByID(message.ID)
}

// GetConversation 拉取与某人的完整往来并把对方发来的未读置为已读
func (s *MessageService) GetConversation(userID, peerID uint) ([]model.Message, error) {
	messages, err := s.MessageRepo.ListConversation(userID, peerID)
	if err != nil {
		return nil, err
	}
	if err := s.MessageRepo.MarkAllRead(peerID, userID); err != nil {
		return nil, err
	}
	return messages, nil
}

// ConversationSummary 会话列表里单个会话的概要
type ConversationSummary struct {
	Peer        *model.User    `json:"peer"`
	LastMessage *model.Message `json:"lastMessage"`
	UnreadCount int64          `json:"unreadCount"`
}

// GetConversations 用户的全部会话概要，按最近一条消息倒序
func (s *MessageService) GetConversations(userID uint) ([]ConversationSummary, error) {
	peerIDs, err := s.MessageRepo.PeerIDs(userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]ConversationSummary, 0, len(peerIDs))
	for _, peerID := range peerIDs {
		peer, err := s.UserRepo.FindByID(peerID)
		if err != nil {
			continue
		}
		last, err := s.MessageRepo.LastMessage(userID, peerID)
		if err != nil {
			return nil, err
		}
		unread, err := s.MessageRepo.CountUnreadFrom(peerID, userID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, ConversationSummary{
			Peer:        peer,
			LastMessage: last,
			UnreadCount: unread,
		})
	}
	return summaries, nil
}

func (s *MessageService) UnreadCount(userID uint) (int64, error) {
	return s.MessageRepo.CountUnread(userID)
}

// MarkRead 只有接收方能把消息标记为已读
func (s *MessageService) MarkRead(userID uint, messageID string) (*model.Message, error) {
	message, err := s.MessageRepo.FindByID(messageID)
	if err != nil {
		return nil, err
	}
	if message == nil {
		return nil, util.ErrMessageNotFound
	}
	if message.ReceiverID != userID {
		return nil, util.ErrPermissionDenied
	}
	if err := s.MessageRepo.MarkRead(messageID); err != nil {
		return nil, err
	}
	message.Read = true
	return message, nil
}

// MarkAllRead 把某个对端发来的未读全部置为已读
func (s *MessageService) MarkAllRead(userID, peerID uint) error {
	return s.MessageRepo.MarkAllRead(peerID, userID)
}

// Delete 只能删除自己发出的消息
func (s *MessageService) Delete(userID uint, messageID string) error {
	message, err := s.MessageRepo.FindByID(messageID)
	if err != nil {
		return err
	}
	if message == nil {
		return util.ErrMessageNotFound
	}
	if message.SenderID != userID {
		return util.ErrPermissionDenied
	}
	return s.MessageRepo.Delete(messageID)
}
