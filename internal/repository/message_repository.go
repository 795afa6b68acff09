package repository

import (
	"errors"
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type MessageRepository struct {
	DB *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{DB: db}
}

func (r *MessageRepository) Create(message *model.Message) error {
	return r.DB.Create(message).Error
}

func (r *MessageRepository) FindByID(id string) (*model.Message, error) {
	var message model.Message
	err := r.DB.Preload("Sender").Preload("Receiver").
		Where("id = ?", id).First(&message).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// ListConversation 双方往来消息，按时间升序
func (r *MessageRepository) ListConversation(userID, peerID uint) ([]model.Message, error) {
	var messages []model.Message
	err := r.DB.Where(
		"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
		userID, peerID, peerID, userID,
	).Preload("Sender").Preload("Receiver").
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}

// PeerIDs 与用户有过往来的全部对端，按最近一条消息时间倒序
func (r *MessageRepository) PeerIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Raw(`
		SELECT peer_id FROM (
			SELECT CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END AS peer_id,
			       MAX(created_at) AS last_at
			FROM messages
			WHERE deleted_at IS NULL AND (sender_id = ? OR receiver_id = ?)
			GROUP BY peer_id
		) t ORDER BY t.last_at DESC`, userID, userID, userID).
		Scan(&ids).Error
	return ids, err
}

// LastMessage 双方之间最近一条消息
func (r *MessageRepository) LastMessage(userID, peerID uint) (*model.Message, error) {
	var message model.Message
	err := r.DB.Where(
		"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
		userID, peerID, peerID, userID,
	).Order("created_at DESC").First(&message).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *MessageRepository) CountUnread(receiverID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Message{}).
		Where("receiver_id = ? AND `read` = ?", receiverID, false).
		Count(&count).Error
	return count, err
}

func (r *MessageRepository) CountUnreadFrom(senderID, receiverID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND `read` = ?", senderID, receiverID, false).
		Count(&count).Error
	return count, err
}

func (r *MessageRepository) MarkRead(id string) error {
	return r.DB.Model(&model.Message{}).Where("id = ?", id).
		Update("read", true).Error
}

// MarkAllRead 把某发送者发给接收者的全部未读消息置为已读
func (r *MessageRepository) MarkAllRead(senderID, receiverID uint) error {
	return r.DB.Model(&model.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND `read` = ?", senderID, receiverID, false).
		Update("read", true).Error
}

func (r *MessageRepository) Delete(id string) error {
	return r.DB.Where("id = ?", id).Delete(&model.Message{}).Error
}
