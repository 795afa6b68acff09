package model

// Message 一对一私信。历史消息持久化在这里，
// 在线投递由 MessageHub 尽力推送，离线方通过 REST 历史接口补拉。
type Message struct {
	UUIDBase
	SenderID   uint   `gorm:"index:idx_sender_receiver;not null" json:"senderId"`
	Sender     User   `gorm:"foreignKey:SenderID" json:"sender"`
	ReceiverID uint   `gorm:"index:idx_sender_receiver;index;not null" json:"receiverId"`
	Receiver   User   `gorm:"foreignKey:ReceiverID" json:"receiver"`
	Content    string `gorm:"type:text;not null" json:"content"`
	Read       bool   `gorm:"default:false" json:"read"`
}

func (Message) TableName() string {
	return "messages"
}
