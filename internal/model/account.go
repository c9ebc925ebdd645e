package model

import (
	"time"

	"gorm.io/gorm"
)

// ConnectedAccount is a linked external mailbox. The IMAP secret is stored
// encrypted; only the store's decrypt path ever sees the plaintext.
type ConnectedAccount struct {
	ID              uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID          string         `json:"user_id" gorm:"type:varchar(64);not null;index"`
	Email           string         `json:"email" gorm:"type:varchar(255);not null"`
	IMAPHost        string         `json:"imap_host" gorm:"type:varchar(255);not null"`
	IMAPPort        int            `json:"imap_port" gorm:"default:993"`
	TLS             bool           `json:"tls" gorm:"default:true"`
	EncryptedSecret string         `json:"-" gorm:"type:text;not null"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName specifies the table name for ConnectedAccount
func (ConnectedAccount) TableName() string {
	return "connected_accounts"
}
