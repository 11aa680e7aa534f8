package models

import "time"

// Template channels.
const (
	ChannelMail  = "mail"
	ChannelSlack = "slack"
	ChannelWeb   = "web"
)

// NotifyMailTemplate is a keyed message template. Subject and body may
// contain {{variable}} tokens; only names in AllowedVariables may appear,
// enforced at save time.
type NotifyMailTemplate struct {
	ID               uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Key              string     `gorm:"uniqueIndex;not null" json:"key"`
	Slug             string     `json:"slug"`
	Title            string     `gorm:"not null" json:"title"`
	Channel          string     `gorm:"not null;default:mail" json:"channel"`
	Subject          string     `gorm:"not null" json:"subject"`
	Body             string     `gorm:"type:text;not null" json:"body"`
	AllowedVariables StringList `gorm:"type:jsonb" json:"allowed_variables"`
	Description      string     `json:"description,omitempty"`
	IsActive         bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (NotifyMailTemplate) TableName() string { return "notify_mail_templates" }
