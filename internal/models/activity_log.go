package models

import "time"

const (
	ActionNewPost       = "new_post"
	ActionUpdatePost    = "update_post"
	ActionDeletePost    = "delete_post"
	ActionNewComment    = "new_comment"
	ActionUpdateComment = "update_comment"
	ActionDeleteComment = "delete_comment"
)

// ActivityLog rows outlive the post they mention, so PostID carries no foreign key.
type ActivityLog struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Action   string    `gorm:"type:varchar(50);not null" json:"action"`
	PostID   uint      `gorm:"index;not null" json:"post_id"`
	UserID   uint      `gorm:"index" json:"user_id"`
	LoggedAt time.Time `gorm:"autoCreateTime" json:"logged_at"`
}
