package models

import "time"

const TitleMaxLen = 256

type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"type:varchar(256);not null" json:"title"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	PubDate     time.Time `gorm:"index;not null" json:"pub_date"`
	IsPublished bool      `gorm:"not null" json:"is_published"`
	Image       string    `gorm:"type:varchar(255)" json:"image,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	AuthorID   uint      `gorm:"index;not null" json:"author_id"`
	Author     *User     `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author,omitempty"`
	CategoryID *uint     `gorm:"index" json:"category_id"`
	Category   *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	LocationID *uint     `gorm:"index" json:"location_id"`
	Location   *Location `gorm:"foreignKey:LocationID;constraint:OnDelete:SET NULL" json:"location,omitempty"`

	// CommentCount is filled by list queries only.
	CommentCount int64 `gorm:"->;-:migration" json:"comment_count"`
}
