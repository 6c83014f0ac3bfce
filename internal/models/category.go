package models

import "time"

type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"type:varchar(256);not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Slug        string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"slug"`
	IsPublished bool      `gorm:"not null" json:"is_published"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type Location struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(256);not null" json:"name"`
	IsPublished bool      `gorm:"not null" json:"is_published"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
