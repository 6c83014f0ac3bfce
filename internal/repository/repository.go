package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/example/blogicum/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

const pgUniqueViolation = "23505"

// PostFilter narrows post queries. Zero fields do not filter.
type PostFilter struct {
	CategoryID *uint
	AuthorID   *uint
	IDs        []uint
	// VisibleAt keeps only posts an anonymous viewer may see at that instant.
	VisibleAt *time.Time
}

// Store bundles the gorm repositories behind one value.
type Store struct {
	*PostRepository
	*CommentRepository
	*CatalogRepository
	*UserRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		PostRepository:    NewPostRepository(db),
		CommentRepository: NewCommentRepository(db),
		CatalogRepository: NewCatalogRepository(db),
		UserRepository:    NewUserRepository(db),
	}
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

func logActivity(tx *gorm.DB, action string, postID, userID uint) error {
	entry := models.ActivityLog{Action: action, PostID: postID, UserID: userID}
	return tx.Create(&entry).Error
}
