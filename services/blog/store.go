package blog

import (
	"context"
	"errors"
)

var (
	ErrPostNotFound  = errors.New("post not found")
	ErrDuplicatePost = errors.New("post with same title or slug exists")
)

// PostStore persists posts. Title and slug are unique across all posts:
// Create and Update return ErrDuplicatePost when that would be violated.
type PostStore interface {
	GetBySlug(c context.Context, slug string) (Post, bool, error)
	GetByTitle(c context.Context, title string) (Post, bool, error)
	// List returns the newest post first.
	List(c context.Context) ([]Post, error)
	// Create assigns the id and returns the stored post.
	Create(c context.Context, post Post) (Post, error)
	Update(c context.Context, post Post) error
	Delete(c context.Context, id int64) error
}
