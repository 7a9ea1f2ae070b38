package blog

import "time"

type Post struct {
	ID        int64     `json:"id"`
	Created   time.Time `json:"created"`
	Modified  time.Time `json:"modified"`
	Title     string    `json:"title"`
	Content   string    `json:"content" datastore:",noindex"`
	Slug      string    `json:"slug"`
	Published bool      `json:"published"`
}

type PostSummary struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

func (p Post) Summary() PostSummary {
	return PostSummary{
		ID:    p.ID,
		Title: p.Title,
		Slug:  p.Slug,
	}
}

// PostForm is the body of a create or update request.
type PostForm struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
