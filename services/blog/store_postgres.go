package blog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation = "23505"

	postColumns = "id, created, modified, title, content, slug, published"
)

// pgxConn is the part of *pgxpool.Pool the store uses.
type pgxConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresStore struct {
	db pgxConn
}

func NewPostgresStore(db pgxConn) *PostgresStore {
	return &PostgresStore{
		db: db,
	}
}

func (s *PostgresStore) Migrate(c context.Context) error {
	_, err := s.db.Exec(c, `CREATE TABLE IF NOT EXISTS blog_post (
	id        BIGSERIAL PRIMARY KEY,
	created   TIMESTAMPTZ NOT NULL,
	modified  TIMESTAMPTZ NOT NULL,
	title     VARCHAR(255) NOT NULL UNIQUE,
	content   TEXT NOT NULL,
	slug      TEXT NOT NULL UNIQUE,
	published BOOLEAN NOT NULL DEFAULT FALSE
)`)
	if err != nil {
		return fmt.Errorf("error creating table blog_post: %s", err)
	}
	return nil
}

func (s *PostgresStore) GetBySlug(c context.Context, slug string) (Post, bool, error) {
	return s.getBy(c, "SELECT "+postColumns+" FROM blog_post WHERE slug = $1", slug)
}

func (s *PostgresStore) GetByTitle(c context.Context, title string) (Post, bool, error) {
	return s.getBy(c, "SELECT "+postColumns+" FROM blog_post WHERE title = $1", title)
}

func (s *PostgresStore) getBy(c context.Context, sql string, value string) (Post, bool, error) {
	post, err := scanPost(s.db.QueryRow(c, sql, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Post{}, false, nil
		}
		return Post{}, false, fmt.Errorf("error fetching post %q: %s", value, err)
	}
	return post, true, nil
}

func (s *PostgresStore) List(c context.Context) ([]Post, error) {
	rows, err := s.db.Query(c, "SELECT "+postColumns+" FROM blog_post ORDER BY id DESC")
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %s", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning post: %s", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error listing posts: %s", err)
	}
	return posts, nil
}

func (s *PostgresStore) Create(c context.Context, post Post) (Post, error) {
	err := s.db.QueryRow(c,
		"INSERT INTO blog_post (created, modified, title, content, slug, published) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id",
		post.Created, post.Modified, post.Title, post.Content, post.Slug, post.Published,
	).Scan(&post.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return Post{}, ErrDuplicatePost
		}
		return Post{}, fmt.Errorf("error inserting post: %s", err)
	}
	return post, nil
}

func (s *PostgresStore) Update(c context.Context, post Post) error {
	tag, err := s.db.Exec(c,
		"UPDATE blog_post SET modified = $1, title = $2, content = $3, slug = $4, published = $5 WHERE id = $6",
		post.Modified, post.Title, post.Content, post.Slug, post.Published, post.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicatePost
		}
		return fmt.Errorf("error updating post %d: %s", post.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(c context.Context, id int64) error {
	tag, err := s.db.Exec(c, "DELETE FROM blog_post WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("error deleting post %d: %s", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

func scanPost(row pgx.Row) (Post, error) {
	post := Post{}
	err := row.Scan(&post.ID, &post.Created, &post.Modified, &post.Title, &post.Content, &post.Slug, &post.Published)
	return post, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
