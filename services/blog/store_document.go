package blog

import (
	"context"
	"fmt"
	"strconv"

	"github.com/MarcGrol/ticketshop/lib/mystore"
)

type documentStore struct {
	store mystore.Store[Post]
}

// NewDocumentStore keeps posts in a generic document store, keyed on their id.
func NewDocumentStore(store mystore.Store[Post]) PostStore {
	return &documentStore{
		store: store,
	}
}

func postKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (s *documentStore) GetBySlug(c context.Context, slug string) (Post, bool, error) {
	return s.getBy(c, "Slug", slug)
}

func (s *documentStore) GetByTitle(c context.Context, title string) (Post, bool, error) {
	return s.getBy(c, "Title", title)
}

func (s *documentStore) getBy(c context.Context, field string, value string) (Post, bool, error) {
	posts, err := s.store.Query(c, []mystore.Filter{{Field: field, Compare: "=", Value: value}}, "")
	if err != nil {
		return Post{}, false, fmt.Errorf("error querying post on %s: %s", field, err)
	}
	if len(posts) == 0 {
		return Post{}, false, nil
	}
	return posts[0], true, nil
}

func (s *documentStore) List(c context.Context) ([]Post, error) {
	posts, err := s.store.Query(c, nil, "-ID")
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %s", err)
	}
	return posts, nil
}

func (s *documentStore) Create(c context.Context, post Post) (Post, error) {
	err := s.store.RunInTransaction(c, func(c context.Context) error {
		posts, err := s.store.List(c)
		if err != nil {
			return fmt.Errorf("error listing posts: %s", err)
		}

		var maxID int64
		for _, p := range posts {
			if p.Title == post.Title || p.Slug == post.Slug {
				return ErrDuplicatePost
			}
			maxID = max(maxID, p.ID)
		}

		post.ID = maxID + 1
		err = s.store.Put(c, postKey(post.ID), post)
		if err != nil {
			return fmt.Errorf("error storing post %d: %s", post.ID, err)
		}
		return nil
	})
	if err != nil {
		return Post{}, err
	}

	return post, nil
}

func (s *documentStore) Update(c context.Context, post Post) error {
	return s.store.RunInTransaction(c, func(c context.Context) error {
		_, found, err := s.store.Get(c, postKey(post.ID))
		if err != nil {
			return fmt.Errorf("error fetching post %d: %s", post.ID, err)
		}
		if !found {
			return ErrPostNotFound
		}

		for _, field := range []mystore.Filter{
			{Field: "Title", Compare: "=", Value: post.Title},
			{Field: "Slug", Compare: "=", Value: post.Slug},
		} {
			others, err := s.store.Query(c, []mystore.Filter{field}, "")
			if err != nil {
				return fmt.Errorf("error querying post on %s: %s", field.Field, err)
			}
			for _, other := range others {
				if other.ID != post.ID {
					return ErrDuplicatePost
				}
			}
		}

		err = s.store.Put(c, postKey(post.ID), post)
		if err != nil {
			return fmt.Errorf("error storing post %d: %s", post.ID, err)
		}
		return nil
	})
}

func (s *documentStore) Delete(c context.Context, id int64) error {
	return s.store.RunInTransaction(c, func(c context.Context) error {
		_, found, err := s.store.Get(c, postKey(id))
		if err != nil {
			return fmt.Errorf("error fetching post %d: %s", id, err)
		}
		if !found {
			return ErrPostNotFound
		}

		err = s.store.Delete(c, postKey(id))
		if err != nil {
			return fmt.Errorf("error deleting post %d: %s", id, err)
		}
		return nil
	})
}
