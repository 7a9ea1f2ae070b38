package blog

import (
	"context"
	"errors"
	"fmt"

	"github.com/MarcGrol/ticketshop/lib/myerrors"
	"github.com/MarcGrol/ticketshop/lib/mylog"
)

func (s *service) getPost(c context.Context, slug string) (Post, error) {
	post, found, err := s.postStore.GetBySlug(c, slug)
	if err != nil {
		return Post{}, myerrors.NewInternalError(err)
	}
	if !found {
		return Post{}, myerrors.NewNotFoundError(fmt.Errorf("post with slug %s not found", slug))
	}
	return post, nil
}

func (s *service) listPosts(c context.Context) ([]PostSummary, error) {
	posts, err := s.postStore.List(c)
	if err != nil {
		return nil, myerrors.NewInternalError(err)
	}

	summaries := make([]PostSummary, 0, len(posts))
	for _, p := range posts {
		summaries = append(summaries, p.Summary())
	}
	return summaries, nil
}

func (s *service) createPost(c context.Context, form PostForm) (Post, error) {
	form, postSlug, fieldErrors := ValidatePostForm(form)
	if fieldErrors != nil {
		return Post{}, myerrors.NewValidationError(fieldErrors)
	}

	now := s.nower.Now()
	post, err := s.postStore.Create(c, Post{
		Created:   now,
		Modified:  now,
		Title:     form.Title,
		Content:   form.Content,
		Slug:      postSlug,
		Published: false,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicatePost) {
			return Post{}, myerrors.NewConflictError(fmt.Errorf("post with title %q already exists", form.Title))
		}
		return Post{}, myerrors.NewInternalError(err)
	}

	s.logger.Log(c, post.Slug, mylog.SeverityInfo, "Created post %d with slug %s", post.ID, post.Slug)

	return post, nil
}

func (s *service) updatePost(c context.Context, slug string, form PostForm) (Post, error) {
	post, err := s.getPost(c, slug)
	if err != nil {
		return Post{}, err
	}

	form, postSlug, fieldErrors := ValidatePostForm(form)
	if fieldErrors != nil {
		return Post{}, myerrors.NewValidationError(fieldErrors)
	}

	post.Title = form.Title
	post.Content = form.Content
	post.Slug = postSlug
	post.Modified = s.nower.Now()

	err = s.postStore.Update(c, post)
	if err != nil {
		if errors.Is(err, ErrDuplicatePost) {
			return Post{}, myerrors.NewConflictError(fmt.Errorf("another post with title %q already exists", form.Title))
		}
		if errors.Is(err, ErrPostNotFound) {
			return Post{}, myerrors.NewNotFoundError(fmt.Errorf("post with slug %s not found", slug))
		}
		return Post{}, myerrors.NewInternalError(err)
	}

	s.logger.Log(c, post.Slug, mylog.SeverityInfo, "Updated post %d (slug %s -> %s)", post.ID, slug, post.Slug)

	return post, nil
}

func (s *service) deletePost(c context.Context, slug string) error {
	post, err := s.getPost(c, slug)
	if err != nil {
		return err
	}

	err = s.postStore.Delete(c, post.ID)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			return myerrors.NewNotFoundError(fmt.Errorf("post with slug %s not found", slug))
		}
		return myerrors.NewInternalError(err)
	}

	s.logger.Log(c, slug, mylog.SeverityInfo, "Deleted post %d", post.ID)

	return nil
}

// Ping verifies that the post store can be reached.
func (s *service) ping(c context.Context) error {
	_, _, err := s.postStore.GetBySlug(c, "_warmup")
	return err
}
