package blog

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/ticketshop/lib/mycontext"
	"github.com/MarcGrol/ticketshop/lib/myhttp"
	"github.com/MarcGrol/ticketshop/lib/mylog"
	"github.com/MarcGrol/ticketshop/lib/mytime"
)

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(store PostStore, nower mytime.Nower) *webService {
	logger := mylog.New("blog")
	return &webService{
		logger:  logger,
		service: newService(store, nower, logger),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) {
	for _, path := range []string{"/blog/", "/blog"} {
		router.HandleFunc(path, s.listPage()).Methods("GET")
		router.HandleFunc(path, s.createPage()).Methods("POST")
	}
	router.HandleFunc("/blog/{slug}", s.detailPage()).Methods("GET")
	router.HandleFunc("/blog/{slug}", s.updatePage()).Methods("PUT")
	router.HandleFunc("/blog/{slug}", s.deletePage()).Methods("DELETE")
}

func (s *webService) Ping(c context.Context) error {
	return s.service.ping(c)
}

func (s *webService) listPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		posts, err := s.service.listPosts(c)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, posts)
	}
}

func (s *webService) createPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		form := PostForm{}
		err := myhttp.ParseJSONBody(r, &form)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		post, err := s.service.createPost(c, form)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusCreated, post)
	}
}

func (s *webService) detailPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		post, err := s.service.getPost(c, mux.Vars(r)["slug"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, post)
	}
}

func (s *webService) updatePage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		form := PostForm{}
		err := myhttp.ParseJSONBody(r, &form)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		post, err := s.service.updatePost(c, mux.Vars(r)["slug"], form)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, post)
	}
}

func (s *webService) deletePage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		err := s.service.deletePost(c, mux.Vars(r)["slug"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.WriteNoContent(c, w)
	}
}
