package warmup

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/ticketshop/lib/mycontext"
	"github.com/MarcGrol/ticketshop/lib/myerrors"
	"github.com/MarcGrol/ticketshop/lib/myhttp"
	"github.com/MarcGrol/ticketshop/lib/mylog"
)

// Pinger is implemented by every service that owns a store.
type Pinger interface {
	Ping(c context.Context) error
}

type webService struct {
	logger  mylog.Logger
	pingers map[string]Pinger
}

// Use dependency injection to isolate the infrastructure and ease testing
func NewService(pingers map[string]Pinger) *webService {
	logger := mylog.New("warmup")
	return &webService{
		logger:  logger,
		pingers: pingers,
	}
}

func (s webService) RegisterEndpoints(c context.Context, router *mux.Router) {
	router.HandleFunc("/_ah/warmup", s.warmupPage()).Methods("GET")
}

func (s *webService) warmupPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		for name, pinger := range s.pingers {
			err := pinger.Ping(c)
			if err != nil {
				errorWriter.WriteError(c, w, 1, myerrors.NewUnavailableError(fmt.Errorf("%s not ready: %s", name, err)))
				return
			}
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: "Successfully processed warmup request",
		})
	}
}
