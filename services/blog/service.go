package blog

import (
	"github.com/MarcGrol/ticketshop/lib/mylog"
	"github.com/MarcGrol/ticketshop/lib/mytime"
)

type service struct {
	postStore PostStore
	nower     mytime.Nower
	logger    mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(store PostStore, nower mytime.Nower, logger mylog.Logger) *service {
	return &service{
		postStore: store,
		nower:     nower,
		logger:    logger,
	}
}
