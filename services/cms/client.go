package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/coocood/freecache"

	"github.com/MarcGrol/ticketshop/lib/myhttpclient"
	"github.com/MarcGrol/ticketshop/lib/mylog"
)

var ErrProductNotFound = errors.New("product not found")

//go:generate mockgen -source=client.go -package cms -destination client_mock.go Client
type Client interface {
	GetProduct(c context.Context, uid string) (Product, error)
	CreateTickets(c context.Context, req TicketRequest) error
}

type httpClient struct {
	baseURL      string
	sender       myhttpclient.HTTPSender
	cache        *freecache.Cache
	cacheSeconds int
	logger       mylog.Logger
}

// NewClient talks to the cms at baseURL. Products are cached for cacheSeconds;
// zero disables the cache.
func NewClient(baseURL string, apiKey string, httpClient *http.Client, cacheSizeBytes int, cacheSeconds int) Client {
	return newClient(baseURL, myhttpclient.New(httpClient, map[string]string{"X-Api-Key": apiKey}), cacheSizeBytes, cacheSeconds)
}

func newClient(baseURL string, sender myhttpclient.HTTPSender, cacheSizeBytes int, cacheSeconds int) *httpClient {
	return &httpClient{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		sender:       sender,
		cache:        freecache.NewCache(cacheSizeBytes),
		cacheSeconds: cacheSeconds,
		logger:       mylog.New("cms"),
	}
}

func (cl *httpClient) GetProduct(c context.Context, uid string) (Product, error) {
	if product, found := cl.cached(uid); found {
		return product, nil
	}

	status, body, err := cl.sender.Send(c, http.MethodGet, fmt.Sprintf("%s/api/products/%s", cl.baseURL, url.PathEscape(uid)), nil)
	if err != nil {
		return Product{}, fmt.Errorf("error fetching product %s: %s", uid, err)
	}
	if status == http.StatusNotFound {
		return Product{}, fmt.Errorf("product %s: %w", uid, ErrProductNotFound)
	}
	if status != http.StatusOK {
		return Product{}, fmt.Errorf("error fetching product %s: cms responded with status %d", uid, status)
	}

	product := Product{}
	err = json.Unmarshal(body, &product)
	if err != nil {
		return Product{}, fmt.Errorf("error parsing product %s: %s", uid, err)
	}

	if cl.cacheSeconds > 0 {
		err = cl.cache.Set([]byte(uid), body, cl.cacheSeconds)
		if err != nil {
			cl.logger.Log(c, uid, mylog.SeverityWarn, "error caching product %s: %s", uid, err)
		}
	}

	return product, nil
}

func (cl *httpClient) cached(uid string) (Product, bool) {
	if cl.cacheSeconds <= 0 {
		return Product{}, false
	}
	body, err := cl.cache.Get([]byte(uid))
	if err != nil {
		return Product{}, false
	}
	product := Product{}
	if json.Unmarshal(body, &product) != nil {
		return Product{}, false
	}
	return product, true
}

func (cl *httpClient) CreateTickets(c context.Context, req TicketRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("error marshalling ticket request: %s", err)
	}

	status, respBody, err := cl.sender.Send(c, http.MethodPost, cl.baseURL+"/api/tickets", body)
	if err != nil {
		return fmt.Errorf("error creating tickets for order %s: %s", req.OrderUID, err)
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("error creating tickets for order %s: cms responded with status %d: %s", req.OrderUID, status, string(respBody))
	}

	cl.logger.Log(c, req.PaymentID, mylog.SeverityInfo, "Created tickets for order %s", req.OrderUID)

	return nil
}
