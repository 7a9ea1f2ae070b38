package myhttpclient

import (
	"context"
	"net/http"
	"time"
)

const defaultTimeout = 10 * time.Second

type HTTPSender interface {
	Send(c context.Context, method string, url string, body []byte) (int, []byte, error)
}

// New returns a json sender on top of httpClient, adding headers to every
// request. A nil httpClient gets a default client with a timeout.
func New(httpClient *http.Client, headers map[string]string) HTTPSender {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: defaultTimeout,
		}
	}
	return &jsonHTTPClient{
		httpClient: httpClient,
		headers:    headers,
	}
}
