package myhttp

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/MarcGrol/ticketshop/lib/myerrors"
)

const maxRequestBodySize = 1 << 20

func HostnameWithScheme(r *http.Request) string {
	scheme := "https"
	if r.TLS == nil {
		scheme = "http"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}

	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

// ParseJSONBody decodes the request body into dest regardless of the content-type header.
func ParseJSONBody(r *http.Request, dest any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		return myerrors.NewInvalidInputError(fmt.Errorf("error reading request body: %s", err))
	}

	err = json.Unmarshal(body, dest)
	if err != nil {
		return myerrors.NewInvalidInputError(fmt.Errorf("failed to decode JSON object: %s", err))
	}

	return nil
}
