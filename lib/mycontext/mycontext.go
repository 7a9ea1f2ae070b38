package mycontext

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
)

// CtxTraceContext is a context key for the Cloud trace (used by mylog)
type CtxTraceContext struct{}

// CtxRequestID is a context key for the id that correlates all log lines of one request
type CtxRequestID struct{}

func ContextFromHTTPRequest(r *http.Request) context.Context {
	var trace string

	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	traceContext := r.Header.Get("X-Cloud-Trace-Context")
	traceParts := strings.Split(traceContext, "/")

	if len(traceParts) > 0 && len(traceParts[0]) > 0 {
		trace = fmt.Sprintf("projects/%s/traces/%s", projectID, traceParts[0])
	}

	requestID := r.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = uuid.New().String()
	}

	ctx := context.WithValue(r.Context(), CtxTraceContext{}, trace)
	ctx = context.WithValue(ctx, CtxRequestID{}, requestID)

	return ctx
}

func Trace(ctx context.Context) string {
	trace, _ := ctx.Value(CtxTraceContext{}).(string)
	return trace
}

func RequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(CtxRequestID{}).(string)
	return requestID
}
