package myqueue

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/MarcGrol/ticketshop/lib/mylog"
)

const fakeDelay = 500 * time.Millisecond

// fakeTaskQueue calls the webhook on this very service in the background.
type fakeTaskQueue struct {
	baseURL    string
	delay      time.Duration
	httpClient *http.Client
	logger     mylog.Logger
	inFlight   sync.WaitGroup
}

func init() {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") == "" {
		New = newFakeQueue
	}
}

func newFakeQueue(c context.Context, baseURL string) (TaskQueuer, func(), error) {
	q := newFake(baseURL, fakeDelay, &http.Client{Timeout: 10 * time.Second})
	return q, func() {
		q.inFlight.Wait()
	}, nil
}

func newFake(baseURL string, delay time.Duration, httpClient *http.Client) *fakeTaskQueue {
	return &fakeTaskQueue{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		delay:      delay,
		httpClient: httpClient,
		logger:     mylog.New("queue"),
	}
}

func (q *fakeTaskQueue) Enqueue(c context.Context, task Task) error {
	q.inFlight.Add(1)
	go func() {
		defer q.inFlight.Done()
		// give the enqueuing transaction time to commit
		time.Sleep(q.delay)
		q.deliver(context.WithoutCancel(c), task)
	}()
	return nil
}

func (q *fakeTaskQueue) deliver(c context.Context, task Task) {
	url := q.baseURL + task.WebhookURLPath
	req, err := http.NewRequestWithContext(c, http.MethodPut, url, bytes.NewReader(task.Payload))
	if err != nil {
		q.logger.Log(c, task.UID, mylog.SeverityError, "error creating task-request %s: %s", url, err)
		return
	}

	resp, err := q.httpClient.Do(req)
	if err != nil {
		q.logger.Log(c, task.UID, mylog.SeverityError, "error executing task %s: %s", url, err)
		return
	}
	defer resp.Body.Close()

	q.logger.Log(c, task.UID, mylog.SeverityDebug, "Executed task %s: %d", url, resp.StatusCode)
}
