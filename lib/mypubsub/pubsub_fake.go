package mypubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/MarcGrol/ticketshop/lib/myevents"
	"github.com/MarcGrol/ticketshop/lib/mylog"
)

const (
	maxPushAttempts = 5
	firstRetryDelay = time.Second
)

// fakePubSub delivers messages to push subscribers over plain http, so the
// whole event flow can run on a laptop. Like pub/sub it redelivers a message
// that is not acknowledged, with exponential backoff.
type fakePubSub struct {
	sync.Mutex
	subscriptions map[string][]string
	httpClient    *http.Client
	retryDelay    time.Duration
	logger        mylog.Logger
	inFlight      sync.WaitGroup
}

func init() {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") == "" {
		New = newFakePubSub
	}
}

func newFakePubSub(c context.Context) (PubSub, func(), error) {
	ps := newFake(&http.Client{Timeout: 10 * time.Second})
	return ps, func() {
		ps.inFlight.Wait()
	}, nil
}

func newFake(httpClient *http.Client) *fakePubSub {
	return &fakePubSub{
		subscriptions: map[string][]string{},
		httpClient:    httpClient,
		retryDelay:    firstRetryDelay,
		logger:        mylog.New("pubsub"),
	}
}

func (ps *fakePubSub) Subscribe(c context.Context, topic string, urlToPostTo string) error {
	ps.Lock()
	defer ps.Unlock()

	ps.subscriptions[topic] = append(ps.subscriptions[topic], urlToPostTo)

	return nil
}

func (ps *fakePubSub) CreateTopic(c context.Context, topic string) error {
	ps.Lock()
	defer ps.Unlock()

	if _, exists := ps.subscriptions[topic]; !exists {
		ps.subscriptions[topic] = []string{}
	}
	return nil
}

func (ps *fakePubSub) Publish(c context.Context, topic string, data string) error {
	ps.Lock()
	urls, exists := ps.subscriptions[topic]
	ps.Unlock()
	if !exists {
		return fmt.Errorf("topic %s does not exist", topic)
	}

	for _, url := range urls {
		body, err := json.Marshal(myevents.PushRequest{
			Message: myevents.PushMessage{
				Data: []byte(data),
			},
			Subscription: topic,
		})
		if err != nil {
			return fmt.Errorf("error marshalling push-request: %s", err)
		}

		ps.inFlight.Add(1)
		go func() {
			defer ps.inFlight.Done()
			ps.push(context.WithoutCancel(c), url, body)
		}()
	}

	return nil
}

func (ps *fakePubSub) push(c context.Context, url string, body []byte) {
	delay := ps.retryDelay
	for attempt := 1; attempt <= maxPushAttempts; attempt++ {
		err := ps.pushOnce(c, url, body)
		if err == nil {
			ps.logger.Log(c, "", mylog.SeverityDebug, "pushed to %s", url)
			return
		}
		ps.logger.Log(c, "", mylog.SeverityWarn, "push %d of %d to %s failed: %s", attempt, maxPushAttempts, url, err)

		if attempt < maxPushAttempts {
			time.Sleep(delay)
			delay *= 2
		}
	}
	ps.logger.Log(c, "", mylog.SeverityError, "giving up pushing to %s", url)
}

func (ps *fakePubSub) pushOnce(c context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(c, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating push-request: %s", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ps.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("not acknowledged: %d", resp.StatusCode)
	}
	return nil
}
