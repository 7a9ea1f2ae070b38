package mypubsub

import "context"

// PubSub fans out published envelopes to push subscribers.
//
//go:generate mockgen -source=pubsub_api.go -package mypubsub -destination pubsub_mock.go PubSub
type PubSub interface {
	// Publish sends data, a json encoded myevents.EventEnvelope, to every subscriber of topic.
	Publish(c context.Context, topic string, data string) error
	CreateTopic(c context.Context, topic string) error
	// Subscribe makes pub/sub POST a myevents.PushRequest to urlToPostTo for every
	// message on topic. A non-2xx response means the message is delivered again.
	Subscribe(c context.Context, topic string, urlToPostTo string) error
}

// New is bound at init: google cloud pub/sub when GOOGLE_CLOUD_PROJECT is set,
// an in-process fake otherwise.
var New func(c context.Context) (PubSub, func(), error)
