// Package notify announces written artifacts on NATS so downstream site
// builders can rebuild the affected pages.
package notify

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/iptvguide/guidegen/engine/generate"
	"github.com/iptvguide/guidegen/pkg/natsutil"
)

const (
	// DefaultSubject carries ArtifactWritten events.
	DefaultSubject = "guides.artifact.written"
	// RegenerateSubject carries Regenerate requests for watch mode.
	RegenerateSubject = "guides.regenerate"
)

// ArtifactWritten is published once per artifact after it is on disk.
type ArtifactWritten struct {
	Generator   string    `json:"generator"`
	Artifact    string    `json:"artifact"`
	Path        string    `json:"path"`
	Pages       int       `json:"pages"`
	Slugs       []string  `json:"slugs"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Regenerate asks a running watcher to regenerate. Empty Only means all
// generators.
type Regenerate struct {
	Only   []string `json:"only,omitempty"`
	Reason string   `json:"reason,omitempty"`
}

// Publisher is a generate.Sink that publishes ArtifactWritten events.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// NewPublisher returns a publisher on subject, or DefaultSubject if empty.
func NewPublisher(nc *nats.Conn, subject string) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Publisher{nc: nc, subject: subject}
}

func (p *Publisher) Name() string { return "nats" }

func (p *Publisher) Consume(ctx context.Context, b generate.Batch) error {
	return natsutil.Publish(ctx, p.nc, p.subject, Event(b))
}

// Event summarizes a written batch.
func Event(b generate.Batch) ArtifactWritten {
	slugs := make([]string, len(b.Guides))
	for i, g := range b.Guides {
		slugs[i] = g.Slug
	}
	return ArtifactWritten{
		Generator:   b.Generator,
		Artifact:    b.Artifact,
		Path:        b.Path,
		Pages:       len(b.Guides),
		Slugs:       slugs,
		GeneratedAt: b.GeneratedAt,
	}
}

// OnRegenerate subscribes handler to regenerate requests.
func OnRegenerate(nc *nats.Conn, handler func(context.Context, Regenerate)) (*nats.Subscription, error) {
	return natsutil.Subscribe(nc, RegenerateSubject, handler)
}
