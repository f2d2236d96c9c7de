// Package sinks opens the downstream consumers of written artifacts that the
// configuration enables: the Neo4j graph, the Qdrant search index and NATS
// artifact events.
package sinks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/iptvguide/guidegen/engine/generate"
	"github.com/iptvguide/guidegen/engine/graph"
	"github.com/iptvguide/guidegen/engine/notify"
	"github.com/iptvguide/guidegen/engine/semantic"
	"github.com/iptvguide/guidegen/pkg/config"
	"github.com/iptvguide/guidegen/pkg/natsutil"
	"github.com/iptvguide/guidegen/pkg/ollama"
)

// Set is the opened sinks plus the connections they hold.
type Set struct {
	Sinks []generate.Sink
	// Graph, Index and NATS are nil when their backend is not configured.
	Graph *graph.GraphStore
	Index *semantic.Index
	NATS  *nats.Conn

	closers []func(context.Context) error
}

// Open connects every sink whose address is set in cfg, in the order graph,
// index, events. On error the sinks opened so far are closed.
func Open(ctx context.Context, cfg config.Config, log *slog.Logger) (*Set, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &Set{}
	if err := s.open(ctx, cfg, log); err != nil {
		s.Close(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Set) open(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if cfg.Neo4jURL != "" {
		driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
		if err != nil {
			return fmt.Errorf("neo4j connect: %w", err)
		}
		s.closers = append(s.closers, driver.Close)
		if err := driver.VerifyConnectivity(ctx); err != nil {
			return fmt.Errorf("neo4j verify: %w", err)
		}
		s.Graph = graph.NewFromDriver(driver, cfg.Neo4jDatabase, log)
		s.Sinks = append(s.Sinks, s.Graph)
		log.Info("connected to Neo4j", "url", cfg.Neo4jURL)
	}

	if cfg.QdrantAddr != "" {
		vs, err := semantic.New(cfg.QdrantAddr, cfg.Collection)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, func(context.Context) error { return vs.Close() })
		embedder := ollama.NewEmbedClient(cfg.OllamaURL, cfg.OllamaModel)
		s.Index = semantic.NewIndex(vs, embedder,
			semantic.WithRate(cfg.EmbedRate),
			semantic.WithLogger(log),
		)
		s.Sinks = append(s.Sinks, s.Index)
		log.Info("using Qdrant search index", "addr", cfg.QdrantAddr, "collection", cfg.Collection, "model", embedder.Model())
	}

	if cfg.NATSURL != "" {
		nc, err := natsutil.Connect(cfg.NATSURL, "guidegen", log)
		if err != nil {
			return err
		}
		s.NATS = nc
		s.closers = append(s.closers, func(context.Context) error { return nc.Drain() })
		s.Sinks = append(s.Sinks, notify.NewPublisher(nc, cfg.NATSSubject))
		log.Info("publishing artifact events", "url", cfg.NATSURL, "subject", cfg.NATSSubject)
	}
	return nil
}

// Names lists the open sinks.
func (s *Set) Names() []string {
	names := make([]string, len(s.Sinks))
	for i, sk := range s.Sinks {
		names[i] = sk.Name()
	}
	return names
}

// Close releases the connections in reverse open order.
func (s *Set) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i](ctx))
	}
	s.closers = nil
	return errors.Join(errs...)
}
