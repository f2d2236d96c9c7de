package sinks

import (
	"context"
	"slices"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"

	"github.com/iptvguide/guidegen/pkg/config"
)

func TestOpenNothingConfigured(t *testing.T) {
	s, err := Open(context.Background(), config.Default(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Sinks) != 0 || s.NATS != nil || s.Graph != nil || s.Index != nil {
		t.Fatalf("expected no sinks, got %v", s.Names())
	}
	if err := s.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestOpenQdrantAndNATS(t *testing.T) {
	srv, err := natsserver.NewServer(&natsserver.Options{Port: -1})
	if err != nil {
		t.Fatal(err)
	}
	srv.Start()
	defer srv.Shutdown()
	if !srv.ReadyForConnections(3 * time.Second) {
		t.Fatal("nats not ready")
	}

	cfg := config.Default()
	cfg.QdrantAddr = "localhost:6334" // dialled lazily
	cfg.NATSURL = srv.ClientURL()

	s, err := Open(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close(context.Background())

	if got := s.Names(); !slices.Equal(got, []string{"qdrant", "nats"}) {
		t.Fatalf("sinks = %v", got)
	}
	if s.Index == nil || s.Graph != nil {
		t.Fatal("expected only the search index handle")
	}
	if s.NATS == nil || !s.NATS.IsConnected() {
		t.Fatal("expected a live NATS connection")
	}
}

func TestOpenErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  func(*config.Config)
	}{
		{"bad neo4j scheme", func(c *config.Config) { c.Neo4jURL = "ftp://localhost" }},
		{"nats unreachable", func(c *config.Config) { c.NATSURL = "nats://127.0.0.1:1" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.cfg(&cfg)
			if _, err := Open(context.Background(), cfg, nil); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
