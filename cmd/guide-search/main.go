// Command guide-search queries the guides indexed by generate-all. With a
// query it runs a semantic search against Qdrant; with -related it lists the
// guides Neo4j links to the given collection/slug.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/iptvguide/guidegen/engine/graph"
	"github.com/iptvguide/guidegen/engine/semantic"
	"github.com/iptvguide/guidegen/engine/sinks"
	"github.com/iptvguide/guidegen/pkg/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "guide-search: %v\n", err)
		stop()
		os.Exit(1)
	}
}

var errUsage = errors.New("usage: guide-search [flags] <query> | guide-search -related <collection>/<slug>")

type searcher interface {
	Search(ctx context.Context, query string, topK int, filters map[string]string) ([]semantic.SearchResult, error)
}

type relater interface {
	RelatedGuides(ctx context.Context, collection, slug string) ([]graph.GuideNode, error)
}

type query struct {
	text       string
	top        int
	collection string
	related    string
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var q query
	cfg, rest, err := config.LoadWith("guide-search", args, func(fs *flag.FlagSet) {
		fs.IntVar(&q.top, "top", 5, "number of search results")
		fs.StringVar(&q.collection, "in", "", "restrict the search to one collection")
		fs.StringVar(&q.related, "related", "", "list guides related to `collection/slug`")
	})
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	q.text = strings.TrimSpace(strings.Join(rest, " "))
	if (q.text == "") == (q.related == "") {
		return errUsage
	}

	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	// Search only reads, so the artifact event stream stays closed.
	cfg.NATSURL = ""
	set, err := sinks.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer set.Close(context.Background())

	var s searcher
	if set.Index != nil {
		s = set.Index
	}
	var r relater
	if set.Graph != nil {
		r = set.Graph
	}
	return q.run(ctx, s, r, stdout)
}

func (q query) run(ctx context.Context, s searcher, r relater, out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	if q.related != "" {
		if r == nil {
			return errors.New("-related needs -neo4j")
		}
		collection, slug, ok := strings.Cut(q.related, "/")
		if !ok || collection == "" || slug == "" {
			return fmt.Errorf("-related %q: want collection/slug", q.related)
		}
		nodes, err := r.RelatedGuides(ctx, collection, slug)
		if err != nil {
			return err
		}
		if len(nodes) == 0 {
			fmt.Fprintf(tw, "no related guides for %s\n", q.related)
		}
		for i, n := range nodes {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, n.Key, n.Title)
		}
		return nil
	}

	if s == nil {
		return errors.New("search needs -qdrant")
	}
	var filters map[string]string
	if q.collection != "" {
		filters = map[string]string{semantic.KeyCollection: q.collection}
	}
	results, err := s.Search(ctx, q.text, q.top, filters)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintf(tw, "no guides match %q\n", q.text)
	}
	for _, res := range results {
		fmt.Fprintf(tw, "%.3f\t%s/%s\t%s\n", res.Score, res.Collection, res.Slug, res.Title)
	}
	return nil
}
