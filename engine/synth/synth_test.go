package synth

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/iptvguide/guidegen/engine/catalog"
	"github.com/iptvguide/guidegen/engine/domain"
	"github.com/iptvguide/guidegen/engine/pairing"
)

var stamp = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func loadSnapshot(t *testing.T) *catalog.Snapshot {
	t.Helper()
	snap, err := catalog.LoadSnapshot("../catalog/testdata")
	if err != nil {
		t.Fatalf("load testdata: %v", err)
	}
	return snap
}

func mustPlayer(t *testing.T, snap *catalog.Snapshot, id string) domain.Player {
	t.Helper()
	p, ok := snap.Player(id)
	if !ok {
		t.Fatalf("player %s not in testdata", id)
	}
	return p
}

func mustDevice(t *testing.T, snap *catalog.Snapshot, id string) domain.Device {
	t.Helper()
	d, ok := snap.Device(id)
	if !ok {
		t.Fatalf("device %s not in testdata", id)
	}
	return d
}

func mustFeature(t *testing.T, snap *catalog.Snapshot, id string) domain.Feature {
	t.Helper()
	f, ok := snap.Feature(id)
	if !ok {
		t.Fatalf("feature %s not in testdata", id)
	}
	return f
}

func mustIssue(t *testing.T, snap *catalog.Snapshot, id string) domain.Issue {
	t.Helper()
	i, ok := snap.Issue(id)
	if !ok {
		t.Fatalf("issue %s not in testdata", id)
	}
	return i
}

func TestPlayerFeature_Cartesian(t *testing.T) {
	var players []domain.Player
	for i := 0; i < 20; i++ {
		players = append(players, domain.Player{
			ID: fmt.Sprintf("p%d", i), Slug: fmt.Sprintf("player-%d", i), Name: fmt.Sprintf("Player %d", i),
			Rating: 4, Features: []string{"f0", "f3"}, Pricing: domain.Pricing{Model: "free"},
		})
	}
	var features []domain.Feature
	for i := 0; i < 12; i++ {
		features = append(features, domain.Feature{
			ID: fmt.Sprintf("f%d", i), Slug: fmt.Sprintf("feature-%d", i), Name: fmt.Sprintf("Feature %d", i),
			Category: "playback",
		})
	}
	s := New(catalog.NewSnapshot(players, nil, features, nil), stamp)

	var guides []domain.Guide
	for _, pair := range pairing.Cartesian(players, features) {
		g, err := s.PlayerFeature(pair.A, pair.B)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		guides = append(guides, g)
	}
	if len(guides) != 240 {
		t.Fatalf("expected 240 guides, got %d", len(guides))
	}
	seen := map[string]bool{}
	supported := 0
	for _, g := range guides {
		if g.Title == "" || g.Description == "" {
			t.Errorf("%s: empty title or description", g.Slug)
		}
		if seen[g.Slug] {
			t.Errorf("duplicate slug %s", g.Slug)
		}
		seen[g.Slug] = true
		if g.Supported {
			supported++
		}
	}
	if supported != 40 {
		t.Errorf("expected 40 supported pairs, got %d", supported)
	}
	if guides[0].Slug != "player-0-feature-0" || guides[12].Slug != "player-1-feature-0" {
		t.Errorf("unexpected order: %s, %s", guides[0].Slug, guides[12].Slug)
	}
}

func TestPlayerFeature_Shapes(t *testing.T) {
	snap := loadSnapshot(t)
	s := New(snap, stamp)
	epg := mustFeature(t, snap, "epg")

	tests := []struct {
		player    string
		supported bool
		shape     domain.Shape
	}{
		{"tivimate", true, domain.ShapeHowTo},
		{"kodi", true, domain.ShapeHowTo},
		{"vlc", false, domain.ShapeLimitation},
	}
	for _, tt := range tests {
		t.Run(tt.player, func(t *testing.T) {
			g, err := s.PlayerFeature(mustPlayer(t, snap, tt.player), epg)
			if err != nil {
				t.Fatal(err)
			}
			if g.Slug != tt.player+"-epg" {
				t.Errorf("slug: got %s", g.Slug)
			}
			if g.Supported != tt.supported || g.Shape != tt.shape || g.Content.Shape() != tt.shape {
				t.Errorf("got supported=%v shape=%s body=%s", g.Supported, g.Shape, g.Content.Shape())
			}
			if g.PlayerID != tt.player || g.FeatureID != "epg" {
				t.Errorf("foreign keys: %s %s", g.PlayerID, g.FeatureID)
			}
			if !g.LastUpdated.Equal(stamp) {
				t.Errorf("lastUpdated: got %v", g.LastUpdated)
			}
		})
	}
}

func TestPlayerFeature_LimitationAlternatives(t *testing.T) {
	snap := loadSnapshot(t)
	g, err := New(snap, stamp).PlayerFeature(mustPlayer(t, snap, "vlc"), mustFeature(t, snap, "epg"))
	if err != nil {
		t.Fatal(err)
	}
	body, ok := g.Content.(domain.Limitation)
	if !ok {
		t.Fatalf("expected Limitation body, got %T", g.Content)
	}
	var got []string
	for _, a := range body.Alternatives {
		got = append(got, a.ID)
	}
	want := []string{"tivimate", "kodi", "iptv-smarters"}
	if !slices.Equal(got, want) {
		t.Errorf("alternatives: expected %v, got %v", want, got)
	}
}

func TestKeywords_FullAndLowerCased(t *testing.T) {
	snap := loadSnapshot(t)
	f := mustFeature(t, snap, "epg")
	g, err := New(snap, stamp).PlayerFeature(mustPlayer(t, snap, "tivimate"), f)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range g.Keywords {
		if k != strings.ToLower(k) {
			t.Errorf("keyword not lower-cased: %q", k)
		}
	}
	for _, k := range f.Keywords {
		if !slices.Contains(g.Keywords, strings.ToLower(k)) {
			t.Errorf("feature keyword %q dropped", k)
		}
	}
}

func TestDeviceFeature(t *testing.T) {
	snap := loadSnapshot(t)
	s := New(snap, stamp)
	tests := []struct {
		device, feature string
		supported       bool
	}{
		{"firestick", "epg", true},
		{"roku", "epg", false},
		{"roku", "favorites", true},
		{"apple-tv", "recording", false},
	}
	for _, tt := range tests {
		t.Run(tt.device+"/"+tt.feature, func(t *testing.T) {
			g, err := s.DeviceFeature(mustDevice(t, snap, tt.device), mustFeature(t, snap, tt.feature))
			if err != nil {
				t.Fatal(err)
			}
			if g.Slug != tt.device+"-"+tt.feature {
				t.Errorf("slug: got %s", g.Slug)
			}
			if g.Supported != tt.supported {
				t.Errorf("supported: expected %v", tt.supported)
			}
			if !tt.supported {
				body := g.Content.(domain.Limitation)
				for _, a := range body.Alternatives {
					if a.ID == tt.device {
						t.Error("device listed as its own alternative")
					}
				}
			}
		})
	}
}

func TestPlayerDevice(t *testing.T) {
	snap := loadSnapshot(t)
	s := New(snap, stamp)

	g, err := s.PlayerDevice(mustPlayer(t, snap, "tivimate"), mustDevice(t, snap, "firestick"))
	if err != nil {
		t.Fatal(err)
	}
	if g.Slug != "tivimate-firestick" || !g.Supported {
		t.Errorf("got %s supported=%v", g.Slug, g.Supported)
	}
	if g.Title != "How to Install TiviMate on Firestick" {
		t.Errorf("title: got %q", g.Title)
	}

	g, err = s.PlayerDevice(mustPlayer(t, snap, "tivimate"), mustDevice(t, snap, "apple-tv"))
	if err != nil {
		t.Fatal(err)
	}
	if g.Supported {
		t.Fatal("tivimate is not listed for apple-tv")
	}
	body := g.Content.(domain.Limitation)
	if len(body.Alternatives) != 3 || body.Alternatives[0].ID != "iptv-smarters" {
		t.Errorf("alternatives: %+v", body.Alternatives)
	}

	// A device with no players still gets a document.
	g, err = s.PlayerDevice(mustPlayer(t, snap, "kodi"), mustDevice(t, snap, "roku"))
	if err != nil {
		t.Fatal(err)
	}
	if body := g.Content.(domain.Limitation); len(body.Alternatives) != 0 || body.Conclusion == "" {
		t.Errorf("roku fallback: %+v", body)
	}
}

func TestTroubleshooting(t *testing.T) {
	snap := loadSnapshot(t)
	s := New(snap, stamp)

	g, err := s.PlayerIssue(mustPlayer(t, snap, "kodi"), mustIssue(t, snap, "buffering"))
	if err != nil {
		t.Fatal(err)
	}
	if g.Slug != "kodi-buffering" || g.Shape != domain.ShapeTroubleshooting {
		t.Errorf("got %s %s", g.Slug, g.Shape)
	}
	body := g.Content.(domain.Troubleshooting)
	if body.Severity != domain.SeverityHigh {
		t.Errorf("severity: got %s", body.Severity)
	}
	if len(body.Solutions) != 5 || len(body.Causes) != 4 {
		t.Errorf("expected 5 solutions and 4 causes, got %d/%d", len(body.Solutions), len(body.Causes))
	}

	g, err = s.DeviceIssue(mustDevice(t, snap, "apple-tv"), mustIssue(t, snap, "no-sound"))
	if err != nil {
		t.Fatal(err)
	}
	if g.Slug != "apple-tv-no-sound" || g.DeviceID != "apple-tv" || g.IssueID != "no-sound" {
		t.Errorf("got %+v", g)
	}
	// no-sound has a single cause; the second-cause FAQ must fall back.
	if faqs := g.Content.(domain.Troubleshooting).FAQs; !strings.Contains(faqs[2].Answer, "it affects every channel") {
		t.Errorf("fallback answer: %q", faqs[2].Answer)
	}
}

func TestTroubleshooting_EmptyListIsGenerationError(t *testing.T) {
	snap := loadSnapshot(t)
	issue := mustIssue(t, snap, "buffering")
	issue.GeneralSolutions = nil

	_, err := New(snap, stamp).PlayerIssue(mustPlayer(t, snap, "vlc"), issue)
	if !errors.Is(err, domain.ErrGeneration) || !errors.Is(err, domain.ErrEmptyList) {
		t.Fatalf("expected generation error wrapping ErrEmptyList, got %v", err)
	}
	var ge *domain.GenerationError
	if !errors.As(err, &ge) || ge.Generator != PlayerIssueGen || ge.Slug != "vlc-buffering" {
		t.Errorf("unexpected error detail: %+v", ge)
	}
}

func TestBestFor_Firestick(t *testing.T) {
	snap := loadSnapshot(t)
	g, err := New(snap, stamp).BestFor(mustDevice(t, snap, "firestick"))
	if err != nil {
		t.Fatal(err)
	}
	if g.Slug != "best-iptv-player-for-firestick" {
		t.Errorf("slug: got %s", g.Slug)
	}
	body := g.Content.(domain.BestFor)
	if body.TopPick == nil || body.TopPick.PlayerID != "tivimate" || body.TopPick.Score != 54 {
		t.Fatalf("top pick: %+v", body.TopPick)
	}
	if body.RunnerUp == nil || body.RunnerUp.PlayerID != "kodi" {
		t.Errorf("runner-up: %+v", body.RunnerUp)
	}
	if body.BudgetPick == nil || body.BudgetPick.PlayerID != "kodi" {
		t.Errorf("budget pick: %+v", body.BudgetPick)
	}
	var order []string
	for _, p := range body.Rankings {
		order = append(order, p.PlayerID)
	}
	if want := []string{"tivimate", "kodi", "iptv-smarters", "vlc"}; !slices.Equal(order, want) {
		t.Errorf("rankings: expected %v, got %v", want, order)
	}
	if !slices.Contains(g.LinkKeys, KeyCategory+"streaming-stick") {
		t.Errorf("link keys: %v", g.LinkKeys)
	}
}

func TestBestFor_BudgetEqualsTopIsAbsent(t *testing.T) {
	snap := loadSnapshot(t)
	g, err := New(snap, stamp).BestFor(mustDevice(t, snap, "apple-tv"))
	if err != nil {
		t.Fatal(err)
	}
	body := g.Content.(domain.BestFor)
	if body.TopPick == nil || body.TopPick.PlayerID != "iptv-smarters" {
		t.Fatalf("top pick: %+v", body.TopPick)
	}
	if body.BudgetPick != nil {
		t.Errorf("budget pick should be absent, got %+v", body.BudgetPick)
	}
	if !strings.Contains(body.FAQs[1].Answer, "top pick") {
		t.Errorf("budget answer: %q", body.FAQs[1].Answer)
	}
}

func TestBestFor_NoCompatiblePlayers(t *testing.T) {
	snap := loadSnapshot(t)
	g, err := New(snap, stamp).BestFor(mustDevice(t, snap, "roku"))
	if err != nil {
		t.Fatalf("empty candidates must not fail: %v", err)
	}
	body := g.Content.(domain.BestFor)
	if body.TopPick != nil || body.RunnerUp != nil || body.BudgetPick != nil {
		t.Errorf("expected nil picks: %+v", body)
	}
	if body.Conclusion == "" || body.FAQs[0].Answer == "" {
		t.Error("expected fallback text")
	}

	data, err := json.Marshal(g)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"topPick":null`) || !strings.Contains(string(data), `"rankings":[]`) {
		t.Errorf("unexpected JSON: %s", data)
	}
}

func TestBestFor_ShortProsFallback(t *testing.T) {
	players := []domain.Player{{
		ID: "bare", Slug: "bare", Name: "Bare", Rating: 3, Pricing: domain.Pricing{Model: "subscription"},
	}}
	devices := []domain.Device{{
		ID: "box", Slug: "box", Name: "Box", Category: "streaming-box", SupportedPlayers: []string{"bare"},
	}}
	s := New(catalog.NewSnapshot(players, devices, nil, nil), stamp)
	g, err := s.BestFor(devices[0])
	if err != nil {
		t.Fatal(err)
	}
	body := g.Content.(domain.BestFor)
	if !strings.Contains(body.Conclusion, "it is well rated") || !strings.Contains(body.Conclusion, "no player suits everyone") {
		t.Errorf("conclusion fallback: %q", body.Conclusion)
	}
}

func TestComparison(t *testing.T) {
	snap := loadSnapshot(t)
	s := New(snap, stamp)
	g, err := s.Comparison(mustPlayer(t, snap, "tivimate"), mustPlayer(t, snap, "vlc"))
	if err != nil {
		t.Fatal(err)
	}
	if g.Slug != "tivimate-vs-vlc" || g.PlayerID != "tivimate" || g.RivalID != "vlc" {
		t.Errorf("got %s %s %s", g.Slug, g.PlayerID, g.RivalID)
	}
	body := g.Content.(domain.Comparison)
	if body.Winner != "tivimate" {
		t.Errorf("winner: got %q", body.Winner)
	}
	if len(body.SharedFeatures) != 3 || len(body.OnlyFirst) != 3 || len(body.OnlySecond) != 0 {
		t.Errorf("feature split: %v / %v / %v", body.SharedFeatures, body.OnlyFirst, body.OnlySecond)
	}

	tie := mustPlayer(t, snap, "vlc")
	tie.ID, tie.Slug, tie.Name = "vlc2", "vlc2", "VLC Clone"
	g, err = s.Comparison(mustPlayer(t, snap, "vlc"), tie)
	if err != nil {
		t.Fatal(err)
	}
	if w := g.Content.(domain.Comparison).Winner; w != "" {
		t.Errorf("tie should have no winner, got %q", w)
	}
}

func TestDeterministic(t *testing.T) {
	snap := loadSnapshot(t)
	build := func(at time.Time) []byte {
		s := New(snap, at)
		var guides []domain.Guide
		for _, pair := range pairing.Cartesian(snap.Players, snap.Features) {
			g, err := s.PlayerFeature(pair.A, pair.B)
			if err != nil {
				t.Fatal(err)
			}
			g.LastUpdated = time.Time{}
			guides = append(guides, g)
		}
		for _, d := range snap.Devices {
			g, err := s.BestFor(d)
			if err != nil {
				t.Fatal(err)
			}
			g.LastUpdated = time.Time{}
			guides = append(guides, g)
		}
		data, err := json.Marshal(guides)
		if err != nil {
			t.Fatal(err)
		}
		return data
	}
	first := build(stamp)
	second := build(stamp.Add(time.Hour))
	if string(first) != string(second) {
		t.Error("output differs between runs with identical input")
	}
}

func TestLowerFirst(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"Runs", "runs"},
		{"EPG", "EPG"},
		{"Wrong EPG URL", "wrong EPG URL"},
		{"Élégant interface", "élégant interface"},
		{"ÉPG", "ÉPG"},
		{"Übersichtliche EPG", "übersichtliche EPG"},
		{"A", "a"},
		{"Ö", "ö"},
	}
	for _, tt := range tests {
		got := lowerFirst(tt.in)
		if got != tt.want {
			t.Errorf("lowerFirst(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("lowerFirst(%q) produced invalid UTF-8", tt.in)
		}
	}
}

func TestBestFor_NonASCIIPros(t *testing.T) {
	players := []domain.Player{{
		ID: "eleg", Slug: "eleg", Name: "Élégant", Rating: 4, Pricing: domain.Pricing{Model: "free"},
		Pros: []string{"Élégant interface"}, Cons: []string{"Über-long setup"},
	}}
	devices := []domain.Device{{
		ID: "box", Slug: "box", Name: "Box", Category: "streaming-box", SupportedPlayers: []string{"eleg"},
	}}
	s := New(catalog.NewSnapshot(players, devices, nil, nil), stamp)
	g, err := s.BestFor(devices[0])
	if err != nil {
		t.Fatal(err)
	}
	body := g.Content.(domain.BestFor)
	if !utf8.ValidString(body.Conclusion) {
		t.Fatalf("conclusion is not valid UTF-8: %q", body.Conclusion)
	}
	if !strings.Contains(body.Conclusion, "élégant interface") || !strings.Contains(body.Conclusion, "über-long setup") {
		t.Errorf("conclusion: %q", body.Conclusion)
	}
	out, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), "\ufffd") || strings.ContainsRune(string(out), utf8.RuneError) {
		t.Errorf("replacement character in output: %s", out)
	}
}

func TestJoinList(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"a"}, "a"},
		{[]string{"a", "b"}, "a and b"},
		{[]string{"a", "b", "c"}, "a, b and c"},
	}
	for _, tt := range tests {
		if got := joinList(tt.in); got != tt.want {
			t.Errorf("joinList(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
