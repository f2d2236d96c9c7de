package pairing

import (
	"fmt"
	"testing"
)

func TestCartesian_OrderAndCount(t *testing.T) {
	as := []string{"a1", "a2", "a3"}
	bs := []int{1, 2}
	out := Cartesian(as, bs)
	if len(out) != 6 {
		t.Fatalf("expected 6 pairs, got %d", len(out))
	}
	want := []string{"a1-1", "a1-2", "a2-1", "a2-2", "a3-1", "a3-2"}
	for i, p := range out {
		if got := fmt.Sprintf("%s-%d", p.A, p.B); got != want[i] {
			t.Errorf("pair %d: expected %s, got %s", i, want[i], got)
		}
	}
}

func TestCartesian_Empty(t *testing.T) {
	if len(Cartesian([]string{}, []int{1, 2})) != 0 {
		t.Error("empty A should give no pairs")
	}
	if len(Cartesian([]string{"a"}, []int{})) != 0 {
		t.Error("empty B should give no pairs")
	}
}

func TestWhere_Sparse(t *testing.T) {
	type issue struct {
		id       string
		affected []string
	}
	issues := []issue{
		{"buffering", []string{"vlc", "kodi"}},
		{"no-sound", []string{"kodi"}},
		{"crash", nil},
	}
	players := []string{"tivimate", "vlc", "kodi"}
	out := Where(issues, players, func(i issue, p string) bool {
		for _, a := range i.affected {
			if a == p {
				return true
			}
		}
		return false
	})
	want := []string{"buffering/vlc", "buffering/kodi", "no-sound/kodi"}
	if len(out) != len(want) {
		t.Fatalf("expected %d pairs, got %d", len(want), len(out))
	}
	for i, p := range out {
		if got := p.A.id + "/" + p.B; got != want[i] {
			t.Errorf("pair %d: expected %s, got %s", i, want[i], got)
		}
	}
}

func TestWhere_AlwaysTrueMatchesCartesian(t *testing.T) {
	as := []int{1, 2, 3}
	bs := []int{4, 5}
	all := Where(as, bs, func(int, int) bool { return true })
	dense := Cartesian(as, bs)
	if len(all) != len(dense) {
		t.Fatalf("expected %d, got %d", len(dense), len(all))
	}
	for i := range all {
		if all[i] != dense[i] {
			t.Fatalf("order differs at %d", i)
		}
	}
}

func TestUnordered(t *testing.T) {
	out := Unordered([]string{"a", "b", "c", "d"})
	if len(out) != 6 {
		t.Fatalf("expected 6 pairs, got %d", len(out))
	}
	if out[0].A != "a" || out[0].B != "b" || out[5].A != "c" || out[5].B != "d" {
		t.Errorf("unexpected order: %+v", out)
	}
	for _, p := range out {
		if p.A == p.B {
			t.Errorf("self pair %v", p)
		}
	}
	if len(Unordered([]string{"solo"})) != 0 {
		t.Error("single item gives no pairs")
	}
}
