package state

import (
	"errors"
	"math/rand"
	"testing"
)

var backends = []Backend{Trail, Copy}

func TestManager_InitialLevel(t *testing.T) {
	for _, b := range backends {
		m := New(b)
		if got := m.Level(); got != -1 {
			t.Errorf("%v: Level() = %d, want -1", b, got)
		}
		if got := m.SaveState(); got != 0 {
			t.Errorf("%v: SaveState() = %d, want 0", b, got)
		}
		if got := m.SaveState(); got != 1 {
			t.Errorf("%v: second SaveState() = %d, want 1", b, got)
		}
	}
}

func TestManager_NestedWriteRestore(t *testing.T) {
	for _, b := range backends {
		t.Run(b.String(), func(t *testing.T) {
			m := New(b)
			x := NewInt(m, 7)

			m.SaveState()
			m.SaveState()
			x.SetValue(9)
			m.RestoreState()
			if got := x.Value(); got != 7 {
				t.Fatalf("after inner restore x = %d, want 7", got)
			}
			x.SetValue(13)
			m.SaveState()
			m.RestoreState()
			if got := x.Value(); got != 13 {
				t.Fatalf("after empty level restore x = %d, want 13", got)
			}
			m.RestoreState()
			if got := x.Value(); got != 7 {
				t.Fatalf("after outer restore x = %d, want 7", got)
			}
			if m.Level() != -1 {
				t.Fatalf("Level() = %d, want -1", m.Level())
			}
		})
	}
}

func TestManager_CoalescedWrites(t *testing.T) {
	for _, b := range backends {
		m := New(b)
		x := NewInt(m, 0)
		m.SaveState()
		for i := 1; i <= 10; i++ {
			x.SetValue(i)
		}
		m.SaveState()
		x.Increment()
		x.Increment()
		m.RestoreState()
		if x.Value() != 10 {
			t.Errorf("%v: x = %d, want 10", b, x.Value())
		}
		m.RestoreState()
		if x.Value() != 0 {
			t.Errorf("%v: x = %d, want 0", b, x.Value())
		}
	}
}

func TestTrailer_CoalescesLogEntries(t *testing.T) {
	tr := NewTrailer()
	x := NewInt(tr, 0)
	tr.SaveState()
	for i := 0; i < 100; i++ {
		x.Increment()
	}
	if got := tr.TrailSize(); got != 1 {
		t.Errorf("TrailSize() = %d, want 1", got)
	}
	tr.RestoreState()
	if got := tr.TrailSize(); got != 0 {
		t.Errorf("TrailSize() after restore = %d, want 0", got)
	}
}

func TestManager_RestoreStateUntil(t *testing.T) {
	for _, b := range backends {
		a, c := New(b), New(b)
		xa, xc := NewInt(a, 0), NewInt(c, 0)
		for i := 1; i <= 5; i++ {
			a.SaveState()
			c.SaveState()
			xa.SetValue(i)
			xc.SetValue(i)
		}
		a.RestoreStateUntil(1)
		for c.Level() > 1 {
			c.RestoreState()
		}
		if xa.Value() != xc.Value() || a.Level() != c.Level() {
			t.Errorf("%v: RestoreStateUntil gave (%d, level %d), repeated RestoreState gave (%d, level %d)",
				b, xa.Value(), a.Level(), xc.Value(), c.Level())
		}
		if xa.Value() != 2 {
			t.Errorf("%v: x = %d, want 2", b, xa.Value())
		}
	}
}

func TestManager_WithNewState(t *testing.T) {
	boom := errors.New("boom")
	for _, b := range backends {
		m := New(b)
		flag := NewBool(m, false)
		err := m.WithNewState(func() error {
			flag.SetValue(true)
			m.SaveState()
			flag.SetValue(false)
			return boom
		})
		if !errors.Is(err, boom) {
			t.Errorf("%v: WithNewState() error = %v, want boom", b, err)
		}
		if flag.Value() || m.Level() != -1 {
			t.Errorf("%v: flag = %v level = %d, want false -1", b, flag.Value(), m.Level())
		}
	}
}

func TestManager_OnRestore(t *testing.T) {
	for _, b := range backends {
		m := New(b)
		calls := 0
		m.OnRestore(func() { calls++ })
		m.SaveState()
		m.SaveState()
		m.RestoreStateUntil(-1)
		if calls != 2 {
			t.Errorf("%v: OnRestore calls = %d, want 2", b, calls)
		}
	}
}

func TestManager_RestoreWithoutSavePanics(t *testing.T) {
	for _, b := range backends {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("%v: RestoreState() at level -1 did not panic", b)
				}
			}()
			New(b).RestoreState()
		}()
	}
}

func TestManager_CellCreatedAfterSave(t *testing.T) {
	for _, b := range backends {
		m := New(b)
		m.SaveState()
		m.SaveState()
		x := NewInt(m, 3)
		x.SetValue(4)
		m.RestoreState()
		if x.Value() != 3 {
			t.Errorf("%v: x = %d, want initial 3", b, x.Value())
		}
		x.SetValue(5)
		m.RestoreState()
		if x.Value() != 3 {
			t.Errorf("%v: x = %d, want initial 3", b, x.Value())
		}
	}
}

func TestStack_PushRestore(t *testing.T) {
	for _, b := range backends {
		m := New(b)
		s := NewStack[string](m)
		s.Push("a")
		m.SaveState()
		s.Push("b")
		s.Push("c")
		if s.Size() != 3 || s.Get(2) != "c" {
			t.Fatalf("%v: stack = %v", b, s.Items())
		}
		m.RestoreState()
		if s.Size() != 1 || s.Get(0) != "a" {
			t.Fatalf("%v: after restore stack = %v", b, s.Items())
		}
		s.Push("d")
		if got := s.Items(); len(got) != 2 || got[1] != "d" {
			t.Fatalf("%v: after push stack = %v", b, got)
		}
	}
}

// TestBackends_Equivalent replays the same random program on both backends.
func TestBackends_Equivalent(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		tr, cp := NewTrailer(), NewCopier()
		var xt, xc []*Int

		for step := 0; step < 500; step++ {
			switch op := rng.Intn(10); {
			case op < 1 || len(xt) == 0:
				v := rng.Intn(100)
				xt = append(xt, NewInt(tr, v))
				xc = append(xc, NewInt(cp, v))
			case op < 3:
				if tr.SaveState() != cp.SaveState() {
					t.Fatalf("seed %d: levels diverged", seed)
				}
			case op < 5:
				if tr.Level() >= 0 {
					tr.RestoreState()
					cp.RestoreState()
				}
			default:
				i, v := rng.Intn(len(xt)), rng.Intn(100)
				xt[i].SetValue(v)
				xc[i].SetValue(v)
			}
			for i := range xt {
				if xt[i].Value() != xc[i].Value() {
					t.Fatalf("seed %d step %d: cell %d trail=%d copy=%d",
						seed, step, i, xt[i].Value(), xc[i].Value())
				}
			}
		}
	}
}

func TestCopier_ReleasesCellsOnRestore(t *testing.T) {
	c := NewCopier()
	NewInt(c, 0)
	live := c.Cells()

	for i := 0; i < 100; i++ {
		_ = c.WithNewState(func() error {
			NewInt(c, i).SetValue(i + 1)
			NewStack[int](c).Push(i)
			return nil
		})
	}
	if got := c.Cells(); got != live {
		t.Fatalf("Cells() = %d after released checkpoints, want %d", got, live)
	}

	c.SaveState()
	NewInt(c, 1)
	c.SaveState()
	NewInt(c, 2)
	NewInt(c, 3)
	if got := c.Cells(); got != live+3 {
		t.Fatalf("Cells() = %d, want %d", got, live+3)
	}
	c.RestoreState()
	if got := c.Cells(); got != live+1 {
		t.Fatalf("Cells() = %d after one restore, want %d", got, live+1)
	}
	c.RestoreState()
	if got := c.Cells(); got != live {
		t.Fatalf("Cells() = %d after both restores, want %d", got, live)
	}
}

func TestCopier_RevivesReleasedCell(t *testing.T) {
	c := NewCopier()
	c.SaveState()
	x := NewInt(c, 7)
	c.RestoreState()
	live := c.Cells()

	c.SaveState()
	x.SetValue(8)
	if got := c.Cells(); got != live+1 {
		t.Fatalf("Cells() = %d, want the written cell tracked again", got)
	}
	c.RestoreState()
	if x.Value() != 7 || c.Cells() != live {
		t.Fatalf("x = %d, Cells() = %d; want 7, %d", x.Value(), c.Cells(), live)
	}
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in      string
		want    Backend
		wantErr bool
	}{
		{"trail", Trail, false},
		{"", Trail, false},
		{"copy", Copy, false},
		{"snapshot", Trail, true},
	}
	for _, tt := range tests {
		got, err := ParseBackend(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseBackend(%q) = %v, %v", tt.in, got, err)
		}
	}
}
