//go:build !windows

package watch_test

import (
	"strings"
	"testing"
	"time"

	"github.com/watchbind/watchbind/internal/env"
	"github.com/watchbind/watchbind/internal/watch"
)

// collect returns a watcher publishing into the returned channel.
func collect(t *testing.T, opts watch.Options) (*watch.Watcher, chan watch.Update) {
	t.Helper()
	updates := make(chan watch.Update, 64)
	opts.Publish = func(u watch.Update) {
		// Drop instead of blocking the watcher when the test is not
		// consuming fast enough.
		select {
		case updates <- u:
		default:
		}
	}
	if opts.Env == nil {
		opts.Env = env.NewTable()
	}
	w := watch.New(opts)
	t.Cleanup(w.Stop)
	w.Start()
	return w, updates
}

func waitUpdate(t *testing.T, updates chan watch.Update, timeout time.Duration) watch.Update {
	t.Helper()
	select {
	case u := <-updates:
		return u
	case <-time.After(timeout):
		t.Fatal("timed out waiting for watch update")
		return watch.Update{}
	}
}

func TestFirstRunIsImmediate(t *testing.T) {
	_, updates := collect(t, watch.Options{
		Command:  "printf 'a\\nb\\n'",
		Interval: time.Hour,
	})

	u := waitUpdate(t, updates, 5*time.Second)
	if u.Err != nil {
		t.Fatalf("unexpected error: %v", u.Err)
	}
	if u.Output != "a\nb\n" {
		t.Errorf("Output = %q", u.Output)
	}
}

func TestEnvSnapshotReachesCommand(t *testing.T) {
	tbl := env.NewTable()
	tbl.Set("dir", "/tmp")

	_, updates := collect(t, watch.Options{
		Command:  `printf '%s' "$dir"`,
		Interval: time.Hour,
		Env:      tbl,
	})

	u := waitUpdate(t, updates, 5*time.Second)
	if u.Output != "/tmp" {
		t.Errorf("Output = %q, want /tmp", u.Output)
	}
}

func TestFailurePublishesError(t *testing.T) {
	_, updates := collect(t, watch.Options{
		Command:  "echo boom >&2; exit 7",
		Interval: time.Hour,
	})

	u := waitUpdate(t, updates, 5*time.Second)
	if u.Err == nil {
		t.Fatal("expected an error update")
	}
	if !strings.Contains(u.Err.Error(), "7") {
		t.Errorf("error does not mention exit status: %v", u.Err)
	}
}

func TestReloadCancelsInFlightRun(t *testing.T) {
	// The first run hangs after leaving a marker; runs after the
	// reload see the marker and return immediately.
	marker := t.TempDir() + "/ran"
	cmd := "if [ -e " + marker + " ]; then echo fast; else touch " + marker + "; sleep 30; echo slow; fi"

	w, updates := collect(t, watch.Options{
		Command:   cmd,
		Interval:  time.Hour,
		NoTimeout: true,
	})

	// Give the first child a moment to spawn, then reload.
	time.Sleep(300 * time.Millisecond)
	reloadedAt := time.Now()
	w.Reload()

	// The cancelled run must not be published; the next update comes
	// from a spawn at or after the reload.
	u := waitUpdate(t, updates, 10*time.Second)
	if strings.Contains(u.Output, "slow") {
		t.Fatal("cancelled run output was published")
	}
	if u.SpawnedAt.Before(reloadedAt) {
		t.Errorf("update spawned at %v, before reload at %v", u.SpawnedAt, reloadedAt)
	}
}

func TestIntervalZeroRunsBackToBack(t *testing.T) {
	_, updates := collect(t, watch.Options{
		Command:  "printf x",
		Interval: 0,
	})

	for i := 0; i < 3; i++ {
		u := waitUpdate(t, updates, 5*time.Second)
		if u.Err != nil {
			t.Fatalf("run %d failed: %v", i, u.Err)
		}
	}
}

func TestStopReapsChild(t *testing.T) {
	w, _ := collect(t, watch.Options{
		Command:   "sleep 30",
		Interval:  time.Hour,
		NoTimeout: true,
	})
	time.Sleep(200 * time.Millisecond)

	start := time.Now()
	w.Stop()
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Stop took %v", elapsed)
	}
}
