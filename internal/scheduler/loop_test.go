package scheduler

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/lcalzada-xor/wifitify/internal/channel"
	"github.com/lcalzada-xor/wifitify/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingExecutor struct {
	out   []byte
	calls [][]string
}

func (r *recordingExecutor) Execute(name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	return r.out, nil
}

const iwlistChannels123 = `Channel 01 : 2.412 GHz
Channel 02 : 2.417 GHz
Channel 03 : 2.422 GHz
`

// An empty watched-channel ring forces the next tick to run a sweep
// instead of cycling watched channels (§4.C).
func TestLoopSwitchesOnEmptyWatchedRing(t *testing.T) {
	exec := &recordingExecutor{out: []byte(iwlistChannels123)}
	ctrl := channel.NewController(exec)

	cfg := domain.SchedulerConfig{
		TimeBetweenSweeps:         time.Hour,
		SweepChannelSwitchTimeout: time.Millisecond,
		ChannelSwitchTimeout:      time.Millisecond,
	}
	state := domain.NewAppState(cfg)
	state.UpdateWatchedChannels(nil)

	l := &Loop{device: "wlan0mon", state: state, controller: ctrl, log: discardLogger()}

	time.Sleep(2 * time.Millisecond)
	l.maybeSwitchChannel(nil, []int{1, 2, 3})

	if len(exec.calls) == 0 {
		t.Fatal("expected a channel-switch command to be issued during the forced sweep")
	}
}

// always_sweep pins the loop to sweep mode even once a watched ring
// exists.
func TestIsDoingSweepAlwaysSweep(t *testing.T) {
	cfg := domain.SchedulerConfig{AlwaysSweep: true, TimeBetweenSweeps: time.Hour}
	state := domain.NewAppState(cfg)
	state.UpdateWatchedChannels([]int{1, 6, 11})

	l := &Loop{state: state}
	if !l.isDoingSweep() {
		t.Fatal("expected always_sweep to force sweep mode")
	}
}
