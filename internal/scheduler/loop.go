package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/lcalzada-xor/wifitify/internal/capture"
	"github.com/lcalzada-xor/wifitify/internal/channel"
	"github.com/lcalzada-xor/wifitify/internal/domain"
	"github.com/lcalzada-xor/wifitify/internal/telemetry"
)

// receiveTimeout bounds how long the main loop waits on a frame before
// re-checking the scheduler clocks, per §4.F step 1.
const receiveTimeout = 250 * time.Millisecond

// Loop is the Main Loop (§4.F): it drains decoded frames, fanning each
// one out to its own Observation Handler goroutine, and on every idle
// tick decides whether a channel hop (sweep or watched-cycling) is due.
type Loop struct {
	device     string
	in         <-chan capture.Decoded
	state      *domain.AppState
	controller *channel.Controller
	handler    *ObservationHandler
	log        *slog.Logger
}

// NewLoop builds a Loop reading frames from in and dispatching them
// through handler.
func NewLoop(device string, in <-chan capture.Decoded, state *domain.AppState, controller *channel.Controller, handler *ObservationHandler, log *slog.Logger) *Loop {
	return &Loop{device: device, in: in, state: state, controller: controller, handler: handler, log: log}
}

// Run blocks until ctx is cancelled or the capture channel is closed.
func (l *Loop) Run(ctx context.Context) {
	supported, err := l.controller.SupportedChannels(l.device)
	if err != nil {
		l.log.Error("scheduler: could not enumerate supported channels", "error", err)
		supported = nil
	}
	l.state.UpdateWatchedChannels(supported)

	ticker := time.NewTicker(receiveTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case dec, open := <-l.in:
			if !open {
				l.log.Error("scheduler: capture channel closed", "error", domain.ErrCaptureLost)
				return
			}
			doingSweep := l.isDoingSweep()
			go l.handler.Handle(ctx, dec.Frame, doingSweep)

		case <-ticker.C:
			l.maybeSwitchChannel(ctx, supported)
		}
	}
}

// isDoingSweep reports the current scheduling mode: always_sweep
// overrides everything; otherwise a sweep is due on its own timer, or
// forced when the watched-channel ring has gone empty (§4.C, §4.F).
func (l *Loop) isDoingSweep() bool {
	return l.state.AlwaysSweep() || l.state.ShouldSweep()
}

// maybeSwitchChannel implements §4.F step 4: decide whether the dwell
// timeout for the active mode has elapsed, and if so, tune to the next
// channel for that mode. A sweep that runs off the end of the supported
// list completes the sweep and rebuilds the watched-channel ring.
func (l *Loop) maybeSwitchChannel(ctx context.Context, supported []int) {
	doingSweep := l.isDoingSweep()
	if !l.state.ShouldSwitchChannel(doingSweep) {
		return
	}

	if doingSweep {
		ch, ok := l.state.NextSupportedChannel(supported)
		if !ok {
			l.state.StampFullSweep()
			l.state.UpdateWatchedChannels(supported)
			telemetry.Sweeps.Inc()
			return
		}
		l.tune(ch, "sweep")
		return
	}

	ch, ok := l.state.NextWatchedChannel()
	if !ok {
		// Ring went empty: a sweep has already been scheduled by
		// NextWatchedChannel, nothing to tune to this tick.
		return
	}
	l.tune(ch, "watched")
}

func (l *Loop) tune(ch int, mode string) {
	if err := l.controller.SwitchChannel(l.device, ch); err != nil {
		l.log.Warn("scheduler: channel switch failed", "channel", ch, "mode", mode, "error", err)
		return
	}
	l.state.StampChannelSwitch()
	telemetry.ChannelHops.WithLabelValues(mode).Inc()
	telemetry.CurrentChannel.Set(float64(ch))
}
