package domain

import (
	"sort"
	"sync"
	"time"
)

// farPast is subtracted from now when seeding or forcing a clock so that
// the very next eligibility check returns true for any practical configured
// timeout. original_source/collect/state.rs seeds last_full_sweep and
// last_channel_switch two hours in the past; that is not enough here, where
// time_between_sweeps is configurable and defaults to exactly two hours.
const farPast = 100 * 365 * 24 * time.Hour

// SchedulerConfig holds the timing knobs AppState evaluates against. Field
// names mirror the TOML config keys in §6.
type SchedulerConfig struct {
	AlwaysSweep                bool
	FixedChannel                *int
	TimeBetweenSweeps           time.Duration
	SweepChannelSwitchTimeout   time.Duration
	ChannelSwitchTimeout        time.Duration
}

// AppState is the main loop's exclusive in-memory mirror of the catalog
// plus its scheduler clocks and watched-channel ring. It is never shared
// with handler tasks (§5): handlers read/write the store directly, and the
// mirror is re-hydrated from the store at startup.
type AppState struct {
	mu sync.Mutex

	cfg SchedulerConfig

	stations          map[MacAddress]*Station
	devices           map[MacAddress]*Device
	stationDeviceMap  map[int64]map[int64]struct{}

	watchedChannels       []int
	currentWatchedIndex   int

	lastFullSweep     time.Time
	lastChannelSwitch time.Time

	supportedCursor int
}

// NewAppState builds an AppState with clocks seeded far enough in the past
// that the first should_sweep()/should_switch_channel() call is eligible.
func NewAppState(cfg SchedulerConfig) *AppState {
	now := time.Now().UTC()
	return &AppState{
		cfg:               cfg,
		stations:          make(map[MacAddress]*Station),
		devices:           make(map[MacAddress]*Device),
		stationDeviceMap:  make(map[int64]map[int64]struct{}),
		lastFullSweep:     now.Add(-farPast),
		lastChannelSwitch: now.Add(-farPast),
	}
}

// LoadSnapshot seeds the mirrors from a Catalog Store snapshot read at
// startup (§3 AppState, §4.B known_stations/known_devices/station_device_map).
func (s *AppState) LoadSnapshot(stations map[MacAddress]*Station, devices map[MacAddress]*Device, links map[int64]map[int64]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stations = stations
	s.devices = devices
	s.stationDeviceMap = links
}

// Station returns the mirrored station for mac, if any.
func (s *AppState) Station(mac MacAddress) (*Station, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stations[mac]
	return st, ok
}

// Device returns the mirrored device for mac, if any.
func (s *AppState) Device(mac MacAddress) (*Device, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[mac]
	return d, ok
}

// PutStation records or replaces the mirrored station.
func (s *AppState) PutStation(st *Station) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stations[st.MAC] = st
}

// PutDevice records or replaces the mirrored device.
func (s *AppState) PutDevice(d *Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices[d.MAC] = d
}

// PutLink records that device has been seen exchanging data with station.
func (s *AppState) PutLink(stationID, deviceID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.stationDeviceMap[stationID]
	if !ok {
		set = make(map[int64]struct{})
		s.stationDeviceMap[stationID] = set
	}
	set[deviceID] = struct{}{}
}

// ShouldSweep reports whether more than TimeBetweenSweeps has elapsed since
// the last full sweep.
func (s *AppState) ShouldSweep() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastFullSweep) > s.cfg.TimeBetweenSweeps
}

// ShouldSwitchChannel reports whether the dwell timeout for the current
// mode (sweep vs watched-cycling) has elapsed. The two modes use
// independent timeouts, per §4.C.
func (s *AppState) ShouldSwitchChannel(doingSweep bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	timeout := s.cfg.ChannelSwitchTimeout
	if doingSweep {
		timeout = s.cfg.SweepChannelSwitchTimeout
	}
	return time.Since(s.lastChannelSwitch) > timeout
}

// ScheduleSweep forces the next ShouldSweep() call to return true.
func (s *AppState) ScheduleSweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFullSweep = time.Now().UTC().Add(-farPast)
}

// StampChannelSwitch records that a channel switch just happened.
func (s *AppState) StampChannelSwitch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastChannelSwitch = time.Now().UTC()
}

// StampFullSweep records that a full sweep just completed.
func (s *AppState) StampFullSweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFullSweep = time.Now().UTC()
}

// AlwaysSweep reports the configured always_sweep flag.
func (s *AppState) AlwaysSweep() bool {
	return s.cfg.AlwaysSweep
}

// FixedChannel returns the configured fixed channel, if any.
func (s *AppState) FixedChannel() (int, bool) {
	if s.cfg.FixedChannel == nil {
		return 0, false
	}
	return *s.cfg.FixedChannel, true
}

// UpdateWatchedChannels rebuilds the watched-channel ring from the
// intersection of currently-watched stations' channels with supported,
// sorted and deduped (invariant 4). If the result is empty, a sweep is
// scheduled (§4.C).
func (s *AppState) UpdateWatchedChannels(supported []int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	supportedSet := make(map[int]struct{}, len(supported))
	for _, c := range supported {
		supportedSet[c] = struct{}{}
	}

	seen := make(map[int]struct{})
	var watched []int
	for _, st := range s.stations {
		if !st.Watch {
			continue
		}
		if _, ok := supportedSet[st.Channel]; !ok {
			continue
		}
		if _, dup := seen[st.Channel]; dup {
			continue
		}
		seen[st.Channel] = struct{}{}
		watched = append(watched, st.Channel)
	}
	sort.Ints(watched)

	s.watchedChannels = watched
	s.currentWatchedIndex = 0

	if len(s.watchedChannels) == 0 {
		s.lastFullSweep = time.Now().UTC().Add(-farPast)
	}
}

// WatchedChannels returns a copy of the current watched-channel ring.
func (s *AppState) WatchedChannels() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.watchedChannels))
	copy(out, s.watchedChannels)
	return out
}

// NextWatchedChannel returns config.fixed_channel verbatim if set;
// otherwise advances the ring cursor modulo its length and returns the
// channel there. If the ring is empty, it schedules a sweep and returns
// false (§4.C).
func (s *AppState) NextWatchedChannel() (int, bool) {
	s.mu.Lock()
	if s.cfg.FixedChannel != nil {
		ch := *s.cfg.FixedChannel
		s.mu.Unlock()
		return ch, true
	}

	if len(s.watchedChannels) == 0 {
		s.lastFullSweep = time.Now().UTC().Add(-farPast)
		s.mu.Unlock()
		return 0, false
	}

	ch := s.watchedChannels[s.currentWatchedIndex]
	s.currentWatchedIndex = (s.currentWatchedIndex + 1) % len(s.watchedChannels)
	s.mu.Unlock()
	return ch, true
}

// NextSupportedChannel advances the sweep's supported-channel cursor,
// returning the next channel and whether one remained. Resets the cursor
// to 0 when the sweep is exhausted, per §4.F step 4.
func (s *AppState) NextSupportedChannel(supported []int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.supportedCursor >= len(supported) {
		s.supportedCursor = 0
		return 0, false
	}
	ch := supported[s.supportedCursor]
	s.supportedCursor++
	return ch, true
}
