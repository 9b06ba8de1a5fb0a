package scheduler

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/lcalzada-xor/wifitify/internal/domain"
	"github.com/lcalzada-xor/wifitify/internal/dot11"
	"github.com/lcalzada-xor/wifitify/internal/storage"
)

func newTestHandler(t *testing.T) (*ObservationHandler, *storage.Store, *domain.AppState) {
	t.Helper()
	store, err := storage.Open("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	state := domain.NewAppState(domain.SchedulerConfig{TimeBetweenSweeps: time.Hour})
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewObservationHandler(store, state, log), store, state
}

func macAt(b byte) domain.MacAddress {
	return domain.MacAddress{0xaa, 0xbb, 0xcc, 0x00, 0x00, b}
}

// testChannelFreq maps the 2.4GHz channel numbers these tests use to a
// radiotap capture frequency, mirroring internal/channel's MHz table.
var testChannelFreq = map[int]int{1: 2412, 6: 2437, 11: 2462}

func beaconFrame(bssid domain.MacAddress, ssid string, ch int) *dot11.Frame {
	addr3 := bssid
	mhz := testChannelFreq[ch]
	return &dot11.Frame{
		Header: dot11.Header{
			Addr1: macAt(0x01),
			Addr2: &addr3,
			Addr3: &addr3,
		},
		Kind:       dot11.KindBeacon,
		Beacon:     &dot11.BeaconBody{SSID: ssid},
		ChannelMHz: &mhz,
	}
}

func dataFrame(bssid, station domain.MacAddress, toDS bool) *dot11.Frame {
	h := dot11.Header{}
	ap := bssid
	sta := station
	if toDS {
		h.Control.Flags.ToDS = true
		h.Addr1 = ap // dest resolves via Addr3 when toDS; keep Addr1 filled regardless
		h.Addr2 = &sta
		h.Addr3 = &ap
	} else {
		h.Control.Flags.FromDS = true
		h.Addr1 = sta
		h.Addr2 = &ap
		h.Addr3 = &ap
	}
	return &dot11.Frame{Header: h, Kind: dot11.KindData, PayloadLen: 200}
}

// Scenario 1: the first Beacon for an unknown BSSID creates a new Station
// with watch defaulted to false.
func TestFirstBeaconCreatesStation(t *testing.T) {
	h, store, state := newTestHandler(t)
	bssid := macAt(0x10)

	h.handleBeacon(context.Background(), beaconFrame(bssid, "HomeNet", 6), true)

	st, ok := state.Station(bssid)
	if !ok {
		t.Fatal("expected station to be created")
	}
	if st.Watch {
		t.Fatal("expected new station to default to watch=false")
	}
	if st.SSID != "HomeNet" || st.Channel != 6 {
		t.Fatalf("unexpected station fields: %+v", st)
	}

	got, err := store.GetStationByMac(context.Background(), bssid)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.SSID != "HomeNet" {
		t.Fatalf("ssid = %q, want HomeNet", got.SSID)
	}
}

// Scenario 2: a sweep-time Beacon for an already-known station updates
// its metadata in place rather than inserting a duplicate row.
func TestSweepBeaconUpdatesMetadata(t *testing.T) {
	h, store, state := newTestHandler(t)
	bssid := macAt(0x11)

	st := &domain.Station{MAC: bssid, SSID: "Old", Channel: 1, Watch: true}
	if err := store.PersistStation(context.Background(), st); err != nil {
		t.Fatalf("seed persist: %v", err)
	}
	st.Watch = true
	state.PutStation(st)

	h.handleBeacon(context.Background(), beaconFrame(bssid, "New", 11), true)

	updated, _ := state.Station(bssid)
	if updated.SSID != "New" || updated.Channel != 11 {
		t.Fatalf("metadata not updated in mirror: %+v", updated)
	}
}

// Beacons seen while cycling watched channels (not sweeping) must not
// update a known station's metadata.
func TestNonSweepBeaconIgnoredForKnownStation(t *testing.T) {
	h, store, state := newTestHandler(t)
	bssid := macAt(0x12)

	st := &domain.Station{MAC: bssid, SSID: "Old", Channel: 1, Watch: true}
	if err := store.PersistStation(context.Background(), st); err != nil {
		t.Fatalf("seed persist: %v", err)
	}
	state.PutStation(st)

	h.handleBeacon(context.Background(), beaconFrame(bssid, "New", 11), false)

	unchanged, _ := state.Station(bssid)
	if unchanged.SSID != "Old" {
		t.Fatalf("expected metadata untouched outside a sweep, got %+v", unchanged)
	}
}

// A Beacon whose radiotap frequency isn't in the channel table must be
// dropped (§7 UnknownChannel), never fall back to some other channel
// source, and never create a Station.
func TestBeaconUnknownFrequencyDropped(t *testing.T) {
	h, _, state := newTestHandler(t)
	bssid := macAt(0x13)

	frame := beaconFrame(bssid, "Ghost", 6)
	badMHz := 9999
	frame.ChannelMHz = &badMHz

	h.handleBeacon(context.Background(), frame, true)

	if _, ok := state.Station(bssid); ok {
		t.Fatal("expected no station to be created for an unrecognized frequency")
	}
}

// Scenario 3: a data frame for a watched station accumulates bytes and
// records the device link.
func TestDataFrameAccumulatesAndLinks(t *testing.T) {
	h, store, state := newTestHandler(t)
	bssid := macAt(0x20)
	client := macAt(0x21)

	st := &domain.Station{MAC: bssid, SSID: "Net", Channel: 6, Watch: true}
	if err := store.PersistStation(context.Background(), st); err != nil {
		t.Fatalf("seed station: %v", err)
	}
	st.Watch = true
	state.PutStation(st)

	frame := dataFrame(bssid, client, true)
	h.logDataFrame(context.Background(), frame.Header, 200)
	h.logDataFrame(context.Background(), frame.Header, 300)

	dev, ok := state.Device(client)
	if !ok {
		t.Fatal("expected device to be discovered")
	}
	if !dev.Watch {
		t.Fatal("expected discovered device to default to watch=true")
	}

	minute := domain.TruncateToMinute(time.Now())
	total, err := store.AccumulatedBytes(context.Background(), dev.ID, st.ID, minute)
	if err != nil {
		t.Fatalf("accumulated bytes: %v", err)
	}
	if total != 500 {
		t.Fatalf("bytes_per_minute = %d, want 500", total)
	}
}

// Scenario 4: a data frame addressed to/from a broadcast MAC is dropped,
// never creating a device.
func TestDataFrameBroadcastDeviceIgnored(t *testing.T) {
	h, _, state := newTestHandler(t)
	bssid := macAt(0x30)

	st := &domain.Station{MAC: bssid, SSID: "Net", Channel: 1, Watch: true}
	state.PutStation(st)

	broadcast := domain.MacAddress{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	frame := dataFrame(bssid, broadcast, true)
	h.logDataFrame(context.Background(), frame.Header, 100)

	if _, ok := state.Device(broadcast); ok {
		t.Fatal("expected broadcast address to never become a device")
	}
}

// Scenario 5: a data frame for a station we know but aren't watching is
// dropped rather than silently accumulated.
func TestDataFrameUnwatchedStationIgnored(t *testing.T) {
	h, _, state := newTestHandler(t)
	bssid := macAt(0x40)
	client := macAt(0x41)

	st := &domain.Station{MAC: bssid, SSID: "Net", Channel: 1, Watch: false}
	state.PutStation(st)

	frame := dataFrame(bssid, client, true)
	h.logDataFrame(context.Background(), frame.Header, 100)

	if _, ok := state.Device(client); ok {
		t.Fatal("expected no device to be recorded for an unwatched station")
	}
}

// A frame's BSSID must never by itself resolve a Station: only src/dest
// are valid candidates (§4.G). Here BSSID (addr1) is a known Station, but
// neither the frame's actual src (addr2) nor dest (addr3) resolves to
// one, so the frame must be dropped rather than linking through BSSID.
func TestDataFrameBSSIDAloneDoesNotResolveStation(t *testing.T) {
	h, _, state := newTestHandler(t)
	knownAP := macAt(0x50)
	unrelatedSrc := macAt(0x51)
	unrelatedDest := macAt(0x52)

	st := &domain.Station{MAC: knownAP, SSID: "Net", Channel: 6, Watch: true}
	state.PutStation(st)

	header := dot11.Header{
		Addr1: knownAP, // bssid (to_ds=1, from_ds=0)
		Addr2: &unrelatedSrc,
		Addr3: &unrelatedDest,
	}
	header.Control.Flags.ToDS = true

	h.logDataFrame(context.Background(), header, 100)

	if _, ok := state.Device(unrelatedSrc); ok {
		t.Fatal("expected no device recorded when only BSSID matches a known station")
	}
	if _, ok := state.Device(unrelatedDest); ok {
		t.Fatal("expected no device recorded when only BSSID matches a known station")
	}
}
