package storage

import (
	"context"
	"testing"
	"time"

	"github.com/lcalzada-xor/wifitify/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPersistDataAccumulates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	minute := domain.TruncateToMinute(time.Now())
	d := domain.Data{Time: minute, DeviceID: 1, StationID: 1, BytesPerMinute: 100}
	require.NoError(t, s.PersistData(ctx, d))
	d2 := domain.Data{Time: minute, DeviceID: 1, StationID: 1, BytesPerMinute: 150}
	require.NoError(t, s.PersistData(ctx, d2))

	var row dataModel
	err := s.db.Where("device = ? AND station = ? AND time = ?", 1, 1, minute).First(&row).Error
	require.NoError(t, err)
	assert.Equal(t, int64(250), row.BytesPerMinute)
}

func TestPersistLinkIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.PersistLink(ctx, 7, 9))
	}

	var count int64
	err := s.db.Model(&deviceStationModel{}).Where("station_id = ? AND device_id = ?", 7, 9).Count(&count).Error
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestPersistStationDefaultsWatchFalse(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	mac, _ := domain.ParseMac([]byte{1, 2, 3, 4, 5, 6})
	st := &domain.Station{MAC: mac, SSID: "HomeNet", Channel: 6, Watch: true}
	require.NoError(t, s.PersistStation(ctx, st))
	assert.False(t, st.Watch, "expected watch to default to false on autodiscovery")
	assert.NotZero(t, st.ID)
}

func TestPersistDeviceDefaultsWatchTrue(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	mac, _ := domain.ParseMac([]byte{9, 9, 9, 9, 9, 9})
	d := &domain.Device{MAC: mac, Watch: false}
	require.NoError(t, s.PersistDevice(ctx, d))
	assert.True(t, d.Watch, "expected watch to default to true on autodiscovery")
}

func TestAccumulatedBytesReadsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	minute := domain.TruncateToMinute(time.Now())
	require.NoError(t, s.PersistData(ctx, domain.Data{Time: minute, DeviceID: 2, StationID: 3, BytesPerMinute: 42}))

	got, err := s.AccumulatedBytes(ctx, 2, 3, minute)
	require.NoError(t, err)
	assert.EqualValues(t, 42, got)
}
