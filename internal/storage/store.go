// Package storage is the Catalog Store (§4.B): a thin, transactional
// façade over a relational store via GORM, with multi-driver dial and
// idempotent/accumulator upsert semantics.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lcalzada-xor/wifitify/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// Store wraps a *gorm.DB with the operations §4.B names.
type Store struct {
	db       *gorm.DB
	isSQLite bool
}

// Open dials databaseURL (postgres by default, per §6; also mysql,
// clickhouse, and sqlite/file/bare-path), migrates the schema, attaches
// OpenTelemetry tracing, and sizes the connection pool.
func Open(databaseURL string) (*Store, error) {
	dialector, err := dial(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: open: %w", err)
	}

	if err := db.AutoMigrate(&stationModel{}, &deviceModel{}, &deviceStationModel{}, &dataModel{}); err != nil {
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}

	if err := db.Use(tracing.NewPlugin()); err != nil {
		return nil, fmt.Errorf("storage: otel plugin: %w", err)
	}

	isSQLite := strings.HasPrefix(databaseURL, "sqlite://") || strings.HasPrefix(databaseURL, "file:") ||
		(!strings.Contains(databaseURL, "://"))
	if isSQLite {
		db.Exec("PRAGMA journal_mode=WAL;")
		db.Exec("PRAGMA busy_timeout=5000;")
		db.Exec("PRAGMA synchronous=NORMAL;")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("storage: underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(80)

	return &Store{db: db, isSQLite: isSQLite}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping reports whether the store is reachable, for the admin server's
// /healthz.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// KnownStations is a snapshot reader used only at startup to rehydrate
// AppState (§4.B).
func (s *Store) KnownStations(ctx context.Context) (map[domain.MacAddress]*domain.Station, error) {
	var rows []stationModel
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[domain.MacAddress]*domain.Station, len(rows))
	for _, r := range rows {
		st, err := stationFromModel(r)
		if err != nil {
			continue
		}
		out[st.MAC] = st
	}
	return out, nil
}

// KnownDevices is a snapshot reader used only at startup.
func (s *Store) KnownDevices(ctx context.Context) (map[domain.MacAddress]*domain.Device, error) {
	var rows []deviceModel
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[domain.MacAddress]*domain.Device, len(rows))
	for _, r := range rows {
		d, err := deviceFromModel(r)
		if err != nil {
			continue
		}
		out[d.MAC] = d
	}
	return out, nil
}

// StationDeviceMap is a snapshot reader used only at startup.
func (s *Store) StationDeviceMap(ctx context.Context) (map[int64]map[int64]struct{}, error) {
	var rows []deviceStationModel
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[int64]map[int64]struct{})
	for _, r := range rows {
		set, ok := out[r.StationID]
		if !ok {
			set = make(map[int64]struct{})
			out[r.StationID] = set
		}
		set[r.DeviceID] = struct{}{}
	}
	return out, nil
}

// GetStationByMac is a single-row lookup.
func (s *Store) GetStationByMac(ctx context.Context, mac domain.MacAddress) (*domain.Station, error) {
	var row stationModel
	if err := s.db.WithContext(ctx).Where("mac_address = ?", mac.String()).First(&row).Error; err != nil {
		return nil, err
	}
	return stationFromModel(row)
}

// GetDeviceByMac is a single-row lookup.
func (s *Store) GetDeviceByMac(ctx context.Context, mac domain.MacAddress) (*domain.Device, error) {
	var row deviceModel
	if err := s.db.WithContext(ctx).Where("mac_address = ?", mac.String()).First(&row).Error; err != nil {
		return nil, err
	}
	return deviceFromModel(row)
}

// PersistStation inserts a new station. watch defaults to false (§4.B).
func (s *Store) PersistStation(ctx context.Context, st *domain.Station) error {
	st.Watch = false
	row := stationModel{
		MacAddress:  st.MAC.String(),
		SSID:        st.SSID,
		Channel:     st.Channel,
		PowerLevel:  st.PowerLevel,
		Nickname:    st.Nickname,
		Description: st.Description,
		Watch:       st.Watch,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	st.ID = row.ID
	return nil
}

// UpdateStationMetadata is the targeted update a sweep-time Beacon applies.
func (s *Store) UpdateStationMetadata(ctx context.Context, id int64, ssid string, chNum int, powerLevel *int) error {
	return s.db.WithContext(ctx).Model(&stationModel{}).Where("id = ?", id).Updates(map[string]any{
		"ssid":        ssid,
		"channel":     chNum,
		"power_level": powerLevel,
	}).Error
}

// PersistDevice inserts a new device. watch defaults to true (§4.B).
func (s *Store) PersistDevice(ctx context.Context, d *domain.Device) error {
	d.Watch = true
	row := deviceModel{
		MacAddress:  d.MAC.String(),
		Nickname:    d.Nickname,
		Description: d.Description,
		Watch:       d.Watch,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	d.ID = row.ID
	return nil
}

// PersistLink inserts the device↔station link with conflict→ignore,
// making repeated inserts of the same pair idempotent (§4.B).
func (s *Store) PersistLink(ctx context.Context, stationID, deviceID int64) error {
	row := deviceStationModel{StationID: stationID, DeviceID: deviceID}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

// PersistData is insert-or-add: on conflict on (time, device, station),
// bytes_per_minute is incremented by the new value rather than replaced
// (accumulator semantics), grounded on original_source/shared/db/models/
// data.rs:persist's `ON CONFLICT ... DO UPDATE SET bytes_per_minute =
// data.bytes_per_minute + $n`.
func (s *Store) PersistData(ctx context.Context, d domain.Data) error {
	row := dataModel{
		Time:           d.Time,
		Device:         d.DeviceID,
		Station:        d.StationID,
		BytesPerMinute: d.BytesPerMinute,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "time"}, {Name: "device"}, {Name: "station"}},
		DoUpdates: clause.Assignments(map[string]any{
			"bytes_per_minute": gorm.Expr("data.bytes_per_minute + ?", d.BytesPerMinute),
		}),
	}).Create(&row).Error
}

// AccumulatedBytes reads back a single Data bucket's accumulated total,
// for callers (tests) that need to verify the accumulator rather than
// just write to it.
func (s *Store) AccumulatedBytes(ctx context.Context, deviceID, stationID int64, minute time.Time) (int64, error) {
	var row dataModel
	err := s.db.WithContext(ctx).Where("device = ? AND station = ? AND time = ?", deviceID, stationID, minute).First(&row).Error
	if err != nil {
		return 0, err
	}
	return row.BytesPerMinute, nil
}

func stationFromModel(r stationModel) (*domain.Station, error) {
	mac, err := domain.ParseMacString(r.MacAddress)
	if err != nil {
		return nil, err
	}
	return &domain.Station{
		ID:          r.ID,
		MAC:         mac,
		SSID:        r.SSID,
		Channel:     r.Channel,
		PowerLevel:  r.PowerLevel,
		Nickname:    r.Nickname,
		Description: r.Description,
		Watch:       r.Watch,
	}, nil
}

func deviceFromModel(r deviceModel) (*domain.Device, error) {
	mac, err := domain.ParseMacString(r.MacAddress)
	if err != nil {
		return nil, err
	}
	return &domain.Device{
		ID:          r.ID,
		MAC:         mac,
		Nickname:    r.Nickname,
		Description: r.Description,
		Watch:       r.Watch,
	}, nil
}
