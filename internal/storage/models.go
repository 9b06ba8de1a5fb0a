package storage

import "time"

// stationModel is the GORM table for access points. Generalized from the
// teacher's internal/adapters/storage/sqlite.go:DeviceModel shape, but
// narrowed to the catalog's actual domain fields (§3).
type stationModel struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	MacAddress  string `gorm:"uniqueIndex;column:mac_address"`
	SSID        string
	Channel     int
	PowerLevel  *int
	Nickname    string
	Description string
	Watch       bool
}

func (stationModel) TableName() string { return "stations" }

// deviceModel is the GORM table for client devices.
type deviceModel struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	MacAddress  string `gorm:"uniqueIndex;column:mac_address"`
	Nickname    string
	Description string
	Watch       bool
}

func (deviceModel) TableName() string { return "devices" }

// deviceStationModel is the idempotent device↔station link.
type deviceStationModel struct {
	StationID int64 `gorm:"primaryKey"`
	DeviceID  int64 `gorm:"primaryKey"`
}

func (deviceStationModel) TableName() string { return "devices_stations" }

// dataModel is the per-minute accumulation bucket.
type dataModel struct {
	Time           time.Time `gorm:"primaryKey"`
	Device         int64     `gorm:"primaryKey"`
	Station        int64     `gorm:"primaryKey"`
	BytesPerMinute int64
}

func (dataModel) TableName() string { return "data" }
