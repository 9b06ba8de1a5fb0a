package domain

// Station is an access point discovered on the air.
type Station struct {
	ID          int64
	MAC         MacAddress
	SSID        string
	Channel     int
	PowerLevel  *int
	Nickname    string
	Description string
	Watch       bool
}

// UpdateMetadata applies a sweep-time Beacon's fields in place.
func (s *Station) UpdateMetadata(ssid string, channel int, powerLevel *int) {
	s.SSID = ssid
	s.Channel = channel
	s.PowerLevel = powerLevel
}
