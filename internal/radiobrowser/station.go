// Package radiobrowser is a small client for the radio-browser.info station
// directory.
package radiobrowser

import (
	"bytes"
	"encoding/json"
)

// Station is a station record as returned by the directory. Raw holds the
// record exactly as received, including fields not mapped here; it is what
// gets persisted as job metadata.
type Station struct {
	StationUUID string `json:"stationuuid,omitempty"`
	ChangeUUID  string `json:"changeuuid,omitempty"`
	Name        string `json:"name,omitempty"`
	URL         string `json:"url"`
	URLResolved string `json:"url_resolved,omitempty"`
	Homepage    string `json:"homepage,omitempty"`
	Favicon     string `json:"favicon,omitempty"`
	Tags        string `json:"tags,omitempty"`
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"countrycode,omitempty"`
	Language    string `json:"language,omitempty"`
	Codec       string `json:"codec,omitempty"`
	Bitrate     int    `json:"bitrate"`
	HLS         int    `json:"hls"`
	Votes       int    `json:"votes"`
	ClickCount  int    `json:"clickcount"`
	LastCheckOK int    `json:"lastcheckok"`

	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the mapped fields and keeps a copy of the record.
func (s *Station) UnmarshalJSON(data []byte) error {
	type plain Station
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = Station(p)
	s.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// StationFromURL is the record of a stream configured by URL: it carries
// nothing but the URL.
func StationFromURL(streamURL string) Station {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// a map of strings always encodes
	_ = enc.Encode(map[string]string{"url": streamURL})
	return Station{URL: streamURL, Raw: bytes.TrimSpace(buf.Bytes())}
}
