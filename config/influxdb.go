package config

import (
	client "github.com/influxdata/influxdb1-client/v2"
)

// InfluxDB stays nil when INFLUXDB_URL is unset; the audit sink is optional.
var InfluxDB client.Client

func NewInfluxDB() error {
	addr := GetEnv("INFLUXDB_URL", "")
	if addr == "" {
		return nil
	}

	c, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:     addr,
		Username: GetEnv("INFLUXDB_USERNAME", ""),
		Password: GetEnv("INFLUXDB_PASSWORD", ""),
	})
	if err != nil {
		return err
	}

	InfluxDB = c
	return nil
}

func InfluxDatabase() string {
	return GetEnv("INFLUXDB_DATABASE", "ledger")
}
