package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WritePointValue writes a single point measurement to InfluxDB.
//
// This is the primary method for recording point telemetry: every
// successful scrape or write pushes the point's numeric value here.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - pointName: The point name from the register list (e.g., "kitchen_light")
//   - domain: The Home Assistant domain (e.g., "light", "climate")
//   - value: The numeric value in point units
//
// Example:
//
//	client.WritePointValue("kitchen_light", "light", 1)
//	client.WritePointValue("hvac_setpoint", "climate", 21.5)
func (c *Client) WritePointValue(pointName string, domain string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"point_values",
		map[string]string{
			"point":  pointName,
			"domain": domain,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteScrapeStats records the outcome of a full scrape pass.
//
// Used for dashboarding scrape health: how many points were read,
// how many registers failed, and how long the pass took.
//
// Parameters:
//   - points: Number of points successfully read
//   - failures: Number of registers that errored during the pass
//   - duration: Wall-clock time of the full pass
func (c *Client) WriteScrapeStats(points int, failures int, duration time.Duration) {
	if !c.IsConnected() {
		return
	}

	pt := write.NewPoint(
		"scrape_stats",
		nil,
		map[string]interface{}{
			"points":      points,
			"failures":    failures,
			"duration_ms": duration.Milliseconds(),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(pt)
}
