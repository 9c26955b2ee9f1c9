package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jet_charter/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		ListenAddr: "127.0.0.1:0",
		DBPath:     filepath.Join(t.TempDir(), "charter.db"),
		Seed: config.SeedConfig{
			AirportsCSV: "../database/datasets/airports.csv",
			FleetCSV:    "../database/datasets/fleet.csv",
		},
		Search:  config.SearchConfig{PrimaryThreshold: 5, SecondaryCap: 10},
		Pricing: config.PricingConfig{DefaultCommissionRate: 10},
		Tracking: config.TrackingConfig{
			BatchSize:    10,
			BatchTimeout: 1,
			SyncInterval: 1,
			SnapRadiusNM: 5,
		},
		Log: config.LogConfig{Level: "info", Format: "text"},
	}
}

func startDaemon(t *testing.T) (*Daemon, string) {
	t.Helper()
	d, err := New(testConfig(t))
	require.NoError(t, err)
	require.NoError(t, d.Start())
	t.Cleanup(func() { d.Stop() })
	return d, "http://" + d.Addr()
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestNewSeedsEmptyDatabase(t *testing.T) {
	d, err := New(testConfig(t))
	require.NoError(t, err)
	defer d.Stop()

	ctx := context.Background()
	hkjk, err := d.database.Airports().Get(ctx, "HKJK")
	require.NoError(t, err)
	assert.Equal(t, "Nairobi", hkjk.City)

	aircraft, err := d.database.Aircraft().Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "5Y-NJA", aircraft.RegistrationNumber)
}

func TestNewFailsOnMissingSeedFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Seed.AirportsCSV = filepath.Join(t.TempDir(), "missing.csv")

	_, err := New(cfg)
	assert.ErrorContains(t, err, "failed to load airports")
}

func TestServesSearchAndBookings(t *testing.T) {
	_, base := startDaemon(t)

	resp, err := http.Get(base + "/health")
	require.NoError(t, err)
	assert.Equal(t, "ok", decode(t, resp)["status"])

	resp, err = http.PostForm(base+"/api/v1/search", url.Values{
		"departure_airport": {"HKJK"},
		"arrival_airport":   {"OMDB"},
		"passenger_count":   {"4"},
		"departure_date":    {time.Now().AddDate(0, 0, 7).Format("2006-01-02")},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	search := decode(t, resp)
	assert.GreaterOrEqual(t, search["total_results"], float64(3))

	departure := time.Now().AddDate(0, 0, 7).UTC().Truncate(time.Hour)
	payload := fmt.Sprintf(`{
		"aircraft_id": 1,
		"departure_airport": "HKJK",
		"arrival_airport": "OMDB",
		"departure_datetime": %q,
		"client_name": "Amina Otieno",
		"client_email": "amina@example.com",
		"client_phone": "+254700000000",
		"passengers": [{"name": "Amina Otieno"}, {"name": "Juma Otieno"}]
	}`, departure.Format(time.RFC3339))

	resp, err = http.Post(base+"/api/v1/bookings", "application/json", bytes.NewBufferString(payload))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode(t, resp)
	assert.Equal(t, "pending", created["status"])
	id := int64(created["id"].(float64))

	// The same aircraft cannot be booked twice for the same leg.
	resp, err = http.Post(base+"/api/v1/bookings", "application/json", bytes.NewBufferString(payload))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Post(fmt.Sprintf("%s/api/v1/bookings/%d/confirm", base, id), "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	confirmed := decode(t, resp)
	payout := confirmed["payout"].(map[string]any)
	assert.Equal(t, "PAYOUT-"+created["order_code"].(string), payout["transaction_reference"])

	resp, err = http.Get(fmt.Sprintf("%s/api/v1/bookings/%d", base, id))
	require.NoError(t, err)
	assert.Equal(t, "confirmed", decode(t, resp)["status"])
}

func TestTrackingMovesAircraft(t *testing.T) {
	d, base := startDaemon(t)

	// 5Y-NJB is parked at OMDB; report it on the ground at Jomo Kenyatta.
	resp, err := http.Post(base+"/api/v1/aircraft/2/tracking", "application/json",
		bytes.NewBufferString(`{"latitude":-1.3192,"longitude":36.9277,"altitude":0,"speed":0}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()

	assert.Eventually(t, func() bool {
		aircraft, err := d.database.Aircraft().Get(context.Background(), 2)
		return err == nil && aircraft.CurrentLocation == "HKJK"
	}, 10*time.Second, 100*time.Millisecond)
}
