package nalssi

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thanos-io/objstore"

	"github.com/mrchypark/nalssi/pkg/archive"
	"github.com/mrchypark/nalssi/pkg/store/memstore"
	"github.com/mrchypark/nalssi/pkg/transport"
)

const sampleBody = `{"name":"Seoul","main":{"temp":21.0,"feels_like":20.5,"humidity":40},"wind":{"speed":2.5,"deg":180},"weather":[{"description":"clear sky"}]}`

// memBody serves a fixed body through the bounded read contract.
type memBody struct {
	data []byte
	pos  int
}

func (b *memBody) Read(max int) ([]byte, error) {
	if b.pos >= len(b.data) {
		return nil, nil
	}
	end := b.pos + max
	if end > len(b.data) {
		end = len(b.data)
	}
	chunk := b.data[b.pos:end]
	b.pos = end
	return chunk, nil
}

func (b *memBody) Close() error { return nil }

type fakeHandle struct {
	outcome transport.Outcome
	closed  bool
}

func (h *fakeHandle) Wait(ctx context.Context) transport.Outcome { return h.outcome }
func (h *fakeHandle) Close()                                     { h.closed = true }

// fakeCapability replays a scripted outcome and records every submission.
type fakeCapability struct {
	mu       sync.Mutex
	submits  int
	lastSpec *transport.RequestSpec
	outcome  func() transport.Outcome
}

func okOutcome(body string) func() transport.Outcome {
	return func() transport.Outcome {
		return transport.Ready(&transport.Response{
			Status: 200,
			Body:   &memBody{data: []byte(body)},
		})
	}
}

func (f *fakeCapability) Submit(ctx context.Context, spec *transport.RequestSpec) (transport.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	f.lastSpec = spec
	return &fakeHandle{outcome: f.outcome()}, nil
}

func (f *fakeCapability) submitted() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submits
}

func (f *fakeCapability) spec() *transport.RequestSpec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSpec
}

func newTestClient(t *testing.T, cap transport.Capability, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithAPIKey("test-key"), WithTransport(cap)}, opts...)
	c, err := New(nil, opts...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestCheckWeather_Success(t *testing.T) {
	cap := &fakeCapability{outcome: okOutcome(sampleBody)}
	c := newTestClient(t, cap)

	out := c.CheckWeather(context.Background(), "Seoul", "metric")

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.NotContains(t, m, "error")
	assert.Equal(t, "Seoul", m["location"])
	assert.Equal(t, 21.0, m["temperature"])
	assert.Equal(t, 20.5, m["feels_like_temperature"])
	assert.Equal(t, "metric", m["unit"])
	assert.Equal(t, []interface{}{"clear sky"}, m["weather_conditions"])
}

func TestCheckWeather_MissingCredentialShortCircuits(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	cap := &fakeCapability{outcome: okOutcome(sampleBody)}
	c, err := New(nil, WithTransport(cap))
	require.NoError(t, err)
	defer c.Close()

	out := c.CheckWeather(context.Background(), "Seoul", "metric")

	assert.JSONEq(t, `{"error":"OPENWEATHER_API_KEY environment variable not set"}`, out)
	assert.Equal(t, 0, cap.submitted(), "no network step may happen without a credential")
}

func TestCheckWeather_CredentialFromEnvironment(t *testing.T) {
	t.Setenv(EnvAPIKey, "env-key")
	cap := &fakeCapability{outcome: okOutcome(sampleBody)}
	c, err := New(nil, WithTransport(cap))
	require.NoError(t, err)
	defer c.Close()

	out := c.CheckWeather(context.Background(), "Seoul", "metric")
	assert.NotContains(t, out, "error")
	assert.Contains(t, cap.spec().PathWithQuery, "appid=env-key")
}

func TestCheckWeather_UnitDefaulting(t *testing.T) {
	testCases := []struct {
		requested string
		want      string
	}{
		{"metric", "metric"},
		{"imperial", "imperial"},
		{"IMPERIAL", "imperial"},
		{"kelvin", "metric"},
		{"", "metric"},
	}

	for _, tc := range testCases {
		t.Run("unit "+tc.requested, func(t *testing.T) {
			cap := &fakeCapability{outcome: okOutcome(sampleBody)}
			c := newTestClient(t, cap)

			out := c.CheckWeather(context.Background(), "Seoul", tc.requested)

			var m map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(out), &m))
			assert.Equal(t, tc.want, m["unit"])
			assert.Contains(t, cap.spec().PathWithQuery, "units="+tc.want)
		})
	}
}

func TestCheckWeather_RequestAssembly(t *testing.T) {
	cap := &fakeCapability{outcome: okOutcome(sampleBody)}
	c := newTestClient(t, cap)

	c.CheckWeather(context.Background(), "New York", "metric")

	spec := cap.spec()
	assert.Equal(t, transport.MethodGet, spec.Method)
	assert.Equal(t, transport.SchemeHTTPS, spec.Scheme)
	assert.Equal(t, DefaultHost, spec.Authority)
	assert.Equal(t, "/data/2.5/weather?q=New+York&appid=test-key&units=metric", spec.PathWithQuery)
	require.Len(t, spec.Headers, 1)
	assert.Equal(t, "User-Agent", spec.Headers[0].Name)
}

func TestCheckWeather_BadStatusErrorShape(t *testing.T) {
	cap := &fakeCapability{outcome: func() transport.Outcome {
		return transport.Ready(&transport.Response{Status: 404, Body: &memBody{}})
	}}
	c := newTestClient(t, cap)

	out := c.CheckWeather(context.Background(), "Nowhere", "metric")

	assert.JSONEq(t, `{"error":"Failed to fetch weather: status: unexpected HTTP status 404"}`, out)
}

func TestCheckWeather_TransportFailureErrorShape(t *testing.T) {
	cap := &fakeCapability{outcome: func() transport.Outcome {
		return transport.TransportFailure("connection refused")
	}}
	c := newTestClient(t, cap)

	out := c.CheckWeather(context.Background(), "Seoul", "metric")

	var m map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, "Failed to fetch weather: transport: request failed: connection refused", m["error"])
}

func TestCheckWeather_IdempotentShape(t *testing.T) {
	cap := &fakeCapability{outcome: okOutcome(sampleBody)}
	c := newTestClient(t, cap)

	first := c.CheckWeather(context.Background(), "Seoul", "metric")
	second := c.CheckWeather(context.Background(), "Seoul", "metric")

	assert.JSONEq(t, first, second)
	assert.Equal(t, 2, cap.submitted(), "without a cache every call fetches fresh")
}

func TestFetch_TypedResult(t *testing.T) {
	cap := &fakeCapability{outcome: okOutcome(sampleBody)}
	c := newTestClient(t, cap)

	resp, err := c.Fetch(context.Background(), WeatherParams{Location: "Seoul", Unit: "IMPERIAL"})
	require.NoError(t, err)
	assert.Equal(t, "imperial", resp.Unit)
	require.NotNil(t, resp.WindSpeed)
	assert.Equal(t, 2.5, *resp.WindSpeed)
}

func TestFetch_MissingCredential(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	cap := &fakeCapability{outcome: okOutcome(sampleBody)}
	c, err := New(nil, WithTransport(cap))
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Fetch(context.Background(), WeatherParams{Location: "Seoul", Unit: UnitMetric})
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindConfig, fe.Kind)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestCheckWeatherMany_ResultsAligned(t *testing.T) {
	cap := &fakeCapability{outcome: okOutcome(sampleBody)}
	c := newTestClient(t, cap)

	results := c.CheckWeatherMany(context.Background(), []WeatherParams{
		{Location: "Seoul", Unit: UnitMetric},
		{Location: "Busan", Unit: UnitImperial},
	})

	require.Len(t, results, 2)
	for _, r := range results {
		assert.NotContains(t, r, `"error"`)
	}
	assert.Equal(t, 2, cap.submitted())
}

func TestClient_CacheServesFreshEntries(t *testing.T) {
	cap := &fakeCapability{outcome: okOutcome(sampleBody)}
	c := newTestClient(t, cap, WithCache(memstore.New(0), time.Hour))

	first := c.CheckWeather(context.Background(), "Seoul", "metric")
	second := c.CheckWeather(context.Background(), "Seoul", "metric")

	assert.JSONEq(t, first, second)
	assert.Equal(t, 1, cap.submitted(), "a fresh cache hit must not reach the transport")
}

func TestClient_CacheIsPerLookup(t *testing.T) {
	cap := &fakeCapability{outcome: okOutcome(sampleBody)}
	c := newTestClient(t, cap, WithCache(memstore.New(0), time.Hour))

	c.CheckWeather(context.Background(), "Seoul", "metric")
	c.CheckWeather(context.Background(), "Seoul", "imperial")

	assert.Equal(t, 2, cap.submitted(), "different units are different cache keys")
}

func TestClient_StaleEntryServedWhileRefreshing(t *testing.T) {
	cap := &fakeCapability{outcome: okOutcome(sampleBody)}
	c := newTestClient(t, cap, WithCache(memstore.New(0), time.Nanosecond))

	c.CheckWeather(context.Background(), "Seoul", "metric")
	time.Sleep(time.Millisecond) // let the entry go stale

	out := c.CheckWeather(context.Background(), "Seoul", "metric")
	assert.NotContains(t, out, `"error"`)

	require.Eventually(t, func() bool {
		return cap.submitted() == 2
	}, time.Second, 10*time.Millisecond, "a stale hit must schedule a background refresh")
}

func TestClient_ArchiveRecordsRawPayload(t *testing.T) {
	bucket := objstore.NewInMemBucket()
	cap := &fakeCapability{outcome: okOutcome(sampleBody)}
	c := newTestClient(t, cap, WithArchive(archive.New(bucket, nil)))

	out := c.CheckWeather(context.Background(), "Seoul", "metric")
	assert.NotContains(t, out, `"error"`)

	require.Eventually(t, func() bool {
		var names []string
		err := bucket.Iter(context.Background(), "", func(name string) error {
			if strings.HasPrefix(name, "raw/") {
				names = append(names, name)
			}
			return nil
		}, objstore.WithRecursiveIter())
		return err == nil && len(names) == 2
	}, time.Second, 10*time.Millisecond, "the payload and its sidecar should be archived")
}
