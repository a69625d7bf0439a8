package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/winsx/libavg/anim"
	"github.com/winsx/libavg/logger"
	"github.com/winsx/libavg/metrics"
	"github.com/winsx/libavg/node"
	"github.com/winsx/libavg/player"
	"github.com/winsx/libavg/stream"
)

var testShow = stream.ShowOptions{
	FadeDuration:  100 * time.Millisecond,
	SweepDuration: 200 * time.Millisecond,
	MaxOpacity:    1,
	SweepDistance: 1,
}

type fixture struct {
	clock  clockwork.FakeClock
	player *player.Player
	node   *node.Node
	show   *stream.Controller
	server *Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	f := &fixture{clock: clockwork.NewFakeClock()}
	f.player = player.New(f.clock, anim.TickInterval, logger.Discard(), m)
	f.node = node.New("tree", map[string]float64{anim.OpacityAttr: 0, stream.OffsetAttr: 0})

	show, err := stream.NewController(f.player, f.node, testShow, logger.Discard(), m)
	require.NoError(t, err)
	f.show = show
	f.server = NewServer(f.node, show, reg, logger.Discard())
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (f *fixture) advance(d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += anim.TickInterval {
		f.clock.Advance(anim.TickInterval)
		f.player.Poll()
	}
}

func (f *fixture) opacity() float64 {
	v, _ := f.node.Attr(anim.OpacityAttr)
	return v
}

func TestHandleLiveness(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/health/live", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandleNode(t *testing.T) {
	f := newFixture(t)
	f.node.SetAttr(anim.OpacityAttr, 0.5)
	rec := f.do(http.MethodGet, "/api/node", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp nodeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "tree", resp.ID)
	assert.Equal(t, map[string]float64{"opacity": 0.5, "offset": 0}, resp.Attributes)
}

func TestHandleFade(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/fade", `{"direction":"in","durationMs":100,"maxOpacity":0.7}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 2, f.player.Pending())

	f.advance(100 * time.Millisecond)
	assert.Equal(t, 0.7, f.opacity())

	rec = f.do(http.MethodPost, "/api/fade", `{"direction":"out","durationMs":100}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	f.advance(100 * time.Millisecond)
	assert.Equal(t, 0.0, f.opacity())
}

func TestHandleFade_WhileShowRuns(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.show.Start())
	f.advance(20 * time.Millisecond)

	rec := f.do(http.MethodPost, "/api/fade", `{"direction":"out","durationMs":30}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	f.advance(30 * time.Millisecond)
	assert.Equal(t, 0.0, f.opacity())

	f.advance(time.Second)
	assert.Equal(t, 0.0, f.opacity(), "the fade outlasts the show's next tick")
	assert.Equal(t, stream.PhaseManual, f.show.Phase())
}

func TestHandleFade_Repeated(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 3; i++ {
		body := fmt.Sprintf(`{"direction":"in","durationMs":100,"maxOpacity":0.%d}`, i+4)
		rec := f.do(http.MethodPost, "/api/fade", body)
		require.Equal(t, http.StatusAccepted, rec.Code)
		f.advance(20 * time.Millisecond)
	}
	assert.Equal(t, 2, f.player.Pending(), "earlier fades are cancelled")

	f.advance(100 * time.Millisecond)
	assert.Equal(t, 0.6, f.opacity())
}

func TestHandleFade_Errors(t *testing.T) {
	cases := []struct {
		name string
		body string
		code int
	}{
		{"bad_direction", `{"direction":"up","durationMs":100}`, http.StatusBadRequest},
		{"zero_duration", `{"direction":"out","durationMs":0}`, http.StatusBadRequest},
		{"malformed", `{"direction":`, http.StatusBadRequest},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.do(http.MethodPost, "/api/fade", c.body)
			assert.Equal(t, c.code, rec.Code)
			assert.Equal(t, 0, f.player.Pending())
		})
	}
}

type stubFader struct {
	err error
}

func (s stubFader) Fade(stream.FadeDirection, time.Duration, float64) error {
	return s.err
}

func TestHandleFade_InvalidTarget(t *testing.T) {
	n := node.New("bare", nil)
	err := fmt.Errorf("%w: no attribute %q", anim.ErrInvalidTarget, anim.OpacityAttr)
	s := NewServer(n, stubFader{err: err}, prometheus.NewRegistry(), logger.Discard())

	req := httptest.NewRequest(http.MethodPost, "/api/fade", strings.NewReader(`{"direction":"in","durationMs":100}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodPost, "/api/fade", `{"direction":"in","durationMs":100,"maxOpacity":1}`)

	rec := f.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "player_timers_active 2")
	assert.Contains(t, rec.Body.String(), `animations_total{event="started"} 1`)
}
