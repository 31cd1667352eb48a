package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.LobbyOpened()
		m.MatchStarted()
		m.Intent("roll", nil, time.Millisecond)
		m.StoreFailure("record_match")
	})
}

func TestCounters(t *testing.T) {
	m := New("party", prometheus.NewRegistry())

	m.LobbyOpened()
	m.LobbyOpened()
	m.LobbyClosed()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveLobbies))

	m.Intent("roll", nil, time.Millisecond)
	m.Intent("roll", errors.New("wrong phase"), time.Millisecond)
	m.Intent("roll", errors.New("wrong phase"), time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IntentsReceived.WithLabelValues("roll", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.IntentsReceived.WithLabelValues("roll", "rejected")))

	m.MatchStarted()
	m.MatchEnded()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveMatches))
	m.MatchRemoved()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveMatches))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MatchesFinished))
}
