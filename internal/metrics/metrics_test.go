package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", StatusClass(200))
	assert.Equal(t, "3xx", StatusClass(304))
	assert.Equal(t, "4xx", StatusClass(410))
	assert.Equal(t, "5xx", StatusClass(503))
}

func TestTransitionsCounter(t *testing.T) {
	before := testutil.ToFloat64(Transitions.WithLabelValues("approved"))
	Transitions.WithLabelValues("approved").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Transitions.WithLabelValues("approved")))
}
