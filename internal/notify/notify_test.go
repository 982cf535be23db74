package notify

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder(3)
	for i := 0; i < 5; i++ {
		r.Notify(Info, fmt.Sprintf("msg %d", i))
	}

	events := r.Events()
	require.Len(t, events, 3)
	assert.Equal(t, "msg 2", events[0].Message)
	assert.Equal(t, "msg 4", events[2].Message)

	events[0].Message = "changed"
	assert.Equal(t, "msg 2", r.Events()[0].Message)
}

func TestMulti(t *testing.T) {
	a, b := NewRecorder(0), NewRecorder(0)
	n := Multi(a, nil, b, Log{}, Discard)
	n.Notify(Warning, "telemetry unavailable")

	assert.Len(t, a.Events(), 1)
	assert.Equal(t, Warning, b.Events()[0].Kind)
}

func TestOrDiscard(t *testing.T) {
	assert.NotPanics(t, func() { OrDiscard(nil).Notify(Error, "x") })
}
