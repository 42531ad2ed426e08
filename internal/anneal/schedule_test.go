package anneal

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeometricSchedule(t *testing.T) {
	s := GeometricSchedule{Initial: 2, Rate: 0.5, Interval: 3}
	assert.Equal(t, 2.0, s.Temperature(0))
	assert.Equal(t, 2.0, s.Temperature(2))
	assert.Equal(t, 1.0, s.Temperature(3))
	assert.Equal(t, 0.25, s.Temperature(9))
	assert.Equal(t, "geometric", s.Name())

	every := GeometricSchedule{Initial: 1, Rate: 0.999}
	assert.InDelta(t, math.Pow(0.999, 1000), every.Temperature(1000), 1e-15)
}

func TestLinearSchedule(t *testing.T) {
	s := LinearSchedule{Initial: 1, Final: 0.1, Iterations: 10}
	assert.Equal(t, 1.0, s.Temperature(0))
	assert.InDelta(t, 0.55, s.Temperature(5), 1e-12)
	assert.Equal(t, 0.1, s.Temperature(10))
	assert.Equal(t, 0.1, s.Temperature(50))
	for i := 1; i <= 10; i++ {
		assert.Less(t, s.Temperature(i), s.Temperature(i-1))
	}
}

func TestNewSchedule(t *testing.T) {
	s, err := NewSchedule("geometric", ScheduleParams{Initial: 1, Rate: 0.9, Interval: 1})
	require.NoError(t, err)
	assert.Equal(t, "geometric", s.Name())

	s, err = NewSchedule("linear", ScheduleParams{Initial: 1, Final: 0, MaxIterations: 100})
	require.NoError(t, err)
	assert.Equal(t, "linear", s.Name())

	_, err = NewSchedule("geometric", ScheduleParams{Initial: 1, Rate: 1})
	assert.Error(t, err)
	_, err = NewSchedule("linear", ScheduleParams{Initial: 1})
	assert.Error(t, err)
	_, err = NewSchedule("geometric", ScheduleParams{Initial: 0, Rate: 0.5})
	assert.Error(t, err)

	_, err = NewSchedule("adaptive", ScheduleParams{Initial: 1})
	var unknown *UnknownScheduleError
	assert.True(t, errors.As(err, &unknown))
}
