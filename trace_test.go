package icurve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarTrace(t *testing.T) {
	c := straight(0, 0, 4)
	xy, err := ScalarTrace([]*Curve{c}, AttrTime|AttrVelocity, TraceTime, TraceSpeed)
	require.NoError(t, err)
	assert.Equal(t, []XY{{0, .5}, {2, .5}, {4, .5}, {6, .5}}, xy)

	xy, err = ScalarTrace([]*Curve{c}, 0, TraceStep, TraceStep)
	require.NoError(t, err)
	assert.Equal(t, XY{3, 3}, xy[3])
}

func TestScalarTraceErrors(t *testing.T) {
	c := straight(0, 0, 4)
	_, err := ScalarTrace([]*Curve{c, c}, AttrAll, TraceTime, TraceSpeed)
	assert.ErrorIs(t, err, ErrSingleSeed)
	_, err = ScalarTrace(nil, AttrAll, TraceTime, TraceSpeed)
	assert.ErrorIs(t, err, ErrSingleSeed)
	_, err = ScalarTrace([]*Curve{c}, AttrTime, TraceTime, TraceVorticity)
	assert.ErrorIs(t, err, ErrAttributeNotRecorded)
	_, err = ScalarTrace([]*Curve{c}, AttrTime, TraceVariable, TraceTime)
	assert.ErrorIs(t, err, ErrAttributeNotRecorded)
}
