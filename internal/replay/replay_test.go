package replay

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexloop-data/race.coach/internal/collector"
	"github.com/apexloop-data/race.coach/internal/telem"
	"github.com/apexloop-data/race.coach/internal/timeutil"
)

const recording = `SessionTime,Speed,Brake,Throttle,SteeringWheelAngle,LapDistPct,LatAccel,LongAccel,RPM,Clutch,Gear,Lap,OnPitRoad,EngineWarnings,SessionFlags
100.00,48.5,0.0,0.9,0.01,0.10,0.5,1.2,6100,0.0,4,3,false,0x0,0x4
100.05,48.9,0.0,0.9,0.01,0.11,0.5,1.2,6150,0.0,4,3,false,0x0,0x4
100.10,47.2,0.7,0.0,0.02,0.12,0.6,-8.0,6000,0.0,4,3,true,0x10,0x4
`

func TestSourceSchemaFromHeader(t *testing.T) {
	t.Parallel()

	src, err := NewSource(strings.NewReader(recording))
	require.NoError(t, err)
	require.Equal(t, 3, src.Len())

	schema := src.Schema()
	v, ok := schema.Lookup("SessionTime")
	require.True(t, ok)
	assert.Equal(t, telem.VarDouble, v.Type)

	v, ok = schema.Lookup("Lap")
	require.True(t, ok)
	assert.Equal(t, telem.VarInt, v.Type)

	v, ok = schema.Lookup("OnPitRoad")
	require.True(t, ok)
	assert.Equal(t, telem.VarBool, v.Type)

	v, ok = schema.Lookup("SessionFlags")
	require.True(t, ok)
	assert.Equal(t, telem.VarBitField, v.Type)

	v, ok = schema.Lookup("Speed")
	require.True(t, ok)
	assert.Equal(t, telem.VarFloat, v.Type)
}

// TestSourceRoundTrip replays through the real frame spec: the recording is
// encoded into tick buffers and decoded by the same field table a live
// connection would use.
func TestSourceRoundTrip(t *testing.T) {
	t.Parallel()

	src, err := NewSource(strings.NewReader(recording))
	require.NoError(t, err)

	table, err := collector.NewFrameSpec(timeutil.RealClock{}).Validate(src.Schema())
	require.NoError(t, err)

	buf, err := src.Next()
	require.NoError(t, err)
	frame, err := table.Decode(buf)
	require.NoError(t, err)

	assert.Equal(t, 100.00, frame.SessionTime)
	assert.InDelta(t, 48.5, frame.Speed, 1e-6)
	assert.Equal(t, int32(3), frame.Lap)
	assert.Equal(t, int32(4), frame.Gear)
	assert.False(t, frame.OnPitRoad)
	assert.False(t, frame.PitLimiterOn)
	assert.True(t, frame.Flags.Has(collector.FlagGreen))

	_, err = src.Next()
	require.NoError(t, err)

	buf, err = src.Next()
	require.NoError(t, err)
	frame, err = table.Decode(buf)
	require.NoError(t, err)
	assert.True(t, frame.OnPitRoad)
	assert.True(t, frame.PitLimiterOn)
	assert.InDelta(t, 0.7, frame.Brake, 1e-6)

	_, err = src.Next()
	assert.Equal(t, io.EOF, err)

	src.Reset()
	_, err = src.Next()
	assert.NoError(t, err)
}

func TestSourceRejectsMalformed(t *testing.T) {
	t.Parallel()

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		_, err := NewSource(strings.NewReader(""))
		assert.Error(t, err)
	})

	t.Run("bad integer cell", func(t *testing.T) {
		t.Parallel()
		src, err := NewSource(strings.NewReader("Lap\nnot-a-number\n"))
		require.NoError(t, err)
		_, err = src.Next()
		assert.ErrorContains(t, err, `column "Lap"`)
	})

	t.Run("bad boolean cell", func(t *testing.T) {
		t.Parallel()
		src, err := NewSource(strings.NewReader("OnPitRoad\nmaybe\n"))
		require.NoError(t, err)
		_, err = src.Next()
		assert.ErrorContains(t, err, "bad boolean")
	})
}

func TestSourceStream(t *testing.T) {
	t.Parallel()

	src, err := NewSource(strings.NewReader(recording))
	require.NoError(t, err)

	var ticks int
	err = src.Stream(context.Background(), 0, timeutil.RealClock{}, func(buf []byte) error {
		ticks++
		assert.Len(t, buf, src.Schema().BufferSize())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, ticks)
}

func TestSourceStreamCancelled(t *testing.T) {
	t.Parallel()

	src, err := NewSource(strings.NewReader(recording))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = src.Stream(ctx, 0, timeutil.RealClock{}, func([]byte) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
