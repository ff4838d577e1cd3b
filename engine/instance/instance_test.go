package instance

import (
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxen-go/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handles(ts ...transform.Transform) []*transform.Handle {
	out := make([]*transform.Handle, len(ts))
	for i, t := range ts {
		out[i] = transform.NewHandle(t)
	}
	return out
}

func TestLayout_Sizes(t *testing.T) {
	assert.Equal(t, 16, LayoutModelMatrix.Components())
	assert.Equal(t, uint64(64), LayoutModelMatrix.Stride())
	assert.Equal(t, 6, LayoutPositionScale.Components())
	assert.Equal(t, uint64(24), LayoutPositionScale.Stride())
	assert.Equal(t, "position_scale", LayoutPositionScale.String())
}

func TestBuild_Empty(t *testing.T) {
	buf := Build(nil, LayoutModelMatrix)

	assert.Equal(t, 0, buf.Count)
	assert.Empty(t, buf.Data)
	assert.Nil(t, buf.Bytes())
}

func TestBuild_SkipsInvisible(t *testing.T) {
	hs := handles(
		transform.New(transform.WithPosition(1, 0, 0)),
		transform.New(transform.WithPosition(2, 0, 0), transform.WithVisible(false)),
		transform.New(transform.WithPosition(3, 0, 0), transform.WithUniformScale(2)),
	)

	buf := Build(hs, LayoutPositionScale)

	require.Equal(t, 2, buf.Count)
	require.Len(t, buf.Data, 12)
	assert.Equal(t, []float32{1, 0, 0, 1, 1, 1}, buf.Record(0))
	assert.Equal(t, []float32{3, 0, 0, 2, 2, 2}, buf.Record(1))
	assert.Len(t, buf.Bytes(), 48)
}

func TestBuild_ModelMatrices(t *testing.T) {
	ts := []transform.Transform{
		transform.New(transform.WithPosition(1, 2, 3), transform.WithUniformScale(2)),
		transform.New(transform.WithPosition(-1, 0, 4), transform.WithScale(1, 3, 1)),
	}

	buf := Build(handles(ts...), LayoutModelMatrix)

	require.Equal(t, 2, buf.Count)
	for i, tr := range ts {
		assert.Equal(t, tr.ModelMatrix(), buf.ModelMatrix(i))
	}
}

func TestBuild_VisibilityToggleAffectsNextSnapshot(t *testing.T) {
	hs := handles(transform.New(), transform.New())

	var b Builder
	assert.Equal(t, 2, b.Build(hs, LayoutModelMatrix).Count)

	hs[0].SetVisible(false)
	assert.Equal(t, 1, b.Build(hs, LayoutModelMatrix).Count)

	hs[0].SetVisible(true)
	assert.Equal(t, 2, b.Build(hs, LayoutModelMatrix).Count)
}

func TestBuilder_ReusesStorage(t *testing.T) {
	hs := handles(transform.New(), transform.New(), transform.New())

	var b Builder
	first := b.Build(hs, LayoutModelMatrix)
	second := b.Build(hs[:1], LayoutModelMatrix)

	assert.Equal(t, 1, second.Count)
	assert.Same(t, &first.Data[0], &second.Data[0])
}

func TestBuild_ConcurrentMutation(t *testing.T) {
	hs := handles(transform.New(), transform.New(), transform.New(), transform.New())

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			h := hs[i%len(hs)]
			h.Translate(1, 0, 0)
			h.SetVisible(i%3 != 0)
		}
	}()

	var b Builder
	for i := 0; i < 200; i++ {
		buf := b.Build(hs, LayoutModelMatrix)
		assert.LessOrEqual(t, buf.Count, len(hs))
		assert.Len(t, buf.Data, buf.Count*16)
		for r := 0; r < buf.Count; r++ {
			m := buf.ModelMatrix(r)
			assert.Equal(t, float32(1), m[15])
			assert.Equal(t, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{m[0], m[5], m[10]})
		}
	}
	close(stop)
	wg.Wait()
}
