package animator_test

import (
	"testing"

	"codeberg.org/mutker/runcat/internal/animator"
	"github.com/stretchr/testify/assert"
)

func TestFrameSequence(t *testing.T) {
	var f animator.Frame
	got := make([]int, 0, 12)
	for i := 0; i < 12; i++ {
		f = f.Next(animator.DefaultFrameCount)
		got = append(got, f.Int())
	}

	assert.Equal(t, []int{1, 2, 3, 4, 0, 1, 2, 3, 4, 0, 1, 2}, got)
}

func TestFrameNextDegenerateCycles(t *testing.T) {
	assert.Equal(t, animator.Frame(0), animator.Frame(0).Next(1))
	assert.Equal(t, animator.Frame(0), animator.Frame(3).Next(0))
	assert.Equal(t, animator.Frame(1), animator.Frame(0).Next(2))
	assert.Equal(t, animator.Frame(0), animator.Frame(1).Next(2))
}
