package workload

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t77yq/sonde/internal/model"
)

func TestGenerate(t *testing.T) {
	gen := NewGenerator(rand.NewSource(42))

	for _, n := range []int{1, 2, 5, 100, 1000} {
		w, err := gen.Generate(n)
		require.NoError(t, err)
		assert.Len(t, w, n)

		for _, c := range w {
			assert.GreaterOrEqual(t, c.Sleep, 1)
			assert.LessOrEqual(t, c.Sleep, 10)
			assert.Equal(t, model.CheckName(c.Sleep), c.Name)
		}
	}
}

func TestGenerateCoversRange(t *testing.T) {
	gen := NewGenerator(rand.NewSource(7))

	w, err := gen.Generate(2000)
	require.NoError(t, err)

	seen := make(map[int]bool)
	for _, c := range w {
		seen[c.Sleep] = true
	}
	for s := 1; s <= 10; s++ {
		assert.True(t, seen[s], "sleep %d never generated", s)
	}
}

func TestGenerateInvalidCount(t *testing.T) {
	gen := NewGenerator(rand.NewSource(1))

	for _, n := range []int{0, -1, -100} {
		w, err := gen.Generate(n)
		assert.True(t, errors.Is(err, ErrInvalidCheckCount))
		assert.Nil(t, w)
	}
}

func TestRender(t *testing.T) {
	w := model.Workload{
		{Name: model.CheckName(3), Sleep: 3},
		{Name: model.CheckName(10), Sleep: 10},
	}

	out := string(Render(w, DefaultServiceTemplate))

	assert.Equal(t, 2, strings.Count(out, "define service{"))
	assert.Contains(t, out, "service_description   autogen_sleep_3\n")
	assert.Contains(t, out, "_SLEEP                10\n")
	assert.Contains(t, out, "check_command         check-service-alive")
	assert.True(t, strings.HasPrefix(out, "define service{"))
	assert.True(t, strings.HasSuffix(out, "}"))
}

func TestRenderEmpty(t *testing.T) {
	assert.Empty(t, Render(nil, DefaultServiceTemplate))
}
