package call_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/renewal/pkg/util/call"
)

func TestPerform(t *testing.T) {
	t.Run("runs calls in order", func(t *testing.T) {
		var order []int

		err := call.Perform(
			func() error {
				order = append(order, 1)
				return nil
			},
			func() error {
				order = append(order, 2)
				return nil
			},
		)

		assert.NoError(t, err)
		assert.Equal(t, []int{1, 2}, order)
	})

	t.Run("stops on first error", func(t *testing.T) {
		want := errors.New("store unavailable")
		var order []int

		err := call.Perform(
			func() error {
				order = append(order, 1)
				return want
			},
			func() error {
				order = append(order, 2)
				return nil
			},
		)

		assert.Equal(t, want, err)
		assert.Equal(t, []int{1}, order)
	})
}

func TestWithArgs(t *testing.T) {
	var got string

	err := call.WithArgs(func(a, b string) error {
		got = a + b
		return nil
	}, "POL", "-001")()

	assert.NoError(t, err)
	assert.Equal(t, "POL-001", got)
}

func TestWithArgs3(t *testing.T) {
	var got []string

	err := call.WithArgs3(func(a, b, c string) error {
		got = []string{a, b, c}
		return nil
	}, "policy", "node", "entry")()

	assert.NoError(t, err)
	assert.Equal(t, []string{"policy", "node", "entry"}, got)
}
