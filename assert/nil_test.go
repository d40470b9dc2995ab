package assert

import (
	"testing"

	testify "github.com/stretchr/testify/assert"
)

type thing struct{}

func TestNotNil(t *testing.T) {
	var typed *thing

	testify.PanicsWithValue(t, "assertion failed: rt != nil", func() { NotNil(nil, "rt != nil") })
	testify.Panics(t, func() { NotNil(typed, "typed") })
	testify.NotPanics(t, func() { NotNil(&thing{}, "thing") })
}
