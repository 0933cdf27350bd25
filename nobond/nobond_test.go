package nobond

import (
	"context"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInert(t *testing.T) {
	assert.False(t, IsActive())

	o := Obs(context.Background(), "what", 5).Set("more", 6)

	r, err := o.Spy("my_spy_point")
	require.NoError(t, err)
	assert.False(t, r.Present())
	assert.False(t, r.Void())
	assert.Nil(t, r.Value())
	assert.Equal(t, 3, r.Or(3))

	v, ok, err := SpyAs[int](o, "my_spy_point")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, v)

	assert.NoError(t, o.SpyErr("my_spy_point"))
	assert.NoError(t, SpyErrAs[*exec.Error](o, "my_spy_point"))
}

func TestSpyPointIsIdentity(t *testing.T) {
	upper := SpyPoint(strings.ToUpper)
	assert.Equal(t, "BOND", upper("bond"))

	n := 4
	assert.Same(t, &n, SpyPoint(&n))
}
