package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByNameFallsBackToFlexoki(t *testing.T) {
	assert.Equal(t, "tokyo-night", ByName("tokyo-night").Name)
	assert.Equal(t, FlexokiDark.Name, ByName("no-such-theme").Name)
}

func TestNextWraps(t *testing.T) {
	names := Names()
	assert.Len(t, names, len(All))
	assert.Equal(t, names[1], Next(names[0]).Name)
	assert.Equal(t, names[0], Next(names[len(names)-1]).Name)
	assert.Equal(t, names[0], Next("unknown").Name)
}

func TestSetActive(t *testing.T) {
	t.Cleanup(func() { SetActive(FlexokiDark.Name) })
	SetActive("terminal")
	assert.Equal(t, "terminal", Active.Name)
}
