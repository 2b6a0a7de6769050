package icons

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupIgnoresCaseAndSeparators(t *testing.T) {
	for _, name := range []string{"HelpCircle", "help-circle", "helpcircle", " Help_Circle "} {
		icon, ok := Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, "HelpCircle", icon.Name)
	}
	_, ok := Lookup("Unicorn")
	assert.False(t, ok)
}

func TestResolveFallbacks(t *testing.T) {
	assert.Equal(t, "Code", Resolve("code", "HelpCircle").Name)
	assert.Equal(t, "HelpCircle", Resolve("Unicorn", "HelpCircle").Name)
	assert.Equal(t, Fallback, Resolve("Unicorn", "").Name)
	assert.Equal(t, Fallback, Resolve("", "AlsoMissing").Name)
}

func TestSVG(t *testing.T) {
	out := string(Resolve("Zap", "").SVG(`w-6 "h-6"`))
	assert.Contains(t, out, `data-icon="Zap"`)
	assert.Contains(t, out, `class="w-6 &#34;h-6&#34;"`)
	assert.Contains(t, out, "<polygon")
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	assert.IsNonDecreasing(t, names)
	assert.Contains(t, names, Fallback)
}
