package gs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArgsPreserveOrderAndDuplicates(t *testing.T) {
	a := &Args{}
	a.Append("-dNOPAUSE")
	a.Append("-dBATCH", "-dNOPAUSE")

	assert.Equal(t, []string{"-dNOPAUSE", "-dBATCH", "-dNOPAUSE"}, a.List())
	assert.Equal(t, 3, a.Len())
	assert.Equal(t, "-dNOPAUSE -dBATCH -dNOPAUSE", a.String())
}

func TestArgsContainsIsExact(t *testing.T) {
	a := &Args{}
	a.Append("-dJPEGQ=100")

	assert.True(t, a.Contains("-dJPEGQ=100"))
	assert.False(t, a.Contains("-dJPEGQ"))
	assert.False(t, a.Contains("-dJPEGQ=10"))
	assert.False(t, a.Contains("JPEGQ=100"))
}

func TestArgsListIsACopy(t *testing.T) {
	a := &Args{}
	a.Append("-dBATCH")

	list := a.List()
	list[0] = "mutated"
	assert.Equal(t, []string{"-dBATCH"}, a.List())
}
