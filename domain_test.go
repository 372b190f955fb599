package smbo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainValidate(t *testing.T) {
	tests := []struct {
		name    string
		domain  Domain
		wantErr bool
	}{
		{"valid", Domain{{Min: 0, Max: 1}, {Min: -5, Max: 5}}, false},
		{"empty", Domain{}, true},
		{"inverted", Domain{{Min: 1, Max: 0}}, true},
		{"degenerate", Domain{{Min: 1, Max: 1}}, true},
		{"infinite", Domain{{Min: 0, Max: math.Inf(1)}}, true},
		{"nan", Domain{{Min: math.NaN(), Max: 1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.domain.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDomain)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDomainGeometry(t *testing.T) {
	d := Domain{{Min: 0, Max: 4}, {Min: -1, Max: 1}}

	assert.Equal(t, 2, d.Dim())
	assert.Equal(t, []float64{2, 0}, d.Center())

	assert.True(t, d.Contains([]float64{0, 1}))
	assert.False(t, d.Contains([]float64{4.1, 0}))
	assert.False(t, d.Contains([]float64{1}))
	assert.False(t, d.Contains([]float64{math.NaN(), 0}))

	x := []float64{5, -3}
	assert.Equal(t, []float64{4, -1}, d.Clamp(x))
	assert.Equal(t, []float64{5, -3}, x, "Clamp must not modify its input")

	assert.Equal(t, []float64{1, 0}, d.FromUnit([]float64{0.25, 0.5}))
	assert.Equal(t, []float64{0.25, 0.5}, d.ToUnit([]float64{1, 0}))
}

func TestDomainOf(t *testing.T) {
	d := DomainOf(
		ParameterRange[int]{Min: 1, Max: 32},
		ParameterRange[int]{Min: 64, Max: 512},
	)

	assert.Equal(t, Domain{{Min: 1, Max: 32}, {Min: 64, Max: 512}}, d)
	assert.NoError(t, d.Validate())
	assert.Equal(t, 448.0, d[1].Width())
}
