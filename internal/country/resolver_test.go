package country

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forestpanel/internal/errors"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "iso3 passthrough", raw: "BRA", want: "BRA"},
		{name: "iso3 lowercase", raw: "per", want: "PER"},
		{name: "iso3 padded", raw: "  ARG ", want: "ARG"},
		{name: "un long form bolivia", raw: "Bolivia (Plurinational State of)", want: "BOL"},
		{name: "un long form venezuela", raw: "Venezuela (Bolivarian Republic of)", want: "VEN"},
		{name: "world bank venezuela", raw: "Venezuela, RB", want: "VEN"},
		{name: "short name", raw: "Paraguay", want: "PRY"},
		{name: "collapsed whitespace", raw: "  bolivia   (plurinational   state of) ", want: "BOL"},
		{name: "out of scope iso3", raw: "MEX", wantErr: true},
		{name: "out of scope name", raw: "Mexico", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "garbage", raw: "Atlantis", wantErr: true},
	}

	r := NewResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, stderrors.Is(err, errors.ErrUnmappedCountry))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCode(t *testing.T) {
	r := NewResolver()

	iso, ok := r.ResolveCode(21)
	require.True(t, ok)
	assert.Equal(t, "BRA", iso)

	iso, ok = r.ResolveCode(169)
	require.True(t, ok)
	assert.Equal(t, "PRY", iso)

	// Mexico's area code is out of scope, not an error.
	_, ok = r.ResolveCode(138)
	assert.False(t, ok)
}

func TestInScope(t *testing.T) {
	r := NewResolver()
	for _, iso := range SouthAmericaISO3 {
		assert.True(t, r.InScope(iso), iso)
	}
	assert.True(t, r.InScope(" bra "))
	assert.False(t, r.InScope("MEX"))
	assert.False(t, r.InScope(""))
}

func TestScopeSize(t *testing.T) {
	assert.Len(t, SouthAmericaISO3, 12)
}
