package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseForecastFilename(t *testing.T) {
	f, err := ParseForecastFilename("/data/2020/sof-d.20200317.t06z.0p125.basic.global.f009.grib2")
	require.NoError(t, err)

	assert.Equal(t, "sof-d", f.Product)
	assert.Equal(t, "0p125", f.Resolution)
	assert.Equal(t, "basic", f.Bundle)
	assert.Equal(t, "global", f.Domain)
	assert.Equal(t, time.Date(2020, 3, 17, 6, 0, 0, 0, time.UTC), f.Issuance)
	assert.Equal(t, 9, f.LeadHours())
	assert.Equal(t, time.Date(2020, 3, 17, 15, 0, 0, 0, time.UTC), f.Valid)
	assert.Equal(t, ForecastKey{Bundle: "basic", Valid: f.Valid}, f.Key())

	t.Run("lead past midnight", func(t *testing.T) {
		f, err := ParseForecastFilename("sof-d.20200317.t18z.0p125.maritime.global.f012.nc")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2020, 3, 18, 6, 0, 0, 0, time.UTC), f.Valid)
	})
}

func TestParseForecastFilenameErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"too few tokens", "sof-d.20200317.t06z.basic.global.f000.grib2"},
		{"too many tokens", "sof-d.20200317.t06z.0p125.basic.global.extra.f000.grib2"},
		{"bad date", "sof-d.2020-03-17.t06z.0p125.basic.global.f000.grib2"},
		{"impossible date", "sof-d.20200231.t06z.0p125.basic.global.f000.grib2"},
		{"cycle without t", "sof-d.20200317.06zz.0p125.basic.global.f000.grib2"},
		{"cycle hour 24", "sof-d.20200317.t24z.0p125.basic.global.f000.grib2"},
		{"lead without f", "sof-d.20200317.t06z.0p125.basic.global.000.grib2"},
		{"lead not numeric", "sof-d.20200317.t06z.0p125.basic.global.fabc.grib2"},
		{"lead too long", "sof-d.20200317.t06z.0p125.basic.global.f12345.grib2"},
		{"unknown extension", "sof-d.20200317.t06z.0p125.basic.global.f000.txt"},
		{"empty bundle", "sof-d.20200317.t06z.0p125..global.f000.grib2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseForecastFilename(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedFilename)
			assert.Equal(t, "malformed_filename", ErrorKind(err))
		})
	}
}
