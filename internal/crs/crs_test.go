package crs

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		tag      string
		expected string
	}{
		{name: "already canonical", tag: "EPSG:4326", expected: "EPSG:4326"},
		{name: "lower case", tag: "epsg:4326", expected: "EPSG:4326"},
		{name: "surrounding whitespace", tag: "  EPSG:4326\t", expected: "EPSG:4326"},
		{name: "proj string", tag: "+proj=longlat +datum=wgs84", expected: "+PROJ=LONGLAT +DATUM=WGS84"},
		{name: "empty", tag: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.tag))
		})
	}
}

func TestAssertCompatible(t *testing.T) {
	tests := []struct {
		name    string
		tagA    string
		tagB    string
		wantErr bool
	}{
		{name: "identical", tagA: "EPSG:4326", tagB: "EPSG:4326", wantErr: false},
		{name: "case differs", tagA: "epsg:4326", tagB: "EPSG:4326", wantErr: false},
		{name: "whitespace differs", tagA: " EPSG:4326", tagB: "EPSG:4326 ", wantErr: false},
		{name: "different codes", tagA: "EPSG:4326", tagB: "EPSG:3857", wantErr: true},
		{name: "empty left", tagA: "", tagB: "EPSG:4326", wantErr: true},
		{name: "empty right", tagA: "EPSG:4326", tagB: "", wantErr: true},
		{name: "both empty", tagA: "", tagB: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AssertCompatible(tt.tagA, tt.tagB)
			if tt.wantErr {
				assert.True(t, eris.Is(err, ErrMismatch))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
