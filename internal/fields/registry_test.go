package fields

import (
	"errors"
	"testing"
)

func TestToNative(t *testing.T) {
	r := Default()

	tests := []struct {
		stac   string
		native string
	}{
		{"sar:instrument_mode", "sensorMode"},
		{"eo:cloud_cover", "cloudCover"},
		{"sat:orbit_state", "orbitDirection"},
		{"processing:level", "processingLevel"},
		{"datetime", "startTimeFromAscendingNode"},
		{"end_datetime", "completionTimeFromAscendingNode"},
		{"platform", "platformSerialIdentifier"},
		{"constellation", "platform"},
		{"published", "publicationDate"},
		// identity for fields without an alias
		{"sar:center_frequency", "center_frequency"},
		// identity for unmapped fields
		{"someRandomField", "someRandomField"},
	}

	for _, tt := range tests {
		t.Run(tt.stac, func(t *testing.T) {
			got, err := r.ToNative(tt.stac)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.native {
				t.Errorf("got %q, want %q", got, tt.native)
			}
		})
	}
}

func TestToNativeStripsPropertiesPrefix(t *testing.T) {
	r := Default()
	got, err := r.ToNative("properties.eo:cloud_cover")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "cloudCover" {
		t.Errorf("got %q, want cloudCover", got)
	}
}

func TestToNativeAmbiguousAlias(t *testing.T) {
	r := Default()
	_, err := r.ToNative("instruments")
	if !errors.Is(err, ErrAmbiguousAlias) {
		t.Fatalf("expected ErrAmbiguousAlias, got %v", err)
	}
}

func TestToStac(t *testing.T) {
	r := Default()

	tests := []struct {
		native string
		stac   string
	}{
		{"sensorMode", "sar:instrument_mode"},
		{"cloudCover", "eo:cloud_cover"},
		{"orbitDirection", "sat:orbit_state"},
		// first declared match wins
		{"startTimeFromAscendingNode", "datetime"},
		// base "constellation" is declared before "storage:platform"
		{"platform", "constellation"},
		{"unknownField", "unknownField"},
	}

	for _, tt := range tests {
		t.Run(tt.native, func(t *testing.T) {
			if got := r.ToStac(tt.native); got != tt.stac {
				t.Errorf("got %q, want %q", got, tt.stac)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	r := Default()

	// to_stac(to_native(x)) == x for unambiguous fields whose native alias
	// reverse-resolves to themselves.
	for _, stac := range []string{
		"sar:instrument_mode",
		"eo:cloud_cover",
		"sat:orbit_state",
		"sat:absolute_orbit",
		"processing:level",
		"view:sun_azimuth",
		"datetime",
		"created",
		"updated",
	} {
		native, err := r.ToNative(stac)
		if err != nil {
			t.Fatalf("ToNative(%q): %v", stac, err)
		}
		if got := r.ToStac(native); got != stac {
			t.Errorf("round trip %q -> %q -> %q", stac, native, got)
		}
	}
}

func TestConformanceClasses(t *testing.T) {
	r := Default()

	props := map[string]any{
		"sar:instrument_mode": "IW",
		"eo:cloud_cover":      12.5,
		"datetime":            "2024-01-01T00:00:00Z",
		"published":           "2024-01-02T00:00:00Z", // unprefixed extension, no class
		"nilValue":            nil,
	}

	classes := r.ConformanceClasses(props)
	want := []string{
		"https://stac-extensions.github.io/eo/v1.0.0/schema.json",
		"https://stac-extensions.github.io/sar/v1.0.0/schema.json",
	}
	if len(classes) != len(want) {
		t.Fatalf("got %d classes %v, want %d", len(classes), classes, len(want))
	}
	for i := range want {
		if classes[i] != want[i] {
			t.Errorf("classes[%d] = %q, want %q", i, classes[i], want[i])
		}
	}
}

func TestTranslateProperties(t *testing.T) {
	r := Default()

	out := r.TranslateProperties(map[string]any{
		"sensorMode": "IW",
		"cloudCover": 40.0,
		"custom":     "kept",
		"dropped":    nil,
	})

	if out["sar:instrument_mode"] != "IW" {
		t.Errorf("sar:instrument_mode = %v", out["sar:instrument_mode"])
	}
	if out["eo:cloud_cover"] != 40.0 {
		t.Errorf("eo:cloud_cover = %v", out["eo:cloud_cover"])
	}
	if out["custom"] != "kept" {
		t.Errorf("custom = %v", out["custom"])
	}
	if _, ok := out["dropped"]; ok {
		t.Error("nil value should be dropped")
	}
}

func TestStatusToStac(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{StatusOnline, "succeeded"},
		{StatusStaging, "shipping"},
		{StatusOffline, "orderable"},
		{"", "orderable"},
		{"bogus", "orderable"},
	}
	for _, tt := range tests {
		if got := StatusToStac(tt.status); got != tt.want {
			t.Errorf("StatusToStac(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
