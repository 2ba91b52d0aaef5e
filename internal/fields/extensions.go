// Package fields maintains the bidirectional mapping between STAC property
// names and the native field names used by the federated search engine.
//
// The mapping is declared as a base field set plus a list of STAC extension
// descriptors. Each extension field derives its public STAC name from the
// extension prefix ("sar" + "instrument_mode" -> "sar:instrument_mode")
// unless an explicit override is set.
package fields

// Field declares a single mapped property inside an extension.
type Field struct {
	// Name is the STAC field name relative to the extension prefix.
	Name string

	// NativeAliases lists the engine-side names for this field. An empty
	// list means the native name equals the STAC name. More than one alias
	// marks the field as ambiguous: it cannot be used in queries.
	NativeAliases []string

	// StacOverride, when set, is used as the full STAC name instead of
	// deriving "{prefix}:{name}".
	StacOverride string
}

// Extension is a STAC extension field-set descriptor. Extensions without a
// prefix contribute plain top-level property names and no conformance class.
type Extension struct {
	Name       string
	Prefix     string
	SchemaHref string
	Fields     []Field
}

// Native product retrieval statuses reported by the federated engine.
const (
	StatusOnline  = "ONLINE"
	StatusStaging = "STAGING"
	StatusOffline = "OFFLINE"
)

// Native names of the engine's temporal search bounds. Sort requests use
// the shorthand "start" and "end" for these.
const (
	NativeStartField = "startTimeFromAscendingNode"
	NativeEndField   = "completionTimeFromAscendingNode"
)

// statusMatching maps native retrieval statuses to the STAC order extension
// vocabulary.
var statusMatching = map[string]string{
	StatusOnline:  "succeeded",
	StatusStaging: "shipping",
	StatusOffline: "orderable",
}

// StatusToStac converts a native retrieval status to its STAC equivalent.
// Unknown or empty statuses are treated as offline.
func StatusToStac(status string) string {
	if s, ok := statusMatching[status]; ok {
		return s
	}
	return statusMatching[StatusOffline]
}

// CommonFields returns the base field set shared by every collection,
// independent of any extension.
func CommonFields() Extension {
	return Extension{
		Name: "Common",
		Fields: []Field{
			{Name: "datetime", NativeAliases: []string{"startTimeFromAscendingNode"}},
			{Name: "start_datetime", NativeAliases: []string{"startTimeFromAscendingNode"}},
			{Name: "end_datetime", NativeAliases: []string{"completionTimeFromAscendingNode"}},
			{Name: "created", NativeAliases: []string{"creationDate"}},
			{Name: "updated", NativeAliases: []string{"modificationDate"}},
			{Name: "platform", NativeAliases: []string{"platformSerialIdentifier"}},
			// Some providers report "instruments", others "instrument".
			{Name: "instruments", NativeAliases: []string{"instruments", "instrument"}},
			{Name: "constellation", NativeAliases: []string{"platform"}},
			{Name: "gsd", NativeAliases: []string{"resolution"}},
		},
	}
}

// BuiltinExtensions returns the STAC extension descriptors supported by the
// gateway, in declaration order. Ordering matters: reverse lookups resolve
// to the first declared match.
func BuiltinExtensions() []Extension {
	return []Extension{
		{
			Name:       "SarExtension",
			Prefix:     "sar",
			SchemaHref: "https://stac-extensions.github.io/sar/v1.0.0/schema.json",
			Fields: []Field{
				{Name: "instrument_mode", NativeAliases: []string{"sensorMode"}},
				{Name: "frequency_band", NativeAliases: []string{"dopplerFrequency"}},
				{Name: "center_frequency"},
				{Name: "polarizations", NativeAliases: []string{"polarizationChannels"}},
				{Name: "resolution_range"},
				{Name: "resolution_azimuth"},
				{Name: "pixel_spacing_range"},
				{Name: "pixel_spacing_azimuth"},
				{Name: "looks_range"},
				{Name: "looks_azimuth"},
				{Name: "looks_equivalent_number"},
				{Name: "observation_direction"},
			},
		},
		{
			Name:       "SatelliteExtension",
			Prefix:     "sat",
			SchemaHref: "https://stac-extensions.github.io/sat/v1.0.0/schema.json",
			Fields: []Field{
				{Name: "platform_international_designator"},
				{Name: "orbit_state", NativeAliases: []string{"orbitDirection"}},
				{Name: "absolute_orbit", NativeAliases: []string{"orbitNumber"}},
				{Name: "relative_orbit", NativeAliases: []string{"relativeOrbitNumber"}},
				{Name: "anx_datetime"},
			},
		},
		{
			// No prefix: fields stay top-level and the extension is never
			// advertised in stac_extensions.
			Name:       "TimestampExtension",
			SchemaHref: "https://stac-extensions.github.io/timestamps/v1.0.0/schema.json",
			Fields: []Field{
				{Name: "published", NativeAliases: []string{"publicationDate"}},
				{Name: "unpublished"},
				{Name: "expires"},
			},
		},
		{
			Name:       "ProcessingExtension",
			Prefix:     "processing",
			SchemaHref: "https://stac-extensions.github.io/processing/v1.0.0/schema.json",
			Fields: []Field{
				{Name: "expression"},
				{Name: "lineage"},
				{Name: "level", NativeAliases: []string{"processingLevel"}},
				{Name: "facility"},
				{Name: "software"},
			},
		},
		{
			Name:       "ViewGeometryExtension",
			Prefix:     "view",
			SchemaHref: "https://stac-extensions.github.io/view/v1.0.0/schema.json",
			Fields: []Field{
				{Name: "off_nadir"},
				{Name: "incidence_angle"},
				{Name: "azimuth"},
				{Name: "sun_azimuth", NativeAliases: []string{"illuminationAzimuthAngle"}},
				{Name: "sun_elevation", NativeAliases: []string{"illuminationElevationAngle"}},
			},
		},
		{
			Name:       "ElectroOpticalExtension",
			Prefix:     "eo",
			SchemaHref: "https://stac-extensions.github.io/eo/v1.0.0/schema.json",
			Fields: []Field{
				{Name: "cloud_cover", NativeAliases: []string{"cloudCover"}},
				{Name: "snow_cover", NativeAliases: []string{"snowCover"}},
				{Name: "bands"},
			},
		},
		{
			Name:       "ScientificCitationExtension",
			Prefix:     "sci",
			SchemaHref: "https://stac-extensions.github.io/scientific/v1.0.0/schema.json",
			Fields: []Field{
				{Name: "doi"},
				{Name: "citation"},
				{Name: "publications"},
			},
		},
		{
			Name:       "ProductExtension",
			Prefix:     "product",
			SchemaHref: "https://stac-extensions.github.io/product/v0.1.0/schema.json",
			Fields: []Field{
				{Name: "type"},
				{Name: "timeliness"},
				{Name: "timeliness_category"},
			},
		},
		{
			Name:       "StorageExtension",
			Prefix:     "storage",
			SchemaHref: "https://stac-extensions.github.io/storage/v1.0.0/schema.json",
			Fields: []Field{
				{Name: "platform"},
				{Name: "region"},
				{Name: "requester_pays"},
				{Name: "tier", NativeAliases: []string{"storageStatus"}},
			},
		},
		{
			Name:       "OrderExtension",
			Prefix:     "order",
			SchemaHref: "https://stac-extensions.github.io/order/v1.1.0/schema.json",
			Fields: []Field{
				{Name: "status"},
				{Name: "id", NativeAliases: []string{"orderId"}},
				{Name: "date"},
			},
		},
	}
}
