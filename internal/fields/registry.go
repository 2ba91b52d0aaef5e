package fields

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrAmbiguousAlias is returned by ToNative when a STAC field maps to more
// than one candidate native name. Such fields cannot be used in queries
// because picking one alias silently would return wrong results for
// providers using the other.
var ErrAmbiguousAlias = errors.New("field has multiple native aliases")

// entry is a resolved field mapping.
type entry struct {
	stac          string
	nativeAliases []string
	extension     string
	schemaHref    string
}

// Registry is the bidirectional field-name mapping, built once at startup
// from the common field set plus the enabled extension descriptors. It is
// read-only after construction and safe for concurrent use.
type Registry struct {
	entries  []*entry
	byStac   map[string]*entry
	byNative map[string]*entry
}

// NewRegistry builds a registry from the given extensions. The common field
// set is always included first, so its mappings win reverse lookups.
func NewRegistry(extensions ...Extension) *Registry {
	r := &Registry{
		byStac:   make(map[string]*entry),
		byNative: make(map[string]*entry),
	}

	for _, ext := range append([]Extension{CommonFields()}, extensions...) {
		for _, f := range ext.Fields {
			stacName := f.Name
			if f.StacOverride != "" {
				stacName = f.StacOverride
			} else if ext.Prefix != "" {
				stacName = ext.Prefix + ":" + f.Name
			}

			aliases := f.NativeAliases
			if len(aliases) == 0 {
				aliases = []string{f.Name}
			}

			e := &entry{
				stac:          stacName,
				nativeAliases: aliases,
			}
			// Unprefixed extensions contribute plain property names only;
			// they never show up in stac_extensions.
			if ext.Prefix != "" {
				e.extension = ext.Name
				e.schemaHref = ext.SchemaHref
			}

			r.entries = append(r.entries, e)
			if _, exists := r.byStac[e.stac]; !exists {
				r.byStac[e.stac] = e
			}
			for _, alias := range aliases {
				if _, exists := r.byNative[alias]; !exists {
					r.byNative[alias] = e
				}
			}
		}
	}

	return r
}

// Default builds a registry with the common fields and all builtin
// extensions.
func Default() *Registry {
	return NewRegistry(BuiltinExtensions()...)
}

// ToNative translates a STAC property name to its native engine name.
// Unmapped names pass through unchanged. A leading "properties." prefix is
// stripped first.
func (r *Registry) ToNative(stacField string) (string, error) {
	name := strings.TrimPrefix(stacField, "properties.")

	e, ok := r.byStac[name]
	if !ok {
		return name, nil
	}
	if len(e.nativeAliases) > 1 {
		return "", fmt.Errorf("cannot translate %q: %w", name, ErrAmbiguousAlias)
	}
	return e.nativeAliases[0], nil
}

// ToStac translates a native engine field name to its STAC property name.
// When several STAC fields share the native name, the first declared one
// wins. Unmapped names pass through unchanged.
func (r *Registry) ToStac(nativeField string) string {
	if e, ok := r.byNative[nativeField]; ok {
		return e.stac
	}
	return nativeField
}

// OwningExtension returns the name of the extension that declared the given
// STAC property, or "" for common and unmapped fields.
func (r *Registry) OwningExtension(stacField string) string {
	if e, ok := r.byStac[stacField]; ok {
		return e.extension
	}
	return ""
}

// SchemaHref returns the schema URL of the extension owning the given STAC
// property, or "" when the field is common or unmapped.
func (r *Registry) SchemaHref(stacField string) string {
	if e, ok := r.byStac[stacField]; ok {
		return e.schemaHref
	}
	return ""
}

// ConformanceClasses returns the sorted union of schema URLs of the
// extensions owning the populated STAC properties.
func (r *Registry) ConformanceClasses(properties map[string]any) []string {
	seen := make(map[string]bool)
	for name, value := range properties {
		if value == nil {
			continue
		}
		e, ok := r.byStac[name]
		if !ok || e.schemaHref == "" {
			continue
		}
		seen[e.schemaHref] = true
	}

	classes := make([]string, 0, len(seen))
	for href := range seen {
		classes = append(classes, href)
	}
	sort.Strings(classes)
	return classes
}

// TranslateProperties renames the native keys of a product's property map to
// their STAC names. Keys without a mapping are kept as-is; nil values are
// dropped.
func (r *Registry) TranslateProperties(native map[string]any) map[string]any {
	out := make(map[string]any, len(native))
	for k, v := range native {
		if v == nil {
			continue
		}
		out[r.ToStac(k)] = v
	}
	return out
}

// StacNames returns every declared STAC property name in declaration order.
// Used to build queryables responses.
func (r *Registry) StacNames() []string {
	names := make([]string, 0, len(r.entries))
	seen := make(map[string]bool)
	for _, e := range r.entries {
		if !seen[e.stac] {
			seen[e.stac] = true
			names = append(names, e.stac)
		}
	}
	return names
}
