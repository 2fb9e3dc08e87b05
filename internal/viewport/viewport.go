// Package viewport maps a map zoom level to the backend aggregation tier
// and endpoint for the next marker fetch.
package viewport

// Granularity is the spatial aggregation tier requested from the backend.
type Granularity string

const (
	// GranularityComplex requests individual property records; range
	// filters apply only at this tier.
	GranularityComplex Granularity = "complex"

	GranularityEupMyeonDong Granularity = "eup-myeon-dong"
	GranularitySiGunGu      Granularity = "si-gun-gu"
	GranularitySiDo         Granularity = "si-do"
)

type Endpoint string

const (
	EndpointComplexes Endpoint = "/api/v1/map/complexes"
	EndpointRegions   Endpoint = "/api/v1/map/regions"
)

type Resolution struct {
	Endpoint    Endpoint
	Granularity Granularity
}

// IsComplex reports whether the resolution targets individual properties
// rather than a region aggregate.
func (r Resolution) IsComplex() bool {
	return r.Granularity == GranularityComplex
}

// The property cutoff is inclusive: level 4 itself still shows individual
// complexes. Aggregation tiers take effect at their lower bound.
const (
	complexMaxLevel = 4
	siGunGuMinLevel = 7
	siDoMinLevel    = 10
)

// Resolve maps a zoom level to the endpoint and granularity of the next
// fetch. Every level resolves to exactly one of the four canonical pairs.
func Resolve(level int) Resolution {
	switch {
	case level <= complexMaxLevel:
		return Resolution{Endpoint: EndpointComplexes, Granularity: GranularityComplex}
	case level < siGunGuMinLevel:
		return Resolution{Endpoint: EndpointRegions, Granularity: GranularityEupMyeonDong}
	case level < siDoMinLevel:
		return Resolution{Endpoint: EndpointRegions, Granularity: GranularitySiGunGu}
	default:
		return Resolution{Endpoint: EndpointRegions, Granularity: GranularitySiDo}
	}
}
