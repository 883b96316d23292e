// Package simmodel provides the agent and idea data model: demographics,
// belief state, virality attributes, and the adoption/spread probability
// math that drives propagation in internal/simworld.
package simmodel

// AgeGroup buckets agent demographics into seven catalog values.
type AgeGroup uint8

const (
	Age13to17 AgeGroup = iota
	Age18to24
	Age25to34
	Age35to44
	Age45to54
	Age55to64
	Age65Plus
)

// AgeGroups lists the closed catalog of age buckets in order.
var AgeGroups = [...]AgeGroup{Age13to17, Age18to24, Age25to34, Age35to44, Age45to54, Age55to64, Age65Plus}

func (a AgeGroup) String() string {
	switch a {
	case Age13to17:
		return "13-17"
	case Age18to24:
		return "18-24"
	case Age25to34:
		return "25-34"
	case Age35to44:
		return "35-44"
	case Age45to54:
		return "45-54"
	case Age55to64:
		return "55-64"
	case Age65Plus:
		return "65+"
	default:
		return "unknown"
	}
}

// ParseAgeGroup maps the wire-exact age bucket label back to AgeGroup.
func ParseAgeGroup(s string) (AgeGroup, bool) {
	for _, a := range AgeGroups {
		if a.String() == s {
			return a, true
		}
	}
	return 0, false
}

// Region is the closed catalog of agent regions.
type Region uint8

const (
	RegionNA Region = iota
	RegionEU
	RegionAsia
	RegionLatam
	RegionAfrica
	RegionOceania
)

// Regions lists the closed catalog of regions in order.
var Regions = [...]Region{RegionNA, RegionEU, RegionAsia, RegionLatam, RegionAfrica, RegionOceania}

// RegionWeights gives the default categorical seeding weights, parallel to Regions.
// Weights need not sum to 1 — they're used as relative categorical weights.
var RegionWeights = [...]float64{0.20, 0.25, 0.35, 0.10, 0.05, 0.05}

func (r Region) String() string {
	switch r {
	case RegionNA:
		return "NA"
	case RegionEU:
		return "EU"
	case RegionAsia:
		return "ASIA"
	case RegionLatam:
		return "LATAM"
	case RegionAfrica:
		return "AFRICA"
	case RegionOceania:
		return "OCEANIA"
	default:
		return "unknown"
	}
}

// ParseRegion maps the wire-exact region code back to Region.
func ParseRegion(s string) (Region, bool) {
	for _, r := range Regions {
		if r.String() == s {
			return r, true
		}
	}
	return 0, false
}

// Interest is the closed catalog of agent/idea interest tags.
type Interest uint8

const (
	InterestTech Interest = iota
	InterestMusic
	InterestSports
	InterestPolitics
	InterestScience
	InterestArt
	InterestGaming
	InterestFashion
	InterestFood
	InterestTravel
	InterestHealth
	InterestFinance
	InterestEntertainment
	InterestEducation
	InterestEnvironment
	InterestSocial
)

// Interests lists the closed catalog of interests in order.
var Interests = [...]Interest{
	InterestTech, InterestMusic, InterestSports, InterestPolitics, InterestScience,
	InterestArt, InterestGaming, InterestFashion, InterestFood, InterestTravel,
	InterestHealth, InterestFinance, InterestEntertainment, InterestEducation,
	InterestEnvironment, InterestSocial,
}

func (i Interest) String() string {
	switch i {
	case InterestTech:
		return "tech"
	case InterestMusic:
		return "music"
	case InterestSports:
		return "sports"
	case InterestPolitics:
		return "politics"
	case InterestScience:
		return "science"
	case InterestArt:
		return "art"
	case InterestGaming:
		return "gaming"
	case InterestFashion:
		return "fashion"
	case InterestFood:
		return "food"
	case InterestTravel:
		return "travel"
	case InterestHealth:
		return "health"
	case InterestFinance:
		return "finance"
	case InterestEntertainment:
		return "entertainment"
	case InterestEducation:
		return "education"
	case InterestEnvironment:
		return "environment"
	case InterestSocial:
		return "social"
	default:
		return "unknown"
	}
}

// ParseInterest maps the wire-exact interest tag back to Interest.
func ParseInterest(s string) (Interest, bool) {
	for _, i := range Interests {
		if i.String() == s {
			return i, true
		}
	}
	return 0, false
}
