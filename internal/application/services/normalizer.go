package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/nearamenities/backend/internal/domain/entities"
	"github.com/nearamenities/backend/internal/infrastructure/clients/overpass"
)

// categorySpec drives normalization for one category: the source query
// filters, the default display name, and the tag mappings.
type categorySpec struct {
	filters     []overpass.TagFilter
	defaultName string

	// boolTags maps canonical tri-state attribute names to the source tag
	// key carrying a yes/no sentinel.
	boolTags map[string]string

	// textTags maps canonical free-text detail names to the source tag key.
	textTags map[string]string
}

var commonTextTags = map[string]string{
	"opening_hours": "opening_hours",
	"operator":      "operator",
}

var categorySpecs = map[entities.Category]categorySpec{
	entities.CategoryToilet: {
		filters:     []overpass.TagFilter{{Key: "amenity", Value: "toilets"}},
		defaultName: "Public Bathroom",
		boolTags: map[string]string{
			"wheelchair_accessible": "wheelchair",
			"has_fee":               "fee",
			"has_changing_table":    "changing_table",
			"has_hot_water":         "hot_water",
			"unisex":                "unisex",
		},
	},
	entities.CategoryDogPark: {
		filters:     []overpass.TagFilter{{Key: "leisure", Value: "dog_park"}},
		defaultName: "Dog Park",
		boolTags: map[string]string{
			"is_fenced": "barrier",
			"has_fee":   "fee",
		},
		textTags: map[string]string{
			"surface": "surface",
		},
	},
	entities.CategoryShower: {
		filters:     []overpass.TagFilter{{Key: "amenity", Value: "shower"}},
		defaultName: "Public Shower",
		boolTags: map[string]string{
			"has_hot_water":         "hot_water",
			"has_fee":               "fee",
			"wheelchair_accessible": "wheelchair",
		},
	},
	entities.CategoryFitnessStation: {
		filters:     []overpass.TagFilter{{Key: "leisure", Value: "fitness_station"}},
		defaultName: "Fitness Station",
		boolTags: map[string]string{
			"has_fee": "fee",
		},
		textTags: map[string]string{
			"equipment_type": "fitness_station",
			"surface":        "surface",
		},
	},
	entities.CategoryOutdoorGym: {
		filters:     []overpass.TagFilter{{Key: "leisure", Value: "fitness_centre"}, {Key: "outdoor", Value: "yes"}},
		defaultName: "Outdoor Gym",
		boolTags: map[string]string{
			"has_fee": "fee",
		},
		textTags: map[string]string{
			"surface": "surface",
		},
	},
	entities.CategorySwimmingPool: {
		filters:     []overpass.TagFilter{{Key: "leisure", Value: "swimming_pool"}},
		defaultName: "Swimming Pool",
		boolTags: map[string]string{
			"has_fee":        "fee",
			"has_water_play": "water_play",
			"is_indoor":      "indoor",
		},
	},
	entities.CategoryGym: {
		filters:     []overpass.TagFilter{{Key: "leisure", Value: "fitness_centre"}},
		defaultName: "Gym",
		boolTags: map[string]string{
			"wheelchair_accessible": "wheelchair",
		},
	},
	entities.CategoryPlayground: {
		filters:     []overpass.TagFilter{{Key: "leisure", Value: "playground"}},
		defaultName: "Playground",
		boolTags: map[string]string{
			"is_fenced":             "fenced",
			"has_water_play":        "water_play",
			"wheelchair_accessible": "wheelchair",
		},
		textTags: map[string]string{
			"surface": "surface",
		},
	},
	entities.CategoryMosque: {
		filters:     []overpass.TagFilter{{Key: "amenity", Value: "place_of_worship"}, {Key: "religion", Value: "muslim"}},
		defaultName: "Mosque",
		boolTags: map[string]string{
			"wheelchair_accessible": "wheelchair",
		},
		textTags: map[string]string{
			"religion":     "religion",
			"denomination": "denomination",
		},
	},
	entities.CategoryChurch: {
		filters:     []overpass.TagFilter{{Key: "amenity", Value: "place_of_worship"}, {Key: "religion", Value: "christian"}},
		defaultName: "Church",
		boolTags: map[string]string{
			"wheelchair_accessible": "wheelchair",
		},
		textTags: map[string]string{
			"religion":     "religion",
			"denomination": "denomination",
		},
	},
	entities.CategoryPrayerRoom: {
		filters:     []overpass.TagFilter{{Key: "room", Value: "prayer"}},
		defaultName: "Prayer Room",
		boolTags: map[string]string{
			"wheelchair_accessible": "wheelchair",
		},
		textTags: map[string]string{
			"religion": "religion",
		},
	},
	entities.CategoryWaxingSalon: {
		filters:     []overpass.TagFilter{{Key: "shop", Value: "beauty"}, {Key: "beauty", Value: "waxing"}},
		defaultName: "Waxing Salon",
	},
	entities.CategoryNailSalon: {
		filters:     []overpass.TagFilter{{Key: "shop", Value: "beauty"}, {Key: "beauty", Value: "nails"}},
		defaultName: "Nail Salon",
	},
	entities.CategorySkatePark: {
		filters:     []overpass.TagFilter{{Key: "leisure", Value: "skatepark"}},
		defaultName: "Skate Park",
		boolTags: map[string]string{
			"has_fee":   "fee",
			"is_fenced": "fenced",
		},
		textTags: map[string]string{
			"surface": "surface",
		},
	},
	entities.CategoryBMXTrack: {
		filters:     []overpass.TagFilter{{Key: "sport", Value: "bmx"}},
		defaultName: "BMX Track",
		boolTags: map[string]string{
			"has_fee": "fee",
		},
		textTags: map[string]string{
			"surface": "surface",
		},
	},
}

// QueryForCategory returns the source tag filters for a category.
func QueryForCategory(category entities.Category) []overpass.TagFilter {
	return categorySpecs[category].filters
}

// NormalizeElements maps raw source elements into canonical amenities for
// one category. Pure: no I/O, deterministic for identical input. Elements
// without a resolvable coordinate are dropped. Duplicate external ids
// within the batch deduplicate last-wins; output order is unspecified.
func NormalizeElements(elements []overpass.Element, category entities.Category) []*entities.Amenity {
	spec := categorySpecs[category]
	now := time.Now().UTC()

	byExternalID := make(map[string]*entities.Amenity, len(elements))
	for i := range elements {
		element := &elements[i]

		location, ok := resolveLocation(element)
		if !ok {
			continue
		}

		amenity := &entities.Amenity{
			ID:         uuid.New().String(),
			ExternalID: element.ExternalID(),
			Category:   category,
			Name:       displayName(element.Tags, spec.defaultName),
			Location:   location,
			Attributes: resolveAttributes(element.Tags, spec.boolTags),
			Details:    resolveDetails(element.Tags, spec.textTags),
			RawTags:    element.Tags,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		byExternalID[amenity.ExternalID] = amenity
	}

	amenities := make([]*entities.Amenity, 0, len(byExternalID))
	for _, amenity := range byExternalID {
		amenities = append(amenities, amenity)
	}
	return amenities
}

// resolveLocation applies the strict coordinate priority: direct point,
// precomputed center, first geometry point, bounds average.
func resolveLocation(element *overpass.Element) (entities.Location, bool) {
	if element.Lat != nil && element.Lon != nil {
		return entities.Location{Latitude: *element.Lat, Longitude: *element.Lon}, true
	}
	if element.Center != nil {
		return entities.Location{Latitude: element.Center.Lat, Longitude: element.Center.Lon}, true
	}
	if len(element.Geometry) > 0 {
		return entities.Location{Latitude: element.Geometry[0].Lat, Longitude: element.Geometry[0].Lon}, true
	}
	if element.Bounds != nil {
		return entities.Location{
			Latitude:  (element.Bounds.MinLat + element.Bounds.MaxLat) / 2,
			Longitude: (element.Bounds.MinLon + element.Bounds.MaxLon) / 2,
		}, true
	}
	return entities.Location{}, false
}

func displayName(tags map[string]string, fallback string) string {
	if name, ok := tags["name"]; ok && name != "" {
		return name
	}
	return fallback
}

// resolveAttributes maps sentinel tag values to tri-state attributes. A
// missing or unrecognized value stays unknown, never false.
func resolveAttributes(tags map[string]string, boolTags map[string]string) map[string]entities.TriState {
	attributes := map[string]entities.TriState{}
	for attribute, tagKey := range boolTags {
		value, ok := tags[tagKey]
		if !ok {
			attributes[attribute] = entities.TriStateUnknown
			continue
		}
		switch value {
		case "yes":
			attributes[attribute] = entities.TriStateTrue
		case "no":
			attributes[attribute] = entities.TriStateFalse
		default:
			attributes[attribute] = entities.TriStateUnknown
		}
	}
	return attributes
}

func resolveDetails(tags map[string]string, textTags map[string]string) map[string]string {
	details := map[string]string{}
	for detail, tagKey := range commonTextTags {
		if value, ok := tags[tagKey]; ok && value != "" {
			details[detail] = value
		}
	}
	for detail, tagKey := range textTags {
		if value, ok := tags[tagKey]; ok && value != "" {
			details[detail] = value
		}
	}
	return details
}
