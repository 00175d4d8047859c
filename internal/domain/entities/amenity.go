package entities

import "time"

// Category identifies which amenity family a record belongs to. The set is
// closed; each category carries its own tag mapping and default name.
type Category string

const (
	CategoryToilet         Category = "toilet"
	CategoryDogPark        Category = "dog_park"
	CategoryShower         Category = "shower"
	CategoryFitnessStation Category = "fitness_station"
	CategoryOutdoorGym     Category = "outdoor_gym"
	CategorySwimmingPool   Category = "swimming_pool"
	CategoryGym            Category = "gym"
	CategoryPlayground     Category = "playground"
	CategoryMosque         Category = "mosque"
	CategoryChurch         Category = "church"
	CategoryPrayerRoom     Category = "prayer_room"
	CategoryWaxingSalon    Category = "waxing_salon"
	CategoryNailSalon      Category = "nail_salon"
	CategorySkatePark      Category = "skate_park"
	CategoryBMXTrack       Category = "bmx_track"
)

// Categories lists every supported category.
func Categories() []Category {
	return []Category{
		CategoryToilet, CategoryDogPark, CategoryShower,
		CategoryFitnessStation, CategoryOutdoorGym, CategorySwimmingPool,
		CategoryGym, CategoryPlayground, CategoryMosque, CategoryChurch,
		CategoryPrayerRoom, CategoryWaxingSalon, CategoryNailSalon,
		CategorySkatePark, CategoryBMXTrack,
	}
}

// ParseCategory returns the category for value, or false when unknown.
func ParseCategory(value string) (Category, bool) {
	for _, c := range Categories() {
		if string(c) == value {
			return c, true
		}
	}
	return "", false
}

// TriState is a boolean-like attribute that distinguishes "confirmed
// absent" from "not recorded". Never collapse unknown into false.
type TriState string

const (
	TriStateTrue    TriState = "true"
	TriStateFalse   TriState = "false"
	TriStateUnknown TriState = "unknown"
)

// Location represents geographical coordinates
type Location struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// Amenity is a normalized point-of-interest record produced by ingestion.
// Re-ingesting the same ExternalID replaces the record wholesale.
type Amenity struct {
	ID         string              `json:"id" db:"id"`
	ExternalID string              `json:"external_id" db:"external_id"`
	Category   Category            `json:"category" db:"category"`
	Name       string              `json:"name" db:"name"`
	Location   Location            `json:"location" db:"-"`
	Attributes map[string]TriState `json:"attributes" db:"-"`
	Details    map[string]string   `json:"details,omitempty" db:"-"`
	RawTags    map[string]string   `json:"raw_tags,omitempty" db:"-"`
	CreatedAt  time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at" db:"updated_at"`
}

// Attribute returns the tri-state value for name, unknown when unset.
func (a *Amenity) Attribute(name string) TriState {
	if v, ok := a.Attributes[name]; ok {
		return v
	}
	return TriStateUnknown
}
