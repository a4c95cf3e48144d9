package models

// CowStatus enumerates the health/production state of an animal. The values
// are the Portuguese display strings shown to the farmer and are persisted
// as-is.
type CowStatus string

const (
	StatusHealthy     CowStatus = "Saudável"
	StatusInTreatment CowStatus = "Em Tratamento"
	StatusPregnant    CowStatus = "Prenha"
	StatusLactating   CowStatus = "Lactação"
	StatusDry         CowStatus = "Seca"
)

// EventType enumerates supported management event categories.
type EventType string

const (
	EventVaccine    EventType = "Vacina"
	EventUltrasound EventType = "Ultrassom"
	EventDewormer   EventType = "Vermífugo"
)

// Breeds is the fixed catalog offered when registering an animal.
var Breeds = []string{"Holandesa", "Jersey", "Girolando", "Nelore", "Guzerá", "Pardo Suíço"}

// ProductionRecord is one day's milk yield. Date is a "DD/MM" display key;
// a cow holds at most one record per key.
type ProductionRecord struct {
	Date   string  `json:"date"`
	Liters float64 `json:"liters"`
}

// ManagementEvent captures a vaccine, ultrasound or dewormer application and
// its scheduled follow-up.
type ManagementEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Name      string    `json:"name"`
	StartDate string    `json:"startDate"`
	NextDate  string    `json:"nextDate"`
}

// Identity returns the event id for upsert matching.
func (e ManagementEvent) Identity() string { return e.ID }

// Cow is one animal record together with its nested production history and
// management events. Deleting a cow drops the nested lists with it.
type Cow struct {
	ID               string             `json:"id"`
	Tag              string             `json:"tag"`
	Name             string             `json:"name"`
	Breed            string             `json:"breed"`
	Status           CowStatus          `json:"status"`
	BirthDate        string             `json:"birthDate"`
	Weight           float64            `json:"weight"`
	Production       []ProductionRecord `json:"production"`
	ManagementEvents []ManagementEvent  `json:"managementEvents"`
}

// Identity returns the cow id for upsert matching.
func (c Cow) Identity() string { return c.ID }

// DashboardStats aggregates the herd for the overview screen. All values are
// derived on read and never persisted.
type DashboardStats struct {
	TotalCows         int     `json:"totalCows"`
	TotalMilkToday    float64 `json:"totalMilkToday"`
	CowsInTreatment   int     `json:"cowsInTreatment"`
	AverageProduction float64 `json:"averageProduction"`
}

// HerdSnapshot is one exported reporting row: a user's dashboard on a given
// day.
type HerdSnapshot struct {
	Date      string
	UserEmail string
	Stats     DashboardStats
}
