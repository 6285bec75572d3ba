package journal

import "time"

// UnitType classifies how a chemical is measured.
type UnitType string

const (
	UnitWeight UnitType = "weight"
	UnitVolume UnitType = "volume"
	UnitAmount UnitType = "amount"
)

// Valid reports whether u is one of the recognized unit types.
func (u UnitType) Valid() bool {
	switch u {
	case UnitWeight, UnitVolume, UnitAmount:
		return true
	}
	return false
}

// Chemical is a stock item in the lab inventory.
type Chemical struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Quantity          float64    `json:"quantity"`
	Unit              string     `json:"unit"`
	UnitType          UnitType   `json:"unit_type"`
	Location          string     `json:"location"`
	SafetyData        string     `json:"safety_data,omitempty"`
	ExpirationDate    *time.Time `json:"expiration_date,omitempty"`
	Supplier          string     `json:"supplier,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	LowStockAlert     bool       `json:"low_stock_alert"`
	LowStockThreshold *float64   `json:"low_stock_threshold,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	CreatedBy         string     `json:"created_by"`
}

// LowStock reports whether the alert is armed and the quantity has fallen
// to or below the threshold. Without a threshold the alert never fires.
func (c *Chemical) LowStock() bool {
	return c.LowStockAlert && c.LowStockThreshold != nil && c.Quantity <= *c.LowStockThreshold
}

// ChemicalInput carries the fields accepted when creating a chemical.
type ChemicalInput struct {
	Name              string     `json:"name"`
	Quantity          float64    `json:"quantity"`
	Unit              string     `json:"unit"`
	UnitType          UnitType   `json:"unit_type"`
	Location          string     `json:"location"`
	SafetyData        string     `json:"safety_data"`
	ExpirationDate    *time.Time `json:"expiration_date"`
	Supplier          string     `json:"supplier"`
	Notes             string     `json:"notes"`
	LowStockAlert     bool       `json:"low_stock_alert"`
	LowStockThreshold *float64   `json:"low_stock_threshold"`
}

// ChemicalUpdate is a partial update; nil fields are left untouched.
type ChemicalUpdate struct {
	Name              *string    `json:"name"`
	Quantity          *float64   `json:"quantity"`
	Unit              *string    `json:"unit"`
	UnitType          *UnitType  `json:"unit_type"`
	Location          *string    `json:"location"`
	SafetyData        *string    `json:"safety_data"`
	ExpirationDate    *time.Time `json:"expiration_date"`
	Supplier          *string    `json:"supplier"`
	Notes             *string    `json:"notes"`
	LowStockAlert     *bool      `json:"low_stock_alert"`
	LowStockThreshold *float64   `json:"low_stock_threshold"`
}

// ChemicalFilter narrows chemical listings. Search matches name, supplier
// and notes case-insensitively; Location matches case-insensitively;
// LowStock keeps only items whose alert currently fires.
type ChemicalFilter struct {
	Search   string
	Location string
	UnitType UnitType
	LowStock bool
	Skip     int
	Limit    int
}

// ChemicalUsage records one chemical consumed by an experiment.
type ChemicalUsage struct {
	ChemicalID   string  `json:"chemical_id"`
	QuantityUsed float64 `json:"quantity_used"`
	Unit         string  `json:"unit"`
}

// Experiment is a lab journal entry.
type Experiment struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Date          time.Time       `json:"date"`
	Description   string          `json:"description,omitempty"`
	Procedure     string          `json:"procedure,omitempty"`
	ChemicalsUsed []ChemicalUsage `json:"chemicals_used"`
	EquipmentUsed []string        `json:"equipment_used"`
	Observations  string          `json:"observations,omitempty"`
	Results       string          `json:"results,omitempty"`
	Conclusions   string          `json:"conclusions,omitempty"`
	ExternalLinks []string        `json:"external_links"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	CreatedBy     string          `json:"created_by"`
}

// OwnedBy reports whether the experiment was created by the given user.
func (e *Experiment) OwnedBy(userID string) bool {
	return e.CreatedBy == userID
}

// ExperimentInput carries the fields accepted when creating an experiment.
// A nil Date defaults to the current time.
type ExperimentInput struct {
	Title         string          `json:"title"`
	Date          *time.Time      `json:"date"`
	Description   string          `json:"description"`
	Procedure     string          `json:"procedure"`
	ChemicalsUsed []ChemicalUsage `json:"chemicals_used"`
	EquipmentUsed []string        `json:"equipment_used"`
	Observations  string          `json:"observations"`
	Results       string          `json:"results"`
	Conclusions   string          `json:"conclusions"`
	ExternalLinks []string        `json:"external_links"`
}

// ExperimentUpdate is a partial update; nil fields are left untouched.
type ExperimentUpdate struct {
	Title         *string          `json:"title"`
	Date          *time.Time       `json:"date"`
	Description   *string          `json:"description"`
	Procedure     *string          `json:"procedure"`
	ChemicalsUsed *[]ChemicalUsage `json:"chemicals_used"`
	EquipmentUsed *[]string        `json:"equipment_used"`
	Observations  *string          `json:"observations"`
	Results       *string          `json:"results"`
	Conclusions   *string          `json:"conclusions"`
	ExternalLinks *[]string        `json:"external_links"`
}

// ExperimentFilter narrows experiment listings. Search matches title,
// description, procedure, observations and results case-insensitively;
// the date bounds are inclusive and apply to the experiment date.
type ExperimentFilter struct {
	Search    string
	DateFrom  *time.Time
	DateTo    *time.Time
	CreatedBy string
	Skip      int
	Limit     int
}

// AvailableChemical is the stock view offered when composing an
// experiment.
type AvailableChemical struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// Stats is the dashboard summary. The recent counters cover the last
// seven days; expiring covers the next thirty.
type Stats struct {
	TotalChemicals        int           `json:"total_chemicals"`
	TotalExperiments      int           `json:"total_experiments"`
	LowStockCount         int           `json:"low_stock_count"`
	ExpiringSoonCount     int           `json:"expiring_soon_count"`
	RecentChemicals       int           `json:"recent_chemicals"`
	RecentExperiments     int           `json:"recent_experiments"`
	LowStockChemicals     []*Chemical   `json:"low_stock_chemicals"`
	ExpiringChemicals     []*Chemical   `json:"expiring_chemicals"`
	UserRecentExperiments []*Experiment `json:"user_recent_experiments"`
}
