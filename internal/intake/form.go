// Package intake owns the audit intake form state: one serializable struct
// per section, a controller that assembles the submission payload, and the
// file-list bookkeeping for uploaded attachments.
package intake

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

type Customer struct {
	Name    string `json:"name" yaml:"name" validate:"required"`
	Email   string `json:"email" yaml:"email" validate:"required,email"`
	Company string `json:"company,omitempty" yaml:"company,omitempty"`
	Phone   string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Role    string `json:"role,omitempty" yaml:"role,omitempty"`
}

type BMS struct {
	Present  bool   `json:"present" yaml:"present"`
	Trending string `json:"trending,omitempty" yaml:"trending,omitempty"`
	Vendor   string `json:"vendor,omitempty" yaml:"vendor,omitempty"`
	Version  string `json:"version,omitempty" yaml:"version,omitempty"`
	Notes    string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

type HVAC struct {
	SystemType         string  `json:"systemType,omitempty" yaml:"systemType,omitempty"`
	CoolingCapacityTR  float64 `json:"coolingCapacityTR,omitempty" yaml:"coolingCapacityTR,omitempty"`
	NumChillers        int     `json:"numChillers,omitempty" yaml:"numChillers,omitempty"`
	ChillerMakeModel   string  `json:"chillerMakeModel,omitempty" yaml:"chillerMakeModel,omitempty"`
	BoilersPresent     bool    `json:"boilersPresent" yaml:"boilersPresent"`
	BoilerFuel         string  `json:"boilerFuel,omitempty" yaml:"boilerFuel,omitempty"`
	VentilationControl string  `json:"ventilationControl,omitempty" yaml:"ventilationControl,omitempty"`
}

type Lighting struct {
	Predominant string   `json:"predominant,omitempty" yaml:"predominant,omitempty"`
	Controls    []string `json:"controls,omitempty" yaml:"controls,omitempty"`
}

type Envelope struct {
	Glazing         string `json:"glazing,omitempty" yaml:"glazing,omitempty"`
	InsulationLevel string `json:"insulationLevel,omitempty" yaml:"insulationLevel,omitempty"`
	RoofType        string `json:"roofType,omitempty" yaml:"roofType,omitempty"`
}

type Facility struct {
	BuildingName    string   `json:"buildingName,omitempty" yaml:"buildingName,omitempty"`
	Type            string   `json:"type" yaml:"type"`
	AreaM2          float64  `json:"area_m2" yaml:"area_m2" validate:"gt=0"`
	YearBuilt       int      `json:"yearBuilt,omitempty" yaml:"yearBuilt,omitempty"`
	Floors          int      `json:"floors,omitempty" yaml:"floors,omitempty"`
	Occupancy       int      `json:"occupancy,omitempty" yaml:"occupancy,omitempty"`
	HoursPerWeek    int      `json:"hours_per_week,omitempty" yaml:"hours_per_week,omitempty"`
	Location        string   `json:"location,omitempty" yaml:"location,omitempty"`
	UtilityProvider string   `json:"utilityProvider,omitempty" yaml:"utilityProvider,omitempty"`
	MeterID         string   `json:"meterId,omitempty" yaml:"meterId,omitempty"`
	BMS             BMS      `json:"bms" yaml:"bms"`
	HVAC            HVAC     `json:"hvac" yaml:"hvac"`
	Lighting        Lighting `json:"lighting" yaml:"lighting"`
	Envelope        Envelope `json:"envelope" yaml:"envelope"`
}

type Energy struct {
	AnnualKWh              float64 `json:"annual_kwh" yaml:"annual_kwh" validate:"gte=0"`
	AnnualCoolingKWh       float64 `json:"annual_cooling_kwh,omitempty" yaml:"annual_cooling_kwh,omitempty"`
	GasAnnualMMBtu         float64 `json:"gas_annual_mmbtu,omitempty" yaml:"gas_annual_mmbtu,omitempty"`
	DieselAnnualLiters     float64 `json:"diesel_annual_liters,omitempty" yaml:"diesel_annual_liters,omitempty"`
	TariffAEDPerKWh        float64 `json:"tariff_aed_per_kwh,omitempty" yaml:"tariff_aed_per_kwh,omitempty"`
	EmissionFactorKgPerKWh float64 `json:"emission_factor_kg_per_kwh,omitempty" yaml:"emission_factor_kg_per_kwh,omitempty"`
	CarbonFactorKgPerKWh   float64 `json:"carbon_factor_kg_per_kwh,omitempty" yaml:"carbon_factor_kg_per_kwh,omitempty"`
	BestPossibleEUI        float64 `json:"best_possible_eui,omitempty" yaml:"best_possible_eui,omitempty"`
}

type Targets struct {
	Objectives         string  `json:"objectives,omitempty" yaml:"objectives,omitempty"`
	Constraints        string  `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	BudgetAED          float64 `json:"budgetAED,omitempty" yaml:"budgetAED,omitempty"`
	PaybackTargetYears float64 `json:"paybackTargetYears,omitempty" yaml:"paybackTargetYears,omitempty"`
}

// Form is the full intake form. It round-trips through JSON and YAML so an
// operator can keep intake files on disk.
type Form struct {
	Customer Customer `json:"customer" yaml:"customer" validate:"required"`
	Facility Facility `json:"facility" yaml:"facility" validate:"required"`
	Energy   Energy   `json:"energy" yaml:"energy" validate:"required"`
	Targets  Targets  `json:"targets" yaml:"targets"`
}

// CustomerData groups the form sections the analysis engine expects.
type CustomerData struct {
	Customer Customer `json:"customer"`
	Facility Facility `json:"facility"`
	Energy   Energy   `json:"energy"`
	Targets  Targets  `json:"targets"`
}

// SubmissionPayload is the request body sent to the analysis engine.
type SubmissionPayload struct {
	SessionID    string       `json:"sessionId"`
	CustomerData CustomerData `json:"customerData"`
	Files        []string     `json:"files"`
}

const defaultCarbonFactor = 0.35

// DefaultForm returns a form pre-filled the way a fresh intake starts.
func DefaultForm() Form {
	return Form{
		Facility: Facility{
			Type:         "Office",
			AreaM2:       1200,
			YearBuilt:    2010,
			Floors:       10,
			Occupancy:    300,
			HoursPerWeek: 60,
			Location:     "Dubai",
			BMS:          BMS{Present: false, Trending: "Unknown"},
			HVAC: HVAC{
				SystemType:         "Chilled Water",
				CoolingCapacityTR:  500,
				NumChillers:        2,
				BoilerFuel:         "Electric",
				VentilationControl: "Schedule",
			},
			Lighting: Lighting{Predominant: "LED", Controls: []string{"Manual Switches"}},
			Envelope: Envelope{Glazing: "Double", InsulationLevel: "Medium"},
		},
		Energy: Energy{
			AnnualKWh:              180000,
			TariffAEDPerKWh:        0.35,
			EmissionFactorKgPerKWh: defaultCarbonFactor,
			CarbonFactorKgPerKWh:   defaultCarbonFactor,
			BestPossibleEUI:        110,
		},
		Targets: Targets{PaybackTargetYears: 3},
	}
}

// Controller owns the mutable intake state for one session: the form, the
// session token, and the newline-delimited attachment list.
type Controller struct {
	sessionID   string
	form        Form
	fileListRaw string

	generator SessionIDGenerator
	validate  *validator.Validate
}

// SessionIDGenerator produces opaque session tokens.
type SessionIDGenerator interface {
	Generate() string
}

// NewController creates a controller with a fresh session and default form.
func NewController(generator SessionIDGenerator) *Controller {
	return &Controller{
		sessionID: generator.Generate(),
		form:      DefaultForm(),
		generator: generator,
		validate:  validator.New(),
	}
}

// SessionID returns the current session token.
func (c *Controller) SessionID() string {
	return c.sessionID
}

// NewSession replaces the session wholesale. The attachment list is cleared:
// a new session never inherits a previous session's uploads.
func (c *Controller) NewSession() string {
	c.sessionID = c.generator.Generate()
	c.fileListRaw = ""
	return c.sessionID
}

// Form returns the current form state.
func (c *Controller) Form() Form {
	return c.form
}

// SetForm replaces the form state.
func (c *Controller) SetForm(form Form) {
	c.form = form
}

// SetFileList replaces the raw attachment list (one key or URL per line).
func (c *Controller) SetFileList(raw string) {
	c.fileListRaw = raw
}

// FileList returns the raw attachment list.
func (c *Controller) FileList() string {
	return c.fileListRaw
}

// Files parses the attachment list: one entry per line, trimmed, blanks
// dropped, order preserved.
func (c *Controller) Files() []string {
	return parseFileList(c.fileListRaw)
}

func parseFileList(raw string) []string {
	var files []string
	for _, line := range strings.Split(raw, "\n") {
		if entry := strings.TrimSpace(line); entry != "" {
			files = append(files, entry)
		}
	}
	return files
}

// MergeUploadKeys folds freshly uploaded storage keys into the attachment
// list, deduplicating against existing entries while preserving order.
func (c *Controller) MergeUploadKeys(keys []string) {
	seen := make(map[string]bool)
	var merged []string
	for _, entry := range append(c.Files(), keys...) {
		if entry == "" || seen[entry] {
			continue
		}
		seen[entry] = true
		merged = append(merged, entry)
	}
	c.fileListRaw = strings.Join(merged, "\n")
}

// CanRun validates the minimal required fields before a submission is
// allowed: session ready, customer name + email, positive area, and a
// non-negative annual consumption.
func (c *Controller) CanRun() error {
	if c.sessionID == "" {
		return ErrSessionNotReady
	}
	return c.validate.Struct(c.form)
}

// ErrSessionNotReady is returned by CanRun before a session id exists.
var ErrSessionNotReady = errSessionNotReady{}

type errSessionNotReady struct{}

func (errSessionNotReady) Error() string { return "session id not initialized" }

// Payload assembles the submission payload. The carbon factor falls back to
// the emission factor, then to the regional default, and an unset BMS
// trending flag is reported as Unknown rather than empty.
func (c *Controller) Payload() SubmissionPayload {
	form := c.form

	if form.Facility.BMS.Trending == "" {
		form.Facility.BMS.Trending = "Unknown"
	}
	if form.Energy.CarbonFactorKgPerKWh == 0 {
		if form.Energy.EmissionFactorKgPerKWh != 0 {
			form.Energy.CarbonFactorKgPerKWh = form.Energy.EmissionFactorKgPerKWh
		} else {
			form.Energy.CarbonFactorKgPerKWh = defaultCarbonFactor
		}
	}

	files := c.Files()
	if files == nil {
		// The engine's request schema wants an array, not null.
		files = []string{}
	}

	return SubmissionPayload{
		SessionID: c.sessionID,
		CustomerData: CustomerData{
			Customer: form.Customer,
			Facility: form.Facility,
			Energy:   form.Energy,
			Targets:  form.Targets,
		},
		Files: files,
	}
}

// EstimatedAnnualCostAED is the derived electricity spend shown alongside
// the energy section.
func (c *Controller) EstimatedAnnualCostAED() float64 {
	return c.form.Energy.TariffAEDPerKWh * c.form.Energy.AnnualKWh
}
