package intake

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type stubGenerator struct {
	ids  []string
	next int
}

func (g *stubGenerator) Generate() string {
	id := g.ids[g.next%len(g.ids)]
	g.next++
	return id
}

func newTestController() *Controller {
	return NewController(&stubGenerator{ids: []string{"sess_first", "sess_second"}})
}

func validForm() Form {
	form := DefaultForm()
	form.Customer.Name = "Amina Hassan"
	form.Customer.Email = "amina@example.com"
	return form
}

func TestNewControllerStartsWithSession(t *testing.T) {
	c := newTestController()

	assert.Equal(t, "sess_first", c.SessionID())
	assert.Equal(t, "Office", c.Form().Facility.Type)
}

func TestNewSessionReplacesWholesale(t *testing.T) {
	c := newTestController()
	c.SetFileList("sess_first/1_a.pdf")

	id := c.NewSession()

	assert.Equal(t, "sess_second", id)
	assert.Empty(t, c.FileList(), "uploads must not carry across sessions")
}

func TestFilesParsing(t *testing.T) {
	c := newTestController()
	c.SetFileList("  sess_a/1_x.pdf  \n\nhttps://example.com/y.pdf\n   \nsess_a/2_z.csv")

	assert.Equal(t, []string{
		"sess_a/1_x.pdf",
		"https://example.com/y.pdf",
		"sess_a/2_z.csv",
	}, c.Files())
}

func TestMergeUploadKeysDedupesPreservingOrder(t *testing.T) {
	c := newTestController()
	c.SetFileList("sess_a/1_x.pdf\nsess_a/2_y.pdf")

	c.MergeUploadKeys([]string{"sess_a/2_y.pdf", "sess_a/3_z.pdf"})

	assert.Equal(t, []string{
		"sess_a/1_x.pdf",
		"sess_a/2_y.pdf",
		"sess_a/3_z.pdf",
	}, c.Files())
}

func TestCanRun(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Form)
		wantErr bool
	}{
		{"valid form", func(f *Form) {}, false},
		{"missing name", func(f *Form) { f.Customer.Name = "" }, true},
		{"missing email", func(f *Form) { f.Customer.Email = "" }, true},
		{"malformed email", func(f *Form) { f.Customer.Email = "not-an-email" }, true},
		{"zero area", func(f *Form) { f.Facility.AreaM2 = 0 }, true},
		{"negative consumption", func(f *Form) { f.Energy.AnnualKWh = -1 }, true},
		{"zero consumption is allowed", func(f *Form) { f.Energy.AnnualKWh = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController()
			form := validForm()
			tt.mutate(&form)
			c.SetForm(form)

			err := c.CanRun()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPayloadDefaults(t *testing.T) {
	c := newTestController()
	form := validForm()
	form.Facility.BMS.Trending = ""
	form.Energy.CarbonFactorKgPerKWh = 0
	form.Energy.EmissionFactorKgPerKWh = 0.42
	c.SetForm(form)

	payload := c.Payload()

	assert.Equal(t, "sess_first", payload.SessionID)
	assert.Equal(t, "Unknown", payload.CustomerData.Facility.BMS.Trending)
	assert.Equal(t, 0.42, payload.CustomerData.Energy.CarbonFactorKgPerKWh)
	assert.NotNil(t, payload.Files)
	assert.Empty(t, payload.Files)
}

func TestPayloadCarbonFactorFallsBackToDefault(t *testing.T) {
	c := newTestController()
	form := validForm()
	form.Energy.CarbonFactorKgPerKWh = 0
	form.Energy.EmissionFactorKgPerKWh = 0
	c.SetForm(form)

	payload := c.Payload()
	assert.Equal(t, 0.35, payload.CustomerData.Energy.CarbonFactorKgPerKWh)
}

func TestPayloadJSONShape(t *testing.T) {
	c := newTestController()
	c.SetForm(validForm())
	c.SetFileList("sess_first/1_asbuilt.pdf")

	raw, err := json.Marshal(c.Payload())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "sess_first", decoded["sessionId"])
	customerData, ok := decoded["customerData"].(map[string]any)
	require.True(t, ok, "customerData must be a nested object")
	for _, section := range []string{"customer", "facility", "energy", "targets"} {
		assert.Contains(t, customerData, section)
	}
	assert.Equal(t, []any{"sess_first/1_asbuilt.pdf"}, decoded["files"])
}

func TestFormYAMLRoundTrip(t *testing.T) {
	form := validForm()
	form.Targets.Objectives = "Cut cooling load"

	raw, err := yaml.Marshal(form)
	require.NoError(t, err)

	var decoded Form
	require.NoError(t, yaml.Unmarshal(raw, &decoded))
	assert.Equal(t, form, decoded)
}

func TestEstimatedAnnualCost(t *testing.T) {
	c := newTestController()
	form := validForm()
	form.Energy.TariffAEDPerKWh = 0.4
	form.Energy.AnnualKWh = 100000
	c.SetForm(form)

	assert.InDelta(t, 40000, c.EstimatedAnnualCostAED(), 0.001)
}
