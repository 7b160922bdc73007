package inputs

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadQuestion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bus_params.json", `{
		"bus_params": [{
			"import_tariff_DKK/kWh": 0.1,
			"export_tariff_DKK/kWh": 0.05,
			"energy_price_DKK_per_kWh": [1, 2, 3],
			"max_import_kW": 10,
			"max_export_kW": 8
		}]
	}`)
	writeFile(t, dir, "appliance_params.yaml", `
appliance_params:
  load:
    - max_load_kWh_per_hour: 2
  DER:
    - max_power_kW: 5
`)
	writeFile(t, dir, "der_production.json", `{
		"DER_production": [{"hourly_profile_ratio": [0, 0.5, 1]}]
	}`)
	writeFile(t, dir, "usage_preference.json", `{
		"usage_preference": [{"load_preferences": [{
			"min_total_energy_per_day_hour_equivalent": 3,
			"max_total_energy_per_day_hour_equivalent": 6,
			"reference_profile_kWh_per_hour": 1
		}]}]
	}`)

	data, err := LoadQuestion(dir)
	if err != nil {
		t.Fatalf("LoadQuestion: %v", err)
	}
	if len(data.BusParams) != 1 {
		t.Fatalf("bus params missing: %+v", data)
	}
	price, err := data.BusParams[0].EnergyPrice.Hourly("energy_price_DKK_per_kWh", 3)
	if err != nil || price[2] != 3 {
		t.Fatalf("price series wrong: %v %v", price, err)
	}
	if data.ApplianceParams.DER[0].MaxPowerKW == nil || *data.ApplianceParams.DER[0].MaxPowerKW != 5 {
		t.Fatalf("yaml section not merged: %+v", data.ApplianceParams)
	}
}

func TestLoadQuestionEmptyDir(t *testing.T) {
	if _, err := LoadQuestion(t.TempDir()); err == nil {
		t.Fatalf("expected error for empty question dir")
	}
}

func TestScenarioRegistry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, RegistryFile, `{"Base Case": "base.json", "High Load": "high_load.json"}`)
	writeFile(t, dir, "base.json", `{}`)
	writeFile(t, dir, "high_load.json", `{"load_scale": 2, "import_tariff_scale": 1.1}`)

	registry, err := LoadRegistry(dir)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if len(registry) != 2 {
		t.Fatalf("expected 2 scenarios, got %d", len(registry))
	}

	selected := SelectScenarios(registry, []string{"high load"})
	if len(selected) != 1 {
		t.Fatalf("case-insensitive selection failed: %v", selected)
	}
	if all := SelectScenarios(registry, []string{"All"}); len(all) != 2 {
		t.Fatalf("'All' must keep everything")
	}

	scenarios, err := LoadScenarios(registry)
	if err != nil {
		t.Fatalf("LoadScenarios: %v", err)
	}
	// Deterministic name order.
	if scenarios[0].Name != "Base Case" || scenarios[1].Name != "High Load" {
		t.Fatalf("unexpected order: %v %v", scenarios[0].Name, scenarios[1].Name)
	}
	if scenarios[1].Factor("load_scale") != 2 {
		t.Fatalf("scaling factor not loaded")
	}
	if scenarios[0].Factor("load_scale") != 1 {
		t.Fatalf("missing factor must default to 1")
	}
}
