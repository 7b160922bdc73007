package inputs

import (
	"errors"
	"testing"

	"github.com/energinet-labs/prosumer/core/model"
)

func questionData() *QuestionData {
	fp := func(v float64) *float64 { return &v }
	return &QuestionData{
		BusParams: []BusParams{{
			ImportTariff: Scalar(0.1),
			ExportTariff: Scalar(0.05),
			EnergyPrice:  Series(1, 2, 3),
			MaxImportKW:  fp(10),
			MaxExportKW:  fp(8),
		}},
		ApplianceParams: ApplianceParams{
			Load: []LoadParams{{MaxLoadPerHour: Scalar(2)}},
			DER:  []DERParams{{MaxPowerKW: fp(5)}},
			Storage: []StorageParams{{
				CapacityKWh:         fp(10),
				ChargeRatio:         fp(0.5),
				DischargeRatio:      fp(0.5),
				ChargeEfficiency:    fp(0.95),
				DischargeEfficiency: fp(0.9),
				InitialSOC:          fp(0.5),
				FinalSOC:            fp(0.5),
				BatteryPrice:        fp(300),
			}},
		},
		DERProduction: []DERProduction{{HourlyProfileRatio: Series(0, 0.5, 1)}},
		UsagePreference: []UsagePreference{{LoadPreferences: []LoadPreferences{{
			MinTotalEnergy:   fp(3),
			MaxTotalEnergy:   fp(6),
			ReferenceProfile: Scalar(1),
			DiscomfortCost:   fp(0.2),
		}}}},
	}
}

func TestBuildEntitiesNoScaling(t *testing.T) {
	data := questionData()
	consumer, der, grid, err := BuildEntities(data, model.Scenario{Name: "base"}, 3)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if consumer.MinTotalEnergy != 3 || consumer.MaxTotalEnergy != 6 {
		t.Fatalf("energy bounds wrong: %+v", consumer)
	}
	if consumer.Storage.CapacityKWh != 10 {
		t.Fatalf("capacity wrong: %v", consumer.Storage.CapacityKWh)
	}
	if consumer.BatteryPriceDKKPerKWh != 300 {
		t.Fatalf("battery price wrong: %v", consumer.BatteryPriceDKKPerKWh)
	}
	if der.MaxPowerKW != 5 || der.ProfileRatio[2] != 1 {
		t.Fatalf("der wrong: %+v", der)
	}
	if grid.EnergyPrice[1] != 2 || grid.MaxExportKW != 8 {
		t.Fatalf("grid wrong: %+v", grid)
	}
}

// Scaling law: load_scale k multiplies the reference profile and the total
// energy bounds by k and leaves tariffs untouched.
func TestBuildEntitiesLoadScale(t *testing.T) {
	data := questionData()
	sc := model.Scenario{Name: "double load", Factors: map[string]float64{ScaleLoad: 2}}
	consumer, _, grid, err := BuildEntities(data, sc, 3)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for t2, v := range consumer.ReferenceProfile {
		if v != 2 {
			t.Fatalf("reference profile not scaled at hour %d: %v", t2, v)
		}
	}
	if consumer.MinTotalEnergy != 6 || consumer.MaxTotalEnergy != 12 {
		t.Fatalf("energy bounds not scaled: %+v", consumer)
	}
	if grid.ImportTariff[0] != 0.1 || grid.ExportTariff[0] != 0.05 {
		t.Fatalf("tariffs must be unaffected by load_scale: %+v", grid)
	}
}

func TestBuildEntitiesOtherScales(t *testing.T) {
	data := questionData()
	sc := model.Scenario{Name: "mixed", Factors: map[string]float64{
		ScaleReferenceProfile: 0.5,
		ScaleImportTariff:     3,
		ScalePVCapacity:       0,
		ScaleStorageCapacity:  0,
		OverrideDiscomfort:    1.5,
	}}
	consumer, der, grid, err := BuildEntities(data, sc, 3)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if consumer.ReferenceProfile[0] != 0.5 {
		t.Fatalf("reference profile scale not applied: %v", consumer.ReferenceProfile)
	}
	if consumer.MinTotalEnergy != 3 {
		t.Fatalf("reference_profile_scale must not touch energy bounds")
	}
	if consumer.DiscomfortCost != 1.5 {
		t.Fatalf("discomfort override not applied: %v", consumer.DiscomfortCost)
	}
	if consumer.Storage.CapacityKWh != 0 {
		t.Fatalf("storage capacity scale not applied")
	}
	if der.MaxPowerKW != 0 {
		t.Fatalf("pv scale not applied")
	}
	if grid.ImportTariff[0] != 0.3 {
		t.Fatalf("import tariff scale not applied: %v", grid.ImportTariff)
	}
}

func TestBuildConsumerMissingSection(t *testing.T) {
	data := questionData()
	data.UsagePreference = nil
	_, err := BuildConsumer(data, model.Scenario{}, 3)
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestBuildDERLengthMismatch(t *testing.T) {
	data := questionData()
	data.DERProduction[0].HourlyProfileRatio = Series(0.1, 0.2)
	_, err := BuildDER(data, model.Scenario{}, 3)
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestBuildStorageAbsent(t *testing.T) {
	data := questionData()
	data.ApplianceParams.Storage = nil
	consumer, err := BuildConsumer(data, model.Scenario{}, 3)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if consumer.Storage.CapacityKWh != 0 || consumer.Storage.ChargeEfficiency != 1 {
		t.Fatalf("absent storage must default to an idle battery: %+v", consumer.Storage)
	}
}
