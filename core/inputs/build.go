package inputs

import (
	"github.com/energinet-labs/prosumer/core/model"
)

// Scaling keys understood by the entity builders. All are multiplicative
// except OverrideDiscomfort, which replaces the consumer's discomfort cost.
const (
	ScaleLoad             = "load_scale"
	ScaleReferenceProfile = "reference_profile_scale"
	ScaleImportTariff     = "import_tariff_scale"
	ScaleExportTariff     = "export_tariff_scale"
	ScaleEnergyPrice      = "da_price_scale"
	ScalePVCapacity       = "pv_scale"
	ScaleStorageCapacity  = "storage_capacity_scale"
	OverrideDiscomfort    = "discomfort_cost_per_kWh"
)

// BuildConsumer normalizes the usage preferences, load appliance and
// storage appliance into a Consumer, applying the scenario scaling.
func BuildConsumer(data *QuestionData, sc model.Scenario, numHours int) (model.Consumer, error) {
	if len(data.UsagePreference) == 0 || len(data.UsagePreference[0].LoadPreferences) == 0 {
		return model.Consumer{}, configErr("usage_preference.load_preferences", "required section is missing")
	}
	prefs := data.UsagePreference[0].LoadPreferences[0]
	if len(data.ApplianceParams.Load) == 0 {
		return model.Consumer{}, configErr("appliance_params.load", "required section is missing")
	}
	loadParams := data.ApplianceParams.Load[0]

	if prefs.MinTotalEnergy == nil || prefs.MaxTotalEnergy == nil {
		return model.Consumer{}, configErr("usage_preference.load_preferences", "total energy bounds are missing")
	}

	ref, err := prefs.ReferenceProfile.Hourly("reference_profile_kWh_per_hour", numHours)
	if err != nil {
		return model.Consumer{}, err
	}
	maxLoad, err := loadParams.MaxLoadPerHour.Hourly("max_load_kWh_per_hour", numHours)
	if err != nil {
		return model.Consumer{}, err
	}

	loadScale := sc.Factor(ScaleLoad)
	refScale := loadScale * sc.Factor(ScaleReferenceProfile)
	for t := range ref {
		ref[t] *= refScale
	}

	discomfort := orDefault(prefs.DiscomfortCost, 0)
	if v, ok := sc.Override(OverrideDiscomfort); ok {
		discomfort = v
	}

	c := model.Consumer{
		ReferenceProfile: ref,
		MaxLoadPerHour:   maxLoad,
		MinTotalEnergy:   *prefs.MinTotalEnergy * loadScale,
		MaxTotalEnergy:   *prefs.MaxTotalEnergy * loadScale,
		DiscomfortCost:   discomfort,
		Storage:          buildStorage(data, sc),
	}
	if len(data.ApplianceParams.Storage) > 0 {
		c.BatteryPriceDKKPerKWh = orDefault(data.ApplianceParams.Storage[0].BatteryPrice, 0)
	}
	if err := c.Validate(numHours); err != nil {
		return model.Consumer{}, configErr("consumer", "%v", err)
	}
	return c, nil
}

// buildStorage returns a zero-capacity battery when the storage section is
// absent, so battery-less questions need no storage file.
func buildStorage(data *QuestionData, sc model.Scenario) model.Storage {
	s := model.Storage{
		ChargeEfficiency:    1,
		DischargeEfficiency: 1,
		ChargeRatio:         1,
		DischargeRatio:      1,
	}
	if len(data.ApplianceParams.Storage) == 0 {
		return s
	}
	raw := data.ApplianceParams.Storage[0]
	s.CapacityKWh = orDefault(raw.CapacityKWh, 0) * sc.Factor(ScaleStorageCapacity)
	s.ChargeRatio = orDefault(raw.ChargeRatio, 1)
	s.DischargeRatio = orDefault(raw.DischargeRatio, 1)
	s.ChargeEfficiency = orDefault(raw.ChargeEfficiency, 1)
	s.DischargeEfficiency = orDefault(raw.DischargeEfficiency, 1)
	s.InitialSOC = orDefault(raw.InitialSOC, 0)
	s.MinSOC = orDefault(raw.MinSOC, 0)
	s.FinalSOC = orDefault(raw.FinalSOC, 0)
	s.FinalSOCIsMinimum = raw.FinalSOCIsMinimum
	return s
}

// BuildDER normalizes the PV production section into a DER.
func BuildDER(data *QuestionData, sc model.Scenario, numHours int) (model.DER, error) {
	if len(data.DERProduction) == 0 {
		return model.DER{}, configErr("DER_production", "required section is missing")
	}
	if len(data.ApplianceParams.DER) == 0 {
		return model.DER{}, configErr("appliance_params.DER", "required section is missing")
	}
	ratio, err := data.DERProduction[0].HourlyProfileRatio.Hourly("hourly_profile_ratio", numHours)
	if err != nil {
		return model.DER{}, err
	}
	d := model.DER{
		ProfileRatio: ratio,
		MaxPowerKW:   orDefault(data.ApplianceParams.DER[0].MaxPowerKW, 0) * sc.Factor(ScalePVCapacity),
	}
	if err := d.Validate(numHours); err != nil {
		return model.DER{}, configErr("DER", "%v", err)
	}
	return d, nil
}

// BuildGrid normalizes the bus parameters into a Grid.
func BuildGrid(data *QuestionData, sc model.Scenario, numHours int) (model.Grid, error) {
	if len(data.BusParams) == 0 {
		return model.Grid{}, configErr("bus_params", "required section is missing")
	}
	bus := data.BusParams[0]
	if bus.MaxImportKW == nil || bus.MaxExportKW == nil {
		return model.Grid{}, configErr("bus_params", "grid power limits are missing")
	}

	imp, err := bus.ImportTariff.Hourly("import_tariff_DKK/kWh", numHours)
	if err != nil {
		return model.Grid{}, err
	}
	exp, err := bus.ExportTariff.Hourly("export_tariff_DKK/kWh", numHours)
	if err != nil {
		return model.Grid{}, err
	}
	price, err := bus.EnergyPrice.Hourly("energy_price_DKK_per_kWh", numHours)
	if err != nil {
		return model.Grid{}, err
	}
	scale(imp, sc.Factor(ScaleImportTariff))
	scale(exp, sc.Factor(ScaleExportTariff))
	scale(price, sc.Factor(ScaleEnergyPrice))

	g := model.Grid{
		ImportTariff: imp,
		ExportTariff: exp,
		EnergyPrice:  price,
		MaxImportKW:  *bus.MaxImportKW,
		MaxExportKW:  *bus.MaxExportKW,
	}
	if err := g.Validate(numHours); err != nil {
		return model.Grid{}, configErr("grid", "%v", err)
	}
	return g, nil
}

// BuildEntities builds all three entities for one scenario.
func BuildEntities(data *QuestionData, sc model.Scenario, numHours int) (model.Consumer, model.DER, model.Grid, error) {
	consumer, err := BuildConsumer(data, sc, numHours)
	if err != nil {
		return model.Consumer{}, model.DER{}, model.Grid{}, err
	}
	der, err := BuildDER(data, sc, numHours)
	if err != nil {
		return model.Consumer{}, model.DER{}, model.Grid{}, err
	}
	grid, err := BuildGrid(data, sc, numHours)
	if err != nil {
		return model.Consumer{}, model.DER{}, model.Grid{}, err
	}
	return consumer, der, grid, nil
}

func scale(series []float64, factor float64) {
	for i := range series {
		series[i] *= factor
	}
}
