package opt

import (
	"math"
	"math/rand"
	"testing"

	"github.com/energinet-labs/prosumer/core/model"
)

func entities(hours int) (model.Consumer, model.DER, model.Grid) {
	ref := make([]float64, hours)
	caps := make([]float64, hours)
	ratio := make([]float64, hours)
	flat := func(v float64) []float64 {
		s := make([]float64, hours)
		for i := range s {
			s[i] = v
		}
		return s
	}
	for t := range ref {
		ref[t] = 1
		caps[t] = 2
		ratio[t] = 0.5
	}
	consumer := model.Consumer{
		ReferenceProfile: ref,
		MaxLoadPerHour:   caps,
		MinTotalEnergy:   float64(hours),
		MaxTotalEnergy:   float64(hours) * 2,
		DiscomfortCost:   0.5,
		Storage: model.Storage{
			CapacityKWh:         10,
			ChargeEfficiency:    0.95,
			DischargeEfficiency: 0.95,
			ChargeRatio:         0.25,
			DischargeRatio:      0.25,
			InitialSOC:          0.5,
			FinalSOC:            0.5,
		},
	}
	der := model.DER{ProfileRatio: ratio, MaxPowerKW: 4}
	grid := model.Grid{
		ImportTariff: flat(0.1),
		ExportTariff: flat(0.05),
		EnergyPrice:  flat(1),
		MaxImportKW:  10,
		MaxExportKW:  8,
	}
	return consumer, der, grid
}

func TestFormulateVariableLayout(t *testing.T) {
	consumer, der, grid := entities(3)
	f, err := Formulate(consumer, der, grid, Options{Variant: model.VariantBase, NumHours: 3}, nil)
	if err != nil {
		t.Fatalf("formulate: %v", err)
	}
	p := f.Problem
	// Nine hourly variables plus the capacity variable.
	if len(p.Vars) != 3*9+1 {
		t.Fatalf("expected %d vars, got %d", 3*9+1, len(p.Vars))
	}
	if !p.Maximize {
		t.Fatalf("problem must maximize")
	}
	capVar := p.Vars[f.capVar]
	if capVar.Lower != 10 || capVar.Upper != 10 {
		t.Fatalf("capacity must be fixed to nameplate: %+v", capVar)
	}
	for t2 := 0; t2 < 3; t2++ {
		if got := p.Vars[f.pv[t2]].Upper; got != der.AvailableKW(t2) {
			t.Fatalf("pv bound hour %d: %v, want %v", t2, got, der.AvailableKW(t2))
		}
		if p.Vars[f.imp[t2]].Upper != 10 || p.Vars[f.exp[t2]].Upper != 8 {
			t.Fatalf("grid bounds wrong at hour %d", t2)
		}
		if p.Vars[f.charge[t2]].Upper != 2.5 {
			t.Fatalf("charge bound %v, want 2.5", p.Vars[f.charge[t2]].Upper)
		}
		if p.Vars[f.soc[t2]].Lower != 0 || p.Vars[f.soc[t2]].Upper != 10 {
			t.Fatalf("soc bounds wrong: %+v", p.Vars[f.soc[t2]])
		}
	}
	// Base variant carries no quadratic terms despite a discomfort cost.
	if len(p.Quad) != 0 {
		t.Fatalf("base variant must not penalize deviation")
	}
}

func TestFormulateDiscomfortAndSizing(t *testing.T) {
	consumer, der, grid := entities(3)
	consumer.BatteryPriceDKKPerKWh = 200

	f, err := Formulate(consumer, der, grid, Options{Variant: model.VariantDiscomfort, NumHours: 3}, nil)
	if err != nil {
		t.Fatalf("formulate: %v", err)
	}
	if len(f.Problem.Quad) != 3 {
		t.Fatalf("expected one quad term per hour, got %d", len(f.Problem.Quad))
	}
	q := f.Problem.Quad[0]
	if q.Coef != -0.5 || q.Center != 1 {
		t.Fatalf("quad term wrong: %+v", q)
	}

	f, err = Formulate(consumer, der, grid, Options{Variant: model.VariantSizing, NumHours: 3}, nil)
	if err != nil {
		t.Fatalf("formulate sizing: %v", err)
	}
	capVar := f.Problem.Vars[f.capVar]
	if capVar.Lower != 0 || !math.IsInf(capVar.Upper, 1) {
		t.Fatalf("sizing capacity must be free: %+v", capVar)
	}
	if f.Problem.Obj[f.capVar] != -200 {
		t.Fatalf("capacity price not in objective: %v", f.Problem.Obj[f.capVar])
	}
	// Capacity coupling rows present for every hour.
	kinds := map[model.ConstraintKind]int{}
	for _, con := range f.Problem.Cons {
		kinds[con.Key.Kind]++
	}
	for _, kind := range []model.ConstraintKind{model.ConChargeCap, model.ConDischargeCap, model.ConSOCCap, model.ConSOCFloor} {
		if kinds[kind] != 3 {
			t.Fatalf("expected 3 %s rows, got %d", kind, kinds[kind])
		}
	}
}

func TestFormulateObjectiveCoefficients(t *testing.T) {
	consumer, der, grid := entities(2)
	f, err := Formulate(consumer, der, grid, Options{Variant: model.VariantBase, NumHours: 2}, nil)
	if err != nil {
		t.Fatalf("formulate: %v", err)
	}
	p := f.Problem
	if got := p.Obj[f.exp[0]]; got != 0.05+1 {
		t.Fatalf("export coefficient %v, want 1.05", got)
	}
	if got := p.Obj[f.imp[0]]; got != -(0.1 + 1) {
		t.Fatalf("import coefficient %v, want -1.1", got)
	}
	if p.Obj[f.ysel[0]] != -DefaultEpsilon || p.Obj[f.zsel[1]] != -DefaultEpsilon {
		t.Fatalf("selector penalty missing")
	}
}

func TestFormulateFixedDA(t *testing.T) {
	consumer, der, grid := entities(3)
	fixed := 2.0
	f, err := Formulate(consumer, der, grid, Options{Variant: model.VariantBase, NumHours: 3, FixedDA: &fixed}, nil)
	if err != nil {
		t.Fatalf("formulate: %v", err)
	}
	for t2, v := range f.daPrice {
		if v != 2.0 {
			t.Fatalf("DA price at hour %d is %v, want fixed 2.0", t2, v)
		}
	}
	if got := f.Problem.Obj[f.exp[0]]; got != 0.05+2 {
		t.Fatalf("objective must use the fixed DA price, got %v", got)
	}
}

func TestFormulateVaryTariff(t *testing.T) {
	consumer, der, grid := entities(4)

	if _, err := Formulate(consumer, der, grid, Options{Variant: model.VariantBase, NumHours: 4, VaryTariff: true}, nil); err == nil {
		t.Fatalf("tariff variation without a random source must fail")
	}

	a, err := Formulate(consumer, der, grid, Options{Variant: model.VariantBase, NumHours: 4, VaryTariff: true}, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("formulate: %v", err)
	}
	b, err := Formulate(consumer, der, grid, Options{Variant: model.VariantBase, NumHours: 4, VaryTariff: true}, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("formulate: %v", err)
	}
	for t2 := range a.importTariff {
		if a.importTariff[t2] != b.importTariff[t2] {
			t.Fatalf("same seed must reproduce the same perturbation")
		}
		if a.importTariff[t2] < 0.08-1e-12 || a.importTariff[t2] > 0.12+1e-12 {
			t.Fatalf("perturbation outside ±20%%: %v", a.importTariff[t2])
		}
	}
	c, err := Formulate(consumer, der, grid, Options{Variant: model.VariantBase, NumHours: 4, VaryTariff: true}, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("formulate: %v", err)
	}
	same := true
	for t2 := range a.importTariff {
		if a.importTariff[t2] != c.importTariff[t2] {
			same = false
		}
	}
	if same {
		t.Fatalf("different seeds should perturb differently")
	}
}

func TestFormulateSOCDynamicsRow(t *testing.T) {
	consumer, der, grid := entities(2)
	f, err := Formulate(consumer, der, grid, Options{Variant: model.VariantBase, NumHours: 2}, nil)
	if err != nil {
		t.Fatalf("formulate: %v", err)
	}
	var first *Constraint
	for i := range f.Problem.Cons {
		con := &f.Problem.Cons[i]
		if con.Key.Kind == model.ConSOCDynamics && con.Key.Hour == 0 {
			first = con
		}
	}
	if first == nil {
		t.Fatalf("soc dynamics row missing")
	}
	// Pre-horizon state is the configured initial SOC in energy units.
	if first.RHS != 0.5*10 {
		t.Fatalf("initial SOC rhs %v, want 5", first.RHS)
	}
	coefs := map[int]float64{}
	for _, term := range first.Terms {
		coefs[term.Var] = term.Coef
	}
	if coefs[f.charge[0]] != -0.95 {
		t.Fatalf("charge efficiency coefficient %v", coefs[f.charge[0]])
	}
	if math.Abs(coefs[f.discharge[0]]-1/0.95) > 1e-12 {
		t.Fatalf("discharge efficiency coefficient %v", coefs[f.discharge[0]])
	}
}

func TestExtract(t *testing.T) {
	consumer, der, grid := entities(2)
	f, err := Formulate(consumer, der, grid, Options{Variant: model.VariantBase, NumHours: 2}, nil)
	if err != nil {
		t.Fatalf("formulate: %v", err)
	}
	values := make([]float64, len(f.Problem.Vars))
	values[f.capVar] = 10
	for t2 := 0; t2 < 2; t2++ {
		values[f.imp[t2]] = 1
		values[f.exp[t2]] = 0
		values[f.load[t2]] = 1
		values[f.pv[t2]] = 1 // available is 2
		values[f.soc[t2]] = 5
	}
	sol := &Solution{
		Values:    values,
		Objective: -2.2,
		Duals: map[model.ConstraintKey]float64{
			{Kind: model.ConHourlyBalance, Hour: 0}: 1.1,
		},
	}
	res, err := f.Extract("base", sol)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Series[model.SeriesCurtailment][0] != 1 {
		t.Fatalf("curtailment %v, want 1", res.Series[model.SeriesCurtailment][0])
	}
	if res.Series[model.SeriesSOCNormal][0] != 0.5 {
		t.Fatalf("soc_normal %v, want 0.5", res.Series[model.SeriesSOCNormal][0])
	}
	// Two hours importing 1 kWh at 1.1 DKK/kWh.
	if math.Abs(res.ActualProfit-(-2.2)) > 1e-9 {
		t.Fatalf("actual profit %v, want -2.2", res.ActualProfit)
	}
	if res.Duals[model.ConstraintKey{Kind: model.ConHourlyBalance, Hour: 0}] != 1.1 {
		t.Fatalf("duals not passed through")
	}
	if res.BatteryCapacityKWh != 10 {
		t.Fatalf("capacity %v, want 10", res.BatteryCapacityKWh)
	}
}

func TestExtractZeroCapacity(t *testing.T) {
	consumer, der, grid := entities(2)
	consumer.Storage.CapacityKWh = 0
	consumer.Storage.InitialSOC = 0
	consumer.Storage.FinalSOC = 0
	f, err := Formulate(consumer, der, grid, Options{Variant: model.VariantBase, NumHours: 2}, nil)
	if err != nil {
		t.Fatalf("formulate: %v", err)
	}
	sol := &Solution{Values: make([]float64, len(f.Problem.Vars))}
	res, err := f.Extract("no battery", sol)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	for _, v := range res.Series[model.SeriesSOCNormal] {
		if v != 0 {
			t.Fatalf("soc_normal must be zero for a zero-capacity battery")
		}
	}
}
