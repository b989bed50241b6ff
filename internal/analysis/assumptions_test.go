package analysis

import (
	"math"
	"testing"

	domstats "groupstat/domain/stats"
	"groupstat/internal/dataset"
)

func scaledGroups(scales ...float64) []dataset.Group {
	base := normalScores(20)
	groups := make([]dataset.Group, len(scales))
	for i, s := range scales {
		vals := make([]float64, len(base))
		for j, v := range base {
			vals[j] = s * v
		}
		groups[i] = dataset.Group{Level: string(rune('A' + i)), Values: vals}
	}
	return groups
}

func skewedGroups(k int) []dataset.Group {
	base := skewedScores(20)
	groups := make([]dataset.Group, k)
	for i := range groups {
		groups[i] = dataset.Group{
			Level:  string(rune('A' + i)),
			Values: append([]float64(nil), base...),
		}
	}
	return groups
}

func TestEvaluateRoutesBartlettWhenNormal(t *testing.T) {
	e := NewAssumptionEvaluator()
	set, warnings := e.Evaluate(scaledGroups(1, 1.1, 0.9), nil, 0.05)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if !set.NormalitySatisfied() {
		t.Fatal("near-perfect normal groups must satisfy normality")
	}
	if set.Variance == nil || set.Variance.TestName != "bartlett" {
		t.Fatalf("normal data must route to bartlett, got %+v", set.Variance)
	}
	if !set.VarianceSatisfied() {
		t.Fatalf("similar variances must pass, got p=%v", set.Variance.PValue)
	}
}

func TestEvaluateRoutesLeveneWhenSkewed(t *testing.T) {
	e := NewAssumptionEvaluator()
	set, _ := e.Evaluate(skewedGroups(3), nil, 0.05)
	if set.NormalitySatisfied() {
		t.Fatal("heavily skewed groups must fail normality")
	}
	if set.Variance == nil || set.Variance.TestName != "levene" {
		t.Fatalf("non-normal data must route to levene, got %+v", set.Variance)
	}
}

func TestEvaluateWorstGroupDrivesNormality(t *testing.T) {
	groups := scaledGroups(1, 1)
	groups = append(groups, dataset.Group{Level: "C", Values: skewedScores(20)})

	e := NewAssumptionEvaluator()
	set, _ := e.Evaluate(groups, nil, 0.05)
	if set.Normality == nil {
		t.Fatal("normality check missing")
	}
	if set.Normality.Key != domstats.KeySignificant {
		t.Fatal("one skewed group must reject overall normality")
	}
	if len(set.GroupNormalityP) != 3 {
		t.Fatalf("expected per-group p-values for 3 groups, got %d", len(set.GroupNormalityP))
	}
	for _, level := range []string{"A", "B", "C"} {
		if _, ok := set.GroupNormalityP[level]; !ok {
			t.Fatalf("missing normality p for level %s", level)
		}
	}
}

func TestEvaluateSphericityOnlyWithMatrix(t *testing.T) {
	e := NewAssumptionEvaluator()
	set, _ := e.Evaluate(scaledGroups(1, 1.1, 0.9), nil, 0.05)
	if set.Sphericity != nil {
		t.Fatal("sphericity must be absent for independent designs")
	}
}

func TestEvaluateSphericityFromMatrix(t *testing.T) {
	base := normalScores(12)
	m := &dataset.RepeatedMatrix{
		Subjects: make([]string, 12),
		Levels:   []string{"a", "b", "c"},
	}
	for i, v := range base {
		// Deterministic per-condition perturbations keep the covariance full rank
		fi := float64(i)
		m.Data = append(m.Data, []float64{
			v + math.Sin(fi),
			v + 1.1*math.Cos(3*fi),
			v + 0.9*math.Sin(2*fi+1),
		})
	}
	e := NewAssumptionEvaluator()
	set, _ := e.Evaluate(dataset.GroupsFromMatrix(m), m, 0.05)
	if set.Sphericity == nil {
		t.Fatal("sphericity check missing for repeated design")
	}
	if set.Sphericity.TestName != "mauchly" {
		t.Fatalf("got %s, want mauchly", set.Sphericity.TestName)
	}
	if set.Sphericity.Statistic <= 0 || set.Sphericity.Statistic > 1 {
		t.Fatalf("Mauchly W=%v outside (0,1]", set.Sphericity.Statistic)
	}
}

func TestEvaluateDowngradesFailuresToWarnings(t *testing.T) {
	groups := []dataset.Group{
		{Level: "A", Values: []float64{1, 1, 1, 1}},
		{Level: "B", Values: []float64{2, 2, 2, 2}},
		{Level: "C", Values: []float64{3, 3, 3, 3}},
	}
	e := NewAssumptionEvaluator()
	set, warnings := e.Evaluate(groups, nil, 0.05)
	if set.Normality != nil {
		t.Fatal("constant groups cannot produce a normality check")
	}
	if len(warnings) == 0 {
		t.Fatal("expected warnings for degenerate groups")
	}
	if SelectOmnibusTest(domstats.DesignIndependent, set) != domstats.TestKruskalWallis {
		t.Fatal("degenerate data must fall back to the rank-based branch")
	}
}
