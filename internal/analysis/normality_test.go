package analysis

import (
	"math"
	"testing"
)

// normalScores returns the expected normal order statistics for n points,
// i.e. a sample that fits a normal distribution as well as possible.
func normalScores(n int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = normalQuantile((float64(i+1) - 0.375) / (float64(n) + 0.25))
	}
	return out
}

// skewedScores exponentiates normal scores into a strongly right-skewed sample
func skewedScores(n int) []float64 {
	z := normalScores(n)
	out := make([]float64, n)
	for i, v := range z {
		out[i] = math.Exp(2 * v)
	}
	return out
}

func TestNormalityTestSwitchesOnSampleSize(t *testing.T) {
	name, _, _, err := normalityTest(normalScores(20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "shapiro_wilk" {
		t.Fatalf("n=20: got %s, want shapiro_wilk", name)
	}

	name, _, _, err = normalityTest(normalScores(60))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "lilliefors" {
		t.Fatalf("n=60: got %s, want lilliefors", name)
	}
}

func TestShapiroWilkAcceptsNormalShape(t *testing.T) {
	w, p, err := shapiroWilk(normalScores(20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w < 0.95 || w > 1 {
		t.Fatalf("W=%v outside expected range for a near-perfect normal fit", w)
	}
	if p < 0.1 {
		t.Fatalf("p=%v too small for a near-perfect normal fit", p)
	}
}

func TestShapiroWilkRejectsHeavySkew(t *testing.T) {
	_, p, err := shapiroWilk(skewedScores(20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p >= 0.01 {
		t.Fatalf("p=%v too large for a heavily skewed sample", p)
	}
}

func TestLillieforsAcceptsNormalShape(t *testing.T) {
	_, p, err := lilliefors(normalScores(60))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p < 0.1 {
		t.Fatalf("p=%v too small for a near-perfect normal fit", p)
	}
}

func TestLillieforsRejectsHeavySkew(t *testing.T) {
	_, p, err := lilliefors(skewedScores(60))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p >= 0.01 {
		t.Fatalf("p=%v too large for a heavily skewed sample", p)
	}
}

func TestNormalityTestDegenerateInput(t *testing.T) {
	if _, _, _, err := normalityTest([]float64{1, 2}); err == nil {
		t.Fatal("expected error for n < 3")
	}
	if _, _, _, err := normalityTest([]float64{5, 5, 5, 5}); err == nil {
		t.Fatal("expected error for constant data")
	}
}

func TestShapiroWilkTinySample(t *testing.T) {
	w, p, err := shapiroWilk([]float64{-1, 0, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w <= 0 || w > 1 {
		t.Fatalf("W=%v outside (0,1]", w)
	}
	if p < 0 || p > 1 {
		t.Fatalf("p=%v outside [0,1]", p)
	}
}
