package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	domstats "groupstat/domain/stats"
)

var allAdjustMethods = []domstats.AdjustMethod{
	domstats.AdjustHolm,
	domstats.AdjustHochberg,
	domstats.AdjustHommel,
	domstats.AdjustBonferroni,
	domstats.AdjustBH,
	domstats.AdjustBY,
	domstats.AdjustNone,
}

func TestAdjustPValuesMonotoneAndCapped(t *testing.T) {
	raw := []float64{0.001, 0.2, 0.04, 0.8, 0.04, 0.5}

	for _, method := range allAdjustMethods {
		adjusted, err := AdjustPValues(raw, method)
		require.NoError(t, err, "method %s", method)
		require.Len(t, adjusted, len(raw))

		for i := range raw {
			require.GreaterOrEqual(t, adjusted[i], raw[i],
				"method %s must not shrink p-values", method)
			require.LessOrEqual(t, adjusted[i], 1.0,
				"method %s must cap at 1", method)
		}
	}
}

func TestAdjustNoneIsIdentity(t *testing.T) {
	raw := []float64{0.3, 0.01, 0.7}
	adjusted, err := AdjustPValues(raw, domstats.AdjustNone)
	require.NoError(t, err)
	require.Equal(t, raw, adjusted)
}

func TestHolmKnownValues(t *testing.T) {
	adjusted, err := AdjustPValues([]float64{0.01, 0.02, 0.03, 0.04}, domstats.AdjustHolm)
	require.NoError(t, err)
	want := []float64{0.04, 0.06, 0.06, 0.06}
	for i := range want {
		require.InDelta(t, want[i], adjusted[i], 1e-12)
	}
}

func TestBHKnownValues(t *testing.T) {
	adjusted, err := AdjustPValues([]float64{0.01, 0.02, 0.03, 0.04}, domstats.AdjustBH)
	require.NoError(t, err)
	for i := range adjusted {
		require.InDelta(t, 0.04, adjusted[i], 1e-12)
	}
}

func TestBonferroniKnownValues(t *testing.T) {
	adjusted, err := AdjustPValues([]float64{0.3, 0.4}, domstats.AdjustBonferroni)
	require.NoError(t, err)
	require.InDelta(t, 0.6, adjusted[0], 1e-12)
	require.InDelta(t, 0.8, adjusted[1], 1e-12)
}

func TestHommelBoundedByHolmAndBonferroni(t *testing.T) {
	raw := []float64{0.005, 0.011, 0.02, 0.04, 0.13, 0.7}

	hommel, err := AdjustPValues(raw, domstats.AdjustHommel)
	require.NoError(t, err)
	holm, err := AdjustPValues(raw, domstats.AdjustHolm)
	require.NoError(t, err)
	bonf, err := AdjustPValues(raw, domstats.AdjustBonferroni)
	require.NoError(t, err)

	for i := range raw {
		require.LessOrEqual(t, hommel[i], holm[i]+1e-12)
		require.LessOrEqual(t, hommel[i], bonf[i]+1e-12)
	}
}

func TestBYMoreConservativeThanBH(t *testing.T) {
	raw := []float64{0.01, 0.03, 0.2, 0.04}

	by, err := AdjustPValues(raw, domstats.AdjustBY)
	require.NoError(t, err)
	bh, err := AdjustPValues(raw, domstats.AdjustBH)
	require.NoError(t, err)

	for i := range raw {
		require.GreaterOrEqual(t, by[i], bh[i]-1e-12)
	}
}

func TestAdjustPValuesRejectsUnknownMethod(t *testing.T) {
	_, err := AdjustPValues([]float64{0.5}, domstats.AdjustMethod("fdr_tsbh"))
	require.Error(t, err)
}

func TestAdjustPValuesEmptyFamily(t *testing.T) {
	adjusted, err := AdjustPValues(nil, domstats.AdjustHolm)
	require.NoError(t, err)
	require.Nil(t, adjusted)
}

func TestAdjustPValuesTieDeterminism(t *testing.T) {
	raw := []float64{0.04, 0.04, 0.04}
	first, err := AdjustPValues(raw, domstats.AdjustHolm)
	require.NoError(t, err)
	second, err := AdjustPValues(raw, domstats.AdjustHolm)
	require.NoError(t, err)
	for i := range first {
		require.False(t, math.IsNaN(first[i]))
		require.Equal(t, first[i], second[i])
	}
}
