package analysis

import (
	domstats "groupstat/domain/stats"
)

// SelectOmnibusTest maps the design and assumption flags to the test to run.
// An assumption that could not be verified counts as violated, so degenerate
// data always routes to the rank-based branch.
func SelectOmnibusTest(design domstats.DesignType, set domstats.AssumptionSet) domstats.TestID {
	switch design {
	case domstats.DesignRepeated:
		if set.NormalitySatisfied() && set.VarianceSatisfied() && set.SphericitySatisfied() {
			return domstats.TestRMANOVA
		}
		return domstats.TestFriedman
	default:
		if set.NormalitySatisfied() && set.VarianceSatisfied() {
			return domstats.TestOneWayANOVA
		}
		return domstats.TestKruskalWallis
	}
}
