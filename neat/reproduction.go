package neat

import "math"

// allocateSpecies computes every species' average fitness, turns the averages
// into offspring quotas summing to PopSize and breeds each species to its
// quota. It returns the mean of the averages used for allocation.
func (p *Population) allocateSpecies() float64 {
	ids := p.speciesIDs()
	if len(ids) == 0 {
		return 0
	}

	averages := make([]float64, len(ids))
	for i, sid := range ids {
		sp := p.Species[sid]
		sp.CalculateAverageFitness()
		// One bad generation must not starve a species.
		averages[i] = sp.AverageFitness
		if averages[i] <= 0 {
			averages[i] = 1
		}
	}

	quotas := computeQuotas(p.breeder, averages, p.Config.Neat.PopSize, p.Config.Reproduction.MaxPortion)
	for i, sid := range ids {
		p.Species[sid].MateGenomes(p.breeder, quotas[i])
	}
	return Mean(averages)
}

// computeQuotas shares total offspring between species in proportion to
// their (positive) average fitness, capping every share at maxPortion. The
// rounding drift is corrected one offspring at a time on uniformly random
// species until the quotas sum to total exactly. Quotas never go negative.
func computeQuotas(b *Breeder, averages []float64, total int, maxPortion float64) []int {
	quotas := make([]int, len(averages))
	if len(averages) == 0 {
		return quotas
	}

	sum := Sum(averages)
	allocated := 0
	for i, avg := range averages {
		portion := avg / sum
		if portion > maxPortion {
			portion = maxPortion
		}
		quotas[i] = int(math.Round(portion * float64(total)))
		allocated += quotas[i]
	}

	for allocated < total {
		quotas[b.Rand.Intn(len(quotas))]++
		allocated++
	}
	for allocated > total {
		positive := make([]int, 0, len(quotas))
		for i, q := range quotas {
			if q > 0 {
				positive = append(positive, i)
			}
		}
		quotas[positive[b.Rand.Intn(len(positive))]]--
		allocated--
	}
	return quotas
}
