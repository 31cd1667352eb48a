package rating

import "math"

// Glicko-2 works on a rescaled copy of the profile rating. Deviation is not stored on profiles,
// so every period starts from the same deviation and only the rating moves between matches.
const (
	scale           = 173.7178
	periodDeviation = 350.0
	volatility      = 0.06
	tau             = 0.5
	convergence     = 1e-6
)

// skill is a rating in Glicko-2 units.
type skill struct {
	mu, phi, sigma float64
}

func skillOf(r float64) skill {
	return skill{mu: (r - Default) / scale, phi: periodDeviation / scale, sigma: volatility}
}

func (s skill) rating() float64 {
	return s.mu*scale + Default
}

// impact damps an opponent's influence by their deviation.
func impact(phi float64) float64 {
	return 1 / math.Sqrt(1+3*phi*phi/(math.Pi*math.Pi))
}

// expected is the win probability of mu against an opponent at oppMu with deviation oppPhi.
func expected(mu, oppMu, oppPhi float64) float64 {
	return 1 / (1 + math.Exp(-impact(oppPhi)*(mu-oppMu)))
}

// ratePeriod applies one Glicko-2 period in which s met field once and scored score in [0, 1].
func ratePeriod(s, field skill, score float64) skill {
	g := impact(field.phi)
	e := expected(s.mu, field.mu, field.phi)
	v := 1 / (g * g * e * (1 - e))
	delta := v * g * (score - e)

	sigma := nextVolatility(s, v, delta)
	phiStar := math.Sqrt(s.phi*s.phi + sigma*sigma)
	phi := 1 / math.Sqrt(1/(phiStar*phiStar)+1/v)
	return skill{
		mu:    s.mu + phi*phi*g*(score-e),
		phi:   phi,
		sigma: sigma,
	}
}

// nextVolatility solves for the new sigma with the Illinois variant of regula falsi.
func nextVolatility(s skill, v, delta float64) float64 {
	a := math.Log(s.sigma * s.sigma)
	phi2 := s.phi * s.phi
	f := func(x float64) float64 {
		ex := math.Exp(x)
		d := phi2 + v + ex
		return ex*(delta*delta-phi2-v-ex)/(2*d*d) - (x-a)/(tau*tau)
	}

	lo := a
	var hi float64
	if delta*delta > phi2+v {
		hi = math.Log(delta*delta - phi2 - v)
	} else {
		k := 1.0
		for f(a-k*tau) < 0 {
			k++
		}
		hi = a - k*tau
	}

	fLo, fHi := f(lo), f(hi)
	for i := 0; i < 100 && math.Abs(hi-lo) > convergence; i++ {
		mid := lo + (lo-hi)*fLo/(fHi-fLo)
		fMid := f(mid)
		if fMid*fHi <= 0 {
			lo, fLo = hi, fHi
		} else {
			fLo /= 2
		}
		hi, fHi = mid, fMid
	}
	return math.Exp(lo / 2)
}
