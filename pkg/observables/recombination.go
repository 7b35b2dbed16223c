package observables

import "github.com/edp1096/toy-sesame/pkg/system"

// Rate is a recombination rate with its derivatives with respect to the
// electron and hole densities.
type Rate struct {
	R      float64
	Dn, Dp float64
}

// SRH returns the Shockley-Read-Hall rate
// (np - n1*p1) / (tauH*(n+n1) + tauE*(p+p1)).
func SRH(n, p, n1, p1, tauE, tauH float64) Rate {
	num := n*p - n1*p1
	den := tauH*(n+n1) + tauE*(p+p1)
	return Rate{
		R:  num / den,
		Dn: (p*den - num*tauH) / (den * den),
		Dp: (n*den - num*tauE) / (den * den),
	}
}

// Capture returns the rate through a gap state with equal electron and hole
// capture rate c, i.e. SRH with both lifetimes equal to 1/c. A zero capture
// rate yields exactly zero.
func Capture(n, p, nExtra, pExtra, c float64) Rate {
	num := n*p - nExtra*pExtra
	den := n + nExtra + p + pExtra
	return Rate{
		R:  c * num / den,
		Dn: c * (p*den - num) / (den * den),
		Dp: c * (n*den - num) / (den * den),
	}
}

// Add accumulates other into r.
func (r *Rate) Add(other Rate) {
	r.R += other.R
	r.Dn += other.Dn
	r.Dp += other.Dp
}

// OccupationCharge returns the charge density of a gap state of density nt
// with electron occupation f = (n + pExtra)/(n + p + nExtra + pExtra), and
// its derivatives with respect to n and p. The charge is nt/2*(1-2f) for
// amphoteric states, nt*(1-f) for donor-like and -nt*f for acceptor-like
// states.
func OccupationCharge(tr system.Transition, n, p, nExtra, pExtra, nt float64) (q, dqdn, dqdp float64) {
	den := n + p + nExtra + pExtra
	f := (n + pExtra) / den

	switch tr {
	case system.DonorLike:
		q = nt * (1 - f)
	case system.AcceptorLike:
		q = -nt * f
	default:
		q = nt / 2 * (1 - 2*f)
	}
	// dq = -nt df for every transition.
	dqdn = -nt * (p + nExtra) / (den * den)
	dqdp = nt * (n + pExtra) / (den * den)
	return q, dqdn, dqdp
}
