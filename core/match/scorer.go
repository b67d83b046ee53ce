package match

import "github.com/oficiosya/dispatch/core/model"

// Score weights. The components are additive and individually capped; the
// final score is clamped to 100.
const (
	distanceWeight   = 35.0
	reputationWeight = 25.0
	credentialCap    = 5.0
	profileCap       = 15.0
	activityWeight   = 15.0

	// Distance contribution decays linearly and reaches zero at 10 km.
	distanceDecayPerKm = 3.5
)

// Score computes the composite score for a professional at the given
// distance from the request. Deterministic: non-increasing in distance,
// non-decreasing in reputation, always in [0,100]. Reaching the scorer
// implies the professional already passed the eligibility and
// availability gates, which is what the flat activity component rewards.
func Score(p model.ProfessionalSnapshot, distanceKm float64) float64 {
	score := activityWeight

	d := distanceWeight - distanceKm*distanceDecayPerKm
	if d < 0 {
		d = 0
	}
	score += d

	rep := p.ReputationScore / 100
	if rep > 1 {
		rep = 1
	}
	if rep < 0 {
		rep = 0
	}
	score += rep * reputationWeight

	var cred float64
	if p.Punctual {
		cred += 2
	}
	if p.HighRating {
		cred += 2
	}
	if p.HighVolume {
		cred += 1
	}
	if p.IdentityVerified {
		cred += 3
	}
	if cred > credentialCap {
		cred = credentialCap
	}
	score += cred

	var profile float64
	if p.HasDescription {
		profile += 3
	}
	if p.HasPhoto {
		profile += 3
	}
	if p.YearsExperience > 0 {
		profile += 3
	}
	if p.Verified {
		profile += 6
	}
	if profile > profileCap {
		profile = profileCap
	}
	score += profile

	if score > 100 {
		score = 100
	}
	return score
}
