package asp

// Objective atom names. They surface verbatim in penalty/bonus atoms and in
// the optimization artefact.
const (
	penaltyUndesirableTimeslot = "UndesirableTimeslot"
	penaltyAvoidRoom           = "AvoidRoomForDegree"
	penaltyAvoidOverlap        = "AvoidSessionOverlap"
	bonusPreferRoom            = "PreferRoomForSession"
)

// Lexicographic optimisation tiers; a higher priority wins earlier.
const (
	priorityUndesirable5 = 5
	priorityUndesirable2 = 4
	priorityUndesirable1 = 3
	priorityAvoidRoom    = 2
	priorityAvoidOverlap = 2
	priorityPreferRoom   = 1
)

// Objective costs.
const (
	costUndesirable1 = 10
	costUndesirable2 = 20
	costUndesirable5 = 50
	costAvoidRoom    = 15
	costAvoidOverlap = 15
	costPreferRoom   = 15
)
