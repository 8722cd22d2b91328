package asp

import "fmt"

// ruleEmitter produces the generative and restrictive parts of the program:
// choices, derivations, integrity constraints, weighted rules and directives.
type ruleEmitter struct {
	roomDistanceConstraint bool
}

// choiceRules pick exactly one start timeslot and exactly one room per
// session, both drawn from the session's eligibility facts.
func (r *ruleEmitter) choiceRules() []Statement {
	session := NewAtom(PredSession, Symbol(varSession), Symbol(varAny), Symbol(varAny))
	return []Statement{
		ChoiceRule{
			Lower:     1,
			Upper:     1,
			Atom:      NewAtom(PredAssignedTimeslot, Symbol(varTimeslot), Symbol(varSession)),
			Condition: NewAtom(PredEligibleSlotForSession, Symbol(varSession), Symbol(varTimeslot)),
			Body:      []Literal{session},
		},
		ChoiceRule{
			Lower:     1,
			Upper:     1,
			Atom:      NewAtom(PredAssignedRoom, Symbol(varRoom), Symbol(varSession)),
			Condition: NewAtom(PredEligibleRoomForSession, Symbol(varSession), Symbol(varRoom)),
			Body:      []Literal{session},
		},
	}
}

// derivationRules expand each assignment into the H consecutive cells the
// session occupies.
func (r *ruleEmitter) derivationRules() []Statement {
	head := NewAtom(PredScheduledSession,
		Expr(fmt.Sprintf("%s..%s+%s-1", varTimeslot, varTimeslot, varDuration)),
		Symbol(varSession),
		Symbol(varRoom))
	return []Statement{
		Rule{
			Head: head,
			Body: []Literal{
				NewAtom(PredSession, Symbol(varSession), Symbol(varAny), Symbol(varDuration)),
				NewAtom(PredAssignedTimeslot, Symbol(varTimeslot), Symbol(varSession)),
				NewAtom(PredAssignedRoom, Symbol(varRoom), Symbol(varSession)),
			},
		},
	}
}

func (r *ruleEmitter) hardConstraints() []Statement {
	statements := []Statement{
		// A room hosts at most one session per timeslot.
		Constraint{Body: []Literal{
			Compare(fmt.Sprintf("not { %s } 1",
				NewAtom(PredScheduledSession, Symbol(varTimeslot), Symbol(varAny), Symbol(varRoom)))),
			NewAtom(PredRoom, Symbol(varRoom), Symbol(varAny)),
			NewAtom(PredTimeslot, Symbol(varTimeslot)),
		}},
		// Hard no-overlap pairs never share a cell.
		Constraint{Body: []Literal{
			NewAtom(PredNoTimeslotOverlap, Symbol(varSession+"1"), Symbol(varSession+"2")),
			NewAtom(PredScheduledSession, Symbol(varTimeslot), Symbol(varSession+"1"), Symbol(varAny)),
			NewAtom(PredScheduledSession, Symbol(varTimeslot), Symbol(varSession+"2"), Symbol(varAny)),
		}},
	}

	// Contiguous paired sessions share the room, whichever of the two
	// comes first.
	for _, order := range [][2]string{
		{varSession + "1", varSession + "2"},
		{varSession + "2", varSession + "1"},
	} {
		statements = append(statements, Constraint{Body: []Literal{
			NewAtom(PredSameRoomIfContiguous, Symbol(varSession+"1"), Symbol(varSession+"2")),
			NewAtom(PredScheduledSession, Symbol(varTimeslot), Symbol(order[0]), Symbol(varRoom+"1")),
			NewAtom(PredScheduledSession, Expr(varTimeslot+"+1"), Symbol(order[1]), Symbol(varRoom+"2")),
			Compare(varRoom + "1 != " + varRoom + "2"),
		}})
	}

	if r.roomDistanceConstraint {
		statements = append(statements, r.roomDistanceConstraints()...)
	}

	return statements
}

// roomDistanceConstraints is the experimental travel-time encoding, guarded
// by a feature flag: paired sessions scheduled back-to-back cannot sit in
// rooms with a positive travel distance. room_distance facts carry the
// ordered room pair, so both room orders are matched.
func (r *ruleEmitter) roomDistanceConstraints() []Statement {
	var statements []Statement
	for _, order := range [][2]string{
		{varSession + "1", varSession + "2"},
		{varSession + "2", varSession + "1"},
	} {
		for _, rooms := range [][2]string{
			{varRoom + "1", varRoom + "2"},
			{varRoom + "2", varRoom + "1"},
		} {
			statements = append(statements, Constraint{Body: []Literal{
				NewAtom(PredApplyRoomDistances, Symbol(varSession+"1"), Symbol(varSession+"2")),
				NewAtom(PredSession, Symbol(order[0]), Symbol(varAny), Symbol(varDuration)),
				NewAtom(PredAssignedTimeslot, Symbol(varTimeslot+"1"), Symbol(order[0])),
				NewAtom(PredAssignedTimeslot, Expr(varTimeslot+"1+"+varDuration), Symbol(order[1])),
				NewAtom(PredAssignedRoom, Symbol(varRoom+"1"), Symbol(order[0])),
				NewAtom(PredAssignedRoom, Symbol(varRoom+"2"), Symbol(order[1])),
				NewAtom(PredRoomDistance, Symbol(rooms[0]), Symbol(rooms[1]), Symbol("D")),
				Compare("D > 0"),
			}})
		}
	}
	return statements
}

// softConstraints derive the weighted penalty and bonus atoms combined by
// the optimisation directives.
func (r *ruleEmitter) softConstraints() []Statement {
	var statements []Statement

	// Scheduling on an undesirable slot costs its classification amount,
	// optimised on a tier of its own per cost class.
	undesirableTiers := []struct {
		cost     int
		priority int
	}{
		{costUndesirable5, priorityUndesirable5},
		{costUndesirable2, priorityUndesirable2},
		{costUndesirable1, priorityUndesirable1},
	}
	for _, tier := range undesirableTiers {
		statements = append(statements, Rule{
			Head: NewAtom(PredPenalty,
				Str(penaltyUndesirableTimeslot),
				Symbol(varPenaltyCost),
				Symbol(varSession),
				Number(tier.priority)),
			Body: []Literal{
				NewAtom(PredUndesirableTimeslot, Symbol(varTimeslot), Symbol(varPenaltyCost)),
				NewAtom(PredScheduledSession, Symbol(varTimeslot), Symbol(varSession), Symbol(varAny)),
				Compare(fmt.Sprintf("%s == %d", varPenaltyCost, tier.cost)),
			},
		})
	}

	statements = append(statements,
		Rule{
			Head: NewAtom(PredPenalty,
				Str(penaltyAvoidRoom), Number(costAvoidRoom), Symbol(varSession), Number(priorityAvoidRoom)),
			Body: []Literal{
				NewAtom(PredPenalizedRoomForSession, Symbol(varSession), Symbol(varRoom)),
				NewAtom(PredAssignedRoom, Symbol(varRoom), Symbol(varSession)),
			},
		},
		Rule{
			Head: NewAtom(PredPenalty,
				Str(penaltyAvoidOverlap), Number(costAvoidOverlap), Symbol(varSession+"1"), Number(priorityAvoidOverlap)),
			Body: []Literal{
				NewAtom(PredAvoidTimeslotOverlap, Symbol(varSession+"1"), Symbol(varSession+"2")),
				NewAtom(PredScheduledSession, Symbol(varTimeslot), Symbol(varSession+"1"), Symbol(varAny)),
				NewAtom(PredScheduledSession, Symbol(varTimeslot), Symbol(varSession+"2"), Symbol(varAny)),
			},
		},
		Rule{
			Head: NewAtom(PredBonus,
				Str(bonusPreferRoom), Number(costPreferRoom), Symbol(varSession), Number(priorityPreferRoom)),
			Body: []Literal{
				NewAtom(PredPreferredRoomForSession, Symbol(varSession), Symbol(varRoom)),
				NewAtom(PredAssignedRoom, Symbol(varRoom), Symbol(varSession)),
			},
		},
	)

	return statements
}

func (r *ruleEmitter) directives() []Statement {
	return []Statement{
		Optimize{
			Weight: fmt.Sprintf("%s@%s,%s,%s", varPenaltyCost, varPenaltyPriority, varPenaltyName, varPenaltyValue),
			Condition: NewAtom(PredPenalty,
				Symbol(varPenaltyName), Symbol(varPenaltyCost), Symbol(varPenaltyValue), Symbol(varPenaltyPriority)),
		},
		Optimize{
			Maximize: true,
			Weight:   fmt.Sprintf("%s@%s,%s,%s", varBonusCost, varBonusPriority, varBonusName, varBonusValue),
			Condition: NewAtom(PredBonus,
				Symbol(varBonusName), Symbol(varBonusCost), Symbol(varBonusValue), Symbol(varBonusPriority)),
		},
		Show{Predicate: PredScheduledSession, Arity: 3},
		Show{Predicate: PredPenalty, Arity: 4},
		Show{Predicate: PredBonus, Arity: 4},
	}
}
