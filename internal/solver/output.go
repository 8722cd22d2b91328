package solver

import "strings"

// streamParser consumes the solver's stdout line by line. Clingo prints
// "Answer: N" followed by the answer atoms on the next line, improving
// "Optimization: ..." lines, a final verdict, and a summary of
// "Key : Value" statistics.
type streamParser struct {
	onAnswer func(number int, optimization string)

	expectAtoms  bool
	lastAnswer   string
	optimization string
	answerCount  int
	optimum      bool
	verdict      string
	stats        []Stat
}

func (p *streamParser) feed(line string) {
	if p.expectAtoms {
		p.expectAtoms = false
		p.lastAnswer = strings.TrimSpace(line)
		p.answerCount++
		return
	}

	trimmed := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(trimmed, "Answer:"):
		p.expectAtoms = true
	case strings.HasPrefix(trimmed, "Optimization:"):
		p.optimization = strings.TrimSpace(strings.TrimPrefix(trimmed, "Optimization:"))
		if p.onAnswer != nil {
			p.onAnswer(p.answerCount, p.optimization)
		}
	case trimmed == "OPTIMUM FOUND":
		p.optimum = true
	case trimmed == "SATISFIABLE", trimmed == "UNSATISFIABLE", trimmed == "UNKNOWN":
		p.verdict = trimmed
	default:
		if key, value, ok := strings.Cut(trimmed, " : "); ok {
			p.stats = append(p.stats, Stat{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)})
		}
	}
}

// result classifies the collected stream. A cancelled run surrenders the
// best answer found so far, or reports a timeout when there is none.
func (p *streamParser) result(cancelled bool) *Result {
	status := p.classify(cancelled)
	return &Result{
		Status:       status,
		Answer:       p.lastAnswer,
		Optimization: p.optimization,
		OptimumFound: p.optimum,
		AnswerCount:  p.answerCount,
		Statistics:   p.stats,
	}
}

func (p *streamParser) classify(cancelled bool) Status {
	hasAnswer := p.answerCount > 0
	switch {
	case hasAnswer && p.optimum:
		return StatusSatisfiableBest
	case hasAnswer:
		return StatusSatisfiable
	case cancelled:
		return StatusTimeout
	case p.verdict == "UNKNOWN":
		return StatusTimeout
	case p.verdict == "UNSATISFIABLE":
		return StatusUnsatisfiable
	default:
		return StatusUnknown
	}
}
