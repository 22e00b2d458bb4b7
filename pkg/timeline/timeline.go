// Package timeline sequences a simulation run through its trading phases.
package timeline

// Phase is the event emitted by an advance of the driver.
type Phase string

// Phases
const (
	Settlement Phase = "settlement"
	Trading    Phase = "trading"
	PeriodEnd  Phase = "period_end"
	Finished   Phase = "finished"
)

// Round markers. Rounds 1..R are trading rounds; the settlement marker sits
// before them and the period-end marker after.
const (
	preRunRound       = -1 // sentinel: no phase emitted yet
	settlementRound   = 0
	firstTradingRound = 1
)

// TimeDriver is a finite-state scheduler driving repeated trading sessions:
// Settlement, Trading (R rounds), PeriodEnd, then either the next period's
// Settlement or Finished. Periods are 1-indexed. The terminal state is
// sticky: once Finished, every subsequent advance returns Finished.
type TimeDriver struct {
	totalPeriods    int
	roundsPerPeriod int

	period   int
	round    int
	finished bool
}

// NewTimeDriver creates a driver positioned before the first session. The
// very first Advance always emits Settlement.
func NewTimeDriver(totalPeriods, roundsPerPeriod int) *TimeDriver {
	return &TimeDriver{
		totalPeriods:    totalPeriods,
		roundsPerPeriod: roundsPerPeriod,
		period:          1,
		round:           preRunRound,
	}
}

// Period returns the current period, 1-indexed.
func (d *TimeDriver) Period() int {
	return d.period
}

// Round returns the current round within the period.
func (d *TimeDriver) Round() int {
	return d.round
}

// TotalPeriods returns the configured number of periods.
func (d *TimeDriver) TotalPeriods() int {
	return d.totalPeriods
}

// IsFinished reports whether the run has reached its terminal state.
func (d *TimeDriver) IsFinished() bool {
	return d.finished
}

// Advance moves the driver one step and returns the phase to execute.
func (d *TimeDriver) Advance() Phase {
	if d.finished {
		return Finished
	}

	switch {
	case d.round < settlementRound:
		// Pre-run sentinel: the first advance opens period 1 with its
		// settlement phase, never the terminal state.
		d.round = settlementRound
		return Settlement

	case d.round == settlementRound:
		d.round = firstTradingRound
		return Trading

	case d.round < d.roundsPerPeriod:
		d.round++
		return Trading

	case d.round == d.roundsPerPeriod:
		d.round++
		return PeriodEnd

	default: // past the period-end marker
		if d.period >= d.totalPeriods {
			d.finished = true
			return Finished
		}
		d.period++
		d.round = settlementRound
		return Settlement
	}
}

// IsEvolutionPoint reports whether the current instant is an evolution
// point: immediately after PeriodEnd, at period boundaries that are
// multiples of interval.
func (d *TimeDriver) IsEvolutionPoint(interval int) bool {
	if interval <= 0 {
		return false
	}
	return d.round > d.roundsPerPeriod && d.period%interval == 0
}
