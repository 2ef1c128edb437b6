package rating

// PlanTracker consumes plan volume for one origin during one run. It is
// rebuilt at run start; usage is never persisted, a re-run always restarts
// from zero.
type PlanTracker struct {
	plans []PlanDef
	used  []int
}

func NewPlanTracker(plans []PlanDef) *PlanTracker {
	return &PlanTracker{plans: plans, used: make([]int, len(plans))}
}

// Consume claims the call against the first plan, in definition order,
// whose call type matches and whose volume is not yet exhausted. Per-call
// types consume one unit per call, all others the rounded-up minutes.
// Plan calls are free; the caller prices them at zero.
func (t *PlanTracker) Consume(ct CallType, minutes int) (PlanDef, bool) {
	units := minutes
	if ct.PerCall() {
		units = 1
	}
	for i := range t.plans {
		if t.plans[i].CallType != ct {
			continue
		}
		if t.used[i] >= t.plans[i].Volume {
			continue
		}
		t.used[i] += units
		return t.plans[i], true
	}
	return PlanDef{}, false
}

// Used returns the consumed volume of the i-th plan.
func (t *PlanTracker) Used(i int) int {
	return t.used[i]
}
