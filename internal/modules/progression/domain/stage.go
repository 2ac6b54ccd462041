package domain

const InitialStageName = "initial"

// Threshold is the minimum score for a stage. Thresholds are ordered ascending.
type Threshold struct {
	Name     string
	MinScore float64
}

// Stage is a position on the threshold ladder; index 0 is the initial stage.
type Stage struct {
	Index    int
	Name     string
	MinScore float64
}

// CurrentStage returns the highest stage whose threshold score has reached.
// It is recomputed from the live thresholds on every call.
func CurrentStage(score float64, thresholds []Threshold) Stage {
	stage := Stage{Index: 0, Name: InitialStageName}
	for i, threshold := range thresholds {
		if score < threshold.MinScore {
			break
		}
		stage = Stage{Index: i + 1, Name: threshold.Name, MinScore: threshold.MinScore}
	}
	return stage
}

// NextThreshold returns the next stage to reach, if any.
func NextThreshold(score float64, thresholds []Threshold) (Threshold, bool) {
	for _, threshold := range thresholds {
		if score < threshold.MinScore {
			return threshold, true
		}
	}
	return Threshold{}, false
}

// Transition is emitted once when an award moves a profile to another stage.
type Transition struct {
	From Stage
	To   Stage
}
