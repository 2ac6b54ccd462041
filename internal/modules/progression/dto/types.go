package dto

type StageOutput struct {
	Index    int     `json:"index"`
	Name     string  `json:"name"`
	MinScore float64 `json:"min_score"`
}

type ProgressionOutput struct {
	ProfileID    string       `json:"profile_id"`
	Score        float64      `json:"score"`
	Stage        StageOutput  `json:"stage"`
	NextStage    *StageOutput `json:"next_stage,omitempty"`
	PointsToNext float64      `json:"points_to_next,omitempty"`
	StageCount   int          `json:"stage_count"`
}

type TransitionOutput struct {
	ProfileID string      `json:"profile_id"`
	Score     float64     `json:"score"`
	From      StageOutput `json:"from"`
	To        StageOutput `json:"to"`
}

type AwardOutput struct {
	Progression ProgressionOutput
	Transition  *TransitionOutput
}
