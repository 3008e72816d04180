package domain

// ConflictJudgment is the pairwise verdict on whether two decisions
// contradict each other.
type ConflictJudgment struct {
	Conflict bool   `json:"conflict"`
	Reason   string `json:"reason"`
}

// Conflict surfaces a detected contradiction between a newly ingested
// decision and a historical one. Conflicts are carried on events only, never
// stored as their own entity.
type Conflict struct {
	OldFactID string `json:"old_fact_id"`
	NewFactID string `json:"new_fact_id"`
	OldText   string `json:"old_text"`
	NewText   string `json:"new_text"`
	Reason    string `json:"reason"`
}
