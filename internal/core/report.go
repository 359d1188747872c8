package core

import "time"

// assembleReport combines the verdict with the URL verdicts collected over
// the whole conversation. Pure combination, no decision logic.
func assembleReport(runID, modelUsed string, verdict *DetectionVerdict, urls *URLVerdicts) *DetectionReport {
	return &DetectionReport{
		Verdict:     *verdict,
		URLVerdicts: urls,
		RunID:       runID,
		ModelUsed:   modelUsed,
		AnalyzedAt:  time.Now(),
	}
}
