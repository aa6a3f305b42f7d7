package logging

import "strings"

// FormatSubject builds the job/strategy subject string used in console output.
func FormatSubject(jobID, strategy string) string {
	return composeSubject(jobID, strategy)
}

func composeSubject(jobID, strategy string) string {
	jobID = strings.TrimSpace(jobID)
	strategy = strings.TrimSpace(strategy)
	parts := make([]string, 0, 2)
	switch {
	case jobID != "" && strategy != "":
		parts = append(parts, "Job "+jobID+" ("+strategy+")")
	case jobID != "":
		parts = append(parts, "Job "+jobID)
	case strategy != "":
		parts = append(parts, strategy)
	}
	return strings.Join(parts, " · ")
}
