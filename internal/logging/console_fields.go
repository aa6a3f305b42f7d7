package logging

import (
	"log/slog"
	"strconv"
	"strings"
)

// Additional structured logging keys specific to synthesis observability.
// FieldComponent, FieldJobID, FieldStrategy, and FieldSegment live in
// context.go since they are also derived from context.
const (
	FieldEventType     = "event_type"
	FieldErrorHint     = "error_hint"
	FieldSegmentTotal  = "segment_total"
	FieldTextPreview   = "text_preview"
	FieldTargetSeconds = "target_s"
	FieldActualSeconds = "actual_s"
	FieldStretchFactor = "stretch_factor"
	FieldDifferenceS   = "difference_s"
	FieldTTSRate       = "tts_rate"
	FieldCalibPhase    = "calibration_phase"
	FieldSilenceBefore = "silence_before_s"
	FieldOriginalDur   = "original_duration_s"
	FieldFinalDur      = "final_duration_s"
	FieldDiffPercent   = "difference_percent"
	FieldAccuracy      = "accuracy_percent"
	FieldFilesJoined   = "files_concatenated"
)

type infoField struct {
	label string
	value string
}

const infoAttrLimit = 8

var infoHighlightKeys = []string{
	FieldAlert,
	FieldEventType,
	FieldJobID,
	FieldStrategy,
	FieldSegment,
	FieldSegmentTotal,
	FieldTargetSeconds,
	FieldActualSeconds,
	FieldStretchFactor,
	FieldDifferenceS,
	FieldDiffPercent,
	FieldAccuracy,
	FieldTTSRate,
	FieldCalibPhase,
	FieldSilenceBefore,
	FieldOriginalDur,
	FieldFinalDur,
	FieldFilesJoined,
	FieldTextPreview,
	"command",
	"error_message",
	FieldErrorHint,
	"status",
	"reason",
}

// selectInfoFields returns formatted info-level fields and a count of hidden entries.
// limit=0 means no limit. includeDebug controls whether debug-only keys are allowed.
func selectInfoFields(attrs []kv, limit int, includeDebug bool) ([]infoField, int) {
	if len(attrs) == 0 {
		return nil, 0
	}
	if limit < 0 {
		limit = 0
	}
	used := make([]bool, len(attrs))
	formatted := make([]string, len(attrs))
	formattedSet := make([]bool, len(attrs))
	ensureValue := func(idx int) string {
		if !formattedSet[idx] {
			formatted[idx] = formatValueForKey(attrs[idx].key, attrs[idx].value)
			formattedSet[idx] = true
		}
		return formatted[idx]
	}
	result := make([]infoField, 0, infoAttrLimit)
	hidden := 0

	for _, key := range infoHighlightKeys {
		if limit > 0 && len(result) >= limit {
			break
		}
		for idx, attr := range attrs {
			if used[idx] || attr.key != key {
				continue
			}
			used[idx] = true
			if skipInfoKey(attr.key) {
				break
			}
			if !includeDebug && isDebugOnlyKey(attr.key) {
				hidden++
				break
			}
			val := ensureValue(idx)
			if !includeDebug && shouldHideInfoValue(attr.key, val) {
				hidden++
				break
			}
			result = append(result, infoField{label: displayLabel(attr.key), value: val})
			break
		}
	}

	for idx, attr := range attrs {
		if used[idx] {
			continue
		}
		used[idx] = true
		if skipInfoKey(attr.key) {
			continue
		}
		if !includeDebug && isDebugOnlyKey(attr.key) {
			hidden++
			continue
		}
		val := ensureValue(idx)
		if !includeDebug && shouldHideInfoValue(attr.key, val) {
			hidden++
			continue
		}
		if limit <= 0 || len(result) < limit {
			result = append(result, infoField{label: displayLabel(attr.key), value: val})
		} else if limit > 0 {
			hidden++
		}
	}

	return result, hidden
}

// formatValueForKey applies smart formatting based on the key name.
func formatValueForKey(key string, v slog.Value) string {
	v = v.Resolve()

	if isPercentKey(key) && v.Kind() == slog.KindFloat64 {
		return formatPercent(v.Float64())
	}

	if isSecondsKey(key) && v.Kind() == slog.KindFloat64 {
		return formatSeconds(v.Float64())
	}

	if v.Kind() == slog.KindBool {
		if v.Bool() {
			return "yes"
		}
		return "no"
	}

	value := formatValue(v)
	if key == "error" || key == "error_message" {
		value = truncateErrorValue(value)
	}
	return value
}

func isPercentKey(key string) bool {
	return strings.HasSuffix(key, "_percent") || key == FieldDiffPercent || key == FieldAccuracy
}

func isSecondsKey(key string) bool {
	return strings.HasSuffix(key, "_s") || strings.HasSuffix(key, "_seconds")
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + "%"
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64) + "s"
}

func truncateErrorValue(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	const maxLen = 200
	if len(value) > maxLen {
		value = value[:maxLen] + "…"
	}
	return value
}

func skipInfoKey(key string) bool {
	switch key {
	case "", FieldComponent:
		return true
	default:
		return false
	}
}

func isDebugOnlyKey(key string) bool {
	if key == "" {
		return true
	}
	switch key {
	case FieldCorrelationID, FieldTextPreview:
		return true
	}
	if strings.Contains(key, "correlation") {
		return true
	}
	if strings.Contains(key, "_path") || strings.Contains(key, "_dir") {
		return true
	}
	return false
}

func shouldHideInfoValue(key, value string) bool {
	switch key {
	case "error_message", "error", "command":
		return false
	}
	return len(value) > 120
}

func displayLabel(key string) string {
	switch key {
	case FieldAlert:
		return "Alert"
	case FieldEventType:
		return "Event"
	case FieldJobID:
		return "Job"
	case FieldStrategy:
		return "Strategy"
	case FieldSegment:
		return "Segment"
	case FieldSegmentTotal:
		return "Of"
	case FieldTargetSeconds:
		return "Target"
	case FieldActualSeconds:
		return "Actual"
	case FieldStretchFactor:
		return "Stretch"
	case FieldDifferenceS:
		return "Difference"
	case FieldDiffPercent:
		return "Difference %"
	case FieldAccuracy:
		return "Accuracy"
	case FieldTTSRate:
		return "TTS Rate"
	case FieldCalibPhase:
		return "Calibration"
	case FieldSilenceBefore:
		return "Silence Before"
	case FieldOriginalDur:
		return "Original Duration"
	case FieldFinalDur:
		return "Final Duration"
	case FieldFilesJoined:
		return "Files Joined"
	case FieldTextPreview:
		return "Text"
	case FieldErrorHint:
		return "Hint"
	case "reason":
		return "Reason"
	default:
		return titleizeKey(key)
	}
}

func titleizeKey(key string) string {
	if key == "" {
		return ""
	}
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-'
	})
	if len(parts) == 0 {
		return strings.ToUpper(key[:1]) + strings.ToLower(key[1:])
	}
	for i, part := range parts {
		parts[i] = capitalizeASCII(part)
	}
	return strings.Join(parts, " ")
}

func capitalizeASCII(value string) string {
	switch len(value) {
	case 0:
		return ""
	case 1:
		return strings.ToUpper(value)
	default:
		lower := strings.ToLower(value)
		return strings.ToUpper(lower[:1]) + lower[1:]
	}
}

func infoSummaryKey(component, jobID string, attrs []kv) string {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		jobID = component
	}
	return jobID
}

func attrValue(attrs []kv, key string) string {
	for _, kv := range attrs {
		if kv.key == key {
			return attrString(kv.value)
		}
	}
	return ""
}
