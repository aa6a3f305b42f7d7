// Package voice resolves a dub job's target-language code to a synthesizer
// voice ID, per spec.md §6: a fixed map from ISO code to voice identifier,
// with an unrecognized code defaulting to English.
package voice

import "strings"

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	alt3    string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	words   []string // Full word forms (e.g. "english")
	voiceID string   // Default synthesizer voice ID for this language
}

var languages = []entry{
	{"en", "eng", "", []string{"english"}, "en-US-standard"},
	{"es", "spa", "", []string{"spanish"}, "es-ES-standard"},
	{"fr", "fra", "fre", []string{"french"}, "fr-FR-standard"},
	{"de", "deu", "ger", []string{"german"}, "de-DE-standard"},
	{"it", "ita", "", []string{"italian"}, "it-IT-standard"},
	{"pt", "por", "", []string{"portuguese"}, "pt-BR-standard"},
	{"ja", "jpn", "", []string{"japanese"}, "ja-JP-standard"},
	{"ko", "kor", "", []string{"korean"}, "ko-KR-standard"},
	{"zh", "zho", "chi", []string{"chinese"}, "zh-CN-standard"},
	{"ru", "rus", "", []string{"russian"}, "ru-RU-standard"},
	{"ar", "ara", "", []string{"arabic"}, "ar-XA-standard"},
	{"hi", "hin", "", []string{"hindi"}, "hi-IN-standard"},
	{"nl", "nld", "dut", []string{"dutch"}, "nl-NL-standard"},
	{"pl", "pol", "", []string{"polish"}, "pl-PL-standard"},
	{"sv", "swe", "", []string{"swedish"}, "sv-SE-standard"},
	{"da", "dan", "", []string{"danish"}, "da-DK-standard"},
	{"no", "nor", "", []string{"norwegian"}, "nb-NO-standard"},
	{"fi", "fin", "", []string{"finnish"}, "fi-FI-standard"},
}

const fallbackCode = "en"

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// toISO2 normalizes any recognized code or word form to its ISO 639-1
// (2-letter) form, passing an unrecognized 2-letter code through unchanged.
func toISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// ResolveVoiceID returns the synthesizer voice ID for the target language
// code, honoring an override map (typically config.Synthesizer.VoiceOverrides,
// keyed by lowercase ISO 639-1 code) before falling back to the built-in
// table. Unrecognized codes resolve to the English entry so a job never
// fails purely because of an obscure target-language tag.
func ResolveVoiceID(targetLanguage string, overrides map[string]string) string {
	code := toISO2(targetLanguage)
	if code == "" {
		code = fallbackCode
	}
	if overrides != nil {
		if id, ok := overrides[code]; ok && strings.TrimSpace(id) != "" {
			return id
		}
	}
	if e := lookup(code); e != nil {
		return e.voiceID
	}
	return lookup(fallbackCode).voiceID
}
