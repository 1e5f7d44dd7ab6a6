package transbasket

import "strings"

// iso6392 is the set of ISO 639-2 bibliographic language codes accepted
// as request languages. It is a subset of the standard: codes missing
// from iso6392Codes (for example "haw") are rejected.
var iso6392 = map[string]struct{}{}

var iso6392Codes = []string{
	"aar", "abk", "ace", "ach", "ada", "ady", "afr", "aka", "alb", "amh",
	"ara", "arg", "arm", "asm", "ava", "ave", "aym", "aze", "bak", "bam",
	"baq", "bel", "ben", "bih", "bis", "bos", "bre", "bul", "bur", "cat",
	"ceb", "cha", "che", "chi", "chu", "chv", "cor", "cos", "cre", "cze",
	"dan", "div", "dut", "dzo", "eng", "epo", "est", "ewe", "fao", "fij",
	"fin", "fre", "fry", "ful", "geo", "ger", "gla", "gle", "glg", "glv",
	"gre", "grn", "guj", "hat", "hau", "heb", "her", "hin", "hmo", "hrv",
	"hun", "ibo", "ice", "ido", "iii", "iku", "ile", "ina", "ind", "ipk",
	"ita", "jav", "jpn", "kal", "kan", "kas", "kaz", "khm", "kik", "kin",
	"kir", "kom", "kon", "kor", "kua", "kur", "lao", "lat", "lav", "lim",
	"lin", "lit", "ltz", "lub", "lug", "mac", "mah", "mal", "mao", "mar",
	"may", "mlg", "mlt", "mon", "nau", "nav", "nbl", "nde", "ndo", "nep",
	"nno", "nob", "nor", "nya", "oci", "oji", "ori", "orm", "oss", "pan",
	"per", "pli", "pol", "por", "pus", "que", "roh", "rum", "run", "rus",
	"sag", "san", "sin", "slo", "slv", "sme", "smo", "sna", "snd", "som",
	"sot", "spa", "srd", "srp", "ssw", "sun", "swa", "swe", "tah", "tam",
	"tat", "tel", "tgk", "tgl", "tha", "tib", "tir", "ton", "tsn", "tso",
	"tuk", "tur", "twi", "uig", "ukr", "urd", "uzb", "ven", "vie", "vol",
	"wel", "wln", "wol", "xho", "yid", "yor", "zha", "zul",
}

func init() {
	for _, code := range iso6392Codes {
		iso6392[code] = struct{}{}
	}
}

// languageNames maps ISO 639-2 codes to human-readable names for AI prompts.
var languageNames = map[string]string{
	"eng": "English",
	"kor": "Korean",
	"jpn": "Japanese",
	"chi": "Chinese",
	"spa": "Spanish",
	"fre": "French",
	"ger": "German",
	"rus": "Russian",
	"ara": "Arabic",
	"por": "Portuguese",
	"ita": "Italian",
	"dut": "Dutch",
	"pol": "Polish",
	"tur": "Turkish",
	"vie": "Vietnamese",
	"tha": "Thai",
	"ind": "Indonesian",
	"may": "Malay",
	"hin": "Hindi",
	"ben": "Bengali",
}

// ValidLanguage reports whether code is a known ISO 639-2 language code.
// Comparison is case-insensitive; the stored form is lowercase.
func ValidLanguage(code string) bool {
	if len(code) != 3 {
		return false
	}
	_, ok := iso6392[strings.ToLower(code)]
	return ok
}

// LanguageName returns the human-readable name for an ISO 639-2 code.
// Falls back to the code itself if no name is known.
func LanguageName(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}

// NormalizeLanguage resolves a three-letter code or an English language
// name to its canonical lowercase ISO 639-2 code. The second return value
// is false when the input matches neither.
func NormalizeLanguage(input string) (string, bool) {
	if len(input) == 3 {
		lower := strings.ToLower(input)
		if _, ok := iso6392[lower]; ok {
			return lower, true
		}
		return "", false
	}
	for code, name := range languageNames {
		if strings.EqualFold(input, name) {
			return code, true
		}
	}
	return "", false
}
