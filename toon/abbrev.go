package toon

// ============================================================
// Abbreviation Table
// ============================================================
//
// Static bijection between common field names and short codes. Built once
// at init, never mutated. The code namespace is disjoint from the payload
// sigils (~ T F ^ $ @ !) and from the reserved envelope/section markers.
//
// A literal key that happens to equal a reserved code, or a reserved
// marker, or starts with the escape sigil, is written with a leading "!"
// so decode never confuses it with an abbreviation.

// abbrevPairs is the canonical-key → code table in registration order.
// Codes must be unique; init panics otherwise.
var abbrevPairs = [][2]string{
	// Core fields
	{"id", "i"}, {"identifier", "idf"}, {"uuid", "uid"}, {"guid", "gid"},
	{"name", "n"}, {"title", "ttl"}, {"label", "lbl"}, {"description", "dsc"},
	{"type", "t"}, {"kind", "knd"}, {"category", "cat"}, {"class", "cls"},
	{"value", "v"}, {"data", "dta"}, {"content", "ctt"}, {"text", "txt"},

	// Status and state
	{"status", "s"}, {"state", "st"}, {"enabled", "en"}, {"disabled", "dis"},
	{"active", "act"}, {"inactive", "inact"}, {"visible", "vis"}, {"hidden", "hid"},
	{"valid", "vld"}, {"invalid", "invld"}, {"pending", "pnd"}, {"complete", "cmp"},

	// Metadata
	{"metadata", "meta"}, {"attributes", "attr"}, {"properties", "prop"},
	{"configuration", "cfg"}, {"settings", "set"}, {"options", "opt"},
	{"parameters", "prm"}, {"arguments", "arg"}, {"flags", "flg"},

	// Timestamps
	{"timestamp", "ts"}, {"created_at", "ca"}, {"updated_at", "ua"},
	{"deleted_at", "da"}, {"modified_at", "ma"}, {"published_at", "pa"},
	{"created", "crt"}, {"updated", "upd"}, {"modified", "mod"},
	{"created_by", "cb"}, {"updated_by", "ub"}, {"modified_by", "mb"},

	// User/account fields
	{"user", "usr"}, {"username", "unm"}, {"email", "eml"}, {"password", "pwd"},
	{"first_name", "fn"}, {"last_name", "ln"}, {"full_name", "fnm"},
	{"display_name", "dnm"}, {"nickname", "nnm"}, {"avatar", "avt"},
	{"profile", "prf"}, {"account", "acc"}, {"role", "rol"}, {"permission", "perm"},

	// Contact info
	{"phone", "ph"}, {"mobile", "mob"}, {"telephone", "tel"}, {"fax", "fx"},
	{"address", "addr"}, {"street", "strt"}, {"city", "cty"}, {"country", "ctry"},
	{"postal_code", "pc"}, {"zip_code", "zc"},

	// Location/geography
	{"latitude", "lat"}, {"longitude", "lng"}, {"altitude", "alt"},
	{"coordinates", "coord"}, {"location", "loc"}, {"position", "pos"},
	{"region", "rgn"}, {"zone", "zn"}, {"area", "ar"},

	// Measurements
	{"width", "w"}, {"height", "h"}, {"depth", "dpt"}, {"length", "l"},
	{"size", "sz"}, {"weight", "wt"}, {"volume", "vol"}, {"capacity", "cap"},
	{"distance", "dst"}, {"duration", "dur"}, {"quantity", "qty"},

	// API/response fields
	{"message", "m"}, {"error", "err"}, {"errors", "errs"}, {"warning", "wrn"},
	{"success", "suc"}, {"failure", "fail"}, {"result", "res"}, {"results", "rslts"},
	{"response", "rsp"}, {"request", "req"}, {"code", "cde"}, {"status_code", "sc"},

	// Pagination
	{"page", "pg"}, {"per_page", "pp"}, {"total", "tot"}, {"count", "cnt"},
	{"total_pages", "tp"}, {"total_count", "tc"}, {"limit", "lmt"}, {"offset", "ofs"},
	{"next", "nxt"}, {"previous", "prv"}, {"first", "fst"}, {"last", "lst"},

	// Collections
	{"items", "itm"}, {"list", "lis"}, {"array", "arr"}, {"collection", "coll"},
	{"children", "ch"}, {"parent", "par"}, {"siblings", "sib"}, {"ancestors", "anc"},

	// Indexing
	{"index", "idx"}, {"order", "ord"}, {"rank", "rnk"},
	{"priority", "pri"}, {"sequence", "seq"}, {"level", "lvl"},

	// URL/media
	{"url", "u"}, {"uri", "ur"}, {"link", "lnk"}, {"href", "hrf"},
	{"image", "img"}, {"thumbnail", "thb"}, {"icon", "icn"}, {"logo", "lgo"},
	{"video", "vid"}, {"audio", "aud"}, {"file", "fil"}, {"document", "dcm"},

	// Database
	{"table", "tbl"}, {"column", "col"}, {"row", "rw"}, {"field", "fld"},
	{"primary_key", "pk"}, {"foreign_key", "fk"}, {"unique", "unq"},

	// Financial
	{"price", "prc"}, {"cost", "cst"}, {"amount", "amt"},
	{"subtotal", "sub"}, {"tax", "tx"}, {"discount", "disc"}, {"currency", "cur"},

	// Boolean/logic
	{"is_active", "ia"}, {"is_valid", "iv"}, {"is_deleted", "idl"},
	{"has_children", "hc"}, {"can_edit", "ce"}, {"can_delete", "cdl"},

	// Version control
	{"version", "ver"}, {"revision", "rev"}, {"branch", "brn"}, {"commit", "cmt"},
}

var (
	keyToCode map[string]string
	codeToKey map[string]string
)

func init() {
	keyToCode = make(map[string]string, len(abbrevPairs))
	codeToKey = make(map[string]string, len(abbrevPairs))
	for _, p := range abbrevPairs {
		key, code := p[0], p[1]
		if _, dup := keyToCode[key]; dup {
			panic("toon: duplicate abbreviation key: " + key)
		}
		if _, dup := codeToKey[code]; dup {
			panic("toon: duplicate abbreviation code: " + code)
		}
		keyToCode[key] = code
		codeToKey[code] = key
	}
}

// Abbreviation returns the short code for a canonical key.
func Abbreviation(key string) (string, bool) {
	code, ok := keyToCode[key]
	return code, ok
}

// CanonicalKey returns the canonical key for a short code.
func CanonicalKey(code string) (string, bool) {
	key, ok := codeToKey[code]
	return key, ok
}

// IsReservedCode reports whether code is a reserved abbreviation code.
func IsReservedCode(code string) bool {
	_, ok := codeToKey[code]
	return ok
}

// AbbreviationCount returns the number of table entries.
func AbbreviationCount() int {
	return len(abbrevPairs)
}

// reservedMarkers are envelope/section keys that may never appear as plain
// literal keys in an encoded mapping.
var reservedMarkers = map[string]bool{
	markVersion: true,
	markLevel:   true,
	markPayload: true,
	markDict:    true,
	markRefs:    true,
	markZlib:    true,
	markSchema:  true,
	markRows:    true,
	markOpt:     true,
}

// encodeKey maps a literal mapping key to its wire form: abbreviation if the
// table knows it, escaped if it would collide with a code or marker, literal
// otherwise.
func encodeKey(key string) string {
	if code, ok := keyToCode[key]; ok {
		return code
	}
	if keyNeedsEscape(key) {
		return sigilEscape + key
	}
	return key
}

func keyNeedsEscape(key string) bool {
	if key == "" {
		return false
	}
	if key[0] == '!' {
		return true
	}
	if _, collides := codeToKey[key]; collides {
		return true
	}
	return reservedMarkers[key]
}

// decodeKey restores a wire key. Unknown codes are tolerated and come back
// as literal keys.
func decodeKey(wire string) string {
	if len(wire) > 0 && wire[0] == '!' {
		return wire[1:]
	}
	if key, ok := codeToKey[wire]; ok {
		return key
	}
	return wire
}
