package types

// CachePreset selects a canned cache-control policy. Presets are expanded
// into the concrete fields at header-construction time; the stored header
// is always the expanded struct.
type CachePreset uint8

const (
	CachePresetNone CachePreset = iota
	CachePresetNoCache
	CachePresetDefault
	CachePresetShort
	CachePresetMedium
	CachePresetLong
	CachePresetPermanent
)

func (p CachePreset) String() string {
	switch p {
	case CachePresetNone:
		return "None"
	case CachePresetNoCache:
		return "NoCache"
	case CachePresetDefault:
		return "Default"
	case CachePresetShort:
		return "Short"
	case CachePresetMedium:
		return "Medium"
	case CachePresetLong:
		return "Long"
	case CachePresetPermanent:
		return "Permanent"
	}
	return "Unknown"
}

// CacheControl is the caching slice of a header. Immutable marks the
// resource read-only for every caller, super-admin included.
type CacheControl struct {
	Immutable bool        `cbor:"1,keyasint"`
	Preset    CachePreset `cbor:"2,keyasint"`
	Custom    string      `cbor:"3,keyasint"`
}

// CORSPreset selects a canned access policy.
type CORSPreset uint8

const (
	CORSPresetNone CORSPreset = iota
	CORSPresetPublicRead
	CORSPresetPublicReadWrite
	CORSPresetPrivate
	CORSPresetAdminOnly
)

func (p CORSPreset) String() string {
	switch p {
	case CORSPresetNone:
		return "None"
	case CORSPresetPublicRead:
		return "PublicRead"
	case CORSPresetPublicReadWrite:
		return "PublicReadWrite"
	case CORSPresetPrivate:
		return "Private"
	case CORSPresetAdminOnly:
		return "AdminOnly"
	}
	return "Unknown"
}

// CORSPolicy holds the allowed-method bitmask and the role required to
// invoke each method, indexed by the method's fixed slot.
type CORSPolicy struct {
	Methods MethodBitmask     `cbor:"1,keyasint"`
	Origins [MethodCount]Role `cbor:"2,keyasint"`
	Preset  CORSPreset        `cbor:"3,keyasint"`
	Custom  string            `cbor:"4,keyasint"`
}

// Redirect short-circuits every method on the resource when Code is
// non-zero.
type Redirect struct {
	Code     uint16 `cbor:"1,keyasint"`
	Location string `cbor:"2,keyasint"`
}

// HeaderInfo is the full per-resource policy header. Headers are
// content-addressed and immutable; a policy change stores a new header and
// repoints the resource.
type HeaderInfo struct {
	Cache    CacheControl `cbor:"1,keyasint"`
	CORS     CORSPolicy   `cbor:"2,keyasint"`
	Redirect Redirect     `cbor:"3,keyasint"`
}

// PublicOrigins fills every method slot with PublicRole.
func PublicOrigins() [MethodCount]Role {
	var out [MethodCount]Role
	for i := range out {
		out[i] = PublicRole
	}
	return out
}

// OriginsForAll fills every method slot with the given role.
func OriginsForAll(r Role) [MethodCount]Role {
	var out [MethodCount]Role
	for i := range out {
		out[i] = r
	}
	return out
}
