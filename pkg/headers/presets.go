package headers

import "github.com/perma-web/wttp/pkg/types"

// Preset expansion. A preset is a construction convenience: the expanded
// struct is what gets content-addressed, so two headers built from the
// same preset are identical.

// ExpandCachePreset fills the cache-control fields for a preset. Custom
// directives survive expansion untouched.
func ExpandCachePreset(c types.CacheControl) types.CacheControl {
	switch c.Preset {
	case types.CachePresetNoCache:
		c.Custom = "no-cache"
	case types.CachePresetDefault:
		c.Custom = "max-age=3600"
	case types.CachePresetShort:
		c.Custom = "max-age=300"
	case types.CachePresetMedium:
		c.Custom = "max-age=86400"
	case types.CachePresetLong:
		c.Custom = "max-age=604800"
	case types.CachePresetPermanent:
		c.Custom = "max-age=31536000, immutable"
		c.Immutable = true
	}
	return c
}

// ExpandCORSPreset fills the method bitmask and origin roles for a preset.
// adminRole is the role granted write access by the non-public presets.
func ExpandCORSPreset(c types.CORSPolicy, adminRole types.Role) types.CORSPolicy {
	switch c.Preset {
	case types.CORSPresetPublicRead:
		c.Methods = types.ReadMethods
		c.Origins = types.PublicOrigins()
	case types.CORSPresetPublicReadWrite:
		c.Methods = types.AllMethods
		c.Origins = types.PublicOrigins()
	case types.CORSPresetPrivate:
		c.Methods = types.AllMethods
		c.Origins = types.PublicOrigins()
		for _, m := range []types.Method{types.MethodPut, types.MethodPatch, types.MethodDelete, types.MethodDefine} {
			c.Origins[m] = adminRole
		}
	case types.CORSPresetAdminOnly:
		c.Methods = types.AllMethods
		c.Origins = types.OriginsForAll(adminRole)
	}
	return c
}

// NewHeader builds a fully expanded header from presets.
func NewHeader(cachePreset types.CachePreset, corsPreset types.CORSPreset, adminRole types.Role) types.HeaderInfo {
	return types.HeaderInfo{
		Cache: ExpandCachePreset(types.CacheControl{Preset: cachePreset}),
		CORS:  ExpandCORSPreset(types.CORSPolicy{Preset: corsPreset}, adminRole),
	}
}
