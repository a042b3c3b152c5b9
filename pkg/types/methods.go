package types

import "fmt"

// Method is one of the nine protocol request methods. The numeric value is
// the method's fixed slot in header bitmasks and origin arrays and must
// never change.
type Method uint8

const (
	MethodHead Method = iota
	MethodGet
	MethodPost
	MethodPut
	MethodPatch
	MethodDelete
	MethodOptions
	MethodLocate
	MethodDefine

	MethodCount = 9
)

func (m Method) String() string {
	switch m {
	case MethodHead:
		return "HEAD"
	case MethodGet:
		return "GET"
	case MethodPost:
		return "POST"
	case MethodPut:
		return "PUT"
	case MethodPatch:
		return "PATCH"
	case MethodDelete:
		return "DELETE"
	case MethodOptions:
		return "OPTIONS"
	case MethodLocate:
		return "LOCATE"
	case MethodDefine:
		return "DEFINE"
	}
	return fmt.Sprintf("Method(%d)", uint8(m))
}

// Bit returns the method's position in a MethodBitmask.
func (m Method) Bit() MethodBitmask {
	return 1 << m
}

// Mutates reports whether the method changes resource state. DEFINE counts:
// repointing the header is a mutation of the resource record.
func (m Method) Mutates() bool {
	switch m {
	case MethodPut, MethodPatch, MethodDelete, MethodDefine:
		return true
	}
	return false
}

// MethodBitmask is a 9-bit set of allowed methods, one bit per Method slot.
type MethodBitmask uint16

// AllMethods has every method bit set.
const AllMethods MethodBitmask = 1<<MethodCount - 1

// ReadMethods covers the non-mutating methods.
const ReadMethods = MethodBitmask(1<<MethodHead | 1<<MethodGet | 1<<MethodOptions | 1<<MethodLocate)

func (b MethodBitmask) Has(m Method) bool {
	return b&m.Bit() != 0
}

func (b MethodBitmask) With(m Method) MethodBitmask {
	return b | m.Bit()
}

func (b MethodBitmask) Without(m Method) MethodBitmask {
	return b &^ m.Bit()
}

// Methods lists the set bits in slot order.
func (b MethodBitmask) Methods() []Method {
	var out []Method
	for m := Method(0); m < MethodCount; m++ {
		if b.Has(m) {
			out = append(out, m)
		}
	}
	return out
}

// StatusCode is the terminal result of a protocol call.
type StatusCode uint16

const (
	StatusOK                  StatusCode = 200
	StatusCreated             StatusCode = 201
	StatusNoContent           StatusCode = 204
	StatusPartialContent      StatusCode = 206
	StatusMultipleChoices     StatusCode = 300 // produced by upload tooling, never by the core
	StatusMovedPermanently    StatusCode = 301
	StatusNotModified         StatusCode = 304
	StatusForbidden           StatusCode = 403
	StatusNotFound            StatusCode = 404
	StatusMethodNotAllowed    StatusCode = 405
	StatusRangeNotSatisfiable StatusCode = 416
	StatusPaymentRequired     StatusCode = 402
)

func (s StatusCode) Success() bool {
	return s >= 200 && s < 300
}
