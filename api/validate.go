package api

import (
	"regexp"
	"strconv"

	"github.com/adeilh/go-insee/httpx"
)

// communeCode matches INSEE commune codes: five digits, or 2A/2B followed by
// three digits for Corsica.
var communeCode = regexp.MustCompile(`^(\d{5}|2[AB]\d{3})$`)

// ValidateCommuneCode rejects requests whose :codeCommune segment is not a
// commune code. Routes without that parameter pass through.
func ValidateCommuneCode(c httpx.Context) error {
	for _, name := range c.ParamNames() {
		if name != "codeCommune" {
			continue
		}
		if code := c.Param(name); !communeCode.MatchString(code) {
			return badRequest("invalid codeCommune: " + strconv.Quote(code))
		}
	}
	return nil
}

// Validators are the request checks the routes rely on; pass them to
// httpx.WithValidators.
func (h *Handler) Validators() []httpx.Validator {
	return []httpx.Validator{ValidateCommuneCode}
}
