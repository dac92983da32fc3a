package service

import (
	"bizledger/internal/apperr"
)

// RequestContext identifies who is acting and for which company. It is built
// once per request and passed to every service call.
type RequestContext struct {
	CompanyID uint
	UserID    uint
	Role      string
}

func (rc RequestContext) check() error {
	if rc.UserID == 0 {
		return apperr.Unauthenticated("session user is required")
	}
	if rc.CompanyID == 0 {
		return apperr.Validation("companyId is required")
	}
	return nil
}
