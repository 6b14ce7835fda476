package token

// AdminValidator adapts Service to the middleware TokenValidator interface,
// exposing only the authenticated subject.
type AdminValidator struct {
	svc *Service
}

func NewAdminValidator(svc *Service) *AdminValidator {
	return &AdminValidator{svc: svc}
}

func (a *AdminValidator) ValidateToken(tokenString string) (string, error) {
	claims, err := a.svc.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
