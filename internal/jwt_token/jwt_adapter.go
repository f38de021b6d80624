package jwttoken

import (
	authmw "ascend/pkg/platform/middleware/auth"
)

// JWTServiceAdapter lets RequireAuth validate participant tokens without
// depending on the jwt library.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

// ValidateToken keeps only what the middleware places on the context.
func (a *JWTServiceAdapter) ValidateToken(raw string) (*authmw.JWTClaims, error) {
	c, err := a.service.ValidateToken(raw)
	if err != nil {
		return nil, err
	}
	return &authmw.JWTClaims{ParticipantID: c.ParticipantID, JTI: c.ID}, nil
}
