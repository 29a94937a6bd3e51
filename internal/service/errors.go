package service

import (
	"github.com/dukerupert/daigou/internal/domain"
)

// Session errors - use domain.EINVALID
var (
	ErrInvalidSession = domain.Errorf(domain.EINVALID, "", "Worksheet session is invalid")
)
