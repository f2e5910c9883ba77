package domain

import "errors"

var (
	ErrBackendNotConfigured = errors.New("commerce backend url is not configured, set MEDUSA_BACKEND_URL and define regions in the backend admin")
	ErrNoRegions            = errors.New("no regions found, set up regions in the backend admin")
	ErrMalformedRegions     = errors.New("malformed region list")
)
