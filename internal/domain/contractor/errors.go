package contractor

import "errors"

var (
	ErrContractorNotFound   = errors.New("contractor not found")
	ErrContractorInactive   = errors.New("contractor is inactive")
	ErrInvalidContractRange = errors.New("contract end must not be before contract start")
	ErrContractorOnly       = errors.New("only contractors have a contractor profile")
)
