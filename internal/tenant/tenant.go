package tenant

import (
	"errors"
	"strings"
)

// A tenant is a distinct business account identified by the phone_number_id
// carried in webhook metadata. Every message and status update is routed on
// behalf of exactly one tenant.

// ErrMissingTenant indicates a change value that carries events but no
// phone_number_id to attribute them to.
var ErrMissingTenant = errors.New("tenant: metadata.phone_number_id missing")

// Resolve validates and returns the tenant id from webhook metadata.
func Resolve(phoneNumberID string) (string, error) {
	id := strings.TrimSpace(phoneNumberID)
	if id == "" {
		return "", ErrMissingTenant
	}
	return id, nil
}
