package billing

import (
	"strconv"

	"github.com/billfox-app/billfox/app/models"
)

// CustomerLinker resolves a provider customer/session to a local user.
// Resolution order: explicit user id from event metadata, then email exact
// match, then a user already linked to the provider customer id. The first
// match wins. A resolved user without a stored customer id gets linked on
// first sight; a stored id is never overwritten.
type CustomerLinker struct{}

// Resolve returns the matched user, or (nil, nil) when nothing matches.
// Callers must tolerate an unlinked record.
func (l *CustomerLinker) Resolve(r Repository, metadataUserID, email, customerID string) (*models.User, error) {
	user, err := l.lookup(r, metadataUserID, email, customerID)
	if err != nil || user == nil {
		return user, err
	}

	if customerID != "" && !user.HasExternalCustomerID() {
		if err := r.SetUserExternalCustomerID(user, customerID); err != nil {
			return nil, err
		}
	}
	return user, nil
}

func (l *CustomerLinker) lookup(r Repository, metadataUserID, email, customerID string) (*models.User, error) {
	if metadataUserID != "" {
		// Metadata carries the local primary key as a decimal string;
		// anything else falls through to the other strategies.
		if id, err := strconv.ParseUint(metadataUserID, 10, 64); err == nil {
			user, err := r.FindUserByID(uint(id))
			if err != nil {
				return nil, err
			}
			if user != nil {
				return user, nil
			}
		}
	}

	if email != "" {
		user, err := r.FindUserByEmail(email)
		if err != nil {
			return nil, err
		}
		if user != nil {
			return user, nil
		}
	}

	if customerID != "" {
		return r.FindUserByExternalCustomerID(customerID)
	}
	return nil, nil
}
