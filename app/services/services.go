// Package services holds the storefront's business rules. Services receive
// the caller's auth.Identity explicitly and talk to storage only through
// repository interfaces.
package services

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/errs"
)

// parseID converts a hex document id, rejecting malformed ones.
func parseID(field, hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, errs.Validation("Invalid %s: %q is not a valid id", field, hex)
	}
	return id, nil
}

func requireUser(id auth.Identity) (primitive.ObjectID, error) {
	if id.Anonymous() {
		return primitive.NilObjectID, errs.Unauthorized("Authentication required")
	}
	uid, err := primitive.ObjectIDFromHex(id.UserID)
	if err != nil {
		return primitive.NilObjectID, errs.Unauthorized("Token does not identify a user")
	}
	return uid, nil
}

func requireAdmin(id auth.Identity) error {
	if id.Anonymous() {
		return errs.Unauthorized("Authentication required")
	}
	if !id.IsAdmin() {
		return errs.Forbidden("Administrator access required")
	}
	return nil
}

// storeErr classifies a repository error. notFound is the message used when
// the document is missing.
func storeErr(op string, err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return errs.NotFound("%s", notFound)
	case errors.Is(err, repositories.ErrDuplicate):
		return errs.Conflict("A record with the same unique value already exists")
	}
	return fmt.Errorf("services: %s: %w", op, err)
}
