// Package firestore provides a Firestore implementation of the
// entitlement.UserStore contract, for deployments that keep Ladle user
// documents in Google Cloud Firestore.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ladleapp/ladle-billing/pkg/entitlement"
)

// Store implements entitlement.UserStore using Google Cloud Firestore.
type Store struct {
	client          *firestore.Client
	usersCollection string
}

// Config holds Firestore store configuration.
type Config struct {
	// UsersCollection is the Firestore collection holding user documents.
	// Default: "users"
	UsersCollection string
}

// New creates a new Firestore user store.
func New(client *firestore.Client, config Config) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("firestore client is required")
	}
	if config.UsersCollection == "" {
		config.UsersCollection = "users"
	}
	return &Store{
		client:          client,
		usersCollection: config.UsersCollection,
	}, nil
}

// FindUserByIdentity implements entitlement.UserStore.
//
// User documents store the email lower-cased in the "email" field, so an
// equality query is a case-insensitive lookup.
func (s *Store) FindUserByIdentity(ctx context.Context, identity string) (*entitlement.User, error) {
	iter := s.client.Collection(s.usersCollection).
		Where("email", "==", strings.ToLower(identity)).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err != nil {
		if errors.Is(err, iterator.Done) || status.Code(err) == codes.NotFound {
			return nil, entitlement.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	data := snap.Data()
	user := &entitlement.User{
		ID:    snap.Ref.ID,
		Email: getString(data, "email"),
	}
	if isPro, ok := data["isPro"].(bool); ok {
		user.IsPro = isPro
	}
	return user, nil
}

// SetIsPro implements entitlement.UserStore.
func (s *Store) SetIsPro(ctx context.Context, userID string, isPro bool) error {
	_, err := s.client.Collection(s.usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "isPro", Value: isPro},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return entitlement.ErrUserNotFound
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func getString(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
