// Package authz is the authorization engine: it combines user↔role,
// user↔group, group↔role, endpoint↔role, endpoint↔group, user↔system, and
// endpoint↔microservice↔system relations to decide whether a principal may
// invoke a path.
package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/toolbridge/gateway/internal/store"
)

// ErrEndpointNotFound surfaces as 404 at the caller.
var ErrEndpointNotFound = errors.New("endpoint not found")

// allowlist bypasses the policy engine entirely (spec §4.4 step 1).
var allowlist = map[string]struct{}{
	"/administration/users/get_current_user": {},
	"/authentication/renew/token":            {},
	"/authentication/keys/public_key":        {},
}

// reader is the slice of the persistence adapter the engine depends on,
// kept narrow so tests can supply an in-memory fake instead of a live
// Postgres instance.
type reader interface {
	GetUserByID(ctx context.Context, id int64) (store.User, error)
	GetEndpointByURL(ctx context.Context, url string) (store.Endpoint, error)
	UserSystemCodes(ctx context.Context, userID int64) ([]string, error)
	GetMicroserviceForEndpoint(ctx context.Context, endpointID int64) (store.Microservice, error)
	SystemCodeForMicroservice(ctx context.Context, microserviceID int64) (string, error)
	EndpointRoleNames(ctx context.Context, endpointID int64) ([]string, error)
	EndpointGroupRoleNames(ctx context.Context, endpointID int64) ([]string, error)
	UserRoleNames(ctx context.Context, userID int64) ([]string, error)
	UserGroupRoleNames(ctx context.Context, userID int64) ([]string, error)
}

// Engine is constructor-injected with the store collaborator rather than
// reached for as a module-level singleton.
type Engine struct {
	store reader
}

func New(s reader) *Engine {
	return &Engine{store: s}
}

// UserAccessControl implements the seven-step decision procedure from
// spec §4.4 exactly.
func (e *Engine) UserAccessControl(ctx context.Context, userID int64, path string) (bool, error) {
	if _, ok := allowlist[path]; ok {
		return true, nil
	}

	user, err := e.store.GetUserByID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("authz: load user: %w", err)
	}
	if user.IsActive && user.IsSuperuser {
		return true, nil
	}

	endpointURL := strings.TrimPrefix(path, "/gateway")
	if endpointURL == "" {
		endpointURL = "/"
	}
	endpoint, err := e.store.GetEndpointByURL(ctx, endpointURL)
	if errors.Is(err, store.ErrNotFound) {
		return false, ErrEndpointNotFound
	}
	if err != nil {
		return false, fmt.Errorf("authz: load endpoint: %w", err)
	}

	userSystems, err := e.store.UserSystemCodes(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("authz: load user systems: %w", err)
	}
	if len(userSystems) == 0 {
		return false, nil
	}

	microservice, err := e.store.GetMicroserviceForEndpoint(ctx, endpoint.ID)
	if err != nil {
		return false, fmt.Errorf("authz: resolve microservice: %w", err)
	}
	microserviceSystemCode, err := e.store.SystemCodeForMicroservice(ctx, microservice.ID)
	if err != nil {
		return false, fmt.Errorf("authz: resolve microservice system: %w", err)
	}

	if !contains(userSystems, microserviceSystemCode) {
		return false, nil
	}

	endpointRoles, err := e.store.EndpointRoleNames(ctx, endpoint.ID)
	if err != nil {
		return false, fmt.Errorf("authz: load endpoint roles: %w", err)
	}
	endpointGroupRoles, err := e.store.EndpointGroupRoleNames(ctx, endpoint.ID)
	if err != nil {
		return false, fmt.Errorf("authz: load endpoint group roles: %w", err)
	}
	endpointPolicy := union(endpointRoles, endpointGroupRoles)
	if len(endpointPolicy) == 0 {
		return true, nil
	}

	userRoles, err := e.store.UserRoleNames(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("authz: load user roles: %w", err)
	}
	userGroupRoles, err := e.store.UserGroupRoleNames(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("authz: load user group roles: %w", err)
	}
	userPolicy := union(userRoles, userGroupRoles)

	return intersects(userPolicy, endpointPolicy), nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func union(a, b []string) map[string]struct{} {
	out := make(map[string]struct{}, len(a)+len(b))
	for _, v := range a {
		out[v] = struct{}{}
	}
	for _, v := range b {
		out[v] = struct{}{}
	}
	return out
}

func intersects(set map[string]struct{}, other map[string]struct{}) bool {
	for v := range set {
		if _, ok := other[v]; ok {
			return true
		}
	}
	return false
}
