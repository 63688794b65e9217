package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/toolbridge/gateway/internal/store"
)

type fakeStore struct {
	users         map[int64]store.User
	endpoints     map[string]store.Endpoint
	microservices map[int64]store.Microservice
	systemCodes   map[int64]string
	userSystems   map[int64][]string
	endpointRoles map[int64][]string
	endpointGrps  map[int64][]string
	userRoles     map[int64][]string
	userGrpRoles  map[int64][]string
}

func (f *fakeStore) GetUserByID(_ context.Context, id int64) (store.User, error) {
	u, ok := f.users[id]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) GetEndpointByURL(_ context.Context, url string) (store.Endpoint, error) {
	e, ok := f.endpoints[url]
	if !ok {
		return store.Endpoint{}, store.ErrNotFound
	}
	return e, nil
}

func (f *fakeStore) UserSystemCodes(_ context.Context, userID int64) ([]string, error) {
	return f.userSystems[userID], nil
}

func (f *fakeStore) GetMicroserviceForEndpoint(_ context.Context, endpointID int64) (store.Microservice, error) {
	m, ok := f.microservices[endpointID]
	if !ok {
		return store.Microservice{}, store.ErrNotFound
	}
	return m, nil
}

func (f *fakeStore) SystemCodeForMicroservice(_ context.Context, microserviceID int64) (string, error) {
	code, ok := f.systemCodes[microserviceID]
	if !ok {
		return "", store.ErrNotFound
	}
	return code, nil
}

func (f *fakeStore) EndpointRoleNames(_ context.Context, endpointID int64) ([]string, error) {
	return f.endpointRoles[endpointID], nil
}

func (f *fakeStore) EndpointGroupRoleNames(_ context.Context, endpointID int64) ([]string, error) {
	return f.endpointGrps[endpointID], nil
}

func (f *fakeStore) UserRoleNames(_ context.Context, userID int64) ([]string, error) {
	return f.userRoles[userID], nil
}

func (f *fakeStore) UserGroupRoleNames(_ context.Context, userID int64) ([]string, error) {
	return f.userGrpRoles[userID], nil
}

func baseFixture() *fakeStore {
	return &fakeStore{
		users: map[int64]store.User{
			1: {ID: 1, Email: "super@x.com", IsActive: true, IsSuperuser: true},
			2: {ID: 2, Email: "plain@x.com", IsActive: true, IsSuperuser: false},
			3: {ID: 3, Email: "noentitle@x.com", IsActive: true, IsSuperuser: false},
		},
		endpoints: map[string]store.Endpoint{
			"/notes": {ID: 10, URL: "/notes", MicroserviceID: 100},
		},
		microservices: map[int64]store.Microservice{
			10: {ID: 100, SystemID: 1000},
		},
		systemCodes: map[int64]string{100: "SYS"},
		userSystems: map[int64][]string{
			2: {"SYS"},
			3: {"OTHER"},
		},
		endpointRoles: map[int64][]string{},
		userRoles:     map[int64][]string{},
	}
}

func TestUserAccessControl_AllowlistShortCircuits(t *testing.T) {
	e := New(baseFixture())
	ok, err := e.UserAccessControl(context.Background(), 3, "/authentication/renew/token")
	if err != nil || !ok {
		t.Fatalf("expected allowlisted path to be allowed, got ok=%v err=%v", ok, err)
	}
}

func TestUserAccessControl_SuperuserShortCircuits(t *testing.T) {
	e := New(baseFixture())
	ok, err := e.UserAccessControl(context.Background(), 1, "/gateway/anything/at/all")
	if err != nil || !ok {
		t.Fatalf("expected superuser to be allowed, got ok=%v err=%v", ok, err)
	}
}

func TestUserAccessControl_EndpointNotFound(t *testing.T) {
	e := New(baseFixture())
	_, err := e.UserAccessControl(context.Background(), 2, "/gateway/unknown/path")
	if !errors.Is(err, ErrEndpointNotFound) {
		t.Fatalf("expected ErrEndpointNotFound, got %v", err)
	}
}

func TestUserAccessControl_NoEntitlementDenies(t *testing.T) {
	e := New(baseFixture())
	ok, err := e.UserAccessControl(context.Background(), 3, "/gateway/notes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected deny when user system entitlement doesn't match")
	}
}

func TestUserAccessControl_EmptyPolicyAllowsOnEntitlementMatch(t *testing.T) {
	e := New(baseFixture())
	ok, err := e.UserAccessControl(context.Background(), 2, "/gateway/notes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected allow for endpoint with no roles/groups when system entitlement matches")
	}
}

func TestUserAccessControl_RoleIntersectionRequired(t *testing.T) {
	f := baseFixture()
	f.endpointRoles[10] = []string{"editor"}
	e := New(f)

	ok, err := e.UserAccessControl(context.Background(), 2, "/gateway/notes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected deny: user has no matching role")
	}

	f.userRoles[2] = []string{"editor"}
	ok, err = e.UserAccessControl(context.Background(), 2, "/gateway/notes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected allow once user role intersects endpoint role")
	}
}
