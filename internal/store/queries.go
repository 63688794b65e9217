package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a lookup by unique key matches no row.
var ErrNotFound = errors.New("not found")

// ErrAmbiguousMicroservice is returned when an endpoint resolves to more
// than one microservice, preserving the source's scalar_one contract
// (see spec's Open Questions on get_microservices).
var ErrAmbiguousMicroservice = errors.New("ambiguous microservice selection")

// Store is the persistence adapter. A single *pgxpool.Pool backs all
// queries; the pool manages its own connection lifecycle (see internal/db).
type Store struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// GetEndpointByURL looks up an Endpoint by its exact, already-stripped URL.
func (s *Store) GetEndpointByURL(ctx context.Context, url string) (Endpoint, error) {
	var e Endpoint
	err := s.db.QueryRow(ctx, `
		SELECT id, name, url, method, parameters, status, authenticated, microservice_id
		FROM endpoints
		WHERE url = $1
	`, url).Scan(&e.ID, &e.Name, &e.URL, &e.Method, &e.Parameters, &e.Status, &e.Authenticated, &e.MicroserviceID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Endpoint{}, ErrNotFound
	}
	if err != nil {
		return Endpoint{}, fmt.Errorf("get endpoint by url: %w", err)
	}
	return e, nil
}

// GetMicroserviceForEndpoint resolves the single microservice owning an
// endpoint. Each endpoint carries exactly one microservice_id FK, so this
// is normally a one-row result; preserved as an explicit count check rather
// than folding ambiguity away, per the source's scalar_one contract.
func (s *Store) GetMicroserviceForEndpoint(ctx context.Context, endpointID int64) (Microservice, error) {
	rows, err := s.db.Query(ctx, `
		SELECT m.id, m.name, m.base_url, m.status, m.weight, m.system_id
		FROM microservices m
		JOIN endpoints e ON e.microservice_id = m.id
		WHERE e.id = $1
	`, endpointID)
	if err != nil {
		return Microservice{}, fmt.Errorf("get microservice for endpoint: %w", err)
	}
	defer rows.Close()

	var found []Microservice
	for rows.Next() {
		var m Microservice
		if err := rows.Scan(&m.ID, &m.Name, &m.BaseURL, &m.Status, &m.Weight, &m.SystemID); err != nil {
			return Microservice{}, fmt.Errorf("scan microservice: %w", err)
		}
		found = append(found, m)
	}
	if err := rows.Err(); err != nil {
		return Microservice{}, err
	}

	switch len(found) {
	case 0:
		return Microservice{}, ErrNotFound
	case 1:
		return found[0], nil
	default:
		return Microservice{}, ErrAmbiguousMicroservice
	}
}

// SystemCodeForMicroservice returns the system_code of the System owning
// the given microservice.
func (s *Store) SystemCodeForMicroservice(ctx context.Context, microserviceID int64) (string, error) {
	var code string
	err := s.db.QueryRow(ctx, `
		SELECT sy.system_code
		FROM systems sy
		JOIN microservices m ON m.system_id = sy.id
		WHERE m.id = $1
	`, microserviceID).Scan(&code)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("system code for microservice: %w", err)
	}
	return code, nil
}

// GetUserByEmail fetches a User by email, the identity lookup key for both
// login and JWT claim resolution.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.db.QueryRow(ctx, `
		SELECT id, email, password, is_active, is_superuser
		FROM users
		WHERE email = $1
	`, email).Scan(&u.ID, &u.Email, &u.Password, &u.IsActive, &u.IsSuperuser)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// GetUserByID fetches a User by primary key, used by the authorization
// engine once the auth middleware has resolved an email claim to an id.
func (s *Store) GetUserByID(ctx context.Context, id int64) (User, error) {
	var u User
	err := s.db.QueryRow(ctx, `
		SELECT id, email, password, is_active, is_superuser
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.Password, &u.IsActive, &u.IsSuperuser)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// EmailExists is the duplicate-email check for register.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("email exists: %w", err)
	}
	return exists, nil
}

// CreateUser inserts a new User row with an already-hashed password.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) (User, error) {
	u := User{Email: email, Password: passwordHash, IsActive: true}
	err := s.db.QueryRow(ctx, `
		INSERT INTO users (email, password, is_active, is_superuser)
		VALUES ($1, $2, true, false)
		RETURNING id, is_active, is_superuser
	`, email, passwordHash).Scan(&u.ID, &u.IsActive, &u.IsSuperuser)
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// UserSystemCodes returns the set of system_code entitlements of a user via
// the users_systems bridge table.
func (s *Store) UserSystemCodes(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT sy.system_code
		FROM systems sy
		JOIN users_systems us ON us.system_id = sy.id
		WHERE us.user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("user system codes: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

// UserRoleNames returns roles directly attached to the user via users_roles.
func (s *Store) UserRoleNames(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT r.role_name
		FROM roles r
		JOIN users_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("user role names: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

// UserGroupRoleNames returns roles reached through the user's groups
// (users_groups -> groups_roles -> roles).
func (s *Store) UserGroupRoleNames(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT r.role_name
		FROM roles r
		JOIN groups_roles gr ON gr.role_id = r.id
		JOIN users_groups ug ON ug.group_id = gr.group_id
		WHERE ug.user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("user group role names: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

// UserGroupNames returns the group names directly attached to the user,
// used by the login claims map (roles, groups, systems per spec §4.8).
func (s *Store) UserGroupNames(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT g.group_name
		FROM groups g
		JOIN users_groups ug ON ug.group_id = g.id
		WHERE ug.user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("user group names: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

// EndpointRoleNames returns roles directly attached to the endpoint via
// endpoints_roles.
func (s *Store) EndpointRoleNames(ctx context.Context, endpointID int64) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT r.role_name
		FROM roles r
		JOIN endpoints_roles er ON er.role_id = r.id
		WHERE er.endpoint_id = $1
	`, endpointID)
	if err != nil {
		return nil, fmt.Errorf("endpoint role names: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

// EndpointGroupRoleNames returns roles of groups attached to the endpoint
// (endpoints_groups -> groups_roles -> roles). This is the resolution of
// the source's dubious self-join: "roles of groups attached to the
// endpoint" per the adopted reading.
func (s *Store) EndpointGroupRoleNames(ctx context.Context, endpointID int64) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT r.role_name
		FROM roles r
		JOIN groups_roles gr ON gr.role_id = r.id
		JOIN endpoints_groups eg ON eg.group_id = gr.group_id
		WHERE eg.endpoint_id = $1
	`, endpointID)
	if err != nil {
		return nil, fmt.Errorf("endpoint group role names: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

// EndpointsManifestForSystem returns every endpoint of every microservice
// owned by the given system, with its name, URL, system code, roles, and
// groups — the manifest embedded in a login response (spec §4.8 step 4).
func (s *Store) EndpointsManifestForSystem(ctx context.Context, systemCode string) ([]EndpointManifestItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT e.id, COALESCE(e.name, e.url), e.url, sy.system_code
		FROM endpoints e
		JOIN microservices m ON m.id = e.microservice_id
		JOIN systems sy ON sy.id = m.system_id
		WHERE sy.system_code = $1
	`, systemCode)
	if err != nil {
		return nil, fmt.Errorf("endpoints manifest: %w", err)
	}
	defer rows.Close()

	type row struct {
		id         int64
		name       string
		url        string
		systemCode string
	}
	var collected []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.name, &r.url, &r.systemCode); err != nil {
			return nil, fmt.Errorf("scan endpoint manifest row: %w", err)
		}
		collected = append(collected, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	manifest := make([]EndpointManifestItem, 0, len(collected))
	for _, r := range collected {
		roles, err := s.EndpointRoleNames(ctx, r.id)
		if err != nil {
			return nil, err
		}
		groups, err := s.endpointGroupNames(ctx, r.id)
		if err != nil {
			return nil, err
		}
		manifest = append(manifest, EndpointManifestItem{
			EndpointName: r.name,
			EndpointURL:  r.url,
			SystemCode:   r.systemCode,
			Roles:        roles,
			Groups:       groups,
		})
	}
	return manifest, nil
}

func (s *Store) endpointGroupNames(ctx context.Context, endpointID int64) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT g.group_name
		FROM groups g
		JOIN endpoints_groups eg ON eg.group_id = g.id
		WHERE eg.endpoint_id = $1
	`, endpointID)
	if err != nil {
		return nil, fmt.Errorf("endpoint group names: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

// RecordMovement writes one audit row. Callers treat failures as
// non-fatal — logged, never surfaced to the client — since the audit
// trail is a side channel to the admission decision (supplemented feature,
// see SPEC_FULL.md).
func (s *Store) RecordMovement(ctx context.Context, m HistoricalMovement) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO historical_movements (user_id, url_request, type_request, system, user_ip, user_browser, query, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, m.UserID, m.URLRequest, m.Method, m.System, m.ClientIP, m.UserAgent, m.Query, m.Details)
	if err != nil {
		return fmt.Errorf("record movement: %w", err)
	}
	return nil
}

func scanStrings(rows pgx.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan string: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
