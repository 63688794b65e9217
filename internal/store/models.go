// Package store is the persistence adapter: flat SQL joins over the
// System/Microservice/Endpoint/Role/Group/User relational model, returning
// plain structs rather than a lazily-traversed object graph.
package store

import "time"

// System is the fundamental unit of policy partitioning.
type System struct {
	ID          int64
	SystemCode  string
	NameSystem  string
	Version     string
	Description string
	Host        string
	Port        int32
	Status      bool
}

// Microservice belongs to exactly one System.
type Microservice struct {
	ID       int64
	Name     string
	BaseURL  string
	Status   bool
	Weight   int32
	SystemID int64
}

// Endpoint is a single (method, path) target on a Microservice.
type Endpoint struct {
	ID             int64
	Name           *string
	URL            string
	Method         string
	Parameters     []byte // opaque structured blob, stored as jsonb
	Status         bool
	Authenticated  bool
	MicroserviceID int64
}

// Role is an orthogonal authorization tag, optionally scoped to a System.
type Role struct {
	ID       int64
	RoleName string
	SystemID *int64
}

// Group carries a set of Roles and is optionally scoped to a System.
type Group struct {
	ID        int64
	GroupName string
	SystemID  *int64
}

// Profile is the user's one-to-one personal-data record.
type Profile struct {
	ID        int64
	FirstName string
	LastName  string
	Document  string
	BirthDate time.Time
	UserID    int64
}

// User is the authenticated principal, identified by email.
type User struct {
	ID          int64
	Email       string
	Password    string // memory-hard hash, never exposed in claims
	IsActive    bool
	IsSuperuser bool
}

// HistoricalMovement is an audit row capturing one gateway traffic event.
type HistoricalMovement struct {
	ID         int64
	UserID     *int64
	URLRequest string
	Method     string
	System     string
	ClientIP   string
	UserAgent  string
	Query      string
	Details    string
	CreatedAt  time.Time
}

// EndpointManifestItem is one row of the per-system endpoint manifest
// embedded in a login response, mirroring LoginRepository.get_endpoints_by_system_code.
type EndpointManifestItem struct {
	EndpointName string
	EndpointURL  string
	SystemCode   string
	Roles        []string
	Groups       []string
}
