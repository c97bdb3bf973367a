// Package api with WoTKit platform vocabulary
package api

// QueryMaxSensors is the maximum number of sensors the platform returns per
// search request. Larger result sets require paging with offset and limit.
const QueryMaxSensors = 1000

// RegisterMaxSensors is the maximum number of sensors per bulk registration
// request.
const RegisterMaxSensors = 100

// ActuatorMaxWaitSec is the longest long-poll wait the platform honors when
// querying an actuator subscription.
const ActuatorMaxWaitSec = 20

// Sensor search scopes
const (
	ScopeAll         = "all"         // all sensors the user has access to
	ScopeSubscribed  = "subscribed"  // sensors the user has subscribed to
	ScopeContributed = "contributed" // sensors the user has contributed
)

// Sensor visibility
const (
	VisibilityPublic       = "public"
	VisibilityOrganization = "organization" // requires an organization
	VisibilityPrivate      = "private"
)

// Sensor field types
const (
	FieldTypeNumber = "NUMBER"
	FieldTypeString = "STRING"
)

// Default sensor field names. These fields exist on every sensor and cannot
// be deleted.
const (
	FieldNameLat     = "lat"
	FieldNameLng     = "lng"
	FieldNameValue   = "value"
	FieldNameMessage = "message"
)

// Aggregated data ordering
const (
	OrderBySensor = "sensor" // group records by sensor id
	OrderByTime   = "time"   // order records by timestamp
)
