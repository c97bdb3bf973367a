// Package api with the WoTKit client library interface definition
package api

// Sensor contains a sensor document as returned by the WoTKit platform
type Sensor map[string]interface{}

// SensorField contains a sensor field document
type SensorField map[string]interface{}

// DataPoint contains a single sensor data record. Bulk uploads require each
// record to carry its own 'timestamp' value.
type DataPoint map[string]interface{}

// User contains a WoTKit user account document
type User map[string]interface{}

// Params holds optional query parameters by name. Each operation only passes
// on the parameter names the endpoint recognizes, the rest is dropped.
type Params map[string]interface{}

// Credentials is a username/password pair for HTTP basic authentication.
// Operations accept an optional credentials argument that overrides the
// client's default credentials when both fields are set.
type Credentials struct {
	Username string
	Password string
}

// IWotkitClient interface describing the methods to access a WoTKit server
// over its REST API.
// Intended for gateways, things and applications that register sensors and
// exchange sensor data with the platform.
type IWotkitClient interface {

	// GetSensorByID reads a sensor by its numeric ID or full 'username.name'.
	//  sensorID is the numeric ID in decimal form, or the full name
	//  auth optionally overrides the default credentials
	// Returns the sensor document, or nil without error if it doesn't exist.
	GetSensorByID(sensorID string, auth *Credentials) (Sensor, error)

	// GetSensorByName reads a sensor by its short name. The name of the
	// authenticated user is prepended to form the full 'username.name' ID.
	//  name is the sensor name without username component
	//  auth optionally overrides the default credentials
	// Returns the sensor document, or nil without error if it doesn't exist.
	GetSensorByName(name string, auth *Credentials) (Sensor, error)

	// QuerySensors searches sensors matching the search parameters.
	// Recognized parameters: scope, tags, orgs, visibility, text, active,
	// location, offset, limit. The maximum number of sensors returned per
	// call is 1000 (QueryMaxSensors).
	QuerySensors(params Params, auth *Credentials) ([]Sensor, error)

	// QueryAllSensors searches sensors matching the search parameters and
	// pages through the results until all matches are collected.
	// The result can be out of sync with the platform when sensors change
	// while paging.
	// Returns the matching sensors keyed by their numeric ID.
	QueryAllSensors(params Params, auth *Credentials) (map[int64]Sensor, error)

	// RegisterSensor registers a new sensor.
	//  sensor document with at least name, longName and description
	RegisterSensor(sensor Sensor, auth *Credentials) error

	// RegisterMultipleSensors registers sensors in bulk. Uploads are chunked
	// per RegisterMaxSensors. The first failing chunk aborts the upload.
	RegisterMultipleSensors(sensors []Sensor, auth *Credentials) error

	// UpdateSensor updates the sensor description document.
	UpdateSensor(sensorID string, update Sensor, auth *Credentials) error

	// DeleteSensor removes the sensor and its data from the platform.
	DeleteSensor(sensorID string, auth *Credentials) error

	// GetSensorSubscriptions lists the sensors the user is subscribed to.
	GetSensorSubscriptions(auth *Credentials) ([]Sensor, error)

	// SubscribeSensor subscribes the user to a sensor.
	SubscribeSensor(sensorID string, auth *Credentials) error

	// UnsubscribeSensor removes the user's subscription to a sensor.
	UnsubscribeSensor(sensorID string, auth *Credentials) error

	// GetSensorFields lists the fields of a sensor.
	GetSensorFields(sensorID string, auth *Credentials) ([]SensorField, error)

	// GetSensorField reads a single sensor field by name.
	GetSensorField(sensorID string, fieldName string, auth *Credentials) (SensorField, error)

	// UpdateSensorField updates a sensor field, or creates it when the name
	// is not an existing field. The name of an existing field cannot change.
	//  field document with at least name and type
	UpdateSensorField(sensorID string, fieldName string, field SensorField, auth *Credentials) error

	// DeleteSensorField removes a field from the sensor. The default fields
	// lat, lng, value and message cannot be deleted.
	DeleteSensorField(sensorID string, fieldName string, auth *Credentials) error

	// SendDataPost sends a single data record to a sensor for realtime
	// processing. The record is sent form encoded, the timestamp is set by
	// the platform on arrival.
	SendDataPost(sensorID string, data DataPoint, auth *Credentials) error

	// SendDataPostByName is SendDataPost with the sensor's short name. The
	// name of the authenticated user is prepended to form the full ID.
	SendDataPostByName(name string, data DataPoint, auth *Credentials) error

	// SendBulkDataPut uploads multiple data records to a sensor. Each record
	// must contain its own timestamp. Data sent this way is not processed in
	// real time.
	SendBulkDataPut(sensorID string, data []DataPoint, auth *Credentials) error

	// SendBulkDataPutByName is SendBulkDataPut with the sensor's short name.
	SendBulkDataPutByName(name string, data []DataPoint, auth *Credentials) error

	// DeleteData removes the data recorded at the given timestamp.
	//  timestamp in unix milliseconds decimal form or ISO 8601
	DeleteData(sensorID string, timestamp string, auth *Credentials) error

	// GetRawData reads data records from a sensor.
	// Recognized parameters: start, end, after, afterE, before, beforeE,
	// reverse.
	GetRawData(sensorID string, params Params, auth *Credentials) ([]DataPoint, error)

	// GetFormattedData reads sensor data formatted for Google Visualizations.
	// Recognized parameters are those of GetRawData plus tqx and tq.
	// Returns the response body as-is.
	GetFormattedData(sensorID string, params Params, auth *Credentials) (string, error)

	// GetAggregatedData reads data from all sensors matching the search
	// parameters.
	// Recognized parameters: scope, tags, orgs, visibility, text, active,
	// start, end, after, afterE, before, beforeE, orderBy.
	GetAggregatedData(params Params, auth *Credentials) ([]DataPoint, error)

	// SendActuatorMessage sends a control message to a sensor's actuator
	// channel. Parameters are passed through as-is in the URL query.
	SendActuatorMessage(sensorID string, params Params, auth *Credentials) error

	// SubscribeActuator opens an actuator control subscription on a sensor.
	// Parameters are passed through as-is in the URL query.
	// Returns the subscription document containing the subscription id.
	SubscribeActuator(sensorID string, params Params, auth *Credentials) (map[string]interface{}, error)

	// QueryActuator polls an actuator subscription for control messages.
	//  subscriptionID as returned by SubscribeActuator
	//  waitSeconds long-poll wait, the platform caps this at 20 seconds
	// Returns the control messages received within the wait time.
	QueryActuator(subscriptionID string, waitSeconds int, params Params, auth *Credentials) (map[string]interface{}, error)

	// GetWotkitUser reads a user account. Requires admin credentials.
	// Returns the user document, or nil without error if it doesn't exist.
	GetWotkitUser(userID string, auth *Credentials) (User, error)

	// CreateWotkitUser creates a user account. Requires admin credentials.
	//  user document with at least username and password
	CreateWotkitUser(user User, auth *Credentials) error

	// UpdateWotkitUser updates a user account. Requires admin credentials.
	UpdateWotkitUser(userID string, user User, auth *Credentials) error
}
