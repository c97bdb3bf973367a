// Package wotkitsim with an in-memory WoTKit server for tests and local
// development. It serves the endpoints the client library uses and records
// the requests it receives so tests can verify what went over the wire.
package wotkitsim

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/sensetecnic/wotkit-go/api"
)

// RecordedRequest captures one received request for test assertions
type RecordedRequest struct {
	Method string     // HTTP method
	Path   string     // URL path without query
	Query  url.Values // query parameters as received
	User   string     // authenticated user, "" when anonymous
}

// forcedFailure is returned for every request until cleared
type forcedFailure struct {
	status int
	body   string
}

// controlSubscription queues actuator messages for one subscriber
type controlSubscription struct {
	id       int64
	sensorID int64
	messages chan map[string]interface{}
}

// SimServer simulates a WoTKit instance over plain HTTP.
// Sensors, fields, data, subscriptions, users and actuator subscriptions
// live in memory. Authorization beyond login verification is not simulated.
type SimServer struct {
	router     *mux.Router
	httpServer *httptest.Server

	// the secrets verification handler, nil accepts all logins
	verifyUsernamePassword func(loginID string, secret string) bool

	mutex       sync.Mutex
	sensors     map[int64]api.Sensor
	fields      map[int64][]api.SensorField
	data        map[int64][]api.DataPoint
	subscribers map[string]map[int64]bool // user -> subscribed sensor IDs
	users       map[string]api.User       // by username
	controlSubs map[int64]*controlSubscription
	nextID      int64
	nextSubID   int64
	nextUserID  int64
	requests    []RecordedRequest
	failure     *forcedFailure
}

// URL returns the API base URL of the simulated instance
func (srv *SimServer) URL() string {
	return srv.httpServer.URL
}

// Close shuts the simulated instance down
func (srv *SimServer) Close() {
	srv.httpServer.Close()
}

// SetFailure makes every following request fail with the given status and
// body, until ClearFailure is called.
func (srv *SimServer) SetFailure(status int, body string) {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()
	srv.failure = &forcedFailure{status: status, body: body}
}

// ClearFailure restores normal request handling
func (srv *SimServer) ClearFailure() {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()
	srv.failure = nil
}

// Requests returns a copy of the received requests in arrival order
func (srv *SimServer) Requests() []RecordedRequest {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()
	requests := make([]RecordedRequest, len(srv.requests))
	copy(requests, srv.requests)
	return requests
}

// RequestCount returns how many requests matched the method and exact path
func (srv *SimServer) RequestCount(method string, path string) int {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()
	count := 0
	for _, request := range srv.requests {
		if request.Method == method && request.Path == path {
			count++
		}
	}
	return count
}

// LastRequest returns the most recently received request
func (srv *SimServer) LastRequest() *RecordedRequest {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()
	if len(srv.requests) == 0 {
		return nil
	}
	request := srv.requests[len(srv.requests)-1]
	return &request
}

// ResetRequests clears the recorded requests
func (srv *SimServer) ResetRequests() {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()
	srv.requests = nil
}

// AddSensor seeds a sensor directly, bypassing the API. Missing default
// fields are added. Returns the assigned sensor ID.
func (srv *SimServer) AddSensor(owner string, sensor api.Sensor) int64 {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()
	return srv.storeSensor(owner, sensor)
}

// storeSensor assigns an ID and stores the sensor document. Callers hold the
// mutex.
func (srv *SimServer) storeSensor(owner string, sensor api.Sensor) int64 {
	id := srv.nextID
	srv.nextID++

	stored := api.Sensor{}
	for name, value := range sensor {
		stored[name] = value
	}
	stored["id"] = id
	stored["owner"] = owner
	if stored["visibility"] == nil {
		stored["visibility"] = api.VisibilityPublic
	}

	fields := []api.SensorField{
		{"name": api.FieldNameLat, "type": api.FieldTypeNumber},
		{"name": api.FieldNameLng, "type": api.FieldTypeNumber},
		{"name": api.FieldNameValue, "type": api.FieldTypeNumber},
		{"name": api.FieldNameMessage, "type": api.FieldTypeString},
	}
	switch provided := stored["fields"].(type) {
	case []interface{}:
		// fields from a decoded registration document
		for _, item := range provided {
			if fieldDoc, isMap := item.(map[string]interface{}); isMap {
				fields = upsertField(fields, api.SensorField(fieldDoc))
			}
		}
	case []api.SensorField:
		// fields from an AddSensor seed
		for _, fieldDoc := range provided {
			fields = upsertField(fields, fieldDoc)
		}
	}
	delete(stored, "fields")

	srv.sensors[id] = stored
	srv.fields[id] = fields
	srv.data[id] = nil
	return id
}

// upsertField replaces the field with the same name or appends it
func upsertField(fields []api.SensorField, field api.SensorField) []api.SensorField {
	for index, existing := range fields {
		if existing["name"] == field["name"] {
			fields[index] = field
			return fields
		}
	}
	return append(fields, field)
}

// findSensor resolves a sensor reference, either the numeric ID in decimal
// form or the full 'owner.name'. Callers hold the mutex.
func (srv *SimServer) findSensor(sensorID string) (api.Sensor, int64, bool) {
	if id, err := strconv.ParseInt(sensorID, 10, 64); err == nil {
		sensor, found := srv.sensors[id]
		return sensor, id, found
	}
	parts := strings.SplitN(sensorID, ".", 2)
	if len(parts) == 2 {
		for id, sensor := range srv.sensors {
			if sensor["owner"] == parts[0] && sensor["name"] == parts[1] {
				return sensor, id, true
			}
		}
	}
	return nil, 0, false
}

// isDefaultField tells whether the name is one of the undeletable fields
func isDefaultField(name string) bool {
	return name == api.FieldNameLat || name == api.FieldNameLng ||
		name == api.FieldNameValue || name == api.FieldNameMessage
}

// authenticate verifies the request's basic auth header against the
// verification handler. Requests without credentials pass as anonymous.
func (srv *SimServer) authenticate(req *http.Request) (userID string, match bool) {
	username, password, hasAuth := req.BasicAuth()
	if !hasAuth {
		return "", true
	}
	if srv.verifyUsernamePassword == nil || srv.verifyUsernamePassword(username, password) {
		return username, true
	}
	return "", false
}

// addHandler registers a route. Each request is recorded, checked against a
// forced failure and authenticated before the handler runs, in the same
// shape as the platform: the handler receives the authenticated user.
func (srv *SimServer) addHandler(method string, path string,
	handler func(userID string, resp http.ResponseWriter, req *http.Request)) {

	srv.router.HandleFunc(path, func(resp http.ResponseWriter, req *http.Request) {
		userID, match := srv.authenticate(req)

		srv.mutex.Lock()
		srv.requests = append(srv.requests, RecordedRequest{
			Method: req.Method,
			Path:   req.URL.Path,
			Query:  req.URL.Query(),
			User:   userID,
		})
		failure := srv.failure
		srv.mutex.Unlock()

		if failure != nil {
			resp.WriteHeader(failure.status)
			resp.Write([]byte(failure.body))
			return
		}
		if !match {
			logrus.Infof("SimServer: authentication failed for %s %s", req.Method, req.URL.Path)
			writeError(resp, http.StatusUnauthorized, "authentication failed")
			return
		}
		handler(userID, resp, req)
	}).Methods(method)
}

// writeJSON writes a JSON response
func writeJSON(resp http.ResponseWriter, status int, payload interface{}) {
	data, _ := json.Marshal(payload)
	resp.Header().Set("Content-Type", "application/json")
	resp.WriteHeader(status)
	resp.Write(data)
}

// writeError writes an error document the way the platform does
func writeError(resp http.ResponseWriter, status int, message string) {
	writeJSON(resp, status, map[string]string{"error": message})
}

// NewSimServer creates and starts a simulated WoTKit instance.
// Use URL() as the API base URL for a client and Close() when done.
//  verifyUsernamePassword validates a login, nil accepts all logins
func NewSimServer(verifyUsernamePassword func(loginID string, secret string) bool) *SimServer {
	srv := &SimServer{
		router:                 mux.NewRouter(),
		verifyUsernamePassword: verifyUsernamePassword,
		sensors:                make(map[int64]api.Sensor),
		fields:                 make(map[int64][]api.SensorField),
		data:                   make(map[int64][]api.DataPoint),
		subscribers:            make(map[string]map[int64]bool),
		users:                  make(map[string]api.User),
		controlSubs:            make(map[int64]*controlSubscription),
		nextID:                 1,
		nextSubID:              1,
		nextUserID:             1,
	}
	srv.addRoutes()
	srv.httpServer = httptest.NewServer(srv.router)
	logrus.Infof("SimServer: serving WoTKit API at %s", srv.httpServer.URL)
	return srv
}

// addRoutes wires every endpoint the client library uses
func (srv *SimServer) addRoutes() {
	srv.addHandler(http.MethodGet, "/sensors", srv.handleQuerySensors)
	srv.addHandler(http.MethodPost, "/sensors", srv.handleRegisterSensor)
	srv.addHandler(http.MethodPut, "/sensors", srv.handleRegisterMultiple)
	srv.addHandler(http.MethodGet, "/sensors/{id}", srv.handleGetSensor)
	srv.addHandler(http.MethodPut, "/sensors/{id}", srv.handleUpdateSensor)
	srv.addHandler(http.MethodDelete, "/sensors/{id}", srv.handleDeleteSensor)

	srv.addHandler(http.MethodGet, "/sensors/{id}/fields", srv.handleGetFields)
	srv.addHandler(http.MethodGet, "/sensors/{id}/fields/{name}", srv.handleGetField)
	srv.addHandler(http.MethodPut, "/sensors/{id}/fields/{name}", srv.handleUpdateField)
	srv.addHandler(http.MethodDelete, "/sensors/{id}/fields/{name}", srv.handleDeleteField)

	srv.addHandler(http.MethodPost, "/sensors/{id}/data", srv.handlePostData)
	srv.addHandler(http.MethodPut, "/sensors/{id}/data", srv.handlePutBulkData)
	srv.addHandler(http.MethodGet, "/sensors/{id}/data", srv.handleGetRawData)
	srv.addHandler(http.MethodDelete, "/sensors/{id}/data/{timestamp}", srv.handleDeleteData)
	srv.addHandler(http.MethodGet, "/sensors/{id}/dataTable", srv.handleGetDataTable)
	srv.addHandler(http.MethodGet, "/data", srv.handleGetAggregatedData)

	srv.addHandler(http.MethodGet, "/subscribe", srv.handleGetSubscriptions)
	srv.addHandler(http.MethodPut, "/subscribe/{id}", srv.handleSubscribe)
	srv.addHandler(http.MethodDelete, "/subscribe/{id}", srv.handleUnsubscribe)

	srv.addHandler(http.MethodPost, "/sensors/{id}/message", srv.handleActuatorMessage)
	srv.addHandler(http.MethodPost, "/control/sub/{id}", srv.handleSubscribeActuator)
	srv.addHandler(http.MethodGet, "/control/sub/{id}", srv.handleQueryActuator)

	srv.addHandler(http.MethodGet, "/users/{id}", srv.handleGetUser)
	srv.addHandler(http.MethodPost, "/users", srv.handleCreateUser)
	srv.addHandler(http.MethodPut, "/users/{id}", srv.handleUpdateUser)
}
