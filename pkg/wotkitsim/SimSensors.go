package wotkitsim

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/sensetecnic/wotkit-go/api"
)

// sensorDocument returns a copy of the sensor with its fields included, the
// way the platform returns sensors. Callers hold the mutex.
func (srv *SimServer) sensorDocument(id int64) api.Sensor {
	doc := api.Sensor{}
	for name, value := range srv.sensors[id] {
		doc[name] = value
	}
	doc["fields"] = srv.fields[id]
	return doc
}

// sortedSensorIDs returns all sensor IDs in ascending order so paging is
// deterministic. Callers hold the mutex.
func (srv *SimServer) sortedSensorIDs() []int64 {
	ids := make([]int64, 0, len(srv.sensors))
	for id := range srv.sensors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// matchesQuery applies the text and tags filters. The other recognized
// search parameters are accepted but not simulated.
func matchesQuery(sensor api.Sensor, query map[string][]string) bool {
	if text := firstValue(query, "text"); text != "" {
		haystack := fmt.Sprint(sensor["name"], " ", sensor["longName"], " ", sensor["description"])
		if !strings.Contains(strings.ToLower(haystack), strings.ToLower(text)) {
			return false
		}
	}
	if tags := firstValue(query, "tags"); tags != "" {
		sensorTags, _ := sensor["tags"].([]interface{})
		found := false
		for _, wanted := range strings.Split(tags, ",") {
			for _, tag := range sensorTags {
				if fmt.Sprint(tag) == strings.TrimSpace(wanted) {
					found = true
				}
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func firstValue(query map[string][]string, name string) string {
	values := query[name]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func (srv *SimServer) handleQuerySensors(userID string, resp http.ResponseWriter, req *http.Request) {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()

	query := req.URL.Query()
	offset, _ := strconv.Atoi(firstValue(query, "offset"))
	limit, err := strconv.Atoi(firstValue(query, "limit"))
	if err != nil || limit <= 0 || limit > api.QueryMaxSensors {
		limit = api.QueryMaxSensors
	}

	matches := []api.Sensor{}
	for _, id := range srv.sortedSensorIDs() {
		if matchesQuery(srv.sensors[id], query) {
			matches = append(matches, srv.sensorDocument(id))
		}
	}
	if offset > len(matches) {
		offset = len(matches)
	}
	end := offset + limit
	if end > len(matches) {
		end = len(matches)
	}
	writeJSON(resp, http.StatusOK, matches[offset:end])
}

// validateRegistration checks the registration document. Callers hold the
// mutex.
func (srv *SimServer) validateRegistration(owner string, sensor api.Sensor) (status int, message string) {
	name, isString := sensor["name"].(string)
	if !isString || name == "" {
		return http.StatusBadRequest, "sensor name is required"
	}
	if _, _, exists := srv.findSensor(owner + "." + name); exists {
		return http.StatusConflict, "sensor already exists: " + owner + "." + name
	}
	return 0, ""
}

func (srv *SimServer) handleRegisterSensor(userID string, resp http.ResponseWriter, req *http.Request) {
	var sensor api.Sensor
	if err := json.NewDecoder(req.Body).Decode(&sensor); err != nil {
		writeError(resp, http.StatusBadRequest, "invalid sensor document: "+err.Error())
		return
	}
	srv.mutex.Lock()
	defer srv.mutex.Unlock()

	if status, message := srv.validateRegistration(userID, sensor); status != 0 {
		writeError(resp, status, message)
		return
	}
	id := srv.storeSensor(userID, sensor)
	writeJSON(resp, http.StatusCreated, srv.sensorDocument(id))
}

func (srv *SimServer) handleRegisterMultiple(userID string, resp http.ResponseWriter, req *http.Request) {
	var sensors []api.Sensor
	if err := json.NewDecoder(req.Body).Decode(&sensors); err != nil {
		writeError(resp, http.StatusBadRequest, "invalid sensor list: "+err.Error())
		return
	}
	if len(sensors) > api.RegisterMaxSensors {
		writeError(resp, http.StatusBadRequest,
			fmt.Sprintf("at most %d sensors per request", api.RegisterMaxSensors))
		return
	}
	srv.mutex.Lock()
	defer srv.mutex.Unlock()

	for _, sensor := range sensors {
		if status, message := srv.validateRegistration(userID, sensor); status != 0 {
			writeError(resp, status, message)
			return
		}
		srv.storeSensor(userID, sensor)
	}
	writeJSON(resp, http.StatusOK, map[string]int{"registered": len(sensors)})
}

func (srv *SimServer) handleGetSensor(userID string, resp http.ResponseWriter, req *http.Request) {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()

	sensorID := mux.Vars(req)["id"]
	_, id, found := srv.findSensor(sensorID)
	if !found {
		writeError(resp, http.StatusNotFound, "sensor not found: "+sensorID)
		return
	}
	writeJSON(resp, http.StatusOK, srv.sensorDocument(id))
}

func (srv *SimServer) handleUpdateSensor(userID string, resp http.ResponseWriter, req *http.Request) {
	var update api.Sensor
	if err := json.NewDecoder(req.Body).Decode(&update); err != nil {
		writeError(resp, http.StatusBadRequest, "invalid sensor document: "+err.Error())
		return
	}
	srv.mutex.Lock()
	defer srv.mutex.Unlock()

	sensorID := mux.Vars(req)["id"]
	sensor, _, found := srv.findSensor(sensorID)
	if !found {
		writeError(resp, http.StatusNotFound, "sensor not found: "+sensorID)
		return
	}
	for name, value := range update {
		// identity and fields don't change through a sensor update
		if name == "id" || name == "owner" || name == "fields" {
			continue
		}
		sensor[name] = value
	}
	writeJSON(resp, http.StatusOK, sensor)
}

func (srv *SimServer) handleDeleteSensor(userID string, resp http.ResponseWriter, req *http.Request) {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()

	sensorID := mux.Vars(req)["id"]
	_, id, found := srv.findSensor(sensorID)
	if !found {
		writeError(resp, http.StatusNotFound, "sensor not found: "+sensorID)
		return
	}
	delete(srv.sensors, id)
	delete(srv.fields, id)
	delete(srv.data, id)
	for _, subscribed := range srv.subscribers {
		delete(subscribed, id)
	}
	for subID, controlSub := range srv.controlSubs {
		if controlSub.sensorID == id {
			delete(srv.controlSubs, subID)
		}
	}
	resp.WriteHeader(http.StatusNoContent)
}

func (srv *SimServer) handleGetFields(userID string, resp http.ResponseWriter, req *http.Request) {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()

	sensorID := mux.Vars(req)["id"]
	_, id, found := srv.findSensor(sensorID)
	if !found {
		writeError(resp, http.StatusNotFound, "sensor not found: "+sensorID)
		return
	}
	writeJSON(resp, http.StatusOK, srv.fields[id])
}

func (srv *SimServer) handleGetField(userID string, resp http.ResponseWriter, req *http.Request) {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()

	vars := mux.Vars(req)
	_, id, found := srv.findSensor(vars["id"])
	if !found {
		writeError(resp, http.StatusNotFound, "sensor not found: "+vars["id"])
		return
	}
	for _, field := range srv.fields[id] {
		if field["name"] == vars["name"] {
			writeJSON(resp, http.StatusOK, field)
			return
		}
	}
	writeError(resp, http.StatusNotFound, "field not found: "+vars["name"])
}

func (srv *SimServer) handleUpdateField(userID string, resp http.ResponseWriter, req *http.Request) {
	var field api.SensorField
	if err := json.NewDecoder(req.Body).Decode(&field); err != nil {
		writeError(resp, http.StatusBadRequest, "invalid field document: "+err.Error())
		return
	}
	srv.mutex.Lock()
	defer srv.mutex.Unlock()

	vars := mux.Vars(req)
	_, id, found := srv.findSensor(vars["id"])
	if !found {
		writeError(resp, http.StatusNotFound, "sensor not found: "+vars["id"])
		return
	}
	// the path determines the field name, an existing name doesn't change
	field["name"] = vars["name"]
	srv.fields[id] = upsertField(srv.fields[id], field)
	writeJSON(resp, http.StatusOK, field)
}

func (srv *SimServer) handleDeleteField(userID string, resp http.ResponseWriter, req *http.Request) {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()

	vars := mux.Vars(req)
	_, id, found := srv.findSensor(vars["id"])
	if !found {
		writeError(resp, http.StatusNotFound, "sensor not found: "+vars["id"])
		return
	}
	if isDefaultField(vars["name"]) {
		writeError(resp, http.StatusBadRequest, "cannot delete default field: "+vars["name"])
		return
	}
	fields := srv.fields[id]
	for index, field := range fields {
		if field["name"] == vars["name"] {
			srv.fields[id] = append(fields[:index], fields[index+1:]...)
			resp.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(resp, http.StatusNotFound, "field not found: "+vars["name"])
}

func (srv *SimServer) handleGetSubscriptions(userID string, resp http.ResponseWriter, req *http.Request) {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()

	subscribed := srv.subscribers[userID]
	ids := make([]int64, 0, len(subscribed))
	for id := range subscribed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	sensors := []api.Sensor{}
	for _, id := range ids {
		if _, exists := srv.sensors[id]; exists {
			sensors = append(sensors, srv.sensorDocument(id))
		}
	}
	writeJSON(resp, http.StatusOK, sensors)
}

func (srv *SimServer) handleSubscribe(userID string, resp http.ResponseWriter, req *http.Request) {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()

	sensorID := mux.Vars(req)["id"]
	_, id, found := srv.findSensor(sensorID)
	if !found {
		writeError(resp, http.StatusNotFound, "sensor not found: "+sensorID)
		return
	}
	if srv.subscribers[userID] == nil {
		srv.subscribers[userID] = make(map[int64]bool)
	}
	srv.subscribers[userID][id] = true
	writeJSON(resp, http.StatusOK, map[string]bool{"subscribed": true})
}

func (srv *SimServer) handleUnsubscribe(userID string, resp http.ResponseWriter, req *http.Request) {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()

	sensorID := mux.Vars(req)["id"]
	_, id, found := srv.findSensor(sensorID)
	if !found {
		writeError(resp, http.StatusNotFound, "sensor not found: "+sensorID)
		return
	}
	delete(srv.subscribers[userID], id)
	writeJSON(resp, http.StatusOK, map[string]bool{"subscribed": false})
}

// findUser resolves a username or a numeric account ID. Callers hold the
// mutex.
func (srv *SimServer) findUser(wanted string) (api.User, bool) {
	if user, found := srv.users[wanted]; found {
		return user, true
	}
	for _, user := range srv.users {
		if fmt.Sprint(user["id"]) == wanted {
			return user, true
		}
	}
	return nil, false
}

func (srv *SimServer) handleGetUser(userID string, resp http.ResponseWriter, req *http.Request) {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()

	wanted := mux.Vars(req)["id"]
	user, found := srv.findUser(wanted)
	if !found {
		writeError(resp, http.StatusNotFound, "user not found: "+wanted)
		return
	}
	writeJSON(resp, http.StatusOK, user)
}

func (srv *SimServer) handleCreateUser(userID string, resp http.ResponseWriter, req *http.Request) {
	var user api.User
	if err := json.NewDecoder(req.Body).Decode(&user); err != nil {
		writeError(resp, http.StatusBadRequest, "invalid user document: "+err.Error())
		return
	}
	username, isString := user["username"].(string)
	if !isString || username == "" {
		writeError(resp, http.StatusBadRequest, "username is required")
		return
	}
	srv.mutex.Lock()
	defer srv.mutex.Unlock()

	if _, exists := srv.users[username]; exists {
		writeError(resp, http.StatusConflict, "user already exists: "+username)
		return
	}
	user["id"] = srv.nextUserID
	srv.nextUserID++
	srv.users[username] = user
	writeJSON(resp, http.StatusCreated, user)
}

func (srv *SimServer) handleUpdateUser(userID string, resp http.ResponseWriter, req *http.Request) {
	var update api.User
	if err := json.NewDecoder(req.Body).Decode(&update); err != nil {
		writeError(resp, http.StatusBadRequest, "invalid user document: "+err.Error())
		return
	}
	srv.mutex.Lock()
	defer srv.mutex.Unlock()

	wanted := mux.Vars(req)["id"]
	user, found := srv.findUser(wanted)
	if !found {
		writeError(resp, http.StatusNotFound, "user not found: "+wanted)
		return
	}
	for name, value := range update {
		if name == "id" || name == "username" {
			continue
		}
		user[name] = value
	}
	writeJSON(resp, http.StatusOK, user)
}
