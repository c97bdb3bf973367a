package wotkitsim

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/sensetecnic/wotkit-go/api"
)

// serverTimestamp returns the arrival timestamp the platform would assign
func serverTimestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000000") + "Z"
}

func (srv *SimServer) handlePostData(userID string, resp http.ResponseWriter, req *http.Request) {
	if err := req.ParseForm(); err != nil {
		writeError(resp, http.StatusBadRequest, "invalid form data: "+err.Error())
		return
	}
	srv.mutex.Lock()
	defer srv.mutex.Unlock()

	sensorID := mux.Vars(req)["id"]
	_, id, found := srv.findSensor(sensorID)
	if !found {
		writeError(resp, http.StatusNotFound, "sensor not found: "+sensorID)
		return
	}
	record := api.DataPoint{}
	for name := range req.PostForm {
		record[name] = req.PostForm.Get(name)
	}
	record["timestamp"] = serverTimestamp()
	srv.data[id] = append(srv.data[id], record)
	writeJSON(resp, http.StatusCreated, record)
}

func (srv *SimServer) handlePutBulkData(userID string, resp http.ResponseWriter, req *http.Request) {
	var records []api.DataPoint
	if err := json.NewDecoder(req.Body).Decode(&records); err != nil {
		writeError(resp, http.StatusBadRequest, "invalid data list: "+err.Error())
		return
	}
	srv.mutex.Lock()
	defer srv.mutex.Unlock()

	sensorID := mux.Vars(req)["id"]
	_, id, found := srv.findSensor(sensorID)
	if !found {
		writeError(resp, http.StatusNotFound, "sensor not found: "+sensorID)
		return
	}
	for _, record := range records {
		if record["timestamp"] == nil {
			writeError(resp, http.StatusBadRequest, "each record requires a timestamp")
			return
		}
	}
	srv.data[id] = append(srv.data[id], records...)
	writeJSON(resp, http.StatusOK, map[string]int{"stored": len(records)})
}

func (srv *SimServer) handleGetRawData(userID string, resp http.ResponseWriter, req *http.Request) {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()

	sensorID := mux.Vars(req)["id"]
	_, id, found := srv.findSensor(sensorID)
	if !found {
		writeError(resp, http.StatusNotFound, "sensor not found: "+sensorID)
		return
	}
	query := req.URL.Query()
	records := append([]api.DataPoint{}, srv.data[id]...)
	if beforeE, err := strconv.Atoi(firstValue(query, "beforeE")); err == nil && beforeE < len(records) {
		records = records[len(records)-beforeE:]
	}
	if firstValue(query, "reverse") == "true" {
		for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
			records[i], records[j] = records[j], records[i]
		}
	}
	writeJSON(resp, http.StatusOK, records)
}

func (srv *SimServer) handleDeleteData(userID string, resp http.ResponseWriter, req *http.Request) {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()

	vars := mux.Vars(req)
	_, id, found := srv.findSensor(vars["id"])
	if !found {
		writeError(resp, http.StatusNotFound, "sensor not found: "+vars["id"])
		return
	}
	remaining := []api.DataPoint{}
	removed := 0
	for _, record := range srv.data[id] {
		if fmt.Sprint(record["timestamp"]) == vars["timestamp"] {
			removed++
			continue
		}
		remaining = append(remaining, record)
	}
	if removed == 0 {
		writeError(resp, http.StatusNotFound, "no data at timestamp: "+vars["timestamp"])
		return
	}
	srv.data[id] = remaining
	resp.WriteHeader(http.StatusNoContent)
}

func (srv *SimServer) handleGetDataTable(userID string, resp http.ResponseWriter, req *http.Request) {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()

	sensorID := mux.Vars(req)["id"]
	_, id, found := srv.findSensor(sensorID)
	if !found {
		writeError(resp, http.StatusNotFound, "sensor not found: "+sensorID)
		return
	}
	// a Google Visualizations response is javascript, not JSON
	tqx := firstValue(req.URL.Query(), "tqx")
	body := fmt.Sprintf(
		"google.visualization.Query.setResponse({\"version\":\"0.6\",\"status\":\"ok\",\"tqx\":\"%s\",\"table\":{\"rows\":%d}})",
		tqx, len(srv.data[id]))
	resp.Header().Set("Content-Type", "text/javascript")
	resp.Write([]byte(body))
}

func (srv *SimServer) handleGetAggregatedData(userID string, resp http.ResponseWriter, req *http.Request) {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()

	query := req.URL.Query()
	records := []api.DataPoint{}
	for _, id := range srv.sortedSensorIDs() {
		if !matchesQuery(srv.sensors[id], query) {
			continue
		}
		for _, record := range srv.data[id] {
			withSensor := api.DataPoint{}
			for name, value := range record {
				withSensor[name] = value
			}
			withSensor["sensor_id"] = id
			records = append(records, withSensor)
		}
	}
	writeJSON(resp, http.StatusOK, records)
}

func (srv *SimServer) handleActuatorMessage(userID string, resp http.ResponseWriter, req *http.Request) {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()

	sensorID := mux.Vars(req)["id"]
	_, id, found := srv.findSensor(sensorID)
	if !found {
		writeError(resp, http.StatusNotFound, "sensor not found: "+sensorID)
		return
	}
	message := map[string]interface{}{}
	for name := range req.URL.Query() {
		message[name] = req.URL.Query().Get(name)
	}
	delivered := 0
	for _, controlSub := range srv.controlSubs {
		if controlSub.sensorID != id {
			continue
		}
		// drop the message when the subscriber's queue is full
		select {
		case controlSub.messages <- message:
			delivered++
		default:
		}
	}
	writeJSON(resp, http.StatusOK, map[string]int{"delivered": delivered})
}

func (srv *SimServer) handleSubscribeActuator(userID string, resp http.ResponseWriter, req *http.Request) {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()

	sensorID := mux.Vars(req)["id"]
	_, id, found := srv.findSensor(sensorID)
	if !found {
		writeError(resp, http.StatusNotFound, "sensor not found: "+sensorID)
		return
	}
	controlSub := &controlSubscription{
		id:       srv.nextSubID,
		sensorID: id,
		messages: make(chan map[string]interface{}, 100),
	}
	srv.nextSubID++
	srv.controlSubs[controlSub.id] = controlSub
	writeJSON(resp, http.StatusCreated, map[string]int64{"id": controlSub.id})
}

func (srv *SimServer) handleQueryActuator(userID string, resp http.ResponseWriter, req *http.Request) {
	srv.mutex.Lock()
	subID, err := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)
	controlSub := srv.controlSubs[subID]
	srv.mutex.Unlock()
	if err != nil || controlSub == nil {
		writeError(resp, http.StatusNotFound, "subscription not found: "+mux.Vars(req)["id"])
		return
	}

	waitSec, _ := strconv.Atoi(firstValue(req.URL.Query(), "wait"))
	if waitSec > api.ActuatorMaxWaitSec {
		waitSec = api.ActuatorMaxWaitSec
	}
	// wait for a message without holding the lock
	if waitSec <= 0 {
		select {
		case message := <-controlSub.messages:
			writeJSON(resp, http.StatusOK, message)
		default:
			writeJSON(resp, http.StatusOK, map[string]interface{}{})
		}
		return
	}
	select {
	case message := <-controlSub.messages:
		writeJSON(resp, http.StatusOK, message)
	case <-time.After(time.Duration(waitSec) * time.Second):
		writeJSON(resp, http.StatusOK, map[string]interface{}{})
	}
}
