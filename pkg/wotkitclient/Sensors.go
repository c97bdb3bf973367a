package wotkitclient

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/sensetecnic/wotkit-go/api"
)

// search parameters recognized by the sensor search endpoint
var sensorSearchParams = []string{
	"scope", "tags", "orgs", "visibility", "text", "active", "location", "offset", "limit",
}

// GetSensorByID reads a sensor by numeric ID or full 'username.name'.
// Returns nil without error when the sensor doesn't exist.
func (proxy *WotkitProxy) GetSensorByID(sensorID string, auth *api.Credentials) (api.Sensor, error) {
	respBody, status, err := proxy.invoke("GetSensorByID", http.MethodGet,
		"/sensors/"+url.PathEscape(sensorID), "", nil, auth)
	if status == http.StatusNotFound {
		logrus.Debugf("WotkitProxy.GetSensorByID: sensor '%s' doesn't exist", sensorID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sensor api.Sensor
	if err = parseResponse("GetSensorByID", respBody, &sensor); err != nil {
		return nil, err
	}
	return sensor, nil
}

// GetSensorByName reads a sensor by its short name. The resolved username is
// prepended to form the full sensor ID, so an override changes the prefix.
func (proxy *WotkitProxy) GetSensorByName(name string, auth *api.Credentials) (api.Sensor, error) {
	username, password := proxy.resolveCredentials(auth)
	return proxy.GetSensorByID(username+"."+name,
		&api.Credentials{Username: username, Password: password})
}

// QuerySensors searches sensors matching the search parameters.
// See api.IWotkitClient for the recognized parameters.
func (proxy *WotkitProxy) QuerySensors(params api.Params, auth *api.Credentials) ([]api.Sensor, error) {
	query := filterParams(params, sensorSearchParams)
	respBody, _, err := proxy.invoke("QuerySensors", http.MethodGet,
		pathWithQuery("/sensors", query), "", nil, auth)
	if err != nil {
		return nil, err
	}
	var sensors []api.Sensor
	if err = parseResponse("QuerySensors", respBody, &sensors); err != nil {
		return nil, err
	}
	return sensors, nil
}

// QueryAllSensors pages through the search results until all matches are
// collected, de-duplicated by sensor ID.
// Sensors changing while paging can make the result out of sync with the
// platform.
func (proxy *WotkitProxy) QueryAllSensors(params api.Params, auth *api.Credentials) (map[int64]api.Sensor, error) {
	// page with a private copy so the caller's parameters are untouched
	searchParams := api.Params{}
	for name, value := range params {
		searchParams[name] = value
	}
	searchParams["offset"] = 0
	searchParams["limit"] = api.QueryMaxSensors

	sensors := make(map[int64]api.Sensor)
	offset := 0
	for {
		searchParams["offset"] = offset
		page, err := proxy.QuerySensors(searchParams, auth)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		logrus.Debugf("WotkitProxy.QueryAllSensors: found %d sensors at offset %d", len(page), offset)
		for _, sensor := range page {
			id, found := sensorNumericID(sensor)
			if !found {
				logrus.Warningf("WotkitProxy.QueryAllSensors: sensor without usable id: %v", sensor["id"])
				continue
			}
			sensors[id] = sensor
		}
		offset += api.QueryMaxSensors
	}
	return sensors, nil
}

// sensorNumericID reads the numeric sensor ID from a sensor document.
// JSON numbers arrive as float64, but be lenient about the type.
func sensorNumericID(sensor api.Sensor) (int64, bool) {
	switch id := sensor["id"].(type) {
	case float64:
		return int64(id), true
	case int64:
		return id, true
	case int:
		return int64(id), true
	case string:
		parsed, err := strconv.ParseInt(id, 10, 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}

// RegisterSensor registers a new sensor.
// The sensor document requires name, longName and description. The name must
// be at least 4 characters of lowercase letters, numbers, dashes and
// underscores, starting with a letter or underscore.
func (proxy *WotkitProxy) RegisterSensor(sensor api.Sensor, auth *api.Credentials) error {
	_, _, err := proxy.invokeJSON("RegisterSensor", http.MethodPost, "/sensors", sensor, auth)
	if err != nil {
		return fmt.Errorf("registering sensor '%v': %w", sensor["name"], err)
	}
	logrus.Debugf("WotkitProxy.RegisterSensor: registered sensor '%v'", sensor["name"])
	return nil
}

// RegisterMultipleSensors registers sensors in bulk, chunked per
// RegisterMaxSensors. The first chunk the platform rejects aborts the upload
// and sensors of the remaining chunks are not registered.
func (proxy *WotkitProxy) RegisterMultipleSensors(sensors []api.Sensor, auth *api.Credentials) error {
	for start := 0; start < len(sensors); start += api.RegisterMaxSensors {
		end := start + api.RegisterMaxSensors
		if end > len(sensors) {
			end = len(sensors)
		}
		chunk := sensors[start:end]
		_, _, err := proxy.invokeJSON("RegisterMultipleSensors", http.MethodPut, "/sensors", chunk, auth)
		if err != nil {
			return fmt.Errorf("registering sensors %d to %d of %d: %w", start, end-1, len(sensors), err)
		}
	}
	logrus.Debugf("WotkitProxy.RegisterMultipleSensors: registered %d sensors", len(sensors))
	return nil
}

// UpdateSensor updates the sensor description document. Updating uses the
// same document as registration.
func (proxy *WotkitProxy) UpdateSensor(sensorID string, update api.Sensor, auth *api.Credentials) error {
	_, _, err := proxy.invokeJSON("UpdateSensor", http.MethodPut,
		"/sensors/"+url.PathEscape(sensorID), update, auth)
	if err != nil {
		return err
	}
	logrus.Debugf("WotkitProxy.UpdateSensor: updated sensor '%s'", sensorID)
	return nil
}

// DeleteSensor removes the sensor and its data from the platform
func (proxy *WotkitProxy) DeleteSensor(sensorID string, auth *api.Credentials) error {
	_, _, err := proxy.invoke("DeleteSensor", http.MethodDelete,
		"/sensors/"+url.PathEscape(sensorID), "", nil, auth)
	if err != nil {
		return err
	}
	logrus.Debugf("WotkitProxy.DeleteSensor: deleted sensor '%s'", sensorID)
	return nil
}
