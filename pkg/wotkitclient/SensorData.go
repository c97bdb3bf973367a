package wotkitclient

import (
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/sensetecnic/wotkit-go/api"
)

// search parameters recognized by the data endpoints
var rawDataParams = []string{
	"start", "end", "after", "afterE", "before", "beforeE", "reverse",
}
var formattedDataParams = []string{
	"start", "end", "after", "afterE", "before", "beforeE", "reverse", "tqx", "tq",
}
var aggregatedDataParams = []string{
	"scope", "tags", "orgs", "visibility", "text", "active",
	"start", "end", "after", "afterE", "before", "beforeE", "orderBy",
}

// SendDataPost sends a single data record to a sensor for realtime
// processing. The record is sent form encoded and is timestamped by the
// platform on arrival.
func (proxy *WotkitProxy) SendDataPost(sensorID string, data api.DataPoint, auth *api.Credentials) error {
	form := passParams(api.Params(data))
	_, _, err := proxy.invoke("SendDataPost", http.MethodPost,
		"/sensors/"+url.PathEscape(sensorID)+"/data",
		"application/x-www-form-urlencoded", []byte(form.Encode()), auth)
	if err != nil {
		return err
	}
	logrus.Debugf("WotkitProxy.SendDataPost: sent data to sensor '%s'", sensorID)
	return nil
}

// SendDataPostByName is SendDataPost with the sensor's short name. The
// resolved username is prepended to form the full sensor ID.
func (proxy *WotkitProxy) SendDataPostByName(name string, data api.DataPoint, auth *api.Credentials) error {
	username, password := proxy.resolveCredentials(auth)
	return proxy.SendDataPost(username+"."+name, data,
		&api.Credentials{Username: username, Password: password})
}

// SendBulkDataPut uploads multiple data records to a sensor. Each record
// must carry its own 'timestamp' value, see WotkitTimestamp. Data sent this
// way is not processed in real time.
func (proxy *WotkitProxy) SendBulkDataPut(sensorID string, data []api.DataPoint, auth *api.Credentials) error {
	_, _, err := proxy.invokeJSON("SendBulkDataPut", http.MethodPut,
		"/sensors/"+url.PathEscape(sensorID)+"/data", data, auth)
	if err != nil {
		return err
	}
	logrus.Debugf("WotkitProxy.SendBulkDataPut: sent %d records to sensor '%s'", len(data), sensorID)
	return nil
}

// SendBulkDataPutByName is SendBulkDataPut with the sensor's short name
func (proxy *WotkitProxy) SendBulkDataPutByName(name string, data []api.DataPoint, auth *api.Credentials) error {
	username, password := proxy.resolveCredentials(auth)
	return proxy.SendBulkDataPut(username+"."+name, data,
		&api.Credentials{Username: username, Password: password})
}

// DeleteData removes the data recorded at the given timestamp.
//  timestamp in unix milliseconds decimal form or ISO 8601
func (proxy *WotkitProxy) DeleteData(sensorID string, timestamp string, auth *api.Credentials) error {
	_, _, err := proxy.invoke("DeleteData", http.MethodDelete,
		"/sensors/"+url.PathEscape(sensorID)+"/data/"+url.PathEscape(timestamp), "", nil, auth)
	if err != nil {
		return err
	}
	logrus.Debugf("WotkitProxy.DeleteData: deleted data of sensor '%s' at %s", sensorID, timestamp)
	return nil
}

// GetRawData reads data records from a sensor.
// See api.IWotkitClient for the recognized parameters.
func (proxy *WotkitProxy) GetRawData(sensorID string, params api.Params, auth *api.Credentials) ([]api.DataPoint, error) {
	query := filterParams(params, rawDataParams)
	respBody, _, err := proxy.invoke("GetRawData", http.MethodGet,
		pathWithQuery("/sensors/"+url.PathEscape(sensorID)+"/data", query), "", nil, auth)
	if err != nil {
		return nil, err
	}
	var data []api.DataPoint
	if err = parseResponse("GetRawData", respBody, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// GetFormattedData reads sensor data formatted for Google Visualizations,
// returned as-is. The recognized parameters are those of GetRawData plus the
// visualization parameters tqx and tq.
func (proxy *WotkitProxy) GetFormattedData(sensorID string, params api.Params, auth *api.Credentials) (string, error) {
	query := filterParams(params, formattedDataParams)
	respBody, _, err := proxy.invoke("GetFormattedData", http.MethodGet,
		pathWithQuery("/sensors/"+url.PathEscape(sensorID)+"/dataTable", query), "", nil, auth)
	if err != nil {
		return "", err
	}
	return string(respBody), nil
}

// GetAggregatedData reads data from all sensors matching the search
// parameters. See api.IWotkitClient for the recognized parameters.
func (proxy *WotkitProxy) GetAggregatedData(params api.Params, auth *api.Credentials) ([]api.DataPoint, error) {
	query := filterParams(params, aggregatedDataParams)
	respBody, _, err := proxy.invoke("GetAggregatedData", http.MethodGet,
		pathWithQuery("/data", query), "", nil, auth)
	if err != nil {
		return nil, err
	}
	var data []api.DataPoint
	if err = parseResponse("GetAggregatedData", respBody, &data); err != nil {
		return nil, err
	}
	return data, nil
}
