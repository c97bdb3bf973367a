package wotkitclient

import (
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/sensetecnic/wotkit-go/api"
)

// GetSensorFields lists the fields of a sensor
func (proxy *WotkitProxy) GetSensorFields(sensorID string, auth *api.Credentials) ([]api.SensorField, error) {
	respBody, _, err := proxy.invoke("GetSensorFields", http.MethodGet,
		"/sensors/"+url.PathEscape(sensorID)+"/fields", "", nil, auth)
	if err != nil {
		return nil, err
	}
	var fields []api.SensorField
	if err = parseResponse("GetSensorFields", respBody, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// GetSensorField reads a single sensor field by name
func (proxy *WotkitProxy) GetSensorField(sensorID string, fieldName string, auth *api.Credentials) (api.SensorField, error) {
	respBody, _, err := proxy.invoke("GetSensorField", http.MethodGet,
		"/sensors/"+url.PathEscape(sensorID)+"/fields/"+url.PathEscape(fieldName), "", nil, auth)
	if err != nil {
		return nil, err
	}
	var field api.SensorField
	if err = parseResponse("GetSensorField", respBody, &field); err != nil {
		return nil, err
	}
	return field, nil
}

// UpdateSensorField updates a sensor field, or creates the field when the
// name doesn't exist yet. The field document requires name and type. The
// name of an existing field cannot be changed.
func (proxy *WotkitProxy) UpdateSensorField(sensorID string, fieldName string,
	field api.SensorField, auth *api.Credentials) error {

	_, _, err := proxy.invokeJSON("UpdateSensorField", http.MethodPut,
		"/sensors/"+url.PathEscape(sensorID)+"/fields/"+url.PathEscape(fieldName), field, auth)
	if err != nil {
		return err
	}
	logrus.Debugf("WotkitProxy.UpdateSensorField: updated field '%s' of sensor '%s'", fieldName, sensorID)
	return nil
}

// DeleteSensorField removes a field from the sensor. The platform rejects
// deleting the default fields lat, lng, value and message.
func (proxy *WotkitProxy) DeleteSensorField(sensorID string, fieldName string, auth *api.Credentials) error {
	_, _, err := proxy.invoke("DeleteSensorField", http.MethodDelete,
		"/sensors/"+url.PathEscape(sensorID)+"/fields/"+url.PathEscape(fieldName), "", nil, auth)
	if err != nil {
		return err
	}
	logrus.Debugf("WotkitProxy.DeleteSensorField: deleted field '%s' of sensor '%s'", fieldName, sensorID)
	return nil
}
