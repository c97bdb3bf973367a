package wotkitclient_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensetecnic/wotkit-go/api"
	"github.com/sensetecnic/wotkit-go/pkg/wotkitclient"
)

func TestDefaultFields(t *testing.T) {
	logrus.Infof("--- TestDefaultFields ---")

	srv, proxy := startTestServer(t)
	defer srv.Close()
	require.NoError(t, proxy.RegisterSensor(api.Sensor{"name": "thermostat"}, nil))

	fields, err := proxy.GetSensorFields("admin.thermostat", nil)
	require.NoError(t, err)
	require.Equal(t, 4, len(fields))

	names := []string{}
	for _, field := range fields {
		names = append(names, field["name"].(string))
	}
	assert.Contains(t, names, api.FieldNameLat)
	assert.Contains(t, names, api.FieldNameLng)
	assert.Contains(t, names, api.FieldNameValue)
	assert.Contains(t, names, api.FieldNameMessage)
}

func TestRegisterSensorWithFields(t *testing.T) {
	logrus.Infof("--- TestRegisterSensorWithFields ---")

	srv, proxy := startTestServer(t)
	defer srv.Close()
	err := proxy.RegisterSensor(api.Sensor{
		"name": "thermostat",
		"fields": []api.SensorField{
			{"name": "temperature", "type": api.FieldTypeNumber, "units": "celsius", "required": true},
		},
	}, nil)
	require.NoError(t, err)

	fields, err := proxy.GetSensorFields("admin.thermostat", nil)
	require.NoError(t, err)
	assert.Equal(t, 5, len(fields))

	field, err := proxy.GetSensorField("admin.thermostat", "temperature", nil)
	require.NoError(t, err)
	assert.Equal(t, "celsius", field["units"])
	assert.Equal(t, true, field["required"])
}

func TestUpdateSensorField(t *testing.T) {
	logrus.Infof("--- TestUpdateSensorField ---")

	srv, proxy := startTestServer(t)
	defer srv.Close()
	require.NoError(t, proxy.RegisterSensor(api.Sensor{"name": "thermostat"}, nil))

	// updating an unknown field name creates the field
	err := proxy.UpdateSensorField("admin.thermostat", "humidity",
		api.SensorField{"name": "humidity", "type": api.FieldTypeNumber, "units": "percent"}, nil)
	require.NoError(t, err)

	field, err := proxy.GetSensorField("admin.thermostat", "humidity", nil)
	require.NoError(t, err)
	assert.Equal(t, "percent", field["units"])

	err = proxy.UpdateSensorField("admin.thermostat", "humidity",
		api.SensorField{"name": "humidity", "type": api.FieldTypeNumber, "units": "ratio"}, nil)
	require.NoError(t, err)

	field, err = proxy.GetSensorField("admin.thermostat", "humidity", nil)
	require.NoError(t, err)
	assert.Equal(t, "ratio", field["units"])

	fields, err := proxy.GetSensorFields("admin.thermostat", nil)
	require.NoError(t, err)
	assert.Equal(t, 5, len(fields), "an update must not duplicate the field")
}

func TestGetSensorFieldNotFound(t *testing.T) {
	logrus.Infof("--- TestGetSensorFieldNotFound ---")

	srv, proxy := startTestServer(t)
	defer srv.Close()
	require.NoError(t, proxy.RegisterSensor(api.Sensor{"name": "thermostat"}, nil))

	_, err := proxy.GetSensorField("admin.thermostat", "no-such-field", nil)
	require.Error(t, err)
	var apiErr *wotkitclient.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestDeleteSensorField(t *testing.T) {
	logrus.Infof("--- TestDeleteSensorField ---")

	srv, proxy := startTestServer(t)
	defer srv.Close()
	require.NoError(t, proxy.RegisterSensor(api.Sensor{
		"name": "thermostat",
		"fields": []api.SensorField{
			{"name": "temperature", "type": api.FieldTypeNumber},
		},
	}, nil))

	err := proxy.DeleteSensorField("admin.thermostat", "temperature", nil)
	require.NoError(t, err)
	_, err = proxy.GetSensorField("admin.thermostat", "temperature", nil)
	require.Error(t, err)

	// the default fields cannot be removed
	err = proxy.DeleteSensorField("admin.thermostat", api.FieldNameValue, nil)
	require.Error(t, err)
	var apiErr *wotkitclient.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}
