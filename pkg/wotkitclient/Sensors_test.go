package wotkitclient_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensetecnic/wotkit-go/api"
	"github.com/sensetecnic/wotkit-go/pkg/wotkitclient"
)

func TestGetSensorNotFound(t *testing.T) {
	logrus.Infof("--- TestGetSensorNotFound ---")

	srv, proxy := startTestServer(t)
	defer srv.Close()

	// an unknown sensor is an absence, not an error
	sensor, err := proxy.GetSensorByID("999", nil)
	require.NoError(t, err)
	assert.Nil(t, sensor)

	sensor, err = proxy.GetSensorByName("no-such-sensor", nil)
	require.NoError(t, err)
	assert.Nil(t, sensor)
}

func TestRegisterAndGetSensor(t *testing.T) {
	logrus.Infof("--- TestRegisterAndGetSensor ---")

	srv, proxy := startTestServer(t)
	defer srv.Close()

	err := proxy.RegisterSensor(api.Sensor{
		"name":        "thermostat",
		"longName":    "Office Thermostat",
		"description": "temperature in the north office",
		"tags":        []string{"temperature", "office"},
	}, nil)
	require.NoError(t, err)

	sensor, err := proxy.GetSensorByName("thermostat", nil)
	require.NoError(t, err)
	require.NotNil(t, sensor)
	assert.Equal(t, "Office Thermostat", sensor["longName"])
	assert.Equal(t, "admin", sensor["owner"])
}

func TestGetSensorByNameMatchesByID(t *testing.T) {
	logrus.Infof("--- TestGetSensorByNameMatchesByID ---")

	srv, proxy := startTestServer(t)
	defer srv.Close()

	err := proxy.RegisterSensor(api.Sensor{"name": "thermostat"}, nil)
	require.NoError(t, err)

	// the name lookup is the composite owner.name lookup
	byName, err := proxy.GetSensorByName("thermostat", nil)
	require.NoError(t, err)
	require.NotNil(t, byName)
	byID, err := proxy.GetSensorByID("admin.thermostat", nil)
	require.NoError(t, err)
	assert.Equal(t, byID, byName)

	// and the owner follows the credentials in use
	err = proxy.RegisterSensor(api.Sensor{"name": "gate"},
		&api.Credentials{Username: "gateway", Password: "gateway-secret"})
	require.NoError(t, err)
	sensor, err := proxy.GetSensorByName("gate",
		&api.Credentials{Username: "gateway", Password: "gateway-secret"})
	require.NoError(t, err)
	require.NotNil(t, sensor)
	assert.Equal(t, "gateway", sensor["owner"])
	assert.Equal(t, "gateway.gate", api.FullSensorName(sensor))
}

func TestRegisterSensorRejected(t *testing.T) {
	logrus.Infof("--- TestRegisterSensorRejected ---")

	srv, proxy := startTestServer(t)
	defer srv.Close()

	err := proxy.RegisterSensor(api.Sensor{"name": "thermostat"}, nil)
	require.NoError(t, err)

	// registering the same name again is rejected by the platform
	err = proxy.RegisterSensor(api.Sensor{"name": "thermostat"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "thermostat")
	var apiErr *wotkitclient.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Contains(t, apiErr.URL, "/sensors")
}

func TestUpdateSensor(t *testing.T) {
	logrus.Infof("--- TestUpdateSensor ---")

	srv, proxy := startTestServer(t)
	defer srv.Close()

	err := proxy.RegisterSensor(api.Sensor{"name": "thermostat", "longName": "Old"}, nil)
	require.NoError(t, err)

	err = proxy.UpdateSensor("admin.thermostat", api.Sensor{"longName": "New"}, nil)
	require.NoError(t, err)

	sensor, err := proxy.GetSensorByName("thermostat", nil)
	require.NoError(t, err)
	require.NotNil(t, sensor)
	assert.Equal(t, "New", sensor["longName"])
}

func TestDeleteSensor(t *testing.T) {
	logrus.Infof("--- TestDeleteSensor ---")

	srv, proxy := startTestServer(t)
	defer srv.Close()

	err := proxy.RegisterSensor(api.Sensor{"name": "thermostat"}, nil)
	require.NoError(t, err)
	err = proxy.DeleteSensor("admin.thermostat", nil)
	require.NoError(t, err)

	sensor, err := proxy.GetSensorByName("thermostat", nil)
	require.NoError(t, err)
	assert.Nil(t, sensor)

	// deleting a sensor that is already gone is an error
	err = proxy.DeleteSensor("admin.thermostat", nil)
	require.Error(t, err)
}

func TestQuerySensors(t *testing.T) {
	logrus.Infof("--- TestQuerySensors ---")

	srv, proxy := startTestServer(t)
	defer srv.Close()
	srv.AddSensor("admin", api.Sensor{"name": "air-quality", "description": "particulates downtown"})
	srv.AddSensor("admin", api.Sensor{"name": "traffic-main", "description": "traffic on main street"})
	srv.AddSensor("admin", api.Sensor{"name": "traffic-oak", "description": "traffic on oak street"})

	sensors, err := proxy.QuerySensors(api.Params{"text": "traffic"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, len(sensors))

	sensors, err = proxy.QuerySensors(api.Params{"text": "particulates"}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, len(sensors))
	assert.Equal(t, "air-quality", sensors[0]["name"])
}

func TestQueryAllSensors(t *testing.T) {
	logrus.Infof("--- TestQueryAllSensors ---")

	srv, proxy := startTestServer(t)
	defer srv.Close()
	// three result pages: 1000, 500, then the empty page that ends the walk
	const sensorCount = 1500
	for i := 0; i < sensorCount; i++ {
		srv.AddSensor("admin", api.Sensor{"name": fmt.Sprintf("sensor-%04d", i)})
	}
	srv.ResetRequests()

	sensors, err := proxy.QueryAllSensors(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, sensorCount, len(sensors))
	assert.Equal(t, 3, srv.RequestCount(http.MethodGet, "/sensors"))

	// the caller's own paging parameters are ignored
	sensors, err = proxy.QueryAllSensors(api.Params{"offset": 42, "limit": 7}, nil)
	require.NoError(t, err)
	assert.Equal(t, sensorCount, len(sensors))
}

func TestQueryAllSensorsEmpty(t *testing.T) {
	logrus.Infof("--- TestQueryAllSensorsEmpty ---")

	srv, proxy := startTestServer(t)
	defer srv.Close()

	sensors, err := proxy.QueryAllSensors(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, len(sensors))
	assert.Equal(t, 1, srv.RequestCount(http.MethodGet, "/sensors"))
}

func TestRegisterMultipleSensors(t *testing.T) {
	logrus.Infof("--- TestRegisterMultipleSensors ---")

	srv, proxy := startTestServer(t)
	defer srv.Close()

	makeSensors := func(count int) []api.Sensor {
		sensors := make([]api.Sensor, 0, count)
		for i := 0; i < count; i++ {
			sensors = append(sensors, api.Sensor{"name": fmt.Sprintf("bulk-%04d", i)})
		}
		return sensors
	}

	// 250 sensors go up in chunks of 100
	err := proxy.RegisterMultipleSensors(makeSensors(250), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, srv.RequestCount(http.MethodPut, "/sensors"))

	sensor, err := proxy.GetSensorByName("bulk-0249", nil)
	require.NoError(t, err)
	require.NotNil(t, sensor)
}

func TestRegisterMultipleSensorsChunkCount(t *testing.T) {
	logrus.Infof("--- TestRegisterMultipleSensorsChunkCount ---")

	srv, proxy := startTestServer(t)
	defer srv.Close()

	sensors := make([]api.Sensor, 0, 101)
	for i := 0; i < 101; i++ {
		sensors = append(sensors, api.Sensor{"name": fmt.Sprintf("chunk-%04d", i)})
	}

	err := proxy.RegisterMultipleSensors(sensors[:100], nil)
	require.NoError(t, err)
	assert.Equal(t, 1, srv.RequestCount(http.MethodPut, "/sensors"))

	srv.ResetRequests()
	err = proxy.RegisterMultipleSensors(sensors[100:], nil)
	require.NoError(t, err)
	assert.Equal(t, 1, srv.RequestCount(http.MethodPut, "/sensors"))
}

func TestRegisterMultipleSensorsFailedChunk(t *testing.T) {
	logrus.Infof("--- TestRegisterMultipleSensorsFailedChunk ---")

	srv, proxy := startTestServer(t)
	defer srv.Close()

	sensors := make([]api.Sensor, 0, 250)
	for i := 0; i < 250; i++ {
		sensors = append(sensors, api.Sensor{"name": fmt.Sprintf("batch-%04d", i)})
	}
	// a nameless sensor in the second chunk makes the platform reject it
	sensors[150] = api.Sensor{"longName": "incomplete"}

	err := proxy.RegisterMultipleSensors(sensors, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "100 to 199")
	// the walk stops at the failed chunk
	assert.Equal(t, 2, srv.RequestCount(http.MethodPut, "/sensors"))
}
