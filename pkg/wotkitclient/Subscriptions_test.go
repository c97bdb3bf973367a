package wotkitclient_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensetecnic/wotkit-go/api"
)

func TestSubscribeSensor(t *testing.T) {
	logrus.Infof("--- TestSubscribeSensor ---")

	srv, proxy := startTestServer(t)
	defer srv.Close()
	gateway := &api.Credentials{Username: "gateway", Password: "gateway-secret"}
	require.NoError(t, proxy.RegisterSensor(api.Sensor{"name": "thermostat"}, gateway))

	sensors, err := proxy.GetSensorSubscriptions(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, len(sensors))

	err = proxy.SubscribeSensor("gateway.thermostat", nil)
	require.NoError(t, err)

	sensors, err = proxy.GetSensorSubscriptions(nil)
	require.NoError(t, err)
	require.Equal(t, 1, len(sensors))
	assert.Equal(t, "thermostat", sensors[0]["name"])

	// subscriptions are per account
	sensors, err = proxy.GetSensorSubscriptions(gateway)
	require.NoError(t, err)
	assert.Equal(t, 0, len(sensors))
}

func TestUnsubscribeSensor(t *testing.T) {
	logrus.Infof("--- TestUnsubscribeSensor ---")

	srv, proxy := startTestServer(t)
	defer srv.Close()
	require.NoError(t, proxy.RegisterSensor(api.Sensor{"name": "thermostat"}, nil))
	require.NoError(t, proxy.SubscribeSensor("admin.thermostat", nil))

	err := proxy.UnsubscribeSensor("admin.thermostat", nil)
	require.NoError(t, err)

	sensors, err := proxy.GetSensorSubscriptions(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, len(sensors))
}

func TestSubscribeUnknownSensor(t *testing.T) {
	logrus.Infof("--- TestSubscribeUnknownSensor ---")

	srv, proxy := startTestServer(t)
	defer srv.Close()

	err := proxy.SubscribeSensor("admin.no-such-sensor", nil)
	require.Error(t, err)
}
