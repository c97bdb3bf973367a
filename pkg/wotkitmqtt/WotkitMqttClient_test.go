package wotkitmqtt_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensetecnic/wotkit-go/api"
	"github.com/sensetecnic/wotkit-go/pkg/wotkitconfig"
	"github.com/sensetecnic/wotkit-go/pkg/wotkitmqtt"
)

func TestSensorTopic(t *testing.T) {
	logrus.Infof("--- TestSensorTopic ---")

	topic := wotkitmqtt.SensorTopic(api.TopicSensorData, "admin.thermostat")
	assert.Equal(t, "sensors/admin.thermostat/data", topic)

	topic = wotkitmqtt.SensorTopic(api.TopicSensorData, "123")
	assert.Equal(t, "sensors/123/data", topic)

	// an empty sensor ID subscribes to all sensors
	topic = wotkitmqtt.SensorTopic(api.TopicActuatorMessage, "")
	assert.Equal(t, "sensors/+/message", topic)
}

func TestPublishDataNotConnected(t *testing.T) {
	logrus.Infof("--- TestPublishDataNotConnected ---")

	client := wotkitmqtt.NewWotkitMqttClient("localhost:1883", "", "admin", "admin-password")
	require.NotNil(t, client)

	err := client.PublishData("admin.thermostat", api.DataPoint{"value": 21.5})
	assert.Error(t, err)

	err = client.PublishBulkData("admin.thermostat", []api.DataPoint{
		{"timestamp": "2021-03-14T15:09:26.535897Z", "value": 1},
	})
	assert.Error(t, err)

	err = client.PublishActuatorMessage("admin.gate-control", api.Params{"value": "open"})
	assert.Error(t, err)
	client.Close()
}

func TestSubscriptionsBeforeConnect(t *testing.T) {
	logrus.Infof("--- TestSubscriptionsBeforeConnect ---")

	client := wotkitmqtt.NewWotkitMqttClient("localhost:1883", "", "admin", "admin-password")
	client.SubscribeToData("admin.thermostat", func(sensorID string, data api.DataPoint) {})
	client.SubscribeToActuatorMessages("", func(sensorID string, message api.Params) {})
	client.UnsubscribeData("admin.thermostat")
	client.UnsubscribeActuatorMessages("")
	client.Close()
}

func TestNewWotkitMqttConfigClient(t *testing.T) {
	logrus.Infof("--- TestNewWotkitMqttConfigClient ---")

	config := wotkitconfig.CreateDefaultWotkitConfig("./")
	config.MqttAddress = "localhost"
	config.MqttPort = 1883
	config.Username = "admin"
	config.Password = "admin-password"
	client := wotkitmqtt.NewWotkitMqttConfigClient(config)
	require.NotNil(t, client)

	err := client.PublishData("admin.thermostat", api.DataPoint{"value": 1})
	assert.Error(t, err, "not connected, publish must fail")
	client.Close()
}
