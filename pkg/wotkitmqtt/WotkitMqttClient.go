package wotkitmqtt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sensetecnic/wotkit-go/api"
	"github.com/sensetecnic/wotkit-go/pkg/wotkitconfig"
)

// WotkitMqttClient is a wrapper around the generic MQTT client with
// convenience methods for publishing sensor data and exchanging actuator
// messages through the platform message broker.
// Data published over MQTT is processed by the platform in real time, like
// data sent with WotkitProxy.SendDataPost.
type WotkitMqttClient struct {
	userName   string
	password   string
	mqttClient *MqttClient
}

// WotkitMqttClient implements the full MQTT client API
var _ api.IWotkitMqttClient = (*WotkitMqttClient)(nil)

// Connect the client to the message broker
func (client *WotkitMqttClient) Connect() error {
	logrus.Infof("WotkitMqttClient.Connect: username='%s'", client.userName)
	return client.mqttClient.Connect(client.userName, client.password)
}

// Close the client connection
func (client *WotkitMqttClient) Close() {
	logrus.Infof("WotkitMqttClient.Close")
	if client.mqttClient != nil {
		client.mqttClient.Close()
	}
}

// SensorTopic fills the sensor ID into a topic template
//  template is one of the api topic constants, eg api.TopicSensorData
//  sensorID is the numeric ID or 'owner.name' of the sensor. "" subscribes to all sensors
func SensorTopic(template string, sensorID string) string {
	if sensorID == "" {
		sensorID = "+"
	}
	return strings.ReplaceAll(template, "{id}", sensorID)
}

// PublishData publishes a single sensor data record for realtime processing
// The platform timestamps the record on arrival.
func (client *WotkitMqttClient) PublishData(sensorID string, data api.DataPoint) error {
	topic := SensorTopic(api.TopicSensorData, sensorID)
	message, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return client.mqttClient.Publish(topic, message)
}

// PublishBulkData publishes multiple data records to a sensor.
// Each record must carry its own 'timestamp' value.
func (client *WotkitMqttClient) PublishBulkData(sensorID string, data []api.DataPoint) error {
	topic := SensorTopic(api.TopicSensorData, sensorID)
	message, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return client.mqttClient.Publish(topic, message)
}

// PublishActuatorMessage sends a control message to a sensor's actuator channel
func (client *WotkitMqttClient) PublishActuatorMessage(sensorID string, message api.Params) error {
	topic := SensorTopic(api.TopicActuatorMessage, sensorID)
	raw, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return client.mqttClient.Publish(topic, raw)
}

// SubscribeToData receives data records published to a sensor
//  sensorID to receive data of, or "" for all sensors
//  handler is invoked with the sensor ID from the topic and the decoded record
func (client *WotkitMqttClient) SubscribeToData(
	sensorID string, handler func(sensorID string, data api.DataPoint)) {

	topic := SensorTopic(api.TopicSensorData, sensorID)
	// local copy of arguments
	subscribedHandler := handler
	client.mqttClient.Subscribe(topic, func(address string, message []byte) {
		// topic format is sensors/sensorID/data
		parts := strings.Split(address, "/")
		if len(parts) < 3 {
			return
		}
		data := api.DataPoint{}
		err := json.Unmarshal(message, &data)
		if err != nil {
			logrus.Warningf("WotkitMqttClient.SubscribeToData: message on topic '%s' is not JSON: %s",
				address, err)
			return
		}
		subscribedHandler(parts[1], data)
	})
}

// SubscribeToActuatorMessages receives control messages of a sensor's
// actuator channel. Intended for gateways that drive the actuator hardware.
//  sensorID to receive messages of, or "" for all sensors
//  handler is invoked with the sensor ID from the topic and the decoded message
func (client *WotkitMqttClient) SubscribeToActuatorMessages(
	sensorID string, handler func(sensorID string, message api.Params)) {

	topic := SensorTopic(api.TopicActuatorMessage, sensorID)
	// local copy of arguments
	subscribedHandler := handler
	client.mqttClient.Subscribe(topic, func(address string, message []byte) {
		parts := strings.Split(address, "/")
		if len(parts) < 3 {
			return
		}
		decoded := api.Params{}
		err := json.Unmarshal(message, &decoded)
		if err != nil {
			logrus.Warningf("WotkitMqttClient.SubscribeToActuatorMessages: message on topic '%s' is not JSON: %s",
				address, err)
			return
		}
		subscribedHandler(parts[1], decoded)
	})
}

// UnsubscribeData removes the data subscription of a sensor
func (client *WotkitMqttClient) UnsubscribeData(sensorID string) {
	client.mqttClient.Unsubscribe(SensorTopic(api.TopicSensorData, sensorID))
}

// UnsubscribeActuatorMessages removes the actuator subscription of a sensor
func (client *WotkitMqttClient) UnsubscribeActuatorMessages(sensorID string) {
	client.mqttClient.Unsubscribe(SensorTopic(api.TopicActuatorMessage, sensorID))
}

// NewWotkitMqttClient creates a new connection to the platform message broker
//  hostPort address and port of the broker to connect to
//  caCertFile with the broker CA certificate for TLS connections, "" for plain tcp
//  userName to authenticate with, the same login as the REST API
//  password to authenticate with
func NewWotkitMqttClient(hostPort string, caCertFile string, userName string, password string) *WotkitMqttClient {
	return &WotkitMqttClient{
		mqttClient: NewMqttClient(hostPort, caCertFile, DefaultTimeoutSec),
		userName:   userName,
		password:   password,
	}
}

// NewWotkitMqttConfigClient creates a broker connection from the client configuration
// The broker address, port, timeout and login all come from the configuration.
func NewWotkitMqttConfigClient(config *wotkitconfig.WotkitConfig) *WotkitMqttClient {
	hostPort := fmt.Sprintf("%s:%d", config.MqttAddress, config.MqttPort)
	return &WotkitMqttClient{
		mqttClient: NewMqttClient(hostPort, "", config.MqttTimeout),
		userName:   config.Username,
		password:   config.Password,
	}
}
