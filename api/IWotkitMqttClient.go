// Package api with the WoTKit MQTT client interface definition
package api

// IWotkitMqttClient describes the methods to exchange sensor data with the
// WoTKit platform message broker.
// Intended for gateways and things that stream data instead of posting each
// record over HTTP, and for applications that act on control messages.
type IWotkitMqttClient interface {
	// Connect opens the connection with the message broker using the
	// credentials provided with the client creation. This retries until the
	// connection timeout passes.
	Connect() error

	// Close the connection with the message broker
	Close()

	// PublishData publishes a single data record to a sensor's data topic.
	//  sensorID is the numeric ID in decimal form, or the full 'username.name'
	//  data is the record to publish. The platform timestamps it on arrival.
	PublishData(sensorID string, data DataPoint) error

	// PublishBulkData publishes multiple data records to a sensor's data
	// topic. Each record must carry its own timestamp.
	PublishBulkData(sensorID string, data []DataPoint) error

	// PublishActuatorMessage publishes a control message to a sensor's
	// message topic. The consumer must subscribe with
	// SubscribeToActuatorMessages or poll the control subscription over HTTP.
	PublishActuatorMessage(sensorID string, message Params) error

	// SubscribeToData receives the data records published to a sensor.
	//  sensorID is the sensor to receive data for, use "" to receive from all
	// sensors the credentials can read
	//  handler is invoked when a record is received
	//    sensorID is the sensor the record belongs to
	//    data is the unmarshalled record
	SubscribeToData(sensorID string, handler func(sensorID string, data DataPoint))

	// SubscribeToActuatorMessages receives the control messages published to
	// a sensor. Intended for things that act on control messages.
	//  sensorID is the sensor to receive messages for, use "" for all sensors
	//  handler is invoked when a message is received
	//    sensorID is the sensor the message belongs to
	//    message is the unmarshalled control message
	SubscribeToActuatorMessages(sensorID string, handler func(sensorID string, message Params))

	// UnsubscribeData removes the data subscription of a sensor
	UnsubscribeData(sensorID string)

	// UnsubscribeActuatorMessages removes the control message subscription of
	// a sensor
	UnsubscribeActuatorMessages(sensorID string)
}
