package api

// WoTKit MQTT protocol definitions

// TopicRootSensors is the base of the sensor topics
const TopicRootSensors = "sensors"

// TopicSensorData topic for publishing sensor data records
const TopicSensorData = TopicRootSensors + "/{id}/data"

// TopicActuatorMessage topic carrying actuator control messages
const TopicActuatorMessage = TopicRootSensors + "/{id}/message"
