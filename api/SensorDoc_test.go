package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sensetecnic/wotkit-go/api"
)

func TestCreateSensor(t *testing.T) {
	sensor := api.CreateSensor("thermostat")
	assert.NotNil(t, sensor)
	assert.Equal(t, "thermostat", sensor["name"])
	assert.Equal(t, api.VisibilityPublic, sensor["visibility"])

	api.SetSensorDescription(sensor, "Thermostat", "Thermostat in the hallway")
	assert.Equal(t, "Thermostat", sensor["longName"])

	api.SetSensorLocation(sensor, 49.2606, -123.246)
	assert.Equal(t, 49.2606, sensor["latitude"])

	api.SetSensorTags(sensor, []string{"temperature", "demo"})

	// Define a custom field
	temperature := api.CreateSensorField("temperature", api.FieldTypeNumber, "Temperature")
	api.SetFieldUnits(temperature, "celsius")
	api.SetFieldRequired(temperature, true)
	api.AddSensorField(sensor, temperature)
	// replacing a field must not duplicate it
	api.AddSensorField(sensor, temperature)
	// an invalid field should not blow up
	api.AddSensorField(sensor, nil)

	fields := sensor["fields"].([]api.SensorField)
	assert.Len(t, fields, 1)
	assert.Equal(t, "celsius", fields[0]["units"])
	assert.Equal(t, true, fields[0]["required"])
}

func TestDocID(t *testing.T) {
	// ids unmarshal from JSON as float64 and must not turn into scientific
	// notation
	assert.Equal(t, "12345678901", api.DocID(map[string]interface{}{"id": float64(12345678901)}))
	assert.Equal(t, "42", api.DocID(map[string]interface{}{"id": float64(42)}))
	assert.Equal(t, "42", api.DocID(map[string]interface{}{"id": "42"}))
	assert.Equal(t, "42", api.DocID(map[string]interface{}{"id": 42}))
	assert.Equal(t, "42", api.DocID(map[string]interface{}{"id": int64(42)}))
	assert.Equal(t, "", api.DocID(map[string]interface{}{}))
}

func TestFullSensorName(t *testing.T) {
	sensor := api.Sensor{"owner": "admin", "name": "thermostat"}
	assert.Equal(t, "admin.thermostat", api.FullSensorName(sensor))

	// registration documents have no owner yet
	unregistered := api.CreateSensor("thermostat")
	assert.Equal(t, "thermostat", api.FullSensorName(unregistered))
}
