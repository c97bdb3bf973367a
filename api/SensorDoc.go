// Package api with helpers to build and read WoTKit platform documents
package api

import (
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
)

// CreateSensor creates a new sensor registration document.
// The platform adds the default fields lat, lng, value and message on
// registration.
//  name is the sensor name without the username component
func CreateSensor(name string) Sensor {
	sensor := make(Sensor)
	sensor["name"] = name
	sensor["visibility"] = VisibilityPublic
	sensor["tags"] = make([]string, 0)
	return sensor
}

// SetSensorDescription sets the title and description of the sensor
//  longName is the human readable title of the sensor
//  description of what the sensor measures
func SetSensorDescription(sensor Sensor, longName string, description string) {
	sensor["longName"] = longName
	sensor["description"] = description
}

// SetSensorLocation sets the fixed location of the sensor. Moving sensors
// update their location through the lat and lng fields of each data record.
func SetSensorLocation(sensor Sensor, latitude float64, longitude float64) {
	sensor["latitude"] = latitude
	sensor["longitude"] = longitude
}

// SetSensorTags replaces the tags of the sensor
func SetSensorTags(sensor Sensor, tags []string) {
	sensor["tags"] = tags
}

// AddSensorField adds or replaces a custom field in the registration document
//  sensor is a document created with 'CreateSensor'
//  field created with 'CreateSensorField'
func AddSensorField(sensor Sensor, field SensorField) {
	if field == nil {
		logrus.Errorf("Add field to sensor '%s'. Field is nil", sensor["name"])
		return
	}
	fields, _ := sensor["fields"].([]SensorField)
	for index, existing := range fields {
		if existing["name"] == field["name"] {
			fields[index] = field
			return
		}
	}
	sensor["fields"] = append(fields, field)
}

// CreateSensorField creates a sensor field document
//  name of the field in data records
//  fieldType is FieldTypeNumber or FieldTypeString
//  longName is the human readable title of the field
func CreateSensorField(name string, fieldType string, longName string) SensorField {
	field := make(SensorField)
	field["name"] = name
	field["type"] = fieldType
	field["longName"] = longName
	field["required"] = false
	return field
}

// SetFieldUnits sets the units of a field, eg "celsius"
func SetFieldUnits(field SensorField, units string) {
	field["units"] = units
}

// SetFieldRequired marks the field as required in each data record
func SetFieldRequired(field SensorField, required bool) {
	field["required"] = required
}

// DocID returns the id of a platform document in decimal form, or "" when
// the document has no id. The platform returns ids as JSON numbers which
// unmarshal as float64.
func DocID(doc map[string]interface{}) string {
	switch id := doc["id"].(type) {
	case string:
		return id
	case float64:
		return strconv.FormatInt(int64(id), 10)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

// FullSensorName returns the sensor's 'username.name' identifier as used in
// the sensor endpoints.
func FullSensorName(sensor Sensor) string {
	owner, _ := sensor["owner"].(string)
	name, _ := sensor["name"].(string)
	if owner == "" {
		return name
	}
	return owner + "." + name
}
