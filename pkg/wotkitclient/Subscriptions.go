package wotkitclient

import (
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/sensetecnic/wotkit-go/api"
)

// GetSensorSubscriptions lists the sensors the user is subscribed to
func (proxy *WotkitProxy) GetSensorSubscriptions(auth *api.Credentials) ([]api.Sensor, error) {
	respBody, _, err := proxy.invoke("GetSensorSubscriptions", http.MethodGet,
		"/subscribe", "", nil, auth)
	if err != nil {
		return nil, err
	}
	var sensors []api.Sensor
	if err = parseResponse("GetSensorSubscriptions", respBody, &sensors); err != nil {
		return nil, err
	}
	return sensors, nil
}

// SubscribeSensor subscribes the user to a sensor
func (proxy *WotkitProxy) SubscribeSensor(sensorID string, auth *api.Credentials) error {
	_, _, err := proxy.invoke("SubscribeSensor", http.MethodPut,
		"/subscribe/"+url.PathEscape(sensorID), "", nil, auth)
	if err != nil {
		return err
	}
	logrus.Debugf("WotkitProxy.SubscribeSensor: subscribed to sensor '%s'", sensorID)
	return nil
}

// UnsubscribeSensor removes the user's subscription to a sensor
func (proxy *WotkitProxy) UnsubscribeSensor(sensorID string, auth *api.Credentials) error {
	_, _, err := proxy.invoke("UnsubscribeSensor", http.MethodDelete,
		"/subscribe/"+url.PathEscape(sensorID), "", nil, auth)
	if err != nil {
		return err
	}
	logrus.Debugf("WotkitProxy.UnsubscribeSensor: unsubscribed from sensor '%s'", sensorID)
	return nil
}
