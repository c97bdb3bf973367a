package wotkitclient

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/sensetecnic/wotkit-go/api"
)

// SendActuatorMessage sends a control message to a sensor's actuator
// channel. The actuator endpoints take free-form parameters, all of them are
// passed through in the URL query.
func (proxy *WotkitProxy) SendActuatorMessage(sensorID string, params api.Params, auth *api.Credentials) error {
	query := passParams(params)
	_, _, err := proxy.invoke("SendActuatorMessage", http.MethodPost,
		pathWithQuery("/sensors/"+url.PathEscape(sensorID)+"/message", query), "", nil, auth)
	if err != nil {
		return err
	}
	logrus.Debugf("WotkitProxy.SendActuatorMessage: sent message to sensor '%s'", sensorID)
	return nil
}

// SubscribeActuator opens an actuator control subscription on a sensor.
// Returns the subscription document containing the subscription id to poll
// with QueryActuator.
func (proxy *WotkitProxy) SubscribeActuator(sensorID string, params api.Params, auth *api.Credentials) (map[string]interface{}, error) {
	query := passParams(params)
	respBody, _, err := proxy.invoke("SubscribeActuator", http.MethodPost,
		pathWithQuery("/control/sub/"+url.PathEscape(sensorID), query), "", nil, auth)
	if err != nil {
		return nil, err
	}
	var subscription map[string]interface{}
	if err = parseResponse("SubscribeActuator", respBody, &subscription); err != nil {
		return nil, err
	}
	return subscription, nil
}

// QueryActuator polls an actuator subscription for control messages. This
// long-polls until a message arrives or the wait expires, the platform caps
// the wait at ActuatorMaxWaitSec.
func (proxy *WotkitProxy) QueryActuator(subscriptionID string, waitSeconds int,
	params api.Params, auth *api.Credentials) (map[string]interface{}, error) {

	query := passParams(params)
	query.Set("wait", strconv.Itoa(waitSeconds))
	respBody, _, err := proxy.invoke("QueryActuator", http.MethodGet,
		pathWithQuery("/control/sub/"+url.PathEscape(subscriptionID), query), "", nil, auth)
	if err != nil {
		return nil, err
	}
	var messages map[string]interface{}
	if err = parseResponse("QueryActuator", respBody, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
