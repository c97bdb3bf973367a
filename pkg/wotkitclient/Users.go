package wotkitclient

import (
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/sensetecnic/wotkit-go/api"
)

// GetWotkitUser reads a user account. Requires admin credentials.
// Returns nil without error when the account doesn't exist.
func (proxy *WotkitProxy) GetWotkitUser(userID string, auth *api.Credentials) (api.User, error) {
	respBody, status, err := proxy.invoke("GetWotkitUser", http.MethodGet,
		"/users/"+url.PathEscape(userID), "", nil, auth)
	if status == http.StatusNotFound {
		logrus.Debugf("WotkitProxy.GetWotkitUser: account '%s' doesn't exist", userID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var user api.User
	if err = parseResponse("GetWotkitUser", respBody, &user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateWotkitUser creates a user account. Requires admin credentials.
// The user document requires at least username and password.
func (proxy *WotkitProxy) CreateWotkitUser(user api.User, auth *api.Credentials) error {
	_, _, err := proxy.invokeJSON("CreateWotkitUser", http.MethodPost, "/users", user, auth)
	if err != nil {
		return err
	}
	logrus.Infof("WotkitProxy.CreateWotkitUser: created account '%v'", user["username"])
	return nil
}

// UpdateWotkitUser updates a user account. Requires admin credentials.
func (proxy *WotkitProxy) UpdateWotkitUser(userID string, user api.User, auth *api.Credentials) error {
	_, _, err := proxy.invokeJSON("UpdateWotkitUser", http.MethodPut,
		"/users/"+url.PathEscape(userID), user, auth)
	if err != nil {
		return err
	}
	logrus.Infof("WotkitProxy.UpdateWotkitUser: updated account '%s'", userID)
	return nil
}
