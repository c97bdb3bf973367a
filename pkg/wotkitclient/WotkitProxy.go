// Package wotkitclient with a client for the WoTKit platform REST API
package wotkitclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sensetecnic/wotkit-go/api"
)

// WotkitProxy acts as a proxy to a WoTKit instance. It holds the API base
// URL and the default credentials, and maps each API operation to a method.
// The proxy is immutable after construction and safe for concurrent use.
type WotkitProxy struct {
	apiURL     string // API base URL without trailing slash
	username   string // default login name, "" for anonymous access
	password   string // default password
	httpClient *http.Client
}

// WotkitProxy implements the full client API
var _ api.IWotkitClient = (*WotkitProxy)(nil)

// APIError is returned when the platform rejects a request. The status code
// and the raw response body are preserved for the caller.
type APIError struct {
	Op     string // name of the operation that failed
	URL    string // request URL
	Status int    // HTTP status code
	Body   string // raw response body
}

// Error includes the response status code and body verbatim
func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status code %d: %s", e.Op, e.URL, e.Status, e.Body)
}

// resolveCredentials determines the login to use for a request.
// The given credentials override the proxy defaults when both the username
// and the password are set, otherwise the defaults apply.
func (proxy *WotkitProxy) resolveCredentials(auth *api.Credentials) (username string, password string) {
	if auth != nil && auth.Username != "" && auth.Password != "" {
		return auth.Username, auth.Password
	}
	return proxy.username, proxy.password
}

// filterParams converts the recognized search parameters to URL query values.
// Parameter names the endpoint doesn't recognize are dropped. Values are
// stringified with their Go formatting.
func filterParams(params api.Params, recognized []string) url.Values {
	query := url.Values{}
	for _, name := range recognized {
		if value, found := params[name]; found {
			query.Set(name, fmt.Sprint(value))
		}
	}
	return query
}

// passParams converts all parameters to URL query values without filtering.
// The actuator endpoints accept free-form parameters.
func passParams(params api.Params) url.Values {
	query := url.Values{}
	for name, value := range params {
		query.Set(name, fmt.Sprint(value))
	}
	return query
}

// pathWithQuery appends encoded query values to an API path
func pathWithQuery(apiPath string, query url.Values) string {
	if len(query) == 0 {
		return apiPath
	}
	return apiPath + "?" + query.Encode()
}

// invoke sends one request to the API and reads the response.
//  op is the operation name used in logging and errors
//  method is GET, PUT, POST or DELETE
//  apiPath is the path below the API base URL, including the query if any
//  contentType of the body, ignored when body is nil
//  body is the raw request body, nil for requests without one
//  auth optionally overrides the default credentials
// Returns the response body and status code. A status of 400 or higher is
// returned as an *APIError along with the body.
func (proxy *WotkitProxy) invoke(op string, method string, apiPath string,
	contentType string, body []byte, auth *api.Credentials) ([]byte, int, error) {

	requestURL := proxy.apiURL + apiPath
	logrus.Debugf("WotkitProxy.%s: %s %s", op, method, requestURL)

	var bodyReader *bytes.Reader
	var req *http.Request
	var err error
	if body != nil {
		bodyReader = bytes.NewReader(body)
		req, err = http.NewRequest(method, requestURL, bodyReader)
	} else {
		req, err = http.NewRequest(method, requestURL, nil)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%s: building request for %s: %w", op, requestURL, err)
	}
	if body != nil && contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	username, password := proxy.resolveCredentials(auth)
	if username != "" {
		req.SetBasicAuth(username, password)
	}

	resp, err := proxy.httpClient.Do(req)
	if err != nil {
		logrus.Errorf("WotkitProxy.%s: %s %s: %s", op, method, requestURL, err)
		return nil, 0, fmt.Errorf("%s %s: %w", op, requestURL, err)
	}
	defer resp.Body.Close()
	respBody, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%s %s: reading response: %w", op, requestURL, err)
	}
	// the platform's ok class is any status below 400
	if resp.StatusCode >= 400 {
		apiErr := &APIError{Op: op, URL: requestURL, Status: resp.StatusCode, Body: string(respBody)}
		logrus.Debugf("WotkitProxy.%s: %s", op, apiErr)
		return respBody, resp.StatusCode, apiErr
	}
	return respBody, resp.StatusCode, nil
}

// invokeJSON marshals the payload and sends it as a JSON request body.
// A nil payload sends a request without body.
func (proxy *WotkitProxy) invokeJSON(op string, method string, apiPath string,
	payload interface{}, auth *api.Credentials) ([]byte, int, error) {

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: marshaling request body: %w", op, err)
		}
	}
	return proxy.invoke(op, method, apiPath, "application/json", body, auth)
}

// parseResponse unmarshals a JSON response body
func parseResponse(op string, data []byte, result interface{}) error {
	err := json.Unmarshal(data, result)
	if err != nil {
		return fmt.Errorf("%s: invalid JSON in response: %w", op, err)
	}
	return nil
}

// WotkitTimestamp returns the current time in the ISO 8601 form the platform
// recognizes, UTC with microseconds and a trailing Z.
func WotkitTimestamp() string {
	return WotkitTimestampAt(time.Now())
}

// WotkitTimestampAt formats a time in the ISO 8601 form the platform
// recognizes, UTC with microseconds and a trailing Z.
func WotkitTimestampAt(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000") + "Z"
}

// NewWotkitProxy creates a client for a WoTKit instance.
// Requests don't time out unless the transport is configured with one, see
// NewWotkitProxyWithClient.
//  apiURL is the base URL of the API, eg http://wotkit.sensetecnic.com/api
//  username is the default login name or key ID, "" for anonymous access
//  password is the default password or key password
// Returns an error when no API URL is given.
func NewWotkitProxy(apiURL string, username string, password string) (*WotkitProxy, error) {
	return NewWotkitProxyWithClient(apiURL, username, password, &http.Client{})
}

// NewWotkitProxyWithClient creates a client for a WoTKit instance using the
// given HTTP client. Use this to control timeouts, TLS settings and proxies.
//  apiURL is the base URL of the API, eg http://wotkit.sensetecnic.com/api
//  username is the default login name or key ID, "" for anonymous access
//  password is the default password or key password
//  httpClient performs the requests
// Returns an error when no API URL is given.
func NewWotkitProxyWithClient(apiURL string, username string, password string,
	httpClient *http.Client) (*WotkitProxy, error) {

	if apiURL == "" {
		return nil, fmt.Errorf("missing the WoTKit API URL")
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	proxy := &WotkitProxy{
		// a trailing slash would put a double // in request paths
		apiURL:     strings.TrimSuffix(apiURL, "/"),
		username:   username,
		password:   password,
		httpClient: httpClient,
	}
	return proxy, nil
}
