// Package wotkitmqtt with the MQTT channel to the platform message broker
package wotkitmqtt

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// DefaultTimeoutSec constant with connection and disconnection timeouts
const DefaultTimeoutSec = 3

// Time a keep alive ping is sent. This is the max wait time to discover a broken connection
const DefaultKeepAliveSec = 10

// MqttClient client wrapper around pahoClient
// This restores subscriptions after a reconnect while using clean session
type MqttClient struct {
	hostPort string // host:port of the broker to connect to
	pubQos   byte
	subQos   byte
	timeout  int // connection timeout in seconds before giving up

	pahoClient    pahomqtt.Client               // Paho MQTT Client
	subscriptions map[string]*topicSubscription // subscriptions to restore after reconnect
	tlsCACertFile string                        // path to broker CA certificate, "" for plain tcp
	updateMutex   *sync.Mutex                   // mutex for async updating of subscriptions
}

// topicSubscription holds subscriptions to restore after disconnect
type topicSubscription struct {
	topic   string
	handler func(topic string, message []byte)
}

// Connect to the MQTT broker
// If a previous connection exists then it is disconnected first. If no
// connection is possible this keeps retrying until the timeout has expired.
// With each retry the backoff period is increased until 120 seconds.
// The clientID is generated from the hostname, username and current timestamp.
//  username to authenticate with
//  password to authenticate with. Use "" to ignore
func (mqttClient *MqttClient) Connect(username string, password string) error {
	// ClientID defaults to hostname-username-millisecondsSinceEpoc
	hostName, _ := os.Hostname()
	timeStamp := time.Now().UnixNano() / 1000000
	clientID := fmt.Sprintf("%s-%s-%d", hostName, username, timeStamp)

	// close existing connection
	if mqttClient.pahoClient != nil && mqttClient.pahoClient.IsConnected() {
		mqttClient.pahoClient.Disconnect(1000 * DefaultTimeoutSec)
	}

	// the platform broker uses a plain connection unless a CA certificate is given
	brokerURL := fmt.Sprintf("tcp://%s/", mqttClient.hostPort)
	if mqttClient.tlsCACertFile != "" {
		brokerURL = fmt.Sprintf("tls://%s/", mqttClient.hostPort)
	}
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second) // max wait 1 minute for a reconnect
	// CleanSession disables persistence, not all brokers support it and the
	// generated client IDs would accumulate state on the broker
	opts.SetCleanSession(true)
	opts.SetKeepAlive(DefaultKeepAliveSec * time.Second) // pings to detect a disconnect

	opts.SetOnConnectHandler(func(client pahomqtt.Client) {
		logrus.Infof("MqttClient.onConnect: connected to broker at %s, clientID=%s", brokerURL, clientID)
		// restore subscriptions registered before the connect or lost in a reconnect
		mqttClient.resubscribe()
	})
	opts.SetConnectionLostHandler(func(client pahomqtt.Client, err error) {
		logrus.Warningf("MqttClient.onConnectionLost: disconnected from broker %s: %s, clientID=%s",
			brokerURL, err, clientID)
	})
	if mqttClient.tlsCACertFile != "" {
		rootCA := x509.NewCertPool()
		caCertPEM, err := ioutil.ReadFile(mqttClient.tlsCACertFile)
		if err != nil {
			logrus.Errorf("MqttClient.Connect: unable to read CA certificate: %s. Ignored.", err)
		}
		rootCA.AppendCertsFromPEM(caCertPEM)
		opts.SetTLSConfig(&tls.Config{RootCAs: rootCA})
	}
	opts.Username = username
	if password != "" {
		opts.Password = password
	}

	logrus.Infof("MqttClient.Connect: connecting to MQTT broker %s with clientID=%s, username=%s",
		brokerURL, clientID, username)
	mqttClient.pahoClient = pahomqtt.NewClient(opts)

	// Auto reconnect doesn't cover the initial connection attempt, retry here
	retryDelaySec := 1
	retryDuration := 0
	var err error
	for {
		token := mqttClient.pahoClient.Connect()
		token.Wait()
		err = token.Error()
		if err == nil {
			break
		}
		retryDuration += retryDelaySec
		if mqttClient.timeout > 0 && retryDuration >= mqttClient.timeout {
			break
		}
		logrus.Errorf("MqttClient.Connect: connecting to broker at %s failed: %s. Retrying in %d seconds.",
			brokerURL, err, retryDelaySec)
		time.Sleep(time.Duration(retryDelaySec) * time.Second)
		// slowly increment wait time
		if retryDelaySec < 120 {
			retryDelaySec++
		}
	}
	return err
}

// Close the connection to the MQTT broker and remove all subscriptions
func (mqttClient *MqttClient) Close() {
	mqttClient.updateMutex.Lock()
	defer mqttClient.updateMutex.Unlock()

	if mqttClient.pahoClient != nil {
		opts := mqttClient.pahoClient.OptionsReader()
		logrus.Infof("MqttClient.Close: client %s", opts.ClientID())
		// Disconnect doesn't seem to wait for all messages. A small delay ahead helps
		time.Sleep(time.Second / 10)
		mqttClient.pahoClient.Disconnect(DefaultTimeoutSec * 1000)
		mqttClient.pahoClient = nil
	}
	mqttClient.subscriptions = make(map[string]*topicSubscription)
}

// Publish a message to a topic
func (mqttClient *MqttClient) Publish(topic string, message []byte) error {
	if mqttClient.pahoClient == nil || !mqttClient.pahoClient.IsConnected() {
		logrus.Warnf("MqttClient.Publish: unable to publish to %s. No connection with the broker.", topic)
		return errors.New("no connection with the broker")
	}
	logrus.Debugf("MqttClient.Publish: topic=%s, qos=%d", topic, mqttClient.pubQos)
	token := mqttClient.pahoClient.Publish(topic, mqttClient.pubQos, false, message)
	token.Wait()
	err := token.Error()
	if err != nil {
		logrus.Warnf("MqttClient.Publish: error during publish on topic %s: %s", topic, err)
	}
	return err
}

// resubscribe to topics after establishing a connection
// The application can subscribe to topics before the connection is
// established. If the connection is lost then this re-subscribes, as
// PahoMqtt drops the subscriptions after a disconnect.
func (mqttClient *MqttClient) resubscribe() {
	// prevent simultaneous access to subscriptions
	mqttClient.updateMutex.Lock()
	defer mqttClient.updateMutex.Unlock()

	logrus.Infof("MqttClient.resubscribe to %d topics", len(mqttClient.subscriptions))
	for topic, subscription := range mqttClient.subscriptions {
		// clear the existing subscription in case it is still there
		mqttClient.pahoClient.Unsubscribe(topic)

		logrus.Debugf("MqttClient.resubscribe: topic %s", topic)
		// hold the subscription in the closure
		subscribedHandler := subscription.handler
		mqttClient.pahoClient.Subscribe(topic, mqttClient.subQos,
			func(c pahomqtt.Client, msg pahomqtt.Message) {
				subscribedHandler(msg.Topic(), msg.Payload())
			})
	}
}

// Subscribe to a topic
// If a subscription to the topic already exists, it is replaced.
//  topic to subscribe to. This supports mqtt wildcards such as + and #
//  handler to invoke with received messages
func (mqttClient *MqttClient) Subscribe(topic string, handler func(topic string, message []byte)) {
	logrus.Infof("MqttClient.Subscribe: topic %s, qos %d", topic, mqttClient.subQos)

	mqttClient.updateMutex.Lock()
	defer mqttClient.updateMutex.Unlock()

	if mqttClient.pahoClient != nil {
		// save handler on the stack
		subscribedHandler := handler
		mqttClient.pahoClient.Subscribe(topic, mqttClient.subQos,
			func(c pahomqtt.Client, msg pahomqtt.Message) {
				subscribedHandler(msg.Topic(), msg.Payload())
			})
	}
	mqttClient.subscriptions[topic] = &topicSubscription{
		topic:   topic,
		handler: handler,
	}
}

// Unsubscribe from a topic
func (mqttClient *MqttClient) Unsubscribe(topic string) {
	logrus.Infof("MqttClient.Unsubscribe: topic %s", topic)

	mqttClient.updateMutex.Lock()
	defer mqttClient.updateMutex.Unlock()

	if mqttClient.subscriptions[topic] == nil {
		// nothing to unsubscribe
		logrus.Warningf("MqttClient.Unsubscribe: no subscription on topic %s. Ignored", topic)
		return
	}
	if mqttClient.pahoClient != nil {
		mqttClient.pahoClient.Unsubscribe(topic)
	}
	delete(mqttClient.subscriptions, topic)
}

// NewMqttClient creates a new MQTT client instance
// See Connect for the username/password authentication of the connection.
// To avoid hanging, keep the timeout low. If 0 is provided the default of 3
// seconds is used.
//
//  hostPort of the broker to connect to
//  caCertFile is a PEM file with the broker CA certificate. Use "" for a plain connection
//  timeoutSec to attempt connecting before giving up
func NewMqttClient(hostPort string, caCertFile string, timeoutSec int) *MqttClient {
	if timeoutSec <= 0 {
		timeoutSec = DefaultTimeoutSec
	}
	return &MqttClient{
		hostPort:      hostPort,
		pubQos:        1,
		subQos:        1,
		pahoClient:    nil,
		subscriptions: make(map[string]*topicSubscription),
		timeout:       timeoutSec,
		tlsCACertFile: caCertFile,
		updateMutex:   &sync.Mutex{},
	}
}
