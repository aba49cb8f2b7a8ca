package tele

import (
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gagarin78/vendo/helpers"
	"github.com/gagarin78/vendo/log2"
	tele_config "github.com/gagarin78/vendo/tele/config"
)

type teleMqtt struct {
	log  *log2.Log
	m    mqtt.Client
	mopt *mqtt.ClientOptions

	topicConnect     string
	topicState       string
	topicError       string
	topicTransaction string
}

func NewMqtt() Teler { return &teleMqtt{} }

func (self *teleMqtt) Init(ctx context.Context, log *log2.Log, conf tele_config.Config) error {
	self.log = log
	mqtt.ERROR = log
	mqtt.CRITICAL = log
	mqtt.WARN = log

	clientID := conf.ClientID
	if clientID == "" {
		clientID = "vendo"
	}
	prefix := conf.TopicPrefix
	if prefix == "" {
		prefix = "vendo"
	}
	self.topicConnect = fmt.Sprintf("%s/%s/c", prefix, clientID)
	self.topicState = fmt.Sprintf("%s/%s/state", prefix, clientID)
	self.topicError = fmt.Sprintf("%s/%s/error", prefix, clientID)
	self.topicTransaction = fmt.Sprintf("%s/%s/tx", prefix, clientID)

	credFun := func() (string, string) { return clientID, conf.MqttPassword }
	keepAlive := helpers.IntSecondDefault(conf.KeepaliveSec, 60)
	pingTimeout := helpers.IntSecondDefault(conf.PingTimeoutSec, 30)

	self.mopt = mqtt.NewClientOptions().
		AddBroker(conf.MqttBroker).
		SetBinaryWill(self.topicConnect, []byte{0x00}, 1, true).
		SetCleanSession(false).
		SetClientID(clientID).
		SetCredentialsProvider(credFun).
		SetKeepAlive(keepAlive).
		SetPingTimeout(pingTimeout).
		SetOrderMatters(false).
		SetConnectRetryInterval(keepAlive / 2).
		SetOnConnectHandler(self.onConnectHandler).
		SetConnectionLostHandler(self.connectLostHandler).
		SetConnectRetry(true)
	self.m = mqtt.NewClient(self.mopt)
	token := self.m.Connect()
	if token.Error() != nil {
		return token.Error()
	}
	return nil
}

func (self *teleMqtt) Close() {
	self.m.Disconnect(250) // milliseconds to flush in-flight publishes
}

func (self *teleMqtt) State(s State) {
	self.log.Debugf("tele.state %s", s.String())
	self.m.Publish(self.topicState, 1, true, []byte(s.String()))
}

func (self *teleMqtt) Error(e error) {
	if e == nil {
		return
	}
	self.m.Publish(self.topicError, 1, false, []byte(e.Error()))
}

func (self *teleMqtt) Transaction(tx *Tx) {
	payload, err := json.Marshal(tx)
	if err != nil {
		self.log.Errorf("tele.transaction marshal err=%v", err)
		return
	}
	self.m.Publish(self.topicTransaction, 1, false, payload)
}

func (self *teleMqtt) connectLostHandler(c mqtt.Client, err error) {
	self.log.Infof("mqtt disconnect err=%v", err)
}

func (self *teleMqtt) onConnectHandler(c mqtt.Client) {
	self.log.Infof("mqtt connect")
	c.Publish(self.topicConnect, 1, true, []byte{0x01})
}
