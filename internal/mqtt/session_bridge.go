// Package mqtt 外部会话事件桥接
// 认证后端可以通过 MQTT 广播会话变更（例如管理后台强制下线）；
// 桥接器把事件转交给身份存储的 HandleExternalSession，
// 同主体去重由身份存储负责
package mqtt

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"societyhub-data/internal/config"
	"societyhub-data/internal/identity"
)

// SessionEvent 会话事件线格式
// subjectId 为空表示会话结束
type SessionEvent struct {
	SubjectID string `json:"subjectId"`
	Reason    string `json:"reason,omitempty"`
}

// SessionBridge MQTT 会话事件桥接器
type SessionBridge struct {
	client mqtt.Client
	topic  string
	store  *identity.Store
	logger *zap.Logger
}

// NewSessionBridge 连接 broker 并订阅会话事件主题
func NewSessionBridge(cfg config.MQTTConfig, store *identity.Store, logger *zap.Logger) (*SessionBridge, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	b := &SessionBridge{
		client: client,
		topic:  cfg.Topic,
		store:  store,
		logger: logger,
	}
	if token := client.Subscribe(cfg.Topic, 1, b.handleMessage); token.Wait() && token.Error() != nil {
		client.Disconnect(250)
		return nil, fmt.Errorf("failed to subscribe to topic %s: %w", cfg.Topic, token.Error())
	}

	logger.Info("Session bridge subscribed",
		zap.String("broker", cfg.Broker),
		zap.String("topic", cfg.Topic),
	)
	return b, nil
}

func (b *SessionBridge) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var event SessionEvent
	if err := json.Unmarshal(msg.Payload(), &event); err != nil {
		b.logger.Error("Invalid session event payload",
			zap.String("topic", msg.Topic()),
			zap.Error(err),
		)
		return
	}

	b.logger.Info("External session event received",
		zap.String("subject_id", event.SubjectID),
		zap.String("reason", event.Reason),
	)
	b.store.HandleExternalSession(event.SubjectID)
}

// Close 取消订阅并断开连接
func (b *SessionBridge) Close() {
	if token := b.client.Unsubscribe(b.topic); token.Wait() && token.Error() != nil {
		b.logger.Warn("Failed to unsubscribe session topic", zap.Error(token.Error()))
	}
	b.client.Disconnect(250)
}
