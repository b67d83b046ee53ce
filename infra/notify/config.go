package notify

// Config defines the connection parameters of the MQTT push gateway.
type Config struct {
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
}

// SetDefaults fills in default values.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "urgent-dispatch"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "marketplace"
	}
	if c.QoS == 0 {
		c.QoS = 1
	}
}
