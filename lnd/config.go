package lnd

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	LNDNodeNames    string `envconfig:"LND_NODE_NAMES" default:"alice,bob"` //comma-separated, one name per node
	LNDAddress      string `envconfig:"LND_ADDRESS" required:"true"`
	LNDMacaroonFile string `envconfig:"LND_MACAROON_FILE"`
	LNDCertFile     string `envconfig:"LND_CERT_FILE"`
	LNDMacaroonHex  string `envconfig:"LND_MACAROON_HEX"`
	LNDCertHex      string `envconfig:"LND_CERT_HEX"`
	ReceiverNode    string `envconfig:"LND_RECEIVER_NODE" default:"alice"`
	SenderNode      string `envconfig:"LND_SENDER_NODE" default:"bob"`
	ConnectRetries  uint64 `envconfig:"LND_CONNECT_RETRIES" default:"5"`
}

func LoadConfig() (c *Config, err error) {
	c = &Config{}
	err = envconfig.Process("", c)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// NodeOptions interprets address, macaroon and cert settings as comma separated
// values, one entry per configured node name. Empty settings are allowed so hex
// and file credentials can be mixed.
func (c *Config) NodeOptions() (map[string]LNDoptions, error) {
	names := splitList(c.LNDNodeNames)
	if len(names) == 0 {
		return nil, fmt.Errorf("Error parsing LND config: no node names configured")
	}
	addresses := splitList(c.LNDAddress)
	if len(addresses) != len(names) {
		return nil, fmt.Errorf("Error parsing LND config: %d node names but %d addresses", len(names), len(addresses))
	}
	lists := map[string][]string{
		"LND_MACAROON_FILE": splitList(c.LNDMacaroonFile),
		"LND_CERT_FILE":     splitList(c.LNDCertFile),
		"LND_MACAROON_HEX":  splitList(c.LNDMacaroonHex),
		"LND_CERT_HEX":      splitList(c.LNDCertHex),
	}
	for key, list := range lists {
		if len(list) != 0 && len(list) != len(names) {
			return nil, fmt.Errorf("Error parsing LND config: %s has %d entries, expected %d", key, len(list), len(names))
		}
	}
	result := make(map[string]LNDoptions, len(names))
	for i, name := range names {
		if _, ok := result[name]; ok {
			return nil, fmt.Errorf("Error parsing LND config: duplicate node name %s", name)
		}
		result[name] = LNDoptions{
			Address:      addresses[i],
			MacaroonFile: at(lists["LND_MACAROON_FILE"], i),
			CertFile:     at(lists["LND_CERT_FILE"], i),
			MacaroonHex:  at(lists["LND_MACAROON_HEX"], i),
			CertHex:      at(lists["LND_CERT_HEX"], i),
		}
	}
	if _, ok := result[c.ReceiverNode]; !ok {
		return nil, fmt.Errorf("Error parsing LND config: receiver node %s is not configured", c.ReceiverNode)
	}
	if _, ok := result[c.SenderNode]; !ok {
		return nil, fmt.Errorf("Error parsing LND config: sender node %s is not configured", c.SenderNode)
	}
	return result, nil
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func at(list []string, i int) string {
	if len(list) == 0 {
		return ""
	}
	return list[i]
}
