package settings

import (
	"fmt"
)

var knownKeys = map[string]bool{
	KeyServer:   true,
	KeyAuth:     true,
	KeyUsername: true,
	KeyPassword: true,
	KeySecurity: true,
	KeyPort:     true,
}

// UnmarshalYAML reads a YAML mapping using the same keys, defaults and
// validation as FromProperties. Scalars of any type are taken as their
// text, so `port: 587` and `port: "587"` are the same. Other keys are
// ignored whatever their shape.
func (c *ConnectionSettings) UnmarshalYAML(unmarshal func(interface{}) error) error {
	raw := make(map[string]interface{})
	if err := unmarshal(&raw); err != nil {
		return fmt.Errorf("can't parse the SMTP settings: %v", err)
	}

	props := make(map[string]string, len(raw))
	for k, v := range raw {
		if !knownKeys[k] {
			continue
		}
		switch t := v.(type) {
		case nil:
			props[k] = ""
		case string:
			props[k] = t
		case map[interface{}]interface{}, []interface{}:
			return fmt.Errorf("SMTP setting %q must be a scalar", k)
		default:
			props[k] = fmt.Sprint(t)
		}
	}

	n, err := FromProperties(props)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.v = n.Values()
	return nil
}
