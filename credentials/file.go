package credentials

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type fileFormat struct {
	Users []User `yaml:"users"`
}

// LoadFile reads a YAML credential table:
//
//	users:
//	  - username: alice
//	    password_hash: "$argon2id$v=19$m=65536,t=3,p=2$..."
//	  - username: guest
//	    password_hash: "$argon2id$..."
//	    disabled: true
func LoadFile(path string, hasher *Hasher) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("credentials: read %s: %w", path, err)
	}
	return Parse(data, hasher)
}

// Parse decodes a YAML credential table from data.
func Parse(data []byte, hasher *Hasher) (*Static, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("credentials: decode: %w", err)
	}
	if len(f.Users) == 0 {
		return nil, fmt.Errorf("credentials: no users defined")
	}
	return NewStatic(hasher, f.Users)
}
