package models

import (
	"database/sql/driver"
	"fmt"

	"tenantcore/internal/crypt"
)

// EncryptedString transparently encrypts a column at rest. The in-memory
// value is plaintext; Value/Scan seal and open with the process field key.
// Used for tenant notification contacts (name/email).
type EncryptedString string

func (e EncryptedString) Value() (driver.Value, error) {
	if e == "" {
		return "", nil
	}
	ct, err := crypt.Encrypt(string(e))
	if err != nil {
		return nil, fmt.Errorf("encrypted column: %w", err)
	}
	return ct, nil
}

func (e *EncryptedString) Scan(value interface{}) error {
	var raw string
	switch v := value.(type) {
	case nil:
		*e = ""
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("encrypted column scan: unsupported type %T", value)
	}
	if raw == "" {
		*e = ""
		return nil
	}
	pt, err := crypt.Decrypt(raw)
	if err != nil {
		return fmt.Errorf("encrypted column: %w", err)
	}
	*e = EncryptedString(pt)
	return nil
}

func (e EncryptedString) String() string { return string(e) }
