package crypto

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// iinLength is the logical length of an IIN/BIN identifier.
const iinLength = 12

var titleCaser = cases.Title(language.Und)

// EncryptedIIN is a string column holding a 12-digit personal identifier,
// encrypted at the storage boundary. The underlying column widens to 3x
// the logical length to fit ciphertext.
type EncryptedIIN string

// GormDataType declares the widened column type
func (EncryptedIIN) GormDataType() string {
	return fmt.Sprintf("varchar(%d)", iinLength*3)
}

// Value implements driver.Valuer; encrypts on bind.
// Malformed identifiers are logged, never rejected: upstream registries
// occasionally deliver dirty values and the read path must not lose them.
func (e EncryptedIIN) Value() (driver.Value, error) {
	plain := string(e)
	if plain == "" {
		return plain, nil
	}
	if len(plain) != iinLength || !allDigits(plain) {
		Default().log.Warn("identifier is not a 12-digit value",
			zap.Int("length", len(plain)))
	}
	return Default().Encrypt(plain)
}

// Scan implements sql.Scanner; decrypts on fetch.
func (e *EncryptedIIN) Scan(src any) error {
	s, err := scanString(src)
	if err != nil {
		return err
	}
	*e = EncryptedIIN(Default().Decrypt(s))
	return nil
}

// EncryptedName is a string column holding a person-name component.
// Names are trimmed and title-cased before encryption so lookups against
// normalized values stay consistent.
type EncryptedName string

// GormDataType declares the widened column type
func (EncryptedName) GormDataType() string {
	return "varchar(300)"
}

// Value implements driver.Valuer; normalizes then encrypts on bind.
func (e EncryptedName) Value() (driver.Value, error) {
	plain := strings.TrimSpace(string(e))
	if plain == "" {
		return "", nil
	}
	return Default().Encrypt(titleCaser.String(strings.ToLower(plain)))
}

// Scan implements sql.Scanner; decrypts on fetch.
func (e *EncryptedName) Scan(src any) error {
	s, err := scanString(src)
	if err != nil {
		return err
	}
	*e = EncryptedName(Default().Decrypt(s))
	return nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func scanString(src any) (string, error) {
	switch v := src.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("crypto: cannot scan %T into encrypted column", src)
	}
}
