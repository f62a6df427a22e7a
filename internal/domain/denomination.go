package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"nftmarket-backend/internal/pkg/validation"
)

// DenominationKind tags the Denomination variant.
type DenominationKind uint8

// The zero Kind marks an unset Denomination, which keeps a native denomination non-zero when
// it is part of a GORM primary key.
const (
	DenominationNative DenominationKind = iota + 1
	DenominationToken
)

// NativeSentinel is the stored/wire form of the native currency denomination.
const NativeSentinel = "native"

var ErrInvalidDenomination = errors.New("Invalid payment denomination")

// Denomination is either the native currency or a fungible token identified by its contract address.
type Denomination struct {
	Kind  DenominationKind
	Token string
}

func Native() Denomination {
	return Denomination{Kind: DenominationNative}
}

func Token(address string) Denomination {
	return Denomination{Kind: DenominationToken, Token: NormalizeAddress(address)}
}

// ParseDenomination accepts "native" (or empty) and token contract addresses.
func ParseDenomination(s string) (Denomination, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, NativeSentinel) {
		return Native(), nil
	}
	if !validation.IsValidAddress(s) {
		return Denomination{}, fmt.Errorf("%w: %q", ErrInvalidDenomination, s)
	}
	return Token(s), nil
}

func (d Denomination) IsNative() bool {
	return d.Kind == DenominationNative
}

func (d Denomination) IsZero() bool {
	return d.Kind == 0
}

func (d Denomination) String() string {
	switch d.Kind {
	case DenominationNative:
		return NativeSentinel
	case DenominationToken:
		return d.Token
	}
	return ""
}

// MarshalJSON sends the denomination as a plain string ("native" or the token address).
func (d Denomination) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Denomination) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDenomination(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan implements sql.Scanner for the varchar column.
func (d *Denomination) Scan(value interface{}) error {
	var s string
	switch v := value.(type) {
	case nil:
		*d = Denomination{}
		return nil
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return errors.New("unsupported type for Denomination")
	}
	parsed, err := ParseDenomination(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer.
func (d Denomination) Value() (driver.Value, error) {
	return d.String(), nil
}
