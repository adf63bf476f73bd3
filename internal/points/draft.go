package points

import (
	"errors"
	"strings"
)

var (
	ErrEmptyField   = errors.New("value must not be empty")
	ErrFieldTooLong = errors.New("value is too long")
	ErrInvalidPhone = errors.New("invalid phone number")
)

// Column limits of the points table.
const (
	MaxNameLen    = 50
	MaxAddressLen = 100
)

// Draft collects the create-point dialogue.
type Draft struct {
	Code      string `json:"code"`
	Name      string `json:"name,omitempty"`
	OwnerName string `json:"owner_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
}

func (d *Draft) SetName(v string) error {
	v, err := text(v, MaxNameLen)
	if err != nil {
		return err
	}
	d.Name = v
	return nil
}

func (d *Draft) SetOwnerName(v string) error {
	v, err := text(v, MaxNameLen)
	if err != nil {
		return err
	}
	d.OwnerName = v
	return nil
}

func (d *Draft) SetPhone(v string) error {
	phone, err := ParsePhone(v)
	if err != nil {
		return err
	}
	d.Phone = phone
	return nil
}

func (d *Draft) SetAddress(v string) error {
	v, err := text(v, MaxAddressLen)
	if err != nil {
		return err
	}
	d.Address = v
	return nil
}

// Complete reports whether every field has been collected.
func (d Draft) Complete() bool {
	return d.Code != "" && d.Name != "" && d.OwnerName != "" && d.Phone != "" && d.Address != ""
}

func text(v string, limit int) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", ErrEmptyField
	}
	if len([]rune(v)) > limit {
		return "", ErrFieldTooLong
	}
	return v, nil
}
