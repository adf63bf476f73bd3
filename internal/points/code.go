// Package points decodes point codes and validates the create-point dialogue.
package points

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidCode = errors.New("point code must be 4 digits, first digit 1-9")

// Code is a decoded point code RZZN: region digit, two-digit zone number, sequence digit.
type Code struct {
	ID         int64
	Region     int64
	ZoneNumber int64
	ZoneID     int64
	Sequence   int64
}

// ParseCode decodes a 4-digit point code.
func ParseCode(s string) (Code, error) {
	s = strings.TrimSpace(s)
	if len(s) != 4 || s[0] < '1' || s[0] > '9' {
		return Code{}, ErrInvalidCode
	}
	var d [4]int64
	for i := 0; i < 4; i++ {
		if s[i] < '0' || s[i] > '9' {
			return Code{}, ErrInvalidCode
		}
		d[i] = int64(s[i] - '0')
	}

	c := Code{
		Region:     d[0],
		ZoneNumber: d[1]*10 + d[2],
		Sequence:   d[3],
	}
	c.ZoneID = c.Region*100 + c.ZoneNumber
	c.ID = c.ZoneID*10 + c.Sequence
	return c, nil
}

func (c Code) String() string {
	return fmt.Sprintf("%04d", c.ID)
}
