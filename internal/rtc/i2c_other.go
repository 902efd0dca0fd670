//go:build !linux

package rtc

import "errors"

var errNoI2C = errors.New("rtc: i2c-dev not supported on this platform (requires Linux)")

// I2C is not available on non-Linux platforms.
type I2C struct{}

// OpenI2C returns an error on non-Linux platforms.
func OpenI2C(path string) (*I2C, error) {
	return nil, errNoI2C
}

func (b *I2C) Tx(addr uint16, w, r []byte) error { return errNoI2C }

func (b *I2C) ReadRegister(addr uint8, reg uint8, buf []byte) error { return errNoI2C }

func (b *I2C) WriteRegister(addr uint8, reg uint8, buf []byte) error { return errNoI2C }

// Close is a no-op on non-Linux platforms.
func (b *I2C) Close() error { return nil }
