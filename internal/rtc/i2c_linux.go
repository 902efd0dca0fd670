//go:build linux

package rtc

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// i2cSlave is the i2c-dev ioctl that selects the target address.
const i2cSlave = 0x0703

// I2C is an I2C bus on a Linux i2c-dev node.
type I2C struct {
	f *os.File
}

// OpenI2C opens an i2c-dev node such as /dev/i2c-1.
func OpenI2C(path string) (*I2C, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus: %w", err)
	}
	return &I2C{f: f}, nil
}

// Tx writes w to the device at addr and then reads len(r) bytes into r.
func (b *I2C) Tx(addr uint16, w, r []byte) error {
	if err := unix.IoctlSetInt(int(b.f.Fd()), i2cSlave, int(addr)); err != nil {
		return fmt.Errorf("i2c select %#x: %w", addr, err)
	}
	if len(w) > 0 {
		if _, err := b.f.Write(w); err != nil {
			return fmt.Errorf("i2c write %#x: %w", addr, err)
		}
	}
	if len(r) > 0 {
		if _, err := io.ReadFull(b.f, r); err != nil {
			return fmt.Errorf("i2c read %#x: %w", addr, err)
		}
	}
	return nil
}

// ReadRegister reads len(buf) bytes starting at register reg.
func (b *I2C) ReadRegister(addr uint8, reg uint8, buf []byte) error {
	return b.Tx(uint16(addr), []byte{reg}, buf)
}

// WriteRegister writes buf starting at register reg.
func (b *I2C) WriteRegister(addr uint8, reg uint8, buf []byte) error {
	w := make([]byte, 0, len(buf)+1)
	w = append(w, reg)
	w = append(w, buf...)
	return b.Tx(uint16(addr), w, nil)
}

// Close closes the device node.
func (b *I2C) Close() error {
	return b.f.Close()
}
