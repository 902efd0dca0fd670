package trigger

import (
	"errors"
	"fmt"
	"time"

	"github.com/goburrow/modbus"
)

// Coil values defined by Modbus function code 5 (write single coil).
const (
	coilOn  uint16 = 0xFF00
	coilOff uint16 = 0x0000
)

// ModbusConfig addresses a relay coil on a Modbus TCP device.
type ModbusConfig struct {
	Endpoint string
	UnitID   uint8
	Coil     uint16
	Timeout  time.Duration
}

// ModbusCoil is a trigger output on a Modbus TCP relay board.
// Each write is bounded by the configured timeout.
type ModbusCoil struct {
	handler *modbus.TCPClientHandler
	client  modbus.Client
	coil    uint16
}

// NewModbusCoil connects to the relay board and drives the coil off.
func NewModbusCoil(cfg ModbusConfig) (*ModbusCoil, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("trigger modbus: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID

	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("trigger modbus: connect %s: %w", cfg.Endpoint, err)
	}

	c := &ModbusCoil{
		handler: h,
		client:  modbus.NewClient(h),
		coil:    cfg.Coil,
	}
	if err := c.Set(false); err != nil {
		h.Close()
		return nil, err
	}
	return c, nil
}

// Set writes the coil.
func (c *ModbusCoil) Set(on bool) error {
	if _, err := c.client.WriteSingleCoil(c.coil, coilValue(on)); err != nil {
		return fmt.Errorf("trigger modbus: write coil %d: %w", c.coil, err)
	}
	return nil
}

// Close drives the coil off and disconnects.
func (c *ModbusCoil) Close() error {
	errSet := c.Set(false)
	return errors.Join(errSet, c.handler.Close())
}

func coilValue(on bool) uint16 {
	if on {
		return coilOn
	}
	return coilOff
}
