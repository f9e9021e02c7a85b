package sensor

import (
	"sync"
	"time"

	"github.com/juju/errors"
	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/host"

	"github.com/theMossCode/sht41-peripheral/crc"
	"github.com/theMossCode/sht41-peripheral/log2"
)

const DefaultAddr = 0x44

const (
	cmdMeasureHigh  = 0xfd
	cmdReadSerial   = 0x89
	measureDuration = 10 * time.Millisecond
	serialDuration  = 1 * time.Millisecond
)

type Config struct {
	Bus  string `hcl:"bus"`
	Addr int    `hcl:"addr"`
}

// SHT4x talks to a Sensirion SHT40/41/45 over I2C.
// Init is lazy and retried from Ready() so a sensor that shows up after
// boot starts working without restart.
type SHT4x struct {
	mu     sync.Mutex
	log    *log2.Log
	config Config
	bus    i2c.BusCloser
	dev    i2c.Dev
	ready  bool
}

func NewSHT4x(log *log2.Log, config Config) *SHT4x {
	if config.Addr == 0 {
		config.Addr = DefaultAddr
	}
	return &SHT4x{log: log, config: config}
}

func (self *SHT4x) Ready() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.ready {
		return true
	}
	if err := self.initLocked(); err != nil {
		self.log.Debugf("sht4x init err=%v", err)
		return false
	}
	return true
}

func (self *SHT4x) Fetch() (Reading, error) {
	self.mu.Lock()
	defer self.mu.Unlock()
	if !self.ready {
		if err := self.initLocked(); err != nil {
			return Reading{}, errors.Trace(err)
		}
	}

	var buf [6]byte
	if err := self.txLocked(cmdMeasureHigh, measureDuration, buf[:]); err != nil {
		self.ready = false
		return Reading{}, errors.Annotate(err, "sht4x measure")
	}
	if !crc.CRC8_sht_word(buf[0], buf[1], buf[2]) {
		return Reading{}, errors.Errorf("sht4x temperature word crc mismatch % x", buf[0:3])
	}
	if !crc.CRC8_sht_word(buf[3], buf[4], buf[5]) {
		return Reading{}, errors.Errorf("sht4x humidity word crc mismatch % x", buf[3:6])
	}

	st := uint16(buf[0])<<8 | uint16(buf[1])
	srh := uint16(buf[3])<<8 | uint16(buf[4])
	tempC := -45 + 175*float64(st)/65535
	rh := -6 + 125*float64(srh)/65535
	if rh < 0 {
		rh = 0
	} else if rh > 100 {
		rh = 100
	}
	return NewReading(tempC, rh), nil
}

func (self *SHT4x) Close() error {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.ready = false
	if self.bus != nil {
		bus := self.bus
		self.bus = nil
		return bus.Close()
	}
	return nil
}

func (self *SHT4x) initLocked() error {
	if self.bus == nil {
		if _, err := host.Init(); err != nil {
			return errors.Annotate(err, "periph/init")
		}
		bus, err := i2creg.Open(self.config.Bus)
		if err != nil {
			return errors.Annotatef(err, "sht4x i2c bus=%s", self.config.Bus)
		}
		self.bus = bus
		self.dev = i2c.Dev{Addr: uint16(self.config.Addr), Bus: bus}
	}

	// serial number read doubles as presence probe
	var buf [6]byte
	if err := self.txLocked(cmdReadSerial, serialDuration, buf[:]); err != nil {
		return errors.Annotate(err, "sht4x probe")
	}
	if !crc.CRC8_sht_word(buf[0], buf[1], buf[2]) || !crc.CRC8_sht_word(buf[3], buf[4], buf[5]) {
		return errors.Errorf("sht4x serial crc mismatch % x", buf[:])
	}
	serial := uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[3])<<8 | uint32(buf[4])
	self.log.Infof("sht4x ready serial=%08x", serial)
	self.ready = true
	return nil
}

// SHT4x has no register addressing: write one command byte, wait for the
// measurement, then read the response in a separate transaction.
func (self *SHT4x) txLocked(cmd byte, wait time.Duration, response []byte) error {
	if err := self.dev.Tx([]byte{cmd}, nil); err != nil {
		return errors.Trace(err)
	}
	time.Sleep(wait)
	if err := self.dev.Tx(nil, response); err != nil {
		return errors.Trace(err)
	}
	return nil
}

var _ Sensorer = &SHT4x{} // compile-time interface test
