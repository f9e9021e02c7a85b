package crc

import (
	"strings"
	"testing"
)

func makeCheck2(fun func(byte, byte) byte, tag string) func(t *testing.T, v1, v2, expect byte) {
	return func(t *testing.T, v1, v2, expect byte) {
		if fun(v1, v2) != expect {
			t.Errorf("%s(%02x, %02x) != %02x", tag, v1, v2, expect)
		}
	}
}

func makeCheckN(fun func(byte, []byte) byte, tag string) func(t *testing.T, v1 byte, vs []byte, expect byte) {
	return func(t *testing.T, v1 byte, vs []byte, expect byte) {
		if fun(v1, vs) != expect {
			t.Errorf("%s(%02x, "+strings.Repeat("%02x", len(vs))+") != %02x", tag, v1, vs, expect)
		}
	}
}

func TestBitLoop(t *testing.T) {
	check := makeCheck2(CRC8_p31, "CRC8_p31")
	// Sensirion datasheet: CRC(0xbeef) = 0x92
	check(t, CRC8_p31(CRC_INIT_SHT, 0xbe), 0xef, 0x92)
	check(t, CRC_INIT_SHT, 0x00, 0xac)
	checkN := makeCheckN(CRC8_p31_n, "CRC8_p31_n")
	checkN(t, CRC_INIT_SHT, []byte{0xbe, 0xef}, 0x92)
	checkN(t, CRC_INIT_SHT, nil, CRC_INIT_SHT)
}

func TestWord(t *testing.T) {
	if !CRC8_sht_word(0xbe, 0xef, 0x92) {
		t.Error("CRC8_sht_word(beef, 92) must accept")
	}
	if CRC8_sht_word(0xbe, 0xef, 0x91) {
		t.Error("CRC8_sht_word(beef, 91) must reject")
	}
}
