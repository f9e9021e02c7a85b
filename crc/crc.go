// CRC-8 as used by Sensirion SHT4x sensor words:
// polynomial 0x31, init 0xff, no reflection, no final xor.
// Each 16-bit measurement word on the wire is followed by one CRC byte.
package crc

const CRC_POLY_31 byte = 0x31

const CRC_INIT_SHT byte = 0xff

func CRC8_p31(crc, data byte) byte {
	crc ^= data
	var i byte = 0
	for ; i < 8; i++ {
		if (crc & 0x80) != 0 {
			crc <<= 1
			crc ^= CRC_POLY_31
		} else {
			crc <<= 1
		}
	}
	return crc
}

func CRC8_p31_n(crc byte, data []byte) byte {
	for _, b := range data {
		crc = CRC8_p31(crc, b)
	}
	return crc
}

// CRC8_sht_word checks one sensor word against its trailing CRC byte.
func CRC8_sht_word(hi, lo, check byte) bool {
	crc := CRC8_p31(CRC_INIT_SHT, hi)
	crc = CRC8_p31(crc, lo)
	return crc == check
}
