// internal/transport/dxl/crc.go
package dxl

// crc16 is CRC-16/BUYPASS (poly 0x8005, init 0, no reflection), the checksum
// of protocol 2.0 packets.
func crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x8005
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
