// Package uci implements the wire format of the UWB Command Interface.
package uci

// UCI is spoken between a host and a UWB controller (UWBS) over a
// byte-oriented transport (SPI, UART, USB-CDC). Every packet starts with
// a 4-byte header:
//
//   byte0: MT(3) | PBF(1) | GID(4)
//   byte1: EXT(1) | RFU(1) | OID(6)
//   byte2: RFU, or low byte of payload length when EXT is set
//   byte3: payload length, or high byte when EXT is set
//
// MT is the message type (command, response, notification), PBF marks
// a fragment that continues in the next packet, GID/OID select the
// operation. Payloads longer than 255 bytes either use the extended
// length encoding or are segmented into PBF fragments which the
// receiver reassembles into one logical packet.
//
// Multi-byte integers inside payloads are little-endian.
