package apdu

import "fmt"

// Status Word Logic:
//
// Every reply ends with a 2-byte Status Word (SW1-SW2). The application reuses a
// handful of ISO 7816-4 codes and reserves the 0x9XXX range for its own use:
//
// 1. '9000': the command was processed successfully.
//
// 2. '9001' to '9FFF': vendor-specific markers. The device uses them to tell the
//    host that it is still consuming a multi-chunk exchange (for instance
//    '9001' while the device is busy).
//
// 3. '69XX', '6AXX', '6BXX', '6EXX': checking errors. The device refused the
//    command before executing it (locked device, rejected confirmation, wrong
//    parameters, wrong application).

// StatusWord represents the two-byte status returned by the device.
type StatusWord uint16

// NewStatusWord creates a StatusWord instance from two separate bytes.
func NewStatusWord(sw1, sw2 byte) StatusWord {
	return StatusWord(uint16(sw1)<<8 | uint16(sw2))
}

// SW1 returns the first byte (high byte) of the status word.
func (sw StatusWord) SW1() byte {
	return byte(sw >> 8)
}

// SW2 returns the second byte (low byte) of the status word.
func (sw StatusWord) SW2() byte {
	return byte(sw)
}

// Status Word codes returned by the application.
const (
	SW_NO_ERROR StatusWord = 0x9000
	SW_BUSY     StatusWord = 0x9001

	SW_ERR_EXECUTION          StatusWord = 0x6400
	SW_ERR_WRONG_LENGTH       StatusWord = 0x6700
	SW_ERR_DERIVING_KEYS      StatusWord = 0x6802
	SW_ERR_SECURITY_STATUS    StatusWord = 0x6982
	SW_ERR_OUTPUT_TOO_SMALL   StatusWord = 0x6983
	SW_ERR_CONDITIONS_NOT_SAT StatusWord = 0x6985
	SW_ERR_TX_REJECTED        StatusWord = 0x6986
	SW_ERR_DATA_INVALID       StatusWord = 0x6A80
	SW_ERR_BAD_KEY_HANDLE     StatusWord = 0x6A81
	SW_ERR_WRONG_P1P2         StatusWord = 0x6B00
	SW_ERR_INS_NOT_SUPPORTED  StatusWord = 0x6D00
	SW_ERR_CLA_NOT_SUPPORTED  StatusWord = 0x6E00
	SW_ERR_APP_NOT_OPEN       StatusWord = 0x6E01
	SW_ERR_UNKNOWN            StatusWord = 0x6F00
	SW_ERR_SIGN_VERIFY        StatusWord = 0x6F01
)

var statusWordNames = map[StatusWord]string{
	SW_NO_ERROR:               "SW_NO_ERROR",
	SW_BUSY:                   "SW_BUSY",
	SW_ERR_EXECUTION:          "SW_ERR_EXECUTION",
	SW_ERR_WRONG_LENGTH:       "SW_ERR_WRONG_LENGTH",
	SW_ERR_DERIVING_KEYS:      "SW_ERR_DERIVING_KEYS",
	SW_ERR_SECURITY_STATUS:    "SW_ERR_SECURITY_STATUS",
	SW_ERR_OUTPUT_TOO_SMALL:   "SW_ERR_OUTPUT_TOO_SMALL",
	SW_ERR_CONDITIONS_NOT_SAT: "SW_ERR_CONDITIONS_NOT_SAT",
	SW_ERR_TX_REJECTED:        "SW_ERR_TX_REJECTED",
	SW_ERR_DATA_INVALID:       "SW_ERR_DATA_INVALID",
	SW_ERR_BAD_KEY_HANDLE:     "SW_ERR_BAD_KEY_HANDLE",
	SW_ERR_WRONG_P1P2:         "SW_ERR_WRONG_P1P2",
	SW_ERR_INS_NOT_SUPPORTED:  "SW_ERR_INS_NOT_SUPPORTED",
	SW_ERR_CLA_NOT_SUPPORTED:  "SW_ERR_CLA_NOT_SUPPORTED",
	SW_ERR_APP_NOT_OPEN:       "SW_ERR_APP_NOT_OPEN",
	SW_ERR_UNKNOWN:            "SW_ERR_UNKNOWN",
	SW_ERR_SIGN_VERIFY:        "SW_ERR_SIGN_VERIFY",
}

// String returns the constant name of a known status word, or StatusWord(0xXXXX).
func (sw StatusWord) String() string {
	if name, ok := statusWordNames[sw]; ok {
		return name
	}
	return fmt.Sprintf("StatusWord(0x%04X)", uint16(sw))
}

// IsVendorSpecific reports whether the status word lies in the 0x9001-0x9FFF range.
func (sw StatusWord) IsVendorSpecific() bool {
	return sw > SW_NO_ERROR && sw <= 0x9FFF
}

// Verbose returns a human-readable description of the status word.
func (sw StatusWord) Verbose() string {
	if name, ok := statusWordNames[sw]; ok {
		return fmt.Sprintf("[%04X] %s", uint16(sw), name)
	}
	return fmt.Sprintf("[%04X] %s", uint16(sw), sw.genericCategoryDescription())
}

// genericCategoryDescription provides a fallback description based on SW1.
func (sw StatusWord) genericCategoryDescription() string {
	switch {
	case sw.IsVendorSpecific():
		return "Vendor specific: exchange in progress"
	case sw.SW1() == 0x64:
		return "Execution Error"
	case sw.SW1() == 0x67:
		return "Checking Error: Wrong length"
	case sw.SW1() == 0x69:
		return "Checking Error: Command not allowed"
	case sw.SW1() == 0x6A:
		return "Checking Error: Wrong parameters"
	default:
		return "Unknown Status"
	}
}
