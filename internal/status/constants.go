// internal/status/constants.go
package status

// Group Status Block layout constants.
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of holding registers per status block.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the group health state.
const SlotHealthCode = 0

// SlotLastErrorCode holds the last raw error code.
const SlotLastErrorCode = 1

// SlotSecondsInError holds the duration (in seconds) the group has been in error.
const SlotSecondsInError = 2

// SlotDeviceCount holds the number of servos in the group.
const SlotDeviceCount = 3

// ---- RESERVED RANGE ----

// Slots 4-10 are reserved for future use.
const SlotReservedStart = 4
const SlotReservedEnd = 10

// ---- GROUP NAME ----

// SlotNameStart is the first slot used for the group name.
// The name is always placed at the END of the status block.
const SlotNameStart = 11

// SlotNameSlots is the number of slots reserved for the group name.
const SlotNameSlots = 8

// SlotNameEnd is the last slot used for the group name (inclusive).
const SlotNameEnd = SlotNameStart + SlotNameSlots - 1

// ---- LIMITS ----

// NameMaxChars is the maximum number of ASCII characters stored for the name.
const NameMaxChars = 16

// MaxSecondsInError is where seconds_in_error saturates.
const MaxSecondsInError uint16 = 65535

// ---- HEALTH CODES ----

// HealthUnknown represents an unknown or boot state.
const HealthUnknown uint16 = 0

// HealthOK represents a healthy group.
const HealthOK uint16 = 1

// HealthError represents a group error state.
const HealthError uint16 = 2

// ErrorCodeGeneric is used when an error carries no code of its own.
const ErrorCodeGeneric uint16 = 1
