package models

// Counter is a named monotonic counter. Serial numbers for drops come from
// the "drop_serial" row, incremented in place so concurrent creations never
// see the same value.
type Counter struct {
	Name  string `gorm:"primaryKey"`
	Value int64  `gorm:"not null"`
}

// DropSerialCounter names the counter row backing drop serial numbers.
// Seeded at 1000; the first issued serial is 1001.
const DropSerialCounter = "drop_serial"

const DropSerialSeed = 1000
