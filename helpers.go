package rfof

/*
this file contains some utility functions
*/

// getWord retrieves a 16-bit word in register layout (bigendian) from a byte slice.
func getWord(data []byte, index int) uint16 {
	return uint16(data[index])<<8 | uint16(data[index+1])
}

// setWord sets a 16-bit word in register layout (bigendian) in a byte slice.
func setWord(data []byte, index int, value uint16) {
	data[index] = byte(value >> 8)
	data[index+1] = byte(value & 0xFF)
}

// integerAverage averages without ever holding the full sum, so it cannot overflow a uint16.
func integerAverage(nums []uint16) uint16 {
	if len(nums) == 0 {
		return 0
	}
	n := uint16(len(nums))
	var avg, rem uint16
	for _, num := range nums {
		rem += num % n
		avg += num/n + rem/n
		rem %= n
	}
	return avg
}

// inRange is false for NaN.
func inRange(val, min, max float64) bool {
	return val >= min && val <= max
}
