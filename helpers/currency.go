package helpers

import "fmt"

const crore = 10_000_000

// FormatCrore formats a rupee amount in crores, e.g. 355_690_000 ->
// "₹35.57Cr". Used for the human-readable figures in signal reasons.
func FormatCrore(amount float64) string {
	return fmt.Sprintf("₹%.2fCr", amount/crore)
}

// FormatIndianRupees formats an amount with Indian digit grouping:
// the last three digits form one group, everything above groups in
// twos (₹1,23,45,678).
func FormatIndianRupees(amount float64) string {
	value := int64(amount)

	negative := value < 0
	if negative {
		value = -value
	}

	str := fmt.Sprintf("%d", value)
	length := len(str)

	if length <= 3 {
		if negative {
			return fmt.Sprintf("₹-%s", str)
		}
		return fmt.Sprintf("₹%s", str)
	}

	// Positions needing a comma before them: the last group of three,
	// then every second digit above it.
	var result string
	for i, digit := range str {
		remaining := length - i
		if i > 0 && (remaining == 3 || (remaining > 3 && remaining%2 == 1)) {
			result += ","
		}
		result += string(digit)
	}

	if negative {
		return fmt.Sprintf("₹-%s", result)
	}
	return fmt.Sprintf("₹%s", result)
}
