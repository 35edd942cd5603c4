package decimal

import "math"

func nan64() float64        { return math.NaN() }
func sqrt64(f float64) float64 { return math.Sqrt(f) }
