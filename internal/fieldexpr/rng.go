package fieldexpr

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// rngSource backs every Rand* evaluation. It defaults to a fixed seed so
// evaluation is reproducible unless a caller opts into entropy via Seed.
var rngSource rand.Source = rand.NewSource(1)

// Seed reseeds the package-level random source. Tests use this to pin
// sequences; production callers may seed from a true entropy source at
// startup.
func Seed(seed uint64) {
	rngSource = rand.NewSource(seed)
}

func uniform01() float64 {
	return distuv.Uniform{Min: 0, Max: 1, Src: rngSource}.Rand()
}

func uniformRange(min, max float64) float64 {
	return distuv.Uniform{Min: min, Max: max, Src: rngSource}.Rand()
}
