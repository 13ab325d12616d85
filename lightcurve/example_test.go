package lightcurve_test

import (
	"fmt"
	"log"

	"xpolsim/lightcurve"
)

// Example demonstrates fitting a spline model to sparse flux samples and
// evaluating it on a finer time grid.
func Example() {
	// Hourly flux measurements, expressed in MET seconds.
	times := []float64{0, 3600, 7200, 10800, 14400}
	fluxes := []float64{10.0, 12.0, 11.0, 13.0, 12.0}

	model, err := lightcurve.NewModel(times, fluxes, lightcurve.FitOptions{Degree: 3})
	if err != nil {
		log.Fatalf("Failed to fit the light curve: %v", err)
	}

	fmt.Printf("Domain: [%.0f, %.0f]\n", model.Xmin(), model.Xmax())
	fmt.Printf("Flux at 3600 s: %.2f\n", model.Evaluate(3600))
	fmt.Printf("Flux at 5400 s: %.2f\n", model.Evaluate(5400))

	// Output:
	// Domain: [0, 14400]
	// Flux at 3600 s: 12.00
	// Flux at 5400 s: 11.66
}
